package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

var dotEnvFile = ".env"

const (
	envBotToken       = "GUILDSTORE_BOT_TOKEN"
	envGroupID        = "GUILDSTORE_GROUP_ID"
	envAPIBaseURL     = "GUILDSTORE_API_URL"
	envJournalDSN     = "GUILDSTORE_JOURNAL_DSN"
	envS3RootUser     = "GUILDSTORE_S3_USER"
	envS3RootPassword = "GUILDSTORE_S3_PASSWORD"
)

// parseEnv loads envFile (if present) into the process environment and then
// overlays the GUILDSTORE_* variables onto config. Variables that are unset
// leave the current value alone.
func parseEnv(config *Config, envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	lookup := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}

	lookup(envBotToken, &config.BotToken)
	lookup(envGroupID, &config.GroupID)
	lookup(envAPIBaseURL, &config.APIBaseURL)
	lookup(envJournalDSN, &config.JournalDSN)
	lookup(envS3RootUser, &config.S3RootUser)
	lookup(envS3RootPassword, &config.S3RootPassword)
}
