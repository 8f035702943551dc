package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/guildstore/internal/flagx"
	"github.com/dmitrijs2005/guildstore/internal/timex"
)

// JsonConfig is the on-disk shape of the config file. Pointer fields let a
// file override only the keys it mentions.
type JsonConfig struct {
	ListenAddr     *string         `json:"listen_addr"`
	APIBaseURL     *string         `json:"api_base_url"`
	GroupID        *string         `json:"group_id"`
	BotToken       *string         `json:"bot_token"`
	MaxConcurrency *int            `json:"max_concurrency"`
	MaxRetries     *int            `json:"max_retries"`
	BaseBackoff    *timex.Duration `json:"base_backoff"`
	MaxJitter      *timex.Duration `json:"max_jitter"`
	RequestTimeout *timex.Duration `json:"request_timeout"`
	FileSizeLimit  *int            `json:"file_size_limit"`
	JournalDSN     *string         `json:"journal_dsn"`
	LogLevel       *string         `json:"log_level"`
	S3RootUser     *string         `json:"s3_root_user"`
	S3RootPassword *string         `json:"s3_root_password"`
	S3Bucket       *string         `json:"s3_bucket"`
	S3Region       *string         `json:"s3_region"`
	S3BaseEndpoint *string         `json:"s3_base_endpoint"`
}

// parseJson overlays values from the JSON file named by -c/-config in args.
// Without such a flag it does nothing. Unreadable or malformed files panic.
func parseJson(config *Config, args []string) {

	jsonConfigFile := flagx.ConfigPath(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.ListenAddr, c.ListenAddr)
	setString(&config.APIBaseURL, c.APIBaseURL)
	setString(&config.GroupID, c.GroupID)
	setString(&config.BotToken, c.BotToken)
	setInt(&config.MaxConcurrency, c.MaxConcurrency)
	setInt(&config.MaxRetries, c.MaxRetries)
	if c.BaseBackoff != nil {
		config.BaseBackoff = c.BaseBackoff.Duration
	}
	if c.MaxJitter != nil {
		config.MaxJitter = c.MaxJitter.Duration
	}
	if c.RequestTimeout != nil {
		config.RequestTimeout = c.RequestTimeout.Duration
	}
	setInt(&config.FileSizeLimit, c.FileSizeLimit)
	setString(&config.JournalDSN, c.JournalDSN)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
