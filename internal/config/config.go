package config

import (
	"os"
	"time"

	"github.com/dmitrijs2005/guildstore/internal/common"
)

// Config holds runtime settings for the guildstore server.
//
// Fields:
//   - ListenAddr: bind address of the HTTP adapter surface.
//   - APIBaseURL / GroupID / BotToken: remote platform endpoint, the group
//     (guild) that backs the store, and the bot credential.
//   - MaxConcurrency / MaxRetries / BaseBackoff / MaxJitter / RequestTimeout:
//     gateway admission and throttling policy.
//   - FileSizeLimit: Part size in bytes.
//   - JournalDSN: SQLite DSN of the staged-Part journal.
//   - S3*: optional content mirror. An empty S3Bucket disables it.
type Config struct {
	ListenAddr     string
	APIBaseURL     string
	GroupID        string
	BotToken       string
	MaxConcurrency int
	MaxRetries     int
	BaseBackoff    time.Duration
	MaxJitter      time.Duration
	RequestTimeout time.Duration
	FileSizeLimit  int
	JournalDSN     string
	LogLevel       string
	S3RootUser     string
	S3RootPassword string
	S3Bucket       string
	S3Region       string
	S3BaseEndpoint string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.ListenAddr = ":8080"
	c.APIBaseURL = "https://discord.com/api/v10"
	c.MaxConcurrency = 2
	c.MaxRetries = 5
	c.BaseBackoff = 1 * time.Second
	c.MaxJitter = 500 * time.Millisecond
	c.RequestTimeout = 30 * time.Second
	c.FileSizeLimit = common.FileSizeLimit
	c.JournalDSN = "guildstore.db"
	c.LogLevel = "info"
	c.S3Region = "us-east-1"
}

// MirrorEnabled reports whether committed content should be copied to S3.
func (c *Config) MirrorEnabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file, the environment and finally command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	args := os.Args[1:]
	parseJson(cfg, args)
	parseEnv(cfg, dotEnvFile)
	parseFlags(cfg, args)
	return cfg
}
