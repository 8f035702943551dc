package config

import (
	"flag"
	"time"

	"github.com/dmitrijs2005/guildstore/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-u string   remote API base URL
//	-g string   group id backing the store
//	-n int      maximum concurrent remote calls
//	-r int      retries after throttling before giving up
//	-k int      base backoff, milliseconds
//	-j int      maximum jitter, milliseconds
//	-d string   journal SQLite DSN
//	-l string   log level
//	-b string   S3 mirror bucket (empty disables the mirror)
//	-e string   S3 base endpoint
//
// Only these flags are considered; args is filtered with flagx.FilterArgs
// first so -c/-config and foreign flags do not trip the parser.
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-u", "-g", "-n", "-r", "-k", "-j", "-d", "-l", "-b", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.ListenAddr, "a", config.ListenAddr, "address and port to run server")
	fs.StringVar(&config.APIBaseURL, "u", config.APIBaseURL, "remote API base URL")
	fs.StringVar(&config.GroupID, "g", config.GroupID, "group id")
	fs.IntVar(&config.MaxConcurrency, "n", config.MaxConcurrency, "max concurrent remote calls")
	fs.IntVar(&config.MaxRetries, "r", config.MaxRetries, "max retries after throttling")

	baseBackoff := fs.Int("k", int(config.BaseBackoff.Milliseconds()), "base backoff (in milliseconds)")
	maxJitter := fs.Int("j", int(config.MaxJitter.Milliseconds()), "max jitter (in milliseconds)")

	fs.StringVar(&config.JournalDSN, "d", config.JournalDSN, "journal DSN")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 mirror bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.BaseBackoff = time.Duration(*baseBackoff) * time.Millisecond
	config.MaxJitter = time.Duration(*maxJitter) * time.Millisecond
}
