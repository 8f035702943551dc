// Package config assembles the runtime configuration of the guildstore
// server.
//
// Sources are applied in order, each overriding the previous one:
//
//  1. LoadDefaults: development defaults.
//  2. JSON file named by -c/-config (see flagx.ConfigPath). Durations use
//     timex.Duration, so both "1s" and integer nanoseconds are accepted.
//  3. Environment: a .env file in the working directory is loaded first
//     (godotenv, never overriding variables already set), then the
//     GUILDSTORE_* variables are read.
//  4. Command-line flags (see parseFlags).
//
// The bot token is deliberately not exposed as a flag so it does not end up
// in process listings. Invalid input in any source panics, since the server
// cannot start with a half-applied configuration.
package config
