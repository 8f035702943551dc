// Package common contains shared constants and sentinel errors used across
// guildstore components.
package common

// AuthorizationHeaderName is the header carrying the bot credential on every
// request sent to the remote platform.
const AuthorizationHeaderName = "Authorization"

// FileSizeLimit is the largest attachment, in bytes, the remote platform
// accepts in a single upload. Content above it is split into Parts.
const FileSizeLimit = 10 * 1024 * 1024
