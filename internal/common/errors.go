// Package common defines shared constants and sentinel errors used across
// the gateway, codec and store layers of guildstore. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Remote lookups that found nothing. Store reads absorb it into nil results.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal = errors.New("internal error")

	// Input rejected before any remote call was made.
	ErrValidation = errors.New("validation error")

	// Gateway errors.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrRemoteRejected    = errors.New("remote rejected request")
	ErrCancelled         = errors.New("request cancelled")

	// Stored Parts could not be reassembled.
	ErrDecodeCorrupt = errors.New("corrupt collection payload")
)
