// Package gateway is the single door between guildstore and the remote
// platform's REST API.
//
// Every call, whatever entity it touches, competes for the same N admission
// slots (golang.org/x/sync/semaphore, served in FIFO order). Once admitted, a
// call is sent with the bot credential attached and its response classified:
//
//   - 2xx: body returned (204 yields an empty body)
//   - 404: nil response, nil error
//   - 429: wait the platform's retry_after hint, or exponential backoff from
//     BaseBackoff when absent, plus random jitter, then retry. After
//     MaxRetries throttled attempts the call fails with
//     common.ErrRateLimitExceeded.
//   - anything else: *RemoteError wrapping common.ErrRemoteRejected
//
// A cancelled context stops the call at any of these stages and is reported
// as common.ErrCancelled. The slot is released on every exit path.
package gateway
