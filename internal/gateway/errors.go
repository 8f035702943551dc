package gateway

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/guildstore/internal/common"
)

// RemoteError is a terminal non-2xx, non-404, non-429 response.
type RemoteError struct {
	Status  int
	Method  string
	Route   string
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Route, e.Status, e.Message)
}

func (e *RemoteError) Unwrap() error {
	return common.ErrRemoteRejected
}

// throttled marks a 429 attempt inside the retry loop.
type throttled struct {
	wait   time.Duration
	global bool
}

func (e *throttled) Error() string {
	if e.global {
		return fmt.Sprintf("globally throttled, retry after %s", e.wait)
	}
	return fmt.Sprintf("route throttled, retry after %s", e.wait)
}
