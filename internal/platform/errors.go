// errors.go — error values shared by all platform calls.
package platform

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the platform rejects a credential.
	ErrUnauthorized = errors.New("platform: unauthorized")

	// ErrNotFound is returned when a record or object does not exist.
	ErrNotFound = errors.New("platform: not found")
)

// RemoteError is a non-2xx platform response that is neither an auth
// rejection nor a missing record. Body carries the raw payload for logging;
// it must never be surfaced to end users.
type RemoteError struct {
	Op     string
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("platform: %s: status %d: %s", e.Op, e.Status, e.Body)
}

// truncate limits a raw response body to a loggable size.
func truncate(b []byte) string {
	const max = 512
	if len(b) > max {
		return string(b[:max]) + "…"
	}
	return string(b)
}
