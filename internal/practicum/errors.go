package practicum

import (
	"context"
	"errors"
	"fmt"
)

// NetworkError is any failure to obtain a decoded response: transport errors,
// timeouts, non-200 statuses, and malformed bodies.
type NetworkError struct {
	Endpoint string
	// Params is the encoded query string (never contains credentials).
	Params string
	// StatusCode is 0 when no response was received.
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("practicum api %s?%s (http %d): %v", e.Endpoint, e.Params, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("practicum api %s?%s: %v", e.Endpoint, e.Params, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// Timeout reports whether the request hit its deadline.
func (e *NetworkError) Timeout() bool {
	return errors.Is(e.Err, context.DeadlineExceeded)
}
