// ABOUTME: Error taxonomy for dashboard loads
// ABOUTME: Sentinel errors wrapped in RequestError with channel and status context
package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout is returned when a request exceeds its deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrNetwork is returned when the endpoint cannot be reached.
	ErrNetwork = errors.New("network error")

	// ErrServer is returned when the endpoint answers with an empty body, an
	// explicit error, or without a success flag.
	ErrServer = errors.New("server error")

	// ErrValidation is returned when a response is well formed but fails
	// structural checks.
	ErrValidation = errors.New("validation failed")
)

// RequestError wraps a failed load with request context.
type RequestError struct {
	Op         string // e.g. "fetch", "ping"
	Channel    string // response channel of the request
	StatusCode int    // HTTP status, 0 when no response was read
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s %s failed (HTTP %d): %v", e.Op, e.Channel, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Channel, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsNetwork reports whether err means the endpoint could not be reached.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}

// IsServer reports whether the endpoint answered with an unusable response.
func IsServer(err error) bool {
	return errors.Is(err, ErrServer)
}

// IsValidation reports whether a decoded payload failed validation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// Kind names the taxonomy class of err for logs and the load journal.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsTimeout(err):
		return "timeout"
	case IsNetwork(err):
		return "network"
	case IsServer(err):
		return "server"
	case IsValidation(err):
		return "validation"
	default:
		return "other"
	}
}
