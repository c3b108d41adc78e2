// Package errors provides the error model of the client SDK: every failed
// backend call surfaces as an *APIError carrying a human-readable message.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory tells the send queue whether a failure is worth another attempt.
type ErrorCategory int

const (
	// Recoverable errors are transient: 5xx responses, timeouts, connection failures.
	Recoverable ErrorCategory = iota

	// Irrecoverable errors will fail again unchanged: 400, 401, 403, 404.
	Irrecoverable
)

// String returns a human-readable representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// APIError is returned by every transport function on a non-2xx response or a
// network-level failure.
type APIError struct {
	Op         string        // operation name, e.g. "get meetings"
	Category   ErrorCategory // retry classification
	StatusCode int           // HTTP status code (0 for network errors)
	Message    string        // message from the body, or a generic status message
	FromBody   bool          // Message was supplied by the backend
	Underlying error         // network cause, nil for HTTP errors
}

// Error implements the error interface. It returns the message alone so it can
// be shown to users as-is.
func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *APIError) Unwrap() error {
	return e.Underlying
}

// IsNetwork reports whether the request never produced an HTTP response.
func (e *APIError) IsNetwork() bool { return e.StatusCode == 0 }

// IsIrrecoverable returns true if the error should not be retried.
func IsIrrecoverable(err error) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Category == Irrecoverable
	}
	return false
}

// AsAPIError unwraps err into an *APIError when possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := stderrors.As(err, &apiErr)
	return apiErr, ok
}
