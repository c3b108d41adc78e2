package client

import (
	"errors"

	apierrors "github.com/meetnote/client/internal/errors"
	"github.com/meetnote/client/internal/shardqueue"
)

var (
	// ErrSessionRequired is returned by SendMessage when no session is current.
	ErrSessionRequired = errors.New("a chat session is required")

	// ErrMeetingIDRequired is returned by meeting-scoped operations built without a meeting id.
	ErrMeetingIDRequired = errors.New("meeting id is required")

	// ErrUnsupportedFileType is returned when an upload cannot be dispatched by kind.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrClosed is returned by operations on a closed client or surface.
	ErrClosed = errors.New("closed")

	// ErrBackPressure is returned when the client's send queue is full.
	ErrBackPressure = errors.New("back-pressure (queue full)")
)

// Reported error strings for local failures.
const (
	MsgSessionRequired   = "A chat session is required."
	MsgMeetingIDRequired = "A meeting id is required."
)

// APIError is the error returned by every failed backend call.
type APIError = apierrors.APIError

// IsBackPressure reports whether err is a back-pressure error.
func IsBackPressure(err error) bool {
	return errors.Is(err, ErrBackPressure) || errors.Is(err, shardqueue.ErrQueueFull)
}

// AsAPIError unwraps err into an *APIError.
func AsAPIError(err error) (*APIError, bool) { return apierrors.AsAPIError(err) }

// HumanMessage converts err into the string reported to the view layer.
func HumanMessage(err error) string { return apierrors.HumanMessage(err) }
