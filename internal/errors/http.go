package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
)

// ClassifyStatus maps HTTP status codes to error categories.
// 4xx client errors other than 408 and 429 are irrecoverable; everything else is
// treated as transient.
func ClassifyStatus(statusCode int) ErrorCategory {
	switch {
	case statusCode >= 400 && statusCode < 500:
		switch statusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return Recoverable
		default:
			return Irrecoverable
		}
	default:
		return Recoverable
	}
}

// NewHTTPError builds the error for a non-2xx response. The message comes from
// an {"error": {"message": ...}} body when present, otherwise it is the generic
// "HTTP error! status: N".
func NewHTTPError(op string, statusCode int, body []byte) *APIError {
	e := &APIError{
		Op:         op,
		Category:   ClassifyStatus(statusCode),
		StatusCode: statusCode,
		Message:    fmt.Sprintf("HTTP error! status: %d", statusCode),
	}
	var eb struct {
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if len(body) > 0 && json.Unmarshal(body, &eb) == nil && eb.Error != nil && strings.TrimSpace(eb.Error.Message) != "" {
		e.Message = eb.Error.Message
		e.FromBody = true
	}
	return e
}

// NewNetworkError creates the error for a request that produced no response.
// Network errors are recoverable as they may be transient.
func NewNetworkError(op string, err error) *APIError {
	return &APIError{
		Op:         op,
		Category:   Recoverable,
		Message:    fmt.Sprintf("%s: failed to fetch: %v", op, err),
		Underlying: err,
	}
}

// NewDecodeError reports a 2xx response whose body could not be decoded.
func NewDecodeError(op string, statusCode int, err error) *APIError {
	return &APIError{
		Op:         op,
		Category:   Irrecoverable,
		StatusCode: statusCode,
		Message:    fmt.Sprintf("%s: invalid response body: %v", op, err),
		Underlying: err,
	}
}

// Human-readable messages reported to the view layer.
const (
	MsgNetwork      = "Unable to reach the server. Check your network connection."
	MsgBadRequest   = "The request was invalid. Check the input data."
	MsgUnauthorized = "Authentication is required. Please sign in again."
	MsgForbidden    = "You do not have permission to access this resource."
	MsgNotFound     = "The requested resource could not be found."
	MsgServer       = "The server encountered an internal error. Please try again later."
	MsgUnknown      = "An unknown error occurred."
)

// HumanMessage converts err into the string an orchestration object reports.
// A message supplied by the backend wins; known statuses map to fixed sentences;
// anything else falls back to err.Error().
func HumanMessage(err error) string {
	if err == nil {
		return ""
	}
	if apiErr, ok := AsAPIError(err); ok {
		if apiErr.FromBody {
			return apiErr.Message
		}
		if apiErr.IsNetwork() {
			if stderrors.Is(apiErr.Underlying, context.Canceled) {
				return apiErr.Message
			}
			return MsgNetwork
		}
		switch apiErr.StatusCode {
		case http.StatusBadRequest:
			return MsgBadRequest
		case http.StatusUnauthorized:
			return MsgUnauthorized
		case http.StatusForbidden:
			return MsgForbidden
		case http.StatusNotFound:
			return MsgNotFound
		case http.StatusInternalServerError:
			return MsgServer
		}
		return apiErr.Message
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return MsgUnknown
}
