package types

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/meetnote/client/internal/shardqueue"
)

// ------------------------------
// Shared Interfaces
// ------------------------------

// Executor interface for dependency injection (used by serialized operations)
type Executor interface {
	Submit(context.Context, string, shardqueue.Job) error
}

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// ------------------------------
// Shared Validation
// ------------------------------

// ValidateIDPresent rejects empty identifiers and identifiers containing a path
// separator, which would change the endpoint being addressed.
func ValidateIDPresent(id, field string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%s is required", field)
	}
	if strings.ContainsAny(id, "/?#") {
		return fmt.Errorf("%s contains invalid characters: %q", field, id)
	}
	return nil
}

// ValidateContextType accepts the two known session scopes.
func ValidateContextType(ct ContextType) error {
	switch ct {
	case ContextGeneral, ContextMeeting:
		return nil
	default:
		return fmt.Errorf("unsupported context_type %q", ct)
	}
}
