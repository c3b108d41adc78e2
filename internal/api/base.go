// Package api holds one function per backend endpoint. Every function takes the
// caller's context, the SDK's *http.Client and the configured base URL, and
// returns the "data" member of the backend's {"data": ...} envelope.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/meetnote/client/internal/errors"
	"github.com/meetnote/client/internal/types"
)

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 16 << 20

// send marshals in (when non-nil) as JSON, issues the request and decodes the
// envelope into T.
func send[T any](ctx context.Context, httpClient *http.Client, op, method, endpoint string, in any) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return zero, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return zero, err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return roundTrip[T](httpClient, op, req)
}

// roundTrip executes req and normalizes the outcome: network failures and
// non-2xx responses become *errors.APIError, an empty 2xx body yields the zero T.
func roundTrip[T any](httpClient *http.Client, op string, req *http.Request) (T, error) {
	var zero T
	resp, err := httpClient.Do(req)
	if err != nil {
		return zero, errors.NewNetworkError(op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return zero, errors.NewNetworkError(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return zero, errors.NewHTTPError(op, resp.StatusCode, raw)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return zero, nil
	}
	var env types.Envelope[T]
	if err := json.Unmarshal(raw, &env); err != nil {
		return zero, errors.NewDecodeError(op, resp.StatusCode, err)
	}
	return env.Data, nil
}

// resourceURL joins baseURL, a collection path and an escaped id.
func resourceURL(baseURL, collection, id string) string {
	return fmt.Sprintf("%s%s/%s", baseURL, collection, url.PathEscape(id))
}
