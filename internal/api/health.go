package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/meetnote/client/internal/errors"
	"github.com/meetnote/client/internal/types"
)

// CheckHealth queries the absolute health URL. Unlike the versioned endpoints
// the body is not enveloped.
func CheckHealth(ctx context.Context, httpClient *http.Client, healthURL string) (*types.HealthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.NewNetworkError("health check", err)
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, errors.NewNetworkError("health check", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewHTTPError("health check", resp.StatusCode, raw)
	}
	var hs types.HealthStatus
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &hs); err != nil {
			return nil, errors.NewDecodeError("health check", resp.StatusCode, err)
		}
	}
	if hs.Status == "" {
		hs.Status = "ok"
	}
	return &hs, nil
}
