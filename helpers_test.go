package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meetnote/client/internal/availability"
	"github.com/meetnote/client/internal/backendtest"
	"github.com/meetnote/client/internal/shardqueue"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

// errNetwork is what the throwing transport returns for every request.
var errNetwork = errors.New("connection reset by peer")

func throwingHTTPClient() *http.Client {
	return &http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errNetwork
	})}
}

// testClock starts at a fixed instant and advances one millisecond per call,
// so every local id is distinct.
type testClock struct {
	start time.Time
	ticks atomic.Int64
}

func newTestClock() *testClock {
	return &testClock{start: time.Date(2025, 9, 27, 9, 30, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	return c.start.Add(time.Duration(c.ticks.Add(1)) * time.Millisecond)
}

// fastOptions shrink every delay so tests run quickly.
func fastOptions() []Option {
	return []Option{
		WithReplyDelay(10 * time.Millisecond),
		WithProgressResetDelay(30 * time.Millisecond),
		WithMockUploadDuration(20 * time.Millisecond),
		WithProbeTimeout(time.Second),
		WithClock(newTestClock().Now),
	}
}

// newTestClient returns a client talking to srv.
func newTestClient(t *testing.T, srv *backendtest.Server, opts ...Option) *Client {
	t.Helper()
	base := append([]Option{
		WithHTTPClient(srv.Client()),
		WithHealthURL(srv.HealthURL()),
	}, fastOptions()...)
	c, err := New(srv.BaseURL(), append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// newThrowingClient returns a client whose every request fails at the network
// level. available fixes what the availability check answers.
func newThrowingClient(t *testing.T, available bool, opts ...Option) *Client {
	t.Helper()
	base := append([]Option{
		WithHTTPClient(throwingHTTPClient()),
		WithAvailabilityChecker(availability.Static(available)),
	}, fastOptions()...)
	c, err := New("http://backend.invalid/v1", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// newCannedClient returns a client whose every request is answered with
// status and body while the backend reports itself available.
func newCannedClient(t *testing.T, status int, body string, opts ...Option) *Client {
	t.Helper()
	hc := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: status,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    r,
		}, nil
	})}
	base := append([]Option{
		WithHTTPClient(hc),
		WithAvailabilityChecker(availability.Static(true)),
	}, fastOptions()...)
	c, err := New("http://backend.invalid/v1", append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// stubExec rejects or records submissions.
type stubExec struct {
	mu        sync.Mutex
	submitErr error
	submits   int
	stops     int
}

func (s *stubExec) Submit(context.Context, string, shardqueue.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submits++
	return s.submitErr
}

func (s *stubExec) Barrier(context.Context, string) error { return nil }

func (s *stubExec) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func ctxWithTimeout(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
