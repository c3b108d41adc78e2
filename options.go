package client

// This file defines functional options that configure the Client during
// construction. Keeping them in a standalone file makes it easy to discover
// all available knobs at a glance.

import (
	"fmt"
	"net/http"
	"time"

	"github.com/meetnote/client/internal/availability"
	"github.com/meetnote/client/internal/config"
)

// Option configures a Client during construction in New.
//
// Options are applied in order; later options win. Transport-related options
// (like debug logging) wrap whatever transport is installed at that point, so
// WithHTTPClient should come first.
type Option func(*Client) error

// WithHTTPClient replaces the underlying *http.Client. The availability probe
// shares its transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.http = hc
		return nil
	}
}

// WithHTTPTimeout sets the underlying http.Client Timeout used by the SDK.
//
// Prefer per-request context deadlines where possible; this timeout is a
// coarse safety net that bounds the total time spent on a single HTTP request.
// It also bounds how long an optimistic chat message waits for reconciliation.
// The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithDebugLogging wraps the client's transport so each request/response is
// logged when enabled is true.
//
// Do not enable this option in production environments as it increases
// verbosity and dumps request and response bodies.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if enabled {
			if _, already := c.http.Transport.(*debugTransport); already {
				return nil
			}
			base := c.http.Transport
			if base == nil {
				base = http.DefaultTransport
			}
			c.http.Transport = &debugTransport{base: base}
		}
		return nil
	}
}

// WithHealthURL sets the absolute URL probed for backend availability.
func WithHealthURL(u string) Option {
	return func(c *Client) error {
		if u == "" {
			return fmt.Errorf("health url must not be empty")
		}
		c.healthURL = u
		return nil
	}
}

// WithProbeTimeout bounds each availability probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("probe timeout must be > 0")
		}
		c.probeTimeout = d
		return nil
	}
}

// WithAvailabilityChecker replaces the health probe. Useful in tests and for
// callers that already track liveness.
func WithAvailabilityChecker(chk availability.Checker) Option {
	return func(c *Client) error {
		if chk == nil {
			return fmt.Errorf("availability checker must not be nil")
		}
		c.checker = chk
		return nil
	}
}

// WithReplyDelay sets how long a canned offline reply is held back.
func WithReplyDelay(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("reply delay must be >= 0")
		}
		c.replyDelay = d
		return nil
	}
}

// WithProgressResetDelay sets how long upload progress stays at its final
// value before returning to 0.
func WithProgressResetDelay(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("progress reset delay must be >= 0")
		}
		c.resetDelay = d
		return nil
	}
}

// WithMockUploadDuration sets how long the offline upload progress ramp runs.
func WithMockUploadDuration(d time.Duration) Option {
	return func(c *Client) error {
		if d < 0 {
			return fmt.Errorf("mock upload duration must be >= 0")
		}
		c.mockUploadDuration = d
		return nil
	}
}

// WithClock replaces the time source used for local ids and timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		if now == nil {
			return fmt.Errorf("clock must not be nil")
		}
		c.now = now
		return nil
	}
}

// WithConfig applies every setting of a loaded configuration except the base
// URL, which is passed to New.
func WithConfig(cfg *config.Config) Option {
	return func(c *Client) error {
		if cfg == nil {
			return fmt.Errorf("config must not be nil")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		c.healthURL = cfg.HealthURL
		c.probeTimeout = cfg.ProbeTimeout
		c.http.Timeout = cfg.HTTPTimeout
		c.replyDelay = cfg.ReplyDelay
		c.resetDelay = cfg.ProgressResetDelay
		c.mockUploadDuration = cfg.MockUploadDuration
		return WithDebugLogging(cfg.Debug)(c)
	}
}
