// Package availability answers one question: is the backend reachable right now?
package availability

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultHealthURL is the health endpoint of a locally running backend.
	DefaultHealthURL = "http://localhost:5000/health"
	// DefaultTimeout bounds a single probe.
	DefaultTimeout = 3 * time.Second
)

var probesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "meetnote_client",
	Name:      "availability_probes_total",
	Help:      "Health probes issued, by result.",
}, []string{"result"})

// Checker is satisfied by anything that can report backend liveness.
type Checker interface {
	Available(ctx context.Context) bool
}

// Prober issues a bounded-time GET against the health URL on every call.
// Liveness is never cached.
type Prober struct {
	client *resty.Client
	url    string
}

// NewProber returns a Prober for healthURL. A zero timeout selects DefaultTimeout.
// httpClient may be nil; when set, its transport is reused so debug logging and
// test servers apply to probes as well.
func NewProber(healthURL string, timeout time.Duration, httpClient *http.Client) *Prober {
	if healthURL == "" {
		healthURL = DefaultHealthURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	var c *resty.Client
	if httpClient != nil {
		c = resty.NewWithClient(&http.Client{Transport: httpClient.Transport})
	} else {
		c = resty.New()
	}
	c.SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	return &Prober{client: c, url: healthURL}
}

// URL returns the probed health URL.
func (p *Prober) URL() string { return p.url }

// Available reports whether the health endpoint answered 2xx within the timeout.
// Any transport failure, timeout or non-2xx status yields false.
func (p *Prober) Available(ctx context.Context) bool {
	resp, err := p.client.R().SetContext(ctx).Get(p.url)
	if err != nil {
		log.Debug().Err(err).Str("url", p.url).Msg("health probe failed")
		probesTotal.WithLabelValues("error").Inc()
		return false
	}
	if !resp.IsSuccess() {
		log.Debug().Int("status", resp.StatusCode()).Str("url", p.url).Msg("health probe unhealthy")
		probesTotal.WithLabelValues("unhealthy").Inc()
		return false
	}
	probesTotal.WithLabelValues("ok").Inc()
	return true
}

// Static is a Checker with a fixed answer.
type Static bool

// Available returns the fixed answer.
func (s Static) Available(context.Context) bool { return bool(s) }
