// Package resolve decides, per call, whether an operation talks to the backend
// or is answered locally, and whether a remote failure degrades or surfaces.
package resolve

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/meetnote/client/internal/availability"
)

// Policy selects how a call treats an unreachable or failing backend.
type Policy int

const (
	// Degrade probes first and substitutes a local result when the backend is
	// unavailable or the remote call fails. The remote error is never returned.
	Degrade Policy = iota
	// Surface calls the backend directly and returns its error.
	Surface
)

func (p Policy) String() string {
	if p == Surface {
		return "surface"
	}
	return "degrade"
}

// Reason tells the local function why it was invoked.
type Reason string

const (
	// ReasonUnavailable means the probe reported the backend down.
	ReasonUnavailable Reason = "unavailable"
	// ReasonFailed means the remote call was made and returned an error.
	ReasonFailed Reason = "failed"
)

// Outcome records which path produced a result.
type Outcome struct {
	Remote bool
	Reason Reason
	Err    error
}

var fallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "meetnote_client",
	Name:      "fallbacks_total",
	Help:      "Operations answered locally instead of by the backend.",
}, []string{"operation", "reason"})

// Remote performs the backend call.
type Remote[T any] func(ctx context.Context) (T, error)

// Local synthesizes a result without the backend.
type Local[T any] func(ctx context.Context, reason Reason) (T, error)

// Attempt runs op under policy. With Degrade, checker is consulted first and
// local answers when the backend is unavailable or remote fails; the remote error
// is reported in Outcome.Err only. With Surface, remote runs unconditionally and
// its error is returned; local may be nil.
func Attempt[T any](ctx context.Context, op string, checker availability.Checker, policy Policy, remote Remote[T], local Local[T]) (T, Outcome, error) {
	if policy == Surface || local == nil {
		v, err := remote(ctx)
		return v, Outcome{Remote: true, Err: err}, err
	}

	if checker != nil && !checker.Available(ctx) {
		log.Warn().Str("operation", op).Str("reason", string(ReasonUnavailable)).Msg("backend unavailable, answering locally")
		fallbacksTotal.WithLabelValues(op, string(ReasonUnavailable)).Inc()
		v, err := local(ctx, ReasonUnavailable)
		return v, Outcome{Reason: ReasonUnavailable}, err
	}

	v, err := remote(ctx)
	if err == nil {
		return v, Outcome{Remote: true}, nil
	}
	if ctx.Err() != nil {
		var zero T
		return zero, Outcome{Remote: true, Err: err}, ctx.Err()
	}
	log.Warn().Err(err).Str("operation", op).Str("reason", string(ReasonFailed)).Msg("remote call failed, answering locally")
	fallbacksTotal.WithLabelValues(op, string(ReasonFailed)).Inc()
	lv, lerr := local(ctx, ReasonFailed)
	return lv, Outcome{Reason: ReasonFailed, Err: err}, lerr
}
