// Package job adapts closures to shardqueue.Job and derives low-cardinality
// metric labels for queue keys.
package job

import (
	"context"
	"errors"
	"fmt"
)

// ErrNilJobFunc is returned when a job is built from a nil function.
var ErrNilJobFunc = errors.New("nil job func")

// jobFunc lets plain closures be submitted to the shard executor.
type jobFunc func(context.Context) error

func (f jobFunc) Run(ctx context.Context) error {
	if f == nil {
		return fmt.Errorf("job: %w", ErrNilJobFunc)
	}
	return f(ctx)
}

// New creates a job from a closure.
func New(fn func(context.Context) error) jobFunc {
	return jobFunc(fn)
}
