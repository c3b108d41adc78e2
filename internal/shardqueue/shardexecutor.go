// Package shardqueue provides a small keyed work queue that guarantees FIFO
// order per key (a chat session id) while letting different keys run in
// parallel. Every key owns its lane; shards only partition the metrics.
//
// Contract: callers must not invoke Submit concurrently for the same key.
// FIFO ordering relies on that external serialisation.
package shardqueue

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/meetnote/client/internal/errors"
)

type queuedJob struct {
	ctx context.Context
	job Job
}

// lane holds the waiting jobs of one key. Its worker runs while the lane is
// in the map; the lane is dropped once it drains.
type lane struct {
	shard   int
	pending []queuedJob   // waiting, excluding the job being run
	running bool          // a worker owns the lane
	space   chan struct{} // closed and replaced whenever a job is dequeued
}

// ShardExecutor executes Jobs on one worker per active key. FIFO ordering is
// preserved within a key; jobs with different keys never wait on each other,
// even when they hash to the same shard.
type ShardExecutor struct {
	cfg Config

	mu    sync.Mutex
	lanes map[string]*lane

	done   chan struct{} // closed in Stop()
	closed uint32        // 0 → running, 1 → closed

	wg sync.WaitGroup
}

// NewShardExecutor constructs the executor. Workers start on demand.
func NewShardExecutor(cfg Config) *ShardExecutor {
	cfg = cfg.withDefaults()
	return &ShardExecutor{
		cfg:   cfg,
		lanes: make(map[string]*lane),
		done:  make(chan struct{}),
	}
}

// Submit enqueues job on the lane for key.
//
//   - Returns nil on success.
//   - Returns ErrExecutorClosed if the executor is stopped.
//   - Returns ErrQueueFull (wrapped in *QueueFullError) if the key's lane is
//     still full after EnqueueTimeout elapses.
//   - Returns ctx.Err() if the caller-provided context is cancelled first.
func (p *ShardExecutor) Submit(ctx context.Context, key string, job Job) error {
	shard := p.shardFor(key)
	label := labelFor(shard)

	var timer *time.Timer
	for {
		p.mu.Lock()
		if atomic.LoadUint32(&p.closed) == 1 {
			p.mu.Unlock()
			return ErrExecutorClosed
		}
		l := p.lanes[key]
		if l == nil {
			l = &lane{shard: shard, space: make(chan struct{})}
			p.lanes[key] = l
		}
		if len(l.pending) < p.cfg.QueueSize {
			l.pending = append(l.pending, queuedJob{ctx: ctx, job: job})
			if !l.running {
				l.running = true
				p.wg.Add(1)
				go p.runLane(key, l)
			}
			p.mu.Unlock()
			submissionsTotal.WithLabelValues(label).Inc()
			return nil
		}
		space, length := l.space, len(l.pending)
		p.mu.Unlock()

		if timer == nil {
			timer = time.NewTimer(p.cfg.EnqueueTimeout)
			defer timer.Stop()
		}
		select {
		case <-space:
		case <-p.done:
			return ErrExecutorClosed
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			queueFullTotal.WithLabelValues(label).Inc()
			return &QueueFullError{
				Shard:    shard,
				Length:   length,
				Capacity: p.cfg.QueueSize,
			}
		}
	}
}

// Barrier enqueues a no-op job on the lane for key and waits until it runs,
// ensuring all previously submitted jobs for that key have completed.
func (p *ShardExecutor) Barrier(ctx context.Context, key string) error {
	done := make(chan struct{})
	j := JobFunc(func(context.Context) error {
		close(done)
		return nil
	})
	if err := p.Submit(ctx, key, j); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Stop rejects further submissions, lets every lane drain its pending jobs,
// and waits for the workers to terminate. It is idempotent and safe for
// concurrent use.
func (p *ShardExecutor) Stop() {
	p.mu.Lock()
	if !atomic.CompareAndSwapUint32(&p.closed, 0, 1) {
		p.mu.Unlock()
		return
	}
	active := len(p.lanes)
	close(p.done)
	p.mu.Unlock()

	log.Debug().Int("lanes", active).Msg("shardqueue: stopping executor")
	p.wg.Wait()
	log.Debug().Msg("shardqueue: executor stopped, all lanes drained")
}

// Close lets ShardExecutor satisfy io.Closer.
func (p *ShardExecutor) Close() error {
	p.Stop()
	return nil
}

// ------------------------- internals -------------------------

// runLane executes the jobs of one key in order and exits when none are left.
// Jobs observe their own contexts, so after Stop owners that have gone away
// return quickly.
func (p *ShardExecutor) runLane(key string, l *lane) {
	defer p.wg.Done()
	label := labelFor(l.shard)

	for {
		p.mu.Lock()
		if len(l.pending) == 0 {
			delete(p.lanes, key)
			p.mu.Unlock()
			queueDepth.WithLabelValues(label).Set(0)
			return
		}
		qj := l.pending[0]
		l.pending[0] = queuedJob{}
		l.pending = l.pending[1:]
		close(l.space)
		l.space = make(chan struct{})
		left := len(l.pending)
		p.mu.Unlock()

		queueDepth.WithLabelValues(label).Set(float64(left))
		p.execute(label, qj)
	}
}

func (p *ShardExecutor) execute(label string, qj queuedJob) {
	if qj.job == nil {
		return
	}
	// Honour caller context so a cancelled job doesn't stall the shard.
	if err := qj.ctx.Err(); err != nil {
		p.safeHandleError(err)
		return
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.cfg.BaseBackoff
	exp.Multiplier = 2
	exp.MaxInterval = p.cfg.MaxInterval
	exp.Reset()

	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := p.safeRun(qj)
		runDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())
		if err == nil {
			return
		}
		if errors.IsIrrecoverable(err) || attempt >= p.cfg.MaxAttempts {
			p.safeHandleError(err)
			return
		}
		select {
		case <-time.After(exp.NextBackOff()):
		case <-p.done:
			p.safeHandleError(err)
			return
		case <-qj.ctx.Done():
			p.safeHandleError(qj.ctx.Err())
			return
		}
	}
}

// safeRun runs one job and converts a panic into an error so the worker
// survives to serve the rest of its shard.
func (p *ShardExecutor) safeRun(qj queuedJob) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("shardqueue: job panic")
			err = fmt.Errorf("shardqueue: job panic: %v", r)
		}
	}()
	return qj.job.Run(qj.ctx)
}

func (p *ShardExecutor) safeHandleError(err error) {
	if err == nil || p.cfg.ErrorHandler == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("shardqueue: error handler panic")
		}
	}()
	p.cfg.ErrorHandler(err)
}

func (p *ShardExecutor) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(p.cfg.Shards))
}
