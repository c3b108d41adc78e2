// Package sched owns delayed and periodic tasks on behalf of a state object so
// they can all be cancelled when the object is closed.
package sched

import (
	"context"
	"sync"
	"time"
)

// Group tracks timers and tickers. After Stop no task starts running and
// Sleep returns immediately.
type Group struct {
	mu      sync.Mutex
	stopped bool
	nextID  uint64
	timers  map[uint64]*time.Timer
	tickers map[uint64]chan struct{}
	wg      sync.WaitGroup
	done    chan struct{}
}

// NewGroup returns an empty Group.
func NewGroup() *Group {
	return &Group{
		timers:  make(map[uint64]*time.Timer),
		tickers: make(map[uint64]chan struct{}),
		done:    make(chan struct{}),
	}
}

// Cancel stops a single scheduled task.
type Cancel func()

// AfterFunc runs fn once after d unless the task or the group is cancelled first.
func (g *Group) AfterFunc(d time.Duration, fn func()) Cancel {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return func() {}
	}
	id := g.nextID
	g.nextID++
	g.wg.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		defer g.wg.Done()
		g.mu.Lock()
		_, live := g.timers[id]
		delete(g.timers, id)
		stopped := g.stopped
		g.mu.Unlock()
		if live && !stopped {
			fn()
		}
	})
	g.timers[id] = t
	return func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if _, ok := g.timers[id]; !ok {
			return
		}
		delete(g.timers, id)
		if t.Stop() {
			g.wg.Done()
		}
	}
}

// Every runs fn every d until the returned Cancel or Stop is called.
func (g *Group) Every(d time.Duration, fn func()) Cancel {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return func() {}
	}
	id := g.nextID
	g.nextID++
	quit := make(chan struct{})
	g.tickers[id] = quit
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		tk := time.NewTicker(d)
		defer tk.Stop()
		for {
			select {
			case <-quit:
				return
			case <-tk.C:
				g.mu.Lock()
				_, live := g.tickers[id]
				g.mu.Unlock()
				if !live {
					return
				}
				fn()
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			if _, ok := g.tickers[id]; ok {
				delete(g.tickers, id)
				close(quit)
			}
			g.mu.Unlock()
		})
	}
}

// Sleep waits for d. It returns false early when ctx is done or the group stops.
func (g *Group) Sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return !g.Stopped()
	case <-ctx.Done():
		return false
	case <-g.done:
		return false
	}
}

// Stopped reports whether Stop has been called.
func (g *Group) Stopped() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopped
}

// Stop cancels every pending task and waits for running ones to return.
// It is idempotent. Stop must not be called from inside a task.
func (g *Group) Stop() {
	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return
	}
	g.stopped = true
	close(g.done)
	for id, t := range g.timers {
		if t.Stop() {
			g.wg.Done()
		}
		delete(g.timers, id)
	}
	for id, quit := range g.tickers {
		close(quit)
		delete(g.tickers, id)
	}
	g.mu.Unlock()
	g.wg.Wait()
}
