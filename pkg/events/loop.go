package events

import (
	"context"
	"sync/atomic"

	"github.com/teslashibe/go-alejo/internal/log"
)

// Loop runs posted work one item at a time on a single goroutine.
// Everything that touches engine state goes through it, so no two
// handlers ever run concurrently.
type Loop struct {
	name    string
	queue   chan func()
	running atomic.Bool

	// Stats
	processed atomic.Uint64
	dropped   atomic.Uint64
}

// NewLoop creates a loop with a queue of the given size.
func NewLoop(name string, size int) *Loop {
	if size <= 0 {
		size = 256
	}
	return &Loop{
		name:  name,
		queue: make(chan func(), size),
	}
}

// Post queues fn without blocking. It returns false and drops fn when the
// queue is full.
func (l *Loop) Post(fn func()) bool {
	select {
	case l.queue <- fn:
		return true
	default:
		l.dropped.Add(1)
		log.Warn("loop queue full, dropping work", "loop", l.name)
		return false
	}
}

// Do queues fn and waits for it to run. It returns ctx.Err() if the
// context ends first; fn may still run later in that case.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	work := func() {
		defer close(done)
		fn()
	}

	select {
	case l.queue <- work:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run executes queued work until ctx is cancelled.
// This should be called in a goroutine.
func (l *Loop) Run(ctx context.Context) error {
	if !l.running.CompareAndSwap(false, true) {
		return ErrLoopRunning
	}
	defer l.running.Store(false)

	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.queue:
			l.run(fn)
		}
	}
}

// run executes one item, keeping the loop alive if it panics.
func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("loop handler panicked", "loop", l.name, "panic", r)
		}
	}()
	fn()
	l.processed.Add(1)
}

// IsRunning reports whether Run is active.
func (l *Loop) IsRunning() bool {
	return l.running.Load()
}

// Stats contains loop counters.
type Stats struct {
	Queued    int    `json:"queued"`
	Processed uint64 `json:"processed"`
	Dropped   uint64 `json:"dropped"`
}

// GetStats returns loop counters.
func (l *Loop) GetStats() Stats {
	return Stats{
		Queued:    len(l.queue),
		Processed: l.processed.Load(),
		Dropped:   l.dropped.Load(),
	}
}
