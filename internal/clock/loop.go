package clock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

// ErrLoopClosed is returned by Run when the loop has been closed.
var ErrLoopClosed = errors.New("clock: loop closed")

// Loop is a real-time Clock whose callbacks execute serially inside Run.
// Timers fire on runtime goroutines but only hand their callback to the loop;
// the callback itself always runs on the goroutine that called Run.
type Loop struct {
	tasks   chan func()
	done    chan struct{}
	pending atomic.Int64

	mu     sync.Mutex
	timers map[*time.Timer]struct{}
	closed bool
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{
		tasks:  make(chan func(), 64),
		done:   make(chan struct{}),
		timers: make(map[*time.Timer]struct{}),
	}
}

// Now returns the wall-clock time.
func (l *Loop) Now() time.Time { return time.Now() }

// Schedule arms a timer that posts fn to the loop after d.
func (l *Loop) Schedule(d time.Duration, fn func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.pending.Add(1)
	var t *time.Timer
	t = time.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, t)
		l.mu.Unlock()
		l.enqueue(fn)
	})
	l.timers[t] = struct{}{}
}

// Post queues fn to run on the loop as soon as possible. It is the only
// safe way for other goroutines to touch state owned by the loop.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return
	}
	l.pending.Add(1)
	l.mu.Unlock()
	l.enqueue(fn)
}

func (l *Loop) enqueue(fn func()) {
	select {
	case l.tasks <- fn:
	case <-l.done:
		l.pending.Add(-1)
	}
}

// Pending returns the number of armed timers plus queued callbacks.
func (l *Loop) Pending() int { return int(l.pending.Load()) }

// Run executes callbacks until ctx is cancelled or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return ErrLoopClosed
		case fn := <-l.tasks:
			l.pending.Add(-1)
			fn()
		}
	}
}

// RunUntilIdle executes callbacks until nothing is armed or queued.
func (l *Loop) RunUntilIdle(ctx context.Context) error {
	for l.pending.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.done:
			return ErrLoopClosed
		case fn := <-l.tasks:
			l.pending.Add(-1)
			fn()
		}
	}
	return nil
}

// Close stops every armed timer and releases goroutines blocked on the loop.
func (l *Loop) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for t := range l.timers {
		if t.Stop() {
			l.pending.Add(-1)
		}
	}
	l.timers = nil
	close(l.done)
}
