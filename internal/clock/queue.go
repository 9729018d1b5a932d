package clock

import "time"

// Deferred is a callback waiting for its host runtime to fire it.
type Deferred struct {
	Delay time.Duration
	Fn    func()
}

// Queue is a Clock that does not own any timers. Scheduled callbacks are
// collected until the host drains them and arms its own timers (for example
// tea.Tick commands), running each Fn back on its event loop.
type Queue struct {
	now   func() time.Time
	items []Deferred
}

// NewQueue creates a queue reading time from now; nil means time.Now.
func NewQueue(now func() time.Time) *Queue {
	if now == nil {
		now = time.Now
	}
	return &Queue{now: now}
}

// Now returns the host's current instant.
func (q *Queue) Now() time.Time { return q.now() }

// Schedule records fn for the host to fire after d.
func (q *Queue) Schedule(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	q.items = append(q.items, Deferred{Delay: d, Fn: fn})
}

// Drain returns and forgets everything scheduled since the last Drain.
func (q *Queue) Drain() []Deferred {
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of undrained callbacks.
func (q *Queue) Len() int { return len(q.items) }
