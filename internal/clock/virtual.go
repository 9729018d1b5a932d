package clock

import (
	"sort"
	"time"
)

type virtualTimer struct {
	due time.Time
	seq uint64
	fn  func()
}

// Virtual is a manually advanced clock. Callbacks only run from Advance or
// RunUntilIdle, on the caller's goroutine, ordered by due time and then by
// scheduling order. It is not safe for concurrent use.
type Virtual struct {
	now     time.Time
	seq     uint64
	pending []virtualTimer
}

// NewVirtual returns a virtual clock positioned at start.
func NewVirtual(start time.Time) *Virtual {
	return &Virtual{now: start}
}

// Now returns the virtual instant.
func (v *Virtual) Now() time.Time { return v.now }

// Schedule registers fn to run once the clock has advanced by d.
func (v *Virtual) Schedule(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	v.seq++
	t := virtualTimer{due: v.now.Add(d), seq: v.seq, fn: fn}
	i := sort.Search(len(v.pending), func(i int) bool {
		p := v.pending[i]
		return p.due.After(t.due) || (p.due.Equal(t.due) && p.seq > t.seq)
	})
	v.pending = append(v.pending, virtualTimer{})
	copy(v.pending[i+1:], v.pending[i:])
	v.pending[i] = t
}

// Pending returns the number of callbacks not yet fired.
func (v *Virtual) Pending() int { return len(v.pending) }

// NextDue returns the due time of the earliest pending callback.
func (v *Virtual) NextDue() (time.Time, bool) {
	if len(v.pending) == 0 {
		return time.Time{}, false
	}
	return v.pending[0].due, true
}

// Advance moves the clock forward by d, firing every callback that falls due
// on the way, including callbacks scheduled by those callbacks. It returns the
// number of callbacks fired.
func (v *Virtual) Advance(d time.Duration) int {
	target := v.now.Add(d)
	fired := 0
	for len(v.pending) > 0 && !v.pending[0].due.After(target) {
		t := v.pending[0]
		v.pending = v.pending[1:]
		if t.due.After(v.now) {
			v.now = t.due
		}
		t.fn()
		fired++
	}
	if target.After(v.now) {
		v.now = target
	}
	return fired
}

// RunUntilIdle jumps from callback to callback until nothing is pending or
// limit callbacks have fired. A limit <= 0 means no limit.
func (v *Virtual) RunUntilIdle(limit int) int {
	fired := 0
	for len(v.pending) > 0 {
		if limit > 0 && fired >= limit {
			break
		}
		due := v.pending[0].due
		var step time.Duration
		if due.After(v.now) {
			step = due.Sub(v.now)
		}
		// Advance fires everything due at this instant; count them all.
		fired += v.Advance(step)
	}
	return fired
}
