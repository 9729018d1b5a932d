// Package clock provides the time and deferred-callback capability the
// conversation engine is built on.
//
// Every implementation delivers callbacks on a single logical thread:
// Virtual runs them inside Advance, Loop runs them inside Run, and Queue hands
// them to a host runtime (the bubbletea Update loop) that executes them serially.
package clock

import "time"

// Clock supplies the current instant and one-shot deferred callbacks.
type Clock interface {
	// Now returns the current instant.
	Now() time.Time
	// Schedule invokes fn once, no earlier than d from now.
	Schedule(d time.Duration, fn func())
}

// Func adapts a plain function to the Now half of a Clock.
type Func func() time.Time

// Now returns f().
func (f Func) Now() time.Time { return f() }
