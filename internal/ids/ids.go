// Package ids issues opaque message identifiers.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// Source issues identifiers unique within a session.
type Source interface {
	NewID() string
}

// UUID issues random (version 4) UUID strings.
type UUID struct{}

// NewID returns a fresh UUID.
func (UUID) NewID() string { return uuid.NewString() }

// Sequence issues prefix-1, prefix-2, ... for deterministic tests and replays.
// Not safe for concurrent use.
type Sequence struct {
	Prefix string
	n      int
}

// NewSequence returns a sequence source; an empty prefix becomes "msg".
func NewSequence(prefix string) *Sequence {
	if prefix == "" {
		prefix = "msg"
	}
	return &Sequence{Prefix: prefix}
}

// NewID returns the next identifier in the sequence.
func (s *Sequence) NewID() string {
	s.n++
	return fmt.Sprintf("%s-%d", s.Prefix, s.n)
}
