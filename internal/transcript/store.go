// Package transcript holds the append-only record of a simulated call and
// publishes a snapshot to subscribers after every mutation.
package transcript

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"callsim/internal/ids"
	"callsim/internal/types"
)

var (
	// ErrEmptyContent is returned when appending blank text.
	ErrEmptyContent = errors.New("transcript: message content is empty")
	// ErrUnknownRole is returned when appending with an unrecognised role.
	ErrUnknownRole = errors.New("transcript: unknown role")
)

// Snapshot is an immutable view of the store.
type Snapshot struct {
	Messages       []types.Message
	IsAgentTyping  bool
	IsInitializing bool
}

// LastOf returns the most recent message with the given role.
func (s Snapshot) LastOf(role types.Role) (types.Message, bool) {
	for i := len(s.Messages) - 1; i >= 0; i-- {
		if s.Messages[i].Role == role {
			return s.Messages[i], true
		}
	}
	return types.Message{}, false
}

// CountOf returns how many messages have the given role.
func (s Snapshot) CountOf(role types.Role) int {
	n := 0
	for _, m := range s.Messages {
		if m.Role == role {
			n++
		}
	}
	return n
}

// Observer receives a snapshot after each mutation.
type Observer func(Snapshot)

// Nower is the part of a clock the store needs for timestamps.
type Nower interface {
	Now() time.Time
}

type subscription struct {
	id int
	fn Observer
}

// Store is the transcript. It is owned by a single event loop and is not
// safe for concurrent use.
type Store struct {
	clock Nower
	ids   ids.Source

	messages       []types.Message
	isAgentTyping  bool
	isInitializing bool

	subs   []subscription
	nextID int

	batchDepth int
	dirty      bool
}

// New creates an empty store stamping messages with clock and ids.
func New(clock Nower, idSource ids.Source) *Store {
	return &Store{clock: clock, ids: idSource}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	msgs := make([]types.Message, len(s.messages))
	copy(msgs, s.messages)
	return Snapshot{
		Messages:       msgs,
		IsAgentTyping:  s.isAgentTyping,
		IsInitializing: s.isInitializing,
	}
}

// Len returns the number of messages.
func (s *Store) Len() int { return len(s.messages) }

// Append stamps and records a message.
// Timestamps never go backwards: a clock that steps back is clamped to the
// previous message's timestamp.
func (s *Store) Append(role types.Role, content string) (types.Message, error) {
	if !role.Valid() {
		return types.Message{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	if strings.TrimSpace(content) == "" {
		return types.Message{}, ErrEmptyContent
	}

	ts := s.clock.Now()
	if n := len(s.messages); n > 0 && ts.Before(s.messages[n-1].Timestamp) {
		ts = s.messages[n-1].Timestamp
	}

	msg := types.Message{
		ID:        s.ids.NewID(),
		Role:      role,
		Content:   content,
		Timestamp: ts,
	}
	s.messages = append(s.messages, msg)
	s.notify()
	return msg, nil
}

// Clear removes every message. Flags are left untouched.
func (s *Store) Clear() {
	s.messages = nil
	s.notify()
}

// SetAgentTyping updates the typing flag; unchanged values do not notify.
func (s *Store) SetAgentTyping(v bool) {
	if s.isAgentTyping == v {
		return
	}
	s.isAgentTyping = v
	s.notify()
}

// SetInitializing updates the initializing flag; unchanged values do not notify.
func (s *Store) SetInitializing(v bool) {
	if s.isInitializing == v {
		return
	}
	s.isInitializing = v
	s.notify()
}

// IsAgentTyping reports the typing flag.
func (s *Store) IsAgentTyping() bool { return s.isAgentTyping }

// IsInitializing reports the initializing flag.
func (s *Store) IsInitializing() bool { return s.isInitializing }

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	s.nextID++
	id := s.nextID
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

// Batch runs fn and publishes its mutations as a single snapshot, so
// observers never see a half-applied change.
func (s *Store) Batch(fn func()) {
	s.batchDepth++
	fn()
	s.batchDepth--
	if s.batchDepth == 0 && s.dirty {
		s.dirty = false
		s.notify()
	}
}

func (s *Store) notify() {
	if s.batchDepth > 0 {
		s.dirty = true
		return
	}
	if len(s.subs) == 0 {
		return
	}
	snap := s.Snapshot()
	for _, sub := range slices.Clone(s.subs) {
		sub.fn(snap)
	}
}
