package types

import "fmt"

// ConversationState is the position of a call in the verification script.
type ConversationState string

const (
	StateIntroduction      ConversationState = "introduction"
	StateQueueVerification ConversationState = "queue_verification"
	StateAuthentication    ConversationState = "authentication"
	StateInquiry           ConversationState = "inquiry"
	StateCompleted         ConversationState = "completed"
)

// AllStates lists the states in script order.
var AllStates = []ConversationState{
	StateIntroduction,
	StateQueueVerification,
	StateAuthentication,
	StateInquiry,
	StateCompleted,
}

// Edge is a permitted state change. Staying in the same state is always
// permitted and is not listed.
type Edge struct {
	From ConversationState
	To   ConversationState
}

// Edges is the permitted transition graph:
//
//	introduction -> queue_verification -> authentication -> inquiry -> completed
//	                queue_verification -> completed (transfer)
var Edges = []Edge{
	{StateIntroduction, StateQueueVerification},
	{StateQueueVerification, StateAuthentication},
	{StateQueueVerification, StateCompleted},
	{StateAuthentication, StateInquiry},
	{StateInquiry, StateCompleted},
}

// IsTerminal reports whether no further bot utterances follow this state.
func (s ConversationState) IsTerminal() bool {
	return s == StateCompleted
}

// Valid reports whether s is a known state.
func (s ConversationState) Valid() bool {
	for _, known := range AllStates {
		if s == known {
			return true
		}
	}
	return false
}

// Label returns a human readable name for status lines.
func (s ConversationState) Label() string {
	switch s {
	case StateIntroduction:
		return "Introduction"
	case StateQueueVerification:
		return "Queue verification"
	case StateAuthentication:
		return "Authentication"
	case StateInquiry:
		return "Plan inquiry"
	case StateCompleted:
		return "Completed"
	}
	return string(s)
}

// ParseState converts a textual state name.
func ParseState(s string) (ConversationState, error) {
	st := ConversationState(s)
	if !st.Valid() {
		return "", fmt.Errorf("unknown conversation state %q", s)
	}
	return st, nil
}

// CanTransition reports whether from -> to follows the permitted graph.
func CanTransition(from, to ConversationState) bool {
	if from == to {
		return true
	}
	for _, e := range Edges {
		if e.From == from && e.To == to {
			return true
		}
	}
	return false
}
