// Package types provides the shared data model of a simulated support call:
// messages, conversation states and the conversation context.
// It has no dependencies on the engine so every layer can import it.
package types

import "time"

// Role identifies who produced a transcript message.
type Role string

const (
	RoleBot    Role = "bot"    // the automated caller, speaking for the customer
	RoleAgent  Role = "agent"  // the (simulated) support agent
	RoleSystem Role = "system" // chat lifecycle notices
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleBot, RoleAgent, RoleSystem:
		return true
	}
	return false
}

// DisplayName returns the speaker label used by the UI and reports.
func (r Role) DisplayName() string {
	switch r {
	case RoleBot:
		return "Bot"
	case RoleAgent:
		return "Agent"
	case RoleSystem:
		return "System"
	}
	return string(r)
}

// Message is an immutable transcript entry.
type Message struct {
	ID        string    `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}
