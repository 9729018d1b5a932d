package conversation

import "errors"

var (
	// ErrEmptyMessage is returned for submissions that are blank after trimming.
	ErrEmptyMessage = errors.New("conversation: message is empty")
	// ErrInitializing is returned while the session is still starting up.
	ErrInitializing = errors.New("conversation: chat is initializing")
	// ErrAgentTyping is returned while an agent reply is pending.
	ErrAgentTyping = errors.New("conversation: agent is typing")
	// ErrFollowUpPending is returned while a bot follow-up is scheduled.
	ErrFollowUpPending = errors.New("conversation: bot follow-up pending")
)
