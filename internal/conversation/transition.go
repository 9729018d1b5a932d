package conversation

import (
	"callsim/internal/perception"
	"callsim/internal/types"
)

// Reason names the branch a transition took. It is logged and shown in reports.
type Reason string

const (
	ReasonAgentNamed      Reason = "agent_named"
	ReasonNoName          Reason = "no_name"
	ReasonRightQueue      Reason = "right_queue"
	ReasonTransfer        Reason = "transfer"
	ReasonTransferUnknown Reason = "transfer_unknown"
	ReasonMoreIdentity    Reason = "more_identity"
	ReasonVerified        Reason = "verified"
	ReasonAwaitingVerify  Reason = "awaiting_verification"
	ReasonPlanActive      Reason = "plan_active"
	ReasonAwaitingStatus  Reason = "awaiting_plan_status"
	ReasonTerminal        Reason = "terminal"
)

// Effect is a bot utterance to append after a fresh random delay, followed by
// moving the conversation to Next.
type Effect struct {
	Say  string
	Next types.ConversationState
}

// Outcome is the result of interpreting one agent utterance.
type Outcome struct {
	// Context is the updated context; it applies immediately.
	Context types.ConversationContext
	// Effect is the delayed bot follow-up, or nil when the bot stays silent.
	Effect *Effect
	Reason Reason
}

// Transition interprets agentText in state. It has no side effects.
func Transition(state types.ConversationState, ctx types.ConversationContext, agentText string) Outcome {
	out := Outcome{Context: ctx}

	switch state {
	case types.StateIntroduction:
		name, ok := perception.ExtractAgentName(agentText)
		if !ok {
			out.Reason = ReasonNoName
			return out
		}
		// The first name heard is kept for the rest of the session.
		if out.Context.AgentName == "" {
			out.Context.AgentName = name
		}
		out.Reason = ReasonAgentNamed
		out.Effect = &Effect{Say: QueueScript(out.Context.AgentName), Next: types.StateQueueVerification}

	case types.StateQueueVerification:
		right := perception.IsRightQueue(agentText)
		out.Context.IsRightQueue = right
		if right {
			out.Reason = ReasonRightQueue
			out.Effect = &Effect{Say: AuthScript, Next: types.StateAuthentication}
			return out
		}
		if number, ok := perception.ExtractTransferNumber(agentText); ok {
			out.Context.TransferNumber = number
			out.Reason = ReasonTransfer
			out.Effect = &Effect{Say: CloseTransferScript(number), Next: types.StateCompleted}
			return out
		}
		out.Reason = ReasonTransferUnknown
		out.Effect = &Effect{Say: CloseTransferUnknownScript, Next: types.StateCompleted}

	case types.StateAuthentication:
		// A request for more identity wins over a confirmation in the same text.
		if perception.NeedsMoreIdentity(agentText) {
			out.Reason = ReasonMoreIdentity
			out.Effect = &Effect{Say: AuthFollowUpScript, Next: types.StateAuthentication}
			return out
		}
		if perception.IsVerified(agentText) {
			out.Context.IsAuthenticated = true
			out.Reason = ReasonVerified
			out.Effect = &Effect{Say: InquiryScript, Next: types.StateInquiry}
			return out
		}
		out.Reason = ReasonAwaitingVerify

	case types.StateInquiry:
		if perception.IsPlanActive(agentText) {
			out.Reason = ReasonPlanActive
			out.Effect = &Effect{Say: CloseConfirmedScript, Next: types.StateCompleted}
			return out
		}
		out.Reason = ReasonAwaitingStatus

	default:
		out.Reason = ReasonTerminal
	}
	return out
}
