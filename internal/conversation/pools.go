package conversation

import "callsim/internal/types"

// Pools maps a state to the agent utterances that may be auto-generated in it.
type Pools map[types.ConversationState][]string

// DefaultPools are the simulated agent's replies. Each pool holds at least one
// reply for every branch the extractor can take in that state.
func DefaultPools() Pools {
	return Pools{
		types.StateIntroduction: {
			"Hello, thank you for calling customer support. My name is Alex. How can I help you today?",
			"Good day, you've reached customer support. I'm Jamie. How may I assist you?",
			"Welcome to customer support. This is Taylor speaking. What can I do for you today?",
		},
		types.StateQueueVerification: {
			"Yes, you're in the right queue for coverage inquiries. How can I help?",
			"Actually, this is the general support queue. Let me transfer you to the coverage department. Their direct number is 555-123-4567.",
			"You're in the right place. I can help you with your coverage questions.",
		},
		types.StateAuthentication: {
			"I'll need to verify your identity. Can you please provide your member ID?",
			"Thanks for the member ID. For security purposes, could you also confirm your date of birth?",
			"Perfect, I've verified your identity in our system. How can I help with your coverage today?",
		},
		types.StateInquiry: {
			"I've checked your plan, and yes, it is currently active.",
			"Your plan is active and set to renew on the 15th of next month.",
			"I see that your plan is currently active. Your coverage includes medical, dental, and vision.",
		},
	}
}

// For returns the pool for state; completed and unknown states have none.
func (p Pools) For(state types.ConversationState) []string {
	return p[state]
}
