// Package scenario replays scripted calls against the conversation engine on
// a virtual clock and checks the outcome.
package scenario

import (
	"fmt"
	"sort"

	"callsim/internal/conversation"
	"callsim/internal/types"
)

// Scenario is one scripted call.
//
// In human_agent mode each entry of AgentReplies is delivered as the agent's
// utterance and every resulting follow-up is allowed to fire. In auto_agent
// mode each entry of BotTurns is submitted as the bot's voice and the agent
// replies from its pools using the runner's seed.
type Scenario struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description,omitempty"`
	Mode         string   `yaml:"mode,omitempty"`
	AgentReplies []string `yaml:"agent_replies,omitempty"`
	BotTurns     []string `yaml:"bot_turns,omitempty"`
	// ResetAfter resets the call right after the Nth step is delivered,
	// before its follow-up fires. Zero means never.
	ResetAfter int    `yaml:"reset_after,omitempty"`
	Expect     Expect `yaml:"expect"`
}

// Expect lists the checks applied once the call has gone quiet. Empty fields
// are not checked. LastBot, BotIncludes and BotExcludes accept script names
// such as CLOSE_CONFIRMED as well as literal text; LastBot must match exactly,
// the others match any bot message containing the text.
type Expect struct {
	State           string   `yaml:"state,omitempty"`
	AgentName       *string  `yaml:"agent_name,omitempty"`
	LastBot         string   `yaml:"last_bot,omitempty"`
	BotIncludes     []string `yaml:"bot_includes,omitempty"`
	BotExcludes     []string `yaml:"bot_excludes,omitempty"`
	IsRightQueue    *bool    `yaml:"is_right_queue,omitempty"`
	IsAuthenticated *bool    `yaml:"is_authenticated,omitempty"`
	TransferNumber  string   `yaml:"transfer_number,omitempty"`
	Messages        int      `yaml:"messages,omitempty"`
	AgentMessages   *int     `yaml:"agent_messages,omitempty"`
}

// ScenarioMode returns the engine mode the scenario runs in.
func (s Scenario) ScenarioMode() conversation.Mode {
	if s.Mode == "" {
		return conversation.ModeHumanAgent
	}
	return conversation.Mode(s.Mode)
}

// Steps returns the inputs the runner delivers, in order.
func (s Scenario) Steps() []string {
	if s.ScenarioMode() == conversation.ModeAutoAgent {
		return s.BotTurns
	}
	return s.AgentReplies
}

// Validate checks the scenario is runnable.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario name is required")
	}
	switch s.ScenarioMode() {
	case conversation.ModeHumanAgent:
		if len(s.AgentReplies) == 0 {
			return fmt.Errorf("scenario %s: agent_replies is empty", s.Name)
		}
	case conversation.ModeAutoAgent:
		if len(s.BotTurns) == 0 {
			return fmt.Errorf("scenario %s: bot_turns is empty", s.Name)
		}
	default:
		return fmt.Errorf("scenario %s: unknown mode %q", s.Name, s.Mode)
	}
	if s.ResetAfter < 0 || s.ResetAfter > len(s.Steps()) {
		return fmt.Errorf("scenario %s: reset_after %d out of range", s.Name, s.ResetAfter)
	}
	if s.Expect.State != "" {
		if _, err := types.ParseState(s.Expect.State); err != nil {
			return fmt.Errorf("scenario %s: %w", s.Name, err)
		}
	}
	return nil
}

var scriptNames = map[string]string{
	"INTRO":                  conversation.IntroScript,
	"AUTH":                   conversation.AuthScript,
	"AUTH_FOLLOWUP":          conversation.AuthFollowUpScript,
	"INQUIRY":                conversation.InquiryScript,
	"CLOSE_TRANSFER_UNKNOWN": conversation.CloseTransferUnknownScript,
	"CLOSE_CONFIRMED":        conversation.CloseConfirmedScript,
}

// ResolveScript expands a script name to its text; other input is returned
// unchanged.
func ResolveScript(s string) string {
	if text, ok := scriptNames[s]; ok {
		return text
	}
	return s
}

// ScriptNames lists the names ResolveScript understands.
func ScriptNames() []string {
	names := make([]string, 0, len(scriptNames))
	for n := range scriptNames {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func ptr[T any](v T) *T { return &v }

// Builtins returns the reference scenarios.
func Builtins() []Scenario {
	return []Scenario{
		{
			Name:        "happy-path",
			Description: "Agent names themself, confirms the queue, verifies and confirms the plan",
			AgentReplies: []string{
				"Hello, thank you for calling customer support. My name is Alex. How can I help you today?",
				"You're in the right place. I can help you with your coverage questions.",
				"I'll need to verify your identity. Can you please provide your member ID?",
				"Perfect, I've verified your identity in our system. How can I help with your coverage today?",
				"I've checked your plan, and yes, it is currently active.",
			},
			Expect: Expect{
				State:           string(types.StateCompleted),
				AgentName:       ptr("Alex"),
				LastBot:         "CLOSE_CONFIRMED",
				IsRightQueue:    ptr(true),
				IsAuthenticated: ptr(true),
			},
		},
		{
			Name:        "transfer",
			Description: "Agent redirects the call and gives a direct number",
			AgentReplies: []string{
				"Good day, you've reached customer support. I'm Jamie. How may I assist you?",
				"Actually, this is the general support queue. Let me transfer you to the coverage department. Their direct number is 555-123-4567.",
			},
			Expect: Expect{
				State:          string(types.StateCompleted),
				AgentName:      ptr("Jamie"),
				LastBot:        conversation.CloseTransferScript("555-123-4567"),
				IsRightQueue:   ptr(false),
				TransferNumber: "555-123-4567",
			},
		},
		{
			Name:        "two-step-auth",
			Description: "Agent asks for the date of birth before verifying",
			AgentReplies: []string{
				"Welcome to customer support. This is Taylor speaking. What can I do for you today?",
				"You're in the right place.",
				"Thanks for the member ID. For security purposes, could you also confirm your date of birth?",
				"Perfect, I've verified your identity in our system.",
				"Your plan is active and set to renew on the 15th of next month.",
			},
			Expect: Expect{
				State:       string(types.StateCompleted),
				AgentName:   ptr("Taylor"),
				LastBot:     "CLOSE_CONFIRMED",
				BotIncludes: []string{"AUTH_FOLLOWUP"},
			},
		},
		{
			Name:         "unparseable-intro",
			Description:  "Agent greeting carries no name",
			AgentReplies: []string{"Good morning!"},
			Expect: Expect{
				State:       string(types.StateIntroduction),
				AgentName:   ptr(""),
				LastBot:     "INTRO",
				BotExcludes: []string{"in the right queue"},
			},
		},
		{
			Name:        "reset-mid-flow",
			Description: "Call is reset in authentication while a follow-up is pending",
			AgentReplies: []string{
				"Hello, thank you for calling customer support. My name is Alex. How can I help you today?",
				"You're in the right place. I can help you with your coverage questions.",
				"Perfect, I've verified your identity in our system.",
			},
			ResetAfter: 3,
			Expect: Expect{
				State:           string(types.StateIntroduction),
				AgentName:       ptr(""),
				LastBot:         "INTRO",
				IsAuthenticated: ptr(false),
				Messages:        2,
				AgentMessages:   ptr(0),
			},
		},
		{
			Name:        "ambiguous-auth",
			Description: "Authentication reply asks for more and says verified",
			AgentReplies: []string{
				"My name is Alex.",
				"Yes, right queue.",
				"I have also verified part of it, but need more.",
			},
			Expect: Expect{
				State:           string(types.StateAuthentication),
				LastBot:         "AUTH_FOLLOWUP",
				IsAuthenticated: ptr(false),
			},
		},
		{
			Name:        "auto-call",
			Description: "Bot turns answered from the agent reply pools",
			Mode:        string(conversation.ModeAutoAgent),
			BotTurns: []string{
				"Hello?",
				"Thanks.",
				"Sure.",
				"Here you go.",
				"Okay.",
				"Great.",
				"Anything else?",
				"Thank you.",
			},
		},
	}
}

// Find returns the scenario called name.
func Find(scenarios []Scenario, name string) (Scenario, bool) {
	for _, s := range scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}
