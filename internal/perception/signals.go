package perception

import (
	"fmt"
	"strings"
)

// Signals is every extractor applied to one utterance.
type Signals struct {
	AgentName         string
	HasAgentName      bool
	RightQueue        bool
	TransferNumber    string
	HasTransferNumber bool
	NeedsMoreIdentity bool
	Verified          bool
	PlanActive        bool
}

// Analyze runs all extractors over text.
func Analyze(text string) Signals {
	var s Signals
	s.AgentName, s.HasAgentName = ExtractAgentName(text)
	s.RightQueue = IsRightQueue(text)
	s.TransferNumber, s.HasTransferNumber = ExtractTransferNumber(text)
	s.NeedsMoreIdentity = NeedsMoreIdentity(text)
	s.Verified = IsVerified(text)
	s.PlanActive = IsPlanActive(text)
	return s
}

// String renders the signals compactly for logs and the status panel.
func (s Signals) String() string {
	var parts []string
	if s.HasAgentName {
		parts = append(parts, "name="+s.AgentName)
	}
	parts = append(parts, fmt.Sprintf("right_queue=%t", s.RightQueue))
	if s.HasTransferNumber {
		parts = append(parts, "transfer="+s.TransferNumber)
	}
	if s.NeedsMoreIdentity {
		parts = append(parts, "more_identity")
	}
	if s.Verified {
		parts = append(parts, "verified")
	}
	if s.PlanActive {
		parts = append(parts, "active")
	}
	return strings.Join(parts, " ")
}
