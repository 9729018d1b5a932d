package perception

import "testing"

func TestAnalyze(t *testing.T) {
	s := Analyze("Hi, my name is Alex. Let me transfer you to 555-123-4567.")
	if !s.HasAgentName || s.AgentName != "Alex" {
		t.Errorf("AgentName = %q (%v), want Alex", s.AgentName, s.HasAgentName)
	}
	if s.RightQueue {
		t.Error("expected transfer mention to mean wrong queue")
	}
	if !s.HasTransferNumber || s.TransferNumber != "555-123-4567" {
		t.Errorf("TransferNumber = %q", s.TransferNumber)
	}

	got := s.String()
	want := "name=Alex right_queue=false transfer=555-123-4567"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestAnalyze_Nothing(t *testing.T) {
	s := Analyze("Hmm.")
	if s.HasAgentName || s.HasTransferNumber || s.NeedsMoreIdentity || s.Verified || s.PlanActive {
		t.Errorf("unexpected signals: %+v", s)
	}
	if got := s.String(); got != "right_queue=true" {
		t.Errorf("String() = %q", got)
	}
}

func TestAnalyze_Flags(t *testing.T) {
	s := Analyze("Verified. Could you also confirm the plan is active?")
	if !s.NeedsMoreIdentity || !s.Verified || !s.PlanActive {
		t.Errorf("expected all flags: %+v", s)
	}
	if got, want := s.String(), "right_queue=true more_identity verified active"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
