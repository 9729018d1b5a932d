package perception

import "testing"

func TestExtractAgentName(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"name is", "Hello, thank you for calling customer support. My name is Alex. How can I help you today?", "Alex", true},
		{"speaking", "Welcome to customer support. This is Taylor speaking. What can I do for you today?", "Taylor", true},
		{"case insensitive phrase keeps name case", "MY NAME IS jordan", "jordan", true},
		{"name is wins over speaking", "Sam speaking, my name is Alex", "Alex", true},
		{"digits and underscore", "name is agent_42 here", "agent_42", true},
		{"i'm fallback", "Good day, you've reached customer support. I'm Jamie. How may I assist you?", "Jamie", true},
		{"i am fallback", "Hi, I am Morgan from billing", "Morgan", true},
		{"i'm needs a capitalised name", "I'm sorry, could you repeat that?", "", false},
		{"capitalised i'm phrase is not a name", "Hi, I'm Sorry to bother you", "", false},
		{"i'm afraid then name", "I'm Afraid we got cut off. I'm Dana.", "Dana", true},
		{"speaking wins over i'm", "I'm Alex, Sam speaking", "Sam", true},
		{"no match", "Good morning!", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractAgentName(tt.text)
			if got != tt.want || ok != tt.wantOK {
				t.Fatalf("ExtractAgentName(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestIsRightQueue(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"You're in the right place.", true},
		{"Yes, you're in the right queue for coverage inquiries. How can I help?", true},
		{"Actually, this is the general support queue. Let me transfer you to the coverage department.", false},
		{"Please hold", true},                    // no "transfer": biased toward right queue
		{"I'll TRANSFER you, yes", true},         // "yes" wins over transfer
		{"Let me transfer you right away", true}, // "right" wins over transfer
		{"Transfer pending to coverage", false},
	}
	for _, tt := range tests {
		if got := IsRightQueue(tt.text); got != tt.want {
			t.Errorf("IsRightQueue(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestExtractTransferNumber(t *testing.T) {
	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"Their direct number is 555-123-4567.", "555-123-4567", true},
		{"Call 555.123.4567 now", "555.123.4567", true},
		{"Call 555 123 4567 now", "555 123 4567", true},
		{"Call 5551234567 now", "5551234567", true},
		{"first 111-222-3333 then 444-555-6666", "111-222-3333", true},
		{"mixed 555-123.4567", "", false},
		{"too short 555-1234", "", false},
		{"no number here", "", false},
	}
	for _, tt := range tests {
		got, ok := ExtractTransferNumber(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ExtractTransferNumber(%q) = (%q, %v), want (%q, %v)", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestKeywordSignals(t *testing.T) {
	if !NeedsMoreIdentity("Could you ALSO confirm your date of birth?") {
		t.Error("expected more identity for 'also'")
	}
	if !NeedsMoreIdentity("We need additional details") {
		t.Error("expected more identity for 'additional'")
	}
	if !NeedsMoreIdentity("what is the Date Of Birth") {
		t.Error("expected more identity for 'date of birth'")
	}
	if NeedsMoreIdentity("Perfect, I've verified your identity in our system.") {
		t.Error("unexpected more identity")
	}

	if !IsVerified("Perfect, I've VERIFIED your identity") || !IsVerified("identity confirmed") {
		t.Error("expected verified")
	}
	if IsVerified("I'll need to verify your identity.") {
		t.Error("'verify' must not count as verified")
	}

	if !IsPlanActive("Your plan is Active") {
		t.Error("expected active")
	}
	if IsPlanActive("Your plan lapsed") {
		t.Error("unexpected active")
	}
}

func TestAnalyze_Combined(t *testing.T) {
	s := Analyze("Thanks. I also verified it. My name is Riley. Transfer to 555-000-1111.")
	if !s.HasAgentName || s.AgentName != "Riley" {
		t.Fatalf("AgentName = %q", s.AgentName)
	}
	if s.RightQueue {
		t.Error("expected RightQueue false")
	}
	if !s.HasTransferNumber || s.TransferNumber != "555-000-1111" {
		t.Errorf("TransferNumber = %q", s.TransferNumber)
	}
	if !s.NeedsMoreIdentity || !s.Verified || s.PlanActive {
		t.Errorf("unexpected signals %+v", s)
	}
	want := "name=Riley right_queue=false transfer=555-000-1111 more_identity verified"
	if got := s.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
