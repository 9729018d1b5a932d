package mangle

import (
	"testing"

	"callsim/internal/types"
)

func TestNewAuditor(t *testing.T) {
	a, err := NewAuditor()
	if err != nil {
		t.Fatalf("NewAuditor() error = %v", err)
	}
	if a.Observed() != 0 {
		t.Fatalf("Observed() = %d, want 0", a.Observed())
	}
	v, err := a.Violations()
	if err != nil {
		t.Fatalf("Violations() error = %v", err)
	}
	if len(v) != 0 {
		t.Fatalf("fresh auditor reported violations: %v", v)
	}
}

func TestAuditorAcceptsScriptedPaths(t *testing.T) {
	a, err := NewAuditor()
	if err != nil {
		t.Fatalf("NewAuditor() error = %v", err)
	}

	// Session 1: full happy path.
	a.RecordTransition(1, types.StateIntroduction, types.StateQueueVerification)
	a.RecordTransition(1, types.StateQueueVerification, types.StateAuthentication)
	a.RecordTransition(1, types.StateAuthentication, types.StateInquiry)
	a.RecordTransition(1, types.StateInquiry, types.StateCompleted)
	// Session 2: transfer.
	a.RecordTransition(2, types.StateIntroduction, types.StateQueueVerification)
	a.RecordTransition(2, types.StateQueueVerification, types.StateCompleted)
	// Session 3: reset before completion.
	a.RecordTransition(3, types.StateIntroduction, types.StateQueueVerification)

	if got := a.Observed(); got != 7 {
		t.Fatalf("Observed() = %d, want 7", got)
	}

	v, err := a.Violations()
	if err != nil {
		t.Fatalf("Violations() error = %v", err)
	}
	if len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}

	completed, err := a.CompletedSessions()
	if err != nil {
		t.Fatalf("CompletedSessions() error = %v", err)
	}
	if len(completed) != 2 || completed[0] != 1 || completed[1] != 2 {
		t.Errorf("CompletedSessions() = %v, want [1 2]", completed)
	}

	transferred, err := a.TransferredSessions()
	if err != nil {
		t.Fatalf("TransferredSessions() error = %v", err)
	}
	if len(transferred) != 1 || transferred[0] != 2 {
		t.Errorf("TransferredSessions() = %v, want [2]", transferred)
	}
}

func TestAuditorFlagsIllegalTransitions(t *testing.T) {
	a, err := NewAuditor()
	if err != nil {
		t.Fatalf("NewAuditor() error = %v", err)
	}

	if err := a.Record(1, types.StateIntroduction, types.StateAuthentication); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := a.Record(1, types.StateAuthentication, types.StateAuthentication); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := a.Record(1, types.StateCompleted, types.StateInquiry); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	v, err := a.Violations()
	if err != nil {
		t.Fatalf("Violations() error = %v", err)
	}
	if len(v) != 2 {
		t.Fatalf("Violations() = %v, want 2 entries", v)
	}
	want := []Violation{
		{Epoch: 1, Seq: 1, From: types.StateIntroduction, To: types.StateAuthentication},
		{Epoch: 1, Seq: 3, From: types.StateCompleted, To: types.StateInquiry},
	}
	for i := range want {
		if v[i] != want[i] {
			t.Errorf("violation %d = %+v, want %+v", i, v[i], want[i])
		}
	}
	if s := v[0].String(); s != "session 1 #1: introduction -> authentication" {
		t.Errorf("String() = %q", s)
	}
}

func TestAuditorReevaluatesAfterNewFacts(t *testing.T) {
	a, err := NewAuditor()
	if err != nil {
		t.Fatalf("NewAuditor() error = %v", err)
	}
	if v, _ := a.Violations(); len(v) != 0 {
		t.Fatalf("unexpected violations: %v", v)
	}
	a.RecordTransition(4, types.StateInquiry, types.StateIntroduction)
	v, err := a.Violations()
	if err != nil {
		t.Fatalf("Violations() error = %v", err)
	}
	if len(v) != 1 || v[0].Epoch != 4 {
		t.Fatalf("Violations() = %v, want one violation in session 4", v)
	}
}
