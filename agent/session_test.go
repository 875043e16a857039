package agent

import "testing"

func TestSessionMessagesAppendOnly(t *testing.T) {
	s := NewSession()
	s.AddMessage(RoleUser, "hello", nil)
	s.AddMessage(RoleAssistant, "hi", &TableData{Columns: []string{"a"}})

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("got %d messages", len(msgs))
	}
	if msgs[0].Role != RoleUser || msgs[1].Role != RoleAssistant {
		t.Error("message order lost")
	}
	if msgs[1].Table == nil {
		t.Error("table attachment lost")
	}
}

func TestSessionPendingPlanLifecycle(t *testing.T) {
	s := NewSession()
	if s.HasPendingPlan() {
		t.Fatal("new session must have no pending plan")
	}

	s.SetPendingPlan(PendingPlan{Question: "first"})
	if !s.HasPendingPlan() {
		t.Fatal("plan not set")
	}
	if s.PendingQuestion() != "first" {
		t.Errorf("got %q", s.PendingQuestion())
	}

	// A new plan replaces the old one entirely.
	s.SetPendingPlan(PendingPlan{Question: "second"})
	if s.PendingQuestion() != "second" {
		t.Errorf("replacement failed: %q", s.PendingQuestion())
	}

	// Take consumes: a plan executes at most once.
	p, ok := s.TakePendingPlan()
	if !ok || p.Question != "second" {
		t.Fatalf("take: got %v %q", ok, p.Question)
	}
	if s.HasPendingPlan() {
		t.Error("plan not cleared after take")
	}
	if _, ok := s.TakePendingPlan(); ok {
		t.Error("second take must report no plan")
	}
}

func TestSessionClearPendingPlan(t *testing.T) {
	s := NewSession()
	s.SetPendingPlan(PendingPlan{Question: "q"})
	s.ClearPendingPlan()
	if s.HasPendingPlan() {
		t.Error("clear failed")
	}
}
