package agent

import "sync"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one conversation entry. Table carries tabular data shown
// alongside the text, when a query produced any.
type Message struct {
	Role    string     `json:"role"`
	Content string     `json:"content"`
	Table   *TableData `json:"table,omitempty"`
}

// PendingPlan is the single plan slot of a session: the proposed plan (or the
// model's unstructured fallback text) plus the question that produced it, kept
// so execution and modification can refer back to the original ask.
type PendingPlan struct {
	Plan     *AnalysisPlan
	Fallback string
	Question string
}

// Session holds one conversation's state: the append-only message sequence
// and at most one pending plan. Setting a new plan replaces the previous one;
// executing consumes and clears it, so a plan runs at most once.
type Session struct {
	mu       sync.Mutex
	messages []Message
	pending  *PendingPlan
}

// NewSession creates an empty session.
func NewSession() *Session {
	return &Session{}
}

// AddMessage appends one message.
func (s *Session) AddMessage(role, content string, table *TableData) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, Message{Role: role, Content: content, Table: table})
}

// Messages returns a copy of the message sequence in order.
func (s *Session) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// SetPendingPlan installs a plan, replacing any previous one entirely.
func (s *Session) SetPendingPlan(p PendingPlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = &p
}

// HasPendingPlan reports whether a plan is waiting for a decision.
func (s *Session) HasPendingPlan() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// PendingQuestion returns the question that produced the pending plan, or ""
// when none is pending.
func (s *Session) PendingQuestion() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return ""
	}
	return s.pending.Question
}

// TakePendingPlan removes and returns the pending plan. The second return is
// false when no plan was pending.
func (s *Session) TakePendingPlan() (PendingPlan, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return PendingPlan{}, false
	}
	p := *s.pending
	s.pending = nil
	return p, true
}

// ClearPendingPlan abandons the pending plan, if any.
func (s *Session) ClearPendingPlan() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = nil
}
