package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"genbi/agent"
)

func newTestChatService(t *testing.T) *ChatService {
	t.Helper()
	return NewChatService(filepath.Join(t.TempDir(), "sessions"))
}

func TestCreateAndLoadThread(t *testing.T) {
	svc := newTestChatService(t)

	created, err := svc.CreateThread("warehouse", "Revenue questions")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	if created.ID == "" || created.Title != "Revenue questions" {
		t.Fatalf("got %+v", created)
	}

	loaded, err := svc.LoadThread(created.ID)
	if err != nil {
		t.Fatalf("LoadThread failed: %v", err)
	}
	if loaded.Database != "warehouse" || len(loaded.Messages) != 0 {
		t.Errorf("got %+v", loaded)
	}
}

func TestUniqueTitles(t *testing.T) {
	svc := newTestChatService(t)

	first, err := svc.CreateThread("warehouse", "Session")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	second, err := svc.CreateThread("warehouse", "Session")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	third, err := svc.CreateThread("warehouse", "Session")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}

	if first.Title != "Session" || second.Title != "Session (1)" || third.Title != "Session (2)" {
		t.Errorf("got %q / %q / %q", first.Title, second.Title, third.Title)
	}

	// Same title under another backend stays untouched.
	other, err := svc.CreateThread("crm", "Session")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}
	if other.Title != "Session" {
		t.Errorf("cross-backend collision: %q", other.Title)
	}
}

func TestAddMessagePersistsTable(t *testing.T) {
	svc := newTestChatService(t)
	thread, err := svc.CreateThread("warehouse", "T")
	if err != nil {
		t.Fatalf("CreateThread failed: %v", err)
	}

	msg, err := svc.AddMessage(thread.ID, ChatMessage{
		Role:    "assistant",
		Content: "2 rows",
		Table:   &agent.TableData{Columns: []string{"id"}, Rows: [][]interface{}{{1.0}, {2.0}}},
	})
	if err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if msg.ID == "" || msg.Timestamp == 0 {
		t.Error("id or timestamp not assigned")
	}

	loaded, err := svc.LoadThread(thread.ID)
	if err != nil {
		t.Fatalf("LoadThread failed: %v", err)
	}
	if len(loaded.Messages) != 1 {
		t.Fatalf("got %d messages", len(loaded.Messages))
	}
	if loaded.Messages[0].Table == nil || len(loaded.Messages[0].Table.Rows) != 2 {
		t.Error("table attachment lost on disk")
	}
}

func TestLoadThreadsNewestFirst(t *testing.T) {
	svc := newTestChatService(t)
	a, _ := svc.CreateThread("warehouse", "A")
	b, _ := svc.CreateThread("warehouse", "B")

	// Force distinct creation times.
	older, _ := svc.LoadThread(a.ID)
	older.CreatedAt -= 60
	if err := svc.saveThreadInternal(*older); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	threads, err := svc.LoadThreads()
	if err != nil {
		t.Fatalf("LoadThreads failed: %v", err)
	}
	if len(threads) != 2 || threads[0].ID != b.ID {
		t.Errorf("order wrong: %+v", threads)
	}
}

func TestSanitizeThreadID(t *testing.T) {
	svc := newTestChatService(t)
	if got := svc.sanitizeThreadID("../../etc/passwd"); strings.ContainsAny(got, "/.") {
		t.Errorf("traversal characters survived: %q", got)
	}
	if got := svc.sanitizeThreadID("..//.."); got != "invalid" {
		t.Errorf("got %q", got)
	}
	if got := svc.sanitizeThreadID("abc-123_X"); got != "abc-123_X" {
		t.Errorf("safe id mangled: %q", got)
	}
}

func TestDeleteThread(t *testing.T) {
	svc := newTestChatService(t)
	thread, _ := svc.CreateThread("warehouse", "T")

	if err := svc.DeleteThread(thread.ID); err != nil {
		t.Fatalf("DeleteThread failed: %v", err)
	}
	if _, err := svc.LoadThread(thread.ID); err == nil {
		t.Error("thread still loads after delete")
	}
}

func TestClearThreadMessages(t *testing.T) {
	svc := newTestChatService(t)
	thread, _ := svc.CreateThread("warehouse", "T")
	if _, err := svc.AddMessage(thread.ID, ChatMessage{Role: "user", Content: "hi"}); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	if err := svc.ClearThreadMessages(thread.ID); err != nil {
		t.Fatalf("ClearThreadMessages failed: %v", err)
	}
	loaded, _ := svc.LoadThread(thread.ID)
	if len(loaded.Messages) != 0 {
		t.Error("messages survived clear")
	}
	if loaded.Title != "T" {
		t.Error("thread metadata lost")
	}
}

func TestClearHistoryRefusesUnsafePath(t *testing.T) {
	svc := &ChatService{sessionsDir: "/"}
	if err := svc.ClearHistory(); err == nil {
		t.Error("expected refusal for root path")
	}

	dir := filepath.Join(t.TempDir(), "notmatching")
	svc = &ChatService{sessionsDir: dir}
	if err := svc.ClearHistory(); err == nil {
		t.Error("expected refusal for path without 'sessions'")
	}

	safe := filepath.Join(t.TempDir(), "sessions")
	if err := os.MkdirAll(safe, 0755); err != nil {
		t.Fatal(err)
	}
	svc = &ChatService{sessionsDir: safe}
	if err := svc.ClearHistory(); err != nil {
		t.Errorf("expected clear to succeed: %v", err)
	}
}

func TestUpdateThreadTitleKeepsUniqueness(t *testing.T) {
	svc := newTestChatService(t)
	svc.CreateThread("warehouse", "Taken")
	thread, _ := svc.CreateThread("warehouse", "Original")

	got, err := svc.UpdateThreadTitle(thread.ID, "Taken")
	if err != nil {
		t.Fatalf("UpdateThreadTitle failed: %v", err)
	}
	if got != "Taken (1)" {
		t.Errorf("got %q", got)
	}
}
