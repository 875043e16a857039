package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"genbi/agent"
)

// ChatMessage is one persisted message in a thread. Table carries tabular
// query output shown with the message.
type ChatMessage struct {
	ID        string           `json:"id"`
	Role      string           `json:"role"` // "user" or "assistant"
	Content   string           `json:"content"`
	Timestamp int64            `json:"timestamp"`
	Table     *agent.TableData `json:"table,omitempty"`
}

// ChatThread is one persisted conversation, bound to a database backend.
type ChatThread struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Database  string        `json:"database"` // backend name this thread queries
	CreatedAt int64         `json:"created_at"`
	Messages  []ChatMessage `json:"messages"`
}

// ChatService persists chat threads, one directory per thread with a
// history.json inside.
type ChatService struct {
	sessionsDir string
	mu          sync.Mutex
}

// NewChatService creates a ChatService rooted at sessionsDir.
func NewChatService(sessionsDir string) *ChatService {
	if err := os.MkdirAll(sessionsDir, 0755); err != nil {
		fmt.Printf("Warning: failed to create sessions directory %s: %v\n", sessionsDir, err)
	}
	return &ChatService{sessionsDir: sessionsDir}
}

// sanitizeThreadID strips everything but alphanumerics, hyphens and
// underscores so a thread id can never escape the sessions directory.
func (s *ChatService) sanitizeThreadID(threadID string) string {
	safe := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return -1
	}, threadID)
	if safe == "" {
		safe = "invalid"
	}
	return safe
}

func (s *ChatService) getThreadPath(threadID string) string {
	return filepath.Join(s.sessionsDir, s.sanitizeThreadID(threadID), "history.json")
}

// LoadThreads loads all threads, newest first.
func (s *ChatService) LoadThreads() ([]ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threads, err := s.loadThreadsInternal()
	if err != nil {
		return nil, err
	}

	sort.Slice(threads, func(i, j int) bool {
		return threads[i].CreatedAt > threads[j].CreatedAt
	})
	return threads, nil
}

// loadThreadsInternal loads threads without locking. Unreadable or corrupt
// thread files are skipped rather than failing the whole listing.
func (s *ChatService) loadThreadsInternal() ([]ChatThread, error) {
	entries, err := os.ReadDir(s.sessionsDir)
	if err != nil {
		return []ChatThread{}, nil
	}

	var threads []ChatThread
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		data, err := os.ReadFile(s.getThreadPath(entry.Name()))
		if err != nil {
			continue
		}
		var t ChatThread
		if err := json.Unmarshal(data, &t); err != nil {
			continue
		}
		threads = append(threads, t)
	}
	return threads, nil
}

// LoadThread loads a single thread by id.
func (s *ChatService) LoadThread(threadID string) (*ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.getThreadPath(threadID))
	if err != nil {
		return nil, WrapOperationErrorf("load thread %s", err, threadID)
	}

	var t ChatThread
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, WrapOperationError("parse thread", err)
	}
	return &t, nil
}

// GetThreadsByDatabase lists the threads bound to one backend.
func (s *ChatService) GetThreadsByDatabase(database string) ([]ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	threads, err := s.loadThreadsInternal()
	if err != nil {
		return nil, err
	}

	filtered := []ChatThread{}
	for _, t := range threads {
		if t.Database == database {
			filtered = append(filtered, t)
		}
	}
	return filtered, nil
}

// generateUniqueTitle disambiguates a title against existing threads of the
// same backend by appending " (n)". Assumes the lock is held.
func (s *ChatService) generateUniqueTitle(database, title, excludeThreadID string) (string, error) {
	threads, err := s.loadThreadsInternal()
	if err != nil {
		return "", err
	}

	existing := make(map[string]bool)
	for _, t := range threads {
		if t.Database == database && t.ID != excludeThreadID {
			existing[t.Title] = true
		}
	}

	newTitle := title
	counter := 1
	for existing[newTitle] {
		newTitle = fmt.Sprintf("%s (%d)", title, counter)
		counter++
	}
	return newTitle, nil
}

func (s *ChatService) saveThreadInternal(t ChatThread) error {
	path := s.getThreadPath(t.ID)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CreateThread creates a new thread with a unique title.
func (s *ChatService) CreateThread(database, title string) (ChatThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	uniqueTitle, err := s.generateUniqueTitle(database, title, "")
	if err != nil {
		return ChatThread{}, err
	}

	t := ChatThread{
		ID:        uuid.NewString(),
		Title:     uniqueTitle,
		Database:  database,
		CreatedAt: time.Now().Unix(),
		Messages:  []ChatMessage{},
	}
	if err := s.saveThreadInternal(t); err != nil {
		return ChatThread{}, WrapOperationError("save thread", err)
	}
	return t, nil
}

// AddMessage appends a message to a thread. The message id is assigned here.
func (s *ChatService) AddMessage(threadID string, msg ChatMessage) (ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.getThreadPath(threadID))
	if err != nil {
		return ChatMessage{}, WrapOperationErrorf("load thread %s", err, threadID)
	}

	var t ChatThread
	if err := json.Unmarshal(data, &t); err != nil {
		return ChatMessage{}, WrapOperationError("parse thread", err)
	}

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = time.Now().UnixMilli()
	}
	t.Messages = append(t.Messages, msg)
	if err := s.saveThreadInternal(t); err != nil {
		return ChatMessage{}, WrapOperationError("save thread", err)
	}
	return msg, nil
}

// UpdateThreadTitle renames a thread, keeping the title unique, and returns
// the title actually stored.
func (s *ChatService) UpdateThreadTitle(threadID, newTitle string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.getThreadPath(threadID))
	if err != nil {
		return "", WrapOperationErrorf("load thread %s", err, threadID)
	}
	var t ChatThread
	if err := json.Unmarshal(data, &t); err != nil {
		return "", WrapOperationError("parse thread", err)
	}

	uniqueTitle, err := s.generateUniqueTitle(t.Database, newTitle, threadID)
	if err != nil {
		return "", err
	}

	t.Title = uniqueTitle
	if err := s.saveThreadInternal(t); err != nil {
		return "", WrapOperationError("save thread", err)
	}
	return uniqueTitle, nil
}

// ClearThreadMessages empties a thread but keeps it.
func (s *ChatService) ClearThreadMessages(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.getThreadPath(threadID))
	if err != nil {
		return WrapOperationErrorf("load thread %s", err, threadID)
	}
	var t ChatThread
	if err := json.Unmarshal(data, &t); err != nil {
		return WrapOperationError("parse thread", err)
	}

	t.Messages = []ChatMessage{}
	return s.saveThreadInternal(t)
}

// DeleteThread removes a thread and its directory.
func (s *ChatService) DeleteThread(threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return os.RemoveAll(filepath.Join(s.sessionsDir, s.sanitizeThreadID(threadID)))
}

// ClearHistory deletes all chat history.
func (s *ChatService) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Refuse paths that don't look like a sessions directory, so a bad
	// configuration cannot wipe something unrelated.
	if s.sessionsDir == "" || s.sessionsDir == "/" || s.sessionsDir == "\\" {
		return fmt.Errorf("refusing to clear history: sessions directory path is unsafe: %q", s.sessionsDir)
	}
	if !strings.Contains(s.sessionsDir, "sessions") {
		return fmt.Errorf("refusing to clear history: sessions directory path does not contain 'sessions': %q", s.sessionsDir)
	}
	return os.RemoveAll(s.sessionsDir)
}
