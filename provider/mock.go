package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/ZaguanLabs/packlate"
)

// MockReply is one scripted answer of the MockBackend.
type MockReply struct {
	Text      string
	Truncated bool
	Err       error
}

// MockBackend is a scripted backend for testing. Replies are keyed by the
// first message of a session; later messages in the same session (continue
// and fixing requests) consume the rest of that script in order.
type MockBackend struct {
	Replies map[string][]MockReply // Scripted replies by source text
	Limit   int                    // Reported character limit

	mu        sync.Mutex
	openCount int
	sendCount int
	closes    int
	messages  []string
}

// NewMockBackend creates a mock backend with translations for a few
// well-known strings.
func NewMockBackend() *MockBackend {
	return &MockBackend{
		Replies: map[string][]MockReply{
			"Hello": {{Text: `{"ruRU":"Привет","deDE":"Hallo","frFR":"Bonjour","zhCN":"你好","esES":"Hola"}`}},
			"World": {{Text: `{"ruRU":"Мир","deDE":"Welt","frFR":"Monde","zhCN":"世界","esES":"Mundo"}`}},
		},
		Limit: 1000,
	}
}

// Script registers the replies for a source text.
func (m *MockBackend) Script(source string, replies ...MockReply) *MockBackend {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Replies[source] = replies
	return m
}

// Name implements Backend.
func (m *MockBackend) Name() string { return "mock" }

// CharLimit implements Backend.
func (m *MockBackend) CharLimit() int { return m.Limit }

// OpenSession implements Backend.
func (m *MockBackend) OpenSession(ctx context.Context) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openCount++
	return &mockSession{backend: m}, nil
}

// OpenCount returns the number of sessions opened.
func (m *MockBackend) OpenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.openCount
}

// CallCount returns the number of messages sent across all sessions.
func (m *MockBackend) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendCount
}

// CloseCount returns the number of sessions closed.
func (m *MockBackend) CloseCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// Messages returns every message sent, in order.
func (m *MockBackend) Messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.messages...)
}

// Reset clears the counters and message log.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.openCount, m.sendCount, m.closes = 0, 0, 0
	m.messages = nil
}

type mockSession struct {
	backend *MockBackend
	script  []MockReply
	started bool
	closed  bool
}

func (s *mockSession) Send(ctx context.Context, text string) (Reply, error) {
	m := s.backend
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sendCount++
	m.messages = append(m.messages, text)

	if !s.started {
		s.started = true
		s.script = append([]MockReply(nil), m.Replies[text]...)
	}
	if len(s.script) == 0 {
		return Reply{}, &packlate.ProviderError{Message: fmt.Sprintf("mock: no reply scripted for %q", text)}
	}

	next := s.script[0]
	s.script = s.script[1:]
	if next.Err != nil {
		return Reply{}, next.Err
	}
	return Reply{Text: next.Text, Truncated: next.Truncated}, nil
}

func (s *mockSession) Close(ctx context.Context) error {
	m := s.backend
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.closed {
		return fmt.Errorf("mock: session closed twice")
	}
	s.closed = true
	m.closes++
	return nil
}

// Verify MockBackend implements Backend
var _ Backend = (*MockBackend)(nil)
