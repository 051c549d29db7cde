package packlate

import (
	"context"
	"errors"
	"sync"
)

// fakeBackend scripts replies per message. Each session consumes replies from
// the queue registered for the first message it receives; unscripted
// continuation and fixing messages use the next queued reply.
type fakeBackend struct {
	mu       sync.Mutex
	name     string
	limit    int
	scripts  map[string][]fakeStep
	openErr  error
	closeErr error

	opens  int
	closes int
	sends  int
	sent   []string
}

type fakeStep struct {
	reply Reply
	err   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		name:    "fake",
		limit:   1000,
		scripts: make(map[string][]fakeStep),
	}
}

func (b *fakeBackend) script(source string, steps ...fakeStep) *fakeBackend {
	b.scripts[source] = steps
	return b
}

func reply(text string) fakeStep     { return fakeStep{reply: Reply{Text: text}} }
func truncated(text string) fakeStep { return fakeStep{reply: Reply{Text: text, Truncated: true}} }
func failWith(err error) fakeStep    { return fakeStep{err: err} }

func (b *fakeBackend) Name() string   { return b.name }
func (b *fakeBackend) CharLimit() int { return b.limit }

func (b *fakeBackend) OpenSession(ctx context.Context) (Session, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.opens++
	if b.openErr != nil {
		return nil, b.openErr
	}
	return &fakeSession{backend: b}, nil
}

func (b *fakeBackend) counts() (opens, sends, closes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.opens, b.sends, b.closes
}

type fakeSession struct {
	backend *fakeBackend
	steps   []fakeStep
	started bool
	closed  bool
}

func (s *fakeSession) Send(ctx context.Context, text string) (Reply, error) {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sends++
	b.sent = append(b.sent, text)

	if !s.started {
		s.started = true
		s.steps = append([]fakeStep(nil), b.scripts[text]...)
	}
	if len(s.steps) == 0 {
		return Reply{}, errors.New("fake backend: no scripted reply")
	}

	step := s.steps[0]
	s.steps = s.steps[1:]
	return step.reply, step.err
}

func (s *fakeSession) Close(ctx context.Context) error {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.closed {
		panic("session closed twice")
	}
	s.closed = true
	b.closes++
	return b.closeErr
}

type mapCache struct {
	mu   sync.Mutex
	data map[string]string
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string]string)}
}

func (c *mapCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	val, ok := c.data[key]
	return val, ok
}

func (c *mapCache) Set(key string, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func entry(key, source string) LocalizedString {
	return LocalizedString{Key: key, SimpleName: "name_" + key, EnGB: Ptr(source)}
}
