package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store, used when no Redis host is
// configured.
type MemoryStore struct {
	mu       sync.Mutex
	now      func() time.Time
	sessions map[string]Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{now: time.Now, sessions: map[string]Session{}}
}

// SetClock overrides the time source.
func (m *MemoryStore) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if s.IsExpired(m.now()) {
		delete(m.sessions, id)
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Close() error { return nil }
