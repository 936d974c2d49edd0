package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the session in process memory.
type MemoryStore struct {
	mu sync.RWMutex
	s  Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	m.s = s
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	m.s = Session{}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(context.Context) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.s, nil
}
