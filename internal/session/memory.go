package session

import (
	"context"
	"sync"
)

// MemoryStore keeps the record in process memory. It backs tests and
// one-shot commands that must not touch disk.
type MemoryStore struct {
	mu   sync.Mutex
	user *User
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(_ context.Context) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil || !m.user.Authenticated() {
		return User{}, ErrNoSession
	}
	return *m.user, nil
}

func (m *MemoryStore) Save(_ context.Context, user User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = &user
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user = nil
	return nil
}
