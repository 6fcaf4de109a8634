package tokenstore

import (
	"context"
	"sync"

	"github.com/Patthethicc/EMPATHY-AVATAR-AI/domain/repositories"
)

// MemoryStore keeps the token for the life of the process only
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

var _ repositories.TokenStore = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load implements repositories.TokenStore
func (m *MemoryStore) Load(ctx context.Context) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token, nil
}

// Save implements repositories.TokenStore
func (m *MemoryStore) Save(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

// Clear implements repositories.TokenStore
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
