package credential

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and local development.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[uuid.UUID]Account
	keys     map[string]APIKey
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[uuid.UUID]Account),
		keys:     make(map[string]APIKey),
	}
}

// PutAccount inserts or replaces an account.
func (m *MemoryStore) PutAccount(a Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
}

// CreateAPIKey implements KeyWriter.
func (m *MemoryStore) CreateAPIKey(_ context.Context, key APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key.Hash] = key
	return nil
}

// SetAPIKeyActive implements KeyStatusWriter.
func (m *MemoryStore) SetAPIKeyActive(_ context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, k := range m.keys {
		if k.ID == id {
			k.Active = active
			m.keys[hash] = k
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryStore) GetAPIKeyByHash(_ context.Context, hash string) (APIKey, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	k, ok := m.keys[hash]
	if !ok {
		return APIKey{}, ErrNotFound
	}
	return k, nil
}

func (m *MemoryStore) GetAccount(_ context.Context, id uuid.UUID) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (m *MemoryStore) TouchAPIKey(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for hash, k := range m.keys {
		if k.ID == id {
			k.LastUsedAt = &at
			m.keys[hash] = k
			return nil
		}
	}
	return ErrNotFound
}
