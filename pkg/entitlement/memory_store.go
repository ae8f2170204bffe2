package entitlement

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps subscription history in memory.
// It implements SubscriptionStore and SubscriptionWriter.
type MemoryStore struct {
	mu      sync.RWMutex
	history map[uuid.UUID][]Subscription
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{history: make(map[uuid.UUID][]Subscription)}
}

// Put appends sub to the history of its account without touching older rows.
func (m *MemoryStore) Put(sub Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history[sub.AccountID] = append(m.history[sub.AccountID], sub)
}

// CurrentSubscription implements SubscriptionStore.
func (m *MemoryStore) CurrentSubscription(_ context.Context, accountID uuid.UUID) (Subscription, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.history[accountID]
	if len(rows) == 0 {
		return Subscription{}, ErrNotFound
	}
	return rows[len(rows)-1], nil
}

// ReplaceSubscription implements SubscriptionWriter.
func (m *MemoryStore) ReplaceSubscription(_ context.Context, next Subscription, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.history[next.AccountID]
	if n := len(rows); n > 0 && rows[n-1].Status != StatusCancelled {
		rows[n-1].Status = StatusCancelled
	}
	m.history[next.AccountID] = append(rows, next)
	return nil
}

// History returns every subscription of accountID, oldest first.
func (m *MemoryStore) History(accountID uuid.UUID) []Subscription {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Clone(m.history[accountID])
}
