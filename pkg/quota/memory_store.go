package quota

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryCounter keeps counters in process memory.
// It is only correct when a single process serves all requests; use it for tests
// and local development.
type MemoryCounter struct {
	mu     sync.Mutex
	counts map[Key]int64
}

// NewMemoryCounter creates an empty in-memory counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{counts: make(map[Key]int64)}
}

// TryIncrement implements Counter.
func (m *MemoryCounter) TryIncrement(ctx context.Context, key Key, limit int64) (bool, int64, error) {
	if err := ctx.Err(); err != nil {
		return false, 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cur := m.counts[key]
	if limit != Unlimited && cur >= limit {
		return false, cur, nil
	}
	cur++
	m.counts[key] = cur
	return true, cur, nil
}

// Usage implements UsageReader.
func (m *MemoryCounter) Usage(ctx context.Context, accountID uuid.UUID, period string) (map[Category]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[Category]int64)
	for k, v := range m.counts {
		if k.AccountID == accountID && k.Period == period {
			out[k.Category] = v
		}
	}
	return out, nil
}

// Count returns the stored count for key and whether the counter exists.
func (m *MemoryCounter) Count(key Key) (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.counts[key]
	return v, ok
}

// Len returns the number of counters that exist.
func (m *MemoryCounter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.counts)
}
