package quota

import (
	"context"

	"github.com/google/uuid"
)

// Counter is the only way usage is mutated.
//
// TryIncrement must, in one atomic step on the shared store, create the counter
// at zero if it does not exist, and increment it only when limit is Unlimited or
// the current count is below limit. It returns whether the increment happened and
// the count after the attempt. Concurrent first use of a key must not lose updates.
type Counter interface {
	TryIncrement(ctx context.Context, key Key, limit int64) (allowed bool, count int64, err error)
}

// UsageReader returns the counts of an account for one period.
// Categories that were never charged are absent from the map.
type UsageReader interface {
	Usage(ctx context.Context, accountID uuid.UUID, period string) (map[Category]int64, error)
}
