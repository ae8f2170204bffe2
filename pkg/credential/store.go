package credential

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store is the persistence the resolver depends on.
// Implementations return ErrNotFound for missing rows and any other error for
// infrastructure failures.
type Store interface {
	GetAPIKeyByHash(ctx context.Context, hash string) (APIKey, error)
	GetAccount(ctx context.Context, id uuid.UUID) (Account, error)
	TouchAPIKey(ctx context.Context, id uuid.UUID, at time.Time) error
}

// KeyWriter persists newly issued API keys.
type KeyWriter interface {
	CreateAPIKey(ctx context.Context, key APIKey) error
}

// KeyStatusWriter revokes and reactivates API keys. It returns ErrNotFound
// when no key has the given id.
type KeyStatusWriter interface {
	SetAPIKeyActive(ctx context.Context, id uuid.UUID, active bool) error
}
