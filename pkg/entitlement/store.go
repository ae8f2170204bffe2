package entitlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SubscriptionStore reads the current subscription of an account.
// It returns ErrNotFound when the account has never subscribed.
type SubscriptionStore interface {
	CurrentSubscription(ctx context.Context, accountID uuid.UUID) (Subscription, error)
}

// SubscriptionWriter replaces the current subscription of an account.
//
// ReplaceSubscription must, in one transaction, mark the current subscription
// of next.AccountID (if any) as cancelled at the given time and insert next.
type SubscriptionWriter interface {
	ReplaceSubscription(ctx context.Context, next Subscription, cancelledAt time.Time) error
}
