package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/pg"
)

const (
	currentSubscriptionSQL = `SELECT id, account_id, plan_slug, status, payment_status, trial_ends_at, period_start, period_end, created_at
FROM subscriptions
WHERE account_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1`

	cancelCurrentSubscriptionSQL = `UPDATE subscriptions SET status = 'cancelled', cancelled_at = $2
WHERE id = (
    SELECT id FROM subscriptions WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1 FOR UPDATE
) AND status <> 'cancelled'`

	insertSubscriptionSQL = `INSERT INTO subscriptions (id, account_id, plan_slug, status, payment_status, trial_ends_at, period_start, period_end, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

// CurrentSubscription implements entitlement.SubscriptionStore.
func (s *Store) CurrentSubscription(ctx context.Context, accountID uuid.UUID) (entitlement.Subscription, error) {
	var (
		sub         entitlement.Subscription
		status, pay string
		periodEnd   *time.Time
	)
	err := s.db.QueryRow(ctx, currentSubscriptionSQL, accountID).Scan(
		&sub.ID, &sub.AccountID, &sub.PlanSlug, &status, &pay, &sub.TrialEndsAt, &sub.PeriodStart, &periodEnd, &sub.CreatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return entitlement.Subscription{}, entitlement.ErrNotFound
		}
		return entitlement.Subscription{}, err
	}
	sub.Status = entitlement.Status(status)
	sub.PaymentStatus = entitlement.PaymentStatus(pay)
	if periodEnd != nil {
		sub.PeriodEnd = *periodEnd
	}
	return sub, nil
}

// ReplaceSubscription implements entitlement.SubscriptionWriter.
// The current row is cancelled and next is inserted in one transaction.
func (s *Store) ReplaceSubscription(ctx context.Context, next entitlement.Subscription, cancelledAt time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Join(entitlement.ErrStoreUnavailable, err)
	}

	if _, err := tx.Exec(ctx, cancelCurrentSubscriptionSQL, next.AccountID, cancelledAt); err != nil {
		_ = tx.Rollback(ctx)
		return errors.Join(entitlement.ErrStoreUnavailable, err)
	}

	var periodEnd *time.Time
	if !next.PeriodEnd.IsZero() {
		periodEnd = &next.PeriodEnd
	}
	createdAt := next.CreatedAt
	if createdAt.IsZero() {
		createdAt = cancelledAt
	}
	_, err = tx.Exec(ctx, insertSubscriptionSQL,
		next.ID, next.AccountID, next.PlanSlug, string(next.Status), string(next.PaymentStatus),
		next.TrialEndsAt, next.PeriodStart, periodEnd, createdAt,
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		if pg.IsForeignKeyViolationError(err) {
			return errors.Join(entitlement.ErrNotFound, err)
		}
		return errors.Join(entitlement.ErrStoreUnavailable, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(entitlement.ErrStoreUnavailable, err)
	}
	return nil
}
