package pgstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/pgstore"
)

var subscriptionColumns = []string{
	"id", "account_id", "plan_slug", "status", "payment_status", "trial_ends_at", "period_start", "period_end", "created_at",
}

func TestCurrentSubscription(t *testing.T) {
	t.Parallel()
	acct, id := uuid.New(), uuid.New()
	start := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	trialEnd := start.AddDate(0, 0, 14)

	t.Run("trial without period end", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectQuery(pgstore.CurrentSubscriptionSQL).
			WithArgs(acct).
			WillReturnRows(pgxmock.NewRows(subscriptionColumns).
				AddRow(id, acct, "trial", "trial", "paid", &trialEnd, start, (*time.Time)(nil), start))

		sub, err := store.CurrentSubscription(context.Background(), acct)
		require.NoError(t, err)
		assert.Equal(t, entitlement.StatusTrial, sub.Status)
		assert.Equal(t, entitlement.PaymentPaid, sub.PaymentStatus)
		assert.True(t, sub.PeriodEnd.IsZero())
		assert.Equal(t, entitlement.HealthHealthy, entitlement.Classify(&sub, start.AddDate(0, 0, 1)))
		assert.Equal(t, entitlement.HealthExpired, entitlement.Classify(&sub, trialEnd))
	})

	t.Run("never subscribed", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectQuery(pgstore.CurrentSubscriptionSQL).WithArgs(acct).WillReturnError(pgx.ErrNoRows)

		_, err := store.CurrentSubscription(context.Background(), acct)
		assert.ErrorIs(t, err, entitlement.ErrNotFound)
	})
}

func TestReplaceSubscription(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	next := entitlement.Subscription{
		ID:            uuid.New(),
		AccountID:     uuid.New(),
		PlanSlug:      "starter",
		Status:        entitlement.StatusActive,
		PaymentStatus: entitlement.PaymentPending,
		PeriodStart:   now,
		PeriodEnd:     now.AddDate(0, 1, 0),
		CreatedAt:     now,
	}

	t.Run("commits", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(pgstore.CancelCurrentSubscriptionSQL).
			WithArgs(next.AccountID, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(pgstore.InsertSubscriptionSQL).
			WithArgs(next.ID, next.AccountID, "starter", "active", "pending",
				next.TrialEndsAt, next.PeriodStart, &next.PeriodEnd, next.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectCommit()

		require.NoError(t, store.ReplaceSubscription(context.Background(), next, now))
	})

	t.Run("rolls back on insert failure", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(pgstore.CancelCurrentSubscriptionSQL).
			WithArgs(next.AccountID, now).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		mock.ExpectExec(pgstore.InsertSubscriptionSQL).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := store.ReplaceSubscription(context.Background(), next, now)
		assert.ErrorIs(t, err, entitlement.ErrStoreUnavailable)
	})

	t.Run("begin failure", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		err := store.ReplaceSubscription(context.Background(), next, now)
		assert.ErrorIs(t, err, entitlement.ErrStoreUnavailable)
	})
}
