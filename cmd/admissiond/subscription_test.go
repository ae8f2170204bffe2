package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/logger"
)

type subscriptionFixture struct {
	accounts  *credential.MemoryStore
	subs      *entitlement.MemoryStore
	lifecycle *entitlement.Lifecycle
	account   uuid.UUID
}

func newSubscriptionFixture(t *testing.T) subscriptionFixture {
	t.Helper()
	catalog, err := entitlement.DefaultCatalog()
	require.NoError(t, err)

	f := subscriptionFixture{
		accounts: credential.NewMemoryStore(),
		subs:     entitlement.NewMemoryStore(),
		account:  uuid.New(),
	}
	f.lifecycle = newLifecycle(f.subs, f.subs, catalog, logger.Discard())
	f.accounts.PutAccount(credential.Account{ID: f.account, Email: "ops@example.com", Role: credential.RoleUser, Verified: true})

	_, err = f.lifecycle.StartTrial(context.Background(), f.account, "trial", 0)
	require.NoError(t, err)
	return f
}

func TestChangeSubscription(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("existing account moves to a new plan", func(t *testing.T) {
		t.Parallel()
		f := newSubscriptionFixture(t)

		var out bytes.Buffer
		require.NoError(t, changeSubscription(ctx, &out, f.accounts, f.lifecycle, f.account, "professional", false))
		assert.Contains(t, out.String(), "plan=professional")
		assert.Contains(t, out.String(), "payment=pending")
		assert.Contains(t, out.String(), "health=payment_pending")

		history := f.subs.History(f.account)
		require.Len(t, history, 2)
		assert.Equal(t, entitlement.StatusCancelled, history[0].Status)
		assert.Equal(t, "trial", history[0].PlanSlug)
		assert.Equal(t, "professional", history[1].PlanSlug)
	})

	t.Run("private plan needs assign", func(t *testing.T) {
		t.Parallel()
		f := newSubscriptionFixture(t)

		var out bytes.Buffer
		err := changeSubscription(ctx, &out, f.accounts, f.lifecycle, f.account, "superadmin", false)
		require.ErrorIs(t, err, entitlement.ErrPlanNotAssignable)

		require.NoError(t, changeSubscription(ctx, &out, f.accounts, f.lifecycle, f.account, "superadmin", true))
		assert.Contains(t, out.String(), "plan=superadmin")
		assert.Len(t, f.subs.History(f.account), 2)
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		f := newSubscriptionFixture(t)
		stranger := uuid.New()

		var out bytes.Buffer
		err := changeSubscription(ctx, &out, f.accounts, f.lifecycle, stranger, "starter", false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "does not exist")
		assert.Empty(t, f.subs.History(stranger))
	})
}

func TestShowSubscription(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newSubscriptionFixture(t)

	var out bytes.Buffer
	require.NoError(t, showSubscription(ctx, &out, f.subs, f.account, time.Now()))
	assert.Contains(t, out.String(), "plan=trial")
	assert.Contains(t, out.String(), "health=healthy")

	out.Reset()
	require.NoError(t, showSubscription(ctx, &out, f.subs, f.account, time.Now().AddDate(0, 1, 0)))
	assert.Contains(t, out.String(), "health=expired")

	out.Reset()
	require.NoError(t, showSubscription(ctx, &out, f.subs, uuid.New(), time.Now()))
	assert.Contains(t, out.String(), "has no subscription")
}

func TestSetKeyActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := credential.NewMemoryStore()
	acct := credential.Account{ID: uuid.New(), Email: "dev@example.com", Role: credential.RoleUser, Verified: true}
	store.PutAccount(acct)

	raw, key, err := credential.IssueAPIKey(ctx, store, acct.ID, "ci", credential.DefaultKeyPrefix, nil)
	require.NoError(t, err)
	resolver := credential.NewResolver(store)
	t.Cleanup(func() { _ = resolver.Close(context.Background()) })

	var out bytes.Buffer
	require.NoError(t, setKeyActive(ctx, &out, store, key.ID, false))
	assert.Contains(t, out.String(), "revoked")
	_, err = resolver.Resolve(ctx, raw, credential.KindAPIKey)
	require.ErrorIs(t, err, credential.ErrInvalidCredential)

	require.NoError(t, setKeyActive(ctx, &out, store, key.ID, true))
	assert.Contains(t, out.String(), "active")
	id, err := resolver.Resolve(ctx, raw, credential.KindAPIKey)
	require.NoError(t, err)
	assert.Equal(t, acct.ID, id.AccountID)

	err = setKeyActive(ctx, &out, store, uuid.New(), false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}
