package pgstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/pgstore"
)

var apiKeyColumns = []string{"id", "account_id", "name", "key_hash", "prefix", "active", "expires_at", "last_used_at", "created_at"}

func TestGetAccount(t *testing.T) {
	t.Parallel()
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectQuery(pgstore.GetAccountSQL).
			WithArgs(id).
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "role", "verified"}).
				AddRow(id, "dev@example.com", "admin", true))

		a, err := store.GetAccount(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, credential.Account{ID: id, Email: "dev@example.com", Role: credential.RoleAdmin, Verified: true}, a)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectQuery(pgstore.GetAccountSQL).WithArgs(id).WillReturnError(pgx.ErrNoRows)

		_, err := store.GetAccount(context.Background(), id)
		assert.ErrorIs(t, err, credential.ErrNotFound)
	})
}

func TestUpsertAccount_EmailTaken(t *testing.T) {
	t.Parallel()
	a := credential.Account{ID: uuid.New(), Email: "taken@example.com", Role: credential.RoleUser}

	mock, store := newMock(t)
	mock.ExpectExec(pgstore.UpsertAccountSQL).
		WithArgs(a.ID, a.Email, "user", false).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	err := store.UpsertAccount(context.Background(), a)
	assert.ErrorIs(t, err, pgstore.ErrEmailTaken)
}

func TestGetAPIKeyByHash(t *testing.T) {
	t.Parallel()
	id, acct := uuid.New(), uuid.New()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	expires := created.AddDate(1, 0, 0)

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectQuery(pgstore.GetAPIKeyByHashSQL).
			WithArgs("abc123").
			WillReturnRows(pgxmock.NewRows(apiKeyColumns).
				AddRow(id, acct, "ci", "abc123", "pk_ABCDE", true, &expires, (*time.Time)(nil), created))

		k, err := store.GetAPIKeyByHash(context.Background(), "abc123")
		require.NoError(t, err)
		assert.Equal(t, id, k.ID)
		assert.Equal(t, acct, k.AccountID)
		assert.True(t, k.Active)
		require.NotNil(t, k.ExpiresAt)
		assert.True(t, expires.Equal(*k.ExpiresAt))
		assert.Nil(t, k.LastUsedAt)
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectQuery(pgstore.GetAPIKeyByHashSQL).WithArgs("nope").WillReturnError(pgx.ErrNoRows)

		_, err := store.GetAPIKeyByHash(context.Background(), "nope")
		assert.ErrorIs(t, err, credential.ErrNotFound)
	})
}

func TestCreateAPIKey(t *testing.T) {
	t.Parallel()
	key := credential.APIKey{
		ID:        uuid.New(),
		AccountID: uuid.New(),
		Name:      "ci",
		Hash:      "deadbeef",
		Prefix:    "pk_DEADB",
		Active:    true,
		CreatedAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}

	t.Run("inserted", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectExec(pgstore.InsertAPIKeySQL).
			WithArgs(key.ID, key.AccountID, key.Name, key.Hash, key.Prefix, true, key.ExpiresAt, key.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		require.NoError(t, store.CreateAPIKey(context.Background(), key))
	})

	t.Run("unknown account", func(t *testing.T) {
		t.Parallel()
		mock, store := newMock(t)
		mock.ExpectExec(pgstore.InsertAPIKeySQL).
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
				pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
			WillReturnError(&pgconn.PgError{Code: "23503"})

		err := store.CreateAPIKey(context.Background(), key)
		assert.ErrorIs(t, err, credential.ErrNotFound)
	})
}

func TestTouchAPIKey(t *testing.T) {
	t.Parallel()
	id := uuid.New()
	at := time.Now().UTC()

	mock, store := newMock(t)
	mock.ExpectExec(pgstore.TouchAPIKeySQL).WithArgs(id, at).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(pgstore.TouchAPIKeySQL).WithArgs(id, at).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(pgstore.TouchAPIKeySQL).WithArgs(id, at).WillReturnError(errors.New("closed"))

	assert.NoError(t, store.TouchAPIKey(context.Background(), id, at))
	assert.ErrorIs(t, store.TouchAPIKey(context.Background(), id, at), credential.ErrNotFound)
	assert.Error(t, store.TouchAPIKey(context.Background(), id, at))
}

func TestResolverOnPostgres(t *testing.T) {
	t.Parallel()
	acct := uuid.New()
	created := time.Now().UTC().Add(-time.Hour)
	gen, err := credential.GenerateAPIKey(credential.DefaultKeyPrefix)
	require.NoError(t, err)

	mock, store := newMock(t)
	mock.MatchExpectationsInOrder(false)
	mock.ExpectQuery(pgstore.GetAPIKeyByHashSQL).
		WithArgs(gen.Hash).
		WillReturnRows(pgxmock.NewRows(apiKeyColumns).
			AddRow(uuid.New(), acct, "ci", gen.Hash, gen.Prefix, true, (*time.Time)(nil), (*time.Time)(nil), created))
	mock.ExpectQuery(pgstore.GetAccountSQL).
		WithArgs(acct).
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "role", "verified"}).
			AddRow(acct, "dev@example.com", "user", true))
	mock.ExpectExec(pgstore.TouchAPIKeySQL).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	resolver := credential.NewResolver(store)
	id, err := resolver.Resolve(context.Background(), gen.Raw, credential.KindAPIKey)
	require.NoError(t, err)
	assert.Equal(t, acct, id.AccountID)
	require.NoError(t, resolver.Close(context.Background()))
}

func TestSetAPIKeyActive(t *testing.T) {
	t.Parallel()
	id := uuid.New()

	mock, store := newMock(t)
	mock.ExpectExec(pgstore.SetAPIKeyActiveSQL).WithArgs(id, false).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(pgstore.SetAPIKeyActiveSQL).WithArgs(id, true).WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectExec(pgstore.SetAPIKeyActiveSQL).WithArgs(id, true).WillReturnError(errors.New("closed"))

	assert.NoError(t, store.SetAPIKeyActive(context.Background(), id, false))
	assert.ErrorIs(t, store.SetAPIKeyActive(context.Background(), id, true), credential.ErrNotFound)
	assert.ErrorIs(t, store.SetAPIKeyActive(context.Background(), id, true), credential.ErrStoreUnavailable)
}

func TestRevokedKeyOnPostgres(t *testing.T) {
	t.Parallel()
	keyID, acct := uuid.New(), uuid.New()
	created := time.Now().UTC().Add(-time.Hour)
	gen, err := credential.GenerateAPIKey(credential.DefaultKeyPrefix)
	require.NoError(t, err)

	mock, store := newMock(t)
	mock.ExpectExec(pgstore.SetAPIKeyActiveSQL).WithArgs(keyID, false).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(pgstore.GetAPIKeyByHashSQL).
		WithArgs(gen.Hash).
		WillReturnRows(pgxmock.NewRows(apiKeyColumns).
			AddRow(keyID, acct, "ci", gen.Hash, gen.Prefix, false, (*time.Time)(nil), (*time.Time)(nil), created))

	require.NoError(t, store.SetAPIKeyActive(context.Background(), keyID, false))

	resolver := credential.NewResolver(store)
	_, err = resolver.Resolve(context.Background(), gen.Raw, credential.KindAPIKey)
	require.ErrorIs(t, err, credential.ErrInvalidCredential)
	require.NoError(t, resolver.Close(context.Background()))
}
