package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/pg"
)

const (
	upsertAccountSQL = `INSERT INTO accounts (id, email, role, verified)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role, verified = EXCLUDED.verified, updated_at = now()`

	getAccountSQL = `SELECT id, email, role, verified FROM accounts WHERE id = $1`

	getAPIKeyByHashSQL = `SELECT id, account_id, name, key_hash, prefix, active, expires_at, last_used_at, created_at
FROM api_keys WHERE key_hash = $1`

	insertAPIKeySQL = `INSERT INTO api_keys (id, account_id, name, key_hash, prefix, active, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	touchAPIKeySQL = `UPDATE api_keys SET last_used_at = $2 WHERE id = $1`

	setAPIKeyActiveSQL = `UPDATE api_keys SET active = $2 WHERE id = $1`
)

// UpsertAccount creates or updates an account.
func (s *Store) UpsertAccount(ctx context.Context, a credential.Account) error {
	if _, err := s.db.Exec(ctx, upsertAccountSQL, a.ID, a.Email, string(a.Role), a.Verified); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return errors.Join(ErrEmailTaken, err)
		}
		return errors.Join(credential.ErrStoreUnavailable, err)
	}
	return nil
}

// GetAccount implements credential.Store.
func (s *Store) GetAccount(ctx context.Context, id uuid.UUID) (credential.Account, error) {
	var (
		a    credential.Account
		role string
	)
	err := s.db.QueryRow(ctx, getAccountSQL, id).Scan(&a.ID, &a.Email, &role, &a.Verified)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return credential.Account{}, credential.ErrNotFound
		}
		return credential.Account{}, err
	}
	a.Role = credential.Role(role)
	return a, nil
}

// GetAPIKeyByHash implements credential.Store.
func (s *Store) GetAPIKeyByHash(ctx context.Context, hash string) (credential.APIKey, error) {
	var k credential.APIKey
	err := s.db.QueryRow(ctx, getAPIKeyByHashSQL, hash).Scan(
		&k.ID, &k.AccountID, &k.Name, &k.Hash, &k.Prefix, &k.Active, &k.ExpiresAt, &k.LastUsedAt, &k.CreatedAt,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return credential.APIKey{}, credential.ErrNotFound
		}
		return credential.APIKey{}, err
	}
	return k, nil
}

// CreateAPIKey implements credential.KeyWriter.
func (s *Store) CreateAPIKey(ctx context.Context, k credential.APIKey) error {
	createdAt := k.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.Exec(ctx, insertAPIKeySQL, k.ID, k.AccountID, k.Name, k.Hash, k.Prefix, k.Active, k.ExpiresAt, createdAt)
	switch {
	case err == nil:
		return nil
	case pg.IsForeignKeyViolationError(err):
		return errors.Join(credential.ErrNotFound, err)
	case pg.IsDuplicateKeyError(err):
		return errors.Join(ErrDuplicateKey, err)
	default:
		return errors.Join(credential.ErrStoreUnavailable, err)
	}
}

// TouchAPIKey implements credential.Store.
func (s *Store) TouchAPIKey(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.db.Exec(ctx, touchAPIKeySQL, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return credential.ErrNotFound
	}
	return nil
}

// SetAPIKeyActive implements credential.KeyStatusWriter.
func (s *Store) SetAPIKeyActive(ctx context.Context, id uuid.UUID, active bool) error {
	tag, err := s.db.Exec(ctx, setAPIKeyActiveSQL, id, active)
	if err != nil {
		return errors.Join(credential.ErrStoreUnavailable, err)
	}
	if tag.RowsAffected() == 0 {
		return credential.ErrNotFound
	}
	return nil
}
