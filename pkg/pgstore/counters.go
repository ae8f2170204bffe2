package pgstore

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/pg"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
)

const (
	// A conflicting row is only updated when it is still below the limit; when
	// the WHERE clause rejects the update nothing is returned.
	tryIncrementSQL = `INSERT INTO usage_counters (account_id, period, category, count, updated_at)
VALUES ($1, $2, $3, 1, now())
ON CONFLICT (account_id, period, category) DO UPDATE
SET count = usage_counters.count + 1, updated_at = now()
WHERE usage_counters.count < $4
RETURNING count`

	incrementUnlimitedSQL = `INSERT INTO usage_counters (account_id, period, category, count, updated_at)
VALUES ($1, $2, $3, 1, now())
ON CONFLICT (account_id, period, category) DO UPDATE
SET count = usage_counters.count + 1, updated_at = now()
RETURNING count`

	counterValueSQL = `SELECT count FROM usage_counters WHERE account_id = $1 AND period = $2 AND category = $3`

	usageSQL = `SELECT category, count FROM usage_counters WHERE account_id = $1 AND period = $2`
)

// TryIncrement implements quota.Counter.
func (s *Store) TryIncrement(ctx context.Context, key quota.Key, limit int64) (bool, int64, error) {
	if limit != quota.Unlimited && limit <= 0 {
		n, err := s.counterValue(ctx, key)
		return false, n, err
	}

	var (
		count int64
		err   error
	)
	if limit == quota.Unlimited {
		err = s.db.QueryRow(ctx, incrementUnlimitedSQL, key.AccountID, key.Period, string(key.Category)).Scan(&count)
	} else {
		err = s.db.QueryRow(ctx, tryIncrementSQL, key.AccountID, key.Period, string(key.Category), limit).Scan(&count)
	}
	switch {
	case err == nil:
		return true, count, nil
	case pg.IsNotFoundError(err):
		n, err := s.counterValue(ctx, key)
		return false, n, err
	default:
		return false, 0, errors.Join(quota.ErrStoreUnavailable, err)
	}
}

func (s *Store) counterValue(ctx context.Context, key quota.Key) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, counterValueSQL, key.AccountID, key.Period, string(key.Category)).Scan(&n)
	if err != nil && !pg.IsNotFoundError(err) {
		return 0, errors.Join(quota.ErrStoreUnavailable, err)
	}
	return n, nil
}

// Usage implements quota.UsageReader.
func (s *Store) Usage(ctx context.Context, accountID uuid.UUID, period string) (map[quota.Category]int64, error) {
	rows, err := s.db.Query(ctx, usageSQL, accountID, period)
	if err != nil {
		return nil, errors.Join(quota.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	out := make(map[quota.Category]int64)
	for rows.Next() {
		var (
			cat string
			n   int64
		)
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, errors.Join(quota.ErrStoreUnavailable, err)
		}
		out[quota.Category(cat)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(quota.ErrStoreUnavailable, err)
	}
	return out, nil
}
