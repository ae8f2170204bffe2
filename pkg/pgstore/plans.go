package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/pg"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
)

const (
	planColumns = `slug, name, description, public, rank, trial_days, price_cents, quotas`

	getPlanSQL     = `SELECT ` + planColumns + ` FROM plans WHERE slug = $1`
	publicPlansSQL = `SELECT ` + planColumns + ` FROM plans WHERE public ORDER BY rank, slug`

	upsertPlanSQL = `INSERT INTO plans (` + planColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (slug) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    public = EXCLUDED.public,
    rank = EXCLUDED.rank,
    trial_days = EXCLUDED.trial_days,
    price_cents = EXCLUDED.price_cents,
    quotas = EXCLUDED.quotas,
    updated_at = now()`
)

// GetPlan implements entitlement.PlanSource.
func (s *Store) GetPlan(ctx context.Context, slug string) (entitlement.Plan, error) {
	p, err := scanPlan(s.db.QueryRow(ctx, getPlanSQL, slug))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return entitlement.Plan{}, fmt.Errorf("%w: %s", entitlement.ErrPlanNotFound, slug)
		}
		return entitlement.Plan{}, errors.Join(entitlement.ErrStoreUnavailable, err)
	}
	return p, nil
}

// PublicPlans implements entitlement.PlanSource.
func (s *Store) PublicPlans(ctx context.Context) ([]entitlement.Plan, error) {
	rows, err := s.db.Query(ctx, publicPlansSQL)
	if err != nil {
		return nil, errors.Join(entitlement.ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var plans []entitlement.Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, errors.Join(entitlement.ErrStoreUnavailable, err)
		}
		plans = append(plans, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Join(entitlement.ErrStoreUnavailable, err)
	}
	return plans, nil
}

// UpsertPlans writes plans in one transaction, replacing rows with the same slug.
func (s *Store) UpsertPlans(ctx context.Context, plans ...entitlement.Plan) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return errors.Join(entitlement.ErrStoreUnavailable, err)
	}

	for _, p := range plans {
		if err := p.Validate(); err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		quotas, err := json.Marshal(p.Quotas)
		if err != nil {
			_ = tx.Rollback(ctx)
			return err
		}
		if _, err := tx.Exec(ctx, upsertPlanSQL,
			p.Slug, p.Name, p.Description, p.Public, p.Rank, p.TrialDays, p.PriceCents, quotas,
		); err != nil {
			_ = tx.Rollback(ctx)
			return errors.Join(entitlement.ErrStoreUnavailable, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return errors.Join(entitlement.ErrStoreUnavailable, err)
	}
	return nil
}

func scanPlan(row pgx.Row) (entitlement.Plan, error) {
	var (
		p      entitlement.Plan
		quotas []byte
	)
	if err := row.Scan(&p.Slug, &p.Name, &p.Description, &p.Public, &p.Rank, &p.TrialDays, &p.PriceCents, &quotas); err != nil {
		return entitlement.Plan{}, err
	}
	p.Quotas = make(map[quota.Category]int64)
	if len(quotas) > 0 {
		if err := json.Unmarshal(quotas, &p.Quotas); err != nil {
			return entitlement.Plan{}, fmt.Errorf("decode quotas of %s: %w", p.Slug, err)
		}
	}
	return p, nil
}
