// Package pgstore persists accounts, API keys, plans, subscriptions, usage
// counters and operation logs in PostgreSQL.
//
// A single Store satisfies credential.Store, credential.KeyWriter,
// entitlement.SubscriptionStore, entitlement.SubscriptionWriter,
// entitlement.PlanSource, quota.Counter, quota.UsageReader and
// audit.BatchWriter. It accepts any DB, so *pgxpool.Pool works in production
// and pgxmock in tests.
//
// Usage counters are only ever changed by a single conditional upsert:
//
//	INSERT ... ON CONFLICT (account_id, period, category)
//	DO UPDATE SET count = usage_counters.count + 1
//	WHERE usage_counters.count < $limit
//	RETURNING count
//
// so concurrent admissions across processes never push a counter past its limit.
//
// The schema ships as embedded goose migrations; apply them with
// pg.Migrate(ctx, pool, pgstore.Migrations(), cfg, log).
package pgstore
