// Package quota meters per-account monthly usage of operation categories.
//
// Every fine-grained OperationType maps to exactly one Category through a closed
// table that is validated when the package is initialised. Usage is tracked in
// counters keyed by (account, period, category), where the period is the UTC
// calendar month formatted as "YYYY-MM". Rolling into a new month changes the key,
// so counters reset without any background job.
//
// The Ledger never reads a count and then decides in Go. All decisions go through
// Counter.TryIncrement, which must check and increment in one atomic step on the
// shared store:
//
//	counter := quota.NewRedisCounter(redisClient)
//	ledger := quota.NewLedger(counter)
//
//	dec, err := ledger.Charge(ctx, accountID, quota.OpMerge, 10)
//	if err != nil {
//	    // store unavailable: deny
//	}
//	if !dec.Allowed {
//	    // dec.Used == dec.Limit
//	}
//
// Limit semantics:
//
//   - Unlimited (-1): always allowed, the counter is still incremented.
//   - Disabled (0): denied before any store call, no counter is created.
//   - Positive: allowed and incremented while used < limit.
//
// Three Counter implementations are provided: PostgreSQL (see pkg/pgstore),
// Redis (RedisCounter, a Lua script) and MemoryCounter for tests and single
// process deployments.
package quota
