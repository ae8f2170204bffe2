// Package cache provides a small thread-safe LRU cache whose entries expire
// after a fixed time-to-live.
//
// It bounds both memory (capacity) and staleness (ttl), which makes it suitable
// for read-mostly lookups that may lag the system of record by at most ttl:
//
//	plans := cache.New[uuid.UUID, entitlement.Entitlement](10_000, 30*time.Second)
//	if e, ok := plans.Get(accountID); ok {
//	    return e
//	}
//	plans.Put(accountID, loaded)
//
// Expired entries are dropped lazily on access and when they reach the tail of
// the eviction list; there is no background sweeper.
package cache
