// Package ratelimiter throttles callers per key with golang.org/x/time/rate
// token buckets held in a bounded, expiring LRU.
//
// It protects the admission endpoints from request floods; it is unrelated to
// monthly usage quotas, which are enforced by the quota ledger.
package ratelimiter
