// Package entitlement answers which plan an account is on and whether its
// subscription currently permits use.
//
// Plans are quota tables keyed by quota.Category. The built-in catalog is
// embedded from plans.yaml and can be replaced with LoadCatalogFile. An
// account's current subscription is its most recently created row; Classify
// maps that row and the current time to a Health value.
//
// Resolver reads the store on every call unless WithCacheTTL is set, in which
// case results may lag the store by at most the configured ttl. Health is
// always derived from the current time, so trial and period expiry are never
// served stale.
//
// Lifecycle creates new subscription rows on trial start and plan change; the
// previous row is cancelled in the same transaction.
package entitlement
