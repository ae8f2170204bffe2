// Package admission decides whether a request to a metered operation is
// granted, combining credential, entitlement and quota outcomes.
//
// The pipeline is strictly ordered: the credential is resolved first, then the
// account's entitlement, and only when the subscription is healthy and the
// category is included in the plan is the quota ledger asked to charge. The
// ledger's conditional increment is the single point where usage changes, so
// an allowed Decision has already been charged and a denied one never is.
//
// Any infrastructure failure produces ReasonUnavailable, which is a denial.
// Denials for missing features, exhausted quota, or missing or expired
// subscriptions carry upgrade options: public plans, by rank, that would admit
// the request.
//
// Gate, Evaluate, ReasonFor and UpgradeOptions are pure functions and can be
// used without a Service.
package admission
