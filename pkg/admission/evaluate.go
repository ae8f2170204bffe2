package admission

import (
	"errors"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
)

// Gate decides whether an account with the given subscription health may be
// charged against limit. It returns ReasonAllow when the ledger should be asked.
func Gate(health entitlement.Health, limit int64) Reason {
	switch health {
	case entitlement.HealthHealthy:
	case entitlement.HealthExpired:
		return ReasonExpiredSubscription
	case entitlement.HealthPaymentPending:
		return ReasonPaymentPending
	default:
		return ReasonNoSubscription
	}
	if limit == quota.Disabled {
		return ReasonNoFeature
	}
	return ReasonAllow
}

// Evaluate maps a ledger decision to a reason.
func Evaluate(d quota.Decision) Reason {
	switch {
	case d.Allowed:
		return ReasonAllow
	case d.Limit == quota.Disabled:
		return ReasonNoFeature
	default:
		return ReasonQuotaExceeded
	}
}

// ReasonFor maps a credential resolution error to a reason.
// Unrecognised errors fail closed as ReasonUnavailable.
func ReasonFor(err error) Reason {
	switch {
	case err == nil:
		return ReasonAllow
	case errors.Is(err, credential.ErrExpiredCredential):
		return ReasonExpiredCredential
	case errors.Is(err, credential.ErrUnverifiedAccount):
		return ReasonUnverifiedAccount
	case errors.Is(err, credential.ErrInvalidCredential):
		return ReasonInvalidCredential
	default:
		return ReasonUnavailable
	}
}

// UpgradeOptions lists the slugs of public plans, ordered by rank, other than
// current whose limit for c would admit one more use after used uses.
func UpgradeOptions(plans []entitlement.Plan, current string, c quota.Category, used int64) []string {
	sorted := make([]entitlement.Plan, 0, len(plans))
	for _, p := range plans {
		if p.Public && p.Slug != current {
			sorted = append(sorted, p)
		}
	}
	entitlement.SortByRank(sorted)

	var out []string
	for _, p := range sorted {
		if p.Allows(c, used) {
			out = append(out, p.Slug)
		}
	}
	return out
}
