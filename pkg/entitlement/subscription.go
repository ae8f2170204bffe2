package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// Status of a subscription row.
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

// PaymentStatus of the current billing period.
type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentFailed  PaymentStatus = "failed"
)

// Subscription binds an account to a plan. The most recently created row of an
// account is its current subscription; older rows are history.
type Subscription struct {
	ID            uuid.UUID     `json:"id"`
	AccountID     uuid.UUID     `json:"account_id"`
	PlanSlug      string        `json:"plan"`
	Status        Status        `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	TrialEndsAt   *time.Time    `json:"trial_ends_at,omitempty"`
	PeriodStart   time.Time     `json:"period_start"`
	PeriodEnd     time.Time     `json:"period_end"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Health is the admission-relevant state of an account's subscription.
type Health string

const (
	HealthHealthy        Health = "healthy"
	HealthNoEntitlement  Health = "no_entitlement"
	HealthExpired        Health = "expired"
	HealthPaymentPending Health = "payment_pending"
)

// Classify derives the health of sub at now. A nil sub has no entitlement.
func Classify(sub *Subscription, now time.Time) Health {
	if sub == nil {
		return HealthNoEntitlement
	}

	switch sub.Status {
	case StatusCancelled:
		return HealthNoEntitlement
	case StatusExpired:
		return HealthExpired
	case StatusTrial:
		if sub.TrialEndsAt != nil && !now.Before(*sub.TrialEndsAt) {
			return HealthExpired
		}
		return HealthHealthy
	case StatusActive:
		if !sub.PeriodEnd.IsZero() && !now.Before(sub.PeriodEnd) {
			return HealthExpired
		}
		if sub.PaymentStatus != PaymentPaid {
			return HealthPaymentPending
		}
		return HealthHealthy
	default:
		return HealthNoEntitlement
	}
}
