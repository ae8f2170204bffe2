package admission

import "errors"

var (
	ErrFeatureUnavailable  = errors.New("admission: feature not included in plan")
	ErrQuotaExceeded       = errors.New("admission: monthly quota exceeded")
	ErrNoSubscription      = errors.New("admission: no active subscription")
	ErrSubscriptionExpired = errors.New("admission: subscription expired")
	ErrPaymentPending      = errors.New("admission: payment pending")
	ErrUnavailable         = errors.New("admission: dependency unavailable")
)
