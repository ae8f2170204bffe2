package entitlement

import "errors"

var (
	ErrStoreUnavailable  = errors.New("entitlement: store unavailable")
	ErrNotFound          = errors.New("entitlement: not found")
	ErrPlanNotFound      = errors.New("entitlement: plan not found")
	ErrInvalidPlan       = errors.New("entitlement: invalid plan")
	ErrDuplicatePlan     = errors.New("entitlement: duplicate plan")
	ErrPlanNotAssignable = errors.New("entitlement: plan is not available for self-service")
	ErrSamePlan          = errors.New("entitlement: account is already on this plan")
	ErrAlreadySubscribed = errors.New("entitlement: account already has a subscription")
)
