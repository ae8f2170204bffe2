package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Lifecycle starts and changes subscriptions.
type Lifecycle struct {
	subs     SubscriptionStore
	writer   SubscriptionWriter
	plans    PlanSource
	now      func() time.Time
	onChange []func(accountID uuid.UUID)
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithLifecycleClock overrides the time source for new subscription periods.
func WithLifecycleClock(now func() time.Time) LifecycleOption {
	return func(l *Lifecycle) {
		if now != nil {
			l.now = now
		}
	}
}

// WithOnChange registers a callback invoked after a subscription is replaced,
// typically Resolver.Invalidate.
func WithOnChange(fn func(accountID uuid.UUID)) LifecycleOption {
	return func(l *Lifecycle) {
		if fn != nil {
			l.onChange = append(l.onChange, fn)
		}
	}
}

// NewLifecycle creates a Lifecycle. It panics if any dependency is nil.
func NewLifecycle(subs SubscriptionStore, writer SubscriptionWriter, plans PlanSource, opts ...LifecycleOption) *Lifecycle {
	if subs == nil || writer == nil || plans == nil {
		panic("entitlement: lifecycle dependencies cannot be nil")
	}
	l := &Lifecycle{
		subs:   subs,
		writer: writer,
		plans:  plans,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// StartTrial subscribes accountID to a trial of planSlug for days days.
// Zero days uses the plan's trial length. Trials are only granted to accounts
// that never had a subscription; others get ErrAlreadySubscribed.
func (l *Lifecycle) StartTrial(ctx context.Context, accountID uuid.UUID, planSlug string, days int) (Subscription, error) {
	plan, err := l.plans.GetPlan(ctx, planSlug)
	if err != nil {
		return Subscription{}, err
	}

	switch _, err := l.subs.CurrentSubscription(ctx, accountID); {
	case err == nil:
		return Subscription{}, ErrAlreadySubscribed
	case !errors.Is(err, ErrNotFound):
		return Subscription{}, errors.Join(ErrStoreUnavailable, err)
	}
	if days <= 0 {
		days = plan.TrialDays
	}
	if days <= 0 {
		return Subscription{}, fmt.Errorf("%w: %s has no trial", ErrInvalidPlan, planSlug)
	}

	now := l.now().UTC()
	trialEnds := now.AddDate(0, 0, days)
	next := Subscription{
		ID:            uuid.New(),
		AccountID:     accountID,
		PlanSlug:      plan.Slug,
		Status:        StatusTrial,
		PaymentStatus: PaymentPaid,
		TrialEndsAt:   &trialEnds,
		PeriodStart:   now,
		PeriodEnd:     trialEnds,
		CreatedAt:     now,
	}
	return next, l.replace(ctx, next, now)
}

// ChangePlan moves accountID to the public plan planSlug.
func (l *Lifecycle) ChangePlan(ctx context.Context, accountID uuid.UUID, planSlug string) (Subscription, error) {
	return l.change(ctx, accountID, planSlug, false)
}

// Assign moves accountID to planSlug even if the plan is not public.
// Only elevated operators may call it.
func (l *Lifecycle) Assign(ctx context.Context, accountID uuid.UUID, planSlug string) (Subscription, error) {
	return l.change(ctx, accountID, planSlug, true)
}

func (l *Lifecycle) change(ctx context.Context, accountID uuid.UUID, planSlug string, allowPrivate bool) (Subscription, error) {
	plan, err := l.plans.GetPlan(ctx, planSlug)
	if err != nil {
		return Subscription{}, err
	}
	if !plan.Public && !allowPrivate {
		return Subscription{}, fmt.Errorf("%w: %s", ErrPlanNotAssignable, planSlug)
	}

	current, err := l.subs.CurrentSubscription(ctx, accountID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return Subscription{}, errors.Join(ErrStoreUnavailable, err)
	case current.PlanSlug == plan.Slug && current.Status != StatusCancelled && current.Status != StatusExpired:
		return Subscription{}, fmt.Errorf("%w: %s", ErrSamePlan, planSlug)
	}

	now := l.now().UTC()
	next := Subscription{
		ID:          uuid.New(),
		AccountID:   accountID,
		PlanSlug:    plan.Slug,
		PeriodStart: now,
		PeriodEnd:   now.AddDate(0, 1, 0),
		CreatedAt:   now,
	}
	switch {
	case plan.Free() && plan.TrialDays > 0:
		trialEnds := now.AddDate(0, 0, plan.TrialDays)
		next.Status = StatusTrial
		next.PaymentStatus = PaymentPaid
		next.TrialEndsAt = &trialEnds
		next.PeriodEnd = trialEnds
	case plan.Free():
		next.Status = StatusActive
		next.PaymentStatus = PaymentPaid
	default:
		next.Status = StatusActive
		next.PaymentStatus = PaymentPending
	}
	return next, l.replace(ctx, next, now)
}

func (l *Lifecycle) replace(ctx context.Context, next Subscription, now time.Time) error {
	if err := l.writer.ReplaceSubscription(ctx, next, now); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	for _, fn := range l.onChange {
		fn(next.AccountID)
	}
	return nil
}
