package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/cache"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/logger"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
)

// Entitlement is what an account may currently use.
type Entitlement struct {
	PlanSlug     string                   `json:"plan,omitempty"`
	Quotas       map[quota.Category]int64 `json:"quotas,omitempty"`
	Health       Health                   `json:"health"`
	Subscription *Subscription            `json:"subscription,omitempty"`
}

// Limit returns the limit for c. Categories missing from the table are disabled.
func (e Entitlement) Limit(c quota.Category) int64 {
	if limit, ok := e.Quotas[c]; ok {
		return limit
	}
	return quota.Disabled
}

// snapshot is what the cache holds. Health is derived on every read.
type snapshot struct {
	sub  *Subscription
	plan Plan
}

// Resolver determines the plan and subscription health of accounts.
type Resolver struct {
	subs  SubscriptionStore
	plans PlanSource
	now   func() time.Time
	log   *slog.Logger
	cache *cache.Cache[uuid.UUID, snapshot]
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithCacheTTL caches subscription and plan lookups per account for up to ttl.
// A plan change made by another process may be honored up to ttl later.
// Zero ttl or size keeps the cache disabled.
func WithCacheTTL(ttl time.Duration, size int) ResolverOption {
	return func(r *Resolver) {
		if ttl > 0 && size > 0 {
			r.cache = cache.New[uuid.UUID, snapshot](size, ttl, cache.WithClock(r.clock))
		}
	}
}

// WithClock overrides the time source used for health classification.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if l != nil {
			r.log = l
		}
	}
}

// NewResolver creates a resolver. It panics if subs or plans is nil.
func NewResolver(subs SubscriptionStore, plans PlanSource, opts ...ResolverOption) *Resolver {
	if subs == nil {
		panic("entitlement: subscription store cannot be nil")
	}
	if plans == nil {
		panic("entitlement: plan source cannot be nil")
	}
	r := &Resolver{
		subs:  subs,
		plans: plans,
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With(logger.Component("entitlement"))
	return r
}

func (r *Resolver) clock() time.Time { return r.now() }

// Resolve returns the entitlement of accountID. It never mutates state.
// An account without a subscription resolves to HealthNoEntitlement, not an error.
func (r *Resolver) Resolve(ctx context.Context, accountID uuid.UUID) (Entitlement, error) {
	snap, err := r.load(ctx, accountID)
	if err != nil {
		return Entitlement{}, err
	}

	e := Entitlement{Health: Classify(snap.sub, r.now())}
	if snap.sub != nil {
		sub := *snap.sub
		e.Subscription = &sub
		e.PlanSlug = sub.PlanSlug
		e.Quotas = snap.plan.clone().Quotas
	}
	return e, nil
}

// Invalidate drops any cached entitlement of accountID.
func (r *Resolver) Invalidate(accountID uuid.UUID) {
	if r.cache != nil {
		r.cache.Remove(accountID)
	}
}

func (r *Resolver) load(ctx context.Context, accountID uuid.UUID) (snapshot, error) {
	if r.cache != nil {
		if snap, ok := r.cache.Get(accountID); ok {
			return snap, nil
		}
	}

	var snap snapshot
	sub, err := r.subs.CurrentSubscription(ctx, accountID)
	switch {
	case errors.Is(err, ErrNotFound):
	case err != nil:
		return snapshot{}, errors.Join(ErrStoreUnavailable, err)
	default:
		plan, err := r.plans.GetPlan(ctx, sub.PlanSlug)
		if err != nil {
			// A subscription pointing at an unknown plan cannot be metered.
			r.log.ErrorContext(ctx, "subscription references unknown plan",
				logger.AccountID(accountID),
				logger.Plan(sub.PlanSlug),
				logger.Error(err),
			)
			return snapshot{}, errors.Join(ErrStoreUnavailable, err)
		}
		snap = snapshot{sub: &sub, plan: plan}
	}

	if r.cache != nil {
		r.cache.Put(accountID, snap)
	}
	return snap, nil
}
