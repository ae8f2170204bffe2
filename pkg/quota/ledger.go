package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Ledger charges metered operations against monthly per-category limits.
type Ledger struct {
	counter Counter
	now     func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used to derive the period key.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// NewLedger creates a ledger on top of counter. It panics if counter is nil.
func NewLedger(counter Counter, opts ...Option) *Ledger {
	if counter == nil {
		panic("quota: counter cannot be nil")
	}
	l := &Ledger{
		counter: counter,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Charge attempts to record one use of op for accountID in the current period.
//
// Disabled limits are denied without touching the store. Any store failure is
// returned as ErrStoreUnavailable and the caller must treat it as a denial.
func (l *Ledger) Charge(ctx context.Context, accountID uuid.UUID, op OperationType, limit int64) (Decision, error) {
	cat, err := CategoryOf(op)
	if err != nil {
		return Decision{}, err
	}
	return l.ChargeCategory(ctx, accountID, cat, limit)
}

// ChargeCategory is Charge for callers that already resolved the category.
func (l *Ledger) ChargeCategory(ctx context.Context, accountID uuid.UUID, cat Category, limit int64) (Decision, error) {
	if !cat.Valid() {
		return Decision{}, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	if limit < Unlimited {
		return Decision{}, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}

	key := l.Key(accountID, cat)
	dec := Decision{Limit: limit, Key: key}
	if limit == Disabled {
		return dec, nil
	}

	allowed, count, err := l.counter.TryIncrement(ctx, key, limit)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return dec, err
		}
		return dec, errors.Join(ErrStoreUnavailable, err)
	}
	dec.Allowed = allowed
	dec.Used = count
	return dec, nil
}

// Key returns the counter key for accountID and cat in the current period.
func (l *Ledger) Key(accountID uuid.UUID, cat Category) Key {
	return Key{
		AccountID: accountID,
		Period:    PeriodOf(l.now()),
		Category:  cat,
	}
}

// Period returns the current period key.
func (l *Ledger) Period() string {
	return PeriodOf(l.now())
}

// Usage returns per-category counts for accountID in period. An empty period
// means the current one. Every declared category is present in the result.
// The result is for reporting only and must never feed an admission decision.
func (l *Ledger) Usage(ctx context.Context, accountID uuid.UUID, period string) (map[Category]int64, error) {
	if period == "" {
		period = l.Period()
	} else if _, _, err := PeriodBounds(period); err != nil {
		return nil, err
	}

	reader, ok := l.counter.(UsageReader)
	if !ok {
		return nil, ErrUsageNotSupported
	}
	counts, err := reader.Usage(ctx, accountID, period)
	if err != nil {
		if errors.Is(err, ErrStoreUnavailable) {
			return nil, err
		}
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	out := make(map[Category]int64, len(categories))
	for _, c := range categories {
		out[c] = counts[c]
	}
	return out, nil
}

// Report combines counts with the limits of a plan's quota table.
// Categories absent from limits are reported as Disabled.
func Report(counts map[Category]int64, limits map[Category]int64) map[Category]UsageInfo {
	out := make(map[Category]UsageInfo, len(categories))
	for _, c := range categories {
		limit, ok := limits[c]
		if !ok {
			limit = Disabled
		}
		out[c] = UsageInfo{Used: counts[c], Limit: limit}
	}
	return out
}
