package ratelimiter

import (
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/cache"
)

// Config defines a per-key token bucket.
type Config struct {
	RPS     float64       // sustained requests per second per key
	Burst   int           // bucket capacity
	MaxKeys int           // buckets kept in memory; least recently used are dropped
	IdleTTL time.Duration // a bucket untouched this long is dropped
}

func (c Config) validate() error {
	if c.RPS <= 0 || c.Burst <= 0 {
		return fmt.Errorf("%w: rps and burst must be positive", ErrInvalidConfig)
	}
	if c.MaxKeys <= 0 || c.IdleTTL <= 0 {
		return fmt.Errorf("%w: max keys and idle ttl must be positive", ErrInvalidConfig)
	}
	return nil
}

// Result is the outcome of one Allow call.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

// Limiter keeps one x/time/rate bucket per key in a bounded LRU.
// Buckets are process-local.
type Limiter struct {
	cfg     Config
	now     func() time.Time
	mu      sync.Mutex
	buckets *cache.Cache[string, *rate.Limiter]
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New creates a limiter for cfg.
func New(cfg Config, opts ...Option) (*Limiter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	l := &Limiter{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	l.buckets = cache.New[string, *rate.Limiter](cfg.MaxKeys, cfg.IdleTTL, cache.WithClock(l.now))
	return l, nil
}

// Allow takes one token from the bucket of key.
func (l *Limiter) Allow(key string) Result {
	now := l.now()

	l.mu.Lock()
	b, ok := l.buckets.Get(key)
	if !ok {
		b = rate.NewLimiter(rate.Limit(l.cfg.RPS), l.cfg.Burst)
	}
	l.buckets.Put(key, b)
	l.mu.Unlock()

	res := Result{Limit: l.cfg.Burst}
	if b.AllowN(now, 1) {
		res.Allowed = true
		res.Remaining = max(0, int(math.Floor(b.TokensAt(now))))
		return res
	}

	missing := 1 - b.TokensAt(now)
	res.RetryAfter = time.Duration(math.Ceil(missing / l.cfg.RPS * float64(time.Second)))
	return res
}
