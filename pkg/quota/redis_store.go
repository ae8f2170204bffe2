package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// tryIncrementScript checks and increments in one server-side step.
// KEYS[1] counter key; ARGV[1] limit (-1 unlimited); ARGV[2] ttl seconds (0 none).
var tryIncrementScript = redis.NewScript(`
local cur = tonumber(redis.call('GET', KEYS[1]) or '0')
local limit = tonumber(ARGV[1])
if limit >= 0 and cur >= limit then
	return {0, cur}
end
local n = redis.call('INCR', KEYS[1])
local ttl = tonumber(ARGV[2])
if n == 1 and ttl > 0 then
	redis.call('EXPIRE', KEYS[1], ttl)
end
return {1, n}
`)

// RedisCounter stores counters in Redis and increments them with a Lua script
// executed via EVALSHA, so concurrent callers across processes never overshoot.
type RedisCounter struct {
	client    redis.UniversalClient
	keyPrefix string
	retention time.Duration
}

// RedisOption configures a RedisCounter.
type RedisOption func(*RedisCounter)

// WithKeyPrefix prepends prefix to every counter key.
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *RedisCounter) {
		r.keyPrefix = prefix
	}
}

// WithRetention sets how long a counter outlives the end of its period.
// Zero keeps counters forever.
func WithRetention(d time.Duration) RedisOption {
	return func(r *RedisCounter) {
		if d >= 0 {
			r.retention = d
		}
	}
}

// NewRedisCounter creates a counter on top of client. It panics if client is nil.
func NewRedisCounter(client redis.UniversalClient, opts ...RedisOption) *RedisCounter {
	if client == nil {
		panic("quota: redis client cannot be nil")
	}
	r := &RedisCounter{client: client}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// key wraps the account id in a hash tag so all counters of one account share a
// cluster slot and Usage can read them with one MGET.
func (r *RedisCounter) key(k Key) string {
	return r.keyPrefix + "quota:{" + k.AccountID.String() + "}:" + k.Period + ":" + string(k.Category)
}

// ttlSeconds returns the expiry applied when a counter is created.
func (r *RedisCounter) ttlSeconds(period string) int64 {
	if r.retention == 0 {
		return 0
	}
	_, end, err := PeriodBounds(period)
	if err != nil {
		return 0
	}
	ttl := time.Until(end.Add(r.retention))
	if ttl < time.Second {
		return 1
	}
	return int64(ttl / time.Second)
}

// TryIncrement implements Counter.
func (r *RedisCounter) TryIncrement(ctx context.Context, key Key, limit int64) (bool, int64, error) {
	res, err := tryIncrementScript.Run(ctx, r.client, []string{r.key(key)}, limit, r.ttlSeconds(key.Period)).Int64Slice()
	if err != nil {
		return false, 0, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("%w: unexpected script reply %v", ErrStoreUnavailable, res)
	}
	return res[0] == 1, res[1], nil
}

// Usage implements UsageReader.
func (r *RedisCounter) Usage(ctx context.Context, accountID uuid.UUID, period string) (map[Category]int64, error) {
	keys := make([]string, len(categories))
	for i, c := range categories {
		keys[i] = r.key(Key{AccountID: accountID, Period: period, Category: c})
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}

	out := make(map[Category]int64)
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		out[categories[i]] = n
	}
	return out, nil
}
