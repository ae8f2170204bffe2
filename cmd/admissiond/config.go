package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/environment"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/httpserver"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/pg"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/redis"
)

// Counter backends.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config is the service configuration, read from the environment.
type Config struct {
	Env      environment.Environment `env:"APP_ENV" envDefault:"development"`
	Name     string                  `env:"APP_NAME" envDefault:"admissiond"`
	LogLevel string                  `env:"LOG_LEVEL"` // overrides the environment preset

	JWTSecret    string `env:"JWT_SECRET"` // empty disables session tokens
	APIKeyPrefix string `env:"API_KEY_PREFIX" envDefault:"pk_"`

	CounterBackend       string        `env:"COUNTER_BACKEND" envDefault:"postgres"`
	EntitlementCacheTTL  time.Duration `env:"ENTITLEMENT_CACHE_TTL" envDefault:"0"` // 0 reads the store on every request
	EntitlementCacheSize int           `env:"ENTITLEMENT_CACHE_SIZE" envDefault:"10000"`
	PlansFile            string        `env:"PLANS_FILE"`

	AuditBufferSize   int           `env:"AUDIT_BUFFER_SIZE" envDefault:"1000"`
	AuditBatchSize    int           `env:"AUDIT_BATCH_SIZE" envDefault:"100"`
	AuditBatchTimeout time.Duration `env:"AUDIT_BATCH_TIMEOUT" envDefault:"2s"`
	AuditAMQPURL      string        `env:"AUDIT_AMQP_URL"`
	AuditAMQPExchange string        `env:"AUDIT_AMQP_EXCHANGE" envDefault:"operation_logs"`

	RateLimitRPS     float64       `env:"RATE_LIMIT_RPS" envDefault:"10"` // 0 disables throttling
	RateLimitBurst   int           `env:"RATE_LIMIT_BURST" envDefault:"20"`
	RateLimitMaxKeys int           `env:"RATE_LIMIT_MAX_KEYS" envDefault:"10000"`
	RateLimitIdleTTL time.Duration `env:"RATE_LIMIT_IDLE_TTL" envDefault:"10m"`
	TrustProxy       bool          `env:"TRUST_PROXY" envDefault:"false"`

	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"2s"`

	PG    pg.Config
	Redis redis.Config
	HTTP  httpserver.Config
}

var errInvalidSetting = errors.New("invalid setting")

// Validate checks rules env tags cannot express.
func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{errInvalidSetting}, args...)...))
	}

	switch c.CounterBackend {
	case BackendPostgres, BackendRedis:
	default:
		invalid("COUNTER_BACKEND must be %q or %q, got %q", BackendPostgres, BackendRedis, c.CounterBackend)
	}
	if c.APIKeyPrefix == "" {
		invalid("API_KEY_PREFIX cannot be empty")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		invalid("JWT_SECRET must be at least 32 bytes")
	}
	if c.EntitlementCacheTTL < 0 || c.EntitlementCacheSize < 0 {
		invalid("entitlement cache settings cannot be negative")
	}
	if c.AuditBufferSize <= 0 || c.AuditBatchSize <= 0 || c.AuditBatchTimeout <= 0 {
		invalid("AUDIT_* sizes and timeout must be positive")
	}
	if c.RateLimitRPS < 0 {
		invalid("RATE_LIMIT_RPS cannot be negative")
	}
	if c.RateLimitRPS > 0 && (c.RateLimitBurst <= 0 || c.RateLimitMaxKeys <= 0 || c.RateLimitIdleTTL <= 0) {
		invalid("rate limit settings must be positive when RATE_LIMIT_RPS is set")
	}
	if _, err := c.logLevel(); err != nil {
		invalid("LOG_LEVEL: %v", err)
	}
	return errors.Join(errs...)
}
