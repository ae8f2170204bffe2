package redis

import "time"

// Config is read from REDIS_* variables. It is only needed when usage counters
// live in Redis.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"` // redis://:password@host:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	KeyPrefix        string        `env:"REDIS_KEY_PREFIX" envDefault:"admission:"`
	CounterRetention time.Duration `env:"REDIS_COUNTER_RETENTION" envDefault:"2160h"` // how long a counter outlives its month; 0 keeps it forever
}
