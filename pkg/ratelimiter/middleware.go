package ratelimiter

import (
	"math"
	"net/http"
	"strconv"
)

// KeyFunc extracts the throttling key from a request. An empty key skips throttling.
type KeyFunc func(r *http.Request) string

// Middleware throttles requests per key and sets X-RateLimit-* headers.
// Denied requests get Retry-After and are passed to denied, or answered with a
// plain 429 when denied is nil.
func Middleware(l *Limiter, keyFunc KeyFunc, denied http.Handler) func(http.Handler) http.Handler {
	if denied == nil {
		denied = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		})
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := keyFunc(r)
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			res := l.Allow(key)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(res.RetryAfter.Seconds()))))
				denied.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
