package admission

import (
	"net/http"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/clientip"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/ratelimiter"
)

var throttled = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	writeDecision(w, denial(ReasonRateLimited, "too many requests, slow down"))
})

func ratelimiterMiddleware(l *ratelimiter.Limiter, key ratelimiter.KeyFunc, next http.Handler) http.Handler {
	return ratelimiter.Middleware(l, key, throttled)(next)
}

// credentialHash keys throttling buckets without keeping raw credentials in memory.
func credentialHash(raw string) string {
	return credential.HashAPIKey(raw)[:32]
}

// Throttle limits request rate per credential, or per client IP for requests
// without one. It is a no-op without a limiter.
func (m *Module) Throttle(next http.Handler) http.Handler {
	if m.opts.Limiter == nil {
		return next
	}
	return ratelimiterMiddleware(m.opts.Limiter, m.throttleKey, next)
}

func (m *Module) throttleKey(r *http.Request) string {
	if raw, _ := CredentialFrom(r); raw != "" {
		return "cred:" + credentialHash(raw)
	}
	if ip := clientip.FromContext(r.Context()); ip != "" {
		return "ip:" + ip
	}
	if ip := m.opts.ClientIP.FromRequest(r); ip != "" {
		return "ip:" + ip
	}
	return ""
}
