// Package clientip determines the network address of the caller. It keys
// throttling for requests that carry no credential and is attached to
// operation logs.
package clientip

import (
	"context"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// Resolver extracts client addresses. Forwarding headers are only honoured
// when TrustProxy is set, since any client can forge them.
type Resolver struct {
	TrustProxy bool
}

// FromRequest returns the normalized client IP, or "" when none is valid.
// With TrustProxy it prefers the first valid X-Forwarded-For entry, then
// X-Real-IP, then RemoteAddr.
func (res Resolver) FromRequest(r *http.Request) string {
	if res.TrustProxy {
		for part := range strings.SplitSeq(r.Header.Get("X-Forwarded-For"), ",") {
			if ip := normalize(part); ip != "" {
				return ip
			}
		}
		if ip := normalize(r.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return normalize(host)
}

func normalize(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}
	return addr.Unmap().WithZone("").String()
}

type contextKey struct{}

func WithContext(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, contextKey{}, ip)
}

func FromContext(ctx context.Context) string {
	ip, _ := ctx.Value(contextKey{}).(string)
	return ip
}

// Middleware stores the client IP in the request context.
func (res Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithContext(r.Context(), res.FromRequest(r))))
	})
}
