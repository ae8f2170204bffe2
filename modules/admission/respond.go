package admission

import (
	"encoding/json"
	"net/http"

	admit "github.com/huzaifawaqar77/puppeteer-sub000/pkg/admission"
)

// ReasonRateLimited is returned when a caller is throttled before admission runs.
const ReasonRateLimited admit.Reason = "rate_limited"

// StatusFor maps a decision to its HTTP status.
func StatusFor(d admit.Decision) int {
	if d.Allowed {
		return http.StatusOK
	}
	switch d.Reason {
	case admit.ReasonInvalidCredential, admit.ReasonExpiredCredential:
		return http.StatusUnauthorized
	case admit.ReasonUnverifiedAccount, admit.ReasonNoFeature:
		return http.StatusForbidden
	case admit.ReasonNoSubscription, admit.ReasonExpiredSubscription, admit.ReasonPaymentPending:
		return http.StatusPaymentRequired
	case admit.ReasonQuotaExceeded, ReasonRateLimited:
		return http.StatusTooManyRequests
	case admit.ReasonInvalidOperation:
		return http.StatusBadRequest
	default:
		return http.StatusServiceUnavailable
	}
}

func writeDecision(w http.ResponseWriter, d admit.Decision) {
	if d.Reason == admit.ReasonInvalidCredential || d.Reason == admit.ReasonExpiredCredential {
		w.Header().Set("WWW-Authenticate", `Bearer realm="admission"`)
	}
	writeJSON(w, StatusFor(d), d)
}

func denial(reason admit.Reason, message string) admit.Decision {
	if message == "" {
		message = reason.Message()
	}
	return admit.Decision{Reason: reason, Message: message}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
