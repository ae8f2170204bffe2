package admission

import (
	"encoding/json"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
)

// Reason is a stable machine-readable admission outcome.
type Reason string

const (
	ReasonAllow               Reason = "allow"
	ReasonInvalidCredential   Reason = "invalid_credential"
	ReasonExpiredCredential   Reason = "expired_credential"
	ReasonUnverifiedAccount   Reason = "unverified_account"
	ReasonNoSubscription      Reason = "no_subscription"
	ReasonExpiredSubscription Reason = "expired_subscription"
	ReasonPaymentPending      Reason = "payment_pending"
	ReasonNoFeature           Reason = "no_feature"
	ReasonQuotaExceeded       Reason = "quota_exceeded"
	ReasonUnavailable         Reason = "unavailable"
	ReasonInvalidOperation    Reason = "invalid_operation"
)

var messages = map[Reason]string{
	ReasonAllow:               "allowed",
	ReasonInvalidCredential:   "invalid or revoked credential",
	ReasonExpiredCredential:   "credential has expired",
	ReasonUnverifiedAccount:   "account email is not verified",
	ReasonNoSubscription:      "no active subscription",
	ReasonExpiredSubscription: "subscription has expired",
	ReasonPaymentPending:      "payment for the current period is pending",
	ReasonNoFeature:           "feature is not included in the current plan",
	ReasonQuotaExceeded:       "monthly limit reached",
	ReasonUnavailable:         "service temporarily unavailable",
	ReasonInvalidOperation:    "unknown operation type",
}

// Message returns the default human-readable text for r.
func (r Reason) Message() string {
	if m, ok := messages[r]; ok {
		return m
	}
	return string(r)
}

// Offers reports whether denials with r carry upgrade options.
func (r Reason) Offers() bool {
	switch r {
	case ReasonNoFeature, ReasonQuotaExceeded, ReasonNoSubscription, ReasonExpiredSubscription:
		return true
	default:
		return false
	}
}

// Decision is the outcome of an admission request.
// When Allowed is true the usage has already been charged.
type Decision struct {
	Allowed        bool     `json:"allowed"`
	Reason         Reason   `json:"reasonCode"`
	Message        string   `json:"message"`
	Used           int64    `json:"used"`
	Limit          int64    `json:"limit"`
	UpgradeOptions []string `json:"upgradeOptions"`

	Identity  *credential.Identity `json:"-"`
	Operation quota.OperationType  `json:"-"`
	Category  quota.Category       `json:"-"`
	Plan      string               `json:"-"`
}

// MarshalJSON always renders upgradeOptions on a denial, as an empty array
// when no plan would help. Allowed decisions omit the field.
func (d Decision) MarshalJSON() ([]byte, error) {
	type wire Decision
	if d.Allowed {
		return json.Marshal(struct {
			wire
			UpgradeOptions []string `json:"upgradeOptions,omitempty"`
		}{wire: wire(d)})
	}
	if d.UpgradeOptions == nil {
		d.UpgradeOptions = []string{}
	}
	return json.Marshal(wire(d))
}

// Err returns the sentinel error matching a denial, or nil when allowed.
func (d Decision) Err() error {
	switch d.Reason {
	case ReasonAllow:
		return nil
	case ReasonInvalidCredential:
		return credential.ErrInvalidCredential
	case ReasonExpiredCredential:
		return credential.ErrExpiredCredential
	case ReasonUnverifiedAccount:
		return credential.ErrUnverifiedAccount
	case ReasonNoSubscription:
		return ErrNoSubscription
	case ReasonExpiredSubscription:
		return ErrSubscriptionExpired
	case ReasonPaymentPending:
		return ErrPaymentPending
	case ReasonNoFeature:
		return ErrFeatureUnavailable
	case ReasonQuotaExceeded:
		return ErrQuotaExceeded
	case ReasonInvalidOperation:
		return quota.ErrUnknownOperationType
	default:
		return ErrUnavailable
	}
}

func deny(r Reason) Decision {
	return Decision{Reason: r, Message: r.Message()}
}
