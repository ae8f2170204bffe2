package admission

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	admit "github.com/huzaifawaqar77/puppeteer-sub000/pkg/admission"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/logger"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
)

type checkRequest struct {
	OperationType string `json:"operationType"`
}

// check admits one operation and charges it when allowed.
func (m *Module) check(w http.ResponseWriter, r *http.Request) {
	var body checkRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, m.opts.MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		writeDecision(w, denial(admit.ReasonInvalidOperation, "malformed request body"))
		return
	}

	raw, kind := CredentialFrom(r)
	writeDecision(w, m.opts.Admitter.Admit(r.Context(), admit.Request{
		Credential:    raw,
		Kind:          kind,
		OperationType: body.OperationType,
	}))
}

// UsageResponse is the body of GET /usage.
type UsageResponse struct {
	AccountID uuid.UUID                          `json:"accountId"`
	Period    string                             `json:"period"`
	Plan      string                             `json:"plan,omitempty"`
	Health    entitlement.Health                 `json:"health"`
	Usage     map[quota.Category]quota.UsageInfo `json:"usage"`
}

// usage reports per-category counts for the caller. It never charges.
func (m *Module) usage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, kind := CredentialFrom(r)
	if kind == "" {
		kind = m.opts.Credentials.KindOf(raw)
	}
	id, err := m.opts.Credentials.Resolve(ctx, raw, kind)
	if err != nil {
		writeDecision(w, denial(admit.ReasonFor(err), ""))
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = m.opts.Ledger.Period()
	}

	ent, err := m.opts.Entitlements.Resolve(ctx, id.AccountID)
	if err != nil {
		m.log.ErrorContext(ctx, "entitlement resolution failed", logger.AccountID(id.AccountID), logger.Error(err))
		writeDecision(w, denial(admit.ReasonUnavailable, ""))
		return
	}

	counts, err := m.opts.Ledger.Usage(ctx, id.AccountID, period)
	if err != nil {
		if errors.Is(err, quota.ErrInvalidPeriod) {
			writeJSON(w, http.StatusBadRequest, denial(admit.ReasonInvalidOperation, "period must be formatted as YYYY-MM"))
			return
		}
		m.log.ErrorContext(ctx, "usage lookup failed", logger.AccountID(id.AccountID), logger.Error(err))
		writeDecision(w, denial(admit.ReasonUnavailable, ""))
		return
	}

	writeJSON(w, http.StatusOK, UsageResponse{
		AccountID: id.AccountID,
		Period:    period,
		Plan:      ent.PlanSlug,
		Health:    ent.Health,
		Usage:     quota.Report(counts, ent.Quotas),
	})
}
