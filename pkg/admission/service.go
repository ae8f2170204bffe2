package admission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/logger"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
)

// CredentialResolver verifies raw credentials.
type CredentialResolver interface {
	Resolve(ctx context.Context, raw string, kind credential.Kind) (credential.Identity, error)
	KindOf(raw string) credential.Kind
}

// EntitlementResolver returns the current plan and subscription health.
type EntitlementResolver interface {
	Resolve(ctx context.Context, accountID uuid.UUID) (entitlement.Entitlement, error)
}

// Ledger charges usage atomically.
type Ledger interface {
	Charge(ctx context.Context, accountID uuid.UUID, op quota.OperationType, limit int64) (quota.Decision, error)
}

// Request asks whether a credential may perform an operation.
type Request struct {
	Credential    string          `json:"-"`
	Kind          credential.Kind `json:"kind,omitempty"`
	OperationType string          `json:"operationType"`
}

// Service runs the admission pipeline: credential, entitlement, quota.
type Service struct {
	credentials  CredentialResolver
	entitlements EntitlementResolver
	ledger       Ledger
	plans        entitlement.PlanSource
	log          *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithPlanSource enables upgrade options on denials.
func WithPlanSource(src entitlement.PlanSource) ServiceOption {
	return func(s *Service) {
		s.plans = src
	}
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// NewService creates an admission service. It panics if any resolver is nil.
func NewService(creds CredentialResolver, ents EntitlementResolver, ledger Ledger, opts ...ServiceOption) *Service {
	if creds == nil {
		panic("admission: credential resolver cannot be nil")
	}
	if ents == nil {
		panic("admission: entitlement resolver cannot be nil")
	}
	if ledger == nil {
		panic("admission: ledger cannot be nil")
	}
	s := &Service{
		credentials:  creds,
		entitlements: ents,
		ledger:       ledger,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("admission"))
	return s
}

// Admit decides req and, when allowed, charges one use.
// Every failure, including infrastructure errors, yields a denial.
func (s *Service) Admit(ctx context.Context, req Request) Decision {
	op, err := quota.ParseOperationType(req.OperationType)
	if err != nil {
		return deny(ReasonInvalidOperation)
	}

	kind := req.Kind
	if kind == "" {
		kind = s.credentials.KindOf(req.Credential)
	}
	id, err := s.credentials.Resolve(ctx, req.Credential, kind)
	if err != nil {
		reason := ReasonFor(err)
		if reason == ReasonUnavailable {
			s.log.ErrorContext(ctx, "credential resolution failed",
				logger.Operation(op),
				logger.Error(err),
			)
		}
		d := deny(reason)
		d.Operation = op
		return d
	}

	return s.AdmitIdentity(ctx, id, op)
}

// AdmitIdentity is Admit for callers that already resolved the credential.
func (s *Service) AdmitIdentity(ctx context.Context, id credential.Identity, op quota.OperationType) Decision {
	cat, err := quota.CategoryOf(op)
	if err != nil {
		return deny(ReasonInvalidOperation)
	}

	base := Decision{Identity: &id, Operation: op, Category: cat}
	log := s.log.With(logger.AccountID(id.AccountID), logger.Operation(op))

	ent, err := s.entitlements.Resolve(ctx, id.AccountID)
	if err != nil {
		log.ErrorContext(ctx, "entitlement resolution failed", logger.Error(err))
		return base.with(ReasonUnavailable)
	}
	base.Plan = ent.PlanSlug

	limit := ent.Limit(cat)
	base.Limit = limit
	if reason := Gate(ent.Health, limit); reason != ReasonAllow {
		d := base.with(reason)
		if reason == ReasonNoFeature {
			d.Message = fmt.Sprintf("%s is not included in the %s plan", cat, ent.PlanSlug)
		}
		if reason.Offers() {
			d.UpgradeOptions = s.upgradeOptions(ctx, ent.PlanSlug, cat, 0)
		}
		log.InfoContext(ctx, "admission denied", logger.Reason(reason), logger.Plan(ent.PlanSlug))
		return d
	}

	qd, err := s.ledger.Charge(ctx, id.AccountID, op, limit)
	if err != nil {
		log.ErrorContext(ctx, "quota charge failed", logger.Category(cat), logger.Error(err))
		return base.with(ReasonUnavailable)
	}

	reason := Evaluate(qd)
	d := base.with(reason)
	d.Allowed = reason == ReasonAllow
	d.Used = qd.Used
	d.Limit = qd.Limit
	if !d.Allowed {
		d.Message = fmt.Sprintf("monthly %s limit of %d reached", cat, qd.Limit)
		d.UpgradeOptions = s.upgradeOptions(ctx, ent.PlanSlug, cat, qd.Used)
		log.InfoContext(ctx, "admission denied",
			logger.Reason(reason),
			logger.Plan(ent.PlanSlug),
			logger.Count(qd.Used),
		)
	}
	return d
}

func (d Decision) with(r Reason) Decision {
	d.Reason = r
	d.Message = r.Message()
	return d
}

func (s *Service) upgradeOptions(ctx context.Context, current string, cat quota.Category, used int64) []string {
	if s.plans == nil {
		return nil
	}
	plans, err := s.plans.PublicPlans(ctx)
	if err != nil {
		s.log.WarnContext(ctx, "failed to list plans for upgrade options", logger.Error(err))
		return nil
	}
	return UpgradeOptions(plans, current, cat, used)
}
