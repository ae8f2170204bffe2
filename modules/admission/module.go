package admission

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	admit "github.com/huzaifawaqar77/puppeteer-sub000/pkg/admission"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/audit"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/clientip"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/logger"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/ratelimiter"
)

// Admitter decides admission requests. *admission.Service implements it.
type Admitter interface {
	Admit(ctx context.Context, req admit.Request) admit.Decision
}

// UsageLedger reports usage. *quota.Ledger implements it.
type UsageLedger interface {
	Usage(ctx context.Context, accountID uuid.UUID, period string) (map[quota.Category]int64, error)
	Period() string
}

// Recorder accepts operation logs without blocking. *audit.Recorder implements it.
type Recorder interface {
	Record(ctx context.Context, entry audit.OperationLog)
}

// Options wires the module. Admitter, Credentials, Entitlements and Ledger
// are required.
type Options struct {
	Admitter     Admitter
	Credentials  admit.CredentialResolver
	Entitlements admit.EntitlementResolver
	Ledger       UsageLedger
	Recorder     Recorder             // nil disables operation logs
	Limiter      *ratelimiter.Limiter // nil disables throttling
	ClientIP     clientip.Resolver
	Logger       *slog.Logger
	MaxBodyBytes int64 // limit for /check bodies, default 64 KiB
}

// Module exposes admission over HTTP.
type Module struct {
	opts Options
	log  *slog.Logger
}

// New creates the module. It panics if a required dependency is missing.
func New(opts Options) *Module {
	switch {
	case opts.Admitter == nil:
		panic("admission module: admitter cannot be nil")
	case opts.Credentials == nil:
		panic("admission module: credential resolver cannot be nil")
	case opts.Entitlements == nil:
		panic("admission module: entitlement resolver cannot be nil")
	case opts.Ledger == nil:
		panic("admission module: ledger cannot be nil")
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 64 << 10
	}
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	return &Module{opts: opts, log: log.With(logger.Component("admission_http"))}
}

// Handle implements the Mountable shape used by the root router.
func (m *Module) Handle() http.Handler {
	return m.Router()
}

// Router serves POST /check and GET /usage.
func (m *Module) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(m.Throttle)
	r.Post("/check", m.check)
	r.Get("/usage", m.usage)
	return r
}
