package admission

import (
	"context"
	"io"
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	admit "github.com/huzaifawaqar77/puppeteer-sub000/pkg/admission"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/audit"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/requestid"
)

type decisionKey struct{}

// DecisionFromContext returns the admission decision of a protected request.
func DecisionFromContext(ctx context.Context) (admit.Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(admit.Decision)
	return d, ok
}

// Annotation lets a protected handler add details to its operation log.
type Annotation struct {
	mu           sync.Mutex
	inputFiles   int
	errorMessage string
	metadata     map[string]any
}

type annotationKey struct{}

// Annotate returns the annotation of a protected request, or nil outside Protect.
// All methods are safe on a nil Annotation and from concurrent goroutines.
// Changes made after the handler returns are not recorded.
func Annotate(ctx context.Context) *Annotation {
	a, _ := ctx.Value(annotationKey{}).(*Annotation)
	return a
}

func (a *Annotation) SetInputFiles(n int) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.inputFiles = n
}

// Fail records why the operation failed. It does not change the response.
func (a *Annotation) Fail(msg string) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.errorMessage = msg
}

func (a *Annotation) Set(key string, value any) {
	if a == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.metadata[key] = value
}

// Protect admits every request for op before calling next. Denied requests
// receive the decision as JSON. Admitted requests run next and produce one
// operation log once it returns. The charge stands whatever next does.
func (m *Module) Protect(op quota.OperationType) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			raw, kind := CredentialFrom(r)
			d := m.opts.Admitter.Admit(r.Context(), admit.Request{Credential: raw, Kind: kind, OperationType: string(op)})
			if !d.Allowed {
				writeDecision(w, d)
				return
			}

			ann := &Annotation{metadata: make(map[string]any)}
			ctx := context.WithValue(r.Context(), decisionKey{}, d)
			ctx = context.WithValue(ctx, annotationKey{}, ann)

			body := &countingBody{ReadCloser: r.Body}
			r.Body = body
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(ctx))

			m.record(ctx, r, d, ann, ww, body.n, time.Since(start))
		})
	}
}

func (m *Module) record(ctx context.Context, r *http.Request, d admit.Decision, ann *Annotation, ww middleware.WrapResponseWriter, read int64, took time.Duration) {
	if m.opts.Recorder == nil || d.Identity == nil {
		return
	}

	status := ww.Status()
	if status == 0 {
		status = http.StatusOK
	}

	ann.mu.Lock()
	entry := audit.OperationLog{
		AccountID:        d.Identity.AccountID,
		CredentialID:     d.Identity.CredentialID,
		OperationType:    d.Operation,
		Status:           audit.StatusSuccess,
		InputFiles:       ann.inputFiles,
		InputSize:        max(r.ContentLength, read),
		OutputSize:       int64(ww.BytesWritten()),
		ProcessingTimeMs: took.Milliseconds(),
		ErrorMessage:     ann.errorMessage,
		Metadata:         maps.Clone(ann.metadata),
	}
	ann.mu.Unlock()

	if status >= http.StatusBadRequest {
		entry.Status = audit.StatusFailed
		if entry.ErrorMessage == "" {
			entry.ErrorMessage = http.StatusText(status)
		}
	}
	entry.Metadata["statusCode"] = status
	entry.Metadata["plan"] = d.Plan
	entry.Metadata["category"] = string(d.Category)
	if id := requestid.FromContext(ctx); id != "" {
		entry.Metadata["requestId"] = id
	}
	if ip := m.opts.ClientIP.FromRequest(r); ip != "" {
		entry.Metadata["clientIp"] = ip
	}

	m.opts.Recorder.Record(context.WithoutCancel(ctx), entry)
}

type countingBody struct {
	io.ReadCloser
	n int64
}

func (b *countingBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	b.n += int64(n)
	return n, err
}
