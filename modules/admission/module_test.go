package admission_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	module "github.com/huzaifawaqar77/puppeteer-sub000/modules/admission"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/admission"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/audit"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/credential"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/entitlement"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/quota"
	"github.com/huzaifawaqar77/puppeteer-sub000/pkg/ratelimiter"
)

var now = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

func clock() time.Time { return now }

type recorder struct {
	mu   sync.Mutex
	logs []audit.OperationLog
}

func (r *recorder) Record(_ context.Context, l audit.OperationLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, l)
}

func (r *recorder) Logs() []audit.OperationLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.OperationLog(nil), r.logs...)
}

type fixture struct {
	creds    *credential.MemoryStore
	subs     *entitlement.MemoryStore
	counter  *quota.MemoryCounter
	recorder *recorder
	module   *module.Module
}

func newFixture(t *testing.T, limiter *ratelimiter.Limiter) *fixture {
	t.Helper()
	catalog, err := entitlement.DefaultCatalog()
	require.NoError(t, err)

	f := &fixture{
		creds:    credential.NewMemoryStore(),
		subs:     entitlement.NewMemoryStore(),
		counter:  quota.NewMemoryCounter(),
		recorder: &recorder{},
	}
	creds := credential.NewResolver(f.creds, credential.WithClock(clock))
	t.Cleanup(func() { _ = creds.Close(context.Background()) })
	ents := entitlement.NewResolver(f.subs, catalog, entitlement.WithClock(clock))
	ledger := quota.NewLedger(f.counter, quota.WithClock(clock))

	f.module = module.New(module.Options{
		Admitter:     admission.NewService(creds, ents, ledger, admission.WithPlanSource(catalog)),
		Credentials:  creds,
		Entitlements: ents,
		Ledger:       ledger,
		Recorder:     f.recorder,
		Limiter:      limiter,
	})
	return f
}

func (f *fixture) account(t *testing.T, plan string, verified bool) (uuid.UUID, string) {
	t.Helper()
	acct := credential.Account{ID: uuid.New(), Email: "u@example.com", Role: credential.RoleUser, Verified: verified}
	f.creds.PutAccount(acct)
	raw, _, err := credential.IssueAPIKey(context.Background(), f.creds, acct.ID, "test", credential.DefaultKeyPrefix, nil)
	require.NoError(t, err)
	if plan != "" {
		f.subs.Put(entitlement.Subscription{
			ID:            uuid.New(),
			AccountID:     acct.ID,
			PlanSlug:      plan,
			Status:        entitlement.StatusActive,
			PaymentStatus: entitlement.PaymentPaid,
			PeriodStart:   now.AddDate(0, 0, -3),
			PeriodEnd:     now.AddDate(0, 1, 0),
			CreatedAt:     now.AddDate(0, 0, -3),
		})
	}
	return acct.ID, raw
}

func check(t *testing.T, h http.Handler, key, op string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(`{"operationType":"`+op+`"}`))
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestCheck_StatusMapping(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	h := f.module.Router()

	_, starter := f.account(t, "starter", true)
	_, unverified := f.account(t, "starter", false)
	_, unsubscribed := f.account(t, "", true)

	tests := []struct {
		name   string
		key    string
		op     string
		status int
		reason string
	}{
		{"allowed", starter, "html_to_pdf", http.StatusOK, "allow"},
		{"missing credential", "", "html_to_pdf", http.StatusUnauthorized, "invalid_credential"},
		{"unknown key", credential.DefaultKeyPrefix + strings.Repeat("A", 48), "html_to_pdf", http.StatusUnauthorized, "invalid_credential"},
		{"unverified", unverified, "html_to_pdf", http.StatusForbidden, "unverified_account"},
		{"no subscription", unsubscribed, "html_to_pdf", http.StatusPaymentRequired, "no_subscription"},
		{"feature not in plan", starter, "ai_template", http.StatusForbidden, "no_feature"},
		{"unknown operation", starter, "teleport", http.StatusBadRequest, "invalid_operation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := check(t, h, tt.key, tt.op)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.reason, body["reasonCode"])
			assert.Equal(t, tt.status == http.StatusOK, body["allowed"])
			opts, ok := body["upgradeOptions"]
			if tt.status == http.StatusOK {
				assert.False(t, ok, "allowed body carries upgradeOptions")
				return
			}
			require.True(t, ok, "denial body lacks upgradeOptions")
			assert.IsType(t, []any{}, opts)
		})
	}
}

func TestCheck_DenialWithoutOptionsRendersEmptyArray(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	rec := httptest.NewRecorder()
	f.module.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(`{"operationType":"html_to_pdf"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"upgradeOptions":[]`)
}

func TestCheck_QuotaExceeded(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	h := f.module.Router()
	_, key := f.account(t, "starter", true)

	for i := range 10 {
		rec, body := check(t, h, key, "merge")
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
		assert.EqualValues(t, i+1, body["used"])
	}

	rec, body := check(t, h, key, "split")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "quota_exceeded", body["reasonCode"])
	assert.EqualValues(t, 10, body["used"])
	assert.EqualValues(t, 10, body["limit"])
	assert.Equal(t, []any{"professional", "business"}, body["upgradeOptions"])
}

func TestCheck_MalformedBody(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(`{"operation":`))
	rec := httptest.NewRecorder()
	f.module.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, f.counter.Len())
}

func TestCheck_CredentialSources(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	h := f.module.Router()
	_, key := f.account(t, "starter", true)

	header := httptest.NewRequest(http.MethodPost, "/check", strings.NewReader(`{"operationType":"compress"}`))
	header.Header.Set(module.HeaderAPIKey, key)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, header)
	assert.Equal(t, http.StatusOK, rec.Code)

	query := httptest.NewRequest(http.MethodPost, "/check?api_key="+key, strings.NewReader(`{"operationType":"compress"}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, query)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUsage(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	h := f.module.Router()
	acct, key := f.account(t, "professional", true)

	for range 3 {
		rec, _ := check(t, h, key, "watermark")
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/usage", nil)
	req.Header.Set("Authorization", "Bearer "+key)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp module.UsageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, acct, resp.AccountID)
	assert.Equal(t, "2026-10", resp.Period)
	assert.Equal(t, "professional", resp.Plan)
	assert.Equal(t, entitlement.HealthHealthy, resp.Health)
	assert.Equal(t, quota.UsageInfo{Used: 3, Limit: 20}, resp.Usage[quota.CategoryWatermark])
	assert.Equal(t, quota.UsageInfo{Used: 0, Limit: 1000}, resp.Usage[quota.CategoryConversion])
	assert.Len(t, resp.Usage, len(quota.Categories()))

	bad := httptest.NewRequest(http.MethodGet, "/usage?period=October", nil)
	bad.Header.Set("Authorization", "Bearer "+key)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	anon := httptest.NewRequest(http.MethodGet, "/usage", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, anon)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
}

func TestProtect(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	acct, key := f.account(t, "starter", true)

	var seen admission.Decision
	h := f.module.Protect(quota.OpCompress)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = module.DecisionFromContext(r.Context())
		body, _ := io.ReadAll(r.Body)
		module.Annotate(r.Context()).SetInputFiles(1)
		module.Annotate(r.Context()).Set("pages", 4)
		if string(body) == "broken" {
			module.Annotate(r.Context()).Fail("corrupt pdf")
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		_, _ = w.Write([]byte("compressed!"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/compress", strings.NewReader("%PDF-1.7 data"))
	req.Header.Set("Authorization", "Bearer "+key)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, seen.Allowed)
	assert.Equal(t, quota.CategoryCompress, seen.Category)

	req = httptest.NewRequest(http.MethodPost, "/compress", strings.NewReader("broken"))
	req.Header.Set("Authorization", "Bearer "+key)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	logs := f.recorder.Logs()
	require.Len(t, logs, 2)

	ok := logs[0]
	assert.Equal(t, acct, ok.AccountID)
	assert.Equal(t, quota.OpCompress, ok.OperationType)
	assert.Equal(t, audit.StatusSuccess, ok.Status)
	assert.Equal(t, int64(len("%PDF-1.7 data")), ok.InputSize)
	assert.Equal(t, int64(len("compressed!")), ok.OutputSize)
	assert.Equal(t, 1, ok.InputFiles)
	assert.Equal(t, 4, ok.Metadata["pages"])
	assert.Equal(t, "starter", ok.Metadata["plan"])

	failed := logs[1]
	assert.Equal(t, audit.StatusFailed, failed.Status)
	assert.Equal(t, "corrupt pdf", failed.ErrorMessage)
	assert.Equal(t, http.StatusUnprocessableEntity, failed.Metadata["statusCode"])

	used, _ := f.counter.Count(quota.Key{AccountID: acct, Period: "2026-10", Category: quota.CategoryCompress})
	assert.Equal(t, int64(2), used, "failed operations keep their charge")
}

func TestProtect_LateAnnotationsStayOutOfTheLog(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	_, key := f.account(t, "starter", true)

	start, stop, done := make(chan struct{}), make(chan struct{}), make(chan struct{})
	h := f.module.Protect(quota.OpCompress)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ann := module.Annotate(r.Context())
		ann.Set("pages", 2)
		go func() {
			defer close(done)
			<-start
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
					ann.Set("late", i)
				}
			}
		}()
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/compress", strings.NewReader("%PDF"))
	req.Header.Set("Authorization", "Bearer "+key)
	h.ServeHTTP(httptest.NewRecorder(), req)
	close(start)

	logs := f.recorder.Logs()
	require.Len(t, logs, 1)
	for range 200 {
		_, err := json.Marshal(logs[0].Metadata)
		require.NoError(t, err)
	}
	close(stop)
	<-done

	assert.Equal(t, 2, logs[0].Metadata["pages"])
	assert.Equal(t, http.StatusOK, logs[0].Metadata["statusCode"])
	assert.NotContains(t, logs[0].Metadata, "late")
}

func TestProtect_DeniedSkipsHandler(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	_, key := f.account(t, "trial", true)

	called := false
	h := f.module.Protect(quota.OpMerge)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true }))

	req := httptest.NewRequest(http.MethodPost, "/merge", nil)
	req.Header.Set("Authorization", "Bearer "+key)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, f.recorder.Logs())
}

func TestThrottle(t *testing.T) {
	t.Parallel()
	limiter, err := ratelimiter.New(ratelimiter.Config{RPS: 0.001, Burst: 2, MaxKeys: 100, IdleTTL: time.Hour})
	require.NoError(t, err)
	f := newFixture(t, limiter)
	h := f.module.Router()
	acct, a := f.account(t, "business", true)
	_, b := f.account(t, "business", true)

	for range 2 {
		rec, _ := check(t, h, a, "merge")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, body := check(t, h, a, "merge")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", body["reasonCode"])
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec, _ = check(t, h, b, "merge")
	assert.Equal(t, http.StatusOK, rec.Code, "buckets are per credential")

	used, _ := f.counter.Count(quota.Key{AccountID: acct, Period: "2026-10", Category: quota.CategoryMerge})
	assert.Equal(t, int64(2), used, "throttled requests are never charged")
}

func TestNew_PanicsOnMissingDependency(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { module.New(module.Options{}) })
}
