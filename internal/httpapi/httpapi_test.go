package httpapi_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/salmon302/DSATrain-sub000/internal/cache"
	"github.com/salmon302/DSATrain-sub000/internal/config"
	"github.com/salmon302/DSATrain-sub000/internal/gateway"
	"github.com/salmon302/DSATrain-sub000/internal/httpapi"
	"github.com/salmon302/DSATrain-sub000/internal/ledger"
	"github.com/salmon302/DSATrain-sub000/internal/problems"
	"github.com/salmon302/DSATrain-sub000/internal/ratelimit"
)

func testConfig() *config.Config {
	return &config.Config{
		AI: config.AIConfig{
			Enabled:  true,
			Provider: "mock",
			RateLimit: config.RateLimitConfig{
				Requests:      100,
				WindowSeconds: 60,
			},
			Budgets:           config.BudgetsConfig{Hint: 10, Review: 5, Elaborate: 5},
			MonthlyCostCapUSD: 10.0,
			Cache:             config.CacheConfig{TTLSeconds: 600},
		},
	}
}

func newTestHandler(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	runtime := config.NewRuntime(cfg)
	lim := ratelimit.NewLocal(ratelimit.Config{
		Requests: cfg.AI.RateLimit.Requests,
		Window:   cfg.AI.RateLimit.Window(),
	})
	led := ledger.NewLocal(ledger.Config{MonthlyCapUSD: cfg.AI.MonthlyCostCapUSD})
	c := cache.New(cache.Config{Enabled: cfg.AI.Cache.Enabled()}, nil)
	store := problems.NewMemory(
		&problems.Problem{ID: "two-sum", Title: "Two Sum", Difficulty: "easy"},
	)
	t.Cleanup(func() {
		_ = lim.Close()
		_ = led.Close()
		_ = c.Close()
		_ = store.Close()
	})

	return httpapi.SetupRoutes(gateway.New(runtime, lim, led, c, store))
}

func doJSON(t *testing.T, handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHintEndpoint(t *testing.T) {
	handler := newTestHandler(t, testConfig())

	rec := doJSON(t, handler, http.MethodPost, "/v1/ai/hint",
		`{"session_id": "s1", "problem_id": "two-sum", "query": "help"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.NotEmpty(t, gjson.Get(body, "hints").Array())
	assert.False(t, gjson.Get(body, "usage.cached").Bool())
	assert.Equal(t, "mock", gjson.Get(body, "usage.provider").String())

	assert.Equal(t, "100", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "99", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestHintUnknownProblemIs404(t *testing.T) {
	handler := newTestHandler(t, testConfig())

	rec := doJSON(t, handler, http.MethodPost, "/v1/ai/hint",
		`{"session_id": "s1", "problem_id": "nope"}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", gjson.Get(rec.Body.String(), "error.kind").String())
}

func TestDisabledIs503(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Enabled = false
	handler := newTestHandler(t, cfg)

	rec := doJSON(t, handler, http.MethodPost, "/v1/ai/hint",
		`{"session_id": "s1", "problem_id": "two-sum"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "disabled", gjson.Get(rec.Body.String(), "error.kind").String())
}

func TestRateLimitedIs429WithRetryAfter(t *testing.T) {
	cfg := testConfig()
	cfg.AI.RateLimit = config.RateLimitConfig{Requests: 1, WindowSeconds: 30}
	handler := newTestHandler(t, cfg)

	first := doJSON(t, handler, http.MethodPost, "/v1/ai/hint",
		`{"session_id": "s1", "problem_id": "two-sum", "query": "a"}`)
	require.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, handler, http.MethodPost, "/v1/ai/hint",
		`{"session_id": "s1", "problem_id": "two-sum", "query": "b"}`)

	require.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "rate_limited", gjson.Get(second.Body.String(), "error.kind").String())

	retryAfter := second.Header().Get("Retry-After")
	require.NotEmpty(t, retryAfter)
	assert.Equal(t, "0", second.Header().Get("X-RateLimit-Remaining"))
}

func TestBudgetExceededIs429(t *testing.T) {
	cfg := testConfig()
	cfg.AI.Budgets.Hint = 1
	cfg.AI.Cache.Disabled = true
	handler := newTestHandler(t, cfg)

	first := doJSON(t, handler, http.MethodPost, "/v1/ai/hint",
		`{"session_id": "s1", "problem_id": "two-sum"}`)
	require.Equal(t, http.StatusOK, first.Code)

	second := doJSON(t, handler, http.MethodPost, "/v1/ai/hint",
		`{"session_id": "s1", "problem_id": "two-sum"}`)

	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "budget_exceeded", gjson.Get(second.Body.String(), "error.kind").String())
	assert.Empty(t, second.Header().Get("Retry-After"), "budget errors carry no retry hint")
}

func TestCostCapIs402(t *testing.T) {
	cfg := testConfig()
	cfg.AI.MonthlyCostCapUSD = 0.0015
	cfg.AI.Cache.Disabled = true
	handler := newTestHandler(t, cfg)

	// Mock commits 0.001 per call; two calls cross the cap.
	for range 2 {
		rec := doJSON(t, handler, http.MethodPost, "/v1/ai/hint",
			`{"session_id": "s1", "problem_id": "two-sum"}`)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := doJSON(t, handler, http.MethodPost, "/v1/ai/hint",
		`{"session_id": "s1", "problem_id": "two-sum"}`)

	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "cost_cap_exceeded", gjson.Get(rec.Body.String(), "error.kind").String())
}

func TestReviewEndpoint(t *testing.T) {
	handler := newTestHandler(t, testConfig())

	rec := doJSON(t, handler, http.MethodPost, "/v1/ai/review",
		`{"session_id": "s1", "code": "func main() {}"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, gjson.Get(rec.Body.String(), "summary").String())
}

func TestReviewRequiresCode(t *testing.T) {
	handler := newTestHandler(t, testConfig())

	rec := doJSON(t, handler, http.MethodPost, "/v1/ai/review", `{"session_id": "s1"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestElaborateEndpointCaches(t *testing.T) {
	handler := newTestHandler(t, testConfig())

	first := doJSON(t, handler, http.MethodPost, "/v1/ai/elaborate",
		`{"session_id": "s1", "problem_id": "two-sum"}`)
	require.Equal(t, http.StatusOK, first.Code)
	assert.False(t, gjson.Get(first.Body.String(), "usage.cached").Bool())

	second := doJSON(t, handler, http.MethodPost, "/v1/ai/elaborate",
		`{"session_id": "s2", "problem_id": "two-sum"}`)
	require.Equal(t, http.StatusOK, second.Code)
	assert.True(t, gjson.Get(second.Body.String(), "usage.cached").Bool())
}

func TestStatusEndpoint(t *testing.T) {
	handler := newTestHandler(t, testConfig())

	rec := doJSON(t, handler, http.MethodPost, "/v1/ai/hint",
		`{"session_id": "s1", "problem_id": "two-sum"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/v1/ai/status?session=s1", nil)
	status := httptest.NewRecorder()
	handler.ServeHTTP(status, req)

	require.Equal(t, http.StatusOK, status.Code)
	body := status.Body.String()
	assert.True(t, gjson.Get(body, "enabled").Bool())
	assert.Equal(t, int64(1), gjson.Get(body, "rate_limit.used").Int())
	assert.Equal(t, int64(1), gjson.Get(body, "session_usage.hint").Int())
}

func TestResetForbiddenWithoutConfig(t *testing.T) {
	handler := newTestHandler(t, testConfig())

	rec := doJSON(t, handler, http.MethodPost, "/v1/ai/reset",
		`{"session_id": "s1"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "disabled", gjson.Get(rec.Body.String(), "error.kind").String())
}

func TestResetAllowed(t *testing.T) {
	cfg := testConfig()
	cfg.AI.AllowReset = true
	handler := newTestHandler(t, cfg)

	rec := doJSON(t, handler, http.MethodPost, "/v1/ai/reset",
		`{"session_id": "s1", "global": true}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResetWithoutTargetIs400(t *testing.T) {
	cfg := testConfig()
	cfg.AI.AllowReset = true
	handler := newTestHandler(t, cfg)

	rec := doJSON(t, handler, http.MethodPost, "/v1/ai/reset", `{}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", gjson.Get(rec.Body.String(), "error.kind").String())
}

func TestBadJSONIs400(t *testing.T) {
	handler := newTestHandler(t, testConfig())

	rec := doJSON(t, handler, http.MethodPost, "/v1/ai/hint", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "bad_request", gjson.Get(rec.Body.String(), "error.kind").String())
}

func TestHealthEndpoint(t *testing.T) {
	handler := newTestHandler(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "ok", gjson.Get(body, "status").String())
	assert.Equal(t, int64(0), gjson.Get(body, "anomalies.budget_commit_failures").Int())
}

func TestRequestIDPropagation(t *testing.T) {
	handler := newTestHandler(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "fixed-id-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "fixed-id-123", rec.Header().Get("X-Request-ID"))
}
