package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelarena/internal/admission"
	"modelarena/internal/catalog"
	"modelarena/internal/compare"
	"modelarena/internal/gateway/handler"
	"modelarena/internal/provider"
	"modelarena/internal/telemetry"
	"modelarena/internal/tester"
)

const fixture = `
liveModels:
  - id: m-live-ok
    name: Live OK
    provider: Acme
    upstream: acme/ok
  - id: m-live-broken
    name: Live Broken
    provider: Acme
    upstream: acme/broken
staticBenchmarks:
  - id: m-static-1
    name: Static One
    provider: Closed
    scores:
      humaneval: 90.2
`

// echoBackend answers acme/ok and fails everything else.
type echoBackend struct{}

func (echoBackend) Name() string { return "echo" }

func (echoBackend) Generate(_ context.Context, req provider.Request) (string, error) {
	if req.Model == "acme/ok" {
		return "func add(a, b int) int { return a + b }", nil
	}
	return "", &provider.Error{Kind: provider.KindUpstream, Status: 500, Message: "upstream exploded"}
}

type env struct {
	handler http.Handler
	clock   *tester.Clock
	metrics *telemetry.Metrics
}

func newEnv(t *testing.T) *env {
	t.Helper()
	logger := &log.Logger{Handler: discard.New(), Level: log.ErrorLevel}
	clock := tester.NewClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))

	cat, err := catalog.Parse([]byte(fixture))
	require.NoError(t, err)
	ctrl, err := admission.New(admission.Config{Now: clock.Now})
	require.NoError(t, err)
	metrics := telemetry.New()

	client := provider.NewClient(
		map[catalog.Backend]provider.Backend{catalog.BackendHuggingFace: echoBackend{}},
		provider.WithClock(clock.Now),
		provider.WithLogger(logger),
	)
	orch := compare.New(cat, client,
		compare.WithClock(clock.Now),
		compare.WithLogger(logger),
		compare.WithObserver(metrics),
	)

	h := NewMux(Routes{
		Health:    handler.NewHealthHandler("1.2.3", clock.Now(), clock.Now),
		Models:    handler.NewModelsHandler(cat),
		Compare:   handler.NewCompareHandler(cat, orch, logger),
		Metrics:   metrics.Handler(),
		Admitter:  ctrl,
		Telemetry: metrics,
		Logger:    logger,
		Now:       clock.Now,
	})
	return &env{handler: h, clock: clock, metrics: metrics}
}

func (e *env) do(method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, rd)
	r.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCompare_LiveAndStatic(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodPost, "/compare", `{"prompt":"add two numbers","modelIds":["m-live-ok","m-static-1"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "10", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "9", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	body := decode(t, rec)
	results := body["results"].([]any)
	require.Len(t, results, 2)

	first := results[0].(map[string]any)
	assert.Equal(t, "m-live-ok", first["modelId"])
	assert.Equal(t, "success", first["status"])
	assert.NotEmpty(t, first["output"])

	second := results[1].(map[string]any)
	assert.Equal(t, "m-static-1", second["modelId"])
	assert.Equal(t, "error", second["status"])
	assert.Contains(t, strings.ToLower(second["error"].(string)), "static benchmarks")
	assert.Equal(t, "", second["output"])

	meta := body["metadata"].(map[string]any)
	assert.EqualValues(t, 2, meta["totalModels"])
	assert.EqualValues(t, 1, meta["successfulModels"])
	assert.EqualValues(t, 1, meta["failedModels"])
	assert.Equal(t, "2025-06-01T09:00:00.000Z", meta["timestamp"])
}

func TestCompare_PartialFailureIsStillOK(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodPost, "/compare", `{"prompt":"p","modelIds":["m-live-ok","m-live-broken","m-static-1"],"maxTokens":64}`)
	require.Equal(t, http.StatusOK, rec.Code)

	results := decode(t, rec)["results"].([]any)
	require.Len(t, results, 3)
	broken := results[1].(map[string]any)
	assert.Equal(t, "error", broken["status"])
	assert.Contains(t, broken["error"], "upstream exploded")
	assert.EqualValues(t, 0, broken["metrics"].(map[string]any)["tokenCount"])
}

func TestCompare_ValidationErrors(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"empty prompt", `{"prompt":"","modelIds":["m-live-ok"]}`, "prompt"},
		{"missing models", `{"prompt":"p"}`, "modelIds"},
		{"empty models", `{"prompt":"p","modelIds":[]}`, "modelIds"},
		{"too many models", `{"prompt":"p","modelIds":["a","b","c","d"]}`, "modelIds"},
		{"duplicate models", `{"prompt":"p","modelIds":["m-live-ok","m-live-ok"]}`, "modelIds"},
		{"max tokens too high", `{"prompt":"p","modelIds":["m-live-ok"],"maxTokens":5000}`, "maxTokens"},
		{"max tokens zero", `{"prompt":"p","modelIds":["m-live-ok"],"maxTokens":0}`, "maxTokens"},
		{"prompt too long", fmt.Sprintf(`{"prompt":%q,"modelIds":["m-live-ok"]}`, strings.Repeat("x", 10001)), "prompt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := newEnv(t)
			rec := e.do(http.MethodPost, "/compare", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			body := decode(t, rec)
			assert.Equal(t, "VALIDATION_ERROR", body["code"])
			assert.Contains(t, body["details"].(map[string]any), tc.field)
		})
	}
}

func TestCompare_MalformedJSON(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodPost, "/compare", `{"prompt":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decode(t, rec)["code"])
}

func TestCompare_UnknownIDsRejectWholeRequest(t *testing.T) {
	e := newEnv(t)
	rec := e.do(http.MethodPost, "/compare", `{"prompt":"p","modelIds":["m-live-ok","bogus","nope"]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Contains(t, body["message"], "bogus, nope")
	assert.Equal(t, []any{"bogus", "nope"}, body["details"].(map[string]any)["invalidModelIds"])
}

func TestCompare_EleventhRequestIsRateLimited(t *testing.T) {
	e := newEnv(t)
	const body = `{"prompt":"p","modelIds":["m-static-1"]}`
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, e.do(http.MethodPost, "/compare", body).Code, "request %d", i+1)
	}

	e.clock.Advance(time.Minute)
	rec := e.do(http.MethodPost, "/compare", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "540", rec.Header().Get("Retry-After"))

	out := decode(t, rec)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", out["code"])
	assert.Greater(t, out["retryAfter"].(float64), 0.0)
	assert.Equal(t, "2025-06-01T09:10:00.000Z", out["resetTime"])

	e.clock.Advance(10 * time.Minute)
	assert.Equal(t, http.StatusOK, e.do(http.MethodPost, "/compare", body).Code)
}

func TestRateLimit_SharedAcrossRoutes(t *testing.T) {
	e := newEnv(t)
	for i := 0; i < 10; i++ {
		require.Equal(t, http.StatusOK, e.do(http.MethodGet, "/models", "").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, e.do(http.MethodGet, "/models/m-live-ok", "").Code)
}

func TestHealth_NeverRateLimited(t *testing.T) {
	e := newEnv(t)
	e.clock.Advance(90 * time.Second)
	for i := 0; i < 20; i++ {
		rec := e.do(http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}

	body := decode(t, e.do(http.MethodGet, "/health", ""))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.EqualValues(t, 90, body["uptime"])
}

func TestModels_List(t *testing.T) {
	e := newEnv(t)

	body := decode(t, e.do(http.MethodGet, "/models", ""))
	assert.Len(t, body["liveModels"], 2)
	assert.Len(t, body["staticBenchmarks"], 1)

	body = decode(t, e.do(http.MethodGet, "/models?type=live&limit=1&offset=1", ""))
	live := body["liveModels"].([]any)
	require.Len(t, live, 1)
	assert.Equal(t, "m-live-broken", live[0].(map[string]any)["id"])
	assert.Equal(t, "live", live[0].(map[string]any)["type"])
	assert.Empty(t, body["staticBenchmarks"])

	body = decode(t, e.do(http.MethodGet, "/models?type=static", ""))
	assert.Empty(t, body["liveModels"])
	assert.Len(t, body["staticBenchmarks"], 1)
}

func TestModels_ListRejectsBadQuery(t *testing.T) {
	for _, q := range []string{"limit=0", "limit=101", "limit=abc", "offset=-1", "type=bogus"} {
		t.Run(q, func(t *testing.T) {
			e := newEnv(t)
			rec := e.do(http.MethodGet, "/models?"+q, "")
			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "VALIDATION_ERROR", decode(t, rec)["code"])
		})
	}
}

func TestModels_Get(t *testing.T) {
	e := newEnv(t)

	rec := e.do(http.MethodGet, "/models/m-static-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "static", body["type"])
	assert.Equal(t, "Static One", body["name"])
	assert.EqualValues(t, 90.2, body["scores"].(map[string]any)["humaneval"])

	rec = e.do(http.MethodGet, "/models/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body = decode(t, rec)
	assert.Equal(t, "MODEL_NOT_FOUND", body["code"])
	assert.Equal(t, "Not Found", body["error"])
}

func TestMetrics_Exposition(t *testing.T) {
	e := newEnv(t)
	e.do(http.MethodPost, "/compare", `{"prompt":"p","modelIds":["m-live-ok"]}`)

	rec := e.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	text := rec.Body.String()
	assert.Contains(t, text, `modelarena_model_results_total{model="m-live-ok",status="success"} 1`)
	assert.Contains(t, text, `modelarena_http_requests_total{code="2xx",route="POST /compare"} 1`)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, http.StatusNotFound, e.do(http.MethodGet, "/nope", "").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, e.do(http.MethodGet, "/compare", "").Code)
}
