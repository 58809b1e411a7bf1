package telemetry

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountersAndExposition(t *testing.T) {
	m := New()
	m.ObserveRequest("/compare", 200)
	m.ObserveRequest("/compare", 429)
	m.ObserveRateLimited("/compare")
	m.ObserveResult("starcoder2-15b", "success")
	m.ObserveResult("gpt-4o", "error")
	m.ObserveResult("gpt-4o", "error")
	m.ObserveUpstream("huggingface", "success", 1200*time.Millisecond)
	m.ObserveComparison(3 * time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/compare", "2xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("/compare", "429")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.results.WithLabelValues("gpt-4o", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimited.WithLabelValues("/compare")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "modelarena_upstream_call_seconds_bucket"))
	assert.True(t, strings.Contains(body, `modelarena_model_results_total{model="starcoder2-15b",status="success"} 1`))
}

func TestStatusLabel(t *testing.T) {
	cases := map[int]string{200: "2xx", 204: "2xx", 400: "4xx", 404: "4xx", 429: "429", 500: "5xx", 101: "other"}
	for code, want := range cases {
		assert.Equal(t, want, statusLabel(code), "code %d", code)
	}
}
