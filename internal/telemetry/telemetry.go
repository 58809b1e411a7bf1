// Package telemetry exposes Prometheus counters for the comparison gateway.
package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests and multiple servers never clash.
type Metrics struct {
	reg *prometheus.Registry

	requests    *prometheus.CounterVec
	rateLimited *prometheus.CounterVec
	results     *prometheus.CounterVec
	upstream    *prometheus.HistogramVec
	comparisons prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelarena",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelarena",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the admission controller.",
		}, []string{"route"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelarena",
			Name:      "model_results_total",
			Help:      "Per-model comparison results by status.",
		}, []string{"model", "status"}),
		upstream: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "modelarena",
			Name:      "upstream_call_seconds",
			Help:      "Latency of single upstream inference calls.",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 80},
		}, []string{"backend", "outcome"}),
		comparisons: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "modelarena",
			Name:      "comparison_seconds",
			Help:      "Wall-clock time of whole comparisons.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}),
	}
	m.reg.MustRegister(
		m.requests, m.rateLimited, m.results, m.upstream, m.comparisons,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

func (m *Metrics) ObserveRequest(route string, code int) {
	m.requests.WithLabelValues(route, statusLabel(code)).Inc()
}

func (m *Metrics) ObserveRateLimited(route string) {
	m.rateLimited.WithLabelValues(route).Inc()
}

func (m *Metrics) ObserveResult(model, status string) {
	m.results.WithLabelValues(model, status).Inc()
}

// ObserveUpstream implements provider.Observer.
func (m *Metrics) ObserveUpstream(backend, outcome string, d time.Duration) {
	m.upstream.WithLabelValues(backend, outcome).Observe(d.Seconds())
}

func (m *Metrics) ObserveComparison(d time.Duration) {
	m.comparisons.Observe(d.Seconds())
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		if code == http.StatusTooManyRequests {
			return "429"
		}
		return "4xx"
	case code >= 200:
		return "2xx"
	}
	return "other"
}
