package server

import (
	"net/http"
	"time"

	"github.com/apex/log"

	"modelarena/internal/gateway/handler"
	"modelarena/internal/gateway/middleware"
)

// Routes carries everything the mux dispatches to.
type Routes struct {
	Health  *handler.HealthHandler
	Models  *handler.ModelsHandler
	Compare *handler.CompareHandler
	// Metrics serves the Prometheus exposition. Optional.
	Metrics http.Handler

	Admitter  middleware.Admitter
	Telemetry Observer
	Logger    log.Interface
	Now       func() time.Time
}

// Observer receives per-request and rate limit events.
type Observer interface {
	middleware.RequestObserver
	middleware.RateLimitObserver
}

func NewMux(rt Routes) http.Handler {
	if rt.Logger == nil {
		rt.Logger = log.Log
	}
	var (
		reqObs   middleware.RequestObserver
		limitObs middleware.RateLimitObserver
	)
	if rt.Telemetry != nil {
		reqObs, limitObs = rt.Telemetry, rt.Telemetry
	}
	limited := middleware.RateLimit(rt.Admitter, rt.Now, limitObs)

	mux := http.NewServeMux()
	mux.Handle("GET /health", rt.Health)
	mux.Handle("GET /models", limited(http.HandlerFunc(rt.Models.List)))
	mux.Handle("GET /models/{modelId}", limited(http.HandlerFunc(rt.Models.Get)))
	mux.Handle("POST /compare", limited(rt.Compare))
	if rt.Metrics != nil {
		mux.Handle("GET /metrics", rt.Metrics)
	}

	return middleware.Chain(mux,
		middleware.RequestID,
		middleware.Logging(rt.Logger, reqObs),
		middleware.Recover(rt.Logger),
		middleware.CORS,
	)
}
