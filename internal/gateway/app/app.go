package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/apex/log"

	"modelarena/internal/admission"
	"modelarena/internal/catalog"
	"modelarena/internal/compare"
	"modelarena/internal/gateway/config"
	"modelarena/internal/gateway/handler"
	"modelarena/internal/gateway/server"
	"modelarena/internal/provider"
	"modelarena/internal/telemetry"
)

type App struct {
	cfg       *config.Config
	log       log.Interface
	catalog   *catalog.Catalog
	admission *admission.Controller
	metrics   *telemetry.Metrics
	compare   *compare.Orchestrator
	handler   http.Handler
	server    *server.Server
}

// New wires every component from cfg. Nothing is started yet.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := NewLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Open(ctx, cfg.CatalogPath, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	ctrl, err := admission.New(admission.Config{
		Limit:         cfg.RateLimit.Max,
		Window:        cfg.RateLimit.Window,
		SweepInterval: cfg.RateLimit.Sweep,
		TableSize:     cfg.RateLimit.TableSize,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create admission controller: %w", err)
	}

	metrics := telemetry.New()
	client := provider.NewClient(
		buildBackends(cfg.Upstream, logger, metrics),
		provider.WithColdStartDelay(cfg.Upstream.ColdStartDelay),
		provider.WithLogger(logger),
	)
	orch := compare.New(cat, client,
		compare.WithTemperature(cfg.Upstream.Temperature),
		compare.WithTimeout(cfg.CompareTimeout),
		compare.WithLogger(logger),
		compare.WithObserver(metrics),
	)

	mux := server.NewMux(server.Routes{
		Health:    handler.NewHealthHandler(cfg.Version, time.Now(), time.Now),
		Models:    handler.NewModelsHandler(cat),
		Compare:   handler.NewCompareHandler(cat, orch, logger),
		Metrics:   metrics.Handler(),
		Admitter:  ctrl,
		Telemetry: metrics,
		Logger:    logger,
	})

	logger.WithFields(log.Fields{
		"env":               cfg.Env,
		"version":           cfg.Version,
		"live_models":       cat.Len(catalog.KindLive),
		"static_models":     cat.Len(catalog.KindStatic),
		"rate_limit":        cfg.RateLimit.Max,
		"rate_window":       cfg.RateLimit.Window.String(),
		"hf_configured":     cfg.Upstream.HuggingFaceToken != "",
		"groq_configured":   cfg.Upstream.GroqAPIKey != "",
		"gemini_configured": cfg.Upstream.GeminiAPIKey != "",
	}).Info("app initialised")

	return &App{
		cfg:       cfg,
		log:       logger,
		catalog:   cat,
		admission: ctrl,
		metrics:   metrics,
		compare:   orch,
		handler:   mux,
		server:    server.New(cfg.Addr, mux, logger),
	}, nil
}

// Handler is the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler { return a.handler }

func (a *App) Catalog() *catalog.Catalog { return a.catalog }

func (a *App) Orchestrator() *compare.Orchestrator { return a.compare }

func (a *App) Logger() log.Interface { return a.log }

// Start runs the admission sweep and blocks serving HTTP.
func (a *App) Start(ctx context.Context) error {
	a.admission.Start(ctx)
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	err := a.server.Shutdown(ctx)
	a.admission.Stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
