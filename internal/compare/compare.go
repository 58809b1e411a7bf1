// Package compare fans one prompt out to several catalog models and joins the
// per-model outcomes into a single, ordered result.
package compare

import (
	"context"
	"fmt"
	"time"

	"github.com/apex/log"
	"golang.org/x/sync/errgroup"

	"modelarena/internal/catalog"
	"modelarena/internal/metrics"
	"modelarena/internal/provider"
)

const (
	DefaultMaxTokens   = 256
	DefaultTemperature = 0.7

	// StaticModelMessage is reported for benchmark-only catalog entries.
	StaticModelMessage = "Static benchmarks cannot be queried live; they display benchmark scores only"
)

// Status tags a Result.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Result is the outcome of one model within a comparison.
type Result struct {
	ModelID   string          `json:"modelId"`
	ModelName string          `json:"modelName"`
	Output    string          `json:"output"`
	Metrics   metrics.Metrics `json:"metrics"`
	Error     string          `json:"error,omitempty"`
	Status    Status          `json:"status"`
}

// Request is a validated comparison request.
type Request struct {
	Prompt    string
	ModelIDs  []string
	MaxTokens int
}

// Comparison is the joined outcome of a Request. Results follow the
// (deduplicated) order of Request.ModelIDs.
type Comparison struct {
	Results      []Result
	SuccessCount int
	ErrorCount   int
	Timestamp    time.Time
}

// Resolver looks up catalog descriptors.
type Resolver interface {
	Resolve(id string) (catalog.Descriptor, bool)
}

// Invoker runs a prompt against a live model.
type Invoker interface {
	Invoke(ctx context.Context, model catalog.LiveModel, prompt string, maxTokens int, temperature float64) (provider.Output, error)
}

// ResultObserver is told about every finished unit.
type ResultObserver interface {
	ObserveResult(model, status string)
	ObserveComparison(d time.Duration)
}

// Orchestrator runs comparisons. It holds no per-request state and is safe
// for concurrent use.
type Orchestrator struct {
	catalog     Resolver
	invoker     Invoker
	temperature float64
	timeout     time.Duration
	now         func() time.Time
	log         log.Interface
	obs         ResultObserver
}

type Option func(*Orchestrator)

func WithTemperature(t float64) Option {
	return func(o *Orchestrator) { o.temperature = t }
}

// WithTimeout bounds a whole comparison. Zero (the default) means no bound:
// the caller waits for the slowest model.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.timeout = d }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(l log.Interface) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func WithObserver(obs ResultObserver) Option {
	return func(o *Orchestrator) { o.obs = obs }
}

func New(cat Resolver, inv Invoker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		catalog:     cat,
		invoker:     inv,
		temperature: DefaultTemperature,
		now:         time.Now,
		log:         log.Log,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Compare dispatches one concurrent unit per model and waits for all of
// them. A failing unit never cancels its siblings; every unit yields exactly
// one Result.
func (o *Orchestrator) Compare(ctx context.Context, req Request) Comparison {
	started := o.now()
	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	ids := dedupe(req.ModelIDs)
	results := make([]Result, len(ids))

	// Plain Group, not WithContext: units report failures as Results and
	// must not cancel each other.
	var g errgroup.Group
	for i, id := range ids {
		g.Go(func() error {
			results[i] = o.runUnit(ctx, id, req.Prompt, maxTokens)
			return nil
		})
	}
	_ = g.Wait()

	out := Comparison{Results: results, Timestamp: o.now()}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			out.SuccessCount++
		default:
			out.ErrorCount++
		}
		if o.obs != nil {
			o.obs.ObserveResult(r.ModelID, string(r.Status))
		}
	}
	if o.obs != nil {
		o.obs.ObserveComparison(out.Timestamp.Sub(started))
	}
	o.log.WithFields(log.Fields{
		"models":    len(ids),
		"succeeded": out.SuccessCount,
		"failed":    out.ErrorCount,
		"took_ms":   out.Timestamp.Sub(started).Milliseconds(),
	}).Info("comparison finished")
	return out
}

func (o *Orchestrator) runUnit(ctx context.Context, id, prompt string, maxTokens int) (res Result) {
	res = Result{ModelID: id, ModelName: id, Status: StatusError}
	defer func() {
		if p := recover(); p != nil {
			o.log.WithFields(log.Fields{"model": id, "panic": fmt.Sprint(p)}).Error("comparison unit panicked")
			res = errorResult(id, res.ModelName, "internal error while querying model")
		}
	}()

	d, ok := o.catalog.Resolve(id)
	if !ok {
		return errorResult(id, id, fmt.Sprintf("model %s not found", id))
	}
	return catalog.Visit(d,
		func(m catalog.LiveModel) Result {
			return o.queryLive(ctx, m, prompt, maxTokens)
		},
		func(s catalog.StaticBenchmark) Result {
			return errorResult(id, s.Name, StaticModelMessage)
		},
	)
}

func (o *Orchestrator) queryLive(ctx context.Context, m catalog.LiveModel, prompt string, maxTokens int) Result {
	out, err := o.invoker.Invoke(ctx, m, prompt, maxTokens, o.temperature)
	if err != nil {
		return errorResult(m.ID, m.Name, err.Error())
	}
	return Result{
		ModelID:   m.ID,
		ModelName: m.Name,
		Output:    out.Text,
		Metrics:   metrics.Derive(out.Text, out.ElapsedSeconds()),
		Status:    StatusSuccess,
	}
}

func errorResult(id, name, msg string) Result {
	if name == "" {
		name = id
	}
	return Result{ModelID: id, ModelName: name, Error: msg, Status: StatusError}
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
