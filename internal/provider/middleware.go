package provider

import (
	"context"
	"errors"
	"time"

	"github.com/apex/log"
	"golang.org/x/time/rate"
)

// -------- Logging --------

// WithLogging logs every upstream call with its outcome and duration.
// A nil logger uses the apex/log default.
func WithLogging(logger log.Interface) Middleware {
	if logger == nil {
		logger = log.Log
	}
	return func(next Backend) Backend {
		return &logging{next: next, log: logger}
	}
}

type logging struct {
	next Backend
	log  log.Interface
}

func (l *logging) Name() string { return l.next.Name() }

func (l *logging) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := l.next.Generate(ctx, req)
	entry := l.log.WithFields(log.Fields{
		"backend":      l.next.Name(),
		"model":        req.Model,
		"prompt_bytes": len(req.Prompt),
		"max_tokens":   req.MaxTokens,
		"duration_ms":  time.Since(start).Milliseconds(),
	})
	switch {
	case err == nil:
		entry.WithField("output_bytes", len(out)).Debug("upstream call succeeded")
	case errors.Is(err, ErrWarmingUp):
		entry.WithError(err).Info("upstream model warming up")
	default:
		entry.WithError(err).Warn("upstream call failed")
	}
	return out, err
}

// -------- Throttling --------

// Throttle spaces outbound calls to at most rps per second with the given
// burst. rps <= 0 disables it.
func Throttle(rps float64, burst int) Middleware {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return func(next Backend) Backend {
		return &throttled{next: next, lim: rate.NewLimiter(rate.Limit(rps), burst)}
	}
}

type throttled struct {
	next Backend
	lim  *rate.Limiter
}

func (t *throttled) Name() string { return t.next.Name() }

func (t *throttled) Generate(ctx context.Context, req Request) (string, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return "", transportError(t.next.Name(), err)
	}
	return t.next.Generate(ctx, req)
}

// -------- Observation --------

// Observer receives one sample per upstream call.
type Observer interface {
	ObserveUpstream(backend, outcome string, d time.Duration)
}

// Outcome labels passed to Observer.
const (
	OutcomeSuccess   = "success"
	OutcomeWarmingUp = "warming_up"
	OutcomeError     = "error"
)

// Observe reports call latency and outcome to obs. A nil obs disables it.
func Observe(obs Observer) Middleware {
	if obs == nil {
		return nil
	}
	return func(next Backend) Backend {
		return &observed{next: next, obs: obs}
	}
}

type observed struct {
	next Backend
	obs  Observer
}

func (o *observed) Name() string { return o.next.Name() }

func (o *observed) Generate(ctx context.Context, req Request) (string, error) {
	start := time.Now()
	out, err := o.next.Generate(ctx, req)
	outcome := OutcomeSuccess
	switch {
	case errors.Is(err, ErrWarmingUp):
		outcome = OutcomeWarmingUp
	case err != nil:
		outcome = OutcomeError
	}
	o.obs.ObserveUpstream(o.next.Name(), outcome, time.Since(start))
	return out, err
}
