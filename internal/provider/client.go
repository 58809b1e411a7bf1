package provider

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"modelarena/internal/catalog"
)

// DefaultColdStartDelay is the single wait applied when an upstream model is
// still loading. It matches the typical cold-start time of hosted models.
const DefaultColdStartDelay = 60 * time.Second

// Output is the result of a successful Invoke.
type Output struct {
	Text    string
	Elapsed time.Duration
}

// ElapsedSeconds returns the wall-clock time in seconds.
func (o Output) ElapsedSeconds() float64 { return o.Elapsed.Seconds() }

// Client routes live models to their backend and applies the cold-start policy:
// a warming-up model is retried exactly once after a fixed delay. Generic
// failures are never retried.
type Client struct {
	backends  map[catalog.Backend]Backend
	coldStart time.Duration
	sleep     func(context.Context, time.Duration) error
	now       func() time.Time
	log       log.Interface
}

type Option func(*Client)

// WithColdStartDelay overrides DefaultColdStartDelay.
func WithColdStartDelay(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.coldStart = d
		}
	}
}

// WithSleep replaces the context-aware wait used before the retry.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if fn != nil {
			c.sleep = fn
		}
	}
}

// WithClock replaces time.Now for elapsed-time measurement.
func WithClock(fn func() time.Time) Option {
	return func(c *Client) {
		if fn != nil {
			c.now = fn
		}
	}
}

func WithLogger(l log.Interface) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

func NewClient(backends map[catalog.Backend]Backend, opts ...Option) *Client {
	c := &Client{
		backends:  map[catalog.Backend]Backend{},
		coldStart: DefaultColdStartDelay,
		sleep:     sleepCtx,
		now:       time.Now,
		log:       log.Log,
	}
	for k, b := range backends {
		c.backends[k] = b
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke runs prompt against model. The returned error is always *Error.
func (c *Client) Invoke(ctx context.Context, model catalog.LiveModel, prompt string, maxTokens int, temperature float64) (Output, error) {
	b, ok := c.backends[model.Backend]
	if !ok || b == nil {
		return Output{}, withModel(configError("no backend configured for %q", model.Backend), model.Upstream)
	}
	req := Request{
		Model:       model.Upstream,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}

	start := c.now()
	text, err := b.Generate(ctx, req)
	if errors.Is(err, ErrWarmingUp) {
		c.log.WithFields(log.Fields{
			"model":   model.ID,
			"backend": b.Name(),
			"delay":   c.coldStart.String(),
		}).Info("model loading, retrying once after cold-start delay")

		if werr := c.sleep(ctx, c.coldStart); werr != nil {
			return Output{}, &Error{
				Kind:    KindUnavailable,
				Model:   model.Upstream,
				Message: fmt.Sprintf("model %s unavailable: %v", model.Upstream, werr),
				Err:     werr,
			}
		}
		text, err = b.Generate(ctx, req)
		if err != nil {
			return Output{}, &Error{
				Kind:    KindUnavailable,
				Model:   model.Upstream,
				Message: fmt.Sprintf("model %s unavailable after retry", model.Upstream),
				Err:     err,
			}
		}
	}
	if err != nil {
		return Output{}, withModel(err, model.Upstream)
	}
	return Output{Text: text, Elapsed: c.now().Sub(start)}, nil
}

// withModel normalises err into *Error tagged with the upstream model.
func withModel(err error, model string) error {
	var pe *Error
	if errors.As(err, &pe) {
		cp := *pe
		cp.Model = model
		return &cp
	}
	return &Error{Kind: KindUpstream, Model: model, Message: err.Error(), Err: err}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
