package provider

import "context"

// Request is one generation call against an upstream model.
type Request struct {
	Model       string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Backend performs a single upstream call and returns the generated text.
// Implementations report a loading model with an error wrapping ErrWarmingUp
// and every other failure as *Error. They never retry.
type Backend interface {
	Name() string
	Generate(ctx context.Context, req Request) (string, error)
}

// Middleware decorates a Backend with a cross-cutting concern.
type Middleware func(Backend) Backend

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Backend, mws ...Middleware) Backend {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		out = mws[i](out)
	}
	return out
}
