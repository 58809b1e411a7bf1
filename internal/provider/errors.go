package provider

import (
	"errors"
	"fmt"
)

// ErrWarmingUp is returned by a backend when the upstream model is still
// loading. Client retries exactly once when it sees it.
var ErrWarmingUp = errors.New("model is warming up")

// ErrorKind classifies a provider failure.
type ErrorKind string

const (
	// KindConfiguration means a credential or backend is missing. No call was made.
	KindConfiguration ErrorKind = "configuration"
	// KindUpstream is any non-success answer or transport failure.
	KindUpstream ErrorKind = "upstream"
	// KindUnavailable means the model was still unavailable after the cold-start retry.
	KindUnavailable ErrorKind = "unavailable"
)

// Error is the terminal failure of one Invoke. Message is safe to show to
// callers; Err keeps the underlying cause for logs.
type Error struct {
	Kind    ErrorKind
	Model   string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind) + " error"
}

func (e *Error) Unwrap() error { return e.Err }

func configError(format string, args ...any) error {
	return &Error{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}

// statusError builds an upstream error, preferring the upstream's own message.
func statusError(backend string, status int, upstreamMsg string) error {
	msg := upstreamMsg
	if msg == "" {
		msg = fmt.Sprintf("%s: upstream returned status %d", backend, status)
	}
	return &Error{Kind: KindUpstream, Status: status, Message: msg}
}

func transportError(backend string, err error) error {
	return &Error{Kind: KindUpstream, Message: fmt.Sprintf("%s: request failed: %v", backend, err), Err: err}
}

func warmingUp(msg string) error {
	if msg == "" {
		return ErrWarmingUp
	}
	return fmt.Errorf("%w: %s", ErrWarmingUp, msg)
}

// IsConfiguration reports whether err stems from missing configuration.
func IsConfiguration(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Kind == KindConfiguration
}
