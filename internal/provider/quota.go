package provider

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Quota is the upstream's own rate-limit state as reported in the
// OpenAI-style x-ratelimit-* response headers. Groq reports requests per
// day and tokens per minute.
type Quota struct {
	RetryAfter time.Duration

	LimitRequests     int
	LimitTokens       int
	RemainingRequests int
	RemainingTokens   int

	ResetRequests time.Duration
	ResetTokens   time.Duration
}

// parseQuota reads the rate-limit headers. ok is false when none are present.
func parseQuota(h http.Header) (q Quota, ok bool) {
	readInt := func(key string, dst *int) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return
		}
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
			ok = true
		}
	}
	readDur := func(key string, dst *time.Duration) {
		v := strings.TrimSpace(h.Get(key))
		if v == "" {
			return
		}
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
			ok = true
		}
	}

	var retry int
	readInt("retry-after", &retry)
	q.RetryAfter = time.Duration(retry) * time.Second
	readInt("x-ratelimit-limit-requests", &q.LimitRequests)
	readInt("x-ratelimit-limit-tokens", &q.LimitTokens)
	readInt("x-ratelimit-remaining-requests", &q.RemainingRequests)
	readInt("x-ratelimit-remaining-tokens", &q.RemainingTokens)
	readDur("x-ratelimit-reset-requests", &q.ResetRequests)
	readDur("x-ratelimit-reset-tokens", &q.ResetTokens)
	return q, ok
}

// Wait is how long the upstream asks callers to back off, or zero.
func (q Quota) Wait() time.Duration {
	if q.RetryAfter > 0 {
		return q.RetryAfter
	}
	if q.RemainingTokens == 0 && q.ResetTokens > 0 {
		return q.ResetTokens
	}
	if q.RemainingRequests == 0 && q.ResetRequests > 0 {
		return q.ResetRequests
	}
	return 0
}
