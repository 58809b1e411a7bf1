package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"modelarena/internal/admission"
	"modelarena/internal/gateway/respond"
)

// Admitter decides whether a caller may proceed.
type Admitter interface {
	Check(id string) admission.Decision
}

// RateLimitObserver is told about every rejected request.
type RateLimitObserver interface {
	ObserveRateLimited(route string)
}

// RateLimit admits requests per ClientIP. Every response carries the
// X-RateLimit-* headers; rejected ones get 429 with Retry-After.
func RateLimit(a Admitter, now func() time.Time, obs RateLimitObserver) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := a.Check(ClientIP(r))
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetTime.Unix(), 10))
			if d.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			retry := d.RetryAfter(now())
			h.Set("Retry-After", strconv.Itoa(retry))
			if obs != nil {
				obs.ObserveRateLimited(r.Pattern)
			}
			respond.JSON(w, http.StatusTooManyRequests, respond.ErrorBody{
				Error:      http.StatusText(http.StatusTooManyRequests),
				Message:    fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retry),
				Code:       respond.CodeRateLimited,
				RetryAfter: retry,
				ResetTime:  respond.Timestamp(d.ResetTime),
			})
		})
	}
}
