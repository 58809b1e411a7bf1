// Package respond writes JSON bodies and the API error envelope.
package respond

import (
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/bytedance/sonic"
)

// Error codes carried in ErrorBody.Code.
const (
	CodeValidation  = "VALIDATION_ERROR"
	CodeNotFound    = "MODEL_NOT_FOUND"
	CodeRateLimited = "RATE_LIMIT_EXCEEDED"
	CodeInternal    = "INTERNAL_ERROR"
)

// TimeLayout is the ISO 8601 form used for every timestamp in a response.
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// Timestamp formats t in UTC with TimeLayout.
func Timestamp(t time.Time) string { return t.UTC().Format(TimeLayout) }

// ErrorBody is the envelope of every 4xx/5xx response.
type ErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Code       string `json:"code"`
	Details    any    `json:"details,omitempty"`
	RetryAfter int    `json:"retryAfter,omitempty"`
	ResetTime  string `json:"resetTime,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	body, err := sonic.Marshal(v)
	if err != nil {
		log.WithError(err).Error("encode response")
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal Server Error","message":"failed to encode response","code":"INTERNAL_ERROR"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// Error writes an ErrorBody whose title is derived from status.
func Error(w http.ResponseWriter, status int, code, message string, details any) {
	JSON(w, status, ErrorBody{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}

func ValidationError(w http.ResponseWriter, message string, details any) {
	Error(w, http.StatusBadRequest, CodeValidation, message, details)
}

func Internal(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, CodeInternal, "An unexpected error occurred", nil)
}
