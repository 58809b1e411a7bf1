// Package metrics turns a model's raw output into comparable performance figures.
package metrics

import (
	"math"
	"unicode/utf8"
)

// CharsPerToken is the coarse length-to-token ratio used for estimates.
const CharsPerToken = 4

// Metrics describes one model response.
type Metrics struct {
	ResponseTime    float64 `json:"responseTime"`
	TokenCount      int     `json:"tokenCount"`
	TokensPerSecond float64 `json:"tokensPerSecond"`
}

// EstimateTokens approximates the token count of text as ceil(chars/4).
// It is not a tokenizer; comparisons only need a stable, cheap figure.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return int(math.Ceil(float64(n) / CharsPerToken))
}

// Derive computes Metrics for output produced in elapsedSeconds.
// Throughput is zero when no time elapsed.
func Derive(text string, elapsedSeconds float64) Metrics {
	if elapsedSeconds < 0 || math.IsNaN(elapsedSeconds) {
		elapsedSeconds = 0
	}
	tokens := EstimateTokens(text)
	var tps float64
	if elapsedSeconds > 0 {
		tps = float64(tokens) / elapsedSeconds
	}
	return Metrics{
		ResponseTime:    elapsedSeconds,
		TokenCount:      tokens,
		TokensPerSecond: tps,
	}
}
