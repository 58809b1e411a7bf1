package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

const defaultGroqURL = "https://api.groq.com/openai/v1/chat/completions"

// Groq calls the Groq Chat Completions API (OpenAI-compatible).
// See: https://console.groq.com/docs/api-reference
type Groq struct {
	http    *http.Client
	apiKey  string
	baseURL string
}

// NewGroq creates the backend. An empty apiKey makes every call fail with a
// configuration error.
func NewGroq(apiKey, baseURL string, timeout time.Duration) *Groq {
	if baseURL == "" {
		baseURL = defaultGroqURL
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Groq{
		http:    &http.Client{Timeout: timeout},
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: baseURL,
	}
}

func (g *Groq) Name() string { return "groq" }

type groqChatReq struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature"`
}

type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (g *Groq) Generate(ctx context.Context, req Request) (string, error) {
	if g.apiKey == "" {
		return "", configError("groq: API key is not configured (set GROQ_API_KEY)")
	}
	body, err := sonic.Marshal(groqChatReq{
		Model:       req.Model,
		Messages:    []groqMessage{{Role: "user", Content: req.Prompt}},
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return "", transportError(g.Name(), err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", transportError(g.Name(), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(gjson.GetBytes(raw, "error.message").String())
		if resp.StatusCode == http.StatusTooManyRequests {
			if q, ok := parseQuota(resp.Header); ok && q.Wait() > 0 {
				if msg == "" {
					msg = "groq: rate limited"
				}
				msg = fmt.Sprintf("%s (groq quota resets in %s)", strings.TrimSuffix(msg, "."), q.Wait().Round(time.Second))
			}
		}
		return "", statusError(g.Name(), resp.StatusCode, msg)
	}
	return gjson.GetBytes(raw, "choices.0.message.content").String(), nil
}
