package provider

import (
	"context"
	"errors"
	"strings"
	"sync"

	genai "google.golang.org/genai"
)

// Gemini is a thin wrapper around the official genai client. The client is
// created on first use so a missing key only surfaces per call.
type Gemini struct {
	apiKey string

	once    sync.Once
	cli     *genai.Client
	initErr error
}

func NewGemini(apiKey string) *Gemini {
	return &Gemini{apiKey: strings.TrimSpace(apiKey)}
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) client(ctx context.Context) (*genai.Client, error) {
	g.once.Do(func() {
		g.cli, g.initErr = genai.NewClient(context.WithoutCancel(ctx), &genai.ClientConfig{
			APIKey:  g.apiKey,
			Backend: genai.BackendGeminiAPI,
		})
	})
	return g.cli, g.initErr
}

func (g *Gemini) Generate(ctx context.Context, req Request) (string, error) {
	if g.apiKey == "" {
		return "", configError("gemini: API key is not configured (set GEMINI_API_KEY)")
	}
	cli, err := g.client(ctx)
	if err != nil {
		return "", configError("gemini: client init: %v", err)
	}
	temp := float32(req.Temperature)
	resp, err := cli.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
		Temperature:     &temp,
	})
	if err != nil {
		return "", geminiError(err)
	}
	return geminiText(resp), nil
}

func geminiText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	c := resp.Candidates[0]
	if c == nil || c.Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	return sb.String()
}

func geminiError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return statusError("gemini", apiErr.Code, apiErr.Message)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return statusError("gemini", apiErrPtr.Code, apiErrPtr.Message)
	}
	return transportError("gemini", err)
}
