package provider

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/tidwall/gjson"
)

const (
	defaultHuggingFaceURL = "https://api-inference.huggingface.co"
	maxResponseBytes      = 4 << 20
)

// HuggingFace calls the Hugging Face serverless Inference API text-generation task.
// See: https://huggingface.co/docs/api-inference
type HuggingFace struct {
	http    *http.Client
	token   string
	baseURL string
}

// NewHuggingFace creates the backend. An empty token is accepted; every
// Generate then fails with a configuration error instead of calling out.
func NewHuggingFace(token, baseURL string, timeout time.Duration) *HuggingFace {
	if baseURL == "" {
		baseURL = defaultHuggingFaceURL
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &HuggingFace{
		http:    &http.Client{Timeout: timeout},
		token:   strings.TrimSpace(token),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (h *HuggingFace) Name() string { return "huggingface" }

type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
	Options    hfOptions    `json:"options"`
}

type hfParameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float64 `json:"temperature"`
	ReturnFullText bool    `json:"return_full_text"`
}

type hfOptions struct {
	WaitForModel bool `json:"wait_for_model"`
}

func (h *HuggingFace) Generate(ctx context.Context, req Request) (string, error) {
	if h.token == "" {
		return "", configError("huggingface: API token is not configured (set HF_API_TOKEN)")
	}
	body, err := sonic.Marshal(hfRequest{
		Inputs: req.Prompt,
		Parameters: hfParameters{
			MaxNewTokens: req.MaxTokens,
			Temperature:  req.Temperature,
		},
	})
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+"/models/"+req.Model, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+h.token)

	resp, err := h.http.Do(httpReq)
	if err != nil {
		return "", transportError(h.Name(), err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", transportError(h.Name(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := hfErrorMessage(raw)
		if resp.StatusCode == http.StatusServiceUnavailable && hfIsLoading(raw, msg) {
			return "", warmingUp(msg)
		}
		return "", statusError(h.Name(), resp.StatusCode, msg)
	}
	return hfGeneratedText(raw), nil
}

// hfGeneratedText accepts both the list form [{"generated_text": ...}] and
// the bare object form. Anything else yields "".
func hfGeneratedText(raw []byte) string {
	if r := gjson.GetBytes(raw, "0.generated_text"); r.Exists() {
		return r.String()
	}
	return gjson.GetBytes(raw, "generated_text").String()
}

func hfErrorMessage(raw []byte) string {
	r := gjson.GetBytes(raw, "error")
	if r.IsArray() {
		if items := r.Array(); len(items) > 0 {
			return strings.TrimSpace(items[0].String())
		}
		return ""
	}
	return strings.TrimSpace(r.String())
}

func hfIsLoading(raw []byte, msg string) bool {
	if gjson.GetBytes(raw, "estimated_time").Exists() {
		return true
	}
	return strings.Contains(strings.ToLower(msg), "loading")
}
