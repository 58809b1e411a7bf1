package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/bytedance/sonic"

	"modelarena/internal/compare"
	"modelarena/internal/gateway/middleware"
	"modelarena/internal/gateway/respond"
)

const maxBodyBytes = 1 << 20

// Comparer runs a validated comparison.
type Comparer interface {
	Compare(ctx context.Context, req compare.Request) compare.Comparison
}

type CompareHandler struct {
	catalog Catalog
	runner  Comparer
	log     log.Interface
}

func NewCompareHandler(c Catalog, runner Comparer, logger log.Interface) *CompareHandler {
	if logger == nil {
		logger = log.Log
	}
	return &CompareHandler{catalog: c, runner: runner, log: logger}
}

type compareBody struct {
	Prompt    string   `json:"prompt" validate:"required,max=10000"`
	ModelIDs  []string `json:"modelIds" validate:"required,min=1,max=3,unique,dive,required"`
	MaxTokens *int     `json:"maxTokens" validate:"omitempty,min=1,max=4096"`
}

type compareResponse struct {
	Results  []compare.Result `json:"results"`
	Metadata compareMetadata  `json:"metadata"`
}

type compareMetadata struct {
	Timestamp        string `json:"timestamp"`
	TotalModels      int    `json:"totalModels"`
	SuccessfulModels int    `json:"successfulModels"`
	FailedModels     int    `json:"failedModels"`
}

// ServeHTTP handles POST /compare.
func (h *CompareHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.ValidationError(w, "Request body is too large", nil)
			return
		}
		respond.ValidationError(w, "Request body could not be read", nil)
		return
	}
	var body compareBody
	if err := sonic.Unmarshal(raw, &body); err != nil {
		respond.ValidationError(w, "Request body must be a valid JSON object", nil)
		return
	}
	if err := validate.Struct(body); err != nil {
		details := fieldErrors(err)
		respond.ValidationError(w, summarize(details), details)
		return
	}

	valid, invalid := h.catalog.Partition(body.ModelIDs)
	if len(invalid) > 0 {
		respond.ValidationError(w,
			fmt.Sprintf("Invalid model IDs: %s", strings.Join(invalid, ", ")),
			map[string]any{"invalidModelIds": invalid},
		)
		return
	}
	if len(valid) == 0 {
		respond.ValidationError(w, "No valid model IDs provided", nil)
		return
	}

	maxTokens := compare.DefaultMaxTokens
	if body.MaxTokens != nil {
		maxTokens = *body.MaxTokens
	}

	h.log.WithFields(log.Fields{
		"request_id": middleware.RequestIDFrom(r.Context()),
		"models":     strings.Join(valid, ","),
		"max_tokens": maxTokens,
	}).Debug("starting comparison")

	out := h.runner.Compare(r.Context(), compare.Request{
		Prompt:    body.Prompt,
		ModelIDs:  valid,
		MaxTokens: maxTokens,
	})
	respond.JSON(w, http.StatusOK, compareResponse{
		Results: out.Results,
		Metadata: compareMetadata{
			Timestamp:        respond.Timestamp(out.Timestamp),
			TotalModels:      len(out.Results),
			SuccessfulModels: out.SuccessCount,
			FailedModels:     out.ErrorCount,
		},
	})
}
