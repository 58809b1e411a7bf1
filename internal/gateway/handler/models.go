package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"modelarena/internal/catalog"
	"modelarena/internal/gateway/respond"
)

// Catalog is the read side of the model catalog used by the handlers.
type Catalog interface {
	Resolve(id string) (catalog.Descriptor, bool)
	Partition(ids []string) (valid, invalid []string)
	Filter(kind catalog.Kind, limit, offset int) []catalog.Descriptor
}

type ModelsHandler struct {
	catalog Catalog
}

func NewModelsHandler(c Catalog) *ModelsHandler {
	return &ModelsHandler{catalog: c}
}

type listQuery struct {
	Type   string `json:"type" validate:"omitempty,oneof=live static"`
	Limit  int    `json:"limit" validate:"min=1,max=100"`
	Offset int    `json:"offset" validate:"min=0"`
}

type modelsResponse struct {
	LiveModels       []any `json:"liveModels"`
	StaticBenchmarks []any `json:"staticBenchmarks"`
}

type liveView struct {
	catalog.LiveModel
	Type catalog.Kind `json:"type"`
}

type staticView struct {
	catalog.StaticBenchmark
	Type catalog.Kind `json:"type"`
}

func view(d catalog.Descriptor) any {
	return catalog.Visit(d,
		func(m catalog.LiveModel) any { return liveView{LiveModel: m, Type: catalog.KindLive} },
		func(s catalog.StaticBenchmark) any { return staticView{StaticBenchmark: s, Type: catalog.KindStatic} },
	)
}

func views(ds []catalog.Descriptor) []any {
	out := make([]any, 0, len(ds))
	for _, d := range ds {
		out = append(out, view(d))
	}
	return out
}

// List handles GET /models.
func (h *ModelsHandler) List(w http.ResponseWriter, r *http.Request) {
	q, details := parseListQuery(r)
	if len(details) == 0 {
		if err := validate.Struct(q); err != nil {
			details = fieldErrors(err)
		}
	}
	if len(details) > 0 {
		respond.ValidationError(w, summarize(details), details)
		return
	}

	resp := modelsResponse{LiveModels: []any{}, StaticBenchmarks: []any{}}
	if q.Type == "" || q.Type == string(catalog.KindLive) {
		resp.LiveModels = views(h.catalog.Filter(catalog.KindLive, q.Limit, q.Offset))
	}
	if q.Type == "" || q.Type == string(catalog.KindStatic) {
		resp.StaticBenchmarks = views(h.catalog.Filter(catalog.KindStatic, q.Limit, q.Offset))
	}
	respond.JSON(w, http.StatusOK, resp)
}

func parseListQuery(r *http.Request) (listQuery, map[string]string) {
	values := r.URL.Query()
	q := listQuery{
		Type:   strings.ToLower(strings.TrimSpace(values.Get("type"))),
		Limit:  catalog.DefaultLimit,
		Offset: 0,
	}
	details := map[string]string{}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details["limit"] = "must be an integer"
		}
		q.Limit = n
	}
	if v := strings.TrimSpace(values.Get("offset")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			details["offset"] = "must be an integer"
		}
		q.Offset = n
	}
	return q, details
}

// Get handles GET /models/{modelId}.
func (h *ModelsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("modelId")
	d, ok := h.catalog.Resolve(id)
	if !ok {
		respond.Error(w, http.StatusNotFound, respond.CodeNotFound, fmt.Sprintf("Model %s not found", id), nil)
		return
	}
	respond.JSON(w, http.StatusOK, view(d))
}
