package handler

import (
	"net/http"
	"time"

	"modelarena/internal/gateway/respond"
)

type HealthHandler struct {
	version string
	started time.Time
	now     func() time.Time
}

func NewHealthHandler(version string, started time.Time, now func() time.Time) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{version: version, started: started, now: now}
}

type healthResponse struct {
	Status    string  `json:"status"`
	Timestamp string  `json:"timestamp"`
	Version   string  `json:"version"`
	Uptime    float64 `json:"uptime"`
}

// ServeHTTP handles GET /health.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	now := h.now()
	respond.JSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: respond.Timestamp(now),
		Version:   h.version,
		Uptime:    now.Sub(h.started).Seconds(),
	})
}
