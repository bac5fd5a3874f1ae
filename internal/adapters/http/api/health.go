package api

import (
	"net/http"
)

// HealthHandler handles liveness checks.
type HealthHandler struct {
	stats StatsProvider
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(stats StatsProvider) *HealthHandler {
	return &HealthHandler{stats: stats}
}

type healthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// HandleHealth handles GET /healthz. The process is live as soon as it
// serves; ready reports whether the dataset is loaded.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, ErrMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Ready: h.stats.GetStats().Started})
}
