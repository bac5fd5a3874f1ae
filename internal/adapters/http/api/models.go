package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/pdwatch/internal/domain/types"
)

// ModelsDependencies defines the model read operations.
type ModelsDependencies interface {
	Models(ctx context.Context) ([]types.ModelSummary, error)
	Model(ctx context.Context, id int) (types.ModelSummary, error)
}

// ModelsHandler handles model requests.
type ModelsHandler struct {
	deps ModelsDependencies
}

// NewModelsHandler creates a new models handler.
func NewModelsHandler(deps ModelsDependencies) *ModelsHandler {
	return &ModelsHandler{deps: deps}
}

// HandleListModels handles GET /models.
func (h *ModelsHandler) HandleListModels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, ErrMethodNotAllowed)
		return
	}
	models, err := h.deps.Models(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, models)
}

// HandleGetModel handles GET /models/{id}.
func (h *ModelsHandler) HandleGetModel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, ErrMethodNotAllowed)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/models/")
	if path == "" || strings.Contains(path, "/") {
		writeError(w, http.StatusBadRequest, codeBadRequest, ErrBadRequest)
		return
	}
	id, err := parseModelID(path)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	m, err := h.deps.Model(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
