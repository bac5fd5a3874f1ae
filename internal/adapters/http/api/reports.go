package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	service "github.com/okian/pdwatch/internal/app"
	"github.com/okian/pdwatch/internal/domain/model"
	"github.com/okian/pdwatch/internal/domain/series"
	"github.com/okian/pdwatch/internal/domain/types"
)

// ReportsDependencies defines the report operations.
type ReportsDependencies interface {
	MetricOptions(ctx context.Context, modelID int, metricType model.MetricType) ([]types.MetricOption, error)
	RiskMatrix(ctx context.Context) (types.RiskMatrix, error)
	MetricReport(ctx context.Context, q service.MetricQuery) (types.MetricReport, error)
	DefaultRateReport(ctx context.Context, q service.RateQuery) (types.DefaultRateReport, error)
}

// ReportsHandler serves the dashboard reports.
type ReportsHandler struct {
	deps ReportsDependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps ReportsDependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

// HandleMetricOptions handles GET /metric-options?model=&type=.
func (h *ReportsHandler) HandleMetricOptions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, ErrMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	id, err := queryModelID(q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	mt, err := queryMetricType(q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	opts, err := h.deps.MetricOptions(r.Context(), id, mt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

// HandleRiskMatrix handles GET /risk-matrix.
func (h *ReportsHandler) HandleRiskMatrix(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, ErrMethodNotAllowed)
		return
	}
	m, err := h.deps.RiskMatrix(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// HandleMetricReport handles GET /reports/metric?model=&metric=&start=&end=.
func (h *ReportsHandler) HandleMetricReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, ErrMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	id, err := queryModelID(q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	metric := strings.TrimSpace(q.Get("metric"))
	if metric == "" {
		writeServiceError(w, fmt.Errorf("%w: missing metric", ErrBadRequest))
		return
	}
	start, end, err := queryRange(q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	report, err := h.deps.MetricReport(r.Context(), service.MetricQuery{ModelID: id, Metric: metric, Start: start, End: end})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// HandleDefaultRates handles GET /reports/default-rates?model=&mode=&start=&end=.
func (h *ReportsHandler) HandleDefaultRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, ErrMethodNotAllowed)
		return
	}
	q := r.URL.Query()
	id, err := queryModelID(q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	mode, err := series.ParseMode(q.Get("mode"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	start, end, err := queryRange(q)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	report, err := h.deps.DefaultRateReport(r.Context(), service.RateQuery{ModelID: id, Mode: mode, Start: start, End: end})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}
