// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/pdwatch/internal/app"
	"github.com/okian/pdwatch/internal/domain/model"
	"github.com/okian/pdwatch/internal/domain/series"
	"github.com/okian/pdwatch/internal/domain/types"
	"github.com/okian/pdwatch/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	StatsProvider
	Models(ctx context.Context) ([]types.ModelSummary, error)
	Model(ctx context.Context, id int) (types.ModelSummary, error)
	MetricOptions(ctx context.Context, modelID int, metricType model.MetricType) ([]types.MetricOption, error)
	RiskMatrix(ctx context.Context) (types.RiskMatrix, error)
	MetricReport(ctx context.Context, q service.MetricQuery) (types.MetricReport, error)
	DefaultRateReport(ctx context.Context, q service.RateQuery) (types.DefaultRateReport, error)
}

// Server wires HTTP routes for the monitoring API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	modelsHandler  *ModelsHandler
	reportsHandler *ReportsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(deps),
		statsHandler:   NewStatsHandler(deps),
		modelsHandler:  NewModelsHandler(deps),
		reportsHandler: NewReportsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/models", MetricsMiddleware(s.modelsHandler.HandleListModels, "models"))
	mux.HandleFunc("/models/", MetricsMiddleware(s.modelsHandler.HandleGetModel, "model"))
	mux.HandleFunc("/metric-options", MetricsMiddleware(s.reportsHandler.HandleMetricOptions, "metric_options"))
	mux.HandleFunc("/risk-matrix", MetricsMiddleware(s.reportsHandler.HandleRiskMatrix, "risk_matrix"))
	mux.HandleFunc("/reports/metric", MetricsMiddleware(s.reportsHandler.HandleMetricReport, "report_metric"))
	mux.HandleFunc("/reports/default-rates", MetricsMiddleware(s.reportsHandler.HandleDefaultRates, "report_default_rates"))
}

// Error codes of the JSON error envelope.
const (
	codeBadRequest       = "bad_request"
	codeMethodNotAllowed = "method_not_allowed"
	codeNotFound         = "not_found"
	codeInvalidSeries    = "invalid_series"
	codeNotReady         = "not_ready"
	codeInternal         = "internal_error"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeServiceError translates service and reshaping errors into the error envelope.
func writeServiceError(w http.ResponseWriter, err error) {
	status, code := classifyError(err)
	writeError(w, status, code, err)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrModelNotFound):
		return http.StatusNotFound, codeNotFound
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, service.ErrInvalidArgument),
		errors.Is(err, series.ErrInvalidRange),
		errors.Is(err, series.ErrInvalidMode):
		return http.StatusBadRequest, codeBadRequest
	case errors.Is(err, series.ErrDuplicateObservation),
		errors.Is(err, series.ErrMissingSeries),
		errors.Is(err, series.ErrNonNumeric):
		return http.StatusUnprocessableEntity, codeInvalidSeries
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, codeNotReady
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
