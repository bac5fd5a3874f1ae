package metrics

import (
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Dataset
	datasetRows         *prometheus.GaugeVec
	datasetLoadDuration prometheus.Histogram
	datasetLoadErrors   prometheus.Counter
	descriptionIssues   prometheus.Gauge

	// Classification and reports
	classifiedPoints     *prometheus.CounterVec
	unclassifiablePoints *prometheus.CounterVec
	droppedPivotDates    prometheus.Counter
	seriesErrors         *prometheus.CounterVec
	reportLatency        *prometheus.HistogramVec

	// Risk matrix
	riskCellModels     *prometheus.GaugeVec
	unclassifiedModels prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "pdwatch",
		subsystem:        "monitor",
		histogramBuckets: []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		customLabels:     map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
		ConstLabels: m.customLabels, Buckets: buckets,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.datasetRows = auto.NewGaugeVec(
		m.gaugeOpts("dataset_rows", "Rows loaded per reference table"),
		[]string{"table"},
	)
	m.datasetLoadDuration = auto.NewHistogram(
		m.histogramOpts("dataset_load_duration_milliseconds", "Time to load the reference tables", m.histogramBuckets),
	)
	m.datasetLoadErrors = auto.NewCounter(
		m.counterOpts("dataset_load_errors_total", "Failed dataset loads"),
	)
	m.descriptionIssues = auto.NewGauge(
		m.gaugeOpts("description_issues", "Metric descriptions whose thresholds are inconsistent with their direction"),
	)

	m.classifiedPoints = auto.NewCounterVec(
		m.counterOpts("classified_points_total", "Series points classified per metric and tier"),
		[]string{"metric", "tier"},
	)
	m.unclassifiablePoints = auto.NewCounterVec(
		m.counterOpts("unclassifiable_points_total", "Series points that carried no usable number"),
		[]string{"metric"},
	)
	m.droppedPivotDates = auto.NewCounter(
		m.counterOpts("dropped_pivot_dates_total", "Dates dropped because only one default-rate series had a value"),
	)
	m.seriesErrors = auto.NewCounterVec(
		m.counterOpts("series_errors_total", "Series reshaping failures by kind"),
		[]string{"kind"},
	)
	m.reportLatency = auto.NewHistogramVec(
		m.histogramOpts("report_latency_milliseconds", "Time to build a report", m.histogramBuckets),
		[]string{"report"},
	)

	m.riskCellModels = auto.NewGaugeVec(
		m.gaugeOpts("risk_cell_models", "Models per qualitative x quantitative risk cell"),
		[]string{"qualitative", "quantitative"},
	)
	m.unclassifiedModels = auto.NewGauge(
		m.gaugeOpts("risk_unclassified_models", "Models left out of the risk matrix"),
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)

	m.errorsByComponent = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Total number of errors by component"),
		[]string{"component", "error_type"},
	)
	m.errorsByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(
		m.gaugeOpts("system_memory_usage_bytes", "Heap memory in use in bytes"),
	)
	m.systemGoroutineCount = auto.NewGauge(
		m.gaugeOpts("system_goroutine_count", "Number of goroutines"),
	)
	m.systemGCPauseTime = auto.NewHistogram(
		m.histogramOpts("system_gc_pause_time_milliseconds", "Last GC pause time in milliseconds",
			[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}),
	)
}

// UpdateDatasetRows sets the row count of a reference table.
func UpdateDatasetRows(table string, rows int) {
	globalManager.datasetRows.WithLabelValues(table).Set(float64(rows))
}

// RecordDatasetLoad records a dataset load and whether it failed.
func RecordDatasetLoad(latencyMs float64, failed bool) {
	globalManager.datasetLoadDuration.Observe(latencyMs)
	if failed {
		globalManager.datasetLoadErrors.Inc()
	}
}

// UpdateDescriptionIssues sets the number of inconsistent metric descriptions.
func UpdateDescriptionIssues(count int) {
	globalManager.descriptionIssues.Set(float64(count))
}

// RecordClassified adds n points classified into tier for metric.
func RecordClassified(metric, tier string, n int) {
	if n > 0 {
		globalManager.classifiedPoints.WithLabelValues(metric, tier).Add(float64(n))
	}
}

// RecordUnclassifiable adds n points of metric that carried no number.
func RecordUnclassifiable(metric string, n int) {
	if n > 0 {
		globalManager.unclassifiablePoints.WithLabelValues(metric).Add(float64(n))
	}
}

// RecordDroppedPivotDates adds n dates dropped by the default-rate pivot.
func RecordDroppedPivotDates(n int) {
	if n > 0 {
		globalManager.droppedPivotDates.Add(float64(n))
	}
}

// RecordSeriesError counts a reshaping failure of the given kind.
func RecordSeriesError(kind string) {
	globalManager.seriesErrors.WithLabelValues(kind).Inc()
}

// RecordReportLatency records how long a report took to build.
func RecordReportLatency(report string, latencyMs float64) {
	globalManager.reportLatency.WithLabelValues(report).Observe(latencyMs)
}

// UpdateRiskCell sets the model count of a risk-matrix cell.
func UpdateRiskCell(qualitative, quantitative string, count int) {
	globalManager.riskCellModels.WithLabelValues(qualitative, quantitative).Set(float64(count))
}

// UpdateUnclassifiedModels sets the number of models outside the risk matrix.
func UpdateUnclassifiedModels(count int) {
	globalManager.unclassifiedModels.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the heap memory in use.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// CollectSystem samples runtime statistics into the system gauges.
func CollectSystem() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	UpdateSystemMemoryUsage(ms.HeapInuse)
	UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		last := ms.PauseNs[(ms.NumGC+255)%256]
		RecordSystemGCPauseTime(float64(time.Duration(last)) / float64(time.Millisecond))
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}

// Handler serves the custom registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(customRegistry, promhttp.HandlerOpts{})
}
