package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func gatherNames(reg *prometheus.Registry) map[string]bool {
	mfs, err := reg.Gather()
	So(err, ShouldBeNil)
	names := make(map[string]bool, len(mfs))
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	return names
}

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10}),
				WithCustomLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			So(manager, ShouldNotBeNil)

			manager.datasetRows.WithLabelValues("models").Set(3)
			manager.unclassifiedModels.Set(1)

			Convey("Then collectors use the namespace and constant labels", func() {
				mfs, err := registry.Gather()
				So(err, ShouldBeNil)
				var found bool
				for _, mf := range mfs {
					if mf.GetName() != "test_unit_dataset_rows" {
						continue
					}
					found = true
					m := mf.GetMetric()[0]
					So(m.GetGauge().GetValue(), ShouldEqual, 3)
					labels := map[string]string{}
					for _, lp := range m.GetLabel() {
						labels[lp.GetName()] = lp.GetValue()
					}
					So(labels, ShouldResemble, map[string]string{"env": "test", "table": "models"})
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When two managers share a registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording every metric kind", func() {
			So(func() {
				UpdateDatasetRows("metrics", 1200)
				RecordDatasetLoad(12.5, false)
				RecordDatasetLoad(3, true)
				UpdateDescriptionIssues(0)
				RecordClassified("PSI", "alert", 2)
				RecordClassified("PSI", "good", 0)
				RecordUnclassifiable("risk_level", 4)
				RecordDroppedPivotDates(1)
				RecordSeriesError("duplicate")
				RecordReportLatency("metric", 0.8)
				UpdateRiskCell("Alto", "Baixo", 2)
				UpdateUnclassifiedModels(1)
				RecordHTTPRequest("/models", "GET", "200")
				RecordHTTPRequestDuration("/models", "GET", "200", 1.2)
				RecordErrorByComponent("http", "not_found")
				RecordErrorByEndpoint("/reports/metric", "GET", "bad_request")
				CollectSystem()
			}, ShouldNotPanic)

			Convey("Then the families appear in the custom registry", func() {
				names := gatherNames(GetRegistry())
				for _, n := range []string{
					"pdwatch_monitor_dataset_rows",
					"pdwatch_monitor_dataset_load_errors_total",
					"pdwatch_monitor_classified_points_total",
					"pdwatch_monitor_unclassifiable_points_total",
					"pdwatch_monitor_dropped_pivot_dates_total",
					"pdwatch_monitor_series_errors_total",
					"pdwatch_monitor_risk_cell_models",
					"pdwatch_monitor_http_requests_total",
					"pdwatch_monitor_system_goroutine_count",
				} {
					So(names[n], ShouldBeTrue)
				}
			})
		})
	})
}

func TestMetricsHandler(t *testing.T) {
	Convey("Given the exposition handler", t, func() {
		UpdateUnclassifiedModels(2)
		rec := httptest.NewRecorder()
		Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		Convey("Then it serves the text format", func() {
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.Contains(rec.Body.String(), "pdwatch_monitor_risk_unclassified_models 2"), ShouldBeTrue)
		})
	})
}
