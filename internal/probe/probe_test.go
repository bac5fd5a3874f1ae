package probe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/pdwatch/internal/adapters/http/api"
	"github.com/okian/pdwatch/internal/adapters/repository"
	service "github.com/okian/pdwatch/internal/app"
	"github.com/okian/pdwatch/internal/domain/classify"
	"github.com/okian/pdwatch/internal/domain/model"
	"github.com/okian/pdwatch/internal/domain/risk"
	"github.com/okian/pdwatch/internal/domain/series"
	"github.com/okian/pdwatch/internal/domain/types"
	"github.com/okian/pdwatch/internal/synth"
	"github.com/okian/pdwatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
	_ = logger.SetLevelString("error")
}

type fixedSource struct{ ds repository.Dataset }

func (f fixedSource) Load(context.Context) (repository.Dataset, error) { return f.ds, nil }

func newTestServer(t *testing.T, start bool) *httptest.Server {
	t.Helper()
	svc := service.New(service.WithSource(fixedSource{synth.Generate(synth.Config{Models: 3, Months: 4, Seed: 11})}, "memory"))
	if start {
		if err := svc.Start(context.Background()); err != nil {
			t.Fatalf("start: %v", err)
		}
	}
	mux := http.NewServeMux()
	api.NewServer(svc).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running pdwatch", t, func() {
		srv := newTestServer(t, true)

		Convey("When the probe runs two rounds", func() {
			stats, err := Run(context.Background(), Config{BaseURL: srv.URL, Workers: 4, Rounds: 2, Timeout: 5 * time.Second})

			Convey("Then every report is consistent", func() {
				So(err, ShouldBeNil)
				So(stats.Models, ShouldEqual, 3)
				// per model: 11 metrics + 2 default-rate modes; plus risk matrix and stats
				So(stats.Requests, ShouldEqual, 2*(3*(11+2)+2))
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Violations, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a service that has not loaded its dataset", t, func() {
		srv := newTestServer(t, false)

		Convey("Then the probe reports it unhealthy", func() {
			_, err := Run(context.Background(), Config{BaseURL: srv.URL, Workers: 1})
			So(errors.Is(err, ErrUnhealthy), ShouldBeTrue)
		})
	})
}

func TestVerify(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }

	Convey("Given a metric report", t, func() {
		pts := []classify.Point{
			{Date: day(1), Value: model.NumberValue(0.8), Result: classify.Result{Tier: classify.Good, Classifiable: true}},
			{Date: day(2), Value: model.NumberValue(0.6), Result: classify.Result{Tier: classify.Alert, Classifiable: true}},
		}
		r := types.MetricReport{Metric: "ROC-AUC", Points: pts, Summary: classify.Summary{Good: 1, Alert: 1}, Latest: &pts[1]}

		Convey("Then a consistent report passes", func() {
			So(verifyMetricReport(r), ShouldBeNil)
		})

		Convey("Then a wrong summary is a violation", func() {
			r.Summary.Alert = 0
			So(errors.Is(verifyMetricReport(r), ErrInconsistent), ShouldBeTrue)
		})

		Convey("Then a stale latest point is a violation", func() {
			r.Latest = &pts[0]
			So(errors.Is(verifyMetricReport(r), ErrInconsistent), ShouldBeTrue)
		})
	})

	Convey("Given a default-rate report", t, func() {
		r := types.DefaultRateReport{
			ModelID: 1,
			Volume:  1000,
			Rates: []series.RatePoint{
				{Date: day(1), Realized: 0.02, Estimated: 0.03, RealizedPct: 2, EstimatedPct: 3},
			},
			PDError: &types.PDErrorSeries{Mode: series.ModePercentage, Points: []series.ErrorPoint{{Date: day(1), Error: 1}}},
			Latest:  &types.LatestRates{Date: day(1)},
		}

		Convey("Then a consistent report passes", func() {
			So(verifyDefaultRates(r), ShouldBeNil)
		})

		Convey("Then a wrong error value is a violation", func() {
			r.PDError.Points[0].Error = -1
			So(errors.Is(verifyDefaultRates(r), ErrInconsistent), ShouldBeTrue)
		})

		Convey("Then monetary errors scale by volume", func() {
			r.PDError = &types.PDErrorSeries{Mode: series.ModeMonetary, Points: []series.ErrorPoint{{Date: day(1), Error: 10}}}
			So(verifyDefaultRates(r), ShouldBeNil)
		})
	})

	Convey("Given a risk matrix", t, func() {
		var m types.RiskMatrix
		for _, q := range risk.Levels() {
			for _, qt := range risk.Levels() {
				m.Cells = append(m.Cells, risk.Cell{Qualitative: q, Quantitative: qt})
			}
		}
		m.Cells[0].Count, m.Cells[0].Models = 1, []string{"MPD_01"}
		m.Classified, m.Total = 1, 2
		m.Unclassified = []risk.Unclassified{{ModelID: 2, Name: "MPD_02", Reason: "unknown level"}}

		Convey("Then a consistent matrix passes", func() {
			So(verifyRiskMatrix(m), ShouldBeNil)
		})

		Convey("Then a model missing from the totals is a violation", func() {
			m.Total = 3
			So(errors.Is(verifyRiskMatrix(m), ErrInconsistent), ShouldBeTrue)
		})
	})
}
