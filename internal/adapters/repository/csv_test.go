package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/pdwatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

const (
	modelsCSV = `id,name,description,type,vol_carteira,risco_qualitativo,risco_quantitativo,risco_geral
1,MPD_01,Modelo de PD 01,binary,1500000,Baixo,Alto,Alto
2,MPD_02,Modelo de PD 02,continuous,1200000.0,Médio,Baixo,Médio
`
	metricsCSV = `model_id,metric_name,metric_value,metric_type,date
1,ROC-AUC,0.81,performance,2025-01-01
1,risk_level,Alto,risk,2025-01-01
2,PSI,0.12,stability,2025-02-01 00:00:00
2.0,taxa_default_realizada,,default,2025-03-01T00:00:00Z
`
	descriptionsCSV = `metric_name,description,attention,alert,type,direction
ROC-AUC,Area under the ROC curve,0.75,0.70,performance,higher_better
PSI,Population stability index,0.10,0.25,stability,lower_better
taxa_default_realizada,Realized default rate,,,default,
`
)

func writeFixture(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestCSVSource_Load(t *testing.T) {
	Convey("Given a data directory with the three tables", t, func() {
		dir := writeFixture(t, map[string]string{
			ModelsFile:       modelsCSV,
			MetricsFile:      metricsCSV,
			DescriptionsFile: descriptionsCSV,
		})

		Convey("When the source is loaded", func() {
			ds, err := NewCSVDirSource(dir).Load(context.Background())
			So(err, ShouldBeNil)

			Convey("Then every row is parsed", func() {
				So(ds.Counts(), ShouldResemble, map[string]int{
					TableModels: 2, TableMetrics: 4, TableDescriptions: 3,
				})
			})

			Convey("Then model columns are mapped by header name", func() {
				m := ds.Models[1]
				So(m.ID, ShouldEqual, 2)
				So(m.Type, ShouldEqual, model.ModelContinuous)
				So(m.Volume, ShouldEqual, 1200000)
				So(m.QualitativeRisk, ShouldEqual, "Médio")
			})

			Convey("Then every accepted date layout is read as UTC", func() {
				So(ds.Observations[0].Date, ShouldEqual, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
				So(ds.Observations[2].Date, ShouldEqual, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
				So(ds.Observations[3].Date, ShouldEqual, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC))
				So(ds.Observations[3].ModelID, ShouldEqual, 2)
			})

			Convey("Then categorical and blank values are kept as non-numeric", func() {
				So(ds.Observations[1].Value.IsNumeric(), ShouldBeFalse)
				So(ds.Observations[1].Value.String(), ShouldEqual, "Alto")
				_, ok := ds.Observations[3].Value.Float()
				So(ok, ShouldBeFalse)
			})

			Convey("Then empty thresholds and directions are absent and neutral", func() {
				d := ds.Descriptions[2]
				So(d.Thresholds.Empty(), ShouldBeTrue)
				So(d.Direction, ShouldEqual, model.Neutral)
				So(*ds.Descriptions[0].Thresholds.Alert, ShouldEqual, 0.70)
			})
		})
	})
}

func TestCSVSource_Errors(t *testing.T) {
	Convey("Given malformed tables", t, func() {
		ctx := context.Background()

		Convey("When a required column is missing", func() {
			dir := writeFixture(t, map[string]string{
				ModelsFile:       "id,name\n1,MPD_01\n",
				MetricsFile:      metricsCSV,
				DescriptionsFile: descriptionsCSV,
			})
			_, err := NewCSVDirSource(dir).Load(ctx)

			Convey("Then ErrMissingColumn names the column", func() {
				So(errors.Is(err, ErrMissingColumn), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "description")
			})
		})

		Convey("When a date cannot be parsed", func() {
			dir := writeFixture(t, map[string]string{
				ModelsFile:       modelsCSV,
				MetricsFile:      "model_id,metric_name,metric_value,metric_type,date\n1,PSI,0.1,stability,01/02/2025\n",
				DescriptionsFile: descriptionsCSV,
			})
			_, err := NewCSVDirSource(dir).Load(ctx)

			Convey("Then ErrParse carries the line number", func() {
				So(errors.Is(err, ErrParse), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "line 2")
			})
		})

		Convey("When the model type is unknown", func() {
			dir := writeFixture(t, map[string]string{
				ModelsFile:       "id,name,description,type,vol_carteira,risco_qualitativo,risco_quantitativo,risco_geral\n1,X,,ordinal,10,,,\n",
				MetricsFile:      metricsCSV,
				DescriptionsFile: descriptionsCSV,
			})
			_, err := NewCSVDirSource(dir).Load(ctx)

			Convey("Then the enum error surfaces", func() {
				So(errors.Is(err, model.ErrUnknownEnum), ShouldBeTrue)
			})
		})

		Convey("When a portfolio volume is not finite", func() {
			for _, vol := range []string{"NaN", "inf", "-Infinity"} {
				dir := writeFixture(t, map[string]string{
					ModelsFile:       "id,name,description,type,vol_carteira,risco_qualitativo,risco_quantitativo,risco_geral\n1,X,,binary," + vol + ",,,\n",
					MetricsFile:      metricsCSV,
					DescriptionsFile: descriptionsCSV,
				})
				_, err := NewCSVDirSource(dir).Load(ctx)
				So(errors.Is(err, ErrParse), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "vol_carteira")
			}
		})

		Convey("When a threshold is infinite", func() {
			dir := writeFixture(t, map[string]string{
				ModelsFile:       modelsCSV,
				MetricsFile:      metricsCSV,
				DescriptionsFile: "metric_name,description,attention,alert,type,direction\nPSI,x,0.1,inf,stability,lower_better\n",
			})
			_, err := NewCSVDirSource(dir).Load(ctx)
			So(errors.Is(err, ErrParse), ShouldBeTrue)
		})

		Convey("When a file does not exist", func() {
			_, err := NewCSVSource("missing.csv", "missing.csv", "missing.csv").Load(ctx)

			Convey("Then the open error is returned", func() {
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			})
		})
	})
}

func TestCSVSource_Options(t *testing.T) {
	Convey("Given a semicolon separated file with day-first dates", t, func() {
		dir := writeFixture(t, map[string]string{
			ModelsFile:       "id;name;description;type;vol_carteira;risco_qualitativo;risco_quantitativo;risco_geral\n1;M;d;binary;10;;;\n",
			MetricsFile:      "model_id;metric_name;metric_value;metric_type;date\n1;PSI;0.2;stability;15/03/2025\n",
			DescriptionsFile: "metric_name;description;attention;alert;type;direction\nPSI;p;0.1;0.25;stability;lower_better\n",
		})

		ds, err := NewCSVDirSource(dir, WithComma(';'), WithDateLayouts("02/01/2006")).Load(context.Background())

		So(err, ShouldBeNil)
		So(ds.Observations[0].Date, ShouldEqual, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	})
}

func TestWriteCSV_RoundTrip(t *testing.T) {
	Convey("Given a dataset written with WriteCSV", t, func() {
		src := Dataset{
			Models: []model.Model{{ID: 7, Name: "MPD_07", Description: "d, with comma", Type: model.ModelBinary, Volume: 1300000,
				QualitativeRisk: "Alto", QuantitativeRisk: "Baixo", OverallRisk: "Alto"}},
			Observations: []model.MetricObservation{
				{ModelID: 7, MetricName: "KS", Value: model.NumberValue(0.31), MetricType: model.MetricPerformance,
					Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
				{ModelID: 7, MetricName: "risk_level", Value: model.TextValue("Baixo"), MetricType: model.MetricRisk,
					Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
			},
			Descriptions: []model.MetricDescription{
				{MetricName: "KS", Description: "ks", Type: model.MetricPerformance, Direction: model.HigherBetter,
					Thresholds: model.Thresholds{Attention: model.Float(0.25), Alert: model.Float(0.20)}},
				{MetricName: "risk_level", Type: model.MetricRisk, Direction: model.Neutral},
			},
		}
		dir := filepath.Join(t.TempDir(), "data")
		So(WriteCSV(dir, src), ShouldBeNil)

		Convey("Then loading it back yields the same tables", func() {
			ds, err := NewCSVDirSource(dir).Load(context.Background())
			So(err, ShouldBeNil)
			So(ds.Models, ShouldResemble, src.Models)
			So(ds.Observations, ShouldResemble, src.Observations)
			So(ds.Descriptions, ShouldResemble, src.Descriptions)
		})
	})
}
