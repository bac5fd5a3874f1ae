package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/okian/pdwatch/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSQLSource_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM models").
		WillReturnRows(sqlmock.NewRows(modelColumns).
			AddRow(int64(1), "MPD_01", "Modelo 01", "binary", 1.5e6, "Baixo", "Alto", "Alto").
			AddRow(int64(2), "MPD_02", "Modelo 02", "continuous", 1.2e6, nil, nil, nil))
	mock.ExpectQuery("SELECT (.+) FROM metrics").
		WillReturnRows(sqlmock.NewRows(metricColumns).
			AddRow(int64(1), "PSI", "0.12", "stability", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)).
			AddRow(int64(2), "risk_level", "Médio", "risk", "2025-02-01"))
	mock.ExpectQuery("SELECT (.+) FROM metric_descriptions").
		WillReturnRows(sqlmock.NewRows(descriptionColumns).
			AddRow("PSI", "psi", 0.10, 0.25, "stability", "lower_better").
			AddRow("risk_level", "", nil, nil, "risk", "neutral"))

	ds, err := NewSQLSource(db, DriverPostgres).Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(ds.Models) != 2 || ds.Models[0].Volume != 1.5e6 || ds.Models[1].OverallRisk != "" {
		t.Errorf("unexpected models: %+v", ds.Models)
	}
	if got := ds.Observations[0].Date; !got.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp date scanned as %v", got)
	}
	if got := ds.Observations[1].Date; !got.Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("text date scanned as %v", got)
	}
	if v, ok := ds.Observations[0].Value.Float(); !ok || v != 0.12 {
		t.Errorf("metric value = %v, %v", v, ok)
	}
	if ds.Descriptions[1].Thresholds.Attention != nil {
		t.Errorf("NULL attention should be absent")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %s", err)
	}
}

func TestSQLSource_LoadQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectQuery("SELECT (.+) FROM models").WillReturnError(boom)

	_, err = NewSQLSource(db, DriverPostgres).Load(context.Background())
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped query error, got %v", err)
	}
}

func TestSQLSource_ImportPostgresPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	day := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	ds := Dataset{
		Models: []model.Model{{ID: 1, Name: "MPD_01", Type: model.ModelBinary, Volume: 10}},
		Observations: []model.MetricObservation{
			{ModelID: 1, MetricName: "KS", Value: model.NumberValue(0.3), MetricType: model.MetricPerformance, Date: day},
		},
		Descriptions: []model.MetricDescription{
			{MetricName: "KS", Type: model.MetricPerformance, Direction: model.HigherBetter,
				Thresholds: model.Thresholds{Attention: model.Float(0.25)}},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO models (id, name, description, type, vol_carteira, risco_qualitativo, risco_quantitativo, risco_geral) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`).
		WithArgs(1, "MPD_01", "", "binary", 10.0, "", "", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO metrics (model_id, metric_name, metric_value, metric_type, date) VALUES ($1, $2, $3, $4, $5)`).
		WithArgs(1, "KS", "0.3", "performance", "2025-05-01").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO metric_descriptions (position, metric_name, description, attention, alert, type, direction) VALUES ($1, $2, $3, $4, $5, $6, $7)`).
		WithArgs(0, "KS", "", 0.25, nil, "performance", "higher_better").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := NewSQLSource(db, DriverPostgres).Import(context.Background(), ds); err != nil {
		t.Fatalf("Import failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %s", err)
	}
}

func TestSQLSource_ImportRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO models").WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	ds := Dataset{Models: []model.Model{{ID: 1, Name: "MPD_01", Type: model.ModelBinary}}}
	if err := NewSQLSource(db, DriverSQLite).Import(context.Background(), ds); err == nil {
		t.Fatal("expected import error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %s", err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn", PoolConfig{})
	if !errors.Is(err, ErrUnsupported) {
		t.Errorf("expected ErrUnsupported, got %v", err)
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	Convey("Given a migrated sqlite database", t, func() {
		ctx := context.Background()
		db, err := Open(ctx, DriverSQLite, filepath.Join(t.TempDir(), "pdwatch.db"), PoolConfig{MaxOpenConns: 1})
		So(err, ShouldBeNil)
		src := NewSQLSource(db, DriverSQLite)
		defer src.Close()
		So(src.Migrate(ctx), ShouldBeNil)
		So(src.Migrate(ctx), ShouldBeNil)

		Convey("When a dataset is imported", func() {
			day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
			in := Dataset{
				Models: []model.Model{
					{ID: 2, Name: "MPD_02", Description: "b", Type: model.ModelContinuous, Volume: 1200000,
						QualitativeRisk: "Médio", QuantitativeRisk: "Baixo", OverallRisk: "Médio"},
					{ID: 1, Name: "MPD_01", Description: "a", Type: model.ModelBinary, Volume: 1500000,
						QualitativeRisk: "Baixo", QuantitativeRisk: "Alto", OverallRisk: "Alto"},
				},
				Observations: []model.MetricObservation{
					{ModelID: 1, MetricName: "risk_level", Value: model.TextValue("Alto"), MetricType: model.MetricRisk, Date: day},
					{ModelID: 1, MetricName: "PSI", Value: model.NumberValue(0.08), MetricType: model.MetricStability, Date: day},
				},
				Descriptions: []model.MetricDescription{
					{MetricName: "PSI", Description: "psi", Type: model.MetricStability, Direction: model.LowerBetter,
						Thresholds: model.Thresholds{Attention: model.Float(0.1), Alert: model.Float(0.25)}},
					{MetricName: "risk_level", Description: "level", Type: model.MetricRisk, Direction: model.Neutral},
				},
			}
			So(src.Import(ctx, in), ShouldBeNil)

			Convey("Then Load returns it ordered by key and table position", func() {
				out, err := src.Load(ctx)
				So(err, ShouldBeNil)
				So(out.Models, ShouldResemble, []model.Model{in.Models[1], in.Models[0]})
				So(out.Observations, ShouldResemble, []model.MetricObservation{in.Observations[1], in.Observations[0]})
				So(out.Descriptions, ShouldResemble, in.Descriptions)
			})
		})
	})
}
