package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS models (
	id                 INTEGER PRIMARY KEY,
	name               TEXT NOT NULL,
	description        TEXT NOT NULL DEFAULT '',
	type               TEXT NOT NULL,
	vol_carteira       DOUBLE PRECISION NOT NULL,
	risco_qualitativo  TEXT,
	risco_quantitativo TEXT,
	risco_geral        TEXT
)`,
	`CREATE TABLE IF NOT EXISTS metrics (
	model_id     INTEGER NOT NULL,
	metric_name  TEXT NOT NULL,
	metric_value TEXT NOT NULL,
	metric_type  TEXT NOT NULL,
	date         TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS metrics_model_idx ON metrics (model_id, metric_name)`,
	`CREATE TABLE IF NOT EXISTS metric_descriptions (
	position    INTEGER NOT NULL,
	metric_name TEXT PRIMARY KEY,
	description TEXT NOT NULL DEFAULT '',
	attention   DOUBLE PRECISION,
	alert       DOUBLE PRECISION,
	type        TEXT NOT NULL,
	direction   TEXT NOT NULL DEFAULT 'neutral'
)`,
}

const (
	selectModels       = `SELECT id, name, description, type, vol_carteira, risco_qualitativo, risco_quantitativo, risco_geral FROM models ORDER BY id`
	selectMetrics      = `SELECT model_id, metric_name, metric_value, metric_type, date FROM metrics ORDER BY model_id, date, metric_name`
	selectDescriptions = `SELECT metric_name, description, attention, alert, type, direction FROM metric_descriptions ORDER BY position, metric_name`

	insertModel       = `INSERT INTO models (id, name, description, type, vol_carteira, risco_qualitativo, risco_quantitativo, risco_geral) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	insertMetric      = `INSERT INTO metrics (model_id, metric_name, metric_value, metric_type, date) VALUES (?, ?, ?, ?, ?)`
	insertDescription = `INSERT INTO metric_descriptions (position, metric_name, description, attention, alert, type, direction) VALUES (?, ?, ?, ?, ?, ?, ?)`
)

// Open opens a connection pool for driver and verifies it with a ping.
func Open(ctx context.Context, driver, dsn string, pool PoolConfig) (*sql.DB, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("%w: driver %q", ErrUnsupported, driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if pool.MaxOpenConns > 0 {
		db.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns > 0 {
		db.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.MaxIdleTime > 0 {
		db.SetConnMaxIdleTime(pool.MaxIdleTime)
	}

	pingCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// SQLSource reads the reference tables from a database.
type SQLSource struct {
	db     *sql.DB
	driver string
}

// NewSQLSource wraps an open database. driver selects the placeholder style.
func NewSQLSource(db *sql.DB, driver string) *SQLSource {
	return &SQLSource{db: db, driver: driver}
}

// Close closes the underlying pool.
func (s *SQLSource) Close() error { return s.db.Close() }

// Migrate creates the tables if they do not exist.
func (s *SQLSource) Migrate(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Import inserts ds in a single transaction.
func (s *SQLSource) Import(ctx context.Context, ds Dataset) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, m := range ds.Models {
		if _, err = tx.ExecContext(ctx, s.rebind(insertModel),
			m.ID, m.Name, m.Description, string(m.Type), m.Volume,
			m.QualitativeRisk, m.QuantitativeRisk, m.OverallRisk,
		); err != nil {
			return fmt.Errorf("insert model %d: %w", m.ID, err)
		}
	}
	for _, o := range ds.Observations {
		if _, err = tx.ExecContext(ctx, s.rebind(insertMetric),
			o.ModelID, o.MetricName, o.Value.String(), string(o.MetricType), o.Date.Format(time.DateOnly),
		); err != nil {
			return fmt.Errorf("insert metric %s for model %d: %w", o.MetricName, o.ModelID, err)
		}
	}
	for i, d := range ds.Descriptions {
		if _, err = tx.ExecContext(ctx, s.rebind(insertDescription),
			i, d.MetricName, d.Description, nullFloat(d.Thresholds.Attention), nullFloat(d.Thresholds.Alert),
			string(d.Type), string(d.Direction),
		); err != nil {
			return fmt.Errorf("insert description %s: %w", d.MetricName, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads every table.
func (s *SQLSource) Load(ctx context.Context) (Dataset, error) {
	var ds Dataset
	err := s.query(ctx, TableModels, selectModels, modelColumns, func(r record) error {
		m, err := parseModel(r)
		if err == nil {
			ds.Models = append(ds.Models, m)
		}
		return err
	})
	if err != nil {
		return Dataset{}, err
	}
	err = s.query(ctx, TableMetrics, selectMetrics, metricColumns, func(r record) error {
		o, err := parseObservation(r, DefaultDateLayouts)
		if err == nil {
			ds.Observations = append(ds.Observations, o)
		}
		return err
	})
	if err != nil {
		return Dataset{}, err
	}
	err = s.query(ctx, TableDescriptions, selectDescriptions, descriptionColumns, func(r record) error {
		d, err := parseDescription(r)
		if err == nil {
			ds.Descriptions = append(ds.Descriptions, d)
		}
		return err
	})
	if err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

// query scans every column as text so rows share the CSV parsers.
func (s *SQLSource) query(ctx context.Context, table, q string, cols []string, fn func(record) error) error {
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("query %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	vals := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	n := 0
	for rows.Next() {
		n++
		if err := rows.Scan(dest...); err != nil {
			return fmt.Errorf("scan %s row %d: %w", table, n, err)
		}
		rec := make(record, len(cols))
		for i, col := range cols {
			rec[col] = vals[i].String
		}
		if err := fn(rec); err != nil {
			return fmt.Errorf("%s row %d: %w", table, n, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate %s: %w", table, err)
	}
	return nil
}

// rebind rewrites ? placeholders to $n for postgres.
func (s *SQLSource) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

var _ Source = (*SQLSource)(nil)
