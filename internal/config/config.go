// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"time"
)

// Data source kinds.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// Source selects where the reference tables are read from.
	Source string `koanf:"source"`

	// CSV table paths, used when Source is csv.
	ModelsPath       string `koanf:"models_path"`
	MetricsPath      string `koanf:"metrics_path"`
	DescriptionsPath string `koanf:"descriptions_path"`

	// DSN is the database connection string for postgres or sqlite.
	DSN string `koanf:"dsn"`

	DBMaxOpenConns int           `koanf:"db_max_open_conns"`
	DBMaxIdleConns int           `koanf:"db_max_idle_conns"`
	DBConnMaxIdle  time.Duration `koanf:"db_conn_max_idle"`

	// PDErrorRange is the symmetric y-axis hint for the PD error chart in percentage mode.
	PDErrorRange float64 `koanf:"pd_error_range"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		Addr:             ":9080",
		Source:           SourceCSV,
		ModelsPath:       "data/models.csv",
		MetricsPath:      "data/metrics.csv",
		DescriptionsPath: "data/metricas_descricao.csv",
		DBMaxOpenConns:   10,
		DBMaxIdleConns:   5,
		DBConnMaxIdle:    5 * time.Minute,
		PDErrorRange:     5,
	}
}

// Validate checks field combinations that Load cannot express through types.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	}
	switch c.Source {
	case SourceCSV:
		if c.ModelsPath == "" || c.MetricsPath == "" || c.DescriptionsPath == "" {
			return fmt.Errorf("%w: csv source needs models_path, metrics_path and descriptions_path", ErrInvalidConfig)
		}
	case SourcePostgres, SourceSQLite:
		if c.DSN == "" {
			return fmt.Errorf("%w: dsn must be set for source %q", ErrInvalidConfig, c.Source)
		}
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Source)
	}
	if c.PDErrorRange <= 0 {
		return fmt.Errorf("%w: pd_error_range must be positive", ErrInvalidConfig)
	}
	if c.DBMaxOpenConns < 0 || c.DBMaxIdleConns < 0 {
		return fmt.Errorf("%w: connection pool sizes must not be negative", ErrInvalidConfig)
	}
	return nil
}
