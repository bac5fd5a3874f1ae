package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/pdwatch/internal/adapters/http/api"
	"github.com/okian/pdwatch/internal/adapters/http/site"
	"github.com/okian/pdwatch/internal/adapters/http/swagger"
	"github.com/okian/pdwatch/internal/adapters/repository"
	app "github.com/okian/pdwatch/internal/app"
	"github.com/okian/pdwatch/internal/config"
	"github.com/okian/pdwatch/pkg/logger"
	"github.com/okian/pdwatch/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout           = 10 * time.Second
	writeTimeout          = 10 * time.Second
	idleTimeout           = 60 * time.Second
	readHeaderTimeout     = 5 * time.Second
	shutdownTimeout       = 30 * time.Second
	systemMetricsInterval = 10 * time.Second
	datasetMetricsPeriod  = 30 * time.Second
)

func main() {
	// System metrics are collected on the custom registry instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	if err := logger.Init(logger.WithFormat(logger.Format(cfg.LogFormat))); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "pdwatch stopped with error", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	src, err := newSource(ctx, cfg)
	if err != nil {
		return err
	}

	svc := app.New(
		app.WithLogger(log.Named("service")),
		app.WithSource(src, cfg.Source),
		app.WithPDErrorRange(cfg.PDErrorRange),
	)
	defer svc.Stop()
	if err := svc.Start(ctx); err != nil {
		if c, ok := src.(io.Closer); ok {
			_ = c.Close()
		}
		return fmt.Errorf("start service: %w", err)
	}

	go startSystemMetricsUpdater(ctx)
	go startDatasetMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, svc, log.Named("http")),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newSource builds the dataset source selected by cfg.Source.
func newSource(ctx context.Context, cfg *config.Config) (repository.Source, error) {
	switch cfg.Source {
	case config.SourceCSV:
		return repository.NewCSVSource(cfg.ModelsPath, cfg.MetricsPath, cfg.DescriptionsPath), nil
	case config.SourcePostgres, config.SourceSQLite:
		driver := repository.DriverPostgres
		if cfg.Source == config.SourceSQLite {
			driver = repository.DriverSQLite
		}
		db, err := repository.Open(ctx, driver, cfg.DSN, repository.PoolConfig{
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
			MaxIdleTime:  cfg.DBConnMaxIdle,
		})
		if err != nil {
			return nil, err
		}
		return repository.NewSQLSource(db, driver), nil
	default:
		return nil, fmt.Errorf("%w: source %q", config.ErrInvalidConfig, cfg.Source)
	}
}

// newHandler registers every route and wraps the mux with request ids.
func newHandler(ctx context.Context, svc *app.Service, log logger.Logger) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	site.Register(ctx, mux)
	api.NewServer(svc).Register(mux)
	return api.RequestIDMiddleware(mux, log)
}

// startSystemMetricsUpdater samples runtime statistics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.CollectSystem()
		}
	}
}

// startDatasetMetricsUpdater periodically re-publishes the dataset gauges from the service stats.
func startDatasetMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(datasetMetricsPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateDatasetMetrics(svc)
		}
	}
}

func updateDatasetMetrics(svc *app.Service) {
	stats := svc.GetStats()
	for table, rows := range stats.Tables {
		metrics.UpdateDatasetRows(table, rows)
	}
	metrics.UpdateDescriptionIssues(stats.DescriptionIssues)
}
