package probe

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/pdwatch/internal/domain/series"
	"github.com/okian/pdwatch/internal/domain/types"
	"github.com/okian/pdwatch/pkg/logger"
)

const percentage = 100

// job is one report request and the check applied to its response.
type job struct {
	name  string
	path  string
	check func(context.Context, *httpClient, string) error
}

func fetch[T any](verify func(T) error) func(context.Context, *httpClient, string) error {
	return func(ctx context.Context, c *httpClient, path string) error {
		var v T
		if err := c.getJSON(ctx, path, &v); err != nil {
			return err
		}
		return verify(v)
	}
}

func noCheck[T any](T) error { return nil }

// Run executes a complete probe against cfg.BaseURL.
func Run(ctx context.Context, cfg Config) (*Stats, error) {
	cfg = cfg.withDefaults()
	log := logger.Get().Named("probe")
	stats := &Stats{StartTime: time.Now()}
	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting pdwatch probe",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("workers", cfg.Workers),
		logger.Int("rounds", cfg.Rounds),
		logger.Duration("timeout", cfg.Timeout))

	if err := checkHealth(ctx, client); err != nil {
		return stats, err
	}

	jobs, models, err := plan(ctx, client)
	if err != nil {
		return stats, fmt.Errorf("plan requests: %w", err)
	}
	stats.Models = models

	var all []job
	for range cfg.Rounds {
		all = append(all, jobs...)
	}

	var done atomic.Int64
	p := newPool(cfg.Workers, log)
	errs := p.run(ctx, all, func(ctx context.Context, j job) error {
		defer done.Add(1)
		if err := ctx.Err(); err != nil {
			return err
		}
		err := j.check(ctx, client, j.path)
		if cfg.Verbose {
			log.Info(ctx, "request", logger.String("job", j.name), logger.Bool("ok", err == nil))
		}
		return err
	})

	stats.Requests = int(done.Load())
	stats.Failed = len(errs)
	stats.Succeeded = stats.Requests - stats.Failed
	for i := range all {
		if err, ok := errs[i]; ok && errors.Is(err, ErrInconsistent) {
			stats.Violations = append(stats.Violations, err.Error())
		}
	}
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logStats(ctx, log, stats)

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrRequestFailed, stats.Failed, stats.Requests)
	}
	return stats, nil
}

type healthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// checkHealth verifies the service is live and has loaded its dataset.
func checkHealth(ctx context.Context, c *httpClient) error {
	var h healthResponse
	if err := c.getJSON(ctx, "/healthz", &h); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if !h.Ready {
		return fmt.Errorf("%w: dataset not loaded", ErrUnhealthy)
	}
	return nil
}

// plan lists every report the dashboard can request: each metric of each
// model, both default-rate modes per model, the risk matrix and the stats.
func plan(ctx context.Context, c *httpClient) ([]job, int, error) {
	var models []types.ModelSummary
	if err := c.getJSON(ctx, "/models", &models); err != nil {
		return nil, 0, err
	}

	jobs := []job{
		{name: "risk-matrix", path: "/risk-matrix", check: fetch(verifyRiskMatrix)},
		{name: "stats", path: "/stats", check: fetch(noCheck[types.Stats])},
	}
	for _, m := range models {
		id := strconv.Itoa(m.ID)
		var opts []types.MetricOption
		if err := c.getJSON(ctx, "/metric-options?"+url.Values{"model": {id}}.Encode(), &opts); err != nil {
			return nil, 0, err
		}
		for _, o := range opts {
			q := url.Values{"model": {id}, "metric": {o.Name}}
			jobs = append(jobs, job{
				name:  "metric " + id + "/" + o.Name,
				path:  "/reports/metric?" + q.Encode(),
				check: fetch(verifyMetricReport),
			})
		}
		for _, mode := range []series.Mode{series.ModePercentage, series.ModeMonetary} {
			q := url.Values{"model": {id}, "mode": {string(mode)}}
			jobs = append(jobs, job{
				name:  "default-rates " + id + "/" + string(mode),
				path:  "/reports/default-rates?" + q.Encode(),
				check: fetch(verifyDefaultRates),
			})
		}
	}
	return jobs, len(models), nil
}

// logStats prints the final probe statistics.
func logStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var successRate, requestsPerSecond float64
	if stats.Requests > 0 {
		successRate = float64(stats.Succeeded) / float64(stats.Requests) * percentage
	}
	if stats.Duration > 0 {
		requestsPerSecond = float64(stats.Requests) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("models", stats.Models),
		logger.Int("requests", stats.Requests),
		logger.Int("succeeded", stats.Succeeded),
		logger.Int("failed", stats.Failed),
		logger.Int("violations", len(stats.Violations)),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", successRate),
		logger.Float64("requestsPerSecond", requestsPerSecond))
	for _, v := range stats.Violations {
		log.Warn(ctx, "consistency violation", logger.String("detail", v))
	}
}
