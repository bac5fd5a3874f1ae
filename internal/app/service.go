// Package service owns the loaded reference tables and builds the reports
// served by the HTTP API.
package service

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/okian/pdwatch/internal/adapters/repository"
	"github.com/okian/pdwatch/internal/domain/model"
	"github.com/okian/pdwatch/internal/domain/registry"
	"github.com/okian/pdwatch/internal/domain/risk"
	"github.com/okian/pdwatch/internal/domain/series"
	"github.com/okian/pdwatch/pkg/logger"
	"github.com/okian/pdwatch/pkg/metrics"
)

// NoDataMessage accompanies reports whose filters matched nothing.
const NoDataMessage = "Não há dados disponíveis para os filtros selecionados."

const defaultPDErrorRange = 5

// Service implements the API dependencies for the monitoring dashboard.
type Service struct {
	mu sync.RWMutex

	source       repository.Source
	sourceName   string
	pdErrorRange float64
	now          func() time.Time

	started bool
	snap    *snapshot

	logger logger.Logger
}

// snapshot is the immutable state built by Start.
type snapshot struct {
	loadedAt time.Time
	counts   map[string]int
	models   []model.Model
	byID     map[int]model.Model
	obs      map[int][]model.MetricObservation
	first    time.Time
	last     time.Time
	hasDates bool
	registry *registry.Registry
	order    map[string]int
	matrix   risk.Matrix
	issues   int
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSource sets where the reference tables are loaded from; name is reported in stats.
func WithSource(src repository.Source, name string) Option {
	return func(s *Service) {
		if src != nil {
			s.source = src
			s.sourceName = name
		}
	}
}

// WithPDErrorRange sets the symmetric y-axis hint of the percentage PD error chart.
func WithPDErrorRange(r float64) Option {
	return func(s *Service) {
		if r > 0 {
			s.pdErrorRange = r
		}
	}
}

// New constructs a Service. Start must be called before serving reports.
func New(opts ...Option) *Service {
	s := &Service{
		pdErrorRange: defaultPDErrorRange,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start loads the reference tables once and indexes them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.source == nil {
		return ErrNoSource
	}

	s.logger.Info(ctx, "loading dataset", logger.String("source", s.sourceName))
	began := time.Now()
	ds, err := s.source.Load(ctx)
	metrics.RecordDatasetLoad(sinceMs(began), err != nil)
	if err != nil {
		metrics.RecordErrorByComponent("repository", "load")
		return fmt.Errorf("load dataset: %w", err)
	}

	snap, err := s.index(ctx, ds)
	if err != nil {
		return err
	}
	snap.loadedAt = s.now()
	s.snap = snap
	s.started = true

	s.logger.Info(ctx, "dataset loaded",
		logger.Int("models", len(ds.Models)),
		logger.Int("observations", len(ds.Observations)),
		logger.Int("descriptions", len(ds.Descriptions)),
		logger.Duration("took", time.Since(began)),
	)
	return nil
}

func (s *Service) index(ctx context.Context, ds repository.Dataset) (*snapshot, error) {
	reg, err := registry.New(ds.Descriptions)
	if err != nil {
		return nil, fmt.Errorf("metric descriptions: %w", err)
	}
	snap := &snapshot{
		counts:   ds.Counts(),
		models:   ds.Models,
		byID:     make(map[int]model.Model, len(ds.Models)),
		obs:      make(map[int][]model.MetricObservation),
		registry: reg,
		order:    make(map[string]int, reg.Len()),
	}
	for table, n := range snap.counts {
		metrics.UpdateDatasetRows(table, n)
	}

	issues := reg.Check()
	for _, e := range issues {
		s.logger.Warn(ctx, "metric description inconsistent", logger.Error(e))
	}
	snap.issues = len(issues)
	metrics.UpdateDescriptionIssues(len(issues))

	for i, name := range reg.Names("") {
		snap.order[name] = i
	}
	for _, m := range ds.Models {
		if _, dup := snap.byID[m.ID]; dup {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateModel, m.ID)
		}
		snap.byID[m.ID] = m
	}
	for _, o := range ds.Observations {
		if _, ok := snap.byID[o.ModelID]; !ok {
			s.logger.Debug(ctx, "observation for unknown model", logger.Int("model_id", o.ModelID),
				logger.String("metric", o.MetricName))
		}
		snap.obs[o.ModelID] = append(snap.obs[o.ModelID], o)
	}
	snap.first, snap.last, snap.hasDates = series.DateBounds(ds.Observations)

	snap.matrix = risk.BuildMatrix(ds.Models)
	for _, c := range snap.matrix.Cells() {
		metrics.UpdateRiskCell(c.Qualitative.String(), c.Quantitative.String(), c.Count)
	}
	metrics.UpdateUnclassifiedModels(len(snap.matrix.Unclassified))
	for _, u := range snap.matrix.Unclassified {
		s.logger.Warn(ctx, "model left out of risk matrix",
			logger.Int("model_id", u.ModelID), logger.String("name", u.Name), logger.String("reason", u.Reason))
	}
	return snap, nil
}

// Stop releases the source when it holds resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if c, ok := s.source.(io.Closer); ok {
		if err := c.Close(); err != nil {
			s.logger.Warn(context.Background(), "closing source", logger.Error(err))
		}
	}
	s.started = false
	s.snap = nil
	s.logger.Info(context.Background(), "service stopped")
}

// Started reports whether the dataset has been loaded.
func (s *Service) Started() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}

func (s *Service) current() (*snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.snap, nil
}

func (snap *snapshot) model(id int) (model.Model, error) {
	m, ok := snap.byID[id]
	if !ok {
		return model.Model{}, fmt.Errorf("%w: %d", ErrModelNotFound, id)
	}
	return m, nil
}

// rank orders metric names by description table position, undescribed names last.
func (snap *snapshot) rank(name string) int {
	if i, ok := snap.order[name]; ok {
		return i
	}
	return len(snap.order)
}

func (snap *snapshot) sortNames(names []string) {
	slices.SortStableFunc(names, func(a, b string) int { return cmp.Compare(snap.rank(a), snap.rank(b)) })
}

func sinceMs(t time.Time) float64 {
	return float64(time.Since(t)) / float64(time.Millisecond)
}

// seriesErrorKind names a reshaping failure for metrics and logs.
func seriesErrorKind(err error) string {
	switch {
	case errors.Is(err, series.ErrDuplicateObservation):
		return "duplicate"
	case errors.Is(err, series.ErrMissingSeries):
		return "missing_series"
	case errors.Is(err, series.ErrNonNumeric):
		return "non_numeric"
	case errors.Is(err, series.ErrInvalidRange):
		return "invalid_range"
	case errors.Is(err, series.ErrInvalidMode):
		return "invalid_mode"
	default:
		return "other"
	}
}
