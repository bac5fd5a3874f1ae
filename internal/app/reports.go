package service

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/okian/pdwatch/internal/domain/classify"
	"github.com/okian/pdwatch/internal/domain/model"
	"github.com/okian/pdwatch/internal/domain/risk"
	"github.com/okian/pdwatch/internal/domain/series"
	"github.com/okian/pdwatch/internal/domain/types"
	"github.com/okian/pdwatch/pkg/logger"
	"github.com/okian/pdwatch/pkg/metrics"
	"github.com/okian/pdwatch/pkg/money"
)

// Chart titles of the PD error series.
const (
	PDErrorTitlePercentage = "Erro de PD (%)"
	PDErrorTitleMonetary   = "Erro de PD (R$)"
)

// MetricQuery selects one metric of one model over a closed date range.
// Zero dates leave that side open.
type MetricQuery struct {
	ModelID int
	Metric  string
	Start   time.Time
	End     time.Time
}

// RateQuery selects the default-rate page of one model.
type RateQuery struct {
	ModelID int
	Mode    series.Mode
	Start   time.Time
	End     time.Time
}

// Models lists every model with its formatted volume, ordered by id.
func (s *Service) Models(_ context.Context) ([]types.ModelSummary, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	out := make([]types.ModelSummary, 0, len(snap.models))
	for _, m := range snap.models {
		out = append(out, types.ModelSummary{Model: m, VolumeLabel: money.FormatBRL(m.Volume)})
	}
	slices.SortStableFunc(out, func(a, b types.ModelSummary) int { return a.ID - b.ID })
	return out, nil
}

// Model returns one model.
func (s *Service) Model(_ context.Context, id int) (types.ModelSummary, error) {
	snap, err := s.current()
	if err != nil {
		return types.ModelSummary{}, err
	}
	m, err := snap.model(id)
	if err != nil {
		return types.ModelSummary{}, err
	}
	return types.ModelSummary{Model: m, VolumeLabel: money.FormatBRL(m.Volume)}, nil
}

// MetricOptions lists the metrics observed for a model, restricted to
// metricType when it is not empty, in description-table order.
func (s *Service) MetricOptions(_ context.Context, modelID int, metricType model.MetricType) ([]types.MetricOption, error) {
	snap, err := s.current()
	if err != nil {
		return nil, err
	}
	if _, err := snap.model(modelID); err != nil {
		return nil, err
	}
	rows := snap.obs[modelID]
	typeOf := make(map[string]model.MetricType)
	for _, o := range rows {
		if _, ok := typeOf[o.MetricName]; !ok {
			typeOf[o.MetricName] = o.MetricType
		}
	}
	names := series.MetricNames(rows, modelID)
	snap.sortNames(names)

	out := make([]types.MetricOption, 0, len(names))
	for _, name := range names {
		if metricType != "" && typeOf[name] != metricType {
			continue
		}
		d := snap.registry.Describe(name)
		out = append(out, types.MetricOption{
			Name:        name,
			Description: d.Description,
			Type:        typeOf[name],
			Direction:   d.Direction,
		})
	}
	return out, nil
}

// RiskMatrix returns the 4x4 portfolio matrix.
func (s *Service) RiskMatrix(_ context.Context) (types.RiskMatrix, error) {
	snap, err := s.current()
	if err != nil {
		return types.RiskMatrix{}, err
	}
	levels := make([]string, 0, len(risk.Levels()))
	for _, l := range risk.Levels() {
		levels = append(levels, l.String())
	}
	unclassified := snap.matrix.Unclassified
	if unclassified == nil {
		unclassified = []risk.Unclassified{}
	}
	return types.RiskMatrix{
		Levels:       levels,
		Cells:        snap.matrix.Cells(),
		Unclassified: unclassified,
		Overall:      snap.matrix.Overall,
		Classified:   snap.matrix.Classified(),
		Total:        len(snap.models),
	}, nil
}

// MetricReport classifies every observation of a metric against its thresholds.
func (s *Service) MetricReport(ctx context.Context, q MetricQuery) (types.MetricReport, error) {
	began := time.Now()
	defer func() { metrics.RecordReportLatency("metric", sinceMs(began)) }()

	snap, err := s.current()
	if err != nil {
		return types.MetricReport{}, err
	}
	if q.Metric == "" {
		return types.MetricReport{}, fmt.Errorf("%w: metric is required", ErrInvalidArgument)
	}
	m, err := snap.model(q.ModelID)
	if err != nil {
		return types.MetricReport{}, err
	}
	desc := snap.registry.Describe(q.Metric)
	report := types.MetricReport{
		ModelID:     m.ID,
		ModelName:   m.Name,
		Metric:      q.Metric,
		Description: desc.Description,
		Direction:   desc.Direction,
		Thresholds:  desc.Thresholds,
		Points:      []classify.Point{},
	}

	rows, err := series.Filter(snap.obs[q.ModelID], series.Query{
		ModelID: q.ModelID, MetricNames: []string{q.Metric}, Start: q.Start, End: q.End,
	})
	switch {
	case errors.Is(err, series.ErrEmptyInput):
		report.Empty, report.Message = true, NoDataMessage
		return report, nil
	case err != nil:
		metrics.RecordSeriesError(seriesErrorKind(err))
		return types.MetricReport{}, err
	}
	if err := series.Unique(rows, q.Metric); err != nil {
		metrics.RecordSeriesError(seriesErrorKind(err))
		return types.MetricReport{}, err
	}

	seq := classify.Series(rows, desc)
	report.Points = slices.Collect(seq)
	report.Summary = classify.Summarize(seq)
	latest := report.Points[len(report.Points)-1]
	report.Latest = &latest

	metrics.RecordClassified(q.Metric, string(classify.Good), report.Summary.Good)
	metrics.RecordClassified(q.Metric, string(classify.Attention), report.Summary.Attention)
	metrics.RecordClassified(q.Metric, string(classify.Alert), report.Summary.Alert)
	metrics.RecordUnclassifiable(q.Metric, report.Summary.Unclassifiable)
	s.logger.Debug(ctx, "metric report built",
		logger.Int("model_id", q.ModelID), logger.String("metric", q.Metric),
		logger.Int("points", len(report.Points)), logger.String("worst", string(report.Summary.Worst())))
	return report, nil
}

// DefaultRateReport joins the realized and estimated default rates of a model,
// derives the PD error in the requested mode and attaches the contracts series.
func (s *Service) DefaultRateReport(ctx context.Context, q RateQuery) (types.DefaultRateReport, error) {
	began := time.Now()
	defer func() { metrics.RecordReportLatency("default_rates", sinceMs(began)) }()

	snap, err := s.current()
	if err != nil {
		return types.DefaultRateReport{}, err
	}
	m, err := snap.model(q.ModelID)
	if err != nil {
		return types.DefaultRateReport{}, err
	}
	mode := q.Mode
	if mode == "" {
		mode = series.ModePercentage
	}
	report := types.DefaultRateReport{
		ModelID:     m.ID,
		ModelName:   m.Name,
		Volume:      m.Volume,
		VolumeLabel: money.FormatBRL(m.Volume),
		Rates:       []series.RatePoint{},
	}

	rows, err := series.Filter(snap.obs[q.ModelID], series.Query{
		ModelID: q.ModelID,
		MetricNames: []string{
			model.MetricRealizedDefaultRate, model.MetricEstimatedDefaultRate, model.MetricContracts,
		},
		Start: q.Start,
		End:   q.End,
	})
	switch {
	case errors.Is(err, series.ErrEmptyInput):
		report.Empty, report.Message = true, NoDataMessage
		return report, nil
	case err != nil:
		metrics.RecordSeriesError(seriesErrorKind(err))
		return types.DefaultRateReport{}, err
	}

	report.Contracts = s.contracts(ctx, q.ModelID, rows)

	rates, err := series.PivotRates(rows)
	switch {
	case errors.Is(err, series.ErrEmptyInput):
		report.Empty, report.Message = true, NoDataMessage
		return report, nil
	case err != nil:
		metrics.RecordSeriesError(seriesErrorKind(err))
		return types.DefaultRateReport{}, err
	}
	if len(rates.Dropped) > 0 {
		metrics.RecordDroppedPivotDates(len(rates.Dropped))
		s.logger.Warn(ctx, "default-rate dates dropped by join",
			logger.Int("model_id", q.ModelID), logger.Int("dropped", len(rates.Dropped)),
			logger.Any("dates", rates.Dropped))
	}
	report.Rates = rates.Points
	report.Dropped = rates.Dropped

	errs, err := series.ComputePDError(rates, m.Volume, mode)
	if err != nil {
		metrics.RecordSeriesError(seriesErrorKind(err))
		return types.DefaultRateReport{}, err
	}
	report.PDError = &types.PDErrorSeries{Mode: mode, Chart: s.pdErrorChart(mode), Points: errs}

	if last, ok := rates.Last(); ok {
		realized := money.Scale(last.Realized, m.Volume)
		estimated := money.Scale(last.Estimated, m.Volume)
		report.Latest = &types.LatestRates{
			Date:                 last.Date,
			RealizedPct:          last.RealizedPct,
			EstimatedPct:         last.EstimatedPct,
			RealizedLabel:        money.FormatPercent(last.Realized),
			EstimatedLabel:       money.FormatPercent(last.Estimated),
			RealizedAmount:       realized,
			EstimatedAmount:      estimated,
			RealizedAmountLabel:  money.FormatBRL(realized),
			EstimatedAmountLabel: money.FormatBRL(estimated),
		}
	}
	return report, nil
}

// contracts extracts the auxiliary contracts series. Cells without a number
// are left out; a repeated date drops the whole series. Neither fails the
// rate report.
func (s *Service) contracts(ctx context.Context, modelID int, rows []model.MetricObservation) []series.ValuePoint {
	points, skipped, err := series.Values(rows, model.MetricContracts)
	if err != nil {
		metrics.RecordSeriesError(seriesErrorKind(err))
		s.logger.Warn(ctx, "contracts series omitted",
			logger.Int("model_id", modelID), logger.Error(err))
		return nil
	}
	if len(skipped) > 0 {
		metrics.RecordSeriesError(seriesErrorKind(series.ErrNonNumeric))
		s.logger.Warn(ctx, "contracts points without a number skipped",
			logger.Int("model_id", modelID), logger.Int("skipped", len(skipped)),
			logger.Any("dates", skipped))
	}
	return points
}

func (s *Service) pdErrorChart(mode series.Mode) types.ChartMeta {
	if mode == series.ModeMonetary {
		return types.ChartMeta{Title: PDErrorTitleMonetary}
	}
	return types.ChartMeta{
		Title:  PDErrorTitlePercentage,
		Suffix: "%",
		Range:  &[2]float64{-s.pdErrorRange, s.pdErrorRange},
	}
}

// GetStats returns dataset statistics for monitoring.
func (s *Service) GetStats() types.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := types.Stats{Started: s.started, Source: s.sourceName, Tables: map[string]int{}}
	if !s.started {
		return stats
	}
	snap := s.snap
	stats.LoadedAt = snap.loadedAt
	stats.Tables = maps.Clone(snap.counts)
	stats.DescriptionIssues = snap.issues
	if snap.hasDates {
		first, last := snap.first, snap.last
		stats.FirstDate, stats.LastDate = &first, &last
	}
	return stats
}
