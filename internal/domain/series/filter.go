// Package series reshapes long-format metric rows into per-date series and
// derives the default-rate error series.
package series

import (
	"slices"
	"time"

	"github.com/okian/pdwatch/internal/domain/model"
)

// Query selects one model's observations. Zero Start or End leaves that side open.
type Query struct {
	ModelID     int
	MetricNames []string
	Start       time.Time
	End         time.Time
}

// Filter returns the observations matching q sorted by date ascending.
// Rows with equal dates keep their input order.
func Filter(obs []model.MetricObservation, q Query) ([]model.MetricObservation, error) {
	if !q.Start.IsZero() && !q.End.IsZero() && q.Start.After(q.End) {
		return nil, ErrInvalidRange
	}
	var out []model.MetricObservation
	for _, o := range obs {
		if o.ModelID != q.ModelID {
			continue
		}
		if len(q.MetricNames) > 0 && !slices.Contains(q.MetricNames, o.MetricName) {
			continue
		}
		if !q.Start.IsZero() && o.Date.Before(q.Start) {
			continue
		}
		if !q.End.IsZero() && o.Date.After(q.End) {
			continue
		}
		out = append(out, o)
	}
	if len(out) == 0 {
		return nil, ErrEmptyInput
	}
	slices.SortStableFunc(out, func(a, b model.MetricObservation) int { return a.Date.Compare(b.Date) })
	return out, nil
}

// DateBounds returns the earliest and latest observation dates.
func DateBounds(obs []model.MetricObservation) (time.Time, time.Time, bool) {
	if len(obs) == 0 {
		return time.Time{}, time.Time{}, false
	}
	lo, hi := obs[0].Date, obs[0].Date
	for _, o := range obs[1:] {
		if o.Date.Before(lo) {
			lo = o.Date
		}
		if o.Date.After(hi) {
			hi = o.Date
		}
	}
	return lo, hi, true
}

// MetricNames returns the distinct metric names of a model in first-seen order.
func MetricNames(obs []model.MetricObservation, modelID int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, o := range obs {
		if o.ModelID != modelID {
			continue
		}
		if _, ok := seen[o.MetricName]; ok {
			continue
		}
		seen[o.MetricName] = struct{}{}
		out = append(out, o.MetricName)
	}
	return out
}

// ValuePoint is a single (date, value) sample.
type ValuePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Unique fails with *DuplicateError when metric is observed twice on one date.
func Unique(obs []model.MetricObservation, metric string) error {
	seen := make(map[time.Time]struct{})
	for _, o := range obs {
		if o.MetricName != metric {
			continue
		}
		day := o.Date.UTC()
		if _, dup := seen[day]; dup {
			return &DuplicateError{ModelID: o.ModelID, Metric: metric, Date: o.Date}
		}
		seen[day] = struct{}{}
	}
	return nil
}

// Values extracts the numeric series of one metric, in input order. Cells
// without a finite number are left out and their dates returned as skipped.
// Duplicate dates fail with *DuplicateError.
func Values(obs []model.MetricObservation, metric string) ([]ValuePoint, []time.Time, error) {
	if err := Unique(obs, metric); err != nil {
		return nil, nil, err
	}
	var (
		out     []ValuePoint
		skipped []time.Time
	)
	for _, o := range obs {
		if o.MetricName != metric {
			continue
		}
		f, ok := o.Value.Float()
		if !ok {
			skipped = append(skipped, o.Date)
			continue
		}
		out = append(out, ValuePoint{Date: o.Date, Value: f})
	}
	return out, skipped, nil
}
