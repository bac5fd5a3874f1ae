// Package model contains the reference tables shared by every report:
// models, metric observations and metric descriptions.
package model

import (
	"fmt"
	"strings"
	"time"
)

// ModelType is the kind of target a model predicts.
type ModelType string

// Model types.
const (
	ModelBinary     ModelType = "binary"
	ModelContinuous ModelType = "continuous"
)

// MetricType groups metrics by the dashboard page that shows them.
type MetricType string

// Metric types.
const (
	MetricPerformance MetricType = "performance"
	MetricStability   MetricType = "stability"
	MetricDefault     MetricType = "default"
	MetricRisk        MetricType = "risk"
)

// Direction tells whether higher or lower values of a metric are favorable.
type Direction string

// Directions.
const (
	HigherBetter Direction = "higher_better"
	LowerBetter  Direction = "lower_better"
	Neutral      Direction = "neutral"
)

// Well-known metric names.
const (
	MetricRealizedDefaultRate  = "taxa_default_realizada"
	MetricEstimatedDefaultRate = "taxa_default_estimada"
	MetricContracts            = "vol_contratos"
)

// Model is one row of the models table.
type Model struct {
	ID               int       `json:"id"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Type             ModelType `json:"type"`
	Volume           float64   `json:"vol_carteira"`
	QualitativeRisk  string    `json:"risco_qualitativo"`
	QuantitativeRisk string    `json:"risco_quantitativo"`
	OverallRisk      string    `json:"risco_geral"`
}

// MetricObservation is one row of the metrics table.
type MetricObservation struct {
	ModelID    int         `json:"model_id"`
	MetricName string      `json:"metric_name"`
	Value      MetricValue `json:"metric_value"`
	MetricType MetricType  `json:"metric_type"`
	Date       time.Time   `json:"date"`
}

// Thresholds holds the optional attention and alert levels of a metric.
// A nil field means the threshold is absent.
type Thresholds struct {
	Attention *float64 `json:"attention,omitempty"`
	Alert     *float64 `json:"alert,omitempty"`
}

// Empty reports whether neither threshold is set.
func (t Thresholds) Empty() bool { return t.Attention == nil && t.Alert == nil }

// Float returns a pointer to v, for building Thresholds literals.
func Float(v float64) *float64 { return &v }

// MetricDescription is one row of the metric-description table.
type MetricDescription struct {
	MetricName  string     `json:"metric_name"`
	Description string     `json:"description"`
	Thresholds  Thresholds `json:"thresholds"`
	Type        MetricType `json:"type"`
	Direction   Direction  `json:"direction"`
}

// ParseModelType parses a models.type cell.
func ParseModelType(s string) (ModelType, error) {
	switch t := ModelType(strings.ToLower(strings.TrimSpace(s))); t {
	case ModelBinary, ModelContinuous:
		return t, nil
	default:
		return "", fmt.Errorf("%w: model type %q", ErrUnknownEnum, s)
	}
}

// ParseMetricType parses a metric_type / type cell.
func ParseMetricType(s string) (MetricType, error) {
	switch t := MetricType(strings.ToLower(strings.TrimSpace(s))); t {
	case MetricPerformance, MetricStability, MetricDefault, MetricRisk:
		return t, nil
	default:
		return "", fmt.Errorf("%w: metric type %q", ErrUnknownEnum, s)
	}
}

// ParseDirection parses a direction cell. An empty cell means neutral.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case HigherBetter, LowerBetter, Neutral:
		return d, nil
	case "":
		return Neutral, nil
	default:
		return "", fmt.Errorf("%w: direction %q", ErrUnknownEnum, s)
	}
}
