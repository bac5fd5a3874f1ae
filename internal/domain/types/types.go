// Package types contains the read shapes returned by the service and
// serialized by the HTTP API.
package types

import (
	"time"

	"github.com/okian/pdwatch/internal/domain/classify"
	"github.com/okian/pdwatch/internal/domain/model"
	"github.com/okian/pdwatch/internal/domain/risk"
	"github.com/okian/pdwatch/internal/domain/series"
)

// ModelSummary is a models-table row with its volume formatted for display.
type ModelSummary struct {
	model.Model
	VolumeLabel string `json:"vol_carteira_fmt"`
}

// MetricOption is a metric that can be charted for a model.
type MetricOption struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Type        model.MetricType `json:"type"`
	Direction   model.Direction  `json:"direction"`
}

// MetricReport is a classified metric series with its thresholds.
type MetricReport struct {
	ModelID     int              `json:"model_id"`
	ModelName   string           `json:"model_name"`
	Metric      string           `json:"metric"`
	Description string           `json:"description"`
	Direction   model.Direction  `json:"direction"`
	Thresholds  model.Thresholds `json:"thresholds"`
	Points      []classify.Point `json:"points"`
	Summary     classify.Summary `json:"summary"`
	Latest      *classify.Point  `json:"latest,omitempty"`
	Empty       bool             `json:"empty"`
	Message     string           `json:"message,omitempty"`
}

// ChartMeta carries display hints for a chart.
type ChartMeta struct {
	Title  string `json:"title"`
	Suffix string `json:"suffix,omitempty"`
	// Range is the suggested y-axis range; nil lets the renderer autoscale.
	Range *[2]float64 `json:"range,omitempty"`
}

// PDErrorSeries is the estimated-minus-realized series of a model.
type PDErrorSeries struct {
	Mode   series.Mode         `json:"mode"`
	Chart  ChartMeta           `json:"chart"`
	Points []series.ErrorPoint `json:"points"`
}

// LatestRates are the most recent realized and estimated default rates.
type LatestRates struct {
	Date                 time.Time `json:"date"`
	RealizedPct          float64   `json:"realizada_pct"`
	EstimatedPct         float64   `json:"estimada_pct"`
	RealizedLabel        string    `json:"realizada_fmt"`
	EstimatedLabel       string    `json:"estimada_fmt"`
	RealizedAmount       float64   `json:"realizada_valor"`
	EstimatedAmount      float64   `json:"estimada_valor"`
	RealizedAmountLabel  string    `json:"realizada_valor_fmt"`
	EstimatedAmountLabel string    `json:"estimada_valor_fmt"`
}

// DefaultRateReport is the default-rate page of one model.
type DefaultRateReport struct {
	ModelID     int                 `json:"model_id"`
	ModelName   string              `json:"model_name"`
	Volume      float64             `json:"vol_carteira"`
	VolumeLabel string              `json:"vol_carteira_fmt"`
	Rates       []series.RatePoint  `json:"rates"`
	Dropped     []time.Time         `json:"dropped_dates,omitempty"`
	PDError     *PDErrorSeries      `json:"pd_error,omitempty"`
	Latest      *LatestRates        `json:"latest,omitempty"`
	Contracts   []series.ValuePoint `json:"contracts,omitempty"`
	Empty       bool                `json:"empty"`
	Message     string              `json:"message,omitempty"`
}

// RiskMatrix is the portfolio view of the risk matrix.
type RiskMatrix struct {
	Levels       []string            `json:"levels"`
	Cells        []risk.Cell         `json:"cells"`
	Unclassified []risk.Unclassified `json:"unclassified"`
	Overall      map[string]int      `json:"overall"`
	Classified   int                 `json:"classified"`
	Total        int                 `json:"total"`
}

// Stats describes the loaded dataset.
type Stats struct {
	Started           bool           `json:"started"`
	Source            string         `json:"source"`
	LoadedAt          time.Time      `json:"loaded_at,omitzero"`
	Tables            map[string]int `json:"tables"`
	FirstDate         *time.Time     `json:"first_date,omitempty"`
	LastDate          *time.Time     `json:"last_date,omitempty"`
	DescriptionIssues int            `json:"description_issues"`
}
