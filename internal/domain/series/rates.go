package series

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/okian/pdwatch/internal/domain/model"
)

const percent = 100

// RatePoint is one month of realized and estimated default rates.
// Fractions are in [0,1]; Pct fields are the same values times 100.
type RatePoint struct {
	Date         time.Time `json:"date"`
	Realized     float64   `json:"realizada"`
	Estimated    float64   `json:"estimada"`
	RealizedPct  float64   `json:"realizada_pct"`
	EstimatedPct float64   `json:"estimada_pct"`
}

// Rates is the inner join of the two default-rate series on date.
type Rates struct {
	Points []RatePoint `json:"points"`
	// Dropped lists dates where only one of the two rates was present.
	Dropped []time.Time `json:"dropped,omitempty"`
}

// Last returns the most recent point.
func (r Rates) Last() (RatePoint, bool) {
	if len(r.Points) == 0 {
		return RatePoint{}, false
	}
	return r.Points[len(r.Points)-1], true
}

type ratePair struct {
	realized, estimated       float64
	hasRealized, hasEstimated bool
}

// PivotRates joins taxa_default_realizada and taxa_default_estimada by date.
// Other metrics are ignored. Dates carrying only one rate are dropped and
// reported in Rates.Dropped; a repeated (date, metric) fails fast.
func PivotRates(obs []model.MetricObservation) (Rates, error) {
	byDate := make(map[time.Time]*ratePair)
	var dates []time.Time
	for _, o := range obs {
		if o.MetricName != model.MetricRealizedDefaultRate && o.MetricName != model.MetricEstimatedDefaultRate {
			continue
		}
		f, ok := o.Value.Float()
		if !ok {
			return Rates{}, errNonNumeric(o)
		}
		day := o.Date.UTC()
		p, ok := byDate[day]
		if !ok {
			p = &ratePair{}
			byDate[day] = p
			dates = append(dates, day)
		}
		switch o.MetricName {
		case model.MetricRealizedDefaultRate:
			if p.hasRealized {
				return Rates{}, &DuplicateError{ModelID: o.ModelID, Metric: o.MetricName, Date: o.Date}
			}
			p.realized, p.hasRealized = f, true
		default:
			if p.hasEstimated {
				return Rates{}, &DuplicateError{ModelID: o.ModelID, Metric: o.MetricName, Date: o.Date}
			}
			p.estimated, p.hasEstimated = f, true
		}
	}
	if len(dates) == 0 {
		return Rates{}, ErrEmptyInput
	}
	slices.SortFunc(dates, func(a, b time.Time) int { return a.Compare(b) })

	var out Rates
	for _, d := range dates {
		p := byDate[d]
		if !p.hasRealized || !p.hasEstimated {
			out.Dropped = append(out.Dropped, d)
			continue
		}
		out.Points = append(out.Points, RatePoint{
			Date:         d,
			Realized:     p.realized,
			Estimated:    p.estimated,
			RealizedPct:  p.realized * percent,
			EstimatedPct: p.estimated * percent,
		})
	}
	if len(out.Points) == 0 {
		return out, fmt.Errorf("%w: no date carries both %s and %s", ErrMissingSeries,
			model.MetricRealizedDefaultRate, model.MetricEstimatedDefaultRate)
	}
	return out, nil
}

// Mode selects the unit of the PD error.
type Mode string

// Error modes.
const (
	ModePercentage Mode = "percentage"
	ModeMonetary   Mode = "monetary"
)

// ParseMode accepts the mode names and the dashboard selector labels.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "percentage", "pct", "taxa (%)":
		return ModePercentage, nil
	case "monetary", "brl", "valor monetário (r$)":
		return ModeMonetary, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, s)
	}
}

// ErrorPoint is the PD error of one month.
type ErrorPoint struct {
	Date  time.Time `json:"date"`
	Error float64   `json:"error"`
}

// ComputePDError derives estimated minus realized per point. In percentage
// mode the difference is in percentage points; in monetary mode it is scaled
// by the portfolio volume. Both use the fractional rates.
func ComputePDError(r Rates, volume float64, mode Mode) ([]ErrorPoint, error) {
	var scale float64
	switch mode {
	case ModePercentage:
		scale = percent
	case ModeMonetary:
		scale = volume
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}
	if len(r.Points) == 0 {
		return nil, ErrEmptyInput
	}
	out := make([]ErrorPoint, len(r.Points))
	for i, p := range r.Points {
		out[i] = ErrorPoint{Date: p.Date, Error: (p.Estimated - p.Realized) * scale}
	}
	return out, nil
}

func errNonNumeric(o model.MetricObservation) error {
	return fmt.Errorf("%w: model %d metric %s date %s value %q", ErrNonNumeric,
		o.ModelID, o.MetricName, o.Date.Format(time.DateOnly), o.Value.String())
}
