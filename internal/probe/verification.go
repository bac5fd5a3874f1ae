package probe

import (
	"fmt"
	"math"
	"slices"

	"github.com/okian/pdwatch/internal/domain/classify"
	"github.com/okian/pdwatch/internal/domain/series"
	"github.com/okian/pdwatch/internal/domain/types"
)

const (
	matrixCells = 16
	tolerance   = 1e-6
)

// verifyMetricReport checks that the summary counts the points and that
// the latest point is the last one.
func verifyMetricReport(r types.MetricReport) error {
	if r.Empty {
		if len(r.Points) != 0 {
			return fmt.Errorf("%w: %s/%d empty report with %d points", ErrInconsistent, r.Metric, r.ModelID, len(r.Points))
		}
		return nil
	}
	var want classify.Summary
	for _, p := range r.Points {
		if !p.Classifiable {
			want.Unclassifiable++
		}
		switch p.Tier {
		case classify.Good:
			want.Good++
		case classify.Attention:
			want.Attention++
		case classify.Alert:
			want.Alert++
		default:
			return fmt.Errorf("%w: %s/%d unknown tier %q", ErrInconsistent, r.Metric, r.ModelID, p.Tier)
		}
	}
	if want != r.Summary {
		return fmt.Errorf("%w: %s/%d summary %+v, points say %+v", ErrInconsistent, r.Metric, r.ModelID, r.Summary, want)
	}
	if !slices.IsSortedFunc(r.Points, func(a, b classify.Point) int { return a.Date.Compare(b.Date) }) {
		return fmt.Errorf("%w: %s/%d points out of date order", ErrInconsistent, r.Metric, r.ModelID)
	}
	if r.Latest == nil || !r.Latest.Date.Equal(r.Points[len(r.Points)-1].Date) {
		return fmt.Errorf("%w: %s/%d latest point is not the last one", ErrInconsistent, r.Metric, r.ModelID)
	}
	return nil
}

// verifyDefaultRates checks the PD error series against the rates it was derived from.
func verifyDefaultRates(r types.DefaultRateReport) error {
	if r.Empty {
		return nil
	}
	if r.PDError == nil || r.Latest == nil {
		return fmt.Errorf("%w: model %d default rates without pd error or latest", ErrInconsistent, r.ModelID)
	}
	if len(r.PDError.Points) != len(r.Rates) {
		return fmt.Errorf("%w: model %d has %d rates but %d error points",
			ErrInconsistent, r.ModelID, len(r.Rates), len(r.PDError.Points))
	}
	for i, p := range r.Rates {
		e := r.PDError.Points[i]
		if !e.Date.Equal(p.Date) {
			return fmt.Errorf("%w: model %d error point %d dated %s, rate dated %s",
				ErrInconsistent, r.ModelID, i, e.Date.Format("2006-01-02"), p.Date.Format("2006-01-02"))
		}
		want := (p.Estimated - p.Realized) * r.Volume
		if r.PDError.Mode == series.ModePercentage {
			want = p.EstimatedPct - p.RealizedPct
		}
		if math.Abs(e.Error-want) > tolerance*math.Max(1, math.Abs(want)) {
			return fmt.Errorf("%w: model %d pd error %.6f on %s, want %.6f",
				ErrInconsistent, r.ModelID, e.Error, p.Date.Format("2006-01-02"), want)
		}
	}
	if last := r.Rates[len(r.Rates)-1]; !r.Latest.Date.Equal(last.Date) {
		return fmt.Errorf("%w: model %d latest rates are not the last date", ErrInconsistent, r.ModelID)
	}
	return nil
}

// verifyRiskMatrix checks that the matrix accounts for every model exactly once.
func verifyRiskMatrix(m types.RiskMatrix) error {
	if len(m.Cells) != matrixCells {
		return fmt.Errorf("%w: risk matrix has %d cells", ErrInconsistent, len(m.Cells))
	}
	placed := 0
	for _, c := range m.Cells {
		if c.Count != len(c.Models) {
			return fmt.Errorf("%w: cell %s/%s counts %d but lists %d models",
				ErrInconsistent, c.Qualitative, c.Quantitative, c.Count, len(c.Models))
		}
		placed += c.Count
	}
	if placed != m.Classified {
		return fmt.Errorf("%w: cells hold %d models, classified is %d", ErrInconsistent, placed, m.Classified)
	}
	if m.Classified+len(m.Unclassified) != m.Total {
		return fmt.Errorf("%w: %d classified + %d unclassified != %d models",
			ErrInconsistent, m.Classified, len(m.Unclassified), m.Total)
	}
	return nil
}
