// Package classify maps metric values to health tiers using the attention
// and alert thresholds of their description.
package classify

import (
	"iter"
	"math"
	"time"

	"github.com/okian/pdwatch/internal/domain/model"
)

// Tier is the health of a single observation.
type Tier string

// Tiers, from healthy to breached.
const (
	Good      Tier = "good"
	Attention Tier = "attention"
	Alert     Tier = "alert"
)

// Tiers lists every tier in severity order.
func Tiers() []Tier { return []Tier{Good, Attention, Alert} }

// Classify returns the tier of value. Boundary values are not breaches:
// only strict inequalities move a value out of Good. NaN is always Good.
func Classify(value float64, t model.Thresholds, d model.Direction) Tier {
	if t.Empty() || math.IsNaN(value) {
		return Good
	}
	switch d {
	case model.HigherBetter:
		if t.Alert != nil && value < *t.Alert {
			return Alert
		}
		if t.Attention != nil && value < *t.Attention {
			return Attention
		}
	case model.LowerBetter:
		if t.Alert != nil && value > *t.Alert {
			return Alert
		}
		if t.Attention != nil && value > *t.Attention {
			return Attention
		}
	}
	return Good
}

// Result is the outcome of evaluating a metric cell.
type Result struct {
	Tier Tier `json:"tier"`
	// Classifiable is false for NaN or categorical cells; their tier is Good
	// and the caller decides how to render them.
	Classifiable bool `json:"classifiable"`
}

// Evaluate classifies a metric cell against its description.
func Evaluate(v model.MetricValue, desc model.MetricDescription) Result {
	f, ok := v.Float()
	if !ok {
		return Result{Tier: Good}
	}
	return Result{Tier: Classify(f, desc.Thresholds, desc.Direction), Classifiable: true}
}

// Point is one classified observation.
type Point struct {
	Date  time.Time         `json:"date"`
	Value model.MetricValue `json:"value"`
	Result
}

// Series classifies each observation independently. The sequence is lazy
// and can be ranged over any number of times.
func Series(obs []model.MetricObservation, desc model.MetricDescription) iter.Seq[Point] {
	return func(yield func(Point) bool) {
		for _, o := range obs {
			if !yield(Point{Date: o.Date, Value: o.Value, Result: Evaluate(o.Value, desc)}) {
				return
			}
		}
	}
}

// Summary counts points per tier.
type Summary struct {
	Good           int `json:"good"`
	Attention      int `json:"attention"`
	Alert          int `json:"alert"`
	Unclassifiable int `json:"unclassifiable"`
}

// Total returns the number of summarized points.
func (s Summary) Total() int { return s.Good + s.Attention + s.Alert }

// Worst returns the most severe tier seen.
func (s Summary) Worst() Tier {
	switch {
	case s.Alert > 0:
		return Alert
	case s.Attention > 0:
		return Attention
	default:
		return Good
	}
}

// Summarize drains seq into tier counts.
func Summarize(seq iter.Seq[Point]) Summary {
	var s Summary
	for p := range seq {
		if !p.Classifiable {
			s.Unclassifiable++
		}
		switch p.Tier {
		case Alert:
			s.Alert++
		case Attention:
			s.Attention++
		default:
			s.Good++
		}
	}
	return s
}
