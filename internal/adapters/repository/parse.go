package repository

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/okian/pdwatch/internal/domain/model"
)

// DefaultDateLayouts are the date formats accepted in the metrics table.
var DefaultDateLayouts = []string{time.DateOnly, time.DateTime, time.RFC3339}

// record is one input row addressed by column name.
type record map[string]string

func (r record) str(col string) string { return strings.TrimSpace(r[col]) }

func (r record) int(col string) (int, error) {
	s := r.str(col)
	n, err := strconv.Atoi(s)
	if err != nil {
		// pandas writes integer ids of float columns as "3.0"
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrParse, col, s)
		}
		n = int(f)
	}
	return n, nil
}

func (r record) float(col string) (float64, error) {
	s := r.str(col)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %s=%q is not a finite number", ErrParse, col, s)
	}
	return f, nil
}

// optFloat reads a nullable numeric column; empty, NaN and "null" mean absent.
func (r record) optFloat(col string) (*float64, error) {
	s := r.str(col)
	switch strings.ToLower(s) {
	case "", "nan", "null", "none":
		return nil, nil
	}
	f, err := r.float(col)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseDate(s string, layouts []string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: date %q", ErrParse, s)
}

var (
	modelColumns       = []string{"id", "name", "description", "type", "vol_carteira", "risco_qualitativo", "risco_quantitativo", "risco_geral"}
	metricColumns      = []string{"model_id", "metric_name", "metric_value", "metric_type", "date"}
	descriptionColumns = []string{"metric_name", "description", "attention", "alert", "type", "direction"}
)

func parseModel(r record) (model.Model, error) {
	id, err := r.int("id")
	if err != nil {
		return model.Model{}, err
	}
	typ, err := model.ParseModelType(r.str("type"))
	if err != nil {
		return model.Model{}, err
	}
	vol, err := r.float("vol_carteira")
	if err != nil {
		return model.Model{}, err
	}
	if vol < 0 {
		return model.Model{}, fmt.Errorf("%w: vol_carteira=%g is negative", ErrParse, vol)
	}
	return model.Model{
		ID:               id,
		Name:             r.str("name"),
		Description:      r.str("description"),
		Type:             typ,
		Volume:           vol,
		QualitativeRisk:  r.str("risco_qualitativo"),
		QuantitativeRisk: r.str("risco_quantitativo"),
		OverallRisk:      r.str("risco_geral"),
	}, nil
}

func parseObservation(r record, layouts []string) (model.MetricObservation, error) {
	id, err := r.int("model_id")
	if err != nil {
		return model.MetricObservation{}, err
	}
	mt, err := model.ParseMetricType(r.str("metric_type"))
	if err != nil {
		return model.MetricObservation{}, err
	}
	date, err := parseDate(r.str("date"), layouts)
	if err != nil {
		return model.MetricObservation{}, err
	}
	return model.MetricObservation{
		ModelID:    id,
		MetricName: r.str("metric_name"),
		Value:      model.ParseMetricValue(r.str("metric_value")),
		MetricType: mt,
		Date:       date,
	}, nil
}

func parseDescription(r record) (model.MetricDescription, error) {
	att, err := r.optFloat("attention")
	if err != nil {
		return model.MetricDescription{}, err
	}
	alt, err := r.optFloat("alert")
	if err != nil {
		return model.MetricDescription{}, err
	}
	mt, err := model.ParseMetricType(r.str("type"))
	if err != nil {
		return model.MetricDescription{}, err
	}
	dir, err := model.ParseDirection(r.str("direction"))
	if err != nil {
		return model.MetricDescription{}, err
	}
	return model.MetricDescription{
		MetricName:  r.str("metric_name"),
		Description: r.str("description"),
		Thresholds:  model.Thresholds{Attention: att, Alert: alt},
		Type:        mt,
		Direction:   dir,
	}, nil
}
