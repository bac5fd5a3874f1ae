package model

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// MetricValue is a metrics-table cell. Most metrics are numeric, but some
// (risk_level) carry a category label.
type MetricValue struct {
	num     float64
	text    string
	numeric bool
}

// NumberValue wraps a numeric cell.
func NumberValue(v float64) MetricValue {
	return MetricValue{num: v, numeric: true}
}

// TextValue wraps a categorical cell.
func TextValue(s string) MetricValue {
	return MetricValue{text: s}
}

// ParseMetricValue reads a raw cell, preferring a number when the text parses as one.
func ParseMetricValue(raw string) MetricValue {
	s := strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return NumberValue(f)
	}
	return TextValue(s)
}

// Float returns the numeric value and whether the cell is a finite number.
func (v MetricValue) Float() (float64, bool) {
	if !v.numeric || math.IsNaN(v.num) || math.IsInf(v.num, 0) {
		return v.num, false
	}
	return v.num, true
}

// IsNumeric reports whether the cell was stored as a number (NaN included).
func (v MetricValue) IsNumeric() bool { return v.numeric }

// String renders the cell the way it would appear in a CSV file.
func (v MetricValue) String() string {
	if v.numeric {
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	}
	return v.text
}

// MarshalJSON emits a JSON number for numeric cells and a string otherwise.
// NaN and infinities have no JSON number form and are emitted as null.
func (v MetricValue) MarshalJSON() ([]byte, error) {
	if v.numeric {
		if math.IsNaN(v.num) || math.IsInf(v.num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.num)
	}
	return json.Marshal(v.text)
}

// UnmarshalJSON accepts a number, a string or null.
func (v *MetricValue) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*v = NumberValue(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err == nil {
		*v = NumberValue(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*v = TextValue(s)
	return nil
}
