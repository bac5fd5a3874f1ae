// Package registry looks up thresholds and direction for a metric name.
package registry

import (
	"fmt"

	"github.com/okian/pdwatch/internal/domain/model"
)

// Registry is an immutable index over the metric-description table.
type Registry struct {
	byName map[string]model.MetricDescription
	order  []string
}

// New indexes descs by metric name. Names must be unique.
func New(descs []model.MetricDescription) (*Registry, error) {
	r := &Registry{
		byName: make(map[string]model.MetricDescription, len(descs)),
		order:  make([]string, 0, len(descs)),
	}
	for _, d := range descs {
		if _, dup := r.byName[d.MetricName]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDescription, d.MetricName)
		}
		if d.Direction == "" {
			d.Direction = model.Neutral
		}
		r.byName[d.MetricName] = d
		r.order = append(r.order, d.MetricName)
	}
	return r, nil
}

// Lookup returns the description of name, or ErrNotFound.
func (r *Registry) Lookup(name string) (model.MetricDescription, error) {
	d, ok := r.byName[name]
	if !ok {
		return model.MetricDescription{}, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return d, nil
}

// Describe returns the description of name. Unknown metrics get a neutral
// description without thresholds, so they always classify as good.
func (r *Registry) Describe(name string) model.MetricDescription {
	if d, err := r.Lookup(name); err == nil {
		return d
	}
	return model.MetricDescription{MetricName: name, Direction: model.Neutral}
}

// Names returns the metric names of the given type in table order.
// An empty type returns every name.
func (r *Registry) Names(t model.MetricType) []string {
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		if t == "" || r.byName[name].Type == t {
			out = append(out, name)
		}
	}
	return out
}

// Len returns the number of descriptions.
func (r *Registry) Len() int { return len(r.order) }

// Check reports every directional metric whose thresholds are missing or
// ordered against its direction. Violations do not stop classification.
func (r *Registry) Check() []error {
	var errs []error
	for _, name := range r.order {
		d := r.byName[name]
		if d.Direction == model.Neutral {
			continue
		}
		att, alt := d.Thresholds.Attention, d.Thresholds.Alert
		switch {
		case att == nil || alt == nil:
			errs = append(errs, fmt.Errorf("%w: %s is %s but lacks attention or alert", ErrThresholdOrder, name, d.Direction))
		case d.Direction == model.HigherBetter && !(*alt < *att):
			errs = append(errs, fmt.Errorf("%w: %s expects alert < attention, got alert=%g attention=%g", ErrThresholdOrder, name, *alt, *att))
		case d.Direction == model.LowerBetter && !(*att < *alt):
			errs = append(errs, fmt.Errorf("%w: %s expects attention < alert, got attention=%g alert=%g", ErrThresholdOrder, name, *att, *alt))
		}
	}
	return errs
}
