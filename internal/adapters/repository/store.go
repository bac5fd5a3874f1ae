// Package repository loads the reference tables from CSV files or a SQL database.
package repository

import (
	"context"

	"github.com/okian/pdwatch/internal/domain/model"
)

// Dataset is the full set of reference tables. It is read-only after loading.
type Dataset struct {
	Models       []model.Model
	Observations []model.MetricObservation
	Descriptions []model.MetricDescription
}

// Counts returns the row count of each table, keyed by table name.
func (d Dataset) Counts() map[string]int {
	return map[string]int{
		TableModels:       len(d.Models),
		TableMetrics:      len(d.Observations),
		TableDescriptions: len(d.Descriptions),
	}
}

// Source provides the reference tables.
type Source interface {
	// Load reads every table. Implementations must not retain the returned slices.
	Load(ctx context.Context) (Dataset, error)
}

// Table names, shared by the CSV file layout and the SQL schema.
const (
	TableModels       = "models"
	TableMetrics      = "metrics"
	TableDescriptions = "metric_descriptions"
)
