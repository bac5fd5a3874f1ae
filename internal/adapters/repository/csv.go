package repository

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Default file names inside a data directory.
const (
	ModelsFile       = "models.csv"
	MetricsFile      = "metrics.csv"
	DescriptionsFile = "metricas_descricao.csv"
)

// CSVSource reads the three tables from CSV files with a header row.
type CSVSource struct {
	modelsPath       string
	metricsPath      string
	descriptionsPath string
	dateLayouts      []string
	comma            rune
}

// NewCSVSource creates a source over the given files.
func NewCSVSource(modelsPath, metricsPath, descriptionsPath string, opts ...Option) *CSVSource {
	s := &CSVSource{
		modelsPath:       modelsPath,
		metricsPath:      metricsPath,
		descriptionsPath: descriptionsPath,
		dateLayouts:      DefaultDateLayouts,
		comma:            ',',
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewCSVDirSource creates a source over the default file names inside dir.
func NewCSVDirSource(dir string, opts ...Option) *CSVSource {
	return NewCSVSource(
		filepath.Join(dir, ModelsFile),
		filepath.Join(dir, MetricsFile),
		filepath.Join(dir, DescriptionsFile),
		opts...,
	)
}

// Load reads the models, metrics and description files.
func (s *CSVSource) Load(ctx context.Context) (Dataset, error) {
	var ds Dataset
	err := s.readFile(ctx, s.modelsPath, modelColumns, func(r record) error {
		m, err := parseModel(r)
		if err == nil {
			ds.Models = append(ds.Models, m)
		}
		return err
	})
	if err != nil {
		return Dataset{}, err
	}
	err = s.readFile(ctx, s.metricsPath, metricColumns, func(r record) error {
		o, err := parseObservation(r, s.dateLayouts)
		if err == nil {
			ds.Observations = append(ds.Observations, o)
		}
		return err
	})
	if err != nil {
		return Dataset{}, err
	}
	err = s.readFile(ctx, s.descriptionsPath, descriptionColumns, func(r record) error {
		d, err := parseDescription(r)
		if err == nil {
			ds.Descriptions = append(ds.Descriptions, d)
		}
		return err
	})
	if err != nil {
		return Dataset{}, err
	}
	return ds, nil
}

func (s *CSVSource) readFile(ctx context.Context, path string, required []string, fn func(record) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.Comma = s.comma
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("read header %s: %w", path, err)
	}
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range required {
		if _, ok := index[col]; !ok {
			return fmt.Errorf("%s: %w %q", path, ErrMissingColumn, col)
		}
	}

	line := 1
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		rec := make(record, len(required))
		for _, col := range required {
			if i := index[col]; i < len(fields) {
				rec[col] = fields[i]
			}
		}
		if err := fn(rec); err != nil {
			return fmt.Errorf("%s line %d: %w", path, line, err)
		}
	}
}

// WriteCSV writes ds into dir using the default file names.
func WriteCSV(dir string, ds Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	models := make([][]string, 0, len(ds.Models))
	for _, m := range ds.Models {
		models = append(models, []string{
			strconv.Itoa(m.ID), m.Name, m.Description, string(m.Type), formatFloat(m.Volume),
			m.QualitativeRisk, m.QuantitativeRisk, m.OverallRisk,
		})
	}
	metrics := make([][]string, 0, len(ds.Observations))
	for _, o := range ds.Observations {
		metrics = append(metrics, []string{
			strconv.Itoa(o.ModelID), o.MetricName, o.Value.String(), string(o.MetricType), o.Date.Format("2006-01-02"),
		})
	}
	descs := make([][]string, 0, len(ds.Descriptions))
	for _, d := range ds.Descriptions {
		descs = append(descs, []string{
			d.MetricName, d.Description, formatOptFloat(d.Thresholds.Attention), formatOptFloat(d.Thresholds.Alert),
			string(d.Type), string(d.Direction),
		})
	}
	if err := writeFile(filepath.Join(dir, ModelsFile), modelColumns, models); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(dir, MetricsFile), metricColumns, metrics); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, DescriptionsFile), descriptionColumns, descs)
}

func writeFile(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := w.WriteAll(rows); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func formatOptFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}

var _ Source = (*CSVSource)(nil)
