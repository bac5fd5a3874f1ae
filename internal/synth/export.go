package synth

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/okian/pdwatch/internal/adapters/repository"
	"github.com/okian/pdwatch/pkg/logger"
)

// Output names where a generated dataset is written. Empty fields are skipped.
type Output struct {
	Dir    string
	SQLite string
}

// Export generates a dataset and writes it to every configured output.
func Export(ctx context.Context, cfg Config, out Output) (repository.Dataset, error) {
	if out.Dir == "" && out.SQLite == "" {
		return repository.Dataset{}, fmt.Errorf("%w: no output configured", ErrInvalidOutput)
	}
	log := logger.Get()
	ds := Generate(cfg)

	if out.Dir != "" {
		if err := repository.WriteCSV(out.Dir, ds); err != nil {
			return ds, err
		}
		log.Info(ctx, "wrote csv tables", logger.String("dir", out.Dir))
	}

	if out.SQLite != "" {
		if err := writeSQLite(ctx, out.SQLite, ds); err != nil {
			return ds, err
		}
		log.Info(ctx, "wrote sqlite database", logger.String("path", out.SQLite))
	}

	log.Info(ctx, "dataset generated",
		logger.Int("models", len(ds.Models)),
		logger.Int("observations", len(ds.Observations)),
		logger.Int("descriptions", len(ds.Descriptions)))
	return ds, nil
}

// writeSQLite replaces any database at path with a fresh copy of ds.
func writeSQLite(ctx context.Context, path string, ds repository.Dataset) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	db, err := repository.Open(ctx, repository.DriverSQLite, path, repository.PoolConfig{MaxOpenConns: 1})
	if err != nil {
		return err
	}
	src := repository.NewSQLSource(db, repository.DriverSQLite)
	defer src.Close()

	if err := src.Migrate(ctx); err != nil {
		return err
	}
	return src.Import(ctx, ds)
}
