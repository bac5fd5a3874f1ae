package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/pdwatch/internal/synth"
	"github.com/okian/pdwatch/pkg/logger"
)

func main() {
	var (
		out    = flag.String("out", "data", "Directory for models.csv, metrics.csv and metricas_descricao.csv (empty to skip)")
		sqlite = flag.String("sqlite", "", "Also write the tables to this SQLite file")
		models = flag.Int("models", synth.DefaultModels, "Number of models")
		months = flag.Int("months", synth.DefaultMonths, "Number of monthly observations per model")
		seed   = flag.Uint64("seed", synth.DefaultSeed, "Random seed")
		format = flag.String("log-format", "text", "Log format: text or json")
	)
	flag.Parse()

	if err := logger.Init(logger.WithFormat(logger.Format(*format))); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := synth.Config{Models: *models, Months: *months, Seed: *seed}
	if _, err := synth.Export(ctx, cfg, synth.Output{Dir: *out, SQLite: *sqlite}); err != nil {
		logger.Get().Error(ctx, "generation failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}
