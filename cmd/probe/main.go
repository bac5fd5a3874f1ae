package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/pdwatch/internal/probe"
	"github.com/okian/pdwatch/pkg/logger"
)

const defaultRunTimeout = 10 * time.Minute

func main() {
	var (
		baseURL = flag.String("url", probe.DefaultBaseURL, "Base URL of the service")
		workers = flag.Int("workers", 0, "Number of concurrent workers (default CPU cores * 2)")
		rounds  = flag.Int("rounds", 1, "Times the full request plan is replayed")
		timeout = flag.Duration("timeout", probe.DefaultTimeout, "HTTP request timeout")
		verbose = flag.Bool("verbose", false, "Log every request")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		probe.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	cfg := probe.Config{
		BaseURL: *baseURL,
		Workers: *workers,
		Rounds:  *rounds,
		Timeout: *timeout,
		Verbose: *verbose,
	}
	if _, err := probe.Run(ctx, cfg); err != nil {
		logger.Get().Error(ctx, "probe failed", logger.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}
