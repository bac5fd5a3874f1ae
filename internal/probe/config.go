// Package probe exercises a running pdwatch instance end to end: it walks
// every model, requests each report concurrently and verifies that the
// responses are internally consistent.
package probe

import (
	"runtime"
	"time"
)

// Defaults of Config.
const (
	DefaultBaseURL = "http://localhost:9080"
	DefaultTimeout = 30 * time.Second
	workerFactor   = 2
)

// Config holds configuration for a probe run.
type Config struct {
	BaseURL string        // Base URL of the service
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Rounds  int           // How many times the full request plan is replayed
	Verbose bool          // Log every request
}

func (c Config) withDefaults() Config {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Workers < 1 {
		c.Workers = runtime.NumCPU() * workerFactor
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Rounds < 1 {
		c.Rounds = 1
	}
	return c
}

// Stats holds the outcome of a probe run.
type Stats struct {
	Models     int
	Requests   int
	Succeeded  int
	Failed     int
	Violations []string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
}
