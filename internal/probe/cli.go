package probe

import "os"

// ShowHelp prints usage information for the probe tool.
func ShowHelp() {
	os.Stdout.WriteString(`pdwatch probe
=============

Requests every report of a running pdwatch instance concurrently and checks
that each response is internally consistent.

Usage:
  go run ./cmd/probe [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -rounds int
        Times the full request plan is replayed (default 1)
  -timeout duration
        HTTP request timeout (default 30s)
  -verbose
        Log every request
  -help
        Show this help message

Examples:
  go run ./cmd/probe
  go run ./cmd/probe -url http://localhost:8080 -workers 16 -rounds 20
`)
}
