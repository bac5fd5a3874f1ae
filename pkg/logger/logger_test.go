package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
	if err := Init(WithFormat("yaml")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestLoggerJSONOutput(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithFormat(FormatJSON), WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().With(String("request_id", "abc")).Info(context.Background(), "dataset loaded",
		Int("models", 10), Bool("cached", true), Duration("took", time.Second), Error(errors.New("x")))

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "dataset loaded" || rec["request_id"] != "abc" || rec["models"] != float64(10) {
		t.Errorf("unexpected record: %v", rec)
	}
	if src, _ := rec["source"].(string); !strings.Contains(src, "logger_test.go") {
		t.Errorf("source should point at the caller, got %q", src)
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	Named("http").Warn(context.Background(), "slow request", String("path", "/models"))
	if !strings.Contains(buf.String(), "http.path=/models") {
		t.Errorf("expected grouped attribute, got %q", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer SetLevelString("info")

	for _, lvl := range []string{"debug", "INFO", "warning", "error", ""} {
		if err := SetLevelString(lvl); err != nil {
			t.Errorf("SetLevelString(%q) failed: %v", lvl, err)
		}
	}
	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}

	if err := SetLevelString("error"); err != nil {
		t.Fatal(err)
	}
	Get().Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info record written at error level: %q", buf.String())
	}
}
