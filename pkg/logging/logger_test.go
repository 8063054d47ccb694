package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Failed to parse log JSON %q: %v", buf.String(), err)
	}
	return entry
}

func TestNewLogger_FromEnv(t *testing.T) {
	t.Setenv(LevelEnv, "debug")

	logger := NewLogger()
	if logger == nil || logger.Logger == nil {
		t.Fatal("NewLogger() returned nil")
	}
	if !logger.DebugEnabled(context.Background()) {
		t.Error("Expected DEBUG to be enabled by SKIJET_LOG_LEVEL=debug")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{" Info ", slog.LevelInfo},
		{"WARN", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRunID(t *testing.T) {
	t.Run("generated IDs are distinct hex", func(t *testing.T) {
		a, b := NewRunID(), NewRunID()
		if len(a) != 16 || len(b) != 16 {
			t.Errorf("Expected 16 hex characters, got %q and %q", a, b)
		}
		if a == b {
			t.Error("NewRunID() returned duplicate IDs")
		}
	})

	t.Run("explicit ID round trips", func(t *testing.T) {
		ctx := WithRunID(context.Background(), "slope-42")
		if got := RunID(ctx); got != "slope-42" {
			t.Errorf("RunID() = %q, want %q", got, "slope-42")
		}
	})

	t.Run("empty ID is generated", func(t *testing.T) {
		ctx := WithRunID(context.Background(), "")
		if len(RunID(ctx)) != 16 {
			t.Errorf("Expected generated run ID, got %q", RunID(ctx))
		}
	})

	t.Run("missing ID", func(t *testing.T) {
		if got := RunID(context.Background()); got != "" {
			t.Errorf("RunID() = %q, want empty", got)
		}
	})
}

func TestRedactAttributes(t *testing.T) {
	tests := []struct {
		name     string
		attr     slog.Attr
		expected string
	}{
		{"dsn", slog.String("trace_dsn", "postgres://u:pw@db/skijet"), "[REDACTED]"},
		{"password", slog.String("PASSWORD", "hunter2"), "[REDACTED]"},
		{"token", slog.String("api_token", "abc"), "[REDACTED]"},
		{"course", slog.String("course", "slope"), "slope"},
		{"speed", slog.Float64("speed", 12.5), "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := redactAttributes(nil, tt.attr)
			if got.Value.String() != tt.expected {
				t.Errorf("redactAttributes() = %q, want %q", got.Value.String(), tt.expected)
			}
		})
	}
}

func TestLoggerMethods(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelDebug)
	ctx := WithRunID(context.Background(), "run-1")

	tests := []struct {
		name  string
		log   func()
		level string
	}{
		{"info", func() { logger.Info(ctx, "msg", "k", "v") }, "INFO"},
		{"warn", func() { logger.Warn(ctx, "msg", "k", "v") }, "WARN"},
		{"debug", func() { logger.Debug(ctx, "msg", "k", "v") }, "DEBUG"},
		{"error", func() { logger.Error(ctx, "msg", errors.New("boom"), "k", "v") }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.log()
			entry := decode(t, &buf)

			if entry["level"] != tt.level {
				t.Errorf("level = %v, want %v", entry["level"], tt.level)
			}
			if entry["run_id"] != "run-1" {
				t.Errorf("run_id = %v, want run-1", entry["run_id"])
			}
			if entry["k"] != "v" {
				t.Errorf("k = %v, want v", entry["k"])
			}
			if tt.level == "ERROR" && entry["error"] != "boom" {
				t.Errorf("error = %v, want boom", entry["error"])
			}
		})
	}
}

func TestLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo)

	logger.Debug(context.Background(), "per-tick detail")
	if buf.Len() != 0 {
		t.Errorf("DEBUG record leaked at INFO level: %s", buf.String())
	}
	if logger.DebugEnabled(context.Background()) {
		t.Error("DebugEnabled() should be false at INFO level")
	}
}

func TestLoggerWith(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithWriter(&buf, slog.LevelInfo).With("component", "engine")

	logger.Info(context.Background(), "started")

	entry := decode(t, &buf)
	if entry["component"] != "engine" {
		t.Errorf("component = %v, want engine", entry["component"])
	}
	if strings.Contains(buf.String(), "run_id") {
		t.Error("run_id should be absent when the context carries none")
	}
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	logger.Error(context.Background(), "ignored", errors.New("x"))
	if logger.DebugEnabled(context.Background()) {
		t.Error("Discard() logger should not enable DEBUG")
	}
}

func TestWrapError(t *testing.T) {
	if WrapError(nil, "context") != nil {
		t.Error("WrapError(nil) should return nil")
	}

	base := errors.New("disk full")
	wrapped := WrapError(base, "append %d samples", 64)

	if wrapped.Error() != "append 64 samples: disk full" {
		t.Errorf("WrapError() = %q", wrapped.Error())
	}
	if !errors.Is(wrapped, base) {
		t.Error("WrapError() should preserve the original error")
	}
}
