// Package logging wraps log/slog with the JSON output, run tagging and
// attribute redaction used across skijet.
package logging

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LevelEnv names the environment variable that selects the log level.
const LevelEnv = "SKIJET_LOG_LEVEL"

// Logger is a slog.Logger whose level methods take a context and stamp the
// run ID carried by it.
type Logger struct {
	*slog.Logger
}

// NewLogger writes JSON to stdout at the level named by SKIJET_LOG_LEVEL
// (DEBUG, INFO, WARN, ERROR; INFO when unset or unknown).
func NewLogger() *Logger {
	return NewLoggerWithWriter(os.Stdout, ParseLevel(os.Getenv(LevelEnv)))
}

// NewLoggerWithWriter writes JSON to w at the given level.
func NewLoggerWithWriter(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: redactAttributes,
	})
	return &Logger{slog.New(handler)}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewLoggerWithWriter(io.Discard, slog.LevelError+4)
}

// With returns a logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{l.Logger.With(args...)}
}

func (l *Logger) logCtx(ctx context.Context, level slog.Level, msg string, args ...any) {
	if id := RunID(ctx); id != "" {
		args = append(args, "run_id", id)
	}
	l.Log(ctx, level, msg, args...)
}

// Info logs at INFO.
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.logCtx(ctx, slog.LevelInfo, msg, args...)
}

// Warn logs at WARN.
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.logCtx(ctx, slog.LevelWarn, msg, args...)
}

// Error logs at ERROR with err rendered under the "error" key.
func (l *Logger) Error(ctx context.Context, msg string, err error, args ...any) {
	if err != nil {
		args = append(args, "error", err.Error())
	}
	l.logCtx(ctx, slog.LevelError, msg, args...)
}

// Debug logs at DEBUG.
func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.logCtx(ctx, slog.LevelDebug, msg, args...)
}

// DebugEnabled reports whether DEBUG records would be emitted. Per-tick
// callers check it before building attributes.
func (l *Logger) DebugEnabled(ctx context.Context) bool {
	return l.Enabled(ctx, slog.LevelDebug)
}

type runIDKey struct{}

// WithRunID tags ctx with a simulation run ID, generating one when id is empty.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewRunID()
	}
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunID returns the run ID carried by ctx, or "".
func RunID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(runIDKey{}).(string); ok {
		return id
	}
	return ""
}

// NewRunID returns 16 random hex characters.
func NewRunID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// ParseLevel maps a level name to a slog.Level, defaulting to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var redactedKeys = []string{
	"password", "passwd", "pwd",
	"token", "secret", "dsn",
	"auth", "credential",
}

// redactAttributes masks values whose key looks like a credential. Trace
// DSNs carry database passwords, so they never reach the log.
func redactAttributes(_ []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, k := range redactedKeys {
		if strings.Contains(key, k) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	return a
}

// WrapError prefixes err with a formatted context, preserving it for errors.Is.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	if len(args) > 0 {
		format = fmt.Sprintf(format, args...)
	}
	return fmt.Errorf("%s: %w", format, err)
}
