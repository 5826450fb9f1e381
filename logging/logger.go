// Package logging provides a tiny abstraction over slog so the coordination
// engine can depend on a minimal interface (Logger) while callers plug in
// any structured logger. Helpers cover the two domain events worth uniform
// treatment: capability invocations and routing decisions.
package logging

import (
	"io"
	"log/slog"
	"os"
	"time"
)

// Logger is the minimal logging interface used throughout AgentHub.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures New.
type Options struct {
	// Level is the minimum level emitted.
	Level slog.Level
	// Format is "json" (default) or "text".
	Format string
	// Output defaults to os.Stdout.
	Output io.Writer
	// AddSource attaches file:line to every record.
	AddSource bool
}

// New builds a slog-backed Logger. Defaults: info level, JSON, stdout.
func New(optFns ...func(o *Options)) Logger {
	opts := Options{Level: slog.LevelInfo, Format: "json", Output: os.Stdout}
	for _, fn := range optFns {
		fn(&opts)
	}

	hOpts := &slog.HandlerOptions{Level: opts.Level, AddSource: opts.AddSource}
	var handler slog.Handler
	if opts.Format == "text" {
		handler = slog.NewTextHandler(opts.Output, hOpts)
	} else {
		handler = slog.NewJSONHandler(opts.Output, hOpts)
	}
	return &SlogAdapter{Logger: slog.New(handler)}
}

// ParseLevel maps a level name to its slog.Level; unknown names fall back to
// info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// SlogAdapter wraps *slog.Logger to implement the Logger interface.
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter creates a Logger from an existing *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger { return &SlogAdapter{Logger: logger} }

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NoOpLogger discards all log messages. Useful for tests.
type NoOpLogger struct{}

// Debug discards the message.
func (NoOpLogger) Debug(string, ...any) {}

// Info discards the message.
func (NoOpLogger) Info(string, ...any) {}

// Warn discards the message.
func (NoOpLogger) Warn(string, ...any) {}

// Error discards the message.
func (NoOpLogger) Error(string, ...any) {}

// OrNoOp substitutes a NoOpLogger for nil so components never nil-check.
func OrNoOp(l Logger) Logger {
	if l == nil {
		return NoOpLogger{}
	}
	return l
}

// Invocation records one capability invocation with uniform fields.
func Invocation(l Logger, capability, status string, attempt int, dur time.Duration) {
	if status == "success" {
		l.Info("capability invocation completed",
			"capability", capability, "status", status, "attempt", attempt, "duration_ms", dur.Milliseconds())
		return
	}
	l.Warn("capability invocation did not succeed",
		"capability", capability, "status", status, "attempt", attempt, "duration_ms", dur.Milliseconds())
}

// Route records a routing decision with uniform fields.
func Route(l Logger, taskID, mode string, capabilities []string) {
	l.Info("task routed", "task_id", taskID, "mode", mode, "capabilities", capabilities)
}
