// Package observability sets up structured logging, tracing and metrics.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	tlog "go.temporal.io/sdk/log"
)

// ParseLevel maps COMUNEROS_LOG_LEVEL values to slog levels. Unknown values
// fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// InitLogger configures the global slog logger with JSON output on stdout
// at the given level. Every record carries the service name.
func InitLogger(level, service string) *slog.Logger {
	return InitLoggerTo(os.Stdout, level, service)
}

// InitLoggerTo is InitLogger writing to w.
func InitLoggerTo(w io.Writer, level, service string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	if service != "" {
		logger = logger.With("service", service)
	}
	slog.SetDefault(logger)
	return logger
}

// TemporalSlogAdapter adapts slog.Logger to Temporal's log.Logger interface.
type TemporalSlogAdapter struct {
	logger *slog.Logger
}

// NewTemporalSlogAdapter creates a Temporal log adapter from a slog.Logger.
func NewTemporalSlogAdapter(logger *slog.Logger) *TemporalSlogAdapter {
	return &TemporalSlogAdapter{logger: logger.With("component", "temporal")}
}

func (a *TemporalSlogAdapter) Debug(msg string, keyvals ...any) {
	a.logger.Debug(msg, keyvals...)
}

func (a *TemporalSlogAdapter) Info(msg string, keyvals ...any) {
	a.logger.Info(msg, keyvals...)
}

func (a *TemporalSlogAdapter) Warn(msg string, keyvals ...any) {
	a.logger.Warn(msg, keyvals...)
}

func (a *TemporalSlogAdapter) Error(msg string, keyvals ...any) {
	a.logger.Error(msg, keyvals...)
}

// With returns an adapter that adds keyvals to every record. Workflow and
// activity loggers use it to attach their ids.
func (a *TemporalSlogAdapter) With(keyvals ...any) tlog.Logger {
	return &TemporalSlogAdapter{logger: a.logger.With(keyvals...)}
}

// Compile-time check.
var (
	_ tlog.Logger     = (*TemporalSlogAdapter)(nil)
	_ tlog.WithLogger = (*TemporalSlogAdapter)(nil)
)
