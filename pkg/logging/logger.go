// Package logging provides the structured slog logger shared by mosaic
// components.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"
)

// Logger is a structured JSON logger for one component.
type Logger struct {
	*slog.Logger
	level *slog.LevelVar
}

// New creates a logger writing JSON lines to w.
func New(w io.Writer, component string, level slog.Level) *Logger {
	lv := new(slog.LevelVar)
	lv.Set(level)

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lv})
	logger := slog.New(handler).With(
		slog.String("component", component),
		slog.String("system", "mosaic"),
	)
	return &Logger{Logger: logger, level: lv}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(io.Discard, "discard", slog.LevelError+4)
}

// OpenFile opens path for appending, creating parent directories.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

// ParseLevel maps a config string to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// SetLevel changes the minimum level for this logger and every logger
// derived from it.
func (l *Logger) SetLevel(level slog.Level) {
	l.level.Set(level)
}

// Level returns the current minimum level.
func (l *Logger) Level() slog.Level {
	return l.level.Level()
}

func (l *Logger) with(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...), level: l.level}
}

// WithContext attaches the active span's trace and span ids, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return l
	}
	return l.with(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}

// WithRun tags a logger with the run id of one App.Run.
func (l *Logger) WithRun(runID string) *Logger {
	return l.with(slog.String("run_id", runID))
}

// WithPanel tags a logger with a panel id.
func (l *Logger) WithPanel(id string) *Logger {
	return l.with(slog.String("panel", id))
}

// WithFrame tags a logger with a frame number.
func (l *Logger) WithFrame(frame uint64) *Logger {
	return l.with(slog.Uint64("frame", frame))
}

// WithPhase tags a logger with a frame phase (update, render, flush).
func (l *Logger) WithPhase(phase string) *Logger {
	return l.with(slog.String("phase", phase))
}

// PanelRegistered logs a panel joining the app.
func (l *Logger) PanelRegistered(id string, updates, renders int) {
	l.Info("panel registered",
		slog.String("panel", id),
		slog.Int("update_behaviors", updates),
		slog.Int("render_behaviors", renders),
	)
}

// FrameDiscarded logs a frame dropped without presenting.
func (l *Logger) FrameDiscarded(frame uint64, requests int, reason string) {
	l.Info("frame discarded",
		slog.Uint64("frame", frame),
		slog.Int("requests", requests),
		slog.String("reason", reason),
	)
}

// PresentationFailed logs a backend Show failure.
func (l *Logger) PresentationFailed(frame uint64, err error) {
	l.Error("presentation failed",
		slog.Uint64("frame", frame),
		slog.String("error", err.Error()),
	)
}

// BehaviorSkipped logs a behavior whose gate was closed.
func (l *Logger) BehaviorSkipped(panel, phase string, index int) {
	l.Debug("behavior skipped",
		slog.String("panel", panel),
		slog.String("phase", phase),
		slog.Int("index", index),
	)
}
