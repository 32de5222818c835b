package rangehnsw

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with index-specific helpers so build and query
// paths log consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	}))}
}

// LogBuild logs a completed (or failed) index build.
func (l *Logger) LogBuild(ctx context.Context, n, workers int, duration time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "build failed",
			"vectors", n,
			"workers", workers,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "build completed",
			"vectors", n,
			"workers", workers,
			"duration", duration,
		)
	}
}

// LogBuildProgress logs throttled per-node build progress.
func (l *Logger) LogBuildProgress(ctx context.Context, builtNodes, totalNodes int) {
	l.DebugContext(ctx, "build progress",
		"nodes_built", builtNodes,
		"nodes_total", totalNodes,
	)
}

// LogQuery logs a range-filtered query.
func (l *Logger) LogQuery(k, resultsFound int, err error) {
	if err != nil {
		l.Error("query failed",
			"k", k,
			"error", err,
		)
	} else {
		l.Debug("query completed",
			"k", k,
			"results", resultsFound,
		)
	}
}
