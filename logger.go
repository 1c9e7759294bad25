package annidx

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with annidx-specific context.
// This provides structured logging with consistent field names.
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
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// LogInit logs an init operation.
func (l *Logger) LogInit(ctx context.Context, count, dimension int, variant string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "init failed",
			"count", count,
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "init completed",
			"count", count,
			"dimension", dimension,
			"variant", variant,
		)
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, count, total int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"count", count,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"count", count,
			"total", total,
		)
	}
}

// LogRebuild logs a threshold-crossing rebuild.
func (l *Logger) LogRebuild(ctx context.Context, total int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "rebuild failed",
			"total", total,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "rebuild completed",
			"total", total,
			"variant", "clustered",
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, queries, k int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"queries", queries,
			"k", k,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"queries", queries,
			"k", k,
		)
	}
}

// LogSave logs a snapshot save.
func (l *Logger) LogSave(ctx context.Context, location string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "save failed",
			"location", location,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "snapshot saved",
			"location", location,
		)
	}
}

// LogLoad logs a snapshot load.
func (l *Logger) LogLoad(ctx context.Context, location string, found bool, err error) {
	if err != nil {
		l.ErrorContext(ctx, "load failed",
			"location", location,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "load completed",
			"location", location,
			"found", found,
		)
	}
}

// LogAcceleratedFallback logs a fall back to the portable distance kernels.
func (l *Logger) LogAcceleratedFallback(err error) {
	l.Warn("accelerated backend unavailable, using portable kernels",
		"error", err,
	)
}
