package quantgo

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with quantgo-specific context.
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

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithNBits adds a bit-width field to the logger.
func (l *Logger) WithNBits(nBits uint) *Logger {
	return &Logger{
		Logger: l.Logger.With("n_bits", nBits),
	}
}

// WithCount adds a count field to the logger.
func (l *Logger) WithCount(count int) *Logger {
	return &Logger{
		Logger: l.Logger.With("count", count),
	}
}

// LogCalibration logs a parameter derivation from calibration statistics.
func (l *Logger) LogCalibration(ctx context.Context, stats *CalibrationStats, params *QuantizationParameters, err error) {
	if err != nil {
		l.ErrorContext(ctx, "calibration failed",
			"rmin", stats.RangeMin(),
			"rmax", stats.RangeMax(),
			"error", err,
		)
		return
	}
	l.DebugContext(ctx, "calibration completed",
		"rmin", stats.RangeMin(),
		"rmax", stats.RangeMax(),
		"scale", params.Scale(),
		"offset", params.Offset(),
	)
}

// LogBatchQuantize logs a batch quantization run.
func (l *Logger) LogBatchQuantize(ctx context.Context, count int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "batch quantization failed",
			"count", count,
			"error", err,
		)
		return
	}
	l.InfoContext(ctx, "batch quantization completed",
		"count", count,
	)
}
