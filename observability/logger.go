// Package observability provides the optional observability layer for the
// expression engine: structured logging, metrics, and distributed tracing
// around rule compilation and evaluation.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// All features are opt-in and have no-op implementations when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds evaluation context to a logger.
// Returns a new logger with rule and engine fields attached.
func EnrichLogger(logger *slog.Logger, engineID, rule string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("engine_id", engineID),
		slog.String("rule", rule),
	)
}

// LogCompile logs a successful rule compilation.
func LogCompile(logger *slog.Logger, rule string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("rule compiled",
		slog.String("rule", rule),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogCompileError logs a rule that failed to compile.
func LogCompileError(logger *slog.Logger, rule string, err error) {
	if logger == nil {
		return
	}
	logger.Error("rule compilation failed",
		slog.String("rule", rule),
		slog.String("error", err.Error()),
	)
}

// LogEvaluation logs a completed evaluation.
func LogEvaluation(logger *slog.Logger, rule string, result string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("rule evaluated",
		slog.String("rule", rule),
		slog.String("result", result),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogEvaluationError logs a failed evaluation.
func LogEvaluationError(logger *slog.Logger, rule string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("rule evaluation failed",
		slog.String("rule", rule),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogStoreError logs a rule store failure (non-fatal for the engine).
func LogStoreError(logger *slog.Logger, op, rule string, err error) {
	if logger == nil {
		return
	}
	logger.Warn("rule store operation failed",
		slog.String("operation", op),
		slog.String("rule", rule),
		slog.String("error", err.Error()),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in
// milliseconds.
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
