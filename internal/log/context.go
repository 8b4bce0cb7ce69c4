package log

import (
	"context"
	"log/slog"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// WithContext returns a copy of ctx carrying logger.
func WithContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// StructuredLogger provides structured logging methods with context awareness
type StructuredLogger struct {
	logger *Logger
}

// NewStructuredLogger creates a new structured logger
func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{
		logger: logger,
	}
}

// LogEntryChanged logs an added, updated or removed entry.
func (sl *StructuredLogger) LogEntryChanged(ctx context.Context, op, entryType, desc, category, amount string) {
	fields := NewFields().
		WithEntry(entryType, desc, category, amount).
		WithOperation(op)

	sl.logger.WithComponent(ComponentState).InfoContext(ctx, "Entry changed", fields.ToSlice()...)
}

// LogForecastExported logs a forecast handed to an export sink.
func (sl *StructuredLogger) LogForecastExported(ctx context.Context, monthKey, currency, balance, ref string) {
	fields := NewFields().
		WithForecast(monthKey, currency, balance).
		WithOperation(OpExport).
		ToSlice()

	fields = append(fields, FieldExportRef, ref)

	sl.logger.WithComponent(ComponentExport).InfoContext(ctx, "Forecast exported", fields...)
}

// LogError logs an error with structured context
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component string, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	allFields := fields.
		WithError(err).
		WithOperation(operation)

	sl.logger.WithComponent(component).ErrorContext(ctx, msg, allFields.ToSlice()...)
}
