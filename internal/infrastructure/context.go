package infrastructure

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// GenerateTraceID creates a new unique trace ID using UUID v4
func GenerateTraceID() string {
	return uuid.New().String()
}

// ContextWithTraceID creates a new context with a generated trace ID
func ContextWithTraceID(ctx context.Context) context.Context {
	return WithTraceID(ctx, GenerateTraceID())
}

// EnsureTraceID ensures the context has a trace ID, generating one if needed
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) == "" {
		return ContextWithTraceID(ctx)
	}
	return ctx
}

// WithGroup marks the context as belonging to one group's processing
func WithGroup(ctx context.Context, group string) context.Context {
	return context.WithValue(ctx, GroupContextKey, group)
}

// GetGroup retrieves the group name from context
func GetGroup(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if group, ok := ctx.Value(GroupContextKey).(string); ok {
		return group
	}
	return ""
}

// LoggerWithContext returns logger annotated with the trace ID and group
// carried by ctx, for code paths that log without a context.
func LoggerWithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = GetLogger()
	}
	if traceID := GetTraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}
	if group := GetGroup(ctx); group != "" {
		logger = logger.With("group", group)
	}
	return logger
}

// WithComponent creates a logger with a component field
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}

// WithError creates a logger with an error field
func WithError(logger *slog.Logger, err error) *slog.Logger {
	if err == nil {
		return logger
	}
	return logger.With("error", err.Error())
}
