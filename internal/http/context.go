package http

import (
	"context"
	"log/slog"

	"github.com/example/liturgical-scheduler/internal/logging"
)

type contextKey string

const serviceIDContextKey contextKey = "service_id"

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.Into(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, or nil.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.From(ctx)
}

// ContextWithServiceID injects the service identifier resolved from the request path.
func ContextWithServiceID(ctx context.Context, serviceID string) context.Context {
	return context.WithValue(ctx, serviceIDContextKey, serviceID)
}

// ServiceIDFromContext extracts a service identifier previously associated with the context.
func ServiceIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(serviceIDContextKey).(string)
	return id, ok
}
