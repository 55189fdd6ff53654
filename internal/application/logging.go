package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/example/liturgical-scheduler/internal/logging"
)

func serviceLogger(ctx context.Context, base *slog.Logger, serviceName, operation string, attrs ...any) *slog.Logger {
	return logging.Scoped(ctx, base, "service", serviceName, operation, attrs...)
}

// ErrorKind labels err for the error_kind log attribute.
func ErrorKind(err error) string {
	var vErr *ValidationError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnitOfWorkFailed):
		return "unit_of_work"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.As(err, &vErr):
		return "validation"
	default:
		return "unexpected"
	}
}
