package cli

import (
	"errors"

	"github.com/example/liturgical-scheduler/internal/application"
)

// Error codes written by OutputFormatter.Error.
const (
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeValidation       = "VALIDATION_FAILED"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeAlreadyExists    = "ALREADY_EXISTS"
	ErrCodeUnitOfWorkFailed = "UNIT_OF_WORK_FAILED"
	ErrCodeDelivery         = "DELIVERY_FAILED"
	ErrCodeInternal         = "INTERNAL"
)

// reportError writes err through the formatter and returns the matching
// ExitError. Application validation failures carry their field errors as
// details.
func reportError(f *OutputFormatter, message string, err error) error {
	code := ErrCodeInternal
	var details interface{}

	var vErr *application.ValidationError
	switch {
	case errors.As(err, &vErr):
		code = ErrCodeValidation
		details = vErr.FieldErrors
	case errors.Is(err, application.ErrNotFound):
		code = ErrCodeNotFound
	case errors.Is(err, application.ErrAlreadyExists):
		code = ErrCodeAlreadyExists
	case errors.Is(err, application.ErrUnitOfWorkFailed):
		code = ErrCodeUnitOfWorkFailed
	}

	if outErr := f.Error(code, message+": "+err.Error(), details); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitFailure, message, err)
}

// reportUsage writes an input error and returns an ExitCommandError.
func reportUsage(f *OutputFormatter, message string) error {
	if outErr := f.Error(ErrCodeInvalidInput, message, nil); outErr != nil {
		return outErr
	}
	return WrapExitError(ExitCommandError, message, nil)
}
