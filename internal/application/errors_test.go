package application

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	t.Parallel()

	var err *ValidationError
	if err.Error() != "" {
		t.Fatalf("expected empty string for nil error, got %q", err.Error())
	}

	empty := &ValidationError{}
	if got := empty.Error(); got != "validation failed" {
		t.Fatalf("expected generic message for empty error, got %q", got)
	}

	withFields := &ValidationError{FieldErrors: map[string]string{"service_type": "required", "service_date": "invalid"}}
	if got := withFields.Error(); got != "validation failed: service_date, service_type" {
		t.Fatalf("expected sorted field list, got %q", got)
	}
}

func TestValidationError_HasErrors(t *testing.T) {
	t.Parallel()

	if (&ValidationError{}).HasErrors() {
		t.Fatalf("expected HasErrors to report false for empty error")
	}
	if !(&ValidationError{FieldErrors: map[string]string{"field": "bad"}}).HasErrors() {
		t.Fatalf("expected HasErrors to report true when fields are present")
	}
}

func TestValidationError_AddAndMerge(t *testing.T) {
	t.Parallel()

	base := &ValidationError{}
	base.add("service_date", "invalid")

	nested := &ValidationError{}
	nested.add("person_id", "unknown person")
	base.merge("schedules[1].", nested)

	if got := base.FieldErrors["schedules[1].person_id"]; got != "unknown person" {
		t.Fatalf("expected merge to prefix field, got %q", got)
	}

	base.merge("ignored.", nil)
	if len(base.FieldErrors) != 2 {
		t.Fatalf("expected merge with nil to leave fields unchanged")
	}
}

func TestErrUnitOfWorkFailedUnwraps(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("%w: schedule rejected", ErrUnitOfWorkFailed)
	if !errors.Is(err, ErrUnitOfWorkFailed) {
		t.Fatalf("expected wrapped error to match ErrUnitOfWorkFailed")
	}
	if ErrorKind(err) != "unit_of_work" {
		t.Fatalf("expected unit_of_work kind, got %q", ErrorKind(err))
	}
}
