package services

import (
	"errors"
	"fmt"
)

// ValidationError is returned when input is rejected before any mutation
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var (
	ErrTitleRequired        = &ValidationError{Field: "title", Message: "title is required"}
	ErrDeadlineRequired     = &ValidationError{Field: "deadline", Message: "deadline is required"}
	ErrDeadlineInvalid      = &ValidationError{Field: "deadline", Message: "deadline is not a valid date-time"}
	ErrStatusNotRequestable = &ValidationError{Field: "status", Message: "status must be in-progress or completed"}
	ErrInvalidFilter        = &ValidationError{Field: "filter", Message: "filter must be all, in-progress, completed or overdue"}
)

var (
	ErrPersistenceCorrupt = errors.New("persisted state is corrupt")
	ErrPersistFailed      = errors.New("failed to persist state")
)

// IsValidationError reports whether err carries a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
