package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the parent of every lookup failure.
	ErrNotFound = errors.New("not found")
	// ErrQuestionNotFound is returned when a question id does not exist.
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
	// ErrTestNotFound is returned when a test id does not exist.
	ErrTestNotFound = fmt.Errorf("test %w", ErrNotFound)
	// ErrSessionNotFound is returned when a session id is unknown or expired.
	ErrSessionNotFound = fmt.Errorf("session %w", ErrNotFound)

	// ErrEmptyTest is returned when a test has no presentable questions.
	ErrEmptyTest = errors.New("test has no questions")
	// ErrAlreadyGraded is returned when a session is submitted twice.
	ErrAlreadyGraded = errors.New("session already graded")
	// ErrNotGraded is returned when saving a session that has not been submitted.
	ErrNotGraded = errors.New("session not graded yet")
	// ErrSessionClosed is returned when acting on a discarded or saved session.
	ErrSessionClosed = errors.New("session closed")
)

// ValidationError describes one invalid input field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation error on field '%s': %s", e.Field, e.Message)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "validation failed"
	}
	if len(ve) == 1 {
		return fmt.Sprintf("validation failed: %s %s", ve[0].Field, ve[0].Message)
	}
	return fmt.Sprintf("validation failed: %d field errors", len(ve))
}

// NewValidationError builds a single-field ValidationErrors.
func NewValidationError(field, message string, value any) ValidationErrors {
	return ValidationErrors{{Field: field, Message: message, Value: value}}
}

// IsValidation reports whether err carries validation errors.
func IsValidation(err error) bool {
	var ve ValidationErrors
	return errors.As(err, &ve)
}
