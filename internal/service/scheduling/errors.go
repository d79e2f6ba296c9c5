package scheduling

import (
	"errors"
	"fmt"

	"github.com/phrazzld/bizops-api/internal/store"
)

var (
	// ErrTemplateNotFound indicates that GenerateNow was asked for an unknown template.
	// API layer should map this to HTTP 404 Not Found.
	ErrTemplateNotFound = errors.New("task template not found")

	// ErrInvalidDate indicates a target date that is not a real calendar date.
	ErrInvalidDate = errors.New("invalid target date")

	// ErrFutureDate indicates a date after today in the driver's timezone.
	// It wraps ErrInvalidDate.
	ErrFutureDate = fmt.Errorf("%w: date is in the future", ErrInvalidDate)

	// ErrUnitPanicked is wrapped around a recovered panic from a single template.
	ErrUnitPanicked = errors.New("template processing panicked")
)

// SchedulerError wraps unexpected failures of driver operations.
type SchedulerError struct {
	// Operation is the operation that failed (e.g., "batch_run", "generate_now")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for SchedulerError.
func (e *SchedulerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("scheduler %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("scheduler %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *SchedulerError) Unwrap() error {
	return e.Err
}

// NewSchedulerError creates a new SchedulerError.
// Known sentinel errors are returned directly without wrapping.
func NewSchedulerError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrTemplateNotFound) || errors.Is(err, store.ErrTemplateNotFound) {
		return ErrTemplateNotFound
	}

	return &SchedulerError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
