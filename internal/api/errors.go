package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/bizops-api/internal/api/shared"
	"github.com/phrazzld/bizops-api/internal/domain"
	"github.com/phrazzld/bizops-api/internal/events"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
	"github.com/phrazzld/bizops-api/internal/service/scheduling"
	"github.com/phrazzld/bizops-api/internal/task"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes so that
// internal error types never leak to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, scheduling.ErrTemplateNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, scheduling.ErrInvalidDate),
		errors.Is(err, events.ErrUnknownEventKind):
		return http.StatusBadRequest

	// The runner cannot take more work right now; the caller may retry.
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, scheduling.ErrTemplateNotFound):
		return "Task template not found"
	case errors.Is(err, domain.ErrInvalidDate),
		errors.Is(err, scheduling.ErrInvalidDate):
		return "Invalid target date"
	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid ID"
	case errors.Is(err, events.ErrUnknownEventKind):
		return "Unknown event kind"
	case errors.Is(err, domain.ErrValidation):
		return "Validation error"
	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return "Generation is temporarily unavailable"
	default:
		return "An unexpected error occurred"
	}
}

// SanitizeValidationError turns validator output into a short message that
// names the offending field without echoing its value.
func SanitizeValidationError(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		fe := fieldErrs[0]
		return fmt.Sprintf("Invalid %s: %s", jsonFieldName(fe.Field()), getValidationTagMessage(fe.Tag()))
	}

	var domainErr *domain.ValidationError
	if errors.As(err, &domainErr) {
		return fmt.Sprintf("Invalid %s: %s", domainErr.Field, domainErr.Message)
	}

	return "Validation error"
}

func getValidationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "datetime":
		return "must be a date in YYYY-MM-DD format"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

// jsonFieldName converts a Go field name such as TargetDate to target_date.
func jsonFieldName(field string) string {
	var b strings.Builder
	for i, r := range field {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// HandleAPIError writes the error response for err. A non-empty message
// overrides the safe default for the mapped status.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err)
}

// handleValidationError writes a 400 for a request that failed validation.
func handleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	logger.FromContext(r.Context()).Debug("request validation failed", "error", err)
	shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
}
