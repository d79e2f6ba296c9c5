package generation

import (
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
)

// ErrMissingAssignees is wrapped by ValidationError when default assignees
// no longer resolve to users.
var ErrMissingAssignees = errors.New("default assignees do not exist")

// ValidationError reports a template whose defaults cannot produce a valid
// task. It wraps domain.ErrValidation.
type ValidationError struct {
	TemplateID uuid.UUID
	// MissingAssigneeIDs lists default assignees that do not exist, in
	// template order.
	MissingAssigneeIDs []uuid.UUID
	// Err is the specific cause, ErrMissingAssignees or a domain validation error.
	Err error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if len(e.MissingAssigneeIDs) > 0 {
		ids := make([]string, len(e.MissingAssigneeIDs))
		for i, id := range e.MissingAssigneeIDs {
			ids[i] = id.String()
		}
		return fmt.Sprintf("template %s: %v: %s", e.TemplateID, e.Err, strings.Join(ids, ", "))
	}
	return fmt.Sprintf("template %s: %v", e.TemplateID, e.Err)
}

// Unwrap exposes both domain.ErrValidation and the specific cause.
func (e *ValidationError) Unwrap() []error {
	return []error{domain.ErrValidation, e.Err}
}

// PersistenceError reports a storage failure other than a duplicate key.
type PersistenceError struct {
	TemplateID uuid.UUID
	Date       civil.Date
	// Op is the storage operation that failed.
	Op  string
	Err error
}

// Error implements the error interface.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("template %s on %s: %s failed: %v", e.TemplateID, e.Date, e.Op, e.Err)
}

// Unwrap returns the wrapped store error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
