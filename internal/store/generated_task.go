package store

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
)

// GeneratedTaskStore persists tasks produced from templates.
type GeneratedTaskStore interface {
	// ExistsForDate reports whether a task was already generated from the
	// template for date. It is an optimisation only; the unique index on
	// (template_id, generated_for_date) is authoritative.
	ExistsForDate(ctx context.Context, templateID uuid.UUID, date civil.Date) (bool, error)

	// InsertGeneratedTask writes the task row and one task_assignees row per
	// assignee in a single transaction. Returns ErrGeneratedTaskExists when a
	// task for the same template and date is already stored; in that case
	// nothing is written.
	InsertGeneratedTask(ctx context.Context, task *domain.Task) error
}
