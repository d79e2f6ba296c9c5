package store

import (
	"context"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
)

// TemplateStore defines the persistence operations the engine performs on
// task templates. Template CRUD is owned by the template API, so the only
// write here is the watermark.
type TemplateStore interface {
	// FindDueTemplates returns active templates whose window contains today:
	// start_date <= today and (end_date IS NULL or end_date >= today).
	// Results are ordered by id. Returns an empty slice when none match.
	FindDueTemplates(ctx context.Context, today civil.Date) ([]*domain.TaskTemplate, error)

	// GetByID retrieves a template regardless of its active flag.
	// Returns ErrTemplateNotFound if the template does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskTemplate, error)

	// AdvanceWatermark moves last_generated_date forward to date. The update
	// is conditional: it only applies when the stored watermark is unset or
	// earlier than date, so the watermark never moves backwards. The returned
	// flag reports whether the row changed.
	AdvanceWatermark(ctx context.Context, id uuid.UUID, date civil.Date) (bool, error)
}
