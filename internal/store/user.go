package store

import (
	"context"

	"github.com/google/uuid"
)

// UserStore exposes the user lookups the generation engine needs.
// User management itself belongs to the platform's user service.
type UserStore interface {
	// FindExistingIDs returns the subset of ids that belong to existing users.
	// Duplicates in ids are ignored; an empty input yields an empty result.
	FindExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}
