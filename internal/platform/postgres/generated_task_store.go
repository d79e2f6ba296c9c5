package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
	"github.com/phrazzld/bizops-api/internal/store"
)

// PostgresGeneratedTaskStore implements the store.GeneratedTaskStore interface
type PostgresGeneratedTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.GeneratedTaskStore = (*PostgresGeneratedTaskStore)(nil)

// NewPostgresGeneratedTaskStore creates a new PostgresGeneratedTaskStore.
// It panics if db is nil.
func NewPostgresGeneratedTaskStore(db store.DBTX, logger *slog.Logger) *PostgresGeneratedTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresGeneratedTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "generated_task_store")),
	}
}

// ExistsForDate implements store.GeneratedTaskStore.
func (s *PostgresGeneratedTaskStore) ExistsForDate(ctx context.Context, templateID uuid.UUID, date civil.Date) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tasks WHERE template_id = $1 AND generated_for_date = $2
		)`, templateID, dateArg(date)).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// InsertGeneratedTask implements store.GeneratedTaskStore. The task row and
// its assignee links are written in one transaction; a collision on the
// (template_id, generated_for_date) index returns store.ErrGeneratedTaskExists.
func (s *PostgresGeneratedTaskStore) InsertGeneratedTask(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("task_id", task.ID.String()))

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if task.TemplateID == nil {
		return fmt.Errorf("%w: task has no template", store.ErrInvalidEntity)
	}

	tags, err := jsonArg(task.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	var assigneeID, customerID uuid.NullUUID
	if task.AssigneeID != nil {
		assigneeID = uuid.NullUUID{UUID: *task.AssigneeID, Valid: true}
	}
	if task.CustomerID != nil {
		customerID = uuid.NullUUID{UUID: *task.CustomerID, Valid: true}
	}

	err = store.WithinTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (
				id, title, description, status, priority, assignee_id, customer_id,
				tags, estimated_hours, created_by_id, template_id, generated_for_date,
				generated_at, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			task.ID,
			task.Title,
			task.Description,
			string(task.Status),
			string(task.Priority),
			assigneeID,
			customerID,
			tags,
			task.EstimatedHours,
			task.CreatedByID,
			*task.TemplateID,
			nullDateArg(task.GeneratedForDate),
			nullTimeArg(task.GeneratedAt),
			task.CreatedAt.UTC(),
			task.UpdatedAt.UTC(),
		)
		if err != nil {
			return MapError(err)
		}

		for _, userID := range distinct(task.Assignees) {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO task_assignees (task_id, user_id, created_at) VALUES ($1, $2, $3)`,
				task.ID, userID, task.CreatedAt.UTC())
			if err != nil {
				return MapError(err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrGeneratedTaskExists) {
			log.Debug("generated task already exists")
			return err
		}
		log.Error("failed to insert generated task", slog.String("error", err.Error()))
		return store.NewStoreError("task", "insert", "failed to insert generated task", err)
	}

	log.Debug("generated task inserted", slog.Int("assignee_count", len(task.Assignees)))
	return nil
}

// CountForTemplate returns how many tasks exist for a template.
func (s *PostgresGeneratedTaskStore) CountForTemplate(ctx context.Context, templateID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE template_id = $1`, templateID).Scan(&n)
	if err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
