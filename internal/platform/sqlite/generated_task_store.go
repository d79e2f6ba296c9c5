package sqlite

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

// GeneratedTaskStore implements store.GeneratedTaskStore on SQLite.
type GeneratedTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.GeneratedTaskStore = (*GeneratedTaskStore)(nil)

// NewGeneratedTaskStore creates a GeneratedTaskStore. It panics if db is nil.
func NewGeneratedTaskStore(db store.DBTX, logger *slog.Logger) *GeneratedTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GeneratedTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_generated_task_store")),
	}
}

// ExistsForDate implements store.GeneratedTaskStore.
func (s *GeneratedTaskStore) ExistsForDate(ctx context.Context, templateID uuid.UUID, date civil.Date) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM tasks WHERE template_id = ? AND generated_for_date = ?
		)`, templateID, date.String()).Scan(&exists)
	if err != nil {
		return false, MapError(err)
	}
	return exists, nil
}

// InsertGeneratedTask implements store.GeneratedTaskStore.
func (s *GeneratedTaskStore) InsertGeneratedTask(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("task_id", task.ID.String()))

	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if task.TemplateID == nil {
		return fmt.Errorf("%w: task has no template", store.ErrInvalidEntity)
	}

	tags, err := marshalList(task.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	err = store.WithinTx(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO tasks (
				id, title, description, status, priority, assignee_id, customer_id,
				tags, estimated_hours, created_by_id, template_id, generated_for_date,
				generated_at, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			task.ID,
			task.Title,
			task.Description,
			string(task.Status),
			string(task.Priority),
			nullUUID(task.AssigneeID),
			nullUUID(task.CustomerID),
			tags,
			task.EstimatedHours,
			task.CreatedByID,
			task.TemplateID.String(),
			nullDate(task.GeneratedForDate),
			nullTime(task.GeneratedAt),
			formatTime(task.CreatedAt),
			formatTime(task.UpdatedAt),
		)
		if err != nil {
			return MapError(err)
		}

		for _, userID := range distinct(task.Assignees) {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO task_assignees (task_id, user_id, created_at) VALUES (?, ?, ?)`,
				task.ID, userID, formatTime(task.CreatedAt))
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

	log.Debug("generated task inserted",
		slog.Int("assignee_count", len(task.Assignees)))
	return nil
}

// CountForTemplate returns how many tasks exist for a template.
func (s *GeneratedTaskStore) CountForTemplate(ctx context.Context, templateID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE template_id = ?`, templateID).Scan(&n)
	if err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

// AssigneesOf returns the user ids linked to a task, ordered by id.
func (s *GeneratedTaskStore) AssigneesOf(ctx context.Context, taskID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM task_assignees WHERE task_id = ? ORDER BY user_id`, taskID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// distinct drops repeated ids, keeping first occurrences in order.
func distinct(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
