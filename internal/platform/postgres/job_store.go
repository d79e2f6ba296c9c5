package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
	"github.com/phrazzld/bizops-api/internal/store"
	"github.com/phrazzld/bizops-api/internal/task"
)

// PostgresJobStore implements the task.TaskStore interface on the
// generation_jobs table.
type PostgresJobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ task.TaskStore = (*PostgresJobStore)(nil)

// NewPostgresJobStore creates a new PostgresJobStore. It panics if db is nil.
func NewPostgresJobStore(db store.DBTX, logger *slog.Logger) *PostgresJobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresJobStore{
		db:     db,
		logger: logger.With(slog.String("component", "job_store")),
	}
}

// SaveTask persists a task in pending state
func (s *PostgresJobStore) SaveTask(ctx context.Context, t task.Task) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_jobs (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID(), t.Type(), string(t.Payload()), string(task.TaskStatusPending), now, now)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
		return MapError(err)
	}
	return nil
}

// UpdateTaskStatus updates the status of a task. Unknown ids are a no-op.
func (s *PostgresJobStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status task.TaskStatus, errorMsg string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	res, err := s.db.ExecContext(ctx, `
		UPDATE generation_jobs
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4`,
		string(status), errorMsg, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update task status",
			"task_id", id,
			"status", status,
			"error", err)
		return MapError(err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		log.Warn("no task found with ID to update status", "task_id", id)
	}
	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status, oldest first
func (s *PostgresJobStore) GetPendingTasks(ctx context.Context) ([]task.Record, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status
func (s *PostgresJobStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Record, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

func (s *PostgresJobStore) getTasksByStatus(ctx context.Context, status task.TaskStatus, olderThan time.Duration) ([]task.Record, error) {
	query := `
		SELECT id, type, payload, status, error_message, created_at, updated_at
		FROM generation_jobs
		WHERE status = $1`
	args := []any{string(status)}
	if olderThan > 0 {
		query += ` AND updated_at < $2`
		args = append(args, time.Now().UTC().Add(-olderThan))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query tasks",
			"status", status,
			"error", err)
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]task.Record, 0)
	for rows.Next() {
		var (
			rec        task.Record
			recStatus  string
			rawPayload []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Type, &rawPayload, &recStatus, &rec.ErrorMessage,
			&rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, err
		}
		rec.Payload = rawPayload
		rec.Status = task.TaskStatus(recStatus)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return records, nil
}
