package sqlite

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
	"github.com/phrazzld/bizops-api/internal/store"
	"github.com/phrazzld/bizops-api/internal/task"
)

// JobStore implements task.TaskStore on the generation_jobs table.
type JobStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ task.TaskStore = (*JobStore)(nil)

// NewJobStore creates a JobStore. It panics if db is nil.
func NewJobStore(db store.DBTX, logger *slog.Logger) *JobStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_job_store")),
	}
}

// SaveTask implements task.TaskStore.
func (s *JobStore) SaveTask(ctx context.Context, t task.Task) error {
	now := formatTime(time.Now())
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_jobs (id, type, payload, status, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, '', ?, ?)`,
		t.ID(), t.Type(), string(t.Payload()), string(task.TaskStatusPending), now, now)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save job",
			slog.String("task_id", t.ID().String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// UpdateTaskStatus implements task.TaskStore.
func (s *JobStore) UpdateTaskStatus(ctx context.Context, id uuid.UUID, status task.TaskStatus, errorMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE generation_jobs
		SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ?`,
		string(status), errorMsg, formatTime(time.Now()), id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to update job status",
			slog.String("task_id", id.String()),
			slog.String("status", string(status)),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// GetPendingTasks implements task.TaskStore.
func (s *JobStore) GetPendingTasks(ctx context.Context) ([]task.Record, error) {
	return s.query(ctx, `
		SELECT id, type, payload, status, error_message, created_at, updated_at
		FROM generation_jobs
		WHERE status = ?
		ORDER BY created_at, id`, string(task.TaskStatusPending))
}

// GetProcessingTasks implements task.TaskStore.
func (s *JobStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Record, error) {
	if olderThan <= 0 {
		return s.query(ctx, `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM generation_jobs
			WHERE status = ?
			ORDER BY created_at, id`, string(task.TaskStatusProcessing))
	}

	cutoff := formatTime(time.Now().Add(-olderThan))
	return s.query(ctx, `
		SELECT id, type, payload, status, error_message, created_at, updated_at
		FROM generation_jobs
		WHERE status = ? AND updated_at < ?
		ORDER BY created_at, id`, string(task.TaskStatusProcessing), cutoff)
}

func (s *JobStore) query(ctx context.Context, query string, args ...any) ([]task.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query jobs",
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]task.Record, 0)
	for rows.Next() {
		var (
			rec                  task.Record
			payload, status      string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Type, &payload, &status, &rec.ErrorMessage, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		rec.Payload = []byte(payload)
		rec.Status = task.TaskStatus(status)
		if rec.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return records, nil
}
