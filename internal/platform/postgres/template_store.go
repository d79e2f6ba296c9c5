package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
	"github.com/phrazzld/bizops-api/internal/store"
)

const templateColumns = `
	id, recurrence_type, recurrence_interval, start_date, end_date, is_active,
	title, description, status, priority, assignee_ids, customer_id, tags,
	estimated_hours, created_by_id, last_generated_date, created_at, updated_at`

// PostgresTemplateStore implements the store.TemplateStore interface
type PostgresTemplateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TemplateStore = (*PostgresTemplateStore)(nil)

// NewPostgresTemplateStore creates a new PostgreSQL implementation of the TemplateStore interface.
// It panics if db is nil.
func NewPostgresTemplateStore(db store.DBTX, logger *slog.Logger) *PostgresTemplateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresTemplateStore{
		db:     db,
		logger: logger.With(slog.String("component", "template_store")),
	}
}

// Create inserts a template. Template authoring belongs to the template API;
// this exists for seeding and tests.
func (s *PostgresTemplateStore) Create(ctx context.Context, tmpl *domain.TaskTemplate) error {
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	assignees, err := jsonArg(tmpl.AssigneeIDs)
	if err != nil {
		return fmt.Errorf("failed to encode assignees: %w", err)
	}
	tags, err := jsonArg(tmpl.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	createdAt := tmpl.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := tmpl.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	var customerID uuid.NullUUID
	if tmpl.CustomerID != nil {
		customerID = uuid.NullUUID{UUID: *tmpl.CustomerID, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO task_templates (`+templateColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		tmpl.ID,
		string(tmpl.RecurrenceType),
		tmpl.RecurrenceInterval,
		dateArg(tmpl.StartDate),
		nullDateArg(tmpl.EndDate),
		tmpl.IsActive,
		tmpl.Title,
		tmpl.Description,
		string(tmpl.Status),
		string(tmpl.Priority),
		assignees,
		customerID,
		tags,
		tmpl.EstimatedHours,
		tmpl.CreatedByID,
		nullDateArg(tmpl.LastGeneratedDate),
		createdAt,
		updatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create template",
			slog.String("template_id", tmpl.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// SetActive flips a template's active flag.
func (s *PostgresTemplateStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE task_templates SET is_active = $1, updated_at = NOW() WHERE id = $2`, active, id)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(res, store.ErrTemplateNotFound)
}

// FindDueTemplates implements store.TemplateStore.
func (s *PostgresTemplateStore) FindDueTemplates(ctx context.Context, today civil.Date) ([]*domain.TaskTemplate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM task_templates
		WHERE is_active
		  AND start_date <= $1
		  AND (end_date IS NULL OR end_date >= $1)
		ORDER BY id`, dateArg(today))
	if err != nil {
		log.Error("failed to query due templates",
			slog.String("date", today.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	templates := make([]*domain.TaskTemplate, 0)
	for rows.Next() {
		tmpl, err := scanTemplate(rows)
		if err != nil {
			log.Error("failed to scan template row", slog.String("error", err.Error()))
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	log.Debug("loaded due templates",
		slog.String("date", today.String()),
		slog.Int("count", len(templates)))
	return templates, nil
}

// GetByID implements store.TemplateStore.
func (s *PostgresTemplateStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM task_templates WHERE id = $1`, id)

	tmpl, err := scanTemplate(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTemplateNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get template",
			slog.String("template_id", id.String()),
			slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	return tmpl, nil
}

// AdvanceWatermark implements store.TemplateStore. The conditional update
// takes the row lock, so concurrent advances for one template serialise and
// the watermark only ever moves forward.
func (s *PostgresTemplateStore) AdvanceWatermark(ctx context.Context, id uuid.UUID, date civil.Date) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE task_templates
		SET last_generated_date = $1, updated_at = NOW()
		WHERE id = $2
		  AND (last_generated_date IS NULL OR last_generated_date < $1)`,
		dateArg(date), id)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to advance watermark",
			slog.String("template_id", id.String()),
			slog.String("date", date.String()),
			slog.String("error", err.Error()))
		return false, store.NewStoreError("task_template", "advance_watermark", "failed to advance watermark", MapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row rowScanner) (*domain.TaskTemplate, error) {
	var (
		tmpl             domain.TaskTemplate
		recurrenceType   string
		startDate        time.Time
		endDate, lastGen sql.NullTime
		status, priority string
		assignees, tags  []byte
		customerID       uuid.NullUUID
		estimatedHours   sql.NullFloat64
	)

	err := row.Scan(
		&tmpl.ID,
		&recurrenceType,
		&tmpl.RecurrenceInterval,
		&startDate,
		&endDate,
		&tmpl.IsActive,
		&tmpl.Title,
		&tmpl.Description,
		&status,
		&priority,
		&assignees,
		&customerID,
		&tags,
		&estimatedHours,
		&tmpl.CreatedByID,
		&lastGen,
		&tmpl.CreatedAt,
		&tmpl.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	tmpl.RecurrenceType = domain.RecurrenceType(recurrenceType)
	tmpl.Status = domain.TaskStatus(status)
	tmpl.Priority = domain.Priority(priority)
	tmpl.StartDate = civil.DateOf(startDate)
	tmpl.EndDate = scanNullDate(endDate)
	tmpl.LastGeneratedDate = scanNullDate(lastGen)

	if tmpl.AssigneeIDs, err = scanJSON[uuid.UUID](assignees); err != nil {
		return nil, fmt.Errorf("invalid stored assignees: %w", err)
	}
	if tmpl.Tags, err = scanJSON[string](tags); err != nil {
		return nil, fmt.Errorf("invalid stored tags: %w", err)
	}
	if customerID.Valid {
		id := customerID.UUID
		tmpl.CustomerID = &id
	}
	if estimatedHours.Valid {
		h := estimatedHours.Float64
		tmpl.EstimatedHours = &h
	}

	return &tmpl, nil
}
