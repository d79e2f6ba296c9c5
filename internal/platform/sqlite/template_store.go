package sqlite

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

// TemplateStore implements store.TemplateStore on SQLite.
type TemplateStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TemplateStore = (*TemplateStore)(nil)

// NewTemplateStore creates a TemplateStore. It panics if db is nil.
func NewTemplateStore(db store.DBTX, logger *slog.Logger) *TemplateStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TemplateStore{
		db:     db,
		logger: logger.With(slog.String("component", "sqlite_template_store")),
	}
}

// Create inserts a template. Template authoring belongs to the template API;
// this exists for seeding and tests.
func (s *TemplateStore) Create(ctx context.Context, tmpl *domain.TaskTemplate) error {
	if err := tmpl.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	assignees, err := marshalList(tmpl.AssigneeIDs)
	if err != nil {
		return fmt.Errorf("failed to encode assignees: %w", err)
	}
	tags, err := marshalList(tmpl.Tags)
	if err != nil {
		return fmt.Errorf("failed to encode tags: %w", err)
	}

	now := time.Now().UTC()
	createdAt, updatedAt := tmpl.CreatedAt, tmpl.UpdatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO task_templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tmpl.ID,
		string(tmpl.RecurrenceType),
		tmpl.RecurrenceInterval,
		tmpl.StartDate.String(),
		nullDate(tmpl.EndDate),
		tmpl.IsActive,
		tmpl.Title,
		tmpl.Description,
		string(tmpl.Status),
		string(tmpl.Priority),
		assignees,
		nullUUID(tmpl.CustomerID),
		tags,
		tmpl.EstimatedHours,
		tmpl.CreatedByID,
		nullDate(tmpl.LastGeneratedDate),
		formatTime(createdAt),
		formatTime(updatedAt),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create template",
			slog.String("template_id", tmpl.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}
	return nil
}

// SetActive flips a template's active flag. Like Create, it stands in for the
// template API in tests and local tooling.
func (s *TemplateStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE task_templates SET is_active = ?, updated_at = ? WHERE id = ?`,
		active, formatTime(time.Now()), id)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(res, store.ErrTemplateNotFound)
}

// FindDueTemplates implements store.TemplateStore.
func (s *TemplateStore) FindDueTemplates(ctx context.Context, today civil.Date) ([]*domain.TaskTemplate, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	day := today.String()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+templateColumns+`
		FROM task_templates
		WHERE is_active = 1
		  AND start_date <= ?
		  AND (end_date IS NULL OR end_date >= ?)
		ORDER BY id`, day, day)
	if err != nil {
		log.Error("failed to query due templates",
			slog.String("date", day),
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
		slog.String("date", day),
		slog.Int("count", len(templates)))
	return templates, nil
}

// GetByID implements store.TemplateStore.
func (s *TemplateStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.TaskTemplate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM task_templates WHERE id = ?`, id)

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

// AdvanceWatermark implements store.TemplateStore.
func (s *TemplateStore) AdvanceWatermark(ctx context.Context, id uuid.UUID, date civil.Date) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE task_templates
		SET last_generated_date = ?, updated_at = ?
		WHERE id = ?
		  AND (last_generated_date IS NULL OR last_generated_date < ?)`,
		date.String(), formatTime(time.Now()), id, date.String())
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
		tmpl                 domain.TaskTemplate
		recurrenceType       string
		startDate            string
		endDate, lastDate    sql.NullString
		status, priority     string
		assignees, tags      string
		customerID           sql.NullString
		estimatedHours       sql.NullFloat64
		createdAt, updatedAt string
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
		&lastDate,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	tmpl.RecurrenceType = domain.RecurrenceType(recurrenceType)
	tmpl.Status = domain.TaskStatus(status)
	tmpl.Priority = domain.Priority(priority)

	if tmpl.StartDate, err = civil.ParseDate(startDate); err != nil {
		return nil, fmt.Errorf("invalid stored start date %q: %w", startDate, err)
	}
	if tmpl.EndDate, err = parseNullDate(endDate); err != nil {
		return nil, err
	}
	if tmpl.LastGeneratedDate, err = parseNullDate(lastDate); err != nil {
		return nil, err
	}
	if tmpl.AssigneeIDs, err = unmarshalList[uuid.UUID](assignees); err != nil {
		return nil, fmt.Errorf("invalid stored assignees: %w", err)
	}
	if tmpl.Tags, err = unmarshalList[string](tags); err != nil {
		return nil, fmt.Errorf("invalid stored tags: %w", err)
	}
	if tmpl.CustomerID, err = parseNullUUID(customerID); err != nil {
		return nil, err
	}
	if estimatedHours.Valid {
		h := estimatedHours.Float64
		tmpl.EstimatedHours = &h
	}
	if tmpl.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if tmpl.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	return &tmpl, nil
}

func nullUUID(id *uuid.UUID) sql.NullString {
	if id == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func parseNullUUID(ns sql.NullString) (*uuid.UUID, error) {
	if !ns.Valid {
		return nil, nil
	}
	id, err := uuid.Parse(ns.String)
	if err != nil {
		return nil, fmt.Errorf("invalid stored uuid %q: %w", ns.String, err)
	}
	return &id, nil
}

func checkRowsAffected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
