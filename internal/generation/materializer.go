package generation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/domain"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
	"github.com/phrazzld/bizops-api/internal/store"
)

// Outcome is the non-error result of materializing a template for a date.
type Outcome string

// Materialization outcomes.
const (
	OutcomeCreated Outcome = "created"
	OutcomeSkipped Outcome = "skipped"
)

// Result describes what Materialize did. TaskID is set only when a task was
// created.
type Result struct {
	Outcome Outcome
	TaskID  uuid.UUID
}

// Created reports whether a new task was written.
func (r Result) Created() bool {
	return r.Outcome == OutcomeCreated
}

// Materializer creates the task a template represents on a given date.
type Materializer struct {
	users  store.UserStore
	tasks  store.GeneratedTaskStore
	now    func() time.Time
	logger *slog.Logger
}

// Option customises a Materializer.
type Option func(*Materializer)

// WithClock overrides the clock used for generated_at and created_at.
func WithClock(now func() time.Time) Option {
	return func(m *Materializer) {
		m.now = now
	}
}

// NewMaterializer creates a Materializer. It panics if a store is nil.
func NewMaterializer(
	users store.UserStore,
	tasks store.GeneratedTaskStore,
	logger *slog.Logger,
	opts ...Option,
) *Materializer {
	if users == nil {
		panic("user store cannot be nil")
	}
	if tasks == nil {
		panic("generated task store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	m := &Materializer{
		users:  users,
		tasks:  tasks,
		now:    time.Now,
		logger: logger.With("component", "task_materializer"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Materialize creates the task for tmpl on date, or reports that one exists.
//
// Errors are *ValidationError when the template's defaults are unusable and
// *PersistenceError for storage failures. A duplicate is never an error.
func (m *Materializer) Materialize(ctx context.Context, tmpl *domain.TaskTemplate, date civil.Date) (Result, error) {
	log := logger.FromContextOrDefault(ctx, m.logger).With(
		"template_id", tmpl.ID,
		"date", date.String(),
	)

	if err := m.checkAssignees(ctx, tmpl, date); err != nil {
		return Result{}, err
	}

	exists, err := m.tasks.ExistsForDate(ctx, tmpl.ID, date)
	if err != nil {
		return Result{}, &PersistenceError{TemplateID: tmpl.ID, Date: date, Op: "exists_for_date", Err: err}
	}
	if exists {
		log.Debug("task already generated for date")
		return Result{Outcome: OutcomeSkipped}, nil
	}

	task, err := domain.NewGeneratedTask(tmpl, date, m.now())
	if err != nil {
		return Result{}, &ValidationError{TemplateID: tmpl.ID, Err: err}
	}

	if err := m.tasks.InsertGeneratedTask(ctx, task); err != nil {
		if errors.Is(err, store.ErrGeneratedTaskExists) {
			log.Debug("lost insert race, task already generated for date")
			return Result{Outcome: OutcomeSkipped}, nil
		}
		return Result{}, &PersistenceError{TemplateID: tmpl.ID, Date: date, Op: "insert_generated_task", Err: err}
	}

	log.Info("generated task from template",
		"task_id", task.ID,
		"assignee_count", len(task.Assignees))
	return Result{Outcome: OutcomeCreated, TaskID: task.ID}, nil
}

func (m *Materializer) checkAssignees(ctx context.Context, tmpl *domain.TaskTemplate, date civil.Date) error {
	if len(tmpl.AssigneeIDs) == 0 {
		return nil
	}

	existing, err := m.users.FindExistingIDs(ctx, tmpl.AssigneeIDs)
	if err != nil {
		return &PersistenceError{TemplateID: tmpl.ID, Date: date, Op: "find_existing_users", Err: err}
	}

	found := make(map[uuid.UUID]struct{}, len(existing))
	for _, id := range existing {
		found[id] = struct{}{}
	}

	var missing []uuid.UUID
	for _, id := range tmpl.AssigneeIDs {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{TemplateID: tmpl.ID, MissingAssigneeIDs: missing, Err: ErrMissingAssignees}
	}
	return nil
}
