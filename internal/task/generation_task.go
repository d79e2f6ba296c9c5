package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
)

// Common errors
var (
	ErrNilGenerator      = errors.New("generator cannot be nil")
	ErrEmptyTemplateID   = errors.New("template ID cannot be empty")
	ErrInvalidTargetDate = errors.New("target date is not a valid date")
	ErrUnknownTaskType   = errors.New("unknown task type")
)

// Generator generates a template's task for one date on demand.
// *scheduling.Driver is the production implementation.
type Generator interface {
	GenerateNow(ctx context.Context, templateID uuid.UUID, date civil.Date) (bool, error)
}

// generationPayload represents the serialized data stored with the task
type generationPayload struct {
	TemplateID uuid.UUID  `json:"template_id"`
	TargetDate civil.Date `json:"target_date"`
}

// GenerationTask asks the generator to produce a template's task for a date.
// Running it more than once is harmless: the generator skips dates that
// already have a task.
type GenerationTask struct {
	id         uuid.UUID
	templateID uuid.UUID
	targetDate civil.Date
	generator  Generator
	logger     *slog.Logger
	status     TaskStatus
}

// NewGenerationTask creates a new generation task with a fresh ID.
func NewGenerationTask(
	templateID uuid.UUID,
	targetDate civil.Date,
	generator Generator,
	logger *slog.Logger,
) (*GenerationTask, error) {
	return newGenerationTask(uuid.New(), templateID, targetDate, generator, logger)
}

func newGenerationTask(
	id uuid.UUID,
	templateID uuid.UUID,
	targetDate civil.Date,
	generator Generator,
	logger *slog.Logger,
) (*GenerationTask, error) {
	if generator == nil {
		return nil, ErrNilGenerator
	}
	if templateID == uuid.Nil {
		return nil, ErrEmptyTemplateID
	}
	if !targetDate.IsValid() {
		return nil, ErrInvalidTargetDate
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GenerationTask{
		id:         id,
		templateID: templateID,
		targetDate: targetDate,
		generator:  generator,
		logger: logger.With(
			"task_type", TaskTypeTemplateGeneration,
			"template_id", templateID,
			"target_date", targetDate.String(),
		),
		status: TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *GenerationTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *GenerationTask) Type() string {
	return TaskTypeTemplateGeneration
}

// TemplateID returns the template the task generates for.
func (t *GenerationTask) TemplateID() uuid.UUID {
	return t.templateID
}

// TargetDate returns the date the task generates for.
func (t *GenerationTask) TargetDate() civil.Date {
	return t.targetDate
}

// Payload returns the task data as a byte slice
func (t *GenerationTask) Payload() []byte {
	data, err := json.Marshal(generationPayload{
		TemplateID: t.templateID,
		TargetDate: t.targetDate,
	})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}
	return data
}

// Status returns the current task status
func (t *GenerationTask) Status() TaskStatus {
	return t.status
}

// Execute runs the generation. A template that is not due, inactive or
// already generated completes without error.
func (t *GenerationTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	log := logger.FromContextOrDefault(ctx, t.logger)

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	created, err := t.generator.GenerateNow(ctx, t.templateID, t.targetDate)
	if err != nil {
		t.status = TaskStatusFailed
		return fmt.Errorf("failed to generate task for template %s: %w", t.templateID, err)
	}

	t.status = TaskStatusCompleted
	log.Info("on-demand generation finished", "created", created)
	return nil
}
