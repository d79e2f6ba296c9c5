package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// GenerationTaskFactory creates GenerationTasks and rebuilds them from
// stored records.
type GenerationTaskFactory struct {
	generator Generator
	logger    *slog.Logger
}

var _ Rebuilder = (*GenerationTaskFactory)(nil)

// NewGenerationTaskFactory creates a new factory for GenerationTasks
func NewGenerationTaskFactory(generator Generator, logger *slog.Logger) *GenerationTaskFactory {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationTaskFactory{
		generator: generator,
		logger:    logger.With("component", "generation_task_factory"),
	}
}

// CreateTask creates a new GenerationTask for the template and date.
func (f *GenerationTaskFactory) CreateTask(templateID uuid.UUID, targetDate civil.Date) (*GenerationTask, error) {
	return NewGenerationTask(templateID, targetDate, f.generator, f.logger)
}

// Rebuild implements Rebuilder. The rebuilt task keeps the record's ID so
// status updates land on the same row.
func (f *GenerationTaskFactory) Rebuild(rec Record) (Task, error) {
	if rec.Type != TaskTypeTemplateGeneration {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, rec.Type)
	}

	var payload generationPayload
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		return nil, fmt.Errorf("invalid %s payload: %w", rec.Type, err)
	}

	return newGenerationTask(rec.ID, payload.TemplateID, payload.TargetDate, f.generator, f.logger)
}
