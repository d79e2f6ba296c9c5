package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/bizops-api/internal/events"
)

// Submitter accepts tasks for background execution. *TaskRunner implements it.
type Submitter interface {
	Submit(ctx context.Context, task Task) error
}

// GenerationEventHandler turns template lifecycle events into generation jobs.
type GenerationEventHandler struct {
	factory *GenerationTaskFactory
	runner  Submitter
	logger  *slog.Logger
}

var _ events.EventHandler = (*GenerationEventHandler)(nil)

// NewGenerationEventHandler creates an event handler that creates tasks with
// factory and submits them to runner.
func NewGenerationEventHandler(
	factory *GenerationTaskFactory,
	runner Submitter,
	logger *slog.Logger,
) *GenerationEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "generation_event_handler"),
	}
}

// HandleEvent creates and submits a generation job for the event's template
// and target date.
func (h *GenerationEventHandler) HandleEvent(ctx context.Context, event *events.TemplateEvent) error {
	log := h.logger.With(
		"event_id", event.ID,
		"event_kind", event.Kind,
		"template_id", event.TemplateID,
		"target_date", event.TargetDate.String(),
	)

	task, err := h.factory.CreateTask(event.TemplateID, event.TargetDate)
	if err != nil {
		log.Error("failed to create generation task", "error", err)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		log.Error("failed to submit generation task", "error", err, "task_id", task.ID())
		return fmt.Errorf("failed to submit task: %w", err)
	}

	log.Info("generation task submitted", "task_id", task.ID())
	return nil
}
