package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TaskStatus is the lifecycle state of a background task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// TaskTypeTemplateGeneration is the type of jobs that generate a template's
// task for one date.
const TaskTypeTemplateGeneration = "template_generation"

// Task is a unit of background work. Type and Payload are what the job
// store persists; a Rebuilder turns them back into a Task after a restart.
type Task interface {
	ID() uuid.UUID
	Type() string
	Payload() []byte
	Status() TaskStatus
	Execute(ctx context.Context) error
}

// Record is a task as persisted in the job store.
type Record struct {
	ID           uuid.UUID
	Type         string
	Payload      []byte
	Status       TaskStatus
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TaskStore is the job store behind the runner.
type TaskStore interface {
	// SaveTask records task as pending.
	SaveTask(ctx context.Context, task Task) error

	// UpdateTaskStatus is a no-op for unknown ids.
	UpdateTaskStatus(ctx context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error

	// GetPendingTasks returns pending tasks, oldest first.
	GetPendingTasks(ctx context.Context) ([]Record, error)

	// GetProcessingTasks returns processing tasks last updated more than
	// olderThan ago. Zero returns all of them.
	GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]Record, error)
}

// Rebuilder turns a stored record back into an executable task.
type Rebuilder interface {
	Rebuild(rec Record) (Task, error)
}
