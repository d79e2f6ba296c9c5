package domain

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// TaskStatus represents the workflow state of a task.
type TaskStatus string

// Task status values known to the platform.
const (
	TaskStatusTodo       TaskStatus = "TODO"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusDone       TaskStatus = "DONE"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Priority is the urgency assigned to a task.
type Priority string

// Priority values known to the platform.
const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

// Task-specific validation errors
var (
	ErrTaskIDEmpty          = errors.New("task ID cannot be empty")
	ErrTaskTitleEmpty       = errors.New("task title cannot be empty")
	ErrTaskCreatorEmpty     = errors.New("task creator ID cannot be empty")
	ErrTaskGeneratedForDate = errors.New("generated task must carry the date it was generated for")
)

// Task is a concrete unit of work. Tasks produced by the recurring engine carry
// TemplateID and GeneratedForDate; the pair is unique across all tasks.
type Task struct {
	ID             uuid.UUID   `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Status         TaskStatus  `json:"status"`
	Priority       Priority    `json:"priority"`
	AssigneeID     *uuid.UUID  `json:"assignee_id,omitempty"`
	Assignees      []uuid.UUID `json:"assignees"`
	CustomerID     *uuid.UUID  `json:"customer_id,omitempty"`
	Tags           []string    `json:"tags"`
	EstimatedHours *float64    `json:"estimated_hours,omitempty"`
	CreatedByID    uuid.UUID   `json:"created_by_id"`

	TemplateID       *uuid.UUID  `json:"template_id,omitempty"`
	GeneratedForDate *civil.Date `json:"generated_for_date,omitempty"`
	GeneratedAt      *time.Time  `json:"generated_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewGeneratedTask builds the task instance a template represents on date.
// Defaults are copied from the template; slices are copied so later changes to
// the template do not leak into the task.
func NewGeneratedTask(tmpl *TaskTemplate, date civil.Date, now time.Time) (*Task, error) {
	now = now.UTC()
	templateID := tmpl.ID
	forDate := date

	task := &Task{
		ID:               uuid.New(),
		Title:            tmpl.Title,
		Description:      tmpl.Description,
		Status:           tmpl.Status,
		Priority:         tmpl.Priority,
		AssigneeID:       tmpl.PrimaryAssignee(),
		Assignees:        append([]uuid.UUID(nil), tmpl.AssigneeIDs...),
		CustomerID:       tmpl.CustomerID,
		Tags:             append([]string(nil), tmpl.Tags...),
		EstimatedHours:   tmpl.EstimatedHours,
		CreatedByID:      tmpl.CreatedByID,
		TemplateID:       &templateID,
		GeneratedForDate: &forDate,
		GeneratedAt:      &now,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if task.Status == "" {
		task.Status = TaskStatusTodo
	}
	if task.Priority == "" {
		task.Priority = PriorityMedium
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTaskIDEmpty
	}

	if t.Title == "" {
		return ErrTaskTitleEmpty
	}

	if t.CreatedByID == uuid.Nil {
		return ErrTaskCreatorEmpty
	}

	if t.TemplateID != nil && (t.GeneratedForDate == nil || !t.GeneratedForDate.IsValid()) {
		return ErrTaskGeneratedForDate
	}

	return nil
}
