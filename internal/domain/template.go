package domain

import (
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// RecurrenceType is the calendar unit a template repeats in.
type RecurrenceType string

// Supported recurrence units.
const (
	RecurrenceDaily   RecurrenceType = "DAILY"
	RecurrenceWeekly  RecurrenceType = "WEEKLY"
	RecurrenceMonthly RecurrenceType = "MONTHLY"
	RecurrenceYearly  RecurrenceType = "YEARLY"
)

// Template-specific validation errors
var (
	ErrTemplateIDEmpty        = errors.New("template ID cannot be empty")
	ErrTemplateCreatorEmpty   = errors.New("template creator ID cannot be empty")
	ErrTemplateTitleEmpty     = errors.New("template title cannot be empty")
	ErrTemplateStartDateEmpty = errors.New("template start date must be a valid date")
	ErrTemplateIntervalRange  = errors.New("recurrence interval must be at least 1")
	ErrTemplateWindow         = errors.New("template end date must not be before start date")
	ErrInvalidRecurrenceType  = errors.New("invalid recurrence type")
)

// ParseRecurrenceType converts a stored or user-supplied value into a RecurrenceType.
// Matching is case-insensitive.
func ParseRecurrenceType(s string) (RecurrenceType, error) {
	rt := RecurrenceType(strings.ToUpper(strings.TrimSpace(s)))
	if !rt.Valid() {
		return "", ErrInvalidRecurrenceType
	}
	return rt, nil
}

// Valid reports whether rt is one of the supported recurrence units.
func (rt RecurrenceType) Valid() bool {
	switch rt {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	default:
		return false
	}
}

// TaskTemplate is a declarative recurrence rule plus the default fields copied
// into every task generated from it.
//
// LastGeneratedDate is the generation watermark. It is owned by the recurring
// task engine, which is the only writer, and it never moves backwards.
type TaskTemplate struct {
	ID                 uuid.UUID      `json:"id"`
	RecurrenceType     RecurrenceType `json:"recurrence_type"`
	RecurrenceInterval int            `json:"recurrence_interval"`
	StartDate          civil.Date     `json:"start_date"`
	EndDate            *civil.Date    `json:"end_date,omitempty"`
	IsActive           bool           `json:"is_active"`

	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Status         TaskStatus  `json:"status"`
	Priority       Priority    `json:"priority"`
	AssigneeIDs    []uuid.UUID `json:"assignee_ids"`
	CustomerID     *uuid.UUID  `json:"customer_id,omitempty"`
	Tags           []string    `json:"tags"`
	EstimatedHours *float64    `json:"estimated_hours,omitempty"`

	CreatedByID       uuid.UUID   `json:"created_by_id"`
	LastGeneratedDate *civil.Date `json:"last_generated_date,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Validate checks the template invariants. Templates are validated when they
// are written by the template API; the engine calls this only to report why a
// template was skipped.
func (t *TaskTemplate) Validate() error {
	if t.ID == uuid.Nil {
		return ErrTemplateIDEmpty
	}

	if t.CreatedByID == uuid.Nil {
		return ErrTemplateCreatorEmpty
	}

	if strings.TrimSpace(t.Title) == "" {
		return ErrTemplateTitleEmpty
	}

	if !t.RecurrenceType.Valid() {
		return ErrInvalidRecurrenceType
	}

	if t.RecurrenceInterval < 1 {
		return ErrTemplateIntervalRange
	}

	if !t.StartDate.IsValid() {
		return ErrTemplateStartDateEmpty
	}

	if t.EndDate != nil && t.EndDate.Before(t.StartDate) {
		return ErrTemplateWindow
	}

	return nil
}

// InWindow reports whether d falls inside [StartDate, EndDate]. A nil EndDate
// leaves the window open-ended.
func (t *TaskTemplate) InWindow(d civil.Date) bool {
	if d.Before(t.StartDate) {
		return false
	}
	if t.EndDate != nil && d.After(*t.EndDate) {
		return false
	}
	return true
}

// PrimaryAssignee returns the first default assignee, or nil when the template
// has none. Generated tasks store it in the legacy single-assignee column.
func (t *TaskTemplate) PrimaryAssignee() *uuid.UUID {
	if len(t.AssigneeIDs) == 0 {
		return nil
	}
	id := t.AssigneeIDs[0]
	return &id
}
