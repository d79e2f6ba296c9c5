package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
)

// TemplateEventKind names the lifecycle change a TemplateEvent reports.
type TemplateEventKind string

// Lifecycle changes that may make a template due immediately.
const (
	TemplateCreated          TemplateEventKind = "template.created"
	TemplateActivated        TemplateEventKind = "template.activated"
	TemplateStartDateChanged TemplateEventKind = "template.start_date_changed"
)

// ErrUnknownEventKind is returned for kinds not listed above.
var ErrUnknownEventKind = errors.New("unknown template event kind")

// ParseTemplateEventKind accepts either the qualified kind ("template.created")
// or its short form ("created").
func ParseTemplateEventKind(s string) (TemplateEventKind, error) {
	for _, k := range []TemplateEventKind{TemplateCreated, TemplateActivated, TemplateStartDateChanged} {
		if s == string(k) || "template."+s == string(k) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownEventKind, s)
}

// TemplateEvent reports that a template changed in a way that may require a
// task for TargetDate to be generated right away.
type TemplateEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	Kind       TemplateEventKind `json:"kind"`
	TemplateID uuid.UUID         `json:"template_id"`
	TargetDate civil.Date        `json:"target_date"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// NewTemplateEvent creates a TemplateEvent for the given template and date.
func NewTemplateEvent(kind TemplateEventKind, templateID uuid.UUID, target civil.Date) (*TemplateEvent, error) {
	if _, err := ParseTemplateEventKind(string(kind)); err != nil {
		return nil, err
	}
	if templateID == uuid.Nil {
		return nil, errors.New("template event requires a template ID")
	}
	if !target.IsValid() {
		return nil, errors.New("template event requires a valid target date")
	}

	return &TemplateEvent{
		ID:         uuid.New(),
		Kind:       kind,
		TemplateID: templateID,
		TargetDate: target,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TemplateEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of handlers.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TemplateEvent) error
}
