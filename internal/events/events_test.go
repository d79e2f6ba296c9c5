package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTemplateEvent(t *testing.T) {
	templateID := uuid.New()
	target := civil.Date{Year: 2024, Month: time.March, Day: 1}

	event, err := NewTemplateEvent(TemplateActivated, templateID, target)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TemplateActivated, event.Kind)
	assert.Equal(t, templateID, event.TemplateID)
	assert.Equal(t, target, event.TargetDate)
	assert.WithinDuration(t, time.Now(), event.CreatedAt, 2*time.Second)
}

func TestNewTemplateEvent_Invalid(t *testing.T) {
	target := civil.Date{Year: 2024, Month: time.March, Day: 1}

	_, err := NewTemplateEvent("template.deleted", uuid.New(), target)
	assert.ErrorIs(t, err, ErrUnknownEventKind)

	_, err = NewTemplateEvent(TemplateCreated, uuid.Nil, target)
	assert.Error(t, err)

	_, err = NewTemplateEvent(TemplateCreated, uuid.New(), civil.Date{})
	assert.Error(t, err)
}

func TestParseTemplateEventKind(t *testing.T) {
	tests := []struct {
		in   string
		want TemplateEventKind
	}{
		{"created", TemplateCreated},
		{"template.created", TemplateCreated},
		{"activated", TemplateActivated},
		{"start_date_changed", TemplateStartDateChanged},
		{"template.start_date_changed", TemplateStartDateChanged},
	}
	for _, tt := range tests {
		got, err := ParseTemplateEventKind(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseTemplateEventKind("deactivated")
	assert.ErrorIs(t, err, ErrUnknownEventKind)
}

// MockEventHandler implements the EventHandler interface for testing
type MockEventHandler struct {
	mu sync.Mutex
	// The last event received by this handler
	LastEvent *TemplateEvent
	// Error to return from HandleEvent
	HandlerError error
	// Number of times HandleEvent was called
	HandledCount int
}

// HandleEvent records the event and returns the configured error
func (m *MockEventHandler) HandleEvent(ctx context.Context, event *TemplateEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastEvent = event
	m.HandledCount++
	return m.HandlerError
}
