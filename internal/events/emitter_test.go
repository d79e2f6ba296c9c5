package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEvent(t *testing.T) *TemplateEvent {
	t.Helper()
	event, err := NewTemplateEvent(TemplateCreated, uuid.New(), civil.Date{Year: 2024, Month: time.January, Day: 15})
	require.NoError(t, err)
	return event
}

func TestInMemoryEventEmitter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("emit event with no handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)

		err := emitter.EmitEvent(context.Background(), newTestEvent(t))
		assert.NoError(t, err)
	})

	t.Run("emit event with successful handlers", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		handler1 := &MockEventHandler{}
		handler2 := &MockEventHandler{}
		emitter.RegisterHandler(handler1)
		emitter.RegisterHandler(handler2)

		event := newTestEvent(t)
		err := emitter.EmitEvent(context.Background(), event)

		assert.NoError(t, err)
		assert.Equal(t, 1, handler1.HandledCount)
		assert.Equal(t, 1, handler2.HandledCount)
		assert.Equal(t, event, handler1.LastEvent)
		assert.Equal(t, event, handler2.LastEvent)
	})

	t.Run("emit event with failing handler", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(logger)
		failingHandler := &MockEventHandler{HandlerError: errors.New("handler error")}
		successHandler := &MockEventHandler{}
		emitter.RegisterHandler(failingHandler)
		emitter.RegisterHandler(successHandler)

		err := emitter.EmitEvent(context.Background(), newTestEvent(t))

		require.Error(t, err)
		assert.Equal(t, "handler error", err.Error())
		assert.Equal(t, 1, failingHandler.HandledCount)
		assert.Equal(t, 1, successHandler.HandledCount, "later handlers still receive the event")
	})

	t.Run("every handler failure is reported", func(t *testing.T) {
		emitter := NewInMemoryEventEmitter(nil)
		errA := errors.New("queue full")
		errB := errors.New("store down")
		emitter.RegisterHandler(&MockEventHandler{HandlerError: errA})
		emitter.RegisterHandler(&MockEventHandler{HandlerError: errB})

		err := emitter.EmitEvent(context.Background(), newTestEvent(t))

		assert.ErrorIs(t, err, errA)
		assert.ErrorIs(t, err, errB)
	})
}
