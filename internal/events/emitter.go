package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// InMemoryEventEmitter delivers events synchronously to handlers registered
// in the same process, in registration order.
type InMemoryEventEmitter struct {
	mu       sync.RWMutex
	handlers []EventHandler
	logger   *slog.Logger
}

var _ EventEmitter = (*InMemoryEventEmitter)(nil)

// NewInMemoryEventEmitter creates an emitter with no handlers.
func NewInMemoryEventEmitter(logger *slog.Logger) *InMemoryEventEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &InMemoryEventEmitter{logger: logger.With("component", "event_emitter")}
}

// RegisterHandler subscribes handler to every subsequent event.
func (e *InMemoryEventEmitter) RegisterHandler(handler EventHandler) {
	e.mu.Lock()
	e.handlers = append(e.handlers, handler)
	n := len(e.handlers)
	e.mu.Unlock()

	e.logger.Debug("event handler registered", "handler_count", n)
}

// EmitEvent hands event to every handler. A failing handler does not stop
// delivery to the rest; the failures are joined into the returned error.
func (e *InMemoryEventEmitter) EmitEvent(ctx context.Context, event *TemplateEvent) error {
	e.mu.RLock()
	handlers := append([]EventHandler(nil), e.handlers...)
	e.mu.RUnlock()

	log := e.logger.With(
		"event_id", event.ID,
		"event_kind", event.Kind,
		"template_id", event.TemplateID,
	)
	if len(handlers) == 0 {
		log.Warn("event dropped, no handlers registered")
		return nil
	}

	var errs []error
	for i, h := range handlers {
		if err := h.HandleEvent(ctx, event); err != nil {
			log.Error("event handler failed", "handler_index", i, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
