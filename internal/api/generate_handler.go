package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/bizops-api/internal/api/shared"
	"github.com/phrazzld/bizops-api/internal/domain"
	"github.com/phrazzld/bizops-api/internal/events"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
)

// Generator generates a template's task for one date synchronously.
type Generator interface {
	GenerateNow(ctx context.Context, templateID uuid.UUID, date civil.Date) (bool, error)
}

// GenerateRequest is the optional body of POST /internal/templates/{id}/generate.
type GenerateRequest struct {
	// TargetDate defaults to today in the scheduler's timezone.
	TargetDate string `json:"target_date" validate:"omitempty,datetime=2006-01-02"`
	// Wait runs generation inline instead of queueing a background job.
	Wait bool `json:"wait"`
	// Kind is the lifecycle change that prompted the request. Defaults to activated.
	Kind string `json:"kind" validate:"omitempty,oneof=created activated start_date_changed template.created template.activated template.start_date_changed"`
}

// GenerateResponse is returned when the caller waited for generation.
type GenerateResponse struct {
	TemplateID uuid.UUID  `json:"template_id"`
	TargetDate civil.Date `json:"target_date"`
	Generated  bool       `json:"generated"`
}

// GenerateAcceptedResponse is returned when generation was queued.
type GenerateAcceptedResponse struct {
	TemplateID uuid.UUID  `json:"template_id"`
	TargetDate civil.Date `json:"target_date"`
	EventID    uuid.UUID  `json:"event_id"`
	Status     string     `json:"status"`
}

// GenerationHandler serves on-demand generation for a single template.
type GenerationHandler struct {
	generator Generator
	emitter   events.EventEmitter
	today     func() civil.Date
	logger    *slog.Logger
}

// NewGenerationHandler creates a GenerationHandler. today supplies the
// default target date.
func NewGenerationHandler(
	generator Generator,
	emitter events.EventEmitter,
	today func() civil.Date,
	logger *slog.Logger,
) *GenerationHandler {
	if generator == nil {
		panic("generator cannot be nil")
	}
	if emitter == nil {
		panic("event emitter cannot be nil")
	}
	if today == nil {
		today = func() civil.Date { return civil.DateOf(time.Now()) }
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerationHandler{
		generator: generator,
		emitter:   emitter,
		today:     today,
		logger:    logger.With("component", "generation_handler"),
	}
}

// Generate handles POST /internal/templates/{id}/generate.
func (h *GenerationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	templateID, err := getPathUUID(r, "id")
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	var req GenerateRequest
	if err := shared.DecodeOptionalJSON(r, &req); err != nil {
		log.Debug("invalid generate request body", "error", err)
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		handleValidationError(w, r, err)
		return
	}

	date := h.today()
	if req.TargetDate != "" {
		date, err = civil.ParseDate(req.TargetDate)
		if err != nil {
			HandleAPIError(w, r, domain.NewValidationError("target_date", "is not a calendar date", domain.ErrInvalidDate), "")
			return
		}
	}

	if date.After(h.today()) {
		handleValidationError(w, r,
			domain.NewValidationError("target_date", "must not be in the future", domain.ErrInvalidDate))
		return
	}

	log = log.With("template_id", templateID, "target_date", date.String())

	if req.Wait {
		// A client disconnect must not interrupt the insert and watermark pair.
		generated, err := h.generator.GenerateNow(context.WithoutCancel(r.Context()), templateID, date)
		if err != nil {
			log.Warn("on-demand generation failed", "error", err)
			HandleAPIError(w, r, err, "")
			return
		}
		log.Info("on-demand generation finished", "generated", generated)
		shared.RespondWithJSON(w, r, http.StatusOK, GenerateResponse{
			TemplateID: templateID,
			TargetDate: date,
			Generated:  generated,
		})
		return
	}

	kind := events.TemplateActivated
	if req.Kind != "" {
		if kind, err = events.ParseTemplateEventKind(req.Kind); err != nil {
			HandleAPIError(w, r, err, "")
			return
		}
	}

	event, err := events.NewTemplateEvent(kind, templateID, date)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := h.emitter.EmitEvent(r.Context(), event); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	log.Info("generation queued", "event_id", event.ID, "event_kind", event.Kind)
	shared.RespondWithJSON(w, r, http.StatusAccepted, GenerateAcceptedResponse{
		TemplateID: templateID,
		TargetDate: date,
		EventID:    event.ID,
		Status:     "accepted",
	})
}
