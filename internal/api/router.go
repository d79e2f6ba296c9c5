package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/bizops-api/internal/api/middleware"
)

// RouterConfig bounds the on-demand generation endpoint.
type RouterConfig struct {
	GenerateRPS   float64
	GenerateBurst int
}

// NewRouter builds the internal HTTP surface:
//
//	GET  /healthz
//	POST /internal/templates/{id}/generate
func NewRouter(
	health *HealthHandler,
	generation *GenerationHandler,
	cfg RouterConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Trace(logger))

	r.Get("/healthz", health.Health)

	r.Route("/internal/templates/{id}", func(r chi.Router) {
		r.With(middleware.RateLimit(cfg.GenerateRPS, cfg.GenerateBurst)).
			Post("/generate", generation.Generate)
	})

	return r
}
