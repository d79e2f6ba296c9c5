package api

import (
	"context"
	"net/http"
	"time"

	"github.com/phrazzld/bizops-api/internal/api/shared"
	"github.com/phrazzld/bizops-api/internal/platform/logger"
)

// Pinger reports whether a dependency is reachable. *sql.DB implements it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

const healthPingTimeout = 2 * time.Second

// HealthHandler answers liveness probes by pinging the database.
type HealthHandler struct {
	db Pinger
}

// NewHealthHandler creates a HealthHandler. It panics if db is nil.
func NewHealthHandler(db Pinger) *HealthHandler {
	if db == nil {
		panic("database cannot be nil")
	}
	return &HealthHandler{db: db}
}

// Health handles GET /healthz.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		logger.FromContext(r.Context()).Warn("health check failed", "error", err)
		shared.RespondWithJSON(w, r, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unavailable",
			Database: "unreachable",
		})
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{Status: "ok", Database: "ok"})
}
