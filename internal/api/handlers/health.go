package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/niyax/cvm/backend/internal/pipeline"
	"github.com/niyax/cvm/backend/pkg/database"
	"github.com/niyax/cvm/backend/pkg/logger"
)

// DBChecker reports audit database health
type DBChecker interface {
	HealthCheck(ctx context.Context) (*database.HealthStatus, error)
}

// HealthHandler reports liveness, the active session count and, when the
// audit trail is enabled, database reachability
type HealthHandler struct {
	pipeline *pipeline.Orchestrator
	db       DBChecker
	logger   *logger.Logger
}

// NewHealthHandler creates a new health handler. db may be nil.
func NewHealthHandler(p *pipeline.Orchestrator, db DBChecker, log *logger.Logger) *HealthHandler {
	return &HealthHandler{
		pipeline: p,
		db:       db,
		logger:   log,
	}
}

// Get returns server health status
// GET /health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	count, err := h.pipeline.SessionCount(r.Context())
	if err != nil {
		h.logger.WithError(err).Warn("Session store unavailable")
		status = "degraded"
	}

	body := map[string]interface{}{
		"service":        "cvm-api",
		"sessions_count": count,
		"timestamp":      time.Now().Format(time.RFC3339),
	}

	if h.db != nil {
		dbStatus, err := h.db.HealthCheck(r.Context())
		if err != nil {
			h.logger.WithError(err).Warn("Audit database unavailable")
			status = "degraded"
		}
		body["database"] = dbStatus
	}

	body["status"] = status
	respondJSON(w, http.StatusOK, body)
}
