package handlers

import (
	"net/http"
	"strings"

	"github.com/niyax/cvm/backend/internal/pipeline"
	"github.com/niyax/cvm/backend/pkg/logger"
)

// ForecastHandler serves the simulated impact forecast
type ForecastHandler struct {
	pipeline *pipeline.Orchestrator
	logger   *logger.Logger
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(p *pipeline.Orchestrator, log *logger.Logger) *ForecastHandler {
	return &ForecastHandler{
		pipeline: p,
		logger:   log,
	}
}

// Get returns the forecast for a session
// GET /api/impact_forecast?session_id=...&lobs=DATA,VOICE
func (h *ForecastHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sessionID := strings.TrimSpace(q.Get("session_id"))
	if sessionID == "" {
		respondError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	res, err := h.pipeline.Forecast(r.Context(), sessionID, q.Get("lobs"))
	if err != nil {
		respondErr(w, h.logger, err, "Forecast failed")
		return
	}

	respondJSON(w, http.StatusOK, res)
}
