package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/niyax/cvm/backend/internal/pipeline"
	"github.com/niyax/cvm/backend/internal/realtime"
	"github.com/niyax/cvm/backend/pkg/logger"
)

// EventsHandler streams step events of one session over a websocket
type EventsHandler struct {
	pipeline *pipeline.Orchestrator
	hub      *realtime.Hub
	logger   *logger.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(p *pipeline.Orchestrator, hub *realtime.Hub, log *logger.Logger) *EventsHandler {
	return &EventsHandler{
		pipeline: p,
		hub:      hub,
		logger:   log,
	}
}

// Stream upgrades to a websocket for a known session
// GET /ws/sessions/{session_id}
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	if _, err := h.pipeline.Session(r.Context(), sessionID); err != nil {
		respondErr(w, h.logger, err, "Session lookup failed")
		return
	}

	h.hub.ServeSession(w, r, sessionID)
}
