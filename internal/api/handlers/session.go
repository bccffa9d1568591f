package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/niyax/cvm/backend/internal/pipeline"
	"github.com/niyax/cvm/backend/pkg/logger"
)

// MaxUploadBytes bounds a multipart upload
const MaxUploadBytes = 64 << 20

// SessionHandler serves the upload → step → preview → download flow
// ⭐ SSOT: 세션 API 핸들러는 이 구조체에서만
type SessionHandler struct {
	pipeline *pipeline.Orchestrator
	logger   *logger.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(p *pipeline.Orchestrator, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		pipeline: p,
		logger:   log,
	}
}

// Upload creates a session from a CSV file
// POST /api/upload (multipart field "file")
func (h *SessionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	res, err := h.pipeline.Upload(r.Context(), header.Filename, file)
	if err != nil {
		respondErr(w, h.logger, err, "Upload failed")
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// RunStep executes one pipeline step
// POST /api/run_step
func (h *SessionHandler) RunStep(w http.ResponseWriter, r *http.Request) {
	var req pipeline.StepRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.pipeline.RunStep(r.Context(), req)
	if err != nil {
		respondErr(w, h.logger, err, "Step failed")
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// Preview returns the head of a step output
// GET /api/preview/{session_id}?step=lifecycle&n=12
func (h *SessionHandler) Preview(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["session_id"]
	q := r.URL.Query()

	n := pipeline.DefaultPreviewRows
	if raw := q.Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "n must be an integer")
			return
		}
		n = v
	}

	res, err := h.pipeline.Preview(r.Context(), sessionID, q.Get("step"), n)
	if err != nil {
		respondErr(w, h.logger, err, "Preview failed")
		return
	}

	respondJSON(w, http.StatusOK, res)
}

// Download streams the launch export as CSV
// GET /api/download/{session_id}
func (h *SessionHandler) Download(w http.ResponseWriter, r *http.Request) {
	path, err := h.pipeline.Download(r.Context(), mux.Vars(r)["session_id"])
	if err != nil {
		respondErr(w, h.logger, err, "Download failed")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		respondError(w, http.StatusNotFound, "Output not found.")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", pipeline.DownloadName(path)))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		h.logger.WithError(err).Warn("Download interrupted")
	}
}

// Publish acknowledges a campaign publish request
// POST /api/publish
func (h *SessionHandler) Publish(w http.ResponseWriter, r *http.Request) {
	var req pipeline.PublishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := h.pipeline.Publish(r.Context(), req)
	if err != nil {
		respondErr(w, h.logger, err, "Publish failed")
		return
	}

	respondJSON(w, http.StatusOK, res)
}
