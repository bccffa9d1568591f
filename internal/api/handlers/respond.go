package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/niyax/cvm/backend/internal/contracts"
	"github.com/niyax/cvm/backend/pkg/logger"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes {"error", "detail"}; browser clients read detail
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error":  message,
		"detail": message,
	})
}

// StatusFor maps the error taxonomy onto HTTP status codes
func StatusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, contracts.ErrPrecondition), errors.Is(err, contracts.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// respondErr answers with the client message of a taxonomy error, or with
// fallback (logging the real error) for anything else
func respondErr(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).Error(fallback)
		respondError(w, status, fallback)
		return
	}
	respondError(w, status, contracts.Message(err))
}
