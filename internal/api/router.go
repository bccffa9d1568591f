package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/niyax/cvm/backend/internal/api/handlers"
	"github.com/niyax/cvm/backend/internal/pipeline"
	"github.com/niyax/cvm/backend/internal/realtime"
	"github.com/niyax/cvm/backend/pkg/logger"
)

// Handlers groups every endpoint handler the router mounts
type Handlers struct {
	Session  *handlers.SessionHandler
	Forecast *handlers.ForecastHandler
	Health   *handlers.HealthHandler
	Events   *handlers.EventsHandler
}

// NewHandlers builds every handler over one orchestrator.
// db is nil when the audit trail is disabled.
func NewHandlers(p *pipeline.Orchestrator, hub *realtime.Hub, db handlers.DBChecker, log *logger.Logger) Handlers {
	return Handlers{
		Session:  handlers.NewSessionHandler(p, log),
		Forecast: handlers.NewForecastHandler(p, log),
		Health:   handlers.NewHealthHandler(p, db, log),
		Events:   handlers.NewEventsHandler(p, hub, log),
	}
}

// NewRouter creates and configures the HTTP router
// ⭐ SSOT: 라우팅 설정은 이 함수에서만
func NewRouter(h Handlers, limiter *rate.Limiter, log *logger.Logger) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health.Get).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/upload", h.Session.Upload).Methods("POST")
	api.HandleFunc("/run_step", h.Session.RunStep).Methods("POST")
	api.HandleFunc("/preview/{session_id}", h.Session.Preview).Methods("GET")
	api.HandleFunc("/download/{session_id}", h.Session.Download).Methods("GET")
	api.HandleFunc("/impact_forecast", h.Forecast.Get).Methods("GET")
	api.HandleFunc("/publish", h.Session.Publish).Methods("POST")
	api.Use(rateLimitMiddleware(limiter))

	r.HandleFunc("/ws/sessions/{session_id}", h.Events.Stream).Methods("GET")

	r.Use(recoveryMiddleware(log))
	r.Use(loggingMiddleware(log))

	return r
}

// statusRecorder captures the response status for request logs
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// hijacking needs the unwrapped writer
			if r.Header.Get("Upgrade") == "websocket" {
				next.ServeHTTP(w, r)
				return
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(map[string]interface{}{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start),
			}).Debug("HTTP request")
		})
	}
}

// recoveryMiddleware recovers from panics
func recoveryMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					log.WithFields(map[string]interface{}{
						"error": err,
						"path":  r.URL.Path,
					}).Error("Panic recovered")

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "Internal server error",
					})
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// rateLimitMiddleware applies one token bucket to every API request.
// A nil limiter disables throttling.
func rateLimitMiddleware(limiter *rate.Limiter) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter != nil && !limiter.Allow() {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Retry-After", "1")
				w.WriteHeader(http.StatusTooManyRequests)
				json.NewEncoder(w).Encode(map[string]string{
					"error": "Too many requests",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
