package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niyax/cvm/backend/internal/catalog"
	"github.com/niyax/cvm/backend/internal/forecast"
	"github.com/niyax/cvm/backend/internal/pipeline"
	"github.com/niyax/cvm/backend/internal/s4_launch"
	"github.com/niyax/cvm/backend/internal/session"
	"github.com/niyax/cvm/backend/pkg/database"
	"github.com/niyax/cvm/backend/pkg/logger"
)

type fakeDB struct {
	err error
}

func (f fakeDB) HealthCheck(ctx context.Context) (*database.HealthStatus, error) {
	status := &database.HealthStatus{Timestamp: time.Now()}
	if f.err != nil {
		status.Error = f.err.Error()
		return status, f.err
	}
	status.Healthy = true
	status.Stats = database.PoolStats{MaxConns: 4, TotalConns: 1}
	return status, nil
}

func newTestOrchestrator(t *testing.T) *pipeline.Orchestrator {
	t.Helper()
	log := logger.Nop()
	return pipeline.NewOrchestrator(
		session.NewMemoryStore(),
		pipeline.NewSteps(catalog.Default(), 1000, 123),
		s4_launch.NewExporter(t.TempDir(), nil, "", log),
		forecast.NewService(forecast.NewGenerator(), nil, 0, log),
		nil,
		nil,
		nil,
		0,
		log,
	)
}

func TestHealthHandler_Get(t *testing.T) {
	tests := []struct {
		name        string
		db          DBChecker
		wantStatus  string
		wantDB      bool
		wantHealthy bool
	}{
		{"no database", nil, "healthy", false, false},
		{"database up", fakeDB{}, "healthy", true, true},
		{"database down", fakeDB{err: errors.New("connection refused")}, "degraded", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthHandler(newTestOrchestrator(t), tt.db, logger.Nop())

			rec := httptest.NewRecorder()
			h.Get(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, float64(0), body["sessions_count"])

			dbBody, ok := body["database"].(map[string]interface{})
			assert.Equal(t, tt.wantDB, ok)
			if ok {
				assert.Equal(t, tt.wantHealthy, dbBody["healthy"])
			}
		})
	}
}
