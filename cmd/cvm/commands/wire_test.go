package commands

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niyax/cvm/backend/internal/pipeline"
	"github.com/niyax/cvm/backend/internal/session"
	"github.com/niyax/cvm/backend/pkg/config"
	"github.com/niyax/cvm/backend/pkg/logger"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Env:      "development",
		Session:  config.SessionConfig{Backend: "memory", TTL: time.Hour},
		Pipeline: config.PipelineConfig{MaxRows: 1000, SampleSeed: 123, RuntimeDir: t.TempDir()},
		Forecast: config.ForecastConfig{CacheTTL: time.Minute},
	}
}

func runAll(t *testing.T, a *app) {
	t.Helper()
	ctx := context.Background()
	up, err := a.pipeline.Upload(ctx, "base.csv", strings.NewReader("id,tenure_months\nC1,1\nC2,40\n"))
	require.NoError(t, err)
	for _, step := range []string{"lifecycle", "opportunity", "offers", "launch"} {
		_, err := a.pipeline.RunStep(ctx, pipeline.StepRequest{SessionID: up.SessionID, Step: step})
		require.NoError(t, err, step)
	}
	_, err = a.pipeline.Download(ctx, up.SessionID)
	require.NoError(t, err)
}

func TestBuildApp_Memory(t *testing.T) {
	a, err := buildApp(context.Background(), testConfig(t), logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &session.MemoryStore{}, a.store)
	assert.False(t, a.redis.Enabled())
	assert.Nil(t, a.db)
	assert.NotEmpty(t, a.catalogHash)
	runAll(t, a)
}

func TestBuildApp_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Session.Backend = "redis"
	cfg.Redis = config.RedisConfig{Host: mr.Host(), Port: mr.Port(), Enabled: true}

	a, err := buildApp(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	defer a.Close()

	assert.IsType(t, &session.RedisStore{}, a.store)
	runAll(t, a)

	n, err := a.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBuildApp_BadCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.Pipeline.CatalogPath = "does-not-exist.yaml"

	_, err := buildApp(context.Background(), cfg, logger.Nop())
	assert.Error(t, err)
}
