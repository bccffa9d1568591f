package commands

import (
	"context"
	"fmt"

	"github.com/niyax/cvm/backend/internal/audit"
	"github.com/niyax/cvm/backend/internal/catalog"
	"github.com/niyax/cvm/backend/internal/forecast"
	"github.com/niyax/cvm/backend/internal/pipeline"
	"github.com/niyax/cvm/backend/internal/realtime"
	"github.com/niyax/cvm/backend/internal/s4_launch"
	"github.com/niyax/cvm/backend/internal/session"
	"github.com/niyax/cvm/backend/pkg/config"
	"github.com/niyax/cvm/backend/pkg/database"
	"github.com/niyax/cvm/backend/pkg/logger"
	"github.com/niyax/cvm/backend/pkg/redis"
)

// keyPrefix namespaces every redis key of this service
const keyPrefix = "cvm"

// app holds the wired components shared by the commands
type app struct {
	cfg         *config.Config
	log         *logger.Logger
	catalog     *catalog.Catalog
	catalogHash string
	store       session.Store
	hub         *realtime.Hub
	pipeline    *pipeline.Orchestrator

	redis *redis.Client
	db    *database.DB
}

// buildApp wires the orchestrator from config.
// Redis and Postgres are optional; disabled backends fall back to the
// in-memory store, no forecast cache and a no-op audit recorder.
func buildApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	cat, err := catalog.Load(cfg.Pipeline.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	hash, err := catalog.Hash(cat)
	if err != nil {
		return nil, fmt.Errorf("hash catalog: %w", err)
	}
	a.catalog, a.catalogHash = cat, hash

	a.redis, err = redis.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	switch cfg.Session.Backend {
	case "redis":
		store, err := session.NewRedisStore(a.redis, keyPrefix, cfg.Session.TTL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = store
	default:
		a.store = session.NewMemoryStore()
	}

	var recorder audit.Recorder
	if cfg.Database.Enabled() {
		a.db, err = database.New(ctx, cfg)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		repo := audit.NewRepository(a.db.Pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("ensure audit schema: %w", err)
		}
		recorder = repo
		log.Info("Audit trail enabled")
	}

	var (
		cache   *redis.Cache
		limiter *redis.RateLimiter
	)
	if a.redis.Enabled() {
		cache = redis.NewCache(a.redis, keyPrefix)
		limiter = redis.NewRateLimiter(a.redis, keyPrefix)
	}

	a.hub = realtime.NewHub(log)
	a.pipeline = pipeline.NewOrchestrator(
		a.store,
		pipeline.NewSteps(cat, cfg.Pipeline.MaxRows, cfg.Pipeline.SampleSeed),
		s4_launch.NewExporter(cfg.Pipeline.RuntimeDir, recorder, hash, log),
		forecast.NewService(forecast.NewGenerator(), cache, cfg.Forecast.CacheTTL, log),
		recorder,
		a.hub,
		limiter,
		cfg.Pipeline.StepDelay,
		log,
	)

	log.WithFields(map[string]interface{}{
		"catalog":         cat.Meta.CatalogID,
		"catalog_hash":    hash,
		"session_backend": cfg.Session.Backend,
		"redis":           a.redis.Enabled(),
		"audit":           a.db != nil,
	}).Info("Pipeline wired")

	return a, nil
}

// Close releases external connections
func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close redis")
		}
	}
}
