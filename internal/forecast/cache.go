package forecast

import (
	"context"
	"time"

	"github.com/niyax/cvm/backend/pkg/logger"
	"github.com/niyax/cvm/backend/pkg/redis"
)

// Service serves forecasts through the redis cache when one is enabled.
// A cache failure falls back to computing the forecast directly.
type Service struct {
	gen    *Generator
	cache  *redis.Cache
	ttl    time.Duration
	logger *logger.Logger
}

// NewService creates a forecast service; cache may be nil
func NewService(gen *Generator, cache *redis.Cache, ttl time.Duration, log *logger.Logger) *Service {
	return &Service{gen: gen, cache: cache, ttl: ttl, logger: log}
}

// Forecast returns the (possibly cached) forecast for a session
func (s *Service) Forecast(ctx context.Context, sessionID, lobs string, rawRows int) (*Forecast, error) {
	if s.cache == nil {
		return s.gen.Generate(sessionID, lobs, rawRows), nil
	}

	var out Forecast
	err := s.cache.GetOrSet(ctx, redis.ForecastKey(SeedKey(sessionID, lobs)), &out, s.ttl, func() (interface{}, error) {
		return s.gen.Generate(sessionID, lobs, rawRows), nil
	})
	if err != nil {
		s.logger.WithSession(sessionID).WithError(err).Warn("Forecast cache unavailable, computing directly")
		return s.gen.Generate(sessionID, lobs, rawRows), nil
	}
	return &out, nil
}
