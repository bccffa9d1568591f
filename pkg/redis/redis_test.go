package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niyax/cvm/backend/pkg/config"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewFromAddr(mr.Addr())
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestNewClient_Disabled(t *testing.T) {
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Enabled: false,
		},
	}

	client, err := New(cfg)
	require.NoError(t, err)
	assert.False(t, client.Enabled())
	assert.NoError(t, client.Close())
}

func TestNewClient_Enabled(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Redis: config.RedisConfig{
			Host:    mr.Host(),
			Port:    mr.Port(),
			Enabled: true,
		},
	}

	client, err := New(cfg)
	require.NoError(t, err)
	defer client.Close()
	assert.True(t, client.Enabled())
}

func TestRateLimiter_Disabled(t *testing.T) {
	client, _ := New(&config.Config{})
	limiter := NewRateLimiter(client, "test")

	cfg := PublishRateLimit("s1")
	allowed, remaining, err := limiter.Allow(context.Background(), cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, cfg.Limit, remaining)
}

func TestRateLimiter_Window(t *testing.T) {
	client, _ := newTestClient(t)
	limiter := NewRateLimiter(client, "test")
	ctx := context.Background()

	cfg := RateLimitConfig{Key: "publish:s1", Limit: 2, Window: time.Minute}

	allowed, remaining, err := limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, remaining)

	time.Sleep(2 * time.Millisecond)
	allowed, remaining, err = limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 0, remaining)

	time.Sleep(2 * time.Millisecond)
	allowed, _, err = limiter.Allow(ctx, cfg)
	require.NoError(t, err)
	assert.False(t, allowed)

	// other sessions have their own window
	allowed, _, err = limiter.Allow(ctx, RateLimitConfig{Key: "publish:s2", Limit: 2, Window: time.Minute})
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestCache_Disabled(t *testing.T) {
	client, _ := New(&config.Config{})
	cache := NewCache(client, "test")

	// When Redis is disabled, cache operations should be no-ops
	var result string
	found, err := cache.Get(context.Background(), "key", &result)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, cache.Set(context.Background(), "key", "v", TTLShort))
}

func TestCache_GetOrSet(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewCache(client, "cvm")
	ctx := context.Background()

	type payload struct {
		Total float64 `json:"total"`
	}

	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return payload{Total: 42.5}, nil
	}

	var first payload
	require.NoError(t, cache.GetOrSet(ctx, ForecastKey("s1|DATA"), &first, TTLMedium, fn))
	assert.Equal(t, 42.5, first.Total)
	assert.True(t, mr.Exists("cvm:cache:forecast:s1|DATA"))

	var second payload
	require.NoError(t, cache.GetOrSet(ctx, ForecastKey("s1|DATA"), &second, TTLMedium, fn))
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)

	mr.FastForward(TTLMedium + time.Second)
	var third payload
	require.NoError(t, cache.GetOrSet(ctx, ForecastKey("s1|DATA"), &third, TTLMedium, fn))
	assert.Equal(t, 2, calls)

	require.NoError(t, cache.Delete(ctx, ForecastKey("s1|DATA")))
	assert.False(t, mr.Exists("cvm:cache:forecast:s1|DATA"))
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{
			name:     "ForecastKey",
			fn:       func() string { return ForecastKey("abc|DATA,VOICE") },
			expected: "forecast:abc|DATA,VOICE",
		},
		{
			name:     "SessionKey",
			fn:       func() string { return SessionKey("abc") },
			expected: "session:abc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.fn())
		})
	}
}
