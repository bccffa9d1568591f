package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database (audit trail, optional)
	Database DatabaseConfig

	// Redis (session store / forecast cache, optional)
	Redis RedisConfig

	// Session storage
	Session SessionConfig

	// Pipeline
	Pipeline PipelineConfig

	// Forecast
	Forecast ForecastConfig

	// HTTP throttling
	RateLimit RateLimitConfig

	// Scheduler
	SnapshotSchedule string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether an audit database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// SessionConfig selects the session store backend
type SessionConfig struct {
	Backend string        // memory, redis
	TTL     time.Duration // redis only
}

// PipelineConfig bounds the cost of a single step run
type PipelineConfig struct {
	MaxRows     int           // sample cap applied to the raw upload
	SampleSeed  int64         // seed used when the cap kicks in
	StepDelay   time.Duration // simulated processing latency
	RuntimeDir  string        // launch exports are written here
	CatalogPath string        // empty = embedded default catalog
}

// ForecastConfig holds forecast cache settings
type ForecastConfig struct {
	CacheTTL time.Duration
}

// RateLimitConfig holds the token bucket for the HTTP API
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Session: SessionConfig{
			Backend: getEnv("SESSION_BACKEND", "memory"),
			TTL:     getEnvAsDuration("SESSION_TTL", "24h"),
		},

		Pipeline: PipelineConfig{
			MaxRows:     getEnvAsInt("PIPELINE_MAX_ROWS", 200000),
			SampleSeed:  int64(getEnvAsInt("PIPELINE_SAMPLE_SEED", 123)),
			StepDelay:   getEnvAsDuration("PIPELINE_STEP_DELAY", "1s"),
			RuntimeDir:  getEnv("RUNTIME_DIR", "runtime"),
			CatalogPath: getEnv("CATALOG_PATH", ""),
		},

		Forecast: ForecastConfig{
			CacheTTL: getEnvAsDuration("FORECAST_CACHE_TTL", "10m"),
		},

		RateLimit: RateLimitConfig{
			RPS:   getEnvAsFloat("RATE_LIMIT_RPS", 20),
			Burst: getEnvAsInt("RATE_LIMIT_BURST", 40),
		},

		SnapshotSchedule: getEnv("SNAPSHOT_SCHEDULE", "0 */5 * * * *"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that configuration values are coherent
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	switch c.Session.Backend {
	case "memory":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("SESSION_BACKEND=redis requires REDIS_ENABLED=true")
		}
	default:
		return fmt.Errorf("SESSION_BACKEND must be one of: memory, redis")
	}

	if c.Pipeline.MaxRows <= 0 {
		return fmt.Errorf("PIPELINE_MAX_ROWS must be positive")
	}
	if c.Pipeline.StepDelay < 0 {
		return fmt.Errorf("PIPELINE_STEP_DELAY must not be negative")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
		"backend/.env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
