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

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External sources
	StatsAPI StatsAPIConfig
	ESPN     ESPNConfig

	// Ingestion
	Ingest IngestConfig

	// Feature engineering
	Features FeatureConfig

	// Dataset / validation
	Dataset DatasetConfig

	// Serving
	Serving ServingConfig

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

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// StatsAPIConfig holds the upstream stats API configuration
type StatsAPIConfig struct {
	BaseURL string
}

// ESPNConfig holds the ESPN depth chart scraper configuration
type ESPNConfig struct {
	BaseURL string
	Enabled bool
}

// IngestConfig holds ingestion behavior configuration
type IngestConfig struct {
	CacheTTL          time.Duration // cached game logs younger than this skip the upstream call
	RateLimitInterval time.Duration // minimum spacing between outbound requests
	RetryMaxAttempts  int
	RetryInitialDelay time.Duration
	Workers           int // concurrent players fetched
}

// FeatureConfig holds the historical feature window configuration
type FeatureConfig struct {
	LongWindow     int
	ShortWindow    int
	MinHistory     int
	GoodGameCutoff float64 // fantasy points above this counts as a "good" game
	ColdStartBlend float64 // 0 = pure position average, 1 = pure individual partial history
}

// DatasetConfig holds split and validation configuration
type DatasetConfig struct {
	TrainFraction        float64
	CVFolds              int
	CVGap                int // index gap between a fold's train end and validation start
	EligibilityThreshold int // games at a position before it counts as eligible
	DefaultPosition      string
}

// ServingConfig holds serving-boundary behavior configuration
type ServingConfig struct {
	AllEligible bool // one prediction per eligible position instead of primary only
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Port: getEnv("PORT", "8090"),
		Env:  getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
		},

		StatsAPI: StatsAPIConfig{
			BaseURL: getEnv("STATS_API_BASE_URL", "https://statsapi.mlb.com"),
		},

		ESPN: ESPNConfig{
			BaseURL: getEnv("ESPN_BASE_URL", "https://www.espn.com/mlb"),
			Enabled: getEnvAsBool("ESPN_ENABLED", true),
		},

		Ingest: IngestConfig{
			CacheTTL:          getEnvAsDuration("CACHE_TTL", "6h"),
			RateLimitInterval: getEnvAsDuration("RATE_LIMIT_INTERVAL", "2s"),
			RetryMaxAttempts:  getEnvAsInt("RETRY_MAX_ATTEMPTS", 3),
			RetryInitialDelay: getEnvAsDuration("RETRY_INITIAL_DELAY", "1s"),
			Workers:           getEnvAsInt("INGEST_WORKERS", 4),
		},

		Features: FeatureConfig{
			LongWindow:     getEnvAsInt("LONG_WINDOW", 15),
			ShortWindow:    getEnvAsInt("SHORT_WINDOW", 5),
			MinHistory:     getEnvAsInt("MIN_HISTORY", 10),
			GoodGameCutoff: getEnvAsFloat("GOOD_GAME_CUTOFF", 10.0),
			ColdStartBlend: getEnvAsFloat("COLDSTART_BLEND", 0.0),
		},

		Dataset: DatasetConfig{
			TrainFraction:        getEnvAsFloat("TRAIN_FRACTION", 0.8),
			CVFolds:              getEnvAsInt("CV_FOLDS", 5),
			CVGap:                getEnvAsInt("CV_GAP", 1),
			EligibilityThreshold: getEnvAsInt("ELIGIBILITY_THRESHOLD", 20),
			DefaultPosition:      getEnv("DEFAULT_POSITION", "OF"),
		},

		Serving: ServingConfig{
			AllEligible: getEnvAsBool("SERVE_ALL_ELIGIBLE", false),
		},

		LogLevel:  getEnv("LOG_LEVEL", "debug"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that configured values are internally consistent.
// A wrong window or threshold corrupts every feature row downstream,
// so these fail at startup instead of at computation time.
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	f := c.Features
	if f.LongWindow <= 0 || f.ShortWindow <= 0 {
		return fmt.Errorf("LONG_WINDOW and SHORT_WINDOW must be positive")
	}
	if f.ShortWindow > f.LongWindow {
		return fmt.Errorf("SHORT_WINDOW (%d) must not exceed LONG_WINDOW (%d)", f.ShortWindow, f.LongWindow)
	}
	if f.MinHistory <= 0 {
		return fmt.Errorf("MIN_HISTORY must be positive")
	}
	if f.ColdStartBlend < 0 || f.ColdStartBlend > 1 {
		return fmt.Errorf("COLDSTART_BLEND must be in [0, 1]")
	}

	d := c.Dataset
	if d.TrainFraction <= 0 || d.TrainFraction >= 1 {
		return fmt.Errorf("TRAIN_FRACTION must be in (0, 1)")
	}
	if d.CVFolds < 1 {
		return fmt.Errorf("CV_FOLDS must be at least 1")
	}
	if d.CVGap < 0 {
		return fmt.Errorf("CV_GAP must not be negative")
	}
	if d.EligibilityThreshold < 1 {
		return fmt.Errorf("ELIGIBILITY_THRESHOLD must be at least 1")
	}
	if d.DefaultPosition == "" {
		return fmt.Errorf("DEFAULT_POSITION is required")
	}

	i := c.Ingest
	if i.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1")
	}
	if i.Workers < 1 {
		return fmt.Errorf("INGEST_WORKERS must be at least 1")
	}
	if i.RateLimitInterval <= 0 {
		return fmt.Errorf("RATE_LIMIT_INTERVAL must be positive")
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",         // Current directory
		"backend/.env", // From project root
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
			filepath.Join(exeDir, "..", "..", ".env"),
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
