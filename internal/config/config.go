package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Upstream UpstreamConfig
	Session  SessionConfig
	Map      MapConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	FrontendURL string
}

// UpstreamConfig points the console at the core attendance API
type UpstreamConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig holds dashboard session configuration
type SessionConfig struct {
	Secret     string
	Expiration time.Duration
}

// MapConfig holds the live map tuning knobs
type MapConfig struct {
	TuningFile string
	PageLimit  int
}

func Load() (*Config, error) {
	// .env is optional outside local development
	_ = godotenv.Load()

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8081"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
	}

	upstreamTimeout, err := time.ParseDuration(getEnv("UPSTREAM_TIMEOUT", "30s"))
	if err != nil {
		return nil, fmt.Errorf("invalid UPSTREAM_TIMEOUT: %w", err)
	}

	config.Upstream = UpstreamConfig{
		BaseURL: getEnv("UPSTREAM_BASE_URL", "http://localhost:8080"),
		Timeout: upstreamTimeout,
	}

	sessionExpiration, err := time.ParseDuration(getEnv("SESSION_EXPIRATION_TIME", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid SESSION_EXPIRATION_TIME: %w", err)
	}

	config.Session = SessionConfig{
		Secret:     getEnv("SESSION_SECRET_KEY", ""),
		Expiration: sessionExpiration,
	}

	mapPageLimit, err := strconv.Atoi(getEnv("MAP_PAGE_LIMIT", "500"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAP_PAGE_LIMIT: %w", err)
	}

	config.Map = MapConfig{
		TuningFile: getEnv("MAP_TUNING_FILE", ""),
		PageLimit:  mapPageLimit,
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("UPSTREAM_BASE_URL is required")
	}
	if c.Session.Secret == "" {
		return fmt.Errorf("SESSION_SECRET_KEY is required")
	}
	if c.Map.PageLimit <= 0 {
		return fmt.Errorf("MAP_PAGE_LIMIT must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
