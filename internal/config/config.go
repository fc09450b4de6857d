// Package config loads server configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all recognized settings.
type Config struct {
	// RedisURL is the connection string for the Redis state store. Required.
	RedisURL string

	// SessionTTL is the idle expiration window for sessions.
	SessionTTL time.Duration

	// ContextLimit caps the per-session context list.
	ContextLimit int

	// MaxVersionsPerSession triggers compaction when exceeded.
	MaxVersionsPerSession int

	// CompressionKeepRecent is the number of versions retained uncompressed.
	CompressionKeepRecent int

	// ConfidenceThreshold is the minimum confidence to skip clarification.
	ConfidenceThreshold float64

	// GeneratorTimeout bounds each external generator call.
	GeneratorTimeout time.Duration

	// GeneratorURL is the endpoint of the external wireframe generator.
	// When empty, a local development generator is used.
	GeneratorURL string

	// Port is the HTTP listen port.
	Port int

	// LogLevel is the minimum log level (DEBUG, INFO, WARN, ERROR, FATAL).
	LogLevel string

	// LogPretty enables human-readable console logging.
	LogPretty bool
}

// Defaults per the service contract.
const (
	DefaultSessionTTLHours       = 24
	DefaultContextLimit          = 10
	DefaultMaxVersions           = 50
	DefaultCompressionKeepRecent = 10
	DefaultConfidenceThreshold   = 0.7
	DefaultGeneratorTimeoutSecs  = 180
	DefaultPort                  = 8080
)

// Default returns a Config with every dial at its default. RedisURL is left
// empty; callers that need a live store must set it.
func Default() Config {
	return Config{
		SessionTTL:            DefaultSessionTTLHours * time.Hour,
		ContextLimit:          DefaultContextLimit,
		MaxVersionsPerSession: DefaultMaxVersions,
		CompressionKeepRecent: DefaultCompressionKeepRecent,
		ConfidenceThreshold:   DefaultConfidenceThreshold,
		GeneratorTimeout:      DefaultGeneratorTimeoutSecs * time.Second,
		Port:                  DefaultPort,
		LogLevel:              "INFO",
	}
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; real environment variables win.
func Load() (Config, error) {
	// Ignore the error: a missing .env file is the normal case.
	_ = godotenv.Load()

	cfg := Default()

	cfg.RedisURL = os.Getenv("REDIS_STATE_STORE_URL")
	if cfg.RedisURL == "" {
		return cfg, fmt.Errorf("REDIS_STATE_STORE_URL is required")
	}

	if hours := envInt("SESSION_TTL_HOURS", DefaultSessionTTLHours); hours > 0 {
		cfg.SessionTTL = time.Duration(hours) * time.Hour
	}
	cfg.ContextLimit = envInt("CONTEXT_LIMIT", DefaultContextLimit)
	cfg.MaxVersionsPerSession = envInt("MAX_VERSIONS_PER_SESSION", DefaultMaxVersions)
	cfg.CompressionKeepRecent = envInt("COMPRESSION_KEEP_RECENT", DefaultCompressionKeepRecent)
	cfg.ConfidenceThreshold = envFloat("CONFIDENCE_THRESHOLD", DefaultConfidenceThreshold)
	if secs := envInt("GENERATOR_TIMEOUT_SECONDS", DefaultGeneratorTimeoutSecs); secs > 0 {
		cfg.GeneratorTimeout = time.Duration(secs) * time.Second
	}
	cfg.Port = envInt("PORT", DefaultPort)
	cfg.GeneratorURL = os.Getenv("WIREFRAME_GENERATOR_URL")

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}
	cfg.LogPretty = envBool("LOG_PRETTY", false)

	return cfg, nil
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
