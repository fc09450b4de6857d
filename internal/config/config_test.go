package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresRedisURL(t *testing.T) {
	t.Setenv("REDIS_STATE_STORE_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("REDIS_STATE_STORE_URL", "redis://localhost:6379")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "redis://localhost:6379", cfg.RedisURL)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 10, cfg.ContextLimit)
	assert.Equal(t, 50, cfg.MaxVersionsPerSession)
	assert.Equal(t, 10, cfg.CompressionKeepRecent)
	assert.InDelta(t, 0.7, cfg.ConfidenceThreshold, 0.001)
	assert.Equal(t, 180*time.Second, cfg.GeneratorTimeout)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDIS_STATE_STORE_URL", "redis://localhost:6379")
	t.Setenv("SESSION_TTL_HOURS", "48")
	t.Setenv("CONTEXT_LIMIT", "5")
	t.Setenv("MAX_VERSIONS_PER_SESSION", "20")
	t.Setenv("COMPRESSION_KEEP_RECENT", "3")
	t.Setenv("CONFIDENCE_THRESHOLD", "0.5")
	t.Setenv("GENERATOR_TIMEOUT_SECONDS", "60")
	t.Setenv("PORT", "9999")
	t.Setenv("WIREFRAME_GENERATOR_URL", "http://generator:8000/generate")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 48*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 5, cfg.ContextLimit)
	assert.Equal(t, 20, cfg.MaxVersionsPerSession)
	assert.Equal(t, 3, cfg.CompressionKeepRecent)
	assert.InDelta(t, 0.5, cfg.ConfidenceThreshold, 0.001)
	assert.Equal(t, 60*time.Second, cfg.GeneratorTimeout)
	assert.Equal(t, 9999, cfg.Port)
	assert.Equal(t, "http://generator:8000/generate", cfg.GeneratorURL)
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("REDIS_STATE_STORE_URL", "redis://localhost:6379")
	t.Setenv("CONTEXT_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.ContextLimit)
}
