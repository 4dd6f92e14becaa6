package config

import (
	"context"
	"testing"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"API_BASE_URL": "https://lms.example.edu/api",
	}))
	require.NoError(t, err)

	assert.Equal(t, "https://lms.example.edu/api", cfg.API.BaseURL)
	assert.Equal(t, 30, cfg.API.TimeoutSeconds)
	assert.Equal(t, 300, cfg.Cache.StaleTimeSeconds)
	assert.Equal(t, 600, cfg.Cache.GCTimeSeconds)
	assert.Equal(t, 3, cfg.Cache.MaxRetries)
	assert.Equal(t, 10000, cfg.Cache.MaxEntries)
	assert.Empty(t, cfg.Session.FilePath)
	assert.False(t, cfg.Observe.Enabled)
	assert.Equal(t, "grpc", cfg.Observe.Type)
	assert.Equal(t, "campusql-client", cfg.Observe.ServiceName)
	assert.Equal(t, "admin", cfg.Prefetch.Role)
}

func TestLoadOverrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"API_BASE_URL":          "http://localhost:8080",
		"CACHE_STALE_TIME_SECS": "60",
		"CACHE_GC_TIME_SECS":    "120",
		"CACHE_MAX_RETRIES":     "1",
		"SESSION_FILE":          "/tmp/session.json",
		"OBSERVE_ENABLED":       "true",
		"OBSERVE_TYPE":          "stdout",
		"PREFETCH_ROLE":         "student",
		"PREFETCH_USER_ID":      "u-7",
	}))
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Cache.StaleTimeSeconds)
	assert.Equal(t, 120, cfg.Cache.GCTimeSeconds)
	assert.Equal(t, 1, cfg.Cache.MaxRetries)
	assert.Equal(t, "/tmp/session.json", cfg.Session.FilePath)
	assert.True(t, cfg.Observe.Enabled)
	assert.Equal(t, "stdout", cfg.Observe.Type)
	assert.Equal(t, "student", cfg.Prefetch.Role)
	assert.Equal(t, "u-7", cfg.Prefetch.UserID)
}

func TestLoadRequiresBaseURL(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	require.Error(t, err)
}

func TestValidateRejectsRelativeBaseURL(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"API_BASE_URL": "lms.example.edu/api",
	}))
	require.ErrorContains(t, err, "API_BASE_URL")
}

func TestValidateRejectsStaleBeyondGC(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"API_BASE_URL":          "https://lms.example.edu/api",
		"CACHE_STALE_TIME_SECS": "600",
		"CACHE_GC_TIME_SECS":    "300",
	}))
	require.ErrorContains(t, err, "CACHE_STALE_TIME_SECS")
}

func TestValidateRejectsUnknownObserveType(t *testing.T) {
	_, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"API_BASE_URL":    "https://lms.example.edu/api",
		"OBSERVE_ENABLED": "true",
		"OBSERVE_TYPE":    "jaeger",
	}))
	require.ErrorContains(t, err, "OBSERVE_TYPE")
}
