package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, DefaultGeminiBaseURL, cfg.LLM.BaseURL)
	assert.Equal(t, 700*time.Millisecond, cfg.Navigation.Debounce)
	assert.Equal(t, 4, cfg.Mentor.MaxHints)
	assert.Equal(t, 30, cfg.Mentor.MaxExplainLines)
	assert.Equal(t, 30*time.Minute, cfg.Mentor.StuckThreshold)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 24*time.Hour, cfg.Jobs.Retention)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Scraper.Engine)
}

func TestLoadConfig_YAMLWithEnvExpansion(t *testing.T) {
	t.Setenv("TEST_REDIS_HOST", "cache.internal")
	path := writeConfig(t, `
server:
  port: 9090
  allow_origins: ["chrome-extension://abc"]
storage:
  backend: redis
redis:
  url: redis://${TEST_REDIS_HOST}:6380/2
mentor:
  stuck_threshold: 20m
jobs:
  workers: 8
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"chrome-extension://abc"}, cfg.Server.AllowOrigins)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "redis://cache.internal:6380/2", cfg.Redis.URL)
	assert.Equal(t, 20*time.Minute, cfg.Mentor.StuckThreshold)
	assert.Equal(t, 8, cfg.Jobs.Workers)
	// untouched sections keep their defaults
	assert.Equal(t, 100, cfg.Jobs.QueueSize)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "server: [unterminated"))
	assert.Error(t, err)
}

func TestLoadFromEnv_ProviderKeys(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "claude")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("ANTHROPIC_API_KEY", "claude-key")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "claude", cfg.LLM.Provider)
	assert.Equal(t, "claude-key", cfg.LLM.APIKey)
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "7000")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("NAVIGATION_DEBOUNCE", "900ms")
	t.Setenv("JOB_WORKERS", "2")
	t.Setenv("REDIS_DB", "not-a-number")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowOrigins)
	assert.Equal(t, 900*time.Millisecond, cfg.Navigation.Debounce)
	assert.Equal(t, 2, cfg.Jobs.Workers)
	assert.Equal(t, 0, cfg.Redis.DB)
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CM_A", "alpha")

	assert.Equal(t, "alpha-alpha", expandEnvVars("${CM_A}-$CM_A"))
	assert.Equal(t, "${CM_UNSET_VAR}", expandEnvVars("${CM_UNSET_VAR}"))
}
