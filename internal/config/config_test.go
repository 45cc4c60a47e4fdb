package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points config lookup at an empty directory and clears the
// environment variables Load reads.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("XDG_DATA_HOME", dir)
	t.Setenv("GEMINI_API_KEY", "")
	for _, k := range []string{"SAKEMATE_AI_API_KEY", "SAKEMATE_AI_MODEL", "SAKEMATE_STORAGE_DRIVER", "SAKEMATE_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
	t.Chdir(dir)
	return dir
}

func TestDefaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.AI.Model)
	assert.Equal(t, "Japanese", cfg.AI.Language)
	assert.Equal(t, time.Duration(0), cfg.AI.Timeout)
	assert.Equal(t, 0, cfg.AI.MaxRetries)
	assert.Equal(t, int64(20<<20), cfg.AI.MaxImageBytes)
	assert.Equal(t, "badger", cfg.Storage.Driver)
	assert.Equal(t, filepath.Join(dir, "sakemate"), cfg.Storage.Path)
	assert.Equal(t, "sakemate:", cfg.Storage.KeyPrefix)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.ErrorIs(t, cfg.RequireAPIKey(), ErrNoAPIKey)
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("MY_KEY", "secret-from-env")
	t.Setenv("SAKEMATE_AI_MODEL", "gemini-1.5-pro")

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
ai:
  api_key: $MY_KEY
  timeout: 45s
  max_retries: 2
  breaker:
    enabled: true
storage:
  driver: file
  path: /tmp/sake
server:
  cors_origins: ["https://sake.example"]
log:
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-from-env", cfg.AI.APIKey)
	assert.Equal(t, "gemini-1.5-pro", cfg.AI.Model)
	assert.Equal(t, 45*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 2, cfg.AI.MaxRetries)
	assert.True(t, cfg.AI.Breaker.Enabled)
	assert.Equal(t, uint32(5), cfg.AI.Breaker.FailureThreshold)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, []string{"https://sake.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.RequireAPIKey())
}

func TestGeminiKeyFallback(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "from-gemini-var")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-gemini-var", cfg.AI.APIKey)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load("/nonexistent/sakemate.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"bad driver", func(c *Config) { c.Storage.Driver = "redis" }, "storage.driver"},
		{"no path", func(c *Config) { c.Storage.Path = "" }, "storage.path"},
		{"negative retries", func(c *Config) { c.AI.MaxRetries = -1 }, "max_retries"},
		{"negative timeout", func(c *Config) { c.AI.Timeout = -time.Second }, "ai.timeout"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.errMsg)
		})
	}

	cfg := DefaultConfig()
	cfg.Storage = StorageConfig{Driver: "memory"}
	cfg.AI.Model = ""
	cfg.Log = LogConfig{}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gemini-2.0-flash-exp", cfg.AI.Model)
	assert.Equal(t, "console", cfg.Log.Format)

	for _, level := range []string{"fatal", "panic", "off"} {
		cfg := DefaultConfig()
		cfg.Log.Level = level
		assert.NoError(t, cfg.Validate(), level)
	}
}
