package setup

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeanpaul/sakemate/internal/config"
	"github.com/jeanpaul/sakemate/internal/health"
)

func TestRun_WritesLoadableConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	path := filepath.Join(t.TempDir(), "sakemate", "config.yaml")

	var checked []string
	check := func(_ context.Context, key string) health.Status {
		checked = append(checked, key)
		if key == "good-key" {
			return health.Status{Reachable: true, Models: []string{"gemini-2.0-flash-exp"}}
		}
		return health.Status{Error: "invalid API key"}
	}

	// empty key, a bad key, retry, the good key, defaults for the rest
	in := strings.NewReader("\nbad-key\ny\ngood-key\n\nredis\nfile\n")
	var out bytes.Buffer
	a, err := Run(context.Background(), in, &out, path, check)
	require.NoError(t, err)

	assert.Equal(t, []string{"bad-key", "good-key"}, checked)
	assert.Equal(t, Answers{APIKey: "good-key", Language: "Japanese", Driver: "file"}, a)
	assert.Contains(t, out.String(), "an API key is required")
	assert.Contains(t, out.String(), "choose badger, file or memory")

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), fi.Mode().Perm())

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "good-key", cfg.AI.APIKey)
	assert.Equal(t, "file", cfg.Storage.Driver)
	assert.Equal(t, "Japanese", cfg.AI.Language)
}

func TestRun_EnvKeyReference(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "from-env")
	path := filepath.Join(t.TempDir(), "config.yaml")

	var checked string
	check := func(_ context.Context, key string) health.Status {
		checked = key
		return health.Status{Reachable: true}
	}
	a, err := Run(context.Background(), strings.NewReader("\nEnglish\nmemory\n"), &bytes.Buffer{}, path, check)
	require.NoError(t, err)
	assert.Equal(t, "from-env", checked)
	assert.Equal(t, "$GEMINI_API_KEY", a.APIKey)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "$GEMINI_API_KEY")
	assert.NotContains(t, string(data), "from-env")
}

func TestRun_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	_, err := Run(context.Background(), strings.NewReader("\n"), &bytes.Buffer{}, path, nil)
	assert.ErrorContains(t, err, "left unchanged")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "log:\n  level: debug\n", string(data))
}
