package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 5, cfg.MaxDepth)
	assert.Equal(t, 1000, cfg.MaxPages)
	assert.Equal(t, time.Second, cfg.Delay)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.True(t, cfg.RespectRobots)
	assert.False(t, cfg.OverrideRobots)
	assert.Equal(t, OutputBoth, cfg.OutputFormat)
	assert.Contains(t, cfg.IgnoredExtensions, ".png")
	assert.Empty(t, cfg.FocusedExtensions)
}

func TestFromFileOverridesOnlyNamedFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"max_depth": 2,
		"delay": 0.5,
		"override_robots": true,
		"ignored_extensions": [".pdf"],
		"auth_cookies": {"session": "abc123"},
		"output_format": "json"
	}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := FromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.MaxDepth)
	assert.Equal(t, 500*time.Millisecond, cfg.Delay)
	assert.True(t, cfg.OverrideRobots)
	assert.Equal(t, map[string]struct{}{".pdf": {}}, cfg.IgnoredExtensions)
	assert.Equal(t, "abc123", cfg.AuthCookies["session"])
	assert.Equal(t, OutputJSON, cfg.OutputFormat)

	// untouched fields keep their defaults
	assert.Equal(t, 1000, cfg.MaxPages)
	assert.True(t, cfg.RespectRobots)
}

func TestFromFileMissing(t *testing.T) {
	_, err := FromFile(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestClamp(t *testing.T) {
	cfg := Default()
	cfg.MaxDepth = -1
	cfg.MaxPages = 0
	cfg.Timeout = 0
	cfg.OutputFormat = ""
	require.NoError(t, cfg.Clamp())

	assert.Equal(t, DefaultMaxDepth, cfg.MaxDepth)
	assert.Equal(t, DefaultMaxPages, cfg.MaxPages)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, OutputBoth, cfg.OutputFormat)

	cfg.OutputFormat = "yaml"
	assert.Error(t, cfg.Clamp())
}
