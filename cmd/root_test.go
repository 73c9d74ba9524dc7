package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dp2pwn/reconspider/internal/config"
)

func TestBuildConfigDefaults(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := buildConfig(cmd.Flags(), "example.com")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", cfg.BaseURL, "scheme added when missing")
	assert.Equal(t, config.DefaultMaxDepth, cfg.MaxDepth)
	assert.True(t, cfg.RespectRobots)
	assert.True(t, cfg.UseBrowser)
	assert.Equal(t, config.OutputBoth, cfg.OutputFormat)
}

func TestBuildConfigFlagOverrides(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--max-depth", "2",
		"--delay", "0.5",
		"--browser=false",
		"--override-robots",
		"--enable-js-analysis",
		"--header", "X-Api-Key: secret",
		"--cookie", "session=abc; lang=en",
		"--output-format", "json",
	}))

	cfg, err := buildConfig(cmd.Flags(), "http://target.local/")
	require.NoError(t, err)

	assert.Equal(t, "http://target.local/", cfg.BaseURL)
	assert.Equal(t, 2, cfg.MaxDepth)
	assert.Equal(t, 500*time.Millisecond, cfg.Delay)
	assert.False(t, cfg.UseBrowser)
	assert.True(t, cfg.OverrideRobots)
	assert.True(t, cfg.EnableJSAnalysis)
	assert.Equal(t, "secret", cfg.CustomHeaders["X-Api-Key"])
	assert.Equal(t, "abc", cfg.AuthCookies["session"])
	assert.Equal(t, "en", cfg.AuthCookies["lang"])
	assert.Equal(t, config.OutputJSON, cfg.OutputFormat)
}

func TestBuildConfigFlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"max_depth": 9, "max_pages": 7}`), 0o644))

	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--config", path, "--max-depth", "3"}))

	cfg, err := buildConfig(cmd.Flags(), "https://example.com")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.MaxDepth, "explicit flag wins over the file")
	assert.Equal(t, 7, cfg.MaxPages, "file value kept when flag untouched")
}

func TestBuildConfigRejectsMalformedInput(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--header", "no-colon-here"}))
	_, err := buildConfig(cmd.Flags(), "https://example.com")
	assert.Error(t, err)

	cmd = newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--output-format", "xml"}))
	_, err = buildConfig(cmd.Flags(), "https://example.com")
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, "crawl_report.json", outputPath("", ".json", "crawl_report.json"))
	assert.Equal(t, "scan.json", outputPath("scan", ".json", "crawl_report.json"))
	assert.Equal(t, "scan.json", outputPath("scan.json", ".json", "crawl_report.json"))
	assert.Equal(t, "scan.db", outputPath("scan", ".db", "crawl_data.db"))
}
