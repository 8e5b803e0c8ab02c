package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/geochart/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), ".geochart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultLanguage, cfg.Language)
	assert.Equal(t, config.DefaultTimeoutSeconds, cfg.HTTP.TimeoutSeconds)
	assert.Equal(t, config.DefaultOutput, cfg.Render.Output)
	assert.Equal(t, config.DefaultTheme, cfg.Render.Theme)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadConfig_MetricsToggle(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, "metrics:\n  enabled: true\n"))
	require.NoError(t, err)

	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoadConfig_FileOverrides(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadConfig(writeConfig(t, `
language: fr
http:
  timeout_seconds: 5
render:
  output: out.html
  theme: light
`))
	require.NoError(t, err)

	assert.Equal(t, "fr", cfg.Language)
	assert.Equal(t, 5, cfg.HTTP.TimeoutSeconds)
	assert.Equal(t, "out.html", cfg.Render.Output)
	assert.Equal(t, "light", cfg.Render.Theme)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("GEOCHART_LANGUAGE", "de")

	cfg, err := config.LoadConfig(writeConfig(t, "language: fr\n"))
	require.NoError(t, err)

	assert.Equal(t, "de", cfg.Language)
}

func TestLoadConfig_InvalidTimeout(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(writeConfig(t, "http:\n  timeout_seconds: -1\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalidTimeout)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate_EmptyLanguage(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{HTTP: config.HTTPConfig{TimeoutSeconds: 10}}

	assert.ErrorIs(t, cfg.Validate(), config.ErrEmptyLanguage)
}
