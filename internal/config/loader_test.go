package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(tmpDir))

	cfg, err := NewIsolatedLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InEpsilon(t, 0.30, cfg.Scanner.CenterSearchRatio, 1e-9)
}

func TestLoadWithFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "leggio.yaml")
	yamlContent := `
log_level: debug
verbose: true
scanner:
  quality-threshold: 0.75
  fold-border: 80
server:
  host: 0.0.0.0
  port: 9090
batch:
  workers: 8
`
	require.NoError(t, os.WriteFile(configFile, []byte(yamlContent), 0o600))

	cfg, err := NewIsolatedLoader().LoadWithFile(configFile)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.Verbose)
	assert.InEpsilon(t, 0.75, cfg.Scanner.QualityThreshold, 1e-9)
	assert.Equal(t, 80, cfg.Scanner.FoldBorder)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 8, cfg.Batch.Workers)
	// Keys the file omits keep their defaults.
	assert.Equal(t, 150, cfg.Scanner.ContourBorder)
}

func TestLoadWithMissingFile(t *testing.T) {
	_, err := NewIsolatedLoader().LoadWithFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadWithInvalidValues(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "leggio.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("log_level: shouting\n"), 0o600))

	_, err := NewIsolatedLoader().LoadWithFile(configFile)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("LEGGIO_SERVER_PORT", "7070")
	t.Setenv("LEGGIO_SCANNER_JPEG_QUALITY", "70")

	tmpDir := t.TempDir()
	originalWd, err := os.Getwd()
	require.NoError(t, err)
	defer func() { _ = os.Chdir(originalWd) }()
	require.NoError(t, os.Chdir(tmpDir))

	cfg, err := NewIsolatedLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 70, cfg.Scanner.JPEGQuality)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "leggio.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := NewIsolatedLoader().LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Server.Port, cfg.Server.Port)
}

func TestGetConfigSearchPaths(t *testing.T) {
	paths := GetConfigSearchPaths()
	assert.Contains(t, paths, ".")
	assert.Contains(t, paths, "/etc/leggio")
}
