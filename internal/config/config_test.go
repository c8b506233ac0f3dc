package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.InEpsilon(t, 0.6, cfg.Scanner.QualityThreshold, 1e-9)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad output format", func(c *Config) { c.Output.Format = "xml" }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad upload limit", func(c *Config) { c.Server.MaxUploadMB = -1 }},
		{"bad timeout", func(c *Config) { c.Server.TimeoutSec = 0 }},
		{"bad workers", func(c *Config) { c.Batch.Workers = 0 }},
		{"bad scanner threshold", func(c *Config) { c.Scanner.QualityThreshold = 1.5 }},
		{"bad scanner jpeg quality", func(c *Config) { c.Scanner.JPEGQuality = 200 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
