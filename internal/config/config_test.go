package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "numpy", cfg.Analysis.Library)
	assert.Equal(t, []string{"np.", "numpy."}, cfg.Analysis.StripPrefixes)
	assert.Equal(t, "data/api_changes.json", cfg.Analysis.RulesPath)
	assert.Equal(t, "console", cfg.Output.Format)
}

func TestLoadConfigMissingPathFallsBack(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numpycheck.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
analysis:
  library: numpy
  max_workers: 2
  fail_on_severity: high
output:
  format: json
  colors: false
`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Analysis.MaxWorkers)
	assert.Equal(t, "high", cfg.Analysis.FailOnSeverity)
	assert.Equal(t, "json", cfg.Output.Format)
	assert.False(t, cfg.Output.Colors)
	// untouched keys keep defaults
	assert.Equal(t, "data/api_changes.json", cfg.Analysis.RulesPath)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numpycheck.yml")
	require.NoError(t, os.WriteFile(path, []byte("analysis: [not a map"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty library", func(c *Config) { c.Analysis.Library = "" }},
		{"empty rules path", func(c *Config) { c.Analysis.RulesPath = "" }},
		{"unknown format", func(c *Config) { c.Output.Format = "xml" }},
		{"zero workers", func(c *Config) { c.Analysis.MaxWorkers = 0 }},
		{"bad fail severity", func(c *Config) { c.Analysis.FailOnSeverity = "fatal" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestGenerateAndReloadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gen", ".numpycheck.yml")
	require.NoError(t, GenerateConfig(path))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}
