package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eduatlas/internal/dataset"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, dataset.DefaultColumns(), cfg.Columns)
	assert.Equal(t, 0.4, cfg.SmoothFraction)
	assert.Equal(t, 15, cfg.TopN)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	yaml := `
input: merged.xlsx
top_n: 10
columns:
  country: REF_AREA_NAME
`
	path := filepath.Join(t.TempDir(), "eduatlas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "merged.xlsx", cfg.Input)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, "REF_AREA_NAME", cfg.Columns.Country)

	// Untouched keys keep their defaults.
	assert.Equal(t, Default().Output, cfg.Output)
	assert.Equal(t, Default().Columns.ObsValue, cfg.Columns.ObsValue)
	assert.Equal(t, 0.4, cfg.SmoothFraction)
}

func TestEnvOverridesFile(t *testing.T) {
	yaml := "input: from-file.csv\noutput: from-file.html\n"
	path := filepath.Join(t.TempDir(), "eduatlas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	t.Setenv("EDUATLAS_INPUT", "from-env.csv")
	t.Setenv("EDUATLAS_OUTPUT", "from-env.html")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.csv", cfg.Input)
	assert.Equal(t, "from-env.html", cfg.Output)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eduatlas.yaml")
	require.NoError(t, os.WriteFile(path, []byte("input: [unclosed"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"empty input", func(c *Config) { c.Input = "" }, "input path"},
		{"empty output", func(c *Config) { c.Output = "" }, "output path"},
		{"fraction zero", func(c *Config) { c.SmoothFraction = 0 }, "smooth_fraction"},
		{"fraction above one", func(c *Config) { c.SmoothFraction = 1.5 }, "smooth_fraction"},
		{"top_n zero", func(c *Config) { c.TopN = 0 }, "top_n"},
		{"empty column", func(c *Config) { c.Columns.Year = "" }, "columns.year"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
