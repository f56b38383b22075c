// Package config holds the run configuration for a report build: where the
// input lives, where the report goes, how the input headers are named, and
// the few tunables the charts expose. Defaults come first, a YAML file
// overrides them, and environment variables override the file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"eduatlas/internal/dataset"
)

// Config is the full run configuration.
type Config struct {
	// Input is the pre-merged indicator table (.csv, .tsv or .xlsx).
	Input string `yaml:"input"`

	// Output is the self-contained HTML report to write.
	Output string `yaml:"output"`

	// Columns maps record fields to input header names.
	Columns dataset.Columns `yaml:"columns"`

	// SmoothFraction is the LOWESS smoothing fraction for the bubble
	// chart trend line, in (0, 1].
	SmoothFraction float64 `yaml:"smooth_fraction"`

	// TopN is how many countries each ranked bar chart shows.
	TopN int `yaml:"top_n"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Input:          "data/education_indicators.csv",
		Output:         "education_report.html",
		Columns:        dataset.DefaultColumns(),
		SmoothFraction: 0.4,
		TopN:           15,
		LogLevel:       "info",
	}
}

// Load reads a YAML configuration file over the defaults. A missing file is
// not an error: defaults (plus environment overrides) apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EDUATLAS_INPUT"); v != "" {
		c.Input = v
	}
	if v := os.Getenv("EDUATLAS_OUTPUT"); v != "" {
		c.Output = v
	}
}

// Validate checks the configuration before a run.
func (c *Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("input path is required")
	}
	if c.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if c.SmoothFraction <= 0 || c.SmoothFraction > 1 {
		return fmt.Errorf("smooth_fraction %v outside (0, 1]", c.SmoothFraction)
	}
	if c.TopN < 1 {
		return fmt.Errorf("top_n must be at least 1, got %d", c.TopN)
	}
	for name, v := range map[string]string{
		"columns.country":         c.Columns.Country,
		"columns.obs_value":       c.Columns.ObsValue,
		"columns.year":            c.Columns.Year,
		"columns.gdp_per_capita":  c.Columns.GDPPerCapita,
		"columns.life_expectancy": c.Columns.LifeExpectancy,
		"columns.population":      c.Columns.Population,
	} {
		if v == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	return nil
}
