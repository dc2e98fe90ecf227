package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/dqfix/internal/quality"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, key := range []string{"WEIGHTS", "KEY_COLUMNS", "REFERENCE_DATE", "STALE_DAYS", "MASK_SENSITIVE", "NEUTRALIZE_FORMULAS", "MISSING_THRESHOLD", "LOG_LEVEL", "LOG_FORMAT"} {
		t.Setenv(EnvPrefix+key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Nil(t, cfg.Weights)
	assert.Equal(t, 365, cfg.StaleDays)
	assert.True(t, cfg.MaskSensitive)
	assert.True(t, cfg.NeutralizeFormulas)
	assert.Equal(t, 0.2, cfg.MissingThreshold)
	assert.Equal(t, 0.2, cfg.ValidatorOptions().MissingThreshold)
	assert.Empty(t, cfg.Source)

	opts := cfg.ScorerOptions()
	assert.True(t, opts.ReferenceDate.IsZero())
	assert.Equal(t, quality.DefaultStaleAfter, opts.StaleAfter)
}

func TestLoadYAML(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "dqfix.yaml", `
weights:
  consistency: 1
  validity: 3
key_columns: [sku]
reference_date: "2024-06-01"
stale_days: 30
mask_sensitive: false
log_format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, quality.Weights{"consistency": 1, "validity": 3}, cfg.Weights)
	assert.Equal(t, []string{"sku"}, cfg.KeyColumns)
	assert.False(t, cfg.MaskSensitive)
	assert.True(t, cfg.NeutralizeFormulas)

	opts := cfg.ScorerOptions()
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), opts.ReferenceDate)
	assert.Equal(t, 30*24*time.Hour, opts.StaleAfter)
}

func TestHomeConfigIsOptionalButExplicitPathIsNot(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	home := t.TempDir()
	t.Setenv("HOME", home)
	writeFile(t, home, DefaultFile, "stale_days: 7\n")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.StaleDays)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "dqfix.yaml", "stale_days: 30\nlog_level: info\n")

	t.Setenv("DQFIX_STALE_DAYS", "10")
	t.Setenv("DQFIX_WEIGHTS", "safety=1, uniqueness=1")
	t.Setenv("DQFIX_KEY_COLUMNS", "a, b,")
	t.Setenv("DQFIX_NEUTRALIZE_FORMULAS", "false")
	t.Setenv("DQFIX_MISSING_THRESHOLD", "0.5")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.StaleDays)
	assert.Equal(t, quality.Weights{"safety": 1, "uniqueness": 1}, cfg.Weights)
	assert.Equal(t, []string{"a", "b"}, cfg.KeyColumns)
	assert.False(t, cfg.NeutralizeFormulas)
	assert.Equal(t, 0.5, cfg.MissingThreshold)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown dimension", func(c *Config) { c.Weights = quality.Weights{"foo": 1} }},
		{"bad reference date", func(c *Config) { c.ReferenceDate = "06/01/2024" }},
		{"zero stale days", func(c *Config) { c.StaleDays = 0 }},
		{"zero missing threshold", func(c *Config) { c.MissingThreshold = 0 }},
		{"missing threshold above one", func(c *Config) { c.MissingThreshold = 1.5 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Weights = quality.Weights{"foo": 1}
	assert.ErrorIs(t, cfg.Validate(), quality.ErrConfiguration)
}

func TestParseWeights(t *testing.T) {
	w, err := ParseWeights([]string{"completeness=0.25", " safety = 0.75 "})
	require.NoError(t, err)
	assert.Equal(t, quality.Weights{"completeness": 0.25, "safety": 0.75}, w)

	_, err = ParseWeights([]string{"safety"})
	assert.ErrorIs(t, err, quality.ErrConfiguration)

	_, err = ParseWeights([]string{"safety=high"})
	assert.ErrorIs(t, err, quality.ErrConfiguration)
}
