package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/peekknuf/dqfix/internal/quality"
	"github.com/peekknuf/dqfix/internal/validator"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "DQFIX_"

// DefaultFile is looked up in the home directory when no path is given.
const DefaultFile = ".dqfix.yaml"

// Config represents the application configuration
type Config struct {
	// Weights replaces the legacy completeness/safety vector when set.
	Weights quality.Weights `yaml:"weights"`
	// KeyColumns overrides id-like key inference.
	KeyColumns []string `yaml:"key_columns"`
	// ReferenceDate is YYYY-MM-DD; empty means today.
	ReferenceDate string `yaml:"reference_date"`
	StaleDays     int    `yaml:"stale_days"`

	// MissingThreshold is the missing-cell share at which a column is
	// reported as an issue.
	MissingThreshold float64 `yaml:"missing_threshold"`

	MaskSensitive      bool `yaml:"mask_sensitive"`
	NeutralizeFormulas bool `yaml:"neutralize_formulas"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Source is the YAML file that was read, if any.
	Source string `yaml:"-"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		StaleDays:          int(quality.DefaultStaleAfter / (24 * time.Hour)),
		MissingThreshold:   validator.DefaultMissingThreshold,
		MaskSensitive:      true,
		NeutralizeFormulas: true,
		LogLevel:           "warn",
		LogFormat:          "console",
	}
}

// Load layers configuration: defaults, then the YAML file at path (or
// $HOME/.dqfix.yaml when path is empty and the file exists), then a .env
// file in the working directory, then DQFIX_* environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, DefaultFile)
		}
	}
	if path != "" {
		if err := cfg.readFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		} else {
			cfg.Source = path
		}
	}

	// A missing .env is normal; variables already set win over the file.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := getEnv("WEIGHTS"); v != "" {
		w, err := ParseWeights(strings.Split(v, ","))
		if err != nil {
			return err
		}
		c.Weights = w
	}
	if v := getEnv("KEY_COLUMNS"); v != "" {
		c.KeyColumns = splitList(v)
	}
	if v := getEnv("REFERENCE_DATE"); v != "" {
		c.ReferenceDate = v
	}
	if v := getEnv("STALE_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sSTALE_DAYS %q: %w", EnvPrefix, v, err)
		}
		c.StaleDays = n
	}
	if v := getEnv("MISSING_THRESHOLD"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sMISSING_THRESHOLD %q: %w", EnvPrefix, v, err)
		}
		c.MissingThreshold = f
	}
	for key, dst := range map[string]*bool{
		"MASK_SENSITIVE":      &c.MaskSensitive,
		"NEUTRALIZE_FORMULAS": &c.NeutralizeFormulas,
	} {
		if v := getEnv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
			}
			*dst = b
		}
	}
	if v := getEnv("LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_FORMAT"); v != "" {
		c.LogFormat = v
	}
	return nil
}

// Validate ensures all configuration values are usable
func (c *Config) Validate() error {
	if c.Weights != nil {
		if err := c.Weights.Validate(); err != nil {
			return err
		}
	}
	if _, err := c.Reference(); err != nil {
		return err
	}
	if c.StaleDays <= 0 {
		return errors.New("stale days must be positive")
	}
	if !(c.MissingThreshold > 0 && c.MissingThreshold <= 1) {
		return fmt.Errorf("missing threshold must be in (0,1], got %g", c.MissingThreshold)
	}
	if _, err := zapcore.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	return nil
}

// Reference parses ReferenceDate. The zero time means "today".
func (c *Config) Reference() (time.Time, error) {
	if c.ReferenceDate == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, c.ReferenceDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid reference date %q: %w", c.ReferenceDate, err)
	}
	return t, nil
}

// ScorerOptions turns the configuration into scorer options.
func (c *Config) ScorerOptions() quality.Options {
	ref, _ := c.Reference()
	return quality.Options{
		KeyColumns:    c.KeyColumns,
		ReferenceDate: ref,
		StaleAfter:    time.Duration(c.StaleDays) * 24 * time.Hour,
	}
}

// ValidatorOptions turns the configuration into issue detector options.
func (c *Config) ValidatorOptions() validator.Options {
	return validator.Options{
		MissingThreshold: c.MissingThreshold,
		KeyColumns:       c.KeyColumns,
	}
}

// ParseWeights parses name=value pairs into a weight vector. The result is
// not validated.
func ParseWeights(pairs []string) (quality.Weights, error) {
	w := make(quality.Weights, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			return nil, &quality.ConfigError{Key: pair, Reason: "expected name=value"}
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return nil, &quality.ConfigError{Key: name, Reason: fmt.Sprintf("not a number: %q", value)}
		}
		w[strings.TrimSpace(name)] = f
	}
	return w, nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
