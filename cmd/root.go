package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peekknuf/dqfix/internal/config"
	"github.com/peekknuf/dqfix/internal/fixer"
	"github.com/peekknuf/dqfix/internal/logger"
	"github.com/peekknuf/dqfix/internal/quality"
	"github.com/peekknuf/dqfix/internal/validator"
)

var (
	cfgFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	zlog   = zap.NewNop()
	scorer = quality.NewScorer()
)

var rootCmd = &cobra.Command{
	Use:   "dqfix",
	Short: "Data quality scoring and safe bulk fixes",
	Long: `Score CSV files across six data quality dimensions and apply
conservative bulk fixes that never lower the score`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute() {
	err := rootCmd.Execute()
	_ = zlog.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/"+config.DefaultFile+")")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"log format: console or json (overrides config)")
}

// setup loads configuration and builds the logger and scorer shared by
// every command.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if logFormat != "" {
		c.LogFormat = logFormat
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	l, err := logger.New(c.LogLevel, c.LogFormat)
	if err != nil {
		return err
	}

	opts := c.ScorerOptions()
	opts.Logger = l
	s := quality.NewScorerWithOptions(opts)
	if len(c.Weights) > 0 {
		if err := s.SetWeights(c.Weights); err != nil {
			return err
		}
	}

	cfg, zlog, scorer = c, l, s
	if c.Source != "" {
		zlog.Debug("loaded config", zap.String("file", c.Source))
	}
	return nil
}

func newRecommender() *fixer.Recommender {
	return fixer.NewRecommender(fixer.RecommenderOptions{
		KeyColumns:        cfg.KeyColumns,
		DisableMask:       !cfg.MaskSensitive,
		DisableNeutralize: !cfg.NeutralizeFormulas,
		Logger:            zlog,
	})
}

func newValidator() *validator.Validator {
	opts := cfg.ValidatorOptions()
	opts.Logger = zlog
	return validator.New(opts)
}
