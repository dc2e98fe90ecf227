package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peekknuf/dqfix/internal/dataset"
	"github.com/peekknuf/dqfix/internal/quality"
	"github.com/peekknuf/dqfix/internal/report"
	"github.com/peekknuf/dqfix/internal/validator"
)

var scoreJSON bool

// scoreOutput is the score report with the detected issues alongside.
type scoreOutput struct {
	quality.Report
	Issues []validator.Issue `json:"issues"`
}

var scoreCmd = &cobra.Command{
	Use:   "score FILE",
	Short: "Score a CSV file across the quality dimensions",
	Long: `Score a CSV file across completeness, safety, consistency,
uniqueness, validity and timeliness, and combine them with the
configured weights.

Examples:
  dqfix score customers.csv
  dqfix score customers.csv --json

Detected issues are listed after the scores.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		r := scorer.Score(d)
		issues := newValidator().Detect(d)
		if scoreJSON {
			return writeJSON(cmd.OutOrStdout(), scoreOutput{Report: r, Issues: issues})
		}
		out := cmd.OutOrStdout()
		if err := report.WriteScore(out, r); err != nil {
			return err
		}
		fmt.Fprintln(out)
		return report.WriteIssues(out, issues)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false,
		"Print the report as JSON")
}

func loadDataset(path string) (*dataset.Dataset, error) {
	d, err := dataset.ReadFile(path)
	if err != nil {
		return nil, err
	}
	zlog.Info("loaded dataset",
		zap.String("path", path),
		zap.Int("rows", d.NumRows()),
		zap.Int("columns", d.NumCols()),
	)
	return d, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
