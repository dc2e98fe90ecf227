package cmd

import (
	"errors"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peekknuf/dqfix/internal/auditstore"
	"github.com/peekknuf/dqfix/internal/dataset"
	"github.com/peekknuf/dqfix/internal/fixer"
	"github.com/peekknuf/dqfix/internal/report"
)

var (
	fixOutput   string
	fixManifest string
	fixAuditDB  string
)

var fixCmd = &cobra.Command{
	Use:   "fix FILE",
	Short: "Apply the recommended bulk fixes and write the fixed CSV",
	Long: `Recommend and apply bulk fixes, verify that the overall score did
not drop, then write the fixed CSV. Nothing is written when the score
would fall.

Examples:
  dqfix fix customers.csv --output customers.fixed.csv
  dqfix fix customers.csv -o fixed.csv --manifest run.json --audit-db audit.sqlite`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := args[0]
		d, err := loadDataset(source)
		if err != nil {
			return err
		}

		issues := newValidator().Detect(d)

		var bar *progressbar.ProgressBar
		applier := fixer.NewApplier(zlog).OnProgress(func(done, total int) {
			if bar == nil {
				bar = newProgressBar(total, "Applying fixes...")
			}
			bar.Set(done)
		})
		res, err := fixer.Pipeline{
			Scorer:      scorer,
			Recommender: newRecommender(),
			Applier:     applier,
		}.Run(d)
		if bar != nil {
			bar.Finish()
		}

		out := cmd.OutOrStdout()
		var regression *fixer.RegressionError
		if errors.As(err, &regression) {
			zlog.Error("refusing to write fixed data",
				zap.String("source", source),
				zap.Strings("dimensions", regression.Dimensions),
			)
			report.WriteDiagnosis(out, report.Diagnose(res.Before, res.After))
			return err
		}
		if err != nil {
			return err
		}

		if err := dataset.WriteFile(fixOutput, res.Fixed); err != nil {
			return err
		}

		if err := report.WriteAudit(out, res.Audit); err != nil {
			return err
		}
		fmt.Fprintln(out)
		if err := report.WriteDiagnosis(out, report.Diagnose(res.Before, res.After)); err != nil {
			return err
		}

		manifest := report.NewManifest(res, source, fixOutput)
		manifest.Issues = issues
		if fixManifest != "" {
			if err := manifest.WriteFile(fixManifest); err != nil {
				return err
			}
			zlog.Info("wrote manifest", zap.String("path", fixManifest))
		}
		if fixAuditDB != "" {
			if err := recordRun(cmd, manifest); err != nil {
				return err
			}
		}

		fmt.Fprintf(out, "\nFixed data saved to %s (run %s)\n", fixOutput, manifest.RunID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(fixCmd)
	fixCmd.Flags().StringVarP(&fixOutput, "output", "o", "",
		"Path of the fixed CSV (required)")
	fixCmd.Flags().StringVar(&fixManifest, "manifest", "",
		"Write a JSON run manifest to this path")
	fixCmd.Flags().StringVar(&fixAuditDB, "audit-db", "",
		"Record the run in this SQLite audit database")

	fixCmd.MarkFlagRequired("output")
}

func recordRun(cmd *cobra.Command, m *report.Manifest) error {
	store, err := auditstore.Open(fixAuditDB)
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := store.Record(cmd.Context(), auditstore.Run{
		ID:          m.RunID,
		Source:      m.Source,
		Output:      m.Output,
		Rows:        m.Rows,
		ScoreBefore: m.Before.Overall,
		ScoreAfter:  m.After.Overall,
		CreatedAt:   m.CreatedAt,
	}, m.Audit)
	if err != nil {
		return err
	}
	zlog.Info("recorded run", zap.String("run_id", id), zap.String("db", fixAuditDB))
	return nil
}
