package cmd

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/peekknuf/dqfix/internal/auditstore"
)

var (
	historyDB    string
	historyLimit int
)

var historyCmd = &cobra.Command{
	Use:   "history [RUN_ID]",
	Short: "Show fix runs recorded in an audit database",
	Long: `List recorded fix runs, newest first, or show the audit entries of a
single run.

Examples:
  dqfix history --audit-db audit.sqlite
  dqfix history --audit-db audit.sqlite 6f1c...`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := auditstore.Open(historyDB)
		if err != nil {
			return err
		}
		defer store.Close()

		out := cmd.OutOrStdout()
		if len(args) == 1 {
			run, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Run: %s\n", run.ID)
			fmt.Fprintf(out, "  %s -> %s | %s rows | %.2f -> %.2f | %s\n",
				run.Source, run.Output, humanize.Comma(int64(run.Rows)),
				run.ScoreBefore, run.ScoreAfter, run.CreatedAt.Format(time.RFC3339))
			for _, e := range run.Entries {
				fmt.Fprintf(out, "  - %s [%s]: %s\n", e.Column, e.Kind, e.Summary)
			}
			return nil
		}

		runs, err := store.Runs(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs recorded.")
			return nil
		}
		fmt.Fprintf(out, "%-36s %-14s %10s %8s %8s  %s\n", "Run", "When", "Rows", "Before", "After", "Source")
		for _, run := range runs {
			fmt.Fprintf(out, "%-36s %-14s %10s %8.2f %8.2f  %s\n",
				run.ID, humanize.Time(run.CreatedAt), humanize.Comma(int64(run.Rows)),
				run.ScoreBefore, run.ScoreAfter, run.Source)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVar(&historyDB, "audit-db", "",
		"SQLite audit database written by fix --audit-db (required)")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20,
		"Maximum number of runs to list (0 for all)")

	historyCmd.MarkFlagRequired("audit-db")
}
