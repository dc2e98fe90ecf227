package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peekknuf/dqfix/internal/fixer"
	"github.com/peekknuf/dqfix/internal/report"
	"github.com/peekknuf/dqfix/internal/validator"
)

var recommendJSON bool

type recommendOutput struct {
	Fixes  []fixer.Fix       `json:"fixes"`
	Issues []validator.Issue `json:"issues"`
}

var recommendCmd = &cobra.Command{
	Use:   "recommend FILE",
	Short: "List the bulk fixes dqfix would apply and the issues it found",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := loadDataset(args[0])
		if err != nil {
			return err
		}
		fixes := newRecommender().Recommend(d)
		issues := newValidator().Detect(d)
		if recommendJSON {
			if fixes == nil {
				fixes = []fixer.Fix{}
			}
			return writeJSON(cmd.OutOrStdout(), recommendOutput{Fixes: fixes, Issues: issues})
		}
		out := cmd.OutOrStdout()
		if err := report.WriteRecommendations(out, fixes); err != nil {
			return err
		}
		fmt.Fprintln(out)
		return report.WriteIssues(out, issues)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false,
		"Print the fixes and issues as JSON")
}
