package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peekknuf/dqfix/internal/config"
	"github.com/peekknuf/dqfix/internal/quality"
)

var (
	weightsSet   []string
	weightsReset bool
)

var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Validate and print the effective scoring weights",
	Long: `Print the weight vector the scorer would use, after the config file
and environment. --set replaces the whole vector; dimensions it leaves out
weigh zero.

Examples:
  dqfix weights
  dqfix weights --set completeness=2 --set validity=1`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if weightsReset {
			scorer.ResetWeights()
		}
		if len(weightsSet) > 0 {
			w, err := config.ParseWeights(weightsSet)
			if err != nil {
				return err
			}
			if err := scorer.SetWeights(w); err != nil {
				return err
			}
		}

		w := scorer.Weights()
		normalized := w.Normalized()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%-14s %8s %10s\n", "Dimension", "Weight", "Normalized")
		for _, dim := range quality.Dimensions {
			fmt.Fprintf(out, "%-14s %8.3g %10.3f\n", dim, w[dim.String()], normalized[dim.String()])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(weightsCmd)
	weightsCmd.Flags().StringSliceVar(&weightsSet, "set", nil,
		"Weight as name=value; repeat or comma separate")
	weightsCmd.Flags().BoolVar(&weightsReset, "reset", false,
		"Start from the legacy completeness/safety weights, ignoring config")
}
