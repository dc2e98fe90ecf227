package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peekknuf/dqfix/internal/connectors"
	"github.com/peekknuf/dqfix/internal/profiler"
	"github.com/peekknuf/dqfix/internal/report"
)

var (
	describeWorkers   int
	outputFile        string
	describeRecursive bool
)

var describeCmd = &cobra.Command{
	Use:   "describe [file or directory]",
	Short: "Generate column statistics for CSV files",
	Long: `Generate describe-style statistics for CSV files.
Numeric, date and string columns are detected automatically.

Examples:
  dqfix describe file.csv                           # Single file
  dqfix describe /data/directory/ --recursive       # Directory processing
  dqfix describe /data/directory/ --workers 4       # Limit CPU usage
  dqfix describe file.csv --output results.txt      # Save output`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		targetPath := args[0]

		fileInfo, err := os.Stat(targetPath)
		if err != nil {
			return fmt.Errorf("error accessing %s: %w", targetPath, err)
		}

		var paths []string
		if fileInfo.IsDir() {
			files, err := connectors.DiscoverFiles(targetPath, connectors.DiscoveryOptions{Recursive: describeRecursive})
			if err != nil {
				return fmt.Errorf("failed to discover files: %w", err)
			}
			for _, f := range files {
				paths = append(paths, f.Path)
			}
		} else {
			paths = []string{targetPath}
		}

		start := time.Now()
		bar := newProgressBar(len(paths), "Describing files...")
		profiles := fanOut(paths, describeWorkers, bar, describeFile)
		bar.Finish()

		var output strings.Builder
		described := 0
		for _, p := range profiles {
			if p == nil {
				continue
			}
			if described > 0 {
				output.WriteString("\n")
			}
			if err := report.WriteDescribe(&output, p); err != nil {
				return err
			}
			described++
		}
		zlog.Info("described files",
			zap.Int("described", described),
			zap.Int("failed", len(paths)-described),
			zap.Duration("elapsed", time.Since(start)),
		)

		if outputFile != "" {
			if err := os.WriteFile(outputFile, []byte(output.String()), 0644); err != nil {
				return fmt.Errorf("failed to write to output file %s: %w", outputFile, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Results saved to %s\n", outputFile)
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), output.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(describeCmd)

	describeCmd.Flags().IntVar(&describeWorkers, "workers", 0,
		"Number of parallel workers (default: CPU cores)")
	describeCmd.Flags().StringVar(&outputFile, "output", "",
		"Output file to save results (default: stdout)")
	describeCmd.Flags().BoolVar(&describeRecursive, "recursive", false,
		"Process directories recursively")
}

// describeFile returns nil when the file cannot be profiled.
func describeFile(path string) *profiler.CSVProfiler {
	p := profiler.NewCSVProfiler(path)
	if err := p.Profile(); err != nil {
		zlog.Warn("failed to profile", zap.String("path", path), zap.Error(err))
		return nil
	}
	return p
}
