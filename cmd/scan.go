package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/peekknuf/dqfix/internal/connectors"
	"github.com/peekknuf/dqfix/internal/dataset"
	"github.com/peekknuf/dqfix/internal/report"
)

var (
	dirPath       string
	fileFormats   []string
	recursive     bool
	verbose       bool
	scanWorkers   int
	minSize       int64
	maxSize       int64
	modifiedSince string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Score every data file in a directory",
	Long: `Scan a directory and score each data file
across the quality dimensions`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		options := connectors.DiscoveryOptions{
			Recursive:  recursive,
			Extensions: fileFormats,
			MinSize:    minSize,
			MaxSize:    maxSize,
		}
		if modifiedSince != "" {
			since, err := time.Parse(time.DateOnly, modifiedSince)
			if err != nil {
				return fmt.Errorf("invalid --modified-since %q: %w", modifiedSince, err)
			}
			options.ModifiedAfter = since
		}

		files, err := connectors.DiscoverFiles(dirPath, options)
		if errors.Is(err, connectors.ErrNoFiles) {
			fmt.Fprintf(cmd.OutOrStdout(), "No data files found in %s\n", dirPath)
			return nil
		}
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}
		zlog.Info("discovered files",
			zap.Int("count", len(files)),
			zap.String("size", humanize.Bytes(uint64(connectors.TotalSize(files)))),
		)

		start := time.Now()
		bar := newProgressBar(len(files), "Scoring files...")
		results := fanOut(files, scanWorkers, bar, scoreFile)
		bar.Finish()

		out := cmd.OutOrStdout()
		if err := report.WriteScanSummary(out, results, time.Since(start)); err != nil {
			return err
		}
		if verbose {
			for _, r := range results {
				if r.Err != nil {
					continue
				}
				fmt.Fprintf(out, "\nFile: %s\n", r.Path)
				if err := report.WriteScore(out, r.Report); err != nil {
					return err
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().StringVarP(&dirPath, "dir", "d", "",
		"Directory to scan (required)")
	scanCmd.Flags().StringSliceVarP(&fileFormats, "format", "f", []string{"csv"},
		"File extensions to score (csv, tsv, txt)")
	scanCmd.Flags().BoolVarP(&recursive, "recursive", "r", false,
		"Search directories recursively")
	scanCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"Display the full report of every file")
	scanCmd.Flags().IntVarP(&scanWorkers, "workers", "w", 0,
		"Number of parallel workers (default: CPU cores)")
	scanCmd.Flags().Int64Var(&minSize, "min-size", 0,
		"Minimum file size in bytes")
	scanCmd.Flags().Int64Var(&maxSize, "max-size", 0,
		"Maximum file size in bytes")
	scanCmd.Flags().StringVar(&modifiedSince, "modified-since", "",
		"Only score files modified on or after this date (YYYY-MM-DD)")

	scanCmd.MarkFlagRequired("dir")
}

// scoreFile loads and scores one file. Failures are logged and carried in
// the result so one bad file does not stop the scan.
func scoreFile(f connectors.FileMeta) report.ScanResult {
	start := time.Now()
	result := report.ScanResult{Path: f.Path, Size: f.Size}

	d, err := dataset.ReadFile(f.Path)
	if err != nil {
		zlog.Warn("failed to load file", zap.String("path", f.Path), zap.Error(err))
		result.Err = err
		return result
	}
	result.Report = scorer.Score(d)
	result.Duration = time.Since(start)
	return result
}
