package report

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/peekknuf/dqfix/internal/fixer"
	"github.com/peekknuf/dqfix/internal/profiler"
	"github.com/peekknuf/dqfix/internal/quality"
	"github.com/peekknuf/dqfix/internal/validator"
)

// WriteScore prints the overall score, each dimension with its weight, and
// the per-column breakdown of every dimension.
func WriteScore(w io.Writer, r quality.Report) error {
	var b strings.Builder
	b.WriteString("=== DATA QUALITY SCORE ===\n")
	fmt.Fprintf(&b, "Rows: %s | Columns: %d\n", humanize.Comma(int64(r.Rows)), r.Columns)
	fmt.Fprintf(&b, "Overall: %.2f (%s)\n\n", r.Overall, Grade(r.Overall))

	fmt.Fprintf(&b, "%-14s %8s %8s\n", "Dimension", "Score", "Weight")
	b.WriteString(strings.Repeat("-", 32) + "\n")
	for _, dim := range quality.Dimensions {
		fmt.Fprintf(&b, "%-14s %8.2f %8.2f\n", dim, r.Score(dim), r.Weights[dim.String()])
	}

	for _, dim := range quality.Dimensions {
		cols := r.Breakdown[dim.String()]
		if len(cols) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\n%s by column:\n", dim)
		for _, name := range sortedKeys(cols) {
			fmt.Fprintf(&b, "  %-24s %8.2f\n", name, cols[name])
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// Grade buckets an overall score the way the scan summary labels files.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "Good"
	case score >= 75:
		return "Fair"
	default:
		return "Poor"
	}
}

func WriteRecommendations(w io.Writer, fixes []fixer.Fix) error {
	var b strings.Builder
	if len(fixes) == 0 {
		b.WriteString("No fixes recommended.\n")
	} else {
		fmt.Fprintf(&b, "=== RECOMMENDED FIXES (%d) ===\n", len(fixes))
		for i, f := range fixes {
			fmt.Fprintf(&b, "%2d. %-22s %-24s %s cells  %s\n",
				i+1, f.Kind, f.Column, humanize.Comma(int64(f.Params.Eligible)), f.Params.Reason)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteIssues lists detected issues, worst severity first within the
// detector order.
func WriteIssues(w io.Writer, issues []validator.Issue) error {
	var b strings.Builder
	if len(issues) == 0 {
		b.WriteString("No issues detected.\n")
	} else {
		sorted := make([]validator.Issue, len(issues))
		copy(sorted, issues)
		sort.SliceStable(sorted, func(i, j int) bool {
			return severityRank[sorted[i].Severity] > severityRank[sorted[j].Severity]
		})
		fmt.Fprintf(&b, "=== ISSUES (%d) ===\n", len(sorted))
		for i, is := range sorted {
			fmt.Fprintf(&b, "%2d. [%s] %s\n", i+1, strings.ToUpper(string(is.Severity)), is.Title)
			fmt.Fprintf(&b, "    %s\n", is.Description)
			fmt.Fprintf(&b, "    fix: %s\n", is.SuggestedFix)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

var severityRank = map[validator.Severity]int{
	validator.SeverityLow:    0,
	validator.SeverityMedium: 1,
	validator.SeverityHigh:   2,
}

func WriteDiagnosis(w io.Writer, changes []DimensionChange) error {
	var b strings.Builder
	b.WriteString("=== BEFORE / AFTER ===\n")
	fmt.Fprintf(&b, "%-14s %8s %8s %8s\n", "Dimension", "Before", "After", "Delta")
	b.WriteString(strings.Repeat("-", 41) + "\n")
	for _, c := range changes {
		fmt.Fprintf(&b, "%-14s %8.2f %8.2f %+8.2f\n", c.Dimension, c.Before, c.After, c.Delta)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func WriteAudit(w io.Writer, audit fixer.Audit) error {
	var b strings.Builder
	fmt.Fprintf(&b, "=== CHANGES (%s cells) ===\n", humanize.Comma(int64(audit.Changed())))
	for _, e := range audit {
		fmt.Fprintf(&b, "- %s [%s]: %s\n", e.Column, e.Kind, e.Summary)
		if e.Example != nil {
			fmt.Fprintf(&b, "    row %d: %q -> %q\n", e.Example.Row, e.Example.Before, e.Example.After)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteDescribe prints describe-style statistics for a profiled file.
func WriteDescribe(w io.Writer, p *profiler.CSVProfiler) error {
	var b strings.Builder
	metrics := p.CalculateQuality()
	name := p.FilePath
	if name == "" {
		name = "(dataset)"
	}
	fmt.Fprintf(&b, "File: %s\n", name)
	fmt.Fprintf(&b, "  Rows: %s | Columns: %d | Null Rate: %.1f%% | Distinct Rows: %.2f | Type Consistency: %.2f\n\n",
		humanize.Comma(int64(metrics.TotalRows)), len(p.Columns),
		metrics.NullPercentage*100, metrics.DistinctRatio, metrics.TypeConsistency)

	for _, s := range p.GetDescribeStats() {
		fmt.Fprintf(&b, "Column: %s\n", s.Column)
		fmt.Fprintf(&b, "  Type: %s | Count: %d | Nulls: %d | Distinct: %d\n", s.Type, s.Count, s.NullCount, s.DistinctCount)
		switch s.Type {
		case profiler.TypeInt, profiler.TypeFloat:
			fmt.Fprintf(&b, "  Mean: %.4g | Std: %.4g | Min: %s | 25%%: %.4g | 50%%: %.4g | 75%%: %.4g | Max: %s\n",
				s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max)
		case profiler.TypeEmpty:
		default:
			fmt.Fprintf(&b, "  Min: %s | Max: %s | Top: %s (%d)\n", s.Min, s.Max, s.Top, s.Freq)
		}
		if s.Unique != "" {
			fmt.Fprintf(&b, "  Sample: %s\n", s.Unique)
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// ScanResult is the outcome of scoring one discovered file.
type ScanResult struct {
	Path     string
	Size     int64
	Report   quality.Report
	Duration time.Duration
	Err      error
}

// WriteScanSummary prints totals and one line per scored file. Failed files
// are counted but not listed.
func WriteScanSummary(w io.Writer, results []ScanResult, total time.Duration) error {
	var b strings.Builder

	var rows, failed int
	var bytes int64
	var overall float64
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		rows += r.Report.Rows
		bytes += r.Size
		overall += r.Report.Overall
	}
	scored := len(results) - failed

	b.WriteString("=== DATA QUALITY SUMMARY ===\n")
	fmt.Fprintf(&b, "Total files processed: %d (%d failed)\n", len(results), failed)
	fmt.Fprintf(&b, "Total processing time: %v\n", total.Round(time.Millisecond))
	fmt.Fprintf(&b, "Total rows scored: %s\n", humanize.Comma(int64(rows)))
	fmt.Fprintf(&b, "Total size: %s\n", humanize.Bytes(uint64(bytes)))
	if scored > 0 {
		fmt.Fprintf(&b, "Mean overall score: %.2f\n", overall/float64(scored))
	}
	b.WriteString("\n")

	b.WriteString("=== PER-FILE ANALYSIS ===\n")
	fmt.Fprintf(&b, "%-40s %10s %8s %10s %8s %12s %8s\n", "File", "Rows", "Columns", "Size", "Overall", "Process Time", "Quality")
	b.WriteString(strings.Repeat("-", 102) + "\n")
	for _, r := range results {
		if r.Err != nil {
			continue
		}
		fmt.Fprintf(&b, "%-40s %10s %8d %10s %8.2f %12s %8s\n",
			shortName(r.Path), humanize.Comma(int64(r.Report.Rows)), r.Report.Columns,
			humanize.Bytes(uint64(r.Size)), r.Report.Overall,
			r.Duration.Round(time.Millisecond), Grade(r.Report.Overall))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func shortName(path string) string {
	name := filepath.Base(path)
	if len(name) > 37 {
		name = name[:34] + "..."
	}
	return name
}
