// Package validator reports data quality issues a human should look at.
// Unlike the fixer it never changes data, so it may flag defects no safe
// bulk fix exists for.
package validator

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/peekknuf/dqfix/internal/dataset"
	"github.com/peekknuf/dqfix/internal/heuristics"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Issue types.
const (
	TypeMissingHigh      = "missing_high"
	TypeDuplicateRows    = "duplicate_rows"
	TypeDtypeMismatch    = "dtype_mismatch"
	TypeInvalidEmail     = "invalid_email"
	TypeDatePartialParse = "date_partial_parse"
	TypeConstantColumn   = "constant_column"
	TypeOutliers         = "outliers"
)

const (
	// DefaultMissingThreshold is the missing share that raises an issue.
	DefaultMissingThreshold = 0.2

	highMissingShare  = 0.5
	highInvalidEmails = 0.2
	outlierMinValues  = 5
	outlierZ          = 4
)

type Issue struct {
	Title        string   `json:"title"`
	Type         string   `json:"type"`
	Severity     Severity `json:"severity"`
	Columns      []string `json:"columns"`
	Description  string   `json:"description"`
	SuggestedFix string   `json:"suggested_fix"`
}

type Options struct {
	// MissingThreshold defaults to DefaultMissingThreshold when zero.
	MissingThreshold float64
	KeyColumns       []string
	Logger           *zap.Logger
}

type Validator struct {
	opts   Options
	logger *zap.Logger
}

func New(opts Options) *Validator {
	if opts.MissingThreshold <= 0 {
		opts.MissingThreshold = DefaultMissingThreshold
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{opts: opts, logger: logger}
}

// column is one normalized column with its profile.
type column struct {
	cells   []dataset.Value
	profile heuristics.ColumnProfile
}

type detector func(v *Validator, c column) (Issue, bool)

// detectors run in this order for every column.
var detectors = []detector{
	(*Validator).highMissing,
	(*Validator).duplicateKeys,
	(*Validator).dtypeMismatch,
	(*Validator).invalidEmails,
	(*Validator).datePartialParse,
	(*Validator).constantColumn,
	(*Validator).outliers,
}

// Detect returns the issues found in d, grouped by detector and then in
// column order. The result is never nil.
func (v *Validator) Detect(d *dataset.Dataset) []Issue {
	norm := dataset.Normalize(d)
	keys := heuristics.InferKeyColumns(norm.Names(), v.opts.KeyColumns)

	cols := make([]column, norm.NumCols())
	for i := range cols {
		name := norm.Name(i)
		cells := norm.Cells(i)
		cols[i] = column{cells: cells, profile: heuristics.ProfileColumn(name, cells, keys[name])}
	}

	issues := []Issue{}
	for _, detect := range detectors {
		for _, c := range cols {
			if issue, ok := detect(v, c); ok {
				issues = append(issues, issue)
			}
		}
	}
	v.logger.Debug("detected issues", zap.Int("columns", len(cols)), zap.Int("issues", len(issues)))
	return issues
}

// Detect uses default options.
func Detect(d *dataset.Dataset) []Issue { return New(Options{}).Detect(d) }

func (v *Validator) highMissing(c column) (Issue, bool) {
	p := c.profile
	if p.Rows == 0 || p.Missing == 0 {
		return Issue{}, false
	}
	pct := float64(p.Missing) / float64(p.Rows)
	if pct < v.opts.MissingThreshold {
		return Issue{}, false
	}
	severity := SeverityMedium
	if pct >= highMissingShare {
		severity = SeverityHigh
	}
	return Issue{
		Title:        fmt.Sprintf("High missing rate in column '%s'", p.Name),
		Type:         TypeMissingHigh,
		Severity:     severity,
		Columns:      []string{p.Name},
		Description:  fmt.Sprintf("Column '%s' has %.2f%% missing values (%d missing).", p.Name, pct*100, p.Missing),
		SuggestedFix: "Fill missing values, drop incomplete rows, or impute (median for numeric columns).",
	}, true
}

// duplicateKeys counts key cells whose canonical value was already seen.
func (v *Validator) duplicateKeys(c column) (Issue, bool) {
	p := c.profile
	if !p.IsKey {
		return Issue{}, false
	}
	seen := make(map[string]struct{}, p.NonMissing)
	dups := 0
	for _, cell := range c.cells {
		if cell.IsMissing() {
			continue
		}
		key := heuristics.Canonical(cell)
		if _, ok := seen[key]; ok {
			dups++
			continue
		}
		seen[key] = struct{}{}
	}
	if dups == 0 {
		return Issue{}, false
	}
	return Issue{
		Title:        fmt.Sprintf("Duplicate values in key column '%s'", p.Name),
		Type:         TypeDuplicateRows,
		Severity:     SeverityHigh,
		Columns:      []string{p.Name},
		Description:  fmt.Sprintf("Column '%s' has %d duplicate rows.", p.Name, dups),
		SuggestedFix: "Investigate duplicates; deduplicate by keeping the most recent or an aggregated record.",
	}, true
}

func (v *Validator) dtypeMismatch(c column) (Issue, bool) {
	p := c.profile
	if !p.MostlyNumeric() || p.IsNumeric() {
		return Issue{}, false
	}
	return Issue{
		Title:        fmt.Sprintf("Possible numeric column stored as text '%s'", p.Name),
		Type:         TypeDtypeMismatch,
		Severity:     SeverityMedium,
		Columns:      []string{p.Name},
		Description:  fmt.Sprintf("Column '%s' looks mostly numeric (%d/%d values) but contains non-numeric entries.", p.Name, p.Numeric, p.NonMissing),
		SuggestedFix: "Inspect the non-numeric rows; fix formatting (commas, currency symbols) or missing markers.",
	}, true
}

// invalidEmails ignores masked cells, which were emails before masking.
func (v *Validator) invalidEmails(c column) (Issue, bool) {
	p := c.profile
	if !p.IsEmailColumn() {
		return Issue{}, false
	}
	total, invalid := 0, 0
	for _, cell := range c.cells {
		if cell.IsMissing() || heuristics.IsMasked(cell) {
			continue
		}
		total++
		if !heuristics.IsEmail(cell.Text()) {
			invalid++
		}
	}
	if invalid == 0 {
		return Issue{}, false
	}
	severity := SeverityHigh
	if float64(invalid)/float64(total) < highInvalidEmails {
		severity = SeverityMedium
	}
	return Issue{
		Title:        fmt.Sprintf("Invalid email addresses in '%s'", p.Name),
		Type:         TypeInvalidEmail,
		Severity:     severity,
		Columns:      []string{p.Name},
		Description:  fmt.Sprintf("Column '%s' has %d/%d invalid-looking email values.", p.Name, invalid, total),
		SuggestedFix: "Correct or remove invalid addresses, or mask them if they are sensitive.",
	}, true
}

// datePartialParse considers text cells only. Numbers and masked cells are
// neither dates nor failed dates.
func (v *Validator) datePartialParse(c column) (Issue, bool) {
	p := c.profile
	text := p.NonMissing - p.Numeric - p.Masked
	if p.DateLike == 0 || p.DateLike == text {
		return Issue{}, false
	}
	return Issue{
		Title:        fmt.Sprintf("Column '%s' contains partially parseable dates", p.Name),
		Type:         TypeDatePartialParse,
		Severity:     SeverityMedium,
		Columns:      []string{p.Name},
		Description:  fmt.Sprintf("Column '%s' had %d/%d text values parseable as dates.", p.Name, p.DateLike, text),
		SuggestedFix: "Standardize date formats or provide parsing rules when importing.",
	}, true
}

func (v *Validator) constantColumn(c column) (Issue, bool) {
	distinct := make(map[string]struct{})
	for _, cell := range c.cells {
		if !cell.IsMissing() {
			distinct[heuristics.Canonical(cell)] = struct{}{}
		}
	}
	if len(distinct) > 1 {
		return Issue{}, false
	}
	name := c.profile.Name
	return Issue{
		Title:        fmt.Sprintf("Constant or near-constant column '%s'", name),
		Type:         TypeConstantColumn,
		Severity:     SeverityLow,
		Columns:      []string{name},
		Description:  fmt.Sprintf("Column '%s' has %d unique values.", name, len(distinct)),
		SuggestedFix: "Drop this column if it carries no signal.",
	}, true
}

// outliers flags numeric columns with values more than four sample
// standard deviations from the mean.
func (v *Validator) outliers(c column) (Issue, bool) {
	p := c.profile
	if !p.IsNumeric() || p.NonMissing < outlierMinValues {
		return Issue{}, false
	}
	xs := make([]float64, 0, p.NonMissing)
	for _, cell := range c.cells {
		if f, ok := heuristics.NumericValue(cell); ok {
			xs = append(xs, f)
		}
	}
	mean, std := stat.MeanStdDev(xs, nil)
	if std == 0 || math.IsNaN(std) {
		return Issue{}, false
	}
	n := 0
	for _, x := range xs {
		if math.Abs(x-mean)/std > outlierZ {
			n++
		}
	}
	if n == 0 {
		return Issue{}, false
	}
	return Issue{
		Title:        fmt.Sprintf("Extreme outliers in '%s'", p.Name),
		Type:         TypeOutliers,
		Severity:     SeverityMedium,
		Columns:      []string{p.Name},
		Description:  fmt.Sprintf("Column '%s' has %d values with |z| > %d.", p.Name, n, outlierZ),
		SuggestedFix: "Inspect outliers; clip or winsorize them if they are erroneous.",
	}, true
}
