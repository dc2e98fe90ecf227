package fixer

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/peekknuf/dqfix/internal/dataset"
	"github.com/peekknuf/dqfix/internal/heuristics"
)

// Example is one before/after pair taken from a fix.
type Example struct {
	Row    int    `json:"row"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// AuditEntry records what one fix did.
type AuditEntry struct {
	Column  string `json:"column"`
	Kind    Kind   `json:"kind"`
	Changed int    `json:"changed"`
	// Unparseable counts cells a date fix left untouched because they did
	// not parse.
	Unparseable int      `json:"unparseable,omitempty"`
	Example     *Example `json:"example,omitempty"`
	Summary     string   `json:"summary"`
}

// Audit lists one entry per applied fix, in application order.
type Audit []AuditEntry

// Changed is the total number of cells rewritten.
func (a Audit) Changed() int {
	n := 0
	for _, e := range a {
		n += e.Changed
	}
	return n
}

// Applier executes fix lists.
type Applier struct {
	logger *zap.Logger
	// progress, when set, is called after each fix.
	progress func(done, total int)
}

func NewApplier(logger *zap.Logger) *Applier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{logger: logger}
}

// OnProgress registers a callback invoked after each applied fix.
func (a *Applier) OnProgress(fn func(done, total int)) *Applier {
	a.progress = fn
	return a
}

var defaultApplier = NewApplier(nil)

// ApplyFixes uses the default applier.
func ApplyFixes(d *dataset.Dataset, fixes []Fix) (*dataset.Dataset, Audit, error) {
	return defaultApplier.Apply(d, fixes)
}

// Apply validates the whole list, then applies each fix in order to a
// normalized copy of d. d itself is never modified. If any fix is invalid
// nothing is applied and a *ValidationError is returned.
func (a *Applier) Apply(d *dataset.Dataset, fixes []Fix) (*dataset.Dataset, Audit, error) {
	if err := Validate(d, fixes); err != nil {
		return nil, nil, err
	}

	out := dataset.Normalize(d)
	audit := make(Audit, 0, len(fixes))
	for i, f := range fixes {
		entry := applyOne(out, f)
		audit = append(audit, entry)
		a.logger.Debug("applied fix",
			zap.String("column", f.Column),
			zap.Stringer("kind", f.Kind),
			zap.Int("changed", entry.Changed),
		)
		if entry.Unparseable > 0 {
			a.logger.Info("left unparseable dates unchanged",
				zap.String("column", f.Column),
				zap.Int("unparseable", entry.Unparseable),
			)
		}
		if a.progress != nil {
			a.progress(i+1, len(fixes))
		}
	}
	return out, audit, nil
}

// Validate checks every fix against d without applying any of them.
func Validate(d *dataset.Dataset, fixes []Fix) error {
	for i, f := range fixes {
		if !f.Kind.Valid() {
			return &ValidationError{Index: i, Column: f.Column, Kind: f.Kind, Reason: "unknown operation"}
		}
		if _, ok := d.ColumnIndex(f.Column); !ok {
			return &ValidationError{Index: i, Column: f.Column, Kind: f.Kind, Reason: "no such column"}
		}
		if f.Kind == ImputeMedian && (math.IsNaN(f.Params.Median) || math.IsInf(f.Params.Median, 0)) {
			return &ValidationError{Index: i, Column: f.Column, Kind: f.Kind, Reason: "median must be finite"}
		}
	}
	return nil
}

func applyOne(d *dataset.Dataset, f Fix) AuditEntry {
	col, _ := d.ColumnIndex(f.Column)
	entry := AuditEntry{Column: f.Column, Kind: f.Kind}

	rewrite := func(row int, before, after dataset.Value) {
		d.SetCell(row, col, after)
		entry.Changed++
		if entry.Example == nil {
			entry.Example = &Example{Row: row, Before: before.Text(), After: after.Text()}
		}
	}

	cells := d.Cells(col)
	switch f.Kind {
	case ImputeMedian:
		fill := dataset.Number(f.Params.Median)
		for row, v := range cells {
			if v.IsMissing() {
				rewrite(row, v, fill)
			}
		}
		entry.Summary = fmt.Sprintf("imputed %d missing cells with median %s", entry.Changed, fill.Text())

	case StandardizeDate:
		for row, v := range cells {
			if v.IsMissing() {
				continue
			}
			t, _, ok := heuristics.DateValue(v)
			if !ok {
				entry.Unparseable++
				continue
			}
			iso := dataset.String(t.Format(heuristics.ISOLayout))
			if !iso.Equal(v) {
				rewrite(row, v, iso)
			}
		}
		entry.Summary = fmt.Sprintf("standardized %d dates to %s", entry.Changed, heuristics.ISOLayout)
		if entry.Unparseable > 0 {
			entry.Summary += fmt.Sprintf("; %d unchanged: unparseable", entry.Unparseable)
		}

	case MaskSensitive:
		mask := dataset.String(heuristics.MaskToken)
		for row, v := range cells {
			if heuristics.IsSensitive(v) {
				rewrite(row, v, mask)
			}
		}
		entry.Summary = fmt.Sprintf("masked %d sensitive values", entry.Changed)

	case NeutralizeFormula:
		for row, v := range cells {
			if heuristics.IsUnsafe(v) {
				rewrite(row, v, dataset.String(heuristics.NeutralizePrefix+v.Str()))
			}
		}
		entry.Summary = fmt.Sprintf("neutralized %d formula-like values", entry.Changed)
	}
	return entry
}
