package fixer

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/peekknuf/dqfix/internal/dataset"
	"github.com/peekknuf/dqfix/internal/heuristics"
)

// RecommenderOptions tunes which defects are fixed. The zero value enables
// every fix kind.
type RecommenderOptions struct {
	// KeyColumns overrides id-like key inference. Key columns are never
	// imputed, masked or neutralized since that could create duplicates.
	KeyColumns        []string
	DisableMask       bool
	DisableNeutralize bool
	Logger            *zap.Logger
}

// Recommender proposes bulk fixes. Its output depends only on the dataset
// and its options.
type Recommender struct {
	opts   RecommenderOptions
	logger *zap.Logger
}

func NewRecommender(opts RecommenderOptions) *Recommender {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recommender{opts: opts, logger: logger}
}

var defaultRecommender = NewRecommender(RecommenderOptions{})

// RecommendBulkFixes uses the default recommender.
func RecommendBulkFixes(d *dataset.Dataset) []Fix { return defaultRecommender.Recommend(d) }

// Recommend inspects every column in dataset order and returns at most one
// fix per (column, kind), kinds in Kinds order.
func (r *Recommender) Recommend(d *dataset.Dataset) []Fix {
	norm := dataset.Normalize(d)
	keys := heuristics.InferKeyColumns(norm.Names(), r.opts.KeyColumns)

	var fixes []Fix
	for i := 0; i < norm.NumCols(); i++ {
		name := norm.Name(i)
		cells := norm.Cells(i)
		profile := heuristics.ProfileColumn(name, cells, keys[name])

		for _, kind := range Kinds {
			var (
				fix Fix
				ok  bool
			)
			switch kind {
			case ImputeMedian:
				fix, ok = recommendImpute(profile, cells)
			case StandardizeDate:
				fix, ok = recommendDates(profile, cells)
			case MaskSensitive:
				if !r.opts.DisableMask {
					fix, ok = recommendMask(profile, cells)
				}
			case NeutralizeFormula:
				if !r.opts.DisableNeutralize {
					fix, ok = recommendNeutralize(profile, cells)
				}
			}
			if ok {
				fixes = append(fixes, fix)
			}
		}
	}

	r.logger.Debug("recommended fixes", zap.Int("columns", norm.NumCols()), zap.Int("fixes", len(fixes)))
	return fixes
}

// recommendImpute fills a numeric column's gaps with the median of its
// in-domain values. Imputing a key column could duplicate a key, so keys are
// skipped.
func recommendImpute(p heuristics.ColumnProfile, cells []dataset.Value) (Fix, bool) {
	if p.IsKey || p.Missing == 0 || !p.IsNumeric() {
		return Fix{}, false
	}
	values := make([]float64, 0, p.NonMissing)
	for _, v := range cells {
		if f, ok := heuristics.NumericValue(v); ok && p.InDomain(f) {
			values = append(values, f)
		}
	}
	if len(values) == 0 {
		return Fix{}, false
	}
	m := median(values)
	return Fix{
		Column: p.Name,
		Kind:   ImputeMedian,
		Params: Params{
			Median:   m,
			Eligible: p.Missing,
			Reason:   fmt.Sprintf("%d of %d cells missing; median of %d values is %s", p.Missing, p.Rows, len(values), dataset.Number(m).Text()),
		},
	}, true
}

// median sorts values in place.
func median(values []float64) float64 {
	sort.Float64s(values)
	mid := len(values) / 2
	if len(values)%2 == 1 {
		return values[mid]
	}
	return (values[mid-1] + values[mid]) / 2
}

// recommendDates standardizes a mostly date-like column that holds at least
// one date not already written as YYYY-MM-DD.
func recommendDates(p heuristics.ColumnProfile, cells []dataset.Value) (Fix, bool) {
	if !p.MostlyDateLike() {
		return Fix{}, false
	}
	eligible := 0
	layouts := make(map[int]bool)
	for _, v := range cells {
		_, layout, ok := heuristics.DateValue(v)
		if !ok || heuristics.IsISODate(v) {
			continue
		}
		eligible++
		layouts[layout] = true
	}
	if eligible == 0 {
		return Fix{}, false
	}
	indexes := make([]int, 0, len(layouts))
	for i := range layouts {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)
	names := make([]string, len(indexes))
	for i, idx := range indexes {
		names[i] = heuristics.LayoutName(idx)
	}
	return Fix{
		Column: p.Name,
		Kind:   StandardizeDate,
		Params: Params{
			SourceLayouts: names,
			Eligible:      eligible,
			Reason:        fmt.Sprintf("%d of %d dates not in %s", eligible, p.DateLike, heuristics.ISOLayout),
		},
	}, true
}

func recommendMask(p heuristics.ColumnProfile, cells []dataset.Value) (Fix, bool) {
	if p.IsKey {
		return Fix{}, false
	}
	byKind := make(map[string]int)
	eligible := 0
	for _, v := range cells {
		if kind := heuristics.SensitiveKind(v); kind != "" {
			byKind[kind]++
			eligible++
		}
	}
	if eligible == 0 {
		return Fix{}, false
	}
	return Fix{
		Column: p.Name,
		Kind:   MaskSensitive,
		Params: Params{
			Eligible: eligible,
			Reason:   "unmasked " + describeCounts(byKind),
		},
	}, true
}

func recommendNeutralize(p heuristics.ColumnProfile, cells []dataset.Value) (Fix, bool) {
	if p.IsKey {
		return Fix{}, false
	}
	eligible := 0
	for _, v := range cells {
		if heuristics.IsUnsafe(v) {
			eligible++
		}
	}
	if eligible == 0 {
		return Fix{}, false
	}
	return Fix{
		Column: p.Name,
		Kind:   NeutralizeFormula,
		Params: Params{
			Eligible: eligible,
			Reason:   fmt.Sprintf("%d formula-like values", eligible),
		},
	}, true
}

func describeCounts(counts map[string]int) string {
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = fmt.Sprintf("%d %s", counts[k], k)
	}
	return strings.Join(parts, ", ")
}
