package quality

import (
	"strings"
	"time"

	"github.com/peekknuf/dqfix/internal/dataset"
	"github.com/peekknuf/dqfix/internal/heuristics"
)

// input is a normalized dataset with its column profiles, computed once and
// shared by every dimension.
type input struct {
	data      *dataset.Dataset
	profiles  []heuristics.ColumnProfile
	reference time.Time
	staleness time.Duration
}

func newInput(d *dataset.Dataset, opts Options, now time.Time) *input {
	norm := dataset.Normalize(d)
	keys := heuristics.InferKeyColumns(norm.Names(), opts.KeyColumns)
	in := &input{
		data:      norm,
		profiles:  make([]heuristics.ColumnProfile, norm.NumCols()),
		reference: opts.ReferenceDate,
		staleness: opts.StaleAfter,
	}
	if in.reference.IsZero() {
		in.reference = now
	}
	if in.staleness <= 0 {
		in.staleness = DefaultStaleAfter
	}
	for i := range in.profiles {
		name := norm.Name(i)
		in.profiles[i] = heuristics.ProfileColumn(name, norm.Cells(i), keys[name])
	}
	return in
}

// DimensionScore is one dimension's score in [0,100] with a per-column
// breakdown for display.
type DimensionScore struct {
	Score     float64            `json:"score"`
	PerColumn map[string]float64 `json:"per_column"`
}

type dimensionFunc func(in *input) DimensionScore

var scorers = map[Dimension]dimensionFunc{
	Completeness: completenessScore,
	Safety:       safetyScore,
	Consistency:  consistencyScore,
	Uniqueness:   uniquenessScore,
	Validity:     validityScore,
	Timeliness:   timelinessScore,
}

// completenessScore is global: non-missing cells over all cells.
func completenessScore(in *input) DimensionScore {
	out := DimensionScore{Score: 100, PerColumn: make(map[string]float64, len(in.profiles))}
	present, total := 0, 0
	for _, p := range in.profiles {
		present += p.NonMissing
		total += p.Rows
		out.PerColumn[p.Name] = percent(p.NonMissing, p.Rows)
	}
	out.Score = percent(present, total)
	return out
}

// safetyScore penalises sensitive and formula-like values among the
// non-missing cells.
func safetyScore(in *input) DimensionScore {
	out := DimensionScore{PerColumn: make(map[string]float64, len(in.profiles))}
	flagged, total := 0, 0
	for i, p := range in.profiles {
		colFlagged := 0
		for _, v := range in.data.Cells(i) {
			if heuristics.IsSensitive(v) || heuristics.IsUnsafe(v) {
				colFlagged++
			}
		}
		flagged += colFlagged
		total += p.NonMissing
		out.PerColumn[p.Name] = unflaggedPercent(colFlagged, p.NonMissing)
	}
	out.Score = unflaggedPercent(flagged, total)
	return out
}

// consistencyScore averages per-column representation agreement.
func consistencyScore(in *input) DimensionScore {
	return perColumnMean(in, func(i int, p heuristics.ColumnProfile) (float64, bool) {
		switch {
		case p.NonMissing == 0:
			return 100, true
		case p.MostlyNumeric():
			return percent(p.Numeric, p.NonMissing), true
		case p.MostlyDateLike():
			_, dominant := p.DominantLayout()
			return percent(dominant, p.NonMissing), true
		default:
			return percent(p.NonMissing-caseVariants(in.data.Cells(i)), p.NonMissing), true
		}
	})
}

// caseVariants counts values spelled differently from the most common
// spelling of their group, e.g. "Paris" among "paris", "paris". A group
// folds case and a leading neutralize prefix, so "=a" and "'=a" are one
// value and neutralizing only ever merges spellings.
func caseVariants(cells []dataset.Value) int {
	groups := make(map[string]map[string]int)
	for _, v := range cells {
		if v.IsMissing() {
			continue
		}
		text := v.Text()
		key := strings.ToLower(strings.TrimPrefix(text, heuristics.NeutralizePrefix))
		if groups[key] == nil {
			groups[key] = make(map[string]int)
		}
		groups[key][text]++
	}
	variants := 0
	for _, spellings := range groups {
		total, top := 0, 0
		for _, n := range spellings {
			total += n
			if n > top {
				top = n
			}
		}
		variants += total - top
	}
	return variants
}

// uniquenessScore checks key columns for duplicate values. Values are
// compared in canonical form so "01/06/2024" and "2024-01-06" collide.
func uniquenessScore(in *input) DimensionScore {
	return perColumnMean(in, func(i int, p heuristics.ColumnProfile) (float64, bool) {
		if !p.IsKey {
			return 0, false
		}
		if p.NonMissing == 0 {
			return 100, true
		}
		seen := make(map[string]struct{}, p.NonMissing)
		for _, v := range in.data.Cells(i) {
			if v.IsMissing() {
				continue
			}
			seen[heuristics.Canonical(v)] = struct{}{}
		}
		return percent(len(seen), p.NonMissing), true
	})
}

// validityScore applies the format or domain check of each column's
// inferred type.
func validityScore(in *input) DimensionScore {
	return perColumnMean(in, func(i int, p heuristics.ColumnProfile) (float64, bool) {
		if p.NonMissing == 0 {
			return 100, true
		}
		cells := in.data.Cells(i)
		valid := 0
		switch {
		case p.IsNumeric():
			for _, v := range cells {
				if f, ok := heuristics.NumericValue(v); ok && p.InDomain(f) {
					valid++
				}
			}
		case p.IsEmailColumn():
			for _, v := range cells {
				if v.IsMissing() {
					continue
				}
				if heuristics.IsMasked(v) || heuristics.IsEmail(v.Text()) {
					valid++
				}
			}
		case p.IsDateDesignated():
			for _, v := range cells {
				if v.IsMissing() {
					continue
				}
				if _, _, ok := heuristics.DateValue(v); ok || heuristics.IsMasked(v) {
					valid++
				}
			}
		default:
			return 100, true
		}
		return percent(valid, p.NonMissing), true
	})
}

// timelinessScore penalises date values older than the stale window and
// values in date columns that do not parse at all.
func timelinessScore(in *input) DimensionScore {
	cutoff := in.reference.Add(-in.staleness)
	return perColumnMean(in, func(i int, p heuristics.ColumnProfile) (float64, bool) {
		if !p.IsDateDesignated() {
			return 0, false
		}
		fresh := 0
		for _, v := range in.data.Cells(i) {
			if t, _, ok := heuristics.DateValue(v); ok && !t.Before(cutoff) {
				fresh++
			}
		}
		return percent(fresh, p.NonMissing), true
	})
}

// perColumnMean averages the scores of the columns score reports on. With no
// reporting column the dimension is 100.
func perColumnMean(in *input, score func(i int, p heuristics.ColumnProfile) (float64, bool)) DimensionScore {
	out := DimensionScore{Score: 100, PerColumn: make(map[string]float64)}
	sum, n := 0.0, 0
	for i, p := range in.profiles {
		s, ok := score(i, p)
		if !ok {
			continue
		}
		out.PerColumn[p.Name] = s
		sum += s
		n++
	}
	if n > 0 {
		out.Score = clamp(sum / float64(n))
	}
	return out
}

// percent returns 100*n/total, or 100 when there is nothing to measure.
func percent(n, total int) float64 {
	if total == 0 {
		return 100
	}
	return 100 * float64(n) / float64(total)
}

// unflaggedPercent returns 100*(1 - flagged/total), or 100 for no cells.
func unflaggedPercent(flagged, total int) float64 {
	if total == 0 {
		return 100
	}
	return 100 * (1 - float64(flagged)/float64(total))
}

func clamp(s float64) float64 {
	switch {
	case s < 0:
		return 0
	case s > 100:
		return 100
	default:
		return s
	}
}
