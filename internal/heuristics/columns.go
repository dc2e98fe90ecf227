package heuristics

import (
	"regexp"
	"strings"

	"github.com/peekknuf/dqfix/internal/dataset"
)

const (
	// MostlyDateLikeThreshold is the share of non-missing values that must
	// parse as dates for a column to count as a date column.
	MostlyDateLikeThreshold = 0.6

	// MostlyNumericThreshold is the share of numeric values above which a
	// text column is scored as a numeric column stored as text.
	MostlyNumericThreshold = 0.8

	AgeMin = 0
	AgeMax = 120
)

var nameTokenRe = regexp.MustCompile(`[^a-z0-9]+`)

// ColumnProfile summarises how the non-missing cells of one column classify.
type ColumnProfile struct {
	Name       string
	Rows       int
	Missing    int
	NonMissing int
	Numeric    int
	DateLike   int
	Masked     int
	HasAt      bool
	// Layouts counts date-like cells per layout index.
	Layouts map[int]int
	IsKey   bool
}

// ProfileColumn classifies every cell of a normalized column.
func ProfileColumn(name string, cells []dataset.Value, isKey bool) ColumnProfile {
	p := ColumnProfile{
		Name:    name,
		Rows:    len(cells),
		Layouts: make(map[int]int),
		IsKey:   isKey,
	}
	for _, v := range cells {
		if v.IsMissing() {
			p.Missing++
			continue
		}
		p.NonMissing++
		if _, ok := NumericValue(v); ok {
			p.Numeric++
			continue
		}
		if IsMasked(v) {
			p.Masked++
			continue
		}
		if _, layout, ok := DateValue(v); ok {
			p.DateLike++
			p.Layouts[layout]++
			continue
		}
		if strings.Contains(v.Str(), "@") {
			p.HasAt = true
		}
	}
	return p
}

// IsNumeric reports a column whose non-missing cells are all numbers.
func (p ColumnProfile) IsNumeric() bool {
	return p.NonMissing > 0 && p.Numeric == p.NonMissing
}

func (p ColumnProfile) NumericShare() float64 { return share(p.Numeric, p.NonMissing) }
func (p ColumnProfile) DateShare() float64 { return share(p.DateLike, p.NonMissing) }

// MostlyNumeric is true for numeric columns and for text columns that are
// numbers with a few stray entries.
func (p ColumnProfile) MostlyNumeric() bool {
	return p.NonMissing > 0 && p.NumericShare() >= MostlyNumericThreshold
}

// MostlyDateLike is the recommender's and the consistency scorer's test for
// a date column.
func (p ColumnProfile) MostlyDateLike() bool {
	return p.NonMissing > 0 && !p.IsNumeric() && p.DateShare() >= MostlyDateLikeThreshold
}

// IsDateDesignated covers mostly date-like columns and text columns whose
// name says they hold dates.
func (p ColumnProfile) IsDateDesignated() bool {
	if p.NonMissing == 0 || p.IsNumeric() {
		return false
	}
	return p.MostlyDateLike() || HasDateName(p.Name)
}

// IsEmailColumn covers text columns named for email or holding an '@'.
func (p ColumnProfile) IsEmailColumn() bool {
	if p.NonMissing == 0 || p.IsNumeric() {
		return false
	}
	return strings.Contains(strings.ToLower(p.Name), "email") || p.HasAt
}

// IsAgeLike marks numeric columns with a [0,120] domain.
func (p ColumnProfile) IsAgeLike() bool {
	for _, tok := range nameTokens(p.Name) {
		if tok == "age" || tok == "years" {
			return true
		}
	}
	return false
}

// InDomain reports whether a number is acceptable for this column.
func (p ColumnProfile) InDomain(f float64) bool {
	if p.IsAgeLike() {
		return f >= AgeMin && f <= AgeMax
	}
	return true
}

// DominantLayout returns the most used date layout and its count. Ties go
// to the lower layout index, which prefers ISO.
func (p ColumnProfile) DominantLayout() (int, int) {
	best, bestCount := -1, 0
	for layout := range dateLayouts {
		if c := p.Layouts[layout]; c > bestCount {
			best, bestCount = layout, c
		}
	}
	return best, bestCount
}

// HasDateName matches column names such as order_date, created_at,
// event_time or timestamp.
func HasDateName(name string) bool {
	tokens := nameTokens(name)
	for _, tok := range tokens {
		switch tok {
		case "date", "time", "timestamp", "datetime", "dob":
			return true
		}
	}
	return len(tokens) > 1 && tokens[len(tokens)-1] == "at"
}

// InferKeyColumns returns the columns treated as keys. A configured key list
// is authoritative (names missing from the dataset are ignored); without one,
// columns named id, *_id, uuid or guid are keys.
func InferKeyColumns(names []string, configured []string) map[string]bool {
	keys := make(map[string]bool)
	present := make(map[string]bool, len(names))
	for _, n := range names {
		present[n] = true
	}
	for _, c := range configured {
		if present[c] {
			keys[c] = true
		}
	}
	if len(keys) > 0 || len(configured) > 0 {
		return keys
	}
	for _, n := range names {
		tokens := nameTokens(n)
		if len(tokens) == 0 {
			continue
		}
		last := tokens[len(tokens)-1]
		if last == "id" || last == "uuid" || last == "guid" {
			keys[n] = true
		}
	}
	return keys
}

func nameTokens(name string) []string {
	parts := nameTokenRe.Split(strings.ToLower(name), -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func share(n, total int) float64 {
	if total == 0 {
		return 1
	}
	return float64(n) / float64(total)
}
