// Package heuristics holds the cell and column detectors shared by the
// scorers and the fixer. Both sides must classify a cell the same way, or a
// fix could move a value between categories and lower a score.
package heuristics

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/peekknuf/dqfix/internal/dataset"
)

// ISOLayout is the canonical date layout fixes standardize to.
const ISOLayout = "2006-01-02"

// MaskToken replaces sensitive values. It contains no letters, digits or
// pattern characters, so it is never sensitive, never a date and has no
// case variants.
const MaskToken = "****"

// NeutralizePrefix is written in front of formula-like values so
// spreadsheets read them as text.
const NeutralizePrefix = "'"

// dateLayouts is tried in order. Index 0 is ISO. Month-first layouts come
// before their day-first twins so 01/06/2024 reads as January 6th and
// 13/06/2024 falls through to June 13th.
var dateLayouts = []string{
	ISOLayout,
	"2006/1/2",
	"2006-1-2",
	"2006.1.2",
	"1/2/2006",
	"1-2-2006",
	"2/1/2006",
	"2-1-2006",
	"2.1.2006",
	"2-Jan-2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
}

var (
	emailRe = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	phoneRe = regexp.MustCompile(`^(\+\d{1,3}[\s.-]?)?(\(\d{3}\)\s?|\d{3}[\s.-])\d{3}[\s.-]\d{4}$`)
	ssnRe   = regexp.MustCompile(`^\d{3}-\d{2}-\d{4}$`)
)

// ParseNumber parses a finite decimal number. NaN, Inf and hex forms are
// rejected.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "x") || strings.Contains(lower, "_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NumericValue reports the numeric content of a cell.
func NumericValue(v dataset.Value) (float64, bool) {
	switch v.Kind() {
	case dataset.KindNumber:
		f := v.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	case dataset.KindString:
		return ParseNumber(v.Str())
	default:
		return 0, false
	}
}

// ParseDate tries every known layout and returns the parsed day and the
// index of the layout that matched.
func ParseDate(s string) (time.Time, int, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 6 {
		return time.Time{}, -1, false
	}
	for i, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, i, true
		}
	}
	return time.Time{}, -1, false
}

// DateValue parses a string cell as a date. Numbers are never dates.
func DateValue(v dataset.Value) (time.Time, int, bool) {
	if !v.IsString() {
		return time.Time{}, -1, false
	}
	if _, ok := ParseNumber(v.Str()); ok {
		return time.Time{}, -1, false
	}
	return ParseDate(v.Str())
}

// IsISODate reports whether the cell is already written as YYYY-MM-DD.
func IsISODate(v dataset.Value) bool {
	_, layout, ok := DateValue(v)
	return ok && layout == 0 && v.Str() == strings.TrimSpace(v.Str())
}

// LayoutName returns the layout string for a ParseDate index.
func LayoutName(i int) string {
	if i < 0 || i >= len(dateLayouts) {
		return ""
	}
	return dateLayouts[i]
}

func IsEmail(s string) bool { return emailRe.MatchString(strings.TrimSpace(s)) }

// IsMasked reports whether a cell holds the mask token.
func IsMasked(v dataset.Value) bool { return v.IsString() && v.Str() == MaskToken }

// SensitiveKind names the PII pattern a cell matches, or "" when none does.
// Numbers and dates are never sensitive.
func SensitiveKind(v dataset.Value) string {
	if !v.IsString() {
		return ""
	}
	if _, ok := NumericValue(v); ok {
		return ""
	}
	if _, _, ok := DateValue(v); ok {
		return ""
	}
	s := strings.TrimSpace(v.Str())
	switch {
	case emailRe.MatchString(s):
		return "email"
	case ssnRe.MatchString(s):
		return "ssn"
	case phoneRe.MatchString(s):
		return "phone"
	}
	return ""
}

func IsSensitive(v dataset.Value) bool { return SensitiveKind(v) != "" }

// IsUnsafe reports spreadsheet formula injection: a leading =, @, tab or CR,
// or a leading + or - followed by something other than a number. Numbers,
// dates and sensitive values are classified elsewhere.
func IsUnsafe(v dataset.Value) bool {
	if !v.IsString() {
		return false
	}
	s := v.Str()
	if len(s) < 2 {
		return false
	}
	switch s[0] {
	case '\t', '\r':
		if IsBlank(s) {
			return false
		}
	case '=', '@':
	case '+', '-':
		next := s[1]
		if next >= '0' && next <= '9' || next == '.' || next == ' ' || next == s[0] {
			return false
		}
	default:
		return false
	}
	if _, ok := NumericValue(v); ok {
		return false
	}
	if _, _, ok := DateValue(v); ok {
		return false
	}
	return !IsSensitive(v)
}

// IsBlank mirrors the normalizer's notion of absence.
func IsBlank(s string) bool { return dataset.IsBlank(s) }

// Canonical returns a key under which equal numbers, equal dates in any
// layout and equal strings collide.
func Canonical(v dataset.Value) string {
	if f, ok := NumericValue(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	if t, _, ok := DateValue(v); ok {
		return "d:" + t.Format(ISOLayout)
	}
	return "s:" + v.Text()
}
