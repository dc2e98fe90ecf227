package profiler

import (
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/peekknuf/dqfix/internal/dataset"
	"github.com/peekknuf/dqfix/internal/heuristics"
)

// Column types reported by the profiler.
const (
	TypeInt    = "int"
	TypeFloat  = "float"
	TypeDate   = "date"
	TypeString = "string"
	TypeEmpty  = "empty"
)

type ColumnStats struct {
	Name          string
	Type          string
	Count         int
	NullCount     int
	DistinctCount int
	Min           string
	Max           string
	SampleValues  []string

	// numeric columns only
	Mean float64
	Std  float64
	Q25  float64
	Q50  float64
	Q75  float64

	// most frequent value and its count
	Top  string
	Freq int

	// TypeMatches counts non-missing cells of the column's most common
	// kind (number, date or other text).
	TypeMatches int
}

func computeColumnStats(name string, cells []dataset.Value) ColumnStats {
	s := ColumnStats{Name: name, SampleValues: make([]string, 0, 5)}

	var (
		numbers  []float64
		integral = true
		dates    int
		freq     = make(map[string]int)
	)
	for _, v := range cells {
		if v.IsMissing() {
			s.NullCount++
			continue
		}
		s.Count++
		text := v.Text()
		freq[text]++
		if len(s.SampleValues) < 5 {
			s.SampleValues = append(s.SampleValues, text)
		}

		if f, ok := heuristics.NumericValue(v); ok {
			numbers = append(numbers, f)
			if f != math.Trunc(f) {
				integral = false
			}
			continue
		}
		if _, _, ok := heuristics.DateValue(v); ok {
			dates++
		}
	}
	s.DistinctCount = len(freq)
	s.Top, s.Freq = mostFrequent(freq)

	switch {
	case s.Count == 0:
		s.Type = TypeEmpty
	case len(numbers) == s.Count && integral:
		s.Type = TypeInt
	case len(numbers) == s.Count:
		s.Type = TypeFloat
	case dates == s.Count:
		s.Type = TypeDate
	default:
		s.Type = TypeString
	}

	switch s.Type {
	case TypeInt, TypeFloat:
		s.TypeMatches = len(numbers)
		s.numericSummary(numbers)
	case TypeDate:
		s.TypeMatches = dates
		s.Min, s.Max = textRange(freq)
	case TypeString:
		s.TypeMatches = max(len(numbers), dates, s.Count-len(numbers)-dates)
		s.Min, s.Max = textRange(freq)
	}
	return s
}

// numericSummary sorts values in place.
func (s *ColumnStats) numericSummary(values []float64) {
	sort.Float64s(values)
	s.Mean, s.Std = stat.MeanStdDev(values, nil)
	if len(values) < 2 {
		s.Std = 0
	}
	s.Q25 = stat.Quantile(0.25, stat.Empirical, values, nil)
	s.Q50 = stat.Quantile(0.50, stat.Empirical, values, nil)
	s.Q75 = stat.Quantile(0.75, stat.Empirical, values, nil)
	s.Min = formatNumber(values[0])
	s.Max = formatNumber(values[len(values)-1])
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func textRange(freq map[string]int) (string, string) {
	var lo, hi string
	first := true
	for v := range freq {
		if first || v < lo {
			lo = v
		}
		if first || v > hi {
			hi = v
		}
		first = false
	}
	return lo, hi
}

// mostFrequent breaks ties towards the lexically smaller value.
func mostFrequent(freq map[string]int) (string, int) {
	top, n := "", 0
	for v, c := range freq {
		if c > n || (c == n && v < top) {
			top, n = v, c
		}
	}
	return top, n
}
