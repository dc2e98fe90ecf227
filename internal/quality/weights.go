package quality

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Dimension is one of the six quality axes.
type Dimension uint8

const (
	Completeness Dimension = iota
	Safety
	Consistency
	Uniqueness
	Validity
	Timeliness
)

// Dimensions lists every dimension in aggregation order.
var Dimensions = []Dimension{Completeness, Safety, Consistency, Uniqueness, Validity, Timeliness}

func (d Dimension) String() string {
	switch d {
	case Completeness:
		return "completeness"
	case Safety:
		return "safety"
	case Consistency:
		return "consistency"
	case Uniqueness:
		return "uniqueness"
	case Validity:
		return "validity"
	case Timeliness:
		return "timeliness"
	default:
		return fmt.Sprintf("dimension(%d)", uint8(d))
	}
}

// ParseDimension maps a dimension name back to its value.
func ParseDimension(name string) (Dimension, bool) {
	for _, d := range Dimensions {
		if d.String() == name {
			return d, true
		}
	}
	return 0, false
}

// ErrConfiguration matches every *ConfigError.
var ErrConfiguration = errors.New("invalid scoring configuration")

// ConfigError rejects a weight vector. The active weights are left as they
// were.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("invalid scoring weights: %s", e.Reason)
	}
	return fmt.Sprintf("invalid scoring weights: %q: %s", e.Key, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrConfiguration }

// Weights maps dimension names to non-negative weights. Dimensions that are
// not present weigh zero.
type Weights map[string]float64

// LegacyWeights is the default: completeness and safety, half each.
func LegacyWeights() Weights {
	return Weights{
		Completeness.String(): 0.5,
		Safety.String():       0.5,
	}
}

// Validate checks that every key names a dimension, every value is a finite
// non-negative number, and at least one value is positive.
func (w Weights) Validate() error {
	keys := make([]string, 0, len(w))
	for k := range w {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := 0.0
	for _, k := range keys {
		v := w[k]
		if _, ok := ParseDimension(k); !ok {
			return &ConfigError{Key: k, Reason: "unknown dimension"}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &ConfigError{Key: k, Reason: "weight must be finite"}
		}
		if v < 0 {
			return &ConfigError{Key: k, Reason: fmt.Sprintf("negative weight %g", v)}
		}
		total += v
	}
	if total == 0 {
		return &ConfigError{Reason: "all weights are zero"}
	}
	return nil
}

// Clone copies the map.
func (w Weights) Clone() Weights {
	out := make(Weights, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}

// Normalized returns every dimension's share of the total, summing to 1.
// The receiver must be valid.
func (w Weights) Normalized() Weights {
	total := 0.0
	for _, d := range Dimensions {
		total += w[d.String()]
	}
	out := make(Weights, len(Dimensions))
	for _, d := range Dimensions {
		out[d.String()] = w[d.String()] / total
	}
	return out
}
