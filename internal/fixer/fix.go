package fixer

import (
	"errors"
	"fmt"
)

// Kind is the closed set of bulk fix operations. Every switch over Kind
// handles each value; anything else is rejected by validation.
type Kind uint8

const (
	ImputeMedian Kind = iota + 1
	StandardizeDate
	MaskSensitive
	NeutralizeFormula
)

// Kinds lists every operation in recommendation priority order.
var Kinds = []Kind{ImputeMedian, StandardizeDate, MaskSensitive, NeutralizeFormula}

func (k Kind) String() string {
	switch k {
	case ImputeMedian:
		return "numeric-impute-median"
	case StandardizeDate:
		return "date-standardize-iso"
	case MaskSensitive:
		return "string-mask"
	case NeutralizeFormula:
		return "formula-neutralize"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Valid reports whether k is one of Kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind maps an operation name to its Kind.
func ParseKind(name string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown operation %q", ErrValidation, name)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: unknown operation %d", ErrValidation, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Fix is one column-wide operation. It never names rows: it applies to
// every eligible cell of Column.
type Fix struct {
	Column string `json:"column"`
	Kind   Kind   `json:"kind"`
	Params Params `json:"params"`
}

// Params carries what the recommender measured.
type Params struct {
	// Median is the imputation value for ImputeMedian.
	Median float64 `json:"median,omitempty"`
	// SourceLayouts lists the non-ISO date layouts seen, for StandardizeDate.
	SourceLayouts []string `json:"source_layouts,omitempty"`
	// Eligible is the number of cells the fix expects to touch.
	Eligible int    `json:"eligible"`
	Reason   string `json:"reason"`
}

func (f Fix) String() string {
	return fmt.Sprintf("%s on %q (%s)", f.Kind, f.Column, f.Params.Reason)
}

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("invalid fix")
	// ErrRegression matches every *RegressionError.
	ErrRegression = errors.New("fixes lowered the quality score")
)

// ValidationError rejects a fix list. Nothing is applied.
type ValidationError struct {
	Index  int
	Column string
	Kind   Kind
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid fix #%d (%s on %q): %s", e.Index, e.Kind, e.Column, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// RegressionError reports an overall score that dropped after fixing.
type RegressionError struct {
	Before float64
	After  float64
	// Dimensions lists the dimensions whose score fell.
	Dimensions []string
}

func (e *RegressionError) Error() string {
	return fmt.Sprintf("quality score fell from %.4f to %.4f (dimensions: %v)", e.Before, e.After, e.Dimensions)
}

func (e *RegressionError) Unwrap() error { return ErrRegression }
