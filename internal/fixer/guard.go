package fixer

import (
	"github.com/peekknuf/dqfix/internal/dataset"
	"github.com/peekknuf/dqfix/internal/quality"
)

// CheckNonRegression scores both datasets with s and returns a
// *RegressionError when the overall score fell.
func CheckNonRegression(s *quality.Scorer, before, after *dataset.Dataset) (quality.Report, quality.Report, error) {
	b := s.Score(before)
	a := s.Score(after)
	if a.Overall >= b.Overall {
		return b, a, nil
	}
	err := &RegressionError{Before: b.Overall, After: a.Overall}
	for _, dim := range quality.Dimensions {
		if a.Score(dim) < b.Score(dim) {
			err.Dimensions = append(err.Dimensions, dim.String())
		}
	}
	return b, a, err
}

// Result is the outcome of a full recommend, apply and verify pass.
type Result struct {
	Fixes  []Fix
	Fixed  *dataset.Dataset
	Audit  Audit
	Before quality.Report
	After  quality.Report
}

// Pipeline ties a recommender, an applier and a scorer together.
type Pipeline struct {
	Scorer      *quality.Scorer
	Recommender *Recommender
	Applier     *Applier
}

// Run recommends fixes for d, applies them and verifies that the overall
// score did not drop. On a regression the partially filled Result is
// returned together with the *RegressionError.
func (p Pipeline) Run(d *dataset.Dataset) (*Result, error) {
	fixes := p.Recommender.Recommend(d)
	fixed, audit, err := p.Applier.Apply(d, fixes)
	if err != nil {
		return nil, err
	}
	res := &Result{Fixes: fixes, Fixed: fixed, Audit: audit}
	res.Before, res.After, err = CheckNonRegression(p.Scorer, d, fixed)
	return res, err
}
