package fixer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/dqfix/internal/dataset"
	"github.com/peekknuf/dqfix/internal/quality"
)

func str(vals ...string) []dataset.Value {
	out := make([]dataset.Value, len(vals))
	for i, v := range vals {
		out[i] = dataset.String(v)
	}
	return out
}

func texts(d *dataset.Dataset, column string) []string {
	i, _ := d.ColumnIndex(column)
	out := make([]string, d.NumRows())
	for r := range out {
		out[r] = d.Cell(r, i).Text()
	}
	return out
}

func messy() *dataset.Dataset {
	return dataset.MustNew(
		dataset.Column{Name: "customer_id", Values: str("1", "2", "2", "4")},
		dataset.Column{Name: "age", Values: str("34", "", "150", "40")},
		dataset.Column{Name: "email", Values: str("a@example.com", "not-an-email", "", "b@example.com")},
		dataset.Column{Name: "signup_date", Values: str("2024-01-05", "01/06/2024", "invalid-date-text", "2020-01-01")},
		dataset.Column{Name: "city", Values: str("Paris", "paris", "paris", "=HYPERLINK(\"x\")")},
	)
}

func testScorer() *quality.Scorer {
	return quality.NewScorerWithOptions(quality.Options{
		ReferenceDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
}

func TestImputeMedian(t *testing.T) {
	d := dataset.MustNew(dataset.Column{Name: "value", Values: str("1", "2", "", "4")})

	fixes := RecommendBulkFixes(d)
	require.Len(t, fixes, 1)
	assert.Equal(t, ImputeMedian, fixes[0].Kind)
	assert.Equal(t, "value", fixes[0].Column)
	assert.Equal(t, 2.0, fixes[0].Params.Median)
	assert.Equal(t, 1, fixes[0].Params.Eligible)

	fixed, audit, err := ApplyFixes(d, fixes)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "2", "4"}, texts(fixed, "value"))
	require.Len(t, audit, 1)
	assert.Equal(t, 1, audit[0].Changed)
	assert.Equal(t, &Example{Row: 2, Before: "", After: "2"}, audit[0].Example)

	s := testScorer()
	assert.Equal(t, 75.0, s.Score(d).Breakdown["completeness"]["value"])
	assert.Equal(t, 100.0, s.Score(fixed).Breakdown["completeness"]["value"])
}

func TestStandardizeDatesKeepsUnparseable(t *testing.T) {
	d := dataset.MustNew(dataset.Column{Name: "signup_date", Values: str("2024-01-05", "01/06/2024", "invalid-date-text")})

	fixes := RecommendBulkFixes(d)
	require.Len(t, fixes, 1)
	assert.Equal(t, StandardizeDate, fixes[0].Kind)
	assert.Equal(t, []string{"1/2/2006"}, fixes[0].Params.SourceLayouts)

	fixed, audit, err := ApplyFixes(d, fixes)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-05", "2024-01-06", "invalid-date-text"}, texts(fixed, "signup_date"))
	assert.Equal(t, 1, audit[0].Changed)
	assert.Equal(t, 1, audit[0].Unparseable)
	assert.Contains(t, audit[0].Summary, "1 unchanged: unparseable")
}

func TestRecommendMessyDataset(t *testing.T) {
	fixes := RecommendBulkFixes(messy())

	got := make([]string, len(fixes))
	for i, f := range fixes {
		got[i] = f.Column + "/" + f.Kind.String()
	}
	assert.Equal(t, []string{
		"age/numeric-impute-median",
		"email/string-mask",
		"signup_date/date-standardize-iso",
		"city/formula-neutralize",
	}, got)

	// 150 is outside the age domain and does not pull the median
	assert.Equal(t, 37.0, fixes[0].Params.Median)
}

func TestRecommendSkipsKeyColumns(t *testing.T) {
	d := dataset.MustNew(
		dataset.Column{Name: "order_id", Values: str("1", "", "3")},
		dataset.Column{Name: "contact", Values: str("x@example.com", "y@example.com", "")},
	)
	assert.Empty(t, NewRecommender(RecommenderOptions{KeyColumns: []string{"order_id", "contact"}}).Recommend(d))

	fixes := RecommendBulkFixes(d)
	require.Len(t, fixes, 1)
	assert.Equal(t, "contact", fixes[0].Column)
}

func TestRecommenderToggles(t *testing.T) {
	r := NewRecommender(RecommenderOptions{DisableMask: true, DisableNeutralize: true})
	for _, f := range r.Recommend(messy()) {
		assert.NotEqual(t, MaskSensitive, f.Kind)
		assert.NotEqual(t, NeutralizeFormula, f.Kind)
	}
}

func TestRecommendIsDeterministic(t *testing.T) {
	d := messy()
	assert.Equal(t, RecommendBulkFixes(d), RecommendBulkFixes(d))
}

func TestFixesAreIdempotent(t *testing.T) {
	d := messy()
	fixed, _, err := ApplyFixes(d, RecommendBulkFixes(d))
	require.NoError(t, err)

	assert.Empty(t, RecommendBulkFixes(fixed))

	again, audit, err := ApplyFixes(fixed, RecommendBulkFixes(fixed))
	require.NoError(t, err)
	assert.Empty(t, audit)
	assert.True(t, again.Equal(fixed))
}

func TestFixesNeverLowerAnyDimension(t *testing.T) {
	d := messy()
	s := testScorer()

	fixed, audit, err := ApplyFixes(d, RecommendBulkFixes(d))
	require.NoError(t, err)
	assert.Equal(t, d.NumRows(), fixed.NumRows())
	assert.Equal(t, d.Names(), fixed.Names())
	assert.Equal(t, 5, audit.Changed())

	before, after := s.Score(d), s.Score(fixed)
	assert.GreaterOrEqual(t, after.Overall, before.Overall)
	for _, dim := range quality.Dimensions {
		assert.GreaterOrEqual(t, after.Score(dim), before.Score(dim), dim.String())
	}

	require.NoError(t, s.SetWeights(quality.Weights{"validity": 1, "consistency": 1, "timeliness": 1}))
	assert.GreaterOrEqual(t, s.Score(fixed).Overall, s.Score(d).Overall)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	d := messy()
	snapshot := d.Clone()
	_, _, err := ApplyFixes(d, RecommendBulkFixes(d))
	require.NoError(t, err)
	assert.True(t, d.Equal(snapshot))
}

func TestApplyIsAllOrNothing(t *testing.T) {
	d := messy()
	fixes := []Fix{
		{Column: "age", Kind: ImputeMedian, Params: Params{Median: 37}},
		{Column: "missing_column", Kind: MaskSensitive},
	}

	fixed, audit, err := ApplyFixes(d, fixes)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Nil(t, fixed)
	assert.Nil(t, audit)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, 1, vErr.Index)
	assert.Equal(t, "missing_column", vErr.Column)

	_, _, err = ApplyFixes(d, []Fix{{Column: "age", Kind: Kind(99)}})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEmptyFixListReturnsNormalizedCopy(t *testing.T) {
	d := dataset.MustNew(dataset.Column{Name: "a", Values: str(" ", "x")})
	fixed, audit, err := ApplyFixes(d, nil)
	require.NoError(t, err)
	assert.Empty(t, audit)
	assert.True(t, fixed.Cell(0, 0).IsMissing())
}

func TestMaskAndNeutralize(t *testing.T) {
	d := dataset.MustNew(dataset.Column{Name: "notes", Values: str("call 555-123-4567", "555-123-4567", "=1+1", "ok")})
	fixed, audit, err := ApplyFixes(d, RecommendBulkFixes(d))
	require.NoError(t, err)
	assert.Equal(t, []string{"call 555-123-4567", "****", "'=1+1", "ok"}, texts(fixed, "notes"))
	require.Len(t, audit, 2)
	assert.Equal(t, MaskSensitive, audit[0].Kind)
	assert.Equal(t, NeutralizeFormula, audit[1].Kind)
}

func TestKindJSON(t *testing.T) {
	raw, err := json.Marshal(Fix{Column: "c", Kind: StandardizeDate})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"kind":"date-standardize-iso"`)

	var f Fix
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, StandardizeDate, f.Kind)

	err = json.Unmarshal([]byte(`{"column":"c","kind":"drop-rows"}`), &f)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCheckNonRegression(t *testing.T) {
	s := testScorer()
	clean := dataset.MustNew(dataset.Column{Name: "a", Values: str("1", "2")})
	worse := dataset.MustNew(dataset.Column{Name: "a", Values: str("1", "")})

	_, _, err := CheckNonRegression(s, worse, clean)
	assert.NoError(t, err)

	_, _, err = CheckNonRegression(s, clean, worse)
	require.ErrorIs(t, err, ErrRegression)
	var rErr *RegressionError
	require.ErrorAs(t, err, &rErr)
	assert.Contains(t, rErr.Dimensions, "completeness")
	assert.Less(t, rErr.After, rErr.Before)
}

func TestPipelineRun(t *testing.T) {
	p := Pipeline{
		Scorer:      testScorer(),
		Recommender: NewRecommender(RecommenderOptions{}),
		Applier:     NewApplier(nil),
	}
	res, err := p.Run(messy())
	require.NoError(t, err)
	assert.Len(t, res.Fixes, 4)
	assert.Len(t, res.Audit, 4)
	assert.Greater(t, res.After.Overall, res.Before.Overall)
}

func TestApplierProgress(t *testing.T) {
	var calls []int
	a := NewApplier(nil).OnProgress(func(done, total int) {
		assert.Equal(t, 4, total)
		calls = append(calls, done)
	})
	_, _, err := a.Apply(messy(), RecommendBulkFixes(messy()))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4}, calls)
}
