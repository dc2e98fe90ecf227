package fixer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/dqfix/internal/dataset"
	"github.com/peekknuf/dqfix/internal/quality"
)

func col(name string, vals ...string) dataset.Column {
	return dataset.Column{Name: name, Values: str(vals...)}
}

// fixtures are small datasets that each stress one way a fix could move a
// cell between categories.
func fixtures() map[string]*dataset.Dataset {
	return map[string]*dataset.Dataset{
		"messy": messy(),
		"neutralized spelling collides": dataset.MustNew(
			col("note", "'=A", "'=A", "=a"),
		),
		"case variants with formulas": dataset.MustNew(
			col("city", "Paris", "paris", "=cmd()", "=CMD()", "'=cmd()"),
		),
		"pii mix": dataset.MustNew(
			col("contact", "a@x.com", "A@X.COM", "555-123-4567", "123-45-6789", "hello", ""),
		),
		"masking removes every at sign": dataset.MustNew(
			col("reach", "a@x.com", "b@y.org", "n/a"),
		),
		"date column holding emails": dataset.MustNew(
			col("created_at", "a@x.com", "2024-01-01", "01/02/2024", "garbage"),
		),
		"age out of domain": dataset.MustNew(
			col("age", "34", "", "150", "-3", "40"),
			col("years", "200", "", "300"),
		),
		"key columns": dataset.MustNew(
			col("customer_id", "1", "1", "", "=x", "a@b.com"),
			col("order_id", "2024-01-05", "01/05/2024", "2024-01-05", "5 Jan 2024", ""),
			col("amount", "10", "", "30", "10", "20"),
		),
		"all missing column": dataset.MustNew(
			col("empty", "", "  ", ""),
			col("score", "1", "", "3"),
		),
		"mostly numeric with strays": dataset.MustNew(
			col("amount", "1", "2", "3", "4", "5", "6", "7", "8", "=SUM(A1)", ""),
		),
		"mixed date layouts": dataset.MustNew(
			col("signup_date", "2024-01-05", "01/06/2024", "5 Jan 2024", "invalid", "2020-01-01", ""),
		),
		"control and sign prefixes": dataset.MustNew(
			col("cmd", "\tcmd", "\r=1", "-x", "+y", "plain", "-5"),
		),
		"typed numbers": dataset.MustNew(dataset.Column{Name: "value", Values: []dataset.Value{
			dataset.Number(1), dataset.Missing(), dataset.Number(3), dataset.String("4"),
		}}),
	}
}

// weightVectors is the legacy default plus every single-dimension vector.
func weightVectors() map[string]quality.Weights {
	out := map[string]quality.Weights{"legacy": quality.LegacyWeights()}
	for _, dim := range quality.Dimensions {
		out[dim.String()] = quality.Weights{dim.String(): 1}
	}
	return out
}

func TestFixesNeverRegressAcrossFixtures(t *testing.T) {
	for name, d := range fixtures() {
		t.Run(name, func(t *testing.T) {
			fixes := RecommendBulkFixes(d)
			fixed, _, err := ApplyFixes(d, fixes)
			require.NoError(t, err)
			assert.Equal(t, d.NumRows(), fixed.NumRows())
			assert.Equal(t, d.Names(), fixed.Names())

			for wname, w := range weightVectors() {
				s := testScorer()
				require.NoError(t, s.SetWeights(w))

				before, after, err := CheckNonRegression(s, d, fixed)
				assert.NoError(t, err, "weights %s, fixes %v", wname, fixes)
				assert.GreaterOrEqual(t, after.Overall, before.Overall, "weights %s", wname)
				for _, dim := range quality.Dimensions {
					assert.GreaterOrEqual(t, after.Score(dim), before.Score(dim), "weights %s, %s", wname, dim)
				}
			}
		})
	}
}

func TestFixesAreIdempotentAcrossFixtures(t *testing.T) {
	for name, d := range fixtures() {
		t.Run(name, func(t *testing.T) {
			fixed, _, err := ApplyFixes(d, RecommendBulkFixes(d))
			require.NoError(t, err)

			again := RecommendBulkFixes(fixed)
			assert.Empty(t, again)

			refixed, audit, err := ApplyFixes(fixed, again)
			require.NoError(t, err)
			assert.Empty(t, audit)
			assert.True(t, refixed.Equal(fixed))
		})
	}
}

func TestNeutralizeMergesIntoExistingSpelling(t *testing.T) {
	d := dataset.MustNew(col("note", "'=A", "'=A", "=a"))
	s := testScorer()
	require.NoError(t, s.SetWeights(quality.Weights{"consistency": 1}))

	fixes := RecommendBulkFixes(d)
	require.Len(t, fixes, 1)
	assert.Equal(t, NeutralizeFormula, fixes[0].Kind)

	fixed, _, err := ApplyFixes(d, fixes)
	require.NoError(t, err)
	assert.Equal(t, []string{"'=A", "'=A", "'=a"}, texts(fixed, "note"))

	before, after, err := CheckNonRegression(s, d, fixed)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, after.Consistency, before.Consistency)
}
