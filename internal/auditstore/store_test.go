package auditstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peekknuf/dqfix/internal/fixer"
)

func memStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleAudit() fixer.Audit {
	return fixer.Audit{
		{Column: "age", Kind: fixer.ImputeMedian, Changed: 1, Summary: "imputed 1 missing cells with median 37"},
		{Column: "signup_date", Kind: fixer.StandardizeDate, Changed: 1, Unparseable: 1, Summary: "standardized 1 dates to 2006-01-02; 1 unchanged: unparseable"},
	}
}

func TestRecordAndGet(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()

	id, err := s.Record(ctx, Run{Source: "in.csv", Output: "out.csv", Rows: 4, ScoreBefore: 80, ScoreAfter: 95}, sampleAudit())
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	run, err := s.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "in.csv", run.Source)
	assert.Equal(t, "out.csv", run.Output)
	assert.Equal(t, 4, run.Rows)
	assert.Equal(t, 95.0, run.ScoreAfter)
	require.Len(t, run.Entries, 2)
	assert.Equal(t, Entry{Column: "age", Kind: "numeric-impute-median", Changed: 1, Summary: "imputed 1 missing cells with median 37"}, run.Entries[0])
	assert.Equal(t, 1, run.Entries[1].Unparseable)
}

func TestRecordKeepsGivenID(t *testing.T) {
	s := memStore(t)
	id, err := s.Record(context.Background(), Run{ID: "run-1", Source: "a.csv"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "run-1", id)

	_, err = s.Record(context.Background(), Run{ID: "run-1", Source: "a.csv"}, nil)
	assert.Error(t, err, "run ids are unique")
}

func TestGetUnknownRun(t *testing.T) {
	_, err := memStore(t).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRunsNewestFirst(t *testing.T) {
	s := memStore(t)
	ctx := context.Background()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i, name := range []string{"old.csv", "mid.csv", "new.csv"} {
		_, err := s.Record(ctx, Run{Source: name, CreatedAt: base.Add(time.Duration(i) * time.Hour)}, nil)
		require.NoError(t, err)
	}

	runs, err := s.Runs(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "new.csv", runs[0].Source)
	assert.Equal(t, "mid.csv", runs[1].Source)
	assert.True(t, runs[0].CreatedAt.Equal(base.Add(2*time.Hour)))

	all, err := s.Runs(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestFileStorePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.sqlite")
	s, err := Open(path)
	require.NoError(t, err)
	id, err := s.Record(context.Background(), Run{Source: "a.csv"}, sampleAudit())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	run, err := s.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, run.Entries, 2)
}
