// Package auditstore keeps a history of fix runs in SQLite so earlier
// repairs of a file can be inspected after the fact.
package auditstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/peekknuf/dqfix/internal/fixer"
)

const schema = `
CREATE TABLE IF NOT EXISTS fix_runs (
	run_id         TEXT PRIMARY KEY,
	source         TEXT NOT NULL,
	output         TEXT,
	row_count      INTEGER NOT NULL,
	score_before   REAL NOT NULL,
	score_after    REAL NOT NULL,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS fix_entries (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id         TEXT NOT NULL,
	position       INTEGER NOT NULL,
	column_name    TEXT NOT NULL,
	kind           TEXT NOT NULL,
	changed        INTEGER NOT NULL,
	unparseable    INTEGER NOT NULL,
	summary        TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES fix_runs(run_id)
);
`

// ErrNotFound is returned for an unknown run id.
var ErrNotFound = errors.New("run not found")

// Run is one stored fix run.
type Run struct {
	ID          string
	Source      string
	Output      string
	Rows        int
	ScoreBefore float64
	ScoreAfter  float64
	CreatedAt   time.Time
	Entries     []Entry
}

// Entry is one stored audit row.
type Entry struct {
	Column      string
	Kind        string
	Changed     int
	Unparseable int
	Summary     string
}

// Store manages fix history in SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and runs migrations.
// ":memory:" gives a private in-memory store.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// every pooled connection to :memory: would see its own database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores a run and its audit in one transaction. An empty run.ID is
// replaced by a new UUID, which is returned.
func (s *Store) Record(ctx context.Context, run Run, audit fixer.Audit) (string, error) {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO fix_runs (run_id, source, output, row_count, score_before, score_after, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Source, run.Output, run.Rows, run.ScoreBefore, run.ScoreAfter,
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	for i, e := range audit {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO fix_entries (run_id, position, column_name, kind, changed, unparseable, summary)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			run.ID, i, e.Column, e.Kind.String(), e.Changed, e.Unparseable, e.Summary,
		)
		if err != nil {
			return "", fmt.Errorf("insert entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return run.ID, nil
}

// Runs returns the most recent runs first, without their entries. A limit
// of zero or less returns every run.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT run_id, source, output, row_count, score_before, score_after, created_at
		FROM fix_runs ORDER BY created_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get loads one run with its entries in application order.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT run_id, source, output, row_count, score_before, score_after, created_at
		 FROM fix_runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return Run{}, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT column_name, kind, changed, unparseable, summary
		 FROM fix_entries WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return Run{}, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Column, &e.Kind, &e.Changed, &e.Unparseable, &e.Summary); err != nil {
			return Run{}, fmt.Errorf("scan entry: %w", err)
		}
		run.Entries = append(run.Entries, e)
	}
	return run, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run     Run
		output  sql.NullString
		created string
	)
	if err := sc.Scan(&run.ID, &run.Source, &output, &run.Rows, &run.ScoreBefore, &run.ScoreAfter, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Output = output.String
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return Run{}, fmt.Errorf("parse created_at: %w", err)
	}
	run.CreatedAt = t
	return run, nil
}
