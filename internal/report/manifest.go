package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/peekknuf/dqfix/internal/fixer"
	"github.com/peekknuf/dqfix/internal/quality"
	"github.com/peekknuf/dqfix/internal/validator"
)

// Tool identifies the writer of a manifest.
const Tool = "dqfix"

// DimensionChange is one row of the before/after diagnosis.
type DimensionChange struct {
	Dimension string  `json:"dimension"`
	Before    float64 `json:"before"`
	After     float64 `json:"after"`
	Delta     float64 `json:"delta"`
}

// Manifest describes one fix run: where the data came from, what was
// changed and how the scores moved.
type Manifest struct {
	RunID     string            `json:"run_id"`
	Tool      string            `json:"tool"`
	Source    string            `json:"source"`
	Output    string            `json:"output"`
	CreatedAt time.Time         `json:"created_at"`
	Rows      int               `json:"rows"`
	Columns   int               `json:"columns"`
	Before    quality.Report    `json:"before"`
	After     quality.Report    `json:"after"`
	Diagnosis []DimensionChange `json:"diagnosis"`
	Fixes     []fixer.Fix       `json:"fixes"`
	Audit     fixer.Audit       `json:"audit"`
	// Issues are detected on the source data before fixing.
	Issues []validator.Issue `json:"issues"`
}

// NewManifest builds a manifest for res with a fresh run id.
func NewManifest(res *fixer.Result, source, output string) *Manifest {
	m := &Manifest{
		RunID:     uuid.NewString(),
		Tool:      Tool,
		Source:    source,
		Output:    output,
		CreatedAt: time.Now().UTC(),
		Before:    res.Before,
		After:     res.After,
		Diagnosis: Diagnose(res.Before, res.After),
		Fixes:     res.Fixes,
		Audit:     res.Audit,
		Issues:    []validator.Issue{},
	}
	if res.Fixed != nil {
		m.Rows = res.Fixed.NumRows()
		m.Columns = res.Fixed.NumCols()
	}
	if m.Fixes == nil {
		m.Fixes = []fixer.Fix{}
	}
	if m.Audit == nil {
		m.Audit = fixer.Audit{}
	}
	return m
}

// Diagnose lists every dimension, then the overall score, with its change.
func Diagnose(before, after quality.Report) []DimensionChange {
	out := make([]DimensionChange, 0, len(quality.Dimensions)+1)
	for _, dim := range quality.Dimensions {
		b, a := before.Score(dim), after.Score(dim)
		out = append(out, DimensionChange{Dimension: dim.String(), Before: b, After: a, Delta: a - b})
	}
	return append(out, DimensionChange{
		Dimension: "overall",
		Before:    before.Overall,
		After:     after.Overall,
		Delta:     after.Overall - before.Overall,
	})
}

// WriteFile stores the manifest as indented JSON.
func (m *Manifest) WriteFile(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}

// ReadFile loads a manifest written by WriteFile.
func ReadFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest %s: %w", path, err)
	}
	return &m, nil
}
