package profiler

import (
	"fmt"
	"strings"

	"github.com/peekknuf/dqfix/internal/dataset"
)

type CSVProfiler struct {
	FilePath string
	// Columns holds one entry per column in file order.
	Columns  []ColumnStats
	RowCount int

	data *dataset.Dataset
}

func NewCSVProfiler(filePath string) *CSVProfiler {
	return &CSVProfiler{FilePath: filePath}
}

// NewDatasetProfiler profiles an already loaded dataset.
func NewDatasetProfiler(d *dataset.Dataset) *CSVProfiler {
	return &CSVProfiler{data: d}
}

func (p *CSVProfiler) Profile() error {
	if p.data == nil {
		d, err := dataset.ReadFile(p.FilePath)
		if err != nil {
			return fmt.Errorf("failed to load %s: %w", p.FilePath, err)
		}
		p.data = d
	}

	d := dataset.Normalize(p.data)
	p.RowCount = d.NumRows()
	p.Columns = make([]ColumnStats, d.NumCols())
	for i := range p.Columns {
		p.Columns[i] = computeColumnStats(d.Name(i), d.Cells(i))
	}
	return nil
}

// Column looks up the stats of one column.
func (p *CSVProfiler) Column(name string) (ColumnStats, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnStats{}, false
}

// distinctRows counts rows with a distinct combination of cell texts.
func (p *CSVProfiler) distinctRows() int {
	seen := make(map[string]struct{}, p.RowCount)
	for r := 0; r < p.RowCount; r++ {
		seen[strings.Join(p.data.Row(r), "\x1f")] = struct{}{}
	}
	return len(seen)
}
