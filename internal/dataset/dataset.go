package dataset

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrRaggedColumns   = errors.New("columns have different lengths")
	ErrDuplicateColumn = errors.New("duplicate column name")
)

// Dataset is an ordered set of equally long named columns. Row identity is
// the positional index. Methods never reorder or drop rows.
type Dataset struct {
	names []string
	cols  [][]Value
	index map[string]int
	rows  int
}

// Column pairs a name with its cells, used when building a dataset.
type Column struct {
	Name   string
	Values []Value
}

// New builds a dataset from columns. The cells are copied.
func New(columns ...Column) (*Dataset, error) {
	d := &Dataset{
		names: make([]string, 0, len(columns)),
		cols:  make([][]Value, 0, len(columns)),
		index: make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		if i == 0 {
			d.rows = len(c.Values)
		} else if len(c.Values) != d.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrRaggedColumns, c.Name, len(c.Values), d.rows)
		}
		vals := make([]Value, len(c.Values))
		copy(vals, c.Values)
		d.index[c.Name] = i
		d.names = append(d.names, c.Name)
		d.cols = append(d.cols, vals)
	}
	return d, nil
}

// MustNew is New for literals in tests and examples.
func MustNew(columns ...Column) *Dataset {
	d, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return d
}

// FromRecords builds a dataset of string cells from a header and row records.
// Short records are padded with empty strings; long records are an error.
func FromRecords(header []string, records [][]string) (*Dataset, error) {
	columns := make([]Column, len(header))
	for i, name := range header {
		columns[i] = Column{Name: name, Values: make([]Value, len(records))}
	}
	for r, rec := range records {
		if len(rec) > len(header) {
			return nil, fmt.Errorf("%w: row %d has %d fields, header has %d", ErrRaggedColumns, r+1, len(rec), len(header))
		}
		for i := range header {
			field := ""
			if i < len(rec) {
				field = rec[i]
			}
			columns[i].Values[r] = String(field)
		}
	}
	return New(columns...)
}

func (d *Dataset) NumRows() int { return d.rows }
func (d *Dataset) NumCols() int { return len(d.names) }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// Name returns the name of column i.
func (d *Dataset) Name(i int) string { return d.names[i] }

// ColumnIndex returns the position of a column.
func (d *Dataset) ColumnIndex(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Cells returns the backing cells of column i. Callers must not modify them.
func (d *Dataset) Cells(i int) []Value { return d.cols[i] }

// Column returns a copy of the named column.
func (d *Dataset) Column(name string) ([]Value, bool) {
	i, ok := d.index[name]
	if !ok {
		return nil, false
	}
	out := make([]Value, d.rows)
	copy(out, d.cols[i])
	return out, true
}

// Cell returns the cell at (row, column i).
func (d *Dataset) Cell(row, col int) Value { return d.cols[col][row] }

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		names: make([]string, len(d.names)),
		cols:  make([][]Value, len(d.cols)),
		index: make(map[string]int, len(d.index)),
		rows:  d.rows,
	}
	copy(c.names, d.names)
	for i, col := range d.cols {
		c.cols[i] = make([]Value, len(col))
		copy(c.cols[i], col)
	}
	for k, v := range d.index {
		c.index[k] = v
	}
	return c
}

// SetCell overwrites one cell in place. Only use it on a dataset you own,
// typically a Clone.
func (d *Dataset) SetCell(row, col int, v Value) { d.cols[col][row] = v }

// Row returns the cells of one row as text.
func (d *Dataset) Row(r int) []string {
	out := make([]string, len(d.cols))
	for i, col := range d.cols {
		out[i] = col[r].Text()
	}
	return out
}

// Equal reports whether both datasets have the same columns and cells.
func (d *Dataset) Equal(o *Dataset) bool {
	if d.rows != o.rows || len(d.names) != len(o.names) {
		return false
	}
	for i, name := range d.names {
		if o.names[i] != name {
			return false
		}
		for r := range d.cols[i] {
			if !d.cols[i][r].Equal(o.cols[i][r]) {
				return false
			}
		}
	}
	return true
}

// IsBlank reports whether a string carries no value: empty or whitespace only.
func IsBlank(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool { return !unicode.IsSpace(r) }) < 0
}

// Normalize returns a copy in which every empty or whitespace-only string is
// the missing marker. Everything else passes through. Normalize is idempotent.
func Normalize(d *Dataset) *Dataset {
	out := d.Clone()
	for _, col := range out.cols {
		for r, v := range col {
			if v.IsString() && IsBlank(v.str) {
				col[r] = Missing()
			}
		}
	}
	return out
}

// MissingCount returns the number of missing cells in column i.
func (d *Dataset) MissingCount(i int) int {
	n := 0
	for _, v := range d.cols[i] {
		if v.IsMissing() {
			n++
		}
	}
	return n
}
