// Package table holds tabular row sets converted from XSAMS payloads and
// merges them across fragments. Schemas drift between fragments, so merges
// union columns by name instead of requiring identical layouts.
package table

import (
	"fmt"
	"strings"
)

// MissingValue fills cells for columns a contributing table did not carry.
const MissingValue = ""

// UnknownValue marks cells in a column that had to be synthesized because
// the source payload exposed no usable data for it.
const UnknownValue = "unknown"

// Table is an ordered set of named columns over string cells.
type Table struct {
	Columns []string
	Rows    [][]string
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string(nil), columns...)}
}

// ColumnIndex returns the position of a column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table carries the named column.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// AppendRow adds one row, padding or rejecting on arity mismatch.
func (t *Table) AppendRow(row []string) error {
	if len(row) > len(t.Columns) {
		return fmt.Errorf("row has %d cells, table has %d columns", len(row), len(t.Columns))
	}
	for len(row) < len(t.Columns) {
		row = append(row, MissingValue)
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// AddColumn appends a new column filled with the given value for every
// existing row. Adding an already-present column is an error.
func (t *Table) AddColumn(name, fill string) error {
	if t.HasColumn(name) {
		return fmt.Errorf("column %q already present", name)
	}
	t.Columns = append(t.Columns, name)
	for i := range t.Rows {
		t.Rows[i] = append(t.Rows[i], fill)
	}
	return nil
}

// SetColumn overwrites every cell of an existing column.
func (t *Table) SetColumn(name string, values []string) error {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return fmt.Errorf("no column %q", name)
	}
	if len(values) != len(t.Rows) {
		return fmt.Errorf("got %d values for %d rows", len(values), len(t.Rows))
	}
	for i := range t.Rows {
		t.Rows[i][idx] = values[i]
	}
	return nil
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]string, error) {
	idx := t.ColumnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("no column %q", name)
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[idx]
	}
	return out, nil
}

// FindColumn returns the first column whose base name contains the given
// substring, case-insensitively. Used to locate spectral-position columns
// whose exact names vary between nodes.
func (t *Table) FindColumn(substring string) (string, bool) {
	needle := strings.ToLower(substring)
	for _, c := range t.Columns {
		if strings.Contains(strings.ToLower(c), needle) {
			return c, true
		}
	}
	return "", false
}

// Merge appends all rows of other into t, unioning columns by name. Columns
// missing on either side are filled with MissingValue. The merge is
// order-independent with respect to correctness: only the row order follows
// the call order.
func (t *Table) Merge(other *Table) {
	for _, c := range other.Columns {
		if !t.HasColumn(c) {
			_ = t.AddColumn(c, MissingValue)
		}
	}
	for _, row := range other.Rows {
		merged := make([]string, len(t.Columns))
		for i := range merged {
			merged[i] = MissingValue
		}
		for j, c := range other.Columns {
			merged[t.ColumnIndex(c)] = row[j]
		}
		t.Rows = append(t.Rows, merged)
	}
}
