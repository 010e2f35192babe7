package table

import (
	"strconv"
	"strings"
)

// FilterByRange keeps rows whose numeric value in the named column lies in
// [min, max]. Nil bounds are open. Rows with non-numeric cells are dropped.
func (t *Table) FilterByRange(column string, min, max *float64) *Table {
	idx := t.ColumnIndex(column)
	out := New(t.Columns...)
	if idx < 0 {
		return out
	}
	for _, row := range t.Rows {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[idx]), 64)
		if err != nil {
			continue
		}
		if min != nil && v < *min {
			continue
		}
		if max != nil && v > *max {
			continue
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// FilterContaining keeps rows whose cell in the named column contains at
// least one of the given substrings.
func (t *Table) FilterContaining(column string, substrings []string) *Table {
	return t.filterSubstrings(column, substrings, true)
}

// FilterNotContaining keeps rows whose cell in the named column contains
// none of the given substrings.
func (t *Table) FilterNotContaining(column string, substrings []string) *Table {
	return t.filterSubstrings(column, substrings, false)
}

func (t *Table) filterSubstrings(column string, substrings []string, keepMatch bool) *Table {
	idx := t.ColumnIndex(column)
	out := New(t.Columns...)
	if idx < 0 {
		return out
	}
	for _, row := range t.Rows {
		matched := false
		for _, s := range substrings {
			if strings.Contains(row[idx], s) {
				matched = true
				break
			}
		}
		if matched == keepMatch {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}
