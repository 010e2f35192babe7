package table

import (
	"encoding/csv"
	"fmt"
	"os"
)

// WriteCSV persists the table to path, header first.
func (t *Table) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create artifact: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush artifact: %w", err)
	}
	return nil
}

// ReadCSV loads a table previously written by WriteCSV.
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("artifact %s has no header", path)
	}

	t := New(records[0]...)
	for _, rec := range records[1:] {
		if err := t.AppendRow(rec); err != nil {
			return nil, err
		}
	}
	return t, nil
}
