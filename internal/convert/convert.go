// Package convert turns one XSAMS XML document into tabular row sets. The
// pipeline depends only on the Converter interface and on the convention
// that the second row set, when present, holds the spectral lines with
// unit-suffixed column names ("Name (unit)").
package convert

import (
	"errors"

	"spectral/internal/catalog"
	"spectral/internal/table"
)

// ErrNoTables reports a payload that produced no row sets at all.
var ErrNoTables = errors.New("conversion produced no tables")

// Converter transforms an XSAMS document using the profile selected by the
// species kind. Implementations return zero or more tables; by convention
// the first is a species summary and the second holds the spectral lines.
type Converter interface {
	Convert(payload []byte, kind catalog.SpeciesKind) ([]*table.Table, error)
}
