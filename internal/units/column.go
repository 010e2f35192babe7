package units

import (
	"regexp"
	"strings"
)

// Columns in converted row sets carry their unit embedded in the name,
// as in "Wavelength (A)" or "Frequency (MHz)".
var columnUnitPattern = regexp.MustCompile(`^(.*?)\s*\(([^)]+)\)\s*$`)

// SplitColumnName separates a column name from its trailing unit suffix.
// The unit is empty when the name carries no "(unit)" suffix.
func SplitColumnName(column string) (name, unit string) {
	m := columnUnitPattern.FindStringSubmatch(column)
	if m == nil {
		return strings.TrimSpace(column), ""
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
}

// QuantityOfColumn guesses the spectral family a column belongs to from its
// base name. Wavenumber columns report the energy family, since cm-1 values
// convert through the energy relations.
func QuantityOfColumn(column string) (Quantity, bool) {
	name, _ := SplitColumnName(column)
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "wavelength"):
		return QuantityWavelength, true
	case strings.Contains(lower, "frequency"):
		return QuantityFrequency, true
	case strings.Contains(lower, "wavenumber"), strings.Contains(lower, "energy"):
		return QuantityEnergy, true
	}
	return "", false
}

// DefaultUnitForColumn is the assumed unit for an unlabelled column of the
// given name: Angstrom for wavelengths, Hertz for frequencies, eV for
// energies and cm-1 for wavenumbers.
func DefaultUnitForColumn(column string) (string, bool) {
	name, _ := SplitColumnName(column)
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "wavelength"):
		return "angstrom", true
	case strings.Contains(lower, "frequency"):
		return "hertz", true
	case strings.Contains(lower, "wavenumber"):
		return "cm-1", true
	case strings.Contains(lower, "energy"):
		return "ev", true
	}
	return "", false
}
