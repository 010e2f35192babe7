// Package units converts spectral quantities between the energy, frequency
// and wavelength families. Cross-family conversions go through the physical
// relations E = h*nu and lambda = c/nu.
package units

import (
	"fmt"
	"strings"
)

// Physical constants (SI).
const (
	SpeedOfLight      = 299792458.0       // m/s
	PlanckConstant    = 6.62607015e-34    // J*s
	BoltzmannConstant = 1.38064878066852e-23 // J/K
	RydbergConstant   = 10973731.56815712 // 1/m
)

// Quantity is one of the three spectral-position families.
type Quantity string

const (
	QuantityEnergy     Quantity = "energy"
	QuantityFrequency  Quantity = "frequency"
	QuantityWavelength Quantity = "wavelength"
)

// Factors to the base unit of each family (joule, hertz, meter).
var energyFactors = map[string]float64{
	"joule":      1.0,
	"millijoule": 1e-3,
	"microjoule": 1e-6,
	"nanojoule":  1e-9,
	"picojoule":  1e-12,
	"ev":         1.602176634e-19,
	"erg":        1e-7,
	"kelvin":     BoltzmannConstant,
	"rydberg":    PlanckConstant * SpeedOfLight * RydbergConstant,
	"cm-1":       PlanckConstant * SpeedOfLight * 100,
	"1/cm":       PlanckConstant * SpeedOfLight * 100,
}

var frequencyFactors = map[string]float64{
	"hertz":     1.0,
	"hz":        1.0,
	"kilohertz": 1e3,
	"khz":       1e3,
	"megahertz": 1e6,
	"mhz":       1e6,
	"gigahertz": 1e9,
	"ghz":       1e9,
	"terahertz": 1e12,
	"thz":       1e12,
}

var wavelengthFactors = map[string]float64{
	"meter":      1.0,
	"m":          1.0,
	"centimeter": 1e-2,
	"cm":         1e-2,
	"millimeter": 1e-3,
	"mm":         1e-3,
	"micrometer": 1e-6,
	"um":         1e-6,
	"nanometer":  1e-9,
	"nm":         1e-9,
	"angstrom":   1e-10,
	"a":          1e-10,
	"aa":         1e-10,
}

// DefaultUnit is the assumed unit when a column carries none.
// Wavenumber columns are treated as energy in cm-1.
func DefaultUnit(q Quantity) string {
	switch q {
	case QuantityWavelength:
		return "angstrom"
	case QuantityFrequency:
		return "hertz"
	default:
		return "ev"
	}
}

// QuantityOf reports the family a unit belongs to.
func QuantityOf(unit string) (Quantity, bool) {
	u := normalize(unit)
	if _, ok := energyFactors[u]; ok {
		return QuantityEnergy, true
	}
	if _, ok := frequencyFactors[u]; ok {
		return QuantityFrequency, true
	}
	if _, ok := wavelengthFactors[u]; ok {
		return QuantityWavelength, true
	}
	return "", false
}

func normalize(unit string) string {
	return strings.ToLower(strings.TrimSpace(unit))
}

func factor(unit string) (Quantity, float64, error) {
	u := normalize(unit)
	if f, ok := energyFactors[u]; ok {
		return QuantityEnergy, f, nil
	}
	if f, ok := frequencyFactors[u]; ok {
		return QuantityFrequency, f, nil
	}
	if f, ok := wavelengthFactors[u]; ok {
		return QuantityWavelength, f, nil
	}
	return "", 0, fmt.Errorf("unknown unit %q", unit)
}

// Convert converts a value between any two spectral units, crossing family
// boundaries when needed.
func Convert(value float64, fromUnit, toUnit string) (float64, error) {
	fromQ, fromF, err := factor(fromUnit)
	if err != nil {
		return 0, fmt.Errorf("convert from: %w", err)
	}
	toQ, toF, err := factor(toUnit)
	if err != nil {
		return 0, fmt.Errorf("convert to: %w", err)
	}

	switch fromQ {
	case QuantityEnergy:
		switch toQ {
		case QuantityEnergy:
			return value * fromF / toF, nil
		case QuantityFrequency:
			return fromF * value / (toF * PlanckConstant), nil
		case QuantityWavelength:
			return SpeedOfLight * PlanckConstant / (value * fromF * toF), nil
		}
	case QuantityFrequency:
		switch toQ {
		case QuantityFrequency:
			return value * fromF / toF, nil
		case QuantityEnergy:
			return value * fromF * PlanckConstant / toF, nil
		case QuantityWavelength:
			return SpeedOfLight / (value * fromF * toF), nil
		}
	case QuantityWavelength:
		switch toQ {
		case QuantityWavelength:
			return value * fromF / toF, nil
		case QuantityEnergy:
			return SpeedOfLight * PlanckConstant / (value * fromF * toF), nil
		case QuantityFrequency:
			return SpeedOfLight / (value * fromF * toF), nil
		}
	}
	return 0, fmt.Errorf("no conversion from %s to %s", fromQ, toQ)
}
