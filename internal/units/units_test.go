package units

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvert_WithinFamily(t *testing.T) {
	tests := []struct {
		value float64
		from  string
		to    string
		want  float64
	}{
		{1000, "angstrom", "nm", 100},
		{1, "m", "angstrom", 1e10},
		{1, "ghz", "hz", 1e9},
		{1, "ev", "joule", 1.602176634e-19},
		{1, "rydberg", "ev", 13.605693},
	}
	for _, tt := range tests {
		got, err := Convert(tt.value, tt.from, tt.to)
		require.NoErrorf(t, err, "%g %s -> %s", tt.value, tt.from, tt.to)
		assert.InEpsilonf(t, tt.want, got, 1e-6, "%g %s -> %s", tt.value, tt.from, tt.to)
	}
}

func TestConvert_AcrossFamilies(t *testing.T) {
	// lambda = c / nu
	m, err := Convert(1e9, "hz", "meter")
	require.NoError(t, err)
	assert.InEpsilon(t, 0.299792458, m, 1e-9)

	// and back
	hz, err := Convert(0.299792458, "meter", "hz")
	require.NoError(t, err)
	assert.InEpsilon(t, 1e9, hz, 1e-9)

	// 1 cm-1 corresponds to roughly 29.98 GHz
	ghz, err := Convert(1, "cm-1", "ghz")
	require.NoError(t, err)
	assert.InEpsilon(t, 29.9792458, ghz, 1e-6)

	// 10000 cm-1 is a 1 micrometer photon
	um, err := Convert(10000, "cm-1", "um")
	require.NoError(t, err)
	assert.InEpsilon(t, 1.0, um, 1e-9)
}

func TestConvert_RoundTripIsStable(t *testing.T) {
	ev, err := Convert(5000, "angstrom", "ev")
	require.NoError(t, err)
	back, err := Convert(ev, "ev", "angstrom")
	require.NoError(t, err)
	assert.InEpsilon(t, 5000, back, 1e-9)
}

func TestConvert_UnitsAreCaseInsensitive(t *testing.T) {
	a, err := Convert(1, "GHz", "Hz")
	require.NoError(t, err)
	b, err := Convert(1, "ghz", "hz")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestConvert_UnknownUnit(t *testing.T) {
	_, err := Convert(1, "parsec", "meter")
	assert.Error(t, err)
	_, err = Convert(1, "meter", "furlong")
	assert.Error(t, err)
}

func TestQuantityOf(t *testing.T) {
	for unit, want := range map[string]Quantity{
		"ev":       QuantityEnergy,
		"kelvin":   QuantityEnergy,
		"cm-1":     QuantityEnergy,
		"mhz":      QuantityFrequency,
		"angstrom": QuantityWavelength,
		"AA":       QuantityWavelength,
	} {
		got, ok := QuantityOf(unit)
		require.Truef(t, ok, "unit %q", unit)
		assert.Equalf(t, want, got, "unit %q", unit)
	}
	_, ok := QuantityOf("banana")
	assert.False(t, ok)
}

func TestSplitColumnName(t *testing.T) {
	tests := []struct {
		column string
		name   string
		unit   string
	}{
		{"Wavelength (A)", "Wavelength", "A"},
		{"Frequency (MHz)", "Frequency", "MHz"},
		{"Wavelength", "Wavelength", ""},
		{"Energy ( eV )", "Energy", "eV"},
		{"  Wavenumber (cm-1)  ", "Wavenumber", "cm-1"},
	}
	for _, tt := range tests {
		name, unit := SplitColumnName(tt.column)
		assert.Equalf(t, tt.name, name, "column %q", tt.column)
		assert.Equalf(t, tt.unit, unit, "column %q", tt.column)
	}
}

func TestQuantityOfColumn(t *testing.T) {
	q, ok := QuantityOfColumn("Wavelength (A)")
	require.True(t, ok)
	assert.Equal(t, QuantityWavelength, q)

	q, ok = QuantityOfColumn("Wavenumber (cm-1)")
	require.True(t, ok)
	assert.Equal(t, QuantityEnergy, q)

	_, ok = QuantityOfColumn("Einstein A (1/s)")
	assert.False(t, ok)
}

func TestDefaultUnitForColumn(t *testing.T) {
	for column, want := range map[string]string{
		"Wavelength": "angstrom",
		"Frequency":  "hertz",
		"Wavenumber": "cm-1",
		"Energy":     "ev",
	} {
		got, ok := DefaultUnitForColumn(column)
		require.Truef(t, ok, "column %q", column)
		assert.Equalf(t, want, got, "column %q", column)
	}
	_, ok := DefaultUnitForColumn("Upper state")
	assert.False(t, ok)
}
