package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKind(t *testing.T) {
	for input, want := range map[string]SpeciesKind{
		"atom":       KindAtom,
		"Atomic":     KindAtom,
		"molecule":   KindMolecule,
		"MOLECULAR":  KindMolecule,
		" molecule ": KindMolecule,
	} {
		got, err := ParseKind(input)
		require.NoErrorf(t, err, "input %q", input)
		assert.Equalf(t, want, got, "input %q", input)
	}

	_, err := ParseKind("plasma")
	assert.Error(t, err)
}

func TestStaticResolver_CrossProduct(t *testing.T) {
	species := []Species{
		{InChIKey: "KEY-A", Kind: KindAtom},
		{InChIKey: "KEY-B", Kind: KindMolecule},
	}
	nodes := []Node{
		{Identifier: "n1", TAPEndpoint: "https://n1.example/tap/"},
		{Identifier: "n2", TAPEndpoint: "https://n2.example/tap/"},
		{Identifier: "n3", TAPEndpoint: "https://n3.example/tap/"},
	}

	targets, err := StaticResolver{}.Resolve(species, nodes)
	require.NoError(t, err)
	require.Len(t, targets, 6)

	seen := map[[2]string]bool{}
	for _, target := range targets {
		seen[[2]string{target.Species.InChIKey, target.Node.Identifier}] = true
	}
	assert.Len(t, seen, 6)
}

func TestStaticResolver_RejectsEmptySelections(t *testing.T) {
	node := Node{Identifier: "n", TAPEndpoint: "https://n.example/tap/"}
	sp := Species{InChIKey: "KEY", Kind: KindAtom}

	_, err := StaticResolver{}.Resolve(nil, []Node{node})
	assert.Error(t, err)
	_, err = StaticResolver{}.Resolve([]Species{sp}, nil)
	assert.Error(t, err)
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"ivo://vamdc/topbase", "ivo_vamdc_topbase"},
		{"https://cdms.astro.uni-koeln.de/cdms/tap/", "https_cdms.astro.uni-koeln.de_cdms_tap"},
		{"cdms:6a3cdda5-ee4b:get", "cdms_6a3cdda5-ee4b_get"},
		{"plain", "plain"},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, SanitizeIdentifier(tt.in), "input %q", tt.in)
	}
}

func TestBandByName(t *testing.T) {
	band, ok := BandByName("Alma_band3")
	require.True(t, ok)
	assert.Equal(t, 2.6e7, band.LambdaMin)
	assert.Equal(t, 3.6e7, band.LambdaMax)

	_, ok = BandByName("Alma_band11")
	assert.False(t, ok)
}

func TestBandsForWavelength(t *testing.T) {
	// 3 mm sits in ALMA band 3 and several overlapping receivers.
	names := BandsForWavelength(3e7)
	assert.Contains(t, names, "Alma_band3")
	assert.Contains(t, names, "GBT_Mustang2")

	assert.Empty(t, BandsForWavelength(1.0))
}
