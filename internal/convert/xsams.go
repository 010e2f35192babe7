package convert

import (
	"encoding/xml"
	"fmt"

	"go.uber.org/zap"

	"spectral/internal/catalog"
	"spectral/internal/table"
)

// XSAMSConverter extracts species summaries and radiative transitions from
// XSAMS documents. The strict XML decoder is the primary strategy; very
// large or malformed payloads fall back to a lenient tag-soup parser.
type XSAMSConverter struct {
	logger *zap.Logger
}

// NewXSAMSConverter creates the default conversion collaborator.
func NewXSAMSConverter(logger *zap.Logger) *XSAMSConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &XSAMSConverter{logger: logger}
}

// Minimal XSAMS subset. Element names follow the schema; everything not
// needed for tabulation is ignored by the decoder.
type xsamsDocument struct {
	XMLName xml.Name `xml:"XSAMSData"`
	Species struct {
		Atoms struct {
			Atoms []xsamsAtom `xml:"Atom"`
		} `xml:"Atoms"`
		Molecules struct {
			Molecules []xsamsMolecule `xml:"Molecule"`
		} `xml:"Molecules"`
	} `xml:"Species"`
	Processes struct {
		Radiative struct {
			Transitions []xsamsTransition `xml:"RadiativeTransition"`
		} `xml:"Radiative"`
	} `xml:"Processes"`
}

type xsamsAtom struct {
	ChemicalElement struct {
		ElementSymbol string `xml:"ElementSymbol"`
	} `xml:"ChemicalElement"`
	Isotope []struct {
		Ion []struct {
			SpeciesID string `xml:"speciesID,attr"`
			InChIKey  string `xml:"InChIKey"`
		} `xml:"IonState"`
	} `xml:"Isotope"`
}

type xsamsMolecule struct {
	SpeciesID         string `xml:"speciesID,attr"`
	MolecularChemical struct {
		OrdinaryFormula struct {
			Value string `xml:"Value"`
		} `xml:"OrdinaryStructuralFormula"`
		InChIKey string `xml:"InChIKey"`
	} `xml:"MolecularChemicalSpecies"`
}

type xsamsValue struct {
	Units string `xml:"units,attr"`
	Value string `xml:",chardata"`
}

type xsamsDatum struct {
	Value xsamsValue `xml:"Value"`
}

type xsamsTransition struct {
	EnergyWavelength struct {
		Wavelength []xsamsDatum `xml:"Wavelength"`
		Frequency  []xsamsDatum `xml:"Frequency"`
		Wavenumber []xsamsDatum `xml:"Wavenumber"`
		Energy     []xsamsDatum `xml:"Energy"`
	} `xml:"EnergyWavelength"`
	UpperStateRef string `xml:"UpperStateRef"`
	LowerStateRef string `xml:"LowerStateRef"`
	Probability   struct {
		TransitionProbabilityA xsamsDatum `xml:"TransitionProbabilityA"`
	} `xml:"Probability"`
}

// Convert parses the payload and produces up to two tables: a species
// summary and the spectral-lines table.
func (c *XSAMSConverter) Convert(payload []byte, kind catalog.SpeciesKind) ([]*table.Table, error) {
	var doc xsamsDocument
	if err := xml.Unmarshal(payload, &doc); err != nil {
		c.logger.Warn("strict XSAMS parse failed, using lenient fallback", zap.Error(err))
		return c.convertLenient(payload)
	}

	summary := c.summaryTable(&doc, kind)
	lines := c.linesTable(doc.Processes.Radiative.Transitions)

	if summary.NumRows() == 0 && lines.NumRows() == 0 {
		return nil, ErrNoTables
	}
	return []*table.Table{summary, lines}, nil
}

func (c *XSAMSConverter) summaryTable(doc *xsamsDocument, kind catalog.SpeciesKind) *table.Table {
	t := table.New("Species", "InChIKey")
	switch kind {
	case catalog.KindAtom:
		for _, atom := range doc.Species.Atoms.Atoms {
			key := ""
			for _, iso := range atom.Isotope {
				for _, ion := range iso.Ion {
					if ion.InChIKey != "" {
						key = ion.InChIKey
					}
				}
			}
			_ = t.AppendRow([]string{atom.ChemicalElement.ElementSymbol, key})
		}
	default:
		for _, mol := range doc.Species.Molecules.Molecules {
			_ = t.AppendRow([]string{
				mol.MolecularChemical.OrdinaryFormula.Value,
				mol.MolecularChemical.InChIKey,
			})
		}
	}
	return t
}

func (c *XSAMSConverter) linesTable(transitions []xsamsTransition) *table.Table {
	// Column set depends on which quantities the node reports; names carry
	// the unit suffix so downstream harmonization can convert them.
	present := struct {
		wavelength, frequency, wavenumber, energy bool
	}{}
	unitOf := map[string]string{}
	for _, tr := range transitions {
		if len(tr.EnergyWavelength.Wavelength) > 0 {
			present.wavelength = true
			rememberUnit(unitOf, "Wavelength", tr.EnergyWavelength.Wavelength[0].Value.Units)
		}
		if len(tr.EnergyWavelength.Frequency) > 0 {
			present.frequency = true
			rememberUnit(unitOf, "Frequency", tr.EnergyWavelength.Frequency[0].Value.Units)
		}
		if len(tr.EnergyWavelength.Wavenumber) > 0 {
			present.wavenumber = true
			rememberUnit(unitOf, "Wavenumber", tr.EnergyWavelength.Wavenumber[0].Value.Units)
		}
		if len(tr.EnergyWavelength.Energy) > 0 {
			present.energy = true
			rememberUnit(unitOf, "Energy", tr.EnergyWavelength.Energy[0].Value.Units)
		}
	}

	var columns []string
	appendCol := func(base string, has bool) {
		if !has {
			return
		}
		columns = append(columns, columnName(base, unitOf[base]))
	}
	appendCol("Wavelength", present.wavelength)
	appendCol("Frequency", present.frequency)
	appendCol("Wavenumber", present.wavenumber)
	appendCol("Energy", present.energy)
	columns = append(columns, "Einstein A (1/s)", "Upper state", "Lower state")

	t := table.New(columns...)
	for _, tr := range transitions {
		row := make([]string, 0, len(columns))
		if present.wavelength {
			row = append(row, firstValue(tr.EnergyWavelength.Wavelength))
		}
		if present.frequency {
			row = append(row, firstValue(tr.EnergyWavelength.Frequency))
		}
		if present.wavenumber {
			row = append(row, firstValue(tr.EnergyWavelength.Wavenumber))
		}
		if present.energy {
			row = append(row, firstValue(tr.EnergyWavelength.Energy))
		}
		row = append(row,
			tr.Probability.TransitionProbabilityA.Value.Value,
			tr.UpperStateRef,
			tr.LowerStateRef)
		_ = t.AppendRow(row)
	}
	return t
}

func rememberUnit(units map[string]string, base, unit string) {
	if _, ok := units[base]; !ok && unit != "" {
		units[base] = unit
	}
}

func columnName(base, unit string) string {
	if unit == "" {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, unit)
}

func firstValue(data []xsamsDatum) string {
	if len(data) == 0 {
		return table.MissingValue
	}
	return data[0].Value.Value
}
