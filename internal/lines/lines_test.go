package lines

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spectral/internal/catalog"
	"spectral/internal/config"
	"spectral/internal/fetch"
	"spectral/internal/fragment"
	"spectral/internal/journal"
	"spectral/internal/table"
	"spectral/internal/vamdc"
)

var coSpecies = catalog.Species{
	InChIKey: "UGFAIRIUMAVXCW-UHFFFAOYSA-N",
	Kind:     catalog.KindMolecule,
	Name:     "CO",
}

const coPayload = `<?xml version="1.0" encoding="UTF-8"?>
<XSAMSData>
  <Species>
    <Molecules>
      <Molecule speciesID="XCDMS-1">
        <MolecularChemicalSpecies>
          <OrdinaryStructuralFormula><Value>CO</Value></OrdinaryStructuralFormula>
          <InChIKey>UGFAIRIUMAVXCW-UHFFFAOYSA-N</InChIKey>
        </MolecularChemicalSpecies>
      </Molecule>
    </Molecules>
  </Species>
  <Processes>
    <Radiative>
      <RadiativeTransition>
        <EnergyWavelength>
          <Wavelength><Value units="A">1500</Value></Wavelength>
        </EnergyWavelength>
        <UpperStateRef>S2</UpperStateRef>
        <LowerStateRef>S1</LowerStateRef>
      </RadiativeTransition>
    </Radiative>
  </Processes>
</XSAMSData>`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.ConcurrencyPerNode = 2
	cfg.RetryBaseDelay = time.Millisecond
	cfg.DownloadDir = filepath.Join(dir, "xsams")
	cfg.ArtifactDir = filepath.Join(dir, "artifacts")
	return cfg
}

// nodeHandler emulates one VAMDC node: HEAD probes answer with the given
// truncation header, GETs serve the payload.
func nodeHandler(truncation string, payload string, gets *atomic.Int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodHead:
			if truncation != "" {
				w.Header().Set(vamdc.HeaderTruncated, truncation)
			}
			w.Header().Set("VAMDC-COUNT-RADIATIVE", "1")
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			if gets != nil {
				gets.Add(1)
			}
			w.Header().Set(vamdc.HeaderRequestToken, "node:deadbeef:get")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(payload))
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func nodeFor(server *httptest.Server, id string) catalog.Node {
	return catalog.Node{Identifier: id, TAPEndpoint: server.URL + "/"}
}

func TestRetrieveLines_SingleCompleteFragment(t *testing.T) {
	var gets atomic.Int64
	server := httptest.NewServer(nodeHandler("100", coPayload, &gets))
	defer server.Close()

	cfg := testConfig(t)
	svc := NewService(cfg, nil)

	results, records, err := svc.RetrieveLines(context.Background(), Request{
		LambdaMin: 1000,
		LambdaMax: 2000,
		Species:   []catalog.Species{coSpecies},
		Nodes:     []catalog.Node{nodeFor(server, "ivo://vamdc/cdms")},
	})
	require.NoError(t, err)

	// "100" means complete: exactly one fetch, no splitting.
	assert.EqualValues(t, 1, gets.Load())
	require.Len(t, records, 1)
	assert.False(t, records[0].Truncated)
	assert.True(t, records[0].Leaf)
	assert.Equal(t, fragment.ConversionSucceeded, records[0].Conversion)
	assert.Equal(t, "1", records[0].CountHeaders["vamdc-count-radiative"])

	path, ok := results[catalog.KindMolecule]["ivo://vamdc/cdms"]
	require.True(t, ok)

	merged, err := table.ReadCSV(path)
	require.NoError(t, err)
	require.Equal(t, 1, merged.NumRows())

	meters, err := merged.Column(fetch.CanonicalWavelengthColumn)
	require.NoError(t, err)
	v, err := strconv.ParseFloat(meters[0], 64)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, v, 1.0e-7)
	assert.LessOrEqual(t, v, 2.0e-7)

	tokens, err := merged.Column(fetch.TokenColumn)
	require.NoError(t, err)
	assert.Equal(t, "node:deadbeef:get", tokens[0])
}

func TestRetrieveLines_TruncatedIntervalIsSplitAndMerged(t *testing.T) {
	var gets atomic.Int64
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query, _ := url.QueryUnescape(r.URL.RawQuery)
		full := fmt.Sprintf("RadTransWavelength >= %g AND RadTransWavelength <= %g", 1000.0, 2000.0)

		switch r.Method {
		case http.MethodHead:
			if strings.Contains(query, full) {
				w.Header().Set(vamdc.HeaderTruncated, "50")
			}
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			gets.Add(1)
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(coPayload))
		}
	})
	server := httptest.NewServer(handler)
	defer server.Close()

	cfg := testConfig(t)
	svc := NewService(cfg, nil)

	results, records, err := svc.RetrieveLines(context.Background(), Request{
		LambdaMin: 1000,
		LambdaMax: 2000,
		Species:   []catalog.Species{coSpecies},
		Nodes:     []catalog.Node{nodeFor(server, "ivo://vamdc/cdms")},
	})
	require.NoError(t, err)

	// Root truncated, both halves complete: two fetches, three probes.
	assert.EqualValues(t, 2, gets.Load())
	assert.Len(t, records, 3)

	path, ok := results[catalog.KindMolecule]["ivo://vamdc/cdms"]
	require.True(t, ok)
	merged, err := table.ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 2, merged.NumRows())
}

func TestRetrieveLines_FailingNodeDoesNotPoisonOthers(t *testing.T) {
	good := httptest.NewServer(nodeHandler("", coPayload, nil))
	defer good.Close()
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	cfg := testConfig(t)
	svc := NewService(cfg, nil)

	results, records, err := svc.RetrieveLines(context.Background(), Request{
		LambdaMin: 1000,
		LambdaMax: 2000,
		Species:   []catalog.Species{coSpecies},
		Nodes: []catalog.Node{
			nodeFor(good, "ivo://vamdc/good"),
			nodeFor(bad, "ivo://vamdc/bad"),
		},
	})
	require.NoError(t, err)

	assert.Contains(t, results[catalog.KindMolecule], "ivo://vamdc/good")
	assert.NotContains(t, results[catalog.KindMolecule], "ivo://vamdc/bad")

	byNode := map[string]fragment.ConversionStatus{}
	for _, r := range records {
		byNode[r.NodeID] = r.Conversion
	}
	assert.Equal(t, fragment.ConversionSucceeded, byNode["ivo://vamdc/good"])
	assert.Equal(t, fragment.ConversionFailed, byNode["ivo://vamdc/bad"])
}

func TestRetrieveLines_RejectsInvalidInterval(t *testing.T) {
	svc := NewService(testConfig(t), nil)
	_, _, err := svc.RetrieveLines(context.Background(), Request{
		LambdaMin: 2000,
		LambdaMax: 1000,
		Species:   []catalog.Species{coSpecies},
		Nodes:     []catalog.Node{{Identifier: "n", TAPEndpoint: "https://n.example/tap/"}},
	})
	assert.Error(t, err)
}

func TestProbeLines_WritesNoFiles(t *testing.T) {
	var gets atomic.Int64
	// The node reports truncation; probing accepts it instead of splitting.
	server := httptest.NewServer(nodeHandler("37.5", coPayload, &gets))
	defer server.Close()

	cfg := testConfig(t)
	svc := NewService(cfg, nil)

	records, err := svc.ProbeLines(context.Background(), Request{
		LambdaMin: 1000,
		LambdaMax: 2000,
		Species:   []catalog.Species{coSpecies},
		Nodes:     []catalog.Node{nodeFor(server, "ivo://vamdc/cdms")},
	})
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.True(t, records[0].Truncated)
	assert.Equal(t, fragment.ConversionNotAttempted, records[0].Conversion)
	assert.EqualValues(t, 0, gets.Load())

	for _, dir := range []string{cfg.DownloadDir, cfg.ArtifactDir} {
		_, err := os.Stat(dir)
		assert.Truef(t, os.IsNotExist(err), "directory %s must not be created", dir)
	}
}

func TestRetrieveLines_JournalsTheRun(t *testing.T) {
	server := httptest.NewServer(nodeHandler("", coPayload, nil))
	defer server.Close()

	cfg := testConfig(t)
	cfg.JournalPath = filepath.Join(t.TempDir(), "journal.db")
	svc := NewService(cfg, nil)

	_, _, err := svc.RetrieveLines(context.Background(), Request{
		LambdaMin: 1000,
		LambdaMax: 2000,
		Species:   []catalog.Species{coSpecies},
		Nodes:     []catalog.Node{nodeFor(server, "ivo://vamdc/cdms")},
	})
	require.NoError(t, err)

	j, err := journal.Open(cfg.JournalPath)
	require.NoError(t, err)
	defer j.Close()
	n, err := j.CountByConversion(fragment.ConversionSucceeded)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRetrieveLinesByBand(t *testing.T) {
	svc := NewService(testConfig(t), nil)
	_, _, err := svc.RetrieveLinesByBand(context.Background(), "no-such-band",
		[]catalog.Species{coSpecies},
		[]catalog.Node{{Identifier: "n", TAPEndpoint: "https://n.example/tap/"}})
	assert.Error(t, err)
}
