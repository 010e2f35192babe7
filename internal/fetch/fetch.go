// Package fetch executes the data phase for one leaf fragment: download the
// XSAMS payload with retry, persist it, convert it to rows, harmonize the
// spectral-position column and write the columnar artifact.
//
// Nothing in this package raises past a fragment boundary. Every failure is
// terminal for its own fragment and the batch continues.
package fetch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"spectral/internal/convert"
	"spectral/internal/fragment"
	"spectral/internal/table"
	"spectral/internal/units"
	"spectral/internal/vamdc"
)

// CanonicalWavelengthColumn is the one spectral-position column every
// artifact carries, in meters, so cross-fragment concatenation never breaks
// on schema mismatch.
const CanonicalWavelengthColumn = "Wavelength (m)"

// TokenColumn tags every row with the fragment that produced it.
const TokenColumn = "Request token"

// Fetcher issues one GET fetch. Satisfied by *vamdc.Client.
type Fetcher interface {
	Fetch(ctx context.Context, requestURL string, acceptTruncation bool) (vamdc.FetchResult, error)
}

// Converter executes a leaf fragment end to end.
type Converter struct {
	fetcher     Fetcher
	converter   convert.Converter
	downloadDir string
	artifactDir string
	logger      *zap.Logger
}

// NewConverter wires the fetch-and-convert pipeline.
func NewConverter(fetcher Fetcher, conv convert.Converter, downloadDir, artifactDir string, logger *zap.Logger) *Converter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Converter{
		fetcher:     fetcher,
		converter:   conv,
		downloadDir: downloadDir,
		artifactDir: artifactDir,
		logger:      logger,
	}
}

// Process mutates the fragment with its execution outcome. It never returns
// an error: failures mark the fragment Failed and are logged with full
// fragment context.
func (c *Converter) Process(ctx context.Context, frag *fragment.Fragment) {
	log := c.logger.With(
		zap.String("fragment", frag.ID),
		zap.String("endpoint", frag.Node.TAPEndpoint),
		zap.String("inchikey", frag.Species.InChIKey),
		zap.Float64("lambda_min", frag.LambdaMin),
		zap.Float64("lambda_max", frag.LambdaMax),
		zap.String("query", frag.Query))

	result, err := c.fetcher.Fetch(ctx, frag.URL, frag.AcceptTruncation)
	if err != nil {
		c.fail(frag, log, "fetch", err)
		return
	}
	frag.Token = result.Token

	if err := os.MkdirAll(c.downloadDir, 0o755); err != nil {
		c.fail(frag, log, "download dir", err)
		return
	}
	payloadPath := filepath.Join(c.downloadDir, frag.FileToken()+".xsams")
	if err := os.WriteFile(payloadPath, result.Body, 0o644); err != nil {
		c.fail(frag, log, "persist payload", err)
		return
	}
	frag.PayloadPath = payloadPath

	tables, err := c.converter.Convert(result.Body, frag.Species.Kind)
	if err != nil {
		c.fail(frag, log, "convert", err)
		return
	}
	if len(tables) < 2 {
		c.fail(frag, log, "convert", fmt.Errorf("expected a lines table, got %d tables", len(tables)))
		return
	}
	lines := tables[1]

	if err := Harmonize(lines, log); err != nil {
		c.fail(frag, log, "harmonize", err)
		return
	}
	if err := lines.AddColumn(TokenColumn, frag.RowToken()); err != nil {
		c.fail(frag, log, "tag rows", err)
		return
	}

	if err := os.MkdirAll(c.artifactDir, 0o755); err != nil {
		c.fail(frag, log, "artifact dir", err)
		return
	}
	artifactPath := filepath.Join(c.artifactDir, frag.FileToken()+".csv")
	if err := lines.WriteCSV(artifactPath); err != nil {
		c.fail(frag, log, "persist artifact", err)
		return
	}
	// The artifact is the only retained copy. Rows are re-read during
	// aggregation, keeping large batches out of memory in the meantime.
	frag.ArtifactPath = artifactPath
	frag.Conversion = fragment.ConversionSucceeded
	log.Debug("fragment converted", zap.Int("rows", lines.NumRows()), zap.String("artifact", artifactPath))
}

func (c *Converter) fail(frag *fragment.Fragment, log *zap.Logger, step string, err error) {
	frag.Conversion = fragment.ConversionFailed
	frag.FailureCause = fmt.Sprintf("%s: %v", step, err)
	log.Error("fragment failed", zap.String("step", step), zap.Error(err))
}

// Harmonize derives the canonical wavelength-in-meters column from whatever
// spectral-position column the row set carries: an existing wavelength
// column is preferred, then frequency, then energy/wavenumber. A source
// column without an explicit unit assumes the documented per-quantity
// default and logs a warning. When no spectral-position column exists the
// canonical column is created with "unknown" markers instead of failing.
func Harmonize(t *table.Table, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if t.HasColumn(CanonicalWavelengthColumn) {
		return nil
	}

	source, unit := pickSource(t)
	if source == "" {
		logger.Warn("no spectral-position column, filling canonical column with unknown markers")
		return t.AddColumn(CanonicalWavelengthColumn, table.UnknownValue)
	}
	if unit == "" {
		def, ok := units.DefaultUnitForColumn(source)
		if !ok {
			return fmt.Errorf("no default unit for column %q", source)
		}
		unit = def
		logger.Warn("spectral column has no explicit unit, assuming default",
			zap.String("column", source), zap.String("unit", unit))
	}

	values, err := t.Column(source)
	if err != nil {
		return err
	}
	converted := make([]string, len(values))
	for i, raw := range values {
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			converted[i] = table.UnknownValue
			continue
		}
		meters, err := units.Convert(v, unit, "meter")
		if err != nil {
			return fmt.Errorf("convert column %q: %w", source, err)
		}
		converted[i] = strconv.FormatFloat(meters, 'e', -1, 64)
	}
	if err := t.AddColumn(CanonicalWavelengthColumn, table.MissingValue); err != nil {
		return err
	}
	return t.SetColumn(CanonicalWavelengthColumn, converted)
}

// pickSource selects the preferred spectral-position column and its
// embedded unit, if any.
func pickSource(t *table.Table) (column, unit string) {
	for _, want := range []units.Quantity{units.QuantityWavelength, units.QuantityFrequency, units.QuantityEnergy} {
		for _, c := range t.Columns {
			q, ok := units.QuantityOfColumn(c)
			if !ok || q != want {
				continue
			}
			_, u := units.SplitColumnName(c)
			return c, u
		}
	}
	return "", ""
}
