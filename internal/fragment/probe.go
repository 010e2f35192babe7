package fragment

import (
	"context"

	"go.uber.org/zap"

	"spectral/internal/catalog"
	"spectral/internal/vamdc"
)

// Prober issues one HEAD probe. Satisfied by *vamdc.Client.
type Prober interface {
	Probe(ctx context.Context, requestURL string, acceptTruncation bool) (vamdc.ProbeResult, error)
}

// SplitGuards bound the recursive split so it always terminates, even
// against a node that keeps reporting truncation.
type SplitGuards struct {
	// MinWidth is the narrowest interval (Angstrom) that may still be
	// split. Hitting it indicates a planner bug or a misbehaving node.
	MinWidth float64
	// MaxDepth bounds the split recursion depth.
	MaxDepth int
}

// DefaultGuards returns the standard split guards.
func DefaultGuards() SplitGuards {
	return SplitGuards{MinWidth: 1e-6, MaxDepth: 48}
}

// Outcome collects the fragments produced for one (species, node) pair.
type Outcome struct {
	// Probed holds every fragment whose probe received a response, leaf
	// and internal alike, so metadata-only callers can inspect count
	// headers before any data is fetched.
	Probed []*Fragment
	// Leaves holds the fetch-eligible subset of Probed.
	Leaves []*Fragment
}

// ProbeAndSplit probes the interval [lambdaMin, lambdaMax] for one species
// at one node and recursively splits truncated, non-accepted fragments at
// the interval midpoint. The entire splitting subtree runs synchronously on
// the calling goroutine, so a planner bounding concurrent calls bounds all
// nested probe traffic too.
//
// Probe failures drop the affected fragment and are never escalated: the
// returned Outcome simply omits it.
func ProbeAndSplit(ctx context.Context, prober Prober, node catalog.Node, species catalog.Species,
	lambdaMin, lambdaMax float64, acceptTruncation bool, guards SplitGuards, logger *zap.Logger) Outcome {
	if logger == nil {
		logger = zap.NewNop()
	}
	var out Outcome
	probeAndSplit(ctx, prober, node, species, lambdaMin, lambdaMax, acceptTruncation, guards, 0, logger, &out)
	return out
}

func probeAndSplit(ctx context.Context, prober Prober, node catalog.Node, species catalog.Species,
	lambdaMin, lambdaMax float64, acceptTruncation bool, guards SplitGuards, depth int,
	logger *zap.Logger, out *Outcome) {

	frag, err := New(node, species, lambdaMin, lambdaMax, acceptTruncation)
	if err != nil {
		// Degenerate interval after splitting. Planner bug, loudly logged.
		logger.Error("dropping fragment with degenerate interval",
			zap.String("endpoint", node.TAPEndpoint),
			zap.String("inchikey", species.InChIKey),
			zap.Float64("lambda_min", lambdaMin),
			zap.Float64("lambda_max", lambdaMax),
			zap.Error(err))
		return
	}

	result, err := prober.Probe(ctx, frag.URL, acceptTruncation)
	if err != nil {
		// Transport failure on the probe. The fragment is dropped and the
		// caller continues with its siblings.
		logger.Warn("probe failed, dropping fragment",
			zap.String("endpoint", node.TAPEndpoint),
			zap.String("inchikey", species.InChIKey),
			zap.Float64("lambda_min", lambdaMin),
			zap.Float64("lambda_max", lambdaMax),
			zap.Error(err))
		return
	}

	frag.HasData = result.HasData
	frag.Truncated = result.Truncated
	frag.CountHeaders = result.CountHeaders
	out.Probed = append(out.Probed, frag)

	if !result.HasData {
		// Non-success probe status: no data available here. Not an error.
		logger.Debug("no data at node for interval",
			zap.String("endpoint", node.TAPEndpoint),
			zap.String("inchikey", species.InChIKey),
			zap.Float64("lambda_min", lambdaMin),
			zap.Float64("lambda_max", lambdaMax))
		return
	}

	if !result.Truncated || acceptTruncation {
		frag.Leaf = true
		out.Leaves = append(out.Leaves, frag)
		return
	}

	// Truncated and not accepted: split at the midpoint. Termination is
	// guaranteed by the halving plus the explicit guards below.
	width := lambdaMax - lambdaMin
	if width < guards.MinWidth || depth >= guards.MaxDepth {
		logger.Error("split guard hit, dropping truncated fragment",
			zap.String("endpoint", node.TAPEndpoint),
			zap.String("inchikey", species.InChIKey),
			zap.Float64("lambda_min", lambdaMin),
			zap.Float64("lambda_max", lambdaMax),
			zap.Float64("width", width),
			zap.Int("depth", depth))
		return
	}

	mid := 0.5 * (lambdaMin + lambdaMax)
	probeAndSplit(ctx, prober, node, species, lambdaMin, mid, acceptTruncation, guards, depth+1, logger, out)
	probeAndSplit(ctx, prober, node, species, mid, lambdaMax, acceptTruncation, guards, depth+1, logger, out)
}
