// Package lines is the public face of the retrieval engine: a full
// fetch-and-aggregate pipeline and a metadata-only probe pipeline over a
// set of species and nodes.
package lines

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"spectral/internal/aggregate"
	"spectral/internal/catalog"
	"spectral/internal/config"
	"spectral/internal/convert"
	"spectral/internal/fetch"
	"spectral/internal/fragment"
	"spectral/internal/journal"
	"spectral/internal/planner"
	"spectral/internal/vamdc"
)

// Request selects what to retrieve. Wavelength bounds are in Angstrom.
type Request struct {
	LambdaMin float64
	LambdaMax float64
	Species   []catalog.Species
	Nodes     []catalog.Node
}

func (r Request) validate() error {
	if !(r.LambdaMin < r.LambdaMax) {
		return fmt.Errorf("invalid wavelength interval [%g, %g]", r.LambdaMin, r.LambdaMax)
	}
	return nil
}

// Service runs retrievals with a fixed configuration.
type Service struct {
	cfg       config.Config
	logger    *zap.Logger
	client    *vamdc.Client
	converter convert.Converter
	resolver  catalog.Resolver
}

// NewService builds a service with the default XSAMS converter and the
// static resolver.
func NewService(cfg config.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	client := vamdc.NewClient(vamdc.Config{
		Timeout:        cfg.HTTPTimeout,
		RetryAttempts:  cfg.RetryAttempts,
		RetryBaseDelay: cfg.RetryBaseDelay,
	}, logger)
	return &Service{
		cfg:       cfg,
		logger:    logger,
		client:    client,
		converter: convert.NewXSAMSConverter(logger),
		resolver:  catalog.StaticResolver{},
	}
}

// WithConverter swaps the conversion collaborator.
func (s *Service) WithConverter(c convert.Converter) *Service {
	s.converter = c
	return s
}

// WithResolver swaps the catalogue resolver.
func (s *Service) WithResolver(r catalog.Resolver) *Service {
	s.resolver = r
	return s
}

func (s *Service) guards() fragment.SplitGuards {
	return fragment.SplitGuards{
		MinWidth: s.cfg.MinIntervalWidth,
		MaxDepth: s.cfg.MaxSplitDepth,
	}
}

// RetrieveLines fans the request out across all nodes, splits truncated
// intervals, fetches and converts every leaf fragment, and merges the
// results per (node, species kind). It returns the merged artifact paths
// and one metadata record per probed fragment. Missing nodes or species are
// visible only through the metadata records, never as an error.
func (s *Service) RetrieveLines(ctx context.Context, req Request) (aggregate.Results, []fragment.MetadataRecord, error) {
	if err := req.validate(); err != nil {
		return nil, nil, err
	}
	targets, err := s.resolver.Resolve(req.Species, req.Nodes)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve targets: %w", err)
	}

	// Phase one: build the complete fragment tree. Fetching cannot start
	// until the tree is fully flattened into leaves.
	plan := planner.NewPlanner(s.client, s.cfg.ConcurrencyPerNode, s.guards(), s.logger)
	plan.OnProgress(func(done, total int) {
		s.logger.Debug("probing", zap.Int("done", done), zap.Int("total", total))
	})
	outcome := plan.Plan(ctx, targets, req.LambdaMin, req.LambdaMax, s.cfg.AcceptTruncation)
	s.logger.Info("planning complete",
		zap.Int("probed", len(outcome.Probed)),
		zap.Int("leaves", len(outcome.Leaves)))

	// Phase two: fetch and convert, with a fresh per-node gate registry.
	executor := fetch.NewConverter(s.client, s.converter, s.cfg.DownloadDir, s.cfg.ArtifactDir, s.logger)
	sched := planner.NewScheduler(executor, s.cfg.ConcurrencyPerNode, s.logger)
	sched.Run(ctx, outcome.Leaves)

	agg := aggregate.NewAggregator(s.cfg.ArtifactDir, s.logger)
	results, err := agg.Aggregate(outcome.Leaves, req.LambdaMin, req.LambdaMax)
	if err != nil {
		return nil, nil, fmt.Errorf("aggregate: %w", err)
	}
	records := aggregate.MetadataRecords(outcome.Probed)

	s.journal(req, false, records)
	return results, records, nil
}

// ProbeLines runs the metadata-only pipeline: it probes every fragment with
// truncation acceptance forced on (it never fetches, so it never needs to
// split) and returns the count-header-bearing records. No payload or
// artifact files are written.
func (s *Service) ProbeLines(ctx context.Context, req Request) ([]fragment.MetadataRecord, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	targets, err := s.resolver.Resolve(req.Species, req.Nodes)
	if err != nil {
		return nil, fmt.Errorf("resolve targets: %w", err)
	}

	plan := planner.NewPlanner(s.client, s.cfg.ConcurrencyPerNode, s.guards(), s.logger)
	outcome := plan.Plan(ctx, targets, req.LambdaMin, req.LambdaMax, true)
	records := aggregate.MetadataRecords(outcome.Probed)

	s.journal(req, true, records)
	return records, nil
}

// RetrieveLinesByBand retrieves all lines covered by a named telescope
// band.
func (s *Service) RetrieveLinesByBand(ctx context.Context, bandName string, species []catalog.Species, nodes []catalog.Node) (aggregate.Results, []fragment.MetadataRecord, error) {
	band, ok := catalog.BandByName(bandName)
	if !ok {
		return nil, nil, fmt.Errorf("unknown telescope band %q", bandName)
	}
	return s.RetrieveLines(ctx, Request{
		LambdaMin: band.LambdaMin,
		LambdaMax: band.LambdaMax,
		Species:   species,
		Nodes:     nodes,
	})
}

func (s *Service) journal(req Request, probeOnly bool, records []fragment.MetadataRecord) {
	if s.cfg.JournalPath == "" {
		return
	}
	j, err := journal.Open(s.cfg.JournalPath)
	if err != nil {
		s.logger.Warn("journal unavailable", zap.Error(err))
		return
	}
	defer j.Close()
	if err := j.RecordRun(req.LambdaMin, req.LambdaMax, probeOnly, records); err != nil {
		s.logger.Warn("journal write failed", zap.Error(err))
	}
}
