// Package planner runs the two bounded-concurrency phases of a retrieval:
// probing (building the fragment tree) and execution (fetch and convert).
// Both phases bound in-flight work per node with a counting semaphore and
// cap the overall pool at k times the node count. The semaphore registries
// are built fresh per phase and never shared between phases.
package planner

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spectral/internal/catalog"
	"spectral/internal/fragment"
)

// Progress observes planning progress: pairs probed so far out of total.
// It must be safe for concurrent calls.
type Progress func(done, total int)

// Planner builds the complete list of leaf fragments for a set of
// (species, node) probe targets.
type Planner struct {
	prober      fragment.Prober
	concurrency int
	guards      fragment.SplitGuards
	logger      *zap.Logger
	progress    Progress
}

// NewPlanner creates a planner probing at most concurrency fragments per
// node at a time.
func NewPlanner(prober fragment.Prober, concurrency int, guards fragment.SplitGuards, logger *zap.Logger) *Planner {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{
		prober:      prober,
		concurrency: concurrency,
		guards:      guards,
		logger:      logger,
	}
}

// OnProgress registers a progress observer.
func (p *Planner) OnProgress(fn Progress) {
	p.progress = fn
}

// Plan probes every target over [lambdaMin, lambdaMax], splitting truncated
// intervals, and returns the combined outcome. One task failure never aborts
// sibling tasks; a target whose probe fails is simply absent from the
// outcome.
func (p *Planner) Plan(ctx context.Context, targets []catalog.Target, lambdaMin, lambdaMax float64, acceptTruncation bool) fragment.Outcome {
	gates := newNodeGates(targets, p.concurrency)

	var (
		mu       sync.Mutex
		combined fragment.Outcome
		done     atomic.Int64
	)
	total := len(targets)

	g := new(errgroup.Group)
	g.SetLimit(p.concurrency * gates.nodeCount())

	for _, target := range targets {
		target := target
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("probe task panicked",
						zap.String("endpoint", target.Node.TAPEndpoint),
						zap.String("inchikey", target.Species.InChIKey),
						zap.Any("panic", r))
				}
				if p.progress != nil {
					p.progress(int(done.Add(1)), total)
				}
			}()

			release := gates.acquire(target.Node)
			defer release()
			// The whole splitting subtree for this pair runs inside the
			// held slot, so per-node probe traffic stays bounded even
			// while fragments recurse.
			out := fragment.ProbeAndSplit(ctx, p.prober, target.Node, target.Species,
				lambdaMin, lambdaMax, acceptTruncation, p.guards, p.logger)

			mu.Lock()
			combined.Probed = append(combined.Probed, out.Probed...)
			combined.Leaves = append(combined.Leaves, out.Leaves...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return combined
}

// nodeGates is the per-node resource-limiter registry for one phase: a
// counting semaphore of fixed capacity per distinct node.
type nodeGates struct {
	gates map[string]chan struct{}
}

func newNodeGates(targets []catalog.Target, capacity int) *nodeGates {
	gates := make(map[string]chan struct{})
	for _, t := range targets {
		if _, ok := gates[t.Node.TAPEndpoint]; !ok {
			gates[t.Node.TAPEndpoint] = make(chan struct{}, capacity)
		}
	}
	return &nodeGates{gates: gates}
}

func newNodeGatesForFragments(frags []*fragment.Fragment, capacity int) *nodeGates {
	gates := make(map[string]chan struct{})
	for _, f := range frags {
		if _, ok := gates[f.Node.TAPEndpoint]; !ok {
			gates[f.Node.TAPEndpoint] = make(chan struct{}, capacity)
		}
	}
	return &nodeGates{gates: gates}
}

func (n *nodeGates) nodeCount() int {
	if len(n.gates) == 0 {
		return 1
	}
	return len(n.gates)
}

// acquire blocks until the node has a free slot and returns the release.
func (n *nodeGates) acquire(node catalog.Node) func() {
	gate := n.gates[node.TAPEndpoint]
	gate <- struct{}{}
	return func() { <-gate }
}
