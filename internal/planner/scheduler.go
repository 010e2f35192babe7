package planner

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"spectral/internal/fragment"
)

// Executor runs the fetch-and-convert pipeline for one leaf fragment. It
// mutates the fragment in place and never reports errors upward.
type Executor interface {
	Process(ctx context.Context, frag *fragment.Fragment)
}

// Scheduler runs an Executor over all leaf fragments with the same bounded
// shape as the planner: per-node semaphore of capacity k, pool of
// k times nodeCount. There is no recursion here; each task is one
// fetch-and-convert call.
type Scheduler struct {
	executor    Executor
	concurrency int
	logger      *zap.Logger
	progress    Progress
}

// NewScheduler creates a scheduler executing at most concurrency fragments
// per node at a time.
func NewScheduler(executor Executor, concurrency int, logger *zap.Logger) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{executor: executor, concurrency: concurrency, logger: logger}
}

// OnProgress registers a progress observer.
func (s *Scheduler) OnProgress(fn Progress) {
	s.progress = fn
}

// Run executes every leaf and waits for all tasks to finish. A failing
// fragment delays only its own semaphore slot; the pool keeps servicing
// other queued tasks.
func (s *Scheduler) Run(ctx context.Context, leaves []*fragment.Fragment) {
	gates := newNodeGatesForFragments(leaves, s.concurrency)

	var done atomic.Int64
	total := len(leaves)

	g := new(errgroup.Group)
	g.SetLimit(s.concurrency * gates.nodeCount())

	for _, leaf := range leaves {
		leaf := leaf
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					leaf.Conversion = fragment.ConversionFailed
					s.logger.Error("fetch task panicked",
						zap.String("fragment", leaf.ID),
						zap.String("endpoint", leaf.Node.TAPEndpoint),
						zap.Any("panic", r))
				}
				if s.progress != nil {
					s.progress(int(done.Add(1)), total)
				}
			}()

			release := gates.acquire(leaf.Node)
			defer release()
			s.executor.Process(ctx, leaf)
			return nil
		})
	}
	_ = g.Wait()
}
