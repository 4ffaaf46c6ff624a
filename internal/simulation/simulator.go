package simulation

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// minParallelOccurrences is the occurring-trial count below which loss
// computation stays sequential; batching overhead dominates under it.
const minParallelOccurrences = 100

// ctxCheckInterval is how many loop iterations pass between cancellation
// checks in the hot sampling loops.
const ctxCheckInterval = 4096

// Simulator runs bounded-parallel Monte Carlo simulations. Cross-leaf
// concurrency and trial-batch concurrency are bounded by two independent
// semaphores, never nested pools, so the worker count cannot multiply.
type Simulator struct {
	cfg      Config
	log      zerolog.Logger
	riskSem  *semaphore.Weighted
	trialSem *semaphore.Weighted
}

// NewSimulator builds a Simulator owning the given config. Non-positive
// bounds are raised to 1.
func NewSimulator(cfg Config, log zerolog.Logger) *Simulator {
	cfg = normalizeConfig(cfg)
	return &Simulator{
		cfg:      cfg,
		log:      log.With().Str("component", "simulator").Logger(),
		riskSem:  semaphore.NewWeighted(int64(cfg.MaxConcurrentSimulations)),
		trialSem: semaphore.NewWeighted(int64(cfg.TrialParallelism)),
	}
}

// Config returns the simulator's normalized configuration.
func (s *Simulator) Config() Config { return s.cfg }

// Simulate runs every sampler and returns results in sampler order. Leaf
// simulations run concurrently under the risk-level bound; loss batches
// inside each leaf run under the trial-level bound. Output is identical to
// SimulateSequential for the same seeds.
func (s *Simulator) Simulate(ctx context.Context, samplers []*RiskSampler) ([]*RiskResult, error) {
	s.log.Debug().Int("risks", len(samplers)).Int("trials", s.cfg.Trials).Msg("starting simulation")

	results := make([]*RiskResult, len(samplers))
	g, gctx := errgroup.WithContext(ctx)

	for i, sampler := range samplers {
		g.Go(func() error {
			if err := s.riskSem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer s.riskSem.Release(1)

			outcomes, err := s.performTrials(gctx, sampler, s.cfg.Trials, s.cfg.TrialParallelism)
			if err != nil {
				return fmt.Errorf("simulating %s: %w", sampler.NodeID(), err)
			}
			results[i] = NewRiskResult(sampler.NodeID(), sampler.Name(), s.cfg.Trials, outcomes)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// SimulateSequential is the same algorithm with all parallelism forced to
// 1. It is the correctness oracle for Simulate: both must produce
// byte-identical sparse maps for identical seeds.
func (s *Simulator) SimulateSequential(ctx context.Context, samplers []*RiskSampler) ([]*RiskResult, error) {
	results := make([]*RiskResult, len(samplers))
	for i, sampler := range samplers {
		outcomes, err := s.performTrials(ctx, sampler, s.cfg.Trials, 1)
		if err != nil {
			return nil, fmt.Errorf("simulating %s: %w", sampler.NodeID(), err)
		}
		results[i] = NewRiskResult(sampler.NodeID(), sampler.Name(), s.cfg.Trials, outcomes)
	}
	return results, nil
}

// performTrials produces the sparse outcome map for one sampler. The
// occurrence filter stays sequential (branch-bound, not compute-bound);
// loss computation fans out over contiguous batches of occurring trials
// when there are enough of them.
func (s *Simulator) performTrials(ctx context.Context, sampler *RiskSampler, nTrials, parallelism int) (map[int]int64, error) {
	occurring := make([]int, 0, nTrials/16)
	for t := 0; t < nTrials; t++ {
		if t%ctxCheckInterval == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if sampler.SampleOccurrence(t) {
			occurring = append(occurring, t)
		}
	}

	if len(occurring) < minParallelOccurrences || parallelism <= 1 {
		outcomes := make(map[int]int64, len(occurring))
		for i, t := range occurring {
			if i%ctxCheckInterval == 0 && ctx.Err() != nil {
				return nil, ctx.Err()
			}
			outcomes[t] = sampler.SampleLoss(t)
		}
		return outcomes, nil
	}

	// Trial ids are disjoint across batches, so the maps merge without
	// conflicts or locks.
	batches := partitionTrials(occurring, parallelism)
	batchMaps := make([]map[int]int64, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range batches {
		g.Go(func() error {
			if err := s.trialSem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer s.trialSem.Release(1)

			outcomes := make(map[int]int64, len(batch))
			for j, t := range batch {
				if j%ctxCheckInterval == 0 && gctx.Err() != nil {
					return gctx.Err()
				}
				outcomes[t] = sampler.SampleLoss(t)
			}
			batchMaps[i] = outcomes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[int]int64, len(occurring))
	for _, batch := range batchMaps {
		for t, loss := range batch {
			merged[t] = loss
		}
	}
	return merged, nil
}

// partitionTrials splits occurring trials into at most parts contiguous
// batches of near-equal size.
func partitionTrials(trials []int, parts int) [][]int {
	if len(trials) == 0 {
		return nil
	}
	if parts > len(trials) {
		parts = len(trials)
	}
	batchSize := (len(trials) + parts - 1) / parts

	var batches [][]int
	for start := 0; start < len(trials); start += batchSize {
		end := min(start+batchSize, len(trials))
		batches = append(batches, trials[start:end])
	}
	return batches
}
