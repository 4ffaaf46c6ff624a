package simulation

import (
	"math"

	"github.com/lossrange/lossrange/internal/distribution"
	"github.com/lossrange/lossrange/internal/domain"
)

// RiskSampler draws deterministic per-trial occurrence and loss samples for
// one leaf risk. Occurrence and loss use distinct derived variable ids, so
// the two streams never correlate.
type RiskSampler struct {
	nodeID         domain.NodeID
	name           string
	occurrenceVar  uint64
	lossVar        uint64
	occurrenceProb float64
	dist           distribution.Distribution
	seeds          Seeds
}

// NewRiskSampler builds a sampler for one leaf. riskSeed individualizes the
// leaf's draw streams; seeds are the run-global components.
func NewRiskSampler(
	nodeID domain.NodeID,
	name string,
	riskSeed uint64,
	occurrenceProb float64,
	dist distribution.Distribution,
	seeds Seeds,
) *RiskSampler {
	return &RiskSampler{
		nodeID:         nodeID,
		name:           name,
		occurrenceVar:  2 * riskSeed,
		lossVar:        2*riskSeed + 1,
		occurrenceProb: occurrenceProb,
		dist:           dist,
		seeds:          seeds,
	}
}

// SamplerFromLeaf fits the leaf's distribution and builds its sampler.
func SamplerFromLeaf(leaf domain.RiskLeaf, seeds Seeds) (*RiskSampler, error) {
	dist, err := distribution.FromLeaf(leaf)
	if err != nil {
		return nil, err
	}
	return NewRiskSampler(leaf.ID, leaf.Name, riskSeedFor(leaf.ID), leaf.Probability, dist, seeds), nil
}

// NodeID returns the id of the leaf this sampler draws for.
func (s *RiskSampler) NodeID() domain.NodeID { return s.nodeID }

// Name returns the leaf's display name.
func (s *RiskSampler) Name() string { return s.name }

// SampleOccurrence reports whether the risk occurs in the given trial.
func (s *RiskSampler) SampleOccurrence(trial int) bool {
	u := uniformDraw(s.seeds.Entity, s.occurrenceVar, s.seeds.Seed3, s.seeds.Seed4, uint64(trial))
	return u < s.occurrenceProb
}

// SampleLoss returns the loss for the given trial, assuming it occurs.
// The quantile value rounds half away from zero into an int64 loss.
func (s *RiskSampler) SampleLoss(trial int) int64 {
	u := uniformDraw(s.seeds.Entity, s.lossVar, s.seeds.Seed3, s.seeds.Seed4, uint64(trial))
	return int64(math.Round(s.dist.Sample(u)))
}
