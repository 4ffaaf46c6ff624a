// Package distribution fits continuous loss distributions from leaf
// risk parameters and exposes them through a shared quantile interface.
package distribution

import (
	"fmt"

	"github.com/lossrange/lossrange/internal/domain"
)

// probEpsilon keeps probabilities away from {0,1} before logit/quantile
// transforms that are undefined at the endpoints.
const probEpsilon = 1e-9

// Distribution is a fitted loss distribution exposed as its quantile
// function.
type Distribution interface {
	// Quantile returns the loss at cumulative probability p.
	Quantile(p float64) float64
	// Sample maps a uniform draw u in [0,1) to a loss. Alias for Quantile;
	// the sampler feeds it deterministic uniforms.
	Sample(u float64) float64
}

// FromLeaf fits the distribution a leaf's parameters describe.
func FromLeaf(leaf domain.RiskLeaf) (Distribution, error) {
	switch leaf.DistributionType {
	case domain.DistributionExpert:
		return FitMetalog(leaf.Percentiles, leaf.Quantiles, len(leaf.Percentiles), nil, nil)
	case domain.DistributionLognormal:
		return LogNormalFrom90CI(leaf.MinLoss, leaf.MaxLoss)
	default:
		return nil, fmt.Errorf("unknown distribution type %q", leaf.DistributionType)
	}
}

func clampProb(p float64) float64 {
	if p < probEpsilon {
		return probEpsilon
	}
	if p > 1-probEpsilon {
		return 1 - probEpsilon
	}
	return p
}
