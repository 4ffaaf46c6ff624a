package simulation

import (
	"fmt"
	"math/big"
	"sort"
	"sync"

	"github.com/lossrange/lossrange/internal/domain"
)

// LossCount pairs a distinct loss value with its simulated frequency.
type LossCount struct {
	Loss  int64
	Count int
}

// RiskResult holds the sparse outcome map of one simulated node: only
// trials where the risk occurred are present. A present trial with loss 0
// is distinct from an absent trial. Results combine under an
// associative/commutative monoid whose identity is Empty().
type RiskResult struct {
	nodeID   domain.NodeID
	name     string
	nTrials  int
	outcomes map[int]int64

	countOnce sync.Once
	counts    []LossCount
}

// NewRiskResult wraps a sparse trial→loss map. The map is owned by the
// result afterwards and must not be mutated by the caller.
func NewRiskResult(nodeID domain.NodeID, name string, nTrials int, outcomes map[int]int64) *RiskResult {
	if outcomes == nil {
		outcomes = map[int]int64{}
	}
	return &RiskResult{nodeID: nodeID, name: name, nTrials: nTrials, outcomes: outcomes}
}

// Empty returns the combine identity: no outcomes, zero trials.
func Empty() *RiskResult {
	return NewRiskResult("", "", 0, nil)
}

// NodeID returns the label id of the result. Labels are not part of the
// combine algebra.
func (r *RiskResult) NodeID() domain.NodeID { return r.nodeID }

// Name returns the label name of the result.
func (r *RiskResult) Name() string { return r.name }

// NTrials returns the trial count the outcomes were sampled over.
func (r *RiskResult) NTrials() int { return r.nTrials }

// Len returns the number of occurring trials.
func (r *RiskResult) Len() int { return len(r.outcomes) }

// Outcomes returns the sparse trial→loss map. Callers must not mutate it.
func (r *RiskResult) Outcomes() map[int]int64 { return r.outcomes }

// OutcomeOf returns the loss for a trial, 0 when the trial is absent.
func (r *RiskResult) OutcomeOf(trial int) int64 { return r.outcomes[trial] }

func (r *RiskResult) isIdentity() bool {
	return r.nTrials == 0 && len(r.outcomes) == 0
}

// WithLabel returns the same outcomes relabeled with a different node.
func (r *RiskResult) WithLabel(nodeID domain.NodeID, name string) *RiskResult {
	return NewRiskResult(nodeID, name, r.nTrials, r.outcomes)
}

func (r *RiskResult) clone() *RiskResult {
	return NewRiskResult(r.nodeID, r.name, r.nTrials, r.outcomes)
}

// Combine merges two results by summing losses per trial id (missing = 0).
// Operands must agree on nTrials unless one is the identity; any other
// mismatch is a contract violation and panics. The receiver's label wins.
func (r *RiskResult) Combine(other *RiskResult) *RiskResult {
	if r.isIdentity() {
		return other.clone()
	}
	if other.isIdentity() {
		return r.clone()
	}
	if r.nTrials != other.nTrials {
		panic(fmt.Sprintf("simulation: combining results with mismatched trial counts (%d vs %d)", r.nTrials, other.nTrials))
	}

	merged := make(map[int]int64, len(r.outcomes)+len(other.outcomes))
	for trial, loss := range r.outcomes {
		merged[trial] = loss
	}
	for trial, loss := range other.outcomes {
		merged[trial] += loss
	}
	return NewRiskResult(r.nodeID, r.name, r.nTrials, merged)
}

// Equal reports whether two results carry the same algebraic content:
// equal nTrials and equal sparse outcome maps. Labels are ignored.
func (r *RiskResult) Equal(other *RiskResult) bool {
	if r.nTrials != other.nTrials || len(r.outcomes) != len(other.outcomes) {
		return false
	}
	for trial, loss := range r.outcomes {
		otherLoss, ok := other.outcomes[trial]
		if !ok || otherLoss != loss {
			return false
		}
	}
	return true
}

// OutcomeCount returns the frequency table of distinct losses, sorted by
// ascending loss. Built once on first access.
func (r *RiskResult) OutcomeCount() []LossCount {
	r.countOnce.Do(func() {
		freq := make(map[int64]int)
		for _, loss := range r.outcomes {
			freq[loss]++
		}
		counts := make([]LossCount, 0, len(freq))
		for loss, count := range freq {
			counts = append(counts, LossCount{Loss: loss, Count: count})
		}
		sort.Slice(counts, func(i, j int) bool { return counts[i].Loss < counts[j].Loss })
		r.counts = counts
	})
	return r.counts
}

// MinLoss returns the smallest occurring loss, 0 when there are none.
func (r *RiskResult) MinLoss() int64 {
	counts := r.OutcomeCount()
	if len(counts) == 0 {
		return 0
	}
	return counts[0].Loss
}

// MaxLoss returns the largest occurring loss, 0 when there are none.
func (r *RiskResult) MaxLoss() int64 {
	counts := r.OutcomeCount()
	if len(counts) == 0 {
		return 0
	}
	return counts[len(counts)-1].Loss
}

// ProbOfExceedance returns the exact probability of a trial losing at least
// threshold, as the rational count/nTrials. Exactness matters at the low
// probabilities LEC tails live in; floats would round them away.
func (r *RiskResult) ProbOfExceedance(threshold int64) *big.Rat {
	if r.nTrials == 0 {
		return new(big.Rat)
	}

	count := 0
	for _, lc := range r.OutcomeCount() {
		if lc.Loss >= threshold {
			count += lc.Count
		}
	}
	return big.NewRat(int64(count), int64(r.nTrials))
}
