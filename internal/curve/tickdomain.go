// Package curve aligns loss-exceedance curves from simulated risk results
// onto shared probability grids and renders them as LEC responses.
package curve

import "sort"

// TickDomain is a deduplicated, descending-sorted set of exceedance
// probabilities in (0,1]. Domains form a join-semilattice under Union,
// ordered by Contains.
type TickDomain struct {
	ticks []float64
}

// EmptyDomain returns the domain with no ticks, the bottom of the lattice.
func EmptyDomain() TickDomain {
	return TickDomain{}
}

// FromProbabilities builds a domain from arbitrary probabilities: values
// outside (0,1] are dropped, duplicates collapse, order is descending.
func FromProbabilities(ps []float64) TickDomain {
	seen := make(map[float64]struct{}, len(ps))
	ticks := make([]float64, 0, len(ps))
	for _, p := range ps {
		if p <= 0 || p > 1 {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		ticks = append(ticks, p)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ticks)))
	return TickDomain{ticks: ticks}
}

// Ticks returns the probabilities in descending order.
func (d TickDomain) Ticks() []float64 {
	out := make([]float64, len(d.ticks))
	copy(out, d.ticks)
	return out
}

// Len returns the number of ticks.
func (d TickDomain) Len() int { return len(d.ticks) }

// IsEmpty reports whether the domain has no ticks.
func (d TickDomain) IsEmpty() bool { return len(d.ticks) == 0 }

// Contains reports whether every tick of other is present in d.
func (d TickDomain) Contains(other TickDomain) bool {
	i := 0
	for _, t := range other.ticks {
		for i < len(d.ticks) && d.ticks[i] > t {
			i++
		}
		if i >= len(d.ticks) || d.ticks[i] != t {
			return false
		}
	}
	return true
}

// Union returns the semilattice join of the two domains.
func (d TickDomain) Union(other TickDomain) TickDomain {
	merged := make([]float64, 0, len(d.ticks)+len(other.ticks))
	i, j := 0, 0
	for i < len(d.ticks) && j < len(other.ticks) {
		switch {
		case d.ticks[i] > other.ticks[j]:
			merged = append(merged, d.ticks[i])
			i++
		case d.ticks[i] < other.ticks[j]:
			merged = append(merged, other.ticks[j])
			j++
		default:
			merged = append(merged, d.ticks[i])
			i++
			j++
		}
	}
	merged = append(merged, d.ticks[i:]...)
	merged = append(merged, other.ticks[j:]...)
	return TickDomain{ticks: merged}
}

// ExpandTo returns target unchanged when it already contains d, so repeated
// expansion onto the same grid is idempotent. Otherwise it returns the union.
func (d TickDomain) ExpandTo(target TickDomain) TickDomain {
	if target.Contains(d) {
		return target
	}
	return d.Union(target)
}

// Equal reports whether the two domains hold the same ticks.
func (d TickDomain) Equal(other TickDomain) bool {
	if len(d.ticks) != len(other.ticks) {
		return false
	}
	for i := range d.ticks {
		if d.ticks[i] != other.ticks[i] {
			return false
		}
	}
	return true
}
