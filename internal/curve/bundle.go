package curve

import (
	"fmt"
	"math"

	"github.com/lossrange/lossrange/internal/domain"
	"github.com/lossrange/lossrange/internal/simulation"
)

// Bundle holds loss curves for one or more nodes, all sampled on the same
// tick domain: curve entry i is the loss whose exceedance probability is
// tick i. Operations return new bundles; operands are never mutated.
type Bundle struct {
	domain TickDomain
	curves map[domain.NodeID][]int64
}

// NewBundle returns a bundle with no curves and an empty domain.
func NewBundle() *Bundle {
	return &Bundle{domain: EmptyDomain(), curves: map[domain.NodeID][]int64{}}
}

// FromResult builds a single-node bundle from a result's frequency table.
// Ticks are the exact exceedance probabilities of each distinct loss, so the
// curve reproduces the empirical LEC without interpolation error. A result
// with no occurrences yields an empty curve.
func FromResult(r *simulation.RiskResult) *Bundle {
	counts := r.OutcomeCount()
	nTrials := r.NTrials()
	if nTrials == 0 || len(counts) == 0 {
		return &Bundle{
			domain: EmptyDomain(),
			curves: map[domain.NodeID][]int64{r.NodeID(): {}},
		}
	}

	// Losses ascend through the table, so their exceedance probabilities
	// descend: the suffix sums line up with the domain order directly.
	ticks := make([]float64, len(counts))
	losses := make([]int64, len(counts))
	suffix := 0
	for i := len(counts) - 1; i >= 0; i-- {
		suffix += counts[i].Count
		ticks[i] = float64(suffix) / float64(nTrials)
		losses[i] = counts[i].Loss
	}

	return &Bundle{
		domain: TickDomain{ticks: ticks},
		curves: map[domain.NodeID][]int64{r.NodeID(): losses},
	}
}

// Domain returns the shared tick domain.
func (b *Bundle) Domain() TickDomain { return b.domain }

// NodeIDs returns the ids of all nodes with a curve in the bundle.
func (b *Bundle) NodeIDs() []domain.NodeID {
	ids := make([]domain.NodeID, 0, len(b.curves))
	for id := range b.curves {
		ids = append(ids, id)
	}
	return ids
}

// Curve returns the loss vector for id, aligned with Domain().Ticks().
func (b *Bundle) Curve(id domain.NodeID) ([]int64, bool) {
	losses, ok := b.curves[id]
	if !ok {
		return nil, false
	}
	out := make([]int64, len(losses))
	copy(out, losses)
	return out, true
}

// ExpandTo re-samples every curve onto the expansion of the bundle's domain
// by target. Ticks already measured keep their exact losses; new ticks
// between measured ones interpolate linearly; ticks beyond the measured
// range clamp to the nearest measured loss.
func (b *Bundle) ExpandTo(target TickDomain) *Bundle {
	expanded := b.domain.ExpandTo(target)
	if expanded.Equal(b.domain) {
		return b
	}
	curves := make(map[domain.NodeID][]int64, len(b.curves))
	for id, losses := range b.curves {
		curves[id] = resample(b.domain, losses, expanded)
	}
	return &Bundle{domain: expanded, curves: curves}
}

// WithCurve adds a curve measured on its own domain, expanding both the
// bundle and the new curve onto the shared union grid. Adding an id the
// bundle already holds is an error.
func (b *Bundle) WithCurve(id domain.NodeID, measured TickDomain, losses []int64) (*Bundle, error) {
	if len(losses) != measured.Len() {
		return nil, fmt.Errorf("curve for %q has %d losses for %d ticks", id, len(losses), measured.Len())
	}
	owned := make([]int64, len(losses))
	copy(owned, losses)
	single := &Bundle{
		domain: measured,
		curves: map[domain.NodeID][]int64{id: owned},
	}
	return b.Combine(single)
}

// Combine merges two bundles onto the union of their domains. The node-id
// sets must be disjoint: a colliding id means two sources claim the same
// node's curve, and silently preferring one would be order-dependent.
func (b *Bundle) Combine(other *Bundle) (*Bundle, error) {
	for id := range other.curves {
		if _, exists := b.curves[id]; exists {
			return nil, fmt.Errorf("both bundles carry a curve for node %q", id)
		}
	}

	union := b.domain.Union(other.domain)
	left := b.ExpandTo(union)
	right := other.ExpandTo(union)

	curves := make(map[domain.NodeID][]int64, len(left.curves)+len(right.curves))
	for id, losses := range left.curves {
		curves[id] = losses
	}
	for id, losses := range right.curves {
		curves[id] = losses
	}
	return &Bundle{domain: union, curves: curves}, nil
}

// LECPoint is one sample of a loss-exceedance curve.
type LECPoint struct {
	Loss                  int64   `json:"loss"`
	ExceedanceProbability float64 `json:"exceedance_probability"`
}

// LECCurve is the renderable loss-exceedance curve of one node.
type LECCurve struct {
	NodeID   domain.NodeID   `json:"node_id"`
	Name     string          `json:"name"`
	ChildIDs []domain.NodeID `json:"child_ids,omitempty"`
	Points   []LECPoint      `json:"points"`
}

// ToLECCurve zips the domain ticks with the node's losses into (loss,
// exceedance probability) pairs in tick order. The second return is false
// when the bundle holds no curve for the node.
func (b *Bundle) ToLECCurve(id domain.NodeID, name string, childIDs []domain.NodeID) (*LECCurve, bool) {
	losses, ok := b.curves[id]
	if !ok {
		return nil, false
	}

	points := make([]LECPoint, len(losses))
	for i, loss := range losses {
		points[i] = LECPoint{Loss: loss, ExceedanceProbability: b.domain.ticks[i]}
	}
	return &LECCurve{NodeID: id, Name: name, ChildIDs: childIDs, Points: points}, true
}

// resample maps a loss vector measured on orig onto target, which must
// contain orig. Matching ticks copy exactly; ticks above the measured
// maximum floor to its loss, ticks below the measured minimum ceil to its
// loss, and interior ticks interpolate linearly on probability position.
func resample(orig TickDomain, losses []int64, target TickDomain) []int64 {
	out := make([]int64, len(target.ticks))
	if len(orig.ticks) == 0 {
		return out
	}

	j := 0
	for i, t := range target.ticks {
		for j < len(orig.ticks) && orig.ticks[j] > t {
			j++
		}
		switch {
		case j < len(orig.ticks) && orig.ticks[j] == t:
			out[i] = losses[j]
		case j == 0:
			out[i] = losses[0]
		case j == len(orig.ticks):
			out[i] = losses[len(losses)-1]
		default:
			hi, lo := orig.ticks[j-1], orig.ticks[j]
			frac := (hi - t) / (hi - lo)
			value := float64(losses[j-1]) + (float64(losses[j])-float64(losses[j-1]))*frac
			out[i] = int64(math.Round(value))
		}
	}
	return out
}
