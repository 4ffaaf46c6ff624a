//go:build property
// +build property

// Package curve_test contains property-based tests for the tick-domain
// semilattice laws and curve resampling.
package curve_test

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/lossrange/lossrange/internal/curve"
)

func tickGen() gopter.Gen {
	return gen.SliceOf(gen.Float64Range(0.001, 1.0))
}

// TestUnionLattice verifies the semilattice laws of tick-domain union.
// Property: union is commutative, associative, idempotent; empty is identity
func TestUnionLattice(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("union is commutative", prop.ForAll(
		func(ps, qs []float64) bool {
			a := curve.FromProbabilities(ps)
			b := curve.FromProbabilities(qs)
			return a.Union(b).Equal(b.Union(a))
		},
		tickGen(),
		tickGen(),
	))

	properties.Property("union is associative", prop.ForAll(
		func(ps, qs, rs []float64) bool {
			a := curve.FromProbabilities(ps)
			b := curve.FromProbabilities(qs)
			c := curve.FromProbabilities(rs)
			return a.Union(b).Union(c).Equal(a.Union(b.Union(c)))
		},
		tickGen(),
		tickGen(),
		tickGen(),
	))

	properties.Property("union is idempotent with empty as identity", prop.ForAll(
		func(ps []float64) bool {
			a := curve.FromProbabilities(ps)
			return a.Union(a).Equal(a) && a.Union(curve.EmptyDomain()).Equal(a)
		},
		tickGen(),
	))

	properties.TestingRun(t)
}

// TestExpandToJoins verifies ExpandTo lands on a domain containing both
// operands and is stable once the target already contains the receiver.
func TestExpandToJoins(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("expanded domain contains both operands", prop.ForAll(
		func(ps, qs []float64) bool {
			a := curve.FromProbabilities(ps)
			b := curve.FromProbabilities(qs)
			joined := a.ExpandTo(b)
			return joined.Contains(a) && joined.Contains(b)
		},
		tickGen(),
		tickGen(),
	))

	properties.Property("expanding onto a containing target returns it", prop.ForAll(
		func(ps, qs []float64) bool {
			a := curve.FromProbabilities(ps)
			target := a.Union(curve.FromProbabilities(qs))
			return a.ExpandTo(target).Equal(target) && a.ExpandTo(a).Equal(a)
		},
		tickGen(),
		tickGen(),
	))

	properties.TestingRun(t)
}

// TestFromProbabilitiesShape verifies the constructor output is always a
// strictly descending sequence inside (0,1].
func TestFromProbabilitiesShape(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("ticks are strictly descending in (0,1]", prop.ForAll(
		func(ps []float64) bool {
			ticks := curve.FromProbabilities(ps).Ticks()
			for i, tick := range ticks {
				if tick <= 0 || tick > 1 {
					return false
				}
				if i > 0 && ticks[i-1] <= tick {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(-1, 2)),
	))

	properties.TestingRun(t)
}

// TestResampleKeepsMeasuredLosses verifies expansion never changes the loss
// at a tick that was originally measured.
func TestResampleKeepsMeasuredLosses(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("measured ticks keep their losses", prop.ForAll(
		func(ps, qs []float64, base int64) bool {
			measured := curve.FromProbabilities(ps)
			if measured.IsEmpty() {
				return true
			}
			losses := make([]int64, measured.Len())
			for i := range losses {
				losses[i] = base + int64(i)*1_000
			}

			bundle, err := curve.NewBundle().WithCurve("n", measured, losses)
			if err != nil {
				return false
			}
			expanded := bundle.ExpandTo(curve.FromProbabilities(qs))

			curveLosses, ok := expanded.Curve("n")
			if !ok {
				return false
			}
			ticks := expanded.Domain().Ticks()
			want := make(map[float64]int64, measured.Len())
			for i, tick := range measured.Ticks() {
				want[tick] = losses[i]
			}
			for i, tick := range ticks {
				if loss, ok := want[tick]; ok && curveLosses[i] != loss {
					return false
				}
			}
			return true
		},
		tickGen(),
		tickGen(),
		gen.Int64Range(0, 1_000_000),
	))

	properties.TestingRun(t)
}
