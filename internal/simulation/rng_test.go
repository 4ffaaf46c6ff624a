package simulation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniformDraw_PureFunctionOfKey(t *testing.T) {
	u1 := uniformDraw(1, 2, 3, 4, 5)
	u2 := uniformDraw(1, 2, 3, 4, 5)
	assert.Equal(t, u1, u2)

	// Any key component change yields a different draw.
	assert.NotEqual(t, u1, uniformDraw(9, 2, 3, 4, 5))
	assert.NotEqual(t, u1, uniformDraw(1, 9, 3, 4, 5))
	assert.NotEqual(t, u1, uniformDraw(1, 2, 9, 4, 5))
	assert.NotEqual(t, u1, uniformDraw(1, 2, 3, 9, 5))
	assert.NotEqual(t, u1, uniformDraw(1, 2, 3, 4, 9))
}

func TestUniformDraw_InUnitInterval(t *testing.T) {
	for trial := uint64(0); trial < 2000; trial++ {
		u := uniformDraw(7, 11, 13, 17, trial)
		assert.GreaterOrEqual(t, u, 0.0)
		assert.Less(t, u, 1.0)
	}
}

func TestUniformDraw_RoughlyUniform(t *testing.T) {
	// Mean of 10k draws should sit near 0.5. Seeds are fixed, so this is a
	// deterministic check on the mapping, not a flaky statistical one.
	sum := 0.0
	const n = 10_000
	for trial := uint64(0); trial < n; trial++ {
		sum += uniformDraw(42, 1, 0, 0, trial)
	}
	mean := sum / n
	assert.InDelta(t, 0.5, mean, 0.02)
}

func TestRiskSeedFor_StableAndDistinct(t *testing.T) {
	assert.Equal(t, riskSeedFor("ransomware"), riskSeedFor("ransomware"))
	assert.NotEqual(t, riskSeedFor("ransomware"), riskSeedFor("outage"))
}
