package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleOutcomes() map[int]int64 {
	return map[int]int64{0: 100, 1: 200, 2: 300, 3: 400}
}

func TestDenseLosses_FillsAbsentTrialsWithZero(t *testing.T) {
	losses := DenseLosses(sampleOutcomes(), 8)
	assert.Equal(t, []float64{100, 200, 300, 400, 0, 0, 0, 0}, losses)
}

func TestDenseLosses_DropsOutOfRangeTrials(t *testing.T) {
	losses := DenseLosses(map[int]int64{0: 5, 9: 7, -1: 3}, 2)
	assert.Equal(t, []float64{5, 0}, losses)
}

func TestDenseLosses_EmptyTrials(t *testing.T) {
	assert.Empty(t, DenseLosses(sampleOutcomes(), 0))
	assert.Equal(t, []float64{0, 0}, DenseLosses(nil, 2))
}

func TestMeanAndStdDev(t *testing.T) {
	losses := DenseLosses(sampleOutcomes(), 8)

	assert.InDelta(t, 125.0, Mean(losses), 1e-9)
	assert.InDelta(t, 158.113883, StdDev(losses), 1e-5)
	assert.Zero(t, Mean(nil))
	assert.Zero(t, StdDev(nil))
}

func TestValueAtRisk(t *testing.T) {
	losses := DenseLosses(sampleOutcomes(), 8)

	tests := []struct {
		name     string
		alpha    float64
		expected float64
	}{
		{name: "median of mostly-quiet trials", alpha: 0.50, expected: 0},
		{name: "95th percentile", alpha: 0.95, expected: 400},
		{name: "75th percentile", alpha: 0.75, expected: 200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ValueAtRisk(losses, tt.alpha), 1e-9)
		})
	}

	assert.Zero(t, ValueAtRisk(nil, 0.95))
}

func TestExpectedShortfall(t *testing.T) {
	losses := DenseLosses(sampleOutcomes(), 8)

	tests := []struct {
		name     string
		alpha    float64
		expected float64
	}{
		{name: "worst 5 percent", alpha: 0.95, expected: 400},
		{name: "worst quarter", alpha: 0.75, expected: 350},
		{name: "worst half", alpha: 0.50, expected: 250},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, ExpectedShortfall(losses, tt.alpha), 1e-9)
		})
	}

	assert.Zero(t, ExpectedShortfall(nil, 0.95))
}

func TestExpectedShortfall_AtLeastOneSample(t *testing.T) {
	// alpha so high the tail rounds to zero samples; keep one.
	assert.InDelta(t, 9.0, ExpectedShortfall([]float64{1, 9}, 0.9999), 1e-9)
}

func TestSummarize(t *testing.T) {
	summary := Summarize(sampleOutcomes(), 8)

	assert.Equal(t, 8, summary.Trials)
	assert.Equal(t, 4, summary.Occurred)
	assert.InDelta(t, 125.0, summary.Mean, 1e-9)
	assert.InDelta(t, 158.113883, summary.StdDev, 1e-5)
	assert.InDelta(t, 400.0, summary.MaxLoss, 1e-9)
	assert.InDelta(t, 400.0, summary.VaR95, 1e-9)
	assert.InDelta(t, 400.0, summary.ES95, 1e-9)
}

func TestSummarize_EmptyResult(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil, 0))

	quiet := Summarize(nil, 100)
	assert.Equal(t, 100, quiet.Trials)
	assert.Zero(t, quiet.Occurred)
	assert.Zero(t, quiet.Mean)
	assert.Zero(t, quiet.VaR99)
}
