package distribution

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lossrange/lossrange/internal/domain"
)

func fitErrors(t *testing.T, err error) domain.ValidationErrors {
	t.Helper()
	require.Error(t, err)
	var errs domain.ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.NotEmpty(t, errs)
	return errs
}

func floatPtr(v float64) *float64 {
	return &v
}

func TestFitMetalog_ReproducesInputPoints(t *testing.T) {
	percentiles := []float64{0.1, 0.5, 0.9}
	quantiles := []float64{100_000, 500_000, 2_000_000}

	m, err := FitMetalog(percentiles, quantiles, 3, nil, nil)
	require.NoError(t, err)

	// With terms == point count the fit interpolates the inputs exactly.
	for i, p := range percentiles {
		assert.InDelta(t, quantiles[i], m.Quantile(p), 1e-4)
	}
}

func TestFitMetalog_MonotoneOverFittedDomain(t *testing.T) {
	m, err := FitMetalog(
		[]float64{0.05, 0.25, 0.5, 0.75, 0.95},
		[]float64{1_000, 8_000, 25_000, 80_000, 400_000},
		5, nil, nil,
	)
	require.NoError(t, err)

	// Monotonicity is contractual over the fitted domain, here [0.05, 0.95].
	prev := math.Inf(-1)
	for p := 0.05; p <= 0.95; p += 0.001 {
		q := m.Quantile(p)
		require.False(t, math.IsNaN(q), "quantile at %v is NaN", p)
		require.GreaterOrEqual(t, q, prev, "quantile decreased at p=%v", p)
		prev = q
	}
}

func TestFitMetalog_LeastSquaresWithFewerTerms(t *testing.T) {
	m, err := FitMetalog(
		[]float64{0.05, 0.25, 0.5, 0.75, 0.95},
		[]float64{1_000, 8_000, 25_000, 80_000, 400_000},
		3, nil, nil,
	)
	require.NoError(t, err)

	prev := math.Inf(-1)
	for p := 0.05; p <= 0.95; p += 0.005 {
		q := m.Quantile(p)
		require.False(t, math.IsNaN(q))
		require.GreaterOrEqual(t, q, prev)
		prev = q
	}
}

func TestFitMetalog_BoundedStaysWithinBounds(t *testing.T) {
	m, err := FitMetalog(
		[]float64{0.1, 0.5, 0.9},
		[]float64{1_000, 4_000, 9_000},
		3,
		floatPtr(0), floatPtr(10_000),
	)
	require.NoError(t, err)

	// Interpolates the inputs through the logit transform.
	assert.InDelta(t, 1_000, m.Quantile(0.1), 1e-4)
	assert.InDelta(t, 4_000, m.Quantile(0.5), 1e-4)
	assert.InDelta(t, 9_000, m.Quantile(0.9), 1e-4)

	for _, p := range []float64{0.0001, 0.001, 0.999, 0.9999} {
		q := m.Quantile(p)
		assert.GreaterOrEqual(t, q, 0.0)
		assert.LessOrEqual(t, q, 10_000.0)
	}
}

func TestFitMetalog_LowerBoundedStaysAboveBound(t *testing.T) {
	m, err := FitMetalog(
		[]float64{0.1, 0.5, 0.9},
		[]float64{500, 5_000, 50_000},
		3,
		floatPtr(0), nil,
	)
	require.NoError(t, err)

	for _, p := range []float64{0.0001, 0.01, 0.5, 0.99, 0.9999} {
		assert.Greater(t, m.Quantile(p), 0.0)
	}
}

func TestFitMetalog_RejectsEmptyInputs(t *testing.T) {
	_, err := FitMetalog(nil, nil, 1, nil, nil)
	errs := fitErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeTooFewPoints))
}

func TestFitMetalog_RejectsLengthMismatch(t *testing.T) {
	_, err := FitMetalog([]float64{0.1, 0.9}, []float64{100}, 2, nil, nil)
	errs := fitErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeLengthMismatch))
}

func TestFitMetalog_RejectsUnsortedPercentiles(t *testing.T) {
	_, err := FitMetalog([]float64{0.9, 0.1}, []float64{100, 200}, 2, nil, nil)
	errs := fitErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeNotAscending))
}

func TestFitMetalog_RejectsOutOfRangePercentiles(t *testing.T) {
	_, err := FitMetalog([]float64{0.0, 0.5}, []float64{100, 200}, 2, nil, nil)
	errs := fitErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeInvalidProbability))
}

func TestFitMetalog_RejectsBadTermCount(t *testing.T) {
	_, err := FitMetalog([]float64{0.1, 0.9}, []float64{100, 200}, 3, nil, nil)
	errs := fitErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeInvalidTerms))

	_, err = FitMetalog([]float64{0.1, 0.9}, []float64{100, 200}, 0, nil, nil)
	errs = fitErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeInvalidTerms))
}

func TestFitMetalog_RejectsInvertedBounds(t *testing.T) {
	_, err := FitMetalog([]float64{0.1, 0.9}, []float64{100, 200}, 2, floatPtr(10), floatPtr(5))
	errs := fitErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeInvalidBounds))
}

func TestFitMetalog_RejectsQuantileOutsideBounds(t *testing.T) {
	_, err := FitMetalog([]float64{0.1, 0.9}, []float64{100, 200}, 2, floatPtr(150), nil)
	errs := fitErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeInvalidBounds))
}

func TestMetalog_SampleAliasesQuantile(t *testing.T) {
	m, err := FitMetalog([]float64{0.1, 0.5, 0.9}, []float64{100, 500, 2_000}, 3, nil, nil)
	require.NoError(t, err)

	for _, u := range []float64{0.05, 0.3, 0.77, 0.95} {
		assert.Equal(t, m.Quantile(u), m.Sample(u))
	}
}
