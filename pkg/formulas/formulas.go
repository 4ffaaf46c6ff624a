// Package formulas computes empirical statistics over simulated loss
// vectors. Inputs are plain slices and maps so callers outside the engine
// can reuse the formulas on their own data.
package formulas

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// DenseLosses expands a sparse trial→loss map into one value per trial.
// Trials without an occurrence count as zero loss.
func DenseLosses(outcomes map[int]int64, nTrials int) []float64 {
	if nTrials <= 0 {
		return []float64{}
	}
	losses := make([]float64, nTrials)
	for trial, loss := range outcomes {
		if trial >= 0 && trial < nTrials {
			losses[trial] = float64(loss)
		}
	}
	return losses
}

// Mean calculates the arithmetic mean of a slice of losses
func Mean(losses []float64) float64 {
	if len(losses) == 0 {
		return 0
	}
	return stat.Mean(losses, nil)
}

// StdDev calculates the standard deviation of a slice of losses
func StdDev(losses []float64) float64 {
	if len(losses) == 0 {
		return 0
	}
	return stat.StdDev(losses, nil)
}

// ValueAtRisk returns the empirical alpha-quantile of the losses, the loss
// level exceeded in at most (1-alpha) of trials.
func ValueAtRisk(losses []float64, alpha float64) float64 {
	if len(losses) == 0 {
		return 0
	}
	sorted := make([]float64, len(losses))
	copy(sorted, losses)
	sort.Float64s(sorted)
	return stat.Quantile(alpha, stat.Empirical, sorted, nil)
}

// ExpectedShortfall returns the mean loss across the worst (1-alpha) tail.
func ExpectedShortfall(losses []float64, alpha float64) float64 {
	if len(losses) == 0 {
		return 0
	}

	sorted := make([]float64, len(losses))
	copy(sorted, losses)
	sort.Float64s(sorted)

	tailCount := int(math.Ceil(float64(len(sorted)) * (1.0 - alpha)))
	if tailCount < 1 {
		tailCount = 1
	}
	if tailCount > len(sorted) {
		tailCount = len(sorted)
	}

	tail := sorted[len(sorted)-tailCount:]
	sum := 0.0
	for _, loss := range tail {
		sum += loss
	}
	return sum / float64(len(tail))
}

// Summary bundles the headline statistics of one simulated node.
type Summary struct {
	Trials   int     `json:"trials"`
	Occurred int     `json:"occurred"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	MaxLoss  float64 `json:"max_loss"`
	VaR95    float64 `json:"var_95"`
	VaR99    float64 `json:"var_99"`
	ES95     float64 `json:"es_95"`
	ES99     float64 `json:"es_99"`
}

// Summarize computes the Summary of a sparse outcome map over nTrials.
func Summarize(outcomes map[int]int64, nTrials int) Summary {
	if nTrials <= 0 {
		return Summary{}
	}

	losses := DenseLosses(outcomes, nTrials)
	maxLoss := 0.0
	for _, loss := range losses {
		if loss > maxLoss {
			maxLoss = loss
		}
	}

	return Summary{
		Trials:   nTrials,
		Occurred: len(outcomes),
		Mean:     Mean(losses),
		StdDev:   StdDev(losses),
		MaxLoss:  maxLoss,
		VaR95:    ValueAtRisk(losses, 0.95),
		VaR99:    ValueAtRisk(losses, 0.99),
		ES95:     ExpectedShortfall(losses, 0.95),
		ES99:     ExpectedShortfall(losses, 0.99),
	}
}
