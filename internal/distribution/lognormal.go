package distribution

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/lossrange/lossrange/internal/domain"
)

// LogNormal is a lognormal loss distribution recovered from a 90%
// confidence interval.
type LogNormal struct {
	dist distuv.LogNormal
}

// LogNormalFrom90CI treats minLoss/maxLoss as the 5th/95th percentiles of a
// lognormal and solves mu/sigma in closed form from the two percentile
// equations. minLoss must be positive: no lognormal has a zero 5th
// percentile.
func LogNormalFrom90CI(minLoss, maxLoss int64) (*LogNormal, error) {
	var errors domain.ValidationErrors

	if minLoss <= 0 {
		errors = append(errors, domain.ValidationError{
			Field:   "min_loss",
			Code:    domain.CodeInvalidLossBounds,
			Message: "must be greater than 0",
		})
	}
	if minLoss >= maxLoss {
		errors = append(errors, domain.ValidationError{
			Field:   "max_loss",
			Code:    domain.CodeInvalidLossBounds,
			Message: "must be greater than min_loss",
		})
	}
	if len(errors) > 0 {
		return nil, errors
	}

	z95 := distuv.UnitNormal.Quantile(0.95)
	lnMin := math.Log(float64(minLoss))
	lnMax := math.Log(float64(maxLoss))

	return &LogNormal{
		dist: distuv.LogNormal{
			Mu:    (lnMin + lnMax) / 2,
			Sigma: (lnMax - lnMin) / (2 * z95),
		},
	}, nil
}

// Quantile returns the loss at cumulative probability p.
func (d *LogNormal) Quantile(p float64) float64 {
	return d.dist.Quantile(clampProb(p))
}

// Sample maps a uniform draw to a loss.
func (d *LogNormal) Sample(u float64) float64 {
	return d.Quantile(u)
}
