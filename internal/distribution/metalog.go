package distribution

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/lossrange/lossrange/internal/domain"
)

type boundKind int

const (
	unbounded boundKind = iota
	lowerBounded
	upperBounded
	bounded
)

// Metalog is a quantile-parameterized distribution fit directly from
// percentile/quantile pairs. Bounded and semi-bounded variants transform
// quantiles into log/logit space before the fit and invert the transform
// on evaluation.
type Metalog struct {
	coeffs []float64
	kind   boundKind
	lower  float64
	upper  float64
}

// FitMetalog fits a metalog with the given number of basis terms to paired
// percentile/quantile points. percentiles must be strictly ascending within
// (0,1) and quantiles sorted ascending; terms must be between 1 and the
// point count. lower/upper, when given, bound the distribution's support.
// Input problems come back as accumulated domain.ValidationErrors.
func FitMetalog(percentiles, quantiles []float64, terms int, lower, upper *float64) (*Metalog, error) {
	if errs := validateFitInputs(percentiles, quantiles, terms, lower, upper); len(errs) > 0 {
		return nil, errs
	}

	m := &Metalog{kind: unbounded}
	switch {
	case lower != nil && upper != nil:
		m.kind = bounded
		m.lower = *lower
		m.upper = *upper
	case lower != nil:
		m.kind = lowerBounded
		m.lower = *lower
	case upper != nil:
		m.kind = upperBounded
		m.upper = *upper
	}

	z, errs := m.transformQuantiles(quantiles)
	if len(errs) > 0 {
		return nil, errs
	}

	n := len(percentiles)
	design := mat.NewDense(n, terms, nil)
	row := make([]float64, terms)
	for i, p := range percentiles {
		basisRow(p, terms, row)
		design.SetRow(i, row)
	}

	var qr mat.QR
	qr.Factorize(design)

	coeffs := mat.NewVecDense(terms, nil)
	if err := qr.SolveVecTo(coeffs, false, mat.NewVecDense(n, z)); err != nil {
		return nil, domain.ValidationErrors{{
			Field:   "quantiles",
			Code:    domain.CodeFitFailed,
			Message: fmt.Sprintf("least-squares fit failed: %v", err),
		}}
	}

	m.coeffs = make([]float64, terms)
	copy(m.coeffs, coeffs.RawVector().Data)
	return m, nil
}

func validateFitInputs(percentiles, quantiles []float64, terms int, lower, upper *float64) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if len(percentiles) < 2 {
		errors = append(errors, domain.ValidationError{
			Field:   "percentiles",
			Code:    domain.CodeTooFewPoints,
			Message: "at least 2 percentile points are required",
		})
	}

	if len(percentiles) != len(quantiles) {
		errors = append(errors, domain.ValidationError{
			Field:   "quantiles",
			Code:    domain.CodeLengthMismatch,
			Message: "must have the same length as percentiles",
		})
	}

	for i, p := range percentiles {
		if p <= 0.0 || p >= 1.0 {
			errors = append(errors, domain.ValidationError{
				Field:   "percentiles",
				Code:    domain.CodeInvalidProbability,
				Message: "entries must be strictly between 0.0 and 1.0",
			})
			break
		}
		if i > 0 && percentiles[i-1] >= p {
			errors = append(errors, domain.ValidationError{
				Field:   "percentiles",
				Code:    domain.CodeNotAscending,
				Message: "entries must be strictly ascending",
			})
			break
		}
	}

	for i := 1; i < len(quantiles); i++ {
		if quantiles[i-1] > quantiles[i] {
			errors = append(errors, domain.ValidationError{
				Field:   "quantiles",
				Code:    domain.CodeNotAscending,
				Message: "entries must be sorted ascending",
			})
			break
		}
	}

	if terms < 1 || terms > len(percentiles) {
		errors = append(errors, domain.ValidationError{
			Field:   "terms",
			Code:    domain.CodeInvalidTerms,
			Message: fmt.Sprintf("must be between 1 and the point count (%d)", len(percentiles)),
		})
	}

	if lower != nil && upper != nil && *lower >= *upper {
		errors = append(errors, domain.ValidationError{
			Field:   "bounds",
			Code:    domain.CodeInvalidBounds,
			Message: "lower bound must be less than upper bound",
		})
	}

	return errors
}

// transformQuantiles maps quantile values into the fitting space of the
// bound variant. The fit runs on the transformed values; Quantile inverts.
func (m *Metalog) transformQuantiles(quantiles []float64) ([]float64, domain.ValidationErrors) {
	z := make([]float64, len(quantiles))
	for i, q := range quantiles {
		switch m.kind {
		case unbounded:
			z[i] = q
		case lowerBounded:
			if q <= m.lower {
				return nil, domain.ValidationErrors{{
					Field:   "quantiles",
					Code:    domain.CodeInvalidBounds,
					Message: fmt.Sprintf("quantile %g not above lower bound %g", q, m.lower),
				}}
			}
			z[i] = math.Log(q - m.lower)
		case upperBounded:
			if q >= m.upper {
				return nil, domain.ValidationErrors{{
					Field:   "quantiles",
					Code:    domain.CodeInvalidBounds,
					Message: fmt.Sprintf("quantile %g not below upper bound %g", q, m.upper),
				}}
			}
			z[i] = -math.Log(m.upper - q)
		case bounded:
			if q <= m.lower || q >= m.upper {
				return nil, domain.ValidationErrors{{
					Field:   "quantiles",
					Code:    domain.CodeInvalidBounds,
					Message: fmt.Sprintf("quantile %g outside bounds (%g, %g)", q, m.lower, m.upper),
				}}
			}
			z[i] = math.Log((q - m.lower) / (m.upper - q))
		}
	}
	return z, nil
}

// basisRow fills row with the metalog basis evaluated at probability y.
// Terms follow the standard expansion: 1, logit, (y-0.5)*logit, (y-0.5),
// then alternating powers of (y-0.5) with and without the logit factor.
func basisRow(y float64, terms int, row []float64) {
	logit := math.Log(y / (1 - y))
	c := y - 0.5

	for j := 1; j <= terms; j++ {
		switch {
		case j == 1:
			row[j-1] = 1
		case j == 2:
			row[j-1] = logit
		case j == 3:
			row[j-1] = c * logit
		case j == 4:
			row[j-1] = c
		case j%2 == 1:
			row[j-1] = math.Pow(c, float64((j-1)/2))
		default:
			row[j-1] = math.Pow(c, float64(j/2-1)) * logit
		}
	}
}

func (m *Metalog) eval(y float64) float64 {
	row := make([]float64, len(m.coeffs))
	basisRow(y, len(m.coeffs), row)

	sum := 0.0
	for j, a := range m.coeffs {
		sum += a * row[j]
	}
	return sum
}

// Quantile returns the loss at cumulative probability p. p is clamped away
// from {0,1}; monotonicity holds over the fitted domain but is not
// algebraically guaranteed at extreme p.
func (m *Metalog) Quantile(p float64) float64 {
	s := m.eval(clampProb(p))

	switch m.kind {
	case lowerBounded:
		return m.lower + math.Exp(s)
	case upperBounded:
		return m.upper - math.Exp(-s)
	case bounded:
		e := math.Exp(s)
		if math.IsInf(e, 1) {
			return m.upper
		}
		return (m.lower + m.upper*e) / (1 + e)
	default:
		return s
	}
}

// Sample maps a uniform draw to a loss.
func (m *Metalog) Sample(u float64) float64 {
	return m.Quantile(u)
}
