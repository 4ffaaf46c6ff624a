// Package domain provides core risk-tree domain models and types.
package domain

// NodeID identifies a node within a risk tree.
type NodeID string

// DistributionType represents how a leaf's loss distribution is specified.
type DistributionType string

const (
	// DistributionExpert fits a metalog to expert percentile/quantile pairs.
	DistributionExpert DistributionType = "EXPERT"
	// DistributionLognormal fits a lognormal to a 90% confidence interval.
	DistributionLognormal DistributionType = "LOGNORMAL"
)

// NodeKind discriminates the two node variants in wire formats.
type NodeKind string

const (
	// KindLeaf marks a terminal risk node.
	KindLeaf NodeKind = "LEAF"
	// KindPortfolio marks an aggregating node.
	KindPortfolio NodeKind = "PORTFOLIO"
)

// KindOf returns the wire discriminator of a node.
func KindOf(n RiskNode) NodeKind {
	if _, ok := n.(RiskPortfolio); ok {
		return KindPortfolio
	}
	return KindLeaf
}

// RiskNode is a node in a risk tree: either a RiskLeaf carrying a loss
// distribution or a RiskPortfolio aggregating children. The interface is
// sealed; traversal code type-switches over the two variants.
type RiskNode interface {
	NodeID() NodeID
	NodeName() string
	// ParentID returns the parent node id; ok is false for the root.
	ParentID() (NodeID, bool)

	isRiskNode()
}

// RiskLeaf is a terminal risk with an occurrence probability and a loss
// distribution.
type RiskLeaf struct {
	ID               NodeID           `json:"id"`
	Name             string           `json:"name"`
	Parent           *NodeID          `json:"parent_id,omitempty"`
	DistributionType DistributionType `json:"distribution_type"`
	Probability      float64          `json:"probability"`

	// Expert mode: paired percentile/quantile points, sorted ascending.
	Percentiles []float64 `json:"percentiles,omitempty"`
	Quantiles   []float64 `json:"quantiles,omitempty"`

	// Lognormal mode: 5th/95th percentile losses.
	MinLoss int64 `json:"min_loss,omitempty"`
	MaxLoss int64 `json:"max_loss,omitempty"`
}

// RiskPortfolio aggregates the results of its children.
type RiskPortfolio struct {
	ID       NodeID   `json:"id"`
	Name     string   `json:"name"`
	Parent   *NodeID  `json:"parent_id,omitempty"`
	ChildIDs []NodeID `json:"child_ids"`
}

// NodeID returns the leaf's id.
func (l RiskLeaf) NodeID() NodeID { return l.ID }

// NodeName returns the leaf's display name.
func (l RiskLeaf) NodeName() string { return l.Name }

// ParentID returns the leaf's parent id; ok is false for the root.
func (l RiskLeaf) ParentID() (NodeID, bool) {
	if l.Parent == nil {
		return "", false
	}
	return *l.Parent, true
}

func (RiskLeaf) isRiskNode() {}

// NodeID returns the portfolio's id.
func (p RiskPortfolio) NodeID() NodeID { return p.ID }

// NodeName returns the portfolio's display name.
func (p RiskPortfolio) NodeName() string { return p.Name }

// ParentID returns the portfolio's parent id; ok is false for the root.
func (p RiskPortfolio) ParentID() (NodeID, bool) {
	if p.Parent == nil {
		return "", false
	}
	return *p.Parent, true
}

func (RiskPortfolio) isRiskNode() {}

// Validate checks the leaf's distribution parameters.
// Returns ValidationErrors if the leaf is invalid.
func (l RiskLeaf) Validate() ValidationErrors {
	var errors ValidationErrors

	if l.ID == "" {
		errors = append(errors, ValidationError{
			Field:   "id",
			Code:    CodeMissingID,
			Message: "id is required",
		})
	}

	if l.Probability <= 0.0 || l.Probability >= 1.0 {
		errors = append(errors, ValidationError{
			Field:   "probability",
			Code:    CodeInvalidProbability,
			Message: "must be strictly between 0.0 and 1.0",
		})
	}

	switch l.DistributionType {
	case DistributionExpert:
		errors = append(errors, l.validateExpert()...)
	case DistributionLognormal:
		errors = append(errors, l.validateLognormal()...)
	default:
		errors = append(errors, ValidationError{
			Field:   "distribution_type",
			Code:    CodeUnknownDistribution,
			Message: "must be EXPERT or LOGNORMAL",
		})
	}

	return errors
}

func (l RiskLeaf) validateExpert() ValidationErrors {
	var errors ValidationErrors

	if len(l.Percentiles) < 2 {
		errors = append(errors, ValidationError{
			Field:   "percentiles",
			Code:    CodeTooFewPoints,
			Message: "at least 2 percentile points are required",
		})
	}

	if len(l.Percentiles) != len(l.Quantiles) {
		errors = append(errors, ValidationError{
			Field:   "quantiles",
			Code:    CodeLengthMismatch,
			Message: "must have the same length as percentiles",
		})
	}

	for i, p := range l.Percentiles {
		if p <= 0.0 || p >= 1.0 {
			errors = append(errors, ValidationError{
				Field:   "percentiles",
				Code:    CodeInvalidProbability,
				Message: "entries must be strictly between 0.0 and 1.0",
			})
			break
		}
		if i > 0 && l.Percentiles[i-1] >= p {
			errors = append(errors, ValidationError{
				Field:   "percentiles",
				Code:    CodeNotAscending,
				Message: "entries must be strictly ascending",
			})
			break
		}
	}

	for i := 1; i < len(l.Quantiles); i++ {
		if l.Quantiles[i-1] > l.Quantiles[i] {
			errors = append(errors, ValidationError{
				Field:   "quantiles",
				Code:    CodeNotAscending,
				Message: "entries must be sorted ascending",
			})
			break
		}
	}

	return errors
}

func (l RiskLeaf) validateLognormal() ValidationErrors {
	var errors ValidationErrors

	if l.MinLoss < 0 {
		errors = append(errors, ValidationError{
			Field:   "min_loss",
			Code:    CodeInvalidLossBounds,
			Message: "must be >= 0",
		})
	}

	if l.MinLoss >= l.MaxLoss {
		errors = append(errors, ValidationError{
			Field:   "max_loss",
			Code:    CodeInvalidLossBounds,
			Message: "must be greater than min_loss",
		})
	}

	return errors
}

// Validate checks the portfolio's own fields. Child integrity against the
// rest of the tree is checked by the tree index, not here.
func (p RiskPortfolio) Validate() ValidationErrors {
	var errors ValidationErrors

	if p.ID == "" {
		errors = append(errors, ValidationError{
			Field:   "id",
			Code:    CodeMissingID,
			Message: "id is required",
		})
	}

	seen := make(map[NodeID]bool, len(p.ChildIDs))
	for _, childID := range p.ChildIDs {
		if seen[childID] {
			errors = append(errors, ValidationError{
				Field:   "child_ids",
				Code:    CodeDuplicateChild,
				Message: "duplicate child id " + string(childID),
			})
		}
		seen[childID] = true
	}

	return errors
}
