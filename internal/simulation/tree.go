package simulation

import (
	"context"
	"errors"
	"fmt"

	"github.com/lossrange/lossrange/internal/domain"
	"github.com/lossrange/lossrange/internal/tree"
	"github.com/lossrange/lossrange/internal/utils"
)

// RiskTreeResult mirrors the simulated tree: every node carries its own
// RiskResult (leaf outcomes, or the monoid combination of the children for
// portfolios), and branches keep their children for drill-down.
type RiskTreeResult struct {
	NodeID   domain.NodeID
	Name     string
	Result   *RiskResult
	Children []*RiskTreeResult
}

// IsLeaf reports whether the node had no children at simulation time.
func (r *RiskTreeResult) IsLeaf() bool { return len(r.Children) == 0 }

// Find returns the subtree rooted at id, nil when absent.
func (r *RiskTreeResult) Find(id domain.NodeID) *RiskTreeResult {
	if r == nil {
		return nil
	}
	if r.NodeID == id {
		return r
	}
	for _, child := range r.Children {
		if found := child.Find(id); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits the tree depth-first, parents before children.
func (r *RiskTreeResult) Walk(visit func(*RiskTreeResult)) {
	if r == nil {
		return
	}
	visit(r)
	for _, child := range r.Children {
		child.Walk(visit)
	}
}

// SimulateTree simulates every leaf of a validated tree and aggregates
// results bottom-up into a RiskTreeResult. A portfolio without children at
// simulation time is a structural error and fails the whole run.
func (s *Simulator) SimulateTree(ctx context.Context, idx *tree.Index) (*RiskTreeResult, error) {
	defer utils.NewTimer("simulate_tree", s.log).Stop()

	rootID, ok := idx.Root()
	if !ok {
		return nil, errors.New("tree has no root")
	}

	leaves := idx.Leaves()
	samplers := make([]*RiskSampler, len(leaves))
	for i, leaf := range leaves {
		sampler, err := SamplerFromLeaf(leaf, s.cfg.Seeds)
		if err != nil {
			return nil, fmt.Errorf("fitting distribution for %s: %w", leaf.ID, err)
		}
		samplers[i] = sampler
	}

	results, err := s.Simulate(ctx, samplers)
	if err != nil {
		return nil, err
	}

	byID := make(map[domain.NodeID]*RiskResult, len(results))
	for _, result := range results {
		byID[result.NodeID()] = result
	}

	treeResult, err := s.aggregate(idx, rootID, byID)
	if err != nil {
		return nil, err
	}

	s.log.Debug().
		Str("root", string(rootID)).
		Int("leaves", len(leaves)).
		Msg("tree simulation complete")
	return treeResult, nil
}

func (s *Simulator) aggregate(idx *tree.Index, id domain.NodeID, byID map[domain.NodeID]*RiskResult) (*RiskTreeResult, error) {
	node, ok := idx.Node(id)
	if !ok {
		return nil, fmt.Errorf("node %q not in tree index", id)
	}

	switch n := node.(type) {
	case domain.RiskLeaf:
		result, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("leaf %q has no simulation result", id)
		}
		return &RiskTreeResult{NodeID: id, Name: n.Name, Result: result}, nil

	case domain.RiskPortfolio:
		childIDs := idx.Children(id)
		if len(childIDs) == 0 {
			return nil, fmt.Errorf("portfolio %q has no children", id)
		}

		children := make([]*RiskTreeResult, len(childIDs))
		aggregated := Empty()
		for i, childID := range childIDs {
			child, err := s.aggregate(idx, childID, byID)
			if err != nil {
				return nil, err
			}
			children[i] = child
			aggregated = aggregated.Combine(child.Result)
		}

		return &RiskTreeResult{
			NodeID:   id,
			Name:     n.Name,
			Result:   aggregated.WithLabel(id, n.Name),
			Children: children,
		}, nil

	default:
		return nil, fmt.Errorf("node %q has unknown kind %T", id, node)
	}
}
