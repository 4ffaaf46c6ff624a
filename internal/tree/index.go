// Package tree builds and queries validated risk-tree indexes.
package tree

import (
	"fmt"
	"strings"

	"github.com/lossrange/lossrange/internal/domain"
)

// Index holds bidirectional lookup maps for one immutable tree snapshot.
// It is built once per snapshot and rebuilt whenever the tree is edited;
// query methods never mutate it.
type Index struct {
	nodes    map[domain.NodeID]domain.RiskNode
	parents  map[domain.NodeID]domain.NodeID
	children map[domain.NodeID][]domain.NodeID
	order    []domain.NodeID
	rootID   domain.NodeID
	hasRoot  bool
}

// FromNodes validates a flat node list and builds an Index from it.
// All consistency checks run without early exit; the returned error is a
// domain.ValidationErrors carrying every violation found in one pass.
func FromNodes(nodes []domain.RiskNode) (*Index, error) {
	return build(nodes, true)
}

// FromNodesPartial is FromNodes without the non-empty-portfolio rule,
// for trees under incremental construction.
func FromNodesPartial(nodes []domain.RiskNode) (*Index, error) {
	return build(nodes, false)
}

func build(nodes []domain.RiskNode, full bool) (*Index, error) {
	idx := &Index{
		nodes:    make(map[domain.NodeID]domain.RiskNode, len(nodes)),
		parents:  make(map[domain.NodeID]domain.NodeID),
		children: make(map[domain.NodeID][]domain.NodeID),
	}

	var errors domain.ValidationErrors

	for _, n := range nodes {
		id := n.NodeID()
		if _, exists := idx.nodes[id]; exists {
			errors = append(errors, domain.ValidationError{
				Field:   string(id),
				Code:    domain.CodeDuplicateID,
				Message: "node id appears more than once",
			})
			continue
		}
		idx.nodes[id] = n
		idx.order = append(idx.order, id)
	}

	for _, id := range idx.order {
		n := idx.nodes[id]
		if pid, ok := n.ParentID(); ok {
			idx.parents[id] = pid
		}
		if p, ok := n.(domain.RiskPortfolio); ok {
			idx.children[id] = append([]domain.NodeID(nil), p.ChildIDs...)
		}
	}

	errors = append(errors, idx.checkParentLinks()...)
	errors = append(errors, idx.checkChildLinks()...)
	errors = append(errors, idx.checkRoot(full)...)
	errors = append(errors, idx.checkCycles()...)
	errors = append(errors, idx.checkNodeFields()...)
	if full {
		errors = append(errors, idx.checkEmptyPortfolios()...)
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return idx, nil
}

// checkParentLinks verifies that every parent reference points at an
// existing Portfolio that lists the node as one of its children.
func (idx *Index) checkParentLinks() domain.ValidationErrors {
	var errors domain.ValidationErrors

	for _, id := range idx.order {
		pid, ok := idx.parents[id]
		if !ok {
			continue
		}
		field := string(id) + ".parent_id"

		parent, exists := idx.nodes[pid]
		if !exists {
			errors = append(errors, domain.ValidationError{
				Field:   field,
				Code:    domain.CodeUnknownParent,
				Message: fmt.Sprintf("references unknown node %q", pid),
			})
			continue
		}

		portfolio, isPortfolio := parent.(domain.RiskPortfolio)
		if !isPortfolio {
			errors = append(errors, domain.ValidationError{
				Field:   field,
				Code:    domain.CodeParentNotPortfolio,
				Message: fmt.Sprintf("node %q is not a portfolio", pid),
			})
			continue
		}

		if !containsID(portfolio.ChildIDs, id) {
			errors = append(errors, domain.ValidationError{
				Field:   field,
				Code:    domain.CodeChildNotListed,
				Message: fmt.Sprintf("portfolio %q does not list this node as a child", pid),
			})
		}
	}

	return errors
}

// checkChildLinks verifies that every declared child exists and points back
// at the declaring portfolio.
func (idx *Index) checkChildLinks() domain.ValidationErrors {
	var errors domain.ValidationErrors

	for _, id := range idx.order {
		portfolio, ok := idx.nodes[id].(domain.RiskPortfolio)
		if !ok {
			continue
		}
		field := string(id) + ".child_ids"

		for _, childID := range portfolio.ChildIDs {
			child, exists := idx.nodes[childID]
			if !exists {
				errors = append(errors, domain.ValidationError{
					Field:   field,
					Code:    domain.CodeUnknownChild,
					Message: fmt.Sprintf("references unknown node %q", childID),
				})
				continue
			}
			if pid, ok := child.ParentID(); !ok || pid != id {
				errors = append(errors, domain.ValidationError{
					Field:   field,
					Code:    domain.CodeChildParentMismatch,
					Message: fmt.Sprintf("child %q does not point back to this portfolio", childID),
				})
			}
		}
	}

	return errors
}

func (idx *Index) checkRoot(full bool) domain.ValidationErrors {
	var errors domain.ValidationErrors

	var roots []domain.NodeID
	for _, id := range idx.order {
		if _, ok := idx.parents[id]; !ok {
			roots = append(roots, id)
		}
	}

	switch {
	case len(roots) == 1:
		idx.rootID = roots[0]
		idx.hasRoot = true
	case len(roots) == 0:
		if full || len(idx.order) > 0 {
			errors = append(errors, domain.ValidationError{
				Field:   "tree",
				Code:    domain.CodeNoRoot,
				Message: "no node without a parent",
			})
		}
	default:
		errors = append(errors, domain.ValidationError{
			Field:   "tree",
			Code:    domain.CodeMultipleRoots,
			Message: fmt.Sprintf("%d nodes have no parent: %s", len(roots), joinIDs(roots)),
		})
	}

	return errors
}

// checkCycles walks parent chains with a three-color visited set.
// Each cycle is reported once, at the node where the walk re-entered it.
func (idx *Index) checkCycles() domain.ValidationErrors {
	const (
		white = iota
		gray
		black
	)

	var errors domain.ValidationErrors
	state := make(map[domain.NodeID]int, len(idx.order))

	for _, start := range idx.order {
		if state[start] != white {
			continue
		}
		var path []domain.NodeID
		cur := start
		for {
			if state[cur] == gray {
				errors = append(errors, domain.ValidationError{
					Field:   string(cur),
					Code:    domain.CodeCycle,
					Message: "parent chain cycles back through this node",
				})
				break
			}
			if state[cur] == black {
				break
			}
			state[cur] = gray
			path = append(path, cur)

			pid, ok := idx.parents[cur]
			if !ok {
				break
			}
			if _, exists := idx.nodes[pid]; !exists {
				// Dangling parents are reported by checkParentLinks.
				break
			}
			cur = pid
		}
		for _, id := range path {
			state[id] = black
		}
	}

	return errors
}

func (idx *Index) checkNodeFields() domain.ValidationErrors {
	var errors domain.ValidationErrors

	for _, id := range idx.order {
		switch n := idx.nodes[id].(type) {
		case domain.RiskLeaf:
			errors = append(errors, n.Validate().Prefixed(string(id))...)
		case domain.RiskPortfolio:
			errors = append(errors, n.Validate().Prefixed(string(id))...)
		}
	}

	return errors
}

func (idx *Index) checkEmptyPortfolios() domain.ValidationErrors {
	var errors domain.ValidationErrors

	for _, id := range idx.order {
		if _, ok := idx.nodes[id].(domain.RiskPortfolio); !ok {
			continue
		}
		if len(idx.children[id]) == 0 {
			errors = append(errors, domain.ValidationError{
				Field:   string(id) + ".child_ids",
				Code:    domain.CodeEmptyPortfolio,
				Message: "portfolio has no children",
			})
		}
	}

	return errors
}

// Root returns the root node id; ok is false when the index is empty.
func (idx *Index) Root() (domain.NodeID, bool) {
	return idx.rootID, idx.hasRoot
}

// Node returns the node with the given id.
func (idx *Index) Node(id domain.NodeID) (domain.RiskNode, bool) {
	n, ok := idx.nodes[id]
	return n, ok
}

// Parent returns the parent of the given node; ok is false for the root
// and for unknown ids.
func (idx *Index) Parent(id domain.NodeID) (domain.NodeID, bool) {
	pid, ok := idx.parents[id]
	return pid, ok
}

// Children returns the declared child ids of a portfolio, in declaration
// order. Leaves and unknown ids yield nil.
func (idx *Index) Children(id domain.NodeID) []domain.NodeID {
	return idx.children[id]
}

// Len returns the number of indexed nodes.
func (idx *Index) Len() int {
	return len(idx.order)
}

// NodeIDs returns all node ids in their original declaration order.
func (idx *Index) NodeIDs() []domain.NodeID {
	return append([]domain.NodeID(nil), idx.order...)
}

// Leaves returns every leaf node in declaration order.
func (idx *Index) Leaves() []domain.RiskLeaf {
	var leaves []domain.RiskLeaf
	for _, id := range idx.order {
		if leaf, ok := idx.nodes[id].(domain.RiskLeaf); ok {
			leaves = append(leaves, leaf)
		}
	}
	return leaves
}

// AncestorPath returns the path root → ... → id, including id itself.
// Unknown ids yield nil.
func (idx *Index) AncestorPath(id domain.NodeID) []domain.NodeID {
	if _, ok := idx.nodes[id]; !ok {
		return nil
	}

	var path []domain.NodeID
	cur := id
	for {
		path = append(path, cur)
		pid, ok := idx.parents[cur]
		if !ok {
			break
		}
		cur = pid
	}

	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// Descendants returns the closed subtree under id (id itself included),
// in depth-first order following declared child order. Unknown ids yield nil.
func (idx *Index) Descendants(id domain.NodeID) []domain.NodeID {
	if _, ok := idx.nodes[id]; !ok {
		return nil
	}

	out := make([]domain.NodeID, 0, len(idx.order))
	stack := []domain.NodeID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, cur)

		kids := idx.children[cur]
		for i := len(kids) - 1; i >= 0; i-- {
			stack = append(stack, kids[i])
		}
	}
	return out
}

// IsAncestor reports whether ancestor appears strictly above descendant.
// A node is not its own ancestor.
func (idx *Index) IsAncestor(ancestor, descendant domain.NodeID) bool {
	cur := descendant
	for {
		pid, ok := idx.parents[cur]
		if !ok {
			return false
		}
		if pid == ancestor {
			return true
		}
		cur = pid
	}
}

func containsID(ids []domain.NodeID, id domain.NodeID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func joinIDs(ids []domain.NodeID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}
