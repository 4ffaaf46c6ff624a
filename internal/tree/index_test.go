package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lossrange/lossrange/internal/domain"
)

func parentOf(id domain.NodeID) *domain.NodeID {
	return &id
}

func testLeaf(id domain.NodeID, parent *domain.NodeID) domain.RiskLeaf {
	return domain.RiskLeaf{
		ID:               id,
		Name:             string(id),
		Parent:           parent,
		DistributionType: domain.DistributionLognormal,
		Probability:      0.1,
		MinLoss:          10_000,
		MaxLoss:          500_000,
	}
}

func testPortfolio(id domain.NodeID, parent *domain.NodeID, children ...domain.NodeID) domain.RiskPortfolio {
	return domain.RiskPortfolio{
		ID:       id,
		Name:     string(id),
		Parent:   parent,
		ChildIDs: children,
	}
}

func validTree() []domain.RiskNode {
	return []domain.RiskNode{
		testPortfolio("root", nil, "ransomware", "ops"),
		testLeaf("ransomware", parentOf("root")),
		testPortfolio("ops", parentOf("root"), "outage", "vendor-breach"),
		testLeaf("outage", parentOf("ops")),
		testLeaf("vendor-breach", parentOf("ops")),
	}
}

func validationErrors(t *testing.T, err error) domain.ValidationErrors {
	t.Helper()
	require.Error(t, err)
	var errs domain.ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.NotEmpty(t, errs)
	return errs
}

func TestFromNodes_ValidTree(t *testing.T) {
	idx, err := FromNodes(validTree())
	require.NoError(t, err)
	require.NotNil(t, idx)

	root, ok := idx.Root()
	assert.True(t, ok)
	assert.Equal(t, domain.NodeID("root"), root)
	assert.Equal(t, 5, idx.Len())

	pid, ok := idx.Parent("outage")
	assert.True(t, ok)
	assert.Equal(t, domain.NodeID("ops"), pid)

	_, ok = idx.Parent("root")
	assert.False(t, ok)

	assert.Equal(t, []domain.NodeID{"outage", "vendor-breach"}, idx.Children("ops"))
	assert.Nil(t, idx.Children("outage"))
}

func TestFromNodes_AncestorPath(t *testing.T) {
	idx, err := FromNodes(validTree())
	require.NoError(t, err)

	assert.Equal(t, []domain.NodeID{"root", "ops", "outage"}, idx.AncestorPath("outage"))
	assert.Equal(t, []domain.NodeID{"root"}, idx.AncestorPath("root"))
	assert.Empty(t, idx.AncestorPath("nope"))
}

func TestFromNodes_Descendants(t *testing.T) {
	idx, err := FromNodes(validTree())
	require.NoError(t, err)

	assert.Equal(t,
		[]domain.NodeID{"root", "ransomware", "ops", "outage", "vendor-breach"},
		idx.Descendants("root"))
	assert.Equal(t, []domain.NodeID{"ops", "outage", "vendor-breach"}, idx.Descendants("ops"))
	assert.Equal(t, []domain.NodeID{"outage"}, idx.Descendants("outage"))
	assert.Empty(t, idx.Descendants("nope"))
}

func TestFromNodes_IsAncestor(t *testing.T) {
	idx, err := FromNodes(validTree())
	require.NoError(t, err)

	assert.True(t, idx.IsAncestor("root", "outage"))
	assert.True(t, idx.IsAncestor("ops", "vendor-breach"))
	assert.False(t, idx.IsAncestor("outage", "root"))
	assert.False(t, idx.IsAncestor("ransomware", "outage"))
	assert.False(t, idx.IsAncestor("ops", "ops"), "a node is not its own ancestor")
}

func TestFromNodes_RejectsUnknownChild(t *testing.T) {
	nodes := []domain.RiskNode{
		testPortfolio("root", nil, "a", "ghost"),
		testLeaf("a", parentOf("root")),
	}

	_, err := FromNodes(nodes)
	errs := validationErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeUnknownChild))
}

func TestFromNodes_RejectsParentPointingAtLeaf(t *testing.T) {
	nodes := []domain.RiskNode{
		testPortfolio("root", nil, "a"),
		testLeaf("a", parentOf("root")),
		testLeaf("b", parentOf("a")),
	}

	_, err := FromNodes(nodes)
	errs := validationErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeParentNotPortfolio))
}

func TestFromNodes_RejectsChildNotListedBack(t *testing.T) {
	// "b" claims root as parent, but root only lists "a".
	nodes := []domain.RiskNode{
		testPortfolio("root", nil, "a"),
		testLeaf("a", parentOf("root")),
		testLeaf("b", parentOf("root")),
	}

	_, err := FromNodes(nodes)
	errs := validationErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeChildNotListed))
}

func TestFromNodes_RejectsParentMismatch(t *testing.T) {
	// root lists "a" as a child, but "a" points elsewhere.
	nodes := []domain.RiskNode{
		testPortfolio("root", nil, "a", "other"),
		testPortfolio("other", parentOf("root"), "a"),
		testLeaf("a", parentOf("other")),
	}

	_, err := FromNodes(nodes)
	errs := validationErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeChildParentMismatch))
}

func TestFromNodes_RejectsMultipleRoots(t *testing.T) {
	nodes := []domain.RiskNode{
		testPortfolio("root", nil, "a"),
		testLeaf("a", parentOf("root")),
		testLeaf("stray", nil),
	}

	_, err := FromNodes(nodes)
	errs := validationErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeMultipleRoots))
}

func TestFromNodes_RejectsCycle(t *testing.T) {
	nodes := []domain.RiskNode{
		testPortfolio("a", parentOf("b"), "b"),
		testPortfolio("b", parentOf("a"), "a"),
	}

	_, err := FromNodes(nodes)
	errs := validationErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeCycle))
	// A two-node cycle also has no root.
	assert.True(t, errs.HasCode(domain.CodeNoRoot))
}

func TestFromNodes_RejectsDuplicateIDs(t *testing.T) {
	nodes := []domain.RiskNode{
		testPortfolio("root", nil, "a"),
		testLeaf("a", parentOf("root")),
		testLeaf("a", parentOf("root")),
	}

	_, err := FromNodes(nodes)
	errs := validationErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeDuplicateID))
}

func TestFromNodes_RejectsEmptyPortfolio(t *testing.T) {
	nodes := []domain.RiskNode{
		testPortfolio("root", nil, "a", "empty"),
		testLeaf("a", parentOf("root")),
		testPortfolio("empty", parentOf("root")),
	}

	_, err := FromNodes(nodes)
	errs := validationErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeEmptyPortfolio))
}

func TestFromNodesPartial_AllowsEmptyPortfolio(t *testing.T) {
	nodes := []domain.RiskNode{
		testPortfolio("root", nil, "a", "empty"),
		testLeaf("a", parentOf("root")),
		testPortfolio("empty", parentOf("root")),
	}

	idx, err := FromNodesPartial(nodes)
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
}

func TestFromNodes_RejectsInvalidLeafParams(t *testing.T) {
	bad := testLeaf("a", parentOf("root"))
	bad.Probability = 1.5

	nodes := []domain.RiskNode{
		testPortfolio("root", nil, "a"),
		bad,
	}

	_, err := FromNodes(nodes)
	errs := validationErrors(t, err)
	assert.True(t, errs.HasCode(domain.CodeInvalidProbability))
}

func TestFromNodes_AccumulatesAllErrors(t *testing.T) {
	// Several independent violations in a single tree: every one of them
	// must be reported in one pass.
	bad := testLeaf("bad-leaf", parentOf("root"))
	bad.Probability = 0.0

	nodes := []domain.RiskNode{
		testPortfolio("root", nil, "bad-leaf", "ghost", "empty"),
		bad,
		testPortfolio("empty", parentOf("root")),
		testLeaf("stray", nil),
	}

	_, err := FromNodes(nodes)
	errs := validationErrors(t, err)

	assert.True(t, errs.HasCode(domain.CodeUnknownChild))
	assert.True(t, errs.HasCode(domain.CodeEmptyPortfolio))
	assert.True(t, errs.HasCode(domain.CodeInvalidProbability))
	assert.True(t, errs.HasCode(domain.CodeMultipleRoots))
	assert.GreaterOrEqual(t, len(errs), 4)
}
