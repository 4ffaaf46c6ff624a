// Package treefile loads risk-tree definition files: a JSON document with a
// flat node list, each node tagged LEAF or PORTFOLIO.
package treefile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lossrange/lossrange/internal/domain"
	"github.com/lossrange/lossrange/internal/tree"
)

type document struct {
	Nodes []json.RawMessage `json:"nodes"`
}

// Parse decodes a tree definition document into its node list. Format
// problems are reported here; structural validation belongs to the tree
// index built from the nodes.
func Parse(data []byte) ([]domain.RiskNode, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing tree document: %w", err)
	}
	if len(doc.Nodes) == 0 {
		return nil, fmt.Errorf("tree document has no nodes")
	}

	nodes := make([]domain.RiskNode, len(doc.Nodes))
	for i, raw := range doc.Nodes {
		node, err := decodeNode(i, raw)
		if err != nil {
			return nil, err
		}
		nodes[i] = node
	}
	return nodes, nil
}

func decodeNode(i int, raw json.RawMessage) (domain.RiskNode, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("node %d: %w", i, err)
	}

	switch domain.NodeKind(env.Type) {
	case domain.KindLeaf:
		var leaf domain.RiskLeaf
		if err := json.Unmarshal(raw, &leaf); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		return leaf, nil
	case domain.KindPortfolio:
		var portfolio domain.RiskPortfolio
		if err := json.Unmarshal(raw, &portfolio); err != nil {
			return nil, fmt.Errorf("node %d: %w", i, err)
		}
		return portfolio, nil
	default:
		return nil, fmt.Errorf("node %d: unknown type %q", i, env.Type)
	}
}

// Load reads and parses the tree definition at path.
func Load(path string) ([]domain.RiskNode, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tree file: %w", err)
	}
	return Parse(data)
}

// LoadIndex loads path and builds a fully validated tree index from it.
func LoadIndex(path string) (*tree.Index, error) {
	nodes, err := Load(path)
	if err != nil {
		return nil, err
	}
	idx, err := tree.FromNodes(nodes)
	if err != nil {
		return nil, fmt.Errorf("validating %s: %w", filepath.Base(path), err)
	}
	return idx, nil
}

// TreeName derives the tree identifier from its file name: the base name
// without the extension.
func TreeName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Discover lists the tree definition files in dir, sorted by name.
// A missing directory is an empty catalog, not an error.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading trees directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}
