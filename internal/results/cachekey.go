package results

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/gowebpki/jcs"

	"github.com/lossrange/lossrange/internal/domain"
	"github.com/lossrange/lossrange/internal/simulation"
)

// keyedNode pairs a node with its kind discriminator so leaves and
// portfolios with overlapping fields cannot collide in the key document.
type keyedNode struct {
	Kind domain.NodeKind `json:"kind"`
	Node domain.RiskNode `json:"node"`
}

// keyConfig projects the config fields that can change outcomes.
// Parallelism settings are excluded: a run is bit-identical at any
// worker count, so they must not split the cache. Seeds render as
// decimal strings because JCS number canonicalization is IEEE-double
// and would round 64-bit values.
type keyConfig struct {
	Trials     int    `json:"trials"`
	SeedEntity string `json:"seed_entity"`
	Seed3      string `json:"seed3"`
	Seed4      string `json:"seed4"`
}

// CacheKey returns the canonical identity of a simulation request: the
// SHA-256 of the JCS-canonicalized JSON of the sorted node set and the
// outcome-relevant config. Node order in the input never changes the key.
func CacheKey(nodes []domain.RiskNode, cfg simulation.Config) (string, error) {
	doc := struct {
		Nodes  []keyedNode `json:"nodes"`
		Config keyConfig   `json:"config"`
	}{
		Nodes: keyedSortedNodes(nodes),
		Config: keyConfig{
			Trials:     cfg.Trials,
			SeedEntity: strconv.FormatUint(cfg.Seeds.Entity, 10),
			Seed3:      strconv.FormatUint(cfg.Seeds.Seed3, 10),
			Seed4:      strconv.FormatUint(cfg.Seeds.Seed4, 10),
		},
	}
	return hashCanonical(doc)
}

// TreeHash identifies a tree definition independent of simulation
// parameters. Invalidation by tree edits uses this hash.
func TreeHash(nodes []domain.RiskNode) (string, error) {
	doc := struct {
		Nodes []keyedNode `json:"nodes"`
	}{
		Nodes: keyedSortedNodes(nodes),
	}
	return hashCanonical(doc)
}

func keyedSortedNodes(nodes []domain.RiskNode) []keyedNode {
	sorted := make([]domain.RiskNode, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].NodeID() < sorted[j].NodeID() })

	keyed := make([]keyedNode, len(sorted))
	for i, node := range sorted {
		keyed[i] = keyedNode{Kind: domain.KindOf(node), Node: node}
	}
	return keyed
}

func hashCanonical(doc any) (string, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("marshaling key document: %w", err)
	}
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalizing key document: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
