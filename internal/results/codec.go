// Package results persists simulated tree results in a SQLite cache keyed
// by the canonical hash of the tree definition and simulation parameters.
package results

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/lossrange/lossrange/internal/domain"
	"github.com/lossrange/lossrange/internal/simulation"
)

// nodeResultDTO is the persisted shape of one simulated node. Sparse
// outcome maps stay sparse on disk; msgpack keeps the integer keys compact.
type nodeResultDTO struct {
	NodeID   string          `msgpack:"node_id"`
	Name     string          `msgpack:"name"`
	NTrials  int             `msgpack:"n_trials"`
	Outcomes map[int]int64   `msgpack:"outcomes"`
	Children []nodeResultDTO `msgpack:"children,omitempty"`
}

// EncodeTreeResult serializes a simulated tree for storage.
func EncodeTreeResult(result *simulation.RiskTreeResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("cannot encode nil tree result")
	}
	payload, err := msgpack.Marshal(toDTO(result))
	if err != nil {
		return nil, fmt.Errorf("encoding tree result: %w", err)
	}
	return payload, nil
}

// DecodeTreeResult rebuilds a simulated tree from its stored payload.
func DecodeTreeResult(payload []byte) (*simulation.RiskTreeResult, error) {
	var dto nodeResultDTO
	if err := msgpack.Unmarshal(payload, &dto); err != nil {
		return nil, fmt.Errorf("decoding tree result: %w", err)
	}
	return fromDTO(dto), nil
}

func toDTO(result *simulation.RiskTreeResult) nodeResultDTO {
	dto := nodeResultDTO{
		NodeID:   string(result.NodeID),
		Name:     result.Name,
		NTrials:  result.Result.NTrials(),
		Outcomes: result.Result.Outcomes(),
	}
	if len(result.Children) > 0 {
		dto.Children = make([]nodeResultDTO, len(result.Children))
		for i, child := range result.Children {
			dto.Children[i] = toDTO(child)
		}
	}
	return dto
}

func fromDTO(dto nodeResultDTO) *simulation.RiskTreeResult {
	node := &simulation.RiskTreeResult{
		NodeID: domain.NodeID(dto.NodeID),
		Name:   dto.Name,
		Result: simulation.NewRiskResult(domain.NodeID(dto.NodeID), dto.Name, dto.NTrials, dto.Outcomes),
	}
	if len(dto.Children) > 0 {
		node.Children = make([]*simulation.RiskTreeResult, len(dto.Children))
		for i, child := range dto.Children {
			node.Children[i] = fromDTO(child)
		}
	}
	return node
}
