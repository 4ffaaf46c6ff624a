package simulation

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/lossrange/lossrange/internal/domain"
)

// uniformDraw returns a uniform float64 in [0,1) as a pure function of its
// key tuple: SHA-256 over the big-endian tuple encoding, top 53 bits of the
// leading word mapped into the unit interval. There is no internal state, so
// draws are identical regardless of call order or parallel scheduling.
func uniformDraw(entity, variable, seed3, seed4, trial uint64) float64 {
	var buf [40]byte
	binary.BigEndian.PutUint64(buf[0:8], entity)
	binary.BigEndian.PutUint64(buf[8:16], variable)
	binary.BigEndian.PutUint64(buf[16:24], seed3)
	binary.BigEndian.PutUint64(buf[24:32], seed4)
	binary.BigEndian.PutUint64(buf[32:40], trial)

	sum := sha256.Sum256(buf[:])
	bits := binary.BigEndian.Uint64(sum[:8])
	return float64(bits>>11) / (1 << 53)
}

// riskSeedFor derives a stable per-risk seed from the node id, so a leaf's
// draw streams do not depend on its position in the tree.
func riskSeedFor(id domain.NodeID) uint64 {
	sum := sha256.Sum256([]byte(id))
	return binary.BigEndian.Uint64(sum[:8])
}
