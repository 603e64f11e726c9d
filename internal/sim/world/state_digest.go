package world

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"antmania.dev/internal/sim/graph"
)

// StateDigest hashes the complete mutable state: tick, every agent's
// site/moves/state, and every site's liveness and stock. Two runs
// over the same map with the same config digest identically tick by
// tick; replays compare this to detect divergence.
func (w *World) StateDigest() string {
	h := sha256.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}

	put(w.tick)
	put(uint64(w.agents.len()))
	for i := range w.agents.recs {
		r := &w.agents.recs[i]
		put(uint64(r.site))
		put(r.moves)
		put(uint64(r.state))
	}
	put(uint64(w.g.Len()))
	for i := 0; i < w.g.Len(); i++ {
		s := graph.SiteID(i)
		if w.g.IsAlive(s) {
			put(1)
		} else {
			put(0)
		}
		put(uint64(w.occ.stockCount(s)))
	}
	return hex.EncodeToString(h.Sum(nil))
}
