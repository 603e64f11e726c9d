package world

import (
	"antmania.dev/internal/protocol"
	"antmania.dev/internal/sim/graph"
	"antmania.dev/internal/sim/world/logic/mathx"
)

// stepOnce runs one tick:
//
//  1. Plan: every active agent draws a destination among its alive
//     exits. An agent with no alive exit parks where it stands.
//  2. Occupy: planned arrivals are counted per site.
//  3. Destroy: sites holding two or more agents die, along with any
//     stock parked on them.
//  4. Commit: survivors move (one move charged, self-edges included);
//     agents whose destination died die with it; agents reaching the
//     move cap park at their destination.
//  5. Park check: sites that gained stock this tick are re-checked
//     for a crowd.
//
// Termination (active <= 1) is the caller's loop condition.
func (w *World) stepOnce() {
	w.tick++
	w.occ.beginTick()

	// 1. Plan.
	for i := 0; i < w.agents.activeLen(); {
		id := w.agents.activeAt(i)
		cur := w.agents.site(id)
		var opts [4]graph.SiteID
		k := 0
		for _, d := range graph.Directions {
			if n, ok := w.g.Neighbor(cur, d); ok && w.g.IsAlive(n) {
				opts[k] = n
				k++
			}
		}
		if k == 0 {
			w.agents.markStationary(id)
			w.occ.addStock(cur, id)
			w.agents.removeFromActive(id)
			continue // slot i now holds the swapped-in agent
		}
		w.planned[id] = opts[mathx.PickN(mathx.Hash3(w.cfg.Seed, w.tick, uint64(id)), k)]
		i++
	}

	// 2. Occupy.
	for i := 0; i < w.agents.activeLen(); i++ {
		id := w.agents.activeAt(i)
		w.occ.recordArrival(w.planned[id], id)
	}

	// 3. Destroy.
	for _, s := range w.occ.touchedSites() {
		if !w.g.IsAlive(s) {
			continue
		}
		if c, a, b := w.occ.touch(s); c >= 2 {
			w.destroySite(s, a, b)
		}
	}

	// 4. Commit.
	for i := 0; i < w.agents.activeLen(); {
		id := w.agents.activeAt(i)
		target := w.planned[id]
		if !w.g.IsAlive(target) {
			w.agents.markDead(id)
			w.agents.removeFromActive(id)
			continue
		}
		w.agents.recordMove(id, target)
		if w.agents.moves(id) >= uint64(w.cfg.MaxMoves) {
			w.agents.markStationary(id)
			w.occ.addStock(target, id)
			w.agents.removeFromActive(id)
			continue
		}
		i++
	}

	// 5. Park check.
	for _, s := range w.occ.newStockSites() {
		if !w.g.IsAlive(s) {
			continue
		}
		if c, a, b := w.occ.touch(s); c >= 2 {
			w.destroySite(s, a, b)
		}
	}

	if w.cfg.DigestEvery > 0 && w.tick%uint64(w.cfg.DigestEvery) == 0 {
		w.emit(&protocol.TickMark{
			Type:       protocol.TypeTick,
			Seq:        w.nextSeq(),
			Tick:       w.tick,
			Active:     w.agents.activeLen(),
			AliveSites: w.g.AliveCount(),
			Digest:     w.StateDigest(),
		})
	}
}

// destroySite kills the site and every agent parked on it, and emits
// one DESTROYED record naming the first two agents found there.
// Agents that were merely heading here die in the commit pass instead.
func (w *World) destroySite(s graph.SiteID, a, b AgentID) {
	if !w.g.Destroy(s) {
		return
	}
	w.emit(&protocol.Destroyed{
		Type:     protocol.TypeDestroyed,
		Seq:      w.nextSeq(),
		Tick:     w.tick,
		Site:     uint32(s),
		SiteName: w.g.Name(s),
		AntA:     uint32(a),
		AntB:     uint32(b),
	})
	for _, id := range w.occ.stockAgents(s) {
		w.agents.markDead(id)
	}
}
