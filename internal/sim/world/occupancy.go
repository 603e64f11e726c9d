package world

import "antmania.dev/internal/sim/graph"

// tracker counts per-site occupancy for the current tick without ever
// sweeping its arrays. Each per-tick cell carries the generation that
// last wrote it; reading a stale cell re-seeds it from the stationary
// baseline. Work per tick is proportional to the sites actually hit.
//
// The baseline only grows. A site whose stock would need to shrink is
// a site being destroyed, and destroyed sites are never read again.
type tracker struct {
	gen     uint64
	siteGen []uint64

	// Per-tick view, valid where siteGen matches gen.
	count  []uint32
	first  []AgentID // first two agents counted this tick
	second []AgentID

	// Stationary stock, carried across ticks.
	baseline []uint32
	stockA   []AgentID // first two parked agents per site
	stockB   []AgentID
	parked   [][]AgentID

	touched  []graph.SiteID // sites with arrivals this tick
	newStock []graph.SiteID // sites that gained stock this tick
}

func newTracker(sites int) *tracker {
	return &tracker{
		siteGen:  make([]uint64, sites),
		count:    make([]uint32, sites),
		first:    make([]AgentID, sites),
		second:   make([]AgentID, sites),
		baseline: make([]uint32, sites),
		stockA:   make([]AgentID, sites),
		stockB:   make([]AgentID, sites),
		parked:   make([][]AgentID, sites),
	}
}

// beginTick invalidates the previous tick's view in O(1).
func (t *tracker) beginTick() {
	t.gen++
	t.touched = t.touched[:0]
	t.newStock = t.newStock[:0]
}

func (t *tracker) reset(s graph.SiteID) {
	t.siteGen[s] = t.gen
	t.count[s] = t.baseline[s]
	t.first[s] = t.stockA[s]
	t.second[s] = t.stockB[s]
}

// touch returns the site's current occupancy and the first two agents
// occupying it, re-seeding a stale cell from the baseline. Read-only
// with respect to the counts.
func (t *tracker) touch(s graph.SiteID) (uint32, AgentID, AgentID) {
	if t.siteGen[s] != t.gen {
		t.reset(s)
	}
	return t.count[s], t.first[s], t.second[s]
}

// recordArrival counts one planned arrival and returns the new
// occupancy. The first arrival of the tick registers the site for the
// collision sweep.
func (t *tracker) recordArrival(s graph.SiteID, a AgentID) uint32 {
	if t.siteGen[s] != t.gen {
		t.reset(s)
		t.touched = append(t.touched, s)
	}
	switch t.count[s] {
	case 0:
		t.first[s] = a
	case 1:
		t.second[s] = a
	}
	t.count[s]++
	return t.count[s]
}

// addStock parks an agent at the site for good. The current tick's
// count is left alone: an agent parking after its move was already
// counted by its own arrival.
func (t *tracker) addStock(s graph.SiteID, a AgentID) {
	t.baseline[s]++
	switch t.baseline[s] {
	case 1:
		t.stockA[s] = a
	case 2:
		t.stockB[s] = a
	}
	t.parked[s] = append(t.parked[s], a)
	t.newStock = append(t.newStock, s)
}

func (t *tracker) touchedSites() []graph.SiteID  { return t.touched }
func (t *tracker) newStockSites() []graph.SiteID { return t.newStock }

func (t *tracker) stockAgents(s graph.SiteID) []AgentID { return t.parked[s] }
func (t *tracker) stockCount(s graph.SiteID) uint32     { return t.baseline[s] }
