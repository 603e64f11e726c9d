// Package graph stores the site network of a simulation run: densely
// numbered sites, up to four directed edges per site keyed by compass
// direction, and a per-site alive flag cleared exactly once on
// destruction. Site ids are assigned by the map parser and are valid
// for the lifetime of the graph; destroyed sites keep their slot so
// ids never shift.
package graph

// SiteID indexes a site. Ids are dense and 0-based.
type SiteID uint32

// NoSite marks an absent edge.
const NoSite = ^SiteID(0)

type site struct {
	name      string
	neighbors [dirCount]SiteID
	alive     bool
}

// Graph is not safe for concurrent mutation. The simulation engine is
// single-threaded; read-only access after a run needs no locking.
type Graph struct {
	sites      []site
	aliveCount int
}

// New creates a graph with one alive, edgeless site per name.
// Ids are assigned in slice order.
func New(names []string) *Graph {
	g := &Graph{sites: make([]site, len(names)), aliveCount: len(names)}
	for i, n := range names {
		g.sites[i] = site{
			name:      n,
			neighbors: [dirCount]SiteID{NoSite, NoSite, NoSite, NoSite},
			alive:     true,
		}
	}
	return g
}

// SetNeighbor installs the directed edge src --d--> dst. Self-edges
// are legal. Out-of-range ids are a caller bug and panic.
func (g *Graph) SetNeighbor(src SiteID, d Dir, dst SiteID) {
	if dst >= SiteID(len(g.sites)) {
		panic("graph: SetNeighbor: dst out of range")
	}
	g.sites[src].neighbors[d] = dst
}

// Len returns the total number of sites, destroyed ones included.
func (g *Graph) Len() int { return len(g.sites) }

func (g *Graph) Name(id SiteID) string { return g.sites[id].name }

// Neighbor returns the edge target in direction d, if present.
// Presence says nothing about the target being alive.
func (g *Graph) Neighbor(id SiteID, d Dir) (SiteID, bool) {
	n := g.sites[id].neighbors[d]
	return n, n != NoSite
}

func (g *Graph) IsAlive(id SiteID) bool { return g.sites[id].alive }

// Destroy marks a site dead and reports whether this call changed its
// state. Destroying an already dead site is a no-op.
func (g *Graph) Destroy(id SiteID) bool {
	if !g.sites[id].alive {
		return false
	}
	g.sites[id].alive = false
	g.aliveCount--
	return true
}

func (g *Graph) AliveCount() int { return g.aliveCount }

// AliveSites lists the alive site ids in ascending order. It
// allocates; the engine calls it once at spawn time.
func (g *Graph) AliveSites() []SiteID {
	out := make([]SiteID, 0, g.aliveCount)
	for i := range g.sites {
		if g.sites[i].alive {
			out = append(out, SiteID(i))
		}
	}
	return out
}
