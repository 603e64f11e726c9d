package world

import "antmania.dev/internal/sim/graph"

// AgentID indexes an agent. Ids are dense, assigned in spawn order,
// and never reused.
type AgentID uint32

type agentState uint8

const (
	stateMoving agentState = iota
	stateStationary
	stateDead
)

type agentRec struct {
	site  graph.SiteID
	moves uint64
	state agentState
}

// pool owns every agent record plus the active set: the agents still
// planning moves. Removal from the active set swaps with the last
// element, so a full tick costs O(active) regardless of how many
// agents have already parked or died.
type pool struct {
	recs      []agentRec
	active    []AgentID
	activeIdx []int32 // agent id -> slot in active, -1 once removed
}

func newPool(n int) *pool {
	return &pool{
		recs:      make([]agentRec, 0, n),
		active:    make([]AgentID, 0, n),
		activeIdx: make([]int32, 0, n),
	}
}

func (p *pool) spawn(site graph.SiteID, active bool) AgentID {
	id := AgentID(len(p.recs))
	p.recs = append(p.recs, agentRec{site: site})
	if active {
		p.activeIdx = append(p.activeIdx, int32(len(p.active)))
		p.active = append(p.active, id)
	} else {
		p.activeIdx = append(p.activeIdx, -1)
	}
	return id
}

func (p *pool) len() int                      { return len(p.recs) }
func (p *pool) site(id AgentID) graph.SiteID  { return p.recs[id].site }
func (p *pool) moves(id AgentID) uint64       { return p.recs[id].moves }
func (p *pool) alive(id AgentID) bool         { return p.recs[id].state != stateDead }
func (p *pool) isStationary(id AgentID) bool  { return p.recs[id].state == stateStationary }
func (p *pool) activeLen() int                { return len(p.active) }
func (p *pool) activeAt(i int) AgentID        { return p.active[i] }

// markStationary parks an alive agent. Dead agents stay dead.
func (p *pool) markStationary(id AgentID) {
	if p.recs[id].state == stateMoving {
		p.recs[id].state = stateStationary
	}
}

func (p *pool) markDead(id AgentID) { p.recs[id].state = stateDead }

// recordMove relocates the agent and charges exactly one move.
func (p *pool) recordMove(id AgentID, site graph.SiteID) {
	r := &p.recs[id]
	r.site = site
	r.moves++
}

// removeFromActive takes the agent out of the active set. There is no
// way back in: parked and dead agents never plan again.
func (p *pool) removeFromActive(id AgentID) {
	i := p.activeIdx[id]
	if i < 0 {
		return
	}
	last := int32(len(p.active) - 1)
	moved := p.active[last]
	p.active[i] = moved
	p.activeIdx[moved] = i
	p.active = p.active[:last]
	p.activeIdx[id] = -1
}

func (p *pool) aliveCount() int {
	n := 0
	for i := range p.recs {
		if p.recs[i].state != stateDead {
			n++
		}
	}
	return n
}

func (p *pool) stationaryCount() int {
	n := 0
	for i := range p.recs {
		if p.recs[i].state == stateStationary {
			n++
		}
	}
	return n
}
