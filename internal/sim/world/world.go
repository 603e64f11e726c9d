// Package world runs the ant mania simulation: agents wander a
// directed site graph one tick at a time, and any site holding two or
// more agents at the end of a tick is destroyed together with every
// agent on it. The engine is single-threaded; everything observable
// leaves through the event sinks.
package world

import (
	"context"
	"fmt"
	"time"

	"antmania.dev/internal/protocol"
	"antmania.dev/internal/sim/graph"
	"antmania.dev/internal/sim/world/logic/mathx"
)

type World struct {
	cfg    Config
	g      *graph.Graph
	agents *pool
	occ    *tracker

	// planned is indexed by agent id and only valid for agents that
	// went through the current tick's planning pass.
	planned []graph.SiteID

	tick  uint64
	seq   uint64
	sinks []EventSink
}

// New validates the configuration, spawns the agents, and resolves
// spawn collisions: sites drawing two or more agents are destroyed at
// tick 0, before any movement, killing everyone who spawned there.
func New(g *graph.Graph, cfg Config) (*World, error) {
	if err := cfg.validate(g.AliveCount()); err != nil {
		return nil, err
	}
	if cfg.RunID == "" {
		cfg.RunID = fmt.Sprintf("run-%d", cfg.Seed)
	}

	w := &World{
		cfg:     cfg,
		g:       g,
		agents:  newPool(cfg.Agents),
		occ:     newTracker(g.Len()),
		planned: make([]graph.SiteID, cfg.Agents),
		sinks:   cfg.Sinks,
	}

	w.emit(&protocol.RunStart{
		Type:            protocol.TypeRunStart,
		ProtocolVersion: protocol.Version,
		Seq:             w.nextSeq(),
		RunID:           cfg.RunID,
		StartedAt:       time.Now().UTC().Format(time.RFC3339),
		MapName:         cfg.MapName,
		MapText:         cfg.MapText,
		Sites:           g.Len(),
		Agents:          cfg.Agents,
		Seed:            cfg.Seed,
		MaxMoves:        cfg.MaxMoves,
	})

	// Spawn over the alive sites as of construction. A cap of zero
	// means nobody ever plans a move, but co-spawned agents still
	// collide below.
	alive := g.AliveSites()
	for i := 0; i < cfg.Agents; i++ {
		s := alive[mathx.PickN(mathx.Hash2(cfg.Seed, uint64(i)), len(alive))]
		w.agents.spawn(s, cfg.MaxMoves > 0)
	}

	w.occ.beginTick()
	for id := AgentID(0); id < AgentID(cfg.Agents); id++ {
		w.occ.recordArrival(w.agents.site(id), id)
	}
	for _, s := range w.occ.touchedSites() {
		if c, a, b := w.occ.touch(s); c >= 2 {
			w.destroySite(s, a, b)
		}
	}
	for id := AgentID(0); id < AgentID(cfg.Agents); id++ {
		if !g.IsAlive(w.agents.site(id)) {
			w.agents.markDead(id)
			w.agents.removeFromActive(id)
		}
	}
	return w, nil
}

// Result summarizes a finished run.
type Result struct {
	Ticks          uint64
	Survivors      int // alive agents, moving or parked
	Stationary     int // alive agents that parked (trapped or capped)
	DestroyedSites int
	AliveSites     int
	Digest         string
	Elapsed        time.Duration
}

// Run executes ticks until at most one agent is still planning moves,
// then emits RUN_END. The context is only observed between ticks; a
// cancelled run returns without a RUN_END record.
func (w *World) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	for w.agents.activeLen() > 0 {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		w.stepOnce()
		if w.agents.activeLen() <= 1 {
			break
		}
		if w.cfg.Pace > 0 {
			select {
			case <-ctx.Done():
				return Result{}, ctx.Err()
			case <-time.After(w.cfg.Pace):
			}
		}
	}
	res := w.result(time.Since(start))
	w.emit(&protocol.RunEnd{
		Type:           protocol.TypeRunEnd,
		Seq:            w.nextSeq(),
		Ticks:          res.Ticks,
		Survivors:      res.Survivors,
		Stationary:     res.Stationary,
		DestroyedSites: res.DestroyedSites,
		AliveSites:     res.AliveSites,
		Digest:         res.Digest,
		ElapsedMS:      float64(res.Elapsed.Microseconds()) / 1000.0,
	})
	return res, nil
}

// StepOnce advances the simulation by a single tick using the same
// ordering semantics as Run. It is primarily intended for
// deterministic replays and tests.
func (w *World) StepOnce() { w.stepOnce() }

func (w *World) result(elapsed time.Duration) Result {
	return Result{
		Ticks:          w.tick,
		Survivors:      w.agents.aliveCount(),
		Stationary:     w.agents.stationaryCount(),
		DestroyedSites: w.g.Len() - w.g.AliveCount(),
		AliveSites:     w.g.AliveCount(),
		Digest:         w.StateDigest(),
		Elapsed:        elapsed,
	}
}

func (w *World) Tick() uint64          { return w.tick }
func (w *World) ActiveCount() int      { return w.agents.activeLen() }
func (w *World) AliveAgents() int      { return w.agents.aliveCount() }
func (w *World) StationaryAgents() int { return w.agents.stationaryCount() }

func (w *World) AgentSite(id AgentID) graph.SiteID { return w.agents.site(id) }
func (w *World) AgentMoves(id AgentID) uint64      { return w.agents.moves(id) }
func (w *World) AgentAlive(id AgentID) bool        { return w.agents.alive(id) }
func (w *World) AgentStationary(id AgentID) bool   { return w.agents.isStationary(id) }
