package worldtest

import (
	"testing"

	"antmania.dev/internal/sim/world"
)

// Seed 4 spawns agents 0 and 1 on Y and agent 2 on X. Y dies at
// spawn; the survivor's eastern exit now points at a dead site, so it
// is steered south, and with nobody left to meet the run stops after
// that single tick.
func TestLastActiveAgentStopsTheRun(t *testing.T) {
	const m = "X east=Y south=Z\nY\nZ north=X\n"
	h := New(t, m, world.Config{Agents: 3, Seed: 4, MaxMoves: 50})

	ds := h.Events.Destructions()
	if len(ds) != 1 || ds[0].Tick != 0 || ds[0].SiteName != "Y" {
		t.Fatalf("destructions = %v, want Y at tick 0", ds)
	}
	if ds[0].AntA != 0 || ds[0].AntB != 1 {
		t.Fatalf("pair = %d,%d, want spawners 0,1", ds[0].AntA, ds[0].AntB)
	}
	if h.W.AgentAlive(0) || h.W.AgentAlive(1) {
		t.Fatal("agents spawned on the destroyed site should be dead")
	}

	res := h.Run()
	if res.Ticks != 1 {
		t.Fatalf("ticks = %d, want 1 (a lone walker does not keep the run going)", res.Ticks)
	}
	if res.Survivors != 1 || res.Stationary != 0 {
		t.Fatalf("result = %+v, want one surviving walker", res)
	}
	// The dead eastern exit was never an option.
	if h.W.AgentSite(2) != h.SiteID("Z") {
		t.Fatalf("agent 2 at %q, want Z", h.G.Name(h.W.AgentSite(2)))
	}
	if h.W.AgentMoves(2) != 1 || h.W.AgentStationary(2) {
		t.Fatalf("moves=%d stationary=%v, want 1,false",
			h.W.AgentMoves(2), h.W.AgentStationary(2))
	}
}
