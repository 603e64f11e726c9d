package worldtest

import (
	"testing"

	"antmania.dev/internal/protocol"
	"antmania.dev/internal/sim/world"
)

// The record stream is RUN_START first, RUN_END last, with dense
// sequence numbers in between.
func TestRecordStreamShape(t *testing.T) {
	const m = `Pit
L east=L2
L2 east=Pit
R west=R2
R2 west=Pit
`
	h := New(t, m, world.Config{Agents: 3, Seed: 2, MaxMoves: 10, RunID: "shape-test"})
	h.Run()

	recs := h.Events.Records
	if len(recs) < 3 {
		t.Fatalf("records = %d, want at least start/destroyed/end", len(recs))
	}
	start, ok := recs[0].(*protocol.RunStart)
	if !ok {
		t.Fatalf("first record = %T, want RunStart", recs[0])
	}
	if start.RunID != "shape-test" || start.Sites != 5 || start.Agents != 3 {
		t.Fatalf("RunStart = %+v", start)
	}
	if start.MapText == "" || start.Seed != 2 || start.MaxMoves != 10 {
		t.Fatalf("RunStart must carry the replay inputs, got %+v", start)
	}
	if _, ok := recs[len(recs)-1].(*protocol.RunEnd); !ok {
		t.Fatalf("last record = %T, want RunEnd", recs[len(recs)-1])
	}
	for i, r := range recs {
		if r.RecordSeq() != uint64(i) {
			t.Fatalf("record %d has seq %d, want dense numbering", i, r.RecordSeq())
		}
	}
}

// DigestEvery emits a TICK record on its cadence, carrying the live
// counters. Ticks are driven directly so the lone agent walks all
// the way to its cap; Run then only finalizes.
func TestTickRecordCadence(t *testing.T) {
	h := New(t, "Solo north=Solo\n", world.Config{
		Agents: 1, Seed: 1, MaxMoves: 6, DigestEvery: 2,
	})
	for h.W.ActiveCount() > 0 {
		h.W.StepOnce()
	}
	h.Run()

	var ticks []*protocol.TickMark
	for _, r := range h.Events.Records {
		if tm, ok := r.(*protocol.TickMark); ok {
			ticks = append(ticks, tm)
		}
	}
	if len(ticks) != 3 {
		t.Fatalf("TICK records = %d, want 3 (ticks 2,4,6)", len(ticks))
	}
	for i, tm := range ticks {
		want := uint64(2 * (i + 1))
		if tm.Tick != want {
			t.Fatalf("TICK %d at tick %d, want %d", i, tm.Tick, want)
		}
		if tm.AliveSites != 1 || tm.Digest == "" {
			t.Fatalf("TICK %d = %+v", i, tm)
		}
	}
	// The agent parks at the cap on tick 6, after that tick's record.
	if last := ticks[len(ticks)-1]; last.Active != 0 {
		t.Fatalf("final TICK active = %d, want 0", last.Active)
	}

	end := h.Events.Records[len(h.Events.Records)-1].(*protocol.RunEnd)
	if end.Ticks != 6 || end.Survivors != 1 || end.Stationary != 1 {
		t.Fatalf("RunEnd = %+v", end)
	}
	if end.Digest == "" || end.AliveSites != 1 {
		t.Fatalf("RunEnd missing final state: %+v", end)
	}
}
