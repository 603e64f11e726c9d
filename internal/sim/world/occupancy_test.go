package world

import "testing"

func TestTrackerArrivalsAndPairs(t *testing.T) {
	tr := newTracker(4)
	tr.beginTick()

	if c := tr.recordArrival(2, 10); c != 1 {
		t.Fatalf("first arrival count = %d, want 1", c)
	}
	if c := tr.recordArrival(2, 11); c != 2 {
		t.Fatalf("second arrival count = %d, want 2", c)
	}
	if c := tr.recordArrival(2, 12); c != 3 {
		t.Fatalf("third arrival count = %d, want 3", c)
	}
	c, a, b := tr.touch(2)
	if c != 3 || a != 10 || b != 11 {
		t.Fatalf("touch = %d,%d,%d, want 3,10,11 (first two kept)", c, a, b)
	}
	if got := tr.touchedSites(); len(got) != 1 || got[0] != 2 {
		t.Fatalf("touchedSites = %v, want [2]", got)
	}
}

func TestTrackerLazyResetAcrossTicks(t *testing.T) {
	tr := newTracker(2)
	tr.beginTick()
	tr.recordArrival(0, 1)
	tr.recordArrival(0, 2)

	tr.beginTick()
	if c, _, _ := tr.touch(0); c != 0 {
		t.Fatalf("stale site count = %d, want 0 after new tick", c)
	}
	if len(tr.touchedSites()) != 0 {
		t.Fatalf("touchedSites = %v, want empty", tr.touchedSites())
	}
	// A read does not register the site for the collision sweep.
	tr.recordArrival(0, 3)
	c, a, _ := tr.touch(0)
	if c != 1 || a != 3 {
		t.Fatalf("after reset: count=%d first=%d, want 1,3", c, a)
	}
}

func TestTrackerStockBaselineOnly(t *testing.T) {
	tr := newTracker(2)
	tr.beginTick()

	// An agent arrives and then parks: its arrival already counted
	// it, so parking must not count it twice.
	tr.recordArrival(1, 5)
	tr.addStock(1, 5)
	if c, _, _ := tr.touch(1); c != 1 {
		t.Fatalf("count after arrive+park = %d, want 1", c)
	}
	if tr.stockCount(1) != 1 {
		t.Fatalf("stock = %d, want 1", tr.stockCount(1))
	}
	if got := tr.newStockSites(); len(got) != 1 || got[0] != 1 {
		t.Fatalf("newStockSites = %v, want [1]", got)
	}

	// Next tick the parked agent is part of the baseline and shows up
	// in the stale read, pair slot first.
	tr.beginTick()
	c, a, _ := tr.touch(1)
	if c != 1 || a != 5 {
		t.Fatalf("stale read = %d,%d, want 1,5", c, a)
	}
	// A new arrival joins the parked agent.
	if c := tr.recordArrival(1, 9); c != 2 {
		t.Fatalf("arrival onto stock = %d, want 2", c)
	}
	_, a, b := tr.touch(1)
	if a != 5 || b != 9 {
		t.Fatalf("pair = %d,%d, want parked 5 then arrival 9", a, b)
	}
}

func TestTrackerParkWithoutArrival(t *testing.T) {
	// Parking in place (a trapped agent) leaves the tick's count
	// untouched until somebody reads the site.
	tr := newTracker(1)
	tr.beginTick()
	tr.addStock(0, 4)
	c, a, _ := tr.touch(0)
	if c != 1 || a != 4 {
		t.Fatalf("touch after park = %d,%d, want 1,4", c, a)
	}
	if len(tr.touchedSites()) != 0 {
		t.Fatal("parking is not an arrival")
	}
}

func TestTrackerStockAgentsAccumulate(t *testing.T) {
	tr := newTracker(1)
	tr.beginTick()
	tr.addStock(0, 1)
	tr.beginTick()
	tr.addStock(0, 2)
	got := tr.stockAgents(0)
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Fatalf("stockAgents = %v, want [1 2]", got)
	}
	if tr.stockCount(0) != 2 {
		t.Fatalf("stock = %d, want 2", tr.stockCount(0))
	}
	if len(tr.newStockSites()) != 1 {
		t.Fatalf("newStockSites = %v, want one entry for this tick", tr.newStockSites())
	}
}
