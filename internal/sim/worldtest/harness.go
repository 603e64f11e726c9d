// Package worldtest provides a small black-box test helper for
// driving a simulation via exported APIs.
package worldtest

import (
	"context"
	"strings"
	"testing"

	"antmania.dev/internal/sim/graph"
	"antmania.dev/internal/sim/mapfile"
	"antmania.dev/internal/sim/world"
)

// Harness builds a world from inline map text and keeps the parts a
// test inspects afterwards.
type Harness struct {
	T      *testing.T
	G      *graph.Graph
	W      *world.World
	Events *world.RecordingSink
}

func New(t *testing.T, mapText string, cfg world.Config) *Harness {
	t.Helper()
	g, err := mapfile.Parse(strings.NewReader(mapText))
	if err != nil {
		t.Fatalf("parse map: %v", err)
	}
	sink := &world.RecordingSink{}
	cfg.Sinks = append(cfg.Sinks, sink)
	cfg.MapText = mapText
	w, err := world.New(g, cfg)
	if err != nil {
		t.Fatalf("world.New: %v", err)
	}
	return &Harness{T: t, G: g, W: w, Events: sink}
}

// Run drives the world to completion.
func (h *Harness) Run() world.Result {
	h.T.Helper()
	res, err := h.W.Run(context.Background())
	if err != nil {
		h.T.Fatalf("world.Run: %v", err)
	}
	return res
}

// SiteID resolves a site by name.
func (h *Harness) SiteID(name string) graph.SiteID {
	h.T.Helper()
	for i := 0; i < h.G.Len(); i++ {
		if h.G.Name(graph.SiteID(i)) == name {
			return graph.SiteID(i)
		}
	}
	h.T.Fatalf("no site named %q", name)
	return 0
}
