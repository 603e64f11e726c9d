package mapfile

import (
	"strings"
	"testing"

	"antmania.dev/internal/sim/graph"
)

func parse(t *testing.T, text string) *graph.Graph {
	t.Helper()
	g, err := Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return g
}

func TestParseBasic(t *testing.T) {
	g := parse(t, "Foo north=Bar west=Baz south=Qux\nBar south=Foo west=Bee\n")
	// Defining lines first, then edge-only targets in edge order.
	want := []string{"Foo", "Bar", "Baz", "Qux", "Bee"}
	if g.Len() != len(want) {
		t.Fatalf("Len = %d, want %d", g.Len(), len(want))
	}
	for i, n := range want {
		if g.Name(graph.SiteID(i)) != n {
			t.Fatalf("site %d = %q, want %q", i, g.Name(graph.SiteID(i)), n)
		}
	}
	if n, ok := g.Neighbor(0, graph.North); !ok || g.Name(n) != "Bar" {
		t.Fatalf("Foo north = %v,%v, want Bar", n, ok)
	}
	if n, ok := g.Neighbor(1, graph.West); !ok || g.Name(n) != "Bee" {
		t.Fatalf("Bar west = %v,%v, want Bee", n, ok)
	}
	if _, ok := g.Neighbor(2, graph.North); ok {
		t.Fatal("edge-only site Baz should have no outgoing edges")
	}
}

func TestParseBlankLinesAndNameOnly(t *testing.T) {
	g := parse(t, "\nA east=B\n\nIso\n\n")
	if g.Len() != 3 {
		t.Fatalf("Len = %d, want 3", g.Len())
	}
	// Defining lines claim ids first; B only has an edge pointing at it.
	if g.Name(1) != "Iso" || g.Name(2) != "B" {
		t.Fatalf("names = %q,%q, want Iso,B", g.Name(1), g.Name(2))
	}
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name, text, wantSub string
	}{
		{"malformed token", "A north\n", "invalid token"},
		{"empty target", "A north=\n", "invalid token"},
		{"bad direction", "A up=B\n", `invalid direction "up"`},
		{"uppercase direction", "A North=B\n", `invalid direction "North"`},
		{"duplicate direction", "A north=B north=C\n", "duplicate direction"},
		{"duplicate site", "A north=B\nA south=C\n", `duplicate site "A"`},
	}
	for _, tc := range cases {
		_, err := Parse(strings.NewReader(tc.text))
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.wantSub) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.wantSub)
		}
	}
}

func TestParseTargetThenDefiningLine(t *testing.T) {
	// B is seen first as a target; its later defining line keeps the
	// id assigned at first appearance.
	g := parse(t, "A north=B\nB south=A\n")
	if g.Len() != 2 {
		t.Fatalf("Len = %d, want 2", g.Len())
	}
	if n, ok := g.Neighbor(1, graph.South); !ok || n != 0 {
		t.Fatalf("B south = %v,%v, want A", n, ok)
	}
}

func TestWriteAliveSubgraph(t *testing.T) {
	g := parse(t, "A north=B east=C\nB south=A\nC west=A\n")
	g.Destroy(1) // B

	var sb strings.Builder
	if err := Write(&sb, g); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := sb.String()
	want := "A east=C\nC west=A\n"
	if got != want {
		t.Fatalf("Write = %q, want %q", got, want)
	}

	// The output parses back to the same alive structure.
	g2 := parse(t, got)
	if g2.Len() != 2 || g2.Name(0) != "A" || g2.Name(1) != "C" {
		t.Fatalf("round-trip sites = %d %q %q", g2.Len(), g2.Name(0), g2.Name(1))
	}
}
