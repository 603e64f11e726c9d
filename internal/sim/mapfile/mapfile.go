// Package mapfile reads and writes the plain-text map format: one
// site per line, `Name [dir=Target ...]`, whitespace separated, with
// dir one of north/south/east/west. Blank lines are ignored. A target
// that never gets a defining line becomes an edgeless site of its
// own, so every edge in a parsed graph resolves.
package mapfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"antmania.dev/internal/sim/graph"
)

// Parse builds a graph from map text. Ids are assigned in order of
// first appearance: defining lines during the scan, edge-only targets
// in a second pass. Malformed input returns an error naming the line.
func Parse(r io.Reader) (*graph.Graph, error) {
	ids := make(map[string]graph.SiteID)
	var names []string
	intern := func(name string) graph.SiteID {
		if id, ok := ids[name]; ok {
			return id
		}
		id := graph.SiteID(len(names))
		ids[name] = id
		names = append(names, name)
		return id
	}

	type pendingEdge struct {
		src graph.SiteID
		d   graph.Dir
		dst string
	}
	var edges []pendingEdge
	defined := make(map[string]bool)

	sc := bufio.NewScanner(r)
	ln := 0
	for sc.Scan() {
		ln++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		name := fields[0]
		if defined[name] {
			return nil, fmt.Errorf("map line %d: duplicate site %q", ln, name)
		}
		defined[name] = true
		src := intern(name)

		var seen [4]bool
		for _, tok := range fields[1:] {
			dirTok, target, ok := strings.Cut(tok, "=")
			if !ok || dirTok == "" || target == "" {
				return nil, fmt.Errorf("map line %d: invalid token %q (want dir=Target)", ln, tok)
			}
			d, ok := graph.ParseDir(dirTok)
			if !ok {
				return nil, fmt.Errorf("map line %d: invalid direction %q", ln, dirTok)
			}
			if seen[d] {
				return nil, fmt.Errorf("map line %d: duplicate direction %q", ln, dirTok)
			}
			seen[d] = true
			edges = append(edges, pendingEdge{src: src, d: d, dst: target})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read map: %w", err)
	}

	for _, e := range edges {
		intern(e.dst)
	}
	g := graph.New(names)
	for _, e := range edges {
		g.SetNeighbor(e.src, e.d, ids[e.dst])
	}
	return g, nil
}

// Write prints the alive subgraph back in map format: one line per
// alive site, listing only edges whose target is still alive.
func Write(w io.Writer, g *graph.Graph) error {
	bw := bufio.NewWriter(w)
	for i := 0; i < g.Len(); i++ {
		id := graph.SiteID(i)
		if !g.IsAlive(id) {
			continue
		}
		bw.WriteString(g.Name(id))
		for _, d := range graph.Directions {
			n, ok := g.Neighbor(id, d)
			if !ok || !g.IsAlive(n) {
				continue
			}
			bw.WriteByte(' ')
			bw.WriteString(d.String())
			bw.WriteByte('=')
			bw.WriteString(g.Name(n))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
