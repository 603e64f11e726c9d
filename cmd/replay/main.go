package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"antmania.dev/internal/persistence/indexdb"
	persistlog "antmania.dev/internal/persistence/log"
	"antmania.dev/internal/protocol"
	"antmania.dev/internal/sim/mapfile"
	"antmania.dev/internal/sim/world"
)

// replay re-runs a logged simulation from its RUN_START record and
// verifies that the engine reproduces the logged outcome.
func main() {
	var (
		eventsPath = flag.String("events", "", "event log file or directory (newest run when a directory)")
		runFilter  = flag.String("run", "", "run id to select or show")
		indexPath  = flag.String("index", "", "sqlite run index path")
		list       = flag.Bool("list", false, "print recent runs from the index and exit")
	)
	flag.Parse()

	if *list {
		if *indexPath == "" {
			fmt.Fprintln(os.Stderr, "missing -index")
			os.Exit(2)
		}
		if *runFilter != "" {
			showRun(*indexPath, *runFilter)
			return
		}
		listRuns(*indexPath)
		return
	}

	if *eventsPath == "" {
		fmt.Fprintln(os.Stderr, "missing -events")
		os.Exit(2)
	}
	path, err := resolveEventFile(*eventsPath, *runFilter)
	if err != nil {
		fmt.Fprintln(os.Stderr, "events:", err)
		os.Exit(1)
	}
	if err := verifyRun(path); err != nil {
		fmt.Fprintln(os.Stderr, "replay:", err)
		os.Exit(1)
	}
}

func resolveEventFile(path, runID string) (string, error) {
	st, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if !st.IsDir() {
		return path, nil
	}
	if runID != "" {
		p := persistlog.EventFile(path, runID)
		if _, err := os.Stat(p); err != nil {
			return "", err
		}
		return p, nil
	}
	files, err := persistlog.ListEventFiles(path)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("no event logs under %s", path)
	}
	// Run ids embed a UTC timestamp, so the sorted order is
	// chronological and the last file is the newest run.
	return files[len(files)-1], nil
}

func verifyRun(path string) error {
	recs, err := persistlog.ReadRun(path)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("%s: empty log", path)
	}
	start, ok := recs[0].(*protocol.RunStart)
	if !ok {
		return fmt.Errorf("%s: first record is %s, want RUN_START", path, recs[0].RecordType())
	}
	var (
		logged  []*protocol.Destroyed
		digests = map[uint64]string{}
		end     *protocol.RunEnd
	)
	for _, r := range recs[1:] {
		switch rr := r.(type) {
		case *protocol.Destroyed:
			logged = append(logged, rr)
		case *protocol.TickMark:
			digests[rr.Tick] = rr.Digest
		case *protocol.RunEnd:
			end = rr
		}
	}
	if end == nil {
		return fmt.Errorf("%s: no RUN_END record (interrupted run?)", path)
	}

	g, err := mapfile.Parse(strings.NewReader(start.MapText))
	if err != nil {
		return fmt.Errorf("embedded map: %w", err)
	}
	sink := &world.RecordingSink{}
	w, err := world.New(g, world.Config{
		Agents:   start.Agents,
		Seed:     start.Seed,
		MaxMoves: start.MaxMoves,
		RunID:    start.RunID,
		MapName:  start.MapName,
		MapText:  start.MapText,
		Sinks:    []world.EventSink{sink},
	})
	if err != nil {
		return err
	}

	// Same termination rule as a live run: step until at most one
	// agent is still planning moves. Any TICK digests in the log are
	// checked as the replay passes them.
	var checked int
	for w.ActiveCount() > 0 {
		w.StepOnce()
		if want, ok := digests[w.Tick()]; ok {
			checked++
			if got := w.StateDigest(); got != want {
				return fmt.Errorf("digest mismatch at tick %d: got=%s want=%s", w.Tick(), got, want)
			}
		}
		if w.ActiveCount() <= 1 {
			break
		}
	}

	got := sink.Destructions()
	if len(got) != len(logged) {
		return fmt.Errorf("destructions: replay produced %d, log has %d", len(got), len(logged))
	}
	for i, want := range logged {
		d := got[i]
		if d.Tick != want.Tick || d.Site != want.Site || d.AntA != want.AntA || d.AntB != want.AntB {
			return fmt.Errorf("destruction %d: replay tick=%d site=%s ants=(%d,%d), log tick=%d site=%s ants=(%d,%d)",
				i, d.Tick, d.SiteName, d.AntA, d.AntB, want.Tick, want.SiteName, want.AntA, want.AntB)
		}
	}
	if w.Tick() != end.Ticks {
		return fmt.Errorf("ticks: replay %d, log %d", w.Tick(), end.Ticks)
	}
	if w.AliveAgents() != end.Survivors || w.StationaryAgents() != end.Stationary {
		return fmt.Errorf("survivors: replay %d (%d stationary), log %d (%d stationary)",
			w.AliveAgents(), w.StationaryAgents(), end.Survivors, end.Stationary)
	}
	if destroyed := g.Len() - g.AliveCount(); destroyed != end.DestroyedSites {
		return fmt.Errorf("destroyed sites: replay %d, log %d", destroyed, end.DestroyedSites)
	}
	if gotDigest := w.StateDigest(); gotDigest != end.Digest {
		return fmt.Errorf("final digest mismatch: got=%s want=%s", gotDigest, end.Digest)
	}

	fmt.Printf("replay ok: run=%s ticks=%d destroyed=%d survivors=%d digests_checked=%d\n",
		start.RunID, w.Tick(), len(got), w.AliveAgents(), checked)
	return nil
}

func listRuns(indexPath string) {
	idx := openIndex(indexPath)
	defer func() { _ = idx.Close() }()

	runs, err := idx.ListRuns(context.Background(), 20)
	if err != nil {
		fmt.Fprintln(os.Stderr, "list runs:", err)
		os.Exit(1)
	}
	for _, r := range runs {
		if !r.Finished {
			fmt.Printf("%s  started=%s map=%s ants=%d seed=%d (unfinished)\n",
				r.RunID, r.StartedAt, r.MapName, r.Ants, r.Seed)
			continue
		}
		fmt.Printf("%s  started=%s map=%s ants=%d seed=%d ticks=%d destroyed=%d survivors=%d\n",
			r.RunID, r.StartedAt, r.MapName, r.Ants, r.Seed, r.Ticks, r.SitesDestroyed, r.Survivors)
	}
}

func showRun(indexPath, runID string) {
	idx := openIndex(indexPath)
	defer func() { _ = idx.Close() }()

	run, ds, err := idx.RunSummary(context.Background(), runID)
	if err != nil {
		fmt.Fprintln(os.Stderr, "run summary:", err)
		os.Exit(1)
	}
	fmt.Printf("%s  started=%s map=%s sites=%d ants=%d seed=%d max_moves=%d\n",
		run.RunID, run.StartedAt, run.MapName, run.Sites, run.Ants, run.Seed, run.MaxMoves)
	if run.Finished {
		fmt.Printf("  ticks=%d destroyed=%d survivors=%d stationary=%d elapsed=%.3fms digest=%s\n",
			run.Ticks, run.SitesDestroyed, run.Survivors, run.Stationary, run.ElapsedMS, run.Digest)
	}
	for _, d := range ds {
		fmt.Printf("  tick=%d %s destroyed by ant %d and ant %d\n", d.Tick, d.SiteName, d.AntA, d.AntB)
	}
}

func openIndex(path string) *indexdb.SQLiteIndex {
	idx, err := indexdb.OpenSQLite(path, 0)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open index:", err)
		os.Exit(1)
	}
	return idx
}
