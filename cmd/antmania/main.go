package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"antmania.dev/internal/persistence/indexdb"
	persistlog "antmania.dev/internal/persistence/log"
	"antmania.dev/internal/protocol"
	"antmania.dev/internal/sim/mapfile"
	"antmania.dev/internal/sim/tuning"
	"antmania.dev/internal/sim/world"
	"antmania.dev/internal/transport/observer"
)

func main() {
	var (
		mapPath     = flag.String("map", "", "map file (required)")
		ants        = flag.Int("ants", 0, "number of ants to drop on the map (required)")
		maxMoves    = flag.Int("max-moves", 0, "per-ant move cap (0 = tuning default)")
		seed        = flag.Uint64("seed", 0, "simulation seed (0 = derived from time)")
		suppress    = flag.Bool("suppress-events", false, "do not print destruction lines as they happen")
		tuningPath  = flag.String("tuning", "tuning.yaml", "path to tuning.yaml")
		eventsDir   = flag.String("events", "", "directory for compressed event logs (empty to disable)")
		indexPath   = flag.String("index", "", "sqlite run index path (empty to disable)")
		observeAddr = flag.String("observe", "", "websocket observer listen address (empty to disable)")
		pace        = flag.Duration("pace", 0, "delay between ticks (overrides tuning tick_pace_ms)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[antmania] ", log.LstdFlags|log.Lmicroseconds)

	if *mapPath == "" {
		logger.Fatalf("-map is required")
	}
	if *ants <= 0 {
		logger.Fatalf("-ants must be positive (got %d)", *ants)
	}

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Printf("tuning not found (%s); using defaults", *tuningPath)
			tune = tuning.Defaults()
		} else {
			logger.Fatalf("load tuning: %v", err)
		}
	}

	runSeed := *seed
	if runSeed == 0 {
		runSeed = uint64(time.Now().UnixNano())
		logger.Printf("seed not set; using %d", runSeed)
	}
	moveCap := *maxMoves
	if moveCap == 0 {
		moveCap = tune.MaxMoves
	}
	tickPace := *pace
	if tickPace == 0 && tune.TickPaceMS > 0 {
		tickPace = time.Duration(tune.TickPaceMS) * time.Millisecond
	}

	mapText, err := os.ReadFile(*mapPath)
	if err != nil {
		logger.Fatalf("read map: %v", err)
	}
	g, err := mapfile.Parse(bytes.NewReader(mapText))
	if err != nil {
		logger.Fatalf("parse map: %v", err)
	}

	runID := fmt.Sprintf("r-%s-%d", time.Now().UTC().Format("20060102-150405"), runSeed)

	var sinks []world.EventSink
	if !*suppress {
		sinks = append(sinks, printSink{out: os.Stdout})
	}

	var eventLog *persistlog.EventLog
	if *eventsDir != "" {
		eventLog, err = persistlog.NewEventLog(*eventsDir, runID)
		if err != nil {
			logger.Fatalf("event log: %v", err)
		}
		sinks = append(sinks, eventLog)
	}

	var idx *indexdb.SQLiteIndex
	if *indexPath != "" {
		idx, err = indexdb.OpenSQLite(*indexPath, tune.Index.Queue)
		if err != nil {
			logger.Fatalf("open index: %v", err)
		}
		sinks = append(sinks, idx.Sink())
	}

	var hub *observer.Hub
	if *observeAddr != "" {
		hub = observer.NewHub(tune.Observer.Backlog, tune.Observer.MaxClients)
		sinks = append(sinks, hub)
	}

	w, err := world.New(g, world.Config{
		Agents:      *ants,
		Seed:        runSeed,
		MaxMoves:    moveCap,
		RunID:       runID,
		MapName:     filepath.Base(*mapPath),
		MapText:     string(mapText),
		Sinks:       sinks,
		Pace:        tickPace,
		DigestEvery: tune.DigestEvery,
	})
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if hub != nil {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
			rw.WriteHeader(200)
			_, _ = rw.Write([]byte("ok"))
		})
		mux.HandleFunc("/v1/observe", observer.NewServer(hub, logger).Handler())

		srv := &http.Server{
			Addr:              *observeAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Printf("observer listening on %s", *observeAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalf("ListenAndServe: %v", err)
			}
		}()
		go func() {
			<-ctx.Done()
			ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel2()
			_ = srv.Shutdown(ctx2)
		}()
	}

	logger.Printf("run %s: map=%s sites=%d ants=%d max_moves=%d seed=%d",
		runID, filepath.Base(*mapPath), g.Len(), *ants, moveCap, runSeed)

	res, err := w.Run(ctx)
	if err != nil {
		closeOutputs(logger, eventLog, idx)
		logger.Fatalf("run stopped: %v", err)
	}

	// The world that is left, in the same format it was loaded from.
	if err := mapfile.Write(os.Stdout, g); err != nil {
		logger.Printf("write map: %v", err)
	}

	logger.Printf("done: ants=%d max_moves=%d ticks=%d destroyed=%d survivors=%d stationary=%d latency=%.3fms",
		*ants, moveCap, res.Ticks, res.DestroyedSites, res.Survivors, res.Stationary,
		float64(res.Elapsed.Microseconds())/1000.0)
	if eventLog != nil {
		logger.Printf("events: %s", persistlog.EventFile(*eventsDir, runID))
	}
	closeOutputs(logger, eventLog, idx)

	if hub != nil {
		logger.Printf("observer still serving; interrupt to exit")
		<-ctx.Done()
	}
}

// printSink prints a line for every destroyed site as it happens.
type printSink struct {
	out io.Writer
}

func (p printSink) Append(rec protocol.Record) {
	if d, ok := rec.(*protocol.Destroyed); ok {
		fmt.Fprintf(p.out, "%s has been destroyed by ant %d and ant %d!\n", d.SiteName, d.AntA, d.AntB)
	}
}

func closeOutputs(logger *log.Logger, eventLog *persistlog.EventLog, idx *indexdb.SQLiteIndex) {
	if eventLog != nil {
		if err := eventLog.Close(); err != nil {
			logger.Printf("event log close: %v", err)
		}
	}
	if idx != nil {
		if err := idx.Close(); err != nil {
			logger.Printf("index close: %v", err)
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}
