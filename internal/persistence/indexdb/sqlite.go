package indexdb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"antmania.dev/internal/protocol"
)

// SQLiteIndex keeps a queryable summary of every run next to the
// JSONL event logs: one row per run plus one row per destruction.
// Writes go through a buffered channel to a single writer goroutine,
// so the simulation thread never waits on the database.
type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool
}

type reqKind int

const (
	reqStart reqKind = iota + 1
	reqDestruction
	reqEnd
)

type req struct {
	kind  reqKind
	runID string

	start protocol.RunStart
	dest  protocol.Destroyed
	end   protocol.RunEnd
}

func OpenSQLite(path string, queue int) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	if queue <= 0 {
		queue = 65536
	}
	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, queue),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	// WAL is much faster for append-style workloads.
	// NORMAL is a decent durability/perf tradeoff for a secondary index.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			map_name TEXT NOT NULL,
			sites INTEGER NOT NULL,
			ants INTEGER NOT NULL,
			seed INTEGER NOT NULL,
			max_moves INTEGER NOT NULL,
			ticks INTEGER,
			survivors INTEGER,
			stationary INTEGER,
			sites_destroyed INTEGER,
			sites_alive INTEGER,
			digest TEXT,
			elapsed_ms REAL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);`,
		`CREATE TABLE IF NOT EXISTS destructions (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			tick INTEGER NOT NULL,
			site INTEGER NOT NULL,
			site_name TEXT NOT NULL,
			ant_a INTEGER NOT NULL,
			ant_b INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_destructions_run_tick ON destructions(run_id, tick);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	if _, err := db.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	return nil
}

// Close drains the queue, commits, and closes the database.
func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) BeginRun(rec protocol.RunStart) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqStart, runID: rec.RunID, start: rec}:
	default:
		// Drop if the indexer falls behind; JSONL logs remain the source of truth.
	}
}

func (s *SQLiteIndex) RecordDestruction(runID string, rec protocol.Destroyed) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqDestruction, runID: runID, dest: rec}:
	default:
	}
}

func (s *SQLiteIndex) FinishRun(runID string, rec protocol.RunEnd) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- req{kind: reqEnd, runID: runID, end: rec}:
	default:
	}
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	// Prepared statements (on db; executed within tx).
	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,started_at,map_name,sites,ants,seed,max_moves) VALUES(?,?,?,?,?,?,?)`)
	insertDestruction, _ := s.db.Prepare(`INSERT OR REPLACE INTO destructions(run_id,seq,tick,site,site_name,ant_a,ant_b) VALUES(?,?,?,?,?,?,?)`)
	finishRun, _ := s.db.Prepare(`UPDATE runs SET ticks=?,survivors=?,stationary=?,sites_destroyed=?,sites_alive=?,digest=?,elapsed_ms=? WHERE run_id=?`)
	defer func() {
		if insertRun != nil {
			_ = insertRun.Close()
		}
		if insertDestruction != nil {
			_ = insertDestruction.Close()
		}
		if finishRun != nil {
			_ = finishRun.Close()
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			// If we can't start a tx, we can't do much; sleep a bit.
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}

	flushIfNeeded := func() {
		if tx == nil {
			return
		}
		if opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait {
			commit()
		}
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqStart:
			st := r.start
			if insertRun != nil {
				if _, err := tx.Stmt(insertRun).Exec(
					st.RunID,
					st.StartedAt,
					st.MapName,
					st.Sites,
					st.Agents,
					int64(st.Seed),
					st.MaxMoves,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqDestruction:
			d := r.dest
			if insertDestruction != nil {
				if _, err := tx.Stmt(insertDestruction).Exec(
					r.runID,
					int64(d.Seq),
					int64(d.Tick),
					int64(d.Site),
					d.SiteName,
					int64(d.AntA),
					int64(d.AntB),
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}

		case reqEnd:
			e := r.end
			if finishRun != nil {
				if _, err := tx.Stmt(finishRun).Exec(
					int64(e.Ticks),
					e.Survivors,
					e.Stationary,
					e.DestroyedSites,
					e.AliveSites,
					e.Digest,
					e.ElapsedMS,
					r.runID,
				); err != nil {
					rollback()
					continue
				}
				opCount++
			}
			// A finished run is the natural batch boundary.
			commit()
			continue
		}
		flushIfNeeded()
	}

	commit()
}
