package indexdb

import (
	"context"
	"database/sql"
)

// RunRow is one row of the runs table. Outcome fields stay zero until
// the run's RUN_END has been indexed; Finished reports whether it was.
type RunRow struct {
	RunID     string
	StartedAt string
	MapName   string
	Sites     int
	Ants      int
	Seed      uint64
	MaxMoves  int

	Finished       bool
	Ticks          uint64
	Survivors      int
	Stationary     int
	SitesDestroyed int
	SitesAlive     int
	Digest         string
	ElapsedMS      float64
}

// DestructionRow is one row of the destructions table.
type DestructionRow struct {
	Seq      uint64
	Tick     uint64
	Site     uint32
	SiteName string
	AntA     uint32
	AntB     uint32
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteIndex) ListRuns(ctx context.Context, limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id,started_at,map_name,sites,ants,seed,max_moves,
		       ticks,survivors,stationary,sites_destroyed,sites_alive,digest,elapsed_ms
		FROM runs ORDER BY started_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunSummary returns one run's row plus its destructions in seq order.
func (s *SQLiteIndex) RunSummary(ctx context.Context, runID string) (RunRow, []DestructionRow, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id,started_at,map_name,sites,ants,seed,max_moves,
		       ticks,survivors,stationary,sites_destroyed,sites_alive,digest,elapsed_ms
		FROM runs WHERE run_id=?`, runID)
	run, err := scanRun(row)
	if err != nil {
		return RunRow{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq,tick,site,site_name,ant_a,ant_b
		FROM destructions WHERE run_id=? ORDER BY seq`, runID)
	if err != nil {
		return RunRow{}, nil, err
	}
	defer rows.Close()

	var ds []DestructionRow
	for rows.Next() {
		var (
			d                    DestructionRow
			seq, tick, site, a, b int64
		)
		if err := rows.Scan(&seq, &tick, &site, &d.SiteName, &a, &b); err != nil {
			return RunRow{}, nil, err
		}
		d.Seq, d.Tick = uint64(seq), uint64(tick)
		d.Site, d.AntA, d.AntB = uint32(site), uint32(a), uint32(b)
		ds = append(ds, d)
	}
	return run, ds, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (RunRow, error) {
	var (
		r       RunRow
		seed    int64
		ticks   sql.NullInt64
		surv    sql.NullInt64
		stat    sql.NullInt64
		destr   sql.NullInt64
		alive   sql.NullInt64
		digest  sql.NullString
		elapsed sql.NullFloat64
	)
	if err := row.Scan(&r.RunID, &r.StartedAt, &r.MapName, &r.Sites, &r.Ants, &seed, &r.MaxMoves,
		&ticks, &surv, &stat, &destr, &alive, &digest, &elapsed); err != nil {
		return RunRow{}, err
	}
	r.Seed = uint64(seed)
	if ticks.Valid {
		r.Finished = true
		r.Ticks = uint64(ticks.Int64)
		r.Survivors = int(surv.Int64)
		r.Stationary = int(stat.Int64)
		r.SitesDestroyed = int(destr.Int64)
		r.SitesAlive = int(alive.Int64)
		r.Digest = digest.String
		r.ElapsedMS = elapsed.Float64
	}
	return r, nil
}
