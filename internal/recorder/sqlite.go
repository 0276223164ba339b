package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the run history to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL so the history command can read while the daemon writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Debug().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id           TEXT PRIMARY KEY,
			started_at   INTEGER NOT NULL,
			finished_at  INTEGER NOT NULL,
			cache_hit    INTEGER NOT NULL,
			status       TEXT NOT NULL,
			error        TEXT,
			series_count INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS series_stats (
			run_id     TEXT NOT NULL REFERENCES runs(id),
			name       TEXT NOT NULL,
			points     INTEGER NOT NULL,
			first_date TEXT,
			last_date  TEXT,
			last_value REAL,
			PRIMARY KEY (run_id, name)
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores a run and its series statistics in one transaction.
func (r *SQLiteRecorder) RecordRun(run *Run) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if _, err = tx.Exec(`INSERT INTO runs
		(id, started_at, finished_at, cache_hit, status, error, series_count)
		VALUES (?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(), run.CacheHit,
		run.Status, nullString(run.Error), run.SeriesCount,
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, st := range run.Series {
		if _, err = tx.Exec(`INSERT INTO series_stats
			(run_id, name, points, first_date, last_date, last_value)
			VALUES (?,?,?,?,?,?)`,
			run.ID, st.Name, st.Points, dateString(st.FirstDate), dateString(st.LastDate),
			nullFloat(st.LastValue),
		); err != nil {
			return fmt.Errorf("insert series %s: %w", st.Name, err)
		}
	}
	return tx.Commit()
}

// Recent returns the last n runs, newest first, with their series statistics.
func (r *SQLiteRecorder) Recent(n int) ([]Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, started_at, finished_at, cache_hit, status, error, series_count
		FROM runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run               Run
			started, finished int64
			errText           sql.NullString
		)
		if err := rows.Scan(&run.ID, &started, &finished, &run.CacheHit, &run.Status, &errText, &run.SeriesCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.StartedAt = time.Unix(started, 0)
		run.FinishedAt = time.Unix(finished, 0)
		run.Error = errText.String
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range runs {
		stats, err := r.seriesStats(runs[i].ID)
		if err != nil {
			return nil, err
		}
		runs[i].Series = stats
	}
	return runs, nil
}

func (r *SQLiteRecorder) seriesStats(runID string) ([]SeriesStat, error) {
	rows, err := r.db.Query(`SELECT name, points, first_date, last_date, last_value
		FROM series_stats WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query series stats: %w", err)
	}
	defer rows.Close()

	var stats []SeriesStat
	for rows.Next() {
		var (
			st          SeriesStat
			first, last sql.NullString
			value       sql.NullFloat64
		)
		if err := rows.Scan(&st.Name, &st.Points, &first, &last, &value); err != nil {
			return nil, fmt.Errorf("scan series stat: %w", err)
		}
		st.FirstDate = parseDate(first)
		st.LastDate = parseDate(last)
		st.LastValue = math.NaN()
		if value.Valid {
			st.LastValue = value.Float64
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Debug().Msg("closing sqlite recorder")
	return r.db.Close()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// nullFloat maps non-finite values to NULL; SQLite REAL cannot hold NaN.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func dateString(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.DateOnly), Valid: true}
}

func parseDate(s sql.NullString) time.Time {
	if !s.Valid {
		return time.Time{}
	}
	t, err := time.Parse(time.DateOnly, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
