// Package archive persists each run's normalized readings to SQLite so
// exports can be inspected or re-reported later without the original CSV.
// The archive is optional and strictly off the pipeline's critical path: a
// failed insert is a warning, never a failed run.
package archive

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"glucograph/config"
	"glucograph/reading"
)

// Store wraps the SQLite database holding archived runs.
type Store struct {
	db *sql.DB
}

// RunInfo describes one pipeline run for the runs table.
type RunInfo struct {
	ID         uuid.UUID
	Started    time.Time
	InputPath  string
	Units      reading.Unit
	Dropped    int
	Duplicates int
}

// Open initializes the database and schema.
func Open(cfg config.ArchiveConfig) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("archive: mkdir: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("archive: open db: %w", err)
	}
	busy := cfg.BusyTimeoutMS
	if busy <= 0 {
		busy = 5000
	}
	if _, err := db.Exec(fmt.Sprintf("pragma journal_mode=WAL; pragma synchronous=NORMAL; pragma busy_timeout=%d", busy)); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive: pragmas: %w", err)
	}
	if err := ensureSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureSchema(db *sql.DB) error {
	schema := `
create table if not exists runs (
	id text primary key,
	started_at text not null,
	input_path text not null,
	units text not null,
	readings integer not null,
	dropped integer not null,
	duplicates integer not null
);
create table if not exists readings (
	run_id text not null references runs(id),
	ts text not null,
	value real not null,
	meal text not null,
	method text not null,
	annotation text not null,
	synthetic integer not null
);
create index if not exists readings_run_ts on readings(run_id, ts);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("archive: schema: %w", err)
	}
	return nil
}

// RecordRun stores the run row and its readings in one transaction.
func (s *Store) RecordRun(info RunInfo, readings []reading.Reading) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("archive: begin tx: %w", err)
	}
	if _, err := tx.Exec(
		`insert into runs(id, started_at, input_path, units, readings, dropped, duplicates) values(?,?,?,?,?,?,?)`,
		info.ID.String(), info.Started.UTC().Format(time.RFC3339), info.InputPath,
		string(info.Units), len(readings), info.Dropped, info.Duplicates,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("archive: insert run: %w", err)
	}
	stmt, err := tx.Prepare(`insert into readings(run_id, ts, value, meal, method, annotation, synthetic) values(?,?,?,?,?,?,?)`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("archive: prepare: %w", err)
	}
	for i := range readings {
		r := &readings[i]
		synthetic := 0
		if r.Synthetic {
			synthetic = 1
		}
		if _, err := stmt.Exec(
			info.ID.String(), r.Time.Format(reading.TimestampLayout), r.Value,
			string(r.Meal), r.Method, r.Label(), synthetic,
		); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("archive: insert reading: %w", err)
		}
	}
	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("archive: close stmt: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("archive: commit: %w", err)
	}
	return nil
}

// RunCount reports how many runs the archive holds.
func (s *Store) RunCount() (int, error) {
	var n int
	if err := s.db.QueryRow(`select count(*) from runs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("archive: count runs: %w", err)
	}
	return n, nil
}

// ReadingCount reports how many readings one run archived.
func (s *Store) ReadingCount(runID uuid.UUID) (int, error) {
	var n int
	if err := s.db.QueryRow(`select count(*) from readings where run_id = ?`, runID.String()).Scan(&n); err != nil {
		return 0, fmt.Errorf("archive: count readings: %w", err)
	}
	return n, nil
}
