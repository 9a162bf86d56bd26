// Package history keeps a SQLite log of finished click runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"speedclicker/internal/core/autoclicker"

	_ "modernc.org/sqlite" // SQLite driver.
)

// DefaultRecentLimit is the number of runs listed when no limit is given.
const DefaultRecentLimit = 20

// Run is one stored run.
type Run struct {
	ID               int64
	StartedAt        time.Time
	EndedAt          time.Time
	Clicks           int64
	Reason           autoclicker.StopReason
	Button           autoclicker.Button
	IntervalMS       float64
	DutyCyclePercent float64
	Error            string
}

// Duration is the wall time between start and end.
func (r Run) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Store wraps SQLite access for run history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// Runs end on the engine goroutine while the UI may be reading.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			_ = cerr
		}
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			clicks INTEGER NOT NULL,
			reason TEXT NOT NULL,
			button TEXT NOT NULL,
			interval_ms REAL NOT NULL,
			duty_cycle_percent REAL NOT NULL,
			error TEXT NOT NULL DEFAULT ''
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ended_at ON runs(ended_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Record stores a finished run and returns its row id.
func (s *Store) Record(ctx context.Context, summary autoclicker.RunSummary) (int64, error) {
	errText := ""
	if summary.Err != nil {
		errText = summary.Err.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, ended_at, clicks, reason, button, interval_ms, duty_cycle_percent, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.StartedAt.UTC().Format(time.RFC3339Nano),
		summary.EndedAt.UTC().Format(time.RFC3339Nano),
		summary.Clicks,
		string(summary.Reason),
		string(summary.Button),
		summary.IntervalMS,
		summary.DutyCyclePercent,
		errText,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, clicks, reason, button, interval_ms, duty_cycle_percent, error
		 FROM runs ORDER BY ended_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			_ = cerr
		}
	}()

	var result []Run
	for rows.Next() {
		var (
			run             Run
			started, ended string
			reason, button string
		)
		if err := rows.Scan(&run.ID, &started, &ended, &run.Clicks, &reason, &button, &run.IntervalMS, &run.DutyCyclePercent, &run.Error); err != nil {
			return nil, err
		}
		if run.StartedAt, err = time.Parse(time.RFC3339Nano, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if run.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, fmt.Errorf("parse ended_at: %w", err)
		}
		run.Reason = autoclicker.StopReason(reason)
		run.Button = autoclicker.Button(button)
		result = append(result, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Recorder returns a run-end observer that writes each summary to the store.
// Failures are logged and never reach the engine.
func (s *Store) Recorder(logger autoclicker.Logger, timeout time.Duration) func(autoclicker.RunSummary) {
	return func(summary autoclicker.RunSummary) {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if _, err := s.Record(ctx, summary); err != nil {
			if logger != nil {
				logger.Warn("Failed to record run", "err", err)
			}
			return
		}
		if logger != nil {
			logger.Debug("Recorded run", "clicks", summary.Clicks, "reason", summary.Reason)
		}
	}
}
