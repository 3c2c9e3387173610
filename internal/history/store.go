// Package history keeps a SQLite record of scan runs and per-file findings.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/simonhull/mqaid/internal/scan"
	"github.com/simonhull/mqaid/internal/types"
)

// DefaultFile is the database name inside the state directory.
const DefaultFile = "history.db"

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store persists runs. It implements scan.Recorder and is safe for
// concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Run is one recorded batch.
type Run struct {
	ID       string
	Started  time.Time
	Finished *time.Time
	DryRun   bool
	Scanned  uint64
	Matched  uint64
	Failed   uint64
	Tagged   uint64
	Bytes    int64
}

// Finding is the recorded outcome of one file.
type Finding struct {
	RunID        string
	Path         string
	State        string
	Encoding     string
	OriginalRate uint32
	Studio       bool
	Error        string
	Recorded     time.Time
}

// Open creates or connects to the database at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection serialises writers from the worker pool.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	s := &Store{db: db, path: path}
	if err := s.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// StartRun inserts a run row. It is called lazily by Record, so callers
// only need it to record runs that find no files.
func (s *Store) StartRun(ctx context.Context, runID string, started time.Time, dryRun bool) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, dry_run) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		runID, started.UTC().Format(timeLayout), boolInt(dryRun),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Record stores the outcome of one file.
func (s *Store) Record(ctx context.Context, runID string, o scan.Outcome) error {
	if err := s.StartRun(ctx, runID, time.Now(), false); err != nil {
		return err
	}

	var errText sql.NullString
	if o.Result.Err != nil {
		errText = sql.NullString{String: types.Reason(o.Result.Err), Valid: true}
	} else if o.TagErr != nil {
		errText = sql.NullString{String: types.Reason(o.TagErr), Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO findings (run_id, path, state, encoding, original_rate, studio, error, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		o.Path,
		o.State.String(),
		scan.Encoding(o.Result),
		o.Result.OriginalSampleRate,
		boolInt(o.Result.Studio),
		errText,
		time.Now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert finding: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a run.
func (s *Store) FinishRun(ctx context.Context, sum scan.Summary) error {
	if err := s.StartRun(ctx, sum.RunID, sum.Started, sum.DryRun); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE runs SET started_at = ?, finished_at = ?, dry_run = ?,
		        scanned = ?, matched = ?, failed = ?, tagged = ?, bytes = ?
		 WHERE id = ?`,
		sum.Started.UTC().Format(timeLayout),
		sum.Started.Add(sum.Duration).UTC().Format(timeLayout),
		boolInt(sum.DryRun),
		sum.Scanned, sum.Matched, sum.Failed, sum.Tagged, sum.Bytes,
		sum.RunID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	return nil
}

// ListRuns returns up to limit runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, started_at, finished_at, dry_run, scanned, matched, failed, tagged, bytes
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r        Run
			started  string
			finished sql.NullString
			dryRun   int
		)
		if err := rows.Scan(&r.ID, &started, &finished, &dryRun, &r.Scanned, &r.Matched, &r.Failed, &r.Tagged, &r.Bytes); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.Started, err = time.Parse(timeLayout, started); err != nil {
			return nil, fmt.Errorf("parse started_at: %w", err)
		}
		if finished.Valid {
			t, err := time.Parse(timeLayout, finished.String)
			if err != nil {
				return nil, fmt.Errorf("parse finished_at: %w", err)
			}
			r.Finished = &t
		}
		r.DryRun = dryRun != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Findings returns the recorded outcomes of a run in recording order.
func (s *Store) Findings(ctx context.Context, runID string) ([]Finding, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, path, state, encoding, original_rate, studio, error, recorded_at
		 FROM findings WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query findings: %w", err)
	}
	defer rows.Close()

	var findings []Finding
	for rows.Next() {
		var (
			f        Finding
			studio   int
			errText  sql.NullString
			recorded string
		)
		if err := rows.Scan(&f.RunID, &f.Path, &f.State, &f.Encoding, &f.OriginalRate, &studio, &errText, &recorded); err != nil {
			return nil, fmt.Errorf("scan finding: %w", err)
		}
		if f.Recorded, err = time.Parse(timeLayout, recorded); err != nil {
			return nil, fmt.Errorf("parse recorded_at: %w", err)
		}
		f.Studio = studio != 0
		f.Error = errText.String
		findings = append(findings, f)
	}
	return findings, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
