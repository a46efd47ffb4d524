// Package journal keeps a SQLite ledger of pipeline runs: one row per run
// and one per processed file. The batch command uses it to compute exit
// codes and to print the run summary.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    started_at  TEXT NOT NULL,
    finished_at TEXT,
    processed   INTEGER NOT NULL DEFAULT 0,
    renamed     INTEGER NOT NULL DEFAULT 0,
    proposed    INTEGER NOT NULL DEFAULT 0,
    skipped     INTEGER NOT NULL DEFAULT 0,
    failed      INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS run_files (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id     TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    path       TEXT NOT NULL,
    status     TEXT NOT NULL,
    proposed   TEXT,
    reason     TEXT,
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_files_run ON run_files(run_id);
`

// Journal manages run persistence backed by SQLite.
type Journal struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the journal database under dir.
func Open(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure journal directory: %w", err)
	}

	dbPath := filepath.Join(dir, "journal.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Journal{db: db, path: dbPath}, nil
}

// Close closes the underlying database connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Path returns the database file location.
func (j *Journal) Path() string { return j.path }

// Run is one pipeline invocation in progress.
type Run struct {
	ID      string
	Started time.Time

	journal *Journal
}

// Summary aggregates a finished run's per-file outcomes.
type Summary struct {
	Processed int
	Renamed   int
	Proposed  int
	Skipped   int
	Failed    int
}

// StartRun inserts a new run row and returns a handle for recording files.
func (j *Journal) StartRun(ctx context.Context) (*Run, error) {
	id := uuid.NewString()
	started := time.Now().UTC()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		id, started.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{ID: id, Started: started, journal: j}, nil
}

// RecordFile appends one file outcome to the run.
func (r *Run) RecordFile(ctx context.Context, path, status, proposed, reason string) error {
	_, err := r.journal.db.ExecContext(ctx,
		`INSERT INTO run_files (run_id, path, status, proposed, reason, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, path, status,
		nullableString(proposed), nullableString(reason),
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("insert run file: %w", err)
	}
	return nil
}

// Finish stamps the run and stores the aggregated counts, which are also
// returned for the summary table.
func (r *Run) Finish(ctx context.Context) (Summary, error) {
	summary, err := r.journal.summarize(ctx, r.ID)
	if err != nil {
		return Summary{}, err
	}
	_, err = r.journal.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, processed = ?, renamed = ?, proposed = ?, skipped = ?, failed = ?
         WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339Nano),
		summary.Processed, summary.Renamed, summary.Proposed, summary.Skipped, summary.Failed,
		r.ID)
	if err != nil {
		return Summary{}, fmt.Errorf("finish run: %w", err)
	}
	return summary, nil
}

func (j *Journal) summarize(ctx context.Context, runID string) (Summary, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT status, COUNT(1) FROM run_files WHERE run_id = ? GROUP BY status`, runID)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize run: %w", err)
	}
	defer rows.Close()

	var summary Summary
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Summary{}, err
		}
		summary.Processed += count
		switch status {
		case "committed":
			summary.Renamed += count
		case "proposed":
			summary.Proposed += count
		case "skipped":
			summary.Skipped += count
		case "failed":
			summary.Failed += count
		}
	}
	return summary, rows.Err()
}

// FileRecord is one persisted per-file outcome.
type FileRecord struct {
	Path     string
	Status   string
	Proposed string
	Reason   string
	Created  time.Time
}

// Files returns the run's per-file records in insertion order.
func (j *Journal) Files(ctx context.Context, runID string) ([]FileRecord, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT path, status, proposed, reason, created_at
         FROM run_files WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, fmt.Errorf("query run files: %w", err)
	}
	defer rows.Close()

	var records []FileRecord
	for rows.Next() {
		var (
			rec        FileRecord
			proposed   sql.NullString
			reason     sql.NullString
			createdRaw string
		)
		if err := rows.Scan(&rec.Path, &rec.Status, &proposed, &reason, &createdRaw); err != nil {
			return nil, err
		}
		rec.Proposed = proposed.String
		rec.Reason = reason.String
		if created, err := parseTimeString(createdRaw); err == nil {
			rec.Created = created
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
