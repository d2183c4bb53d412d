// Package ledger records compaction runs in a SQLite database under the
// state directory. The ledger is diagnostic history only: it is never read
// back by the scheduler, and a failed write must not fail a hook.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// DBFileName is the ledger database inside the state directory.
const DBFileName = "broom.db"

// Schema DDL. A single append-only table; rows are never updated.
const createRuns = `CREATE TABLE IF NOT EXISTS compaction_runs (
    run_id TEXT PRIMARY KEY,
    session_id TEXT NOT NULL,
    transcript_path TEXT NOT NULL,
    pairs_removed INTEGER NOT NULL,
    records_removed INTEGER NOT NULL,
    links_repaired INTEGER NOT NULL,
    skipped_lines INTEGER NOT NULL,
    ran_at TEXT NOT NULL
);`

const idxRunsRanAt = `CREATE INDEX IF NOT EXISTS idx_compaction_runs_ran_at
    ON compaction_runs(ran_at);`

// Run is one recorded compaction.
type Run struct {
	RunID          string
	SessionID      string
	TranscriptPath string
	PairsRemoved   int
	RecordsRemoved int
	LinksRepaired  int
	SkippedLines   int
	RanAt          time.Time
}

// Ledger wraps the SQLite database. Callers must Close it.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if needed) the ledger database in stateDir and
// ensures the schema exists.
func Open(stateDir string) (*Ledger, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}

	db, err := sql.Open("sqlite", filepath.Join(stateDir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("opening ledger: %w", err)
	}
	for _, ddl := range []string{createRuns, idxRunsRanAt} {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("initializing ledger schema: %w", err)
		}
	}
	return &Ledger{db: db}, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Record inserts one compaction run. A zero RunID gets a fresh UUIDv7 and a
// zero RanAt gets the current time.
func (l *Ledger) Record(run Run) error {
	if run.RunID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("generating run id: %w", err)
		}
		run.RunID = id.String()
	}
	if run.RanAt.IsZero() {
		run.RanAt = time.Now().UTC()
	}

	_, err := l.db.Exec(
		`INSERT INTO compaction_runs
		 (run_id, session_id, transcript_path, pairs_removed, records_removed, links_repaired, skipped_lines, ran_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.SessionID, run.TranscriptPath,
		run.PairsRemoved, run.RecordsRemoved, run.LinksRepaired, run.SkippedLines,
		run.RanAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (l *Ledger) Recent(limit int) ([]Run, error) {
	rows, err := l.db.Query(
		`SELECT run_id, session_id, transcript_path, pairs_removed, records_removed, links_repaired, skipped_lines, ran_at
		 FROM compaction_runs ORDER BY ran_at DESC, run_id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run   Run
			ranAt string
		)
		if err := rows.Scan(&run.RunID, &run.SessionID, &run.TranscriptPath,
			&run.PairsRemoved, &run.RecordsRemoved, &run.LinksRepaired, &run.SkippedLines,
			&ranAt); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, ranAt)
		if err != nil {
			return nil, fmt.Errorf("parsing run timestamp: %w", err)
		}
		run.RanAt = t
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
