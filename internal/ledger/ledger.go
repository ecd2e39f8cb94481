// Package ledger persists scaffold run history in SQLite. The database
// lives in the user state directory, never inside a provisioned
// workspace, so a scaffolded project contains exactly the skeleton and
// nothing else.
package ledger

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Run outcomes.
const (
	OutcomeApplied  = "applied"
	OutcomeRepaired = "repaired"
)

// Run is one recorded scaffold operation.
type Run struct {
	ID           string
	Workspace    string
	StartedAt    time.Time
	Duration     time.Duration
	DirsCreated  int
	FilesWritten int
	Outcome      string
}

// FileDigest records the bytes a run left behind for one skeleton file.
type FileDigest struct {
	RunID  string
	Path   string
	Digest string
	Bytes  int
}

// Store is the SQLite-backed run ledger.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Open initializes the ledger database at the given path, creating the
// schema on first use. An empty path selects the default state location.
func Open(path string) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}

	db, err := openDB(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger database: %w", err)
	}

	store := &Store{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initialize creates the required tables.
func (s *Store) initialize() error {
	runsTable := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		workspace TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		dirs_created INTEGER NOT NULL,
		files_written INTEGER NOT NULL,
		outcome TEXT NOT NULL DEFAULT 'applied'
	);
	CREATE INDEX IF NOT EXISTS idx_runs_workspace ON runs(workspace);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	filesTable := `
	CREATE TABLE IF NOT EXISTS run_files (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		path TEXT NOT NULL,
		digest TEXT NOT NULL,
		bytes INTEGER NOT NULL,
		UNIQUE(run_id, path)
	);
	CREATE INDEX IF NOT EXISTS idx_run_files_run ON run_files(run_id);
	`

	for _, table := range []string{runsTable, filesTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.dbPath
}

// RecordRun writes a run and its file digests in one transaction.
func (s *Store) RecordRun(run Run, files []FileDigest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO runs (id, workspace, started_at, duration_ms, dirs_created, files_written, outcome)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		normalizeWorkspace(run.Workspace),
		run.StartedAt.UTC().Format(time.RFC3339Nano),
		run.Duration.Milliseconds(),
		run.DirsCreated,
		run.FilesWritten,
		run.Outcome,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for _, f := range files {
		_, err := tx.Exec(
			`INSERT OR REPLACE INTO run_files (run_id, path, digest, bytes) VALUES (?, ?, ?, ?)`,
			run.ID, f.Path, f.Digest, f.Bytes,
		)
		if err != nil {
			return fmt.Errorf("failed to record file digest for %s: %w", f.Path, err)
		}
	}

	return tx.Commit()
}

// LastRun returns the most recent run for a workspace, or nil when the
// workspace has never been scaffolded.
func (s *Store) LastRun(workspace string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		`SELECT id, workspace, started_at, duration_ms, dirs_created, files_written, outcome
		 FROM runs WHERE workspace = ? ORDER BY started_at DESC LIMIT 1`,
		normalizeWorkspace(workspace),
	)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load last run: %w", err)
	}
	return run, nil
}

// Runs returns up to limit runs for a workspace, newest first.
func (s *Store) Runs(workspace string, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, workspace, started_at, duration_ms, dirs_created, files_written, outcome
		 FROM runs WHERE workspace = ? ORDER BY started_at DESC LIMIT ?`,
		normalizeWorkspace(workspace), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// RunCount returns how many runs a workspace has recorded.
func (s *Store) RunCount(workspace string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM runs WHERE workspace = ?`,
		normalizeWorkspace(workspace),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count runs: %w", err)
	}
	return count, nil
}

// FileDigests returns the digests a run recorded, keyed by skeleton path.
func (s *Store) FileDigests(runID string) (map[string]FileDigest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT run_id, path, digest, bytes FROM run_files WHERE run_id = ?`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query file digests: %w", err)
	}
	defer rows.Close()

	digests := make(map[string]FileDigest)
	for rows.Next() {
		var f FileDigest
		if err := rows.Scan(&f.RunID, &f.Path, &f.Digest, &f.Bytes); err != nil {
			return nil, fmt.Errorf("failed to scan file digest: %w", err)
		}
		digests[f.Path] = f
	}
	return digests, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(sc scanner) (*Run, error) {
	var run Run
	var startedAt string
	var durationMS int64
	if err := sc.Scan(&run.ID, &run.Workspace, &startedAt, &durationMS,
		&run.DirsCreated, &run.FilesWritten, &run.Outcome); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, startedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run timestamp %q: %w", startedAt, err)
	}
	run.StartedAt = ts
	run.Duration = time.Duration(durationMS) * time.Millisecond
	return &run, nil
}

// normalizeWorkspace keys runs by absolute cleaned path so lookups match
// no matter how the caller spelled the workspace.
func normalizeWorkspace(workspace string) string {
	abs, err := filepath.Abs(workspace)
	if err != nil {
		return filepath.Clean(workspace)
	}
	return abs
}
