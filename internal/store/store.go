// Package store persists batch state: the cross-run manifest of processed
// inputs (keyed by content hash), the per-run checkpoint, and the
// append-only dead-letter log. Only the orchestrator goroutine writes here;
// workers return results and never touch shared state.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version TEXT PRIMARY KEY,
    applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

-- Cross-run manifest: persists indefinitely, keyed by content hash so
-- renamed files are still recognized as processed.
CREATE TABLE IF NOT EXISTS manifest (
    content_hash TEXT PRIMARY KEY,
    path         TEXT NOT NULL,
    segments     INTEGER NOT NULL,
    run_id       TEXT NOT NULL,
    processed_at TIMESTAMP NOT NULL
);

-- Per-run checkpoint: deleted on clean run completion.
CREATE TABLE IF NOT EXISTS checkpoint (
    run_id       TEXT NOT NULL,
    content_hash TEXT NOT NULL,
    path         TEXT NOT NULL,
    outcome      TEXT NOT NULL,
    detail       TEXT,
    updated_at   TIMESTAMP NOT NULL,
    PRIMARY KEY (run_id, content_hash)
);
`

const schemaVersion = "1.0.0"

// Store wraps the SQLite database holding manifest and checkpoint state.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens (creating if needed) the state database at dbPath.
func Open(dbPath string, log *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open state db: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	// Single writer keeps SQLite happy; all writes come from one goroutine
	// anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := db.Exec(
		"INSERT OR IGNORE INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("record schema version: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ManifestEntry is one successfully processed input.
type ManifestEntry struct {
	ContentHash string
	Path        string
	Segments    int
	RunID       string
	ProcessedAt time.Time
}

// RecordSuccess inserts (or refreshes) a manifest entry.
func (s *Store) RecordSuccess(ctx context.Context, e ManifestEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO manifest (content_hash, path, segments, run_id, processed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			path = excluded.path,
			segments = excluded.segments,
			run_id = excluded.run_id,
			processed_at = excluded.processed_at`,
		e.ContentHash, e.Path, e.Segments, e.RunID, e.ProcessedAt.UTC())
	if err != nil {
		return fmt.Errorf("record manifest entry: %w", err)
	}
	return nil
}

// HasProcessed reports whether a content hash is already in the manifest.
// A corrupt row (empty path or non-positive segment count) is dropped and
// reported as unprocessed so the file gets reprocessed rather than silently
// skipped.
func (s *Store) HasProcessed(ctx context.Context, contentHash string) (bool, error) {
	var path string
	var segments int
	err := s.db.QueryRowContext(ctx,
		"SELECT path, segments FROM manifest WHERE content_hash = ?", contentHash).
		Scan(&path, &segments)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query manifest: %w", err)
	}
	if path == "" || segments <= 0 {
		s.log.Warn("dropping corrupt manifest entry, file will be reprocessed",
			"content_hash", contentHash)
		if _, derr := s.db.ExecContext(ctx,
			"DELETE FROM manifest WHERE content_hash = ?", contentHash); derr != nil {
			return false, fmt.Errorf("drop corrupt manifest entry: %w", derr)
		}
		return false, nil
	}
	return true, nil
}

// ManifestHashes returns every content hash in the manifest.
func (s *Store) ManifestHashes(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT content_hash, path, segments FROM manifest")
	if err != nil {
		return nil, fmt.Errorf("list manifest: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hashes := make(map[string]bool)
	for rows.Next() {
		var hash, path string
		var segments int
		if err := rows.Scan(&hash, &path, &segments); err != nil {
			s.log.Warn("skipping unreadable manifest row", "error", err)
			continue
		}
		if path == "" || segments <= 0 {
			s.log.Warn("ignoring corrupt manifest entry", "content_hash", hash)
			continue
		}
		hashes[hash] = true
	}
	return hashes, rows.Err()
}

// CheckpointEntry is one per-file outcome within a run.
type CheckpointEntry struct {
	ContentHash string
	Path        string
	Outcome     string
	Detail      string
	UpdatedAt   time.Time
}

// SaveCheckpoint upserts a batch of entries for the run in one transaction.
func (s *Store) SaveCheckpoint(ctx context.Context, runID string, entries []CheckpointEntry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin checkpoint tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO checkpoint (run_id, content_hash, path, outcome, detail, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, content_hash) DO UPDATE SET
				outcome = excluded.outcome,
				detail = excluded.detail,
				updated_at = excluded.updated_at`,
			runID, e.ContentHash, e.Path, e.Outcome, e.Detail, e.UpdatedAt.UTC()); err != nil {
			return fmt.Errorf("save checkpoint entry: %w", err)
		}
	}
	return tx.Commit()
}

// LoadCheckpoint returns the per-file outcomes recorded for a run. Corrupt
// rows are dropped with a warning so their files reprocess.
func (s *Store) LoadCheckpoint(ctx context.Context, runID string) ([]CheckpointEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content_hash, path, outcome, detail, updated_at
		FROM checkpoint WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []CheckpointEntry
	for rows.Next() {
		var e CheckpointEntry
		if err := rows.Scan(&e.ContentHash, &e.Path, &e.Outcome, &e.Detail, &e.UpdatedAt); err != nil {
			s.log.Warn("skipping unreadable checkpoint row", "run_id", runID, "error", err)
			continue
		}
		if e.ContentHash == "" || e.Outcome == "" {
			s.log.Warn("ignoring corrupt checkpoint entry", "run_id", runID, "path", e.Path)
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClearCheckpoint removes all checkpoint rows for a run. Called on clean
// completion; the manifest persists.
func (s *Store) ClearCheckpoint(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM checkpoint WHERE run_id = ?", runID); err != nil {
		return fmt.Errorf("clear checkpoint: %w", err)
	}
	return nil
}
