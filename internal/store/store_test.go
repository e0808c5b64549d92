package store

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "state.db"),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestManifestRoundTrip(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	ok, err := s.HasProcessed(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.RecordSuccess(ctx, ManifestEntry{
		ContentHash: "abc", Path: "a.txt", Segments: 7,
		RunID: "run1", ProcessedAt: time.Now(),
	})
	require.NoError(t, err)

	ok, err = s.HasProcessed(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	hashes, err := s.ManifestHashes(ctx)
	require.NoError(t, err)
	assert.True(t, hashes["abc"])
}

func TestManifestUpsertIsIdempotent(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	e := ManifestEntry{ContentHash: "h", Path: "p", Segments: 3, RunID: "r", ProcessedAt: time.Now()}
	require.NoError(t, s.RecordSuccess(ctx, e))
	e.RunID = "r2"
	require.NoError(t, s.RecordSuccess(ctx, e))

	hashes, err := s.ManifestHashes(ctx)
	require.NoError(t, err)
	assert.Len(t, hashes, 1)
}

func TestCorruptManifestEntryTreatedAsUnprocessed(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	// Zero segments is a corrupt success record.
	require.NoError(t, s.RecordSuccess(ctx, ManifestEntry{
		ContentHash: "bad", Path: "b.txt", Segments: 0,
		RunID: "run1", ProcessedAt: time.Now(),
	}))

	ok, err := s.HasProcessed(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok, "corrupt entry must report unprocessed")

	// And the entry is gone, so re-recording works cleanly.
	ok, err = s.HasProcessed(ctx, "bad")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCheckpointRoundTripAndClear(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	entries := []CheckpointEntry{
		{ContentHash: "h1", Path: "a", Outcome: "success", UpdatedAt: time.Now()},
		{ContentHash: "h2", Path: "b", Outcome: "failed", Detail: "timeout", UpdatedAt: time.Now()},
	}
	require.NoError(t, s.SaveCheckpoint(ctx, "run1", entries))

	got, err := s.LoadCheckpoint(ctx, "run1")
	require.NoError(t, err)
	assert.Len(t, got, 2)

	// Other runs see nothing.
	other, err := s.LoadCheckpoint(ctx, "run2")
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, s.ClearCheckpoint(ctx, "run1"))
	got, err = s.LoadCheckpoint(ctx, "run1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckpointUpsert(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	e := CheckpointEntry{ContentHash: "h", Path: "a", Outcome: "failed", UpdatedAt: time.Now()}
	require.NoError(t, s.SaveCheckpoint(ctx, "run1", []CheckpointEntry{e}))
	e.Outcome = "success"
	require.NoError(t, s.SaveCheckpoint(ctx, "run1", []CheckpointEntry{e}))

	got, err := s.LoadCheckpoint(ctx, "run1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "success", got[0].Outcome)
}

func TestDeadLetterAppendAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dead.jsonl")
	l, err := OpenDeadLetterLog(path)
	require.NoError(t, err)

	require.NoError(t, l.Append(DeadLetter{
		File: "a.txt", Stage: "segment", Reason: "timeout", Timestamp: time.Now(),
	}))
	require.NoError(t, l.Append(DeadLetter{
		File: "b.txt", Stage: "extract", Reason: "section not found", Timestamp: time.Now(),
	}))
	require.NoError(t, l.Close())

	got, err := ReadDeadLetters(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a.txt", got[0].File)
	assert.Equal(t, "extract", got[1].Stage)
}

func TestReadDeadLettersMissingFile(t *testing.T) {
	got, err := ReadDeadLetters(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	assert.Empty(t, got)
}
