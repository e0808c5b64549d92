package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/filinglab/riskseg/internal/batch"
	"github.com/filinglab/riskseg/internal/store"
)

func testServer(t *testing.T, dlPath string) (*Server, *batch.RunState) {
	t.Helper()
	run := batch.NewRunState("01TESTRUN0000000000000000")
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(run, dlPath, log), run
}

func TestHealthz(t *testing.T) {
	s, _ := testServer(t, filepath.Join(t.TempDir(), "dead.jsonl"))

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStatusReflectsRunState(t *testing.T) {
	s, run := testServer(t, filepath.Join(t.TempDir(), "dead.jsonl"))
	run.SetStatus(batch.StatusRunning)
	run.SetTotal(10)
	run.Record(batch.OutcomeSuccess)
	run.Record(batch.OutcomeTimeout)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap batch.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	assert.Equal(t, batch.StatusRunning, snap.Status)
	assert.Equal(t, 10, snap.Total)
	assert.Equal(t, 1, snap.Succeeded)
	assert.Equal(t, 1, snap.Failed)
}

func TestDeadLettersEndpoint(t *testing.T) {
	dlPath := filepath.Join(t.TempDir(), "dead.jsonl")
	dlog, err := store.OpenDeadLetterLog(dlPath)
	require.NoError(t, err)
	require.NoError(t, dlog.Append(store.DeadLetter{
		File: "/in/bad.txt", Stage: "segment", Reason: "no segments produced",
		Timestamp: time.Now(),
	}))
	require.NoError(t, dlog.Close())

	s, _ := testServer(t, dlPath)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deadletters", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count   int                `json:"count"`
		Letters []store.DeadLetter `json:"letters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, 1, body.Count)
	assert.Equal(t, "/in/bad.txt", body.Letters[0].File)
}

func TestDeadLettersMissingFileIsEmpty(t *testing.T) {
	s, _ := testServer(t, filepath.Join(t.TempDir(), "absent.jsonl"))
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/deadletters", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":0,"letters":[]}`, rec.Body.String())
}
