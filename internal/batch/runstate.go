package batch

import (
	"sync"
	"time"
)

// RunStatus is the lifecycle state of a batch run.
type RunStatus string

const (
	StatusPending         RunStatus = "pending"
	StatusRunning         RunStatus = "running"
	StatusCompleted       RunStatus = "completed"
	StatusPartiallyFailed RunStatus = "partially_failed"
	// StatusInterrupted marks a run cut short by cancellation before every
	// admitted file was attempted. The checkpoint survives for resume.
	StatusInterrupted RunStatus = "interrupted"
)

// Outcome classifies one file's result.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeNotFound Outcome = "section_not_found"
	OutcomeEmpty    Outcome = "empty_extraction"
	OutcomeTimeout  Outcome = "timeout"
	OutcomeError    Outcome = "error"
	OutcomeSkipped  Outcome = "skipped"
	// OutcomeInterrupted marks a file the run never attempted because it was
	// canceled first. Not a failure: the file is untouched and reprocesses
	// on resume, so it must stay out of the dead-letter log.
	OutcomeInterrupted Outcome = "interrupted"
)

// failed reports whether an outcome belongs in the dead-letter log.
func (o Outcome) failed() bool {
	return o == OutcomeEmpty || o == OutcomeTimeout || o == OutcomeError
}

// FileResult is one per-file outcome in the user-visible result list.
type FileResult struct {
	Path        string        `json:"path"`
	ContentHash string        `json:"content_hash,omitempty"`
	Outcome     Outcome       `json:"outcome"`
	Detail      string        `json:"detail,omitempty"`
	OutputPath  string        `json:"output_path,omitempty"`
	Segments    int           `json:"segments,omitempty"`
	Elapsed     time.Duration `json:"elapsed,omitempty"`
}

// RunState tracks a run's progress. Written only by the orchestrator
// goroutine; Snapshot gives other goroutines (the status API) a consistent
// read.
type RunState struct {
	mu sync.Mutex

	RunID       string
	Status      RunStatus
	Total       int
	Processed   int
	Succeeded   int
	Failed      int
	NotFound    int
	Skipped     int
	Interrupted int
	StartedAt   time.Time
	UpdatedAt   time.Time
}

// NewRunState creates a pending run.
func NewRunState(runID string) *RunState {
	now := time.Now()
	return &RunState{RunID: runID, Status: StatusPending, StartedAt: now, UpdatedAt: now}
}

// SetStatus transitions the run.
func (r *RunState) SetStatus(s RunStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = s
	r.UpdatedAt = time.Now()
}

// SetTotal records how many files were admitted to the run.
func (r *RunState) SetTotal(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Total = n
	r.UpdatedAt = time.Now()
}

// Record tallies one outcome.
func (r *RunState) Record(o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch o {
	case OutcomeSuccess:
		r.Processed++
		r.Succeeded++
	case OutcomeNotFound:
		r.Processed++
		r.NotFound++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeInterrupted:
		r.Interrupted++
	default:
		r.Processed++
		r.Failed++
	}
	r.UpdatedAt = time.Now()
}

// Snapshot is a JSON-safe copy of run state.
type Snapshot struct {
	RunID       string    `json:"run_id"`
	Status      RunStatus `json:"status"`
	Total       int       `json:"total"`
	Processed   int       `json:"processed"`
	Succeeded   int       `json:"succeeded"`
	Failed      int       `json:"failed"`
	NotFound    int       `json:"not_found"`
	Skipped     int       `json:"skipped"`
	Interrupted int       `json:"interrupted,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Snapshot returns a consistent copy of the counters.
func (r *RunState) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		RunID:       r.RunID,
		Status:      r.Status,
		Total:       r.Total,
		Processed:   r.Processed,
		Succeeded:   r.Succeeded,
		Failed:      r.Failed,
		NotFound:    r.NotFound,
		Skipped:     r.Skipped,
		Interrupted: r.Interrupted,
		StartedAt:   r.StartedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}
