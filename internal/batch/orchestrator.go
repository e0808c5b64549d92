// Package batch schedules the extraction pipeline over many files with
// memory-aware admission control, adaptive timeouts, checkpointed resume,
// and dead-letter quarantine. Workers only compute; every piece of shared
// state (manifest, checkpoint, dead-letter log) is written by the
// orchestrating goroutine after a worker returns.
package batch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/filinglab/riskseg/internal/estimate"
	"github.com/filinglab/riskseg/internal/extract"
	"github.com/filinglab/riskseg/internal/output"
	"github.com/filinglab/riskseg/internal/segment"
	"github.com/filinglab/riskseg/internal/store"
)

// Config carries the operator-injected knobs for one run.
type Config struct {
	RunID    string // empty: a fresh ULID is generated
	Target   extract.Target
	FormType string
	Segment  segment.Config

	Workers      int
	RecycleAfter int

	MemoryCeiling int64
	Estimate      estimate.Params

	CheckpointInterval time.Duration
}

// Summary is the user-visible result of a run.
type Summary struct {
	Snapshot Snapshot
	Results  []FileResult
}

// Orchestrator coordinates one batch run.
type Orchestrator struct {
	cfg    Config
	st     *store.Store
	dlog   *store.DeadLetterLog
	writer *output.Writer
	log    *slog.Logger

	state     *RunState
	sem       *semaphore.Weighted
	workerSeq atomic.Int64

	pending []store.CheckpointEntry
}

// New creates an orchestrator. Store, dead-letter log, and writer must be
// open; the orchestrator does not own their lifecycles.
func New(cfg Config, st *store.Store, dlog *store.DeadLetterLog, writer *output.Writer, log *slog.Logger) *Orchestrator {
	if cfg.RunID == "" {
		cfg.RunID = NewRunID()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.RecycleAfter <= 0 {
		cfg.RecycleAfter = 25
	}
	if cfg.MemoryCeiling <= 0 {
		cfg.MemoryCeiling = 2 << 30
	}
	if cfg.CheckpointInterval <= 0 {
		cfg.CheckpointInterval = 30 * time.Second
	}
	return &Orchestrator{
		cfg:    cfg,
		st:     st,
		dlog:   dlog,
		writer: writer,
		log:    log.With("run_id", cfg.RunID),
		state:  NewRunState(cfg.RunID),
		sem:    semaphore.NewWeighted(cfg.MemoryCeiling),
	}
}

// State exposes run progress for the status API.
func (o *Orchestrator) State() *RunState {
	return o.state
}

// task is one admitted file.
type task struct {
	path string
	hash string
	size int64
	est  estimate.Estimate
}

// Run processes paths and returns the per-file outcome list. Only setup
// failures return an error; per-file failures land in the dead-letter log
// and the summary.
func (o *Orchestrator) Run(ctx context.Context, paths []string) (*Summary, error) {
	o.state.SetStatus(StatusRunning)
	o.state.SetTotal(len(paths))
	summary := &Summary{}

	processed, err := o.st.ManifestHashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}

	tasks, skipped, err := o.admit(ctx, paths, processed)
	if err != nil {
		return nil, err
	}
	for _, r := range skipped {
		o.state.Record(r.Outcome)
		summary.Results = append(summary.Results, r)
	}
	o.log.Info("run admitted", "total", len(paths), "to_process", len(tasks), "skipped", len(skipped))

	results := make(chan procResult)
	free := make(chan *worker, o.cfg.Workers)
	for range o.cfg.Workers {
		free <- o.freshWorker()
	}

	var dispatch sync.WaitGroup
	dispatch.Add(1)
	go func() {
		defer dispatch.Done()
		for _, t := range tasks {
			weight := t.est.EstimatedPeakBytes
			if weight > o.cfg.MemoryCeiling {
				// Larger than the ceiling: run it alone rather than never.
				weight = o.cfg.MemoryCeiling
			}
			if err := o.sem.Acquire(ctx, weight); err != nil {
				// Acquire fails only on context cancellation: the run is being
				// interrupted and this file was never attempted. That is not a
				// per-file failure and must not be quarantined.
				results <- procResult{task: t, outcome: OutcomeInterrupted, stage: "admit", detail: err.Error()}
				continue
			}
			w := <-free
			go o.supervise(w, t, weight, free, results)
		}
	}()

	ticker := time.NewTicker(o.cfg.CheckpointInterval)
	defer ticker.Stop()

	// State writes outlive cancellation: an interrupted run must still land
	// its manifest rows and final checkpoint flush.
	stateCtx := context.WithoutCancel(ctx)

	for received := 0; received < len(tasks); {
		select {
		case res := <-results:
			received++
			summary.Results = append(summary.Results, o.handle(stateCtx, res))
		case <-ticker.C:
			o.flushCheckpoint(stateCtx)
		}
	}
	dispatch.Wait()
	o.flushCheckpoint(stateCtx)

	snap := o.state.Snapshot()
	switch {
	case snap.Failed > 0:
		o.state.SetStatus(StatusPartiallyFailed)
	case snap.Interrupted > 0:
		// The run never covered every file; the checkpoint stays for resume.
		o.state.SetStatus(StatusInterrupted)
	default:
		o.state.SetStatus(StatusCompleted)
		// Clean completion: the per-run checkpoint has served its purpose.
		if err := o.st.ClearCheckpoint(stateCtx, o.cfg.RunID); err != nil {
			o.log.Warn("failed to clear checkpoint", "error", err)
		}
	}
	summary.Snapshot = o.state.Snapshot()
	o.log.Info("run finished", "status", summary.Snapshot.Status,
		"succeeded", summary.Snapshot.Succeeded, "failed", summary.Snapshot.Failed,
		"not_found", summary.Snapshot.NotFound, "skipped", summary.Snapshot.Skipped,
		"interrupted", summary.Snapshot.Interrupted)
	return summary, nil
}

// admit hashes every input concurrently and filters out files whose content
// hash is already in the manifest, plus same-run duplicates. Completed work
// is identified by content, never by name.
func (o *Orchestrator) admit(ctx context.Context, paths []string, processed map[string]bool) ([]task, []FileResult, error) {
	hashes := make([]string, len(paths))
	sizes := make([]int64, len(paths))
	errs := make([]error, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i, p := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			hashes[i], sizes[i], errs[i] = hashFile(p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("hash inputs: %w", err)
	}

	var tasks []task
	var skipped []FileResult
	seen := make(map[string]bool)
	for i, p := range paths {
		if errs[i] != nil {
			// Unreadable inputs fail through the normal path so they land
			// in the dead-letter log.
			tasks = append(tasks, task{path: p})
			continue
		}
		switch {
		case processed[hashes[i]]:
			skipped = append(skipped, FileResult{
				Path: p, ContentHash: hashes[i],
				Outcome: OutcomeSkipped, Detail: "already in manifest",
			})
		case seen[hashes[i]]:
			skipped = append(skipped, FileResult{
				Path: p, ContentHash: hashes[i],
				Outcome: OutcomeSkipped, Detail: "duplicate content in this run",
			})
		default:
			seen[hashes[i]] = true
			tasks = append(tasks, task{
				path: p,
				hash: hashes[i],
				size: sizes[i],
				est:  estimate.ForSize(sizes[i], o.cfg.Estimate),
			})
		}
	}
	return tasks, skipped, nil
}

// supervise waits for one worker result with the file's adaptive timeout.
// A timeout abandons the task (no cooperative cancel: the goroutine is left
// to finish and its result is discarded) and recycles the worker.
func (o *Orchestrator) supervise(w *worker, t task, weight int64, free chan<- *worker, results chan<- procResult) {
	start := time.Now()
	done := make(chan procResult, 1)
	go func() { done <- w.process(t) }()

	timeout := t.est.RecommendedTimeout
	if timeout <= 0 {
		timeout = o.cfg.Estimate.TimeoutBase
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		o.sem.Release(weight)
		if w.shouldRecycle(o.cfg.RecycleAfter) {
			w = o.freshWorker()
		}
		free <- w
		res.elapsed = time.Since(start)
		results <- res
	case <-timer.C:
		o.sem.Release(weight)
		// The abandoned worker never rejoins the pool.
		free <- o.freshWorker()
		results <- procResult{
			task:    t,
			outcome: OutcomeTimeout,
			stage:   "worker",
			detail:  fmt.Sprintf("exceeded adaptive timeout %s (size class %s)", timeout, t.est.Class),
			elapsed: time.Since(start),
		}
	}
}

func (o *Orchestrator) freshWorker() *worker {
	id := int(o.workerSeq.Add(1))
	return newWorker(id, o.cfg.Target, o.cfg.FormType, o.cfg.Segment, o.writer, o.log)
}

// handle records one completed result: run state, checkpoint buffer, and on
// success the manifest, on failure the dead-letter log. This is the only
// place shared state is written.
func (o *Orchestrator) handle(ctx context.Context, res procResult) FileResult {
	now := time.Now()
	o.state.Record(res.outcome)

	fr := FileResult{
		Path:        res.task.path,
		ContentHash: res.task.hash,
		Outcome:     res.outcome,
		Detail:      res.detail,
		OutputPath:  res.outPath,
		Segments:    res.segments,
		Elapsed:     res.elapsed,
	}

	o.pending = append(o.pending, store.CheckpointEntry{
		ContentHash: res.task.hash,
		Path:        res.task.path,
		Outcome:     string(res.outcome),
		Detail:      res.detail,
		UpdatedAt:   now,
	})

	switch {
	case res.outcome == OutcomeSuccess:
		if err := o.st.RecordSuccess(ctx, store.ManifestEntry{
			ContentHash: res.task.hash,
			Path:        res.task.path,
			Segments:    res.segments,
			RunID:       o.cfg.RunID,
			ProcessedAt: now,
		}); err != nil {
			o.log.Error("manifest write failed", "file", res.task.path, "error", err)
		}
	case res.outcome.failed():
		if err := o.dlog.Append(store.DeadLetter{
			File:      res.task.path,
			Stage:     res.stage,
			Reason:    res.detail,
			Timestamp: now,
		}); err != nil {
			o.log.Error("dead-letter write failed", "file", res.task.path, "error", err)
		}
		o.log.Warn("file quarantined", "file", res.task.path, "stage", res.stage, "reason", res.detail)
	case res.outcome == OutcomeNotFound:
		o.log.Info("target section absent", "file", res.task.path)
	case res.outcome == OutcomeInterrupted:
		o.log.Info("file not attempted before interruption", "file", res.task.path)
	}
	return fr
}

// flushCheckpoint persists buffered per-file outcomes.
func (o *Orchestrator) flushCheckpoint(ctx context.Context) {
	if len(o.pending) == 0 {
		return
	}
	if err := o.st.SaveCheckpoint(ctx, o.cfg.RunID, o.pending); err != nil {
		o.log.Error("checkpoint flush failed", "entries", len(o.pending), "error", err)
		return
	}
	o.pending = o.pending[:0]
}

// hashFile streams a file through SHA-256.
func hashFile(path string) (string, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, err
	}
	defer func() { _ = f.Close() }()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}
