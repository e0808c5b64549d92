package batch

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/filinglab/riskseg/internal/container"
	"github.com/filinglab/riskseg/internal/embedder"
	"github.com/filinglab/riskseg/internal/extract"
	"github.com/filinglab/riskseg/internal/filing"
	"github.com/filinglab/riskseg/internal/output"
	"github.com/filinglab/riskseg/internal/segment"
)

// worker runs the full per-file pipeline: index container → parse primary
// document → extract section → segment → write output. Each worker owns its
// embedder; the segmenter is built lazily on first use and dropped when the
// worker recycles, bounding cache growth over long runs.
type worker struct {
	id         int
	tasksDone  int
	seg        *segment.Segmenter
	segCfg     segment.Config
	target     extract.Target
	formType   string
	writer     *output.Writer
	log        *slog.Logger
}

func newWorker(id int, target extract.Target, formType string, segCfg segment.Config, writer *output.Writer, log *slog.Logger) *worker {
	return &worker{
		id:       id,
		target:   target,
		formType: formType,
		segCfg:   segCfg,
		writer:   writer,
		log:      log.With("worker", id),
	}
}

// segmenter initializes the expensive per-worker state on first use.
func (w *worker) segmenter() *segment.Segmenter {
	if w.seg == nil {
		w.seg = segment.New(embedder.New(), w.segCfg)
	}
	return w.seg
}

// procResult is what a worker hands back to the orchestrator. Workers never
// touch shared state; the orchestrator records everything.
type procResult struct {
	task     task
	outcome  Outcome
	detail   string
	stage    string
	outPath  string
	segments int
	elapsed  time.Duration
}

// process runs the pipeline for one file. Panics are recovered at this
// boundary and reported like any other failure.
func (w *worker) process(t task) (res procResult) {
	res = procResult{task: t}
	defer func() {
		if r := recover(); r != nil {
			res.outcome = OutcomeError
			res.stage = "worker"
			res.detail = fmt.Sprintf("panic: %v", r)
		}
	}()
	w.tasksDone++

	log := w.log.With("file", t.path)

	buf, err := os.ReadFile(t.path)
	if err != nil {
		res.outcome = OutcomeError
		res.stage = "read"
		res.detail = err.Error()
		return res
	}

	idx := container.Build(buf, log)
	entry, ok := idx.PrimaryDocument(w.formType)
	if !ok {
		// Degrade: no typed entry at all means the buffer may be a bare
		// document rather than a container.
		if len(idx.Entries) == 0 {
			entry = container.Entry{Start: 0, End: len(buf)}
			log.Warn("no container markers found, treating file as bare document")
		} else {
			res.outcome = OutcomeError
			res.stage = "index"
			res.detail = fmt.Sprintf("no %s document in container", w.formType)
			return res
		}
	}

	identity := filing.ParseHeader(buf)
	content := idx.Content(buf, entry)

	doc, err := filing.Parse(bytes.NewReader(content), identity)
	if err != nil {
		res.outcome = OutcomeError
		res.stage = "parse"
		res.detail = err.Error()
		return res
	}

	sec, err := extract.Extract(doc, w.target)
	if err != nil {
		if errors.Is(err, extract.ErrSectionNotFound) {
			res.outcome = OutcomeNotFound
			res.stage = "extract"
			res.detail = err.Error()
			return res
		}
		res.outcome = OutcomeError
		res.stage = "extract"
		res.detail = err.Error()
		return res
	}
	if sec.Suspicious() {
		log.Warn("extraction size outside expected envelope", "chars", sec.CharCount)
	}

	out := w.segmenter().Split(sec, identity)

	// A zero-segment result means total extraction failure. It must be
	// flagged distinctly, never passed downstream as an empty success.
	if len(out.Segments) == 0 {
		res.outcome = OutcomeEmpty
		res.stage = "segment"
		res.detail = "no segments produced"
		return res
	}

	outPath, err := w.writer.Write(t.path, out)
	if err != nil {
		res.outcome = OutcomeError
		res.stage = "write"
		res.detail = err.Error()
		return res
	}

	res.outcome = OutcomeSuccess
	res.outPath = outPath
	res.segments = len(out.Segments)
	return res
}

// shouldRecycle reports whether the worker has served its task quota.
func (w *worker) shouldRecycle(after int) bool {
	return w.tasksDone >= after
}
