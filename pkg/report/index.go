package report

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/phototools-dev/workflow-runner/pkg/logger"
)

// debounceDelay batches progress writes so per-step updates do not
// rewrite the index on every tick.
const debounceDelay = 100 * time.Millisecond

// IndexWriter owns report.json. Updates for terminal run states flush
// immediately; progress updates are debounced.
type IndexWriter struct {
	mu      sync.Mutex
	path    string
	index   *Index
	pending map[string]*RunUpdate
	timer   *time.Timer
}

// NewIndexWriter creates an IndexWriter over an index built by
// BuildSkeleton.
func NewIndexWriter(outputDir string, index *Index) *IndexWriter {
	return &IndexWriter{
		path:    filepath.Join(outputDir, "report.json"),
		index:   index,
		pending: make(map[string]*RunUpdate),
	}
}

// Start marks the batch as started.
func (w *IndexWriter) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.Status = StatusRunning
	w.index.StartTime = now
	w.flushLocked()
}

// UpdateRun updates one run's entry in the index.
func (w *IndexWriter) UpdateRun(runID string, update *RunUpdate) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending[runID] = update

	if update.Status.IsTerminal() {
		w.flushLocked()
		return
	}
	if w.timer == nil {
		w.timer = time.AfterFunc(debounceDelay, w.flush)
	}
}

// End marks the batch as complete and computes the final status.
func (w *IndexWriter) End() {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := time.Now()
	w.index.EndTime = &now
	w.index.Status = w.batchStatus()
	w.flushLocked()
}

// Close flushes any pending updates and stops the debounce timer.
func (w *IndexWriter) Close() {
	w.flush()
}

// Index returns the live index for reading.
func (w *IndexWriter) Index() *Index {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.index
}

func (w *IndexWriter) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flushLocked()
}

func (w *IndexWriter) flushLocked() {
	for runID, update := range w.pending {
		w.applyUpdate(runID, update)
	}
	w.pending = make(map[string]*RunUpdate)

	w.index.UpdateSeq++
	w.index.LastUpdated = time.Now()
	w.index.Summary = w.computeSummary()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}

	if err := atomicWriteJSON(w.path, w.index); err != nil {
		logger.Warn("Report index write: %v", err)
	}
}

func (w *IndexWriter) applyUpdate(runID string, update *RunUpdate) {
	for i := range w.index.Runs {
		if w.index.Runs[i].ID != runID {
			continue
		}
		r := &w.index.Runs[i]
		r.Status = update.Status
		if update.StartTime != nil {
			r.StartTime = update.StartTime
		}
		if update.EndTime != nil {
			r.EndTime = update.EndTime
		}
		if update.Duration != nil {
			r.Duration = update.Duration
		}
		r.Steps = update.Steps
		if update.Error != nil {
			r.Error = update.Error
		}
		r.UpdateSeq++
		now := time.Now()
		r.LastUpdated = &now
		return
	}
}

func (w *IndexWriter) computeSummary() Summary {
	var s Summary
	for _, r := range w.index.Runs {
		s.Total++
		switch r.Status {
		case StatusApplied, StatusSkipped:
			s.Applied++
		case StatusTimedOut:
			s.TimedOut++
		case StatusFailed:
			s.Failed++
		case StatusCanceled:
			s.Canceled++
		case StatusRunning:
			s.Running++
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

// batchStatus aggregates run states once the batch is over. Runs still
// pending at that point were cut off by a cancellation.
func (w *IndexWriter) batchStatus() Status {
	status := StatusApplied
	for _, r := range w.index.Runs {
		switch r.Status {
		case StatusCanceled:
			return StatusCanceled
		case StatusFailed:
			status = StatusFailed
		case StatusTimedOut:
			if status == StatusApplied {
				status = StatusTimedOut
			}
		case StatusPending, StatusRunning:
			return StatusCanceled
		}
	}
	return status
}
