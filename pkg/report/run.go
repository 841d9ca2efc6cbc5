package report

import (
	"os"
	"path/filepath"
	"time"

	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
)

// RunWriter writes the detail file for a single image run. The engine
// drives one run at a time, so no locking is needed here; only the
// shared index behind it is synchronized.
type RunWriter struct {
	run       *RunDetail
	path      string
	assetsDir string
	index     *IndexWriter
}

// NewRunWriter creates a RunWriter over a detail built by
// BuildSkeleton.
func NewRunWriter(detail *RunDetail, outputDir string, index *IndexWriter) *RunWriter {
	assetsDir := filepath.Join(outputDir, "assets", detail.ID)
	if err := ensureDir(assetsDir); err != nil {
		logger.Warn("Assets dir for %s: %v", detail.ID, err)
	}

	return &RunWriter{
		run:       detail,
		path:      filepath.Join(outputDir, "runs", detail.ID+".json"),
		assetsDir: assetsDir,
		index:     index,
	}
}

// Start marks the run as started.
func (w *RunWriter) Start() {
	now := time.Now()
	w.run.StartTime = now

	w.flush()
	w.index.UpdateRun(w.run.ID, &RunUpdate{
		Status:    StatusRunning,
		StartTime: &now,
		Steps:     w.stepSummary(),
	})
}

// StepStart marks one step as running.
func (w *RunWriter) StepStart(idx int) {
	if idx < 0 || idx >= len(w.run.Steps) {
		return
	}

	now := time.Now()
	rec := &w.run.Steps[idx]
	rec.Status = StatusRunning
	rec.StartTime = &now

	w.flush()
	w.index.UpdateRun(w.run.ID, &RunUpdate{
		Status: StatusRunning,
		Steps:  w.stepSummary(),
	})
}

// StepDone records a finished step, saving any snapshot attachments
// into the run's asset directory.
func (w *RunWriter) StepDone(idx int, res core.StepResult) {
	if idx < 0 || idx >= len(w.run.Steps) {
		return
	}

	rec := &w.run.Steps[idx]
	rec.Status = statusOf(res.Status)
	start := res.StartTime
	rec.StartTime = &start
	ms := res.Duration.Milliseconds()
	rec.Duration = &ms
	rec.Basic = res.Basic
	rec.Option = res.Option
	if res.Error != "" {
		rec.Error = &Error{Category: res.Category.String(), Message: res.Error}
	}
	for _, att := range res.Attachments {
		rel, err := w.saveAttachment(att)
		if err != nil {
			logger.Warn("Attachment %s: %v", att.Name, err)
			continue
		}
		rec.Attachments = append(rec.Attachments, AttachmentRef{
			Name:        att.Name,
			ContentType: att.ContentType,
			Path:        rel,
		})
	}

	w.flush()
	w.index.UpdateRun(w.run.ID, &RunUpdate{
		Status: StatusRunning,
		Steps:  w.stepSummary(),
	})
}

// End records the run outcome. Steps never reached (the run was cut
// short) go to skipped.
func (w *RunWriter) End(run core.RunResult) {
	now := time.Now()
	w.run.EndTime = &now
	w.run.Canceled = run.Canceled
	w.run.Messages = run.Messages

	var duration int64
	if !w.run.StartTime.IsZero() {
		duration = now.Sub(w.run.StartTime).Milliseconds()
		w.run.Duration = &duration
	}

	for i := range w.run.Steps {
		if !w.run.Steps[i].Status.IsTerminal() {
			w.run.Steps[i].Status = StatusSkipped
		}
	}

	w.flush()

	status := statusOf(run.Status)
	var errMsg *string
	if run.Error != "" {
		errMsg = &run.Error
	} else if status == StatusFailed {
		for _, rec := range w.run.Steps {
			if rec.Error != nil {
				errMsg = &rec.Error.Message
				break
			}
		}
	}

	w.index.UpdateRun(w.run.ID, &RunUpdate{
		Status:   status,
		EndTime:  &now,
		Duration: &duration,
		Steps:    w.stepSummary(),
		Error:    errMsg,
	})
}

// Detail returns the live run detail for reading.
func (w *RunWriter) Detail() *RunDetail {
	return w.run
}

func (w *RunWriter) flush() {
	if err := atomicWriteJSON(w.path, w.run); err != nil {
		logger.Warn("Run detail write: %v", err)
	}
}

// saveAttachment writes an attachment body to the asset directory and
// returns its path relative to the report directory.
func (w *RunWriter) saveAttachment(att core.Attachment) (string, error) {
	name := filepath.Base(att.Path)
	if name == "" || name == "." {
		name = att.Name
	}
	if err := os.WriteFile(filepath.Join(w.assetsDir, name), att.Body, 0o644); err != nil {
		return "", err
	}
	return filepath.Join("assets", w.run.ID, name), nil
}

func (w *RunWriter) stepSummary() StepSummary {
	var s StepSummary
	s.Total = len(w.run.Steps)

	for i, rec := range w.run.Steps {
		switch rec.Status {
		case StatusApplied:
			s.Applied++
		case StatusSkipped:
			s.Skipped++
		case StatusTimedOut:
			s.TimedOut++
		case StatusFailed, StatusCanceled:
			s.Failed++
		case StatusRunning:
			s.Running++
			idx := i
			s.Current = &idx
		case StatusPending:
			s.Pending++
		}
	}
	return s
}

// statusOf maps a sequencer step status onto the report vocabulary.
func statusOf(s core.StepStatus) Status {
	switch s {
	case core.StatusApplied:
		return StatusApplied
	case core.StatusSkipped:
		return StatusSkipped
	case core.StatusTimedOut:
		return StatusTimedOut
	case core.StatusFailed:
		return StatusFailed
	case core.StatusCanceled:
		return StatusCanceled
	case core.StatusRunning:
		return StatusRunning
	default:
		return StatusPending
	}
}
