package core

import (
	"time"
)

// StepResult captures the outcome of executing a single workflow step
type StepResult struct {
	// Identity
	Name  string `json:"name"`  // Step name: exposure, denoise, etc.
	Index int    `json:"index"` // 0-based position in execution order

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Output
	Message string `json:"message,omitempty"` // Human-readable explanation
	Basic   string `json:"basic,omitempty"`   // Basic mode that was applied
	Option  string `json:"option,omitempty"`  // Configuration option that was applied

	// Error details
	Error string `json:"error,omitempty"`

	// Debug artifacts
	Attachments []Attachment `json:"attachments,omitempty"` // Snapshots captured on timeout/failure
}

// RunResult captures the outcome of running the full workflow on one image
type RunResult struct {
	// Identity
	Image string `json:"image"` // Image identifier or file name

	// Status (aggregated from steps)
	Status   StepStatus `json:"status"`
	Canceled bool       `json:"canceled,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Steps    []StepResult `json:"steps"`
	Messages []string     `json:"messages,omitempty"` // Run summary snapshot

	// Summary (computed)
	TotalSteps    int `json:"totalSteps"`
	AppliedSteps  int `json:"appliedSteps"`
	SkippedSteps  int `json:"skippedSteps"`
	TimedOutSteps int `json:"timedOutSteps"`
	FailedSteps   int `json:"failedSteps"`

	// Error info (if the run failed outright, e.g. the image never loaded)
	Error string `json:"error,omitempty"`
}

// ComputeSummary calculates step counts from the Steps slice
func (r *RunResult) ComputeSummary() {
	r.TotalSteps = len(r.Steps)
	r.AppliedSteps = 0
	r.SkippedSteps = 0
	r.TimedOutSteps = 0
	r.FailedSteps = 0

	for _, step := range r.Steps {
		switch step.Status {
		case StatusApplied:
			r.AppliedSteps++
		case StatusSkipped:
			r.SkippedSteps++
		case StatusTimedOut:
			r.TimedOutSteps++
		case StatusFailed, StatusCanceled:
			r.FailedSteps++
		}
	}
}

// AggregateStatus determines the run status from step results.
// Rules:
// - Cancellation wins over everything
// - Any failed step => StatusFailed
// - Any timed-out step => StatusTimedOut (run still succeeded)
// - Otherwise => StatusApplied
func (r *RunResult) AggregateStatus() StepStatus {
	if r.Canceled {
		return StatusCanceled
	}
	status := StatusApplied
	for _, step := range r.Steps {
		switch step.Status {
		case StatusFailed:
			return StatusFailed
		case StatusTimedOut:
			status = StatusTimedOut
		}
	}
	return status
}

// BatchResult captures the outcome of processing multiple selected images
type BatchResult struct {
	// Identity
	RunID string `json:"runId"` // Unique execution ID

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Runs []RunResult `json:"runs"`

	// Summary
	TotalImages    int  `json:"totalImages"`
	ProcessedOK    int  `json:"processedOk"`
	FailedImages   int  `json:"failedImages"`
	SkippedImages  int  `json:"skippedImages"` // Not reached because the batch stopped early
	Canceled       bool `json:"canceled,omitempty"`
	TimedOutEvents int  `json:"timedOutEvents,omitempty"` // Total gate timeouts across all runs
}

// ComputeSummary calculates image counts from the Runs slice
func (b *BatchResult) ComputeSummary() {
	b.ProcessedOK = 0
	b.FailedImages = 0
	b.TimedOutEvents = 0

	for _, run := range b.Runs {
		if run.Status.IsSuccess() {
			b.ProcessedOK++
		} else {
			b.FailedImages++
		}
		b.TimedOutEvents += run.TimedOutSteps
	}
	if b.TotalImages > len(b.Runs) {
		b.SkippedImages = b.TotalImages - len(b.Runs)
	}
}

// Success returns true if every processed image succeeded and the batch
// was not cut short
func (b *BatchResult) Success() bool {
	if b.Canceled || b.SkippedImages > 0 {
		return false
	}
	for _, run := range b.Runs {
		if !run.Status.IsSuccess() && run.Status != StatusSkipped {
			return false
		}
	}
	return len(b.Runs) > 0
}
