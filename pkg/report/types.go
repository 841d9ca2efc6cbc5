// Package report writes machine-readable run reports with live updates.
//
// Layout:
//   - report.json: index file (small, frequently rewritten, mutex-protected)
//   - runs/run-XXX.json: per-image detail files (single writer, no lock)
//   - assets/run-XXX/: per-image snapshots
//
// The index is the single source of truth for status polling; consumers
// watch report.json and fetch a run detail only when its updateSeq moved.
package report

import "time"

// Version is the report schema version.
const Version = "1.0.0"

// Status is the report-level execution state of a run or step.
type Status string

// Status values.
const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusApplied  Status = "applied"
	StatusSkipped  Status = "skipped"
	StatusTimedOut Status = "timeout"
	StatusFailed   Status = "failed"
	StatusCanceled Status = "canceled"
)

// IsTerminal reports whether the status is a final state.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusApplied, StatusSkipped, StatusTimedOut, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// Index is the report entry point: one file binding the whole batch.
type Index struct {
	Version     string     `json:"version"`
	UpdateSeq   uint64     `json:"updateSeq"`
	Status      Status     `json:"status"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	LastUpdated time.Time  `json:"lastUpdated"`
	Host        HostInfo   `json:"host"`
	Runner      RunnerInfo `json:"runner"`
	Summary     Summary    `json:"summary"`
	Runs        []RunEntry `json:"runs"`
}

// HostInfo identifies the photo editor the runner was attached to.
type HostInfo struct {
	Gateway string `json:"gateway,omitempty"` // Gateway address (socket path or host:port)
	Product string `json:"product,omitempty"` // Host product string, e.g. "darktable 4.6.1"
	Version string `json:"version,omitempty"` // Gateway API version
}

// RunnerInfo identifies the runner build and how it drove the host.
type RunnerInfo struct {
	Version string `json:"version"`
	Mode    string `json:"mode"` // gateway, dry-run
}

// Summary contains aggregated run counts.
type Summary struct {
	Total    int `json:"total"`
	Applied  int `json:"applied"`
	TimedOut int `json:"timedOut"`
	Failed   int `json:"failed"`
	Canceled int `json:"canceled"`
	Running  int `json:"running"`
	Pending  int `json:"pending"`
}

// RunEntry is the index entry for one image run (minimal info).
type RunEntry struct {
	Index       int         `json:"index"`
	ID          string      `json:"id"`
	Image       string      `json:"image"`
	DataFile    string      `json:"dataFile"`  // Path to the run detail JSON
	AssetsDir   string      `json:"assetsDir"` // Path to the snapshot directory
	Status      Status      `json:"status"`
	UpdateSeq   uint64      `json:"updateSeq"`
	StartTime   *time.Time  `json:"startTime,omitempty"`
	EndTime     *time.Time  `json:"endTime,omitempty"`
	Duration    *int64      `json:"duration,omitempty"` // milliseconds
	LastUpdated *time.Time  `json:"lastUpdated,omitempty"`
	Steps       StepSummary `json:"steps"`
	Error       *string     `json:"error,omitempty"`
}

// StepSummary contains step counts for a run.
type StepSummary struct {
	Total    int  `json:"total"`
	Applied  int  `json:"applied"`
	Skipped  int  `json:"skipped"`
	TimedOut int  `json:"timedOut"`
	Failed   int  `json:"failed"`
	Running  int  `json:"running"`
	Pending  int  `json:"pending"`
	Current  *int `json:"current,omitempty"` // Index of the step running right now
}

// RunDetail contains the full record of one image run
// (runs/run-XXX.json).
type RunDetail struct {
	ID        string       `json:"id"`
	Image     string       `json:"image"`
	StartTime time.Time    `json:"startTime"`
	EndTime   *time.Time   `json:"endTime,omitempty"`
	Duration  *int64       `json:"duration,omitempty"` // milliseconds
	Canceled  bool         `json:"canceled,omitempty"`
	Steps     []StepRecord `json:"steps"`
	Messages  []string     `json:"messages,omitempty"` // Run summary shown to the user
}

// StepRecord is one step execution inside a run.
type StepRecord struct {
	ID          string          `json:"id"`
	Index       int             `json:"index"` // Position in execution order
	Name        string          `json:"name"`
	Label       string          `json:"label,omitempty"`
	Status      Status          `json:"status"`
	StartTime   *time.Time      `json:"startTime,omitempty"`
	Duration    *int64          `json:"duration,omitempty"` // milliseconds
	Basic       string          `json:"basic,omitempty"`
	Option      string          `json:"option,omitempty"`
	Error       *Error          `json:"error,omitempty"`
	Attachments []AttachmentRef `json:"attachments,omitempty"`
}

// Error contains step failure details.
type Error struct {
	Category string `json:"category"` // timeout, host, workflow, connection
	Message  string `json:"message"`
}

// AttachmentRef points at a stored artifact; the report never inlines
// binary data.
type AttachmentRef struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Path        string `json:"path"` // Relative to the report directory
}

// RunUpdate carries the index-level fields updated for one run.
type RunUpdate struct {
	Status    Status
	StartTime *time.Time
	EndTime   *time.Time
	Duration  *int64
	Steps     StepSummary
	Error     *string
}
