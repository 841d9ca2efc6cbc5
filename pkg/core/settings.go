// Package core provides the execution model types for workflow-runner.
package core

import (
	"time"
)

// DefaultStepTimeout is the initial wait budget for a single gated host
// call. The timeout step can raise it mid-run for slow machines.
const DefaultStepTimeout = 1000 * time.Millisecond

// Settings holds the run-wide knobs shared by the sequencer, the event
// gate and the action proxy. The sequencer goroutine is the only writer
// once a run has started.
type Settings struct {
	// StepTimeout is the base wait for one pipeline round trip. Poll
	// quantum, settle sleeps and the overall wait cap all derive from it.
	StepTimeout time.Duration

	// ShowModules expands each processing module in the host UI while it
	// is being configured.
	ShowModules bool

	// RunSingleStep immediately runs a step when its stored selection
	// changes, instead of waiting for a full workflow run.
	RunSingleStep bool
}

// NewSettings returns Settings with defaults applied
func NewSettings() *Settings {
	return &Settings{
		StepTimeout: DefaultStepTimeout,
	}
}

// Timeout returns the current step timeout, falling back to the default
// when unset
func (s *Settings) Timeout() time.Duration {
	if s.StepTimeout <= 0 {
		return DefaultStepTimeout
	}
	return s.StepTimeout
}

// SetTimeout replaces the step timeout. Non-positive values reset to the
// default.
func (s *Settings) SetTimeout(d time.Duration) {
	if d <= 0 {
		d = DefaultStepTimeout
	}
	s.StepTimeout = d
}
