package core

// StepStatus represents the execution status of a workflow step
type StepStatus int

const (
	StatusPending  StepStatus = iota // Not yet started
	StatusRunning                    // Currently executing
	StatusApplied                    // Module configured successfully
	StatusSkipped                    // Basic mode was ignore, or value already matched
	StatusTimedOut                   // Applied, but the pipeline event never arrived (non-blocking)
	StatusFailed                     // Host call failed
	StatusCanceled                   // Run was canceled before the step finished
)

// String returns the string representation of StepStatus
func (s StepStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusApplied:
		return "applied"
	case StatusSkipped:
		return "skipped"
	case StatusTimedOut:
		return "timeout"
	case StatusFailed:
		return "failed"
	case StatusCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// IsTerminal returns true if the status is a final state
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StatusApplied, StatusSkipped, StatusTimedOut, StatusFailed, StatusCanceled:
		return true
	default:
		return false
	}
}

// IsSuccess returns true if the status indicates success. A timed-out step
// still counts: the configuration was issued, only the confirmation event
// was missed.
func (s StepStatus) IsSuccess() bool {
	return s == StatusApplied || s == StatusTimedOut
}

// ErrorCategory classifies the type of error for reporting
type ErrorCategory int

const (
	ErrCategoryNone     ErrorCategory = iota // No error
	ErrCategoryTimeout                       // Event wait timed out
	ErrCategoryGateway                       // Gateway connection lost or unreachable
	ErrCategoryHost                          // Host-side failure: unclean load, missing module
	ErrCategoryConfig                        // Invalid profile, unknown step or option
	ErrCategoryCancel                        // User or host-shutdown cancellation
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryGateway:
		return "gateway"
	case ErrCategoryHost:
		return "host"
	case ErrCategoryConfig:
		return "config"
	case ErrCategoryCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Outcome is the result of a gated host call: either the expected event
// arrived, or the wait gave up.
type Outcome int

const (
	OutcomeCompleted Outcome = iota
	OutcomeTimedOut
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	if o == OutcomeTimedOut {
		return "timed out"
	}
	return "completed"
}
