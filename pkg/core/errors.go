package core

import (
	"fmt"
)

// WorkflowError represents a structured error with category and details
type WorkflowError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: unclean_load, version_mismatch, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

// Error implements the error interface
func (e *WorkflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *WorkflowError) Unwrap() error {
	return e.Cause
}

// WithCause returns a copy of the error with the given cause
func (e *WorkflowError) WithCause(cause error) *WorkflowError {
	return &WorkflowError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  e.Details,
		Cause:    cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *WorkflowError) WithMessage(msg string) *WorkflowError {
	return &WorkflowError{
		Category: e.Category,
		Code:     e.Code,
		Message:  msg,
		Details:  e.Details,
		Cause:    e.Cause,
	}
}

// WithDetails returns a copy of the error with additional details
func (e *WorkflowError) WithDetails(details map[string]interface{}) *WorkflowError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &WorkflowError{
		Category: e.Category,
		Code:     e.Code,
		Message:  e.Message,
		Details:  merged,
		Cause:    e.Cause,
	}
}

// Predefined errors
var (
	// Host errors
	ErrUncleanLoad = &WorkflowError{
		Category: ErrCategoryHost,
		Code:     "unclean_load",
		Message:  "image did not load cleanly",
	}
	ErrNoSelection = &WorkflowError{
		Category: ErrCategoryHost,
		Code:     "no_selection",
		Message:  "no image selected",
	}
	ErrModuleMissing = &WorkflowError{
		Category: ErrCategoryHost,
		Code:     "module_missing",
		Message:  "processing module not present in host",
	}

	// Cancellation
	ErrRunCanceled = &WorkflowError{
		Category: ErrCategoryCancel,
		Code:     "run_canceled",
		Message:  "workflow run canceled",
	}

	// Gateway errors
	ErrGatewayUnreachable = &WorkflowError{
		Category: ErrCategoryGateway,
		Code:     "gateway_unreachable",
		Message:  "could not connect to host gateway",
	}

	// Config errors
	ErrVersionMismatch = &WorkflowError{
		Category: ErrCategoryConfig,
		Code:     "version_mismatch",
		Message:  "host API version not supported",
	}
	ErrUnknownStep = &WorkflowError{
		Category: ErrCategoryConfig,
		Code:     "unknown_step",
		Message:  "unknown workflow step",
	}
	ErrUnknownOption = &WorkflowError{
		Category: ErrCategoryConfig,
		Code:     "unknown_option",
		Message:  "option is not valid for this step",
	}
	ErrInvalidProfile = &WorkflowError{
		Category: ErrCategoryConfig,
		Code:     "invalid_profile",
		Message:  "invalid workflow profile",
	}
)
