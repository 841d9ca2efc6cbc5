package core

import (
	"errors"
	"strings"
	"testing"
)

func TestWorkflowError_Error(t *testing.T) {
	err := &WorkflowError{
		Category: ErrCategoryHost,
		Code:     "test_error",
		Message:  "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestWorkflowError_ErrorWithCause(t *testing.T) {
	cause := errors.New("underlying error")
	err := &WorkflowError{
		Category: ErrCategoryGateway,
		Code:     "test_error",
		Message:  "test message",
		Cause:    cause,
	}

	got := err.Error()
	if !strings.Contains(got, "test message") {
		t.Errorf("Error() = %q, should contain 'test message'", got)
	}
	if !strings.Contains(got, "underlying error") {
		t.Errorf("Error() = %q, should contain 'underlying error'", got)
	}
}

func TestWorkflowError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &WorkflowError{
		Message: "wrapper",
		Cause:   cause,
	}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
}

func TestWorkflowError_WithCause(t *testing.T) {
	original := ErrGatewayUnreachable
	cause := errors.New("custom cause")

	newErr := original.WithCause(cause)

	if newErr.Cause != cause {
		t.Error("WithCause() did not set cause")
	}
	if newErr.Code != original.Code {
		t.Error("WithCause() changed code")
	}
	if original.Cause != nil {
		t.Error("WithCause() modified original error")
	}
}

func TestWorkflowError_WithMessage(t *testing.T) {
	original := ErrUncleanLoad
	newErr := original.WithMessage("custom load message")

	if newErr.Message != "custom load message" {
		t.Errorf("Message = %q, want 'custom load message'", newErr.Message)
	}
	if newErr.Code != original.Code {
		t.Error("WithMessage() changed code")
	}
	if original.Message == "custom load message" {
		t.Error("WithMessage() modified original error")
	}
}

func TestWorkflowError_WithDetails(t *testing.T) {
	original := &WorkflowError{
		Code:    "test",
		Message: "test",
		Details: map[string]interface{}{"existing": "value"},
	}

	newErr := original.WithDetails(map[string]interface{}{
		"step":    "exposure",
		"timeout": 1000,
	})

	if newErr.Details["step"] != "exposure" {
		t.Error("WithDetails() did not add new details")
	}
	if newErr.Details["existing"] != "value" {
		t.Error("WithDetails() did not preserve existing details")
	}
	if _, ok := original.Details["step"]; ok {
		t.Error("WithDetails() modified original error")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *WorkflowError
		category ErrorCategory
		code     string
	}{
		{ErrUncleanLoad, ErrCategoryHost, "unclean_load"},
		{ErrNoSelection, ErrCategoryHost, "no_selection"},
		{ErrModuleMissing, ErrCategoryHost, "module_missing"},
		{ErrRunCanceled, ErrCategoryCancel, "run_canceled"},
		{ErrGatewayUnreachable, ErrCategoryGateway, "gateway_unreachable"},
		{ErrVersionMismatch, ErrCategoryConfig, "version_mismatch"},
		{ErrUnknownStep, ErrCategoryConfig, "unknown_step"},
		{ErrUnknownOption, ErrCategoryConfig, "unknown_option"},
		{ErrInvalidProfile, ErrCategoryConfig, "invalid_profile"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestWorkflowError_ErrorsIs(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrGatewayUnreachable.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
}
