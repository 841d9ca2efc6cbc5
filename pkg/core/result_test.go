package core

import (
	"testing"
)

func TestRunResult_ComputeSummary(t *testing.T) {
	result := &RunResult{
		Steps: []StepResult{
			{Name: "highlights", Status: StatusApplied},
			{Name: "denoise", Status: StatusSkipped},
			{Name: "exposure", Status: StatusApplied},
			{Name: "filmic", Status: StatusTimedOut},
			{Name: "saturation", Status: StatusFailed},
		},
	}

	result.ComputeSummary()

	if result.TotalSteps != 5 {
		t.Errorf("TotalSteps = %d, want 5", result.TotalSteps)
	}
	if result.AppliedSteps != 2 {
		t.Errorf("AppliedSteps = %d, want 2", result.AppliedSteps)
	}
	if result.SkippedSteps != 1 {
		t.Errorf("SkippedSteps = %d, want 1", result.SkippedSteps)
	}
	if result.TimedOutSteps != 1 {
		t.Errorf("TimedOutSteps = %d, want 1", result.TimedOutSteps)
	}
	if result.FailedSteps != 1 {
		t.Errorf("FailedSteps = %d, want 1", result.FailedSteps)
	}
}

func TestRunResult_AggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		result   RunResult
		expected StepStatus
	}{
		{
			name: "all applied",
			result: RunResult{Steps: []StepResult{
				{Status: StatusApplied},
				{Status: StatusApplied},
			}},
			expected: StatusApplied,
		},
		{
			name: "skips do not degrade",
			result: RunResult{Steps: []StepResult{
				{Status: StatusApplied},
				{Status: StatusSkipped},
			}},
			expected: StatusApplied,
		},
		{
			name: "timeout degrades",
			result: RunResult{Steps: []StepResult{
				{Status: StatusApplied},
				{Status: StatusTimedOut},
			}},
			expected: StatusTimedOut,
		},
		{
			name: "failure wins over timeout",
			result: RunResult{Steps: []StepResult{
				{Status: StatusTimedOut},
				{Status: StatusFailed},
			}},
			expected: StatusFailed,
		},
		{
			name: "cancellation wins over everything",
			result: RunResult{
				Canceled: true,
				Steps: []StepResult{
					{Status: StatusApplied},
					{Status: StatusFailed},
				},
			},
			expected: StatusCanceled,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.AggregateStatus(); got != tt.expected {
				t.Errorf("AggregateStatus() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestBatchResult_ComputeSummary(t *testing.T) {
	batch := &BatchResult{
		TotalImages: 4,
		Runs: []RunResult{
			{Status: StatusApplied, TimedOutSteps: 0},
			{Status: StatusTimedOut, TimedOutSteps: 2},
			{Status: StatusFailed},
		},
	}

	batch.ComputeSummary()

	if batch.ProcessedOK != 2 {
		t.Errorf("ProcessedOK = %d, want 2", batch.ProcessedOK)
	}
	if batch.FailedImages != 1 {
		t.Errorf("FailedImages = %d, want 1", batch.FailedImages)
	}
	if batch.SkippedImages != 1 {
		t.Errorf("SkippedImages = %d, want 1", batch.SkippedImages)
	}
	if batch.TimedOutEvents != 2 {
		t.Errorf("TimedOutEvents = %d, want 2", batch.TimedOutEvents)
	}
}

func TestBatchResult_Success(t *testing.T) {
	ok := &BatchResult{
		TotalImages: 2,
		Runs: []RunResult{
			{Status: StatusApplied},
			{Status: StatusTimedOut},
		},
	}
	ok.ComputeSummary()
	if !ok.Success() {
		t.Error("Success() = false for a clean batch, want true")
	}

	canceled := &BatchResult{
		TotalImages: 2,
		Canceled:    true,
		Runs:        []RunResult{{Status: StatusApplied}},
	}
	canceled.ComputeSummary()
	if canceled.Success() {
		t.Error("Success() = true for a canceled batch, want false")
	}

	empty := &BatchResult{}
	if empty.Success() {
		t.Error("Success() = true for an empty batch, want false")
	}
}
