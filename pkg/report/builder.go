package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/phototools-dev/workflow-runner/pkg/step"
)

// BuilderConfig configures the report skeleton.
type BuilderConfig struct {
	OutputDir string
	Host      HostInfo
	Runner    RunnerInfo
}

// BuildSkeleton creates the initial report structure for the images
// about to be processed. Every run and step starts out pending. Steps
// are listed in execution order (reverse registration, settings
// carriers excluded), so step indices line up with the sequencer's
// result indices.
func BuildSkeleton(images []string, steps []step.Step, cfg BuilderConfig) (*Index, []RunDetail) {
	now := time.Now()

	index := &Index{
		Version:     Version,
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Host:        cfg.Host,
		Runner:      cfg.Runner,
		Summary: Summary{
			Total:   len(images),
			Pending: len(images),
		},
		Runs: make([]RunEntry, len(images)),
	}

	records := buildStepRecords(steps)
	details := make([]RunDetail, len(images))

	for i, image := range images {
		runID := fmt.Sprintf("run-%03d", i)

		index.Runs[i] = RunEntry{
			Index:     i,
			ID:        runID,
			Image:     image,
			DataFile:  filepath.Join("runs", runID+".json"),
			AssetsDir: filepath.Join("assets", runID),
			Status:    StatusPending,
			Steps: StepSummary{
				Total:   len(records),
				Pending: len(records),
			},
		}

		detail := RunDetail{
			ID:    runID,
			Image: image,
			Steps: make([]StepRecord, len(records)),
		}
		copy(detail.Steps, records)
		details[i] = detail
	}

	return index, details
}

// buildStepRecords lists the module steps in execution order.
func buildStepRecords(steps []step.Step) []StepRecord {
	var records []StepRecord
	for i := len(steps) - 1; i >= 0; i-- {
		s := steps[i]
		if s.IsSetting() {
			continue
		}
		records = append(records, StepRecord{
			ID:     fmt.Sprintf("step-%03d", len(records)),
			Index:  len(records),
			Name:   s.Name(),
			Label:  s.Label(),
			Status: StatusPending,
		})
	}
	return records
}

// WriteSkeleton writes the initial pending structure to disk: the
// index, every run detail, and the per-run asset directories.
func WriteSkeleton(outputDir string, index *Index, details []RunDetail) error {
	if err := ensureDir(filepath.Join(outputDir, "runs")); err != nil {
		return fmt.Errorf("create runs dir: %w", err)
	}
	if err := ensureDir(filepath.Join(outputDir, "assets")); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	for _, detail := range details {
		path := filepath.Join(outputDir, "runs", detail.ID+".json")
		if err := atomicWriteJSON(path, detail); err != nil {
			return fmt.Errorf("write run %s: %w", detail.ID, err)
		}
		if err := ensureDir(filepath.Join(outputDir, "assets", detail.ID)); err != nil {
			return fmt.Errorf("create assets dir for %s: %w", detail.ID, err)
		}
	}

	if err := atomicWriteJSON(filepath.Join(outputDir, "report.json"), index); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}
