package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/host"
	"github.com/phototools-dev/workflow-runner/pkg/i18n"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
)

// ProcessDisplayedImage runs the workflow on whatever the darkroom
// currently shows: clear the summary, run all steps, flush the summary
// to the host's visible log.
func (e *Engine) ProcessDisplayedImage(ctx context.Context) core.RunResult {
	img, err := e.host.DisplayedImage()
	if err != nil {
		logger.Warn("displayed image: %v", err)
	}
	e.runStarted(imageLabel(img))
	return e.processOne(ctx, img)
}

// ProcessSelection runs the workflow over every selected image. Nothing
// selected is reported to the user and returned as ErrNoSelection
// before any host state changes. The host is switched to the darkroom
// through the event gate; each image not already displayed goes through
// the gated load protocol. The first canceled image stops the batch.
// View and selection are restored however the batch ends.
func (e *Engine) ProcessSelection(ctx context.Context) (core.BatchResult, error) {
	selection, err := e.host.Selection()
	if err != nil {
		return core.BatchResult{}, err
	}
	if len(selection) == 0 {
		e.print(e.catalog.T(i18n.MsgNoSelection))
		return core.BatchResult{}, core.ErrNoSelection
	}

	batch := core.BatchResult{
		RunID:       time.Now().Format("20060102-150405"),
		StartTime:   time.Now(),
		TotalImages: len(selection),
	}

	originalView, err := e.host.CurrentView()
	if err != nil {
		return batch, err
	}

	if originalView != host.ViewDarkroom {
		if _, err := e.gate.Await(ctx, host.EventViewChanged, host.ViewDarkroom, func() error {
			return e.host.SwitchView(host.ViewDarkroom)
		}); err != nil {
			return batch, err
		}
	}

	// The view and selection go back to where the user left them no
	// matter how the batch ends.
	defer func() {
		if originalView != host.ViewDarkroom {
			if err := e.host.SwitchView(originalView); err != nil {
				logger.Warn("restore view: %v", err)
			}
		}
		if err := e.host.SetSelection(selection); err != nil {
			logger.Warn("restore selection: %v", err)
		}
	}()

	for _, img := range selection {
		e.summary.Clear()
		e.runStarted(imageLabel(img))

		displayed, derr := e.host.DisplayedImage()
		if derr != nil || displayed.ID != img.ID {
			if err := e.gate.AwaitImageLoad(ctx, img, func() error {
				return e.host.DisplayImage(img)
			}); err != nil {
				if ctx.Err() != nil {
					batch.Canceled = true
					break
				}
				logger.Error("Image %s not processed: %v", imageLabel(img), err)
				run := core.RunResult{
					Image:     imageLabel(img),
					Status:    core.StatusFailed,
					StartTime: time.Now(),
					Messages:  e.summary.Messages(),
					Error:     err.Error(),
				}
				e.flushSummary()
				e.runDone(run)
				batch.Runs = append(batch.Runs, run)
				continue
			}
		}

		run := e.processOne(ctx, img)
		batch.Runs = append(batch.Runs, run)
		if run.Canceled {
			batch.Canceled = true
			break
		}
	}

	batch.Duration = time.Since(batch.StartTime)
	batch.ComputeSummary()
	return batch, nil
}

// processOne is the per-image run: clear summary, run all steps, flush.
func (e *Engine) processOne(ctx context.Context, img host.ImageRef) core.RunResult {
	if e.config.SelectionsFor != nil {
		if overlay := e.config.SelectionsFor(img); len(overlay) > 0 {
			saved := e.sels
			e.sels = e.Selections()
			e.SetSelections(overlay)
			defer func() { e.sels = saved }()
		}
	}

	e.summary.Clear()
	start := time.Now()

	canceled, steps := e.runAll(ctx)

	run := core.RunResult{
		Image:     imageLabel(img),
		Canceled:  canceled,
		StartTime: start,
		Duration:  time.Since(start),
		Steps:     steps,
		Messages:  e.summary.Messages(),
	}
	run.ComputeSummary()
	run.Status = run.AggregateStatus()

	e.flushSummary()
	e.runDone(run)
	return run
}

func (e *Engine) runStarted(image string) {
	if e.config.OnRunStart != nil {
		e.config.OnRunStart(image)
	}
}

func (e *Engine) runDone(run core.RunResult) {
	if e.config.OnRunDone != nil {
		e.config.OnRunDone(run)
	}
}

func imageLabel(img host.ImageRef) string {
	if img.Name != "" {
		return img.Name
	}
	if img.ID == 0 {
		return ""
	}
	return fmt.Sprintf("image #%d", img.ID)
}
