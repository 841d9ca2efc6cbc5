package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/i18n"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
	"github.com/phototools-dev/workflow-runner/pkg/step"
)

// RunAll executes every module step against the displayed image and
// reports whether the run was cut short. Steps execute in reverse
// registration order, so the deepest pipeline stage is configured
// first. Setting steps are applied up front and skipped in the loop.
//
// Cancellation is checked after each step from two sources, the
// progress job (user) and the host shutdown flag, each leaving its own
// summary message. A canceled run leaves the job in its canceled state;
// a completed run finalizes it. Either way the engine settles for one
// timeout period and clears the current-step label before returning.
func (e *Engine) RunAll(ctx context.Context) bool {
	canceled, _ := e.runAll(ctx)
	return canceled
}

func (e *Engine) runAll(ctx context.Context) (bool, []core.StepResult) {
	e.applySettings(ctx)

	total := 0
	for _, s := range e.steps {
		if !s.IsSetting() {
			total++
		}
	}

	job, err := e.host.CreateJob(e.catalog.T(i18n.MsgJobLabel), true)
	if err != nil {
		logger.Warn("progress job unavailable: %v", err)
		job = nil
	}

	results := make([]core.StepResult, 0, total)
	canceled := false
	completed := 0

	for i := len(e.steps) - 1; i >= 0; i-- {
		s := e.steps[i]
		if s.IsSetting() {
			continue
		}

		label := e.stepLabel(s)
		e.current = label
		if job != nil {
			if err := job.SetLabel(e.catalog.Tf(i18n.MsgProcessingStep, label)); err != nil {
				logger.Debug("job label: %v", err)
			}
		}
		logger.Info("Step %d/%d: %s", completed+1, total, s.Name())
		if e.config.OnStepStart != nil {
			e.config.OnStepStart(completed, total, s.Name())
		}

		res := e.runStep(ctx, s, completed)
		results = append(results, res)
		completed++

		if job != nil {
			if err := job.SetFraction(float64(completed) / float64(total)); err != nil {
				logger.Debug("job fraction: %v", err)
			}
		}
		if e.config.OnStepDone != nil {
			e.config.OnStepDone(res.Index, total, s.Name(), res.Status, res.Duration.Milliseconds())
		}

		// Short yield so cancel signals from the host can land before
		// the checks below.
		e.pause(ctx, e.settings.Timeout()/10)

		if job != nil {
			valid, jerr := job.Valid()
			if jerr != nil {
				logger.Debug("job state: %v", jerr)
			} else if !valid {
				e.summary.Add(e.catalog.T(i18n.MsgRunCanceled))
				canceled = true
				break
			}
		}
		if e.host.Closing() || ctx.Err() != nil {
			e.summary.Add(e.catalog.T(i18n.MsgHostClosing))
			canceled = true
			break
		}
	}

	// A canceled job stays visible in its canceled state; only a
	// completed run dismisses it.
	if !canceled && job != nil {
		if err := job.Finish(); err != nil {
			logger.Warn("job finish: %v", err)
		}
	}

	// Let the last pipeline recompute settle before the label goes away.
	e.pause(ctx, e.settings.Timeout())
	e.current = ""

	return canceled, results
}

// applySettings runs the setting carriers (timeout, flags) so the rest
// of the run sees their values.
func (e *Engine) applySettings(ctx context.Context) {
	for _, s := range e.steps {
		if !s.IsSetting() {
			continue
		}
		if _, err := step.Run(ctx, e.rt, s, e.selection(s)); err != nil {
			logger.Warn("setting %s: %v", s.Name(), err)
		}
	}
}

// runStep executes one step and converts its outcome into a result
// record. Step failures never escape: they become summary messages and
// a failed result.
func (e *Engine) runStep(ctx context.Context, s step.Step, idx int) core.StepResult {
	sel := e.selection(s)

	res := core.StepResult{
		Name:      s.Name(),
		Index:     idx,
		StartTime: time.Now(),
		Option:    step.OptionLabel(s, sel.Option),
	}
	if s.Basics() != step.BasicsNone {
		res.Basic = string(step.ResolveBasic(s, sel))
	}

	before := e.summary.Count()
	status, err := step.Run(ctx, e.rt, s, sel)
	res.Duration = time.Since(res.StartTime)
	res.Status = status

	if err != nil {
		res.Status = core.StatusFailed
		res.Category = categorize(err)
		res.Error = err.Error()
		e.summary.Addf("%s: %v", e.stepLabel(s), err)
	} else if status == core.StatusApplied && e.summary.Count() > before {
		// The configuration was issued but a gated wait inside the step
		// gave up on its confirmation event.
		res.Status = core.StatusTimedOut
		res.Category = core.ErrCategoryTimeout
	}

	if e.config.Source != nil && e.config.Snapshot.ShouldCapture(res.Status) {
		e.attachSnapshot(&res)
	}
	return res
}

// RunSingle runs one step by name against the displayed image: the
// run-single-step-on-change path and the CLI --only flag.
func (e *Engine) RunSingle(ctx context.Context, name string) (core.RunResult, error) {
	s, ok := step.Lookup(e.steps, name)
	if !ok {
		return core.RunResult{}, core.ErrUnknownStep.WithDetails(map[string]interface{}{"step": name})
	}

	e.summary.Clear()
	start := time.Now()

	run := core.RunResult{StartTime: start}
	if img, err := e.host.DisplayedImage(); err == nil {
		run.Image = imageLabel(img)
	}

	res := e.runStep(ctx, s, 0)

	run.Steps = []core.StepResult{res}
	run.Messages = e.summary.Messages()
	run.Duration = time.Since(start)
	run.ComputeSummary()
	run.Status = run.AggregateStatus()

	e.flushSummary()
	return run, nil
}

// flushSummary sends the collected run messages to the host's visible
// log, or the all-clear message when there are none.
func (e *Engine) flushSummary() {
	msgs := e.summary.Messages()
	if len(msgs) == 0 {
		e.print(e.catalog.T(i18n.MsgCompletedNoErrors))
		return
	}
	for _, m := range msgs {
		e.print(m)
	}
}

func (e *Engine) print(msg string) {
	if err := e.host.Print(msg); err != nil {
		logger.Warn("print: %v", err)
	}
}

// stepLabel returns the step's display label in the active language.
func (e *Engine) stepLabel(s step.Step) string {
	return e.catalog.T(i18n.MsgID(s.Label()))
}

// pause sleeps for d unless the context ends first.
func (e *Engine) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (e *Engine) attachSnapshot(res *core.StepResult) {
	data, err := e.config.Source.Snapshot()
	if err != nil {
		logger.Warn("snapshot capture failed for %s: %v", res.Name, err)
		return
	}
	if len(data) == 0 {
		return
	}
	name := fmt.Sprintf("%s-%s.png", res.Name, res.Status)
	res.Attachments = append(res.Attachments, core.NewSnapshotAttachment(name, data))
}

func categorize(err error) core.ErrorCategory {
	var wErr *core.WorkflowError
	if errors.As(err, &wErr) {
		return wErr.Category
	}
	return core.ErrCategoryHost
}
