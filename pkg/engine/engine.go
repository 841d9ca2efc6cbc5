// Package engine sequences workflow steps against a host: settings
// pre-pass, reverse registration order, a cancelable progress job, and
// the image/batch wrappers around view and selection handling.
package engine

import (
	"context"

	"github.com/phototools-dev/workflow-runner/pkg/action"
	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/gate"
	"github.com/phototools-dev/workflow-runner/pkg/host"
	"github.com/phototools-dev/workflow-runner/pkg/i18n"
	"github.com/phototools-dev/workflow-runner/pkg/prefs"
	"github.com/phototools-dev/workflow-runner/pkg/step"
)

// Config configures the engine.
type Config struct {
	// Steps overrides the built-in catalog. Nil means step.Catalog().
	Steps []step.Step

	// Snapshot decides which step outcomes get a render snapshot
	// attached to their result.
	Snapshot core.SnapshotConfig

	// Source captures snapshots. Nil disables capture entirely.
	Source core.SnapshotSource

	// Live progress callbacks
	OnStepStart func(idx, total int, name string)
	OnStepDone  func(idx, total int, name string, status core.StepStatus, durationMs int64)

	// Per-image run callbacks. OnRunStart fires before the image is
	// loaded; OnRunDone fires with the finished result, including runs
	// that failed before any step executed.
	OnRunStart func(image string)
	OnRunDone  func(run core.RunResult)

	// SelectionsFor returns selection overrides for one image, consulted
	// after the image is displayed. The overrides hold for that image
	// only; the base selections come back for the next one.
	SelectionsFor func(img host.ImageRef) map[string]step.Selection
}

// Engine drives workflow runs. All methods are called from one
// goroutine; the host client is the only collaborator that may have
// background activity of its own.
type Engine struct {
	host     host.Client
	gate     *gate.Gate
	rt       *step.Runtime
	steps    []step.Step
	sels     map[string]step.Selection
	settings *core.Settings
	summary  *core.RunSummary
	catalog  *i18n.Catalog
	codec    *prefs.Codec
	config   Config

	// current is the label of the step being executed, "" between runs
	current string
}

// New creates an Engine bound to a host client. Selections start at
// catalog defaults; call LoadSelections to overlay the persisted state.
func New(client host.Client, catalog *i18n.Catalog, cfg Config) *Engine {
	if catalog == nil {
		catalog = i18n.Default()
	}

	settings := core.NewSettings()
	summary := &core.RunSummary{}
	g := gate.New(client, settings, summary, catalog)

	steps := cfg.Steps
	if steps == nil {
		steps = step.Catalog()
	}

	sels := make(map[string]step.Selection, len(steps))
	for _, s := range steps {
		sels[s.Name()] = s.DefaultSelection()
	}

	return &Engine{
		host:     client,
		gate:     g,
		rt:       &step.Runtime{Proxy: action.New(client, g, settings), Settings: settings, Catalog: catalog},
		steps:    steps,
		sels:     sels,
		settings: settings,
		summary:  summary,
		catalog:  catalog,
		codec:    prefs.New(client, catalog),
		config:   cfg,
	}
}

// Steps returns the step list in registration order.
func (e *Engine) Steps() []step.Step {
	return e.steps
}

// Settings returns the shared run settings.
func (e *Engine) Settings() *core.Settings {
	return e.settings
}

// Summary returns the run summary.
func (e *Engine) Summary() *core.RunSummary {
	return e.summary
}

// CurrentStep returns the label of the step being executed, or "" when
// no step is running.
func (e *Engine) CurrentStep() string {
	return e.current
}

// Selection returns the current selection for a step.
func (e *Engine) Selection(name string) (step.Selection, bool) {
	sel, ok := e.sels[name]
	return sel, ok
}

// Selections returns a copy of all current selections.
func (e *Engine) Selections() map[string]step.Selection {
	out := make(map[string]step.Selection, len(e.sels))
	for name, sel := range e.sels {
		out[name] = sel
	}
	return out
}

// SetSelections overlays selections in bulk, e.g. from a parsed
// profile. Unknown step names are dropped; nothing is persisted.
func (e *Engine) SetSelections(sels map[string]step.Selection) {
	for name, sel := range sels {
		if _, ok := step.Lookup(e.steps, name); ok {
			e.sels[name] = sel
		}
	}
}

// LoadSelections replaces all selections with the persisted state from
// the host preference store. Missing or unreadable entries fall back to
// step defaults.
func (e *Engine) LoadSelections() {
	e.sels = e.codec.LoadAll(e.steps)
}

// ApplySelection changes one step's selection and persists it. Setting
// steps take effect immediately; for module steps the change triggers a
// single-step run when the run-single-step flag is active and the step
// participates.
func (e *Engine) ApplySelection(ctx context.Context, name string, sel step.Selection) error {
	s, ok := step.Lookup(e.steps, name)
	if !ok {
		return core.ErrUnknownStep.WithDetails(map[string]interface{}{"step": name})
	}

	e.sels[name] = sel
	if err := e.codec.Save(s, sel); err != nil {
		return err
	}

	if s.IsSetting() {
		_, err := step.Run(ctx, e.rt, s, sel)
		return err
	}
	if e.settings.RunSingleStep && s.RunsOnChange() {
		_, err := e.RunSingle(ctx, name)
		return err
	}
	return nil
}

// ResetAllToDefaults restores every step to its factory selection and
// persists the result.
func (e *Engine) ResetAllToDefaults() error {
	for _, s := range e.steps {
		e.sels[s.Name()] = s.DefaultSelection()
	}
	return e.codec.SaveAll(e.steps, e.sels)
}

// selection returns the step's current selection, falling back to its
// default when nothing is stored.
func (e *Engine) selection(s step.Step) step.Selection {
	if sel, ok := e.sels[s.Name()]; ok {
		return sel
	}
	return s.DefaultSelection()
}
