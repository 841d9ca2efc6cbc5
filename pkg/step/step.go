// Package step defines the workflow step catalog: one step per
// processing concern, each wrapping a host module (or a runner setting)
// behind the shared basic-mode machine.
package step

import (
	"context"

	"github.com/phototools-dev/workflow-runner/pkg/action"
	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/i18n"
)

// Step name constants, in catalog registration order.
const (
	// Common group
	StepHistoryCompression = "history-compression"
	StepTimeout            = "timeout"
	StepShowModules        = "show-modules"
	StepRunSingleStep      = "run-single-step"

	// Module group
	StepToneMapper          = "tone-mapper"
	StepSaturation          = "saturation"
	StepChroma              = "chroma"
	StepColorBalance        = "color-balance"
	StepLocalContrast       = "local-contrast"
	StepToneEqualizer       = "tone-equalizer"
	StepExposure            = "exposure"
	StepLensCorrection      = "lens-correction"
	StepDenoise             = "denoise"
	StepChromaticAberration = "chromatic-aberration"
	StepColorCalibration    = "color-calibration"
	StepWhiteBalance        = "white-balance"
	StepHighlights          = "highlight-reconstruction"
)

// Group classifies where a step appears.
type Group string

const (
	GroupCommon  Group = "common"
	GroupModules Group = "modules"
)

// Runtime carries the collaborators a running step needs.
type Runtime struct {
	Proxy    *action.Proxy
	Settings *core.Settings
	Catalog  *i18n.Catalog
}

// Step is the interface for all workflow steps.
type Step interface {
	// Name is the language-invariant identifier
	Name() string

	// Label is the display name; the preference codec reverse-translates
	// it for storage keys
	Label() string

	// Tooltip describes the step for UI surfaces
	Tooltip() string

	// Group returns which panel group the step belongs to
	Group() Group

	// Basics returns which basic machine the step carries
	Basics() BasicSet

	// Options returns the configuration choices. Options[0] is always
	// the "leave unchanged" entry. A single-entry list means the step
	// has no configuration beyond its basic machine.
	Options() []string

	// DefaultSelection returns the factory selection
	DefaultSelection() Selection

	// ModuleFor resolves the host module the selection targets, plus
	// any sibling modules that must be disabled before the target is
	// enabled. An empty target means no module work for this selection.
	ModuleFor(sel Selection) (target string, siblings []string)

	// ApplyOption applies the selected configuration option. Called
	// after the basic machine has enabled the target module, and only
	// for Option > 0.
	ApplyOption(ctx context.Context, rt *Runtime, sel Selection) error

	// IsSetting marks steps that mutate runner settings instead of
	// driving host modules. The sequencer applies them before the run
	// and skips them in the reversed loop.
	IsSetting() bool

	// RunsOnChange reports whether changing this step's selection
	// should trigger an immediate single-step run when the
	// run-single-step setting is active
	RunsOnChange() bool
}

// BaseStep contains common fields for all steps.
type BaseStep struct {
	StepName      string
	DisplayLabel  string
	Hint          string
	Path          string // Host module path, "" for settings carriers
	StepGroup     Group
	Machine       BasicSet
	DefaultMode   BasicMode
	Choices       []string
	DefaultChoice int
	SiblingPaths  []string // Disabled before this step's module is enabled
	OnChange      bool
}

// Name returns the step name.
func (b *BaseStep) Name() string { return b.StepName }

// Label returns the display label.
func (b *BaseStep) Label() string { return b.DisplayLabel }

// Tooltip returns the step description.
func (b *BaseStep) Tooltip() string { return b.Hint }

// Group returns the panel group.
func (b *BaseStep) Group() Group { return b.StepGroup }

// Basics returns the step's basic machine.
func (b *BaseStep) Basics() BasicSet { return b.Machine }

// Options returns the configuration choices.
func (b *BaseStep) Options() []string { return b.Choices }

// DefaultSelection returns the factory selection.
func (b *BaseStep) DefaultSelection() Selection {
	mode := b.DefaultMode
	if mode == "" {
		mode = BasicIgnore
	}
	return Selection{Basic: mode, Option: b.DefaultChoice}
}

// ModuleFor returns the step's fixed module and siblings.
func (b *BaseStep) ModuleFor(Selection) (string, []string) {
	return b.Path, b.SiblingPaths
}

// ApplyOption is a no-op; steps with configuration override it.
func (b *BaseStep) ApplyOption(context.Context, *Runtime, Selection) error {
	return nil
}

// IsSetting returns false; settings carriers override it.
func (b *BaseStep) IsSetting() bool { return false }

// RunsOnChange reports single-step-on-change participation.
func (b *BaseStep) RunsOnChange() bool { return b.OnChange }

// ResolveBasic maps a selection's basic mode to a concrete mode: default
// resolves to the step's declared default, and modes the machine does
// not offer fall back to the default as well.
func ResolveBasic(s Step, sel Selection) BasicMode {
	mode := sel.Basic
	if mode == "" || mode == BasicDefault {
		mode = s.DefaultSelection().Basic
	}
	if s.Basics() != BasicsNone && !s.Basics().Contains(mode) {
		mode = s.DefaultSelection().Basic
	}
	return mode
}

// OptionLabel returns the display text for a selection's option, or ""
// when the index is out of range.
func OptionLabel(s Step, index int) string {
	opts := s.Options()
	if index < 0 || index >= len(opts) {
		return ""
	}
	return opts[index]
}
