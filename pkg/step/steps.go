package step

import (
	"context"
	"time"

	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/host"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
)

// ============================================
// Module Steps
// ============================================

// ModuleStep drives a host module with no configuration beyond the basic
// machine.
type ModuleStep struct {
	BaseStep
}

// ComboStep configures a module through one of its combobox widgets. The
// option list mirrors the host's combobox entries one-based, with the
// "unchanged" entry prepended.
type ComboStep struct {
	BaseStep
	Element string
}

// ApplyOption selects the combobox entry matching the option index.
func (s *ComboStep) ApplyOption(ctx context.Context, rt *Runtime, sel Selection) error {
	call := host.Call{Path: s.Path, Element: s.Element}
	_, err := rt.Proxy.SelectComboItem(ctx, call, sel.Option)
	return err
}

// SliderStep writes a numeric value to one of the module's sliders.
// Values holds the target value per option, parallel to Options()[1:].
type SliderStep struct {
	BaseStep
	Element string
	Values  []float64
}

// ApplyOption writes the option's value if the slider differs.
func (s *SliderStep) ApplyOption(ctx context.Context, rt *Runtime, sel Selection) error {
	if sel.Option < 1 || sel.Option > len(s.Values) {
		return core.ErrUnknownOption.WithDetails(map[string]interface{}{
			"step":   s.StepName,
			"option": sel.Option,
		})
	}
	call := host.Call{
		Path:    s.Path,
		Element: s.Element,
		Effect:  host.EffectSet,
		Value:   s.Values[sel.Option-1],
	}
	_, err := rt.Proxy.WriteValueIfChanged(ctx, call)
	return err
}

// FamilyMember is one module in a mutual-exclusion family.
type FamilyMember struct {
	Label string
	Path  string
}

// FamilyStep picks one module out of a mutual-exclusion family. Its
// options name the members, so the target module depends on the
// selection; the remaining members are the siblings to disable first.
// With the option left unchanged there is no target and the step does
// nothing.
type FamilyStep struct {
	BaseStep
	Members []FamilyMember // Parallel to Options()[1:]
}

// ModuleFor resolves the selected member and its siblings.
func (s *FamilyStep) ModuleFor(sel Selection) (string, []string) {
	if sel.Option < 1 || sel.Option > len(s.Members) {
		return "", nil
	}
	target := s.Members[sel.Option-1].Path
	siblings := make([]string, 0, len(s.Members)-1)
	for _, m := range s.Members {
		if m.Path != target {
			siblings = append(siblings, m.Path)
		}
	}
	return target, siblings
}

// ============================================
// Common Steps
// ============================================

// HistoryCompressStep presses the host's history compression button,
// discarding superseded history entries. Registered first so it runs
// after every module step.
type HistoryCompressStep struct {
	BaseStep
}

// ApplyOption activates the compress action.
func (s *HistoryCompressStep) ApplyOption(ctx context.Context, rt *Runtime, _ Selection) error {
	call := host.Call{
		Path:    s.Path,
		Element: "compress",
		Effect:  host.EffectActivate,
		Value:   1,
	}
	_, err := rt.Proxy.Invoke(ctx, call)
	return err
}

// TimeoutStep raises or lowers the shared step timeout. Durations is
// parallel to Options()[1:].
type TimeoutStep struct {
	BaseStep
	Durations []time.Duration
}

// IsSetting marks the step as a settings carrier.
func (s *TimeoutStep) IsSetting() bool { return true }

// ApplyOption stores the selected timeout.
func (s *TimeoutStep) ApplyOption(_ context.Context, rt *Runtime, sel Selection) error {
	if sel.Option < 1 || sel.Option > len(s.Durations) {
		return core.ErrUnknownOption.WithDetails(map[string]interface{}{
			"step":   s.StepName,
			"option": sel.Option,
		})
	}
	d := s.Durations[sel.Option-1]
	logger.Info("step: timeout set to %v", d)
	rt.Settings.SetTimeout(d)
	return nil
}

// ShowModulesStep controls whether modules are expanded in the host UI
// while being configured.
type ShowModulesStep struct {
	BaseStep
}

// IsSetting marks the step as a settings carrier.
func (s *ShowModulesStep) IsSetting() bool { return true }

// ApplyOption stores the show-modules flag. Option 1 shows, option 2
// hides.
func (s *ShowModulesStep) ApplyOption(_ context.Context, rt *Runtime, sel Selection) error {
	rt.Settings.ShowModules = sel.Option == 1
	return nil
}

// RunSingleStepStep controls whether a changed step selection triggers
// an immediate single-step run.
type RunSingleStepStep struct {
	BaseStep
}

// IsSetting marks the step as a settings carrier.
func (s *RunSingleStepStep) IsSetting() bool { return true }

// ApplyOption stores the run-single-step flag. Option 1 enables,
// option 2 disables.
func (s *RunSingleStepStep) ApplyOption(_ context.Context, rt *Runtime, sel Selection) error {
	rt.Settings.RunSingleStep = sel.Option == 1
	return nil
}
