// Package action wraps the host's raw automation surface in the
// operations workflow steps actually need: gated writes, sentinel-aware
// reads, idempotent toggles and combobox selection. All writes that
// trigger a pipeline recompute go through the event gate.
package action

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/gate"
	"github.com/phototools-dev/workflow-runner/pkg/host"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
)

// Module-level widget elements shared by all processing modules
const (
	ElementEnable = "enable"
	ElementShow   = "show"
	ElementReset  = "reset"
)

// Proxy issues host actions on behalf of workflow steps.
type Proxy struct {
	auto     host.Automator
	gate     *gate.Gate
	settings *core.Settings
}

// New creates a Proxy.
func New(auto host.Automator, g *gate.Gate, settings *core.Settings) *Proxy {
	return &Proxy{
		auto:     auto,
		gate:     g,
		settings: settings,
	}
}

// FormatValue renders a widget value the way it appears in logs: four
// decimals, dot separator. NaN (no value) renders as "0/0".
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "0/0"
	}
	return fmt.Sprintf("%.4f", v)
}

// round4 quantizes to the four decimals the host itself displays.
// Comparing at higher precision would re-write values that differ only
// in float noise.
func round4(v float64) float64 {
	if math.IsNaN(v) {
		return v
	}
	return math.Round(v*10000) / 10000
}

// Invoke performs a call and waits for the pipeline to settle.
func (p *Proxy) Invoke(ctx context.Context, call host.Call) (core.Outcome, error) {
	logger.Debug("action: %s %s = %s", call.Effect, call.Key(), FormatValue(call.Value))
	return p.gate.Await(ctx, host.EventPipelineFinished, call.Key(), func() error {
		_, err := p.auto.Invoke(call)
		return err
	})
}

// InvokeNoWait performs a call without waiting for a pipeline event,
// then sleeps half a step timeout so the host can settle. Used for
// UI-only actions that never trigger a recompute.
func (p *Proxy) InvokeNoWait(call host.Call) error {
	logger.Debug("action: %s %s = %s (no wait)", call.Effect, call.Key(), FormatValue(call.Value))
	_, err := p.auto.Invoke(call)
	if err != nil {
		return err
	}
	time.Sleep(p.settings.Timeout() / 2)
	return nil
}

// ReadValue reads the current value of a widget. NaN means the widget
// has no value or could not be read; failures are logged, not returned,
// because every caller treats them the same as an absent value.
func (p *Proxy) ReadValue(call host.Call) float64 {
	read := call
	read.Effect = host.EffectSet
	read.Value = math.NaN()

	v, err := p.auto.Invoke(read)
	if err != nil {
		logger.Warn("action: read %s: %v", call.Key(), err)
		return math.NaN()
	}
	logger.Debug("action: read %s = %s", call.Key(), FormatValue(v))
	return v
}

// WriteValueIfChanged reads the widget first and writes only when the
// new value differs after rounding to four decimals. Returns whether a
// write happened.
func (p *Proxy) WriteValueIfChanged(ctx context.Context, call host.Call) (bool, error) {
	current := p.ReadValue(call)

	if round4(current) == round4(call.Value) {
		logger.Debug("action: nothing to do, %s already = %s", call.Key(), FormatValue(current))
		return false, nil
	}

	logger.Info("action: set %s = %s (was %s)", call.Key(), FormatValue(call.Value), FormatValue(current))
	_, err := p.Invoke(ctx, call)
	if err != nil {
		return false, err
	}
	return true, nil
}

// PressButton presses a toggle button by driving it off, then on. The
// off half runs only when the button is currently on, so the final state
// is on regardless of where it started.
func (p *Proxy) PressButton(ctx context.Context, call host.Call) error {
	current := p.ReadValue(call)
	on := !math.IsNaN(current) && current != 0

	if on {
		off := call
		off.Effect = host.EffectOff
		off.Value = 1
		if _, err := p.Invoke(ctx, off); err != nil {
			return err
		}
	}

	press := call
	press.Effect = host.EffectOn
	press.Value = 1
	_, err := p.Invoke(ctx, press)
	return err
}

// EnableModule switches a processing module on if it is off.
func (p *Proxy) EnableModule(ctx context.Context, path string, instance int) error {
	return p.ensureToggle(ctx, path, instance, ElementEnable, true)
}

// DisableModule switches a processing module off if it is on.
func (p *Proxy) DisableModule(ctx context.Context, path string, instance int) error {
	return p.ensureToggle(ctx, path, instance, ElementEnable, false)
}

// ensureToggle reads the toggle state and only invokes when it differs
// from the wanted state
func (p *Proxy) ensureToggle(ctx context.Context, path string, instance int, element string, want bool) error {
	call := host.Call{Path: path, Instance: instance, Element: element}

	current := p.ReadValue(call)
	on := !math.IsNaN(current) && current != 0
	if on == want {
		logger.Debug("action: nothing to do, %s already %s", call.Key(), onOff(want))
		return nil
	}

	call.Effect = host.EffectOff
	if want {
		call.Effect = host.EffectOn
	}
	call.Value = 1
	_, err := p.Invoke(ctx, call)
	return err
}

// ShowModule expands a module in the host UI. Purely visual, so no
// pipeline wait.
func (p *Proxy) ShowModule(path string, instance int) error {
	return p.setVisible(path, instance, true)
}

// HideModule collapses a module in the host UI.
func (p *Proxy) HideModule(path string, instance int) error {
	return p.setVisible(path, instance, false)
}

func (p *Proxy) setVisible(path string, instance int, want bool) error {
	call := host.Call{Path: path, Instance: instance, Element: ElementShow}

	current := p.ReadValue(call)
	on := !math.IsNaN(current) && current != 0
	if on == want {
		return nil
	}

	call.Effect = host.EffectOff
	if want {
		call.Effect = host.EffectOn
	}
	call.Value = 1
	return p.InvokeNoWait(call)
}

// ResetModule restores a module's parameters to their defaults.
func (p *Proxy) ResetModule(ctx context.Context, path string, instance int) error {
	call := host.Call{
		Path:     path,
		Instance: instance,
		Element:  ElementReset,
		Effect:   host.EffectActivate,
		Value:    1,
	}
	_, err := p.Invoke(ctx, call)
	return err
}

// CurrentComboIndex reads a combobox selection. The host reports the
// selected entry as a negative one-based index; the return value is the
// positive one-based index, or 0 when the selection cannot be read.
func (p *Proxy) CurrentComboIndex(call host.Call) int {
	v := p.ReadValue(call)
	if math.IsNaN(v) || v >= 0 {
		return 0
	}
	return int(math.Round(-v))
}

// SelectComboItem selects the one-based combobox entry, skipping the
// write when the entry is already selected. Returns whether a write
// happened.
func (p *Proxy) SelectComboItem(ctx context.Context, call host.Call, index int) (bool, error) {
	current := p.CurrentComboIndex(call)
	if current == index {
		logger.Debug("action: nothing to do, %s already = item %d", call.Key(), index)
		return false, nil
	}

	set := call
	set.Effect = host.EffectSet
	set.Value = float64(index)
	logger.Info("action: select %s item %d (was %d)", call.Key(), index, current)
	if _, err := p.Invoke(ctx, set); err != nil {
		return false, err
	}
	return true, nil
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}
