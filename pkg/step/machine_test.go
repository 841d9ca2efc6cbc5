package step

import (
	"context"
	"testing"
	"time"

	"github.com/phototools-dev/workflow-runner/pkg/action"
	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/gate"
	"github.com/phototools-dev/workflow-runner/pkg/host"
	"github.com/phototools-dev/workflow-runner/pkg/host/fake"
	"github.com/phototools-dev/workflow-runner/pkg/i18n"
)

func newTestRuntime(h *fake.Host) *Runtime {
	settings := core.NewSettings()
	settings.SetTimeout(20 * time.Millisecond)
	g := gate.New(h, settings, &core.RunSummary{}, i18n.Default())
	return &Runtime{
		Proxy:    action.New(h, g, settings),
		Settings: settings,
		Catalog:  i18n.Default(),
	}
}

func testComboStep() *ComboStep {
	return &ComboStep{
		BaseStep: BaseStep{
			StepName:    "test-combo",
			Path:        "iop/testmod",
			Machine:     BasicsFull,
			DefaultMode: BasicEnable,
			Choices:     []string{"unchanged", "preset one", "preset two"},
		},
		Element: "preset",
	}
}

func TestRun_IgnoreSkipsEverything(t *testing.T) {
	h := fake.New(fake.Config{})
	rt := newTestRuntime(h)

	status, err := Run(context.Background(), rt, testComboStep(), Selection{Basic: BasicIgnore, Option: 1})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusSkipped {
		t.Errorf("status = %s, want skipped", status)
	}
	if n := len(h.Calls()); n != 0 {
		t.Errorf("host saw %d calls for an ignored step, want 0", n)
	}
}

func TestRun_DisableShortCircuits(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/testmod/enable", 1)
	rt := newTestRuntime(h)

	status, err := Run(context.Background(), rt, testComboStep(), Selection{Basic: BasicDisable, Option: 2})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusApplied {
		t.Errorf("status = %s, want applied", status)
	}
	if v, _ := h.Value("iop/testmod/enable"); v != 0 {
		t.Errorf("enable state = %v, want 0", v)
	}
	if n := h.WriteCount("iop/testmod/preset"); n != 0 {
		t.Errorf("preset writes = %d after disable, want 0 (disable is terminal)", n)
	}
}

func TestRun_UnchangedOptionTouchesNoConfig(t *testing.T) {
	h := fake.New(fake.Config{})
	rt := newTestRuntime(h)

	status, err := Run(context.Background(), rt, testComboStep(), Selection{Basic: BasicEnable, Option: 0})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusApplied {
		t.Errorf("status = %s, want applied (module was enabled)", status)
	}
	if v, _ := h.Value("iop/testmod/enable"); v != 1 {
		t.Errorf("enable state = %v, want 1", v)
	}
	if n := h.WriteCount("iop/testmod/preset"); n != 0 {
		t.Errorf("preset writes = %d for unchanged option, want 0", n)
	}
}

func TestRun_SiblingsDisabledBeforeEnable(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/temperature/enable", 1)
	rt := newTestRuntime(h)

	s := &ComboStep{
		BaseStep: BaseStep{
			StepName:     "test-colorcal",
			Path:         "iop/channelmixerrgb",
			Machine:      BasicsFull,
			DefaultMode:  BasicEnable,
			Choices:      []string{"unchanged", "same as pipeline (D50)"},
			SiblingPaths: []string{"iop/temperature"},
		},
		Element: "illuminant",
	}

	status, err := Run(context.Background(), rt, s, Selection{Basic: BasicEnable, Option: 1})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusApplied {
		t.Errorf("status = %s, want applied", status)
	}

	siblingOff, targetOn := -1, -1
	for i, c := range h.Calls() {
		if c.Key() == "iop/temperature/enable" && c.Effect == host.EffectOff {
			siblingOff = i
		}
		if c.Key() == "iop/channelmixerrgb/enable" && c.Effect == host.EffectOn {
			targetOn = i
		}
	}
	if siblingOff == -1 {
		t.Fatal("sibling module was never disabled")
	}
	if targetOn == -1 {
		t.Fatal("target module was never enabled")
	}
	if siblingOff > targetOn {
		t.Errorf("sibling disabled at call %d, after target enabled at call %d", siblingOff, targetOn)
	}
}

func TestRun_ResetEnablesThenResets(t *testing.T) {
	h := fake.New(fake.Config{})
	rt := newTestRuntime(h)

	s := &ModuleStep{BaseStep: BaseStep{
		StepName:    "test-denoise",
		Path:        "iop/denoiseprofile",
		Machine:     BasicsFull,
		DefaultMode: BasicEnable,
		Choices:     []string{"unchanged"},
	}}

	status, err := Run(context.Background(), rt, s, Selection{Basic: BasicReset, Option: 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusApplied {
		t.Errorf("status = %s, want applied", status)
	}

	if v, _ := h.Value("iop/denoiseprofile/enable"); v != 1 {
		t.Errorf("enable state = %v, want 1", v)
	}
	resetSeen := false
	for _, c := range h.Calls() {
		if c.Key() == "iop/denoiseprofile/reset" && c.Effect == host.EffectActivate {
			resetSeen = true
		}
	}
	if !resetSeen {
		t.Error("reset element was never activated")
	}
}

func TestRun_FamilySelectsOneMember(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/filmicrgb/enable", 1)
	rt := newTestRuntime(h)

	s := &FamilyStep{
		BaseStep: BaseStep{
			StepName:    "test-tonemapper",
			Machine:     BasicsFull,
			DefaultMode: BasicEnable,
			Choices:     []string{"unchanged", "filmic", "sigmoid", "base curve"},
		},
		Members: []FamilyMember{
			{Label: "filmic", Path: "iop/filmicrgb"},
			{Label: "sigmoid", Path: "iop/sigmoid"},
			{Label: "base curve", Path: "iop/basecurve"},
		},
	}

	status, err := Run(context.Background(), rt, s, Selection{Basic: BasicEnable, Option: 2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusApplied {
		t.Errorf("status = %s, want applied", status)
	}

	if v, _ := h.Value("iop/filmicrgb/enable"); v != 0 {
		t.Errorf("filmic enable = %v, want 0", v)
	}
	if v, _ := h.Value("iop/sigmoid/enable"); v != 1 {
		t.Errorf("sigmoid enable = %v, want 1", v)
	}
}

func TestRun_FamilyUnchangedDoesNothing(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/filmicrgb/enable", 1)
	rt := newTestRuntime(h)

	s := &FamilyStep{
		BaseStep: BaseStep{
			StepName:    "test-tonemapper",
			Machine:     BasicsFull,
			DefaultMode: BasicEnable,
			Choices:     []string{"unchanged", "filmic", "sigmoid"},
		},
		Members: []FamilyMember{
			{Label: "filmic", Path: "iop/filmicrgb"},
			{Label: "sigmoid", Path: "iop/sigmoid"},
		},
	}

	status, err := Run(context.Background(), rt, s, Selection{Basic: BasicEnable, Option: 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusSkipped {
		t.Errorf("status = %s, want skipped (no member chosen)", status)
	}
	if v, _ := h.Value("iop/filmicrgb/enable"); v != 1 {
		t.Errorf("filmic enable = %v, the active member must stay on", v)
	}
}

func TestRun_ReducedMachineFallsBackOnForeignMode(t *testing.T) {
	h := fake.New(fake.Config{})
	rt := newTestRuntime(h)

	s := &ModuleStep{BaseStep: BaseStep{
		StepName:    "test-ca",
		Path:        "iop/cacorrect",
		Machine:     BasicsReduced,
		DefaultMode: BasicEnable,
		Choices:     []string{"unchanged"},
	}}

	// disable is not part of the reduced machine: resolve to the default
	status, err := Run(context.Background(), rt, s, Selection{Basic: BasicDisable, Option: 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusApplied {
		t.Errorf("status = %s, want applied", status)
	}
	if v, _ := h.Value("iop/cacorrect/enable"); v != 1 {
		t.Errorf("enable state = %v, want 1 (fell back to enable)", v)
	}
}

func TestRun_SliderWritesSelectedValue(t *testing.T) {
	h := fake.New(fake.Config{})
	rt := newTestRuntime(h)

	s := &SliderStep{
		BaseStep: BaseStep{
			StepName:    "test-exposure",
			Path:        "iop/exposure",
			Machine:     BasicsFull,
			DefaultMode: BasicEnable,
			Choices:     []string{"unchanged", "+0.5 EV", "+1.0 EV"},
		},
		Element: "exposure",
		Values:  []float64{0.5, 1.0},
	}

	status, err := Run(context.Background(), rt, s, Selection{Basic: BasicEnable, Option: 2})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusApplied {
		t.Errorf("status = %s, want applied", status)
	}
	if v, _ := h.Value("iop/exposure/exposure"); v != 1.0 {
		t.Errorf("exposure = %v, want 1.0", v)
	}
}

func TestRun_ConfigOnlyStep(t *testing.T) {
	h := fake.New(fake.Config{})
	rt := newTestRuntime(h)

	s := &HistoryCompressStep{BaseStep: BaseStep{
		StepName: "test-history",
		Path:     "lib/history",
		Machine:  BasicsNone,
		Choices:  []string{"no compression", "compress history stack"},
	}}

	status, err := Run(context.Background(), rt, s, Selection{Option: 0})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusSkipped {
		t.Errorf("status = %s for option 0, want skipped", status)
	}
	if n := len(h.Calls()); n != 0 {
		t.Errorf("host saw %d calls, want 0", n)
	}

	status, err = Run(context.Background(), rt, s, Selection{Option: 1})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusApplied {
		t.Errorf("status = %s for option 1, want applied", status)
	}
	if n := h.CallCount("lib/history/compress"); n != 1 {
		t.Errorf("compress activated %d times, want 1", n)
	}
}

func TestRun_SettingStepsMutateSettings(t *testing.T) {
	h := fake.New(fake.Config{})
	rt := newTestRuntime(h)

	timeout := &TimeoutStep{
		BaseStep: BaseStep{
			StepName: "test-timeout",
			Machine:  BasicsNone,
			Choices:  []string{"unchanged", "500ms", "1s", "2s"},
		},
		Durations: []time.Duration{500 * time.Millisecond, time.Second, 2 * time.Second},
	}
	if _, err := Run(context.Background(), rt, timeout, Selection{Option: 3}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got := rt.Settings.Timeout(); got != 2*time.Second {
		t.Errorf("Timeout() = %v, want 2s", got)
	}

	show := &ShowModulesStep{BaseStep: BaseStep{
		StepName: "test-show",
		Machine:  BasicsNone,
		Choices:  []string{"unchanged", "show", "hide"},
	}}
	if _, err := Run(context.Background(), rt, show, Selection{Option: 1}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !rt.Settings.ShowModules {
		t.Error("ShowModules = false, want true")
	}
}

func TestRun_OutOfRangeOptionTreatedAsUnchanged(t *testing.T) {
	h := fake.New(fake.Config{})
	rt := newTestRuntime(h)

	status, err := Run(context.Background(), rt, testComboStep(), Selection{Basic: BasicEnable, Option: 99})

	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if status != core.StatusApplied {
		t.Errorf("status = %s, want applied", status)
	}
	if n := h.WriteCount("iop/testmod/preset"); n != 0 {
		t.Errorf("preset writes = %d for out-of-range option, want 0", n)
	}
}

func TestResolveBasic(t *testing.T) {
	full := testComboStep()

	tests := []struct {
		name     string
		sel      Selection
		expected BasicMode
	}{
		{"explicit mode kept", Selection{Basic: BasicDisable}, BasicDisable},
		{"default resolves", Selection{Basic: BasicDefault}, BasicEnable},
		{"empty resolves", Selection{}, BasicEnable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveBasic(full, tt.sel); got != tt.expected {
				t.Errorf("ResolveBasic() = %s, want %s", got, tt.expected)
			}
		})
	}
}
