package action

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/gate"
	"github.com/phototools-dev/workflow-runner/pkg/host"
	"github.com/phototools-dev/workflow-runner/pkg/host/fake"
	"github.com/phototools-dev/workflow-runner/pkg/i18n"
)

func newTestProxy(h *fake.Host, timeout time.Duration) *Proxy {
	settings := core.NewSettings()
	settings.SetTimeout(timeout)
	g := gate.New(h, settings, &core.RunSummary{}, i18n.Default())
	return New(h, g, settings)
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		value    float64
		expected string
	}{
		{1.23456, "1.2346"},
		{0, "0.0000"},
		{-2.5, "-2.5000"},
		{math.NaN(), "0/0"},
	}

	for _, tt := range tests {
		if got := FormatValue(tt.value); got != tt.expected {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.value, got, tt.expected)
		}
	}
}

func TestReadValue_MissingWidget(t *testing.T) {
	h := fake.New(fake.Config{})
	p := newTestProxy(h, 20*time.Millisecond)

	v := p.ReadValue(host.Call{Path: "iop/exposure", Element: "exposure"})

	if !math.IsNaN(v) {
		t.Errorf("ReadValue() = %v for missing widget, want NaN", v)
	}
}

func TestReadValue_ReturnsStored(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/exposure/exposure", 1.5)
	p := newTestProxy(h, 20*time.Millisecond)

	v := p.ReadValue(host.Call{Path: "iop/exposure", Element: "exposure"})

	if v != 1.5 {
		t.Errorf("ReadValue() = %v, want 1.5", v)
	}
}

func TestWriteValueIfChanged_SkipsEqualAfterRounding(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/exposure/exposure", 1.00004)
	p := newTestProxy(h, 20*time.Millisecond)

	wrote, err := p.WriteValueIfChanged(context.Background(), host.Call{
		Path: "iop/exposure", Element: "exposure", Effect: host.EffectSet, Value: 1.0,
	})

	if err != nil {
		t.Fatalf("WriteValueIfChanged() error = %v", err)
	}
	if wrote {
		t.Error("WriteValueIfChanged() wrote a value that rounds equal")
	}
	if n := h.WriteCount("iop/exposure/exposure"); n != 0 {
		t.Errorf("WriteCount = %d, want 0", n)
	}
}

func TestWriteValueIfChanged_WritesDifference(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/exposure/exposure", 0.5)
	p := newTestProxy(h, 20*time.Millisecond)

	wrote, err := p.WriteValueIfChanged(context.Background(), host.Call{
		Path: "iop/exposure", Element: "exposure", Effect: host.EffectSet, Value: 1.0,
	})

	if err != nil {
		t.Fatalf("WriteValueIfChanged() error = %v", err)
	}
	if !wrote {
		t.Error("WriteValueIfChanged() skipped a changed value")
	}
	if n := h.WriteCount("iop/exposure/exposure"); n != 1 {
		t.Errorf("WriteCount = %d, want 1", n)
	}
	if v, _ := h.Value("iop/exposure/exposure"); v != 1.0 {
		t.Errorf("stored value = %v, want 1.0", v)
	}
}

func TestPressButton_OffThenOnWhenOn(t *testing.T) {
	h := fake.New(fake.Config{})
	key := "iop/colorbalancergb/contrast-picker"
	h.SetValue(key, 1)
	p := newTestProxy(h, 20*time.Millisecond)

	err := p.PressButton(context.Background(), host.Call{Path: "iop/colorbalancergb", Element: "contrast-picker"})
	if err != nil {
		t.Fatalf("PressButton() error = %v", err)
	}

	var effects []string
	for _, c := range h.Calls() {
		if c.Key() == key {
			effects = append(effects, c.Effect)
		}
	}
	want := []string{host.EffectSet, host.EffectOff, host.EffectOn}
	if len(effects) != len(want) {
		t.Fatalf("effects = %v, want %v", effects, want)
	}
	for i := range want {
		if effects[i] != want[i] {
			t.Fatalf("effects = %v, want %v", effects, want)
		}
	}

	if v, _ := h.Value(key); v != 1 {
		t.Errorf("final state = %v, want 1 (on)", v)
	}
}

func TestPressButton_JustOnWhenOff(t *testing.T) {
	h := fake.New(fake.Config{})
	key := "iop/colorbalancergb/contrast-picker"
	p := newTestProxy(h, 20*time.Millisecond)

	err := p.PressButton(context.Background(), host.Call{Path: "iop/colorbalancergb", Element: "contrast-picker"})
	if err != nil {
		t.Fatalf("PressButton() error = %v", err)
	}

	for _, c := range h.Calls() {
		if c.Key() == key && c.Effect == host.EffectOff {
			t.Error("PressButton() drove an already-off button off")
		}
	}
	if v, _ := h.Value(key); v != 1 {
		t.Errorf("final state = %v, want 1 (on)", v)
	}
}

func TestEnableModule_SkipsWhenAlreadyEnabled(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/filmicrgb/enable", 1)
	p := newTestProxy(h, 20*time.Millisecond)

	if err := p.EnableModule(context.Background(), "iop/filmicrgb", 0); err != nil {
		t.Fatalf("EnableModule() error = %v", err)
	}

	if n := h.WriteCount("iop/filmicrgb/enable"); n != 0 {
		t.Errorf("WriteCount = %d for already-enabled module, want 0", n)
	}
}

func TestDisableModule_TogglesOff(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/basecurve/enable", 1)
	p := newTestProxy(h, 20*time.Millisecond)

	if err := p.DisableModule(context.Background(), "iop/basecurve", 0); err != nil {
		t.Fatalf("DisableModule() error = %v", err)
	}

	if v, _ := h.Value("iop/basecurve/enable"); v != 0 {
		t.Errorf("enable state = %v, want 0", v)
	}
}

func TestShowModule_NoPipelineWait(t *testing.T) {
	// No pipeline events at all: a gated call would burn the full wait
	// cap, a visibility change must not.
	h := fake.New(fake.Config{NoPipelineEvent: true})
	p := newTestProxy(h, 20*time.Millisecond)

	start := time.Now()
	if err := p.ShowModule("iop/exposure", 0); err != nil {
		t.Fatalf("ShowModule() error = %v", err)
	}

	if elapsed := time.Since(start); elapsed >= 100*time.Millisecond {
		t.Errorf("ShowModule() took %v, should not wait for pipeline events", elapsed)
	}
	if v, _ := h.Value("iop/exposure/show"); v != 1 {
		t.Errorf("show state = %v, want 1", v)
	}
}

func TestCurrentComboIndex(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/filmicrgb/preset", -3)
	p := newTestProxy(h, 20*time.Millisecond)

	if got := p.CurrentComboIndex(host.Call{Path: "iop/filmicrgb", Element: "preset"}); got != 3 {
		t.Errorf("CurrentComboIndex() = %d, want 3", got)
	}
	if got := p.CurrentComboIndex(host.Call{Path: "iop/unknown", Element: "preset"}); got != 0 {
		t.Errorf("CurrentComboIndex() = %d for missing widget, want 0", got)
	}
}

func TestSelectComboItem_AlreadySelected(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/denoiseprofile/preset", -2)
	p := newTestProxy(h, 20*time.Millisecond)

	wrote, err := p.SelectComboItem(context.Background(), host.Call{Path: "iop/denoiseprofile", Element: "preset"}, 2)

	if err != nil {
		t.Fatalf("SelectComboItem() error = %v", err)
	}
	if wrote {
		t.Error("SelectComboItem() wrote an already-selected entry")
	}
	if n := h.WriteCount("iop/denoiseprofile/preset"); n != 0 {
		t.Errorf("WriteCount = %d, want 0", n)
	}
}

func TestSelectComboItem_Selects(t *testing.T) {
	h := fake.New(fake.Config{})
	h.SetValue("iop/denoiseprofile/preset", -1)
	p := newTestProxy(h, 20*time.Millisecond)

	wrote, err := p.SelectComboItem(context.Background(), host.Call{Path: "iop/denoiseprofile", Element: "preset"}, 3)

	if err != nil {
		t.Fatalf("SelectComboItem() error = %v", err)
	}
	if !wrote {
		t.Error("SelectComboItem() did not write a new selection")
	}
	if v, _ := h.Value("iop/denoiseprofile/preset"); v != 3 {
		t.Errorf("stored value = %v, want 3", v)
	}
}

func TestResetModule(t *testing.T) {
	h := fake.New(fake.Config{})
	p := newTestProxy(h, 20*time.Millisecond)

	if err := p.ResetModule(context.Background(), "iop/toneequal", 0); err != nil {
		t.Fatalf("ResetModule() error = %v", err)
	}

	found := false
	for _, c := range h.Calls() {
		if c.Key() == "iop/toneequal/reset" && c.Effect == host.EffectActivate {
			found = true
		}
	}
	if !found {
		t.Error("ResetModule() did not activate the reset element")
	}
}

func TestInvokeNoWait_Settles(t *testing.T) {
	h := fake.New(fake.Config{})
	p := newTestProxy(h, 40*time.Millisecond)

	start := time.Now()
	err := p.InvokeNoWait(host.Call{Path: "iop/exposure", Element: "exposure", Effect: host.EffectSet, Value: 0.5})
	if err != nil {
		t.Fatalf("InvokeNoWait() error = %v", err)
	}

	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("InvokeNoWait() returned after %v, want a settle pause of at least half the timeout", elapsed)
	}
}
