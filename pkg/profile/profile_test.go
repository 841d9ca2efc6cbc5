package profile

import (
	"bytes"
	"strings"
	"testing"

	"github.com/phototools-dev/workflow-runner/pkg/step"
)

func TestParse_SimpleProfile(t *testing.T) {
	yaml := `
name: landscape-raw
description: Base look for raw landscape shots
steps:
  - exposure
  - step: white-balance
    basic: disable
  - step: tone-mapper
    basic: enable
    option: 2
`
	p, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Name != "landscape-raw" {
		t.Errorf("expected name=landscape-raw, got %q", p.Name)
	}
	if p.Description != "Base look for raw landscape shots" {
		t.Errorf("unexpected description %q", p.Description)
	}
	if len(p.Entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(p.Entries))
	}

	if p.Entries[0].Step != "exposure" {
		t.Errorf("expected step=exposure, got %q", p.Entries[0].Step)
	}
	if p.Entries[0].Basic != "" {
		t.Errorf("scalar shorthand must leave basic empty, got %q", p.Entries[0].Basic)
	}
	if p.Entries[0].Option.Set() {
		t.Error("scalar shorthand must leave the option unset")
	}

	if p.Entries[1].Basic != step.BasicDisable {
		t.Errorf("expected basic=disable, got %q", p.Entries[1].Basic)
	}

	if !p.Entries[2].Option.Set() {
		t.Fatal("expected option to be set")
	}
	if p.Entries[2].Option.Index != 2 {
		t.Errorf("expected option index 2, got %d", p.Entries[2].Option.Index)
	}
}

func TestParse_OptionByLabel(t *testing.T) {
	yaml := `
name: test
steps:
  - step: tone-mapper
    option: sigmoid
`
	p, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	opt := p.Entries[0].Option
	if !opt.Set() {
		t.Fatal("expected option to be set")
	}
	if opt.Label != "sigmoid" {
		t.Errorf("expected label=sigmoid, got %q", opt.Label)
	}
}

func TestParse_Rules(t *testing.T) {
	yaml := `
name: test
steps:
  - exposure
rules:
  - when: image.iso >= 1600
    steps:
      - step: denoise
        basic: enable
`
	p, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(p.Rules) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(p.Rules))
	}
	rule := p.Rules[0]
	if rule.When != "image.iso >= 1600" {
		t.Errorf("unexpected condition %q", rule.When)
	}
	if len(rule.Entries) != 1 {
		t.Fatalf("expected 1 rule entry, got %d", len(rule.Entries))
	}
	if rule.Entries[0].Step != "denoise" {
		t.Errorf("expected step=denoise, got %q", rule.Entries[0].Step)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"no name", "steps:\n  - exposure\n", "profile has no name"},
		{"bad basic", "name: x\nsteps:\n  - step: exposure\n    basic: explode\n", "explode"},
		{"negative option", "name: x\nsteps:\n  - step: exposure\n    option: -1\n", "must not be negative"},
		{"option wrong type", "name: x\nsteps:\n  - step: exposure\n    option: [1, 2]\n", "index or a label"},
		{"entry without step", "name: x\nsteps:\n  - basic: enable\n", "missing the step name"},
		{"entry wrong kind", "name: x\nsteps:\n  - [exposure]\n", "step name or a mapping"},
		{"rule without when", "name: x\nrules:\n  - steps:\n      - exposure\n", "missing its when"},
		{"rule without steps", "name: x\nrules:\n  - when: image.isRaw\n", "rule has no steps"},
		{"not yaml", "name: [\n", "invalid profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "test.yaml")
			if err == nil {
				t.Fatal("expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err.Error(), tt.want)
			}
		})
	}
}

func TestParseError_Format(t *testing.T) {
	withLine := &ParseError{Path: "p.yaml", Line: 7, Message: "boom"}
	if withLine.Error() != "p.yaml:7: boom" {
		t.Errorf("unexpected format %q", withLine.Error())
	}

	noLine := &ParseError{Path: "p.yaml", Message: "boom"}
	if noLine.Error() != "p.yaml: boom" {
		t.Errorf("unexpected format %q", noLine.Error())
	}
}

func TestEntryResolve(t *testing.T) {
	steps := step.Catalog()
	toneMapper, _ := step.Lookup(steps, step.StepToneMapper)

	byIndex := Entry{Step: step.StepToneMapper, Basic: step.BasicEnable, Option: OptionRef{Index: 2, set: true}}
	sel, err := byIndex.Resolve(toneMapper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Option != 2 || sel.Basic != step.BasicEnable {
		t.Errorf("unexpected selection %+v", sel)
	}

	byLabel := Entry{Step: step.StepToneMapper, Option: OptionRef{Label: "sigmoid", byLabel: true, set: true}}
	sel, err = byLabel.Resolve(toneMapper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Option != 2 {
		t.Errorf("expected sigmoid to resolve to option 2, got %d", sel.Option)
	}

	none := Entry{Step: step.StepToneMapper}
	sel, err = none.Resolve(toneMapper)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel != toneMapper.DefaultSelection() {
		t.Errorf("entry without overrides must resolve to the default, got %+v", sel)
	}

	badLabel := Entry{Step: step.StepToneMapper, Option: OptionRef{Label: "nope", byLabel: true, set: true}}
	if _, err = badLabel.Resolve(toneMapper); err == nil {
		t.Error("expected error for unknown option label")
	}

	badIndex := Entry{Step: step.StepToneMapper, Option: OptionRef{Index: 99, set: true}}
	if _, err = badIndex.Resolve(toneMapper); err == nil {
		t.Error("expected error for out-of-range option index")
	}
}

func TestProfileSelections(t *testing.T) {
	yaml := `
name: test
steps:
  - step: exposure
    basic: enable
    option: 2
  - step: white-balance
    basic: disable
`
	p, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sels, err := p.Selections(step.Catalog())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sels) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(sels))
	}
	if sels[step.StepExposure].Option != 2 {
		t.Errorf("expected exposure option 2, got %d", sels[step.StepExposure].Option)
	}
	if sels[step.StepWhiteBalance].Basic != step.BasicDisable {
		t.Errorf("expected white balance disabled, got %q", sels[step.StepWhiteBalance].Basic)
	}
}

func TestValidator(t *testing.T) {
	steps := step.Catalog()

	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			"unknown step",
			"name: x\nsteps:\n  - step: sharpen\n",
			`unknown step "sharpen"`,
		},
		{
			"duplicate step",
			"name: x\nsteps:\n  - exposure\n  - exposure\n",
			"already configured",
		},
		{
			"option out of range",
			"name: x\nsteps:\n  - step: exposure\n    option: 42\n",
			"has no option 42",
		},
		{
			"basic on config-only step",
			"name: x\nsteps:\n  - step: timeout\n    basic: enable\n",
			"does not take a basic mode",
		},
		{
			"basic outside the step's machine",
			"name: x\nsteps:\n  - step: chromatic-aberration\n    basic: disable\n",
			`does not offer basic mode "disable"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Parse([]byte(tt.yaml), "test.yaml")
			if err != nil {
				t.Fatalf("unexpected parse error: %v", err)
			}
			result := NewValidator(steps, nil).Validate(p)
			if result.IsValid() {
				t.Fatal("expected validation errors, got none")
			}
			found := false
			for _, e := range result.Errors {
				if strings.Contains(e.Error(), tt.want) {
					found = true
				}
			}
			if !found {
				t.Errorf("no error mentions %q in %v", tt.want, result.Errors)
			}
		})
	}
}

func TestValidator_ValidProfile(t *testing.T) {
	yaml := `
name: high-iso
steps:
  - step: exposure
    basic: enable
    option: 1
  - step: tone-mapper
    option: sigmoid
rules:
  - when: image.iso >= 1600
    steps:
      - step: denoise
        basic: enable
`
	p, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result := NewValidator(step.Catalog(), nil).Validate(p)
	if !result.IsValid() {
		t.Errorf("expected valid profile, got %v", result.Errors)
	}
}

func TestValidator_RuleExpressionCheck(t *testing.T) {
	yaml := `
name: x
rules:
  - when: "image.iso >="
    steps:
      - exposure
`
	p, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := 0
	check := func(expr string) error {
		calls++
		if strings.HasSuffix(expr, ">=") {
			return &ValidationError{File: "x", Message: "dangling operator"}
		}
		return nil
	}

	result := NewValidator(step.Catalog(), check).Validate(p)
	if calls != 1 {
		t.Errorf("expected 1 expression check, got %d", calls)
	}
	if result.IsValid() {
		t.Error("expected the bad expression to fail validation")
	}
}

func TestExportRoundTrip(t *testing.T) {
	steps := step.Catalog()
	sels := map[string]step.Selection{
		step.StepExposure:     {Basic: step.BasicEnable, Option: 2},
		step.StepWhiteBalance: {Basic: step.BasicDisable, Option: 0},
	}

	var buf bytes.Buffer
	if err := Export(&buf, "exported", steps, sels); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p, err := Parse(buf.Bytes(), "exported.yaml")
	if err != nil {
		t.Fatalf("exported profile does not parse back: %v", err)
	}
	if p.Name != "exported" {
		t.Errorf("expected name=exported, got %q", p.Name)
	}

	loaded, err := p.Selections(steps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if loaded[step.StepExposure] != sels[step.StepExposure] {
		t.Errorf("exposure selection changed in round trip: %+v", loaded[step.StepExposure])
	}
	if loaded[step.StepWhiteBalance] != sels[step.StepWhiteBalance] {
		t.Errorf("white balance selection changed in round trip: %+v", loaded[step.StepWhiteBalance])
	}
}
