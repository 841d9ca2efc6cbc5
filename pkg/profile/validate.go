package profile

import (
	"fmt"

	"github.com/phototools-dev/workflow-runner/pkg/step"
)

// ValidationError represents a validation error with file context.
type ValidationError struct {
	File    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validator checks parsed profiles against the step catalog. The
// expression checker is injected so this package stays independent of
// the rule engine.
type Validator struct {
	steps     []step.Step
	checkExpr func(string) error
}

// NewValidator creates a Validator. checkExpr may be nil, in which case
// rule conditions are only checked for presence, not syntax.
func NewValidator(steps []step.Step, checkExpr func(string) error) *Validator {
	return &Validator{
		steps:     steps,
		checkExpr: checkExpr,
	}
}

// ValidateFile parses and validates a single profile file.
func (v *Validator) ValidateFile(path string) *Result {
	p, err := ParseFile(path)
	if err != nil {
		return &Result{Errors: []error{&ValidationError{
			File:    path,
			Message: fmt.Sprintf("parse error: %v", err),
		}}}
	}
	return v.Validate(p)
}

// Validate checks every entry and rule of an already parsed profile.
func (v *Validator) Validate(p *Profile) *Result {
	result := &Result{}

	seen := make(map[string]int)
	for _, e := range p.Entries {
		if prev, dup := seen[e.Step]; dup {
			v.fail(p, result, e.Line, "step %q already configured on line %d", e.Step, prev)
			continue
		}
		seen[e.Step] = e.Line
		v.validateEntry(p, e, result)
	}

	for _, rule := range p.Rules {
		if v.checkExpr != nil {
			if err := v.checkExpr(rule.When); err != nil {
				v.fail(p, result, rule.Line, "%v", err)
			}
		}
		for _, e := range rule.Entries {
			v.validateEntry(p, e, result)
		}
	}

	return result
}

func (v *Validator) validateEntry(p *Profile, e Entry, result *Result) {
	s, ok := step.Lookup(v.steps, e.Step)
	if !ok {
		v.fail(p, result, e.Line, "unknown step %q", e.Step)
		return
	}

	if e.Basic != "" && e.Basic != step.BasicDefault {
		if s.Basics() == step.BasicsNone {
			v.fail(p, result, e.Line, "step %q does not take a basic mode", e.Step)
		} else if !s.Basics().Contains(e.Basic) {
			v.fail(p, result, e.Line, "step %q does not offer basic mode %q", e.Step, e.Basic)
		}
	}

	if _, err := e.Resolve(s); err != nil {
		v.fail(p, result, e.Line, "%v", err)
	}
}

func (v *Validator) fail(p *Profile, result *Result, line int, format string, args ...interface{}) {
	result.Errors = append(result.Errors, &ValidationError{
		File:    p.SourcePath,
		Message: fmt.Sprintf("line %d: %s", line, fmt.Sprintf(format, args...)),
	})
}
