// Package profile handles parsing and representation of workflow
// profile YAML files: named selection sets applied from the command
// line, optionally guarded by per-image rules.
package profile

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/phototools-dev/workflow-runner/pkg/step"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Entry is one step selection inside a profile.
type Entry struct {
	Step   string
	Basic  step.BasicMode
	Option OptionRef
	Line   int
}

// OptionRef points at a step option either by index or by label. Labels
// survive catalog reordering, indexes are for terse profiles.
type OptionRef struct {
	Index   int
	Label   string
	byLabel bool
	set     bool
}

// Set reports whether the profile named an option at all.
func (o OptionRef) Set() bool { return o.set }

// Rule guards a group of entries behind a per-image condition.
type Rule struct {
	When    string
	Entries []Entry
	Line    int
}

// Profile is a parsed workflow profile file.
type Profile struct {
	Name        string
	Description string
	SourcePath  string
	Entries     []Entry
	Rules       []Rule
}

// ParseFile parses a single profile YAML file.
func ParseFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is a user-provided profile file
	if err != nil {
		return nil, errors.Wrap(err, "reading profile")
	}
	return Parse(data, path)
}

// Parse parses profile YAML content.
func Parse(data []byte, sourcePath string) (*Profile, error) {
	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Steps       []yaml.Node `yaml:"steps"`
		Rules       []yaml.Node `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{
			Path:    sourcePath,
			Message: fmt.Sprintf("invalid profile: %v", err),
		}
	}

	p := &Profile{
		Name:        raw.Name,
		Description: raw.Description,
		SourcePath:  sourcePath,
	}
	if p.Name == "" {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    1,
			Message: "profile has no name",
		}
	}

	for _, node := range raw.Steps {
		entry, err := parseEntry(&node, sourcePath)
		if err != nil {
			return nil, err
		}
		p.Entries = append(p.Entries, entry)
	}

	for _, node := range raw.Rules {
		rule, err := parseRule(&node, sourcePath)
		if err != nil {
			return nil, err
		}
		p.Rules = append(p.Rules, rule)
	}

	return p, nil
}

func parseEntry(node *yaml.Node, sourcePath string) (Entry, error) {
	entry := Entry{Line: node.Line}

	// Scalar shorthand: "- exposure" applies the step's default selection
	if node.Kind == yaml.ScalarNode {
		entry.Step = node.Value
		return entry, nil
	}

	if node.Kind != yaml.MappingNode {
		return Entry{}, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "entry must be a step name or a mapping",
		}
	}

	var raw struct {
		Step   string    `yaml:"step"`
		Basic  string    `yaml:"basic"`
		Option yaml.Node `yaml:"option"`
	}
	if err := node.Decode(&raw); err != nil {
		return Entry{}, wrapParseError(sourcePath, node.Line, err)
	}
	if raw.Step == "" {
		return Entry{}, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "entry is missing the step name",
		}
	}
	entry.Step = raw.Step

	if raw.Basic != "" {
		mode, err := step.ParseBasicMode(raw.Basic)
		if err != nil {
			return Entry{}, &ParseError{
				Path:    sourcePath,
				Line:    node.Line,
				Message: err.Error(),
			}
		}
		entry.Basic = mode
	}

	if !raw.Option.IsZero() {
		ref, err := parseOption(&raw.Option, sourcePath)
		if err != nil {
			return Entry{}, err
		}
		entry.Option = ref
	}

	return entry, nil
}

func parseOption(node *yaml.Node, sourcePath string) (OptionRef, error) {
	ref := OptionRef{set: true}
	switch node.Tag {
	case "!!int":
		if err := node.Decode(&ref.Index); err != nil {
			return OptionRef{}, wrapParseError(sourcePath, node.Line, err)
		}
		if ref.Index < 0 {
			return OptionRef{}, &ParseError{
				Path:    sourcePath,
				Line:    node.Line,
				Message: "option index must not be negative",
			}
		}
	case "!!str":
		ref.Label = node.Value
		ref.byLabel = true
	default:
		return OptionRef{}, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: fmt.Sprintf("option must be an index or a label, got %s", node.Tag),
		}
	}
	return ref, nil
}

func parseRule(node *yaml.Node, sourcePath string) (Rule, error) {
	if node.Kind != yaml.MappingNode {
		return Rule{}, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "rule must be a mapping",
		}
	}

	var raw struct {
		When  string      `yaml:"when"`
		Steps []yaml.Node `yaml:"steps"`
	}
	if err := node.Decode(&raw); err != nil {
		return Rule{}, wrapParseError(sourcePath, node.Line, err)
	}
	if raw.When == "" {
		return Rule{}, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "rule is missing its when condition",
		}
	}
	if len(raw.Steps) == 0 {
		return Rule{}, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "rule has no steps",
		}
	}

	rule := Rule{When: raw.When, Line: node.Line}
	for _, entryNode := range raw.Steps {
		entry, err := parseEntry(&entryNode, sourcePath)
		if err != nil {
			return Rule{}, err
		}
		rule.Entries = append(rule.Entries, entry)
	}

	return rule, nil
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}

// Resolve maps the entry onto a concrete selection for its step.
func (e Entry) Resolve(s step.Step) (step.Selection, error) {
	sel := s.DefaultSelection()
	if e.Basic != "" {
		sel.Basic = e.Basic
	}
	if !e.Option.set {
		return sel, nil
	}

	if e.Option.byLabel {
		idx, ok := optionIndex(s, e.Option.Label)
		if !ok {
			return sel, fmt.Errorf("step %s has no option %q", s.Name(), e.Option.Label)
		}
		sel.Option = idx
		return sel, nil
	}

	if e.Option.Index >= len(s.Options()) {
		return sel, fmt.Errorf("step %s has no option %d", s.Name(), e.Option.Index)
	}
	sel.Option = e.Option.Index
	return sel, nil
}

func optionIndex(s step.Step, label string) (int, bool) {
	for i, opt := range s.Options() {
		if opt == label {
			return i, true
		}
	}
	return 0, false
}

// Selections resolves the unconditional entries against the catalog.
func (p *Profile) Selections(steps []step.Step) (map[string]step.Selection, error) {
	return resolveEntries(p.Entries, steps)
}

// Selections resolves the rule's entries against the catalog.
func (r Rule) Selections(steps []step.Step) (map[string]step.Selection, error) {
	return resolveEntries(r.Entries, steps)
}

func resolveEntries(entries []Entry, steps []step.Step) (map[string]step.Selection, error) {
	sels := make(map[string]step.Selection, len(entries))
	for _, e := range entries {
		s, ok := step.Lookup(steps, e.Step)
		if !ok {
			return nil, fmt.Errorf("unknown step %q", e.Step)
		}
		sel, err := e.Resolve(s)
		if err != nil {
			return nil, err
		}
		sels[s.Name()] = sel
	}
	return sels, nil
}
