package profile

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/phototools-dev/workflow-runner/pkg/step"
)

type exportEntry struct {
	Step   string `yaml:"step"`
	Basic  string `yaml:"basic"`
	Option string `yaml:"option"`
}

type exportDoc struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Steps       []exportEntry `yaml:"steps"`
}

// Export renders selections as profile YAML, options by label so the
// output stays readable and survives catalog reordering. Steps without
// a selection are left out.
func Export(w io.Writer, name string, steps []step.Step, sels map[string]step.Selection) error {
	doc := exportDoc{Name: name}

	for _, s := range steps {
		sel, ok := sels[s.Name()]
		if !ok {
			continue
		}
		basic := sel.Basic
		if basic == "" {
			basic = step.BasicDefault
		}
		doc.Steps = append(doc.Steps, exportEntry{
			Step:   s.Name(),
			Basic:  string(basic),
			Option: step.OptionLabel(s, sel.Option),
		})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return errors.Wrap(err, "encoding profile")
	}
	return enc.Close()
}
