// Package prefs persists step selections in the host preference store.
//
// Keys are language-invariant: display labels pass through the catalog's
// reverse map before becoming part of a key, so a workflow saved under
// one display language loads unchanged under another.
package prefs

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/phototools-dev/workflow-runner/pkg/host"
	"github.com/phototools-dev/workflow-runner/pkg/i18n"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
	"github.com/phototools-dev/workflow-runner/pkg/step"
)

// Namespace is the preset name all keys live under.
const Namespace = "initial-workflow"

// Each step stores two facets under separate key prefixes.
const (
	prefixBasic  = "basic"
	prefixConfig = "config"
)

// Codec reads and writes step selections through the host preference
// store.
type Codec struct {
	store   host.Prefs
	catalog *i18n.Catalog
}

func New(store host.Prefs, catalog *i18n.Catalog) *Codec {
	return &Codec{store: store, catalog: catalog}
}

// BasicKey returns the storage key for a step's basic mode.
func (c *Codec) BasicKey(s step.Step) string {
	return c.key(prefixBasic, s.Label())
}

// ConfigKey returns the storage key for a step's option selection.
func (c *Codec) ConfigKey(s step.Step) string {
	return c.key(prefixConfig, s.Label())
}

func (c *Codec) key(prefix, label string) string {
	invariant := c.catalog.Untranslate(label)
	return Namespace + "/" + prefix + "/" + slug(invariant)
}

func slug(label string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(label)), " ", "-")
}

// Save writes one step's selection. The option is stored as its
// untranslated label text, not its index, so a catalog can reorder its
// choices without corrupting saved state.
func (c *Codec) Save(s step.Step, sel step.Selection) error {
	basic := sel.Basic
	if basic == "" {
		basic = step.BasicDefault
	}
	if err := c.store.WritePref(c.BasicKey(s), string(basic)); err != nil {
		return errors.Wrapf(err, "saving basic mode for %s", s.Name())
	}
	option := c.catalog.Untranslate(step.OptionLabel(s, sel.Option))
	if err := c.store.WritePref(c.ConfigKey(s), option); err != nil {
		return errors.Wrapf(err, "saving option for %s", s.Name())
	}
	return nil
}

// Load reads one step's selection. Missing or unrecognized stored
// values fall back to the step's default selection.
func (c *Codec) Load(s step.Step) step.Selection {
	sel := s.DefaultSelection()

	if raw, err := c.store.ReadPref(c.BasicKey(s)); err != nil {
		logger.Warn("Reading basic mode for %s: %v", s.Name(), err)
	} else if raw != "" {
		if mode, perr := step.ParseBasicMode(raw); perr != nil {
			logger.Warn("Stored basic mode for %s: %v", s.Name(), perr)
		} else {
			sel.Basic = mode
		}
	}

	if raw, err := c.store.ReadPref(c.ConfigKey(s)); err != nil {
		logger.Warn("Reading option for %s: %v", s.Name(), err)
	} else if raw != "" {
		if idx, ok := c.optionIndex(s, raw); ok {
			sel.Option = idx
		} else {
			logger.Warn("Stored option %q for %s is not offered anymore, using default", raw, s.Name())
		}
	}
	return sel
}

// optionIndex matches stored option text against the step's options,
// comparing both sides in invariant form.
func (c *Codec) optionIndex(s step.Step, stored string) (int, bool) {
	want := c.catalog.Untranslate(stored)
	for i, opt := range s.Options() {
		if c.catalog.Untranslate(opt) == want {
			return i, true
		}
	}
	return 0, false
}

// SaveAll persists the given selections for every step that has one.
func (c *Codec) SaveAll(steps []step.Step, sels map[string]step.Selection) error {
	for _, s := range steps {
		sel, ok := sels[s.Name()]
		if !ok {
			continue
		}
		if err := c.Save(s, sel); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll reads a selection for every step, falling back to defaults
// where nothing usable is stored.
func (c *Codec) LoadAll(steps []step.Step) map[string]step.Selection {
	sels := make(map[string]step.Selection, len(steps))
	for _, s := range steps {
		sels[s.Name()] = c.Load(s)
	}
	return sels
}
