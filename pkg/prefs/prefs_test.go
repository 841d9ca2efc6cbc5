package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phototools-dev/workflow-runner/pkg/host/fake"
	"github.com/phototools-dev/workflow-runner/pkg/i18n"
	"github.com/phototools-dev/workflow-runner/pkg/step"
)

func comboStep(label string, options []string) *step.ComboStep {
	return &step.ComboStep{
		BaseStep: step.BaseStep{
			StepName:     "test-step",
			DisplayLabel: label,
			Path:         "iop/testmod",
			Machine:      step.BasicsFull,
			DefaultMode:  step.BasicIgnore,
			Choices:      options,
		},
		Element: "preset",
	}
}

func TestKeyShape(t *testing.T) {
	c := New(fake.New(fake.Config{}), i18n.Default())
	s := comboStep("tone mapper", []string{"unchanged"})

	assert.Equal(t, "initial-workflow/basic/tone-mapper", c.BasicKey(s))
	assert.Equal(t, "initial-workflow/config/tone-mapper", c.ConfigKey(s))
}

func TestSaveLoad(t *testing.T) {
	store := fake.New(fake.Config{})
	c := New(store, i18n.Default())
	s := comboStep("tone mapper", []string{"unchanged", "filmic", "sigmoid"})

	saved := step.Selection{Basic: step.BasicEnable, Option: 2}
	require.NoError(t, c.Save(s, saved))

	assert.Equal(t, saved, c.Load(s))
}

func TestLoadDefaultsWhenStoreIsEmpty(t *testing.T) {
	c := New(fake.New(fake.Config{}), i18n.Default())
	s := comboStep("tone mapper", []string{"unchanged", "filmic"})

	assert.Equal(t, s.DefaultSelection(), c.Load(s))
}

func TestLoadFallsBackOnUnknownOption(t *testing.T) {
	store := fake.New(fake.Config{})
	c := New(store, i18n.Default())
	s := comboStep("tone mapper", []string{"unchanged", "filmic"})

	require.NoError(t, store.WritePref(c.ConfigKey(s), "discontinued preset"))
	require.NoError(t, store.WritePref(c.BasicKey(s), "enable"))

	got := c.Load(s)
	assert.Equal(t, step.BasicEnable, got.Basic, "valid basic mode must survive")
	assert.Equal(t, s.DefaultSelection().Option, got.Option, "unknown option falls back to default")
}

func TestLoadFallsBackOnBadBasicMode(t *testing.T) {
	store := fake.New(fake.Config{})
	c := New(store, i18n.Default())
	s := comboStep("tone mapper", []string{"unchanged", "filmic"})

	require.NoError(t, store.WritePref(c.BasicKey(s), "explode"))
	require.NoError(t, store.WritePref(c.ConfigKey(s), "filmic"))

	got := c.Load(s)
	assert.Equal(t, s.DefaultSelection().Basic, got.Basic)
	assert.Equal(t, 1, got.Option, "valid option must survive a bad basic mode")
}

func TestRoundTripAcrossDisplayLanguages(t *testing.T) {
	store := fake.New(fake.Config{})

	german := i18n.NewCatalog(map[i18n.MsgID]string{
		"color balance": "Farbbalance",
		"unchanged":     "unverändert",
		"basic colors":  "Grundfarben",
	})
	french := i18n.NewCatalog(map[i18n.MsgID]string{
		"color balance": "balance des couleurs",
		"unchanged":     "inchangé",
		"basic colors":  "couleurs de base",
	})

	germanStep := comboStep("Farbbalance", []string{"unverändert", "Grundfarben"})
	frenchStep := comboStep("balance des couleurs", []string{"inchangé", "couleurs de base"})

	saved := step.Selection{Basic: step.BasicEnable, Option: 1}
	require.NoError(t, New(store, german).Save(germanStep, saved))

	loaded := New(store, french).Load(frenchStep)
	assert.Equal(t, saved, loaded, "selection saved under one language must load under another")
}

func TestKeysInvariantAcrossLanguages(t *testing.T) {
	store := fake.New(fake.Config{})

	german := New(store, i18n.NewCatalog(map[i18n.MsgID]string{"color balance": "Farbbalance"}))
	english := New(store, i18n.Default())

	localized := comboStep("Farbbalance", []string{"unverändert"})
	plain := comboStep("color balance", []string{"unchanged"})

	assert.Equal(t, english.ConfigKey(plain), german.ConfigKey(localized))
	assert.Equal(t, english.BasicKey(plain), german.BasicKey(localized))
}

func TestSaveAllLoadAll(t *testing.T) {
	store := fake.New(fake.Config{})
	c := New(store, i18n.Default())
	steps := step.Catalog()

	sels := map[string]step.Selection{
		step.StepExposure:     {Basic: step.BasicEnable, Option: 2},
		step.StepWhiteBalance: {Basic: step.BasicDisable, Option: 0},
	}
	require.NoError(t, c.SaveAll(steps, sels))

	loaded := c.LoadAll(steps)
	require.Len(t, loaded, len(steps))
	assert.Equal(t, sels[step.StepExposure], loaded[step.StepExposure])
	assert.Equal(t, sels[step.StepWhiteBalance], loaded[step.StepWhiteBalance])

	denoise, _ := step.Lookup(steps, step.StepDenoise)
	assert.Equal(t, denoise.DefaultSelection(), loaded[step.StepDenoise], "untouched steps load their defaults")
}
