package step

import (
	"time"
)

// Catalog returns the full step list in registration order. Execution
// order is the reverse: the sequencer walks the list back to front, so
// the common group, registered first, runs after every module step, and
// highlight reconstruction, registered last, runs first.
func Catalog() []Step {
	return []Step{
		// Common group
		&HistoryCompressStep{BaseStep: BaseStep{
			StepName:     StepHistoryCompression,
			DisplayLabel: "compress history stack",
			Hint:         "discard superseded history entries once all steps have run",
			Path:         "lib/history",
			StepGroup:    GroupCommon,
			Machine:      BasicsNone,
			Choices:      []string{"no compression", "compress history stack"},
		}},
		&TimeoutStep{
			BaseStep: BaseStep{
				StepName:     StepTimeout,
				DisplayLabel: "processing timeout",
				Hint:         "base wait for one pipeline round trip, raise on slow machines",
				StepGroup:    GroupCommon,
				Machine:      BasicsNone,
				Choices:      []string{"unchanged", "500ms", "1s", "2s", "3s", "4s", "5s", "6s"},
			},
			Durations: []time.Duration{
				500 * time.Millisecond,
				1 * time.Second,
				2 * time.Second,
				3 * time.Second,
				4 * time.Second,
				5 * time.Second,
				6 * time.Second,
			},
		},
		&ShowModulesStep{BaseStep: BaseStep{
			StepName:     StepShowModules,
			DisplayLabel: "show modules",
			Hint:         "expand each module in the host UI while it is configured",
			StepGroup:    GroupCommon,
			Machine:      BasicsNone,
			Choices:      []string{"unchanged", "show", "hide"},
		}},
		&RunSingleStepStep{BaseStep: BaseStep{
			StepName:     StepRunSingleStep,
			DisplayLabel: "run single steps",
			Hint:         "apply a step immediately when its selection changes",
			StepGroup:    GroupCommon,
			Machine:      BasicsNone,
			Choices:      []string{"unchanged", "on", "off"},
		}},

		// Module group, top of the displayed list first. The sequencer
		// runs these bottom-up, matching the pixel pipeline.
		&FamilyStep{
			BaseStep: BaseStep{
				StepName:      StepToneMapper,
				DisplayLabel:  "dynamic range mapping",
				Hint:          "choose the scene-to-display tone mapping module",
				StepGroup:     GroupModules,
				Machine:       BasicsFull,
				DefaultMode:   BasicEnable,
				Choices:       []string{"unchanged", "filmic", "sigmoid", "base curve"},
				DefaultChoice: 1,
				OnChange:      true,
			},
			Members: []FamilyMember{
				{Label: "filmic", Path: "iop/filmicrgb"},
				{Label: "sigmoid", Path: "iop/sigmoid"},
				{Label: "base curve", Path: "iop/basecurve"},
			},
		},
		&SliderStep{
			BaseStep: BaseStep{
				StepName:     StepSaturation,
				DisplayLabel: "global saturation",
				Hint:         "add saturation in color balance rgb",
				Path:         "iop/colorbalancergb",
				StepGroup:    GroupModules,
				Machine:      BasicsFull,
				DefaultMode:  BasicIgnore,
				Choices:      []string{"unchanged", "5%", "10%", "15%", "25%"},
				OnChange:     true,
			},
			Element: "global saturation",
			Values:  []float64{0.05, 0.10, 0.15, 0.25},
		},
		&SliderStep{
			BaseStep: BaseStep{
				StepName:     StepChroma,
				DisplayLabel: "global chroma",
				Hint:         "add chroma in color balance rgb",
				Path:         "iop/colorbalancergb",
				StepGroup:    GroupModules,
				Machine:      BasicsFull,
				DefaultMode:  BasicIgnore,
				Choices:      []string{"unchanged", "5%", "10%", "15%", "25%"},
				OnChange:     true,
			},
			Element: "global chroma",
			Values:  []float64{0.05, 0.10, 0.15, 0.25},
		},
		&ComboStep{
			BaseStep: BaseStep{
				StepName:     StepColorBalance,
				DisplayLabel: "color balance",
				Hint:         "apply a color balance rgb look preset",
				Path:         "iop/colorbalancergb",
				StepGroup:    GroupModules,
				Machine:      BasicsFull,
				DefaultMode:  BasicIgnore,
				Choices:      []string{"unchanged", "basic colorfulness", "vibrant colors", "teal & orange"},
				OnChange:     true,
			},
			Element: "preset",
		},
		&ComboStep{
			BaseStep: BaseStep{
				StepName:     StepLocalContrast,
				DisplayLabel: "local contrast",
				Hint:         "boost local contrast with the contrast equalizer",
				Path:         "iop/atrous",
				StepGroup:    GroupModules,
				Machine:      BasicsFull,
				DefaultMode:  BasicIgnore,
				Choices:      []string{"unchanged", "clarity", "deblur: medium blur", "denoise & sharpen"},
				OnChange:     true,
			},
			Element: "preset",
		},
		&ComboStep{
			BaseStep: BaseStep{
				StepName:     StepToneEqualizer,
				DisplayLabel: "tone equalizer",
				Hint:         "compress shadows and highlights",
				Path:         "iop/toneequal",
				StepGroup:    GroupModules,
				Machine:      BasicsFull,
				DefaultMode:  BasicIgnore,
				Choices: []string{
					"unchanged",
					"compress shadows/highlights: soft",
					"compress shadows/highlights: medium",
					"compress shadows/highlights: strong",
				},
				OnChange: true,
			},
			Element: "preset",
		},
		&SliderStep{
			BaseStep: BaseStep{
				StepName:      StepExposure,
				DisplayLabel:  "exposure correction",
				Hint:          "lift exposure by a fixed amount",
				Path:          "iop/exposure",
				StepGroup:     GroupModules,
				Machine:       BasicsFull,
				DefaultMode:   BasicEnable,
				Choices:       []string{"unchanged", "+0.5 EV", "+1.0 EV", "+1.5 EV", "+2.0 EV"},
				DefaultChoice: 0,
				OnChange:      true,
			},
			Element: "exposure",
			Values:  []float64{0.5, 1.0, 1.5, 2.0},
		},
		&ComboStep{
			BaseStep: BaseStep{
				StepName:      StepLensCorrection,
				DisplayLabel:  "lens correction",
				Hint:          "correct lens distortion and vignetting",
				Path:          "iop/lens",
				StepGroup:     GroupModules,
				Machine:       BasicsFull,
				DefaultMode:   BasicEnable,
				Choices:       []string{"unchanged", "embedded metadata", "lensfun database"},
				DefaultChoice: 1,
				OnChange:      true,
			},
			Element: "correction method",
		},
		&ModuleStep{BaseStep: BaseStep{
			StepName:     StepDenoise,
			DisplayLabel: "denoise (profiled)",
			Hint:         "apply the camera noise profile",
			Path:         "iop/denoiseprofile",
			StepGroup:    GroupModules,
			Machine:      BasicsFull,
			DefaultMode:  BasicEnable,
			Choices:      []string{"unchanged"},
			OnChange:     true,
		}},
		&ModuleStep{BaseStep: BaseStep{
			StepName:     StepChromaticAberration,
			DisplayLabel: "chromatic aberrations",
			Hint:         "correct raw chromatic aberrations",
			Path:         "iop/cacorrect",
			StepGroup:    GroupModules,
			Machine:      BasicsReduced,
			DefaultMode:  BasicEnable,
			Choices:      []string{"unchanged"},
			OnChange:     true,
		}},
		&ComboStep{
			BaseStep: BaseStep{
				StepName:      StepColorCalibration,
				DisplayLabel:  "color calibration",
				Hint:          "modern illuminant-based white balance",
				Path:          "iop/channelmixerrgb",
				StepGroup:     GroupModules,
				Machine:       BasicsFull,
				DefaultMode:   BasicEnable,
				Choices:       []string{"unchanged", "same as pipeline (D50)", "A (incandescent)", "D (daylight)", "detect from image"},
				DefaultChoice: 1,
				SiblingPaths:  []string{"iop/temperature"},
				OnChange:      true,
			},
			Element: "illuminant",
		},
		&ComboStep{
			BaseStep: BaseStep{
				StepName:     StepWhiteBalance,
				DisplayLabel: "white balance",
				Hint:         "legacy temperature-based white balance",
				Path:         "iop/temperature",
				StepGroup:    GroupModules,
				Machine:      BasicsFull,
				DefaultMode:  BasicIgnore,
				Choices:      []string{"unchanged", "as shot", "from image area", "user modified", "camera reference"},
				SiblingPaths: []string{"iop/channelmixerrgb"},
				OnChange:     true,
			},
			Element: "settings",
		},
		&ComboStep{
			BaseStep: BaseStep{
				StepName:      StepHighlights,
				DisplayLabel:  "highlight reconstruction",
				Hint:          "recover clipped highlights, runs before everything else",
				Path:          "iop/highlights",
				StepGroup:     GroupModules,
				Machine:       BasicsFull,
				DefaultMode:   BasicEnable,
				Choices:       []string{"unchanged", "inpaint opposed", "reconstruct in LCh", "clip highlights", "segmentation based"},
				DefaultChoice: 1,
				OnChange:      true,
			},
			Element: "method",
		},
	}
}

// Lookup finds a step by name.
func Lookup(steps []Step, name string) (Step, bool) {
	for _, s := range steps {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Names returns the step names in catalog order.
func Names(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name()
	}
	return names
}
