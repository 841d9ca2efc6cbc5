package step

import (
	"fmt"
)

// BasicMode is the per-step primary action choice.
type BasicMode string

// Basic mode constants.
const (
	BasicIgnore  BasicMode = "ignore"  // Leave the module alone entirely
	BasicEnable  BasicMode = "enable"  // Switch the module on, keep its parameters
	BasicReset   BasicMode = "reset"   // Switch on and restore default parameters
	BasicDisable BasicMode = "disable" // Switch the module off, nothing else
	BasicDefault BasicMode = "default" // Resolve to the step's declared default
)

// ParseBasicMode validates a stored or parsed basic mode string. The
// empty string resolves to default.
func ParseBasicMode(s string) (BasicMode, error) {
	switch BasicMode(s) {
	case BasicIgnore, BasicEnable, BasicReset, BasicDisable, BasicDefault:
		return BasicMode(s), nil
	case "":
		return BasicDefault, nil
	}
	return "", fmt.Errorf("unknown basic mode %q", s)
}

// BasicSet identifies which basic machine a step carries.
type BasicSet int

const (
	// BasicsNone marks steps with no basic column at all, like the
	// history compression step and the settings carriers.
	BasicsNone BasicSet = iota

	// BasicsReduced offers only ignore and enable.
	BasicsReduced

	// BasicsFull offers all five choices.
	BasicsFull
)

// Modes returns the selectable modes for this machine. BasicDefault is
// selectable everywhere a machine exists.
func (bs BasicSet) Modes() []BasicMode {
	switch bs {
	case BasicsReduced:
		return []BasicMode{BasicDefault, BasicIgnore, BasicEnable}
	case BasicsFull:
		return []BasicMode{BasicDefault, BasicIgnore, BasicEnable, BasicReset, BasicDisable}
	default:
		return nil
	}
}

// Contains reports whether mode is selectable in this machine
func (bs BasicSet) Contains(mode BasicMode) bool {
	for _, m := range bs.Modes() {
		if m == mode {
			return true
		}
	}
	return false
}

// String returns the string representation of BasicSet
func (bs BasicSet) String() string {
	switch bs {
	case BasicsNone:
		return "none"
	case BasicsReduced:
		return "reduced"
	case BasicsFull:
		return "full"
	default:
		return "unknown"
	}
}

// Selection is a user's stored choice for one step: which basic mode to
// run and which configuration option to apply. Option indexes into the
// step's option list; 0 is always the "leave unchanged" no-op entry.
type Selection struct {
	Basic  BasicMode `yaml:"basic" json:"basic"`
	Option int       `yaml:"option" json:"option"`
}
