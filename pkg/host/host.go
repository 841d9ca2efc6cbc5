// Package host defines the surface through which the workflow runner
// drives a photo-editing application: UI actions, events, preferences,
// progress jobs and view management. The gateway client implements these
// interfaces against a live host; the fake package implements them
// in memory for tests and dry runs.
package host

// Common view names
const (
	ViewDarkroom   = "darkroom"
	ViewLighttable = "lighttable"
)

// Call identifies one UI action on a processing module widget. It mirrors
// the host's scripting action tuple.
type Call struct {
	Path     string  `json:"path"`              // Module path, e.g. "iop/exposure"
	Instance int     `json:"instance"`          // Module instance, 0 = first
	Element  string  `json:"element,omitempty"` // Widget within the module
	Effect   string  `json:"effect"`            // Interaction: set, on, off, activate, ...
	Value    float64 `json:"value,omitempty"`   // Payload; NaN requests a read
}

// Common effects
const (
	EffectSet      = "set"
	EffectOn       = "on"
	EffectOff      = "off"
	EffectActivate = "activate"
	EffectToggle   = "toggle"
)

// Key returns a stable identifier for the widget the call targets
func (c Call) Key() string {
	if c.Element == "" {
		return c.Path
	}
	return c.Path + "/" + c.Element
}

// EventKind names a host event stream
type EventKind string

const (
	// EventPipelineFinished fires when the processing pipeline has
	// finished recomputing after a change.
	EventPipelineFinished EventKind = "pipeline-finished"

	// EventImageLoaded fires when an image finished loading into the
	// darkroom. Clean reports whether the load completed without a
	// fallback to a stale buffer.
	EventImageLoaded EventKind = "image-loaded"

	// EventViewChanged fires after the host switched views.
	EventViewChanged EventKind = "view-changed"
)

// Event is the payload delivered to subscribed handlers
type Event struct {
	Kind  EventKind `json:"kind"`
	Image ImageRef  `json:"image,omitempty"`
	Clean bool      `json:"clean,omitempty"`
	View  string    `json:"view,omitempty"`
}

// Handler receives host events. Handlers run on the event pump goroutine
// and must not block; the runner's handlers only set flags.
type Handler func(Event)

// ImageRef identifies an image in the host's library
type ImageRef struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// ImageInfo carries the metadata rules can match against
type ImageInfo struct {
	ID           int     `json:"id"`
	Name         string  `json:"name,omitempty"`
	Camera       string  `json:"camera,omitempty"`
	Lens         string  `json:"lens,omitempty"`
	ISO          float64 `json:"iso,omitempty"`
	Aperture     float64 `json:"aperture,omitempty"`
	ExposureTime float64 `json:"exposureTime,omitempty"`
	ExposureBias float64 `json:"exposureBias,omitempty"`
	FocalLength  float64 `json:"focalLength,omitempty"`
	IsRaw        bool    `json:"isRaw,omitempty"`
	Rating       int     `json:"rating,omitempty"`
}

// Automator executes UI actions against processing module widgets
type Automator interface {
	// Invoke performs the call and returns the widget's resulting value.
	// A call with a NaN value reads without writing. A NaN return means
	// the widget has no numeric value (or does not exist).
	Invoke(call Call) (float64, error)
}

// Events manages named event subscriptions. A name can be subscribed to
// a kind at most once; Unsubscribe of an unknown name is an error.
type Events interface {
	Subscribe(kind EventKind, name string, h Handler) error
	Unsubscribe(kind EventKind, name string) error
}

// Prefs reads and writes the host's persistent preference store. Missing
// keys read as the empty string.
type Prefs interface {
	ReadPref(key string) (string, error)
	WritePref(key, value string) error
}

// Job is a cancelable progress indicator shown by the host. The user can
// invalidate it; the runner polls Valid between steps.
type Job interface {
	SetLabel(text string) error
	SetFraction(f float64) error
	Valid() (bool, error)
	Finish() error
}

// Jobs creates progress jobs
type Jobs interface {
	CreateJob(label string, cancelable bool) (Job, error)
}

// Views controls which view and image the host displays
type Views interface {
	CurrentView() (string, error)
	SwitchView(view string) error
	DisplayedImage() (ImageRef, error)
	DisplayImage(img ImageRef) error
	Selection() ([]ImageRef, error)
	SetSelection(imgs []ImageRef) error
	ImageInfo(img ImageRef) (ImageInfo, error)
}

// Client is the full host surface the runner works against
type Client interface {
	Automator
	Events
	Prefs
	Jobs
	Views

	// Print shows a message in the host's user-visible message area
	Print(msg string) error

	// Closing reports whether the host is shutting down. Checked between
	// steps; a closing host cancels the run.
	Closing() bool
}
