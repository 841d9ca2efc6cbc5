// Package fake provides an in-memory host for testing without a real
// photo editor. It also backs the CLI dry-run mode.
package fake

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/phototools-dev/workflow-runner/pkg/host"
)

// Host is an in-memory implementation of host.Client.
type Host struct {
	// Configuration
	Config Config

	mu          sync.Mutex
	values      map[string]float64
	calls       []host.Call
	listeners   map[host.EventKind]map[string]host.Handler
	unsubCounts map[string]int
	prefs       map[string]string
	jobs        []*Job
	view        string
	displayed   host.ImageRef
	displayLog  []host.ImageRef
	selection   []host.ImageRef
	images      map[int]host.ImageInfo
	printed     []string
	closing     bool
	uncleanLeft int
}

// Config configures fake host behavior.
type Config struct {
	// FailOnCall makes Invoke fail for the given widget key. "" = never fail.
	FailOnCall string
	// CallDelay adds artificial delay per Invoke
	CallDelay time.Duration
	// UncleanLoads makes the first N image loads deliver unclean events
	UncleanLoads int
	// NoPipelineEvent suppresses the automatic pipeline-finished event
	// after a writing Invoke
	NoPipelineEvent bool
	// NoLoadEvent suppresses the automatic image-loaded event after
	// DisplayImage
	NoLoadEvent bool
}

// New creates a new fake host showing the lighttable view.
func New(cfg Config) *Host {
	return &Host{
		Config:      cfg,
		values:      make(map[string]float64),
		listeners:   make(map[host.EventKind]map[string]host.Handler),
		unsubCounts: make(map[string]int),
		prefs:       make(map[string]string),
		images:      make(map[int]host.ImageInfo),
		view:        host.ViewLighttable,
		uncleanLeft: cfg.UncleanLoads,
	}
}

// Invoke simulates a widget action. Writes update the stored value and,
// unless suppressed, fire a pipeline-finished event inline.
func (h *Host) Invoke(call host.Call) (float64, error) {
	if h.Config.CallDelay > 0 {
		time.Sleep(h.Config.CallDelay)
	}

	h.mu.Lock()
	h.calls = append(h.calls, call)
	key := call.Key()

	if h.Config.FailOnCall != "" && key == h.Config.FailOnCall {
		h.mu.Unlock()
		return math.NaN(), fmt.Errorf("fake failure on %s", key)
	}

	// Read: NaN payload returns the current value without side effects
	if math.IsNaN(call.Value) && call.Effect == host.EffectSet {
		v, ok := h.values[key]
		h.mu.Unlock()
		if !ok {
			return math.NaN(), nil
		}
		return v, nil
	}

	switch call.Effect {
	case host.EffectOn:
		h.values[key] = 1
	case host.EffectOff:
		h.values[key] = 0
	case host.EffectToggle:
		if h.values[key] == 0 {
			h.values[key] = 1
		} else {
			h.values[key] = 0
		}
	case host.EffectActivate:
		// Momentary press, no stored state
	default:
		h.values[key] = call.Value
	}
	result := h.values[key]
	h.mu.Unlock()

	if !h.Config.NoPipelineEvent {
		h.Emit(host.EventPipelineFinished, host.Event{Kind: host.EventPipelineFinished})
	}
	return result, nil
}

// Subscribe registers a named handler. Duplicate names error.
func (h *Host) Subscribe(kind host.EventKind, name string, fn host.Handler) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.listeners[kind]
	if !ok {
		m = make(map[string]host.Handler)
		h.listeners[kind] = m
	}
	if _, exists := m[name]; exists {
		return fmt.Errorf("listener %q already subscribed to %s", name, kind)
	}
	m[name] = fn
	return nil
}

// Unsubscribe removes a named handler. Unknown names error, which makes
// double-unsubscribes visible in tests.
func (h *Host) Unsubscribe(kind host.EventKind, name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	m := h.listeners[kind]
	if _, exists := m[name]; !exists {
		return fmt.Errorf("listener %q not subscribed to %s", name, kind)
	}
	delete(m, name)
	h.unsubCounts[string(kind)+"/"+name]++
	return nil
}

// Emit delivers an event to all handlers subscribed to kind, inline on
// the calling goroutine.
func (h *Host) Emit(kind host.EventKind, ev host.Event) {
	h.mu.Lock()
	handlers := make([]host.Handler, 0, len(h.listeners[kind]))
	for _, fn := range h.listeners[kind] {
		handlers = append(handlers, fn)
	}
	h.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

// ListenerCount returns how many handlers are subscribed to kind
func (h *Host) ListenerCount(kind host.EventKind) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.listeners[kind])
}

// UnsubscribeCount returns how many times the named listener was removed
func (h *Host) UnsubscribeCount(kind host.EventKind, name string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.unsubCounts[string(kind)+"/"+name]
}

// ReadPref returns the stored preference, or "" when missing
func (h *Host) ReadPref(key string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.prefs[key], nil
}

// WritePref stores a preference value
func (h *Host) WritePref(key, value string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.prefs[key] = value
	return nil
}

// CreateJob creates a fake progress job
func (h *Host) CreateJob(label string, cancelable bool) (host.Job, error) {
	job := &Job{label: label, cancelable: cancelable, valid: true}
	h.mu.Lock()
	h.jobs = append(h.jobs, job)
	h.mu.Unlock()
	return job, nil
}

// Jobs returns all jobs created so far
func (h *Host) Jobs() []*Job {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Job, len(h.jobs))
	copy(out, h.jobs)
	return out
}

// CurrentView returns the visible view name
func (h *Host) CurrentView() (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view, nil
}

// SwitchView changes the visible view and fires a view-changed event
func (h *Host) SwitchView(view string) error {
	h.mu.Lock()
	h.view = view
	h.mu.Unlock()
	h.Emit(host.EventViewChanged, host.Event{Kind: host.EventViewChanged, View: view})
	return nil
}

// DisplayedImage returns the image shown in the darkroom
func (h *Host) DisplayedImage() (host.ImageRef, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.displayed, nil
}

// DisplayImage loads an image into the darkroom. The first
// Config.UncleanLoads loads deliver unclean events; later loads are clean.
func (h *Host) DisplayImage(img host.ImageRef) error {
	h.mu.Lock()
	h.displayed = img
	h.displayLog = append(h.displayLog, img)
	clean := true
	if h.uncleanLeft > 0 {
		h.uncleanLeft--
		clean = false
	}
	h.mu.Unlock()

	if !h.Config.NoLoadEvent {
		h.Emit(host.EventImageLoaded, host.Event{Kind: host.EventImageLoaded, Image: img, Clean: clean})
	}
	return nil
}

// DisplayLog returns every image passed to DisplayImage, in order
func (h *Host) DisplayLog() []host.ImageRef {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.ImageRef, len(h.displayLog))
	copy(out, h.displayLog)
	return out
}

// Selection returns the selected images
func (h *Host) Selection() ([]host.ImageRef, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.ImageRef, len(h.selection))
	copy(out, h.selection)
	return out, nil
}

// SetSelection replaces the selected images
func (h *Host) SetSelection(imgs []host.ImageRef) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.selection = make([]host.ImageRef, len(imgs))
	copy(h.selection, imgs)
	return nil
}

// ImageInfo returns metadata for a known image
func (h *Host) ImageInfo(img host.ImageRef) (host.ImageInfo, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	info, ok := h.images[img.ID]
	if !ok {
		return host.ImageInfo{}, fmt.Errorf("no such image %d", img.ID)
	}
	return info, nil
}

// AddImage registers image metadata for ImageInfo lookups
func (h *Host) AddImage(info host.ImageInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.images[info.ID] = info
}

// Print records a user-visible message
func (h *Host) Print(msg string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.printed = append(h.printed, msg)
	return nil
}

// Printed returns all messages shown to the user
func (h *Host) Printed() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.printed))
	copy(out, h.printed)
	return out
}

// Closing reports the shutdown flag
func (h *Host) Closing() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closing
}

// SetClosing flips the shutdown flag
func (h *Host) SetClosing(closing bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closing = closing
}

// Snapshot returns a minimal valid PNG (1x1 transparent pixel)
func (h *Host) Snapshot() ([]byte, error) {
	return []byte{
		0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, // PNG signature
		0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52, // IHDR chunk
		0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
		0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
		0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
		0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
		0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
		0x42, 0x60, 0x82,
	}, nil
}

// SetValue seeds a widget value directly, bypassing Invoke
func (h *Host) SetValue(key string, v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values[key] = v
}

// Value returns a widget's stored value and whether it exists
func (h *Host) Value(key string) (float64, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.values[key]
	return v, ok
}

// Calls returns every Invoke made so far, in order
func (h *Host) Calls() []host.Call {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]host.Call, len(h.calls))
	copy(out, h.calls)
	return out
}

// CallCount returns how many Invokes targeted the given widget key
func (h *Host) CallCount(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.calls {
		if c.Key() == key {
			n++
		}
	}
	return n
}

// WriteCount returns how many writing Invokes (non-NaN set, or on/off
// effects) targeted the given widget key
func (h *Host) WriteCount(key string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, c := range h.calls {
		if c.Key() != key {
			continue
		}
		if c.Effect == host.EffectSet && math.IsNaN(c.Value) {
			continue
		}
		n++
	}
	return n
}

// Job is a fake progress job.
type Job struct {
	mu         sync.Mutex
	label      string
	cancelable bool
	fraction   float64
	valid      bool
	finished   bool
}

// SetLabel updates the job text
func (j *Job) SetLabel(text string) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.label = text
	return nil
}

// Label returns the current job text
func (j *Job) Label() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.label
}

// SetFraction updates the progress fraction
func (j *Job) SetFraction(f float64) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fraction = f
	return nil
}

// Fraction returns the last progress fraction
func (j *Job) Fraction() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fraction
}

// Valid reports whether the job is still active
func (j *Job) Valid() (bool, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.valid, nil
}

// Finish completes the job
func (j *Job) Finish() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.valid = false
	j.finished = true
	return nil
}

// Finished reports whether Finish was called
func (j *Job) Finished() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.finished
}

// Invalidate simulates the user canceling the job from the host UI
func (j *Job) Invalidate() {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.valid = false
}
