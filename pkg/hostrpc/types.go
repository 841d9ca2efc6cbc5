package hostrpc

import (
	"math"

	"github.com/phototools-dev/workflow-runner/pkg/host"
)

// Wire types for the gateway's JSON API. Values travel as pointers so
// the read sentinel (NaN on the Go side) becomes null on the wire.

type callRequest struct {
	Path     string   `json:"path"`
	Instance int      `json:"instance,omitempty"`
	Element  string   `json:"element,omitempty"`
	Effect   string   `json:"effect"`
	Value    *float64 `json:"value"`
}

type valueResponse struct {
	Value *float64 `json:"value"`
}

type versionResponse struct {
	Version      string   `json:"version"`
	Host         string   `json:"host,omitempty"`
	Capabilities []string `json:"capabilities"`
}

type statusResponse struct {
	Ready bool `json:"ready"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type prefReadRequest struct {
	Key string `json:"key"`
}

type prefWriteRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type prefResponse struct {
	Value string `json:"value"`
}

type printRequest struct {
	Message string `json:"message"`
}

type jobRequest struct {
	Label      string `json:"label"`
	Cancelable bool   `json:"cancelable"`
}

type jobResponse struct {
	ID string `json:"id"`
}

type jobStateResponse struct {
	Valid bool `json:"valid"`
}

type jobLabelRequest struct {
	Text string `json:"text"`
}

type jobFractionRequest struct {
	Fraction float64 `json:"fraction"`
}

type viewResponse struct {
	View string `json:"view"`
}

type viewRequest struct {
	View string `json:"view"`
}

type selectionResponse struct {
	Images []host.ImageRef `json:"images"`
}

type selectionRequest struct {
	Images []host.ImageRef `json:"images"`
}

type eventPollRequest struct {
	Cursor int64 `json:"cursor"`
	WaitMs int64 `json:"waitMs"`
}

type wireEvent struct {
	Kind  string        `json:"kind"`
	Image host.ImageRef `json:"image,omitempty"`
	Clean bool          `json:"clean,omitempty"`
	View  string        `json:"view,omitempty"`
}

type eventPollResponse struct {
	Events []wireEvent `json:"events"`
	Cursor int64       `json:"cursor"`
}

// eventHostClosing is a gateway-private event kind announcing shutdown.
// It never reaches subscribers; the client folds it into Closing().
const eventHostClosing = "host-closing"

func wireValue(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

func hostValue(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func (ev wireEvent) hostEvent() host.Event {
	return host.Event{
		Kind:  host.EventKind(ev.Kind),
		Image: ev.Image,
		Clean: ev.Clean,
		View:  ev.View,
	}
}
