// Package rules evaluates per-image profile conditions.
//
// A condition is a JavaScript expression over the global `image` object,
// for example `image.iso >= 1600 && image.isRaw`. Nothing from the host
// is reachable inside the runtime besides the bound metadata.
package rules

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/phototools-dev/workflow-runner/pkg/host"
)

// Engine evaluates rule conditions against image metadata.
type Engine struct {
	runtime *goja.Runtime
	mu      sync.Mutex
}

// New creates an engine with an empty image binding.
func New() *Engine {
	return &Engine{runtime: goja.New()}
}

// Matches evaluates expr with info bound as `image` and reports whether
// the result is truthy.
func (e *Engine) Matches(expr string, info host.ImageInfo) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.runtime.Set("image", imageObject(info))

	v, err := e.runtime.RunString(expr)
	if err != nil {
		return false, fmt.Errorf("rule eval error: %w", err)
	}
	return v.ToBoolean(), nil
}

// Check verifies expression syntax without evaluating it. The profile
// validator runs it so a bad rule fails at load time, not mid-batch.
func Check(expr string) error {
	if _, err := goja.Compile("rule", expr, false); err != nil {
		return fmt.Errorf("invalid rule expression: %w", err)
	}
	return nil
}

// imageObject flattens metadata into the property names expressions use.
func imageObject(info host.ImageInfo) map[string]interface{} {
	return map[string]interface{}{
		"id":           info.ID,
		"name":         info.Name,
		"camera":       info.Camera,
		"lens":         info.Lens,
		"iso":          info.ISO,
		"aperture":     info.Aperture,
		"exposureTime": info.ExposureTime,
		"exposureBias": info.ExposureBias,
		"focalLength":  info.FocalLength,
		"isRaw":        info.IsRaw,
		"rating":       info.Rating,
	}
}
