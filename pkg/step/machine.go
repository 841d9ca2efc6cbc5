package step

import (
	"context"

	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
)

// Run executes one step under the shared basic-mode machine:
//
//	ignore            -> nothing
//	disable           -> switch the target module off, terminal
//	enable            -> siblings off, module on, then configuration
//	reset             -> siblings off, module on, defaults restored,
//	                     then configuration
//
// Sibling modules are disabled before the target is enabled, never
// after, so the host never sees two members of an exclusion family
// active at once. Option 0 leaves the configuration untouched.
func Run(ctx context.Context, rt *Runtime, s Step, sel Selection) (core.StepStatus, error) {
	// Out-of-range options behave like "unchanged" rather than failing
	// the whole run; stale preference values end up here.
	if sel.Option < 0 || sel.Option >= len(s.Options()) {
		logger.Warn("step %s: option %d out of range, treating as unchanged", s.Name(), sel.Option)
		sel.Option = 0
	}

	if s.Basics() == BasicsNone {
		return runConfigOnly(ctx, rt, s, sel)
	}

	mode := ResolveBasic(s, sel)
	logger.Debug("step %s: basic=%s option=%d", s.Name(), mode, sel.Option)

	if mode == BasicIgnore {
		return core.StatusSkipped, nil
	}

	target, siblings := s.ModuleFor(sel)

	if rt.Settings.ShowModules && target != "" {
		if err := rt.Proxy.ShowModule(target, 0); err != nil {
			logger.Warn("step %s: show %s: %v", s.Name(), target, err)
		}
	}

	acted := false

	if mode == BasicDisable {
		if target == "" {
			return core.StatusSkipped, nil
		}
		if err := rt.Proxy.DisableModule(ctx, target, 0); err != nil {
			return core.StatusFailed, err
		}
		return core.StatusApplied, nil
	}

	// enable / reset
	for _, sib := range siblings {
		if err := rt.Proxy.DisableModule(ctx, sib, 0); err != nil {
			return core.StatusFailed, err
		}
		acted = true
	}
	if target != "" {
		if err := rt.Proxy.EnableModule(ctx, target, 0); err != nil {
			return core.StatusFailed, err
		}
		acted = true

		if mode == BasicReset {
			if err := rt.Proxy.ResetModule(ctx, target, 0); err != nil {
				return core.StatusFailed, err
			}
		}
	}

	if sel.Option > 0 {
		if err := s.ApplyOption(ctx, rt, sel); err != nil {
			return core.StatusFailed, err
		}
		acted = true
	}

	if !acted {
		return core.StatusSkipped, nil
	}
	return core.StatusApplied, nil
}

// runConfigOnly handles steps without a basic machine: the option is
// everything, and option 0 means the step does nothing at all
func runConfigOnly(ctx context.Context, rt *Runtime, s Step, sel Selection) (core.StepStatus, error) {
	if sel.Option == 0 {
		return core.StatusSkipped, nil
	}
	if err := s.ApplyOption(ctx, rt, sel); err != nil {
		return core.StatusFailed, err
	}
	return core.StatusApplied, nil
}
