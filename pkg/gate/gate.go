// Package gate serializes host actions against the host's asynchronous
// pipeline. Every configuration change triggers a pipeline recompute; the
// gate issues an action, then holds the sequencer until the host reports
// the recompute finished, with a timeout fallback so a missed event never
// wedges a run.
package gate

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/phototools-dev/workflow-runner/pkg/core"
	"github.com/phototools-dev/workflow-runner/pkg/host"
	"github.com/phototools-dev/workflow-runner/pkg/i18n"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
)

// Listener names used for host event subscriptions
const (
	gateListener = "workflow-gate"
	loadListener = "workflow-load-gate"
)

// maxLoadRetries bounds re-displays after unclean image loads. The first
// display plus the retries gives 8 attempts total.
const maxLoadRetries = 7

// Gate waits for host events after issuing actions.
type Gate struct {
	events   host.Events
	settings *core.Settings
	summary  *core.RunSummary
	catalog  *i18n.Catalog
}

// New creates a Gate. The summary receives a message for every wait that
// times out.
func New(events host.Events, settings *core.Settings, summary *core.RunSummary, catalog *i18n.Catalog) *Gate {
	return &Gate{
		events:   events,
		settings: settings,
		summary:  summary,
		catalog:  catalog,
	}
}

// quantum is the poll interval: a tenth of the step timeout
func (g *Gate) quantum() time.Duration {
	q := g.settings.Timeout() / 10
	if q <= 0 {
		q = time.Millisecond
	}
	return q
}

// waitCap is the longest a single wait may take: five step timeouts
func (g *Gate) waitCap() time.Duration {
	return g.settings.Timeout() * 5
}

// Await subscribes to kind, runs action, then polls until the event
// arrives or the wait cap elapses. The subscription is removed exactly
// once on every exit path. A timed-out wait is not an error: the outcome
// records it, the summary gets a message, and the caller proceeds.
//
// The returned error is non-nil only when the action itself failed or
// ctx was canceled; the outcome is meaningful only for a nil error.
func (g *Gate) Await(ctx context.Context, kind host.EventKind, label string, action func() error) (core.Outcome, error) {
	var received sync.Once
	flag := make(chan struct{})

	handler := func(host.Event) {
		received.Do(func() { close(flag) })
	}
	if err := g.events.Subscribe(kind, gateListener, handler); err != nil {
		return core.OutcomeTimedOut, err
	}
	defer func() {
		if err := g.events.Unsubscribe(kind, gateListener); err != nil {
			logger.Warn("gate: unsubscribe %s: %v", kind, err)
		}
	}()

	if err := action(); err != nil {
		return core.OutcomeTimedOut, err
	}

	start := time.Now()
	waitCtx, cancel := context.WithTimeout(ctx, g.waitCap())
	defer cancel()

	w := logger.GetWriter()
	ticker := time.NewTicker(g.quantum())
	defer ticker.Stop()

	for {
		select {
		case <-flag:
			logger.Debug("gate: %s arrived after %v (%s)", kind, time.Since(start), label)
			return core.OutcomeCompleted, nil
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return core.OutcomeTimedOut, ctx.Err()
			}
			logger.Warn("gate: no %s event within %v (%s)", kind, g.waitCap(), label)
			g.summary.Add(g.catalog.Tf(i18n.MsgStepTimeout, label))
			return core.OutcomeTimedOut, nil
		case <-ticker.C:
			// Still waiting, leave a progress mark
			io.WriteString(w, ".")
		}
	}
}

// AwaitImageLoad displays an image and waits for the host to report the
// load finished. Unclean loads (the host fell back to a stale buffer) are
// retried after a settle pause of twice the step timeout, bounded by
// maxLoadRetries. A wait that times out without any load event is treated
// like other gate timeouts: logged, summarized, not fatal.
func (g *Gate) AwaitImageLoad(ctx context.Context, img host.ImageRef, display func() error) error {
	attempt := 0

	op := func() error {
		attempt++
		if attempt > 1 {
			logger.Info("gate: re-displaying %s after unclean load (attempt %d)", img.Name, attempt)
		}

		clean, outcome, err := g.awaitLoadOnce(ctx, img, display)
		if err != nil {
			return backoff.Permanent(err)
		}
		if outcome == core.OutcomeTimedOut {
			// No event at all. The image may still have loaded; proceed.
			return nil
		}
		if !clean {
			return core.ErrUncleanLoad
		}
		return nil
	}

	pause := backoff.NewConstantBackOff(2 * g.settings.Timeout())
	err := backoff.Retry(op, backoff.WithMaxRetries(pause, maxLoadRetries))
	if err != nil {
		if errors.Is(err, core.ErrUncleanLoad) {
			g.summary.Add(g.catalog.Tf(i18n.MsgUncleanLoad, img.Name))
		}
		return err
	}
	return nil
}

// awaitLoadOnce performs one display-and-wait round trip
func (g *Gate) awaitLoadOnce(ctx context.Context, img host.ImageRef, display func() error) (clean bool, outcome core.Outcome, err error) {
	var mu sync.Mutex
	got := false

	flag := make(chan struct{})
	var received sync.Once

	handler := func(ev host.Event) {
		mu.Lock()
		if !got {
			got = true
			clean = ev.Clean
		}
		mu.Unlock()
		received.Do(func() { close(flag) })
	}
	if err := g.events.Subscribe(host.EventImageLoaded, loadListener, handler); err != nil {
		return false, core.OutcomeTimedOut, err
	}
	defer func() {
		if uerr := g.events.Unsubscribe(host.EventImageLoaded, loadListener); uerr != nil {
			logger.Warn("gate: unsubscribe %s: %v", host.EventImageLoaded, uerr)
		}
	}()

	if err := display(); err != nil {
		return false, core.OutcomeTimedOut, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, g.waitCap())
	defer cancel()

	w := logger.GetWriter()
	ticker := time.NewTicker(g.quantum())
	defer ticker.Stop()

	for {
		select {
		case <-flag:
			mu.Lock()
			c := clean
			mu.Unlock()
			return c, core.OutcomeCompleted, nil
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return false, core.OutcomeTimedOut, ctx.Err()
			}
			g.summary.Add(g.catalog.Tf(i18n.MsgStepTimeout, img.Name))
			return false, core.OutcomeTimedOut, nil
		case <-ticker.C:
			io.WriteString(w, ".")
		}
	}
}
