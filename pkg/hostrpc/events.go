package hostrpc

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/phototools-dev/workflow-runner/pkg/host"
	"github.com/phototools-dev/workflow-runner/pkg/logger"
)

// eventWait is the long-poll window; it stays under the request timeout.
const eventWait = 20 * time.Second

// pollRetryDelay spaces retries after a failed poll.
const pollRetryDelay = 500 * time.Millisecond

// eventState carries the subscription registry and pump lifecycle.
type eventState struct {
	mu       sync.Mutex
	handlers map[host.EventKind]map[string]host.Handler
	closing  bool
	cursor   int64

	group  *errgroup.Group
	cancel context.CancelFunc
}

func newEventState() *eventState {
	return &eventState{
		handlers: make(map[host.EventKind]map[string]host.Handler),
	}
}

// Subscribe registers a named handler for an event kind. A name can be
// subscribed to a kind at most once.
func (c *Client) Subscribe(kind host.EventKind, name string, fn host.Handler) error {
	s := c.events
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.handlers[kind][name]; dup {
		return errors.Errorf("listener %q already subscribed to %s", name, kind)
	}
	if s.handlers[kind] == nil {
		s.handlers[kind] = make(map[string]host.Handler)
	}
	s.handlers[kind][name] = fn
	return nil
}

// Unsubscribe removes a named handler. Unknown names are an error, so a
// double unsubscription cannot pass silently.
func (c *Client) Unsubscribe(kind host.EventKind, name string) error {
	s := c.events
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handlers[kind][name]; !ok {
		return errors.Errorf("listener %q is not subscribed to %s", name, kind)
	}
	delete(s.handlers[kind], name)
	return nil
}

// Closing reports whether the host announced shutdown.
func (c *Client) Closing() bool {
	c.events.mu.Lock()
	defer c.events.mu.Unlock()
	return c.events.closing
}

// startEvents launches the long-poll pump.
func (c *Client) startEvents(ctx context.Context) {
	pumpCtx, cancel := context.WithCancel(ctx)
	g, pumpCtx := errgroup.WithContext(pumpCtx)
	c.events.group = g
	c.events.cancel = cancel

	g.Go(func() error {
		return c.pollEvents(pumpCtx)
	})
}

// stopEvents cancels the pump and waits for it to drain.
func (c *Client) stopEvents() error {
	s := c.events
	if s.cancel == nil {
		return nil
	}
	s.cancel()
	return s.group.Wait()
}

// pollEvents drives the long-poll loop until the context ends.
func (c *Client) pollEvents(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		batch, err := c.fetchEvents(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			logger.Warn("Event poll failed: %v", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}

		for _, ev := range batch {
			c.dispatch(ev)
		}
	}
}

func (c *Client) fetchEvents(ctx context.Context) ([]wireEvent, error) {
	s := c.events
	s.mu.Lock()
	cursor := s.cursor
	s.mu.Unlock()

	data, err := c.requestCtx(ctx, "POST", "/api/events/poll", eventPollRequest{
		Cursor: cursor,
		WaitMs: eventWait.Milliseconds(),
	})
	if err != nil {
		return nil, err
	}

	var resp eventPollResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, errors.Wrap(err, "parse event batch")
	}

	s.mu.Lock()
	s.cursor = resp.Cursor
	s.mu.Unlock()
	return resp.Events, nil
}

// dispatch fans one event out to its subscribers. Handlers run on the
// pump goroutine and must not block.
func (c *Client) dispatch(ev wireEvent) {
	if ev.Kind == eventHostClosing {
		s := c.events
		s.mu.Lock()
		s.closing = true
		s.mu.Unlock()
		logger.Info("Host announced shutdown")
		return
	}

	s := c.events
	s.mu.Lock()
	fns := make([]host.Handler, 0, len(s.handlers[host.EventKind(ev.Kind)]))
	for _, fn := range s.handlers[host.EventKind(ev.Kind)] {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev.hostEvent())
	}
}
