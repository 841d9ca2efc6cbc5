package core

import (
	"fmt"
	"sync"
)

// RunSummary collects user-facing messages during a workflow run: event
// wait timeouts, cancellation notes, load failures. It is flushed to the
// host's message log once the run finishes. Safe for concurrent use; the
// event pump may append while the sequencer reads.
type RunSummary struct {
	mu       sync.Mutex
	messages []string
}

// Add appends a message to the summary
func (s *RunSummary) Add(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
}

// Addf appends a formatted message to the summary
func (s *RunSummary) Addf(format string, args ...interface{}) {
	s.Add(fmt.Sprintf(format, args...))
}

// Messages returns a copy of the collected messages in insertion order
func (s *RunSummary) Messages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.messages))
	copy(out, s.messages)
	return out
}

// Empty returns true when no messages have been collected
func (s *RunSummary) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages) == 0
}

// Count returns the number of collected messages. The sequencer compares
// counts around a step to detect waits that timed out inside it.
func (s *RunSummary) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// Clear discards all collected messages. Called at the start of each run.
func (s *RunSummary) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
