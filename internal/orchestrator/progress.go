package orchestrator

import (
	"fmt"
	"sync/atomic"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// ProgressReporter emits progress events through a buffered channel.
type ProgressReporter struct {
	ch         chan merge.ProgressEvent
	subscribed atomic.Bool
}

// NewProgressReporter creates a ProgressReporter with a buffered channel of size 64.
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		ch: make(chan merge.ProgressEvent, 64),
	}
}

// Emit sends a progress event. Once Subscribe was called it waits for room
// in the channel, so a subscriber sees every event and must keep draining
// until Close. Without a subscriber, events that do not fit are dropped.
func (pr *ProgressReporter) Emit(event merge.ProgressEvent) {
	if pr.subscribed.Load() {
		pr.ch <- event
		return
	}
	select {
	case pr.ch <- event:
	default:
	}
}

// Subscribe returns a read-only channel for consuming progress events.
func (pr *ProgressReporter) Subscribe() <-chan merge.ProgressEvent {
	pr.subscribed.Store(true)
	return pr.ch
}

// Close closes the progress event channel.
func (pr *ProgressReporter) Close() {
	close(pr.ch)
}

// FormatHeader formats the header printed before a project's progress lines.
// Returns: "[{root}] {n} merge request(s)"
func FormatHeader(root string, requests int) string {
	noun := "requests"
	if requests == 1 {
		noun = "request"
	}
	return fmt.Sprintf("[%s] %d merge %s", root, requests, noun)
}
