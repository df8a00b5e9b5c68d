package merge

import "fmt"

// ProgressStatus is the state of a merge request within a run.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent is emitted for each merge request as the engine works through
// a Universe.
type ProgressEvent struct {
	Target  string
	Scope   string
	Status  ProgressStatus
	Message string
}

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", event.Target)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", event.Target)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s merged from %s", event.Target, event.Scope)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", event.Target, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", event.Target)
	}
}
