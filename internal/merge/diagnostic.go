package merge

import (
	"fmt"
	"sort"
	"sync"
)

const (
	// SeverityError fails the compilation step.
	SeverityError Severity = "error"
	// SeverityWarning is reported but does not fail the step.
	SeverityWarning Severity = "warning"
)

// Diagnostic kinds.
const (
	KindConflictingAnnotations Kind = "conflicting_annotations"
	KindInvalidContribution    Kind = "invalid_contribution"
	KindInvalidReplaceTarget   Kind = "invalid_replace_target"
	KindReplaceCycle           Kind = "replace_cycle"
	KindSelfReplacement        Kind = "self_replacement"
	KindInvalidInclude         Kind = "invalid_include"
	// KindMalformedAnnotation is reported by front ends for annotations
	// they cannot turn into a contribution or request.
	KindMalformedAnnotation Kind = "malformed_annotation"
)

type (
	// Severity is the diagnostic level.
	Severity string

	// Kind is a machine-readable diagnostic identifier.
	Kind string

	// Diagnostic is a validation failure bound to a source location.
	Diagnostic struct {
		Kind     Kind     `json:"kind"`
		Severity Severity `json:"severity"`
		Message  string   `json:"message"`
		Location Location `json:"location"`
	}
)

// String formats the diagnostic as "<file>: (<line>, <column>) <message>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s", d.Location, d.Message)
}

// IsError reports whether d fails the compilation step.
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Reporter collects diagnostics from concurrent validations. Identical
// diagnostics are recorded once.
type Reporter struct {
	mu    sync.Mutex
	seen  map[Diagnostic]struct{}
	diags []Diagnostic
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{seen: make(map[Diagnostic]struct{})}
}

// Report records d.
func (r *Reporter) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.seen[d]; ok {
		return
	}
	r.seen[d] = struct{}{}
	r.diags = append(r.diags, d)
}

// Errorf records an error diagnostic.
func (r *Reporter) Errorf(kind Kind, loc Location, format string, args ...any) {
	r.Report(Diagnostic{Kind: kind, Severity: SeverityError, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Warnf records a warning diagnostic.
func (r *Reporter) Warnf(kind Kind, loc Location, format string, args ...any) {
	r.Report(Diagnostic{Kind: kind, Severity: SeverityWarning, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Failed reports whether any error diagnostic was recorded.
func (r *Reporter) Failed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.diags {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Len returns the number of recorded diagnostics.
func (r *Reporter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.diags)
}

// Sorted returns the diagnostics ordered by location, then kind, then message,
// so output is reproducible regardless of worker scheduling.
func (r *Reporter) Sorted() []Diagnostic {
	r.mu.Lock()
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	r.mu.Unlock()

	SortDiagnostics(out)
	return out
}

// SortDiagnostics sorts diags in place by location, kind and message.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		a, b := diags[i], diags[j]
		if a.Location != b.Location {
			return a.Location.Before(b.Location)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Message < b.Message
	})
}
