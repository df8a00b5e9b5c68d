package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// Report is the top-level JSON export structure of one run.
type Report struct {
	OK          bool               `json:"ok"`
	Requests    []RequestReport    `json:"requests"`
	Diagnostics []DiagnosticReport `json:"diagnostics"`
}

// RequestReport describes the resolution of one merge request.
type RequestReport struct {
	Target        string   `json:"target"`
	Scope         string   `json:"scope"`
	Includes      []string `json:"includes"`
	Subcomponents []string `json:"subcomponents"`
	Generate      bool     `json:"generate"`
}

// DiagnosticReport is a flattened merge.Diagnostic.
type DiagnosticReport struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Message  string `json:"message"`
}

// NewReport builds a Report from a run. Requests keep their order and
// diagnostics stay sorted by location.
func NewReport(u *merge.Universe, res *merge.Result) *Report {
	r := &Report{
		OK:          res.OK(),
		Requests:    make([]RequestReport, 0, len(res.Outcomes)),
		Diagnostics: make([]DiagnosticReport, 0, len(res.Diagnostics)),
	}
	names := func(refs []merge.MemberRef) []string {
		out := make([]string, 0, len(refs))
		for _, ref := range refs {
			out = append(out, u.Symbols.Name(ref))
		}
		return out
	}
	for _, o := range res.Outcomes {
		r.Requests = append(r.Requests, RequestReport{
			Target:        u.Symbols.Name(o.Request.Target),
			Scope:         u.Symbols.ScopeName(o.Request.Scope),
			Includes:      names(o.Set.Includes),
			Subcomponents: names(o.Set.SubMembers),
			Generate:      o.Generate,
		})
	}
	for _, d := range res.Diagnostics {
		r.Diagnostics = append(r.Diagnostics, DiagnosticReport{
			Kind:     string(d.Kind),
			Severity: string(d.Severity),
			File:     d.Location.File,
			Line:     d.Location.Line,
			Column:   d.Location.Column,
			Message:  d.Message,
		})
	}
	return r
}

// Request returns the report of the request for target, or nil.
func (r *Report) Request(target string) *RequestReport {
	for i := range r.Requests {
		if r.Requests[i].Target == target {
			return &r.Requests[i]
		}
	}
	return nil
}

// Find looks a request up by qualified target name, then by a simple name
// that matches exactly one target.
func (r *Report) Find(target string) (*RequestReport, error) {
	if rr := r.Request(target); rr != nil {
		return rr, nil
	}
	var matches []*RequestReport
	for i := range r.Requests {
		if strings.HasSuffix(r.Requests[i].Target, "."+target) {
			matches = append(matches, &r.Requests[i])
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no merge request for %q", target)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Target
		}
		return nil, fmt.Errorf("%q is ambiguous: %s", target, strings.Join(names, ", "))
	}
}

// WriteJSON writes r as indented JSON followed by a newline.
func WriteJSON(w io.Writer, r *Report) error {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	out = append(out, '\n')
	_, err = w.Write(out)
	return err
}

// WriteText writes one line per diagnostic in the form
// "<file>: (<line>, <column>) <message>", warnings marked as such.
func WriteText(w io.Writer, diags []merge.Diagnostic) error {
	for _, d := range diags {
		line := d.String()
		if !d.IsError() {
			line = d.Location.String() + " warning: " + d.Message
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteRequest writes the resolution of one request as text: a header line
// followed by the includes and sub-members, one per line.
func WriteRequest(w io.Writer, rr *RequestReport) error {
	status := "generate"
	if !rr.Generate {
		status = "blocked"
	}
	if _, err := fmt.Fprintf(w, "%s (scope %s, %s)\n", rr.Target, rr.Scope, status); err != nil {
		return err
	}
	for _, inc := range rr.Includes {
		if _, err := fmt.Fprintf(w, "  includes %s\n", inc); err != nil {
			return err
		}
	}
	for _, sub := range rr.Subcomponents {
		if _, err := fmt.Fprintf(w, "  subcomponent %s\n", sub); err != nil {
			return err
		}
	}
	return nil
}
