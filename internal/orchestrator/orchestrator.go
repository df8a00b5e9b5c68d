package orchestrator

import (
	"context"

	"github.com/dusk-indust/scopemerge/internal/config"
	"github.com/dusk-indust/scopemerge/internal/export"
	"github.com/dusk-indust/scopemerge/internal/merge"
	"github.com/dusk-indust/scopemerge/internal/source"
)

// Run is the outcome of checking one project.
type Run struct {
	Root    string
	Config  *config.ProjectConfig
	Project *source.Project
	Result  *merge.Result
	Report  *export.Report
}

// OK reports whether the run produced no error diagnostics.
func (r *Run) OK() bool {
	return r.Result.OK()
}

// Orchestrator coordinates loading, resolving and reporting a project.
type Orchestrator interface {
	// Check loads the project and resolves every merge request in it.
	Check(ctx context.Context) (*Run, error)

	// Progress returns a channel that emits per-request progress events.
	Progress() <-chan merge.ProgressEvent
}
