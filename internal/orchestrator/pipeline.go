package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dusk-indust/scopemerge/internal/export"
	"github.com/dusk-indust/scopemerge/internal/graph"
	"github.com/dusk-indust/scopemerge/internal/merge"
	"github.com/dusk-indust/scopemerge/internal/source"
)

// ErrNoProjectRoot is returned by Check when Config.ProjectRoot is empty.
var ErrNoProjectRoot = errors.New("orchestrator: project root is required")

// Compile-time interface check.
var _ Orchestrator = (*Pipeline)(nil)

// Pipeline implements Orchestrator on top of the tree-sitter front-end and
// the merge engine.
type Pipeline struct {
	cfg      Config
	logger   *zap.Logger
	progress *ProgressReporter
}

// NewPipeline creates a Pipeline for cfg.
func NewPipeline(cfg Config) *Pipeline {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		progress: NewProgressReporter(),
	}
}

// Check loads the project config, parses the source tree, then validates and
// resolves every merge request in it. Problems in the sources are reported
// as diagnostics in the returned Run; the error covers I/O, configuration and
// cancellation only.
func (p *Pipeline) Check(ctx context.Context) (*Run, error) {
	root := p.cfg.ProjectRoot
	if root == "" {
		return nil, ErrNoProjectRoot
	}

	pc, err := p.cfg.projectConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	parser := source.NewTreeSitterParser(pc.AnnotationNames())
	defer parser.Close()

	project, err := source.Load(ctx, parser, root, pc.LoadOptions(p.logger))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", root, err)
	}

	engine := merge.NewEngine(
		merge.WithLogger(p.logger),
		merge.WithWorkers(pc.Workers),
		merge.WithCheckIncludes(pc.CheckIncludes),
		merge.WithProgress(p.progress.Emit),
	)
	res, err := engine.Run(ctx, project.Universe)
	if err != nil {
		return nil, err
	}

	return &Run{
		Root:    root,
		Config:  pc,
		Project: project,
		Result:  res,
		Report:  export.NewReport(project.Universe, res),
	}, nil
}

// Progress returns a channel that emits progress events. A caller that
// subscribes before Check must drain it until Close; Check then waits for
// the reader instead of dropping events.
func (p *Pipeline) Progress() <-chan merge.ProgressEvent {
	return p.progress.Subscribe()
}

// Close shuts down the progress reporter. Callers should invoke this once
// Check has returned.
func (p *Pipeline) Close() {
	p.progress.Close()
}

// Index projects a run into store and returns the resulting graph size.
func Index(ctx context.Context, store graph.Store, run *Run) (*graph.GraphStats, error) {
	if err := store.InitSchema(ctx); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}
	if err := graph.Persist(ctx, store, run.Project.Universe, run.Result); err != nil {
		return nil, err
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return stats, nil
}
