package merge

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNilUniverse is returned by Run when no Universe is supplied.
var ErrNilUniverse = errors.New("merge: nil universe")

// Outcome is the resolution of one merge request.
type Outcome struct {
	Request MergeRequest
	Set     ResolvedSet
	// Generate is false when the request must not reach code generation,
	// either because its own declaration is invalid or because the run failed.
	Generate bool
}

// Result is the output of one compilation pass.
type Result struct {
	// Outcomes are in request order.
	Outcomes []Outcome
	// Diagnostics are sorted by location.
	Diagnostics []Diagnostic
	// Cycles holds the replacement cycles found, if any.
	Cycles []*CycleError
	// Index is the contribution index the requests were resolved against.
	Index *Index
}

// OK reports whether the pass produced no error diagnostics.
func (r *Result) OK() bool {
	for _, d := range r.Diagnostics {
		if d.IsError() {
			return false
		}
	}
	return true
}

// Errors returns only the error diagnostics.
func (r *Result) Errors() []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithWorkers bounds the number of requests resolved concurrently. Values
// below one select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) { e.workers = n }
}

// WithProgress registers a callback invoked for every progress event. It is
// called from worker goroutines and must be safe for concurrent use.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(e *Engine) { e.onProgress = fn }
}

// WithCheckIncludes requires explicit includes, sub-members and excludes to
// be modules.
func WithCheckIncludes(enabled bool) Option {
	return func(e *Engine) { e.checkIncludes = enabled }
}

// Engine validates and resolves every merge request of a Universe.
type Engine struct {
	logger        *zap.Logger
	workers       int
	onProgress    func(ProgressEvent)
	checkIncludes bool
}

// NewEngine creates an Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	if e.workers < 1 {
		e.workers = runtime.GOMAXPROCS(0)
	}
	return e
}

// Run validates every contribution, builds the Index from the valid ones and
// then validates and resolves each request on a bounded worker pool. The
// returned error is non-nil only when ctx is canceled before every request
// was dispatched; validation failures are reported as diagnostics.
func (e *Engine) Run(ctx context.Context, u *Universe) (*Result, error) {
	if u == nil {
		return nil, ErrNilUniverse
	}
	if u.Symbols == nil {
		u.Symbols = NewSymbolTable()
	}

	reporter := NewReporter()
	for _, d := range u.Diagnostics {
		reporter.Report(d)
	}
	validator := NewValidator(u.Symbols, e.checkIncludes)
	validator.CheckDeclarations(reporter)

	valid := make([]Contribution, 0, len(u.Contributions))
	for _, c := range u.Contributions {
		if validator.CheckContribution(c, reporter) {
			valid = append(valid, c)
			continue
		}
		e.logger.Debug("contribution dropped",
			zap.String("member", u.Symbols.Name(c.Member)),
			zap.String("scope", u.Symbols.ScopeName(c.Scope)),
		)
	}

	idx := BuildIndex(valid)
	cycles := validator.CheckCycles(idx, reporter)
	e.logger.Debug("index built",
		zap.Int("contributions", idx.Len()),
		zap.Int("scopes", len(idx.Scopes())),
		zap.Int("cycles", len(cycles)),
	)

	outcomes := make([]Outcome, len(u.Requests))
	selfOK := make([]bool, len(u.Requests))

	g := new(errgroup.Group)
	g.SetLimit(e.workers)

	var dispatchErr error
	for i, req := range u.Requests {
		target := u.Symbols.Name(req.Target)
		scope := u.Symbols.ScopeName(req.Scope)
		e.emit(ProgressEvent{Target: target, Scope: scope, Status: ProgressPending})

		if err := ctx.Err(); err != nil {
			dispatchErr = fmt.Errorf("resolve %s: %w", target, err)
			break
		}

		g.Go(func() error {
			e.emit(ProgressEvent{Target: target, Scope: scope, Status: ProgressWorking})

			ok := validator.CheckRequest(req, reporter)
			set := Resolve(req, idx)
			outcomes[i] = Outcome{Request: req, Set: set}
			selfOK[i] = ok

			if !ok {
				e.emit(ProgressEvent{Target: target, Scope: scope, Status: ProgressFailed, Message: "invalid merge request"})
				return nil
			}
			e.emit(ProgressEvent{Target: target, Scope: scope, Status: ProgressComplete})
			return nil
		})
	}
	// Workers never return errors; Wait only joins them.
	_ = g.Wait()

	if dispatchErr != nil {
		e.logger.Warn("run canceled", zap.Error(dispatchErr))
		return nil, dispatchErr
	}

	failed := reporter.Failed()
	for i := range outcomes {
		outcomes[i].Generate = selfOK[i] && !failed
	}

	res := &Result{
		Outcomes:    outcomes,
		Diagnostics: reporter.Sorted(),
		Cycles:      cycles,
		Index:       idx,
	}
	e.logger.Info("merge resolution finished",
		zap.Int("requests", len(outcomes)),
		zap.Int("diagnostics", len(res.Diagnostics)),
		zap.Bool("ok", res.OK()),
	)
	return res, nil
}

func (e *Engine) emit(ev ProgressEvent) {
	if e.onProgress != nil {
		e.onProgress(ev)
	}
}
