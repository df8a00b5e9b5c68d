package mcptools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/dusk-indust/scopemerge/internal/export"
	"github.com/dusk-indust/scopemerge/internal/graph"
	"github.com/dusk-indust/scopemerge/internal/orchestrator"
)

// ErrNotIndexed is returned by the query tools before index_project ran.
var ErrNotIndexed = errors.New("no project indexed; call index_project first")

// StoreFactory opens an empty graph store for a new index.
type StoreFactory func() (graph.Store, error)

// ResolverService holds the last indexed project and its graph store. The
// MCP tool handlers below read from it.
type ResolverService struct {
	newStore StoreFactory
	logger   *zap.Logger

	mu    sync.RWMutex
	run   *orchestrator.Run
	store graph.Store
}

// NewResolverService creates a ResolverService. A nil factory selects the
// in-memory store.
func NewResolverService(newStore StoreFactory, logger *zap.Logger) *ResolverService {
	if newStore == nil {
		newStore = func() (graph.Store, error) { return graph.NewMemStore(), nil }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResolverService{newStore: newStore, logger: logger}
}

// Close releases the current graph store.
func (s *ResolverService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	s.run = nil
	return err
}

// IndexProject checks a project and replaces the indexed state with the
// result. Source problems do not fail the tool; they are counted in the
// output and available through get_diagnostics.
func (s *ResolverService) IndexProject(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IndexProjectInput,
) (*mcp.CallToolResult, IndexProjectOutput, error) {
	if input.ProjectRoot == "" {
		return nil, IndexProjectOutput{}, fmt.Errorf("projectRoot is required")
	}

	pipeline := orchestrator.NewPipeline(orchestrator.Config{
		ProjectRoot:   input.ProjectRoot,
		ConfigPath:    input.ConfigPath,
		Languages:     input.Languages,
		ExcludeDirs:   input.ExcludeDirs,
		CheckIncludes: input.CheckIncludes,
		Logger:        s.logger,
	})
	defer pipeline.Close()

	run, err := pipeline.Check(ctx)
	if err != nil {
		return nil, IndexProjectOutput{}, err
	}

	store, err := s.newStore()
	if err != nil {
		return nil, IndexProjectOutput{}, fmt.Errorf("open store: %w", err)
	}
	stats, err := orchestrator.Index(ctx, store, run)
	if err != nil {
		if cerr := store.Close(); cerr != nil {
			s.logger.Warn("closing store", zap.Error(cerr))
		}
		return nil, IndexProjectOutput{}, fmt.Errorf("index: %w", err)
	}

	// Lock waits for running queries; the old store has no readers once the
	// swap is done.
	s.mu.Lock()
	old := s.store
	s.run, s.store = run, store
	s.mu.Unlock()
	if old != nil {
		if err := old.Close(); err != nil {
			s.logger.Warn("closing previous store", zap.Error(err))
		}
	}

	out := IndexProjectOutput{
		OK:       run.OK(),
		Requests: len(run.Report.Requests),
		Stats:    *stats,
	}
	for _, d := range run.Result.Diagnostics {
		if d.IsError() {
			out.Errors++
		} else {
			out.Warnings++
		}
	}
	s.logger.Info("project indexed",
		zap.String("root", input.ProjectRoot),
		zap.Int("requests", out.Requests),
		zap.Int("errors", out.Errors),
	)
	return nil, out, nil
}

// ResolveMerge returns the resolved set of one merge request.
func (s *ResolverService) ResolveMerge(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ResolveMergeInput,
) (*mcp.CallToolResult, ResolveMergeOutput, error) {
	if input.Target == "" {
		return nil, ResolveMergeOutput{}, fmt.Errorf("target is required")
	}

	var out ResolveMergeOutput
	err := s.withIndex(func(run *orchestrator.Run, store graph.Store) error {
		rr, err := run.Report.Find(input.Target)
		if err != nil {
			return err
		}
		out = ResolveMergeOutput{Request: *rr, Excludes: []string{}}
		res, err := store.Resolved(ctx, rr.Target)
		if err != nil {
			return fmt.Errorf("resolved: %w", err)
		}
		if res != nil && len(res.Excludes) > 0 {
			out.Excludes = res.Excludes
		}
		return nil
	})
	if err != nil {
		return nil, ResolveMergeOutput{}, err
	}
	return nil, out, nil
}

// GetDiagnostics returns the diagnostics of the indexed project, sorted by
// location.
func (s *ResolverService) GetDiagnostics(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input GetDiagnosticsInput,
) (*mcp.CallToolResult, GetDiagnosticsOutput, error) {
	var out GetDiagnosticsOutput
	err := s.withIndex(func(run *orchestrator.Run, _ graph.Store) error {
		severity := strings.ToLower(input.Severity)
		diags := make([]export.DiagnosticReport, 0, len(run.Report.Diagnostics))
		for _, d := range run.Report.Diagnostics {
			if severity != "" && d.Severity != severity {
				continue
			}
			if input.File != "" && d.File != input.File {
				continue
			}
			diags = append(diags, d)
		}
		out = GetDiagnosticsOutput{OK: run.Report.OK, Diagnostics: diags}
		return nil
	})
	if err != nil {
		return nil, GetDiagnosticsOutput{}, err
	}
	return nil, out, nil
}

// ListContributions lists the modules contributed to a scope, or to every
// scope when none is given.
func (s *ResolverService) ListContributions(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListContributionsInput,
) (*mcp.CallToolResult, ListContributionsOutput, error) {
	var out ListContributionsOutput
	err := s.withIndex(func(_ *orchestrator.Run, store graph.Store) error {
		scopes := []string{input.Scope}
		if input.Scope == "" {
			var err error
			if scopes, err = contributedScopes(ctx, store); err != nil {
				return err
			}
		}

		out.Scopes = make([]ScopeContributions, 0, len(scopes))
		for _, scope := range scopes {
			names, err := store.Contributors(ctx, scope)
			if err != nil {
				return fmt.Errorf("contributors of %s: %w", scope, err)
			}
			sc := ScopeContributions{Scope: scope, Modules: make([]graph.SymbolNode, 0, len(names))}
			for _, name := range names {
				sym, err := store.GetSymbol(ctx, name)
				if err != nil {
					return fmt.Errorf("get symbol %s: %w", name, err)
				}
				if sym != nil {
					sc.Modules = append(sc.Modules, *sym)
				}
			}
			out.Scopes = append(out.Scopes, sc)
		}
		return nil
	})
	if err != nil {
		return nil, ListContributionsOutput{}, err
	}
	return nil, out, nil
}

func contributedScopes(ctx context.Context, store graph.Store) ([]string, error) {
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("get edges: %w", err)
	}
	seen := make(map[string]bool)
	var scopes []string
	for _, e := range edges {
		if e.Kind == graph.EdgeKindContributesTo && !seen[e.TargetID] {
			seen[e.TargetID] = true
			scopes = append(scopes, e.TargetID)
		}
	}
	sort.Strings(scopes)
	return scopes, nil
}

// QuerySymbols searches for symbols by name substring match.
func (s *ResolverService) QuerySymbols(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input QuerySymbolsInput,
) (*mcp.CallToolResult, QuerySymbolsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	var symbols []graph.SymbolNode
	err := s.withIndex(func(_ *orchestrator.Run, store graph.Store) error {
		var err error
		symbols, err = store.QuerySymbols(ctx, input.Query, 0)
		if err != nil {
			return fmt.Errorf("query symbols: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, QuerySymbolsOutput{}, err
	}

	filtered := make([]graph.SymbolNode, 0, len(symbols))
	kind := graph.SymbolKind(strings.ToLower(input.Kind))
	for _, sym := range symbols {
		if kind != "" && sym.Kind != kind {
			continue
		}
		filtered = append(filtered, sym)
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	return nil, QuerySymbolsOutput{
		Symbols: filtered,
		Total:   len(filtered),
	}, nil
}

// withIndex calls fn with the indexed state. The read lock is held until fn
// returns, so IndexProject and Close cannot close the store underneath it.
func (s *ResolverService) withIndex(fn func(*orchestrator.Run, graph.Store) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.run == nil {
		return ErrNotIndexed
	}
	return fn(s.run, s.store)
}
