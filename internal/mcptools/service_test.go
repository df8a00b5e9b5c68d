//go:build cgo

package mcptools

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dusk-indust/scopemerge/internal/export"
	"github.com/dusk-indust/scopemerge/internal/graph"
)

// fixtureAbsPath returns the absolute path to a test fixture project. Tests
// run from internal/mcptools/, so the relative path is
// ../../testdata/fixtures/<name>.
func fixtureAbsPath(t *testing.T, name string) string {
	t.Helper()
	abs, err := filepath.Abs(filepath.Join("../../testdata/fixtures", name))
	require.NoError(t, err)
	return abs
}

// indexedService returns a service that has indexed the named fixture.
func indexedService(t *testing.T, name string) *ResolverService {
	t.Helper()
	svc := NewResolverService(nil, nil)
	t.Cleanup(func() { svc.Close() })

	_, _, err := svc.IndexProject(context.Background(), nil, IndexProjectInput{
		ProjectRoot: fixtureAbsPath(t, name),
	})
	require.NoError(t, err)
	return svc
}

func TestIndexProject(t *testing.T) {
	t.Run("indexes go_app fixture", func(t *testing.T) {
		svc := NewResolverService(nil, nil)
		defer svc.Close()

		_, out, err := svc.IndexProject(context.Background(), nil, IndexProjectInput{
			ProjectRoot: fixtureAbsPath(t, "go_app"),
		})
		require.NoError(t, err)

		assert.True(t, out.OK)
		assert.Equal(t, 1, out.Requests)
		assert.Zero(t, out.Errors)
		assert.Equal(t, 3, out.Stats.ContributionCount)
		assert.Equal(t, 1, out.Stats.MergeCount)
	})

	t.Run("invalid project is not a tool error", func(t *testing.T) {
		svc := NewResolverService(nil, nil)
		defer svc.Close()

		_, out, err := svc.IndexProject(context.Background(), nil, IndexProjectInput{
			ProjectRoot: fixtureAbsPath(t, "java_invalid"),
		})
		require.NoError(t, err)
		assert.False(t, out.OK)
		assert.Equal(t, 5, out.Errors)
	})

	t.Run("empty projectRoot returns error", func(t *testing.T) {
		svc := NewResolverService(nil, nil)
		_, _, err := svc.IndexProject(context.Background(), nil, IndexProjectInput{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "projectRoot is required")
	})

	t.Run("non-existent path returns error", func(t *testing.T) {
		svc := NewResolverService(nil, nil)
		_, _, err := svc.IndexProject(context.Background(), nil, IndexProjectInput{
			ProjectRoot: "/tmp/this-path-does-not-exist-at-all-12345",
		})
		require.Error(t, err)
	})

	t.Run("store factory error", func(t *testing.T) {
		boom := errors.New("boom")
		svc := NewResolverService(func() (graph.Store, error) { return nil, boom }, nil)
		_, _, err := svc.IndexProject(context.Background(), nil, IndexProjectInput{
			ProjectRoot: fixtureAbsPath(t, "go_app"),
		})
		require.ErrorIs(t, err, boom)
	})

	t.Run("reindex replaces the previous project", func(t *testing.T) {
		svc := indexedService(t, "go_app")
		_, _, err := svc.IndexProject(context.Background(), nil, IndexProjectInput{
			ProjectRoot: fixtureAbsPath(t, "java_invalid"),
		})
		require.NoError(t, err)

		_, _, err = svc.ResolveMerge(context.Background(), nil, ResolveMergeInput{Target: "app.AppComponent"})
		require.Error(t, err)
	})
}

// gatedStore is a MemStore whose first Contributors call waits for release.
// It records whether it was read after being closed.
type gatedStore struct {
	*graph.MemStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once

	mu             sync.Mutex
	closed         bool
	readAfterClose bool
}

func newGatedStore() *gatedStore {
	return &gatedStore{
		MemStore: graph.NewMemStore(),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (g *gatedStore) read() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		g.readAfterClose = true
	}
}

func (g *gatedStore) Contributors(ctx context.Context, scope string) ([]string, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	g.read()
	return g.MemStore.Contributors(ctx, scope)
}

func (g *gatedStore) GetSymbol(ctx context.Context, name string) (*graph.SymbolNode, error) {
	g.read()
	return g.MemStore.GetSymbol(ctx, name)
}

func (g *gatedStore) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return g.MemStore.Close()
}

func TestIndexProject_WaitsForRunningQueries(t *testing.T) {
	ctx := context.Background()
	first := newGatedStore()
	stores := []graph.Store{first, graph.NewMemStore()}
	svc := NewResolverService(func() (graph.Store, error) {
		s := stores[0]
		stores = stores[1:]
		return s, nil
	}, nil)
	defer svc.Close()

	input := IndexProjectInput{ProjectRoot: fixtureAbsPath(t, "go_app")}
	_, _, err := svc.IndexProject(ctx, nil, input)
	require.NoError(t, err)

	listed := make(chan ListContributionsOutput, 1)
	listErr := make(chan error, 1)
	go func() {
		_, out, err := svc.ListContributions(ctx, nil, ListContributionsInput{Scope: "app.AppScope"})
		listed <- out
		listErr <- err
	}()
	<-first.entered

	indexErr := make(chan error, 1)
	go func() {
		_, _, err := svc.IndexProject(ctx, nil, input)
		indexErr <- err
	}()

	select {
	case err := <-indexErr:
		t.Fatalf("reindex returned while a query was reading the store: %v", err)
	case <-time.After(200 * time.Millisecond):
	}

	close(first.release)
	require.NoError(t, <-listErr)
	require.NoError(t, <-indexErr)

	out := <-listed
	require.Len(t, out.Scopes, 1)
	assert.Len(t, out.Scopes[0].Modules, 3)

	first.mu.Lock()
	defer first.mu.Unlock()
	assert.True(t, first.closed, "the replaced store is closed")
	assert.False(t, first.readAfterClose, "the replaced store is not read after Close")
}

// brokenStore fails schema setup and close.
type brokenStore struct {
	*graph.MemStore
}

var (
	errSchema = errors.New("schema failed")
	errClose  = errors.New("close failed")
)

func (brokenStore) InitSchema(context.Context) error { return errSchema }
func (brokenStore) Close() error                     { return errClose }

func TestIndexProject_LogsCloseErrorOnFailure(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := NewResolverService(func() (graph.Store, error) {
		return brokenStore{graph.NewMemStore()}, nil
	}, zap.New(core))

	_, _, err := svc.IndexProject(context.Background(), nil, IndexProjectInput{
		ProjectRoot: fixtureAbsPath(t, "go_app"),
	})
	require.ErrorIs(t, err, errSchema)

	entries := logs.FilterMessage("closing store").All()
	require.Len(t, entries, 1)
	assert.Equal(t, errClose.Error(), entries[0].ContextMap()["error"])
}

func TestToolsBeforeIndex(t *testing.T) {
	svc := NewResolverService(nil, nil)
	ctx := context.Background()

	_, _, err := svc.ResolveMerge(ctx, nil, ResolveMergeInput{Target: "X"})
	assert.ErrorIs(t, err, ErrNotIndexed)
	_, _, err = svc.GetDiagnostics(ctx, nil, GetDiagnosticsInput{})
	assert.ErrorIs(t, err, ErrNotIndexed)
	_, _, err = svc.ListContributions(ctx, nil, ListContributionsInput{})
	assert.ErrorIs(t, err, ErrNotIndexed)
	_, _, err = svc.QuerySymbols(ctx, nil, QuerySymbolsInput{})
	assert.ErrorIs(t, err, ErrNotIndexed)
}

func TestResolveMerge(t *testing.T) {
	svc := indexedService(t, "go_app")
	ctx := context.Background()

	for _, target := range []string{"app.AppComponent", "AppComponent"} {
		t.Run(target, func(t *testing.T) {
			_, out, err := svc.ResolveMerge(ctx, nil, ResolveMergeInput{Target: target})
			require.NoError(t, err)

			assert.Equal(t, export.RequestReport{
				Target:        "app.AppComponent",
				Scope:         "app.AppScope",
				Includes:      []string{"app.NetworkModule", "app.MetricsModule"},
				Subcomponents: []string{},
				Generate:      true,
			}, out.Request)
			assert.Equal(t, []string{"app.LegacyModule"}, out.Excludes)
		})
	}

	t.Run("unknown target", func(t *testing.T) {
		_, _, err := svc.ResolveMerge(ctx, nil, ResolveMergeInput{Target: "Nope"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `no merge request for "Nope"`)
	})

	t.Run("empty target", func(t *testing.T) {
		_, _, err := svc.ResolveMerge(ctx, nil, ResolveMergeInput{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "target is required")
	})
}

func TestGetDiagnostics(t *testing.T) {
	svc := indexedService(t, "java_invalid")
	ctx := context.Background()

	tests := []struct {
		name  string
		input GetDiagnosticsInput
		want  int
	}{
		{"all", GetDiagnosticsInput{}, 5},
		{"errors", GetDiagnosticsInput{Severity: "ERROR"}, 5},
		{"warnings", GetDiagnosticsInput{Severity: "warning"}, 0},
		{"by file", GetDiagnosticsInput{File: "Source.java"}, 5},
		{"other file", GetDiagnosticsInput{File: "Other.java"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := svc.GetDiagnostics(ctx, nil, tt.input)
			require.NoError(t, err)
			assert.False(t, out.OK)
			assert.Len(t, out.Diagnostics, tt.want)
			assert.NotNil(t, out.Diagnostics)
		})
	}

	_, out, err := svc.GetDiagnostics(ctx, nil, GetDiagnosticsInput{})
	require.NoError(t, err)
	assert.Equal(t, 9, out.Diagnostics[0].Line)
	assert.Equal(t, "conflicting_annotations", out.Diagnostics[0].Kind)
}

func TestListContributions(t *testing.T) {
	svc := indexedService(t, "go_app")
	ctx := context.Background()

	moduleNames := func(sc ScopeContributions) []string {
		out := make([]string, len(sc.Modules))
		for i, m := range sc.Modules {
			out[i] = m.Name
		}
		return out
	}

	t.Run("one scope", func(t *testing.T) {
		_, out, err := svc.ListContributions(ctx, nil, ListContributionsInput{Scope: "app.AppScope"})
		require.NoError(t, err)
		require.Len(t, out.Scopes, 1)
		assert.Equal(t, []string{"app.NetworkModule", "app.LegacyModule", "app.MetricsModule"}, moduleNames(out.Scopes[0]))
		assert.Equal(t, graph.SymbolKindModule, out.Scopes[0].Modules[0].Kind)
	})

	t.Run("every scope", func(t *testing.T) {
		_, out, err := svc.ListContributions(ctx, nil, ListContributionsInput{})
		require.NoError(t, err)
		require.Len(t, out.Scopes, 1)
		assert.Equal(t, "app.AppScope", out.Scopes[0].Scope)
	})

	t.Run("unknown scope", func(t *testing.T) {
		_, out, err := svc.ListContributions(ctx, nil, ListContributionsInput{Scope: "app.Nope"})
		require.NoError(t, err)
		require.Len(t, out.Scopes, 1)
		assert.Empty(t, out.Scopes[0].Modules)
	})
}

func TestQuerySymbols(t *testing.T) {
	svc := indexedService(t, "go_app")
	ctx := context.Background()

	t.Run("substring match", func(t *testing.T) {
		_, out, err := svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "module"})
		require.NoError(t, err)
		assert.Equal(t, 3, out.Total)
	})

	t.Run("kind filter", func(t *testing.T) {
		_, out, err := svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "App", Kind: "merge"})
		require.NoError(t, err)
		require.Equal(t, 1, out.Total)
		assert.Equal(t, "app.AppComponent", out.Symbols[0].Name)
	})

	t.Run("limit", func(t *testing.T) {
		_, out, err := svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "Module", Limit: 2})
		require.NoError(t, err)
		assert.Equal(t, 2, out.Total)
		assert.Len(t, out.Symbols, 2)
	})

	t.Run("no match", func(t *testing.T) {
		_, out, err := svc.QuerySymbols(ctx, nil, QuerySymbolsInput{Query: "zzz"})
		require.NoError(t, err)
		assert.Zero(t, out.Total)
		assert.NotNil(t, out.Symbols)
	})
}
