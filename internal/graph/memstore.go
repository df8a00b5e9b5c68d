package graph

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu      sync.RWMutex
	symbols map[string]SymbolNode
	edges   []Edge
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{
		symbols: make(map[string]SymbolNode),
	}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// AddSymbol stores a symbol node keyed by name, replacing any earlier node.
func (m *MemStore) AddSymbol(_ context.Context, node SymbolNode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbols[node.Name] = node
	return nil
}

// AddEdge appends an edge to the internal slice.
func (m *MemStore) AddEdge(_ context.Context, edge Edge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.edges = append(m.edges, edge)
	return nil
}

// GetSymbol returns the symbol with the given name, or nil if not found.
func (m *MemStore) GetSymbol(_ context.Context, name string) (*SymbolNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.symbols[name]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

// QuerySymbols returns symbols whose name contains query (case-insensitive),
// ordered by name, up to limit results. A limit <= 0 returns all matches.
func (m *MemStore) QuerySymbols(_ context.Context, query string, limit int) ([]SymbolNode, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lowerQuery := strings.ToLower(query)
	var results []SymbolNode
	for _, sym := range m.symbols {
		if strings.Contains(strings.ToLower(sym.Name), lowerQuery) {
			results = append(results, sym)
		}
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Contributors returns the modules contributed to scope in discovery order.
func (m *MemStore) Contributors(_ context.Context, scope string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	edges := m.edgesWhere(func(e Edge) bool {
		return e.Kind == EdgeKindContributesTo && e.TargetID == scope
	})
	return uniqueSources(edges), nil
}

// Resolved returns the stored resolution of target's merge request, or nil
// if target has none. Excludes are sorted by name.
func (m *MemStore) Resolved(_ context.Context, target string) (*Resolution, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	merges := m.edgesWhere(func(e Edge) bool {
		return e.Kind == EdgeKindMerges && e.SourceID == target
	})
	if len(merges) == 0 {
		return nil, nil
	}
	from := func(kind EdgeKind) []string {
		return targets(m.edgesWhere(func(e Edge) bool {
			return e.Kind == kind && e.SourceID == target
		}))
	}
	excludes := from(EdgeKindExcludes)
	sort.Strings(excludes)
	return &Resolution{
		Target:     target,
		Scope:      merges[0].TargetID,
		Includes:   from(EdgeKindIncludes),
		SubMembers: from(EdgeKindSubcomponent),
		Excludes:   excludes,
	}, nil
}

// GetAllEdges returns a copy of all edges in the store.
func (m *MemStore) GetAllEdges(_ context.Context) ([]Edge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Edge, len(m.edges))
	copy(out, m.edges)
	return out, nil
}

// Stats returns counts of symbols and edges in the graph.
func (m *MemStore) Stats(_ context.Context) (*GraphStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &GraphStats{
		SymbolCount: len(m.symbols),
		EdgeCount:   len(m.edges),
	}
	for _, e := range m.edges {
		switch e.Kind {
		case EdgeKindContributesTo:
			stats.ContributionCount++
		case EdgeKindMerges:
			stats.MergeCount++
		}
	}
	return stats, nil
}

// Close is a no-op for the in-memory store.
func (m *MemStore) Close() error {
	return nil
}

// edgesWhere returns the matching edges ordered by position. Caller holds
// the lock.
func (m *MemStore) edgesWhere(match func(Edge) bool) []Edge {
	var out []Edge
	for _, e := range m.edges {
		if match(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out
}

func uniqueSources(edges []Edge) []string {
	seen := make(map[string]bool, len(edges))
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		if !seen[e.SourceID] {
			seen[e.SourceID] = true
			out = append(out, e.SourceID)
		}
	}
	return out
}

func targets(edges []Edge) []string {
	out := make([]string, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.TargetID)
	}
	return out
}
