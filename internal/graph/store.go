package graph

import (
	"context"
	"io"
)

// Store is the interface for the merge graph backend.
// Implementations: KuzuStore (production), MemStore (testing and no-cgo builds).
type Store interface {
	io.Closer

	// Schema setup, called once before any data is inserted.
	InitSchema(ctx context.Context) error

	// Write operations. Edges reference symbols by name; both ends must
	// have been added first.
	AddSymbol(ctx context.Context, node SymbolNode) error
	AddEdge(ctx context.Context, edge Edge) error

	// Read operations. Missing symbols and targets yield nil, nil.
	GetSymbol(ctx context.Context, name string) (*SymbolNode, error)
	QuerySymbols(ctx context.Context, query string, limit int) ([]SymbolNode, error)
	Contributors(ctx context.Context, scope string) ([]string, error)
	Resolved(ctx context.Context, target string) (*Resolution, error)
	GetAllEdges(ctx context.Context) ([]Edge, error)

	// Stats.
	Stats(ctx context.Context) (*GraphStats, error)
}
