//go:build cgo

package main

import (
	"fmt"
	"os"

	"github.com/dusk-indust/scopemerge/internal/graph"
	"github.com/dusk-indust/scopemerge/internal/mcptools"
)

// createGraphStore opens an empty file-backed graph at path for the project
// at root, replacing a graph written by a previous index.
func createGraphStore(path, root string) (graph.Store, error) {
	if err := prepareGraphPath(path, root); err != nil {
		return nil, err
	}
	store, err := graph.NewKuzuFileStore(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	if err := markGraph(path); err != nil {
		store.Close()
		return nil, fmt.Errorf("mark graph: %w", err)
	}
	return store, nil
}

// openGraphStore opens the graph written by a previous index.
func openGraphStore(path string) (graph.Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("no graph found at %s\nRun 'scopemerge index' first, or use --rebuild", path)
	}
	store, err := graph.NewKuzuFileStore(path)
	if err != nil {
		return nil, fmt.Errorf("open graph: %w", err)
	}
	return store, nil
}

// mcpStoreFactory backs the MCP server with in-memory KuzuDB stores.
func mcpStoreFactory() mcptools.StoreFactory {
	return func() (graph.Store, error) {
		store, err := graph.NewKuzuStore()
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}
