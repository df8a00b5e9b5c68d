//go:build !cgo

package main

import (
	"errors"

	"github.com/dusk-indust/scopemerge/internal/graph"
	"github.com/dusk-indust/scopemerge/internal/mcptools"
)

var errNoGraphDB = errors.New("the graph database requires a cgo build; use 'diagram --rebuild' instead")

func createGraphStore(_, _ string) (graph.Store, error) {
	return nil, errNoGraphDB
}

func openGraphStore(string) (graph.Store, error) {
	return nil, errNoGraphDB
}

// mcpStoreFactory selects the in-memory store.
func mcpStoreFactory() mcptools.StoreFactory {
	return nil
}
