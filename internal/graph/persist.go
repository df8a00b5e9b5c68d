package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// ErrNoResult is returned by Persist when there is no run to persist.
var ErrNoResult = errors.New("graph: nil universe or result")

// Persist projects a merge run into store: every symbol, the contributions
// that made it into the index with their replaces, and the resolved set of
// every request. Symbols sharing a qualified name are stored once.
func Persist(ctx context.Context, store Store, u *merge.Universe, res *merge.Result) error {
	if u == nil || u.Symbols == nil || res == nil {
		return ErrNoResult
	}

	scopes := make(map[merge.MemberRef]bool)
	for _, c := range u.Contributions {
		scopes[merge.MemberRef(c.Scope)] = true
	}
	for _, r := range u.Requests {
		scopes[merge.MemberRef(r.Scope)] = true
	}

	seen := make(map[string]bool, u.Symbols.Len())
	for _, ref := range u.Symbols.Refs() {
		sym, _ := u.Symbols.Symbol(ref)
		if seen[sym.Name] {
			continue
		}
		seen[sym.Name] = true
		if err := store.AddSymbol(ctx, toSymbolNode(sym, scopes[ref])); err != nil {
			return fmt.Errorf("persist symbol %s: %w", sym.Name, err)
		}
	}

	w := &edgeWriter{store: store, seen: make(map[edgeKey]bool)}
	name := u.Symbols.Name

	if res.Index != nil {
		for _, scope := range res.Index.Scopes() {
			scopeName := u.Symbols.ScopeName(scope)
			pos := 0
			for _, c := range res.Index.Lookup(scope) {
				member := name(c.Member)
				if w.add(ctx, Edge{SourceID: member, TargetID: scopeName, Kind: EdgeKindContributesTo, Position: pos}) {
					pos++
				}
				for _, target := range c.Replaces {
					if target == c.Member {
						continue
					}
					w.add(ctx, Edge{SourceID: member, TargetID: name(target), Kind: EdgeKindReplaces, Scope: scopeName})
				}
			}
		}
	}

	positions := make(map[string]int)
	for _, o := range res.Outcomes {
		target := name(o.Request.Target)
		w.add(ctx, Edge{SourceID: target, TargetID: u.Symbols.ScopeName(o.Request.Scope), Kind: EdgeKindMerges})
		for _, ref := range o.Set.Includes {
			if w.add(ctx, Edge{SourceID: target, TargetID: name(ref), Kind: EdgeKindIncludes, Position: positions[target]}) {
				positions[target]++
			}
		}
		for _, ref := range o.Set.SubMembers {
			if w.add(ctx, Edge{SourceID: target, TargetID: name(ref), Kind: EdgeKindSubcomponent, Position: positions[target]}) {
				positions[target]++
			}
		}
		for _, ref := range o.Request.ExplicitExcludes {
			w.add(ctx, Edge{SourceID: target, TargetID: name(ref), Kind: EdgeKindExcludes})
		}
	}
	return w.err
}

// edgeWriter adds each distinct edge once and keeps the first error. Edges
// differing only in position are the same edge.
type edgeWriter struct {
	store Store
	seen  map[edgeKey]bool
	err   error
}

type edgeKey struct {
	kind           EdgeKind
	source, target string
	scope          string
}

// add stores e unless it was stored before and reports whether it did.
func (w *edgeWriter) add(ctx context.Context, e Edge) bool {
	key := edgeKey{kind: e.Kind, source: e.SourceID, target: e.TargetID, scope: e.Scope}
	if w.err != nil || w.seen[key] {
		return false
	}
	w.seen[key] = true
	if err := w.store.AddEdge(ctx, e); err != nil {
		w.err = fmt.Errorf("persist %s edge %s -> %s: %w", e.Kind, e.SourceID, e.TargetID, err)
		return false
	}
	return true
}

func toSymbolNode(sym merge.Symbol, isScope bool) SymbolNode {
	return SymbolNode{
		Name:       sym.Name,
		Kind:       symbolKind(sym, isScope),
		Visibility: string(sym.Visibility),
		File:       sym.Location.File,
		Line:       sym.Location.Line,
		Column:     sym.Location.Column,
	}
}

// symbolKind picks the most specific kind: external, then merge target, then
// module, then scope.
func symbolKind(sym merge.Symbol, isScope bool) SymbolKind {
	switch {
	case sym.External:
		return SymbolKindExternal
	case sym.Merge:
		return SymbolKindMerge
	case sym.Module:
		return SymbolKindModule
	case isScope:
		return SymbolKindScope
	}
	return SymbolKindType
}
