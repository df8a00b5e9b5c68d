package export

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dusk-indust/scopemerge/internal/graph"
)

// GenerateMermaid produces a Mermaid graph TD diagram from a graph store.
// Contributors are grouped in one subgraph per scope, replaces become dashed
// arrows and each merge target points at its resolved includes. A module
// contributing to several scopes is drawn in the last of them.
func GenerateMermaid(ctx context.Context, store graph.Store) (string, error) {
	edges, err := store.GetAllEdges(ctx)
	if err != nil {
		return "", fmt.Errorf("get edges: %w", err)
	}
	sortEdges(edges)

	// Build node → ID mapping for Mermaid (alphanumeric only).
	nodeIDs := make(map[string]string)
	var order []string
	getID := func(name string) string {
		if id, ok := nodeIDs[name]; ok {
			return id
		}
		id := fmt.Sprintf("N%d", len(nodeIDs))
		nodeIDs[name] = id
		order = append(order, name)
		return id
	}

	scopes := make(map[string][]string)
	var scopeNames []string
	targets := make(map[string]bool)
	for _, e := range edges {
		switch e.Kind {
		case graph.EdgeKindContributesTo:
			if _, ok := scopes[e.TargetID]; !ok {
				scopeNames = append(scopeNames, e.TargetID)
			}
			scopes[e.TargetID] = append(scopes[e.TargetID], e.SourceID)
		case graph.EdgeKindMerges:
			targets[e.SourceID] = true
		}
	}
	sort.Strings(scopeNames)

	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := make(map[string]bool)
	for _, scope := range scopeNames {
		fmt.Fprintf(&sb, "  subgraph %s[\"%s\"]\n", getID(scope), shortName(scope))
		declared[scope] = true
		for _, member := range scopes[scope] {
			fmt.Fprintf(&sb, "    %s[\"%s\"]\n", getID(member), shortName(member))
			declared[member] = true
		}
		sb.WriteString("  end\n")
	}

	var body strings.Builder
	for _, e := range edges {
		src, dst := getID(e.SourceID), getID(e.TargetID)
		switch e.Kind {
		case graph.EdgeKindReplaces:
			fmt.Fprintf(&body, "  %s -. replaces .-> %s\n", src, dst)
		case graph.EdgeKindIncludes:
			fmt.Fprintf(&body, "  %s ==> %s\n", src, dst)
		case graph.EdgeKindSubcomponent:
			fmt.Fprintf(&body, "  %s -->|subcomponent| %s\n", src, dst)
		case graph.EdgeKindExcludes:
			fmt.Fprintf(&body, "  %s --x %s\n", src, dst)
		}
	}

	// Nodes outside every subgraph need a label of their own.
	for _, name := range order {
		if declared[name] {
			continue
		}
		if targets[name] {
			fmt.Fprintf(&sb, "  %s[[\"%s\"]]\n", nodeIDs[name], shortName(name))
			continue
		}
		fmt.Fprintf(&sb, "  %s[\"%s\"]\n", nodeIDs[name], shortName(name))
	}
	sb.WriteString(body.String())

	return sb.String(), nil
}

// sortEdges orders edges by kind, source, position, then target so the
// diagram does not depend on store iteration order.
func sortEdges(edges []graph.Edge) {
	rank := make(map[graph.EdgeKind]int, len(graph.EdgeKinds))
	for i, k := range graph.EdgeKinds {
		rank[k] = i
	}
	sort.SliceStable(edges, func(i, j int) bool {
		a, b := edges[i], edges[j]
		if a.Kind != b.Kind {
			return rank[a.Kind] < rank[b.Kind]
		}
		if a.Kind == graph.EdgeKindContributesTo {
			if a.TargetID != b.TargetID {
				return a.TargetID < b.TargetID
			}
			return a.Position < b.Position
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		return a.TargetID < b.TargetID
	})
}

// shortName returns the last segment of a qualified name for readability.
func shortName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 && i < len(name)-1 {
		return name[i+1:]
	}
	return name
}
