package graph

// --- Enums ---

// SymbolKind classifies symbols within the merge graph.
type SymbolKind string

const (
	SymbolKindModule   SymbolKind = "module"
	SymbolKindMerge    SymbolKind = "merge"
	SymbolKindScope    SymbolKind = "scope"
	SymbolKindType     SymbolKind = "type"
	SymbolKindExternal SymbolKind = "external"
)

// EdgeKind classifies relationships between symbols.
type EdgeKind string

const (
	// EdgeKindContributesTo links a module to the scope it contributes to.
	// Position is the discovery order within the scope.
	EdgeKindContributesTo EdgeKind = "CONTRIBUTES_TO"
	// EdgeKindReplaces links a contributed module to a module it replaces.
	// Scope names the scope of the contribution.
	EdgeKindReplaces EdgeKind = "REPLACES"
	// EdgeKindMerges links a merge target to its scope.
	EdgeKindMerges EdgeKind = "MERGES"
	// EdgeKindIncludes links a merge target to a resolved include.
	EdgeKindIncludes EdgeKind = "INCLUDES"
	// EdgeKindSubcomponent links a merge target to a resolved sub-member.
	EdgeKindSubcomponent EdgeKind = "SUBCOMPONENT"
	// EdgeKindExcludes links a merge target to an explicit exclude.
	EdgeKindExcludes EdgeKind = "EXCLUDES"
)

// EdgeKinds lists every edge kind in schema order.
var EdgeKinds = []EdgeKind{
	EdgeKindContributesTo,
	EdgeKindReplaces,
	EdgeKindMerges,
	EdgeKindIncludes,
	EdgeKindSubcomponent,
	EdgeKindExcludes,
}

// --- Models ---

// SymbolNode is a declaration or referenced type. Name is the qualified name
// and is unique within a store.
type SymbolNode struct {
	Name       string     `json:"name"`
	Kind       SymbolKind `json:"kind"`
	Visibility string     `json:"visibility,omitempty"`
	File       string     `json:"file,omitempty"`
	Line       int        `json:"line,omitempty"`
	Column     int        `json:"column,omitempty"`
}

// Edge represents a relationship between two symbols, identified by name.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Kind     EdgeKind `json:"kind"`
	Position int      `json:"position,omitempty"`
	Scope    string   `json:"scope,omitempty"`
}

// Resolution is the stored result of resolving the merge request of Target.
type Resolution struct {
	Target     string   `json:"target"`
	Scope      string   `json:"scope"`
	Includes   []string `json:"includes"`
	SubMembers []string `json:"subcomponents"`
	Excludes   []string `json:"excludes,omitempty"`
}

// GraphStats summarizes a merge graph.
type GraphStats struct {
	SymbolCount       int `json:"symbolCount"`
	ContributionCount int `json:"contributionCount"`
	MergeCount        int `json:"mergeCount"`
	EdgeCount         int `json:"edgeCount"`
}
