package mcptools

import (
	"github.com/dusk-indust/scopemerge/internal/export"
	"github.com/dusk-indust/scopemerge/internal/graph"
)

// --- MCP Tool Input Types ---
// These structs define the JSON schema for each MCP tool's input.
// The MCP Go SDK auto-generates JSON schemas from struct tags.

// IndexProjectInput is the input for the index_project MCP tool.
type IndexProjectInput struct {
	ProjectRoot   string   `json:"projectRoot" jsonschema:"the absolute path to the project (or a single source file) to index"`
	ConfigPath    string   `json:"configPath,omitempty" jsonschema:"explicit config file (default: scopemerge.yml in the project root)"`
	Languages     []string `json:"languages,omitempty" jsonschema:"languages to index (default: all). Values: go, java, python, rust, typescript"`
	ExcludeDirs   []string `json:"excludeDirs,omitempty" jsonschema:"directories to exclude from indexing (e.g. vendor, node_modules)"`
	CheckIncludes bool     `json:"checkIncludes,omitempty" jsonschema:"require explicit includes, subcomponents and excludes to be modules"`
}

// IndexProjectOutput is the result of the index_project MCP tool.
type IndexProjectOutput struct {
	OK       bool             `json:"ok"`
	Requests int              `json:"requests"`
	Errors   int              `json:"errors"`
	Warnings int              `json:"warnings"`
	Stats    graph.GraphStats `json:"stats"`
}

// ResolveMergeInput is the input for the resolve_merge MCP tool.
type ResolveMergeInput struct {
	Target string `json:"target" jsonschema:"qualified or unique simple name of the merge target"`
}

// ResolveMergeOutput is the result of the resolve_merge MCP tool.
type ResolveMergeOutput struct {
	Request  export.RequestReport `json:"request"`
	Excludes []string             `json:"excludes"`
}

// GetDiagnosticsInput is the input for the get_diagnostics MCP tool.
type GetDiagnosticsInput struct {
	Severity string `json:"severity,omitempty" jsonschema:"filter by severity: error or warning"`
	File     string `json:"file,omitempty" jsonschema:"filter by file label as reported in diagnostics"`
}

// GetDiagnosticsOutput is the result of the get_diagnostics MCP tool.
type GetDiagnosticsOutput struct {
	OK          bool                      `json:"ok"`
	Diagnostics []export.DiagnosticReport `json:"diagnostics"`
}

// ListContributionsInput is the input for the list_contributions MCP tool.
type ListContributionsInput struct {
	Scope string `json:"scope,omitempty" jsonschema:"qualified scope name (default: every scope)"`
}

// ListContributionsOutput is the result of the list_contributions MCP tool.
type ListContributionsOutput struct {
	Scopes []ScopeContributions `json:"scopes"`
}

// ScopeContributions lists the modules contributed to one scope, in
// discovery order.
type ScopeContributions struct {
	Scope   string             `json:"scope"`
	Modules []graph.SymbolNode `json:"modules"`
}

// QuerySymbolsInput is the input for the query_symbols MCP tool.
type QuerySymbolsInput struct {
	Query string `json:"query" jsonschema:"search query for symbol names (substring match)"`
	Kind  string `json:"kind,omitempty" jsonschema:"filter by symbol kind: module, merge, scope, type, external"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results (default: 20)"`
}

// QuerySymbolsOutput is the result of the query_symbols MCP tool.
type QuerySymbolsOutput struct {
	Symbols []graph.SymbolNode `json:"symbols"`
	Total   int                `json:"total"`
}
