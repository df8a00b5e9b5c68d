package mcptools

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewResolverMCPServer creates an MCP server with the merge resolution tools
// registered.
func NewResolverMCPServer(svc *ResolverService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "scopemerge",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "index_project",
		Description: "Parse a project, validate its contributions and resolve every merge request. Replaces the previously indexed project. Returns graph statistics and diagnostic counts.",
	}, svc.IndexProject)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "resolve_merge",
		Description: "Return the resolved includes and subcomponents of one merge target, whether it may be generated, and the modules it excludes.",
	}, svc.ResolveMerge)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_diagnostics",
		Description: "List the diagnostics of the indexed project sorted by location. Optionally filter by severity or file.",
	}, svc.GetDiagnostics)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_contributions",
		Description: "List the modules contributed to a scope in discovery order, or to every scope when none is given. Only valid contributions are listed.",
	}, svc.ListContributions)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "query_symbols",
		Description: "Search for modules, merge targets, scopes and other symbols by name substring match. Optionally filter by symbol kind and limit results.",
	}, svc.QuerySymbols)

	return server
}

// RunMCPServer starts an HTTP server exposing the MCP tools.
func RunMCPServer(ctx context.Context, svc *ResolverService, addr string) error {
	server := NewResolverMCPServer(svc)

	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// RunMCPServerStdio runs the MCP server on stdio transport, blocking until
// stdin is closed or the context is cancelled.
func RunMCPServerStdio(ctx context.Context, svc *ResolverService) error {
	return NewResolverMCPServer(svc).Run(ctx, &mcp.StdioTransport{})
}
