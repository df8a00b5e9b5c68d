package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/scopemerge/internal/mcptools"
)

func (a *app) serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve-mcp",
		Short: "Run the MCP server",
		Long: `Serves the index_project, resolve_merge, get_diagnostics,
list_contributions and query_symbols tools over MCP. Uses stdio unless --http
is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := mcptools.NewResolverService(mcpStoreFactory(), a.logger)
			defer svc.Close()

			if addr == "" {
				return mcptools.RunMCPServerStdio(cmd.Context(), svc)
			}
			a.logger.Info("serving MCP over HTTP", zap.String("addr", addr))
			if err := mcptools.RunMCPServer(cmd.Context(), svc, addr); err != nil {
				return fmt.Errorf("serve %s: %w", addr, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "http", "", "serve streamable HTTP on this address (e.g. :8080) instead of stdio")
	return cmd
}

func (a *app) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(a.stdout, version)
			return err
		},
	}
}
