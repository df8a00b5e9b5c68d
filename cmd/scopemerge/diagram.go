package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/scopemerge/internal/export"
	"github.com/dusk-indust/scopemerge/internal/graph"
	"github.com/dusk-indust/scopemerge/internal/orchestrator"
)

func (a *app) diagramCmd() *cobra.Command {
	var (
		pf        projectFlags
		graphFlag string
		rebuild   bool
	)
	cmd := &cobra.Command{
		Use:   "diagram [path]",
		Short: "Print a Mermaid diagram of the merge graph",
		Long: `Reads the graph written by 'scopemerge index' and prints it as a Mermaid
flowchart: one subgraph per scope, replaces as dashed arrows and every merge
target pointing at what it resolves to.

With --rebuild the project is loaded and resolved in memory instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root := pathArg(args, 0)

			var store graph.Store
			if rebuild {
				run, err := a.check(ctx, root, pf)
				if err != nil {
					return err
				}
				store = graph.NewMemStore()
				if _, err := orchestrator.Index(ctx, store, run); err != nil {
					return fmt.Errorf("index: %w", err)
				}
			} else {
				path, err := a.graphPath(graphFlag, root, nil)
				if err != nil {
					return err
				}
				if store, err = openGraphStore(path); err != nil {
					return err
				}
			}
			defer store.Close()

			mermaid, err := export.GenerateMermaid(ctx, store)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(a.stdout, mermaid)
			return err
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&graphFlag, "graph", "", "graph database path (default: graphPath from the config)")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "resolve the project in memory instead of reading the stored graph")
	return cmd
}
