package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/scopemerge/internal/orchestrator"
)

func (a *app) indexCmd() *cobra.Command {
	var (
		pf        projectFlags
		graphFlag string
	)
	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Persist the merge graph of a project",
		Long: `Loads and resolves the project at path (default: the current directory) and
writes its merge graph to the graph database (default: .scopemerge/graph in
the project root). A graph written by a previous index at that location is
replaced; any other existing file or directory there is left alone and the
command fails. The graph path may not contain the project.

The graph is written even when errors are found; the command then exits
with status 1.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := pathArg(args, 0)
			run, err := a.check(cmd.Context(), root, pf)
			if err != nil {
				return err
			}
			path, err := a.graphPath(graphFlag, root, run.Config)
			if err != nil {
				return err
			}

			store, err := createGraphStore(path, root)
			if err != nil {
				return err
			}
			defer store.Close()

			stats, err := orchestrator.Index(cmd.Context(), store, run)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			fmt.Fprintf(a.stdout, "indexed %d symbols, %d contributions, %d merge targets into %s\n",
				stats.SymbolCount, stats.ContributionCount, stats.MergeCount, path)

			if !run.OK() {
				return &ExitError{Code: 1, Err: fmt.Errorf("%d error(s); run 'scopemerge check' for details", len(run.Result.Errors()))}
			}
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVar(&graphFlag, "graph", "", "graph database path (default: graphPath from the config)")
	return cmd
}
