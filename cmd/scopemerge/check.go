package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/scopemerge/internal/export"
)

func (a *app) checkCmd() *cobra.Command {
	var (
		pf     projectFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Validate every contribution and merge request in a project",
		Long: `Parses the project at path (default: the current directory), validates
every contribution and merge request and prints one line per diagnostic.

Exits with status 1 when any error diagnostic is reported.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			run, err := a.check(cmd.Context(), pathArg(args, 0), pf)
			if err != nil {
				return err
			}

			if format == formatJSON {
				err = export.WriteJSON(a.stdout, run.Report)
			} else {
				err = export.WriteText(a.stdout, run.Result.Diagnostics)
			}
			if err != nil {
				return err
			}

			if !run.OK() {
				if format == formatText {
					fmt.Fprintf(a.stderr, "%d error(s) in %d merge request(s)\n", len(run.Result.Errors()), len(run.Report.Requests))
				}
				return &ExitError{Code: 1}
			}
			if format == formatText {
				fmt.Fprintf(a.stderr, "ok: %d merge request(s) resolved\n", len(run.Report.Requests))
			}
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json")
	return cmd
}
