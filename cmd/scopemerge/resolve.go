package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/scopemerge/internal/export"
)

func (a *app) resolveCmd() *cobra.Command {
	var (
		pf     projectFlags
		format string
	)
	cmd := &cobra.Command{
		Use:   "resolve <target> [path]",
		Short: "Show what one merge target resolves to",
		Long: `Loads the project at path (default: the current directory) and prints the
resolved includes and subcomponents of the merge target. The target may be
given by qualified name or by a simple name that matches one target.

Exits with status 1, printing the errors to stderr, when the target must not
be generated.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}
			run, err := a.check(cmd.Context(), pathArg(args, 1), pf)
			if err != nil {
				return err
			}
			rr, err := run.Report.Find(args[0])
			if err != nil {
				return err
			}

			if format == formatJSON {
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				err = enc.Encode(rr)
			} else {
				err = export.WriteRequest(a.stdout, rr)
			}
			if err != nil {
				return err
			}

			if !rr.Generate {
				if err := export.WriteText(a.stderr, run.Result.Errors()); err != nil {
					return err
				}
				return &ExitError{Code: 1, Err: fmt.Errorf("%s is blocked by %d error(s)", rr.Target, len(run.Result.Errors()))}
			}
			return nil
		},
	}
	pf.register(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json")
	return cmd
}
