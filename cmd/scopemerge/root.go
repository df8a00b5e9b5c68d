package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dusk-indust/scopemerge/internal/config"
	"github.com/dusk-indust/scopemerge/internal/merge"
	"github.com/dusk-indust/scopemerge/internal/orchestrator"
)

// Output formats accepted by --format.
const (
	formatText = "text"
	formatJSON = "json"
)

// app carries the global flags and output streams shared by every command.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	verbose    bool

	logger *zap.Logger
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdout: stdout, stderr: stderr, logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "scopemerge",
		Short: "Resolve scope contributions into merged components",
		Long: `scopemerge indexes annotated declarations in a source tree, validates
every contribution and merge request, and reports what each merge target
resolves to.

Modules contribute themselves to a scope (optionally replacing other
contributions), and merge targets request the composite of a scope refined by
explicit includes, subcomponents and excludes.

Examples:
  scopemerge check                 Validate the project in the current directory
  scopemerge check --format json   Emit the full report as JSON
  scopemerge resolve AppComponent  Show what AppComponent merges
  scopemerge diagram --rebuild     Print a Mermaid diagram of the merge graph`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.initLogger()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default is scopemerge.yml in the project root)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging and per-request progress")

	root.AddCommand(
		a.checkCmd(),
		a.resolveCmd(),
		a.indexCmd(),
		a.diagramCmd(),
		a.initCmd(),
		a.serveCmd(),
		a.versionCmd(),
	)
	return root
}

// initLogger builds the production logger. Only warnings and errors are
// logged unless --verbose is set.
func (a *app) initLogger() error {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	if a.verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	return nil
}

// projectFlags are the source selection flags shared by the commands that
// load a project.
type projectFlags struct {
	languages     []string
	excludeDirs   []string
	checkIncludes bool
}

func (pf *projectFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&pf.languages, "languages", nil, "languages to parse (default: all, or the config file's list)")
	cmd.Flags().StringSliceVar(&pf.excludeDirs, "exclude", nil, "additional directory names to skip")
	cmd.Flags().BoolVar(&pf.checkIncludes, "check-includes", false, "require explicit includes, subcomponents and excludes to be modules")
}

// check loads and resolves the project at root. With --verbose the
// per-request progress is printed to stderr once the run completes.
func (a *app) check(ctx context.Context, root string, pf projectFlags) (*orchestrator.Run, error) {
	pipeline := orchestrator.NewPipeline(orchestrator.Config{
		ProjectRoot:   root,
		ConfigPath:    a.configPath,
		Languages:     pf.languages,
		ExcludeDirs:   pf.excludeDirs,
		CheckIncludes: pf.checkIncludes,
		Logger:        a.logger,
	})

	var (
		wg     sync.WaitGroup
		events []merge.ProgressEvent
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		for ev := range pipeline.Progress() {
			events = append(events, ev)
		}
	}()

	run, err := pipeline.Check(ctx)
	pipeline.Close()
	wg.Wait()
	if err != nil {
		return nil, err
	}

	if a.verbose {
		fmt.Fprintln(a.stderr, orchestrator.FormatHeader(root, len(run.Report.Requests)))
		for _, ev := range events {
			if ev.Status == merge.ProgressComplete || ev.Status == merge.ProgressFailed {
				fmt.Fprintln(a.stderr, merge.FormatProgress(ev))
			}
		}
	}
	return run, nil
}

// loadConfig reads the config that applies to root without loading the
// project.
func (a *app) loadConfig(root string) (*config.ProjectConfig, error) {
	if a.configPath != "" {
		return config.LoadFile(a.configPath)
	}
	return config.Load(projectDir(root))
}

// graphPath returns override when set, else the configured graph location
// of the project at root.
func (a *app) graphPath(override, root string, cfg *config.ProjectConfig) (string, error) {
	if override != "" {
		return override, nil
	}
	if cfg == nil {
		var err error
		if cfg, err = a.loadConfig(root); err != nil {
			return "", fmt.Errorf("load config: %w", err)
		}
	}
	return cfg.ResolveGraphPath(projectDir(root)), nil
}

// pathArg returns the optional project path argument, defaulting to the
// current directory.
func pathArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return "."
}

// projectDir returns root, or its directory when root names a file.
func projectDir(root string) string {
	if info, err := os.Stat(root); err == nil && !info.IsDir() {
		return filepath.Dir(root)
	}
	return root
}

func validateFormat(format string) error {
	switch format {
	case formatText, formatJSON:
		return nil
	default:
		return fmt.Errorf("unknown format %q (want %q or %q)", format, formatText, formatJSON)
	}
}
