package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/scopemerge/internal/config"
	"github.com/dusk-indust/scopemerge/internal/initdata"
)

// mcpConfig represents the structure of a .mcp.json file.
type mcpConfig struct {
	MCPServers map[string]json.RawMessage `json:"mcpServers"`
}

// scopemergeMCPEntry is the MCP server configuration for the scopemerge binary.
var scopemergeMCPEntry = json.RawMessage(`{
  "type": "stdio",
  "command": "scopemerge",
  "args": ["serve-mcp"]
}`)

func (a *app) initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create scopemerge.yml and register the MCP server",
		Long: `Writes a commented default scopemerge.yml into dir (default: the current
directory) and adds a scopemerge entry to its .mcp.json. Existing files and
entries are kept unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(a.stdout, pathArg(args, 0), force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files and entries")
	return cmd
}

// runInit installs the default config file and MCP configuration into the
// target project directory.
func runInit(w io.Writer, projectRoot string, force bool) error {
	abs, err := filepath.Abs(projectRoot)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}

	if err := writeDefaultConfig(w, abs, force); err != nil {
		return err
	}
	if err := mergeMCPConfig(w, filepath.Join(abs, ".mcp.json"), force); err != nil {
		return err
	}

	fmt.Fprintln(w, "\nSetup complete. Run 'scopemerge check' to validate the project.")
	return nil
}

// writeDefaultConfig writes scopemerge.yml unless a config file exists.
func writeDefaultConfig(w io.Writer, dir string, force bool) error {
	dest := filepath.Join(dir, config.FileNames[0])
	if !force {
		for _, name := range config.FileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				fmt.Fprintf(w, "  skipped %s (exists, use --force to overwrite)\n", dotRelative(dir, path))
				return nil
			}
		}
	}
	if err := os.WriteFile(dest, initdata.DefaultConfig, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", dest, err)
	}
	fmt.Fprintf(w, "  created %s\n", dotRelative(dir, dest))
	return nil
}

// mergeMCPConfig creates or merges the scopemerge entry into .mcp.json.
func mergeMCPConfig(w io.Writer, mcpPath string, force bool) error {
	var cfg mcpConfig

	data, err := os.ReadFile(mcpPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parsing %s: %w", mcpPath, err)
		}
	case !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("reading %s: %w", mcpPath, err)
	}

	if cfg.MCPServers == nil {
		cfg.MCPServers = make(map[string]json.RawMessage)
	}

	if _, exists := cfg.MCPServers["scopemerge"]; exists && !force {
		fmt.Fprintln(w, "  skipped .mcp.json scopemerge entry (exists, use --force to overwrite)")
		return nil
	}

	cfg.MCPServers["scopemerge"] = scopemergeMCPEntry

	out, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling .mcp.json: %w", err)
	}

	if err := os.WriteFile(mcpPath, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", mcpPath, err)
	}

	action := "created"
	if data != nil {
		action = "updated"
	}
	fmt.Fprintf(w, "  %s .mcp.json with scopemerge MCP server\n", action)
	return nil
}

// dotRelative returns a display path relative to the project root, prefixed
// with "./".
func dotRelative(base, path string) string {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return path
	}
	return "./" + rel
}
