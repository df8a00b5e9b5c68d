package orchestrator

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/dusk-indust/scopemerge/internal/config"
)

// Config holds runtime configuration for one check of a project.
type Config struct {
	// ProjectRoot is the directory to check. A single source file is
	// accepted too; its directory then holds the config file.
	ProjectRoot string

	// ConfigPath is an explicit config file. Empty means scopemerge.yml or
	// scopemerge.yaml in the project directory, if present.
	ConfigPath string

	// Languages, when set, replaces the configured languages.
	Languages []string

	// ExcludeDirs are added to the configured excluded directories.
	ExcludeDirs []string

	// CheckIncludes enables include checking even when the config file
	// leaves it off.
	CheckIncludes bool

	Logger *zap.Logger
}

// projectConfig loads the project config and applies the overrides in c.
func (c Config) projectConfig() (*config.ProjectConfig, error) {
	var (
		pc  *config.ProjectConfig
		err error
	)
	if c.ConfigPath != "" {
		pc, err = config.LoadFile(c.ConfigPath)
	} else {
		pc, err = config.Load(c.configDir())
	}
	if err != nil {
		return nil, err
	}

	if len(c.Languages) > 0 {
		pc.Languages = c.Languages
	}
	pc.ExcludeDirs = append(pc.ExcludeDirs, c.ExcludeDirs...)
	pc.CheckIncludes = pc.CheckIncludes || c.CheckIncludes
	if err := pc.Validate(); err != nil {
		return nil, err
	}
	return pc, nil
}

func (c Config) configDir() string {
	if info, err := os.Stat(c.ProjectRoot); err == nil && !info.IsDir() {
		return filepath.Dir(c.ProjectRoot)
	}
	return c.ProjectRoot
}
