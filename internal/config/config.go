package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/dusk-indust/scopemerge/internal/source"
)

// FileNames are the config file names looked up in a project root, in order.
var FileNames = []string{"scopemerge.yml", "scopemerge.yaml"}

// DefaultGraphPath is where the persistent graph lives, relative to the
// project root.
const DefaultGraphPath = ".scopemerge/graph"

// ProjectConfig holds project-level settings loaded from scopemerge.yml.
type ProjectConfig struct {
	Languages     []string            `yaml:"languages,omitempty"`
	ExcludeDirs   []string            `yaml:"excludeDirs,omitempty"`
	Workers       int                 `yaml:"workers,omitempty"`
	FileLabel     string              `yaml:"fileLabel,omitempty"`
	CheckIncludes bool                `yaml:"checkIncludes,omitempty"`
	GraphPath     string              `yaml:"graphPath,omitempty"`
	Annotations   *source.Annotations `yaml:"annotations,omitempty"`
}

// Load attempts to read scopemerge.yml or scopemerge.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range FileNames {
		cfg, err := LoadFile(filepath.Join(dir, name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return &ProjectConfig{}, nil
}

// LoadFile reads and validates a config file at an explicit path.
func LoadFile(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Validate rejects unknown languages and file label styles.
func (c *ProjectConfig) Validate() error {
	known := make(map[string]bool, len(source.AllLanguages))
	for _, l := range source.AllLanguages {
		known[string(l)] = true
	}
	for _, l := range c.Languages {
		if !known[l] {
			return fmt.Errorf("unknown language %q", l)
		}
	}
	switch c.FileLabel {
	case "", source.LabelRelative, source.LabelBase:
	default:
		return fmt.Errorf("unknown fileLabel %q (want %q or %q)", c.FileLabel, source.LabelRelative, source.LabelBase)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	return nil
}

// AnnotationNames returns the configured annotation names. Kinds left empty
// keep their defaults.
func (c *ProjectConfig) AnnotationNames() source.Annotations {
	names := source.DefaultAnnotations()
	if c.Annotations == nil {
		return names
	}
	if len(c.Annotations.Contributes) > 0 {
		names.Contributes = c.Annotations.Contributes
	}
	if len(c.Annotations.Merge) > 0 {
		names.Merge = c.Annotations.Merge
	}
	if len(c.Annotations.Module) > 0 {
		names.Module = c.Annotations.Module
	}
	return names
}

// LoadOptions converts the config into options for source.Load.
func (c *ProjectConfig) LoadOptions(logger *zap.Logger) source.LoadOptions {
	langs := make([]source.Language, 0, len(c.Languages))
	for _, l := range c.Languages {
		langs = append(langs, source.Language(l))
	}
	return source.LoadOptions{
		Languages:   langs,
		ExcludeDirs: c.ExcludeDirs,
		FileLabel:   c.FileLabel,
		Workers:     c.Workers,
		Logger:      logger,
	}
}

// ResolveGraphPath returns the graph database path for a project root.
func (c *ProjectConfig) ResolveGraphPath(root string) string {
	p := c.GraphPath
	if p == "" {
		p = DefaultGraphPath
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
