package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// graphMarkerSuffix names the file written next to every graph database
// created by index. Only paths carrying it are ever replaced.
const graphMarkerSuffix = ".scopemerge"

func graphMarker(path string) string {
	return path + graphMarkerSuffix
}

// prepareGraphPath clears the way for a new graph at path. It refuses a path
// that equals or contains the project at root, and a path that already
// exists without the marker of a previous index.
func prepareGraphPath(path, root string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	absRoot, err := filepath.Abs(projectDir(root))
	if err != nil {
		return err
	}
	if contains(absPath, absRoot) {
		return fmt.Errorf("refusing to write the graph to %s: it contains the project %s", path, root)
	}

	if _, err := os.Lstat(absPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return os.MkdirAll(filepath.Dir(absPath), 0o755)
		}
		return err
	}
	if _, err := os.Stat(graphMarker(absPath)); err != nil {
		return fmt.Errorf("refusing to replace %s: it was not written by 'scopemerge index'", path)
	}
	if err := os.RemoveAll(absPath); err != nil {
		return fmt.Errorf("remove old graph: %w", err)
	}
	return nil
}

// markGraph records that the graph at path is owned by scopemerge.
func markGraph(path string) error {
	return os.WriteFile(graphMarker(path), []byte("scopemerge graph database\n"), 0o644)
}

// contains reports whether dir is target or one of its ancestors.
func contains(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
