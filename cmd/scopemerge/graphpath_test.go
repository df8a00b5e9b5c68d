package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newProject creates a project directory holding one source file.
func newProject(t *testing.T) (root, src string) {
	t.Helper()
	root = t.TempDir()
	src = filepath.Join(root, "Source.java")
	require.NoError(t, os.WriteFile(src, []byte("class Source {}\n"), 0o644))
	return root, src
}

func TestPrepareGraphPath_RefusesProjectAndAncestors(t *testing.T) {
	root, src := newProject(t)

	for name, path := range map[string]string{
		"root":        root,
		"parent":      filepath.Dir(root),
		"dot segment": filepath.Join(root, "sub", ".."),
	} {
		t.Run(name, func(t *testing.T) {
			err := prepareGraphPath(path, root)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "contains the project")
			assert.FileExists(t, src)
		})
	}

	t.Run("single file root", func(t *testing.T) {
		err := prepareGraphPath(root, src)
		require.Error(t, err)
		assert.FileExists(t, src)
	})
}

func TestPrepareGraphPath_RefusesUnmarkedPaths(t *testing.T) {
	root, src := newProject(t)

	t.Run("source file", func(t *testing.T) {
		err := prepareGraphPath(src, root)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not written by 'scopemerge index'")
		assert.FileExists(t, src)
	})

	t.Run("source directory", func(t *testing.T) {
		dir := filepath.Join(root, "pkg")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		nested := filepath.Join(dir, "Nested.java")
		require.NoError(t, os.WriteFile(nested, nil, 0o644))

		require.Error(t, prepareGraphPath(dir, root))
		assert.FileExists(t, nested)
	})
}

func TestPrepareGraphPath_ReplacesMarkedGraph(t *testing.T) {
	root, src := newProject(t)
	path := filepath.Join(root, ".scopemerge", "graph")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))
	require.NoError(t, markGraph(path))

	require.NoError(t, prepareGraphPath(path, root))
	assert.NoFileExists(t, path)
	assert.FileExists(t, src)
}

func TestPrepareGraphPath_CreatesParent(t *testing.T) {
	root, _ := newProject(t)
	path := filepath.Join(root, ".scopemerge", "graph")

	require.NoError(t, prepareGraphPath(path, root))
	assert.DirExists(t, filepath.Dir(path))
	assert.NoFileExists(t, path)
}

func TestContains(t *testing.T) {
	sep := string(filepath.Separator)
	assert.True(t, contains(sep+"a", sep+"a"))
	assert.True(t, contains(sep+"a", filepath.Join(sep+"a", "b")))
	assert.False(t, contains(filepath.Join(sep+"a", "b"), sep+"a"))
	assert.False(t, contains(filepath.Join(sep+"a", "b"), filepath.Join(sep+"a", "..b")))
}
