package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

const fixtures = "../../testdata/fixtures/"

func loadFixture(t *testing.T, dir string, opts LoadOptions) *Project {
	t.Helper()
	p := NewTreeSitterParser(DefaultAnnotations())
	defer p.Close()

	proj, err := Load(context.Background(), p, fixtures+dir, opts)
	require.NoError(t, err)
	return proj
}

// runFixture loads and resolves a fixture project and returns the outcome of
// each merge request keyed by target name.
func runFixture(t *testing.T, dir string, opts LoadOptions) (*merge.Universe, *merge.Result, map[string]merge.Outcome) {
	t.Helper()
	proj := loadFixture(t, dir, opts)

	res, err := merge.NewEngine().Run(context.Background(), proj.Universe)
	require.NoError(t, err)

	byTarget := make(map[string]merge.Outcome, len(res.Outcomes))
	for _, o := range res.Outcomes {
		byTarget[proj.Universe.Symbols.Name(o.Request.Target)] = o
	}
	return proj.Universe, res, byTarget
}

func TestLoad_Projects(t *testing.T) {
	tests := []struct {
		dir        string
		target     string
		files      int
		includes   []string
		subMembers []string
	}{
		{
			dir:      "go_app",
			target:   "app.AppComponent",
			files:    1,
			includes: []string{"app.NetworkModule", "app.MetricsModule"},
		},
		{
			dir:    "java_app",
			target: "com.example.app.AppComponent",
			files:  3,
			includes: []string{
				"com.example.app.Modules.NetworkModule",
				"com.example.app.Modules.StorageModule",
				"com.example.app.ExtraModule",
			},
		},
		{
			dir:        "py_app",
			target:     "app.component.AppComponent",
			files:      4,
			includes:   []string{"app.modules.NetworkModule", "app.modules.NetworkModule.Inner"},
			subMembers: []string{"app.modules.NetworkModule.Inner"},
		},
		{
			dir:      "rust_app",
			target:   "AppComponent",
			files:    3,
			includes: []string{"modules.NetworkModule"},
		},
		{
			dir:      "ts_app",
			target:   "src.component.AppComponent",
			files:    3,
			includes: []string{"src.modules.NetworkModule"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.dir, func(t *testing.T) {
			u, res, outcomes := runFixture(t, tt.dir, LoadOptions{})

			assert.Empty(t, res.Diagnostics)
			assert.True(t, res.OK())
			require.Len(t, res.Outcomes, 1)

			o, ok := outcomes[tt.target]
			require.True(t, ok, "no outcome for %s", tt.target)
			assert.True(t, o.Generate)
			assert.Equal(t, tt.includes, names(u, o.Set.Includes))
			if tt.subMembers == nil {
				assert.Empty(t, o.Set.SubMembers)
			} else {
				assert.Equal(t, tt.subMembers, names(u, o.Set.SubMembers))
			}
		})
	}
}

func TestLoad_FileCount(t *testing.T) {
	proj := loadFixture(t, "py_app", LoadOptions{})
	require.Len(t, proj.Files, 4)

	paths := make([]string, len(proj.Files))
	for i, f := range proj.Files {
		paths[i] = f.File.Path
	}
	assert.Equal(t, []string{"app/__init__.py", "app/component.py", "app/modules.py", "app/scopes.py"}, paths)
}

func TestLoad_InvalidProject(t *testing.T) {
	_, res, outcomes := runFixture(t, "java_invalid", LoadOptions{})

	got := make([]string, len(res.Diagnostics))
	for i, d := range res.Diagnostics {
		got[i] = d.String()
	}
	want := []string{
		"Source.java: (9, 14) com.example.broken.Conflicted cannot be annotated with @MergeModules and @Module at the same time.",
		"Source.java: (12, 23) com.example.broken.NotAModule is annotated with @ContributesTo, but is not a module.",
		"Source.java: (16, 16) com.example.broken.PackagePrivateModule is contributed to the scope com.example.broken.Scope and must be public, but is internal.",
		"Source.java: (20, 23) com.example.broken.Replacer wants to replace com.example.broken.NotAModule, but the replaced class is not a module.",
		"Source.java: (24, 23) replacement cycle in scope com.example.broken.Scope: com.example.broken.First -> com.example.broken.Second -> com.example.broken.First",
	}
	assert.Equal(t, want, got)
	assert.False(t, res.OK())
	require.Len(t, res.Cycles, 1)

	o, ok := outcomes["com.example.broken.Conflicted"]
	require.True(t, ok)
	assert.False(t, o.Generate)
}

func TestLoad_SingleFileRoot(t *testing.T) {
	proj := loadFixture(t, "java_invalid/Source.java", LoadOptions{})

	require.Len(t, proj.Files, 1)
	assert.Equal(t, "Source.java", proj.Files[0].File.Path)
	assert.Len(t, proj.Universe.Contributions, 5)
	assert.Len(t, proj.Universe.Requests, 1)
}

func TestLoad_FileLabels(t *testing.T) {
	t.Run("relative", func(t *testing.T) {
		proj := loadFixture(t, "java_app", LoadOptions{FileLabel: LabelRelative})
		require.NotEmpty(t, proj.Universe.Contributions)
		assert.Equal(t, "com/example/app/Modules.java", proj.Universe.Contributions[0].Location.File)
	})
	t.Run("base", func(t *testing.T) {
		proj := loadFixture(t, "java_app", LoadOptions{FileLabel: LabelBase})
		require.NotEmpty(t, proj.Universe.Contributions)
		assert.Equal(t, merge.Location{File: "Modules.java", Line: 9, Column: 32}, proj.Universe.Contributions[0].Location)
	})
}

func TestLoad_Filters(t *testing.T) {
	t.Run("exclude dirs", func(t *testing.T) {
		proj := loadFixture(t, "java_app", LoadOptions{ExcludeDirs: []string{"app"}})
		assert.Empty(t, proj.Files)
		assert.Empty(t, proj.Universe.Contributions)
	})
	t.Run("languages", func(t *testing.T) {
		proj := loadFixture(t, "py_app", LoadOptions{Languages: []Language{LangJava}})
		assert.Empty(t, proj.Files)
	})
	t.Run("bounded workers", func(t *testing.T) {
		proj := loadFixture(t, "py_app", LoadOptions{Workers: 1})
		assert.Len(t, proj.Files, 4)
	})
}

func TestLoad_MissingRoot(t *testing.T) {
	p := NewTreeSitterParser(DefaultAnnotations())
	_, err := Load(context.Background(), p, fixtures+"does_not_exist", LoadOptions{})
	require.Error(t, err)
}

func TestLoad_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := NewTreeSitterParser(DefaultAnnotations())
	_, err := Load(ctx, p, fixtures+"java_app", LoadOptions{})
	require.ErrorIs(t, err, context.Canceled)
}

func TestLoad_Logs(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	loadFixture(t, "go_app", LoadOptions{Logger: zap.New(core)})

	entries := logs.FilterMessage("project loaded").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(1), fields["files"])
	assert.Equal(t, int64(3), fields["contributions"])
	assert.Equal(t, int64(1), fields["requests"])
}
