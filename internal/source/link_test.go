package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// decl builds a public declaration in pkg with the given annotations.
func decl(pkg, enclosing, name string, anns ...Annotation) Declaration {
	return Declaration{
		Name:        name,
		Package:     pkg,
		Qualified:   qualify(enclosingOr(pkg, enclosing), name),
		Kind:        DeclClass,
		Visibility:  merge.VisibilityPublic,
		Location:    merge.Location{File: pkg + ".src", Line: 1, Column: 1},
		Annotations: anns,
		Enclosing:   enclosing,
	}
}

func enclosingOr(pkg, enclosing string) string {
	if enclosing != "" {
		return enclosing
	}
	return pkg
}

func contributes(scope string, replaces ...string) Annotation {
	a := Annotation{Kind: AnnotationContributes, Name: "ContributesTo", Args: map[string][]TypeRef{
		ArgScope: {{Name: scope}},
	}}
	for _, r := range replaces {
		a.Args[ArgReplaces] = append(a.Args[ArgReplaces], TypeRef{Name: r})
	}
	return a
}

func moduleMarker() Annotation {
	return Annotation{Kind: AnnotationModule, Name: "Module"}
}

func mergeAnn(args map[string][]TypeRef) Annotation {
	return Annotation{Kind: AnnotationMerge, Name: "MergeModules", Args: args}
}

func names(u *merge.Universe, refs []merge.MemberRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = u.Symbols.Name(r)
	}
	return out
}

func TestLink_DeclaresEverySymbol(t *testing.T) {
	res := &ParseResult{
		Package: "app",
		Declarations: []Declaration{
			decl("app", "", "Scope"),
			decl("app", "", "Net", contributes("Scope"), moduleMarker()),
			decl("app", "", "Both", mergeAnn(map[string][]TypeRef{ArgScope: {{Name: "Scope"}}}), moduleMarker()),
		},
	}
	u := Link([]*ParseResult{res}, nil)

	require.Equal(t, 3, u.Symbols.Len())
	ref, ok := u.Symbols.Lookup("app.Net")
	require.True(t, ok)
	sym, _ := u.Symbols.Symbol(ref)
	assert.True(t, sym.Module)
	assert.False(t, sym.Merge)
	assert.Equal(t, merge.VisibilityPublic, sym.Visibility)

	ref, _ = u.Symbols.Lookup("app.Both")
	sym, _ = u.Symbols.Symbol(ref)
	assert.True(t, sym.Module)
	assert.True(t, sym.Merge)

	require.Len(t, u.Contributions, 1)
	assert.Equal(t, "app.Scope", u.Symbols.ScopeName(u.Contributions[0].Scope))
	require.Len(t, u.Requests, 1)
	assert.Equal(t, "app.Both", u.Symbols.Name(u.Requests[0].Target))
}

func TestLink_Resolution(t *testing.T) {
	scopes := &ParseResult{
		Package: "com.example.scopes",
		Declarations: []Declaration{
			decl("com.example.scopes", "", "AppScope"),
		},
	}
	modules := &ParseResult{
		Package: "com.example.app",
		Imports: []Import{
			{Path: "com.example.scopes.AppScope", Alias: "AppScope"},
			{Path: "com.example.scopes", Alias: "scopes"},
		},
		Declarations: []Declaration{
			decl("com.example.app", "", "Outer"),
			decl("com.example.app", "com.example.app.Outer", "Nested", contributes("AppScope"), moduleMarker()),
			decl("com.example.app", "com.example.app.Outer", "Sibling",
				contributes("scopes.AppScope", "Nested"), moduleMarker()),
			decl("com.example.app", "", "Unique", contributes("com.example.scopes.AppScope.class"), moduleMarker()),
			decl("com.example.app", "", "Component", mergeAnn(map[string][]TypeRef{
				ArgScope:    {{Name: "AppScope"}},
				ArgIncludes: {{Name: "Outer.Nested"}, {Name: "Unique"}},
				ArgExclude:  {{Name: "javax.inject.Missing"}},
			})),
		},
	}
	u := Link([]*ParseResult{scopes, modules}, nil)

	require.Len(t, u.Contributions, 3)

	t.Run("import alias", func(t *testing.T) {
		assert.Equal(t, "com.example.scopes.AppScope", u.Symbols.ScopeName(u.Contributions[0].Scope))
	})
	t.Run("import alias head with rest", func(t *testing.T) {
		assert.Equal(t, "com.example.scopes.AppScope", u.Symbols.ScopeName(u.Contributions[1].Scope))
	})
	t.Run("enclosing prefix", func(t *testing.T) {
		assert.Equal(t, []string{"com.example.app.Outer.Nested"}, names(u, u.Contributions[1].Replaces))
	})
	t.Run("qualified with class literal", func(t *testing.T) {
		assert.Equal(t, "com.example.scopes.AppScope", u.Symbols.ScopeName(u.Contributions[2].Scope))
	})

	require.Len(t, u.Requests, 1)
	req := u.Requests[0]
	t.Run("package relative", func(t *testing.T) {
		assert.Equal(t, []string{"com.example.app.Outer.Nested", "com.example.app.Unique"}, names(u, req.ExplicitIncludes))
	})
	t.Run("unknown names are external", func(t *testing.T) {
		require.Len(t, req.ExplicitExcludes, 1)
		sym, ok := u.Symbols.Symbol(req.ExplicitExcludes[0])
		require.True(t, ok)
		assert.True(t, sym.External)
		assert.Equal(t, "javax.inject.Missing", sym.Name)
	})
}

func TestLink_UniqueSimpleName(t *testing.T) {
	a := &ParseResult{
		Package: "a",
		Declarations: []Declaration{
			decl("a", "", "Scope"),
			decl("a", "", "Dup"),
		},
	}
	b := &ParseResult{
		Package: "b",
		Declarations: []Declaration{
			decl("b", "", "Dup"),
			decl("b", "", "M", contributes("Scope", "Dup"), moduleMarker()),
		},
	}
	u := Link([]*ParseResult{a, b}, nil)

	require.Len(t, u.Contributions, 1)
	c := u.Contributions[0]
	assert.Equal(t, "a.Scope", u.Symbols.ScopeName(c.Scope), "unique simple name resolves across packages")
	assert.Equal(t, []string{"b.Dup"}, names(u, c.Replaces), "same package wins over ambiguity")
}

func TestLink_RustPaths(t *testing.T) {
	scopes := &ParseResult{
		Package:      "scopes",
		Declarations: []Declaration{decl("scopes", "", "AppScope")},
	}
	lib := &ParseResult{
		Declarations: []Declaration{
			decl("", "", "Component", mergeAnn(map[string][]TypeRef{
				ArgScope: {{Name: "crate::scopes::AppScope"}},
			})),
		},
	}
	u := Link([]*ParseResult{scopes, lib}, nil)

	require.Len(t, u.Requests, 1)
	assert.Equal(t, "scopes.AppScope", u.Symbols.ScopeName(u.Requests[0].Scope))
	assert.Equal(t, "Component", u.Symbols.Name(u.Requests[0].Target))
}

func TestLink_MalformedAnnotation(t *testing.T) {
	d := decl("app", "", "Broken", Annotation{Kind: AnnotationContributes, Name: "com.acme.ContributesTo"}, moduleMarker())
	d.Location = merge.Location{File: "src/app/Broken.java", Line: 4, Column: 14}
	res := &ParseResult{Package: "app", Declarations: []Declaration{d}}

	u := Link([]*ParseResult{res}, func(p string) string { return "Broken.java" })

	assert.Empty(t, u.Contributions)
	require.Len(t, u.Diagnostics, 1)
	diag := u.Diagnostics[0]
	assert.Equal(t, merge.KindMalformedAnnotation, diag.Kind)
	assert.Equal(t, merge.SeverityError, diag.Severity)
	assert.Equal(t, "Broken.java: (4, 14) app.Broken is annotated with @ContributesTo but names no scope.", diag.String())
}

func TestLink_Relabel(t *testing.T) {
	d := decl("app", "", "M", contributes("M"), moduleMarker())
	d.Location = merge.Location{File: "src/app/M.java", Line: 3, Column: 7}
	res := &ParseResult{Package: "app", Declarations: []Declaration{d}}

	u := Link([]*ParseResult{res}, func(p string) string { return "[" + p + "]" })

	require.Len(t, u.Contributions, 1)
	assert.Equal(t, "[src/app/M.java]", u.Contributions[0].Location.File)
	sym, _ := u.Symbols.Symbol(u.Contributions[0].Member)
	assert.Equal(t, "[src/app/M.java]", sym.Location.File)
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"crate::scopes::AppScope": "scopes.AppScope",
		"a::b::C":                 "a.b.C",
		"AppScope.class":          "AppScope",
		" Outer.Inner ":           "Outer.Inner",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalizeName(in), in)
	}
}
