package source

import (
	"strings"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// Link turns parse results into a merge.Universe. Every declaration becomes a
// symbol; annotations become contributions and merge requests in file order,
// then source order. label rewrites file paths in locations and may be nil.
//
// Type names in annotation arguments resolve, in order, as: a qualified
// name; a name relative to the enclosing declarations and the package; an
// imported name; an unqualified name declared exactly once in the project.
// Anything else becomes an external symbol, which is never a module.
func Link(results []*ParseResult, label func(string) string) *merge.Universe {
	if label == nil {
		label = func(p string) string { return p }
	}
	l := &linker{
		u:        merge.NewUniverse(),
		bySimple: make(map[string][]merge.MemberRef),
		label:    label,
	}

	refs := make([][]merge.MemberRef, len(results))
	for i, res := range results {
		for _, d := range res.Declarations {
			ref := l.u.Symbols.Declare(merge.Symbol{
				Name:       d.Qualified,
				Location:   l.relabel(d.Location),
				Visibility: d.Visibility,
				Module:     d.Has(AnnotationModule),
				Merge:      d.Has(AnnotationMerge),
			})
			refs[i] = append(refs[i], ref)
			l.bySimple[d.Name] = append(l.bySimple[d.Name], ref)
		}
	}

	for i, res := range results {
		for j, d := range res.Declarations {
			l.annotate(refs[i][j], d, res.Imports)
		}
	}
	return l.u
}

type linker struct {
	u        *merge.Universe
	bySimple map[string][]merge.MemberRef
	label    func(string) string
}

func (l *linker) relabel(loc merge.Location) merge.Location {
	loc.File = l.label(loc.File)
	return loc
}

func (l *linker) annotate(ref merge.MemberRef, d Declaration, imports []Import) {
	loc := l.relabel(d.Location)
	for _, ann := range d.Annotations {
		if ann.Kind != AnnotationContributes && ann.Kind != AnnotationMerge {
			continue
		}
		scopes := ann.Args[ArgScope]
		if len(scopes) == 0 {
			l.u.Diagnostics = append(l.u.Diagnostics, merge.Diagnostic{
				Kind:     merge.KindMalformedAnnotation,
				Severity: merge.SeverityError,
				Message:  d.Qualified + " is annotated with @" + lastSegment(ann.Name) + " but names no scope.",
				Location: loc,
			})
			continue
		}
		scope := merge.ScopeOf(l.resolve(scopes[0], d, imports))

		switch ann.Kind {
		case AnnotationContributes:
			l.u.Contributions = append(l.u.Contributions, merge.Contribution{
				Member:   ref,
				Scope:    scope,
				Replaces: l.resolveAll(ann.Args[ArgReplaces], d, imports),
				Location: loc,
			})
		case AnnotationMerge:
			l.u.Requests = append(l.u.Requests, merge.MergeRequest{
				Target:             ref,
				Scope:              scope,
				ExplicitIncludes:   l.resolveAll(ann.Args[ArgIncludes], d, imports),
				ExplicitSubMembers: l.resolveAll(ann.Args[ArgSubcomponents], d, imports),
				ExplicitExcludes:   l.resolveAll(ann.Args[ArgExclude], d, imports),
				Location:           loc,
			})
		}
	}
}

func (l *linker) resolveAll(refs []TypeRef, d Declaration, imports []Import) []merge.MemberRef {
	if len(refs) == 0 {
		return nil
	}
	out := make([]merge.MemberRef, 0, len(refs))
	for _, r := range refs {
		out = append(out, l.resolve(r, d, imports))
	}
	return out
}

func (l *linker) resolve(ref TypeRef, d Declaration, imports []Import) merge.MemberRef {
	name := normalizeName(ref.Name)

	if r, ok := l.declared(name); ok {
		return r
	}
	for prefix := d.Enclosing; len(prefix) > len(d.Package); prefix = parentName(prefix) {
		if r, ok := l.declared(prefix + "." + name); ok {
			return r
		}
	}
	if d.Package != "" {
		if r, ok := l.declared(d.Package + "." + name); ok {
			return r
		}
	}

	head, rest, _ := strings.Cut(name, ".")
	for _, imp := range imports {
		if imp.Alias != head {
			continue
		}
		if r, ok := l.declared(qualify(normalizeName(imp.Path), rest)); ok {
			return r
		}
	}

	if !strings.Contains(name, ".") {
		if refs := l.bySimple[name]; len(refs) == 1 {
			return refs[0]
		}
	}
	return l.u.Symbols.Reference(name)
}

// normalizeName makes type names from every language comparable with the
// dotted qualified names of declarations.
func normalizeName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "::", ".")
	name = strings.TrimPrefix(name, "crate.")
	name = strings.TrimSuffix(name, ".class")
	return name
}

// declared looks up a symbol declared in the sources; external symbols
// interned by earlier lookups do not count.
func (l *linker) declared(name string) (merge.MemberRef, bool) {
	ref, ok := l.u.Symbols.Lookup(name)
	if !ok {
		return 0, false
	}
	if sym, _ := l.u.Symbols.Symbol(ref); sym.External {
		return 0, false
	}
	return ref, true
}

func parentName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return ""
}
