package source

import "strings"

// Annotations lists the annotation names recognized for each kind. A name
// matches either in full or by its last segment, so "ContributesTo" also
// matches "com.squareup.anvil.annotations.ContributesTo" and
// "scopemerge:contributes" matches "contributes".
type Annotations struct {
	Contributes []string `yaml:"contributes" json:"contributes"`
	Merge       []string `yaml:"merge" json:"merge"`
	Module      []string `yaml:"module" json:"module"`
}

// DefaultAnnotations returns the names understood out of the box.
func DefaultAnnotations() Annotations {
	return Annotations{
		Contributes: []string{"ContributesTo", "contributes_to", "contributes"},
		Merge:       []string{"MergeModules", "merge_modules", "merge"},
		Module:      []string{"Module", "module"},
	}
}

// Classify returns the kind of the annotation called name, or "" when name is
// not recognized.
func (a Annotations) Classify(name string) AnnotationKind {
	last := lastSegment(name)
	match := func(names []string) bool {
		for _, n := range names {
			if n == name || n == last {
				return true
			}
		}
		return false
	}
	switch {
	case match(a.Merge):
		return AnnotationMerge
	case match(a.Contributes):
		return AnnotationContributes
	case match(a.Module):
		return AnnotationModule
	}
	return ""
}

// normalizeArgs maps raw argument keys onto the normalized keys. The first
// positional argument becomes the scope unless the scope was named.
func normalizeArgs(raw map[string][]TypeRef) map[string][]TypeRef {
	if len(raw) == 0 {
		return nil
	}
	out := make(map[string][]TypeRef, len(raw))
	for key, refs := range raw {
		if key == "" {
			continue
		}
		norm := normalizeKey(key)
		out[norm] = append(out[norm], refs...)
	}
	if pos := raw[""]; len(pos) > 0 && len(out[ArgScope]) == 0 {
		out[ArgScope] = pos[:1]
	}
	return out
}

func normalizeKey(key string) string {
	switch strings.ToLower(key) {
	case "value", "scope":
		return ArgScope
	case "replaces":
		return ArgReplaces
	case "includes", "include":
		return ArgIncludes
	case "subcomponents", "submembers":
		return ArgSubcomponents
	case "exclude", "excludes":
		return ArgExclude
	}
	return key
}

// classify turns raw annotations into classified ones, dropping the ones
// that mean nothing to the merge engine.
func (a Annotations) classify(raw []Annotation) []Annotation {
	var out []Annotation
	for _, ann := range raw {
		kind := a.Classify(ann.Name)
		if kind == "" {
			continue
		}
		ann.Kind = kind
		ann.Args = normalizeArgs(ann.Args)
		out = append(out, ann)
	}
	return out
}

// lastSegment returns the part of name after the last '.', ':' or "::".
func lastSegment(name string) string {
	if i := strings.LastIndexAny(name, ".:"); i >= 0 {
		return name[i+1:]
	}
	return name
}
