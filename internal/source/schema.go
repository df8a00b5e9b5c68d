package source

import (
	"path/filepath"
	"strings"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// Language identifies a programming language for parsing.
type Language string

const (
	LangGo         Language = "go"
	LangJava       Language = "java"
	LangPython     Language = "python"
	LangRust       Language = "rust"
	LangTypeScript Language = "typescript"
)

// AllLanguages lists every language the front end understands.
var AllLanguages = []Language{LangJava, LangGo, LangPython, LangRust, LangTypeScript}

var extToLanguage = map[string]Language{
	".go":   LangGo,
	".java": LangJava,
	".py":   LangPython,
	".rs":   LangRust,
	".ts":   LangTypeScript,
}

// LanguageForPath returns the language of a file based on its extension.
// TypeScript declaration files are skipped.
func LanguageForPath(path string) (Language, bool) {
	if strings.HasSuffix(path, ".d.ts") {
		return "", false
	}
	lang, ok := extToLanguage[filepath.Ext(path)]
	return lang, ok
}

// DeclKind classifies a type declaration.
type DeclKind string

const (
	DeclClass     DeclKind = "class"
	DeclInterface DeclKind = "interface"
	DeclStruct    DeclKind = "struct"
	DeclEnum      DeclKind = "enum"
	DeclTrait     DeclKind = "trait"
	DeclType      DeclKind = "type"
)

// AnnotationKind is the meaning of an annotation after classification.
type AnnotationKind string

const (
	// AnnotationContributes registers the declaration with a scope.
	AnnotationContributes AnnotationKind = "contributes"
	// AnnotationMerge requests the merged result for a scope.
	AnnotationMerge AnnotationKind = "merge"
	// AnnotationModule is the plain "is a module" marker.
	AnnotationModule AnnotationKind = "module"
)

// Normalized annotation argument keys.
const (
	ArgScope         = "scope"
	ArgReplaces      = "replaces"
	ArgIncludes      = "includes"
	ArgSubcomponents = "subcomponents"
	ArgExclude       = "exclude"
)

// TypeRef is a type named inside an annotation argument, as written.
type TypeRef struct {
	Name     string         `json:"name"`
	Location merge.Location `json:"location"`
}

// Annotation is a classified annotation, decorator, attribute or directive.
// Args are keyed by the normalized argument keys; positional arguments are
// kept under the empty key until normalization.
type Annotation struct {
	Kind     AnnotationKind       `json:"kind"`
	Name     string               `json:"name"`
	Location merge.Location       `json:"location"`
	Args     map[string][]TypeRef `json:"args,omitempty"`
}

// Declaration is a type declaration found in a source file.
type Declaration struct {
	Name string `json:"name"`
	// Qualified is the package-qualified name, dot separated.
	Qualified  string           `json:"qualified"`
	Package    string           `json:"package"`
	Kind       DeclKind         `json:"kind"`
	Visibility merge.Visibility `json:"visibility"`
	// Location points at the declaration's identifier.
	Location    merge.Location `json:"location"`
	Annotations []Annotation   `json:"annotations,omitempty"`
	// Enclosing is the qualified name of the enclosing declaration or module,
	// empty for top-level declarations.
	Enclosing string `json:"enclosing,omitempty"`
}

// Has reports whether d carries an annotation of kind.
func (d Declaration) Has(kind AnnotationKind) bool {
	for _, a := range d.Annotations {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// Import makes a qualified name available under a short alias.
type Import struct {
	Path  string `json:"path"`
	Alias string `json:"alias"`
}

// FileNode describes a parsed source file.
type FileNode struct {
	Path     string   `json:"path"`
	Language Language `json:"language"`
	LOC      int      `json:"loc"`
}
