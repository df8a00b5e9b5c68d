package source

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// fileFacts is what an extractor finds in one file. Annotations are raw:
// unclassified, with positional arguments under the empty key.
type fileFacts struct {
	pkg          string
	declarations []Declaration
	imports      []Import
}

// extractor extracts declarations from a parsed tree-sitter AST.
type extractor interface {
	Extract(root *tree_sitter.Node, source []byte, filePath string) fileFacts
}

// TreeSitterParser implements the Parser interface using tree-sitter grammars.
// A new tree-sitter parser is created per Parse call, so Parse may be called
// from several goroutines at once.
type TreeSitterParser struct {
	languages   map[Language]*tree_sitter.Language
	extractors  map[Language]extractor
	annotations Annotations
}

// NewTreeSitterParser creates a TreeSitterParser with Java, Go, Python, Rust
// and TypeScript grammars registered, recognizing the given annotation names.
func NewTreeSitterParser(annotations Annotations) *TreeSitterParser {
	langs := map[Language]*tree_sitter.Language{
		LangGo:         tree_sitter.NewLanguage(tree_sitter_go.Language()),
		LangJava:       tree_sitter.NewLanguage(tree_sitter_java.Language()),
		LangPython:     tree_sitter.NewLanguage(tree_sitter_python.Language()),
		LangRust:       tree_sitter.NewLanguage(tree_sitter_rust.Language()),
		LangTypeScript: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
	}

	extractors := map[Language]extractor{
		LangGo:         &goExtractor{},
		LangJava:       &javaExtractor{},
		LangPython:     &pyExtractor{},
		LangRust:       &rsExtractor{},
		LangTypeScript: &tsExtractor{},
	}

	return &TreeSitterParser{
		languages:   langs,
		extractors:  extractors,
		annotations: annotations,
	}
}

// Parse extracts annotated declarations from a single source file.
func (p *TreeSitterParser) Parse(_ context.Context, filePath string, source []byte, lang Language) (*ParseResult, error) {
	tsLang, ok := p.languages[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}

	ext, ok := p.extractors[lang]
	if !ok {
		return nil, fmt.Errorf("no extractor for language: %s", lang)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(tsLang); err != nil {
		return nil, fmt.Errorf("set language %s: %w", lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("tree-sitter returned nil tree for %s", filePath)
	}
	defer tree.Close()

	facts := ext.Extract(tree.RootNode(), source, filePath)
	for i := range facts.declarations {
		facts.declarations[i].Annotations = p.annotations.classify(facts.declarations[i].Annotations)
	}

	return &ParseResult{
		File: FileNode{
			Path:     filePath,
			Language: lang,
			LOC:      countLOC(source),
		},
		Package:      facts.pkg,
		Declarations: facts.declarations,
		Imports:      facts.imports,
	}, nil
}

// SupportedLanguages returns the languages this parser can handle, sorted.
func (p *TreeSitterParser) SupportedLanguages() []Language {
	langs := make([]Language, 0, len(p.languages))
	for l := range p.languages {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool { return langs[i] < langs[j] })
	return langs
}

// Close is a no-op because parsers are created per Parse call.
func (p *TreeSitterParser) Close() error {
	return nil
}

// countLOC counts the number of lines in source by counting newline bytes
// and adding one for the final line if the source is non-empty.
func countLOC(source []byte) int {
	if len(source) == 0 {
		return 0
	}
	return bytes.Count(source, []byte{'\n'}) + 1
}

// position converts a node's 0-based start point into a 1-based location.
func position(node *tree_sitter.Node, filePath string) merge.Location {
	p := node.StartPosition()
	return merge.Location{File: filePath, Line: int(p.Row) + 1, Column: int(p.Column) + 1}
}

func typeRef(node *tree_sitter.Node, source []byte, filePath string) TypeRef {
	return TypeRef{Name: node.Utf8Text(source), Location: position(node, filePath)}
}

func namedChildren(node *tree_sitter.Node) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child != nil {
			out = append(out, child)
		}
	}
	return out
}

func childOfKind(node *tree_sitter.Node, kinds ...string) *tree_sitter.Node {
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		for _, k := range kinds {
			if child.Kind() == k {
				return child
			}
		}
	}
	return nil
}

func childrenOfKind(node *tree_sitter.Node, kind string) []*tree_sitter.Node {
	var out []*tree_sitter.Node
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil && child.Kind() == kind {
			out = append(out, child)
		}
	}
	return out
}

func addArg(args map[string][]TypeRef, key string, refs ...TypeRef) map[string][]TypeRef {
	if len(refs) == 0 {
		return args
	}
	if args == nil {
		args = make(map[string][]TypeRef)
	}
	args[key] = append(args[key], refs...)
	return args
}

// qualify joins non-empty parts with dots.
func qualify(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".")
}

// modulePath derives a dotted module name from a slash-separated file path,
// dropping the extension and any trailing segment listed in drop.
func modulePath(filePath string, drop ...string) string {
	p := strings.TrimSuffix(filePath, path.Ext(filePath))
	p = strings.TrimPrefix(path.Clean(strings.ReplaceAll(p, "\\", "/")), "./")
	segs := strings.Split(p, "/")
	if n := len(segs); n > 0 {
		for _, d := range drop {
			if segs[n-1] == d {
				segs = segs[:n-1]
				break
			}
		}
	}
	return strings.Join(segs, ".")
}
