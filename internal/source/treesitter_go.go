package source

import (
	"strings"
	"unicode"
	"unicode/utf8"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// directivePrefix introduces an annotation written as a Go comment directive,
// e.g. "//scopemerge:contributes scope=AppScope replaces=LegacyModule".
const directivePrefix = "//scopemerge:"

// goExtractor extracts directive-annotated type declarations from Go source
// files.
type goExtractor struct{}

func (e *goExtractor) Extract(root *tree_sitter.Node, source []byte, filePath string) fileFacts {
	var facts fileFacts

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, filePath, &facts)
	return facts
}

func (e *goExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, filePath string, facts *fileFacts) {
	node := cursor.Node()

	switch node.Kind() {
	case "package_clause":
		if name := childOfKind(node, "package_identifier"); name != nil {
			facts.pkg = name.Utf8Text(source)
		}
		return

	case "type_declaration":
		for i := uint(0); i < node.ChildCount(); i++ {
			child := node.Child(i)
			if child == nil || child.Kind() != "type_spec" {
				continue
			}
			if decl := e.extractTypeSpec(child, node, source, filePath, facts.pkg); decl != nil {
				facts.declarations = append(facts.declarations, *decl)
			}
		}
		return

	case "function_declaration", "method_declaration":
		// Types declared inside function bodies are not addressable.
		return
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, filePath, facts)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, filePath, facts)
		}
		cursor.GotoParent()
	}
}

func (e *goExtractor) extractTypeSpec(
	spec, decl *tree_sitter.Node,
	source []byte,
	filePath, pkg string,
) *Declaration {
	nameNode := spec.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)

	kind := DeclType
	if typeNode := spec.ChildByFieldName("type"); typeNode != nil {
		switch typeNode.Kind() {
		case "interface_type":
			kind = DeclInterface
		case "struct_type":
			kind = DeclStruct
		}
	}

	visibility := merge.VisibilityInternal
	if isGoExported(name) {
		visibility = merge.VisibilityPublic
	}

	d := &Declaration{
		Name:       name,
		Package:    pkg,
		Qualified:  qualify(pkg, name),
		Kind:       kind,
		Visibility: visibility,
		Location:   position(nameNode, filePath),
	}

	for _, comment := range docComments(spec, decl) {
		if ann := parseDirective(comment, source, filePath); ann != nil {
			d.Annotations = append(d.Annotations, *ann)
		}
	}
	return d
}

// docComments returns the comments directly above spec, in source order. For
// an ungrouped declaration these sit above the "type" keyword.
func docComments(spec, decl *tree_sitter.Node) []*tree_sitter.Node {
	anchor := spec
	prev := spec.PrevSibling()
	if prev != nil && prev.Kind() == "type" {
		anchor = decl
		prev = decl.PrevSibling()
	}

	var comments []*tree_sitter.Node
	line := anchor.StartPosition().Row
	for prev != nil && prev.Kind() == "comment" && prev.EndPosition().Row+1 == line {
		comments = append(comments, prev)
		line = prev.StartPosition().Row
		prev = prev.PrevSibling()
	}
	for i, j := 0, len(comments)-1; i < j; i, j = i+1, j-1 {
		comments[i], comments[j] = comments[j], comments[i]
	}
	return comments
}

// parseDirective parses "//scopemerge:<name> [scope] [key=A,B ...]". Bare
// words are positional arguments; values are comma separated.
func parseDirective(comment *tree_sitter.Node, source []byte, filePath string) *Annotation {
	text := comment.Utf8Text(source)
	if !strings.HasPrefix(text, directivePrefix) {
		return nil
	}
	start := position(comment, filePath)

	ann := &Annotation{Location: start}
	offset := 2 // past "//"
	first := true
	for _, field := range fieldsWithOffsets(text[offset:]) {
		if first {
			ann.Name = field.text
			first = false
			continue
		}
		key, values, valueOffset := "", field.text, 0
		if i := strings.IndexByte(field.text, '='); i >= 0 {
			key, values, valueOffset = field.text[:i], field.text[i+1:], i+1
		}
		col := start.Column + offset + field.offset + valueOffset
		for _, v := range strings.Split(values, ",") {
			if v != "" {
				ann.Args = addArg(ann.Args, key, TypeRef{
					Name:     v,
					Location: merge.Location{File: filePath, Line: start.Line, Column: col},
				})
			}
			col += len(v) + 1
		}
	}
	if ann.Name == "" {
		return nil
	}
	return ann
}

type field struct {
	text   string
	offset int
}

// fieldsWithOffsets splits s around runs of white space, keeping the byte
// offset of each field.
func fieldsWithOffsets(s string) []field {
	var out []field
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, field{text: s[start:i], offset: start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, field{text: s[start:], offset: start})
	}
	return out
}

// isGoExported returns true if the first rune of name is an uppercase letter.
func isGoExported(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.IsUpper(r)
}
