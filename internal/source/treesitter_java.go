package source

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// javaExtractor extracts annotated type declarations from Java source files.
type javaExtractor struct{}

func (e *javaExtractor) Extract(root *tree_sitter.Node, source []byte, filePath string) fileFacts {
	var facts fileFacts

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, filePath, nil, &facts)
	return facts
}

func (e *javaExtractor) walk(
	cursor *tree_sitter.TreeCursor,
	source []byte,
	filePath string,
	enclosing []string,
	facts *fileFacts,
) {
	node := cursor.Node()

	switch node.Kind() {
	case "package_declaration":
		if name := childOfKind(node, "scoped_identifier", "identifier"); name != nil {
			facts.pkg = name.Utf8Text(source)
		}
		return

	case "import_declaration":
		if imp, ok := e.extractImport(node, source); ok {
			facts.imports = append(facts.imports, imp)
		}
		return

	case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
		if decl := e.extractType(node, source, filePath, facts.pkg, enclosing); decl != nil {
			facts.declarations = append(facts.declarations, *decl)
			enclosing = append(enclosing[:len(enclosing):len(enclosing)], decl.Name)
		}
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, filePath, enclosing, facts)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, filePath, enclosing, facts)
		}
		cursor.GotoParent()
	}
}

func (e *javaExtractor) extractImport(node *tree_sitter.Node, source []byte) (Import, bool) {
	if childOfKind(node, "asterisk", "static") != nil {
		return Import{}, false
	}
	name := childOfKind(node, "scoped_identifier", "identifier")
	if name == nil {
		return Import{}, false
	}
	p := name.Utf8Text(source)
	return Import{Path: p, Alias: lastSegment(p)}, true
}

func (e *javaExtractor) extractType(
	node *tree_sitter.Node,
	source []byte,
	filePath, pkg string,
	enclosing []string,
) *Declaration {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)

	kind := DeclClass
	switch node.Kind() {
	case "interface_declaration":
		kind = DeclInterface
	case "enum_declaration":
		kind = DeclEnum
	}

	decl := &Declaration{
		Name:       name,
		Package:    pkg,
		Qualified:  qualify(pkg, strings.Join(enclosing, "."), name),
		Kind:       kind,
		Visibility: merge.VisibilityInternal,
		Location:   position(nameNode, filePath),
	}
	if len(enclosing) > 0 {
		decl.Enclosing = qualify(pkg, strings.Join(enclosing, "."))
	}

	if mods := childOfKind(node, "modifiers"); mods != nil {
		for i := uint(0); i < mods.ChildCount(); i++ {
			child := mods.Child(i)
			if child == nil {
				continue
			}
			switch child.Kind() {
			case "public":
				decl.Visibility = merge.VisibilityPublic
			case "protected":
				decl.Visibility = merge.VisibilityProtected
			case "private":
				decl.Visibility = merge.VisibilityPrivate
			case "marker_annotation", "annotation":
				if ann := e.extractAnnotation(child, source, filePath); ann != nil {
					decl.Annotations = append(decl.Annotations, *ann)
				}
			}
		}
	}
	return decl
}

func (e *javaExtractor) extractAnnotation(node *tree_sitter.Node, source []byte, filePath string) *Annotation {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	ann := &Annotation{
		Name:     nameNode.Utf8Text(source),
		Location: position(node, filePath),
	}

	argList := node.ChildByFieldName("arguments")
	if argList == nil {
		return ann
	}
	for _, arg := range namedChildren(argList) {
		if arg.Kind() == "element_value_pair" {
			key := arg.ChildByFieldName("key")
			value := arg.ChildByFieldName("value")
			if key == nil || value == nil {
				continue
			}
			ann.Args = addArg(ann.Args, key.Utf8Text(source), e.typeRefs(value, source, filePath)...)
			continue
		}
		ann.Args = addArg(ann.Args, "", e.typeRefs(arg, source, filePath)...)
	}
	return ann
}

// typeRefs collects the types named by an annotation element value:
// class literals, arrays of them, and bare type names.
func (e *javaExtractor) typeRefs(node *tree_sitter.Node, source []byte, filePath string) []TypeRef {
	switch node.Kind() {
	case "class_literal":
		if t := node.NamedChild(0); t != nil {
			return []TypeRef{typeRef(t, source, filePath)}
		}
	case "element_value_array_initializer":
		var refs []TypeRef
		for _, child := range namedChildren(node) {
			refs = append(refs, e.typeRefs(child, source, filePath)...)
		}
		return refs
	case "identifier", "scoped_identifier", "field_access", "type_identifier", "scoped_type_identifier":
		return []TypeRef{typeRef(node, source, filePath)}
	}
	return nil
}
