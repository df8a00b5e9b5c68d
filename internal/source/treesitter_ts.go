package source

import (
	"path"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// tsExtractor extracts decorated classes from TypeScript source files. The
// package of a file is its dotted path without extension; index files take
// the name of their directory.
type tsExtractor struct{}

func (e *tsExtractor) Extract(root *tree_sitter.Node, source []byte, filePath string) fileFacts {
	facts := fileFacts{pkg: modulePath(filePath, "index")}

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, filePath, &facts)
	return facts
}

func (e *tsExtractor) walk(cursor *tree_sitter.TreeCursor, source []byte, filePath string, facts *fileFacts) {
	node := cursor.Node()

	switch node.Kind() {
	case "class_declaration", "abstract_class_declaration":
		if decl := e.extractClass(node, source, filePath, facts.pkg); decl != nil {
			facts.declarations = append(facts.declarations, *decl)
		}
		return

	case "import_statement":
		facts.imports = append(facts.imports, e.extractImport(node, source, filePath)...)
		return

	case "function_declaration", "method_definition", "arrow_function":
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

func (e *tsExtractor) extractClass(node *tree_sitter.Node, source []byte, filePath, pkg string) *Declaration {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := nameNode.Utf8Text(source)

	visibility := merge.VisibilityInternal
	parent := node.Parent()
	exported := parent != nil && parent.Kind() == "export_statement"
	if exported {
		visibility = merge.VisibilityPublic
	}

	decl := &Declaration{
		Name:       name,
		Package:    pkg,
		Qualified:  qualify(pkg, name),
		Kind:       DeclClass,
		Visibility: visibility,
		Location:   position(nameNode, filePath),
	}

	// "@Dec export class X" hangs decorators on the export statement.
	var decorators []*tree_sitter.Node
	if exported {
		decorators = append(decorators, childrenOfKind(parent, "decorator")...)
	}
	decorators = append(decorators, childrenOfKind(node, "decorator")...)
	for _, d := range decorators {
		if ann := e.extractDecorator(d, source, filePath); ann != nil {
			decl.Annotations = append(decl.Annotations, *ann)
		}
	}
	return decl
}

func (e *tsExtractor) extractDecorator(node *tree_sitter.Node, source []byte, filePath string) *Annotation {
	expr := node.NamedChild(0)
	if expr == nil {
		return nil
	}
	ann := &Annotation{Location: position(node, filePath)}

	switch expr.Kind() {
	case "identifier", "member_expression":
		ann.Name = expr.Utf8Text(source)
	case "call_expression":
		fn := expr.ChildByFieldName("function")
		if fn == nil {
			return nil
		}
		ann.Name = fn.Utf8Text(source)
		if args := expr.ChildByFieldName("arguments"); args != nil {
			for _, arg := range namedChildren(args) {
				if arg.Kind() == "object" {
					for _, pair := range childrenOfKind(arg, "pair") {
						key := pair.ChildByFieldName("key")
						value := pair.ChildByFieldName("value")
						if key == nil || value == nil {
							continue
						}
						ann.Args = addArg(ann.Args, strings.Trim(key.Utf8Text(source), `"'`), e.typeRefs(value, source, filePath)...)
					}
					continue
				}
				ann.Args = addArg(ann.Args, "", e.typeRefs(arg, source, filePath)...)
			}
		}
	default:
		return nil
	}
	return ann
}

func (e *tsExtractor) typeRefs(node *tree_sitter.Node, source []byte, filePath string) []TypeRef {
	switch node.Kind() {
	case "identifier", "member_expression":
		return []TypeRef{typeRef(node, source, filePath)}
	case "array":
		var refs []TypeRef
		for _, child := range namedChildren(node) {
			refs = append(refs, e.typeRefs(child, source, filePath)...)
		}
		return refs
	}
	return nil
}

// extractImport records named imports. Relative module specifiers are
// resolved against the importing file.
func (e *tsExtractor) extractImport(node *tree_sitter.Node, source []byte, filePath string) []Import {
	srcNode := node.ChildByFieldName("source")
	clause := childOfKind(node, "import_clause")
	if srcNode == nil || clause == nil {
		return nil
	}
	spec := strings.Trim(srcNode.Utf8Text(source), `"'`+"`")
	module := spec
	if strings.HasPrefix(spec, ".") {
		module = modulePath(path.Join(path.Dir(filePath), spec)+".ts", "index")
	}

	named := childOfKind(clause, "named_imports")
	if named == nil {
		return nil
	}
	var out []Import
	for _, s := range childrenOfKind(named, "import_specifier") {
		name := s.ChildByFieldName("name")
		if name == nil {
			continue
		}
		alias := name.Utf8Text(source)
		if a := s.ChildByFieldName("alias"); a != nil {
			alias = a.Utf8Text(source)
		}
		out = append(out, Import{Path: qualify(module, name.Utf8Text(source)), Alias: alias})
	}
	return out
}
