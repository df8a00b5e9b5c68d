package source

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// pyExtractor extracts decorated classes from Python source files. The
// package of a file is its dotted path, e.g. "app/modules.py" is
// "app.modules".
type pyExtractor struct{}

func (e *pyExtractor) Extract(root *tree_sitter.Node, source []byte, filePath string) fileFacts {
	facts := fileFacts{pkg: modulePath(filePath, "__init__")}

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, filePath, nil, &facts)
	return facts
}

func (e *pyExtractor) walk(
	cursor *tree_sitter.TreeCursor,
	source []byte,
	filePath string,
	enclosing []string,
	facts *fileFacts,
) {
	node := cursor.Node()

	switch node.Kind() {
	case "class_definition":
		if decl := e.extractClass(node, source, filePath, facts.pkg, enclosing); decl != nil {
			facts.declarations = append(facts.declarations, *decl)
			enclosing = append(enclosing[:len(enclosing):len(enclosing)], decl.Name)
		}

	case "function_definition":
		// Classes declared inside functions are not addressable.
		return

	case "import_statement":
		facts.imports = append(facts.imports, e.extractImport(node, source)...)
		return

	case "import_from_statement":
		facts.imports = append(facts.imports, e.extractFromImport(node, source, facts.pkg)...)
		return
	}

	if cursor.GotoFirstChild() {
		e.walk(cursor, source, filePath, enclosing, facts)
		for cursor.GotoNextSibling() {
			e.walk(cursor, source, filePath, enclosing, facts)
		}
		cursor.GotoParent()
	}
}

func (e *pyExtractor) extractClass(
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

	visibility := merge.VisibilityPublic
	if strings.HasPrefix(name, "_") {
		visibility = merge.VisibilityPrivate
	}

	decl := &Declaration{
		Name:       name,
		Package:    pkg,
		Qualified:  qualify(pkg, strings.Join(enclosing, "."), name),
		Kind:       DeclClass,
		Visibility: visibility,
		Location:   position(nameNode, filePath),
	}
	if len(enclosing) > 0 {
		decl.Enclosing = qualify(pkg, strings.Join(enclosing, "."))
	}

	if parent := node.Parent(); parent != nil && parent.Kind() == "decorated_definition" {
		for _, child := range namedChildren(parent) {
			if child.Kind() != "decorator" {
				continue
			}
			if ann := e.extractDecorator(child, source, filePath); ann != nil {
				decl.Annotations = append(decl.Annotations, *ann)
			}
		}
	}
	return decl
}

func (e *pyExtractor) extractDecorator(node *tree_sitter.Node, source []byte, filePath string) *Annotation {
	expr := node.NamedChild(0)
	if expr == nil {
		return nil
	}
	ann := &Annotation{Location: position(node, filePath)}

	switch expr.Kind() {
	case "identifier", "attribute":
		ann.Name = expr.Utf8Text(source)
	case "call":
		fn := expr.ChildByFieldName("function")
		if fn == nil {
			return nil
		}
		ann.Name = fn.Utf8Text(source)
		if args := expr.ChildByFieldName("arguments"); args != nil {
			for _, arg := range namedChildren(args) {
				if arg.Kind() == "keyword_argument" {
					key := arg.ChildByFieldName("name")
					value := arg.ChildByFieldName("value")
					if key == nil || value == nil {
						continue
					}
					ann.Args = addArg(ann.Args, key.Utf8Text(source), e.typeRefs(value, source, filePath)...)
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

func (e *pyExtractor) typeRefs(node *tree_sitter.Node, source []byte, filePath string) []TypeRef {
	switch node.Kind() {
	case "identifier", "attribute":
		return []TypeRef{typeRef(node, source, filePath)}
	case "list", "tuple", "set":
		var refs []TypeRef
		for _, child := range namedChildren(node) {
			refs = append(refs, e.typeRefs(child, source, filePath)...)
		}
		return refs
	}
	return nil
}

func (e *pyExtractor) extractImport(node *tree_sitter.Node, source []byte) []Import {
	var out []Import
	for _, child := range namedChildren(node) {
		switch child.Kind() {
		case "dotted_name":
			p := child.Utf8Text(source)
			out = append(out, Import{Path: p, Alias: p})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name != nil && alias != nil {
				out = append(out, Import{Path: name.Utf8Text(source), Alias: alias.Utf8Text(source)})
			}
		}
	}
	return out
}

// extractFromImport handles "from <module> import A, B as C". Relative
// modules are resolved against pkg.
func (e *pyExtractor) extractFromImport(node *tree_sitter.Node, source []byte, pkg string) []Import {
	moduleNode := node.ChildByFieldName("module_name")
	if moduleNode == nil {
		return nil
	}
	module := resolvePyModule(moduleNode.Utf8Text(source), pkg)

	var out []Import
	for _, child := range namedChildren(node) {
		if child.StartByte() == moduleNode.StartByte() {
			continue
		}
		switch child.Kind() {
		case "dotted_name":
			name := child.Utf8Text(source)
			out = append(out, Import{Path: qualify(module, name), Alias: name})
		case "aliased_import":
			name := child.ChildByFieldName("name")
			alias := child.ChildByFieldName("alias")
			if name != nil && alias != nil {
				out = append(out, Import{Path: qualify(module, name.Utf8Text(source)), Alias: alias.Utf8Text(source)})
			}
		}
	}
	return out
}

// resolvePyModule resolves a possibly relative module name ("..scopes") as
// seen from the module pkg.
func resolvePyModule(module, pkg string) string {
	dots := len(module) - len(strings.TrimLeft(module, "."))
	if dots == 0 {
		return module
	}
	base := strings.Split(pkg, ".")
	// One dot is the package containing pkg.
	if dots <= len(base) {
		base = base[:len(base)-dots]
	} else {
		base = nil
	}
	return qualify(strings.Join(base, "."), module[dots:])
}
