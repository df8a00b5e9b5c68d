package source

import (
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/dusk-indust/scopemerge/internal/merge"
)

// rsExtractor extracts attributed items from Rust source files. The package
// of a file is its path below src/, so "src/app/modules.rs" is "app.modules"
// and paths written as crate::app::modules::X resolve against it.
type rsExtractor struct{}

func (e *rsExtractor) Extract(root *tree_sitter.Node, source []byte, filePath string) fileFacts {
	facts := fileFacts{pkg: rustModulePath(filePath)}

	cursor := root.Walk()
	defer cursor.Close()

	e.walk(cursor, source, filePath, nil, &facts)
	return facts
}

func rustModulePath(filePath string) string {
	p := strings.ReplaceAll(filePath, "\\", "/")
	if i := strings.LastIndex(p, "src/"); i >= 0 {
		p = p[i+len("src/"):]
	}
	return modulePath(p, "mod", "lib", "main")
}

func (e *rsExtractor) walk(
	cursor *tree_sitter.TreeCursor,
	source []byte,
	filePath string,
	enclosing []string,
	facts *fileFacts,
) {
	node := cursor.Node()

	switch node.Kind() {
	case "struct_item", "enum_item", "trait_item", "type_item":
		if decl := e.extractItem(node, source, filePath, facts.pkg, enclosing); decl != nil {
			facts.declarations = append(facts.declarations, *decl)
		}
		return

	case "mod_item":
		if name := node.ChildByFieldName("name"); name != nil {
			enclosing = append(enclosing[:len(enclosing):len(enclosing)], name.Utf8Text(source))
		}

	case "use_declaration":
		facts.imports = append(facts.imports, e.extractUse(node, source)...)
		return

	case "function_item", "impl_item":
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

func (e *rsExtractor) extractItem(
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

	kind := DeclStruct
	switch node.Kind() {
	case "enum_item":
		kind = DeclEnum
	case "trait_item":
		kind = DeclTrait
	case "type_item":
		kind = DeclType
	}

	decl := &Declaration{
		Name:       name,
		Package:    pkg,
		Qualified:  qualify(pkg, strings.Join(enclosing, "."), name),
		Kind:       kind,
		Visibility: rustVisibility(node, source),
		Location:   position(nameNode, filePath),
	}
	if len(enclosing) > 0 {
		decl.Enclosing = qualify(pkg, strings.Join(enclosing, "."))
	}

	// Outer attributes are the attribute_item siblings right before the item.
	var attrs []*tree_sitter.Node
	for prev := node.PrevSibling(); prev != nil; prev = prev.PrevSibling() {
		kind := prev.Kind()
		if kind == "line_comment" || kind == "block_comment" {
			continue
		}
		if kind != "attribute_item" {
			break
		}
		attrs = append(attrs, prev)
	}
	for i := len(attrs) - 1; i >= 0; i-- {
		if ann := e.extractAttribute(attrs[i], source, filePath); ann != nil {
			decl.Annotations = append(decl.Annotations, *ann)
		}
	}
	return decl
}

// rustVisibility maps "pub" to public, restricted "pub(...)" to internal and
// no modifier to private.
func rustVisibility(node *tree_sitter.Node, source []byte) merge.Visibility {
	vis := childOfKind(node, "visibility_modifier")
	if vis == nil {
		return merge.VisibilityPrivate
	}
	if strings.TrimSpace(vis.Utf8Text(source)) == "pub" {
		return merge.VisibilityPublic
	}
	return merge.VisibilityInternal
}

func (e *rsExtractor) extractAttribute(item *tree_sitter.Node, source []byte, filePath string) *Annotation {
	attr := childOfKind(item, "attribute")
	if attr == nil {
		return nil
	}
	path := attr.NamedChild(0)
	if path == nil {
		return nil
	}
	ann := &Annotation{
		Name:     path.Utf8Text(source),
		Location: position(item, filePath),
	}

	if args := attr.ChildByFieldName("arguments"); args != nil && args.Kind() == "token_tree" {
		for _, group := range splitTokenTree(args) {
			key, value := "", group
			if len(group) > 2 && group[1].Kind() == "=" {
				key, value = group[0].Utf8Text(source), group[2:]
			}
			ann.Args = addArg(ann.Args, key, rustPaths(value, source, filePath)...)
		}
	}
	return ann
}

// splitTokenTree splits the tokens between the outer delimiters of a token
// tree at top-level commas.
func splitTokenTree(tree *tree_sitter.Node) [][]*tree_sitter.Node {
	var (
		groups  [][]*tree_sitter.Node
		current []*tree_sitter.Node
	)
	n := tree.ChildCount()
	for i := uint(0); i < n; i++ {
		child := tree.Child(i)
		if child == nil {
			continue
		}
		if (i == 0 || i == n-1) && !child.IsNamed() {
			switch child.Kind() {
			case "(", ")", "[", "]", "{", "}":
				continue
			}
		}
		if child.Kind() == "," {
			if len(current) > 0 {
				groups = append(groups, current)
			}
			current = nil
			continue
		}
		current = append(current, child)
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// rustPaths turns tokens into type refs: a run of path tokens such as
// crate::app::AppScope is one ref, and a nested token tree is a list.
func rustPaths(tokens []*tree_sitter.Node, source []byte, filePath string) []TypeRef {
	var (
		refs []TypeRef
		cur  *TypeRef
	)
	flush := func() {
		if cur != nil && cur.Name != "" {
			refs = append(refs, *cur)
		}
		cur = nil
	}
	for _, tok := range tokens {
		switch tok.Kind() {
		case "identifier", "crate", "self", "super", "::":
			if cur == nil {
				cur = &TypeRef{Location: position(tok, filePath)}
			}
			cur.Name += tok.Utf8Text(source)
		case "token_tree":
			flush()
			for _, group := range splitTokenTree(tok) {
				refs = append(refs, rustPaths(group, source, filePath)...)
			}
		default:
			flush()
		}
	}
	flush()
	return refs
}

// extractUse records simple "use a::b::C;" and "use a::b::C as D;" imports.
func (e *rsExtractor) extractUse(node *tree_sitter.Node, source []byte) []Import {
	arg := node.ChildByFieldName("argument")
	if arg == nil {
		return nil
	}
	switch arg.Kind() {
	case "scoped_identifier", "identifier":
		p := arg.Utf8Text(source)
		return []Import{{Path: p, Alias: lastSegment(p)}}
	case "use_as_clause":
		p := arg.ChildByFieldName("path")
		alias := arg.ChildByFieldName("alias")
		if p != nil && alias != nil {
			return []Import{{Path: p.Utf8Text(source), Alias: alias.Utf8Text(source)}}
		}
	}
	return nil
}
