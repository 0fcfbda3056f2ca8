package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/headercvt/internal/ast"
)

// convertNamespace converts a namespace definition and its members.
func (c *converter) convertNamespace(node *sitter.Node, sc *scope) error {
	name := normalizeSpace(c.nodeText(node.ChildByFieldName("name")))
	d := sc.decl.Add(&ast.Decl{Kind: ast.Namespace, Name: name, Pos: position(node)})

	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	return c.convertItems(body, newScope(sc, d))
}

// convertAccess converts an access label inside a class body.
func (c *converter) convertAccess(node *sitter.Node, sc *scope) {
	var access ast.Access
	switch strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(c.nodeText(node)), ":")) {
	case "public":
		access = ast.Public
	case "protected":
		access = ast.Protected
	case "private":
		access = ast.Private
	default:
		return
	}
	sc.decl.Add(&ast.Decl{Kind: ast.AccessSpec, Access: access, Pos: position(node)})
}

// convertAlias converts "using Name = type;" into a typedef.
func (c *converter) convertAlias(node *sitter.Node, sc *scope) {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return
	}
	d := &ast.Decl{
		Kind: ast.Typedef,
		Name: c.nodeText(nameNode),
		Pos:  position(nameNode),
		Type: c.typeDescriptor(typeNode, sc),
	}
	sc.declareTypedef(d)
	sc.decl.Add(d)
}

// classifyMember marks constructors: a function declared without a return
// type whose name matches the enclosing class, or the last component of its
// written qualifier.
func (c *converter) classifyMember(fn *ast.Decl, spec declSpec, sc *scope) {
	if fn.FuncKind != ast.PlainFunc || !spec.implicitType {
		return
	}
	if record := sc.enclosingRecord(); record != nil && record.Name == fn.Name {
		fn.FuncKind = ast.Constructor
		return
	}
	if q := strings.TrimSuffix(fn.Qualifier, "::"); q != "" {
		parts := strings.Split(q, "::")
		if parts[len(parts)-1] == fn.Name {
			fn.FuncKind = ast.Constructor
		}
	}
}
