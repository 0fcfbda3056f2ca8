package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/headercvt/internal/ast"
)

// declInfo collects what a declarator says about the declared name.
type declInfo struct {
	name      string
	qualifier string
	pos       ast.Position
	typ       *ast.Type

	// direct is set when a function declarator applies to the name itself,
	// making the declaration a function rather than a value.
	direct bool
	params []*ast.Decl
	// knr holds the identifier list of an old-style definition.
	knr []string

	funcKind ast.FuncKind
	init     string
}

// declarator applies node to the type t, inside-out, and records the
// declared name in info. Parentheses only group; they never produce types.
func (c *converter) declarator(node *sitter.Node, t *ast.Type, sc *scope, info *declInfo) {
	if node == nil {
		info.typ = t
		return
	}

	switch node.Type() {
	case "identifier", "field_identifier", "type_identifier", "primitive_type", "namespace_identifier":
		info.name = c.nodeText(node)
		info.pos = position(node)
		info.typ = t

	case "destructor_name":
		info.name = strings.ReplaceAll(c.nodeText(node), " ", "")
		info.pos = position(node)
		info.funcKind = ast.Destructor
		info.typ = t

	case "operator_name":
		info.name = operatorName(c.nodeText(node))
		info.pos = position(node)
		info.typ = t

	case "operator_cast":
		target := c.typeDescriptorOf(node, sc)
		info.name = "operator " + c.typeSpelling(node.ChildByFieldName("type"))
		info.pos = position(node)
		info.funcKind = ast.Conversion
		c.declarator(node.ChildByFieldName("declarator"), target, sc, info)
		info.direct = true

	case "qualified_identifier":
		scopeNode := node.ChildByFieldName("scope")
		nameNode := node.ChildByFieldName("name")
		if scopeNode != nil {
			info.qualifier += normalizeSpace(c.nodeText(scopeNode)) + "::"
		}
		c.declarator(nameNode, t, sc, info)

	case "pointer_declarator", "abstract_pointer_declarator":
		p := &ast.Type{Kind: ast.Pointer, Elem: t, Quals: c.declaratorQuals(node)}
		c.declarator(node.ChildByFieldName("declarator"), p, sc, info)

	case "reference_declarator", "abstract_reference_declarator":
		kind := ast.LValueReference
		if findChildByType(node, "&&") != nil {
			kind = ast.RValueReference
		}
		r := &ast.Type{Kind: kind, Elem: t}
		c.declarator(firstNamedChild(node), r, sc, info)

	case "array_declarator", "abstract_array_declarator":
		a := &ast.Type{Kind: ast.Array, Elem: t}
		if size := node.ChildByFieldName("size"); size != nil {
			a.Size = normalizeSpace(c.nodeText(size))
		}
		c.declarator(node.ChildByFieldName("declarator"), a, sc, info)

	case "function_declarator", "abstract_function_declarator":
		fn, params, knr := c.functionType(node, t, sc)
		inner := node.ChildByFieldName("declarator")
		if isNameDeclarator(inner) {
			info.direct = true
			info.params = params
			info.knr = knr
		}
		c.declarator(inner, fn, sc, info)

	case "parenthesized_declarator", "abstract_parenthesized_declarator":
		c.declarator(firstNamedChild(node), t, sc, info)

	case "init_declarator":
		info.init = normalizeSpace(c.nodeText(node.ChildByFieldName("value")))
		c.declarator(node.ChildByFieldName("declarator"), t, sc, info)

	case "attributed_declarator":
		c.declarator(firstNamedChild(node), t, sc, info)

	default:
		info.typ = t
	}
}

// functionType builds the function type of a function declarator returning
// ret, along with the parameter declarations it names. An empty C list or
// an old-style identifier list declares no prototype.
func (c *converter) functionType(node *sitter.Node, ret *ast.Type, sc *scope) (*ast.Type, []*ast.Decl, []string) {
	fn := &ast.Type{Kind: ast.FunctionType, Elem: ret}
	list := node.ChildByFieldName("parameters")
	params, knr := c.parameterDecls(list, sc)
	if list == nil || len(knr) > 0 {
		return fn, params, knr
	}

	proto := &ast.Proto{}
	for _, child := range children(list) {
		if child.Type() == "variadic_parameter" || child.Type() == "..." {
			proto.Variadic = true
		}
	}
	if len(params) == 0 && !proto.Variadic && !c.cpp() && !c.hasVoidParam(list) {
		return fn, params, knr
	}
	for _, p := range params {
		proto.Params = append(proto.Params, p.Type)
	}
	fn.Proto = proto

	for _, child := range children(node) {
		switch child.Type() {
		case "type_qualifier":
			q, _ := qualifier(strings.TrimSpace(c.nodeText(child)))
			proto.Quals |= q
		case "ref_qualifier":
			if strings.TrimSpace(c.nodeText(child)) == "&&" {
				proto.RefQual = ast.RValueRef
			} else {
				proto.RefQual = ast.LValueRef
			}
		case "trailing_return_type":
			if desc := findChildByType(child, "type_descriptor"); desc != nil {
				fn.Elem = c.typeDescriptor(desc, sc)
				proto.TrailingReturn = true
			}
		}
	}
	return fn, params, knr
}

// parameterDecls converts the parameters of a list. A lone unnamed void
// parameter means no parameters. Bare identifiers form an old-style list.
func (c *converter) parameterDecls(list *sitter.Node, sc *scope) ([]*ast.Decl, []string) {
	if list == nil {
		return nil, nil
	}

	var params []*ast.Decl
	var knr []string
	for _, child := range children(list) {
		switch child.Type() {
		case "parameter_declaration", "optional_parameter_declaration":
			declNode := child.ChildByFieldName("declarator")
			spec := c.specifiers(child, sc, declNode != nil, true)
			var info declInfo
			c.declarator(declNode, spec.base, sc, &info)
			p := &ast.Decl{Kind: ast.Param, Name: info.name, Pos: info.pos, Type: info.typ}
			if def := child.ChildByFieldName("default_value"); def != nil {
				p.Init = normalizeSpace(c.nodeText(def))
			}
			params = append(params, p)
		case "identifier":
			knr = append(knr, c.nodeText(child))
		}
	}

	if len(params) == 1 && params[0].Name == "" && isVoid(params[0].Type) {
		params = nil
	}
	return params, knr
}

// hasVoidParam reports whether list is the written "(void)".
func (c *converter) hasVoidParam(list *sitter.Node) bool {
	decls := findChildrenByType(list, "parameter_declaration")
	return len(decls) == 1 && decls[0].ChildByFieldName("declarator") == nil &&
		strings.TrimSpace(c.nodeText(decls[0])) == "void"
}

// typeDescriptor converts a type_descriptor (a type name with an abstract
// declarator).
func (c *converter) typeDescriptor(node *sitter.Node, sc *scope) *ast.Type {
	spec := c.specifiers(node, sc, true, true)
	var info declInfo
	c.declarator(node.ChildByFieldName("declarator"), spec.base, sc, &info)
	return info.typ
}

// typeDescriptorOf resolves the target type of a conversion operator.
func (c *converter) typeDescriptorOf(node *sitter.Node, sc *scope) *ast.Type {
	typeNode := node.ChildByFieldName("type")
	if typeNode == nil {
		return ast.BuiltinOf("void")
	}
	t, _ := c.typeSpec(typeNode, sc, true, true)
	return t
}

// typeSpelling returns the written text of a type node.
func (c *converter) typeSpelling(node *sitter.Node) string {
	return normalizeSpace(c.nodeText(node))
}

// declaratorQuals collects the qualifiers written after a '*'.
func (c *converter) declaratorQuals(node *sitter.Node) ast.Qualifiers {
	var q ast.Qualifiers
	for _, child := range findChildrenByType(node, "type_qualifier") {
		qq, _ := qualifier(strings.TrimSpace(c.nodeText(child)))
		q |= qq
	}
	return q
}

// isNameDeclarator reports whether node, after parentheses, names the
// declared entity.
func isNameDeclarator(node *sitter.Node) bool {
	for node != nil {
		switch node.Type() {
		case "parenthesized_declarator", "attributed_declarator":
			node = firstNamedChild(node)
			continue
		case "identifier", "field_identifier", "type_identifier", "primitive_type",
			"qualified_identifier", "destructor_name", "operator_name":
			return true
		}
		return false
	}
	return false
}

func isVoid(t *ast.Type) bool {
	return t != nil && t.Kind == ast.Builtin && t.Name == "void" && t.Quals == 0
}

// firstNamedChild returns the first named child that is not an attribute
// or comment.
func firstNamedChild(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "attribute_specifier", "attribute_declaration", "ms_declspec_modifier",
			"type_qualifier", "comment":
			continue
		}
		return child
	}
	return nil
}

// operatorName normalizes "operator  ==" to "operator==".
func operatorName(text string) string {
	op := strings.TrimSpace(strings.TrimPrefix(text, "operator"))
	op = strings.Join(strings.Fields(op), "")
	if op == "" {
		return "operator"
	}
	if isIdentStart(op[0]) {
		// operator new, operator delete
		return "operator " + strings.Join(strings.Fields(strings.TrimPrefix(text, "operator")), " ")
	}
	return "operator" + op
}
