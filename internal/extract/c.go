package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/headercvt/internal/ast"
	"github.com/hargabyte/headercvt/internal/parser"
)

// declSpec is the converted specifier part of a declaration.
type declSpec struct {
	base    *ast.Type
	storage ast.StorageClass
	spec    ast.Specifiers
	// tag is a tag declaration introduced by the type specifier. It is
	// added to the context before the declarators.
	tag *ast.Decl
	// implicitType is set when no type was written (constructors,
	// implicit int).
	implicitType bool
}

// declaratorEntry is one declarator of a declaration with the pieces that
// follow it.
type declaratorEntry struct {
	node     *sitter.Node
	init     string
	bitWidth string
}

// declaratorTypes are the node types that start a declarator.
var declaratorTypes = map[string]bool{
	"identifier":               true,
	"field_identifier":         true,
	"type_identifier":          true,
	"primitive_type":           true,
	"pointer_declarator":       true,
	"function_declarator":      true,
	"array_declarator":         true,
	"parenthesized_declarator": true,
	"init_declarator":          true,
	"attributed_declarator":    true,
	"reference_declarator":     true,
	"qualified_identifier":     true,
	"destructor_name":          true,
	"operator_name":            true,
	"operator_cast":            true,
}

// convertItems converts the item children of a container node
// (translation unit, declaration list, member list).
func (c *converter) convertItems(node *sitter.Node, sc *scope) error {
	for _, child := range children(node) {
		if err := c.convertItem(child, sc); err != nil {
			return err
		}
		if c.err != nil {
			return c.err
		}
	}
	return nil
}

// convertItem converts one top-level or member item.
func (c *converter) convertItem(node *sitter.Node, sc *scope) error {
	if hasSyntaxError(node) {
		if c.keepGoing {
			c.skip(node)
			return nil
		}
		return c.result.SyntaxError(node)
	}

	switch parser.EntityType(c.lang, node) {
	case parser.ItemDeclaration:
		c.convertDeclaration(node, sc, ast.Var)
	case parser.ItemField:
		c.convertDeclaration(node, sc, ast.Field)
	case parser.ItemTypedef:
		c.convertTypedef(node, sc)
	case parser.ItemFunction:
		c.convertFunctionDefinition(node, sc)
	case parser.ItemLinkage:
		return c.convertLinkage(node, sc)
	case parser.ItemNamespace:
		return c.convertNamespace(node, sc)
	case parser.ItemAccess:
		c.convertAccess(node, sc)
	case parser.ItemAlias:
		c.convertAlias(node, sc)
	}
	// Templates, static assertions and stray expressions carry no
	// declarations the renderer prints.
	return nil
}

// convertDeclaration converts a declaration or member declaration. Value
// declarators become declarations of kind valueKind; function declarators
// become functions.
func (c *converter) convertDeclaration(node *sitter.Node, sc *scope, valueKind ast.Kind) {
	entries := c.declaratorEntries(node)
	spec := c.specifiers(node, sc, len(entries) > 0, false)
	if spec.tag != nil {
		sc.decl.Add(spec.tag)
	}

	for _, entry := range entries {
		var info declInfo
		c.declarator(entry.node, spec.base, sc, &info)
		info.init = entry.init

		if info.direct {
			sc.decl.Add(c.newFunction(info, spec, sc))
			continue
		}
		sc.decl.Add(&ast.Decl{
			Kind:     valueKind,
			Name:     info.name,
			Pos:      info.pos,
			Type:     info.typ,
			Storage:  spec.storage,
			Init:     entry.init,
			BitWidth: entry.bitWidth,
		})
	}
}

// convertTypedef converts a type_definition.
func (c *converter) convertTypedef(node *sitter.Node, sc *scope) {
	entries := c.declaratorEntries(node)
	spec := c.specifiers(node, sc, len(entries) > 0, false)
	if spec.tag != nil {
		sc.decl.Add(spec.tag)
	}

	for _, entry := range entries {
		var info declInfo
		c.declarator(entry.node, spec.base, sc, &info)
		d := &ast.Decl{
			Kind: ast.Typedef,
			Name: info.name,
			Pos:  info.pos,
			Type: info.typ,
		}
		sc.declareTypedef(d)
		sc.decl.Add(d)
	}
}

// convertFunctionDefinition converts a function_definition, including K&R
// definitions whose parameter types follow the declarator.
func (c *converter) convertFunctionDefinition(node *sitter.Node, sc *scope) {
	spec := c.specifiers(node, sc, true, false)
	if spec.tag != nil {
		sc.decl.Add(spec.tag)
	}

	var info declInfo
	c.declarator(node.ChildByFieldName("declarator"), spec.base, sc, &info)
	fn := c.newFunction(info, spec, sc)

	if knrDecls := findChildrenByType(node, "declaration"); len(knrDecls) > 0 || len(info.knr) > 0 {
		c.applyKNR(fn, info, knrDecls, sc)
	}

	if body := node.ChildByFieldName("body"); body != nil {
		fn.Body = &ast.Body{Text: c.nodeText(body)}
	}
	for _, child := range children(node) {
		switch child.Type() {
		case "default_method_clause":
			fn.Spec.Defaulted = true
		case "delete_method_clause":
			fn.Spec.Deleted = true
		case "pure_virtual_clause":
			fn.Spec.Pure = true
		}
	}

	sc.decl.Add(fn)
}

// applyKNR rebuilds the parameters of an old-style definition from the
// name list and the declarations before the body.
func (c *converter) applyKNR(fn *ast.Decl, info declInfo, decls []*sitter.Node, sc *scope) {
	names := info.knr
	if len(names) == 0 {
		// Some grammars parse the bare names as typeless parameters.
		for _, p := range info.params {
			switch {
			case p.Name != "":
				names = append(names, p.Name)
			case p.Type != nil && p.Type.Name != "":
				names = append(names, p.Type.Name)
			}
		}
	}

	declared := make(map[string]*ast.Decl)
	for _, decl := range decls {
		entries := c.declaratorEntries(decl)
		spec := c.specifiers(decl, sc, len(entries) > 0, true)
		for _, entry := range entries {
			var pinfo declInfo
			c.declarator(entry.node, spec.base, sc, &pinfo)
			declared[pinfo.name] = &ast.Decl{Kind: ast.Param, Name: pinfo.name, Pos: pinfo.pos, Type: pinfo.typ}
		}
	}

	params := make([]*ast.Decl, 0, len(names))
	for _, name := range names {
		if p, ok := declared[name]; ok {
			params = append(params, p)
			continue
		}
		// Undeclared K&R parameters are int.
		params = append(params, &ast.Decl{Kind: ast.Param, Name: name, Type: ast.BuiltinOf("int")})
	}
	fn.Params = params

	if t := fn.Type; t != nil && t.Kind == ast.FunctionType {
		t.Proto = nil
	}
}

// newFunction builds a function declaration from a converted declarator.
func (c *converter) newFunction(info declInfo, spec declSpec, sc *scope) *ast.Decl {
	fn := &ast.Decl{
		Kind:      ast.Function,
		Name:      info.name,
		Qualifier: info.qualifier,
		Pos:       info.pos,
		Type:      info.typ,
		Params:    info.params,
		Storage:   spec.storage,
		Spec:      spec.spec,
		FuncKind:  info.funcKind,
	}
	switch info.init {
	case "0":
		fn.Spec.Pure = true
	case "delete":
		fn.Spec.Deleted = true
	case "default":
		fn.Spec.Defaulted = true
	}
	if c.cpp() {
		c.classifyMember(fn, spec, sc)
	}
	return fn
}

// declaratorEntries returns the declarators of a declaration, in order,
// with their initializers and bit widths.
func (c *converter) declaratorEntries(node *sitter.Node) []declaratorEntry {
	typeNode := node.ChildByFieldName("type")
	if isTagSpecifier(node.Type()) {
		return nil
	}

	var entries []declaratorEntry
	seenType := typeNode == nil
	afterEquals := false
	for _, child := range children(node) {
		if !seenType {
			seenType = sameNode(child, typeNode)
			continue
		}
		switch {
		case child.Type() == "=":
			afterEquals = true
		case afterEquals && child.IsNamed():
			if n := len(entries); n > 0 {
				entries[n-1].init = c.nodeText(child)
			}
			afterEquals = false
		case child.Type() == "bitfield_clause":
			width := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(c.nodeText(child)), ":"))
			// An unnamed bit-field arrives with a zero-width name.
			if n := len(entries); n > 0 {
				entries[n-1].bitWidth = width
			}
		case declaratorTypes[child.Type()]:
			entries = append(entries, declaratorEntry{node: child})
		}
	}
	return entries
}

// specifiers converts the declaration specifiers of node.
func (c *converter) specifiers(node *sitter.Node, sc *scope, hasDeclarators, inParams bool) declSpec {
	var spec declSpec
	var quals ast.Qualifiers

	typeNode := node.ChildByFieldName("type")
	if isTagSpecifier(node.Type()) {
		typeNode = node
	}

	for _, child := range children(node) {
		switch child.Type() {
		case "storage_class_specifier":
			switch strings.TrimSpace(c.nodeText(child)) {
			case "extern":
				spec.storage = ast.Extern
			case "static":
				spec.storage = ast.Static
			case "register":
				spec.storage = ast.Register
			case "auto":
				spec.storage = ast.AutoStorage
			case "__private_extern__":
				spec.storage = ast.PrivateExtern
			case "inline", "__inline", "__inline__", "__forceinline":
				spec.spec.Inline = true
			}
		case "type_qualifier":
			q, constexpr := qualifier(strings.TrimSpace(c.nodeText(child)))
			quals |= q
			spec.spec.Constexpr = spec.spec.Constexpr || constexpr
		case "virtual", "virtual_function_specifier":
			spec.spec.Virtual = true
		case "explicit_function_specifier":
			spec.spec.Explicit = true
		}
	}

	if typeNode == nil {
		spec.implicitType = true
		if c.cpp() {
			// Constructors, destructors and conversions return nothing
			// that is written.
			spec.base = ast.BuiltinOf("void")
		} else {
			spec.base = ast.BuiltinOf("int")
		}
	} else {
		spec.base, spec.tag = c.typeSpec(typeNode, sc, hasDeclarators, inParams)
	}
	if quals != 0 {
		spec.base = spec.base.WithQuals(quals)
	}
	if arg, bytes, ok := c.vectorAttribute(node); ok {
		spec.base = vectorOf(spec.base, arg, bytes)
	}
	return spec
}

// typeSpec resolves a type specifier node.
func (c *converter) typeSpec(node *sitter.Node, sc *scope, hasDeclarators, inParams bool) (*ast.Type, *ast.Decl) {
	text := normalizeSpace(c.nodeText(node))

	switch node.Type() {
	case "primitive_type":
		return ast.BuiltinOf(text), nil

	case "sized_type_specifier":
		return ast.BuiltinOf(canonicalBuiltin(strings.Fields(text))), nil

	case "type_identifier":
		if d := sc.lookupTypedef(text); d != nil {
			return ast.TypedefOf(d), nil
		}
		if c.cpp() {
			if d := sc.lookupTag(text); d != nil {
				return ast.TagOf(d), nil
			}
		}
		return &ast.Type{Kind: ast.TypedefRef, Name: text}, nil

	case "struct_specifier", "union_specifier", "enum_specifier", "class_specifier":
		return c.tagSpecifier(node, sc, hasDeclarators, inParams)

	case "placeholder_type_specifier", "auto":
		return &ast.Type{Kind: ast.Auto}, nil
	}

	// Macro types, qualified and template names are spelled as written.
	return &ast.Type{Kind: ast.TypedefRef, Name: text}, nil
}

// tagSpecifier resolves a struct, union, class or enum specifier. A body
// always defines a new tag. A reference to a tag that is not visible
// introduces an incomplete one, except in a parameter list where the tag is
// local to the prototype.
func (c *converter) tagSpecifier(node *sitter.Node, sc *scope, hasDeclarators, inParams bool) (*ast.Type, *ast.Decl) {
	kind := tagKinds[node.Type()]
	nameNode := node.ChildByFieldName("name")
	body := node.ChildByFieldName("body")
	name := normalizeSpace(c.nodeText(nameNode))

	pos := position(nameNode)
	if nameNode == nil {
		pos = position(node)
	}

	switch {
	case body != nil:
		tag := &ast.Decl{
			Kind:         ast.Tag,
			TagKind:      kind,
			Name:         name,
			Pos:          pos,
			Complete:     true,
			FreeStanding: !hasDeclarators,
		}
		if !inParams {
			sc.declareTag(tag)
		}
		c.convertTagBody(tag, body, sc)
		return ast.TagOf(tag), tag

	case name == "":
		return ast.TagOf(&ast.Decl{Kind: ast.Tag, TagKind: kind, Pos: pos}), nil

	case !hasDeclarators:
		// Forward declaration: struct X;
		tag := &ast.Decl{Kind: ast.Tag, TagKind: kind, Name: name, Pos: pos, FreeStanding: true}
		if prev := sc.lookupTag(name); prev == nil {
			sc.declareTag(tag)
		}
		return ast.TagOf(tag), tag
	}

	if prev := sc.lookupTag(name); prev != nil {
		return ast.TagOf(prev), nil
	}
	tag := &ast.Decl{Kind: ast.Tag, TagKind: kind, Name: name, Pos: pos}
	if inParams {
		return ast.TagOf(tag), nil
	}
	sc.declareTag(tag)
	return ast.TagOf(tag), tag
}

// convertTagBody converts the members of a record or the enumerators of an
// enum.
func (c *converter) convertTagBody(tag *ast.Decl, body *sitter.Node, sc *scope) {
	if tag.TagKind == ast.Enum {
		for _, e := range findChildrenByType(body, "enumerator") {
			nameNode := e.ChildByFieldName("name")
			tag.Add(&ast.Decl{
				Kind: ast.EnumConstant,
				Name: c.nodeText(nameNode),
				Pos:  position(nameNode),
				Init: normalizeSpace(c.nodeText(e.ChildByFieldName("value"))),
			})
		}
		return
	}

	inner := newScope(sc, tag)
	// C has no record scope: nested tags and typedefs belong to the
	// enclosing scope.
	inner.transparent = !c.cpp()
	if err := c.convertItems(body, inner); err != nil && c.err == nil {
		c.err = err
	}
}

// convertLinkage converts an extern "C" block or declaration.
func (c *converter) convertLinkage(node *sitter.Node, sc *scope) error {
	lang := strings.Trim(c.nodeText(node.ChildByFieldName("value")), `"`)
	d := sc.decl.Add(&ast.Decl{Kind: ast.LinkageSpec, Language: lang, Pos: position(node)})

	inner := newScope(sc, d)
	inner.transparent = true

	body := node.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	if body.Type() == "declaration_list" {
		return c.convertItems(body, inner)
	}
	return c.convertItem(body, inner)
}

var tagKinds = map[string]ast.TagKind{
	"struct_specifier": ast.Struct,
	"union_specifier":  ast.Union,
	"class_specifier":  ast.Class,
	"enum_specifier":   ast.Enum,
}

func isTagSpecifier(nodeType string) bool {
	_, ok := tagKinds[nodeType]
	return ok
}

// qualifier maps a type qualifier keyword.
func qualifier(word string) (ast.Qualifiers, bool) {
	switch word {
	case "const":
		return ast.Const, false
	case "volatile":
		return ast.Volatile, false
	case "restrict", "__restrict", "__restrict__":
		return ast.Restrict, false
	case "constexpr":
		return 0, true
	}
	return 0, false
}

// canonicalBuiltin spells a multi-word builtin type the way a compiler
// prints it: "unsigned long int" is "unsigned long", "signed" is "int".
func canonicalBuiltin(words []string) string {
	var unsigned, signed bool
	var shorts, longs int
	var base []string
	for _, w := range words {
		switch w {
		case "unsigned":
			unsigned = true
		case "signed":
			signed = true
		case "short":
			shorts++
		case "long":
			longs++
		default:
			base = append(base, w)
		}
	}

	switch strings.Join(base, " ") {
	case "char":
		switch {
		case unsigned:
			return "unsigned char"
		case signed:
			return "signed char"
		}
		return "char"
	case "double":
		if longs > 0 {
			return "long double"
		}
		return "double"
	case "", "int":
		name := "int"
		switch {
		case shorts > 0:
			name = "short"
		case longs == 1:
			name = "long"
		case longs >= 2:
			name = "long long"
		}
		if unsigned {
			return "unsigned " + name
		}
		return name
	}
	return strings.Join(words, " ")
}

// normalizeSpace collapses runs of whitespace into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
