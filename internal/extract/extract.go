// Package extract is the header front end: it preprocesses a C or C++
// header, parses it with tree-sitter and converts the parse tree into an
// ast translation unit plus the macro directives seen on the way.
package extract

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/headercvt/internal/ast"
	"github.com/hargabyte/headercvt/internal/macro"
	"github.com/hargabyte/headercvt/internal/parser"
)

// Options configure the front end.
type Options struct {
	// Language selects the grammar. Empty means C.
	Language parser.Language
	// Defines are predefined macros, "NAME" or "NAME=VALUE".
	Defines []string
	// IgnoreIdentifiers are blanked out of declarations before parsing.
	IgnoreIdentifiers []string
	// KeepGoing skips top-level items with syntax errors instead of failing.
	KeepGoing bool
}

// Result is one converted header.
type Result struct {
	Unit   *ast.Decl
	Macros []macro.Event
	// Skipped lists the items dropped because of syntax errors. Only
	// populated with KeepGoing.
	Skipped []*parser.ParseError
}

// Extractor converts headers. It owns a tree-sitter parser and is not safe
// for concurrent use.
type Extractor struct {
	opts   Options
	parser *parser.Parser
}

// NewExtractor creates an extractor for the given options.
func NewExtractor(opts Options) (*Extractor, error) {
	if opts.Language == "" {
		opts.Language = parser.C
	}
	p, err := parser.NewParser(opts.Language)
	if err != nil {
		return nil, err
	}
	return &Extractor{opts: opts, parser: p}, nil
}

// Close releases the parser.
func (e *Extractor) Close() {
	e.parser.Close()
}

// Extract converts the header source read from path.
func (e *Extractor) Extract(ctx context.Context, path string, src []byte) (*Result, error) {
	pp, err := newPreprocessor(path, e.opts.Language, e.opts.Defines, e.opts.IgnoreIdentifiers).run(src)
	if err != nil {
		return nil, err
	}

	result, err := e.parser.ParseCtx(ctx, pp.source)
	if err != nil {
		if pe, ok := err.(*parser.ParseError); ok {
			pe.File = path
		}
		return nil, err
	}
	defer result.Close()
	result.FilePath = path

	if !e.opts.KeepGoing && hasSyntaxError(result.Root) {
		return nil, result.SyntaxError(result.Root)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := newConverter(result, e.opts)
	unit := &ast.Decl{Kind: ast.TranslationUnit, Name: path}
	if err := c.convertItems(result.Root, newScope(nil, unit)); err != nil {
		return nil, err
	}

	return &Result{Unit: unit, Macros: pp.events, Skipped: c.skipped}, nil
}

// ExtractFile is a convenience wrapper that creates an extractor for one
// header source.
func ExtractFile(ctx context.Context, path string, src []byte, opts Options) (*Result, error) {
	e, err := NewExtractor(opts)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	return e.Extract(ctx, path, src)
}

// scope is one level of name lookup. Tags and typedef names are looked up
// through the parent chain. A transparent scope (a linkage specification,
// a C record body) declares its names in the enclosing scope.
type scope struct {
	parent      *scope
	decl        *ast.Decl
	transparent bool
	tags        map[string]*ast.Decl
	typedefs    map[string]*ast.Decl
}

func newScope(parent *scope, decl *ast.Decl) *scope {
	return &scope{
		parent:   parent,
		decl:     decl,
		tags:     make(map[string]*ast.Decl),
		typedefs: make(map[string]*ast.Decl),
	}
}

func (s *scope) declaring() *scope {
	for s.transparent && s.parent != nil {
		s = s.parent
	}
	return s
}

func (s *scope) declareTag(d *ast.Decl) {
	if d.Name != "" {
		s.declaring().tags[d.Name] = d
	}
}

func (s *scope) declareTypedef(d *ast.Decl) {
	s.declaring().typedefs[d.Name] = d
}

func (s *scope) lookupTag(name string) *ast.Decl {
	for ; s != nil; s = s.parent {
		if d, ok := s.tags[name]; ok {
			return d
		}
	}
	return nil
}

func (s *scope) lookupTypedef(name string) *ast.Decl {
	for ; s != nil; s = s.parent {
		if d, ok := s.typedefs[name]; ok {
			return d
		}
	}
	return nil
}

// enclosingRecord returns the innermost record the scope belongs to.
func (s *scope) enclosingRecord() *ast.Decl {
	for ; s != nil; s = s.parent {
		if s.decl.Kind == ast.Tag {
			return s.decl
		}
		if !s.transparent {
			return nil
		}
	}
	return nil
}

// converter walks a parse tree and builds declarations.
type converter struct {
	result    *parser.ParseResult
	lang      parser.Language
	keepGoing bool
	skipped   []*parser.ParseError
	// err is the first failure inside a nested member list. It is reported
	// by the enclosing convertItems.
	err error
}

func newConverter(result *parser.ParseResult, opts Options) *converter {
	return &converter{
		result:    result,
		lang:      opts.Language,
		keepGoing: opts.KeepGoing,
	}
}

func (c *converter) cpp() bool { return c.lang == parser.Cpp }

// nodeText returns the source text for a node.
func (c *converter) nodeText(node *sitter.Node) string {
	return c.result.NodeText(node)
}

// skip records an item dropped because of a syntax error.
func (c *converter) skip(node *sitter.Node) {
	pe := c.result.SyntaxError(node)
	if pe == nil {
		start := node.StartPoint()
		pe = &parser.ParseError{
			Message: fmt.Sprintf("unexpected %s", node.Type()),
			File:    c.result.FilePath,
			Line:    start.Row + 1,
			Column:  start.Column + 1,
		}
	}
	c.skipped = append(c.skipped, pe)
}

// hasSyntaxError reports whether node contains a parse error. The missing
// name the grammar reports for an unnamed bit-field ("unsigned : 2;") is
// not an error.
func hasSyntaxError(node *sitter.Node) bool {
	if !node.HasError() {
		return false
	}
	if node.Type() == "ERROR" || node.IsMissing() {
		return true
	}
	count := int(node.ChildCount())
	for i := 0; i < count; i++ {
		child := node.Child(i)
		if child.IsMissing() && child.Type() == "field_identifier" && node.Type() == "field_declaration" &&
			i+1 < count && node.Child(i+1).Type() == "bitfield_clause" {
			continue
		}
		if hasSyntaxError(child) {
			return true
		}
	}
	return false
}

// findChildByType finds the first child node of the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// findChildrenByType finds all direct child nodes of the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var children []*sitter.Node
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child.Type() == nodeType {
			children = append(children, child)
		}
	}
	return children
}

// children returns the direct children of node.
func children(node *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, node.ChildCount())
	for i := uint32(0); i < node.ChildCount(); i++ {
		out = append(out, node.Child(int(i)))
	}
	return out
}

// sameNode reports whether a and b are the same node of the tree.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// position returns the 1-based start of node.
func position(node *sitter.Node) ast.Position {
	if node == nil {
		return ast.Position{}
	}
	p := node.StartPoint()
	return ast.Position{Line: p.Row + 1, Column: p.Column + 1}
}
