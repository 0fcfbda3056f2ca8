package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hargabyte/headercvt/internal/ast"
	"github.com/hargabyte/headercvt/internal/filter"
)

// Stats counts what a render pass did.
type Stats struct {
	Rendered int `yaml:"rendered" json:"rendered"`
	Groups   int `yaml:"groups" json:"groups"`
	Filtered int `yaml:"filtered" json:"filtered"`
	Skipped  int `yaml:"skipped" json:"skipped"`
}

// Renderer walks a declaration tree and prints the declarations the filter
// accepts.
type Renderer struct {
	filter *filter.Filter
	policy Policy
	diags  []Diagnostic
	stats  Stats
}

// New creates a renderer. A nil filter accepts every declaration.
func New(f *filter.Filter, p Policy) *Renderer {
	return &Renderer{filter: f, policy: p}
}

// Render prints every declaration of the translation unit tu to w.
func (r *Renderer) Render(w io.Writer, tu *ast.Decl) error {
	if tu == nil || tu.Kind != ast.TranslationUnit {
		return errors.New("render: root is not a translation unit")
	}
	var b strings.Builder
	r.walkContext(&b, tu, r.policy, 0)
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write declarations: %w", err)
	}
	return nil
}

// Diagnostics returns the problems recovered from so far.
func (r *Renderer) Diagnostics() []Diagnostic {
	return r.diags
}

// Stats returns the counters of the passes run so far.
func (r *Renderer) Stats() Stats {
	return r.stats
}

// DeclString renders a single declaration without terminator using
// policy p.
func DeclString(d *ast.Decl, p Policy) (string, error) {
	r := &Renderer{policy: p}
	return r.declText(d, p, 0)
}

// walkContext renders the children of dc at the given nesting level.
//
// A tag that is not free-standing opens a group. Following declarations
// whose base type is that very tag join the group; anything else flushes
// it. Groups never outlive the context they started in.
func (r *Renderer) walkContext(b *strings.Builder, dc *ast.Decl, p Policy, indent int) {
	var group []*ast.Decl
	lastEnumConstant := lastOfKind(dc.Children, ast.EnumConstant)

	for i, d := range dc.Children {
		if d.Implicit || d.ImplicitInstantiation {
			continue
		}
		if !r.filter.IsAPISymbol(d) {
			r.stats.Filtered++
			continue
		}

		if len(group) > 0 && joinsGroup(d, group) {
			group = append(group, d)
			continue
		}

		if len(group) > 0 {
			r.flushGroup(b, group, p, indent)
			group = nil
		}

		if d.Kind == ast.Tag && !d.FreeStanding {
			group = append(group, d)
			continue
		}

		if d.Kind == ast.AccessSpec {
			b.WriteString(r.indentString(indent-1, p))
			b.WriteString(d.Access.String())
			b.WriteString(":\n")
			continue
		}

		text, err := r.declText(d, p, indent)
		if err != nil {
			r.skip(d, err)
			continue
		}
		b.WriteString(r.indentString(indent, p))
		b.WriteString(text)
		b.WriteString(terminator(d, i == lastEnumConstant))
		b.WriteString("\n")
		r.stats.Rendered++
	}

	if len(group) > 0 {
		r.flushGroup(b, group, p, indent)
	}
}

// joinsGroup reports whether d's base type is the group's anchor tag and
// d agrees with the group's first declarator on being a typedef.
func joinsGroup(d *ast.Decl, group []*ast.Decl) bool {
	t := ast.DeclType(d)
	if t == nil {
		return false
	}
	base := ast.BaseType(t)
	if base.Kind != ast.TagRef || base.Decl != group[0] {
		return false
	}
	return len(group) < 2 || (d.Kind == ast.Typedef) == (group[1].Kind == ast.Typedef)
}

// flushGroup prints a tag and the declarators that share it as one
// declaration: the tag body once, then the declarators comma-joined.
func (r *Renderer) flushGroup(b *strings.Builder, group []*ast.Decl, p Policy, indent int) {
	tag := group[0]

	var parts []string
	first := true
	for _, d := range group[1:] {
		sub := p.declarators()
		if first {
			sub = p.owning(tag)
		}
		text, err := r.declText(d, sub, indent)
		if err != nil {
			r.skip(d, err)
			continue
		}
		parts = append(parts, text)
		first = false
	}

	b.WriteString(r.indentString(indent, p))
	if len(parts) == 0 {
		b.WriteString(r.tagText(tag, p.plain(), indent))
	} else {
		b.WriteString(strings.Join(parts, ", "))
	}
	b.WriteString(";\n")
	r.stats.Groups++
	r.stats.Rendered += 1 + len(parts)
}

// declText renders one declaration without indentation or terminator.
func (r *Renderer) declText(d *ast.Decl, p Policy, indent int) (string, error) {
	r.checkType(d)

	switch d.Kind {
	case ast.Typedef:
		prefix := ""
		if !p.SuppressSpecifiers {
			prefix = "typedef "
		}
		return prefix + r.printType(d.Type, d.Name, p, indent), nil

	case ast.Var, ast.Field, ast.Param:
		var s strings.Builder
		if !p.SuppressSpecifiers && d.Kind == ast.Var {
			if sc := d.Storage.String(); sc != "" {
				s.WriteString(sc)
				s.WriteString(" ")
			}
		}
		s.WriteString(r.printType(d.Type, d.Name, p, indent))
		if d.BitWidth != "" {
			s.WriteString(" : ")
			s.WriteString(d.BitWidth)
		}
		if d.Init != "" {
			s.WriteString(" = ")
			s.WriteString(d.Init)
		}
		return s.String(), nil

	case ast.Function:
		return r.functionText(d, p, indent)

	case ast.Tag:
		return r.tagText(d, p.plain(), indent), nil

	case ast.EnumConstant:
		if d.Init != "" {
			return d.Name + " = " + d.Init, nil
		}
		return d.Name, nil

	case ast.Namespace:
		head := "namespace "
		if d.Name != "" {
			head += d.Name + " "
		}
		return r.block(head, d, p, indent), nil

	case ast.LinkageSpec:
		lang := d.Language
		if lang == "" {
			lang = "C"
		}
		return r.block(fmt.Sprintf("extern %q ", lang), d, p, indent), nil

	case ast.AccessSpec:
		return d.Access.String() + ":", nil

	case ast.TranslationUnit:
		var b strings.Builder
		r.walkContext(&b, d, p.plain(), indent)
		return strings.TrimSuffix(b.String(), "\n"), nil
	}

	return "", &UnknownDeclError{Name: d.Name, Kind: d.Kind}
}

// tagText renders a tag: its keyword and name, plus the member list when
// the tag is a complete definition.
func (r *Renderer) tagText(d *ast.Decl, p Policy, indent int) string {
	var b strings.Builder
	b.WriteString(d.TagKind.String())
	if d.Name != "" {
		b.WriteString(" ")
		b.WriteString(d.Name)
	}
	if !d.Complete {
		return b.String()
	}
	b.WriteString(" {\n")
	r.walkContext(&b, d, p.plain(), indent+1)
	b.WriteString(r.indentString(indent, p))
	b.WriteString("}")
	return b.String()
}

// block renders a braced context such as a namespace.
func (r *Renderer) block(head string, d *ast.Decl, p Policy, indent int) string {
	var b strings.Builder
	b.WriteString(head)
	b.WriteString("{\n")
	r.walkContext(&b, d, p.plain(), indent+1)
	b.WriteString(r.indentString(indent, p))
	b.WriteString("}")
	return b.String()
}

// terminator picks the text that closes a standalone declaration.
func terminator(d *ast.Decl, lastEnumConstant bool) string {
	switch d.Kind {
	case ast.Function:
		if d.HasBody() {
			return ""
		}
		return ";"
	case ast.Namespace, ast.LinkageSpec, ast.TranslationUnit:
		return ""
	case ast.EnumConstant:
		if lastEnumConstant {
			return ""
		}
		return ","
	}
	return ";"
}

// checkType records a diagnostic when a typed declaration carries a
// malformed type. Rendering goes on regardless.
func (r *Renderer) checkType(d *ast.Decl) {
	switch d.Kind {
	case ast.Typedef, ast.Var, ast.Param, ast.Field, ast.Function:
	default:
		return
	}
	if !ast.IsMalformed(d.Type) {
		return
	}
	msg := "type has no specifier at the end of its wrapper chain"
	if d.Type == nil {
		msg = "declaration has no type"
	}
	r.diags = append(r.diags, Diagnostic{
		Kind:    DiagMalformedType,
		Decl:    d.Name,
		Line:    d.Pos.Line,
		Message: msg,
	})
}

// skip records a declaration that could not be rendered.
func (r *Renderer) skip(d *ast.Decl, err error) {
	kind := DiagUnknownDecl
	var sce *UnsupportedStorageClassError
	if errors.As(err, &sce) {
		kind = DiagUnsupportedStorageClass
	}
	r.diags = append(r.diags, Diagnostic{
		Kind:    kind,
		Decl:    d.Name,
		Line:    d.Pos.Line,
		Message: err.Error(),
	})
	r.stats.Skipped++
}

func (r *Renderer) indentString(level int, p Policy) string {
	if level <= 0 || p.Indentation <= 0 {
		return ""
	}
	return strings.Repeat(" ", level*p.Indentation)
}

// lastOfKind returns the index of the last explicit child of the given
// kind, or -1.
func lastOfKind(children []*ast.Decl, kind ast.Kind) int {
	for i := len(children) - 1; i >= 0; i-- {
		c := children[i]
		if c.Kind == kind && !c.Implicit {
			return i
		}
	}
	return -1
}
