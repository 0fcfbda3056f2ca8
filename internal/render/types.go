package render

import (
	"fmt"
	"strings"

	"github.com/hargabyte/headercvt/internal/ast"
)

// unknownSpelling stands in for a type the printer cannot spell.
const unknownSpelling = "__unknown_type"

// TypeString prints t as a declaration of name using policy p.
func TypeString(t *ast.Type, name string, p Policy) string {
	r := &Renderer{policy: p}
	return r.printType(t, name, p, 0)
}

// printType prints t with inner as the declarator text. Types are printed
// inside-out: each wrapper decorates inner and hands it to its element type,
// and the specifier at the bottom of the chain is written in front.
func (r *Renderer) printType(t *ast.Type, inner string, p Policy, indent int) string {
	if t == nil {
		return r.specifier(0, unknownSpelling, inner, p)
	}

	switch t.Kind {
	case ast.Builtin, ast.TypedefRef:
		return r.specifier(t.Quals, t.Name, inner, p)

	case ast.TagRef:
		return r.specifier(t.Quals, r.tagSpelling(t, p, indent), inner, p)

	case ast.Pointer, ast.BlockPointer, ast.LValueReference, ast.RValueReference:
		if t.Elem == nil {
			return r.specifier(t.Quals, unknownSpelling, inner, p)
		}
		s := sigil(t.Kind)
		if q := t.Quals.String(); q != "" {
			s += q
			if inner != "" {
				s += " "
			}
		}
		s += inner
		if needsParens(t.Elem) {
			s = "(" + s + ")"
		}
		return r.printType(t.Elem, s, p, indent)

	case ast.Array:
		if t.Elem == nil {
			return r.specifier(t.Quals, unknownSpelling, inner, p)
		}
		return r.printType(t.Elem, inner+"["+t.Size+"]", p, indent)

	case ast.FunctionType:
		s := inner + "(" + r.protoParams(t.Proto, p, indent) + ")" + protoSuffix(t.Proto)
		if t.Proto != nil && t.Proto.TrailingReturn {
			ret := r.printType(t.Elem, "", p.plain(), indent)
			return r.specifier(0, "auto", s, p) + " -> " + ret
		}
		return r.printType(t.Elem, s, p, indent)

	case ast.Vector:
		if t.Elem == nil {
			return r.specifier(t.Quals, unknownSpelling, inner, p)
		}
		elem := r.printType(t.Elem, "", p.plain(), indent)
		attr := fmt.Sprintf("__attribute__((__vector_size__(%s * sizeof(%s)))) ", t.Size, elem)
		if p.SuppressSpecifiers {
			return r.printType(t.Elem, inner, p, indent)
		}
		return attr + r.printType(t.Elem, inner, p, indent)

	case ast.Auto:
		if t.Elem != nil {
			return r.printType(t.Elem, inner, p, indent)
		}
		return r.specifier(t.Quals, "auto", inner, p)

	case ast.Paren:
		if t.Elem == nil {
			return r.specifier(t.Quals, unknownSpelling, inner, p)
		}
		if inner != "" {
			inner = "(" + inner + ")"
		}
		return r.printType(t.Elem, inner, p, indent)
	}

	// Unknown wrapper: spell whatever name it carries.
	name := t.Name
	if name == "" {
		name = unknownSpelling
	}
	return r.specifier(t.Quals, name, inner, p)
}

// specifier writes the specifier part of a declaration in front of inner.
func (r *Renderer) specifier(q ast.Qualifiers, spelling, inner string, p Policy) string {
	if p.SuppressSpecifiers {
		return inner
	}
	s := spelling
	if qs := q.String(); qs != "" {
		s = qs + " " + s
	}
	if inner != "" {
		s += " " + inner
	}
	return s
}

// tagSpelling spells a tag reference, or the full tag definition when the
// policy owns this tag.
func (r *Renderer) tagSpelling(t *ast.Type, p Policy, indent int) string {
	if t.Decl != nil && p.ownedTag == t.Decl {
		return r.tagText(t.Decl, p.plain(), indent)
	}

	kind := ast.Struct
	name := t.Name
	if t.Decl != nil {
		kind = t.Decl.TagKind
		name = t.Decl.Name
	}
	if name == "" {
		return kind.String() + " (anonymous)"
	}
	if p.CPlusPlus {
		return name
	}
	return kind.String() + " " + name
}

// protoParams renders the parameter types of a function type.
func (r *Renderer) protoParams(proto *ast.Proto, p Policy, indent int) string {
	if proto == nil {
		return ""
	}
	sub := p.plain()
	parts := make([]string, 0, len(proto.Params)+1)
	for _, param := range proto.Params {
		parts = append(parts, r.printType(param, "", sub, indent))
	}
	if proto.Variadic {
		parts = append(parts, "...")
	}
	if len(parts) == 0 && !p.CPlusPlus {
		return "void"
	}
	return strings.Join(parts, ", ")
}

// protoSuffix renders the qualifiers that follow a parameter list.
func protoSuffix(proto *ast.Proto) string {
	if proto == nil {
		return ""
	}
	var b strings.Builder
	if proto.Quals&ast.Const != 0 {
		b.WriteString(" const")
	}
	if proto.Quals&ast.Volatile != 0 {
		b.WriteString(" volatile")
	}
	if proto.Quals&ast.Restrict != 0 {
		b.WriteString(" restrict")
	}
	switch proto.RefQual {
	case ast.LValueRef:
		b.WriteString(" &")
	case ast.RValueRef:
		b.WriteString(" &&")
	}
	return b.String()
}

func sigil(k ast.TypeKind) string {
	switch k {
	case ast.BlockPointer:
		return "^"
	case ast.LValueReference:
		return "&"
	case ast.RValueReference:
		return "&&"
	}
	return "*"
}

// needsParens reports whether a declarator prefix must be parenthesized
// because the pointee binds tighter than the prefix.
func needsParens(elem *ast.Type) bool {
	return elem.Kind == ast.Array || elem.Kind == ast.FunctionType
}
