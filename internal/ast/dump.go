package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump writes an indented outline of the declaration tree rooted at d:
// one line per declaration with its kind, name, type chain and position.
func Dump(w io.Writer, d *Decl) error {
	return dump(w, d, 0)
}

func dump(w io.Writer, d *Decl, depth int) error {
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(d.Kind.String())

	switch d.Kind {
	case Tag:
		b.WriteString(" " + d.TagKind.String())
	case AccessSpec:
		b.WriteString(" " + d.Access.String())
	case LinkageSpec:
		b.WriteString(` "` + d.Language + `"`)
	}
	if d.Name != "" {
		b.WriteString(" " + d.Name)
	}
	if d.Type != nil {
		b.WriteString(" : " + TypeChain(d.Type))
	}

	var flags []string
	if d.Kind == Tag && !d.Complete {
		flags = append(flags, "incomplete")
	}
	if d.Kind == Tag && !d.FreeStanding {
		flags = append(flags, "inline")
	}
	if d.HasBody() {
		flags = append(flags, "definition")
	}
	if d.Implicit {
		flags = append(flags, "implicit")
	}
	if len(flags) > 0 {
		b.WriteString(" [" + strings.Join(flags, ",") + "]")
	}
	if d.Pos.Line > 0 {
		fmt.Fprintf(&b, " @%d:%d", d.Pos.Line, d.Pos.Column)
	}
	b.WriteString("\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	for _, p := range d.Params {
		if err := dump(w, p, depth+1); err != nil {
			return err
		}
	}
	for _, c := range d.Children {
		if err := dump(w, c, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// TypeChain describes the wrapper chain of t from the outside in, e.g.
// "pointer > const typedef cl_int".
func TypeChain(t *Type) string {
	var parts []string
	for ; t != nil; t = t.Inner() {
		part := t.Kind.String()
		if q := t.Quals.String(); q != "" {
			part = q + " " + part
		}
		switch {
		case t.IsSpecifier():
			if t.Name != "" {
				part += " " + t.Name
			} else {
				part += " (anonymous)"
			}
		case t.Kind == Array || t.Kind == Vector:
			part += "[" + t.Size + "]"
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, " > ")
}
