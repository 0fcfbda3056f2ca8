package render

import (
	"strings"

	"github.com/hargabyte/headercvt/internal/ast"
)

// functionText renders a function declaration or definition without its
// terminator.
func (r *Renderer) functionText(d *ast.Decl, p Policy, indent int) (string, error) {
	switch d.Storage {
	case ast.AutoStorage, ast.Register:
		return "", &UnsupportedStorageClassError{Name: d.Name, Storage: d.Storage, Pos: d.Pos}
	}

	var out strings.Builder
	if p.FunctionSpecifiers && !p.SuppressSpecifiers {
		out.WriteString(functionSpecifiers(d))
	}

	proto := r.functionName(d, p)

	ty := d.Type
	for ty != nil && ty.Kind == ast.Paren {
		proto = "(" + proto + ")"
		ty = ty.Elem
	}

	var fproto *ast.Proto
	if ty == nil || ty.Kind != ast.FunctionType {
		out.WriteString(r.printType(ty, proto, p, indent))
	} else {
		fproto = ty.Proto
		proto += "(" + r.functionParams(d, fproto, p, indent) + ")" + protoSuffix(fproto)

		switch d.FuncKind {
		case ast.Constructor, ast.Destructor, ast.Conversion:
			out.WriteString(proto)
		default:
			if fproto != nil && fproto.TrailingReturn {
				if d.FuncKind != ast.DeductionGuide && !p.SuppressSpecifiers {
					out.WriteString("auto ")
				}
				out.WriteString(proto)
				out.WriteString(" -> ")
				out.WriteString(r.printType(ty.Elem, "", p.plain(), indent))
			} else {
				out.WriteString(r.printType(ty.Elem, proto, p, indent))
			}
		}
	}

	switch {
	case d.Spec.Pure:
		out.WriteString(" = 0")
	case d.Spec.Deleted:
		out.WriteString(" = delete")
	case d.Spec.Defaulted:
		out.WriteString(" = default")
	case d.HasBody():
		if fproto == nil && len(d.Params) > 0 {
			// K&R definition: the parameter types follow the declarator.
			out.WriteString("\n")
			pad := r.indentString(indent+1, p)
			for _, param := range d.Params {
				out.WriteString(pad)
				out.WriteString(r.renderParam(param, p, indent+1))
				out.WriteString(";\n")
			}
		} else {
			out.WriteString(" ")
		}
		out.WriteString(d.Body.Text)
	}

	return out.String(), nil
}

// functionSpecifiers renders the keyword prefix of a function in fixed
// order.
func functionSpecifiers(d *ast.Decl) string {
	var b strings.Builder
	if s := d.Storage.String(); s != "" {
		b.WriteString(s)
		b.WriteString(" ")
	}
	if d.Spec.Inline {
		b.WriteString("inline ")
	}
	if d.Spec.Virtual {
		b.WriteString("virtual ")
	}
	if d.Spec.Constexpr && !d.Spec.Defaulted {
		b.WriteString("constexpr ")
	}
	if d.Spec.Explicit {
		switch d.FuncKind {
		case ast.Constructor, ast.Conversion, ast.DeductionGuide:
			b.WriteString("explicit ")
		}
	}
	return b.String()
}

// functionName builds the name fragment of a function declarator.
func (r *Renderer) functionName(d *ast.Decl, p Policy) string {
	if p.FullyQualifiedName {
		return d.QualifiedName()
	}
	if !p.SuppressScope {
		return d.Qualifier + d.Name
	}
	return d.Name
}

// functionParams renders the parameter list between the parentheses.
func (r *Renderer) functionParams(d *ast.Decl, proto *ast.Proto, p Policy, indent int) string {
	if proto == nil {
		// Without a prototype only a K&R definition lists its parameters,
		// and then by name only.
		if !d.HasBody() {
			return ""
		}
		names := make([]string, 0, len(d.Params))
		for _, param := range d.Params {
			names = append(names, param.Name)
		}
		return strings.Join(names, ", ")
	}

	var parts []string
	if len(d.Params) > 0 {
		for _, param := range d.Params {
			parts = append(parts, r.renderParam(param, p, indent))
		}
	} else {
		for _, t := range proto.Params {
			parts = append(parts, r.printType(t, "", p.plain(), indent))
		}
	}
	if proto.Variadic {
		parts = append(parts, "...")
	}
	if len(parts) == 0 && !p.CPlusPlus {
		return "void"
	}
	return strings.Join(parts, ", ")
}
