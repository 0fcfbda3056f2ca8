package render

import "github.com/hargabyte/headercvt/internal/ast"

// renderParam prints one parameter as its type declaring its name. Unnamed
// parameters print as an abstract declarator.
func (r *Renderer) renderParam(param *ast.Decl, p Policy, indent int) string {
	return r.printType(param.Type, param.Name, p.plain(), indent)
}

// ParamString prints a parameter declaration using policy p.
func ParamString(param *ast.Decl, p Policy) string {
	r := &Renderer{policy: p}
	return r.renderParam(param, p, 0)
}
