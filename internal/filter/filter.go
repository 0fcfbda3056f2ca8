// Package filter decides which declarations and macros belong to the API
// surface being extracted.
package filter

import (
	"fmt"
	"regexp"

	"github.com/hargabyte/headercvt/internal/ast"
)

// Pattern is a compiled name pattern. A name matches only if the whole
// name matches the expression.
type Pattern struct {
	expr string
	re   *regexp.Regexp
}

// Compile compiles expr as a whole-name pattern.
func Compile(expr string) (*Pattern, error) {
	re, err := regexp.Compile(`^(?:` + expr + `)$`)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	return &Pattern{expr: expr, re: re}, nil
}

// MustCompile is like Compile but panics on error. For tests and
// package-level defaults only.
func MustCompile(expr string) *Pattern {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether name matches the pattern.
func (p *Pattern) Match(name string) bool {
	if p == nil {
		return false
	}
	return p.re.MatchString(name)
}

// String returns the expression the pattern was compiled from.
func (p *Pattern) String() string {
	if p == nil {
		return ""
	}
	return p.expr
}

// Filter is the declaration predicate. Only functions are filtered by name;
// every other declaration kind is needed to describe their signatures and
// always passes.
type Filter struct {
	functions *Pattern
}

// New returns a filter that accepts functions whose name matches functions.
// A nil pattern accepts every function.
func New(functions *Pattern) *Filter {
	return &Filter{functions: functions}
}

// IsAPISymbol reports whether d should be rendered.
func (f *Filter) IsAPISymbol(d *ast.Decl) bool {
	if d.Kind != ast.Function {
		return true
	}
	if f == nil || f.functions == nil {
		return true
	}
	return f.functions.Match(d.Name)
}
