// Package render re-serializes a resolved declaration tree as C declaration
// text.
//
// Rendering is driven by a Policy value. The policy is never mutated: when a
// nested call needs a different setting (printing the declarators after the
// first one in a group, for example) it receives a modified copy.
package render

import "github.com/hargabyte/headercvt/internal/ast"

// Policy controls how declarations are printed.
type Policy struct {
	// Indentation is the number of spaces per nesting level.
	Indentation int
	// FullyQualifiedName prints function names with their enclosing
	// namespaces and records.
	FullyQualifiedName bool
	// SuppressScope drops the written nested-name-specifier of a function.
	SuppressScope bool
	// FunctionSpecifiers emits storage class, inline, virtual, constexpr and
	// explicit in front of functions.
	FunctionSpecifiers bool
	// CPlusPlus selects C++ spelling: "()" for empty prototypes and tag
	// names without their keyword.
	CPlusPlus bool
	// SuppressSpecifiers prints only the declarator part of a declaration.
	// It is set for the second and later declarators of a group.
	SuppressSpecifiers bool

	// ownedTag is the tag whose definition is printed in place of a reference
	// to it. Set for the first declarator of a group only.
	ownedTag *ast.Decl
}

// DefaultPolicy returns the policy used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{Indentation: 2}
}

// declarators returns the policy for the declarators that follow the first
// one in a group.
func (p Policy) declarators() Policy {
	p.SuppressSpecifiers = true
	p.ownedTag = nil
	return p
}

// owning returns the policy for the first declarator of a group anchored on
// tag.
func (p Policy) owning(tag *ast.Decl) Policy {
	p.SuppressSpecifiers = false
	p.ownedTag = tag
	return p
}

// plain returns the policy for nested, independent printing (parameters,
// members of a printed definition).
func (p Policy) plain() Policy {
	p.SuppressSpecifiers = false
	p.ownedTag = nil
	return p
}
