package render

import (
	"fmt"

	"github.com/hargabyte/headercvt/internal/ast"
)

// UnsupportedStorageClassError is returned for a function declared with a
// storage class that functions cannot have. Only that declaration is
// skipped.
type UnsupportedStorageClassError struct {
	Name    string
	Storage ast.StorageClass
	Pos     ast.Position
}

// Error implements the error interface.
func (e *UnsupportedStorageClassError) Error() string {
	return fmt.Sprintf("%d:%d: function %s: storage class %q is invalid for functions",
		e.Pos.Line, e.Pos.Column, e.Name, e.Storage)
}

// UnknownDeclError is returned for a declaration kind the renderer does not
// know how to print.
type UnknownDeclError struct {
	Name string
	Kind ast.Kind
}

// Error implements the error interface.
func (e *UnknownDeclError) Error() string {
	return fmt.Sprintf("declaration %q: no rendering for kind %s", e.Name, e.Kind)
}

// DiagnosticKind classifies a non-fatal rendering problem.
type DiagnosticKind string

const (
	// DiagMalformedType means a type's wrapper chain did not end at a
	// specifier. The declaration was still rendered best-effort.
	DiagMalformedType DiagnosticKind = "malformed-type"
	// DiagUnsupportedStorageClass means a function was skipped.
	DiagUnsupportedStorageClass DiagnosticKind = "unsupported-storage-class"
	// DiagUnknownDecl means a declaration of an unknown kind was skipped.
	DiagUnknownDecl DiagnosticKind = "unknown-declaration"
)

// Diagnostic records one locally recovered problem.
type Diagnostic struct {
	Kind    DiagnosticKind `yaml:"kind" json:"kind"`
	Decl    string         `yaml:"decl" json:"decl"`
	Line    uint32         `yaml:"line,omitempty" json:"line,omitempty"`
	Message string         `yaml:"message" json:"message"`
}

// String formats the diagnostic for log output.
func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s (%s)", d.Line, d.Kind, d.Message, d.Decl)
	}
	return fmt.Sprintf("%s: %s (%s)", d.Kind, d.Message, d.Decl)
}
