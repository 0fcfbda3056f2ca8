package ast

import "strings"

// TypeKind identifies the variant of a resolved type.
type TypeKind int

const (
	// Builtin is a builtin specifier such as "int" or "unsigned long".
	Builtin TypeKind = iota
	// TagRef refers to a struct/union/class/enum declaration.
	TagRef
	// TypedefRef refers to a typedef name.
	TypedefRef
	Pointer
	BlockPointer
	Array
	FunctionType
	Vector
	LValueReference
	RValueReference
	// Auto is a deduced type; Elem is the deduced type when known.
	Auto
	// Paren records parentheses written in a declarator.
	Paren
)

var typeKindNames = [...]string{
	Builtin:         "builtin",
	TagRef:          "tag",
	TypedefRef:      "typedef",
	Pointer:         "pointer",
	BlockPointer:    "block-pointer",
	Array:           "array",
	FunctionType:    "function",
	Vector:          "vector",
	LValueReference: "lvalue-reference",
	RValueReference: "rvalue-reference",
	Auto:            "auto",
	Paren:           "paren",
}

// String returns the type kind name.
func (k TypeKind) String() string {
	if k >= 0 && int(k) < len(typeKindNames) {
		return typeKindNames[k]
	}
	return "unknown"
}

// Qualifiers is a set of cv-restrict qualifiers.
type Qualifiers uint8

const (
	Const Qualifiers = 1 << iota
	Volatile
	Restrict
)

// String renders the qualifiers in canonical order separated by spaces.
func (q Qualifiers) String() string {
	var parts []string
	if q&Const != 0 {
		parts = append(parts, "const")
	}
	if q&Volatile != 0 {
		parts = append(parts, "volatile")
	}
	if q&Restrict != 0 {
		parts = append(parts, "restrict")
	}
	return strings.Join(parts, " ")
}

// RefQualifier is the ref-qualifier of a C++ member function type.
type RefQualifier int

const (
	NoRef RefQualifier = iota
	LValueRef
	RValueRef
)

// Proto is the written prototype of a function type.
type Proto struct {
	Params         []*Type
	Variadic       bool
	Quals          Qualifiers
	RefQual        RefQualifier
	TrailingReturn bool
}

// Type is one node of a resolved type.
type Type struct {
	Kind  TypeKind
	Quals Qualifiers

	// Name is the spelling of a Builtin, or the name of a TypedefRef/TagRef.
	Name string
	// Decl is the referenced Tag or Typedef declaration, when resolved.
	Decl *Decl

	// Elem is the pointee, element, return, referent, deduced or inner type.
	Elem *Type
	// Size is an array bound or vector lane count as written. Empty for
	// incomplete arrays.
	Size string

	// Proto is the prototype of a FunctionType; nil means the function was
	// declared without one.
	Proto *Proto
}

// IsSpecifier reports whether t is a terminal specifier type.
func (t *Type) IsSpecifier() bool {
	switch t.Kind {
	case Builtin, TagRef, TypedefRef:
		return true
	}
	return false
}

// Inner returns the next type in the wrapper chain, or nil when t is a
// specifier or cannot be unwrapped.
func (t *Type) Inner() *Type {
	switch t.Kind {
	case Pointer, BlockPointer, Array, FunctionType, Vector,
		LValueReference, RValueReference, Auto, Paren:
		return t.Elem
	}
	return nil
}

// BaseType strips pointer, block pointer, array, function, vector,
// reference, auto and paren wrappers until a specifier type is reached.
// An unknown wrapper or a missing inner type ends the walk and the current
// node is returned. BaseType(nil) is nil.
func BaseType(t *Type) *Type {
	for t != nil && !t.IsSpecifier() {
		next := t.Inner()
		if next == nil {
			break
		}
		t = next
	}
	return t
}

// IsMalformed reports whether unwrapping t ends somewhere other than a
// specifier type. An undeduced auto is a legitimate terminal.
func IsMalformed(t *Type) bool {
	if t == nil {
		return true
	}
	base := BaseType(t)
	return !base.IsSpecifier() && !(base.Kind == Auto && base.Elem == nil)
}

// Convenience constructors used by front ends and tests.

// BuiltinOf returns a builtin specifier type.
func BuiltinOf(name string) *Type { return &Type{Kind: Builtin, Name: name} }

// TagOf returns a reference to a tag declaration.
func TagOf(d *Decl) *Type { return &Type{Kind: TagRef, Name: d.Name, Decl: d} }

// TypedefOf returns a reference to a typedef declaration.
func TypedefOf(d *Decl) *Type { return &Type{Kind: TypedefRef, Name: d.Name, Decl: d} }

// PointerTo returns a pointer to elem.
func PointerTo(elem *Type) *Type { return &Type{Kind: Pointer, Elem: elem} }

// ArrayOf returns an array of elem with the given bound.
func ArrayOf(elem *Type, size string) *Type { return &Type{Kind: Array, Elem: elem, Size: size} }

// ParenOf wraps inner in declarator parentheses.
func ParenOf(inner *Type) *Type { return &Type{Kind: Paren, Elem: inner} }

// FuncOf returns a prototyped function type.
func FuncOf(ret *Type, variadic bool, params ...*Type) *Type {
	return &Type{Kind: FunctionType, Elem: ret, Proto: &Proto{Params: params, Variadic: variadic}}
}

// WithQuals returns a shallow copy of t with q added.
func (t *Type) WithQuals(q Qualifiers) *Type {
	c := *t
	c.Quals |= q
	return &c
}
