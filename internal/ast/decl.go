// Package ast defines the resolved declaration tree that the renderer walks.
//
// The tree is produced by a front end (see package extract) and is read-only
// for everything downstream. Declarations and types are closed variants: the
// Kind field selects which of the remaining fields are meaningful.
package ast

import "strings"

// Kind identifies the variant of a declaration.
type Kind int

const (
	// TranslationUnit is the root context of one parsed header.
	TranslationUnit Kind = iota
	// Namespace is a C++ namespace context.
	Namespace
	// LinkageSpec is an extern "C" { ... } context.
	LinkageSpec
	// Typedef is a typedef alias.
	Typedef
	// Function is a function declaration or definition.
	Function
	// Var is a variable declaration.
	Var
	// Param is a function parameter.
	Param
	// Field is a struct/union/class member.
	Field
	// Tag is a struct, union, class or enum declaration.
	Tag
	// EnumConstant is an enumerator inside an enum Tag.
	EnumConstant
	// AccessSpec is a C++ access label (public:, ...).
	AccessSpec
)

var kindNames = [...]string{
	TranslationUnit: "translation-unit",
	Namespace:       "namespace",
	LinkageSpec:     "linkage-spec",
	Typedef:         "typedef",
	Function:        "function",
	Var:             "var",
	Param:           "param",
	Field:           "field",
	Tag:             "tag",
	EnumConstant:    "enum-constant",
	AccessSpec:      "access-spec",
}

// String returns the kind name.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// TagKind is the keyword a Tag was declared with.
type TagKind int

const (
	Struct TagKind = iota
	Union
	Class
	Enum
)

// String returns the C keyword for the tag kind.
func (k TagKind) String() string {
	switch k {
	case Struct:
		return "struct"
	case Union:
		return "union"
	case Class:
		return "class"
	case Enum:
		return "enum"
	}
	return "struct"
}

// StorageClass is the written storage class of a declaration.
type StorageClass int

const (
	NoStorage StorageClass = iota
	Extern
	Static
	PrivateExtern
	AutoStorage
	Register
)

// String returns the storage class keyword, or "" for NoStorage.
func (s StorageClass) String() string {
	switch s {
	case Extern:
		return "extern"
	case Static:
		return "static"
	case PrivateExtern:
		return "__private_extern__"
	case AutoStorage:
		return "auto"
	case Register:
		return "register"
	}
	return ""
}

// FuncKind distinguishes special member functions.
type FuncKind int

const (
	PlainFunc FuncKind = iota
	Constructor
	Destructor
	Conversion
	DeductionGuide
)

// Access is a C++ access level.
type Access int

const (
	AccessNone Access = iota
	Public
	Protected
	Private
)

// String returns the access keyword.
func (a Access) String() string {
	switch a {
	case Public:
		return "public"
	case Protected:
		return "protected"
	case Private:
		return "private"
	}
	return ""
}

// Specifiers are the function and declaration specifier flags.
type Specifiers struct {
	Inline    bool
	Virtual   bool
	Explicit  bool
	Constexpr bool
	Pure      bool
	Deleted   bool
	Defaulted bool
}

// Body is a function body as supplied by the front end. The core never
// inspects statements; it only prints the text it was given.
type Body struct {
	Text string
}

// Position is a 1-based source location.
type Position struct {
	Line   uint32
	Column uint32
}

// Decl is one declaration node.
type Decl struct {
	Kind     Kind
	Name     string
	Parent   *Decl
	Children []*Decl
	Pos      Position

	// Type is the underlying type of a Typedef, the declared type of a
	// Var/Param/Field, and the full function type of a Function.
	Type *Type

	Storage StorageClass
	Spec    Specifiers

	// Function details.
	FuncKind FuncKind
	Params   []*Decl
	Body     *Body
	// Qualifier is the nested-name-specifier as written, e.g. "ns::".
	Qualifier string

	// Tag details.
	TagKind      TagKind
	Complete     bool
	FreeStanding bool

	// Init is an enumerator value or variable initializer as written.
	Init string
	// BitWidth is a bit-field width as written.
	BitWidth string

	// Access is the label of an AccessSpec.
	Access Access
	// Language is the linkage language of a LinkageSpec ("C", "C++").
	Language string

	Implicit              bool
	ImplicitInstantiation bool
}

// IsContext reports whether the declaration owns child declarations that
// the renderer walks.
func (d *Decl) IsContext() bool {
	switch d.Kind {
	case TranslationUnit, Namespace, LinkageSpec:
		return true
	case Tag:
		return d.Complete
	}
	return false
}

// HasBody reports whether this declaration is a function definition.
func (d *Decl) HasBody() bool {
	return d.Body != nil
}

// Add appends a child declaration and sets its parent.
func (d *Decl) Add(child *Decl) *Decl {
	child.Parent = d
	d.Children = append(d.Children, child)
	return child
}

// QualifiedName returns the name prefixed by its enclosing named
// namespaces and records, joined with "::".
func (d *Decl) QualifiedName() string {
	var parts []string
	for p := d.Parent; p != nil; p = p.Parent {
		switch p.Kind {
		case Namespace, Tag:
			if p.Name != "" {
				parts = append(parts, p.Name)
			} else if p.Kind == Namespace {
				parts = append(parts, "(anonymous namespace)")
			}
		}
	}
	var b strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		b.WriteString(parts[i])
		b.WriteString("::")
	}
	b.WriteString(d.Name)
	return b.String()
}

// DeclType returns the type a declaration contributes for group-merging
// decisions: the underlying type of a typedef, the declared type of a value
// declaration, or nil for everything else.
func DeclType(d *Decl) *Type {
	switch d.Kind {
	case Typedef, Var, Param, Field, Function:
		return d.Type
	}
	return nil
}
