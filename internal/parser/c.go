package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
)

// newCParser creates a tree-sitter parser configured for C.
func newCParser() (*sitter.Parser, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(c.GetLanguage())
	return parser, nil
}

// Item categories of top-level and member nodes the front end consumes.
const (
	ItemDeclaration = "declaration"
	ItemFunction    = "function"
	ItemTypedef     = "typedef"
	ItemField       = "field"
	ItemLinkage     = "linkage"
	ItemNamespace   = "namespace"
	ItemAccess      = "access"
	ItemTemplate    = "template"
	ItemAlias       = "alias"
)

// CNodeTypes maps tree-sitter node types to the item categories the front
// end knows how to convert in C headers. Directives never reach the parser:
// the front end strips them before parsing.
var CNodeTypes = map[string]string{
	"declaration":           ItemDeclaration,
	"function_definition":   ItemFunction,
	"type_definition":       ItemTypedef,
	"field_declaration":     ItemField,
	"linkage_specification": ItemLinkage,
	// Bare struct/union/enum definitions parse as declarations with no
	// declarator, except in some recovery paths.
	"struct_specifier": ItemDeclaration,
	"union_specifier":  ItemDeclaration,
	"enum_specifier":   ItemDeclaration,
}

// GetCEntityType returns the item category for a tree-sitter node, or an
// empty string if the node is not a recognized item.
func GetCEntityType(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return CNodeTypes[node.Type()]
}
