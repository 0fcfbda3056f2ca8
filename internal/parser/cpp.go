package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

// newCppParser creates a tree-sitter parser configured for C++.
func newCppParser() (*sitter.Parser, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(cpp.GetLanguage())
	return parser, nil
}

// CppNodeTypes maps tree-sitter node types to the item categories the front
// end knows how to convert in C++ headers. It extends CNodeTypes.
var CppNodeTypes = map[string]string{
	"class_specifier":      ItemDeclaration,
	"namespace_definition": ItemNamespace,
	"access_specifier":     ItemAccess,
	"template_declaration": ItemTemplate,
	"alias_declaration":    ItemAlias,
}

// GetCppEntityType returns the item category for a tree-sitter node, or an
// empty string if the node is not a recognized item.
func GetCppEntityType(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	if kind, ok := CppNodeTypes[node.Type()]; ok {
		return kind
	}
	return CNodeTypes[node.Type()]
}

// EntityType returns the item category of node for the given dialect.
func EntityType(lang Language, node *sitter.Node) string {
	if lang == Cpp {
		return GetCppEntityType(node)
	}
	return GetCEntityType(node)
}
