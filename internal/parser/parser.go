// Package parser provides tree-sitter based parsing of C and C++ headers.
//
// The parser package wraps the tree-sitter library to give the front end a
// single interface for both header dialects.
package parser

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language represents a supported header dialect.
type Language string

const (
	// C represents the C programming language.
	C Language = "c"
	// Cpp represents the C++ programming language.
	Cpp Language = "cpp"
	// Auto picks C or C++ from the header extension.
	Auto Language = "auto"
)

// Parser wraps tree-sitter for header parsing.
type Parser struct {
	parser *sitter.Parser
	lang   Language
}

// ParseResult contains the parsed AST and metadata.
type ParseResult struct {
	// Tree is the complete tree-sitter parse tree.
	Tree *sitter.Tree
	// Root is the root node of the AST.
	Root *sitter.Node
	// Source is the source code that was parsed.
	Source []byte
	// FilePath is the path to the source file (empty for in-memory parsing).
	FilePath string
	// Language is the dialect of the source.
	Language Language
}

// NewParser creates a parser for the given language.
// Returns an UnsupportedLanguageError if the language is not supported.
func NewParser(lang Language) (*Parser, error) {
	var (
		p   *sitter.Parser
		err error
	)

	switch lang {
	case C:
		p, err = newCParser()
	case Cpp:
		p, err = newCppParser()
	default:
		return nil, &UnsupportedLanguageError{Language: string(lang)}
	}

	if err != nil {
		return nil, err
	}

	return &Parser{
		parser: p,
		lang:   lang,
	}, nil
}

// ParseCtx parses source code, giving up when ctx is cancelled.
func (p *Parser) ParseCtx(ctx context.Context, source []byte) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, &ParseError{
			Message: err.Error(),
			Err:     err,
		}
	}

	return &ParseResult{
		Tree:     tree,
		Root:     tree.RootNode(),
		Source:   source,
		Language: p.lang,
	}, nil
}

// Close releases parser resources.
// After calling Close, the parser should not be used.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Close releases the parse tree resources.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
		r.Root = nil
	}
}

// SyntaxError returns a ParseError for the first syntax error below node,
// or nil when the subtree is clean.
func (r *ParseResult) SyntaxError(node *sitter.Node) *ParseError {
	if node == nil || !node.HasError() {
		return nil
	}

	var bad *sitter.Node
	walkNode(node, func(n *sitter.Node) bool {
		if bad != nil {
			return false
		}
		if n.Type() == "ERROR" || n.IsMissing() {
			bad = n
			return false
		}
		return true
	})
	if bad == nil {
		bad = node
	}

	msg := "syntax error"
	if bad.IsMissing() {
		msg = "missing " + bad.Type()
	} else if text := strings.TrimSpace(r.NodeText(bad)); text != "" {
		if len(text) > 40 {
			text = text[:40] + "..."
		}
		msg = "syntax error near " + strings.ReplaceAll(text, "\n", " ")
	}

	start := bad.StartPoint()
	return &ParseError{
		Message: msg,
		File:    r.FilePath,
		Line:    start.Row + 1,
		Column:  start.Column + 1,
	}
}

// walkNode is a helper for depth-first AST traversal.
func walkNode(node *sitter.Node, visitor func(*sitter.Node) bool) bool {
	if !visitor(node) {
		return false
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		if !walkNode(node.Child(int(i)), visitor) {
			return false
		}
	}
	return true
}

// NodeText returns the source text for a node.
func (r *ParseResult) NodeText(node *sitter.Node) string {
	if node == nil || r.Source == nil {
		return ""
	}
	return node.Content(r.Source)
}

// LanguageFromExtension returns the dialect for a file extension.
// Returns empty string if the extension is not recognized.
func LanguageFromExtension(ext string) Language {
	switch strings.ToLower(ext) {
	case ".c", ".h":
		return C
	case ".cpp", ".cc", ".cxx", ".hpp", ".hh", ".hxx":
		return Cpp
	default:
		return ""
	}
}

// LanguageFromPath is LanguageFromExtension applied to a file path.
func LanguageFromPath(path string) Language {
	return LanguageFromExtension(filepath.Ext(path))
}

// LanguageFor resolves the dialect of the header at path. An explicit C or
// C++ setting wins; Auto and the empty setting follow the extension and
// fall back to C.
func LanguageFor(lang Language, path string) Language {
	if lang != Auto && lang != "" {
		return lang
	}
	if detected := LanguageFromPath(path); detected != "" {
		return detected
	}
	return C
}
