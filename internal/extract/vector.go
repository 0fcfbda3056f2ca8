package extract

import (
	"regexp"
	"strconv"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/hargabyte/headercvt/internal/ast"
)

// elementSizes holds the LP64 sizes of the builtins a vector may hold.
var elementSizes = map[string]int64{
	"char": 1, "signed char": 1, "unsigned char": 1, "_Bool": 1, "bool": 1,
	"int8_t": 1, "uint8_t": 1,
	"short": 2, "unsigned short": 2, "_Float16": 2, "__fp16": 2,
	"int16_t": 2, "uint16_t": 2,
	"int": 4, "unsigned int": 4, "unsigned": 4, "float": 4,
	"int32_t": 4, "uint32_t": 4,
	"long": 8, "unsigned long": 8, "long long": 8, "unsigned long long": 8,
	"double": 8, "int64_t": 8, "uint64_t": 8,
	"size_t": 8, "ssize_t": 8, "ptrdiff_t": 8, "intptr_t": 8, "uintptr_t": 8,
	"long double": 16, "__int128": 16,
}

// lanesTimesSize matches the "N * sizeof(T)" spelling the renderer writes.
var lanesTimesSize = regexp.MustCompile(`^(\d+)\s*\*\s*sizeof\s*\(.*\)$`)

// vectorAttribute looks for a vector_size or ext_vector_type attribute
// among the direct children of node and returns its argument and whether
// the argument counts bytes.
func (c *converter) vectorAttribute(node *sitter.Node) (arg string, bytes, ok bool) {
	for _, child := range children(node) {
		if child.Type() != "attribute_specifier" {
			continue
		}
		text := c.nodeText(child)
		if arg, ok := attributeArgument(text, "vector_size"); ok {
			return arg, true, true
		}
		if arg, ok := attributeArgument(text, "ext_vector_type"); ok {
			return arg, false, true
		}
	}
	return "", false, false
}

// vectorOf wraps elem in a vector type. A byte size is turned into a lane
// count when the element size is known.
func vectorOf(elem *ast.Type, arg string, bytes bool) *ast.Type {
	v := &ast.Type{Kind: ast.Vector, Elem: elem, Size: arg}
	if !bytes {
		return v
	}
	if m := lanesTimesSize.FindStringSubmatch(arg); m != nil {
		v.Size = m[1]
		return v
	}

	size := elementSize(elem)
	total, err := parseIntLiteral(arg)
	if size > 0 && err == nil && total%size == 0 {
		v.Size = strconv.FormatInt(total/size, 10)
		return v
	}
	v.Size = "(" + arg + ") / sizeof(" + elementSpelling(elem) + ")"
	return v
}

// elementSize returns the size of a builtin element, following typedefs,
// or 0 when it is unknown.
func elementSize(t *ast.Type) int64 {
	for t != nil {
		switch t.Kind {
		case ast.Builtin:
			return elementSizes[t.Name]
		case ast.TypedefRef:
			if t.Decl == nil {
				return 0
			}
			t = t.Decl.Type
		default:
			return 0
		}
	}
	return 0
}

func elementSpelling(t *ast.Type) string {
	if t.Name != "" {
		return t.Name
	}
	return "int"
}

// attributeArgument returns the normalized argument of the attribute name
// (with or without surrounding underscores) inside an attribute list.
func attributeArgument(text, name string) (string, bool) {
	for _, spelling := range []string{"__" + name + "__", name} {
		i := strings.Index(text, spelling)
		for i >= 0 {
			end := i + len(spelling)
			before := i == 0 || !isIdentChar(text[i-1])
			if before && (end == len(text) || !isIdentChar(text[end])) {
				if arg, ok := parenthesized(text[end:]); ok {
					return normalizeSpace(arg), true
				}
			}
			next := strings.Index(text[end:], spelling)
			if next < 0 {
				break
			}
			i = end + next
		}
	}
	return "", false
}

// parenthesized returns the contents of the balanced parentheses that open
// s, after leading whitespace.
func parenthesized(s string) (string, bool) {
	s = strings.TrimLeft(s, " \t")
	if s == "" || s[0] != '(' {
		return "", false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return s[1:i], true
			}
		}
	}
	return "", false
}
