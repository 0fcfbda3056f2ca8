package render

import (
	"testing"

	"github.com/hargabyte/headercvt/internal/ast"
)

func TestTypeString(t *testing.T) {
	intT := ast.BuiltinOf("int")
	charT := ast.BuiltinOf("char")
	voidT := ast.BuiltinOf("void")

	anon := &ast.Decl{Kind: ast.Tag, TagKind: ast.Struct}
	named := &ast.Decl{Kind: ast.Tag, TagKind: ast.Union, Name: "u"}

	tests := []struct {
		name string
		typ  *ast.Type
		decl string
		cpp  bool
		want string
	}{
		{"pointer", ast.PointerTo(intT), "name", false, "int *name"},
		{"function pointer", ast.PointerTo(ast.FuncOf(voidT, false, intT, charT)), "name", false, "void (*name)(int, char)"},
		{"array", ast.ArrayOf(ast.BuiltinOf("unsigned int"), "4"), "name", false, "unsigned int name[4]"},
		{"array of function pointers", ast.ArrayOf(ast.PointerTo(ast.FuncOf(intT, false)), "3"), "name", false, "int (*name[3])(void)"},
		{"pointer to array", ast.PointerTo(ast.ArrayOf(intT, "3")), "p", false, "int (*p)[3]"},
		{"array of pointers", ast.ArrayOf(ast.PointerTo(charT), "4"), "a", false, "char *a[4]"},
		{"incomplete array", ast.ArrayOf(intT, ""), "a", false, "int a[]"},
		{"const specifier", ast.PointerTo(charT.WithQuals(ast.Const)), "p", false, "const char *p"},
		{"const pointer", ast.PointerTo(charT).WithQuals(ast.Const), "p", false, "char *const p"},
		{"abstract pointer", ast.PointerTo(intT), "", false, "int *"},
		{"abstract function pointer", ast.PointerTo(ast.FuncOf(intT, true, intT)), "", false, "int (*)(int, ...)"},
		{"anonymous tag", ast.TagOf(anon), "s", false, "struct (anonymous) s"},
		{"named tag", ast.TagOf(named), "v", false, "union u v"},
		{"named tag in C++", ast.TagOf(named), "v", true, "u v"},
		{"unprototyped function", &ast.Type{Kind: ast.FunctionType, Elem: intT}, "f", false, "int f()"},
		{"empty prototype in C++", ast.FuncOf(intT, false), "f", true, "int f()"},
		{"block pointer", &ast.Type{Kind: ast.BlockPointer, Elem: ast.FuncOf(voidT, false, intT)}, "b", false, "void (^b)(int)"},
		{"lvalue reference", &ast.Type{Kind: ast.LValueReference, Elem: intT}, "r", true, "int &r"},
		{"rvalue reference", &ast.Type{Kind: ast.RValueReference, Elem: intT}, "r", true, "int &&r"},
		{"vector", &ast.Type{Kind: ast.Vector, Elem: ast.BuiltinOf("float"), Size: "4"}, "v", false,
			"__attribute__((__vector_size__(4 * sizeof(float)))) float v"},
		{"paren", ast.ParenOf(intT), "x", false, "int (x)"},
		{"deduced auto", &ast.Type{Kind: ast.Auto, Elem: intT}, "x", true, "int x"},
		{"undeduced auto", &ast.Type{Kind: ast.Auto}, "x", true, "auto x"},
		{"missing type", nil, "x", false, "__unknown_type x"},
		{"const typedef", (&ast.Type{Kind: ast.TypedefRef, Name: "size_t"}).WithQuals(ast.Const), "n", false, "const size_t n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultPolicy()
			p.CPlusPlus = tt.cpp
			got := TypeString(tt.typ, tt.decl, p)
			if got != tt.want {
				t.Errorf("TypeString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeStringSuppressedSpecifiers(t *testing.T) {
	tag := &ast.Decl{Kind: ast.Tag, TagKind: ast.Struct}
	p := DefaultPolicy().declarators()

	tests := []struct {
		name string
		typ  *ast.Type
		want string
	}{
		{"plain", ast.TagOf(tag), "b"},
		{"pointer", ast.PointerTo(ast.TagOf(tag)), "*b"},
		{"array", ast.ArrayOf(ast.TagOf(tag), "2"), "b[2]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeString(tt.typ, "b", p); got != tt.want {
				t.Errorf("TypeString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypeStringOwnedTag(t *testing.T) {
	tag := &ast.Decl{Kind: ast.Tag, TagKind: ast.Struct, Complete: true}
	tag.Add(&ast.Decl{Kind: ast.Field, Name: "x", Type: ast.BuiltinOf("int")})

	got := TypeString(ast.PointerTo(ast.TagOf(tag)), "p", DefaultPolicy().owning(tag))
	want := "struct {\n  int x;\n} *p"
	if got != want {
		t.Errorf("TypeString() = %q, want %q", got, want)
	}
}
