package extract

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hargabyte/headercvt/internal/ast"
	"github.com/hargabyte/headercvt/internal/filter"
	"github.com/hargabyte/headercvt/internal/macro"
	"github.com/hargabyte/headercvt/internal/parser"
	"github.com/hargabyte/headercvt/internal/render"
)

const openCLHeader = `#ifndef __CL_H
#define __CL_H

#ifdef __cplusplus
extern "C" {
#endif

#define CL_API_ENTRY
#define CL_API_CALL
#define CL_SUCCESS 0
#define CL_DEVICE_NOT_FOUND -1

typedef int cl_int;
typedef unsigned int cl_uint;
typedef struct _cl_platform_id *cl_platform_id;

extern CL_API_ENTRY cl_int CL_API_CALL
clGetPlatformIDs(cl_uint num_entries, cl_platform_id *platforms, cl_uint *num_platforms);

static int helper(void) { return 0; }

#ifdef __cplusplus
}
#endif

#endif
`

func extractSource(t *testing.T, src string, opts Options) *Result {
	t.Helper()
	res, err := ExtractFile(context.Background(), "test.h", []byte(src), opts)
	if err != nil {
		t.Fatalf("ExtractFile failed: %v", err)
	}
	return res
}

func renderUnit(t *testing.T, unit *ast.Decl, f *filter.Filter, p render.Policy) string {
	t.Helper()
	var b strings.Builder
	if err := render.New(f, p).Render(&b, unit); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return b.String()
}

func TestExtractOpenCLHeader(t *testing.T) {
	res := extractSource(t, openCLHeader, Options{})

	t.Run("declarations", func(t *testing.T) {
		f := filter.New(filter.MustCompile("cl[A-Z].*"))
		got := renderUnit(t, res.Unit, f, render.DefaultPolicy())
		want := "typedef int cl_int;\n" +
			"typedef unsigned int cl_uint;\n" +
			"typedef struct _cl_platform_id *cl_platform_id;\n" +
			"cl_int clGetPlatformIDs(cl_uint num_entries, cl_platform_id *platforms, cl_uint *num_platforms);\n"
		if got != want {
			t.Errorf("got:\n%s\nwant:\n%s", got, want)
		}
	})

	t.Run("constants", func(t *testing.T) {
		var b strings.Builder
		obs := macro.NewObserver(filter.MustCompile("CL_.*"), &b)
		if err := obs.Observe(res.Macros); err != nil {
			t.Fatalf("Observe failed: %v", err)
		}
		want := "CL_API_ENTRY\nCL_API_CALL\nCL_SUCCESS\nCL_DEVICE_NOT_FOUND\n"
		if b.String() != want {
			t.Errorf("got %q, want %q", b.String(), want)
		}
	})

	t.Run("positions", func(t *testing.T) {
		var fn *ast.Decl
		for _, d := range res.Unit.Children {
			if d.Kind == ast.Function && d.Name == "clGetPlatformIDs" {
				fn = d
			}
		}
		if fn == nil {
			t.Fatal("clGetPlatformIDs not found")
		}
		if fn.Pos.Line != 18 || fn.Pos.Column != 1 {
			t.Errorf("expected 18:1, got %d:%d", fn.Pos.Line, fn.Pos.Column)
		}
		if fn.Storage != ast.Extern {
			t.Errorf("expected extern storage, got %v", fn.Storage)
		}
		if len(fn.Params) != 3 || fn.Params[2].Name != "num_platforms" {
			t.Errorf("unexpected params %+v", fn.Params)
		}
	})
}

func TestExtractRendering(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "anonymous struct typedef merges",
			src:  "typedef struct {\n    int x;\n} foo_t;\n",
			want: "typedef struct {\n  int x;\n} foo_t;\n",
		},
		{
			name: "enum",
			src:  "enum color {\n    RED,\n    GREEN = 4,\n    BLUE\n};\n",
			want: "enum color {\n  RED,\n  GREEN = 4,\n  BLUE\n};\n",
		},
		{
			name: "self referencing struct with bit-field and array",
			src:  "struct node {\n    struct node *next;\n    unsigned int flags : 3;\n    int values[4];\n};\n",
			want: "struct node {\n  struct node *next;\n  unsigned int flags : 3;\n  int values[4];\n};\n",
		},
		{
			name: "function pointer typedef",
			src:  "typedef void (*callback_t)(int, char *);\n",
			want: "typedef void (*callback_t)(int, char *);\n",
		},
		{
			name: "function definition",
			src:  "static int helper(void) { return 0; }\n",
			want: "int helper(void) { return 0; }\n",
		},
		{
			name: "unprototyped declaration",
			src:  "int legacy();\n",
			want: "int legacy();\n",
		},
		{
			name: "variadic",
			src:  "int log_message(const char *fmt, ...);\n",
			want: "int log_message(const char *fmt, ...);\n",
		},
		{
			name: "several declarators",
			src:  "int a, *b, c[2];\n",
			want: "int a;\nint *b;\nint c[2];\n",
		},
		{
			name: "struct with variables",
			src:  "struct point { int x; int y; } origin, *cursor;\n",
			want: "struct point {\n  int x;\n  int y;\n} origin, *cursor;\n",
		},
		{
			name: "canonical builtin spelling",
			src:  "unsigned long int a;\nlong long int b;\nsigned int c;\nshort int d;\n",
			want: "unsigned long a;\nlong long b;\nint c;\nshort d;\n",
		},
		{
			name: "const pointer",
			src:  "char *const name;\n",
			want: "char *const name;\n",
		},
		{
			name: "array of function pointers",
			src:  "int (*handlers[3])(void);\n",
			want: "int (*handlers[3])(void);\n",
		},
		{
			name: "function returning function pointer",
			src:  "void (*signal_handler(int sig))(int);\n",
			want: "void (*signal_handler(int sig))(int);\n",
		},
		{
			name: "unnamed bit-field",
			src:  "struct flags {\n    unsigned int a : 1;\n    unsigned int : 2;\n};\n",
			want: "struct flags {\n  unsigned int a : 1;\n  unsigned int : 2;\n};\n",
		},
		{
			name: "conditional branch",
			src:  "#define USE_FLOAT 1\n#if USE_FLOAT\ntypedef float real;\n#else\ntypedef double real;\n#endif\n",
			want: "typedef float real;\n",
		},
		{
			name: "decoration macro expands",
			src:  "#define CL_DEPRECATED __attribute__((deprecated))\nextern int clDep(void) CL_DEPRECATED;\n",
			want: "int clDep(void);\n",
		},
		{
			name: "array bound macro expands",
			src:  "#define CL_NAME_SIZE 64\nstruct info { char name[CL_NAME_SIZE]; };\n",
			want: "struct info {\n  char name[64];\n};\n",
		},
		{
			name: "vector_size typedef",
			src:  "typedef float cl_float4 __attribute__((vector_size(16)));\n",
			want: "typedef __attribute__((__vector_size__(4 * sizeof(float)))) float cl_float4;\n",
		},
		{
			name: "vector of a typedef",
			src:  "typedef double cl_double;\ntypedef cl_double cl_double2 __attribute__((__vector_size__(16)));\n",
			want: "typedef double cl_double;\ntypedef __attribute__((__vector_size__(2 * sizeof(cl_double)))) cl_double cl_double2;\n",
		},
		{
			name: "ext_vector_type typedef",
			src:  "typedef int cl_int3 __attribute__((ext_vector_type(3)));\n",
			want: "typedef __attribute__((__vector_size__(3 * sizeof(int)))) int cl_int3;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := extractSource(t, tt.src, Options{})
			if got := renderUnit(t, res.Unit, nil, render.DefaultPolicy()); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderedOutputReparses(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"opencl header", openCLHeader},
		{"typedef group", "typedef struct _s { int x; } s_t, *s_ptr;\n"},
		{"typedef then variable", "typedef struct _s { int x; } s_t;\nstruct _s inst;\n"},
		{"struct with variables", "struct point { int x; int y; } origin, *cursor;\n"},
		{"function pointers", "typedef void (*callback_t)(int, char *);\nint (*handlers[3])(void);\nvoid (*signal_handler(int sig))(int);\n"},
		{"variadic", "int log_message(const char *fmt, ...);\n"},
		{"enum and bit-fields", "enum color { RED, GREEN = 4 };\nstruct flags { unsigned int a : 1; unsigned int : 2; };\n"},
		{"definition", "static int helper(void) { return 0; }\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := renderUnit(t, extractSource(t, tt.src, Options{}).Unit, nil, render.DefaultPolicy())
			second := renderUnit(t, extractSource(t, first, Options{}).Unit, nil, render.DefaultPolicy())
			if first != second {
				t.Errorf("rendering is not stable:\nfirst:\n%s\nsecond:\n%s", first, second)
			}
		})
	}
}

func TestHasSyntaxError(t *testing.T) {
	p, err := parser.NewParser(parser.C)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer p.Close()

	tests := []struct {
		name string
		src  string
		want bool
	}{
		{"valid", "int x;\n", false},
		{"unnamed bit-field", "struct s { int a : 1; int : 2; };\n", false},
		{"broken", "int broken( {\n", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := p.ParseCtx(context.Background(), []byte(tt.src))
			if err != nil {
				t.Fatalf("ParseCtx failed: %v", err)
			}
			defer result.Close()
			if got := hasSyntaxError(result.Root); got != tt.want {
				t.Errorf("hasSyntaxError = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractTree(t *testing.T) {
	t.Run("typedef resolves to its declaration", func(t *testing.T) {
		res := extractSource(t, "typedef int cl_int;\ncl_int value;\n", Options{})
		if len(res.Unit.Children) != 2 {
			t.Fatalf("expected 2 children, got %d", len(res.Unit.Children))
		}
		td, v := res.Unit.Children[0], res.Unit.Children[1]
		if v.Type.Kind != ast.TypedefRef || v.Type.Decl != td {
			t.Errorf("expected typedef reference to %p, got %+v", td, v.Type)
		}
	})

	t.Run("unknown typedef name stays unresolved", func(t *testing.T) {
		res := extractSource(t, "size_type n;\n", Options{})
		v := res.Unit.Children[0]
		if v.Type.Kind != ast.TypedefRef || v.Type.Name != "size_type" || v.Type.Decl != nil {
			t.Errorf("unexpected type %+v", v.Type)
		}
	})

	t.Run("struct member refers to its own tag", func(t *testing.T) {
		res := extractSource(t, "struct node { struct node *next; };\n", Options{})
		tag := res.Unit.Children[0]
		if tag.Kind != ast.Tag || !tag.Complete || !tag.FreeStanding {
			t.Fatalf("unexpected tag %+v", tag)
		}
		next := tag.Children[0]
		if base := ast.BaseType(next.Type); base.Decl != tag {
			t.Error("member base type should be the enclosing tag")
		}
	})

	t.Run("forward declaration", func(t *testing.T) {
		res := extractSource(t, "struct later;\n", Options{})
		tag := res.Unit.Children[0]
		if tag.Kind != ast.Tag || tag.Complete || !tag.FreeStanding || tag.Name != "later" {
			t.Errorf("unexpected tag %+v", tag)
		}
	})

	t.Run("void parameter list", func(t *testing.T) {
		res := extractSource(t, "int f(void);\n", Options{})
		fn := res.Unit.Children[0]
		if fn.Type.Proto == nil || len(fn.Type.Proto.Params) != 0 || len(fn.Params) != 0 {
			t.Errorf("expected empty prototype, got %+v", fn.Type.Proto)
		}
	})

	t.Run("function body text", func(t *testing.T) {
		res := extractSource(t, "int answer(void) {\n  return 42;\n}\n", Options{})
		fn := res.Unit.Children[0]
		if !fn.HasBody() || fn.Body.Text != "{\n  return 42;\n}" {
			t.Errorf("unexpected body %+v", fn.Body)
		}
	})
}

func TestExtractCpp(t *testing.T) {
	src := `namespace cl {
class Buffer {
public:
    Buffer();
    ~Buffer();
    int size() const;
};
}

extern "C" {
int clFinish(void);
}
`
	res := extractSource(t, src, Options{Language: parser.Cpp})
	if len(res.Unit.Children) != 2 {
		t.Fatalf("expected 2 top-level children, got %d", len(res.Unit.Children))
	}

	ns := res.Unit.Children[0]
	if ns.Kind != ast.Namespace || ns.Name != "cl" {
		t.Fatalf("unexpected namespace %+v", ns)
	}
	class := ns.Children[0]
	if class.Kind != ast.Tag || class.TagKind != ast.Class || class.Name != "Buffer" {
		t.Fatalf("unexpected class %+v", class)
	}

	var kinds []string
	for _, d := range class.Children {
		kinds = append(kinds, d.Kind.String()+":"+d.Name)
	}
	want := "access-spec:,function:Buffer,function:~Buffer,function:size"
	if got := strings.Join(kinds, ","); got != want {
		t.Fatalf("got members %s, want %s", got, want)
	}

	if class.Children[0].Access != ast.Public {
		t.Errorf("expected public access, got %v", class.Children[0].Access)
	}
	if class.Children[1].FuncKind != ast.Constructor {
		t.Errorf("expected constructor, got %v", class.Children[1].FuncKind)
	}
	if class.Children[2].FuncKind != ast.Destructor {
		t.Errorf("expected destructor, got %v", class.Children[2].FuncKind)
	}
	size := class.Children[3]
	if size.Type.Proto == nil || size.Type.Proto.Quals != ast.Const {
		t.Errorf("expected const member function, got %+v", size.Type.Proto)
	}
	if got := size.QualifiedName(); got != "cl::Buffer::size" {
		t.Errorf("expected qualified name cl::Buffer::size, got %q", got)
	}

	linkage := res.Unit.Children[1]
	if linkage.Kind != ast.LinkageSpec || linkage.Language != "C" || len(linkage.Children) != 1 {
		t.Fatalf("unexpected linkage spec %+v", linkage)
	}

	p := render.DefaultPolicy()
	p.CPlusPlus = true
	got, err := render.DeclString(size, p)
	if err != nil {
		t.Fatalf("DeclString failed: %v", err)
	}
	if got != "int size() const" {
		t.Errorf("got %q", got)
	}
}

func TestExtractErrors(t *testing.T) {
	const broken = "int ok;\nint broken( {\n"

	t.Run("syntax error fails", func(t *testing.T) {
		_, err := ExtractFile(context.Background(), "bad.h", []byte(broken), Options{})
		var pe *parser.ParseError
		if !errors.As(err, &pe) {
			t.Fatalf("expected ParseError, got %v", err)
		}
		if pe.File != "bad.h" {
			t.Errorf("expected file bad.h, got %q", pe.File)
		}
	})

	t.Run("keep going skips the item", func(t *testing.T) {
		res, err := ExtractFile(context.Background(), "bad.h", []byte(broken), Options{KeepGoing: true})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(res.Skipped) == 0 {
			t.Error("expected a skipped item")
		}
	})

	t.Run("unterminated conditional", func(t *testing.T) {
		_, err := ExtractFile(context.Background(), "cond.h", []byte("#if 1\nint x;\n"), Options{})
		var pe *parser.ParseError
		if !errors.As(err, &pe) || pe.File != "cond.h" || pe.Line != 1 {
			t.Errorf("expected ParseError at cond.h:1, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := ExtractFile(ctx, "cl.h", []byte(openCLHeader), Options{}); err == nil {
			t.Error("expected an error for a cancelled context")
		}
	})

	t.Run("unsupported language", func(t *testing.T) {
		_, err := NewExtractor(Options{Language: parser.Language("fortran")})
		var ule *parser.UnsupportedLanguageError
		if !errors.As(err, &ule) {
			t.Errorf("expected UnsupportedLanguageError, got %v", err)
		}
	})
}

func TestCanonicalBuiltin(t *testing.T) {
	tests := []struct {
		words string
		want  string
	}{
		{"unsigned", "unsigned int"},
		{"signed", "int"},
		{"unsigned long int", "unsigned long"},
		{"long unsigned", "unsigned long"},
		{"long long", "long long"},
		{"unsigned long long int", "unsigned long long"},
		{"short", "short"},
		{"unsigned short int", "unsigned short"},
		{"signed char", "signed char"},
		{"unsigned char", "unsigned char"},
		{"long double", "long double"},
	}
	for _, tt := range tests {
		t.Run(tt.words, func(t *testing.T) {
			if got := canonicalBuiltin(strings.Fields(tt.words)); got != tt.want {
				t.Errorf("canonicalBuiltin(%q) = %q, want %q", tt.words, got, tt.want)
			}
		})
	}
}

func TestInputHash(t *testing.T) {
	content := []byte("int x;\n")

	a := InputHash(content, "c", "CL_.*")
	if len(a) != 64 {
		t.Errorf("expected 64 hex chars, got %d", len(a))
	}
	if a != InputHash(content, "c", "CL_.*") {
		t.Error("hash is not deterministic")
	}
	if a == InputHash(content, "cpp", "CL_.*") {
		t.Error("settings should change the hash")
	}
	if InputHash(content, "ab", "c") == InputHash(content, "a", "bc") {
		t.Error("setting boundaries should change the hash")
	}
	if a == InputHash([]byte("int y;\n"), "c", "CL_.*") {
		t.Error("content should change the hash")
	}
	if got := ComputeFileHash(content); len(got) != HashLength {
		t.Errorf("expected %d chars, got %q", HashLength, got)
	}
}

func TestMemberBodyErrorPropagates(t *testing.T) {
	p, err := parser.NewParser(parser.C)
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}
	defer p.Close()

	result, err := p.ParseCtx(context.Background(), []byte("int ok;\n@@ broken\n"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	defer result.Close()
	result.FilePath = "members.h"

	c := newConverter(result, Options{Language: parser.C})
	unit := &ast.Decl{Kind: ast.TranslationUnit}
	sc := newScope(nil, unit)
	tag := &ast.Decl{Kind: ast.Tag, TagKind: ast.Struct, Name: "s", Complete: true}
	c.convertTagBody(tag, result.Root, sc)

	var pe *parser.ParseError
	if !errors.As(c.err, &pe) || pe.File != "members.h" {
		t.Fatalf("expected a ParseError from the member list, got %v", c.err)
	}
	// The enclosing list stops at the failure.
	if err := c.convertItems(result.Root, sc); !errors.Is(err, c.err) {
		t.Errorf("convertItems = %v, want %v", err, c.err)
	}
}
