package extract

import (
	"errors"
	"strings"
	"testing"

	"github.com/hargabyte/headercvt/internal/macro"
	"github.com/hargabyte/headercvt/internal/parser"
)

func runPreprocessor(t *testing.T, src string, lang parser.Language, defines, ignore []string) *preprocessed {
	t.Helper()
	pp, err := newPreprocessor("test.h", lang, defines, ignore).run([]byte(src))
	if err != nil {
		t.Fatalf("preprocess failed: %v", err)
	}
	return pp
}

func TestPreprocessConditionals(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		lang    parser.Language
		defines []string
		want    string
	}{
		{
			name: "cplusplus guard in C",
			src:  "#ifdef __cplusplus\nextern \"C\" {\n#endif\nint x;\n#ifdef __cplusplus\n}\n#endif\n",
			lang: parser.C,
			want: "\n\n\nint x;\n\n\n\n",
		},
		{
			name: "cplusplus guard in C++",
			src:  "#ifdef __cplusplus\nextern \"C\" {\n#endif\nint x;\n#ifdef __cplusplus\n}\n#endif\n",
			lang: parser.Cpp,
			want: "\nextern \"C\" {\n\nint x;\n\n}\n\n",
		},
		{
			name: "elif chain",
			src:  "#define V 2\n#if V == 1\na\n#elif V == 2\nb\n#else\nc\n#endif\n",
			want: "\n\n\n\nb\n\n\n\n",
		},
		{
			name: "C99 feature test in C",
			src:  "#if defined(__STDC_VERSION__) && __STDC_VERSION__ >= 199901L\na\n#else\nb\n#endif\n",
			lang: parser.C,
			want: "\na\n\n\n\n",
		},
		{
			name: "no C version in C++",
			src:  "#ifdef __STDC_VERSION__\na\n#endif\n#if __STDC_HOSTED__\nb\n#endif\n",
			lang: parser.Cpp,
			want: "\n\n\n\nb\n\n",
		},
		{
			name: "else taken",
			src:  "#if 0\na\n#else\nb\n#endif\n",
			want: "\n\n\nb\n\n",
		},
		{
			name: "nested inside inactive branch",
			src:  "#if 0\n#if 1\na\n#else\nb\n#endif\n#endif\nc\n",
			want: "\n\n\n\n\n\n\nc\n",
		},
		{
			name: "undefined identifier is zero",
			src:  "#if FOO\na\n#endif\n",
			want: "\n\n\n",
		},
		{
			name: "unsupported expression takes the branch",
			src:  "#if FOO(1)\na\n#endif\n",
			want: "\na\n\n",
		},
		{
			name:    "command line define",
			src:     "#ifdef FOO\na\n#endif\n#if BAR == 3\nb\n#endif\n",
			defines: []string{"FOO", "BAR=3"},
			want:    "\na\n\n\nb\n\n",
		},
		{
			name: "ifndef include guard",
			src:  "#ifndef GUARD_H\n#define GUARD_H\nint x;\n#endif\n",
			want: "\n\nint x;\n\n",
		},
		{
			name: "elifdef",
			src:  "#define B\n#ifdef A\na\n#elifdef B\nb\n#endif\n",
			want: "\n\n\n\nb\n\n",
		},
		{
			name: "continuation lines",
			src:  "#define LONG \\\n  1\nint x;\n",
			want: "\n\nint x;\n",
		},
		{
			name: "directive inside block comment is text",
			src:  "/*\n#if 0\n*/\nint x;\n",
			want: "/*\n#if 0\n*/\nint x;\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang := tt.lang
			if lang == "" {
				lang = parser.C
			}
			pp := runPreprocessor(t, tt.src, lang, tt.defines, nil)
			if got := string(pp.source); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if strings.Count(string(pp.source), "\n") != strings.Count(tt.src, "\n") {
				t.Error("line count changed")
			}
		})
	}
}

func TestPreprocessMacroEvents(t *testing.T) {
	src := "#define CL_SUCCESS 0\n" +
		"#if 0\n#define HIDDEN 1\n#endif\n" +
		"#define CL_MAX(a, b) ((a) > (b) ? (a) : (b))\n" +
		"#undef CL_SUCCESS\n"

	pp := runPreprocessor(t, src, parser.C, []string{"FROM_FLAG"}, nil)

	want := []macro.Event{
		{Name: "CL_SUCCESS", Directive: macro.Define, Line: 1},
		{Name: "CL_MAX", Directive: macro.Define, Line: 5},
		{Name: "CL_SUCCESS", Directive: macro.Undefine, Line: 6},
	}
	if len(pp.events) != len(want) {
		t.Fatalf("expected %d events, got %d: %v", len(want), len(pp.events), pp.events)
	}
	for i := range want {
		if pp.events[i] != want[i] {
			t.Errorf("event %d: got %+v, want %+v", i, pp.events[i], want[i])
		}
	}
}

func TestPreprocessBlanking(t *testing.T) {
	t.Run("ignored identifiers and empty macros", func(t *testing.T) {
		src := "#define EMPTY\nCL_API_ENTRY int EMPTY f(void);\n"
		pp := runPreprocessor(t, src, parser.C, nil, []string{"CL_API_ENTRY"})

		want := "\n" + strings.Repeat(" ", len("CL_API_ENTRY")) + " int " + strings.Repeat(" ", len("EMPTY")) + " f(void);\n"
		if got := string(pp.source); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("macros expanding to blank macros", func(t *testing.T) {
		src := "#define A\n#define B A\nB int x;\n"
		pp := runPreprocessor(t, src, parser.C, nil, nil)
		if got := string(pp.source); got != "\n\n  int x;\n" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("strings and comments are untouched", func(t *testing.T) {
		src := "#define EMPTY\nchar *s = \"EMPTY\"; /* EMPTY */ // EMPTY\n"
		pp := runPreprocessor(t, src, parser.C, nil, nil)
		if got := string(pp.source); got != "\nchar *s = \"EMPTY\"; /* EMPTY */ // EMPTY\n" {
			t.Errorf("got %q", got)
		}
	})

}

func TestPreprocessExpansion(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		ignore []string
		want   string
	}{
		{
			name: "valued macro",
			src:  "#define N 4\nint v[N];\n",
			want: "\nint v[4];\n",
		},
		{
			name: "shorter replacement keeps columns",
			src:  "#define CL_COUNT 8\nint v[CL_COUNT]; int w;\n",
			want: "\nint v[8       ]; int w;\n",
		},
		{
			name: "decoration macro",
			src:  "#define CL_DEPRECATED __attribute__((deprecated))\nextern int clDep(void) CL_DEPRECATED;\n",
			want: "\nextern int clDep(void) __attribute__((deprecated));\n",
		},
		{
			name: "nested macros",
			src:  "#define INNER long\n#define OUTER unsigned INNER\nOUTER x;\n",
			want: "\n\nunsigned long x;\n",
		},
		{
			name: "self reference stops",
			src:  "#define errno errno\nextern int errno;\n",
			want: "\nextern int errno;\n",
		},
		{
			name: "mutual reference stops",
			src:  "#define A B\n#define B A\nint A;\n",
			want: "\n\nint A;\n",
		},
		{
			name:   "ignored identifiers inside a body",
			src:    "#define CL_EXPORT CL_API_ENTRY extern\nCL_EXPORT int f(void);\n",
			ignore: []string{"CL_API_ENTRY"},
			want:   "\nextern    int f(void);\n",
		},
		{
			name: "function-like macros are left alone",
			src:  "#define CL_EXT(x) x\nint CL_EXT(f)(void);\n",
			want: "\nint CL_EXT(f)(void);\n",
		},
		{
			name: "number suffixes are not identifiers",
			src:  "#define UL 1\nint v[10UL];\n",
			want: "\nint v[10UL];\n",
		},
		{
			name: "undefined macros are not expanded",
			src:  "#define N 4\n#undef N\nint v[N];\n",
			want: "\n\nint v[N];\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pp := runPreprocessor(t, tt.src, parser.C, nil, tt.ignore)
			if got := string(pp.source); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreprocessErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line uint32
	}{
		{"endif without if", "int x;\n#endif\n", 2},
		{"else without if", "#else\n", 1},
		{"unterminated", "#if 1\nint x;\n", 1},
		{"else after else", "#if 1\n#else\n#else\n#endif\n", 3},
		{"elif after else", "#if 1\n#else\n#elif 1\n#endif\n", 3},
		{"define without name", "#define\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newPreprocessor("cl.h", parser.C, nil, nil).run([]byte(tt.src))
			var pe *parser.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.File != "cl.h" {
				t.Errorf("expected file cl.h, got %q", pe.File)
			}
			if pe.Line != tt.line {
				t.Errorf("expected line %d, got %d", tt.line, pe.Line)
			}
		})
	}
}

func TestParseDefine(t *testing.T) {
	tests := []struct {
		rest     string
		name     string
		value    string
		function bool
	}{
		{"CL_SUCCESS 0", "CL_SUCCESS", "0", false},
		{"EMPTY", "EMPTY", "", false},
		{"MAX(a,b) ((a)>(b))", "MAX", "((a)>(b))", true},
		{"PAREN (1)", "PAREN", "(1)", false},
		{"1BAD", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.rest, func(t *testing.T) {
			name, def := parseDefine(tt.rest)
			if name != tt.name || def.value != tt.value || def.function != tt.function {
				t.Errorf("parseDefine(%q) = %q, %+v", tt.rest, name, def)
			}
		})
	}
}
