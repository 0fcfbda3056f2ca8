package ast

import (
	"strings"
	"testing"
)

func TestTypeChain(t *testing.T) {
	td := &Decl{Kind: Typedef, Name: "cl_int"}
	tests := []struct {
		name string
		typ  *Type
		want string
	}{
		{"builtin", BuiltinOf("int"), "builtin int"},
		{"const pointer to typedef", PointerTo(TypedefOf(td).WithQuals(Const)).WithQuals(Const), "const pointer > const typedef cl_int"},
		{"array", ArrayOf(BuiltinOf("char"), "16"), "array[16] > builtin char"},
		{"anonymous tag", TagOf(&Decl{Kind: Tag}), "tag (anonymous)"},
		{"function", FuncOf(BuiltinOf("void"), false), "function > builtin void"},
		{"missing inner", &Type{Kind: Pointer}, "pointer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TypeChain(tt.typ); got != tt.want {
				t.Errorf("TypeChain() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDump(t *testing.T) {
	tu := &Decl{Kind: TranslationUnit, Name: "cl.h"}
	tag := tu.Add(&Decl{Kind: Tag, TagKind: Struct, Name: "_cl_platform_id", Pos: Position{Line: 3, Column: 16}})
	tu.Add(&Decl{Kind: Typedef, Name: "cl_platform_id", Type: PointerTo(TagOf(tag)), Pos: Position{Line: 3, Column: 33}})
	fn := tu.Add(&Decl{Kind: Function, Name: "clFinish", Type: FuncOf(BuiltinOf("int"), false)})
	fn.Params = []*Decl{{Kind: Param, Name: "queue", Type: BuiltinOf("int")}}

	var b strings.Builder
	if err := Dump(&b, tu); err != nil {
		t.Fatalf("Dump failed: %v", err)
	}

	want := "translation-unit cl.h\n" +
		"  tag struct _cl_platform_id [incomplete,inline] @3:16\n" +
		"  typedef cl_platform_id : pointer > tag _cl_platform_id @3:33\n" +
		"  function clFinish : function > builtin int\n" +
		"    param queue : builtin int\n"
	if got := b.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}
