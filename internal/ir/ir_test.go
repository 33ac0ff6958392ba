package ir

import (
	"strings"
	"testing"
)

func TestExprPrinting(t *testing.T) {
	h, o := Id("$Heap"), Id("this")
	tests := []struct {
		name string
		e    Expr
		want string
	}{
		{"heap read", Sel(h, o, Id("C.x")), "$Heap[this, C.x]"},
		{"heap update", Upd(h, Int64(3), o, Id("C.x")), "$Heap[this, C.x := 3]"},
		{"unbox", Unbox(Sel(h, o, Id("C.v")), Int), "($Unbox($Heap[this, C.v]): int)"},
		{"box of unbox", Box(Unbox(Id("b"), Int)), "b"},
		{"unbox of box", Unbox(Box(Id("n")), Int), "n"},
		{"conj folds true", Conj(True, Id("p")), "p"},
		{"conj", AndAll(Id("p"), Id("q"), nil, Id("r")), "((p && q) && r)"},
		{"implies true", Implies(Id("p"), True), "true"},
		{"double negation", Negate(Negate(Id("p"))), "p"},
		{"div", Bin(Div, Id("a"), Id("b")), "(a div b)"},
		{"ite", Ite(Id("c"), Int64(1), Int64(2)), "(if c then 1 else 2)"},
		{
			"quantifier",
			Forall([]*Var{V("i", Int)}, [][]Expr{{Fn("f", Id("i"))}}, Bin(Gt, Fn("f", Id("i")), Int64(0))),
			"(forall i: int :: { f(i) } (f(i) > 0))",
		},
		{"empty forall", Forall(nil, nil, Id("p")), "p"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.e.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTypePrinting(t *testing.T) {
	heap := &MapType{TypeParams: []string{"alpha"}, Domain: []Type{Ref, FieldType(&TypeVar{Name: "alpha"})}, Range: &TypeVar{Name: "alpha"}}
	if got := heap.String(); got != "<alpha>[ref, Field alpha]alpha" {
		t.Errorf("heap type printed as %q", got)
	}
	if got := FieldType(SetOfBox).String(); got != "Field (Set BoxType)" {
		t.Errorf("nested type printed as %q", got)
	}
}

func TestCommandPrinting(t *testing.T) {
	body := &Block{}
	body.Add(
		Assert(Bin(Neq, Id("x"), Null), "target object may be null"),
		&IfCmd{
			Guard: Id("b"),
			Thn:   &Block{Cmds: []Cmd{Assume(Id("p"))}},
			Els:   &IfCmd{Guard: nil, Thn: &Block{}, Els: &Block{Cmds: []Cmd{Havoc("y")}}},
		},
		&WhileCmd{
			Label:      "L",
			Guard:      True,
			Invariants: []*Invariant{{E: Id("inv"), Free: true}, {E: Id("j")}},
			Body:       &Block{Cmds: []Cmd{&BreakCmd{Label: "L"}}},
		},
	)
	impl := &ImplDecl{
		Name:   "C.M",
		Ins:    []*Var{{Name: "this", Type: Ref, Where: Id("w")}},
		Locals: []*Var{V("y", Int)},
		Body:   body,
	}
	out := impl.String()
	for _, want := range []string{
		"implementation C.M(this: ref)\n{",
		"  var y: int;",
		`  assert {:msg "target object may be null"} (x != null);`,
		"  if (b)\n  {\n    assume p;\n  }\n  else if (*)",
		"  else\n  {\n    havoc y;\n  }",
		"  L: while (true)\n    free invariant inv;\n    invariant j;\n  {\n    break L;\n  }",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in\n%s", want, out)
		}
	}
}

func TestDeclPrinting(t *testing.T) {
	proc := &ProcDecl{
		Name:     "C.M",
		Ins:      []*Var{{Name: "this", Type: Ref, Where: Id("w")}},
		Outs:     []*Var{V("r", Int)},
		Requires: []*Spec{{E: Id("pre"), Free: true}, {E: Id("p")}},
		Modifies: []string{"$Heap"},
		Ensures:  []*Spec{{E: Id("q")}},
	}
	want := "procedure C.M(this: ref where w)\n  returns (r: int);\n  free requires pre;\n  requires p;\n  modifies $Heap;\n  ensures q;"
	if got := proc.String(); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}

	decls := []struct {
		d    Decl
		want string
	}{
		{&ConstDecl{Name: "class.C", Type: ClassName, Unique: true}, "const unique class.C: ClassName;"},
		{&FuncDecl{Name: "C.y", Params: []*Var{Anon(Ref)}, Result: Int}, "function C.y(ref): int;"},
		{&AxiomDecl{Comment: "frame", E: True}, "// frame\naxiom true;"},
		{&TypeDecl{Name: "Field", Arity: 1}, "type Field _;"},
		{&GlobalDecl{Var: &Var{Name: "$Heap", Type: Heap, Where: Fn("$IsGoodHeap", Id("$Heap"))}}, "var $Heap: HeapType where $IsGoodHeap($Heap);"},
	}
	for _, tt := range decls {
		if got := tt.d.String(); got != tt.want {
			t.Errorf("got %q, want %q", got, tt.want)
		}
	}

	p := &Program{Prelude: "// prelude", Decls: []Decl{&CommentDecl{Text: "x"}}}
	if got := p.String(); got != "// prelude\n\n// x\n\n" {
		t.Errorf("program printed as %q", got)
	}
}
