package loader

import (
	"strings"
	"testing"

	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/config"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
	"github.com/orizon-lang/orizon-verify/internal/translator"
)

func findClass(t *testing.T, p *ast.Program, name string) *ast.ClassDecl {
	t.Helper()
	for _, c := range p.Classes() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("class %s not found", name)
	return nil
}

func TestLoadYAML(t *testing.T) {
	p, err := Load("testdata/counter.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Name != "counter" || len(p.Modules) != 1 {
		t.Fatalf("got program %q with %d modules", p.Name, len(p.Modules))
	}

	counter := findClass(t, p, "Counter")
	if len(counter.Members) != 3 {
		t.Fatalf("Counter has %d members, want 3", len(counter.Members))
	}
	incr := counter.Members[2].(*ast.Method)
	if incr.IsStatic || incr.Body == nil || len(incr.Body.Body) != 1 {
		t.Fatalf("unexpected method %s: static=%v body=%v", incr.FullName(), incr.IsStatic, incr.Body)
	}
	assign := incr.Body.Body[0].(*ast.AssignStmt)
	if got := assign.GetSpan().Start.Line; got != 12 {
		t.Errorf("assignment at line %d, want 12", got)
	}
	if sel := assign.Lhs.(*ast.FieldSelectExpr); sel.Field != counter.Members[0] {
		t.Errorf("assignment targets %s", sel.Field)
	}

	def := findClass(t, p, "_default")
	fact := def.Members[0].(*ast.Function)
	if !fact.IsStatic {
		t.Error("default class function should be static")
	}
	body := fact.Body.(*ast.ITEExpr)
	mul := body.Els.(*ast.BinaryExpr)
	call := mul.Right.(*ast.FunctionCallExpr)
	if call.Function != fact {
		t.Error("recursive call is not bound to fact")
	}
	if id := mul.Left.(*ast.IdentifierExpr); id.Var != fact.Formals[0] {
		t.Error("n is not bound to the formal")
	}
	if _, ok := fact.Body.Type().(ast.IntType); !ok {
		t.Errorf("body type %s", fact.Body.Type())
	}

	list := p.Datatypes()[0]
	tail := list.Ctors[1].Formals[1].Type.(*ast.DatatypeType)
	arg := tail.TypeArgs[0].(*ast.TypeParamType)
	if tail.Datatype != list || arg.Param != list.TypeParams[0] {
		t.Error("Cons.tail is not List<T>")
	}
}

func TestLoadJSON(t *testing.T) {
	p, err := Load("testdata/max.json")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	max := p.Functions()[0]
	ite, ok := max.Body.(*ast.ITEExpr)
	if !ok {
		t.Fatalf("body is %T", max.Body)
	}
	if id := ite.Thn.(*ast.IdentifierExpr); id.Var != max.Formals[1] {
		t.Errorf("then branch refers to %s", id.Var.VarName())
	}
	if len(max.Ensures) != 1 {
		t.Fatalf("got %d postconditions", len(max.Ensures))
	}
}

func TestLoadedProgramTranslates(t *testing.T) {
	p, err := Load("testdata/counter.yaml")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	opts := config.Default()
	opts.EmitPrelude = false
	out, err := translator.New(p, opts, nil, nil).Translate()
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"const unique Counter.value: Field int;",
		"procedure Counter.incr(",
		"implementation Counter.incr(",
		"function _default.fact#limited(",
		"procedure CheckWellformed$$_default.sum(",
		"failure to decrease termination measure",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output lacks %q", want)
		}
	}
	if t.Failed() {
		t.Logf("output:\n%s", text)
	}
}

func functionSrc(body string) string {
	return `program: p
modules:
  - name: M
    classes:
      - {id: _default, name: _default, default: true, functions: [{id: f, name: f, result: int, body: ` + body + `}]}
`
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code string
		want string
	}{
		{"unknown field", "program: p\nbogus: 1\n", "DECODE_FAILURE", "bogus"},
		{
			"duplicate id",
			"program: p\nmodules:\n  - name: M\n    classes: [{id: C, name: C}, {id: C, name: D}]\n",
			"DECODE_FAILURE", `duplicate id "C"`,
		},
		{"unknown variable", functionSrc("x"), "DECODE_FAILURE", `unknown variable "x"`},
		{"operand count", functionSrc("{kind: index, args: [1]}"), "DECODE_FAILURE", "index expression takes 2 operands, got 1"},
		{"unknown operator", functionSrc(`{kind: binary, op: "**", args: [1, 2]}`), "DECODE_FAILURE", `unknown binary operator "**"`},
		{"unknown function", functionSrc("{kind: call, ref: g}"), "DECODE_FAILURE", `unknown function "g"`},
		{
			"unknown type kind",
			"program: p\nmodules:\n  - name: M\n    classes: [{id: C, name: C, fields: [{name: x, type: float}]}]\n",
			"DECODE_FAILURE", `unknown type kind "float"`,
		},
		{
			"sequence element assignment",
			`program: p
modules:
  - name: M
    classes:
      - id: _default
        name: _default
        default: true
        methods:
          - id: m
            name: m
            ins: [{id: s, name: s, type: {kind: seq, args: [int]}}]
            body:
              - {kind: assign, lhs: {kind: index, args: [s, 0]}, rhs: [{expr: 1}]}
`,
			"MALFORMED_TREE", "assignment to a sequence element",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode("p.yaml", []byte(tt.doc), YAML)
			if err == nil {
				t.Fatal("expected an error")
			}
			se, ok := errs.As(err)
			if !ok {
				t.Fatalf("error %v is not a StandardError", err)
			}
			if se.Code != tt.code {
				t.Errorf("code %s, want %s", se.Code, tt.code)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q lacks %q", err, tt.want)
			}
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path    string
		want    Format
		wantErr bool
	}{
		{"a.yaml", YAML, false},
		{"a.YML", YAML, false},
		{"dir/a.json", JSON, false},
		{"a.dfy", YAML, true},
	}
	for _, tt := range tests {
		got, err := FormatOf(tt.path)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("FormatOf(%q) = %v, %v", tt.path, got, err)
		}
	}
}
