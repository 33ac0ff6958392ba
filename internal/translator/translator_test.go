package translator

import (
	"errors"
	"regexp"
	"strings"
	"testing"

	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/config"
	"github.com/orizon-lang/orizon-verify/internal/diagnostic"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

type fixture struct {
	p   *ast.Program
	b   *ast.Builder
	mod *ast.Module
	def *ast.ClassDecl
}

func newFixture(name string) *fixture {
	p, b := ast.NewProgram(name)
	m := b.Module("M", 0)
	return &fixture{p: p, b: b, mod: m, def: b.DefaultClass(m)}
}

func testOptions() config.Options {
	opts := config.Default()
	opts.EmitPrelude = false
	return opts
}

// translate runs a fresh translator and fails the test on any error.
func (fx *fixture) translate(t *testing.T) (string, *Translator) {
	t.Helper()
	tr := New(fx.p, testOptions(), nil, nil)
	out, err := tr.Translate()
	if err != nil {
		t.Fatalf("translate: %v", err)
	}
	return out.String(), tr
}

func mustContain(t *testing.T, text string, wants ...string) {
	t.Helper()
	for _, w := range wants {
		if !strings.Contains(text, w) {
			t.Errorf("output lacks %q", w)
		}
	}
	if t.Failed() {
		t.Logf("output:\n%s", text)
	}
}

func (fx *fixture) fact() (*ast.Function, *ast.Formal) {
	b := fx.b
	n := b.Formal("n", ast.IntType{})
	f := b.Function(fx.def, "fact", []*ast.Formal{n}, ast.IntType{})
	f.Body = b.ITE(b.Binary(ast.OpLe, b.Ident(n), b.Int(0)), b.Int(1),
		b.Binary(ast.OpMul, b.Ident(n), b.Call(nil, f, b.Binary(ast.OpSub, b.Ident(n), b.Int(1)))))
	return f, n
}

func TestFrameAxiomWithEmptyReads(t *testing.T) {
	fx := newFixture("frame")
	c := fx.b.Class(fx.mod, "C")
	f := fx.b.Function(c, "f", nil, ast.IntType{})
	f.Body = fx.b.Int(1)

	out, _ := fx.translate(t)
	mustContain(t, out,
		"const unique class.C: ClassName;",
		"function C.f($h: HeapType, this: ref): int;",
		"// frame axiom for C.f",
		"(C.f($h0, this) == C.f($h1, this))",
	)
	if strings.Contains(out, "$h1[") {
		t.Error("a function without reads must not mention the heap in its frame axiom")
	}
}

func TestRecursiveFunctionUsesLimitedView(t *testing.T) {
	fx := newFixture("fact")
	fx.fact()

	out, _ := fx.translate(t)
	mustContain(t, out,
		"function _default.fact#limited($h: HeapType, n: int): int;",
		"function _default.fact#canCall($h: HeapType, n: int): bool;",
		"(_default.fact($h, n) == _default.fact#limited($h, n))",
		"_default.fact#limited($h, (n - 1))",
		"procedure CheckWellformed$$_default.fact(n: int);",
		`assert {:msg "failure to decrease termination measure"} ((0 <= (n - 1)) && ((n - 1) < n));`,
	)
	if strings.Contains(out, "_default.fact($h, (n - 1))") {
		t.Error("recursive call inside the definition must use the limited view")
	}
}

func TestNonRecursiveFunctionHasNoLimitedView(t *testing.T) {
	fx := newFixture("plain")
	b := fx.b
	x := b.Formal("x", ast.IntType{})
	inc := b.Function(fx.def, "inc", []*ast.Formal{x}, ast.IntType{})
	inc.Body = b.Binary(ast.OpAdd, b.Ident(x), b.Int(1))
	y := b.Formal("y", ast.IntType{})
	twice := b.Function(fx.def, "twice", []*ast.Formal{y}, ast.IntType{})
	twice.Body = b.Call(nil, inc, b.Call(nil, inc, b.Ident(y)))

	out, tr := fx.translate(t)
	if strings.Contains(out, "#limited") {
		t.Error("no function is recursive")
	}
	mustContain(t, out,
		"_default.inc($h, _default.inc($h, y))",
		"_default.inc#canCall($h, y)",
	)
	if tr.Graph().Height(twice) <= tr.Graph().Height(inc) {
		t.Error("caller must sit above its callee")
	}
}

func TestDecreasesCheck(t *testing.T) {
	ints := []ast.Type{ast.IntType{}}
	lex := []ast.Type{ast.IntType{}, ast.BoolType{}}
	tests := []struct {
		name        string
		types       []ast.Type
		ee0, ee1    []ir.Expr
		lowerBound  bool
		allowEqual  bool
		want        bool
		wantSnippet string
	}{
		{"smaller int", ints, []ir.Expr{ir.Int64(1)}, []ir.Expr{ir.Int64(2)}, true, false, true, ""},
		{"larger int", ints, []ir.Expr{ir.Int64(3)}, []ir.Expr{ir.Int64(2)}, true, false, false, ""},
		{"negative fails the bound", ints, []ir.Expr{ir.Int64(-1)}, []ir.Expr{ir.Int64(0)}, true, false, false, "(0 <= -1)"},
		{"negative without bound", ints, []ir.Expr{ir.Int64(-1)}, []ir.Expr{ir.Int64(0)}, false, false, true, ""},
		{"equal needs allowance", ints, []ir.Expr{ir.Int64(2)}, []ir.Expr{ir.Int64(2)}, false, false, false, ""},
		{"equal allowed", ints, []ir.Expr{ir.Int64(2)}, []ir.Expr{ir.Int64(2)}, false, true, true, ""},
		{"second component decreases", lex, []ir.Expr{ir.Int64(2), ir.False}, []ir.Expr{ir.Int64(2), ir.True}, true, false, true, ""},
		{"second component grows", lex, []ir.Expr{ir.Int64(2), ir.True}, []ir.Expr{ir.Int64(2), ir.False}, true, false, false, "(0 <= 2)"},
		{"first component wins", lex, []ir.Expr{ir.Int64(1), ir.True}, []ir.Expr{ir.Int64(2), ir.False}, true, false, true, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := decreasesCheck(tt.types, tt.types, tt.ee0, tt.ee1, nil, tt.lowerBound, tt.allowEqual)
			if got := eval(t, e).(bool); got != tt.want {
				t.Errorf("%s evaluates to %v, want %v", e, got, tt.want)
			}
			if tt.wantSnippet != "" && !strings.Contains(e.String(), tt.wantSnippet) {
				t.Errorf("%s lacks %s", e, tt.wantSnippet)
			}
		})
	}
}

func TestDecreasesCheckStopsAtIncompatibleTypes(t *testing.T) {
	e := decreasesCheck(
		[]ast.Type{ast.BoolType{}, ast.IntType{}}, []ast.Type{ast.IntType{}, ast.IntType{}},
		[]ir.Expr{ir.True, ir.Int64(0)}, []ir.Expr{ir.Int64(1), ir.Int64(5)}, nil, true, false)
	if !ir.IsFalse(e) {
		t.Errorf("incomparable first component should give false, got %s", e)
	}
	allowed := decreasesCheck(nil, nil, nil, nil, ir.Id("same"), true, false)
	if allowed.String() != "same" {
		t.Errorf("allowance alone should remain, got %s", allowed)
	}
}

// eval computes closed boolean and integer IR expressions.
func eval(t *testing.T, e ir.Expr) interface{} {
	t.Helper()
	switch e := e.(type) {
	case *ir.BoolLit:
		return e.Value
	case *ir.IntLit:
		return e.Value
	case *ir.Unary:
		if e.Op == ir.Not {
			return !eval(t, e.E).(bool)
		}
		return -eval(t, e.E).(int64)
	case *ir.Binary:
		l, r := eval(t, e.Left), eval(t, e.Right)
		switch e.Op {
		case ir.And:
			return l.(bool) && r.(bool)
		case ir.Or:
			return l.(bool) || r.(bool)
		case ir.Imp:
			return !l.(bool) || r.(bool)
		case ir.Iff:
			return l.(bool) == r.(bool)
		case ir.Eq:
			return l == r
		case ir.Neq:
			return l != r
		case ir.Lt:
			return l.(int64) < r.(int64)
		case ir.Le:
			return l.(int64) <= r.(int64)
		case ir.Gt:
			return l.(int64) > r.(int64)
		case ir.Ge:
			return l.(int64) >= r.(int64)
		case ir.Add:
			return l.(int64) + r.(int64)
		case ir.Sub:
			return l.(int64) - r.(int64)
		}
	}
	t.Fatalf("cannot evaluate %s", e)
	return nil
}

func TestTranslatorIsSingleUse(t *testing.T) {
	fx := newFixture("once")
	tr := New(fx.p, testOptions(), nil, nil)
	if _, err := tr.Translate(); err != nil {
		t.Fatal(err)
	}
	_, err := tr.Translate()
	se, ok := errs.As(err)
	if !ok || se.Code != "TRANSLATOR_REUSED" {
		t.Fatalf("second run: %v", err)
	}
}

func TestRejectedPreludeConstraint(t *testing.T) {
	fx := newFixture("prelude")
	opts := testOptions()
	opts.PreludeConstraint = ">= 9.0.0"
	if _, err := New(fx.p, opts, nil, nil).Translate(); err == nil {
		t.Fatal("a prelude outside the constraint must be rejected")
	}
}

func TestEmitPrelude(t *testing.T) {
	fx := newFixture("withprelude")
	opts := testOptions()
	opts.EmitPrelude = true
	out, err := New(fx.p, opts, nil, nil).Translate()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "// prelude-version:") {
		t.Error("prelude should lead the output")
	}
}

func TestFailedDeclarationIsDropped(t *testing.T) {
	fx := newFixture("main")
	b := fx.b

	other, ob := ast.NewProgram("other")
	foreign := ob.Function(ob.DefaultClass(ob.Module("O", 0)), "alien", nil, ast.IntType{})

	bad := b.Function(fx.def, "bad", nil, ast.IntType{})
	bad.Body = b.Call(nil, foreign)
	good := b.Function(fx.def, "good", nil, ast.IntType{})
	good.Body = b.Int(7)
	_ = other

	diags := diagnostic.NewDiagnosticEngine(diagnostic.DefaultConfig())
	out, err := New(fx.p, testOptions(), diags, nil).Translate()
	if err == nil {
		t.Fatal("expected the foreign call to fail")
	}
	var se *errs.StandardError
	if !errors.As(err, &se) || se.Code != "FOREIGN_NODE" {
		t.Errorf("error = %v", err)
	}
	if !diags.HasCode(diagnostic.CodeDeclarationFailed) {
		t.Error("failure should be reported as E9001")
	}
	text := out.String()
	if strings.Contains(text, "_default.bad") {
		t.Error("declarations of the failed function must be discarded")
	}
	mustContain(t, text, "function _default.good($h: HeapType): int;")
}

func TestUnresolvedTypeIsReported(t *testing.T) {
	fx := newFixture("unresolved")
	c := fx.b.Class(fx.mod, "C")
	fx.b.Field(c, "u", &ast.UnresolvedType{Name: "T$0"}, true)
	fx.b.Field(c, "w", &ast.UnresolvedType{Name: "T$0"}, true)

	diags := diagnostic.NewDiagnosticEngine(diagnostic.DefaultConfig())
	out, err := New(fx.p, testOptions(), diags, nil).Translate()
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, out.String(), "const unique C.u: Field ref;")
	n := 0
	for _, d := range diags.GetWarnings() {
		if d.Code == diagnostic.CodeUnresolvedType {
			n++
		}
	}
	if n != 1 {
		t.Errorf("unresolved type reported %d times, want once", n)
	}
}

func TestFieldDeclarations(t *testing.T) {
	fx := newFixture("fields")
	b := fx.b
	c := b.Class(fx.mod, "C")
	b.Field(c, "next", ast.SelfType(c), true)
	b.Field(c, "k", ast.IntType{}, false)

	out, _ := fx.translate(t)
	mustContain(t, out,
		"const unique C.next: Field ref;",
		"const unique field$C.next: NameFamily;",
		"axiom (DeclName(C.next) == field$C.next);",
		"axiom (FDim(C.next) == 0);",
		"(($h[$o, C.next] == null) || ($h[$h[$o, C.next], alloc] && (dtype($h[$o, C.next]) == class.C)))",
		"function C.k(ref): int;",
	)
	if strings.Contains(out, "C.k: Field") {
		t.Error("immutable fields are functions, not heap fields")
	}
}

func TestArrayClass(t *testing.T) {
	fx := newFixture("arrays")
	b := fx.b
	a := b.Formal("a", b.ArrayType(ast.IntType{}, 1))
	f := b.Function(fx.def, "first", []*ast.Formal{a}, ast.IntType{})
	f.Reads = []*ast.FrameExpr{{E: b.Ident(a)}}
	f.Body = b.Index(b.Ident(a), b.Int(0))

	out, _ := fx.translate(t)
	mustContain(t, out,
		"const unique class.array: ClassName;",
		"function array.Length(ref): int;",
		"(0 <= array.Length($o))",
		"// elements of array",
		`assert {:msg "index out of range"} ((0 <= 0) && (0 < array.Length(a)));`,
		`assert {:msg "target object may be null"} (a != null);`,
		"($Unbox($h[a, IndexField(0)]): int)",
	)
}

func TestDatatypeAxioms(t *testing.T) {
	fx := newFixture("lists")
	b := fx.b
	d := b.Datatype(fx.mod, "List")
	list := &ast.DatatypeType{Datatype: d}
	nilCtor := b.Ctor(d, "Nil")
	b.Ctor(d, "Cons", b.Formal("head", ast.IntType{}), b.Formal("tail", list))

	xs := b.Formal("xs", list)
	length := b.Function(fx.def, "length", []*ast.Formal{xs}, ast.IntType{})
	tl := b.BoundVar("tl", list)
	hd := b.BoundVar("hd", ast.IntType{})
	length.Body = b.Match(b.Ident(xs),
		b.MatchCase(nilCtor, nil, b.Int(0)),
		b.MatchCase(d.Ctors[1], []*ast.BoundVar{hd, tl}, b.Binary(ast.OpAdd, b.Int(1), b.Call(nil, length, b.Ident(tl)))),
	)

	out, _ := fx.translate(t)
	mustContain(t, out,
		"const unique class.List: ClassName;",
		"function #List.Cons(int, DatatypeType): DatatypeType;",
		"const unique ##List.Cons: DtCtorId;",
		"// constructor List.Cons",
		"(DatatypeCtorId(#List.Cons(a#0, a#1)) == ##List.Cons)",
		"function #List.Cons._1(DatatypeType): DatatypeType;",
		"(DtRank(a#1) < DtRank(#List.Cons(a#0, a#1)))",
		"((DatatypeCtorId(d) == ##List.Nil) || (DatatypeCtorId(d) == ##List.Cons))",
		"// definition of _default.length for List.Nil",
		"// definition of _default.length for List.Cons",
		"_default.length#limited($h, tl#",
	)
}

func TestLoopTranslation(t *testing.T) {
	fx := newFixture("loops")
	b := fx.b
	i := b.Local("i", ast.IntType{})
	n := b.Formal("n", ast.IntType{})
	m := b.Method(fx.def, "Count", []*ast.Formal{n}, nil)
	m.Body = b.Block(
		b.VarDecl([]*ast.LocalVariable{i}, &ast.ExprRhs{E: b.Int(0)}),
		b.While(b.Binary(ast.OpLt, b.Ident(i), b.Ident(n)),
			[]*ast.MaybeFree{{E: b.Binary(ast.OpLe, b.Ident(i), b.Ident(n))}}, nil,
			b.Block(b.Assign(b.Ident(i), &ast.ExprRhs{E: b.Binary(ast.OpAdd, b.Ident(i), b.Int(1))}))),
	)

	out, _ := fx.translate(t)
	mustContain(t, out,
		"procedure _default.Count(n: int);",
		"implementation _default.Count(n: int)",
		"var i#0: int;",
		"i#0 := 0;",
		"$PreLoopHeap#1 := $Heap;",
		"havoc $w#1;",
		"while (true)",
		"free invariant $HeapSucc($PreLoopHeap#1, $Heap);",
		"invariant ($w#1 ==> (i#0 <= n));",
		"if (!(i#0 < n))",
		"break;",
		"$decr#1_0 := (n - i#0);",
		"i#0 := (i#0 + 1);",
		`assert {:msg "failure to decrease termination measure"} ((0 <= (n - i#0)) && ((n - i#0) < $decr#1_0));`,
	)
}

func TestLoopWithoutMeasure(t *testing.T) {
	fx := newFixture("nomeasure")
	b := fx.b
	m := b.Method(fx.def, "Spin", nil, nil)
	m.Body = b.Block(b.While(nil, nil, nil, b.Block()))

	out, _ := fx.translate(t)
	mustContain(t, out, `assert {:msg "cannot find a termination measure for this loop"} false;`, "if (*)")

	fx2 := newFixture("wildcard")
	m2 := fx2.b.Method(fx2.def, "Spin", nil, nil)
	loop := fx2.b.While(nil, nil, nil, fx2.b.Block())
	loop.DecreasesWildcard = true
	m2.Body = fx2.b.Block(loop)
	out2, _ := fx2.translate(t)
	if strings.Contains(out2, "termination measure") {
		t.Error("decreases * skips the termination check")
	}
}

func TestMethodCallsAndTermination(t *testing.T) {
	fx := newFixture("calls")
	b := fx.b
	x := b.Formal("x", ast.IntType{})
	y := b.OutFormal("y", ast.IntType{})
	callee := b.Method(fx.def, "Half", []*ast.Formal{x}, []*ast.Formal{y})
	callee.Requires = []*ast.MaybeFree{{E: b.Binary(ast.OpGt, b.Ident(x), b.Int(0))}}
	callee.Ensures = []*ast.MaybeFree{{E: b.Binary(ast.OpLe, b.Ident(y), b.Ident(x))}}

	n := b.Formal("n", ast.IntType{})
	down := b.Method(fx.def, "Down", []*ast.Formal{n}, nil)
	r := b.Local("r", ast.IntType{})
	down.Body = b.Block(
		b.VarDecl([]*ast.LocalVariable{r}),
		b.CallStmt([]*ast.IdentifierExpr{b.Ident(r)}, nil, callee, b.Int(4)),
		b.If(b.Binary(ast.OpGt, b.Ident(n), b.Int(0)),
			b.Block(b.CallStmt(nil, nil, down, b.Binary(ast.OpSub, b.Ident(n), b.Int(1)))), nil),
	)

	out, _ := fx.translate(t)
	mustContain(t, out,
		"procedure _default.Half(x: int)",
		"returns (y: int);",
		"requires (x > 0);",
		"ensures (y <= x);",
		"free ensures $HeapSucc(old($Heap), $Heap);",
		"procedure CheckWellformed$$_default.Half(x: int)",
		"call r#0 := _default.Half($arg#",
		"call _default.Down($arg#",
	)
	decr := regexp.MustCompile(`assert \{:msg "failure to decrease termination measure"\} \(\(0 <= \$arg#\d+\) && \(\$arg#\d+ < n\)\);`)
	if !decr.MatchString(out) {
		t.Errorf("recursive call lacks its termination check:\n%s", out)
	}
	if strings.Count(out, "failure to decrease") != 1 {
		t.Error("only the recursive call is checked for termination")
	}
}

func TestHeapUpdateChecksFrame(t *testing.T) {
	fx := newFixture("heap")
	b := fx.b
	c := b.Class(fx.mod, "Cell")
	v := b.Field(c, "v", ast.IntType{}, true)
	x := b.Formal("x", ast.IntType{})
	set := b.Method(c, "Set", []*ast.Formal{x}, nil)
	set.Modifies = []*ast.FrameExpr{{E: b.This(c)}}
	set.Body = b.Block(b.Assign(b.Select(b.This(c), v), &ast.ExprRhs{E: b.Ident(x)}))

	out, _ := fx.translate(t)
	mustContain(t, out,
		"procedure Cell.Set(this: ref where (((this != null) && $Heap[this, alloc]) && (dtype(this) == class.Cell)), x: int);",
		"modifies $Heap;",
		"// frame condition",
		`assert {:msg "assignment may update an object not in the enclosing method's modifies clause"} $_Frame[this, Cell.v];`,
		"$Heap := $Heap[this, Cell.v := x];",
		"assume $IsGoodHeap($Heap);",
	)
	if strings.Contains(out, "(this != null);") {
		t.Error("no null check on this")
	}
}

func TestAllocation(t *testing.T) {
	fx := newFixture("alloc")
	b := fx.b
	c := b.Class(fx.mod, "Node")
	o := b.Local("o", ast.SelfType(c))
	m := b.Method(fx.def, "Make", nil, nil)
	m.Body = b.Block(b.VarDecl([]*ast.LocalVariable{o}, &ast.TypeRhs{Type: ast.SelfType(c)}))

	out, _ := fx.translate(t)
	mustContain(t, out,
		"havoc $nw#",
		"!$Heap[$nw#",
		"== class.Node)",
		"$Heap := $Heap[$nw#",
		"o#0 := $nw#",
	)
}

func TestForeachUpdate(t *testing.T) {
	fx := newFixture("foreach")
	b := fx.b
	xv := b.BoundVar("x", nil)
	c := b.Class(fx.mod, "C")
	xv.Type = ast.SelfType(c)
	v := b.Field(c, "v", ast.IntType{}, true)
	s := b.Formal("s", &ast.SetType{Elem: ast.SelfType(c)})
	m := b.Method(fx.def, "Clear", []*ast.Formal{s}, nil)
	m.Modifies = []*ast.FrameExpr{{E: b.Ident(s)}}
	m.Body = b.Block(b.Foreach(xv, b.Ident(s), nil, nil, b.Select(b.Ident(xv), v), b.Int(0)))

	out, _ := fx.translate(t)
	mustContain(t, out,
		"$PreForallHeap#1 := $Heap;",
		"havoc $Heap;",
		"$HeapSucc($PreForallHeap#1, $Heap)",
		"(DeclName($f#",
		"s[$Box(x#0)]",
		"($Heap[x#0, C.v] == 0)",
	)
}

func TestForeachCollectionReadsPreHeap(t *testing.T) {
	fx := newFixture("foreachfield")
	b := fx.b
	c := b.Class(fx.mod, "C")
	xv := b.BoundVar("x", ast.SelfType(c))
	v := b.Field(c, "v", ast.IntType{}, true)
	sf := b.Field(c, "S", &ast.SetType{Elem: ast.SelfType(c)}, true)
	m := b.Method(c, "Clear", nil, nil)
	m.Modifies = []*ast.FrameExpr{{E: b.Select(b.This(c), sf)}}
	m.Body = b.Block(b.Foreach(xv, b.Select(b.This(c), sf), nil, nil, b.Select(b.Ident(xv), v), b.Int(0)))

	out, _ := fx.translate(t)
	mustContain(t, out,
		"havoc $Heap;",
		"$PreForallHeap#1[this, C.S][$Box(x#",
		"$PreForallHeap#1[this, C.S][$Box($o#",
	)
	at := strings.Index(out, "$PreForallHeap#1 := $Heap;")
	if at < 0 {
		t.Fatalf("no foreach heap snapshot:\n%s", out)
	}
	post := out[at:]
	if end := strings.Index(post, "\n}"); end >= 0 {
		post = post[:end]
	}
	if strings.Contains(post, "$Heap[this, C.S][$Box(") {
		t.Errorf("selection after the havoc reads the new heap:\n%s", post)
	}
}

func TestGenericOutParameterKeepsTyping(t *testing.T) {
	fx := newFixture("genericout")
	b := fx.b
	node := b.Class(fx.mod, "Node")
	cell := b.Class(fx.mod, "Cell", "T")
	r := b.OutFormal("r", &ast.TypeParamType{Param: cell.TypeParams[0]})
	get := b.Method(cell, "Get", nil, []*ast.Formal{r})

	cf := b.Formal("c", &ast.ClassType{Class: cell, TypeArgs: []ast.Type{ast.SelfType(node)}})
	use := b.Method(fx.def, "Use", []*ast.Formal{cf}, nil)
	got := b.Local("got", ast.SelfType(node))
	use.Body = b.Block(
		b.VarDecl([]*ast.LocalVariable{got}),
		b.CallStmt([]*ast.IdentifierExpr{b.Ident(got)}, b.Ident(cf), get),
	)

	out, _ := fx.translate(t)
	for _, re := range []string{
		`var got#\d+: ref where \(\(got#\d+ == null\) \|\| `,
		`call \$out#\d+ := Cell\.Get\(\$rcv#\d+\);`,
		`havoc got#\d+;\s+assume \(got#\d+ == \(\$Unbox\(\$out#\d+\): ref\)\);`,
	} {
		if !regexp.MustCompile(re).MatchString(out) {
			t.Errorf("missing %s in:\n%s", re, out)
		}
	}
	if regexp.MustCompile(`got#\d+ := \(\$Unbox`).MatchString(out) {
		t.Error("unboxed out-parameter is assigned without re-establishing its type")
	}
}

func TestQuantifierTranslation(t *testing.T) {
	fx := newFixture("quantifiers")
	b := fx.b
	node := b.Class(fx.mod, "Node")
	p := b.Function(fx.def, "P", []*ast.Formal{b.Formal("n", ast.IntType{})}, ast.BoolType{})
	q := b.Function(fx.def, "Q", []*ast.Formal{b.Formal("n", ast.IntType{})}, ast.BoolType{})
	h := b.Function(fx.def, "H", []*ast.Formal{b.Formal("n", ast.SelfType(node))}, ast.BoolType{})

	x := b.BoundVar("x", ast.IntType{})
	o := b.BoundVar("o", ast.SelfType(node))
	both := b.Forall([]*ast.BoundVar{x}, nil, b.And(b.Call(nil, p, b.Ident(x)), b.Call(nil, q, b.Ident(x))))
	some := b.Exists([]*ast.BoundVar{o}, nil, b.Call(nil, h, b.Ident(o)))
	m := b.Method(fx.def, "M", nil, nil)
	m.Body = b.Block(b.Assume(both), b.Assume(some))

	out, _ := fx.translate(t)
	tests := []struct {
		name string
		re   string
	}{
		{"first split with its trigger", `\(forall x#\d+: int :: \{ _default\.P\(\$Heap, x#\d+\) \} _default\.P\(\$Heap, x#\d+\)\)`},
		{"splits are conjoined", `\) && \(forall x#\d+: int :: \{ _default\.Q\(\$Heap, x#\d+\) \} _default\.Q\(\$Heap, x#\d+\)\)`},
		{"exists conjoins the where clause", `\(exists o#\d+: ref :: \{ _default\.H\(\$Heap, o#\d+\) \} \(\(\(o#\d+ == null\) \|\| \(\$Heap\[o#\d+, alloc\] && \(dtype\(o#\d+\) == class\.Node\)\)\) && _default\.H\(\$Heap, o#\d+\)\)\)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !regexp.MustCompile(tt.re).MatchString(out) {
				t.Errorf("missing %s in:\n%s", tt.re, out)
			}
		})
	}
	if regexp.MustCompile(`\(_default\.P\(\$Heap, x#\d+\) && _default\.Q\(\$Heap, x#\d+\)\)`).MatchString(out) {
		t.Error("the unsplit quantifier body reached the output")
	}
}

func TestSpecificationSplitting(t *testing.T) {
	fx := newFixture("split")
	b := fx.b
	p := b.Formal("x", ast.IntType{})
	pos := b.Function(fx.def, "Pos", []*ast.Formal{p}, ast.BoolType{})
	pos.Body = b.Binary(ast.OpGt, b.Ident(p), b.Int(0))

	x := b.Formal("x", ast.IntType{})
	m := b.Method(fx.def, "M", []*ast.Formal{x}, nil)
	m.Ensures = []*ast.MaybeFree{{E: b.And(b.Binary(ast.OpGt, b.Ident(x), b.Int(0)), b.Binary(ast.OpLt, b.Ident(x), b.Int(10)))}}
	m.Body = b.Block(b.Assert(b.Call(nil, pos, b.Int(5))))

	out, _ := fx.translate(t)
	mustContain(t, out,
		"  ensures (x > 0);",
		"  ensures (x < 10);",
		"assume (_default.Pos#canCall($Heap, 5) ==> (_default.Pos($Heap, 5) <==> (5 > 0)));",
		`assert {:msg "assertion violation"} (5 > 0);`,
	)

	fx2 := newFixture("nosplit")
	x2 := fx2.b.Formal("x", ast.IntType{})
	m2 := fx2.b.Method(fx2.def, "M", []*ast.Formal{x2}, nil)
	m2.Ensures = []*ast.MaybeFree{{E: fx2.b.And(fx2.b.Binary(ast.OpGt, fx2.b.Ident(x2), fx2.b.Int(0)), fx2.b.Binary(ast.OpLt, fx2.b.Ident(x2), fx2.b.Int(10)))}}
	opts := testOptions()
	opts.SplitSpecs = false
	res, err := New(fx2.p, opts, nil, nil).Translate()
	if err != nil {
		t.Fatal(err)
	}
	mustContain(t, res.String(), "ensures ((x > 0) && (x < 10));")
}

func TestMatchStatement(t *testing.T) {
	fx := newFixture("matchstmt")
	b := fx.b
	d := b.Datatype(fx.mod, "Opt")
	none := b.Ctor(d, "None")
	some := b.Ctor(d, "Some", b.Formal("val", ast.IntType{}))
	o := b.Formal("o", &ast.DatatypeType{Datatype: d})
	m := b.Method(fx.def, "Get", []*ast.Formal{o}, nil)
	v := b.BoundVar("v", ast.IntType{})
	m.Body = b.Block(b.MatchStmt(b.Ident(o),
		b.MatchCaseStmt(none, nil, b.Return()),
		b.MatchCaseStmt(some, []*ast.BoundVar{v}, b.Assert(b.Binary(ast.OpGe, b.Ident(v), b.Int(0)))),
	))

	out, _ := fx.translate(t)
	mustContain(t, out,
		"if ((DatatypeCtorId(o) == ##Opt.None))",
		"assume (o == #Opt.None());",
		"havoc v#0;",
		"assume (o == #Opt.Some(v#0));",
		`assert {:msg "assertion violation"} (v#0 >= 0);`,
	)
}

func TestMatchBindingsAreTyped(t *testing.T) {
	fx := newFixture("matchtyped")
	b := fx.b
	node := b.Class(fx.mod, "Node")
	d := b.Datatype(fx.mod, "Box1")
	wrap := b.Ctor(d, "Wrap", b.Formal("n", ast.SelfType(node)))
	w := b.Formal("w", &ast.DatatypeType{Datatype: d})
	m := b.Method(fx.def, "Open", []*ast.Formal{w}, nil)
	v := b.BoundVar("v", ast.SelfType(node))
	m.Body = b.Block(b.MatchStmt(b.Ident(w),
		b.MatchCaseStmt(wrap, []*ast.BoundVar{v}, b.Assert(b.Binary(ast.OpEq, b.Ident(v), b.Ident(v)))),
	))

	out, _ := fx.translate(t)
	re := regexp.MustCompile(`havoc v#\d+;\s+assume \(\(v#\d+ == null\) \|\| \(\$Heap\[v#\d+, alloc\] && \(dtype\(v#\d+\) == class\.Node\)\)\);\s+assume \(w == #Box1\.Wrap\(v#\d+\)\);`)
	if !re.MatchString(out) {
		t.Errorf("case binding lacks its typing assumption:\n%s", out)
	}
}
