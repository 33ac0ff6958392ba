package callgraph

import (
	"testing"

	"github.com/orizon-lang/orizon-verify/internal/ast"
)

type fixture struct {
	b   *ast.Builder
	p   *ast.Program
	cls *ast.ClassDecl
}

func newFixture() *fixture {
	p, b := ast.NewProgram("cg")
	m := b.Module("M", 0)
	return &fixture{b: b, p: p, cls: b.DefaultClass(m)}
}

func (fx *fixture) fn(name string) (*ast.Function, *ast.Formal) {
	n := fx.b.Formal("n", ast.IntType{})
	return fx.b.Function(fx.cls, name, []*ast.Formal{n}, ast.IntType{}), n
}

func TestMutualRecursion(t *testing.T) {
	fx := newFixture()
	b := fx.b
	even, en := fx.fn("even")
	odd, on := fx.fn("odd")
	leaf, _ := fx.fn("leaf")
	top, tn := fx.fn("top")

	even.Body = b.Call(nil, odd, b.Ident(en))
	odd.Body = b.Binary(ast.OpAdd, b.Call(nil, even, b.Ident(on)), b.Call(nil, leaf, b.Int(0)))
	leaf.Body = b.Int(1)
	top.Body = b.Call(nil, even, b.Ident(tn))

	g := Build(fx.p)

	if !g.SameSCC(even, odd) || g.SameSCC(even, leaf) {
		t.Error("even and odd form one component without leaf")
	}
	if !g.IsRecursive(even) || g.IsRecursive(leaf) || g.IsRecursive(top) {
		t.Error("recursion misreported")
	}
	if g.Height(leaf) != 0 || g.Height(even) != 1 || g.Height(odd) != 1 || g.Height(top) != 2 {
		t.Errorf("heights leaf=%d even=%d odd=%d top=%d", g.Height(leaf), g.Height(even), g.Height(odd), g.Height(top))
	}
	if scc := g.SCC(odd); len(scc) != 2 || scc[0] != Callable(even) {
		t.Errorf("SCC(odd) = %v", scc)
	}
	if len(g.Components()) != 3 {
		t.Errorf("expected 3 components, got %d", len(g.Components()))
	}
}

func TestSelfCallInPostconditionIsNotRecursion(t *testing.T) {
	fx := newFixture()
	b := fx.b
	f, n := fx.fn("f")
	f.Body = b.Int(3)
	f.Ensures = []ast.Expr{b.Binary(ast.OpGt, b.Call(nil, f, b.Ident(n)), b.Int(0))}

	g := Build(fx.p)
	if g.IsRecursive(f) {
		t.Error("a postcondition mentioning the result is not a recursive call")
	}
}

func TestDirectRecursionAndMethods(t *testing.T) {
	fx := newFixture()
	b := fx.b
	fact, n := fx.fn("fact")
	fact.Body = b.ITE(b.Binary(ast.OpLe, b.Ident(n), b.Int(0)), b.Int(1),
		b.Binary(ast.OpMul, b.Ident(n), b.Call(nil, fact, b.Binary(ast.OpSub, b.Ident(n), b.Int(1)))))

	x := b.Formal("x", ast.IntType{})
	m := b.Method(fx.cls, "M", []*ast.Formal{x}, nil)
	m.Body = b.Block(
		b.Assert(b.Binary(ast.OpGt, b.Call(nil, fact, b.Ident(x)), b.Int(0))),
		b.CallStmt(nil, nil, m, b.Ident(x)),
	)

	g := Build(fx.p)
	if !g.IsRecursive(fact) || g.Height(fact) != 0 {
		t.Errorf("fact: recursive=%v height=%d", g.IsRecursive(fact), g.Height(fact))
	}
	if !g.IsRecursive(m) || g.Height(m) != 1 {
		t.Errorf("M: recursive=%v height=%d", g.IsRecursive(m), g.Height(m))
	}
	if got := g.Callees(m); len(got) != 2 {
		t.Errorf("Callees(M) = %v", got)
	}
}

func TestUnknownCallable(t *testing.T) {
	fx := newFixture()
	f, _ := fx.fn("f")
	g := New()
	if g.Height(f) != -1 || g.SameSCC(f, f) || g.SCC(f) != nil {
		t.Error("unknown callables must not be reported as members")
	}
}
