package ast

import (
	"testing"
)

func TestArenaGenerationsAreDistinct(t *testing.T) {
	p1, b1 := NewProgram("one")
	p2, b2 := NewProgram("two")

	x := b1.Int(1)
	y := b2.Int(1)

	if x.NodeID() == y.NodeID() {
		t.Fatalf("ids collide across programs: %v", x.NodeID())
	}
	if !p1.Arena.Owns(x.NodeID()) || p1.Arena.Owns(y.NodeID()) {
		t.Error("arena ownership is wrong")
	}
	if p2.Arena.Node(y.NodeID()) != Node(y) {
		t.Error("arena lookup does not return the node")
	}
	var zero NodeID
	if !zero.IsZero() || x.NodeID().IsZero() {
		t.Error("IsZero misreports")
	}
}

func TestBuilderComputesTypes(t *testing.T) {
	p, b := NewProgram("types")
	m := b.Module("M", 0)
	c := b.Class(m, "Cell", "T")
	val := b.Field(c, "val", &TypeParamType{Param: c.TypeParams[0]}, true)

	cellOfInt := &ClassType{Class: c, TypeArgs: []Type{IntType{}}}
	x := b.Local("x", cellOfInt)
	sel := b.Select(b.Ident(x), val)
	if !SameType(sel.Type(), IntType{}) {
		t.Errorf("x.val has type %s, want int", sel.Type())
	}

	s := b.Local("s", &SeqType{Elem: BoolType{}})
	if !SameType(b.Index(b.Ident(s), b.Int(0)).Type(), BoolType{}) {
		t.Error("sequence index should have the element type")
	}

	arr := b.Local("a", b.ArrayType(IntType{}, 2))
	idx := b.MultiIndex(b.Ident(arr), b.Int(0), b.Int(1))
	if !SameType(idx.Type(), IntType{}) {
		t.Errorf("a[0, 1] has type %s", idx.Type())
	}
	a2 := p.ArrayClass(2)
	if a2.Name != "array2" || a2.LengthField(1) == nil || a2.LengthField(1).Name != "Length1" {
		t.Errorf("array2 class malformed: %+v", a2)
	}
	if p.ArrayClass(2) != a2 {
		t.Error("array classes are not shared")
	}

	sum := b.Binary(OpAdd, b.Ident(s), b.Ident(s))
	if _, ok := sum.Type().(*SeqType); !ok {
		t.Errorf("s + s has type %s", sum.Type())
	}
	if !SameType(b.Binary(OpLt, b.Int(1), b.Int(2)).Type(), BoolType{}) {
		t.Error("comparison must be boolean")
	}
}

func TestUniqueNames(t *testing.T) {
	_, b := NewProgram("names")
	x1 := b.Local("x", IntType{})
	x2 := b.BoundVar("x", IntType{})
	if x1.UniqueName() == x2.UniqueName() {
		t.Fatalf("unique names collide: %s", x1.UniqueName())
	}
	if x1.VarName() != "x" || x2.VarName() != "x" {
		t.Error("source names must be kept")
	}
}

func TestBuilderRejectsMalformedTrees(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *Builder)
	}{
		{"index int", func(b *Builder) { b.Index(b.Int(1), b.Int(0)) }},
		{"assign literal", func(b *Builder) { b.Assign(b.Int(1), &HavocRhs{}) }},
		{"let arity", func(b *Builder) { b.Let(nil, []Expr{b.Int(1)}, b.Int(2)) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected a panic")
				}
			}()
			_, b := NewProgram("bad")
			tt.build(b)
		})
	}
}

func TestEqualModuloVariableNames(t *testing.T) {
	_, b := NewProgram("eq")
	m := b.Module("M", 0)
	c := b.DefaultClass(m)
	n := b.Formal("n", IntType{})
	f := b.Function(c, "f", []*Formal{n}, IntType{})

	x := b.BoundVar("x", IntType{})
	y := b.BoundVar("y", IntType{})

	fx := b.Call(nil, f, b.Ident(x))
	fy := b.Call(nil, f, b.Parens(b.Ident(y)))
	ffx := b.Call(nil, f, fx)

	if Equal(fx, fy) {
		t.Error("f(x) and f(y) are different terms")
	}
	if !EqualModuloVariableNames(fx, fy) {
		t.Error("f(x) and f(y) agree modulo variable names")
	}
	if EqualModuloVariableNames(fx, ffx) {
		t.Error("f(x) and f(f(x)) differ in shape")
	}
	if !Equal(fx, b.Call(nil, f, b.Ident(x))) {
		t.Error("equality must be structural")
	}
}

func TestFreeVariables(t *testing.T) {
	_, b := NewProgram("fv")
	s := b.Local("s", &SeqType{Elem: IntType{}})
	i := b.BoundVar("i", IntType{})
	j := b.BoundVar("j", IntType{})

	// forall i :: s[i] > j
	q := b.Forall([]*BoundVar{i}, nil, b.Binary(OpGt, b.Index(b.Ident(s), b.Ident(i)), b.Ident(j)))
	got := FreeVariables(q)
	if len(got) != 2 || got[0] != Variable(s) || got[1] != Variable(j) {
		t.Fatalf("FreeVariables = %v, want [s j]", got)
	}
	if !Mentions(q, i) {
		t.Error("the quantifier mentions its own bound variable")
	}
	if qs := Quantifiers(b.And(q, b.Bool(true))); len(qs) != 1 || qs[0] != q {
		t.Errorf("Quantifiers = %v", qs)
	}
}

func TestAttributes(t *testing.T) {
	_, b := NewProgram("attrs")
	as := Attributes{Attr("split", b.Bool(false)), Attr("trigger", b.Int(1)), Attr("trigger", b.Int(2))}
	if !as.IsFalse("split") || as.IsFalse("trigger") {
		t.Error("IsFalse misreports")
	}
	if len(as.FindAll("trigger")) != 2 || as.Has("nowarn") {
		t.Error("FindAll/Has misreport")
	}
	if got := as.String(); got != "{:split false} {:trigger 1} {:trigger 2}" {
		t.Errorf("String() = %q", got)
	}
}
