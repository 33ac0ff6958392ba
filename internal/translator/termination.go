package translator

import (
	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

// measureKind groups the types whose values can be compared in a
// termination measure.
type measureKind int

const (
	kindNone measureKind = iota
	kindBool
	kindInt
	kindSet
	kindSeq
	kindDatatype
	kindRef
	kindTypeParam
)

func kindOf(t ast.Type) measureKind {
	switch t.(type) {
	case ast.BoolType:
		return kindBool
	case ast.IntType:
		return kindInt
	case *ast.SetType:
		return kindSet
	case *ast.SeqType:
		return kindSeq
	case *ast.DatatypeType:
		return kindDatatype
	case ast.ObjectType, *ast.ClassType, *ast.UnresolvedType:
		return kindRef
	case *ast.TypeParamType:
		return kindTypeParam
	}
	return kindNone
}

// orderable reports whether values of t may serve in a default measure.
// References can be compared but never decrease in a useful way.
func orderable(t ast.Type) bool {
	k := kindOf(t)
	return k != kindNone && k != kindRef
}

// decreasesCheck is the formula stating that the measure ee0 (of the
// callee or the next iteration) is below ee1 (of the caller or the current
// iteration) in the lexicographic order. Comparison stops at the first
// pair of incompatible types. allowance, when non-nil, is disjoined;
// allowNoChange accepts equal measures.
func decreasesCheck(types0, types1 []ast.Type, ee0, ee1 []ir.Expr, allowance ir.Expr, includeLowerBound, allowNoChange bool) ir.Expr {
	n := min(len(ee0), len(ee1))
	var less, atmost, eq []ir.Expr
	for i := 0; i < n; i++ {
		k := kindOf(types0[i])
		if k == kindNone || k != kindOf(types1[i]) {
			break
		}
		l, a, e := compareMeasure(k, ee0[i], ee1[i], includeLowerBound)
		less, atmost, eq = append(less, l), append(atmost, a), append(eq, e)
	}

	var decr ir.Expr
	switch k := len(less); {
	case k == 0:
		decr = &ir.BoolLit{Value: allowNoChange}
	case allowNoChange:
		decr = atmost[k-1]
	default:
		decr = less[k-1]
	}
	for i := len(less) - 2; i >= 0; i-- {
		decr = ir.Disj(less[i], ir.Conj(eq[i], decr))
	}
	if allowance != nil {
		decr = ir.Disj(allowance, decr)
	}
	return decr
}

// compareMeasure returns e0 < e1, e0 <= e1 and e0 == e1 for one kind.
func compareMeasure(k measureKind, e0, e1 ir.Expr, includeLowerBound bool) (less, atmost, eq ir.Expr) {
	rank := func(fn string) (ir.Expr, ir.Expr) { return ir.Fn(fn, e0), ir.Fn(fn, e1) }
	switch k {
	case kindBool:
		return ir.Conj(ir.Negate(e0), e1), ir.Implies(e0, e1), ir.Equiv(e0, e1)
	case kindInt:
		less = ir.Bin(ir.Lt, e0, e1)
		if includeLowerBound {
			less = ir.Conj(ir.Bin(ir.Le, ir.Int64(0), e0), less)
		}
		return less, ir.Bin(ir.Le, e0, e1), ir.Equal(e0, e1)
	case kindSet:
		return properSubset(e0, e1), ir.Fn("Set#Subset", e0, e1), ir.Fn("Set#Equal", e0, e1)
	case kindRef:
		n0, n1 := ir.Equal(e0, ir.Null), ir.Equal(e1, ir.Null)
		return ir.Conj(n0, ir.Negate(n1)), ir.Disj(n0, ir.Negate(n1)), ir.Equiv(n0, n1)
	}
	var r0, r1 ir.Expr
	switch k {
	case kindSeq:
		r0, r1 = rank("Seq#Length")
	case kindDatatype:
		r0, r1 = rank("DtRank")
	default:
		r0, r1 = rank("BoxRank")
	}
	return ir.Bin(ir.Lt, r0, r1), ir.Bin(ir.Le, r0, r1), ir.Equal(r0, r1)
}

// defaultDecreases is the measure of a callable without a decreases
// clause: its orderable in-parameters, in order.
func defaultDecreases(b *ast.Builder, formals []*ast.Formal) []ast.Expr {
	var out []ast.Expr
	for _, f := range formals {
		if orderable(f.Type) {
			out = append(out, b.Ident(f))
		}
	}
	return out
}

// guessMeasure derives a loop measure from a comparison guard, or nil.
func guessMeasure(b *ast.Builder, guard ast.Expr) ast.Expr {
	be, ok := ast.StripParens(guard).(*ast.BinaryExpr)
	if !ok {
		return nil
	}
	if _, isInt := be.Left.Type().(ast.IntType); !isInt {
		return nil
	}
	switch be.Op {
	case ast.OpLt:
		return b.Binary(ast.OpSub, be.Right, be.Left)
	case ast.OpLe:
		return b.Binary(ast.OpAdd, b.Binary(ast.OpSub, be.Right, be.Left), b.Int(1))
	case ast.OpGt:
		return b.Binary(ast.OpSub, be.Left, be.Right)
	case ast.OpGe:
		return b.Binary(ast.OpAdd, b.Binary(ast.OpSub, be.Left, be.Right), b.Int(1))
	}
	return nil
}

func exprTypes(es []ast.Expr) []ast.Type {
	out := make([]ast.Type, len(es))
	for i, e := range es {
		out[i] = e.Type()
	}
	return out
}
