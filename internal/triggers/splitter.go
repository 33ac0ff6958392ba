package triggers

import (
	"github.com/orizon-lang/orizon-verify/internal/ast"
)

// splitExpr flattens e along separator, pushing negations inward.
// Under || an implication A ==> B contributes !A and B.
func splitExpr(b *ast.Builder, e ast.Expr, separator ast.BinaryOp) []ast.Expr {
	e = ast.StripParens(e)
	switch x := e.(type) {
	case *ast.UnaryExpr:
		if x.Op == ast.OpNot {
			var out []ast.Expr
			for _, sub := range splitExpr(b, x.E, flip(separator)) {
				out = append(out, b.Not(sub))
			}
			return out
		}
	case *ast.BinaryExpr:
		if x.Op == separator {
			return append(splitExpr(b, x.Left, separator), splitExpr(b, x.Right, separator)...)
		}
		if x.Op == ast.OpImp && separator == ast.OpOr {
			return append(splitExpr(b, b.Not(x.Left), separator), splitExpr(b, x.Right, separator)...)
		}
	}
	return []ast.Expr{e}
}

func flip(op ast.BinaryOp) ast.BinaryOp {
	if op == ast.OpAnd {
		return ast.OpOr
	}
	return ast.OpAnd
}

// splitAndStitch splits the right operand of pair and rebuilds pair around
// every piece.
func splitAndStitch(b *ast.Builder, pair *ast.BinaryExpr, separator ast.BinaryOp) []ast.Expr {
	pieces := splitExpr(b, pair.Right, separator)
	if len(pieces) == 1 {
		return []ast.Expr{pair}
	}
	out := make([]ast.Expr, len(pieces))
	for i, p := range pieces {
		out[i] = b.Binary(pair.Op, pair.Left, p)
	}
	return out
}

// SplitQuantifier breaks q into independently triggerable quantifiers.
// forall splits on && (after an implication or disjunction, only on the
// right-hand side); exists splits on || and stitches over &&. The parts
// share q's bound variables and attributes. When q splits into more than
// one part they are recorded in q.SplitQuantifier and returned; otherwise
// the result is nil. {:split false} disables splitting.
func SplitQuantifier(b *ast.Builder, q *ast.QuantifierExpr) []*ast.QuantifierExpr {
	if q.Attributes.IsFalse("split") || len(q.SplitQuantifier) > 0 {
		return q.SplitQuantifier
	}
	b = b.WithSpan(q.GetSpan())

	separator, stitchOver := ast.OpAnd, []ast.BinaryOp{ast.OpImp, ast.OpOr}
	if !q.Universal {
		separator, stitchOver = ast.OpOr, []ast.BinaryOp{ast.OpAnd}
	}

	var pieces []ast.Expr
	if bin, ok := ast.StripParens(q.Term).(*ast.BinaryExpr); ok && contains(stitchOver, bin.Op) {
		pieces = splitAndStitch(b, bin, separator)
	} else {
		pieces = splitExpr(b, q.Term, separator)
	}
	if len(pieces) < 2 {
		return nil
	}

	splits := make([]*ast.QuantifierExpr, len(pieces))
	for i, p := range pieces {
		attrs := append(ast.Attributes(nil), q.Attributes...)
		splits[i] = b.Quantifier(q.Universal, q.BoundVars, q.Range, p, attrs)
	}
	q.SplitQuantifier = splits
	return splits
}

func contains(ops []ast.BinaryOp, op ast.BinaryOp) bool {
	for _, o := range ops {
		if o == op {
			return true
		}
	}
	return false
}
