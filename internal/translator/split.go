package translator

import (
	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

// splitExpr breaks the boolean expression e into pieces whose conjunction
// means e, so each piece can be checked on its own. When expand is set,
// calls of non-recursive boolean functions with a body are unfolded one
// level; defs then holds the facts that justify the unfolding, which the
// caller assumes.
func (t *Translator) splitExpr(e ast.Expr, et *ExprTranslator, expand bool) (defs, pieces []ir.Expr) {
	switch e := e.(type) {
	case *ast.ParensExpr:
		return t.splitExpr(e.E, et, expand)

	case *ast.BinaryExpr:
		switch e.Op {
		case ast.OpAnd:
			d0, p0 := t.splitExpr(e.Left, et, expand)
			d1, p1 := t.splitExpr(e.Right, et, expand)
			return append(d0, d1...), append(p0, p1...)
		case ast.OpImp:
			ante := et.Tr(e.Left)
			d, p := t.splitExpr(e.Right, et, expand)
			return guardAll(ante, d), guardAll(ante, p)
		}

	case *ast.ITEExpr:
		if _, ok := e.Type().(ast.BoolType); ok {
			test := et.Tr(e.Test)
			d0, p0 := t.splitExpr(e.Thn, et, expand)
			d1, p1 := t.splitExpr(e.Els, et, expand)
			notTest := ir.Negate(test)
			return append(guardAll(test, d0), guardAll(notTest, d1)...),
				append(guardAll(test, p0), guardAll(notTest, p1)...)
		}

	case *ast.FunctionCallExpr:
		if expand && t.expandable(e.Function) {
			return t.expandCall(e, et)
		}
	}
	return nil, []ir.Expr{et.Tr(e)}
}

func (t *Translator) expandable(f *ast.Function) bool {
	if f.Body == nil || f.Attributes.Has("opaque") {
		return false
	}
	if _, ok := f.ResultType.(ast.BoolType); !ok {
		return false
	}
	return t.graph == nil || !t.graph.IsRecursive(f)
}

// expandCall unfolds one call: the pieces are the pieces of the body, and
// the definition ties the call to its body.
func (t *Translator) expandCall(e *ast.FunctionCallExpr, et *ExprTranslator) (defs, pieces []ir.Expr) {
	f := e.Function
	call := et.Tr(e)
	args := et.boxedArgs(f.Formals, e.Args)
	body := et.WithReceiver(et.receiver(e.Receiver)).WithSubst(calleeSubst(f.Formals, args))

	canCall := ir.Fn(t.function(f).canCallName(), et.callArgs(e)...)
	defs = []ir.Expr{ir.Implies(canCall, ir.Equiv(call, body.Tr(f.Body)))}
	d, p := t.splitExpr(f.Body, body, false)
	return append(defs, d...), p
}

func guardAll(guard ir.Expr, es []ir.Expr) []ir.Expr {
	out := make([]ir.Expr, len(es))
	for i, e := range es {
		out[i] = ir.Implies(guard, e)
	}
	return out
}

// specPieces splits a specification clause when spec splitting is on.
func (t *Translator) specPieces(e ast.Expr, et *ExprTranslator) (defs, pieces []ir.Expr) {
	if !t.opts.SplitSpecs {
		return nil, []ir.Expr{et.Tr(e)}
	}
	return t.splitExpr(e, et, true)
}
