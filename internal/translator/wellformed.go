package translator

import (
	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/callgraph"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

// Failure messages attached to generated assertions.
const (
	msgNull        = "target object may be null"
	msgIndex       = "index out of range"
	msgDomain      = "element may not be in domain"
	msgDivZero     = "possible division by zero"
	msgPrecond     = "possible violation of function precondition"
	msgReads       = "insufficient reads clause to read field"
	msgReadsCall   = "insufficient reads clause to invoke function"
	msgDecrease    = "failure to decrease termination measure"
	msgAssert      = "assertion violation"
	msgPostcond    = "possible violation of postcondition"
	msgPrecondCall = "possible violation of method precondition"
	msgModifies    = "call may violate caller's modifies clause"
	msgAssign      = "assignment may update an object not in the enclosing method's modifies clause"
	msgInvariant   = "loop invariant violation"
	msgMeasure     = "cannot find a termination measure for this loop"
	msgForeach     = "possible violation of definedness in foreach"
)

// wfContext carries what the definedness checks of one body need besides
// the expression translator.
type wfContext struct {
	// frame is the reads frame of a function body, nil in method bodies.
	frame ir.Expr
	// self is the function whose postcondition is being checked.
	self *ast.Function
	// measure is the caller's termination measure, evaluated on entry.
	measure      []ir.Expr
	measureTypes []ast.Type
}

// ====== CheckWellformed ======

// checkWellformed appends to out the assertions under which e is defined.
func (pb *procBuilder) checkWellformed(e ast.Expr, et *ExprTranslator, ctx *wfContext, out *ir.Block) {
	switch e := e.(type) {
	case *ast.LiteralExpr, *ast.ThisExpr, *ast.IdentifierExpr:

	case *ast.FieldSelectExpr:
		pb.checkWellformed(e.Obj, et, ctx, out)
		o := et.Tr(e.Obj)
		nonNull(e.Obj, o, out)
		if ctx.frame != nil && e.Field.Mutable {
			out.Add(ir.Assert(ir.Sel(ctx.frame, o, ir.Id(pb.t.field(e.Field).name)), msgReads))
		}

	case *ast.SeqSelectExpr:
		pb.checkWellformed(e.Seq, et, ctx, out)
		for _, x := range []ast.Expr{e.E0, e.E1} {
			if x != nil {
				pb.checkWellformed(x, et, ctx, out)
			}
		}
		s := et.Tr(e.Seq)
		st := e.Seq.Type()
		var length ir.Expr
		switch st.(type) {
		case *ast.SeqType:
			length = ir.Fn("Seq#Length", s)
		case *ast.MapType:
			out.Add(ir.Assert(membership(st, et.Tr(e.E0), s), msgDomain))
			return
		default:
			nonNull(e.Seq, s, out)
			length = et.arrayLength(st, s, 0)
		}
		if e.SelectOne {
			i := et.Tr(e.E0)
			out.Add(ir.Assert(inRange(i, length), msgIndex))
			if ctx.frame != nil && ast.IsArrayType(st) {
				out.Add(ir.Assert(ir.Sel(ctx.frame, s, ir.Fn("IndexField", i)), msgReads))
			}
			return
		}
		var lo ir.Expr = ir.Int64(0)
		if e.E0 != nil {
			lo = et.Tr(e.E0)
			out.Add(ir.Assert(ir.Conj(ir.Bin(ir.Le, ir.Int64(0), lo), ir.Bin(ir.Le, lo, length)), msgIndex))
		}
		if e.E1 != nil {
			hi := et.Tr(e.E1)
			out.Add(ir.Assert(ir.Conj(ir.Bin(ir.Le, lo, hi), ir.Bin(ir.Le, hi, length)), msgIndex))
		}
		if ctx.frame != nil && ast.IsArrayType(st) {
			out.Add(ir.Assert(pb.arrayReads(ctx.frame, s), msgReads))
		}

	case *ast.MultiSelectExpr:
		pb.checkWellformed(e.Array, et, ctx, out)
		for _, i := range e.Indices {
			pb.checkWellformed(i, et, ctx, out)
		}
		a := et.Tr(e.Array)
		nonNull(e.Array, a, out)
		for d, i := range e.Indices {
			out.Add(ir.Assert(inRange(et.Tr(i), et.arrayLength(e.Array.Type(), a, d)), msgIndex))
		}
		if ctx.frame != nil {
			out.Add(ir.Assert(ir.Sel(ctx.frame, a, et.multiIndexField(e.Indices)), msgReads))
		}

	case *ast.SeqUpdateExpr:
		pb.checkWellformed(e.Seq, et, ctx, out)
		pb.checkWellformed(e.Index, et, ctx, out)
		pb.checkWellformed(e.Value, et, ctx, out)
		if _, ok := e.Seq.Type().(*ast.SeqType); ok {
			out.Add(ir.Assert(inRange(et.Tr(e.Index), ir.Fn("Seq#Length", et.Tr(e.Seq))), msgIndex))
		}

	case *ast.FunctionCallExpr:
		pb.checkCall(e, et, ctx, out)

	case *ast.DatatypeValue:
		for _, a := range e.Args {
			pb.checkWellformed(a, et, ctx, out)
		}

	case *ast.DisplayExpr:
		for _, x := range e.Elements {
			pb.checkWellformed(x, et, ctx, out)
		}

	case *ast.MapDisplayExpr:
		for i := range e.Keys {
			pb.checkWellformed(e.Keys[i], et, ctx, out)
			pb.checkWellformed(e.Values[i], et, ctx, out)
		}

	case *ast.OldExpr:
		pb.checkWellformed(e.E, et.Old(), ctx, out)

	case *ast.FreshExpr:
		pb.checkWellformed(e.E, et, ctx, out)

	case *ast.UnaryExpr:
		pb.checkWellformed(e.E, et, ctx, out)

	case *ast.BinaryExpr:
		pb.checkWellformed(e.Left, et, ctx, out)
		switch e.Op {
		case ast.OpAnd, ast.OpImp:
			pb.guarded(et.Tr(e.Left), func(b *ir.Block) { pb.checkWellformed(e.Right, et, ctx, b) }, out)
		case ast.OpOr:
			pb.guarded(ir.Negate(et.Tr(e.Left)), func(b *ir.Block) { pb.checkWellformed(e.Right, et, ctx, b) }, out)
		default:
			pb.checkWellformed(e.Right, et, ctx, out)
			if e.Op == ast.OpDiv || e.Op == ast.OpMod {
				out.Add(ir.Assert(ir.Bin(ir.Neq, et.Tr(e.Right), ir.Int64(0)), msgDivZero))
			}
		}

	case *ast.ITEExpr:
		pb.checkWellformed(e.Test, et, ctx, out)
		thn, els := &ir.Block{}, &ir.Block{}
		pb.checkWellformed(e.Thn, et, ctx, thn)
		pb.checkWellformed(e.Els, et, ctx, els)
		switch {
		case len(els.Cmds) > 0:
			out.Add(&ir.IfCmd{Guard: et.Tr(e.Test), Thn: thn, Els: els})
		case len(thn.Cmds) > 0:
			out.Add(&ir.IfCmd{Guard: et.Tr(e.Test), Thn: thn})
		}

	case *ast.LetExpr:
		m := make(map[ast.Variable]ir.Expr, len(e.Vars))
		for i, v := range e.Vars {
			pb.checkWellformed(e.RHSs[i], et, ctx, out)
			m[v] = et.Tr(e.RHSs[i])
		}
		pb.checkWellformed(e.Body, et.WithSubst(m), ctx, out)

	case *ast.QuantifierExpr:
		inner, body := pb.bindLocals(e.BoundVars, et)
		if e.Range != nil {
			pb.checkWellformed(e.Range, inner, ctx, body)
			pb.guarded(inner.Tr(e.Range), func(b *ir.Block) { pb.checkWellformed(e.Term, inner, ctx, b) }, body)
		} else {
			pb.checkWellformed(e.Term, inner, ctx, body)
		}
		if hasChecks(body) {
			out.Add(&ir.IfCmd{Thn: body})
		}

	case *ast.MatchExpr:
		pb.checkWellformed(e.Source, et, ctx, out)
		src := et.Tr(e.Source)
		var chain ir.Cmd
		for i := len(e.Cases) - 1; i >= 0; i-- {
			mc := e.Cases[i]
			b := &ir.Block{}
			pb.checkWellformed(mc.Body, et.WithSubst(destructorSubst(pb.t, mc.Ctor, mc.Args, src)), ctx, b)
			if chain == nil {
				chain = b
				continue
			}
			chain = &ir.IfCmd{Guard: ctorTest(src, mc.Ctor), Thn: b, Els: chain}
		}
		if c, ok := chain.(*ir.IfCmd); ok {
			out.Add(c)
		} else if b, ok := chain.(*ir.Block); ok {
			out.Add(b.Cmds...)
		}

	case *ast.ParensExpr:
		pb.checkWellformed(e.E, et, ctx, out)

	default:
		panic(errs.UnsupportedNode("well-formedness check", e))
	}
}

func (pb *procBuilder) checkCall(e *ast.FunctionCallExpr, et *ExprTranslator, ctx *wfContext, out *ir.Block) {
	f := e.Function
	if e.Receiver != nil {
		pb.checkWellformed(e.Receiver, et, ctx, out)
	}
	for _, a := range e.Args {
		pb.checkWellformed(a, et, ctx, out)
	}
	recv := et.receiver(e.Receiver)
	if !f.IsStatic && e.Receiver != nil {
		nonNull(e.Receiver, recv, out)
	}
	args := et.boxedArgs(f.Formals, e.Args)
	callee := et.WithReceiver(recv).WithSubst(calleeSubst(f.Formals, args))

	for _, pre := range f.Requires {
		out.Add(ir.Assert(callee.Tr(pre), msgPrecond))
	}
	if ctx.frame != nil && len(f.Reads) > 0 {
		o, fld := pb.t.fresh("$o"), pb.t.fresh("$f")
		body := ir.Implies(callee.inFrame(f.Reads, ir.Id(o), ir.Id(fld)), ir.Sel(ctx.frame, ir.Id(o), ir.Id(fld)))
		out.Add(ir.Assert(frameQuantifier(true, o, fld, nil, body), msgReadsCall))
	}

	caller, ok := et.caller.(*ast.Function)
	if !ok || pb.t.graph == nil || !pb.t.graph.SameSCC(caller, f) {
		return
	}
	var allowance ir.Expr
	if ctx.self == f {
		allowance = selfCallAllowance(f, recv, args)
	}
	dec := pb.t.measureOf(f)
	check := decreasesCheck(exprTypes(dec), ctx.measureTypes, callee.TrAll(dec), ctx.measure, allowance, true, false)
	out.Add(ir.Assert(check, msgDecrease))
}

// selfCallAllowance holds when a function's postcondition calls the
// function on its own receiver and parameters.
func selfCallAllowance(f *ast.Function, recv ir.Expr, args []ir.Expr) ir.Expr {
	var eqs []ir.Expr
	if !f.IsStatic {
		eqs = append(eqs, ir.Equal(recv, ir.Id(thisName)))
	}
	for i, formal := range f.Formals {
		eqs = append(eqs, ir.Equal(args[i], ir.Id(formal.UniqueName())))
	}
	return ir.AndAll(eqs...)
}

// measureOf is the declared or default measure of a callable.
func (t *Translator) measureOf(c callgraph.Callable) []ast.Expr {
	switch c := c.(type) {
	case *ast.Function:
		if len(c.Decreases) > 0 {
			return c.Decreases
		}
		return defaultDecreases(t.b, c.Formals)
	case *ast.Method:
		if len(c.Decreases) > 0 {
			return c.Decreases
		}
		return defaultDecreases(t.b, c.Ins)
	}
	return nil
}

func nonNull(src ast.Expr, o ir.Expr, out *ir.Block) {
	if _, isThis := ast.StripParens(src).(*ast.ThisExpr); isThis {
		return
	}
	out.Add(ir.Assert(ir.Bin(ir.Neq, o, ir.Null), msgNull))
}

// arrayReads states that every element of a is in frame.
func (pb *procBuilder) arrayReads(frame, a ir.Expr) ir.Expr {
	i := pb.t.fresh("$i")
	f := ir.Fn("IndexField", ir.Id(i))
	return ir.Forall([]*ir.Var{ir.V(i, ir.Int)}, [][]ir.Expr{{f}}, ir.Sel(frame, a, f))
}

// guarded appends `if (guard) { ... }` when fill produces commands.
func (pb *procBuilder) guarded(guard ir.Expr, fill func(*ir.Block), out *ir.Block) {
	b := &ir.Block{}
	fill(b)
	if len(b.Cmds) == 0 {
		return
	}
	if ir.IsTrue(guard) {
		out.Add(b.Cmds...)
		return
	}
	out.Add(&ir.IfCmd{Guard: guard, Thn: b})
}

// bindLocals introduces a havocked local per bound variable and returns
// a translator that reads them, with the block the locals are live in.
func (pb *procBuilder) bindLocals(vars []*ast.BoundVar, et *ExprTranslator) (*ExprTranslator, *ir.Block) {
	body := &ir.Block{}
	m := make(map[ast.Variable]ir.Expr, len(vars))
	names := make([]string, len(vars))
	for i, bv := range vars {
		names[i] = pb.temp(bv.Name, pb.t.trType(bv.Type))
		m[bv] = ir.Id(names[i])
	}
	body.Add(ir.Havoc(names...))
	inner := et.WithSubst(m)
	for i, bv := range vars {
		if w := inner.WhereClause(ir.Id(names[i]), bv.Type); w != nil {
			body.Add(ir.Assume(w))
		}
	}
	return inner, body
}

// hasChecks reports whether b contains an assertion.
func hasChecks(b *ir.Block) bool {
	for _, c := range b.Cmds {
		if cmdHasChecks(c) {
			return true
		}
	}
	return false
}

func cmdHasChecks(c ir.Cmd) bool {
	switch c := c.(type) {
	case *ir.AssertCmd:
		return true
	case *ir.Block:
		return hasChecks(c)
	case *ir.IfCmd:
		return hasChecks(c.Thn) || (c.Els != nil && cmdHasChecks(c.Els))
	}
	return false
}

// ====== IsTotal ======

// isTotal is the formula under which e is defined. It mirrors
// checkWellformed without reads checks.
func (t *Translator) isTotal(e ast.Expr, et *ExprTranslator) ir.Expr {
	switch e := e.(type) {
	case *ast.LiteralExpr, *ast.ThisExpr, *ast.IdentifierExpr:
		return ir.True

	case *ast.FieldSelectExpr:
		return ir.Conj(t.isTotal(e.Obj, et), totalNonNull(e.Obj, et.Tr(e.Obj)))

	case *ast.SeqSelectExpr:
		r := t.isTotal(e.Seq, et)
		for _, x := range []ast.Expr{e.E0, e.E1} {
			if x != nil {
				r = ir.Conj(r, t.isTotal(x, et))
			}
		}
		s := et.Tr(e.Seq)
		var length ir.Expr
		switch st := e.Seq.Type().(type) {
		case *ast.SeqType:
			length = ir.Fn("Seq#Length", s)
		case *ast.MapType:
			return ir.Conj(r, membership(st, et.Tr(e.E0), s))
		default:
			r = ir.Conj(r, totalNonNull(e.Seq, s))
			length = et.arrayLength(st, s, 0)
		}
		if e.SelectOne {
			return ir.Conj(r, inRange(et.Tr(e.E0), length))
		}
		var lo ir.Expr = ir.Int64(0)
		if e.E0 != nil {
			lo = et.Tr(e.E0)
			r = ir.AndAll(r, ir.Bin(ir.Le, ir.Int64(0), lo), ir.Bin(ir.Le, lo, length))
		}
		if e.E1 != nil {
			hi := et.Tr(e.E1)
			r = ir.AndAll(r, ir.Bin(ir.Le, lo, hi), ir.Bin(ir.Le, hi, length))
		}
		return r

	case *ast.MultiSelectExpr:
		r := t.isTotal(e.Array, et)
		a := et.Tr(e.Array)
		r = ir.Conj(r, totalNonNull(e.Array, a))
		for d, i := range e.Indices {
			r = ir.AndAll(r, t.isTotal(i, et), inRange(et.Tr(i), et.arrayLength(e.Array.Type(), a, d)))
		}
		return r

	case *ast.SeqUpdateExpr:
		r := ir.AndAll(t.isTotal(e.Seq, et), t.isTotal(e.Index, et), t.isTotal(e.Value, et))
		if _, ok := e.Seq.Type().(*ast.SeqType); ok {
			r = ir.Conj(r, inRange(et.Tr(e.Index), ir.Fn("Seq#Length", et.Tr(e.Seq))))
		}
		return r

	case *ast.FunctionCallExpr:
		r := ir.True
		if e.Receiver != nil {
			r = ir.Conj(t.isTotal(e.Receiver, et), totalNonNull(e.Receiver, et.Tr(e.Receiver)))
		}
		for _, a := range e.Args {
			r = ir.Conj(r, t.isTotal(a, et))
		}
		callee := et.WithReceiver(et.receiver(e.Receiver)).WithSubst(calleeSubst(e.Function.Formals, et.boxedArgs(e.Function.Formals, e.Args)))
		for _, pre := range e.Function.Requires {
			r = ir.Conj(r, callee.Tr(pre))
		}
		return r

	case *ast.DatatypeValue:
		return t.allTotal(e.Args, et)

	case *ast.DisplayExpr:
		return t.allTotal(e.Elements, et)

	case *ast.MapDisplayExpr:
		return ir.Conj(t.allTotal(e.Keys, et), t.allTotal(e.Values, et))

	case *ast.OldExpr:
		return t.isTotal(e.E, et.Old())

	case *ast.FreshExpr:
		return t.isTotal(e.E, et)

	case *ast.UnaryExpr:
		return t.isTotal(e.E, et)

	case *ast.BinaryExpr:
		l := t.isTotal(e.Left, et)
		r := t.isTotal(e.Right, et)
		switch e.Op {
		case ast.OpAnd, ast.OpImp:
			return ir.Conj(l, ir.Implies(et.Tr(e.Left), r))
		case ast.OpOr:
			return ir.Conj(l, ir.Implies(ir.Negate(et.Tr(e.Left)), r))
		case ast.OpDiv, ast.OpMod:
			return ir.AndAll(l, r, ir.Bin(ir.Neq, et.Tr(e.Right), ir.Int64(0)))
		}
		return ir.Conj(l, r)

	case *ast.ITEExpr:
		test := et.Tr(e.Test)
		return ir.AndAll(t.isTotal(e.Test, et),
			ir.Implies(test, t.isTotal(e.Thn, et)),
			ir.Implies(ir.Negate(test), t.isTotal(e.Els, et)))

	case *ast.LetExpr:
		r := ir.True
		m := make(map[ast.Variable]ir.Expr, len(e.Vars))
		for i, v := range e.Vars {
			r = ir.Conj(r, t.isTotal(e.RHSs[i], et))
			m[v] = et.Tr(e.RHSs[i])
		}
		return ir.Conj(r, t.isTotal(e.Body, et.WithSubst(m)))

	case *ast.QuantifierExpr:
		return t.binderTotal(e.BoundVars, e.Range, e.Term, et, t.isTotal)

	case *ast.MatchExpr:
		src := et.Tr(e.Source)
		r := t.isTotal(e.Source, et)
		for _, mc := range e.Cases {
			body := t.isTotal(mc.Body, et.WithSubst(destructorSubst(t, mc.Ctor, mc.Args, src)))
			r = ir.Conj(r, ir.Implies(ctorTest(src, mc.Ctor), body))
		}
		return r

	case *ast.ParensExpr:
		return t.isTotal(e.E, et)
	}
	panic(errs.UnsupportedNode("definedness", e))
}

func (t *Translator) allTotal(es []ast.Expr, et *ExprTranslator) ir.Expr {
	r := ir.True
	for _, e := range es {
		r = ir.Conj(r, t.isTotal(e, et))
	}
	return r
}

// binderTotal quantifies a per-body fact over the variables of a binder.
func (t *Translator) binderTotal(vars []*ast.BoundVar, rng, term ast.Expr, et *ExprTranslator, fact func(ast.Expr, *ExprTranslator) ir.Expr) ir.Expr {
	irVars := make([]*ir.Var, len(vars))
	var wheres []ir.Expr
	for i, bv := range vars {
		irVars[i] = ir.V(bv.UniqueName(), t.trType(bv.Type))
		wheres = append(wheres, et.WhereClause(ir.Id(bv.UniqueName()), bv.Type))
	}
	body := fact(term, et)
	if rng != nil {
		body = ir.Conj(fact(rng, et), ir.Implies(et.Tr(rng), body))
	}
	return ir.Forall(irVars, nil, ir.Implies(ir.AndAll(wheres...), body))
}

func totalNonNull(src ast.Expr, o ir.Expr) ir.Expr {
	if _, isThis := ast.StripParens(src).(*ast.ThisExpr); isThis {
		return ir.True
	}
	return ir.Bin(ir.Neq, o, ir.Null)
}

// ====== CanCallAssumption ======

// canCall is the conjunction of the #canCall facts of the calls in e,
// guarded by the conditions under which they are evaluated.
func (t *Translator) canCall(e ast.Expr, et *ExprTranslator) ir.Expr {
	switch e := e.(type) {
	case *ast.LiteralExpr, *ast.ThisExpr, *ast.IdentifierExpr:
		return ir.True

	case *ast.FieldSelectExpr:
		return t.canCall(e.Obj, et)

	case *ast.SeqSelectExpr:
		r := t.canCall(e.Seq, et)
		for _, x := range []ast.Expr{e.E0, e.E1} {
			if x != nil {
				r = ir.Conj(r, t.canCall(x, et))
			}
		}
		return r

	case *ast.MultiSelectExpr:
		return ir.Conj(t.canCall(e.Array, et), t.allCanCall(e.Indices, et))

	case *ast.SeqUpdateExpr:
		return ir.AndAll(t.canCall(e.Seq, et), t.canCall(e.Index, et), t.canCall(e.Value, et))

	case *ast.FunctionCallExpr:
		r := ir.True
		if e.Receiver != nil {
			r = t.canCall(e.Receiver, et)
		}
		r = ir.Conj(r, t.allCanCall(e.Args, et))
		return ir.Conj(r, ir.Fn(t.function(e.Function).canCallName(), et.callArgs(e)...))

	case *ast.DatatypeValue:
		return t.allCanCall(e.Args, et)

	case *ast.DisplayExpr:
		return t.allCanCall(e.Elements, et)

	case *ast.MapDisplayExpr:
		return ir.Conj(t.allCanCall(e.Keys, et), t.allCanCall(e.Values, et))

	case *ast.OldExpr:
		return t.canCall(e.E, et.Old())

	case *ast.FreshExpr:
		return t.canCall(e.E, et)

	case *ast.UnaryExpr:
		return t.canCall(e.E, et)

	case *ast.BinaryExpr:
		l := t.canCall(e.Left, et)
		r := t.canCall(e.Right, et)
		switch e.Op {
		case ast.OpAnd, ast.OpImp:
			return ir.Conj(l, ir.Implies(et.Tr(e.Left), r))
		case ast.OpOr:
			return ir.Conj(l, ir.Implies(ir.Negate(et.Tr(e.Left)), r))
		}
		return ir.Conj(l, r)

	case *ast.ITEExpr:
		test := et.Tr(e.Test)
		return ir.AndAll(t.canCall(e.Test, et),
			ir.Implies(test, t.canCall(e.Thn, et)),
			ir.Implies(ir.Negate(test), t.canCall(e.Els, et)))

	case *ast.LetExpr:
		r := ir.True
		m := make(map[ast.Variable]ir.Expr, len(e.Vars))
		for i, v := range e.Vars {
			r = ir.Conj(r, t.canCall(e.RHSs[i], et))
			m[v] = et.Tr(e.RHSs[i])
		}
		return ir.Conj(r, t.canCall(e.Body, et.WithSubst(m)))

	case *ast.QuantifierExpr:
		return t.binderTotal(e.BoundVars, e.Range, e.Term, et, t.canCall)

	case *ast.MatchExpr:
		src := et.Tr(e.Source)
		r := t.canCall(e.Source, et)
		for _, mc := range e.Cases {
			body := t.canCall(mc.Body, et.WithSubst(destructorSubst(t, mc.Ctor, mc.Args, src)))
			r = ir.Conj(r, ir.Implies(ctorTest(src, mc.Ctor), body))
		}
		return r

	case *ast.ParensExpr:
		return t.canCall(e.E, et)
	}
	panic(errs.UnsupportedNode("can-call assumption", e))
}

func (t *Translator) allCanCall(es []ast.Expr, et *ExprTranslator) ir.Expr {
	r := ir.True
	for _, e := range es {
		r = ir.Conj(r, t.canCall(e, et))
	}
	return r
}
