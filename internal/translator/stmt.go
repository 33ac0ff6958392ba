package translator

import (
	"fmt"

	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/callgraph"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

// procBuilder accumulates the locals of one implementation and translates
// its statements.
type procBuilder struct {
	t        *Translator
	et       *ExprTranslator
	ctx      *wfContext
	locals   []*ir.Var
	declared map[string]bool
	loops    int

	// frame is $_Frame of a method body, checked on every heap update.
	frame ir.Expr
	// method is the method whose body is translated, nil for functions.
	method *ast.Method
	// measure is the method's termination measure in the pre-state.
	measure      []ir.Expr
	measureTypes []ast.Type
}

func (t *Translator) newProcBuilder(c callgraph.Callable) *procBuilder {
	return &procBuilder{
		t:        t,
		et:       t.Expr(ir.Id(heapVar), c),
		ctx:      &wfContext{},
		declared: make(map[string]bool),
	}
}

// local declares a local once.
func (pb *procBuilder) local(name string, typ ir.Type, where ir.Expr) {
	if pb.declared[name] {
		return
	}
	pb.declared[name] = true
	pb.locals = append(pb.locals, &ir.Var{Name: name, Type: typ, Where: where})
}

// temp declares a fresh local and returns its name.
func (pb *procBuilder) temp(prefix string, typ ir.Type) string {
	name := pb.t.fresh(prefix)
	pb.local(name, typ, nil)
	return name
}

func (pb *procBuilder) wf(e ast.Expr, out *ir.Block) {
	pb.checkWellformed(e, pb.et, pb.ctx, out)
}

// ====== Statements ======

func (pb *procBuilder) stmts(ss []ast.Stmt, out *ir.Block) {
	for _, s := range ss {
		pb.stmt(s, out)
	}
}

func (pb *procBuilder) stmt(s ast.Stmt, out *ir.Block) {
	et := pb.et
	switch s := s.(type) {
	case *ast.AssertStmt:
		pb.wf(s.E, out)
		defs, pieces := pb.t.specPieces(s.E, et)
		for _, d := range defs {
			out.Add(ir.Assume(d))
		}
		for _, p := range pieces {
			out.Add(ir.Assert(p, msgAssert))
		}
		if len(pieces) > 1 {
			out.Add(ir.Assume(et.Tr(s.E)))
		}

	case *ast.AssumeStmt:
		pb.wf(s.E, out)
		out.Add(ir.Assume(ir.Conj(pb.t.canCall(s.E, et), et.Tr(s.E))))

	case *ast.PrintStmt:
		for _, a := range s.Args {
			pb.wf(a, out)
		}

	case *ast.VarDeclStmt:
		for _, v := range s.Vars {
			pb.local(v.UniqueName(), pb.t.trType(v.Type), et.WhereClause(ir.Id(v.UniqueName()), v.Type))
		}
		if len(s.Rhss) > 0 && len(s.Rhss) != len(s.Vars) {
			panic(errs.MalformedTree("variable declaration with mismatched right-hand sides"))
		}
		for i, rhs := range s.Rhss {
			pb.assignLocal(s.Vars[i].UniqueName(), rhs, out)
		}

	case *ast.AssignStmt:
		pb.assign(s, out)

	case *ast.CallStmt:
		pb.call(s, out)

	case *ast.BlockStmt:
		pb.stmts(s.Body, out)

	case *ast.IfStmt:
		out.Add(pb.ifStmt(s, out)...)

	case *ast.WhileStmt:
		pb.while(s, out)

	case *ast.ForeachStmt:
		pb.foreach(s, out)

	case *ast.MatchStmt:
		pb.matchStmt(s, out)

	case *ast.ReturnStmt:
		out.Add(&ir.ReturnCmd{})

	case *ast.BreakStmt:
		out.Add(&ir.BreakCmd{Label: s.Label})

	default:
		panic(errs.UnsupportedNode("statement", s))
	}
}

// ====== Assignment ======

// assignLocal assigns rhs to a local. Havoc relies on the local's where
// clause.
func (pb *procBuilder) assignLocal(name string, rhs ast.Rhs, out *ir.Block) {
	switch rhs := rhs.(type) {
	case *ast.ExprRhs:
		pb.wf(rhs.E, out)
		out.Add(ir.Assign(name, pb.et.Tr(rhs.E)))
	case *ast.HavocRhs:
		out.Add(ir.Havoc(name))
	case *ast.TypeRhs:
		out.Add(ir.Assign(name, pb.allocate(rhs, out)))
	default:
		panic(errs.UnsupportedNode("right-hand side", rhs))
	}
}

// rhsValue evaluates a right-hand side of type typ into an expression,
// going through a temporary for havoc and allocation.
func (pb *procBuilder) rhsValue(rhs ast.Rhs, typ ast.Type, out *ir.Block) ir.Expr {
	switch rhs := rhs.(type) {
	case *ast.ExprRhs:
		pb.wf(rhs.E, out)
		return pb.et.Tr(rhs.E)
	case *ast.HavocRhs:
		tmp := pb.temp("$rhs", pb.t.trType(typ))
		out.Add(ir.Havoc(tmp))
		if w := pb.et.WhereClause(ir.Id(tmp), typ); w != nil {
			out.Add(ir.Assume(w))
		}
		return ir.Id(tmp)
	case *ast.TypeRhs:
		return pb.allocate(rhs, out)
	}
	panic(errs.UnsupportedNode("right-hand side", rhs))
}

func rhsType(rhs ast.Rhs, lhs ast.Type, p *ast.Program) ast.Type {
	switch rhs := rhs.(type) {
	case *ast.ExprRhs:
		return rhs.E.Type()
	case *ast.TypeRhs:
		return rhs.AllocatedType(p)
	}
	return lhs
}

func (pb *procBuilder) assign(s *ast.AssignStmt, out *ir.Block) {
	et := pb.et
	switch lhs := ast.StripParens(s.Lhs).(type) {
	case *ast.IdentifierExpr:
		pb.assignLocal(lhs.Var.UniqueName(), s.Rhs, out)

	case *ast.FieldSelectExpr:
		if !lhs.Field.Mutable {
			panic(errs.MalformedTree("assignment to immutable field " + lhs.Field.String()))
		}
		pb.wf(lhs.Obj, out)
		o := et.Tr(lhs.Obj)
		f := ir.Id(pb.t.field(lhs.Field).name)
		v := pb.rhsValue(s.Rhs, lhs.Type(), out)
		v = boxIfGeneric(lhs.Field.Type, rhsType(s.Rhs, lhs.Type(), pb.t.prog), v)
		nonNull(lhs.Obj, o, out)
		pb.heapUpdate(o, f, v, out)

	case *ast.SeqSelectExpr:
		if !lhs.SelectOne || !ast.IsArrayType(lhs.Seq.Type()) {
			panic(errs.MalformedTree("assignment to " + lhs.String()))
		}
		pb.wf(lhs.Seq, out)
		pb.wf(lhs.E0, out)
		a, i := et.Tr(lhs.Seq), et.Tr(lhs.E0)
		v := pb.rhsValue(s.Rhs, lhs.Type(), out)
		nonNull(lhs.Seq, a, out)
		out.Add(ir.Assert(inRange(i, et.arrayLength(lhs.Seq.Type(), a, 0)), msgIndex))
		pb.heapUpdate(a, ir.Fn("IndexField", i), boxFrom(lhs.Type(), v), out)

	case *ast.MultiSelectExpr:
		pb.wf(lhs.Array, out)
		for _, i := range lhs.Indices {
			pb.wf(i, out)
		}
		a := et.Tr(lhs.Array)
		v := pb.rhsValue(s.Rhs, lhs.Type(), out)
		nonNull(lhs.Array, a, out)
		for d, i := range lhs.Indices {
			out.Add(ir.Assert(inRange(et.Tr(i), et.arrayLength(lhs.Array.Type(), a, d)), msgIndex))
		}
		pb.heapUpdate(a, et.multiIndexField(lhs.Indices), boxFrom(lhs.Type(), v), out)

	default:
		panic(errs.UnsupportedNode("assignment target", lhs))
	}
}

// heapUpdate checks the frame and stores v at (o, f).
func (pb *procBuilder) heapUpdate(o, f, v ir.Expr, out *ir.Block) {
	if pb.frame != nil {
		out.Add(ir.Assert(ir.Sel(pb.frame, o, f), msgAssign))
	}
	out.Add(ir.Assign(heapVar, ir.Upd(ir.Id(heapVar), v, o, f)))
	out.Add(ir.Assume(ir.Fn("$IsGoodHeap", ir.Id(heapVar))))
}

// allocate emits the allocation of a new object or array and returns the
// reference.
func (pb *procBuilder) allocate(rhs *ast.TypeRhs, out *ir.Block) ir.Expr {
	typ := rhs.AllocatedType(pb.t.prog)
	ct, ok := typ.(*ast.ClassType)
	if !ok {
		panic(errs.MalformedTree("allocation of non-class type " + typ.String()))
	}
	var dims []ir.Expr
	for _, d := range rhs.ArrayDims {
		pb.wf(d, out)
		n := pb.et.Tr(d)
		out.Add(ir.Assert(ir.Bin(ir.Le, ir.Int64(0), n), "array size might be negative"))
		dims = append(dims, n)
	}

	nw := pb.temp("$nw", ir.Ref)
	x := ir.Id(nw)
	heap := ir.Id(heapVar)
	out.Add(ir.Havoc(nw))
	out.Add(ir.Assume(ir.AndAll(
		ir.Bin(ir.Neq, x, ir.Null),
		ir.Negate(allocated(heap, x)),
		ir.Equal(ir.Fn("dtype", x), ir.Id(className(ct.Class))),
	)))
	for d, n := range dims {
		out.Add(ir.Assume(ir.Equal(pb.et.arrayLength(typ, x, d), n)))
	}
	out.Add(ir.Assign(heapVar, ir.Upd(heap, ir.True, x, ir.Id(allocName))))
	out.Add(ir.Assume(ir.Fn("$IsGoodHeap", heap)))
	return x
}

// ====== Conditionals ======

// ifStmt returns the commands of s; the guard's checks go to out first.
func (pb *procBuilder) ifStmt(s *ast.IfStmt, out *ir.Block) []ir.Cmd {
	var guard ir.Expr
	if s.Guard != nil {
		pb.wf(s.Guard, out)
		guard = pb.et.Tr(s.Guard)
	}
	thn := &ir.Block{}
	pb.stmts(s.Thn.Body, thn)
	cmd := &ir.IfCmd{Guard: guard, Thn: thn}

	switch els := s.Els.(type) {
	case nil:
	case *ast.BlockStmt:
		b := &ir.Block{}
		pb.stmts(els.Body, b)
		cmd.Els = b
	case *ast.IfStmt:
		b := &ir.Block{}
		nested := pb.ifStmt(els, b)
		if len(b.Cmds) == 0 && len(nested) == 1 {
			cmd.Els = nested[0]
		} else {
			b.Add(nested...)
			cmd.Els = b
		}
	default:
		panic(errs.UnsupportedNode("else branch", els))
	}
	return []ir.Cmd{cmd}
}

// ====== Loops ======

func (pb *procBuilder) while(s *ast.WhileStmt, out *ir.Block) {
	pb.loops++
	k := pb.loops
	et := pb.et
	heap := ir.Id(heapVar)

	preHeap := fmt.Sprintf("$PreLoopHeap#%d", k)
	w := fmt.Sprintf("$w#%d", k)
	pb.local(preHeap, ir.Heap, nil)
	pb.local(w, ir.Bool, nil)
	out.Add(ir.Assign(preHeap, heap))

	measure, guessed := pb.loopMeasure(s)
	if measure == nil && !s.DecreasesWildcard {
		out.Add(ir.Assert(ir.False, msgMeasure))
	}
	types := exprTypes(measure)
	var initial []ir.Expr
	for i, d := range measure {
		name := fmt.Sprintf("$decr_init#%d_%d", k, i)
		pb.local(name, pb.t.trType(d.Type()), nil)
		if !guessed {
			pb.wf(d, out)
		}
		out.Add(ir.Assign(name, et.Tr(d)))
		initial = append(initial, ir.Id(name))
	}
	out.Add(ir.Havoc(w))

	loop := &ir.WhileCmd{Label: s.Label, Guard: ir.True, Body: &ir.Block{}}
	inv := func(e ir.Expr, free bool) {
		loop.Invariants = append(loop.Invariants, &ir.Invariant{E: e, Free: free})
	}
	inv(ir.Fn("$HeapSucc", ir.Id(preHeap), heap), true)
	if pb.frame != nil {
		inv(pb.unchangedOutsideFrame(ir.Id(preHeap)), true)
	}
	for _, mf := range s.Invariants {
		defs, pieces := pb.t.specPieces(mf.E, et)
		for _, d := range defs {
			inv(ir.Implies(ir.Id(w), d), true)
		}
		for _, p := range pieces {
			inv(ir.Implies(ir.Id(w), p), mf.IsFree)
		}
	}
	if len(measure) > 0 {
		inv(decreasesCheck(types, types, et.TrAll(measure), initial, nil, false, true), true)
	}

	body := loop.Body
	check := &ir.Block{}
	for _, mf := range s.Invariants {
		pb.wf(mf.E, check)
		check.Add(ir.Assume(et.Tr(mf.E)))
	}
	if !guessed {
		for _, d := range measure {
			pb.wf(d, check)
		}
	}
	check.Add(ir.Assume(ir.False))
	body.Add(&ir.IfCmd{Guard: ir.Negate(ir.Id(w)), Thn: check})

	brk := &ir.Block{Cmds: []ir.Cmd{&ir.BreakCmd{}}}
	if s.Guard == nil {
		body.Add(&ir.IfCmd{Thn: brk})
	} else {
		pb.wf(s.Guard, body)
		body.Add(&ir.IfCmd{Guard: ir.Negate(et.Tr(s.Guard)), Thn: brk})
	}

	var saved []ir.Expr
	for i, d := range measure {
		name := fmt.Sprintf("$decr#%d_%d", k, i)
		pb.local(name, pb.t.trType(d.Type()), nil)
		body.Add(ir.Assign(name, et.Tr(d)))
		saved = append(saved, ir.Id(name))
	}
	pb.stmts(s.Body.Body, body)
	if len(measure) > 0 {
		body.Add(ir.Assert(decreasesCheck(types, types, et.TrAll(measure), saved, nil, true, false), msgDecrease))
	}
	out.Add(loop)
}

// loopMeasure is the declared measure of s or one guessed from its guard.
func (pb *procBuilder) loopMeasure(s *ast.WhileStmt) (measure []ast.Expr, guessed bool) {
	if s.DecreasesWildcard {
		return nil, false
	}
	if len(s.Decreases) > 0 {
		return s.Decreases, false
	}
	if s.Guard == nil {
		return nil, false
	}
	if g := guessMeasure(pb.t.b, s.Guard); g != nil {
		return []ast.Expr{g}, true
	}
	return nil, false
}

// unchangedOutsideFrame states that nothing outside $_Frame changed since
// heap h0, among objects allocated in h0.
func (pb *procBuilder) unchangedOutsideFrame(h0 ir.Expr) ir.Expr {
	o, f := pb.t.fresh("$o"), pb.t.fresh("$f")
	cur := ir.Sel(ir.Id(heapVar), ir.Id(o), ir.Id(f))
	live := ir.Conj(ir.Bin(ir.Neq, ir.Id(o), ir.Null), allocated(h0, ir.Id(o)))
	keep := ir.Disj(ir.Equal(cur, ir.Sel(h0, ir.Id(o), ir.Id(f))), ir.Sel(pb.frame, ir.Id(o), ir.Id(f)))
	return frameQuantifier(true, o, f, [][]ir.Expr{{cur}}, ir.Implies(live, keep))
}

// ====== Foreach ======

func (pb *procBuilder) foreach(s *ast.ForeachStmt, out *ir.Block) {
	et := pb.et
	x := s.BoundVar
	obj, ok := ast.StripParens(s.Lhs.Obj).(*ast.IdentifierExpr)
	if !ok || obj.Var != ast.Variable(x) {
		panic(errs.MalformedTree("foreach must update a field of its bound variable"))
	}
	fld := s.Lhs.Field
	f := ir.Id(pb.t.field(fld).name)
	pb.wf(s.Collection, out)

	xv := ir.V(x.UniqueName(), ir.Ref)
	xid := ir.Id(xv.Name)
	coll := et.Tr(s.Collection)
	selected := func(e *ExprTranslator, o ir.Expr) ir.Expr {
		conds := []ir.Expr{membership(s.Collection.Type(), o, e.Tr(s.Collection))}
		e = e.WithSubst(map[ast.Variable]ir.Expr{x: o})
		if s.Range != nil {
			conds = append(conds, e.Tr(s.Range))
		}
		conds = append(conds, e.TrAll(s.Assumes)...)
		return ir.AndAll(conds...)
	}
	inColl := membership(s.Collection.Type(), xid, coll)

	// Definedness of the range, the assumptions and the right-hand side.
	defined := ir.True
	if s.Range != nil {
		defined = pb.t.isTotal(s.Range, et)
	}
	rest := ir.Conj(pb.t.allTotal(s.Assumes, et), pb.t.isTotal(s.Rhs, et))
	defined = ir.Conj(defined, ir.Implies(selected(et, xid), rest))
	if check := ir.Forall([]*ir.Var{xv}, nil, ir.Implies(inColl, defined)); !ir.IsTrue(check) {
		out.Add(ir.Assert(check, msgForeach))
	}

	if pb.frame != nil {
		out.Add(ir.Assert(ir.Forall([]*ir.Var{xv}, nil, ir.Implies(selected(et, xid), ir.Sel(pb.frame, xid, f))), msgAssign))
	}

	pb.loops++
	preName := fmt.Sprintf("$PreForallHeap#%d", pb.loops)
	pb.local(preName, ir.Heap, nil)
	pre := ir.Id(preName)
	heap := ir.Id(heapVar)
	out.Add(ir.Assign(preName, heap))
	out.Add(ir.Havoc(heapVar))
	out.Add(ir.Assume(ir.Conj(ir.Fn("$IsGoodHeap", heap), ir.Fn("$HeapSucc", pre, heap))))

	preEt := et.WithHeap(pre)
	o, fv := pb.t.fresh("$o"), pb.t.fresh("$f")
	cur := ir.Sel(heap, ir.Id(o), ir.Id(fv))
	sameFamily := ir.Equal(ir.Fn("DeclName", ir.Id(fv)), ir.Fn("DeclName", f))
	out.Add(ir.Assume(frameQuantifier(true, o, fv, [][]ir.Expr{{cur}},
		ir.Disj(ir.Equal(cur, ir.Sel(pre, ir.Id(o), ir.Id(fv))), ir.Conj(sameFamily, selected(preEt, ir.Id(o)))))))

	val := boxIfGeneric(fld.Type, s.Rhs.Type(), preEt.Tr(s.Rhs))
	upd := ir.Sel(heap, xid, f)
	out.Add(ir.Assume(ir.Forall([]*ir.Var{xv}, [][]ir.Expr{{upd}}, ir.Implies(selected(preEt, xid), ir.Equal(upd, val)))))
}

// ====== Calls ======

func (pb *procBuilder) call(s *ast.CallStmt, out *ir.Block) {
	et := pb.et
	m := s.Method
	if len(s.Args) != len(m.Ins) || len(s.Lhs) != len(m.Outs) {
		panic(errs.MalformedTree("call of " + m.FullName() + " with the wrong number of arguments"))
	}
	var ins []ir.Expr
	var recv ir.Expr
	if !m.IsStatic {
		if s.Receiver != nil {
			pb.wf(s.Receiver, out)
		}
		tmp := pb.temp("$rcv", ir.Ref)
		out.Add(ir.Assign(tmp, et.receiver(s.Receiver)))
		recv = ir.Id(tmp)
		ins = append(ins, recv)
		if s.Receiver != nil {
			nonNull(s.Receiver, recv, out)
		}
	}

	subst := make(map[ast.Variable]ir.Expr, len(m.Ins))
	for i, a := range s.Args {
		pb.wf(a, out)
		formal := m.Ins[i]
		tmp := pb.temp("$arg", pb.t.trType(formal.Type))
		out.Add(ir.Assign(tmp, boxIfGeneric(formal.Type, a.Type(), et.Tr(a))))
		ins = append(ins, ir.Id(tmp))
		subst[formal] = ir.Id(tmp)
	}
	callee := et.WithSubst(subst)
	if recv != nil {
		callee = callee.WithReceiver(recv)
	}

	if pb.frame != nil && len(m.Modifies) > 0 {
		o, f := pb.t.fresh("$o"), pb.t.fresh("$f")
		live := ir.Conj(ir.Bin(ir.Neq, ir.Id(o), ir.Null), allocated(ir.Id(heapVar), ir.Id(o)))
		body := ir.Implies(ir.Conj(live, callee.inFrame(m.Modifies, ir.Id(o), ir.Id(f))), ir.Sel(pb.frame, ir.Id(o), ir.Id(f)))
		out.Add(ir.Assert(frameQuantifier(true, o, f, nil, body), msgModifies))
	}

	if pb.method != nil && pb.t.graph != nil && pb.t.graph.SameSCC(pb.method, m) && !m.DecreasesWildcard {
		dec := pb.t.measureOf(m)
		check := decreasesCheck(exprTypes(dec), pb.measureTypes, callee.TrAll(dec), pb.measure, nil, true, false)
		out.Add(ir.Assert(check, msgDecrease))
	}

	var outs []string
	var after []ir.Cmd
	for i, lhs := range s.Lhs {
		formal := m.Outs[i]
		name := lhs.Var.UniqueName()
		if ast.IsTypeParam(formal.Type) && !ast.IsTypeParam(lhs.Type()) {
			tmp := pb.temp("$out", ir.BoxType)
			outs = append(outs, tmp)
			// Unboxing alone does not establish the target's where clause.
			after = append(after, ir.Havoc(name), ir.Assume(ir.Equal(ir.Id(name), ir.Unbox(ir.Id(tmp), pb.t.trType(lhs.Type())))))
			continue
		}
		outs = append(outs, name)
	}
	out.Add(&ir.CallCmd{Proc: m.FullName(), Ins: ins, Outs: outs})
	out.Add(after...)
}

// ====== Match ======

func (pb *procBuilder) matchStmt(s *ast.MatchStmt, out *ir.Block) {
	if len(s.Cases) == 0 {
		panic(errs.MalformedTree("match without cases"))
	}
	pb.wf(s.Source, out)
	src := pb.et.Tr(s.Source)

	var chain ir.Cmd
	for i := len(s.Cases) - 1; i >= 0; i-- {
		mc := s.Cases[i]
		if len(mc.Args) != len(mc.Ctor.Formals) {
			panic(errs.MalformedTree("case " + mc.Ctor.String() + " binds the wrong number of variables"))
		}
		b := &ir.Block{}
		var names []string
		args := make([]ir.Expr, len(mc.Args))
		for j, bv := range mc.Args {
			name := bv.UniqueName()
			pb.local(name, pb.t.trType(bv.Type), pb.et.WhereClause(ir.Id(name), bv.Type))
			names = append(names, name)
			args[j] = boxIfGeneric(mc.Ctor.Formals[j].Type, bv.Type, ir.Id(name))
		}
		if len(names) > 0 {
			b.Add(ir.Havoc(names...))
			for j, bv := range mc.Args {
				if w := pb.et.WhereClause(ir.Id(names[j]), bv.Type); w != nil {
					b.Add(ir.Assume(w))
				}
			}
		}
		b.Add(ir.Assume(ir.Equal(src, ir.Fn(ctorName(mc.Ctor), args...))))
		pb.stmts(mc.Body, b)
		if chain == nil {
			chain = b
			continue
		}
		chain = &ir.IfCmd{Guard: ctorTest(src, mc.Ctor), Thn: b, Els: chain}
	}
	out.Add(chain)
}
