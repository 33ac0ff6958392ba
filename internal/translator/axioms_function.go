package translator

import (
	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/callgraph"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

// axiomContext holds the module and function heights an axiom is
// stratified by.
type axiomContext struct {
	module   int
	function int
}

func (t *Translator) contextOf(c callgraph.Callable) axiomContext {
	ac := axiomContext{}
	if m := c.EnclosingClass().Module; m != nil {
		ac.module = m.Height
	}
	if t.graph != nil {
		ac.function = t.graph.Height(c)
	}
	return ac
}

// activation guards a definitional axiom: it is available to every
// declaration above the function and to methods of the same module.
func (ac axiomContext) activation() ir.Expr {
	mh, fh := ir.Int64(int64(ac.module)), ir.Int64(int64(ac.function))
	return ir.Disj(
		ir.Bin(ir.Lt, mh, ir.Id(moduleHeight)),
		ir.Conj(ir.Equal(mh, ir.Id(moduleHeight)),
			ir.Disj(ir.Bin(ir.Le, fh, ir.Id(functionHeight)), ir.Id(inMethod))))
}

// useViaContext lets callers strictly above the function use its
// definition without a #canCall fact.
func (ac axiomContext) useViaContext() ir.Expr {
	mh, fh := ir.Int64(int64(ac.module)), ir.Int64(int64(ac.function))
	return ir.Disj(
		ir.Bin(ir.Lt, mh, ir.Id(moduleHeight)),
		ir.Conj(ir.Equal(mh, ir.Id(moduleHeight)), ir.Bin(ir.Lt, fh, ir.Id(functionHeight))))
}

// functionContext is the free precondition of a function's
// well-formedness procedure.
func (ac axiomContext) functionContext() ir.Expr {
	return ir.AndAll(
		ir.Equal(ir.Id(moduleHeight), ir.Int64(int64(ac.module))),
		ir.Equal(ir.Id(functionHeight), ir.Int64(int64(ac.function))),
		ir.Negate(ir.Id(inMethod)))
}

// methodContext is the free precondition of a method's procedures.
func (ac axiomContext) methodContext() ir.Expr {
	return ir.Conj(ir.Equal(ir.Id(moduleHeight), ir.Int64(int64(ac.module))), ir.Id(inMethod))
}

// ====== Functions ======

func (t *Translator) emitFunction(f *ast.Function) {
	fd := t.function(f)
	ac := t.contextOf(f)

	t.emit(&ir.FuncDecl{Name: fd.name, Params: fd.params, Result: fd.result})
	if fd.limited {
		t.emit(&ir.FuncDecl{Name: fd.limitedName(), Params: fd.params, Result: fd.result})
	}
	t.emit(&ir.FuncDecl{Name: fd.canCallName(), Params: fd.params, Result: ir.Bool})
	if fd.limited {
		t.emit(t.limitedAxiom(fd))
	}

	t.emit(t.functionAxioms(f, fd, ac)...)
	t.emit(t.frameAxiom(f, fd))
	t.emitFunctionWellformedness(f, fd, ac)
}

// limitedAxiom equates the full and the limited view.
func (t *Translator) limitedAxiom(fd *funcDesc) ir.Decl {
	args := ir.Ids(fd.params)
	full := ir.Fn(fd.name, args...)
	return &ir.AxiomDecl{
		Comment: "limited view of " + fd.name,
		E:       ir.Forall(fd.params, [][]ir.Expr{{full}}, ir.Equal(full, ir.Fn(fd.limitedName(), args...))),
	}
}

// precondition is the typing and requires antecedent shared by the
// definitional and postcondition axioms.
func (t *Translator) precondition(f *ast.Function, et *ExprTranslator) ir.Expr {
	conds := []ir.Expr{ir.Fn("$IsGoodHeap", et.heap)}
	if !f.IsStatic {
		conds = append(conds, t.receiverTyping(f.Class, et))
	}
	for _, formal := range f.Formals {
		conds = append(conds, et.WhereClause(et.varRef(formal), formal.Type))
	}
	conds = append(conds, et.TrAll(f.Requires)...)
	return ir.AndAll(conds...)
}

func (t *Translator) receiverTyping(c *ast.ClassDecl, et *ExprTranslator) ir.Expr {
	this := ir.Id(thisName)
	return ir.AndAll(
		ir.Bin(ir.Neq, this, ir.Null),
		allocated(et.heap, this),
		ir.Equal(ir.Fn("dtype", this), ir.Id(className(c))),
	)
}

// functionAxioms returns the definitional and postcondition axioms.
func (t *Translator) functionAxioms(f *ast.Function, fd *funcDesc, ac axiomContext) []ir.Decl {
	et := t.Expr(ir.Id(heapParam), f)
	ens := et.WithCaller(nil)
	args := ir.Ids(fd.params)
	app := ir.Fn(fd.name, args...)
	canCall := ir.Fn(fd.canCallName(), args...)
	ante := ir.Disj(canCall, ir.Conj(ac.useViaContext(), t.precondition(f, et)))

	post := ir.AndAll(append(ens.TrAll(f.Ensures), ens.WhereClause(app, f.ResultType))...)
	postAxiom := func() ir.Decl {
		return &ir.AxiomDecl{
			Comment: "consequences of " + fd.name,
			E:       ir.Implies(ac.activation(), ir.Forall(fd.params, [][]ir.Expr{{app}}, ir.Implies(ante, post))),
		}
	}

	if f.Body == nil {
		if ir.IsTrue(post) {
			return nil
		}
		return []ir.Decl{postAxiom()}
	}

	if m, formal := matchOnFormal(f); m != nil {
		out := t.caseAxioms(f, fd, ac, m, formal)
		if !ir.IsTrue(post) {
			out = append(out, postAxiom())
		}
		return out
	}

	body := et.Tr(f.Body)
	cons := ir.AndAll(t.canCall(f.Body, et), ir.Equal(app, body), post)
	return []ir.Decl{&ir.AxiomDecl{
		Comment: "definition of " + fd.name,
		E:       ir.Implies(ac.activation(), ir.Forall(fd.params, [][]ir.Expr{{app}}, ir.Implies(ante, cons))),
	}}
}

// matchOnFormal recognizes bodies of the form `match x { ... }` with x a
// parameter of f.
func matchOnFormal(f *ast.Function) (*ast.MatchExpr, *ast.Formal) {
	m, ok := ast.StripParens(f.Body).(*ast.MatchExpr)
	if !ok {
		return nil, nil
	}
	id, ok := ast.StripParens(m.Source).(*ast.IdentifierExpr)
	if !ok {
		return nil, nil
	}
	for _, formal := range f.Formals {
		if id.Var == ast.Variable(formal) {
			return m, formal
		}
	}
	return nil, nil
}

// caseAxioms gives one definitional axiom per case, with the matched
// parameter replaced by the constructor application.
func (t *Translator) caseAxioms(f *ast.Function, fd *funcDesc, ac axiomContext, m *ast.MatchExpr, formal *ast.Formal) []ir.Decl {
	var out []ir.Decl
	for _, mc := range m.Cases {
		var vars []*ir.Var
		var args []ir.Expr
		subst := make(map[ast.Variable]ir.Expr)
		for i, bv := range mc.Args {
			cf := mc.Ctor.Formals[i]
			v := ir.V(t.fresh(bv.Name), t.trType(cf.Type))
			vars = append(vars, v)
			args = append(args, ir.Id(v.Name))
			subst[bv] = t.unboxIfGeneric(cf.Type, bv.Type, ir.Id(v.Name))
		}
		value := ir.Fn(ctorName(mc.Ctor), args...)
		subst[formal] = value

		var params []*ir.Var
		callArgs := make([]ir.Expr, 0, len(fd.params))
		for _, p := range fd.params {
			if p.Name == formal.UniqueName() {
				callArgs = append(callArgs, value)
				continue
			}
			params = append(params, p)
			callArgs = append(callArgs, ir.Id(p.Name))
		}
		params = append(params, vars...)

		et := t.Expr(ir.Id(heapParam), f).WithSubst(subst)
		app := ir.Fn(fd.name, callArgs...)
		canCall := ir.Fn(fd.canCallName(), callArgs...)
		ante := ir.Disj(canCall, ir.Conj(ac.useViaContext(), t.precondition(f, et)))
		cons := ir.Conj(t.canCall(mc.Body, et), ir.Equal(app, et.Tr(mc.Body)))
		out = append(out, &ir.AxiomDecl{
			Comment: "definition of " + fd.name + " for " + mc.Ctor.String(),
			E:       ir.Implies(ac.activation(), ir.Forall(params, [][]ir.Expr{{app}}, ir.Implies(ante, cons))),
		})
	}
	return out
}

// frameAxiom states that the function only depends on its reads frame.
func (t *Translator) frameAxiom(f *ast.Function, fd *funcDesc) ir.Decl {
	h0, h1 := ir.V("$h0", ir.Heap), ir.V("$h1", ir.Heap)
	rest := fd.params[1:]
	vars := append([]*ir.Var{h0, h1}, rest...)
	restArgs := ir.Ids(rest)
	f0 := ir.Fn(fd.name, append([]ir.Expr{ir.Id(h0.Name)}, restArgs...)...)
	f1 := ir.Fn(fd.name, append([]ir.Expr{ir.Id(h1.Name)}, restArgs...)...)

	o, fld := t.fresh("$o"), t.fresh("$f")
	et := t.Expr(ir.Id(h0.Name), f)
	inFrame := et.inFrame(f.Reads, ir.Id(o), ir.Id(fld))
	var unchanged ir.Expr = ir.True
	if !ir.IsFalse(inFrame) {
		read0 := ir.Sel(ir.Id(h0.Name), ir.Id(o), ir.Id(fld))
		read1 := ir.Sel(ir.Id(h1.Name), ir.Id(o), ir.Id(fld))
		live := ir.Conj(ir.Bin(ir.Neq, ir.Id(o), ir.Null), allocated(ir.Id(h0.Name), ir.Id(o)))
		unchanged = frameQuantifier(true, o, fld, [][]ir.Expr{{read1}},
			ir.Implies(ir.Conj(live, inFrame), ir.Equal(read0, read1)))
	}

	ante := ir.AndAll(
		ir.Fn("$IsGoodHeap", ir.Id(h0.Name)),
		ir.Fn("$IsGoodHeap", ir.Id(h1.Name)),
		unchanged,
		ir.Fn("$HeapSucc", ir.Id(h0.Name), ir.Id(h1.Name)),
	)
	return &ir.AxiomDecl{
		Comment: "frame axiom for " + fd.name,
		E: ir.Forall(vars, [][]ir.Expr{{ir.Fn("$HeapSucc", ir.Id(h0.Name), ir.Id(h1.Name)), f1}},
			ir.Implies(ante, ir.Equal(f0, f1))),
	}
}

// emitFunctionWellformedness checks that the specification and body of f
// are defined, and that the body establishes the postcondition.
func (t *Translator) emitFunctionWellformedness(f *ast.Function, fd *funcDesc, ac axiomContext) {
	name := checkWellformedName(fd.name)
	pb := t.newProcBuilder(f)
	et := pb.et
	ins := t.procIns(f.Class, f.IsStatic, f.Formals, et)

	t.emit(&ir.ProcDecl{
		Name:     name,
		Ins:      ins,
		Requires: []*ir.Spec{{E: ac.functionContext(), Free: true}},
	})

	body := &ir.Block{}
	frame := ir.Id(frameVar)
	pb.local(frameVar, frameType, nil)
	body.Add(ir.Havoc(frameVar))
	o, fl := t.fresh("$o"), t.fresh("$f")
	body.Add(ir.Assume(frameQuantifier(true, o, fl, nil,
		ir.Equiv(ir.Sel(frame, ir.Id(o), ir.Id(fl)), et.inFrame(f.Reads, ir.Id(o), ir.Id(fl))))))

	measure := t.measureOf(f)
	ctx := &wfContext{frame: frame, measure: et.TrAll(measure), measureTypes: exprTypes(measure)}
	for _, pre := range f.Requires {
		pb.checkWellformed(pre, et, ctx, body)
		body.Add(ir.Assume(et.Tr(pre)))
	}
	for _, fe := range f.Reads {
		pb.checkWellformed(fe.E, et, ctx, body)
	}
	for _, d := range f.Decreases {
		pb.checkWellformed(d, et, ctx, body)
	}

	args := append([]ir.Expr{ir.Id(heapVar)}, ir.Ids(ins)...)
	app := ir.Fn(fd.name, args...)

	post := &ir.Block{}
	post.Add(ir.Assume(ir.Fn(fd.canCallName(), args...)))
	postCtx := *ctx
	postCtx.self = f
	ens := et.WithCaller(f)
	for _, e := range f.Ensures {
		pb.checkWellformed(e, ens, &postCtx, post)
		post.Add(ir.Assume(ens.WithCaller(nil).Tr(e)))
	}
	post.Add(ir.Assume(ir.False))

	if f.Body == nil {
		body.Add(post.Cmds...)
	} else {
		impl := &ir.Block{}
		pb.checkWellformed(f.Body, et, ctx, impl)
		impl.Add(ir.Assume(ir.Equal(app, et.Tr(f.Body))))
		if w := et.WhereClause(app, f.ResultType); w != nil {
			impl.Add(ir.Assume(w))
		}
		for _, e := range f.Ensures {
			impl.Add(ir.Assert(et.WithCaller(nil).Tr(e), msgPostcond))
		}
		body.Add(&ir.IfCmd{Thn: post, Els: impl})
	}

	t.emit(&ir.ImplDecl{Name: name, Ins: stripWhere(ins), Locals: pb.locals, Body: body})
}

// procIns are the receiver and parameters of a procedure, with where
// clauses.
func (t *Translator) procIns(c *ast.ClassDecl, static bool, formals []*ast.Formal, et *ExprTranslator) []*ir.Var {
	var ins []*ir.Var
	if !static {
		this := ir.V(thisName, ir.Ref)
		this.Where = t.receiverTyping(c, et)
		ins = append(ins, this)
	}
	for _, f := range formals {
		v := ir.V(f.UniqueName(), t.trType(f.Type))
		v.Where = et.WhereClause(ir.Id(v.Name), f.Type)
		ins = append(ins, v)
	}
	return ins
}

// stripWhere drops where clauses, which implementations may not repeat.
func stripWhere(vs []*ir.Var) []*ir.Var {
	out := make([]*ir.Var, len(vs))
	for i, v := range vs {
		out[i] = ir.V(v.Name, v.Type)
	}
	return out
}
