package translator

import (
	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

// ====== Methods ======

func (t *Translator) emitMethod(m *ast.Method) {
	t.owns(m)
	ac := t.contextOf(m)
	t.emitMethodWellformedness(m, ac)

	pb := t.newProcBuilder(m)
	et := pb.et
	ins := t.procIns(m.Class, m.IsStatic, m.Ins, et)
	outs := t.procOuts(m.Outs, et)

	proc := &ir.ProcDecl{
		Name:     m.FullName(),
		Ins:      ins,
		Outs:     outs,
		Requires: []*ir.Spec{{E: ac.methodContext(), Free: true}},
		Modifies: []string{heapVar},
	}
	for _, req := range m.Requires {
		proc.Requires = append(proc.Requires, t.specClauses(req, et)...)
	}
	for _, ens := range m.Ensures {
		proc.Ensures = append(proc.Ensures, t.specClauses(ens, et)...)
	}
	proc.Ensures = append(proc.Ensures,
		&ir.Spec{E: t.modifiesFrame(m, et), Free: true, Comment: "frame condition"},
		&ir.Spec{E: ir.Fn("$HeapSucc", et.oldHeap(), ir.Id(heapVar)), Free: true},
	)
	t.emit(proc)

	if m.Body == nil {
		return
	}
	pb.method = m
	measure := t.measureOf(m)
	pb.measure = et.Old().TrAll(measure)
	pb.measureTypes = exprTypes(measure)

	body := &ir.Block{}
	pb.frame = ir.Id(frameVar)
	pb.local(frameVar, frameType, nil)
	body.Add(ir.Havoc(frameVar))
	o, f := t.fresh("$o"), t.fresh("$f")
	live := ir.Conj(ir.Bin(ir.Neq, ir.Id(o), ir.Null), allocated(ir.Id(heapVar), ir.Id(o)))
	body.Add(ir.Assume(frameQuantifier(true, o, f, nil,
		ir.Equiv(ir.Sel(pb.frame, ir.Id(o), ir.Id(f)), ir.Implies(live, et.inFrame(m.Modifies, ir.Id(o), ir.Id(f)))))))

	pb.stmts(m.Body.Body, body)
	t.emit(&ir.ImplDecl{Name: m.FullName(), Ins: stripWhere(ins), Outs: stripWhere(outs), Locals: pb.locals, Body: body})
}

// specClauses turns one requires or ensures clause into procedure specs:
// the #canCall facts and split definitions are free, the pieces are
// checked.
func (t *Translator) specClauses(mf *ast.MaybeFree, et *ExprTranslator) []*ir.Spec {
	var specs []*ir.Spec
	if cc := t.canCall(mf.E, et); !ir.IsTrue(cc) {
		specs = append(specs, &ir.Spec{E: cc, Free: true})
	}
	if mf.IsFree {
		return append(specs, &ir.Spec{E: et.Tr(mf.E), Free: true})
	}
	defs, pieces := t.specPieces(mf.E, et)
	for _, d := range defs {
		specs = append(specs, &ir.Spec{E: d, Free: true})
	}
	for _, p := range pieces {
		specs = append(specs, &ir.Spec{E: p})
	}
	return specs
}

// modifiesFrame says that only objects in the modifies clause, or objects
// allocated during the call, changed.
func (t *Translator) modifiesFrame(m *ast.Method, et *ExprTranslator) ir.Expr {
	o, f := t.fresh("$o"), t.fresh("$f")
	heap, old := ir.Id(heapVar), et.oldHeap()
	cur := ir.Sel(heap, ir.Id(o), ir.Id(f))
	ante := ir.Conj(ir.Bin(ir.Neq, ir.Id(o), ir.Null), allocated(old, ir.Id(o)))
	keep := ir.Disj(ir.Equal(cur, ir.Sel(old, ir.Id(o), ir.Id(f))), et.Old().inFrame(m.Modifies, ir.Id(o), ir.Id(f)))
	return frameQuantifier(true, o, f, [][]ir.Expr{{cur}}, ir.Implies(ante, keep))
}

func (t *Translator) procOuts(formals []*ast.Formal, et *ExprTranslator) []*ir.Var {
	outs := make([]*ir.Var, len(formals))
	for i, f := range formals {
		v := ir.V(f.UniqueName(), t.trType(f.Type))
		v.Where = et.WhereClause(ir.Id(v.Name), f.Type)
		outs[i] = v
	}
	return outs
}

// emitMethodWellformedness checks that the specification of m is defined.
func (t *Translator) emitMethodWellformedness(m *ast.Method, ac axiomContext) {
	name := checkWellformedName(m.FullName())
	pb := t.newProcBuilder(m)
	et := pb.et
	ins := t.procIns(m.Class, m.IsStatic, m.Ins, et)
	outs := t.procOuts(m.Outs, et)

	t.emit(&ir.ProcDecl{
		Name:     name,
		Ins:      ins,
		Outs:     outs,
		Requires: []*ir.Spec{{E: ac.methodContext(), Free: true}},
		Modifies: []string{heapVar},
	})

	body := &ir.Block{}
	for _, req := range m.Requires {
		pb.wf(req.E, body)
		body.Add(ir.Assume(et.Tr(req.E)))
	}
	for _, fe := range m.Modifies {
		pb.wf(fe.E, body)
	}
	for _, d := range m.Decreases {
		pb.wf(d, body)
	}

	pre := t.fresh("$PreCallHeap")
	pb.local(pre, ir.Heap, nil)
	body.Add(ir.Assign(pre, ir.Id(heapVar)))
	body.Add(ir.Havoc(heapVar))
	body.Add(ir.Assume(ir.Conj(ir.Fn("$IsGoodHeap", ir.Id(heapVar)), ir.Fn("$HeapSucc", ir.Id(pre), ir.Id(heapVar)))))
	post := et.WithOld(ir.Id(pre))
	body.Add(ir.Assume(t.modifiesFrame(m, post)))

	if len(outs) > 0 {
		names := make([]string, len(outs))
		for i, v := range outs {
			names[i] = v.Name
		}
		body.Add(ir.Havoc(names...))
		for _, v := range outs {
			if v.Where != nil {
				body.Add(ir.Assume(v.Where))
			}
		}
	}
	for _, ens := range m.Ensures {
		pb.checkWellformed(ens.E, post, pb.ctx, body)
		body.Add(ir.Assume(post.Tr(ens.E)))
	}

	t.emit(&ir.ImplDecl{Name: name, Ins: stripWhere(ins), Outs: stripWhere(outs), Locals: pb.locals, Body: body})
}
