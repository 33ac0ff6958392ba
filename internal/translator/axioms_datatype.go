package translator

import (
	"fmt"

	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

func (t *Translator) emitDatatype(d *ast.DatatypeDecl) {
	t.owns(d)
	class := ir.Id(datatypeClassName(d))
	t.emit(&ir.ConstDecl{Name: class.Name, Type: ir.ClassName, Unique: true})

	for _, c := range d.Ctors {
		t.emitCtor(c, class)
	}

	dv := ir.V("d", ir.Datatype)
	dID := ir.Fn("DatatypeCtorId", ir.Id(dv.Name))
	var ids []ir.Expr
	for _, c := range d.Ctors {
		ids = append(ids, ir.Equal(dID, ir.Id(ctorIDName(c))))
	}
	if len(ids) > 0 {
		t.emit(&ir.AxiomDecl{
			Comment: "every " + d.Name + " value comes from one of its constructors",
			E: ir.Forall([]*ir.Var{dv}, [][]ir.Expr{{ir.Fn("DtType", ir.Id(dv.Name))}},
				ir.Implies(ir.Equal(ir.Fn("DtType", ir.Id(dv.Name)), class), ir.OrAll(ids...))),
		})
	}
}

func (t *Translator) emitCtor(c *ast.DatatypeCtor, class ir.Expr) {
	t.owns(c)
	name := ctorName(c)

	params := make([]*ir.Var, len(c.Formals))
	vars := make([]*ir.Var, len(c.Formals))
	args := make([]ir.Expr, len(c.Formals))
	for i, f := range c.Formals {
		typ := t.trType(f.Type)
		params[i] = ir.Anon(typ)
		vars[i] = ir.V(fmt.Sprintf("a#%d", i), typ)
		args[i] = ir.Id(vars[i].Name)
	}
	value := ir.Fn(name, args...)
	onValue := [][]ir.Expr{{value}}
	over := func(body ir.Expr) ir.Expr { return ir.Forall(vars, onValue, body) }

	t.emit(
		&ir.FuncDecl{Name: name, Params: params, Result: ir.Datatype},
		&ir.ConstDecl{Name: ctorIDName(c), Type: ir.DtCtorId, Unique: true},
		&ir.AxiomDecl{Comment: "constructor " + c.String(), E: over(ir.Equal(ir.Fn("DatatypeCtorId", value), ir.Id(ctorIDName(c))))},
		&ir.AxiomDecl{E: over(ir.Equal(ir.Fn("DtType", value), class))},
	)

	// Allocation.
	h := ir.V("$h", ir.Heap)
	et := t.Expr(ir.Id(h.Name), nil)
	var allocs []ir.Expr
	for i, f := range c.Formals {
		allocs = append(allocs, argAlloc(et, args[i], f.Type))
	}
	alloc := ir.Fn("DtAlloc", value, ir.Id(h.Name))
	t.emit(&ir.AxiomDecl{E: ir.Forall(append([]*ir.Var{h}, vars...), [][]ir.Expr{{alloc}},
		ir.Implies(ir.Fn("$IsGoodHeap", ir.Id(h.Name)), ir.Equiv(alloc, ir.AndAll(allocs...))))})

	// Destructors, projections and ranks.
	for i, f := range c.Formals {
		dtor := dtorName(c, i)
		t.emit(
			&ir.FuncDecl{Name: dtor, Params: []*ir.Var{ir.Anon(ir.Datatype)}, Result: params[i].Type},
			&ir.AxiomDecl{E: over(ir.Equal(ir.Fn(dtor, value), args[i]))},
		)
		if rank := t.rankAxiom(f.Type, args[i], value, vars); rank != nil {
			t.emit(&ir.AxiomDecl{E: rank})
		}
	}

	// Reconstruction.
	dv := ir.V("d", ir.Datatype)
	d := ir.Id(dv.Name)
	parts := make([]ir.Expr, len(c.Formals))
	for i := range c.Formals {
		parts[i] = ir.Fn(dtorName(c, i), d)
	}
	t.emit(&ir.AxiomDecl{E: ir.Forall([]*ir.Var{dv}, [][]ir.Expr{{ir.Fn("DatatypeCtorId", d)}},
		ir.Implies(ctorTest(d, c), ir.Equal(d, ir.Fn(name, parts...))))})
}

// argAlloc is the allocation fact of one constructor argument in heap h.
func argAlloc(et *ExprTranslator, a ir.Expr, typ ast.Type) ir.Expr {
	switch typ.(type) {
	case *ast.DatatypeType:
		return ir.Fn("DtAlloc", a, et.heap)
	case ast.ObjectType, *ast.ClassType:
		return ir.Disj(ir.Equal(a, ir.Null), allocated(et.heap, a))
	}
	return et.typing(a, typ)
}

// rankAxiom states that a constructor argument is smaller than the value,
// or returns nil for arguments without a rank.
func (t *Translator) rankAxiom(typ ast.Type, a, value ir.Expr, vars []*ir.Var) ir.Expr {
	outer := ir.Fn("DtRank", value)
	switch typ.(type) {
	case *ast.DatatypeType:
		return ir.Forall(vars, [][]ir.Expr{{value}}, ir.Bin(ir.Lt, ir.Fn("DtRank", a), outer))
	case *ast.TypeParamType:
		return ir.Forall(vars, [][]ir.Expr{{value}}, ir.Bin(ir.Lt, ir.Fn("BoxRank", a), outer))
	case *ast.SeqType:
		return ir.Forall(vars, [][]ir.Expr{{value}}, ir.Bin(ir.Lt, ir.Fn("Seq#Rank", a), outer))
	case *ast.SetType:
		b := ir.V(t.fresh("$b"), ir.BoxType)
		mem := ir.Sel(a, ir.Id(b.Name))
		return ir.Forall(append(append([]*ir.Var{}, vars...), b), [][]ir.Expr{{mem, value}},
			ir.Implies(mem, ir.Bin(ir.Lt, ir.Fn("BoxRank", ir.Id(b.Name)), outer)))
	}
	return nil
}
