package translator

import (
	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

func (t *Translator) emitField(f *ast.Field) {
	fd := t.field(f)
	h, o := ir.V("$h", ir.Heap), ir.V("$o", ir.Ref)
	heap, obj := ir.Id(h.Name), ir.Id(o.Name)
	et := t.Expr(heap, nil)
	// An allocated instance of the declaring class in a good heap.
	instance := ir.AndAll(
		ir.Fn("$IsGoodHeap", heap),
		ir.Bin(ir.Neq, obj, ir.Null),
		allocated(heap, obj),
		ir.Equal(ir.Fn("dtype", obj), ir.Id(className(f.Class))),
	)

	if !fd.mutable {
		read := ir.Fn(fd.name, obj)
		t.emit(&ir.FuncDecl{Name: fd.name, Params: []*ir.Var{ir.Anon(ir.Ref)}, Result: fd.typ})
		if f.Class.IsArray() {
			t.emit(&ir.AxiomDecl{E: ir.Forall([]*ir.Var{o}, [][]ir.Expr{{read}}, ir.Bin(ir.Le, ir.Int64(0), read))})
		}
		if w := et.WhereClause(read, f.Type); w != nil {
			t.emit(&ir.AxiomDecl{E: ir.Forall([]*ir.Var{h, o}, [][]ir.Expr{{read, allocated(heap, obj)}}, ir.Implies(instance, w))})
		}
		return
	}

	family := nameFamily(f)
	t.emit(
		&ir.ConstDecl{Name: fd.name, Type: ir.FieldType(fd.typ), Unique: true},
		&ir.ConstDecl{Name: family, Type: ir.NameFam, Unique: true},
		&ir.AxiomDecl{E: ir.Equal(ir.Fn("DeclName", ir.Id(fd.name)), ir.Id(family))},
		&ir.AxiomDecl{E: ir.Equal(ir.Fn("FDim", ir.Id(fd.name)), ir.Int64(0))},
	)
	read := ir.Sel(heap, obj, ir.Id(fd.name))
	if w := et.WhereClause(read, f.Type); w != nil {
		t.emit(&ir.AxiomDecl{E: ir.Forall([]*ir.Var{h, o}, [][]ir.Expr{{read}}, ir.Implies(instance, w))})
	}
}

// emitArrayElements states that the elements of an allocated array are
// allocated.
func (t *Translator) emitArrayElements(c *ast.ClassDecl) {
	h, a := ir.V("$h", ir.Heap), ir.V("$a", ir.Ref)
	heap, arr := ir.Id(h.Name), ir.Id(a.Name)
	idx := make([]*ir.Var, c.ArrayDims)
	var field ir.Expr
	for d := range idx {
		idx[d] = ir.V(t.fresh("$i"), ir.Int)
		if field == nil {
			field = ir.Fn("IndexField", ir.Id(idx[d].Name))
		} else {
			field = ir.Fn("MultiIndexField", field, ir.Id(idx[d].Name))
		}
	}
	elem := ir.Sel(heap, arr, field)
	ante := ir.AndAll(
		ir.Fn("$IsGoodHeap", heap),
		ir.Bin(ir.Neq, arr, ir.Null),
		allocated(heap, arr),
		ir.Equal(ir.Fn("dtype", arr), ir.Id(className(c))),
	)
	vars := append([]*ir.Var{h, a}, idx...)
	t.emit(&ir.AxiomDecl{
		Comment: "elements of " + c.Name,
		E:       ir.Forall(vars, [][]ir.Expr{{elem}}, ir.Implies(ante, ir.Fn("GenericAlloc", elem, heap))),
	})
}
