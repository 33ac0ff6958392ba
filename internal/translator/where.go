package translator

import (
	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

// WhereClause is the fact every value x of type t satisfies in the
// current heap, or nil when t carries none.
func (et *ExprTranslator) WhereClause(x ir.Expr, t ast.Type) ir.Expr {
	h := et.heap
	switch t := t.(type) {
	case ast.ObjectType, *ast.UnresolvedType:
		return ir.Disj(ir.Equal(x, ir.Null), allocated(h, x))

	case *ast.ClassType:
		return ir.Disj(ir.Equal(x, ir.Null),
			ir.Conj(allocated(h, x), ir.Equal(ir.Fn("dtype", x), ir.Id(className(t.Class)))))

	case *ast.DatatypeType:
		w := ir.Conj(ir.Fn("DtAlloc", x, h), ir.Equal(ir.Fn("DtType", x), ir.Id(datatypeClassName(t.Datatype))))
		for i, arg := range t.TypeArgs {
			if tag := typeTag(arg); tag != nil {
				w = ir.Conj(w, ir.Equal(ir.Fn("DtTypeParams", x, ir.Int64(int64(i))), tag))
			}
		}
		return w

	case *ast.TypeParamType:
		return ir.Fn("GenericAlloc", x, h)

	case *ast.SetType:
		b := et.t.fresh("$b")
		inner := et.boxedWhere(ir.Id(b), t.Elem)
		if inner == nil {
			return nil
		}
		mem := ir.Sel(x, ir.Id(b))
		return ir.Forall([]*ir.Var{ir.V(b, ir.BoxType)}, [][]ir.Expr{{mem}}, ir.Implies(mem, inner))

	case *ast.SeqType:
		i := et.t.fresh("$i")
		elem := ir.Fn("Seq#Index", x, ir.Id(i))
		inner := et.boxedWhere(elem, t.Elem)
		if inner == nil {
			return nil
		}
		return ir.Forall([]*ir.Var{ir.V(i, ir.Int)}, [][]ir.Expr{{elem}},
			ir.Implies(inRange(ir.Id(i), ir.Fn("Seq#Length", x)), inner))

	case *ast.MapType:
		b := et.t.fresh("$k")
		key := et.boxedWhere(ir.Id(b), t.Key)
		val := et.boxedWhere(ir.Sel(ir.Fn("Map#Elements", x), ir.Id(b)), t.Value)
		if key == nil && val == nil {
			return nil
		}
		mem := ir.Sel(ir.Fn("Map#Domain", x), ir.Id(b))
		return ir.Forall([]*ir.Var{ir.V(b, ir.BoxType)}, [][]ir.Expr{{mem}}, ir.Implies(mem, ir.AndAll(key, val)))
	}
	return nil
}

// boxedWhere is the where clause of a boxed collection element.
func (et *ExprTranslator) boxedWhere(b ir.Expr, elem ast.Type) ir.Expr {
	if ast.IsTypeParam(elem) {
		return ir.Fn("GenericAlloc", b, et.heap)
	}
	return et.WhereClause(et.t.unboxTo(elem, b), elem)
}

func allocated(h, x ir.Expr) ir.Expr { return ir.Sel(h, x, ir.Id(allocName)) }

// typing is the where clause of x, or true.
func (et *ExprTranslator) typing(x ir.Expr, t ast.Type) ir.Expr {
	if w := et.WhereClause(x, t); w != nil {
		return w
	}
	return ir.True
}
