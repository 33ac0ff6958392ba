package translator

import (
	"fmt"

	"github.com/orizon-lang/orizon-verify/internal/ast"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

// Reserved names shared by the generated declarations.
const (
	heapVar   = "$Heap"
	frameVar  = "$_Frame"
	heapParam = "$h"
	thisName  = "this"
	allocName = "alloc"

	moduleHeight   = "ModuleContextHeight"
	functionHeight = "FunctionContextHeight"
	inMethod       = "InMethodContext"
)

func className(c *ast.ClassDecl) string { return "class." + c.Name }

func datatypeClassName(d *ast.DatatypeDecl) string { return "class." + d.Name }

func fieldName(f *ast.Field) string { return f.Class.Name + "." + f.Name }

func nameFamily(f *ast.Field) string { return "field$" + fieldName(f) }

func ctorName(c *ast.DatatypeCtor) string { return "#" + c.Datatype.Name + "." + c.Name }

func ctorIDName(c *ast.DatatypeCtor) string { return "##" + c.Datatype.Name + "." + c.Name }

func dtorName(c *ast.DatatypeCtor, i int) string { return fmt.Sprintf("%s._%d", ctorName(c), i) }

func checkWellformedName(full string) string { return "CheckWellformed$$" + full }

// ====== Descriptors ======

// fieldDesc is the IR view of a source field.
type fieldDesc struct {
	name    string
	mutable bool
	// typ is the sort of the stored value.
	typ ir.Type
}

func (t *Translator) field(f *ast.Field) *fieldDesc {
	if d, ok := t.fields[f.NodeID()]; ok {
		return d
	}
	t.owns(f)
	d := &fieldDesc{name: fieldName(f), mutable: f.Mutable, typ: t.trType(f.Type)}
	t.fields[f.NodeID()] = d
	return d
}

// funcDesc is the IR view of a source function.
type funcDesc struct {
	name    string
	limited bool
	params  []*ir.Var
	result  ir.Type
}

func (t *Translator) function(f *ast.Function) *funcDesc {
	if d, ok := t.functions[f.NodeID()]; ok {
		return d
	}
	t.owns(f)
	d := &funcDesc{
		name:    f.FullName(),
		limited: t.graph != nil && t.graph.IsRecursive(f) && !f.IsUnlimited(),
		result:  t.trType(f.ResultType),
	}
	d.params = append(d.params, ir.V(heapParam, ir.Heap))
	if !f.IsStatic {
		d.params = append(d.params, ir.V(thisName, ir.Ref))
	}
	for _, formal := range f.Formals {
		d.params = append(d.params, ir.V(formal.UniqueName(), t.trType(formal.Type)))
	}
	t.functions[f.NodeID()] = d
	return d
}

func (d *funcDesc) limitedName() string { return d.name + "#limited" }
func (d *funcDesc) canCallName() string { return d.name + "#canCall" }

// ====== Types ======

// trType maps a source type to the sort of its values.
func (t *Translator) trType(typ ast.Type) ir.Type {
	switch typ := typ.(type) {
	case ast.BoolType:
		return ir.Bool
	case ast.IntType:
		return ir.Int
	case ast.ObjectType, *ast.ClassType:
		return ir.Ref
	case *ast.TypeParamType:
		return ir.BoxType
	case *ast.DatatypeType:
		return ir.Datatype
	case *ast.SetType:
		return ir.SetOfBox
	case *ast.SeqType:
		return ir.SeqOfBox
	case *ast.MapType:
		return ir.MapOfBox
	case *ast.UnresolvedType:
		t.reportUnresolved(typ.Name)
		return ir.Ref
	case nil:
		panic(errs.UnresolvedType("expression without a type"))
	}
	panic(errs.UnsupportedNode("type", typ))
}

// typeTag returns the run-time tag of a closed type, or nil.
func typeTag(typ ast.Type) ir.Expr {
	switch typ := typ.(type) {
	case ast.BoolType:
		return ir.Id("TBool")
	case ast.IntType:
		return ir.Id("TInt")
	case ast.ObjectType:
		return ir.Id("TObject")
	case *ast.ClassType:
		return ir.Fn("TClass", ir.Id(className(typ.Class)))
	case *ast.DatatypeType:
		return ir.Fn("TDatatype", ir.Id(datatypeClassName(typ.Datatype)))
	case *ast.SetType:
		if e := typeTag(typ.Elem); e != nil {
			return ir.Fn("TSet", e)
		}
	case *ast.SeqType:
		if e := typeTag(typ.Elem); e != nil {
			return ir.Fn("TSeq", e)
		}
	case *ast.MapType:
		k, v := typeTag(typ.Key), typeTag(typ.Value)
		if k != nil && v != nil {
			return ir.Fn("TMap", k, v)
		}
	}
	return nil
}

// boxIfGeneric boxes v when the declared type is a type parameter and the
// static type is not: v is about to be stored in a generic slot.
func boxIfGeneric(declared, actual ast.Type, v ir.Expr) ir.Expr {
	if ast.IsTypeParam(declared) && !ast.IsTypeParam(actual) {
		return ir.Box(v)
	}
	return v
}

func (t *Translator) unboxIfGeneric(declared, actual ast.Type, v ir.Expr) ir.Expr {
	if ast.IsTypeParam(declared) && !ast.IsTypeParam(actual) {
		return ir.Unbox(v, t.trType(actual))
	}
	return v
}

// unboxTo takes a boxed collection element apart at the element type.
func (t *Translator) unboxTo(elem ast.Type, v ir.Expr) ir.Expr {
	if ast.IsTypeParam(elem) {
		return v
	}
	return ir.Unbox(v, t.trType(elem))
}

// boxFrom boxes a value of type elem for a collection slot.
func boxFrom(elem ast.Type, v ir.Expr) ir.Expr {
	if ast.IsTypeParam(elem) {
		return v
	}
	return ir.Box(v)
}
