package loader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-set/v3"

	"github.com/orizon-lang/orizon-verify/internal/ast"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
	"github.com/orizon-lang/orizon-verify/internal/position"
)

type decoder struct {
	name string
	prog *ast.Program
	b    *ast.Builder
	ids  *set.Set[string]

	classes   map[string]*ast.ClassDecl
	datatypes map[string]*ast.DatatypeDecl
	params    map[string]*ast.TypeParameter
	ctors     map[string]*ast.DatatypeCtor
	fields    map[string]*ast.Field
	functions map[string]*ast.Function
	methods   map[string]*ast.Method
	vars      map[string]ast.Variable

	// class encloses the member being decoded; `this` refers to it.
	class *ast.ClassDecl
}

func newDecoder(name, program string) *decoder {
	if program == "" {
		program = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	prog, b := ast.NewProgram(program)
	return &decoder{
		name:      name,
		prog:      prog,
		b:         b,
		ids:       set.New[string](64),
		classes:   map[string]*ast.ClassDecl{},
		datatypes: map[string]*ast.DatatypeDecl{},
		params:    map[string]*ast.TypeParameter{},
		ctors:     map[string]*ast.DatatypeCtor{},
		fields:    map[string]*ast.Field{},
		functions: map[string]*ast.Function{},
		methods:   map[string]*ast.Method{},
		vars:      map[string]ast.Variable{},
	}
}

func (d *decoder) fail(format string, args ...interface{}) {
	panic(errs.DecodeFailure(d.name, fmt.Sprintf(format, args...)))
}

// declare claims id, falling back to name when the document gives none.
func (d *decoder) declare(id, name string) string {
	if id == "" {
		id = name
	}
	if id == "" {
		d.fail("declaration without id or name")
	}
	if !d.ids.Insert(id) {
		d.fail("duplicate id %q", id)
	}
	return id
}

func (d *decoder) at(line int) *ast.Builder {
	if line <= 0 {
		return d.b
	}
	return d.b.WithSpan(position.Point(position.At(d.name, line, 1)))
}

// program decodes in three passes so that every reference, including
// forward ones between members, points at an existing node: top-level
// declarations, then signatures, then specifications and bodies.
func (d *decoder) program(doc *document) *ast.Program {
	classes := map[*classDoc]*ast.ClassDecl{}
	for i, md := range doc.Modules {
		if md.Name == "" {
			d.fail("module %d has no name", i)
		}
		m := d.b.Module(md.Name, md.Height)
		for _, dd := range md.Datatypes {
			id := d.declare(dd.ID, dd.Name)
			dt := d.at(dd.Line).Datatype(m, dd.Name, d.paramNames(dd.TypeParams)...)
			d.bindParams(dd.TypeParams, dt.TypeParams)
			d.datatypes[id] = dt
		}
		for _, cd := range md.Classes {
			id := d.declare(cd.ID, cd.Name)
			var c *ast.ClassDecl
			if cd.Default {
				c = d.at(cd.Line).DefaultClass(m)
			} else {
				c = d.at(cd.Line).Class(m, cd.Name, d.paramNames(cd.TypeParams)...)
				d.bindParams(cd.TypeParams, c.TypeParams)
			}
			d.classes[id] = c
			classes[cd] = c
		}
	}

	functions := map[*functionDoc]*ast.Function{}
	methods := map[*methodDoc]*ast.Method{}
	for _, md := range doc.Modules {
		for _, dd := range md.Datatypes {
			dt := d.datatypes[d.idOf(dd.ID, dd.Name)]
			for _, cd := range dd.Ctors {
				id := d.declare(cd.ID, dt.Name+"."+cd.Name)
				d.ctors[id] = d.b.Ctor(dt, cd.Name, d.formals(cd.Formals, false)...)
			}
		}
		for _, cd := range md.Classes {
			c := classes[cd]
			for _, fd := range cd.Fields {
				id := d.declare(fd.ID, c.Name+"."+fd.Name)
				d.fields[id] = d.at(fd.Line).Field(c, fd.Name, d.typ(fd.Type), fd.Mutable)
			}
			for _, fd := range cd.Functions {
				id := d.declare(fd.ID, c.Name+"."+fd.Name)
				f := d.at(fd.Line).Function(c, fd.Name, d.formals(fd.Formals, false), d.typ(fd.Result))
				if fd.Static != nil {
					f.IsStatic = *fd.Static
				}
				d.functions[id] = f
				functions[fd] = f
			}
			for _, mdoc := range cd.Methods {
				id := d.declare(mdoc.ID, c.Name+"."+mdoc.Name)
				m := d.at(mdoc.Line).Method(c, mdoc.Name, d.formals(mdoc.Ins, false), d.formals(mdoc.Outs, true))
				if mdoc.Static != nil {
					m.IsStatic = *mdoc.Static
				}
				d.methods[id] = m
				methods[mdoc] = m
			}
		}
	}

	for _, md := range doc.Modules {
		for _, cd := range md.Classes {
			d.class = classes[cd]
			for _, fd := range cd.Functions {
				d.function(fd, functions[fd])
			}
			for _, mdoc := range cd.Methods {
				d.method(mdoc, methods[mdoc])
			}
		}
	}
	d.class = nil
	return d.prog
}

func (d *decoder) idOf(id, name string) string {
	if id != "" {
		return id
	}
	return name
}

func (d *decoder) paramNames(tps []*typeParamDoc) []string {
	names := make([]string, len(tps))
	for i, tp := range tps {
		names[i] = tp.Name
	}
	return names
}

func (d *decoder) bindParams(docs []*typeParamDoc, tps []*ast.TypeParameter) {
	for i, tp := range docs {
		d.params[d.declare(tp.ID, tp.Name)] = tps[i]
	}
}

func (d *decoder) formals(docs []*formalDoc, out bool) []*ast.Formal {
	fs := make([]*ast.Formal, len(docs))
	for i, fd := range docs {
		if out {
			fs[i] = d.b.OutFormal(fd.Name, d.typ(fd.Type))
		} else {
			fs[i] = d.b.Formal(fd.Name, d.typ(fd.Type))
		}
		d.bindVar(fd.ID, fs[i])
	}
	return fs
}

// bindVar makes v referable by id. Variables without an id cannot be
// referenced.
func (d *decoder) bindVar(id string, v ast.Variable) {
	if id != "" {
		d.vars[d.declare(id, "")] = v
	}
}

func (d *decoder) locals(docs []*formalDoc) []*ast.LocalVariable {
	ls := make([]*ast.LocalVariable, len(docs))
	for i, fd := range docs {
		ls[i] = d.b.Local(fd.Name, d.typ(fd.Type))
		d.bindVar(fd.ID, ls[i])
	}
	return ls
}

func (d *decoder) boundVars(docs []*formalDoc) []*ast.BoundVar {
	vs := make([]*ast.BoundVar, len(docs))
	for i, fd := range docs {
		vs[i] = d.b.BoundVar(fd.Name, d.typ(fd.Type))
		d.bindVar(fd.ID, vs[i])
	}
	return vs
}

func (d *decoder) function(fd *functionDoc, f *ast.Function) {
	f.Attributes = d.attrs(fd.Attributes)
	f.Requires = d.exprs(fd.Requires)
	f.Reads = d.frames(fd.Reads)
	f.Ensures = d.exprs(fd.Ensures)
	f.Decreases = d.exprs(fd.Decreases)
	if fd.Body != nil {
		f.Body = d.expr(fd.Body)
	}
}

func (d *decoder) method(md *methodDoc, m *ast.Method) {
	m.Attributes = d.attrs(md.Attributes)
	m.Requires = d.specs(md.Requires)
	m.Modifies = d.frames(md.Modifies)
	m.Ensures = d.specs(md.Ensures)
	m.Decreases = d.exprs(md.Decreases)
	m.DecreasesWildcard = md.DecreasesStar
	if md.Body != nil {
		m.Body = d.at(md.Line).Block(d.stmts(md.Body)...)
	}
}

func (d *decoder) specs(docs []*specDoc) []*ast.MaybeFree {
	out := make([]*ast.MaybeFree, len(docs))
	for i, s := range docs {
		if s.Expr == nil {
			d.fail("specification clause without expression")
		}
		out[i] = &ast.MaybeFree{E: d.expr(s.Expr), IsFree: s.Free}
	}
	return out
}

func (d *decoder) frames(docs []*frameDoc) []*ast.FrameExpr {
	out := make([]*ast.FrameExpr, len(docs))
	for i, fd := range docs {
		if fd.Expr == nil {
			d.fail("frame entry without expression")
		}
		fe := &ast.FrameExpr{E: d.expr(fd.Expr)}
		if fd.Field != "" {
			fe.Field = d.field(fd.Field)
		}
		out[i] = fe
	}
	return out
}

func (d *decoder) attrs(docs []*attrDoc) ast.Attributes {
	if len(docs) == 0 {
		return nil
	}
	out := make(ast.Attributes, len(docs))
	for i, a := range docs {
		out[i] = ast.Attr(a.Name, d.exprs(a.Args)...)
	}
	return out
}

// ====== References ======

func (d *decoder) field(id string) *ast.Field {
	f, ok := d.fields[id]
	if !ok {
		d.fail("unknown field %q", id)
	}
	return f
}

func (d *decoder) variable(id string) ast.Variable {
	v, ok := d.vars[id]
	if !ok {
		d.fail("unknown variable %q", id)
	}
	return v
}

func (d *decoder) ctor(id string) *ast.DatatypeCtor {
	c, ok := d.ctors[id]
	if !ok {
		d.fail("unknown constructor %q", id)
	}
	return c
}

// ====== Types ======

func (d *decoder) typ(t *typeDoc) ast.Type {
	if t == nil {
		d.fail("missing type")
	}
	switch t.Kind {
	case "bool":
		return ast.BoolType{}
	case "int":
		return ast.IntType{}
	case "object":
		return ast.ObjectType{}
	case "param":
		tp, ok := d.params[t.Ref]
		if !ok {
			d.fail("unknown type parameter %q", t.Ref)
		}
		return &ast.TypeParamType{Param: tp}
	case "class":
		c, ok := d.classes[t.Ref]
		if !ok {
			d.fail("unknown class %q", t.Ref)
		}
		return &ast.ClassType{Class: c, TypeArgs: d.types(t.Args)}
	case "datatype":
		dt, ok := d.datatypes[t.Ref]
		if !ok {
			d.fail("unknown datatype %q", t.Ref)
		}
		return &ast.DatatypeType{Datatype: dt, TypeArgs: d.types(t.Args)}
	case "array":
		dims := t.Dims
		if dims == 0 {
			dims = 1
		}
		return d.b.ArrayType(d.typeArg(t, 0, 1), dims)
	case "set":
		return &ast.SetType{Elem: d.typeArg(t, 0, 1)}
	case "seq":
		return &ast.SeqType{Elem: d.typeArg(t, 0, 1)}
	case "map":
		return &ast.MapType{Key: d.typeArg(t, 0, 2), Value: d.typeArg(t, 1, 2)}
	case "unresolved":
		return &ast.UnresolvedType{Name: t.Ref}
	}
	d.fail("unknown type kind %q", t.Kind)
	return nil
}

func (d *decoder) typeArg(t *typeDoc, i, want int) ast.Type {
	if len(t.Args) != want {
		d.fail("%s type takes %d type arguments, got %d", t.Kind, want, len(t.Args))
	}
	return d.typ(t.Args[i])
}

func (d *decoder) types(ts []*typeDoc) []ast.Type {
	out := make([]ast.Type, len(ts))
	for i, t := range ts {
		out[i] = d.typ(t)
	}
	return out
}
