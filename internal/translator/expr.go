package translator

import (
	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/callgraph"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
	"github.com/orizon-lang/orizon-verify/internal/ir"
)

// ExprTranslator translates expressions against one heap. It is a value:
// the With* methods return modified copies and never change the receiver.
type ExprTranslator struct {
	t      *Translator
	heap   ir.Expr
	old    ir.Expr
	this   ir.Expr
	subst  map[ast.Variable]ir.Expr
	caller callgraph.Callable
}

// Expr returns a translator reading heap, with `this` as the receiver.
func (t *Translator) Expr(heap ir.Expr, caller callgraph.Callable) *ExprTranslator {
	return &ExprTranslator{t: t, heap: heap, this: ir.Id(thisName), caller: caller}
}

func (et *ExprTranslator) clone() *ExprTranslator {
	c := *et
	return &c
}

// WithHeap reads from heap instead.
func (et *ExprTranslator) WithHeap(heap ir.Expr) *ExprTranslator {
	c := et.clone()
	c.heap = heap
	return c
}

// WithOld sets the heap that old(...) refers to.
func (et *ExprTranslator) WithOld(old ir.Expr) *ExprTranslator {
	c := et.clone()
	c.old = old
	return c
}

// Old reads from the pre-state heap.
func (et *ExprTranslator) Old() *ExprTranslator {
	c := et.clone()
	c.heap = et.oldHeap()
	return c
}

func (et *ExprTranslator) oldHeap() ir.Expr {
	if et.old != nil {
		return et.old
	}
	return &ir.Old{E: et.heap}
}

// WithReceiver translates `this` as recv.
func (et *ExprTranslator) WithReceiver(recv ir.Expr) *ExprTranslator {
	c := et.clone()
	c.this = recv
	return c
}

// WithSubst replaces the given variables. Earlier substitutions stay in
// effect unless overridden.
func (et *ExprTranslator) WithSubst(m map[ast.Variable]ir.Expr) *ExprTranslator {
	if len(m) == 0 {
		return et
	}
	c := et.clone()
	c.subst = make(map[ast.Variable]ir.Expr, len(et.subst)+len(m))
	for k, v := range et.subst {
		c.subst[k] = v
	}
	for k, v := range m {
		c.subst[k] = v
	}
	return c
}

// WithCaller sets the callable whose body is being translated.
func (et *ExprTranslator) WithCaller(c callgraph.Callable) *ExprTranslator {
	cp := et.clone()
	cp.caller = c
	return cp
}

// TrType maps a source type to its IR sort.
func (et *ExprTranslator) TrType(t ast.Type) ir.Type { return et.t.trType(t) }

// TrAll translates a list.
func (et *ExprTranslator) TrAll(es []ast.Expr) []ir.Expr {
	out := make([]ir.Expr, len(es))
	for i, e := range es {
		out[i] = et.Tr(e)
	}
	return out
}

// Tr translates e.
func (et *ExprTranslator) Tr(e ast.Expr) ir.Expr {
	switch e := e.(type) {
	case *ast.LiteralExpr:
		switch e.Kind {
		case ast.LitNull:
			return ir.Null
		case ast.LitBool:
			return &ir.BoolLit{Value: e.Bool}
		default:
			return ir.Int64(e.Int)
		}

	case *ast.ThisExpr:
		return et.this

	case *ast.IdentifierExpr:
		if e.Var == nil {
			panic(errs.UnresolvedTarget("variable", e.String()))
		}
		return et.varRef(e.Var)

	case *ast.FieldSelectExpr:
		return et.t.unboxIfGeneric(e.Field.Type, e.Type(), et.readField(et.Tr(e.Obj), e.Field))

	case *ast.SeqSelectExpr:
		return et.seqSelect(e)

	case *ast.MultiSelectExpr:
		a := et.Tr(e.Array)
		return et.t.unboxTo(e.Type(), ir.Sel(et.heap, a, et.multiIndexField(e.Indices)))

	case *ast.SeqUpdateExpr:
		s, i, v := et.Tr(e.Seq), et.Tr(e.Index), et.Tr(e.Value)
		switch st := e.Seq.Type().(type) {
		case *ast.SeqType:
			return ir.Fn("Seq#Update", s, i, boxFrom(st.Elem, v))
		case *ast.MapType:
			return ir.Fn("Map#Build", s, boxFrom(st.Key, i), boxFrom(st.Value, v))
		}
		panic(errs.MalformedTree("update of a value of type " + e.Seq.Type().String()))

	case *ast.FunctionCallExpr:
		return et.call(e)

	case *ast.DatatypeValue:
		args := make([]ir.Expr, len(e.Args))
		for i, a := range e.Args {
			args[i] = boxIfGeneric(e.Ctor.Formals[i].Type, a.Type(), et.Tr(a))
		}
		return ir.Fn(ctorName(e.Ctor), args...)

	case *ast.DisplayExpr:
		elem := ast.ElementType(e.Type())
		if e.Kind == ast.SetDisplay {
			var s ir.Expr = &ir.Coerce{E: ir.Fn("Set#Empty"), Type: ir.SetOfBox}
			for _, x := range e.Elements {
				s = ir.Fn("Set#UnionOne", s, boxFrom(elem, et.Tr(x)))
			}
			return s
		}
		var s ir.Expr = &ir.Coerce{E: ir.Fn("Seq#Empty"), Type: ir.SeqOfBox}
		for _, x := range e.Elements {
			s = ir.Fn("Seq#Build", s, boxFrom(elem, et.Tr(x)))
		}
		return s

	case *ast.MapDisplayExpr:
		mt := e.Type().(*ast.MapType)
		var m ir.Expr = &ir.Coerce{E: ir.Fn("Map#Empty"), Type: ir.MapOfBox}
		for i := range e.Keys {
			m = ir.Fn("Map#Build", m, boxFrom(mt.Key, et.Tr(e.Keys[i])), boxFrom(mt.Value, et.Tr(e.Values[i])))
		}
		return m

	case *ast.OldExpr:
		return et.Old().Tr(e.E)

	case *ast.FreshExpr:
		return et.fresh(e)

	case *ast.UnaryExpr:
		x := et.Tr(e.E)
		switch e.Op {
		case ast.OpNot:
			return ir.Negate(x)
		case ast.OpNeg:
			return &ir.Unary{Op: ir.Neg, E: x}
		}
		switch e.E.Type().(type) {
		case *ast.SetType:
			return ir.Fn("Set#Card", x)
		case *ast.SeqType:
			return ir.Fn("Seq#Length", x)
		case *ast.MapType:
			return ir.Fn("Map#Card", x)
		}
		panic(errs.MalformedTree("cardinality of a value of type " + e.E.Type().String()))

	case *ast.BinaryExpr:
		return et.binary(e)

	case *ast.ITEExpr:
		return ir.Ite(et.Tr(e.Test), et.Tr(e.Thn), et.Tr(e.Els))

	case *ast.LetExpr:
		m := make(map[ast.Variable]ir.Expr, len(e.Vars))
		for i, v := range e.Vars {
			m[v] = et.Tr(e.RHSs[i])
		}
		return et.WithSubst(m).Tr(e.Body)

	case *ast.QuantifierExpr:
		return et.quantifier(e)

	case *ast.MatchExpr:
		return et.match(e)

	case *ast.ParensExpr:
		return et.Tr(e.E)

	case nil:
		panic(errs.MalformedTree("missing expression"))
	}
	panic(errs.UnsupportedNode("expression", e))
}

// varRef is the translation of a use of v.
func (et *ExprTranslator) varRef(v ast.Variable) ir.Expr {
	if x, ok := et.subst[v]; ok {
		return x
	}
	return ir.Id(v.UniqueName())
}

// ====== Heap access ======

func (et *ExprTranslator) readField(obj ir.Expr, f *ast.Field) ir.Expr {
	fd := et.t.field(f)
	if fd.mutable {
		return ir.Sel(et.heap, obj, ir.Id(fd.name))
	}
	return ir.Fn(fd.name, obj)
}

func (et *ExprTranslator) multiIndexField(indices []ast.Expr) ir.Expr {
	var f ir.Expr = ir.Fn("IndexField", et.Tr(indices[0]))
	for _, i := range indices[1:] {
		f = ir.Fn("MultiIndexField", f, et.Tr(i))
	}
	return f
}

// arrayLength is the length of dimension dim of array a.
func (et *ExprTranslator) arrayLength(arrayType ast.Type, a ir.Expr, dim int) ir.Expr {
	c := arrayType.(*ast.ClassType).Class
	return et.readField(a, c.LengthField(dim))
}

func (et *ExprTranslator) seqSelect(e *ast.SeqSelectExpr) ir.Expr {
	s := et.Tr(e.Seq)
	st := e.Seq.Type()
	if e.SelectOne {
		i := et.Tr(e.E0)
		switch st := st.(type) {
		case *ast.SeqType:
			return et.t.unboxTo(e.Type(), ir.Fn("Seq#Index", s, i))
		case *ast.MapType:
			return et.t.unboxTo(e.Type(), ir.Sel(ir.Fn("Map#Elements", s), boxFrom(st.Key, i)))
		}
		if ast.IsArrayType(st) {
			return et.t.unboxTo(e.Type(), ir.Sel(et.heap, s, ir.Fn("IndexField", i)))
		}
		panic(errs.MalformedTree("indexing a value of type " + st.String()))
	}

	if ast.IsArrayType(st) {
		s = ir.Fn("Seq#FromArray", et.heap, s)
	}
	if e.E1 != nil {
		s = ir.Fn("Seq#Take", s, et.Tr(e.E1))
	}
	if e.E0 != nil {
		s = ir.Fn("Seq#Drop", s, et.Tr(e.E0))
	}
	return s
}

func (et *ExprTranslator) fresh(e *ast.FreshExpr) ir.Expr {
	x := et.Tr(e.E)
	old := et.oldHeap()
	isNew := func(o ir.Expr) ir.Expr {
		return ir.Conj(ir.Bin(ir.Neq, o, ir.Null), ir.Negate(ir.Sel(old, o, ir.Id(allocName))))
	}
	switch t := e.E.Type().(type) {
	case *ast.SetType:
		o := et.t.fresh("$o")
		b := ir.Box(ir.Id(o))
		return ir.Forall([]*ir.Var{ir.V(o, ir.Ref)}, [][]ir.Expr{{ir.Sel(x, b)}},
			ir.Implies(ir.Sel(x, b), isNew(ir.Id(o))))
	case *ast.SeqType:
		i := et.t.fresh("$i")
		idx := ir.Fn("Seq#Index", x, ir.Id(i))
		return ir.Forall([]*ir.Var{ir.V(i, ir.Int)}, [][]ir.Expr{{idx}},
			ir.Implies(inRange(ir.Id(i), ir.Fn("Seq#Length", x)), isNew(et.t.unboxTo(t.Elem, idx))))
	}
	return isNew(x)
}

// inRange is 0 <= i && i < n.
func inRange(i, n ir.Expr) ir.Expr {
	return ir.Conj(ir.Bin(ir.Le, ir.Int64(0), i), ir.Bin(ir.Lt, i, n))
}

// ====== Operators ======

func (et *ExprTranslator) binary(e *ast.BinaryExpr) ir.Expr {
	l, r := et.Tr(e.Left), et.Tr(e.Right)
	lt := e.Left.Type()

	switch e.Op {
	case ast.OpIff:
		return ir.Equiv(l, r)
	case ast.OpImp:
		return ir.Implies(l, r)
	case ast.OpAnd:
		return ir.Conj(l, r)
	case ast.OpOr:
		return ir.Disj(l, r)
	case ast.OpEq:
		return equality(lt, l, r)
	case ast.OpNeq:
		if eq, ok := equality(lt, l, r).(*ir.Binary); ok && eq.Op == ir.Eq {
			return ir.Bin(ir.Neq, l, r)
		}
		return ir.Negate(equality(lt, l, r))
	case ast.OpIn, ast.OpNotIn:
		m := membership(e.Right.Type(), l, r)
		if e.Op == ast.OpNotIn {
			return ir.Negate(m)
		}
		return m
	case ast.OpDisjoint:
		return ir.Fn("Set#Disjoint", l, r)
	}

	switch lt.(type) {
	case *ast.SetType:
		switch e.Op {
		case ast.OpLt:
			return properSubset(l, r)
		case ast.OpLe:
			return ir.Fn("Set#Subset", l, r)
		case ast.OpGt:
			return properSubset(r, l)
		case ast.OpGe:
			return ir.Fn("Set#Subset", r, l)
		case ast.OpAdd:
			return ir.Fn("Set#Union", l, r)
		case ast.OpSub:
			return ir.Fn("Set#Difference", l, r)
		case ast.OpMul:
			return ir.Fn("Set#Intersection", l, r)
		}
	case *ast.SeqType:
		switch e.Op {
		case ast.OpLt:
			return prefix(l, r, ir.Lt)
		case ast.OpLe:
			return prefix(l, r, ir.Le)
		case ast.OpGt:
			return prefix(r, l, ir.Lt)
		case ast.OpGe:
			return prefix(r, l, ir.Le)
		case ast.OpAdd:
			return ir.Fn("Seq#Append", l, r)
		}
	case ast.IntType:
		if op, ok := intOps[e.Op]; ok {
			return ir.Bin(op, l, r)
		}
	}
	panic(errs.MalformedTree("operator " + e.Op.String() + " on " + lt.String()))
}

var intOps = map[ast.BinaryOp]ir.BinOp{
	ast.OpLt: ir.Lt, ast.OpLe: ir.Le, ast.OpGt: ir.Gt, ast.OpGe: ir.Ge,
	ast.OpAdd: ir.Add, ast.OpSub: ir.Sub, ast.OpMul: ir.Mul,
	ast.OpDiv: ir.Div, ast.OpMod: ir.Mod,
}

func equality(t ast.Type, l, r ir.Expr) ir.Expr {
	switch t.(type) {
	case *ast.SetType:
		return ir.Fn("Set#Equal", l, r)
	case *ast.SeqType:
		return ir.Fn("Seq#Equal", l, r)
	case *ast.MapType:
		return ir.Fn("Map#Equal", l, r)
	}
	return ir.Equal(l, r)
}

func membership(coll ast.Type, x, c ir.Expr) ir.Expr {
	switch ct := coll.(type) {
	case *ast.SetType:
		return ir.Sel(c, boxFrom(ct.Elem, x))
	case *ast.SeqType:
		return ir.Fn("Seq#Contains", c, boxFrom(ct.Elem, x))
	case *ast.MapType:
		return ir.Sel(ir.Fn("Map#Domain", c), boxFrom(ct.Key, x))
	}
	panic(errs.MalformedTree("membership in a value of type " + coll.String()))
}

func properSubset(l, r ir.Expr) ir.Expr {
	return ir.Conj(ir.Fn("Set#Subset", l, r), ir.Negate(ir.Fn("Set#Equal", l, r)))
}

// prefix is l a (proper, when op is Lt) prefix of r.
func prefix(l, r ir.Expr, op ir.BinOp) ir.Expr {
	ll := ir.Fn("Seq#Length", l)
	return ir.Conj(ir.Bin(op, ll, ir.Fn("Seq#Length", r)), ir.Fn("Seq#SameUntil", l, r, ll))
}

// ====== Calls ======

func (et *ExprTranslator) call(e *ast.FunctionCallExpr) ir.Expr {
	fd := et.t.function(e.Function)
	name := fd.name
	if et.usesLimited(e.Function) {
		name = fd.limitedName()
	}
	app := ir.Fn(name, et.callArgs(e)...)
	return et.t.unboxIfGeneric(e.Function.ResultType, e.Type(), app)
}

// usesLimited reports whether a call from the current caller must go
// through the limited view of f.
func (et *ExprTranslator) usesLimited(f *ast.Function) bool {
	if et.caller == nil || et.t.graph == nil {
		return false
	}
	return et.t.function(f).limited && et.t.graph.SameSCC(et.caller, f)
}

// callArgs are the heap, the receiver and the boxed arguments of a call.
func (et *ExprTranslator) callArgs(e *ast.FunctionCallExpr) []ir.Expr {
	args := []ir.Expr{et.heap}
	if !e.Function.IsStatic {
		args = append(args, et.receiver(e.Receiver))
	}
	return append(args, et.boxedArgs(e.Function.Formals, e.Args)...)
}

func (et *ExprTranslator) receiver(recv ast.Expr) ir.Expr {
	if recv == nil {
		return et.this
	}
	return et.Tr(recv)
}

func (et *ExprTranslator) boxedArgs(formals []*ast.Formal, args []ast.Expr) []ir.Expr {
	if len(formals) != len(args) {
		panic(errs.MalformedTree("argument count does not match the callee"))
	}
	out := make([]ir.Expr, len(args))
	for i, a := range args {
		out[i] = boxIfGeneric(formals[i].Type, a.Type(), et.Tr(a))
	}
	return out
}

// calleeSubst maps the formals of a callee to already translated actuals.
func calleeSubst(formals []*ast.Formal, actuals []ir.Expr) map[ast.Variable]ir.Expr {
	m := make(map[ast.Variable]ir.Expr, len(formals))
	for i, f := range formals {
		m[f] = actuals[i]
	}
	return m
}

// ====== Binders ======

func (et *ExprTranslator) quantifier(q *ast.QuantifierExpr) ir.Expr {
	if len(q.SplitQuantifier) > 0 {
		parts := make([]ir.Expr, len(q.SplitQuantifier))
		for i, s := range q.SplitQuantifier {
			parts[i] = et.Tr(s)
		}
		if q.Universal {
			return ir.AndAll(parts...)
		}
		return ir.OrAll(parts...)
	}

	vars := make([]*ir.Var, len(q.BoundVars))
	var wheres []ir.Expr
	for i, bv := range q.BoundVars {
		vars[i] = ir.V(bv.UniqueName(), et.TrType(bv.Type))
		wheres = append(wheres, et.WhereClause(ir.Id(bv.UniqueName()), bv.Type))
	}
	var pats [][]ir.Expr
	for _, trig := range q.Triggers() {
		pats = append(pats, et.TrAll(trig))
	}

	var rng ir.Expr = ir.True
	if q.Range != nil {
		rng = et.Tr(q.Range)
	}
	antecedent := ir.Conj(ir.AndAll(wheres...), rng)
	term := et.Tr(q.Term)
	if q.Universal {
		return quant(true, vars, pats, ir.Implies(antecedent, term))
	}
	return quant(false, vars, pats, ir.Conj(antecedent, term))
}

// quant builds a quantifier, dropping it when it binds nothing.
func quant(universal bool, vars []*ir.Var, pats [][]ir.Expr, body ir.Expr) ir.Expr {
	if len(vars) == 0 {
		return body
	}
	return &ir.Quantifier{Universal: universal, Vars: vars, Triggers: pats, Body: body}
}

func (et *ExprTranslator) match(e *ast.MatchExpr) ir.Expr {
	if len(e.Cases) == 0 {
		panic(errs.MalformedTree("match without cases"))
	}
	src := et.Tr(e.Source)
	var out ir.Expr
	for i := len(e.Cases) - 1; i >= 0; i-- {
		mc := e.Cases[i]
		body := et.WithSubst(destructorSubst(et.t, mc.Ctor, mc.Args, src)).Tr(mc.Body)
		if out == nil {
			out = body
			continue
		}
		out = ir.Ite(ctorTest(src, mc.Ctor), body, out)
	}
	return out
}

// ctorTest is DatatypeCtorId(d) == ##D.C.
func ctorTest(d ir.Expr, c *ast.DatatypeCtor) ir.Expr {
	return ir.Equal(ir.Fn("DatatypeCtorId", d), ir.Id(ctorIDName(c)))
}

// destructorSubst binds case variables to the destructors of d.
func destructorSubst(t *Translator, c *ast.DatatypeCtor, args []*ast.BoundVar, d ir.Expr) map[ast.Variable]ir.Expr {
	if len(args) != len(c.Formals) {
		panic(errs.MalformedTree("case " + c.String() + " binds the wrong number of variables"))
	}
	m := make(map[ast.Variable]ir.Expr, len(args))
	for i, bv := range args {
		m[bv] = t.unboxIfGeneric(c.Formals[i].Type, bv.Type, ir.Fn(dtorName(c, i), d))
	}
	return m
}

// ====== Frames ======

// inFrame is the membership of (o, f) in the given reads or modifies
// clauses.
func (et *ExprTranslator) inFrame(frames []*ast.FrameExpr, o, f ir.Expr) ir.Expr {
	var disj []ir.Expr
	for _, fe := range frames {
		x := et.Tr(fe.E)
		var in ir.Expr
		switch fe.E.Type().(type) {
		case *ast.SetType:
			in = ir.Sel(x, ir.Box(o))
		case *ast.SeqType:
			in = ir.Fn("Seq#Contains", x, ir.Box(o))
		default:
			in = ir.Equal(o, x)
		}
		if fe.Field != nil {
			in = ir.Conj(in, ir.Equal(f, ir.Id(et.t.field(fe.Field).name)))
		}
		disj = append(disj, in)
	}
	return ir.OrAll(disj...)
}

// frameQuantifier binds `o: ref, f: Field alpha` over body.
func frameQuantifier(universal bool, o, f string, pats [][]ir.Expr, body ir.Expr) ir.Expr {
	return &ir.Quantifier{
		Universal:  universal,
		TypeParams: []string{"alpha"},
		Vars:       []*ir.Var{ir.V(o, ir.Ref), ir.V(f, ir.FieldType(&ir.TypeVar{Name: "alpha"}))},
		Triggers:   pats,
		Body:       body,
	}
}

// frameType is <beta>[ref, Field beta]bool.
var frameType = &ir.MapType{
	TypeParams: []string{"beta"},
	Domain:     []ir.Type{ir.Ref, ir.FieldType(&ir.TypeVar{Name: "beta"})},
	Range:      ir.Bool,
}
