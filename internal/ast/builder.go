package ast

import (
	"fmt"

	errs "github.com/orizon-lang/orizon-verify/internal/errors"
	"github.com/orizon-lang/orizon-verify/internal/position"
)

// Builder is the only way to create nodes. It registers each node in the
// program's arena, stamps the current span on it and computes expression
// types from the operands, so a tree built here is always resolved.
//
// Builders are cheap values; WithSpan returns a copy that shares the
// program.
type Builder struct {
	prog *Program
	span position.Span
}

// NewProgram creates an empty program with a fresh arena.
func NewProgram(name string) (*Program, *Builder) {
	p := &Program{Name: name, Arena: NewArena(), arrays: map[int]*ClassDecl{}}
	return p, &Builder{prog: p}
}

// NewBuilder returns a builder that adds nodes to p.
func NewBuilder(p *Program) *Builder { return &Builder{prog: p} }

// Program returns the program being built.
func (b *Builder) Program() *Program { return b.prog }

// WithSpan returns a builder stamping span on the nodes it creates.
func (b *Builder) WithSpan(span position.Span) *Builder {
	nb := *b
	nb.span = span
	return &nb
}

func (b *Builder) node(n Node, nb *base) {
	nb.id = b.prog.Arena.register(n)
	nb.span = b.span
}

func (b *Builder) expr(n Expr, eb *exprBase, t Type) {
	eb.typ = t
	b.node(n, &eb.base)
}

func (b *Builder) unique(name string) string {
	u := fmt.Sprintf("%s#%d", name, b.prog.nextUnique)
	b.prog.nextUnique++
	return u
}

// =============================================================================
// Declarations
// =============================================================================

// Module appends a module with the given import height.
func (b *Builder) Module(name string, height int) *Module {
	m := &Module{Name: name, Height: height}
	b.node(m, &m.base)
	b.prog.Modules = append(b.prog.Modules, m)
	return m
}

// Class appends a class to m.
func (b *Builder) Class(m *Module, name string, typeParams ...string) *ClassDecl {
	c := &ClassDecl{Name: name, Module: m}
	b.node(c, &c.base)
	for _, tp := range typeParams {
		c.TypeParams = append(c.TypeParams, b.TypeParameter(tp))
	}
	m.Decls = append(m.Decls, c)
	return c
}

// DefaultClass appends the class holding m's top-level members.
func (b *Builder) DefaultClass(m *Module) *ClassDecl {
	c := b.Class(m, "_default")
	c.IsDefault = true
	return c
}

// TypeParameter creates a type parameter.
func (b *Builder) TypeParameter(name string) *TypeParameter {
	tp := &TypeParameter{Name: name}
	b.node(tp, &tp.base)
	return tp
}

// Datatype appends a datatype to m. Constructors are added with Ctor.
func (b *Builder) Datatype(m *Module, name string, typeParams ...string) *DatatypeDecl {
	d := &DatatypeDecl{Name: name, Module: m}
	b.node(d, &d.base)
	for _, tp := range typeParams {
		d.TypeParams = append(d.TypeParams, b.TypeParameter(tp))
	}
	m.Decls = append(m.Decls, d)
	return d
}

// Ctor appends a constructor to d.
func (b *Builder) Ctor(d *DatatypeDecl, name string, formals ...*Formal) *DatatypeCtor {
	c := &DatatypeCtor{Name: name, Formals: formals, Datatype: d}
	b.node(c, &c.base)
	d.Ctors = append(d.Ctors, c)
	return c
}

// Field appends a field to c.
func (b *Builder) Field(c *ClassDecl, name string, t Type, mutable bool) *Field {
	f := &Field{Name: name, Type: t, Mutable: mutable, Class: c}
	b.node(f, &f.base)
	c.Members = append(c.Members, f)
	return f
}

// Function appends a function to c. Clauses and body are set by the caller.
func (b *Builder) Function(c *ClassDecl, name string, formals []*Formal, result Type) *Function {
	f := &Function{Name: name, Class: c, IsStatic: c.IsDefault, Formals: formals, ResultType: result}
	b.node(f, &f.base)
	c.Members = append(c.Members, f)
	return f
}

// Method appends a method to c. Clauses and body are set by the caller.
func (b *Builder) Method(c *ClassDecl, name string, ins, outs []*Formal) *Method {
	m := &Method{Name: name, Class: c, IsStatic: c.IsDefault, Ins: ins, Outs: outs}
	b.node(m, &m.base)
	c.Members = append(c.Members, m)
	return m
}

// Formal creates an in-parameter.
func (b *Builder) Formal(name string, t Type) *Formal {
	f := &Formal{Name: name, Type: t}
	b.node(f, &f.base)
	return f
}

// OutFormal creates an out-parameter.
func (b *Builder) OutFormal(name string, t Type) *Formal {
	f := b.Formal(name, t)
	f.InOut = FormalOut
	return f
}

// Local creates a method-local variable with a unique name.
func (b *Builder) Local(name string, t Type) *LocalVariable {
	l := &LocalVariable{Name: name, Type: t, unique: b.unique(name)}
	b.node(l, &l.base)
	return l
}

// BoundVar creates a bound variable with a unique name.
func (b *Builder) BoundVar(name string, t Type) *BoundVar {
	v := &BoundVar{Name: name, Type: t, unique: b.unique(name)}
	b.node(v, &v.base)
	return v
}

// ArrayClass returns the built-in array class of dimension dims, creating
// it on first use.
func (p *Program) ArrayClass(dims int) *ClassDecl {
	if c, ok := p.arrays[dims]; ok {
		return c
	}
	b := NewBuilder(p)
	name := "array"
	if dims > 1 {
		name = fmt.Sprintf("array%d", dims)
	}
	c := &ClassDecl{Name: name, ArrayDims: dims}
	b.node(c, &c.base)
	c.TypeParams = []*TypeParameter{b.TypeParameter("arg")}
	if dims == 1 {
		b.Field(c, "Length", IntType{}, false)
	} else {
		for i := 0; i < dims; i++ {
			b.Field(c, fmt.Sprintf("Length%d", i), IntType{}, false)
		}
	}
	p.arrays[dims] = c
	return c
}

// =============================================================================
// Types
// =============================================================================

// SelfType returns the type of `this` inside c.
func SelfType(c *ClassDecl) *ClassType {
	args := make([]Type, len(c.TypeParams))
	for i, tp := range c.TypeParams {
		args[i] = &TypeParamType{Param: tp}
	}
	return &ClassType{Class: c, TypeArgs: args}
}

// ArrayType returns the type of a dims-dimensional array of elem.
func (b *Builder) ArrayType(elem Type, dims int) *ClassType {
	return &ClassType{Class: b.prog.ArrayClass(dims), TypeArgs: []Type{elem}}
}

func receiverTypeMap(obj Type, c *ClassDecl) map[*TypeParameter]Type {
	ct, ok := obj.(*ClassType)
	if !ok || ct.Class != c {
		return nil
	}
	return TypeArgMap(c.TypeParams, ct.TypeArgs)
}

func indexType(t Type) Type {
	switch t := t.(type) {
	case *SeqType:
		return t.Elem
	case *MapType:
		return t.Value
	case *ClassType:
		if t.Class.IsArray() {
			return t.TypeArgs[0]
		}
	}
	panic(errs.MalformedTree(fmt.Sprintf("cannot index a value of type %s", t)))
}

// =============================================================================
// Expressions
// =============================================================================

// Null is the null reference.
func (b *Builder) Null() *LiteralExpr {
	e := &LiteralExpr{Kind: LitNull}
	b.expr(e, &e.exprBase, ObjectType{})
	return e
}

// Bool is a boolean literal.
func (b *Builder) Bool(v bool) *LiteralExpr {
	e := &LiteralExpr{Kind: LitBool, Bool: v}
	b.expr(e, &e.exprBase, BoolType{})
	return e
}

// Int is an integer literal.
func (b *Builder) Int(v int64) *LiteralExpr {
	e := &LiteralExpr{Kind: LitInt, Int: v}
	b.expr(e, &e.exprBase, IntType{})
	return e
}

// This is the receiver inside a member of c.
func (b *Builder) This(c *ClassDecl) *ThisExpr {
	e := &ThisExpr{}
	b.expr(e, &e.exprBase, SelfType(c))
	return e
}

// Ident refers to v.
func (b *Builder) Ident(v Variable) *IdentifierExpr {
	e := &IdentifierExpr{Var: v}
	b.expr(e, &e.exprBase, v.VarType())
	return e
}

// Select is obj.f.
func (b *Builder) Select(obj Expr, f *Field) *FieldSelectExpr {
	e := &FieldSelectExpr{Obj: obj, Field: f}
	b.expr(e, &e.exprBase, SubstType(f.Type, receiverTypeMap(obj.Type(), f.Class)))
	return e
}

// Index is s[i] on a sequence, map or one-dimensional array.
func (b *Builder) Index(s, i Expr) *SeqSelectExpr {
	e := &SeqSelectExpr{Seq: s, SelectOne: true, E0: i}
	b.expr(e, &e.exprBase, indexType(s.Type()))
	return e
}

// Slice is s[lo..hi]; either bound may be nil. On arrays it yields a
// sequence of the elements.
func (b *Builder) Slice(s, lo, hi Expr) *SeqSelectExpr {
	e := &SeqSelectExpr{Seq: s, E0: lo, E1: hi}
	t := s.Type()
	if IsArrayType(t) {
		t = &SeqType{Elem: ArrayElementType(t)}
	}
	b.expr(e, &e.exprBase, t)
	return e
}

// MultiIndex is a[i, j, ...].
func (b *Builder) MultiIndex(a Expr, indices ...Expr) *MultiSelectExpr {
	e := &MultiSelectExpr{Array: a, Indices: indices}
	b.expr(e, &e.exprBase, indexType(a.Type()))
	return e
}

// Update is s[i := v].
func (b *Builder) Update(s, i, v Expr) *SeqUpdateExpr {
	e := &SeqUpdateExpr{Seq: s, Index: i, Value: v}
	b.expr(e, &e.exprBase, s.Type())
	return e
}

// Call is recv.f(args); recv is nil for static functions.
func (b *Builder) Call(recv Expr, f *Function, args ...Expr) *FunctionCallExpr {
	e := &FunctionCallExpr{Receiver: recv, Function: f, Args: args}
	t := f.ResultType
	if recv != nil {
		t = SubstType(t, receiverTypeMap(recv.Type(), f.Class))
	}
	b.expr(e, &e.exprBase, t)
	return e
}

// Construct applies ctor to args, producing a value of ctor's datatype
// instantiated with typeArgs.
func (b *Builder) Construct(ctor *DatatypeCtor, typeArgs []Type, args ...Expr) *DatatypeValue {
	e := &DatatypeValue{Ctor: ctor, Args: args}
	b.expr(e, &e.exprBase, &DatatypeType{Datatype: ctor.Datatype, TypeArgs: typeArgs})
	return e
}

// SetDisplay is {elems} of element type elem.
func (b *Builder) SetDisplay(elem Type, elems ...Expr) *DisplayExpr {
	e := &DisplayExpr{Kind: SetDisplay, Elements: elems}
	b.expr(e, &e.exprBase, &SetType{Elem: elem})
	return e
}

// SeqDisplay is [elems] of element type elem.
func (b *Builder) SeqDisplay(elem Type, elems ...Expr) *DisplayExpr {
	e := &DisplayExpr{Kind: SeqDisplay, Elements: elems}
	b.expr(e, &e.exprBase, &SeqType{Elem: elem})
	return e
}

// MapDisplay is map[keys[i] := values[i]].
func (b *Builder) MapDisplay(key, value Type, keys, values []Expr) *MapDisplayExpr {
	if len(keys) != len(values) {
		panic(errs.MalformedTree("map display with unbalanced keys and values"))
	}
	e := &MapDisplayExpr{Keys: keys, Values: values}
	b.expr(e, &e.exprBase, &MapType{Key: key, Value: value})
	return e
}

// Old is old(e).
func (b *Builder) Old(x Expr) *OldExpr {
	e := &OldExpr{E: x}
	b.expr(e, &e.exprBase, x.Type())
	return e
}

// Fresh is fresh(e).
func (b *Builder) Fresh(x Expr) *FreshExpr {
	e := &FreshExpr{E: x}
	b.expr(e, &e.exprBase, BoolType{})
	return e
}

// Unary applies op to x.
func (b *Builder) Unary(op UnaryOp, x Expr) *UnaryExpr {
	e := &UnaryExpr{Op: op, E: x}
	var t Type = IntType{}
	if op == OpNot {
		t = BoolType{}
	}
	b.expr(e, &e.exprBase, t)
	return e
}

// Not is !x.
func (b *Builder) Not(x Expr) *UnaryExpr { return b.Unary(OpNot, x) }

// Card is |x|.
func (b *Builder) Card(x Expr) *UnaryExpr { return b.Unary(OpCardinality, x) }

// Binary is l op r.
func (b *Builder) Binary(op BinaryOp, l, r Expr) *BinaryExpr {
	e := &BinaryExpr{Op: op, Left: l, Right: r}
	var t Type = BoolType{}
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod:
		t = l.Type()
	}
	b.expr(e, &e.exprBase, t)
	return e
}

// And is l && r.
func (b *Builder) And(l, r Expr) *BinaryExpr { return b.Binary(OpAnd, l, r) }

// Implies is l ==> r.
func (b *Builder) Implies(l, r Expr) *BinaryExpr { return b.Binary(OpImp, l, r) }

// ITE is if test then thn else els.
func (b *Builder) ITE(test, thn, els Expr) *ITEExpr {
	e := &ITEExpr{Test: test, Thn: thn, Els: els}
	b.expr(e, &e.exprBase, thn.Type())
	return e
}

// Let is var vars := rhss; body.
func (b *Builder) Let(vars []*BoundVar, rhss []Expr, body Expr) *LetExpr {
	if len(vars) != len(rhss) {
		panic(errs.MalformedTree("let with unbalanced variables and right-hand sides"))
	}
	e := &LetExpr{Vars: vars, RHSs: rhss, Body: body}
	b.expr(e, &e.exprBase, body.Type())
	return e
}

// Quantifier creates forall (universal) or exists. rng may be nil.
func (b *Builder) Quantifier(universal bool, vars []*BoundVar, rng, term Expr, attrs Attributes) *QuantifierExpr {
	e := &QuantifierExpr{Universal: universal, BoundVars: vars, Range: rng, Term: term, Attributes: attrs}
	b.expr(e, &e.exprBase, BoolType{})
	return e
}

// Forall is forall vars | rng :: term.
func (b *Builder) Forall(vars []*BoundVar, rng, term Expr, attrs ...*Attribute) *QuantifierExpr {
	return b.Quantifier(true, vars, rng, term, attrs)
}

// Exists is exists vars | rng :: term.
func (b *Builder) Exists(vars []*BoundVar, rng, term Expr, attrs ...*Attribute) *QuantifierExpr {
	return b.Quantifier(false, vars, rng, term, attrs)
}

// Match is match src { cases }.
func (b *Builder) Match(src Expr, cases ...*MatchCaseExpr) *MatchExpr {
	if len(cases) == 0 {
		panic(errs.MalformedTree("match expression without cases"))
	}
	e := &MatchExpr{Source: src, Cases: cases}
	b.expr(e, &e.exprBase, cases[0].Body.Type())
	return e
}

// MatchCase is case ctor(args) => body.
func (b *Builder) MatchCase(ctor *DatatypeCtor, args []*BoundVar, body Expr) *MatchCaseExpr {
	mc := &MatchCaseExpr{Ctor: ctor, Args: args, Body: body}
	b.node(mc, &mc.base)
	return mc
}

// Parens is (x).
func (b *Builder) Parens(x Expr) *ParensExpr {
	e := &ParensExpr{E: x}
	b.expr(e, &e.exprBase, x.Type())
	return e
}

// Attr creates an attribute.
func Attr(name string, args ...Expr) *Attribute {
	return &Attribute{Name: name, Args: args}
}

// =============================================================================
// Statements
// =============================================================================

// Assert is assert e.
func (b *Builder) Assert(e Expr, attrs ...*Attribute) *AssertStmt {
	s := &AssertStmt{E: e, Attributes: attrs}
	b.node(s, &s.base)
	return s
}

// Assume is assume e.
func (b *Builder) Assume(e Expr) *AssumeStmt {
	s := &AssumeStmt{E: e}
	b.node(s, &s.base)
	return s
}

// Print is print args.
func (b *Builder) Print(args ...Expr) *PrintStmt {
	s := &PrintStmt{Args: args}
	b.node(s, &s.base)
	return s
}

// VarDecl declares vars, initialized from rhss when given.
func (b *Builder) VarDecl(vars []*LocalVariable, rhss ...Rhs) *VarDeclStmt {
	if len(rhss) != 0 && len(rhss) != len(vars) {
		panic(errs.MalformedTree("variable declaration with unbalanced right-hand sides"))
	}
	s := &VarDeclStmt{Vars: vars, Rhss: rhss}
	b.node(s, &s.base)
	return s
}

// Assign is lhs := rhs.
func (b *Builder) Assign(lhs Expr, rhs Rhs) *AssignStmt {
	switch l := lhs.(type) {
	case *IdentifierExpr, *FieldSelectExpr, *MultiSelectExpr:
	case *SeqSelectExpr:
		if !l.SelectOne || !IsArrayType(l.Seq.Type()) {
			panic(errs.MalformedTree("assignment to a sequence element"))
		}
	default:
		panic(errs.MalformedTree(fmt.Sprintf("%s is not assignable", lhs)))
	}
	s := &AssignStmt{Lhs: lhs, Rhs: rhs}
	b.node(s, &s.base)
	return s
}

// Call is lhs := recv.m(args).
func (b *Builder) CallStmt(lhs []*IdentifierExpr, recv Expr, m *Method, args ...Expr) *CallStmt {
	if len(lhs) != len(m.Outs) || len(args) != len(m.Ins) {
		panic(errs.MalformedTree(fmt.Sprintf("call of %s with wrong arity", m.FullName())))
	}
	s := &CallStmt{Lhs: lhs, Receiver: recv, Method: m, Args: args}
	b.node(s, &s.base)
	return s
}

// Block is { body }.
func (b *Builder) Block(body ...Stmt) *BlockStmt {
	s := &BlockStmt{Body: body}
	b.node(s, &s.base)
	return s
}

// If is if guard { thn } else els; guard nil means `*`, els may be nil.
func (b *Builder) If(guard Expr, thn *BlockStmt, els Stmt) *IfStmt {
	switch els.(type) {
	case nil, *BlockStmt, *IfStmt:
	default:
		panic(errs.MalformedTree("else branch must be a block or an if statement"))
	}
	s := &IfStmt{Guard: guard, Thn: thn}
	if els != nil {
		s.Els = els
	}
	b.node(s, &s.base)
	return s
}

// While is while guard invariant invs decreases dec { body }.
func (b *Builder) While(guard Expr, invs []*MaybeFree, dec []Expr, body *BlockStmt) *WhileStmt {
	s := &WhileStmt{Guard: guard, Invariants: invs, Decreases: dec, Body: body}
	b.node(s, &s.base)
	return s
}

// Foreach is foreach (x in coll | rng) { assume ...; lhs := rhs }. lhs
// must select a field of x.
func (b *Builder) Foreach(x *BoundVar, coll, rng Expr, assumes []Expr, lhs *FieldSelectExpr, rhs Expr) *ForeachStmt {
	if id, ok := StripParens(lhs.Obj).(*IdentifierExpr); !ok || id.Var != Variable(x) {
		panic(errs.MalformedTree("foreach must update a field of its bound variable"))
	}
	s := &ForeachStmt{BoundVar: x, Collection: coll, Range: rng, Assumes: assumes, Lhs: lhs, Rhs: rhs}
	b.node(s, &s.base)
	return s
}

// MatchStmt is match src { cases }.
func (b *Builder) MatchStmt(src Expr, cases ...*MatchCaseStmt) *MatchStmt {
	s := &MatchStmt{Source: src, Cases: cases}
	b.node(s, &s.base)
	return s
}

// MatchCaseStmt is case ctor(args) => body.
func (b *Builder) MatchCaseStmt(ctor *DatatypeCtor, args []*BoundVar, body ...Stmt) *MatchCaseStmt {
	mc := &MatchCaseStmt{Ctor: ctor, Args: args, Body: body}
	b.node(mc, &mc.base)
	return mc
}

// Return is return.
func (b *Builder) Return() *ReturnStmt {
	s := &ReturnStmt{}
	b.node(s, &s.base)
	return s
}

// Break is break label; label may be empty.
func (b *Builder) Break(label string) *BreakStmt {
	s := &BreakStmt{Label: label}
	b.node(s, &s.base)
	return s
}
