package ast

// =============================================================================
// Expressions
// =============================================================================

// Expr is a resolved expression. Every variant carries its type.
type Expr interface {
	Node
	Type() Type
	exprNode()
}

type exprBase struct {
	base
	typ Type
}

func (e *exprBase) Type() Type { return e.typ }
func (e *exprBase) exprNode()  {}

// LitKind tells literal kinds apart.
type LitKind int

const (
	LitNull LitKind = iota
	LitBool
	LitInt
)

// LiteralExpr is null, a boolean or an integer literal.
type LiteralExpr struct {
	exprBase
	Kind LitKind
	Bool bool
	Int  int64
}

// ThisExpr is the receiver of the enclosing member.
type ThisExpr struct {
	exprBase
}

// IdentifierExpr refers to a variable.
type IdentifierExpr struct {
	exprBase
	Var Variable
}

// FieldSelectExpr is o.f.
type FieldSelectExpr struct {
	exprBase
	Obj   Expr
	Field *Field
}

// SeqSelectExpr is s[i] when SelectOne is set, and otherwise the slice
// s[E0..E1] with either bound optional. It also covers single-dimensional
// array indexing and map lookup.
type SeqSelectExpr struct {
	exprBase
	Seq       Expr
	SelectOne bool
	E0        Expr
	E1        Expr
}

// MultiSelectExpr is a[i, j, ...] on a multi-dimensional array.
type MultiSelectExpr struct {
	exprBase
	Array   Expr
	Indices []Expr
}

// SeqUpdateExpr is s[i := v] on a sequence or m[k := v] on a map.
type SeqUpdateExpr struct {
	exprBase
	Seq   Expr
	Index Expr
	Value Expr
}

// FunctionCallExpr calls a function. Receiver is nil for static functions.
type FunctionCallExpr struct {
	exprBase
	Receiver Expr
	Function *Function
	Args     []Expr
}

// DatatypeValue applies a datatype constructor.
type DatatypeValue struct {
	exprBase
	Ctor *DatatypeCtor
	Args []Expr
}

// DisplayKind tells collection displays apart.
type DisplayKind int

const (
	SetDisplay DisplayKind = iota
	SeqDisplay
)

// DisplayExpr is {a, b} or [a, b].
type DisplayExpr struct {
	exprBase
	Kind     DisplayKind
	Elements []Expr
}

// MapDisplayExpr is map[k0 := v0, ...].
type MapDisplayExpr struct {
	exprBase
	Keys   []Expr
	Values []Expr
}

// OldExpr evaluates E in the pre-state of the enclosing method.
type OldExpr struct {
	exprBase
	E Expr
}

// FreshExpr holds when every object denoted by E was allocated since the
// pre-state.
type FreshExpr struct {
	exprBase
	E Expr
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	OpNot UnaryOp = iota
	OpNeg
	OpCardinality
)

// UnaryExpr is !e, -e or |e|.
type UnaryExpr struct {
	exprBase
	Op UnaryOp
	E  Expr
}

// BinaryOp enumerates binary operators. The translator resolves the
// operation by the operand types.
type BinaryOp int

const (
	OpIff BinaryOp = iota
	OpImp
	OpAnd
	OpOr
	OpEq
	OpNeq
	OpLt
	OpLe
	OpGe
	OpGt
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpIn
	OpNotIn
	OpDisjoint
)

// IsBooleanConnective reports whether op combines formulas.
func (op BinaryOp) IsBooleanConnective() bool {
	switch op {
	case OpIff, OpImp, OpAnd, OpOr:
		return true
	}
	return false
}

// BinaryExpr is e0 op e1.
type BinaryExpr struct {
	exprBase
	Op    BinaryOp
	Left  Expr
	Right Expr
}

// ITEExpr is if Test then Thn else Els.
type ITEExpr struct {
	exprBase
	Test Expr
	Thn  Expr
	Els  Expr
}

// LetExpr is var x, y := e0, e1; Body.
type LetExpr struct {
	exprBase
	Vars []*BoundVar
	RHSs []Expr
	Body Expr
}

// QuantifierExpr is forall or exists. Range may be nil.
type QuantifierExpr struct {
	exprBase
	Universal  bool
	BoundVars  []*BoundVar
	Range      Expr
	Term       Expr
	Attributes Attributes

	// SplitQuantifier holds the independently triggerable parts whose
	// conjunction (forall) or disjunction (exists) is this quantifier.
	SplitQuantifier []*QuantifierExpr
}

// Triggers returns the terms of every {:trigger} attribute.
func (q *QuantifierExpr) Triggers() [][]Expr {
	var out [][]Expr
	for _, a := range q.Attributes.FindAll("trigger") {
		out = append(out, a.Args)
	}
	return out
}

// MatchExpr is match Source { case C(x) => e ... }.
type MatchExpr struct {
	exprBase
	Source Expr
	Cases  []*MatchCaseExpr
}

// MatchCaseExpr is one case of a MatchExpr.
type MatchCaseExpr struct {
	base
	Ctor *DatatypeCtor
	Args []*BoundVar
	Body Expr
}

func (mc *MatchCaseExpr) String() string { return "case " + mc.Ctor.Name }

// ParensExpr keeps concrete syntax around an expression; it means E.
type ParensExpr struct {
	exprBase
	E Expr
}

// StripParens removes ParensExpr wrappers.
func StripParens(e Expr) Expr {
	for {
		p, ok := e.(*ParensExpr)
		if !ok {
			return e
		}
		e = p.E
	}
}
