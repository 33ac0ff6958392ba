package ast

// =============================================================================
// Statements
// =============================================================================

// Stmt is a method-body statement.
type Stmt interface {
	Node
	stmtNode()
}

type stmtBase struct {
	base
}

func (s *stmtBase) stmtNode() {}

// AssertStmt is assert E.
type AssertStmt struct {
	stmtBase
	E          Expr
	Attributes Attributes
}

// AssumeStmt is assume E.
type AssumeStmt struct {
	stmtBase
	E Expr
}

// PrintStmt is print e0, e1. It only has well-formedness obligations.
type PrintStmt struct {
	stmtBase
	Args []Expr
}

// VarDeclStmt declares locals, optionally initialized pairwise from Rhss.
type VarDeclStmt struct {
	stmtBase
	Vars []*LocalVariable
	Rhss []Rhs
}

// Rhs is the right-hand side of an assignment.
type Rhs interface {
	String() string
	rhsNode()
}

// ExprRhs assigns the value of an expression.
type ExprRhs struct {
	E Expr
}

// HavocRhs assigns an arbitrary value (`*`).
type HavocRhs struct{}

// TypeRhs allocates. With no ArrayDims it is `new C`; otherwise it is
// `new T[d0, d1, ...]` with T the element type.
type TypeRhs struct {
	Type      Type
	ArrayDims []Expr
}

func (*ExprRhs) rhsNode()  {}
func (*HavocRhs) rhsNode() {}
func (*TypeRhs) rhsNode()  {}

// AllocatedType returns the type of the allocated reference.
func (r *TypeRhs) AllocatedType(p *Program) Type {
	if len(r.ArrayDims) == 0 {
		return r.Type
	}
	return &ClassType{Class: p.ArrayClass(len(r.ArrayDims)), TypeArgs: []Type{r.Type}}
}

// AssignStmt is Lhs := Rhs. Lhs is an IdentifierExpr, a FieldSelectExpr,
// a single-index SeqSelectExpr on an array, or a MultiSelectExpr.
type AssignStmt struct {
	stmtBase
	Lhs Expr
	Rhs Rhs
}

// CallStmt is lhs := r.M(args). Receiver is nil for static methods.
type CallStmt struct {
	stmtBase
	Lhs      []*IdentifierExpr
	Receiver Expr
	Method   *Method
	Args     []Expr
}

// BlockStmt is { ... }.
type BlockStmt struct {
	stmtBase
	Body []Stmt
}

// IfStmt is if Guard { Thn } else Els. A nil Guard is the
// nondeterministic `if *`. Els is nil, a *BlockStmt or an *IfStmt.
type IfStmt struct {
	stmtBase
	Guard Expr
	Thn   *BlockStmt
	Els   Stmt
}

// WhileStmt is a loop. A nil Guard is `while *`.
type WhileStmt struct {
	stmtBase
	Label             string
	Guard             Expr
	Invariants        []*MaybeFree
	Decreases         []Expr
	DecreasesWildcard bool
	Body              *BlockStmt
}

// ForeachStmt is foreach (x in Collection | Range) { assume ...; x.f := Rhs }.
// It updates Field on every selected object in one step.
type ForeachStmt struct {
	stmtBase
	BoundVar   *BoundVar
	Collection Expr
	Range      Expr
	Assumes    []Expr
	Lhs        *FieldSelectExpr
	Rhs        Expr
}

// MatchStmt is match Source { case C(x) => ... }.
type MatchStmt struct {
	stmtBase
	Source Expr
	Cases  []*MatchCaseStmt
}

// MatchCaseStmt is one case of a MatchStmt.
type MatchCaseStmt struct {
	base
	Ctor *DatatypeCtor
	Args []*BoundVar
	Body []Stmt
}

func (mc *MatchCaseStmt) String() string { return "case " + mc.Ctor.Name }

// ReturnStmt leaves the method.
type ReturnStmt struct {
	stmtBase
}

// BreakStmt leaves the loop labeled Label, or the innermost loop.
type BreakStmt struct {
	stmtBase
	Label string
}
