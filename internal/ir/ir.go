// Package ir defines the verification IR emitted by the translator: a
// Boogie-dialect first-order language of typed constants, functions,
// axioms, procedures and structured command bodies.
// Every node prints itself as Boogie text.
package ir

// =============================================================================
// Types
// =============================================================================

// Type is an IR sort.
type Type interface {
	isType()
	String() string
}

// NamedType is a sort applied to arguments, e.g. `int`, `Field bool`,
// `Set BoxType`.
type NamedType struct {
	Name string
	Args []Type
}

// TypeVar is a type variable bound by a polymorphic map or axiom.
type TypeVar struct {
	Name string
}

// MapType is `<params>[domain]range`.
type MapType struct {
	TypeParams []string
	Domain     []Type
	Range      Type
}

func (*NamedType) isType() {}
func (*TypeVar) isType()   {}
func (*MapType) isType()   {}

// Predefined sorts shared with the prelude.
var (
	Bool      Type = &NamedType{Name: "bool"}
	Int       Type = &NamedType{Name: "int"}
	Ref       Type = &NamedType{Name: "ref"}
	BoxType   Type = &NamedType{Name: "BoxType"}
	ClassName Type = &NamedType{Name: "ClassName"}
	Heap      Type = &NamedType{Name: "HeapType"}
	TyTag     Type = &NamedType{Name: "TyTag"}
	Datatype  Type = &NamedType{Name: "DatatypeType"}
	DtCtorId  Type = &NamedType{Name: "DtCtorId"}
	NameFam   Type = &NamedType{Name: "NameFamily"}
	SetOfBox  Type = &NamedType{Name: "Set", Args: []Type{BoxType}}
	SeqOfBox  Type = &NamedType{Name: "Seq", Args: []Type{BoxType}}
	MapOfBox  Type = &NamedType{Name: "Map", Args: []Type{BoxType, BoxType}}
)

// FieldType returns `Field t`.
func FieldType(t Type) Type { return &NamedType{Name: "Field", Args: []Type{t}} }

// =============================================================================
// Expressions
// =============================================================================

// Expr is an IR term or formula.
type Expr interface {
	isExpr()
	String() string
}

// Ident names a constant, variable or bound variable.
type Ident struct {
	Name string
}

// BoolLit is true or false.
type BoolLit struct {
	Value bool
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64
}

// StringLit only appears in attributes.
type StringLit struct {
	Value string
}

// UnaryOp enumerates unary operators.
type UnaryOp int

const (
	Not UnaryOp = iota
	Neg
)

// Unary is !e or -e.
type Unary struct {
	Op UnaryOp
	E  Expr
}

// BinOp enumerates binary operators.
type BinOp int

const (
	Iff BinOp = iota
	Imp
	And
	Or
	Eq
	Neq
	Lt
	Le
	Ge
	Gt
	Add
	Sub
	Mul
	Div
	Mod
	Subtype
)

// Binary is l op r.
type Binary struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

// FuncApp applies a function symbol.
type FuncApp struct {
	Name string
	Args []Expr
}

// Select is m[i, j].
type Select struct {
	Map     Expr
	Indices []Expr
}

// Store is m[i, j := v].
type Store struct {
	Map     Expr
	Indices []Expr
	Value   Expr
}

// Coerce is (e: T), used to pin the result sort of polymorphic functions.
type Coerce struct {
	E    Expr
	Type Type
}

// IfThenElse is (if c then t else e).
type IfThenElse struct {
	Cond Expr
	Then Expr
	Else Expr
}

// Old evaluates E in the procedure pre-state.
type Old struct {
	E Expr
}

// Var is a typed variable: a bound variable, a formal, a local or a global.
// Where is the optional where clause of a formal, local or global.
type Var struct {
	Name  string
	Type  Type
	Where Expr
}

// Quantifier is forall or exists with optional triggers.
type Quantifier struct {
	Universal  bool
	TypeParams []string
	Vars       []*Var
	Attrs      []*Attr
	Triggers   [][]Expr
	Body       Expr
}

// Attr is `{:name args}`.
type Attr struct {
	Name string
	Args []Expr
}

func (*Ident) isExpr()      {}
func (*BoolLit) isExpr()    {}
func (*IntLit) isExpr()     {}
func (*StringLit) isExpr()  {}
func (*Unary) isExpr()      {}
func (*Binary) isExpr()     {}
func (*FuncApp) isExpr()    {}
func (*Select) isExpr()     {}
func (*Store) isExpr()      {}
func (*Coerce) isExpr()     {}
func (*IfThenElse) isExpr() {}
func (*Old) isExpr()        {}
func (*Quantifier) isExpr() {}

// =============================================================================
// Commands
// =============================================================================

// Cmd is a structured command of an implementation body.
type Cmd interface {
	isCmd()
	String() string
}

// AssertCmd is an obligation. Msg names the failure for the user.
type AssertCmd struct {
	E     Expr
	Msg   string
	Attrs []*Attr
}

// AssumeCmd is a free fact.
type AssumeCmd struct {
	E Expr
}

// HavocCmd assigns arbitrary values.
type HavocCmd struct {
	Vars []string
}

// AssignCmd is a parallel assignment.
type AssignCmd struct {
	Lhs []string
	Rhs []Expr
}

// CallCmd calls a procedure.
type CallCmd struct {
	Proc string
	Ins  []Expr
	Outs []string
}

// IfCmd is if (Guard) Thn else Els. A nil Guard is `*`; Els is nil,
// a *Block or an *IfCmd.
type IfCmd struct {
	Guard Expr
	Thn   *Block
	Els   Cmd
}

// Invariant is a loop invariant, possibly free.
type Invariant struct {
	E    Expr
	Free bool
}

// WhileCmd is a loop. A nil Guard is `*`.
type WhileCmd struct {
	Label      string
	Guard      Expr
	Invariants []*Invariant
	Body       *Block
}

// BreakCmd leaves the labeled loop, or the innermost one.
type BreakCmd struct {
	Label string
}

// ReturnCmd leaves the implementation.
type ReturnCmd struct{}

// CommentCmd is emitted verbatim as a line comment.
type CommentCmd struct {
	Text string
}

// Block is a command sequence.
type Block struct {
	Cmds []Cmd
}

// Add appends commands.
func (b *Block) Add(cmds ...Cmd) { b.Cmds = append(b.Cmds, cmds...) }

func (*AssertCmd) isCmd()  {}
func (*AssumeCmd) isCmd()  {}
func (*HavocCmd) isCmd()   {}
func (*AssignCmd) isCmd()  {}
func (*CallCmd) isCmd()    {}
func (*IfCmd) isCmd()      {}
func (*WhileCmd) isCmd()   {}
func (*BreakCmd) isCmd()   {}
func (*ReturnCmd) isCmd()  {}
func (*CommentCmd) isCmd() {}
func (*Block) isCmd()      {}

// =============================================================================
// Declarations
// =============================================================================

// Decl is a top-level declaration.
type Decl interface {
	isDecl()
	String() string
}

// TypeDecl declares an uninterpreted sort.
type TypeDecl struct {
	Name  string
	Arity int
}

// ConstDecl declares a constant.
type ConstDecl struct {
	Name   string
	Type   Type
	Unique bool
}

// FuncDecl declares a function, optionally with a body.
type FuncDecl struct {
	Name   string
	Attrs  []*Attr
	Params []*Var
	Result Type
	Body   Expr
}

// AxiomDecl states an unconditional fact.
type AxiomDecl struct {
	Comment string
	E       Expr
}

// Spec is a requires or ensures clause.
type Spec struct {
	E       Expr
	Free    bool
	Comment string
}

// ProcDecl declares a procedure signature.
type ProcDecl struct {
	Name     string
	Ins      []*Var
	Outs     []*Var
	Requires []*Spec
	Modifies []string
	Ensures  []*Spec
}

// ImplDecl is a procedure body.
type ImplDecl struct {
	Name   string
	Ins    []*Var
	Outs   []*Var
	Locals []*Var
	Body   *Block
}

// GlobalDecl declares a global variable.
type GlobalDecl struct {
	Var *Var
}

// CommentDecl is a top-level comment line.
type CommentDecl struct {
	Text string
}

func (*TypeDecl) isDecl()    {}
func (*ConstDecl) isDecl()   {}
func (*FuncDecl) isDecl()    {}
func (*AxiomDecl) isDecl()   {}
func (*ProcDecl) isDecl()    {}
func (*ImplDecl) isDecl()    {}
func (*GlobalDecl) isDecl()  {}
func (*CommentDecl) isDecl() {}

// Program is a translated program.
type Program struct {
	Prelude string
	Decls   []Decl
}

// Add appends declarations.
func (p *Program) Add(ds ...Decl) { p.Decls = append(p.Decls, ds...) }
