package ast

import (
	"strconv"
	"strings"
)

var binaryOpText = map[BinaryOp]string{
	OpIff: "<==>", OpImp: "==>", OpAnd: "&&", OpOr: "||",
	OpEq: "==", OpNeq: "!=", OpLt: "<", OpLe: "<=", OpGe: ">=", OpGt: ">",
	OpAdd: "+", OpSub: "-", OpMul: "*", OpDiv: "/", OpMod: "%",
	OpIn: "in", OpNotIn: "!in", OpDisjoint: "!!",
}

func (op BinaryOp) String() string { return binaryOpText[op] }

func (op UnaryOp) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpNeg:
		return "-"
	}
	return "|_|"
}

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

func joinBound(vs []*BoundVar) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

func (e *LiteralExpr) String() string {
	switch e.Kind {
	case LitNull:
		return "null"
	case LitBool:
		return strconv.FormatBool(e.Bool)
	}
	return strconv.FormatInt(e.Int, 10)
}

func (e *ThisExpr) String() string       { return "this" }
func (e *IdentifierExpr) String() string { return e.Var.VarName() }

func (e *FieldSelectExpr) String() string {
	return e.Obj.String() + "." + e.Field.Name
}

func (e *SeqSelectExpr) String() string {
	if e.SelectOne {
		return e.Seq.String() + "[" + e.E0.String() + "]"
	}
	var b strings.Builder
	b.WriteString(e.Seq.String())
	b.WriteByte('[')
	if e.E0 != nil {
		b.WriteString(e.E0.String())
	}
	b.WriteString("..")
	if e.E1 != nil {
		b.WriteString(e.E1.String())
	}
	b.WriteByte(']')
	return b.String()
}

func (e *MultiSelectExpr) String() string {
	return e.Array.String() + "[" + joinExprs(e.Indices) + "]"
}

func (e *SeqUpdateExpr) String() string {
	return e.Seq.String() + "[" + e.Index.String() + " := " + e.Value.String() + "]"
}

func (e *FunctionCallExpr) String() string {
	name := e.Function.Name
	if e.Receiver != nil {
		name = e.Receiver.String() + "." + name
	}
	return name + "(" + joinExprs(e.Args) + ")"
}

func (e *DatatypeValue) String() string {
	if len(e.Args) == 0 {
		return e.Ctor.Name
	}
	return e.Ctor.Name + "(" + joinExprs(e.Args) + ")"
}

func (e *DisplayExpr) String() string {
	if e.Kind == SetDisplay {
		return "{" + joinExprs(e.Elements) + "}"
	}
	return "[" + joinExprs(e.Elements) + "]"
}

func (e *MapDisplayExpr) String() string {
	parts := make([]string, len(e.Keys))
	for i := range e.Keys {
		parts[i] = e.Keys[i].String() + " := " + e.Values[i].String()
	}
	return "map[" + strings.Join(parts, ", ") + "]"
}

func (e *OldExpr) String() string   { return "old(" + e.E.String() + ")" }
func (e *FreshExpr) String() string { return "fresh(" + e.E.String() + ")" }

func (e *UnaryExpr) String() string {
	if e.Op == OpCardinality {
		return "|" + e.E.String() + "|"
	}
	return e.Op.String() + e.E.String()
}

func (e *BinaryExpr) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

func (e *ITEExpr) String() string {
	return "(if " + e.Test.String() + " then " + e.Thn.String() + " else " + e.Els.String() + ")"
}

func (e *LetExpr) String() string {
	names := make([]string, len(e.Vars))
	for i, v := range e.Vars {
		names[i] = v.Name
	}
	return "(var " + strings.Join(names, ", ") + " := " + joinExprs(e.RHSs) + "; " + e.Body.String() + ")"
}

func (e *QuantifierExpr) String() string {
	var b strings.Builder
	b.WriteByte('(')
	if e.Universal {
		b.WriteString("forall ")
	} else {
		b.WriteString("exists ")
	}
	b.WriteString(joinBound(e.BoundVars))
	if len(e.Attributes) > 0 {
		b.WriteByte(' ')
		b.WriteString(e.Attributes.String())
	}
	if e.Range != nil {
		b.WriteString(" | ")
		b.WriteString(e.Range.String())
	}
	b.WriteString(" :: ")
	b.WriteString(e.Term.String())
	b.WriteByte(')')
	return b.String()
}

func (e *MatchExpr) String() string {
	var b strings.Builder
	b.WriteString("(match ")
	b.WriteString(e.Source.String())
	for _, c := range e.Cases {
		b.WriteString(" case ")
		b.WriteString(c.Ctor.Name)
		if len(c.Args) > 0 {
			names := make([]string, len(c.Args))
			for i, a := range c.Args {
				names[i] = a.Name
			}
			b.WriteString("(" + strings.Join(names, ", ") + ")")
		}
		b.WriteString(" => ")
		b.WriteString(c.Body.String())
	}
	b.WriteByte(')')
	return b.String()
}

func (e *ParensExpr) String() string { return "(" + e.E.String() + ")" }

// Statements print as a single line; they only show up in logs.

func (s *AssertStmt) String() string { return "assert " + s.E.String() + ";" }
func (s *AssumeStmt) String() string { return "assume " + s.E.String() + ";" }
func (s *PrintStmt) String() string  { return "print " + joinExprs(s.Args) + ";" }

func (s *VarDeclStmt) String() string {
	names := make([]string, len(s.Vars))
	for i, v := range s.Vars {
		names[i] = v.Name
	}
	out := "var " + strings.Join(names, ", ")
	if len(s.Rhss) > 0 {
		rhss := make([]string, len(s.Rhss))
		for i, r := range s.Rhss {
			rhss[i] = r.String()
		}
		out += " := " + strings.Join(rhss, ", ")
	}
	return out + ";"
}

func (r *ExprRhs) String() string  { return r.E.String() }
func (r *HavocRhs) String() string { return "*" }
func (r *TypeRhs) String() string {
	if len(r.ArrayDims) == 0 {
		return "new " + r.Type.String()
	}
	return "new " + r.Type.String() + "[" + joinExprs(r.ArrayDims) + "]"
}

func (s *AssignStmt) String() string { return s.Lhs.String() + " := " + s.Rhs.String() + ";" }

func (s *CallStmt) String() string {
	var b strings.Builder
	if len(s.Lhs) > 0 {
		names := make([]string, len(s.Lhs))
		for i, l := range s.Lhs {
			names[i] = l.String()
		}
		b.WriteString(strings.Join(names, ", "))
		b.WriteString(" := ")
	}
	if s.Receiver != nil {
		b.WriteString(s.Receiver.String())
		b.WriteByte('.')
	}
	b.WriteString(s.Method.Name)
	b.WriteString("(" + joinExprs(s.Args) + ");")
	return b.String()
}

func (s *BlockStmt) String() string {
	parts := make([]string, len(s.Body))
	for i, st := range s.Body {
		parts[i] = st.String()
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

func (s *IfStmt) String() string {
	guard := "*"
	if s.Guard != nil {
		guard = s.Guard.String()
	}
	out := "if " + guard + " " + s.Thn.String()
	if s.Els != nil {
		out += " else " + s.Els.String()
	}
	return out
}

func (s *WhileStmt) String() string {
	guard := "*"
	if s.Guard != nil {
		guard = s.Guard.String()
	}
	out := "while " + guard
	if s.Label != "" {
		out = s.Label + ": " + out
	}
	return out + " " + s.Body.String()
}

func (s *ForeachStmt) String() string {
	out := "foreach (" + s.BoundVar.Name + " in " + s.Collection.String()
	if s.Range != nil {
		out += " | " + s.Range.String()
	}
	return out + ") { " + s.Lhs.String() + " := " + s.Rhs.String() + "; }"
}

func (s *MatchStmt) String() string { return "match " + s.Source.String() + " { ... }" }
func (s *ReturnStmt) String() string { return "return;" }

func (s *BreakStmt) String() string {
	if s.Label != "" {
		return "break " + s.Label + ";"
	}
	return "break;"
}
