package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// ====== Types ======

func (t *NamedType) String() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	var b strings.Builder
	b.WriteString(t.Name)
	for _, a := range t.Args {
		b.WriteByte(' ')
		if n, ok := a.(*NamedType); ok && len(n.Args) > 0 {
			b.WriteString("(" + a.String() + ")")
		} else {
			b.WriteString(a.String())
		}
	}
	return b.String()
}

func (t *TypeVar) String() string { return t.Name }

func (t *MapType) String() string {
	var b strings.Builder
	if len(t.TypeParams) > 0 {
		b.WriteString("<" + strings.Join(t.TypeParams, ", ") + ">")
	}
	b.WriteByte('[')
	for i, d := range t.Domain {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(d.String())
	}
	b.WriteByte(']')
	b.WriteString(t.Range.String())
	return b.String()
}

// ====== Expressions ======

var binOpText = [...]string{
	Iff: "<==>", Imp: "==>", And: "&&", Or: "||",
	Eq: "==", Neq: "!=", Lt: "<", Le: "<=", Ge: ">=", Gt: ">",
	Add: "+", Sub: "-", Mul: "*", Div: "div", Mod: "mod", Subtype: "<:",
}

func (op BinOp) String() string {
	if int(op) < len(binOpText) {
		return binOpText[op]
	}
	return "binop?"
}

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

func (e *Ident) String() string     { return e.Name }
func (e *BoolLit) String() string   { return strconv.FormatBool(e.Value) }
func (e *IntLit) String() string    { return strconv.FormatInt(e.Value, 10) }
func (e *StringLit) String() string { return strconv.Quote(e.Value) }

func (e *Unary) String() string {
	if e.Op == Not {
		return "!" + e.E.String()
	}
	return "-" + e.E.String()
}

func (e *Binary) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

func (e *FuncApp) String() string { return e.Name + "(" + joinExprs(e.Args) + ")" }

func (e *Select) String() string { return e.Map.String() + "[" + joinExprs(e.Indices) + "]" }

func (e *Store) String() string {
	return e.Map.String() + "[" + joinExprs(e.Indices) + " := " + e.Value.String() + "]"
}

func (e *Coerce) String() string { return "(" + e.E.String() + ": " + e.Type.String() + ")" }

func (e *IfThenElse) String() string {
	return "(if " + e.Cond.String() + " then " + e.Then.String() + " else " + e.Else.String() + ")"
}

func (e *Old) String() string { return "old(" + e.E.String() + ")" }

func (v *Var) String() string {
	s := v.Name + ": " + v.Type.String()
	if v.Where != nil {
		s += " where " + v.Where.String()
	}
	return s
}

func varList(vs []*Var, withWhere bool) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		switch {
		case v.Name == "":
			parts[i] = v.Type.String()
		case withWhere:
			parts[i] = v.String()
		default:
			parts[i] = v.Name + ": " + v.Type.String()
		}
	}
	return strings.Join(parts, ", ")
}

func (a *Attr) String() string {
	if len(a.Args) == 0 {
		return "{:" + a.Name + "}"
	}
	return "{:" + a.Name + " " + joinExprs(a.Args) + "}"
}

func attrList(as []*Attr) string {
	var b strings.Builder
	for _, a := range as {
		b.WriteString(a.String())
		b.WriteByte(' ')
	}
	return b.String()
}

func (q *Quantifier) String() string {
	var b strings.Builder
	b.WriteByte('(')
	if q.Universal {
		b.WriteString("forall ")
	} else {
		b.WriteString("exists ")
	}
	if len(q.TypeParams) > 0 {
		b.WriteString("<" + strings.Join(q.TypeParams, ", ") + "> ")
	}
	b.WriteString(varList(q.Vars, false))
	b.WriteString(" :: ")
	b.WriteString(attrList(q.Attrs))
	for _, tr := range q.Triggers {
		b.WriteString("{ " + joinExprs(tr) + " } ")
	}
	b.WriteString(q.Body.String())
	b.WriteByte(')')
	return b.String()
}

// ====== Commands ======

type printer struct {
	b      strings.Builder
	indent int
}

func (p *printer) line(format string, args ...interface{}) {
	p.b.WriteString(strings.Repeat("  ", p.indent))
	fmt.Fprintf(&p.b, format, args...)
	p.b.WriteByte('\n')
}

func (p *printer) cmds(cs []Cmd) {
	for _, c := range cs {
		p.cmd(c)
	}
}

func guardText(g Expr) string {
	if g == nil {
		return "*"
	}
	return g.String()
}

func (p *printer) cmd(c Cmd) {
	switch c := c.(type) {
	case *AssertCmd:
		attrs := attrList(c.Attrs)
		if c.Msg != "" {
			attrs = "{:msg " + strconv.Quote(c.Msg) + "} " + attrs
		}
		p.line("assert %s%s;", attrs, c.E)
	case *AssumeCmd:
		p.line("assume %s;", c.E)
	case *HavocCmd:
		p.line("havoc %s;", strings.Join(c.Vars, ", "))
	case *AssignCmd:
		p.line("%s := %s;", strings.Join(c.Lhs, ", "), joinExprs(c.Rhs))
	case *CallCmd:
		if len(c.Outs) > 0 {
			p.line("call %s := %s(%s);", strings.Join(c.Outs, ", "), c.Proc, joinExprs(c.Ins))
		} else {
			p.line("call %s(%s);", c.Proc, joinExprs(c.Ins))
		}
	case *IfCmd:
		p.ifCmd(c, "")
	case *WhileCmd:
		label := ""
		if c.Label != "" {
			label = c.Label + ": "
		}
		p.line("%swhile (%s)", label, guardText(c.Guard))
		p.indent++
		for _, inv := range c.Invariants {
			if inv.Free {
				p.line("free invariant %s;", inv.E)
			} else {
				p.line("invariant %s;", inv.E)
			}
		}
		p.indent--
		p.line("{")
		p.block(c.Body)
		p.line("}")
	case *BreakCmd:
		if c.Label != "" {
			p.line("break %s;", c.Label)
		} else {
			p.line("break;")
		}
	case *ReturnCmd:
		p.line("return;")
	case *CommentCmd:
		p.line("// %s", c.Text)
	case *Block:
		p.cmds(c.Cmds)
	default:
		p.line("// unknown command %T", c)
	}
}

func (p *printer) block(b *Block) {
	p.indent++
	if b != nil {
		p.cmds(b.Cmds)
	}
	p.indent--
}

func (p *printer) ifCmd(c *IfCmd, prefix string) {
	p.line("%sif (%s)", prefix, guardText(c.Guard))
	p.line("{")
	p.block(c.Thn)
	switch els := c.Els.(type) {
	case nil:
		p.line("}")
	case *IfCmd:
		p.line("}")
		p.ifCmd(els, "else ")
	case *Block:
		p.line("}")
		p.line("else")
		p.line("{")
		p.block(els)
		p.line("}")
	}
}

func cmdString(c Cmd) string {
	var p printer
	p.cmd(c)
	return strings.TrimSuffix(p.b.String(), "\n")
}

func (c *AssertCmd) String() string  { return cmdString(c) }
func (c *AssumeCmd) String() string  { return cmdString(c) }
func (c *HavocCmd) String() string   { return cmdString(c) }
func (c *AssignCmd) String() string  { return cmdString(c) }
func (c *CallCmd) String() string    { return cmdString(c) }
func (c *IfCmd) String() string      { return cmdString(c) }
func (c *WhileCmd) String() string   { return cmdString(c) }
func (c *BreakCmd) String() string   { return cmdString(c) }
func (c *ReturnCmd) String() string  { return cmdString(c) }
func (c *CommentCmd) String() string { return cmdString(c) }
func (c *Block) String() string      { return cmdString(c) }

// ====== Declarations ======

func (d *TypeDecl) String() string {
	return "type " + d.Name + strings.Repeat(" _", d.Arity) + ";"
}

func (d *ConstDecl) String() string {
	if d.Unique {
		return fmt.Sprintf("const unique %s: %s;", d.Name, d.Type)
	}
	return fmt.Sprintf("const %s: %s;", d.Name, d.Type)
}

func (d *FuncDecl) String() string {
	s := fmt.Sprintf("function %s%s(%s): %s", attrList(d.Attrs), d.Name, varList(d.Params, false), d.Result)
	if d.Body != nil {
		return s + " { " + d.Body.String() + " }"
	}
	return s + ";"
}

func (d *AxiomDecl) String() string {
	if d.Comment != "" {
		return "// " + d.Comment + "\naxiom " + d.E.String() + ";"
	}
	return "axiom " + d.E.String() + ";"
}

func (d *ProcDecl) String() string {
	var p printer
	header := fmt.Sprintf("procedure %s(%s)", d.Name, varList(d.Ins, true))
	if len(d.Outs) > 0 {
		p.line("%s", header)
		p.line("  returns (%s);", varList(d.Outs, true))
	} else {
		p.line("%s;", header)
	}
	p.indent++
	specs := func(kw string, ss []*Spec) {
		for _, s := range ss {
			if s.Comment != "" {
				p.line("// %s", s.Comment)
			}
			if s.Free {
				p.line("free %s %s;", kw, s.E)
			} else {
				p.line("%s %s;", kw, s.E)
			}
		}
	}
	specs("requires", d.Requires)
	if len(d.Modifies) > 0 {
		p.line("modifies %s;", strings.Join(d.Modifies, ", "))
	}
	specs("ensures", d.Ensures)
	return strings.TrimSuffix(p.b.String(), "\n")
}

func (d *ImplDecl) String() string {
	var p printer
	header := fmt.Sprintf("implementation %s(%s)", d.Name, varList(d.Ins, false))
	if len(d.Outs) > 0 {
		header += " returns (" + varList(d.Outs, false) + ")"
	}
	p.line("%s", header)
	p.line("{")
	p.indent++
	for _, l := range d.Locals {
		p.line("var %s;", l)
	}
	if len(d.Locals) > 0 {
		p.b.WriteByte('\n')
	}
	p.indent--
	p.block(d.Body)
	p.line("}")
	return strings.TrimSuffix(p.b.String(), "\n")
}

func (d *GlobalDecl) String() string  { return "var " + d.Var.String() + ";" }
func (d *CommentDecl) String() string { return "// " + d.Text }

func (p *Program) String() string {
	if p == nil {
		return "<nil-program>"
	}
	var b strings.Builder
	if p.Prelude != "" {
		b.WriteString(p.Prelude)
		if !strings.HasSuffix(p.Prelude, "\n") {
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	for _, d := range p.Decls {
		b.WriteString(d.String())
		b.WriteString("\n\n")
	}
	return b.String()
}
