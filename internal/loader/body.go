package loader

import (
	"github.com/orizon-lang/orizon-verify/internal/ast"
)

var binaryOps = map[string]ast.BinaryOp{}

func init() {
	for op := ast.OpIff; op <= ast.OpDisjoint; op++ {
		binaryOps[op.String()] = op
	}
}

// ====== Expressions ======

func (d *decoder) exprs(docs []*exprDoc) []ast.Expr {
	out := make([]ast.Expr, len(docs))
	for i, e := range docs {
		out[i] = d.expr(e)
	}
	return out
}

// optExpr decodes an expression that may be absent.
func (d *decoder) optExpr(e *exprDoc) ast.Expr {
	if e == nil {
		return nil
	}
	return d.expr(e)
}

// operands checks the operand count of e and decodes them. Absent
// operands stay nil.
func (d *decoder) operands(e *exprDoc, want int) []ast.Expr {
	if want >= 0 && len(e.Args) != want {
		d.fail("%s expression takes %d operands, got %d", e.Kind, want, len(e.Args))
	}
	out := make([]ast.Expr, len(e.Args))
	for i, a := range e.Args {
		out[i] = d.optExpr(a)
	}
	return out
}

func (d *decoder) operand(e *exprDoc) ast.Expr {
	x := d.operands(e, 1)[0]
	if x == nil {
		d.fail("%s expression without operand", e.Kind)
	}
	return x
}

func (d *decoder) expr(e *exprDoc) ast.Expr {
	if e == nil {
		d.fail("missing expression")
	}
	b := d.b
	switch e.Kind {
	case "null":
		return b.Null()
	case "bool":
		return b.Bool(e.Bool)
	case "int":
		return b.Int(e.Int)
	case "this":
		c := d.class
		if e.Ref != "" {
			var ok bool
			if c, ok = d.classes[e.Ref]; !ok {
				d.fail("unknown class %q", e.Ref)
			}
		}
		if c == nil {
			d.fail("this outside a class")
		}
		return b.This(c)
	case "var":
		return b.Ident(d.variable(e.Ref))
	case "field":
		return b.Select(d.operand(e), d.field(e.Ref))
	case "index":
		xs := d.operands(e, 2)
		return b.Index(xs[0], xs[1])
	case "slice":
		xs := d.operands(e, 3)
		return b.Slice(xs[0], xs[1], xs[2])
	case "multi":
		xs := d.operands(e, -1)
		if len(xs) < 2 {
			d.fail("multi-index needs an array and indices")
		}
		return b.MultiIndex(xs[0], xs[1:]...)
	case "update":
		xs := d.operands(e, 3)
		return b.Update(xs[0], xs[1], xs[2])
	case "call":
		f, ok := d.functions[e.Ref]
		if !ok {
			d.fail("unknown function %q", e.Ref)
		}
		return b.Call(d.optExpr(e.Recv), f, d.exprs(e.Args)...)
	case "ctor":
		return b.Construct(d.ctor(e.Ref), d.types(e.TypeArgs), d.exprs(e.Args)...)
	case "set":
		return b.SetDisplay(d.typ(e.Type), d.exprs(e.Args)...)
	case "seq":
		return b.SeqDisplay(d.typ(e.Type), d.exprs(e.Args)...)
	case "map":
		if len(e.Args)%2 != 0 {
			d.fail("map display needs key and value pairs")
		}
		xs := d.exprs(e.Args)
		var keys, values []ast.Expr
		for i := 0; i < len(xs); i += 2 {
			keys = append(keys, xs[i])
			values = append(values, xs[i+1])
		}
		return b.MapDisplay(d.typ(e.Type), d.typ(e.Value), keys, values)
	case "old":
		return b.Old(d.operand(e))
	case "fresh":
		return b.Fresh(d.operand(e))
	case "not":
		return b.Not(d.operand(e))
	case "neg":
		return b.Unary(ast.OpNeg, d.operand(e))
	case "card":
		return b.Card(d.operand(e))
	case "parens":
		return b.Parens(d.operand(e))
	case "binary":
		op, ok := binaryOps[e.Op]
		if !ok {
			d.fail("unknown binary operator %q", e.Op)
		}
		xs := d.operands(e, 2)
		return b.Binary(op, xs[0], xs[1])
	case "ite":
		xs := d.operands(e, 3)
		return b.ITE(xs[0], xs[1], xs[2])
	case "let":
		vars := d.boundVars(e.Vars)
		return b.Let(vars, d.exprs(e.Args), d.expr(e.Body))
	case "forall", "exists":
		vars := d.boundVars(e.Vars)
		return b.Quantifier(e.Kind == "forall", vars, d.optExpr(e.Range), d.expr(e.Body), d.attrs(e.Attributes))
	case "match":
		src := d.operand(e)
		cases := make([]*ast.MatchCaseExpr, len(e.Cases))
		for i, c := range e.Cases {
			ctor := d.ctor(c.Ctor)
			cases[i] = b.MatchCase(ctor, d.boundVars(c.Vars), d.expr(c.Body))
		}
		return b.Match(src, cases...)
	}
	d.fail("unknown expression kind %q", e.Kind)
	return nil
}

// ====== Statements ======

func (d *decoder) stmts(docs []*stmtDoc) []ast.Stmt {
	out := make([]ast.Stmt, len(docs))
	for i, s := range docs {
		out[i] = d.stmt(s)
	}
	return out
}

func (d *decoder) block(line int, docs []*stmtDoc) *ast.BlockStmt {
	return d.at(line).Block(d.stmts(docs)...)
}

func (d *decoder) rhs(r *rhsDoc) ast.Rhs {
	switch {
	case r == nil:
		d.fail("missing right-hand side")
	case r.Havoc:
		return &ast.HavocRhs{}
	case r.New != nil:
		return &ast.TypeRhs{Type: d.typ(r.New), ArrayDims: d.exprs(r.Dims)}
	case r.Expr != nil:
		return &ast.ExprRhs{E: d.expr(r.Expr)}
	}
	d.fail("empty right-hand side")
	return nil
}

func (d *decoder) stmt(s *stmtDoc) ast.Stmt {
	if s == nil {
		d.fail("missing statement")
	}
	b := d.at(s.Line)
	switch s.Kind {
	case "assert":
		return b.Assert(d.expr(s.Expr), d.attrs(s.Attributes)...)
	case "assume":
		return b.Assume(d.expr(s.Expr))
	case "print":
		return b.Print(d.exprs(s.Args)...)
	case "var":
		// Initializers are decoded before the locals come into scope.
		rhss := make([]ast.Rhs, len(s.Rhs))
		for i, r := range s.Rhs {
			rhss[i] = d.rhs(r)
		}
		return b.VarDecl(d.locals(s.Vars), rhss...)
	case "assign":
		if s.Lhs == nil || len(s.Rhs) != 1 {
			d.fail("assignment needs one target and one right-hand side")
		}
		return b.Assign(d.expr(s.Lhs), d.rhs(s.Rhs[0]))
	case "call":
		m, ok := d.methods[s.Ref]
		if !ok {
			d.fail("unknown method %q", s.Ref)
		}
		lhs := make([]*ast.IdentifierExpr, len(s.Outs))
		for i, id := range s.Outs {
			lhs[i] = d.b.Ident(d.variable(id))
		}
		return b.CallStmt(lhs, d.optExpr(s.Recv), m, d.exprs(s.Args)...)
	case "block":
		return d.block(s.Line, s.Body)
	case "if":
		guard := d.optExpr(s.Expr)
		thn := d.block(s.Line, s.Then)
		var els ast.Stmt
		switch {
		case s.ElseIf != nil:
			els = d.stmt(s.ElseIf)
		case s.Else != nil:
			els = d.block(s.Line, s.Else)
		}
		return b.If(guard, thn, els)
	case "while":
		guard := d.optExpr(s.Expr)
		invs := d.specs(s.Invariants)
		w := b.While(guard, invs, d.exprs(s.Decreases), d.block(s.Line, s.Body))
		w.Label = s.Label
		w.DecreasesWildcard = s.DecreasesStar
		return w
	case "foreach":
		if len(s.Vars) != 1 {
			d.fail("foreach binds exactly one variable")
		}
		coll := d.expr(s.Expr)
		x := d.boundVars(s.Vars)[0]
		lhs, ok := d.expr(s.Lhs).(*ast.FieldSelectExpr)
		if !ok {
			d.fail("foreach must update a field")
		}
		return b.Foreach(x, coll, d.optExpr(s.Range), d.exprs(s.Args), lhs, d.expr(s.Value))
	case "match":
		src := d.expr(s.Expr)
		cases := make([]*ast.MatchCaseStmt, len(s.Cases))
		for i, c := range s.Cases {
			ctor := d.ctor(c.Ctor)
			cases[i] = b.MatchCaseStmt(ctor, d.boundVars(c.Vars), d.stmts(c.Stmts)...)
		}
		return b.MatchStmt(src, cases...)
	case "return":
		return b.Return()
	case "break":
		return b.Break(s.Label)
	}
	d.fail("unknown statement kind %q", s.Kind)
	return nil
}
