package ast

// SubExpressions returns the immediate subexpressions of e in source order.
func SubExpressions(e Expr) []Expr {
	switch e := e.(type) {
	case *LiteralExpr, *ThisExpr, *IdentifierExpr:
		return nil
	case *FieldSelectExpr:
		return []Expr{e.Obj}
	case *SeqSelectExpr:
		out := []Expr{e.Seq}
		if e.E0 != nil {
			out = append(out, e.E0)
		}
		if e.E1 != nil {
			out = append(out, e.E1)
		}
		return out
	case *MultiSelectExpr:
		return append([]Expr{e.Array}, e.Indices...)
	case *SeqUpdateExpr:
		return []Expr{e.Seq, e.Index, e.Value}
	case *FunctionCallExpr:
		if e.Receiver != nil {
			return append([]Expr{e.Receiver}, e.Args...)
		}
		return append([]Expr(nil), e.Args...)
	case *DatatypeValue:
		return append([]Expr(nil), e.Args...)
	case *DisplayExpr:
		return append([]Expr(nil), e.Elements...)
	case *MapDisplayExpr:
		out := make([]Expr, 0, 2*len(e.Keys))
		for i := range e.Keys {
			out = append(out, e.Keys[i], e.Values[i])
		}
		return out
	case *OldExpr:
		return []Expr{e.E}
	case *FreshExpr:
		return []Expr{e.E}
	case *UnaryExpr:
		return []Expr{e.E}
	case *BinaryExpr:
		return []Expr{e.Left, e.Right}
	case *ITEExpr:
		return []Expr{e.Test, e.Thn, e.Els}
	case *LetExpr:
		return append(append([]Expr(nil), e.RHSs...), e.Body)
	case *QuantifierExpr:
		if e.Range != nil {
			return []Expr{e.Range, e.Term}
		}
		return []Expr{e.Term}
	case *MatchExpr:
		out := []Expr{e.Source}
		for _, c := range e.Cases {
			out = append(out, c.Body)
		}
		return out
	case *ParensExpr:
		return []Expr{e.E}
	}
	return nil
}

// Walk visits e and its subexpressions in preorder. Returning false from
// fn skips the children of the visited node.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	for _, sub := range SubExpressions(e) {
		Walk(sub, fn)
	}
}

// Quantifiers returns every quantifier in e, outermost first.
func Quantifiers(e Expr) []*QuantifierExpr {
	var out []*QuantifierExpr
	Walk(e, func(x Expr) bool {
		if q, ok := x.(*QuantifierExpr); ok {
			out = append(out, q)
		}
		return true
	})
	return out
}

// StmtExprs returns the expressions appearing directly in s, excluding
// those of nested statements.
func StmtExprs(s Stmt) []Expr {
	var out []Expr
	add := func(es ...Expr) {
		for _, e := range es {
			if e != nil {
				out = append(out, e)
			}
		}
	}
	addRhs := func(r Rhs) {
		switch r := r.(type) {
		case *ExprRhs:
			add(r.E)
		case *TypeRhs:
			add(r.ArrayDims...)
		}
	}
	switch s := s.(type) {
	case *AssertStmt:
		add(s.E)
	case *AssumeStmt:
		add(s.E)
	case *PrintStmt:
		add(s.Args...)
	case *VarDeclStmt:
		for _, r := range s.Rhss {
			addRhs(r)
		}
	case *AssignStmt:
		add(s.Lhs)
		addRhs(s.Rhs)
	case *CallStmt:
		add(s.Receiver)
		add(s.Args...)
	case *IfStmt:
		add(s.Guard)
	case *WhileStmt:
		add(s.Guard)
		for _, inv := range s.Invariants {
			add(inv.E)
		}
		add(s.Decreases...)
	case *ForeachStmt:
		add(s.Collection, s.Range)
		add(s.Assumes...)
		add(s.Lhs, s.Rhs)
	case *MatchStmt:
		add(s.Source)
	}
	return out
}

// SubStatements returns the statements nested directly in s.
func SubStatements(s Stmt) []Stmt {
	switch s := s.(type) {
	case *BlockStmt:
		return s.Body
	case *IfStmt:
		out := []Stmt{s.Thn}
		if s.Els != nil {
			out = append(out, s.Els)
		}
		return out
	case *WhileStmt:
		return []Stmt{s.Body}
	case *MatchStmt:
		var out []Stmt
		for _, c := range s.Cases {
			out = append(out, c.Body...)
		}
		return out
	}
	return nil
}

// WalkStmt visits s and its nested statements in preorder.
func WalkStmt(s Stmt, fn func(Stmt)) {
	if s == nil {
		return
	}
	fn(s)
	for _, sub := range SubStatements(s) {
		WalkStmt(sub, fn)
	}
}

// =============================================================================
// Structural equality
// =============================================================================

// Equal compares two expressions structurally. Variables compare by
// identity and parentheses are ignored.
func Equal(a, b Expr) bool {
	return equalExpr(a, b, func(x, y Variable) bool { return x == y })
}

// EqualModuloVariableNames compares two expressions structurally, treating
// any two variable references of the same kind as equal.
func EqualModuloVariableNames(a, b Expr) bool {
	return equalExpr(a, b, func(x, y Variable) bool {
		switch x.(type) {
		case *BoundVar:
			_, ok := y.(*BoundVar)
			return ok
		case *LocalVariable:
			_, ok := y.(*LocalVariable)
			return ok
		case *Formal:
			_, ok := y.(*Formal)
			return ok
		}
		return false
	})
}

func equalExpr(a, b Expr, sameVar func(x, y Variable) bool) bool {
	a, b = StripParens(a), StripParens(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	eq := func(x, y Expr) bool { return equalExpr(x, y, sameVar) }
	all := func(xs, ys []Expr) bool {
		if len(xs) != len(ys) {
			return false
		}
		for i := range xs {
			if !eq(xs[i], ys[i]) {
				return false
			}
		}
		return true
	}

	switch x := a.(type) {
	case *LiteralExpr:
		y, ok := b.(*LiteralExpr)
		return ok && x.Kind == y.Kind && x.Bool == y.Bool && x.Int == y.Int
	case *ThisExpr:
		_, ok := b.(*ThisExpr)
		return ok
	case *IdentifierExpr:
		y, ok := b.(*IdentifierExpr)
		return ok && sameVar(x.Var, y.Var)
	case *FieldSelectExpr:
		y, ok := b.(*FieldSelectExpr)
		return ok && x.Field == y.Field && eq(x.Obj, y.Obj)
	case *SeqSelectExpr:
		y, ok := b.(*SeqSelectExpr)
		return ok && x.SelectOne == y.SelectOne && eq(x.Seq, y.Seq) && eq(x.E0, y.E0) && eq(x.E1, y.E1)
	case *MultiSelectExpr:
		y, ok := b.(*MultiSelectExpr)
		return ok && eq(x.Array, y.Array) && all(x.Indices, y.Indices)
	case *SeqUpdateExpr:
		y, ok := b.(*SeqUpdateExpr)
		return ok && eq(x.Seq, y.Seq) && eq(x.Index, y.Index) && eq(x.Value, y.Value)
	case *FunctionCallExpr:
		y, ok := b.(*FunctionCallExpr)
		return ok && x.Function == y.Function && eq(x.Receiver, y.Receiver) && all(x.Args, y.Args)
	case *DatatypeValue:
		y, ok := b.(*DatatypeValue)
		return ok && x.Ctor == y.Ctor && all(x.Args, y.Args)
	case *DisplayExpr:
		y, ok := b.(*DisplayExpr)
		return ok && x.Kind == y.Kind && all(x.Elements, y.Elements)
	case *MapDisplayExpr:
		y, ok := b.(*MapDisplayExpr)
		return ok && all(x.Keys, y.Keys) && all(x.Values, y.Values)
	case *OldExpr:
		y, ok := b.(*OldExpr)
		return ok && eq(x.E, y.E)
	case *FreshExpr:
		y, ok := b.(*FreshExpr)
		return ok && eq(x.E, y.E)
	case *UnaryExpr:
		y, ok := b.(*UnaryExpr)
		return ok && x.Op == y.Op && eq(x.E, y.E)
	case *BinaryExpr:
		y, ok := b.(*BinaryExpr)
		return ok && x.Op == y.Op && eq(x.Left, y.Left) && eq(x.Right, y.Right)
	case *ITEExpr:
		y, ok := b.(*ITEExpr)
		return ok && eq(x.Test, y.Test) && eq(x.Thn, y.Thn) && eq(x.Els, y.Els)
	case *LetExpr:
		y, ok := b.(*LetExpr)
		return ok && len(x.Vars) == len(y.Vars) && all(x.RHSs, y.RHSs) && eq(x.Body, y.Body)
	case *QuantifierExpr:
		y, ok := b.(*QuantifierExpr)
		return ok && x.Universal == y.Universal && len(x.BoundVars) == len(y.BoundVars) &&
			eq(x.Range, y.Range) && eq(x.Term, y.Term)
	case *MatchExpr:
		y, ok := b.(*MatchExpr)
		if !ok || len(x.Cases) != len(y.Cases) || !eq(x.Source, y.Source) {
			return false
		}
		for i := range x.Cases {
			if x.Cases[i].Ctor != y.Cases[i].Ctor || !eq(x.Cases[i].Body, y.Cases[i].Body) {
				return false
			}
		}
		return true
	}
	return false
}

// FreeVariables returns the variables e mentions that are not bound
// inside e, in order of first occurrence.
func FreeVariables(e Expr) []Variable {
	var out []Variable
	seen := map[Variable]bool{}
	var visit func(x Expr, bound map[Variable]bool)
	visit = func(x Expr, bound map[Variable]bool) {
		Walk(x, func(n Expr) bool {
			inner := bound
			var binders []*BoundVar
			switch n := n.(type) {
			case *IdentifierExpr:
				if !bound[n.Var] && !seen[n.Var] {
					seen[n.Var] = true
					out = append(out, n.Var)
				}
				return false
			case *QuantifierExpr:
				binders = n.BoundVars
			case *LetExpr:
				for _, r := range n.RHSs {
					visit(r, bound)
				}
				binders = n.Vars
				inner = extend(bound, binders)
				visit(n.Body, inner)
				return false
			case *MatchExpr:
				visit(n.Source, bound)
				for _, c := range n.Cases {
					visit(c.Body, extend(bound, c.Args))
				}
				return false
			default:
				return true
			}
			inner = extend(bound, binders)
			for _, sub := range SubExpressions(n) {
				visit(sub, inner)
			}
			return false
		})
	}
	visit(e, nil)
	return out
}

func extend(bound map[Variable]bool, vs []*BoundVar) map[Variable]bool {
	out := make(map[Variable]bool, len(bound)+len(vs))
	for v := range bound {
		out[v] = true
	}
	for _, v := range vs {
		out[v] = true
	}
	return out
}

// Mentions reports whether e refers to v.
func Mentions(e Expr, v Variable) bool {
	found := false
	Walk(e, func(x Expr) bool {
		if id, ok := x.(*IdentifierExpr); ok && id.Var == v {
			found = true
		}
		return !found
	})
	return found
}
