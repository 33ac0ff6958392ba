package ir

// Constructors in this file fold trivial boolean structure so that the
// emitted text stays close to what a person would write.

var (
	True  Expr = &BoolLit{Value: true}
	False Expr = &BoolLit{Value: false}
	Null  Expr = &Ident{Name: "null"}
)

// Id is a name reference.
func Id(name string) *Ident { return &Ident{Name: name} }

// Int64 is an integer literal.
func Int64(v int64) *IntLit { return &IntLit{Value: v} }

// Str is a string literal.
func Str(s string) *StringLit { return &StringLit{Value: s} }

// Fn applies a function symbol.
func Fn(name string, args ...Expr) *FuncApp { return &FuncApp{Name: name, Args: args} }

// Sel is m[indices].
func Sel(m Expr, indices ...Expr) *Select { return &Select{Map: m, Indices: indices} }

// Upd is m[indices := v].
func Upd(m Expr, v Expr, indices ...Expr) *Store {
	return &Store{Map: m, Indices: indices, Value: v}
}

// Bin is l op r without simplification.
func Bin(op BinOp, l, r Expr) *Binary { return &Binary{Op: op, Left: l, Right: r} }

// IsTrue reports whether e is the literal true.
func IsTrue(e Expr) bool {
	b, ok := e.(*BoolLit)
	return ok && b.Value
}

// IsFalse reports whether e is the literal false.
func IsFalse(e Expr) bool {
	b, ok := e.(*BoolLit)
	return ok && !b.Value
}

// Conj is l && r.
func Conj(l, r Expr) Expr {
	switch {
	case IsTrue(l):
		return r
	case IsTrue(r):
		return l
	case IsFalse(l) || IsFalse(r):
		return False
	}
	return Bin(And, l, r)
}

// Disj is l || r.
func Disj(l, r Expr) Expr {
	switch {
	case IsFalse(l):
		return r
	case IsFalse(r):
		return l
	case IsTrue(l) || IsTrue(r):
		return True
	}
	return Bin(Or, l, r)
}

// Implies is l ==> r.
func Implies(l, r Expr) Expr {
	switch {
	case IsTrue(l):
		return r
	case IsFalse(l) || IsTrue(r):
		return True
	}
	return Bin(Imp, l, r)
}

// Equiv is l <==> r.
func Equiv(l, r Expr) Expr {
	if IsTrue(l) {
		return r
	}
	if IsTrue(r) {
		return l
	}
	return Bin(Iff, l, r)
}

// Negate is !e.
func Negate(e Expr) Expr {
	switch x := e.(type) {
	case *BoolLit:
		return &BoolLit{Value: !x.Value}
	case *Unary:
		if x.Op == Not {
			return x.E
		}
	}
	return &Unary{Op: Not, E: e}
}

// Equal is l == r.
func Equal(l, r Expr) Expr { return Bin(Eq, l, r) }

// AndAll folds a list with Conj; the empty list is true.
func AndAll(es ...Expr) Expr {
	out := True
	for _, e := range es {
		if e != nil {
			out = Conj(out, e)
		}
	}
	return out
}

// OrAll folds a list with Disj; the empty list is false.
func OrAll(es ...Expr) Expr {
	out := False
	for _, e := range es {
		if e != nil {
			out = Disj(out, e)
		}
	}
	return out
}

// Box wraps a value into the universal box sort. Boxing an unboxed term
// returns the original box.
func Box(e Expr) Expr {
	if c, ok := e.(*Coerce); ok {
		if app, ok := c.E.(*FuncApp); ok && app.Name == "$Unbox" {
			return app.Args[0]
		}
	}
	return Fn("$Box", e)
}

// Unbox takes a box apart at sort t, printed as ($Unbox(e): t).
func Unbox(e Expr, t Type) Expr {
	if app, ok := e.(*FuncApp); ok && app.Name == "$Box" {
		return app.Args[0]
	}
	return &Coerce{E: Fn("$Unbox", e), Type: t}
}

// Forall quantifies body over vars. An empty variable list yields body.
func Forall(vars []*Var, triggers [][]Expr, body Expr) Expr {
	if len(vars) == 0 || IsTrue(body) {
		return body
	}
	return &Quantifier{Universal: true, Vars: vars, Triggers: triggers, Body: body}
}

// Exists quantifies body over vars. An empty variable list yields body.
func Exists(vars []*Var, triggers [][]Expr, body Expr) Expr {
	if len(vars) == 0 || IsFalse(body) {
		return body
	}
	return &Quantifier{Universal: false, Vars: vars, Triggers: triggers, Body: body}
}

// Ite is if c then t else e.
func Ite(c, t, e Expr) Expr {
	if IsTrue(c) {
		return t
	}
	if IsFalse(c) {
		return e
	}
	return &IfThenElse{Cond: c, Then: t, Else: e}
}

// V declares a variable.
func V(name string, t Type) *Var { return &Var{Name: name, Type: t} }

// Anon is an unnamed function parameter.
func Anon(t Type) *Var { return &Var{Type: t} }

// Ids turns variables into references.
func Ids(vs []*Var) []Expr {
	out := make([]Expr, len(vs))
	for i, v := range vs {
		out[i] = Id(v.Name)
	}
	return out
}

// Assert builds an assert command with a failure message.
func Assert(e Expr, msg string) *AssertCmd { return &AssertCmd{E: e, Msg: msg} }

// Assume builds an assume command.
func Assume(e Expr) *AssumeCmd { return &AssumeCmd{E: e} }

// Havoc builds a havoc command.
func Havoc(vars ...string) *HavocCmd { return &HavocCmd{Vars: vars} }

// Assign builds a single assignment.
func Assign(lhs string, rhs Expr) *AssignCmd {
	return &AssignCmd{Lhs: []string{lhs}, Rhs: []Expr{rhs}}
}
