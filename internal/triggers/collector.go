// Package triggers selects matching patterns for quantifiers.
//
// The Collector annotates expressions bottom-up with the terms that may
// serve in a pattern. The splitter breaks quantifiers into independently
// triggerable parts, and a Collection runs the selection pipeline over a
// quantifier together with its splits, writing {:trigger} attributes back
// onto the quantifier nodes.
package triggers

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-set/v3"

	"github.com/orizon-lang/orizon-verify/internal/ast"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
)

// Term is a candidate pattern term and the bound variables it mentions.
// Terms compare structurally.
type Term struct {
	Expr ast.Expr
	Vars *set.Set[*ast.BoundVar]
}

func (t *Term) String() string { return t.Expr.String() }

// Equal reports structural equality of the underlying expressions.
func (t *Term) Equal(o *Term) bool { return ast.Equal(t.Expr, o.Expr) }

// Annotation is the trigger metadata of one expression.
type Annotation struct {
	IsTriggerKiller bool
	// Vars holds the bound variables free in the expression.
	Vars *set.Set[*ast.BoundVar]
	// PrivateTerms are the terms mentioning a variable bound by this node.
	PrivateTerms []*Term
	// ExportedTerms are visible to enclosing nodes.
	ExportedTerms []*Term
}

// Collector memoizes annotations by node id for one arena.
type Collector struct {
	arena *ast.Arena
	cache map[ast.NodeID]*Annotation
}

// NewCollector creates a collector for nodes of arena.
func NewCollector(arena *ast.Arena) *Collector {
	return &Collector{arena: arena, cache: make(map[ast.NodeID]*Annotation)}
}

// Annotate returns the annotation of e, computing it once.
func (c *Collector) Annotate(e ast.Expr) *Annotation {
	id := e.NodeID()
	if c.arena != nil && !c.arena.Owns(id) {
		panic(errs.ForeignNode("trigger collector met node " + id.String() + " of another program"))
	}
	if a, ok := c.cache[id]; ok {
		return a
	}
	a := c.compute(e)
	c.cache[id] = a
	return a
}

func (c *Collector) compute(e ast.Expr) *Annotation {
	switch e := e.(type) {
	case *ast.ParensExpr:
		return c.Annotate(e.E)
	case *ast.IdentifierExpr:
		vars := set.New[*ast.BoundVar](1)
		if bv, ok := e.Var.(*ast.BoundVar); ok {
			vars.Insert(bv)
		}
		return &Annotation{Vars: vars}
	case *ast.QuantifierExpr:
		return c.annotateBinder(e, e.BoundVars)
	case *ast.LetExpr:
		return c.annotateBinder(e, e.Vars)
	case *ast.MatchExpr:
		var bound []*ast.BoundVar
		for _, mc := range e.Cases {
			bound = append(bound, mc.Args...)
		}
		return c.annotateBinder(e, bound)
	}
	if IsPotentialTrigger(e) {
		return c.annotateCandidate(e)
	}
	return c.annotateOther(e, isKiller(e))
}

// IsPotentialTrigger reports whether e has a head symbol the backend can
// match on: function calls, selections, old, cardinality and membership.
func IsPotentialTrigger(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.FunctionCallExpr, *ast.SeqSelectExpr, *ast.MultiSelectExpr, *ast.FieldSelectExpr, *ast.OldExpr:
		return true
	case *ast.UnaryExpr:
		return e.Op == ast.OpCardinality
	case *ast.BinaryExpr:
		if e.Op != ast.OpIn {
			return false
		}
		switch e.Right.Type().(type) {
		case *ast.SetType, *ast.MapType:
			return true
		}
	}
	return false
}

func isKiller(e ast.Expr) bool {
	switch e.(type) {
	case *ast.UnaryExpr, *ast.BinaryExpr, *ast.ITEExpr, *ast.FreshExpr:
		return true
	}
	return false
}

func (c *Collector) children(e ast.Expr) []*Annotation {
	subs := ast.SubExpressions(e)
	out := make([]*Annotation, len(subs))
	for i, sub := range subs {
		out[i] = c.Annotate(sub)
	}
	return out
}

func unionVars(as []*Annotation) *set.Set[*ast.BoundVar] {
	vars := set.New[*ast.BoundVar](0)
	for _, a := range as {
		vars.InsertSet(a.Vars)
	}
	return vars
}

func exported(as []*Annotation) []*Term {
	var out []*Term
	for _, a := range as {
		out = appendDistinct(out, a.ExportedTerms...)
	}
	return out
}

func appendDistinct(pool []*Term, terms ...*Term) []*Term {
next:
	for _, t := range terms {
		for _, p := range pool {
			if p.Equal(t) {
				continue next
			}
		}
		pool = append(pool, t)
	}
	return pool
}

func (c *Collector) annotateCandidate(e ast.Expr) *Annotation {
	kids := c.children(e)
	vars := unionVars(kids)
	terms := exported(kids)

	killer := false
	for _, k := range kids {
		if k.IsTriggerKiller {
			killer = true
		}
	}
	if !killer {
		terms = appendDistinct(terms, &Term{Expr: ast.StripParens(e), Vars: vars})
	}
	return &Annotation{IsTriggerKiller: killer, Vars: vars, ExportedTerms: terms}
}

func (c *Collector) annotateOther(e ast.Expr, killer bool) *Annotation {
	kids := c.children(e)
	for _, k := range kids {
		killer = killer || k.IsTriggerKiller
	}
	return &Annotation{IsTriggerKiller: killer, Vars: unionVars(kids), ExportedTerms: exported(kids)}
}

func (c *Collector) annotateBinder(e ast.Expr, bound []*ast.BoundVar) *Annotation {
	kids := c.children(e)
	vars := unionVars(kids)
	for _, bv := range bound {
		vars.Remove(bv)
	}

	a := &Annotation{IsTriggerKiller: true, Vars: vars}
	for _, t := range exported(kids) {
		if mentionsAny(t, bound) {
			a.PrivateTerms = append(a.PrivateTerms, t)
		} else {
			a.ExportedTerms = append(a.ExportedTerms, t)
		}
	}
	return a
}

func mentionsAny(t *Term, vs []*ast.BoundVar) bool {
	for _, v := range vs {
		if t.Vars.Contains(v) {
			return true
		}
	}
	return false
}

// SortedVars lists a variable set in declaration order.
func SortedVars(vars *set.Set[*ast.BoundVar]) []*ast.BoundVar {
	out := vars.Slice()
	sort.Slice(out, func(i, j int) bool { return out[i].NodeID().Index < out[j].NodeID().Index })
	return out
}

func termsString(ts []*Term) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = t.String()
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
