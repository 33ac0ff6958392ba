package triggers

import (
	"strings"

	"github.com/hashicorp/go-set/v3"

	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/cli"
	"github.com/orizon-lang/orizon-verify/internal/diagnostic"
)

// Candidate is one multi-trigger.
type Candidate struct {
	Terms []*Term
	// Loops lists the body subterms that match one of the terms without
	// being one of them.
	Loops []ast.Expr
}

func (c *Candidate) String() string { return termsString(c.Terms) }

// Vars returns the union of the terms' variables.
func (c *Candidate) Vars() *set.Set[*ast.BoundVar] {
	vars := set.New[*ast.BoundVar](len(c.Terms))
	for _, t := range c.Terms {
		vars.InsertSet(t.Vars)
	}
	return vars
}

// MentionsAll reports whether the terms jointly cover vars.
func (c *Candidate) MentionsAll(vars []*ast.BoundVar) bool {
	covered := c.Vars()
	for _, v := range vars {
		if !covered.Contains(v) {
			return false
		}
	}
	return true
}

func (c *Candidate) contains(t *Term) bool {
	for _, own := range c.Terms {
		if own == t {
			return true
		}
	}
	return false
}

// Rejection is a candidate dropped during selection and the reason.
type Rejection struct {
	Candidate *Candidate
	Reason    string
}

func (r Rejection) String() string { return r.Candidate.String() + " (" + r.Reason + ")" }

// QuantifierWithTriggers is a quantifier going through selection.
type QuantifierWithTriggers struct {
	Quantifier *ast.QuantifierExpr
	Candidates []*Candidate
	Rejected   []Rejection
	// AllowLoops is set by {:matchingloop}.
	AllowLoops bool
	// LoopsKept records that only looping candidates were available and
	// AllowLoops kept them.
	LoopsKept bool
}

// Committed reports whether at least one trigger was selected.
func (q *QuantifierWithTriggers) Committed() bool { return len(q.Candidates) > 0 }

// QuantifiersCollection selects triggers for one quantifier group: a
// quantifier alone, or the splits of one quantifier. Members share one
// pool of candidate terms.
type QuantifiersCollection struct {
	Quantifiers []*QuantifierWithTriggers
	Pool        []*Term

	collector *Collector
	maxTerms  int
}

// NewQuantifiersCollection prepares group for selection. maxTerms caps
// the shared pool; zero means no cap.
func NewQuantifiersCollection(c *Collector, group []*ast.QuantifierExpr, maxTerms int) *QuantifiersCollection {
	qc := &QuantifiersCollection{collector: c, maxTerms: maxTerms}
	for _, q := range group {
		qc.Quantifiers = append(qc.Quantifiers, &QuantifierWithTriggers{
			Quantifier: q,
			AllowLoops: q.Attributes.Has("matchingloop"),
		})
	}
	return qc
}

// ComputeTriggers runs candidate pooling, generation, coverage filtering
// and loop detection. CommitTriggers writes the outcome back.
func (qc *QuantifiersCollection) ComputeTriggers() {
	qc.collectPool()
	all := generateCandidates(qc.Pool)
	for _, q := range qc.Quantifiers {
		qc.selectFor(q, all)
	}
}

func (qc *QuantifiersCollection) collectPool() {
	qc.Pool = nil
	for _, q := range qc.Quantifiers {
		qc.Pool = appendDistinct(qc.Pool, qc.collector.Annotate(q.Quantifier).PrivateTerms...)
	}
	if qc.maxTerms > 0 && len(qc.Pool) > qc.maxTerms {
		qc.Pool = qc.Pool[:qc.maxTerms]
	}
}

// generateCandidates enumerates the non-empty subsets of pool in which
// every term adds a variable not covered by the terms before it.
func generateCandidates(pool []*Term) []*Candidate {
	var out []*Candidate
	var grow func(start int, cur []*Term, covered *set.Set[*ast.BoundVar])
	grow = func(start int, cur []*Term, covered *set.Set[*ast.BoundVar]) {
		for i := start; i < len(pool); i++ {
			t := pool[i]
			if !contributes(t, covered) {
				continue
			}
			next := append(cur[:len(cur):len(cur)], t)
			nextCovered := covered.Copy()
			nextCovered.InsertSet(t.Vars)
			out = append(out, &Candidate{Terms: next})
			grow(i+1, next, nextCovered)
		}
	}
	grow(0, nil, set.New[*ast.BoundVar](0))
	return out
}

func contributes(t *Term, covered *set.Set[*ast.BoundVar]) bool {
	for v := range t.Vars.Items() {
		if !covered.Contains(v) {
			return true
		}
	}
	return false
}

func (qc *QuantifiersCollection) selectFor(q *QuantifierWithTriggers, all []*Candidate) {
	q.Candidates, q.Rejected, q.LoopsKept = nil, nil, false

	var covering []*Candidate
	for _, c := range all {
		if c.MentionsAll(q.Quantifier.BoundVars) {
			covering = append(covering, c)
		} else if len(c.Terms) == 1 {
			q.Rejected = append(q.Rejected, Rejection{c, "does not mention all bound variables"})
		}
	}
	covering = minimal(covering)

	var looping []*Candidate
	for _, c := range covering {
		lc := &Candidate{Terms: c.Terms, Loops: loopingSubterms(c, q.Quantifier)}
		if len(lc.Loops) == 0 {
			q.Candidates = append(q.Candidates, lc)
		} else {
			looping = append(looping, lc)
		}
	}

	if len(q.Candidates) == 0 && q.AllowLoops && len(looping) > 0 {
		q.Candidates = looping
		q.LoopsKept = true
		return
	}
	for _, c := range looping {
		q.Rejected = append(q.Rejected, Rejection{c, "may loop with " + exprsString(c.Loops)})
	}
}

// minimal drops candidates that strictly contain another candidate.
func minimal(cs []*Candidate) []*Candidate {
	var out []*Candidate
outer:
	for _, c := range cs {
		for _, d := range cs {
			if d != c && len(d.Terms) < len(c.Terms) && subsetOf(d, c) {
				continue outer
			}
		}
		out = append(out, c)
	}
	return out
}

func subsetOf(d, c *Candidate) bool {
	for _, t := range d.Terms {
		if !c.contains(t) {
			return false
		}
	}
	return true
}

// loopingSubterms finds the potential triggers of q's body that match a
// term of c, binding q's variables, and are not themselves a term of c up
// to variable names.
func loopingSubterms(c *Candidate, q *ast.QuantifierExpr) []ast.Expr {
	bound := set.From(q.BoundVars)
	var loops []ast.Expr
	visit := func(e ast.Expr) {
		ast.Walk(e, func(x ast.Expr) bool {
			x = ast.StripParens(x)
			if !IsPotentialTrigger(x) {
				return true
			}
			for _, t := range c.Terms {
				if !matchPattern(t.Expr, x, bound, map[*ast.BoundVar]ast.Expr{}) {
					continue
				}
				if !ownTerm(c, x) && !containsExpr(loops, x) {
					loops = append(loops, x)
				}
				break
			}
			return true
		})
	}
	if q.Range != nil {
		visit(q.Range)
	}
	visit(q.Term)
	return loops
}

func ownTerm(c *Candidate, x ast.Expr) bool {
	for _, t := range c.Terms {
		if ast.EqualModuloVariableNames(t.Expr, x) {
			return true
		}
	}
	return false
}

func containsExpr(es []ast.Expr, x ast.Expr) bool {
	for _, e := range es {
		if ast.Equal(e, x) {
			return true
		}
	}
	return false
}

// matchPattern matches term against pattern, treating the variables of
// bound as pattern variables. env accumulates the bindings.
func matchPattern(pattern, term ast.Expr, bound *set.Set[*ast.BoundVar], env map[*ast.BoundVar]ast.Expr) bool {
	pattern, term = ast.StripParens(pattern), ast.StripParens(term)
	if id, ok := pattern.(*ast.IdentifierExpr); ok {
		if bv, ok := id.Var.(*ast.BoundVar); ok && bound.Contains(bv) {
			if prev, seen := env[bv]; seen {
				return ast.Equal(prev, term)
			}
			env[bv] = term
			return true
		}
	}
	if !sameHead(pattern, term) {
		return false
	}
	ps, ts := ast.SubExpressions(pattern), ast.SubExpressions(term)
	if len(ps) != len(ts) {
		return false
	}
	for i := range ps {
		if !matchPattern(ps[i], ts[i], bound, env) {
			return false
		}
	}
	return true
}

// sameHead compares the node kinds and the non-expression payload of a
// and b, leaving their subexpressions to the caller.
func sameHead(a, b ast.Expr) bool {
	switch x := a.(type) {
	case *ast.LiteralExpr:
		y, ok := b.(*ast.LiteralExpr)
		return ok && x.Kind == y.Kind && x.Bool == y.Bool && x.Int == y.Int
	case *ast.ThisExpr:
		_, ok := b.(*ast.ThisExpr)
		return ok
	case *ast.IdentifierExpr:
		y, ok := b.(*ast.IdentifierExpr)
		return ok && x.Var == y.Var
	case *ast.FieldSelectExpr:
		y, ok := b.(*ast.FieldSelectExpr)
		return ok && x.Field == y.Field
	case *ast.SeqSelectExpr:
		y, ok := b.(*ast.SeqSelectExpr)
		return ok && x.SelectOne == y.SelectOne && (x.E0 == nil) == (y.E0 == nil) && (x.E1 == nil) == (y.E1 == nil)
	case *ast.MultiSelectExpr:
		_, ok := b.(*ast.MultiSelectExpr)
		return ok
	case *ast.SeqUpdateExpr:
		_, ok := b.(*ast.SeqUpdateExpr)
		return ok
	case *ast.FunctionCallExpr:
		y, ok := b.(*ast.FunctionCallExpr)
		return ok && x.Function == y.Function && (x.Receiver == nil) == (y.Receiver == nil)
	case *ast.DatatypeValue:
		y, ok := b.(*ast.DatatypeValue)
		return ok && x.Ctor == y.Ctor
	case *ast.DisplayExpr:
		y, ok := b.(*ast.DisplayExpr)
		return ok && x.Kind == y.Kind
	case *ast.MapDisplayExpr:
		_, ok := b.(*ast.MapDisplayExpr)
		return ok
	case *ast.OldExpr:
		_, ok := b.(*ast.OldExpr)
		return ok
	case *ast.FreshExpr:
		_, ok := b.(*ast.FreshExpr)
		return ok
	case *ast.UnaryExpr:
		y, ok := b.(*ast.UnaryExpr)
		return ok && x.Op == y.Op
	case *ast.BinaryExpr:
		y, ok := b.(*ast.BinaryExpr)
		return ok && x.Op == y.Op
	case *ast.ITEExpr:
		_, ok := b.(*ast.ITEExpr)
		return ok
	}
	return false
}

// CommitTriggers attaches a {:trigger} attribute per selected candidate
// and reports the outcome. Quantifiers left without a candidate get a
// warning unless warnUntriggered is off or they carry {:nowarn}.
func (qc *QuantifiersCollection) CommitTriggers(diags *diagnostic.DiagnosticEngine, warnUntriggered bool, log *cli.Logger) {
	for _, q := range qc.Quantifiers {
		quant := q.Quantifier
		span := quant.GetSpan()
		rejected := rejectionStrings(q.Rejected)

		if !q.Committed() {
			log.Debug("no trigger for %s", quant)
			if warnUntriggered && !quant.Attributes.Has("nowarn") {
				report(diags, diagnostic.Common.NoTrigger(span, rejected))
			}
			continue
		}

		selected := make([]string, len(q.Candidates))
		for i, c := range q.Candidates {
			args := make([]ast.Expr, len(c.Terms))
			for j, t := range c.Terms {
				args[j] = t.Expr
			}
			quant.Attributes = append(quant.Attributes, ast.Attr("trigger", args...))
			selected[i] = c.String()
		}
		log.Debug("triggers for %s: %s", quant, strings.Join(selected, ", "))

		if q.LoopsKept {
			report(diags, diagnostic.Common.LoopingTrigger(span, selected))
		}
		report(diags, diagnostic.Common.SelectedTriggers(span, selected, rejected))
	}
}

func report(diags *diagnostic.DiagnosticEngine, d *diagnostic.Diagnostic) {
	if diags != nil {
		diags.AddDiagnostic(d)
	}
}

func rejectionStrings(rs []Rejection) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.String()
	}
	return out
}

func exprsString(es []ast.Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}
