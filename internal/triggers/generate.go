package triggers

import (
	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/cli"
	"github.com/orizon-lang/orizon-verify/internal/config"
	"github.com/orizon-lang/orizon-verify/internal/diagnostic"
)

// Stats summarizes one Generate run.
type Stats struct {
	Quantifiers int
	Skipped     int
	Split       int
	Triggered   int
	Untriggered int
}

// ProgramQuantifiers lists every quantifier of p, outermost first, in
// declaration order.
func ProgramQuantifiers(p *ast.Program) []*ast.QuantifierExpr {
	var out []*ast.QuantifierExpr
	seen := make(map[ast.NodeID]bool)
	add := func(es ...ast.Expr) {
		for _, e := range es {
			if e == nil {
				continue
			}
			for _, q := range ast.Quantifiers(e) {
				if !seen[q.NodeID()] {
					seen[q.NodeID()] = true
					out = append(out, q)
				}
			}
		}
	}
	frames := func(fs []*ast.FrameExpr) {
		for _, fe := range fs {
			add(fe.E)
		}
	}
	specs := func(ms []*ast.MaybeFree) {
		for _, m := range ms {
			add(m.E)
		}
	}

	for _, m := range p.Modules {
		for _, d := range m.Decls {
			cls, ok := d.(*ast.ClassDecl)
			if !ok {
				continue
			}
			for _, member := range cls.Members {
				switch member := member.(type) {
				case *ast.Function:
					add(member.Requires...)
					frames(member.Reads)
					add(member.Ensures...)
					add(member.Decreases...)
					add(member.Body)
				case *ast.Method:
					specs(member.Requires)
					frames(member.Modifies)
					specs(member.Ensures)
					add(member.Decreases...)
					if member.Body != nil {
						ast.WalkStmt(member.Body, func(s ast.Stmt) {
							add(ast.StmtExprs(s)...)
						})
					}
				}
			}
		}
	}
	return out
}

// Generate selects triggers for every quantifier of p that has neither an
// explicit {:trigger} nor {:autotriggers false}. Selected triggers are
// written onto the quantifier nodes; splits are recorded in
// SplitQuantifier.
func Generate(p *ast.Program, opts config.Options, diags *diagnostic.DiagnosticEngine, log *cli.Logger) Stats {
	var st Stats
	if !opts.AutoTriggers {
		return st
	}
	log = log.With("triggers")
	b := ast.NewBuilder(p)
	collector := NewCollector(p.Arena)

	for _, q := range ProgramQuantifiers(p) {
		st.Quantifiers++
		if q.Attributes.Has("trigger") || q.Attributes.IsFalse("autotriggers") {
			st.Skipped++
			continue
		}

		group := []*ast.QuantifierExpr{q}
		if opts.SplitQuantifiers {
			if splits := SplitQuantifier(b, q); len(splits) > 0 {
				group = splits
				st.Split++
				report(diags, diagnostic.Common.SplitQuantifier(q.GetSpan(), len(splits)))
				log.Debug("split %s into %d parts", q, len(splits))
			}
		}

		qc := NewQuantifiersCollection(collector, group, opts.MaxTriggerTerms)
		qc.ComputeTriggers()
		qc.CommitTriggers(diags, opts.WarnUntriggered, log)
		for _, member := range qc.Quantifiers {
			if member.Committed() {
				st.Triggered++
			} else {
				st.Untriggered++
			}
		}
	}
	log.Info("%d quantifiers, %d triggered, %d untriggered", st.Quantifiers, st.Triggered, st.Untriggered)
	return st
}
