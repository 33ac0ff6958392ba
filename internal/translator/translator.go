// Package translator turns a resolved program into the verification IR.
//
// One Translator handles one program. Translate walks every declaration,
// emits its axioms, functions and procedures, and serializes quantifiers
// with the triggers the trigger engine attached to them. A declaration
// whose translation hits an internal invariant violation is dropped and
// reported, and the walk continues with the next one.
package translator

import (
	"errors"
	"fmt"

	"github.com/orizon-lang/orizon-verify/internal/ast"
	"github.com/orizon-lang/orizon-verify/internal/callgraph"
	"github.com/orizon-lang/orizon-verify/internal/cli"
	"github.com/orizon-lang/orizon-verify/internal/config"
	"github.com/orizon-lang/orizon-verify/internal/diagnostic"
	errs "github.com/orizon-lang/orizon-verify/internal/errors"
	"github.com/orizon-lang/orizon-verify/internal/ir"
	"github.com/orizon-lang/orizon-verify/internal/position"
	"github.com/orizon-lang/orizon-verify/internal/prelude"
	"github.com/orizon-lang/orizon-verify/internal/triggers"
)

// Translator holds the state of one translation run. It is single use.
type Translator struct {
	prog  *ast.Program
	opts  config.Options
	diags *diagnostic.DiagnosticEngine
	log   *cli.Logger

	b     *ast.Builder
	graph *callgraph.Graph
	out   *ir.Program
	used  bool

	fields     map[ast.NodeID]*fieldDesc
	functions  map[ast.NodeID]*funcDesc
	unresolved map[string]bool
	failures   []error
	temps      int
	// cur is the span of the declaration being emitted.
	cur position.Span
}

// New creates a translator for prog. diags and log may be nil.
func New(prog *ast.Program, opts config.Options, diags *diagnostic.DiagnosticEngine, log *cli.Logger) *Translator {
	if diags == nil {
		diags = diagnostic.NewDiagnosticEngine(diagnostic.DefaultConfig())
	}
	return &Translator{
		prog:       prog,
		opts:       opts,
		diags:      diags,
		log:        log.With("translate"),
		b:          ast.NewBuilder(prog),
		fields:     make(map[ast.NodeID]*fieldDesc),
		functions:  make(map[ast.NodeID]*funcDesc),
		unresolved: make(map[string]bool),
	}
}

// Diagnostics returns the engine the translator reports to.
func (t *Translator) Diagnostics() *diagnostic.DiagnosticEngine { return t.diags }

// Graph returns the call graph of the program; nil before Translate.
func (t *Translator) Graph() *callgraph.Graph { return t.graph }

// Translate produces the IR program. The returned program holds every
// declaration that translated; the error is non-nil when at least one
// declaration failed or the run could not start.
func (t *Translator) Translate() (*ir.Program, error) {
	if t.used {
		return nil, errs.TranslatorReused(t.prog.Name)
	}
	t.used = true

	if err := prelude.Check(t.opts.PreludeConstraint); err != nil {
		return nil, err
	}

	t.out = &ir.Program{}
	if t.opts.EmitPrelude {
		t.out.Prelude = prelude.Text()
	}

	triggers.Generate(t.prog, t.opts, t.diags, t.log)
	t.graph = callgraph.Build(t.prog)

	for _, arr := range t.prog.ArrayClasses() {
		t.declare(arr.Name, arr.GetSpan(), func() { t.emitClass(arr) })
		for _, m := range arr.Members {
			if f, ok := m.(*ast.Field); ok {
				t.declare(fieldName(f), f.GetSpan(), func() { t.emitField(f) })
			}
		}
	}

	for _, m := range t.prog.Modules {
		t.log.Debug("module %s (height %d)", m.Name, m.Height)
		for _, d := range m.Decls {
			switch d := d.(type) {
			case *ast.ClassDecl:
				t.declare(className(d), d.GetSpan(), func() { t.emitClass(d) })
				for _, member := range d.Members {
					t.member(member)
				}
			case *ast.DatatypeDecl:
				t.declare(d.Name, d.GetSpan(), func() { t.emitDatatype(d) })
			}
		}
	}

	if len(t.failures) > 0 {
		return t.out, fmt.Errorf("%d declaration(s) failed to translate: %w", len(t.failures), errors.Join(t.failures...))
	}
	return t.out, nil
}

func (t *Translator) member(m ast.MemberDecl) {
	switch m := m.(type) {
	case *ast.Field:
		t.declare(fieldName(m), m.GetSpan(), func() { t.emitField(m) })
	case *ast.Function:
		t.declare(m.FullName(), m.GetSpan(), func() { t.emitFunction(m) })
	case *ast.Method:
		t.declare(m.FullName(), m.GetSpan(), func() { t.emitMethod(m) })
	default:
		panic(errs.UnsupportedNode("class member", m))
	}
}

// declare runs emit for one declaration. An internal error raised while
// emitting discards everything the declaration produced.
func (t *Translator) declare(name string, span position.Span, emit func()) {
	mark := len(t.out.Decls)
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		se, ok := r.(*errs.StandardError)
		if !ok {
			panic(r)
		}
		if !se.Span.IsValid() {
			se.At(span)
		}
		t.out.Decls = t.out.Decls[:mark]
		t.failures = append(t.failures, se)
		t.diags.AddDiagnostic(diagnostic.Common.DeclarationFailed(span, name, se))
		t.log.Error("%s: %v", name, se)
	}()
	t.cur = span
	t.log.Debug("translating %s", name)
	emit()
}

func (t *Translator) emit(ds ...ir.Decl) { t.out.Add(ds...) }

// fresh returns a name no source variable can have.
func (t *Translator) fresh(prefix string) string {
	t.temps++
	return fmt.Sprintf("%s#%d", prefix, t.temps)
}

// owns panics when n was not built for the program being translated.
func (t *Translator) owns(n ast.Node) {
	if !t.prog.Arena.Owns(n.NodeID()) {
		panic(errs.ForeignNode(fmt.Sprintf("node %s (%s) does not belong to program %s", n.NodeID(), n, t.prog.Name)))
	}
}

func (t *Translator) reportUnresolved(name string) {
	if t.unresolved[name] {
		return
	}
	t.unresolved[name] = true
	t.log.Warn("unresolved type %s treated as a reference type", name)
	t.diags.AddDiagnostic(diagnostic.Common.UnresolvedType(t.cur, name))
}

// ====== Classes ======

func (t *Translator) emitClass(c *ast.ClassDecl) {
	t.owns(c)
	t.emit(&ir.ConstDecl{Name: className(c), Type: ir.ClassName, Unique: true})
	if c.IsArray() {
		t.emitArrayElements(c)
	}
}
