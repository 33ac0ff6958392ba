// Package callgraph computes the call graph of functions and methods, its
// strongly connected components and the height of every callable.
//
// A callable's height is larger than the height of every callable it
// calls outside its own component, and all members of one component share
// a height. Heights drive both the #limited substitution and the
// stratification of function axioms.
package callgraph

import (
	"sort"

	"github.com/orizon-lang/orizon-verify/internal/ast"
)

// Callable is an *ast.Function or an *ast.Method.
type Callable interface {
	ast.Node
	EnclosingClass() *ast.ClassDecl
}

// Graph is the call graph of one program.
type Graph struct {
	nodes map[ast.NodeID]Callable
	order []ast.NodeID
	edges map[ast.NodeID][]ast.NodeID
	self  map[ast.NodeID]bool

	comp    map[ast.NodeID]int
	members [][]ast.NodeID
	heights []int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[ast.NodeID]Callable),
		edges: make(map[ast.NodeID][]ast.NodeID),
		self:  make(map[ast.NodeID]bool),
	}
}

// AddNode registers a callable.
func (g *Graph) AddNode(c Callable) {
	id := c.NodeID()
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = c
	g.order = append(g.order, id)
	g.comp = nil
}

// AddEdge records that from calls to.
func (g *Graph) AddEdge(from, to Callable) {
	g.AddNode(from)
	g.AddNode(to)
	f, t := from.NodeID(), to.NodeID()
	if f == t {
		g.self[f] = true
	}
	for _, e := range g.edges[f] {
		if e == t {
			return
		}
	}
	g.edges[f] = append(g.edges[f], t)
	g.comp = nil
}

// Callees returns the callables from calls directly.
func (g *Graph) Callees(from Callable) []Callable {
	var out []Callable
	for _, id := range g.edges[from.NodeID()] {
		out = append(out, g.nodes[id])
	}
	return out
}

// Build walks every function and method of p and records its calls.
// A function mentioning itself in its own postcondition refers to its
// result and does not count as a call.
func Build(p *ast.Program) *Graph {
	g := New()
	for _, f := range p.Functions() {
		g.AddNode(f)
	}
	for _, m := range p.Methods() {
		g.AddNode(m)
	}

	for _, f := range p.Functions() {
		calls := func(e ast.Expr, skipSelf bool) {
			ast.Walk(e, func(x ast.Expr) bool {
				if call, ok := x.(*ast.FunctionCallExpr); ok && !(skipSelf && call.Function == f) {
					g.AddEdge(f, call.Function)
				}
				return true
			})
		}
		for _, e := range f.Requires {
			calls(e, false)
		}
		for _, fe := range f.Reads {
			calls(fe.E, false)
		}
		for _, e := range f.Decreases {
			calls(e, false)
		}
		for _, e := range f.Ensures {
			calls(e, true)
		}
		if f.Body != nil {
			calls(f.Body, false)
		}
	}

	for _, m := range p.Methods() {
		calls := func(e ast.Expr) {
			ast.Walk(e, func(x ast.Expr) bool {
				if call, ok := x.(*ast.FunctionCallExpr); ok {
					g.AddEdge(m, call.Function)
				}
				return true
			})
		}
		for _, r := range m.Requires {
			calls(r.E)
		}
		for _, r := range m.Ensures {
			calls(r.E)
		}
		for _, fe := range m.Modifies {
			calls(fe.E)
		}
		for _, e := range m.Decreases {
			calls(e)
		}
		if m.Body != nil {
			ast.WalkStmt(m.Body, func(s ast.Stmt) {
				for _, e := range ast.StmtExprs(s) {
					calls(e)
				}
				if cs, ok := s.(*ast.CallStmt); ok {
					g.AddEdge(m, cs.Method)
				}
			})
		}
	}
	return g
}

// ====== Components ======

// compute runs Tarjan's algorithm. Components come out callees first, so
// heights can be assigned in emission order.
func (g *Graph) compute() {
	if g.comp != nil {
		return
	}
	g.comp = make(map[ast.NodeID]int, len(g.nodes))
	g.members = nil
	g.heights = nil

	index := make(map[ast.NodeID]int, len(g.nodes))
	low := make(map[ast.NodeID]int, len(g.nodes))
	onStack := make(map[ast.NodeID]bool, len(g.nodes))
	var stack []ast.NodeID
	next := 0

	var strongConnect func(v ast.NodeID)
	strongConnect = func(v ast.NodeID) {
		index[v] = next
		low[v] = next
		next++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range g.edges[v] {
			if _, seen := index[w]; !seen {
				strongConnect(w)
				if low[w] < low[v] {
					low[v] = low[w]
				}
			} else if onStack[w] && index[w] < low[v] {
				low[v] = index[w]
			}
		}

		if low[v] != index[v] {
			return
		}
		c := len(g.members)
		var members []ast.NodeID
		for {
			w := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			onStack[w] = false
			g.comp[w] = c
			members = append(members, w)
			if w == v {
				break
			}
		}
		sort.Slice(members, func(i, j int) bool { return members[i].Index < members[j].Index })
		g.members = append(g.members, members)

		h := 0
		for _, m := range members {
			for _, w := range g.edges[m] {
				if cw := g.comp[w]; cw != c && g.heights[cw]+1 > h {
					h = g.heights[cw] + 1
				}
			}
		}
		g.heights = append(g.heights, h)
	}

	for _, v := range g.order {
		if _, seen := index[v]; !seen {
			strongConnect(v)
		}
	}
}

// Height returns the height of c, or -1 when c is not in the graph.
func (g *Graph) Height(c Callable) int {
	g.compute()
	comp, ok := g.comp[c.NodeID()]
	if !ok {
		return -1
	}
	return g.heights[comp]
}

// SameSCC reports whether a and b are mutually reachable.
func (g *Graph) SameSCC(a, b Callable) bool {
	g.compute()
	ca, okA := g.comp[a.NodeID()]
	cb, okB := g.comp[b.NodeID()]
	return okA && okB && ca == cb
}

// IsRecursive reports whether c can reach itself.
func (g *Graph) IsRecursive(c Callable) bool {
	g.compute()
	comp, ok := g.comp[c.NodeID()]
	if !ok {
		return false
	}
	return len(g.members[comp]) > 1 || g.self[c.NodeID()]
}

// SCC returns the members of c's component in declaration order.
func (g *Graph) SCC(c Callable) []Callable {
	g.compute()
	comp, ok := g.comp[c.NodeID()]
	if !ok {
		return nil
	}
	out := make([]Callable, len(g.members[comp]))
	for i, id := range g.members[comp] {
		out[i] = g.nodes[id]
	}
	return out
}

// Components returns every component, callees first.
func (g *Graph) Components() [][]Callable {
	g.compute()
	out := make([][]Callable, len(g.members))
	for i, ms := range g.members {
		out[i] = make([]Callable, len(ms))
		for j, id := range ms {
			out[i][j] = g.nodes[id]
		}
	}
	return out
}
