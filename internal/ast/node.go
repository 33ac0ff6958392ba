// Package ast defines the resolved syntax tree consumed by the verifier.
// The resolver hands over a tree in which every name is bound to its
// declaration and every expression carries its type. Nodes are sum types
// (one sealed interface per syntactic category) and are allocated in an
// Arena, which hands out the NodeIDs used as memoization keys.
package ast

import (
	"fmt"
	"sync/atomic"

	"github.com/orizon-lang/orizon-verify/internal/position"
)

// Node is the base interface for all AST nodes
type Node interface {
	// NodeID returns the arena index of this node
	NodeID() NodeID
	// GetSpan returns the source span covered by this node
	GetSpan() position.Span
	// String returns a human-readable representation of the node
	String() string
}

// NodeID identifies a node within one arena generation.
type NodeID struct {
	Gen   uint32
	Index uint32
}

// IsZero reports whether the id was never assigned by an arena.
func (id NodeID) IsZero() bool { return id.Gen == 0 }

func (id NodeID) String() string { return fmt.Sprintf("#%d.%d", id.Gen, id.Index) }

var arenaGeneration atomic.Uint32

// Arena owns every node of one program. Each arena has its own
// generation number, so NodeIDs of different programs never collide.
type Arena struct {
	gen   uint32
	nodes []Node
}

// NewArena creates an arena with a fresh generation.
func NewArena() *Arena {
	return &Arena{gen: arenaGeneration.Add(1)}
}

// Generation returns the generation stamped into this arena's ids.
func (a *Arena) Generation() uint32 { return a.gen }

// Len returns the number of nodes allocated so far.
func (a *Arena) Len() int { return len(a.nodes) }

// Owns reports whether id was allocated by this arena.
func (a *Arena) Owns(id NodeID) bool {
	return id.Gen == a.gen && int(id.Index) < len(a.nodes)
}

// Node returns the node for id, or nil when id belongs elsewhere.
func (a *Arena) Node(id NodeID) Node {
	if !a.Owns(id) {
		return nil
	}
	return a.nodes[id.Index]
}

func (a *Arena) register(n Node) NodeID {
	id := NodeID{Gen: a.gen, Index: uint32(len(a.nodes))}
	a.nodes = append(a.nodes, n)
	return id
}

// base is embedded by every node.
type base struct {
	id   NodeID
	span position.Span
}

func (b *base) NodeID() NodeID          { return b.id }
func (b *base) GetSpan() position.Span { return b.span }
