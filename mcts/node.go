// Package mcts implements the AlphaZero-style search tree and simulation
// loop: node arena (C5), PUCT selection with First-Play Urgency, lazy child
// expansion, backup with perspective flipping, tree reuse, cooperative
// yielding (C6), and visit-distribution / temperature move selection (C7).
// Grounded on Elvenson-alphabeth's mcts package (node.go, tree.go,
// search.go, naughty.go), collapsed from its N-goroutine worker pool and
// per-node mutexes to the single-simulation-in-flight model SPEC_FULL.md §5
// mandates: only one simulation is ever in progress, so no locking is
// required anywhere in this package.
package mcts

import "github.com/jgslunde/brandubh-az/board"

// NodeID is a small-integer handle into a Tree's node arena, the analogue of
// the teacher's Naughty type — used in place of pointers so parent
// back-references never own and the tree can live in one contiguous slice
// (SPEC_FULL.md §3, "Back-references, not ownership").
type NodeID int32

// nilNode marks the absence of a node (no parent, no child for a move).
const nilNode NodeID = -1

// IsValid reports whether id refers to an allocated node.
func (id NodeID) IsValid() bool { return id >= 0 }

// Node is one tree node: see SPEC_FULL.md §3 for the field-by-field
// invariants (root has no parent, exactly one child per legal move, Σ
// child.N ≤ node.N, priors sum to 1, Q ∈ [-1,1], terminal nodes are never
// expanded).
type Node struct {
	position *board.Position // lazily materialized; nil until first traversed
	side     board.Side      // side to move at this node's position

	prior    float32 // P(s,a) from the parent's expansion
	visits   uint32  // N
	valueSum float32 // W; Q = valueSum / visits

	expanded      bool
	terminal      bool
	terminalValue float32 // valid only if terminal

	parent NodeID
	move   board.Move // incoming move from parent; meaningless for the root

	// children and childOrder are populated together at expansion
	// (Node invariant: exactly one child per legal move, created all at
	// once). childOrder fixes the enumeration order PUCT selection and
	// temperature-0 tie-breaking rely on; children is the move→NodeID
	// lookup used by tree-reuse promotion.
	children   map[board.Move]NodeID
	childOrder []board.Move
}

// Q returns the node's mean value estimate, 0 for an unvisited node (the
// neutral value used before any backup has touched it).
func (n *Node) Q() float32 {
	if n.visits == 0 {
		return 0
	}
	return n.valueSum / float32(n.visits)
}

// HasChildren reports whether the node has been expanded.
func (n *Node) HasChildren() bool { return n.expanded }

// Visits returns the node's visit count N.
func (n *Node) Visits() uint32 { return n.visits }

// IsTerminal reports whether the node's position is a decisive terminal
// state (Brandubh has no draw outcome).
func (n *Node) IsTerminal() bool { return n.terminal }

// reset clears a freed node back to its zero-ish state so the arena slot can
// be reused without leaking the previous occupant's children map.
func (n *Node) reset() {
	n.position = nil
	n.side = 0
	n.prior = 0
	n.visits = 0
	n.valueSum = 0
	n.expanded = false
	n.terminal = false
	n.terminalValue = 0
	n.parent = nilNode
	n.move = board.Move{}
	n.children = nil
	n.childOrder = nil
}
