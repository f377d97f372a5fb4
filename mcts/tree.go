package mcts

import "github.com/jgslunde/brandubh-az/board"

// Config tunes PUCT selection and cooperative yielding. Grounded on the
// teacher's mcts.Config (Cpuct, MaxDepth, NumSimulation fields) trimmed to
// the single-simulation-in-flight model: no NumMCTSGoroutine, no virtual
// loss, since only one simulation ever runs at a time.
type Config struct {
	// PUCT is the exploration constant c_puct in the PUCT formula.
	PUCT float32
	// FPUReduction is subtracted from the parent's Q to form the First-Play
	// Urgency estimate used for children with zero visits.
	FPUReduction float32
	// BatchSize is how many simulations SearchStream runs between yields on
	// its Progress channel (and between ctx.Done checks).
	BatchSize int
	// ReuseDepth bounds how many plies deep tree-reuse will search the old
	// tree for a node matching a new root request before giving up and
	// building a fresh tree. 0 disables reuse beyond exact root match.
	ReuseDepth int
}

// DefaultConfig mirrors the teacher's DefaultConfig shape.
func DefaultConfig() Config {
	return Config{
		PUCT:         1.5,
		FPUReduction: 0.2,
		BatchSize:    16,
		ReuseDepth:   4,
	}
}

// Tree is an arena of Nodes addressed by NodeID, with a free-list for
// recycling slots released by tree-reuse pruning. Grounded on the teacher's
// mcts/tree.go (alloc/free/freelist) and mcts/naughty.go (the handle type),
// collapsed to single-threaded use: no locks anywhere in this struct.
type Tree struct {
	nodes    []Node
	freelist []NodeID
	root     NodeID
}

// NewTree allocates an empty arena with no root. PUCT and reuse tuning
// lives on Config, held by Engine rather than Tree: nothing about the arena
// itself is configurable.
func NewTree() *Tree {
	return &Tree{root: nilNode}
}

// alloc returns a fresh or recycled NodeID, with a zeroed Node in its slot.
func (t *Tree) alloc() NodeID {
	if n := len(t.freelist); n > 0 {
		id := t.freelist[n-1]
		t.freelist = t.freelist[:n-1]
		t.nodes[id].reset()
		t.nodes[id].parent = nilNode
		return id
	}
	t.nodes = append(t.nodes, Node{parent: nilNode})
	return NodeID(len(t.nodes) - 1)
}

// node returns a pointer into the arena slice. Never retain this pointer
// across an alloc call: append may reallocate the backing array.
func (t *Tree) node(id NodeID) *Node {
	return &t.nodes[id]
}

// free recursively returns id and its whole subtree to the free-list. Used
// by tree-reuse promotion to discard branches that fall outside the new
// root's subtree, and by Reset to discard the whole tree.
func (t *Tree) free(id NodeID) {
	if !id.IsValid() {
		return
	}
	n := t.node(id)
	for _, mv := range n.childOrder {
		t.free(n.children[mv])
	}
	t.freelist = append(t.freelist, id)
}

// Reset discards the whole tree; the next SetRoot starts a fresh arena
// region (old slots are recycled via the free-list rather than reallocating
// the backing slice).
func (t *Tree) Reset() {
	t.free(t.root)
	t.root = nilNode
}

// SetRoot allocates a brand-new, unexpanded root node for pos/side,
// discarding whatever tree existed before.
func (t *Tree) SetRoot(pos board.Position, side board.Side) NodeID {
	t.Reset()
	id := t.alloc()
	n := t.node(id)
	n.position = &pos
	n.side = side
	t.root = id
	return id
}

// Root returns the current root id, or nilNode if the tree is empty.
func (t *Tree) Root() NodeID { return t.root }

// RootNode returns the current root's Node, or nil if the tree is empty.
func (t *Tree) RootNode() *Node {
	if !t.root.IsValid() {
		return nil
	}
	return t.node(t.root)
}

// Promote makes newRoot (found somewhere under the current root) the new
// root, discarding every sibling branch along the path that newRoot's
// ancestry didn't pass through. newRoot must already have a materialized
// position.
func (t *Tree) Promote(newRoot NodeID) {
	if newRoot == t.root || !newRoot.IsValid() {
		return
	}
	// path[0] = newRoot, path[last] = old root, each entry the parent of
	// the one before it.
	path := []NodeID{newRoot}
	for cur := t.node(newRoot).parent; cur.IsValid(); cur = t.node(cur).parent {
		path = append(path, cur)
	}
	for i := 0; i < len(path)-1; i++ {
		child, parent := path[i], path[i+1]
		pn := t.node(parent)
		for _, mv := range pn.childOrder {
			if cid := pn.children[mv]; cid != child {
				t.free(cid)
			}
		}
	}
	for i := 1; i < len(path); i++ {
		t.freelist = append(t.freelist, path[i])
	}
	t.node(newRoot).parent = nilNode
	t.root = newRoot
}

// ChildPriors returns id's children's expansion-time priors in enumeration
// order, or nil if id has not been expanded. Exposed for tests and callers
// inspecting prior-probability mass without walking the arena by hand.
func (t *Tree) ChildPriors(id NodeID) []float32 {
	n := t.node(id)
	if !n.expanded {
		return nil
	}
	priors := make([]float32, len(n.childOrder))
	for i, mv := range n.childOrder {
		priors[i] = t.node(n.children[mv]).prior
	}
	return priors
}

// NumNodes reports how many arena slots are currently live (allocated and
// not on the free-list). Exposed for tests and the graphviz debug dump.
func (t *Tree) NumNodes() int {
	return len(t.nodes) - len(t.freelist)
}
