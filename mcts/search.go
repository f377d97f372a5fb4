package mcts

import (
	"context"

	"github.com/chewxy/math32"
	"github.com/jgslunde/brandubh-az/board"
	"github.com/jgslunde/brandubh-az/encoder"
	"github.com/jgslunde/brandubh-az/evaluator"
	"github.com/jgslunde/brandubh-az/movecodec"
	"github.com/pkg/errors"
)

// Engine runs PUCT simulations against a single Tree and a single
// evaluator.Evaluator, one simulation at a time. Grounded on the teacher's
// mcts/search.go pipeline (select, expand/evaluate, backup), with the
// worker-goroutine pool removed per SPEC_FULL.md §4.6's no-tree-parallelism
// requirement.
type Engine struct {
	conf Config
	eval evaluator.Evaluator
	tree *Tree

	hasRoot  bool
	rootPos  board.Position
	rootSide board.Side
}

// NewEngine builds an Engine around eval with an empty tree.
func NewEngine(eval evaluator.Evaluator, conf Config) *Engine {
	return &Engine{conf: conf, eval: eval, tree: NewTree()}
}

// Tree exposes the underlying arena, chiefly for DebugDOT and tests.
func (e *Engine) Tree() *Tree { return e.tree }

// Progress is one update emitted on a SearchStream channel.
type Progress struct {
	Simulations  int
	Distribution VisitDistribution
	Done         bool
	Err          error
}

// Search runs nSims simulations synchronously from (pos, side), reusing the
// held tree when it already has a node for this exact state (value
// equality) or one reachable within conf.ReuseDepth plies of the previous
// root. It returns the root's visit distribution even when ctx is
// cancelled partway through or the leaf evaluator errors — callers that
// care should check the returned error with errors.Is.
func (e *Engine) Search(ctx context.Context, pos board.Position, side board.Side, nSims int) (VisitDistribution, error) {
	rootID := e.ensureRoot(pos, side)
	batch := e.conf.BatchSize
	if batch <= 0 {
		batch = 1
	}
	for i := 0; i < nSims; i++ {
		if i%batch == 0 {
			select {
			case <-ctx.Done():
				return e.distribution(rootID), errors.Wrap(ErrCancelled, ctx.Err().Error())
			default:
			}
		}
		if err := e.simulate(rootID); err != nil {
			return e.distribution(rootID), err
		}
	}
	return e.distribution(rootID), nil
}

// SearchStream is the cooperative-yielding form of Search: a single
// producer goroutine runs simulations in batches of conf.BatchSize,
// publishing a Progress snapshot on the returned channel after each batch
// (and a final one on completion, cancellation or error). There is never
// more than one simulation in flight; the goroutine exists only to let
// callers interleave receiving progress with other work, not to
// parallelize search.
func (e *Engine) SearchStream(ctx context.Context, pos board.Position, side board.Side, nSims int) <-chan Progress {
	out := make(chan Progress, 1)
	rootID := e.ensureRoot(pos, side)
	batch := e.conf.BatchSize
	if batch <= 0 {
		batch = 1
	}
	go func() {
		defer close(out)
		done := 0
		for done < nSims {
			select {
			case <-ctx.Done():
				out <- Progress{Simulations: done, Distribution: e.distribution(rootID), Err: errors.Wrap(ErrCancelled, ctx.Err().Error())}
				return
			default:
			}
			step := batch
			if remaining := nSims - done; remaining < step {
				step = remaining
			}
			for i := 0; i < step; i++ {
				if err := e.simulate(rootID); err != nil {
					out <- Progress{Simulations: done, Distribution: e.distribution(rootID), Err: err}
					return
				}
				done++
			}
			out <- Progress{Simulations: done, Distribution: e.distribution(rootID), Done: done == nSims}
		}
	}()
	return out
}

// ensureRoot reuses the held tree when possible (SPEC_FULL.md §4.7: value
// equality, not identity), promoting a deeper matching node when the exact
// root doesn't match but a descendant within conf.ReuseDepth plies does,
// and otherwise discards the tree and starts fresh.
func (e *Engine) ensureRoot(pos board.Position, side board.Side) NodeID {
	if e.hasRoot && e.rootPos.Eq(pos) && e.rootSide == side {
		return e.tree.Root()
	}
	if e.hasRoot && e.conf.ReuseDepth > 0 {
		if found, ok := e.findDescendant(pos, side, e.conf.ReuseDepth); ok {
			e.tree.Promote(found)
			e.rootPos, e.rootSide, e.hasRoot = pos, side, true
			return found
		}
	}
	id := e.tree.SetRoot(pos, side)
	e.rootPos, e.rootSide, e.hasRoot = pos, side, true
	return id
}

// findDescendant searches the held tree's materialized nodes (children
// whose position has never been visited have a nil position and are
// skipped, not descended into) for one matching pos/side, breadth-first up
// to maxDepth plies from the current root.
func (e *Engine) findDescendant(pos board.Position, side board.Side, maxDepth int) (NodeID, bool) {
	type item struct {
		id    NodeID
		depth int
	}
	queue := []item{{e.tree.Root(), 0}}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n := e.tree.node(cur.id)
		if n.position != nil && n.position.Eq(pos) && n.side == side {
			return cur.id, true
		}
		if cur.depth >= maxDepth {
			continue
		}
		for _, mv := range n.childOrder {
			queue = append(queue, item{n.children[mv], cur.depth + 1})
		}
	}
	return nilNode, false
}

// simulate runs one selection→evaluation/expansion→backup pass starting at
// root. The root's position is always already materialized; descendants'
// positions are materialized lazily the first time selection reaches them.
func (e *Engine) simulate(rootID NodeID) error {
	path := []NodeID{rootID}
	id := rootID
	node := e.tree.node(id)
	current := *node.position

	for node.expanded && !node.terminal {
		childID := e.selectChild(id)
		child := e.tree.node(childID)
		if child.position == nil {
			next, err := board.Apply(current, child.move)
			if err != nil {
				return errors.Wrap(err, "mcts: applying move during selection")
			}
			child.position = &next
		}
		current = *child.position
		id, node = childID, child
		path = append(path, id)
	}

	var v float32
	switch {
	case node.terminal:
		v = node.terminalValue
	default:
		outcome := board.IsTerminal(current)
		if outcome != board.NotOver {
			node.terminal = true
			node.terminalValue = terminalValue(outcome, node.side)
			v = node.terminalValue
			break
		}
		state := encoder.EncodeState(current, node.side)
		policy, nnValue, err := e.eval.Evaluate(state)
		if err != nil {
			return errors.Wrap(err, "mcts: leaf evaluation")
		}
		moves := movecodec.AllLegalMoves(current, node.side)
		e.expand(id, moves, policy)
		v = nnValue
	}

	for i := len(path) - 1; i >= 0; i-- {
		n := e.tree.node(path[i])
		n.visits++
		n.valueSum += v
		v = -v
	}
	return nil
}

// terminalValue converts a decisive board.Outcome to a value in {-1, +1}
// from the perspective of side (SPEC_FULL.md §4.6's sign convention: +1 if
// side is the winner, -1 otherwise).
func terminalValue(outcome board.Outcome, side board.Side) float32 {
	var winner board.Side
	switch outcome {
	case board.AttackerWins:
		winner = board.AttackerSide
	case board.DefenderWins:
		winner = board.DefenderSide
	default:
		return 0
	}
	if winner == side {
		return 1
	}
	return -1
}

// selectChild applies PUCT with First-Play Urgency to parentID's children,
// returning the NodeID maximizing Q̂ + c_puct·P·√N_parent/(1+N_child). Ties
// keep the first child seen, which childOrder fixes to movecodec's stable
// enumeration order, making selection deterministic.
func (e *Engine) selectChild(parentID NodeID) NodeID {
	parent := e.tree.node(parentID)
	sqrtN := math32.Sqrt(float32(parent.visits))
	best := nilNode
	bestScore := math32.Inf(-1)
	for _, mv := range parent.childOrder {
		childID := parent.children[mv]
		child := e.tree.node(childID)

		var qhat float32
		if child.visits > 0 {
			qhat = -child.Q()
		} else {
			qhat = -(parent.Q() - e.conf.FPUReduction)
		}
		explore := e.conf.PUCT * child.prior * sqrtN / (1 + float32(child.visits))
		score := qhat + explore
		if score > bestScore {
			bestScore = score
			best = childID
		}
	}
	return best
}

// expand materializes one child per legal move with priors taken from a
// softmax over the evaluator's masked logits, normalized over the legal
// subset only (SPEC_FULL.md §4.4). moves is assumed non-empty: callers only
// reach expand after board.IsTerminal has ruled out the no-legal-move case.
//
// id is looked up fresh before and after the allocation loop rather than
// carrying a *Node across it: alloc can grow the arena's backing slice,
// which would otherwise leave a stale pointer dangling mid-expansion.
func (e *Engine) expand(id NodeID, moves []movecodec.IndexedMove, logits [movecodec.Size]float32) {
	parentSide := e.tree.node(id).side

	maxLogit := logits[moves[0].Index]
	for _, im := range moves[1:] {
		if logits[im.Index] > maxLogit {
			maxLogit = logits[im.Index]
		}
	}
	probs := make([]float32, len(moves))
	var sum float32
	for i, im := range moves {
		p := math32.Exp(logits[im.Index] - maxLogit)
		probs[i] = p
		sum += p
	}
	if sum <= 0 {
		uniform := 1 / float32(len(moves))
		for i := range probs {
			probs[i] = uniform
		}
	} else {
		for i := range probs {
			probs[i] /= sum
		}
	}

	children := make(map[board.Move]NodeID, len(moves))
	childOrder := make([]board.Move, len(moves))
	for i, im := range moves {
		childID := e.tree.alloc()
		child := e.tree.node(childID)
		*child = Node{
			side:   parentSide.Opponent(),
			prior:  probs[i],
			parent: id,
			move:   im.Move,
		}
		children[im.Move] = childID
		childOrder[i] = im.Move
	}

	node := e.tree.node(id)
	node.children = children
	node.childOrder = childOrder
	node.expanded = true
}
