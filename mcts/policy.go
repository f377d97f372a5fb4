package mcts

import (
	"math"
	"math/rand"

	"github.com/jgslunde/brandubh-az/board"
)

// VisitDistribution is a root's children visit counts in stable
// (movecodec) enumeration order — the raw material for both the training
// policy target and move selection (SPEC_FULL.md §4.7/§4.8).
type VisitDistribution struct {
	Moves  []board.Move
	Visits []uint32
}

// Total sums the visit counts.
func (d VisitDistribution) Total() uint32 {
	var total uint32
	for _, v := range d.Visits {
		total += v
	}
	return total
}

// ArgMax returns the most-visited move, breaking ties by enumeration order
// (the first child seen with the maximal count wins). ok is false for an
// empty distribution (a terminal root).
func (d VisitDistribution) ArgMax() (move board.Move, ok bool) {
	if len(d.Moves) == 0 {
		return board.Move{}, false
	}
	best := 0
	for i := 1; i < len(d.Visits); i++ {
		if d.Visits[i] > d.Visits[best] {
			best = i
		}
	}
	return d.Moves[best], true
}

// Sample draws a move with probability proportional to visits^(1/temperature)
// (temperature > 0), the standard AlphaZero self-play exploration policy.
// temperature <= 0 is treated as the deterministic limit and returns ArgMax.
func (d VisitDistribution) Sample(r *rand.Rand, temperature float64) (move board.Move, ok bool) {
	if len(d.Moves) == 0 {
		return board.Move{}, false
	}
	if temperature <= 0 {
		return d.ArgMax()
	}
	invT := 1.0 / temperature
	weights := make([]float64, len(d.Visits))
	var sum float64
	for i, v := range d.Visits {
		w := math.Pow(float64(v), invT)
		weights[i] = w
		sum += w
	}
	if sum <= 0 {
		return d.ArgMax()
	}
	x := r.Float64() * sum
	for i, w := range weights {
		x -= w
		if x <= 0 {
			return d.Moves[i], true
		}
	}
	return d.Moves[len(d.Moves)-1], true
}

// distribution reads off id's children in their fixed enumeration order.
func (e *Engine) distribution(id NodeID) VisitDistribution {
	n := e.tree.node(id)
	d := VisitDistribution{
		Moves:  make([]board.Move, len(n.childOrder)),
		Visits: make([]uint32, len(n.childOrder)),
	}
	for i, mv := range n.childOrder {
		d.Moves[i] = mv
		d.Visits[i] = e.tree.node(n.children[mv]).visits
	}
	return d
}
