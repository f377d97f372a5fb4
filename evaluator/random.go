package evaluator

import (
	"math/rand"

	"github.com/jgslunde/brandubh-az/encoder"
	"github.com/jgslunde/brandubh-az/movecodec"
)

// Random returns deterministic-given-seed pseudo-random logits and a
// pseudo-random value in [-1, 1], for fuzz and property tests that want a
// non-degenerate policy without pulling in the neural backend. Grounded on
// the teacher's pattern of multiple Inferer implementations behind
// Agent.inferer (mcts.Inferencer / agogo.Inferer).
type Random struct {
	Source *rand.Rand
}

// Evaluate implements Evaluator.
func (r Random) Evaluate(state [encoder.StateSize]float32) (policy [movecodec.Size]float32, value float32, err error) {
	src := r.Source
	if src == nil {
		src = rand.New(rand.NewSource(1))
	}
	for i := range policy {
		policy[i] = float32(src.NormFloat64())
	}
	value = float32(src.Float64()*2 - 1)
	return policy, value, nil
}
