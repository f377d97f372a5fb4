package evaluator

import (
	"github.com/jgslunde/brandubh-az/encoder"
	"github.com/jgslunde/brandubh-az/movecodec"
)

// Uniform is the simplest reference backend: zero logits (uniform after
// softmax) and value 0.0, regardless of input. It is the evaluator used by
// the end-to-end scenarios in SPEC_FULL.md §8 ("mocked evaluator that
// returns uniform policy logits and value 0.0").
type Uniform struct{}

// Evaluate implements Evaluator.
func (Uniform) Evaluate(state [encoder.StateSize]float32) (policy [movecodec.Size]float32, value float32, err error) {
	return policy, 0.0, nil
}
