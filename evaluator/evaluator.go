// Package evaluator defines the abstract boundary between the MCTS engine
// and a neural model (SPEC_FULL.md §4.4), plus a handful of reference
// backends used for testing and as fallbacks.
package evaluator

import (
	"math"

	"github.com/jgslunde/brandubh-az/encoder"
	"github.com/jgslunde/brandubh-az/movecodec"
	"github.com/pkg/errors"
)

// ErrEvaluator is the sentinel for a fatal evaluator failure: unavailable
// backend, or a result containing NaN/Inf. The engine treats any error
// returned here as fatal to the current search (SPEC_FULL.md §4.4, §7).
var ErrEvaluator = errors.New("evaluator: invalid result")

// Evaluator is the engine's sole polymorphic boundary (SPEC_FULL.md §9): a
// synchronous (from the caller's point of view) mapping from an encoded
// state to raw policy logits and a scalar value in [-1, 1]. Implementations
// may batch or cache across calls; the engine does neither on its own.
type Evaluator interface {
	Evaluate(state [encoder.StateSize]float32) (policy [movecodec.Size]float32, value float32, err error)
}

// CheckFinite validates that policy and value are finite, wrapping
// ErrEvaluator if not. neural.Network calls this before returning; Uniform
// and Random produce finite output by construction and do not call it, and
// mcts does not call it on evaluator results.
func CheckFinite(policy [movecodec.Size]float32, value float32) error {
	if math.IsNaN(float64(value)) || math.IsInf(float64(value), 0) {
		return errors.Wrapf(ErrEvaluator, "non-finite value %v", value)
	}
	for i, v := range policy {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return errors.Wrapf(ErrEvaluator, "non-finite policy logit at index %d: %v", i, v)
		}
	}
	return nil
}
