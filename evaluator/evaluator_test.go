package evaluator_test

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/jgslunde/brandubh-az/encoder"
	"github.com/jgslunde/brandubh-az/evaluator"
	"github.com/jgslunde/brandubh-az/movecodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformEvaluator(t *testing.T) {
	var state [encoder.StateSize]float32
	policy, value, err := evaluator.Uniform{}.Evaluate(state)
	require.NoError(t, err)
	assert.Equal(t, float32(0), value)
	for _, p := range policy {
		assert.Equal(t, float32(0), p)
	}
}

func TestUniformEvaluatorDeterministic(t *testing.T) {
	var state [encoder.StateSize]float32
	p1, v1, _ := evaluator.Uniform{}.Evaluate(state)
	p2, v2, _ := evaluator.Uniform{}.Evaluate(state)
	assert.Equal(t, p1, p2)
	assert.Equal(t, v1, v2)
}

func TestRandomEvaluatorDeterministicGivenSeed(t *testing.T) {
	var state [encoder.StateSize]float32
	r1 := evaluator.Random{Source: rand.New(rand.NewSource(42))}
	r2 := evaluator.Random{Source: rand.New(rand.NewSource(42))}
	p1, v1, err := r1.Evaluate(state)
	require.NoError(t, err)
	p2, v2, err := r2.Evaluate(state)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	assert.Equal(t, v1, v2)
}

func TestRandomEvaluatorValueInRange(t *testing.T) {
	var state [encoder.StateSize]float32
	r := evaluator.Random{Source: rand.New(rand.NewSource(7))}
	_, value, err := r.Evaluate(state)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, value, float32(-1))
	assert.LessOrEqual(t, value, float32(1))
}

func TestCheckFiniteRejectsNaN(t *testing.T) {
	var policy [movecodec.Size]float32
	policy[5] = float32(math.NaN())
	err := evaluator.CheckFinite(policy, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, evaluator.ErrEvaluator))
}

func TestCheckFiniteRejectsInfValue(t *testing.T) {
	var policy [movecodec.Size]float32
	err := evaluator.CheckFinite(policy, float32(math.Inf(1)))
	require.Error(t, err)
}

func TestCheckFiniteAcceptsFiniteInputs(t *testing.T) {
	var policy [movecodec.Size]float32
	policy[0] = 1.5
	err := evaluator.CheckFinite(policy, 0.3)
	assert.NoError(t, err)
}

type closeRecorder struct {
	evaluator.Uniform
	closed  *bool
	failing bool
}

func (c closeRecorder) Close() error {
	*c.closed = true
	if c.failing {
		return errors.New("boom")
	}
	return nil
}

func TestPoolCloseAggregatesErrors(t *testing.T) {
	var closedA, closedB bool
	pool := &evaluator.Pool{
		Primary:   closeRecorder{closed: &closedA, failing: true},
		Fallbacks: []evaluator.Evaluator{closeRecorder{closed: &closedB, failing: true}},
	}
	err := pool.Close()
	require.Error(t, err)
	assert.True(t, closedA)
	assert.True(t, closedB)
}

func TestPoolEvaluateDelegatesToPrimary(t *testing.T) {
	pool := &evaluator.Pool{Primary: evaluator.Uniform{}}
	var state [encoder.StateSize]float32
	_, value, err := pool.Evaluate(state)
	require.NoError(t, err)
	assert.Equal(t, float32(0), value)
}
