package tafl_test

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/jgslunde/brandubh-az/board"
	"github.com/jgslunde/brandubh-az/encoder"
	"github.com/jgslunde/brandubh-az/evaluator"
	"github.com/jgslunde/brandubh-az/mcts"
	"github.com/jgslunde/brandubh-az/movecodec"
	"github.com/jgslunde/brandubh-az/tafl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBestMoveReturnsALegalMoveFromInitialPosition(t *testing.T) {
	conf := tafl.DefaultConfig()
	conf.Simulations = 25
	eng := tafl.NewEngine(evaluator.Uniform{}, conf)

	mv, _, err := eng.BestMove(context.Background(), board.Initial(), board.AttackerSide)
	require.NoError(t, err)
	assert.True(t, board.IsLegal(board.Initial(), board.AttackerSide, mv))
}

func TestBestMoveIsDeterministicGivenFixedSeed(t *testing.T) {
	newEngine := func() *tafl.Engine {
		conf := tafl.DefaultConfig()
		conf.Simulations = 25
		conf.Rand = rand.New(rand.NewSource(7))
		return tafl.NewEngine(evaluator.Uniform{}, conf)
	}
	mv1, _, err := newEngine().BestMove(context.Background(), board.Initial(), board.AttackerSide)
	require.NoError(t, err)
	mv2, _, err := newEngine().BestMove(context.Background(), board.Initial(), board.AttackerSide)
	require.NoError(t, err)
	assert.Equal(t, mv1, mv2)
}

func TestBestMoveReturnsPolicyDataWithLogitsValueAndVisits(t *testing.T) {
	var policy [movecodec.Size]float32
	policy[10] = 3.5
	conf := tafl.DefaultConfig()
	conf.Simulations = 10
	eng := tafl.NewEngine(stubEvaluator{policy: policy, value: 0.2}, conf)

	_, data, err := eng.BestMove(context.Background(), board.Initial(), board.AttackerSide)
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), data.Logits[10])
	assert.Equal(t, float32(0.2), data.Value)

	// The first simulation expands the root; the other 9 visit children.
	var total uint32
	for _, n := range data.Visits {
		total += n
	}
	assert.Equal(t, uint32(9), total)
}

func TestBestMoveOnTerminalPositionReturnsErrNoLegalMoves(t *testing.T) {
	var cells [board.Size][board.Size]board.Piece
	cells[0][0] = board.King // already home: game over
	pos, err := board.New(cells, board.AttackerSide)
	require.NoError(t, err)

	eng := tafl.NewEngine(evaluator.Uniform{}, tafl.DefaultConfig())
	_, _, err = eng.BestMove(context.Background(), pos, board.AttackerSide)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mcts.ErrNoLegalMoves))
}

func TestBestMoveOnCancelledContextFallsBackToFirstLegalMove(t *testing.T) {
	eng := tafl.NewEngine(evaluator.Uniform{}, tafl.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mv, _, err := eng.BestMove(ctx, board.Initial(), board.AttackerSide)
	require.NoError(t, err)
	legal := board.LegalMoves(board.Initial(), board.AttackerSide)
	require.NotEmpty(t, legal)
	assert.Equal(t, legal[0], mv)
}

func TestSearchVisitsSumIsSimulationCountLessRootExpansion(t *testing.T) {
	eng := tafl.NewEngine(evaluator.Uniform{}, tafl.DefaultConfig())
	data, err := eng.Search(context.Background(), board.Initial(), board.AttackerSide, 30)
	require.NoError(t, err)

	// The first simulation expands the root; the other 29 visit children.
	var total uint32
	for _, n := range data.Visits {
		total += n
	}
	assert.Equal(t, uint32(29), total)
}

func TestRawPolicyReturnsEvaluatorLogitsAndValueWithoutSearch(t *testing.T) {
	var policy [movecodec.Size]float32
	policy[10] = 3.5
	eng := tafl.NewEngine(stubEvaluator{policy: policy, value: 0.2}, tafl.DefaultConfig())

	data, err := eng.RawPolicy(board.Initial(), board.AttackerSide)
	require.NoError(t, err)
	assert.Equal(t, float32(3.5), data.Logits[10])
	assert.Equal(t, float32(0.2), data.Value)
	assert.Nil(t, data.Visits)
}

func TestRawPolicyCalledTwiceYieldsIdenticalOutputs(t *testing.T) {
	var policy [movecodec.Size]float32
	policy[10] = 3.5
	eng := tafl.NewEngine(stubEvaluator{policy: policy, value: 0.2}, tafl.DefaultConfig())

	first, err := eng.RawPolicy(board.Initial(), board.AttackerSide)
	require.NoError(t, err)
	second, err := eng.RawPolicy(board.Initial(), board.AttackerSide)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEvaluatePositionReturnsRootValueAndRankedMoves(t *testing.T) {
	eng := tafl.NewEngine(stubEvaluator{value: -0.4}, tafl.DefaultConfig())
	value, ranked, err := eng.EvaluatePosition(context.Background(), board.Initial(), board.AttackerSide, 1)
	require.NoError(t, err)
	assert.Equal(t, float32(-0.4), value)
	assert.LessOrEqual(t, len(ranked), tafl.TopK)
	require.NotEmpty(t, ranked)

	for i := 1; i < len(ranked); i++ {
		assert.GreaterOrEqual(t, ranked[i-1].Visits, ranked[i].Visits)
	}
}

func TestEvaluatePositionPropagatesEvaluatorError(t *testing.T) {
	eng := tafl.NewEngine(failingEvaluator{}, tafl.DefaultConfig())
	_, _, err := eng.EvaluatePosition(context.Background(), board.Initial(), board.AttackerSide, 1)
	require.Error(t, err)
}

type stubEvaluator struct {
	policy [movecodec.Size]float32
	value  float32
}

func (s stubEvaluator) Evaluate(_ [encoder.StateSize]float32) ([movecodec.Size]float32, float32, error) {
	return s.policy, s.value, nil
}

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(_ [encoder.StateSize]float32) ([movecodec.Size]float32, float32, error) {
	return [movecodec.Size]float32{}, 0, errors.New("boom")
}
