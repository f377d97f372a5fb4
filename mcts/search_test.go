package mcts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jgslunde/brandubh-az/board"
	"github.com/jgslunde/brandubh-az/encoder"
	"github.com/jgslunde/brandubh-az/evaluator"
	"github.com/jgslunde/brandubh-az/mcts"
	"github.com/jgslunde/brandubh-az/movecodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEvaluator always returns the same policy/value, used to pin down
// which child PUCT selection should favor.
type fixedEvaluator struct {
	policy [movecodec.Size]float32
	value  float32
}

func (f fixedEvaluator) Evaluate(_ [encoder.StateSize]float32) ([movecodec.Size]float32, float32, error) {
	return f.policy, f.value, nil
}

func TestSearchRootVisitsEqualSimulationCount(t *testing.T) {
	eng := mcts.NewEngine(evaluator.Uniform{}, mcts.DefaultConfig())
	dist, err := eng.Search(context.Background(), board.Initial(), board.AttackerSide, 20)
	require.NoError(t, err)
	assert.Equal(t, uint32(20), eng.Tree().RootNode().Visits())
	// The first simulation evaluates and expands the root itself; the other
	// 19 each pass through one child.
	assert.Equal(t, uint32(19), dist.Total())
}

func TestSearchChildPriorsSumToOne(t *testing.T) {
	eng := mcts.NewEngine(evaluator.Uniform{}, mcts.DefaultConfig())
	_, err := eng.Search(context.Background(), board.Initial(), board.AttackerSide, 1)
	require.NoError(t, err)

	var sum float32
	for _, p := range eng.Tree().ChildPriors(eng.Tree().Root()) {
		sum += p
	}
	assert.InDelta(t, 1.0, sum, 1e-4)
}

func TestZeroSimulationSearchIsNoop(t *testing.T) {
	eng := mcts.NewEngine(evaluator.Uniform{}, mcts.DefaultConfig())
	dist, err := eng.Search(context.Background(), board.Initial(), board.AttackerSide, 0)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), dist.Total())
	assert.Empty(t, dist.Moves)
}

func TestSearchReusesTreeAcrossCallsForSamePosition(t *testing.T) {
	eng := mcts.NewEngine(evaluator.Uniform{}, mcts.DefaultConfig())
	_, err := eng.Search(context.Background(), board.Initial(), board.AttackerSide, 5)
	require.NoError(t, err)
	_, err = eng.Search(context.Background(), board.Initial(), board.AttackerSide, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), eng.Tree().RootNode().Visits())
}

func TestSearchOnAlreadyCancelledContextReturnsPartialResult(t *testing.T) {
	eng := mcts.NewEngine(evaluator.Uniform{}, mcts.DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	dist, err := eng.Search(ctx, board.Initial(), board.AttackerSide, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, mcts.ErrCancelled))
	assert.Equal(t, uint32(0), dist.Total())
}

func TestTerminalRootNeverExpandsAndStillAccumulatesVisits(t *testing.T) {
	var cells [board.Size][board.Size]board.Piece
	cells[0][0] = board.King // King already on a restricted corner: DefenderWins
	pos, err := board.New(cells, board.AttackerSide)
	require.NoError(t, err)

	eng := mcts.NewEngine(evaluator.Uniform{}, mcts.DefaultConfig())
	dist, err := eng.Search(context.Background(), pos, board.AttackerSide, 4)
	require.NoError(t, err)
	assert.Empty(t, dist.Moves)
	assert.Equal(t, uint32(4), eng.Tree().RootNode().Visits())
	assert.True(t, eng.Tree().RootNode().IsTerminal())
}

func TestSecondSimulationDescendsToHighestPriorChild(t *testing.T) {
	var policy [movecodec.Size]float32
	policy[504] = 50 // board.Move{3,0,2,0}: 21*24 + Up(0)*6 + (1-1)
	eng := mcts.NewEngine(fixedEvaluator{policy: policy}, mcts.DefaultConfig())

	_, err := eng.Search(context.Background(), board.Initial(), board.AttackerSide, 2)
	require.NoError(t, err)

	favored := board.Move{FromRow: 3, FromCol: 0, ToRow: 2, ToCol: 0}
	dist, err := eng.Search(context.Background(), board.Initial(), board.AttackerSide, 0)
	require.NoError(t, err)

	found := false
	for i, mv := range dist.Moves {
		if mv == favored {
			found = true
			assert.Equal(t, uint32(1), dist.Visits[i])
		} else {
			assert.Equal(t, uint32(0), dist.Visits[i])
		}
	}
	assert.True(t, found, "favored move must be among the root's legal children")
}

func TestVisitDistributionArgMaxBreaksTiesByEnumerationOrder(t *testing.T) {
	d := mcts.VisitDistribution{
		Moves:  []board.Move{{FromRow: 0}, {FromRow: 1}},
		Visits: []uint32{3, 3},
	}
	mv, ok := d.ArgMax()
	require.True(t, ok)
	assert.Equal(t, board.Move{FromRow: 0}, mv)
}

func TestVisitDistributionArgMaxOnEmptyIsNotOk(t *testing.T) {
	var d mcts.VisitDistribution
	_, ok := d.ArgMax()
	assert.False(t, ok)
}

func TestSearchStreamEmitsProgressSummingToRequestedSimulations(t *testing.T) {
	conf := mcts.DefaultConfig()
	conf.BatchSize = 3
	eng := mcts.NewEngine(evaluator.Uniform{}, conf)

	ch := eng.SearchStream(context.Background(), board.Initial(), board.AttackerSide, 10)
	var last mcts.Progress
	count := 0
	for p := range ch {
		require.NoError(t, p.Err)
		last = p
		count++
	}
	assert.Greater(t, count, 0)
	assert.True(t, last.Done)
	assert.Equal(t, 10, last.Simulations)
	assert.Equal(t, uint32(9), last.Distribution.Total()) // first simulation expands the root
}

func TestDebugDOTProducesGraphvizSyntax(t *testing.T) {
	eng := mcts.NewEngine(evaluator.Uniform{}, mcts.DefaultConfig())
	_, err := eng.Search(context.Background(), board.Initial(), board.AttackerSide, 3)
	require.NoError(t, err)

	dot, err := eng.DebugDOT()
	require.NoError(t, err)
	assert.Contains(t, dot, "digraph")
}
