// Package tafl is the public API: a search engine over Brandubh positions
// backed by an injectable evaluator.Evaluator, wrapping package mcts the way
// the teacher's agogo.AZ wraps mcts.MCTS. Grounded on agogo.go's AZ struct,
// trimmed of training/arena/save-load (Non-goals per SPEC_FULL.md §4.9).
package tafl

import (
	"context"
	"io"
	"log"
	"math/rand"
	"sort"

	"github.com/jgslunde/brandubh-az/board"
	"github.com/jgslunde/brandubh-az/encoder"
	"github.com/jgslunde/brandubh-az/evaluator"
	"github.com/jgslunde/brandubh-az/mcts"
	"github.com/jgslunde/brandubh-az/movecodec"
	"github.com/pkg/errors"
)

// TopK is the number of moves EvaluatePosition ranks and returns, matching
// spec.md §4.8's evaluate_position → {root_value, top_k_moves} contract
// (the spec names no explicit k, so a fixed top-5 is used throughout).
const TopK = 5

// Config tunes the engine, mirroring agogo.go's AZ config fields trimmed to
// what a non-training consumer needs.
type Config struct {
	// Simulations is the default simulation count BestMove runs per call.
	Simulations int
	// Temperature controls move sampling: 0 is deterministic argmax,
	// greater than 0 samples proportional to visits^(1/Temperature).
	Temperature float64
	// MCTS tunes PUCT/FPU/batching/reuse; see mcts.Config.
	MCTS mcts.Config
	// Rand drives temperature sampling. Seeded once at construction, never
	// from time.Now(), so an Engine is reproducible given a fixed seed
	// (SPEC_FULL.md §1's determinism guarantee).
	Rand *rand.Rand
	// LogOutput receives structured progress/diagnostic lines, following
	// arena.go's `ar.logger = log.New(&ar.buf, "", log.Ltime)` pattern. Nil
	// discards all logging.
	LogOutput io.Writer
}

// DefaultConfig returns a reasonably-sized engine configuration: 200
// simulations, deterministic move selection, default PUCT tuning.
func DefaultConfig() Config {
	return Config{
		Simulations: 200,
		Temperature: 0,
		MCTS:        mcts.DefaultConfig(),
		Rand:        rand.New(rand.NewSource(1)),
	}
}

// Engine is the public search surface: one evaluator.Evaluator, one
// mcts.Engine, and the sampling/logging configuration around them.
type Engine struct {
	eval   evaluator.Evaluator
	search *mcts.Engine
	conf   Config
	logger *log.Logger
}

// NewEngine builds an Engine around eval. A nil conf.Rand is replaced with
// a seed-1 source so callers who don't care about reproducibility still get
// deterministic behavior by default.
func NewEngine(eval evaluator.Evaluator, conf Config) *Engine {
	if conf.Rand == nil {
		conf.Rand = rand.New(rand.NewSource(1))
	}
	out := conf.LogOutput
	if out == nil {
		out = io.Discard
	}
	return &Engine{
		eval:   eval,
		search: mcts.NewEngine(eval, conf.MCTS),
		conf:   conf,
		logger: log.New(out, "", log.Ltime),
	}
}

// PolicyData carries a position's policy information: the raw (un-softmaxed)
// policy logits and scalar value from the evaluator's most recent call for
// this engine, and a policy-index → visit-count map from the most recent
// Search/BestMove. Grounded on the teacher's MCTS.Policies(). Fields may be
// the zero value depending on which operation produced the PolicyData:
// RawPolicy leaves Visits nil, Search leaves Logits/Value zero.
type PolicyData struct {
	Logits [movecodec.Size]float32
	Value  float32
	Visits map[int]uint32
}

// BestMove runs conf.Simulations of search from (pos, side) and returns the
// selected move (argmax at Temperature 0, power-law sampling otherwise)
// alongside the PolicyData spec.md §4.8 promises as a best_move byproduct:
// the raw evaluator logits/value for (pos, side) plus the search's visit
// counts, suitable for visualization. A context cancellation mid-search is
// not treated as fatal — the partial visit distribution still yields a
// legitimate recommendation — but any other search error (most commonly an
// evaluator failure) is propagated. If ctx is cancelled before a single
// simulation completes, the tree never expands the root and BestMove falls
// back to the first legal move by movecodec's enumeration order rather than
// failing outright. ErrNoLegalMoves is reserved for a genuinely terminal
// position (no legal moves at all).
func (e *Engine) BestMove(ctx context.Context, pos board.Position, side board.Side) (board.Move, PolicyData, error) {
	dist, searchErr := e.search.Search(ctx, pos, side, e.conf.Simulations)
	if searchErr != nil && !errors.Is(searchErr, mcts.ErrCancelled) {
		return board.Move{}, PolicyData{}, errors.Wrap(searchErr, "tafl: BestMove search failed")
	}

	state := encoder.EncodeState(pos, side)
	logits, value, err := e.eval.Evaluate(state)
	if err != nil {
		return board.Move{}, PolicyData{}, errors.Wrap(err, "tafl: BestMove evaluation failed")
	}
	data := visitsToPolicyData(dist)
	data.Logits, data.Value = logits, value

	mv, ok := dist.Sample(e.conf.Rand, e.conf.Temperature)
	if !ok {
		moves := board.LegalMoves(pos, side)
		if len(moves) == 0 {
			return board.Move{}, PolicyData{}, errors.Wrap(mcts.ErrNoLegalMoves, "tafl: BestMove")
		}
		e.logger.Printf("side=%v cancelled before first visit, using first legal move\n", side)
		return moves[0], data, nil
	}
	e.logger.Printf("side=%v simulations=%d best=%v\n", side, e.conf.Simulations, mv)
	return mv, data, nil
}

// Search runs nSims simulations from (pos, side) and returns the resulting
// visit counts as PolicyData (Logits left zero; callers wanting both should
// also call RawPolicy). The returned error is non-nil exactly when the
// underlying mcts.Engine.Search's is, including a wrapped ErrCancelled.
func (e *Engine) Search(ctx context.Context, pos board.Position, side board.Side, nSims int) (PolicyData, error) {
	dist, err := e.search.Search(ctx, pos, side, nSims)
	return visitsToPolicyData(dist), err
}

// RawPolicy performs one direct evaluator call on (pos, side) with no tree
// search, returning the evaluator's raw policy logits and value over the
// full action space (Visits left nil). Calling it twice in succession on
// the same (pos, side) yields identical outputs for a deterministic
// evaluator, per spec.md §8.
func (e *Engine) RawPolicy(pos board.Position, side board.Side) (PolicyData, error) {
	state := encoder.EncodeState(pos, side)
	logits, value, err := e.eval.Evaluate(state)
	if err != nil {
		return PolicyData{}, errors.Wrap(err, "tafl: RawPolicy evaluation failed")
	}
	return PolicyData{Logits: logits, Value: value}, nil
}

// RankedMove is one entry of EvaluatePosition's move ranking: a legal move
// and the visit count search gave it, in descending order (ties broken by
// enumeration order, as VisitDistribution.ArgMax does for the top move).
type RankedMove struct {
	Move   board.Move
	Visits uint32
}

// EvaluatePosition runs nSims of search from (pos, side) — "search followed
// by ranking" per spec.md §4.8's evaluate_position — and returns the root's
// value estimate alongside its TopK most-visited moves. The root's Q is
// already expressed from the perspective of side-to-move at the root: the
// backup pass in mcts.Engine.simulate flips sign once per ply on the way up,
// so no further sign correction is applied here. A context cancellation
// mid-search is treated the same as in BestMove: non-fatal, the partial
// ranking is still returned.
func (e *Engine) EvaluatePosition(ctx context.Context, pos board.Position, side board.Side, nSims int) (float32, []RankedMove, error) {
	dist, err := e.search.Search(ctx, pos, side, nSims)
	if err != nil && !errors.Is(err, mcts.ErrCancelled) {
		return 0, nil, errors.Wrap(err, "tafl: EvaluatePosition search failed")
	}
	rootValue := e.search.Tree().RootNode().Q()
	ranked := rankMoves(dist)
	if len(ranked) > TopK {
		ranked = ranked[:TopK]
	}
	return rootValue, ranked, nil
}

// rankMoves sorts dist's moves by visit count descending, stably so ties
// keep dist's enumeration order (movecodec's stable move order).
func rankMoves(dist mcts.VisitDistribution) []RankedMove {
	ranked := make([]RankedMove, len(dist.Moves))
	for i, mv := range dist.Moves {
		ranked[i] = RankedMove{Move: mv, Visits: dist.Visits[i]}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Visits > ranked[j].Visits
	})
	return ranked
}

func visitsToPolicyData(dist mcts.VisitDistribution) PolicyData {
	visits := make(map[int]uint32, len(dist.Moves))
	for i, mv := range dist.Moves {
		visits[movecodec.Encode(mv)] = dist.Visits[i]
	}
	return PolicyData{Visits: visits}
}
