package mcts

import "github.com/pkg/errors"

// Sentinel errors for the search loop, wrapped at each call site so
// errors.Is still matches through github.com/pkg/errors' stack frames.
var (
	// ErrCancelled is returned by Search/SearchStream when ctx is done
	// before the requested simulation count completes. The tree is left in
	// a valid, partially-searched state and the best-effort visit
	// distribution up to that point is still returned alongside the error.
	ErrCancelled = errors.New("mcts: search cancelled")

	// ErrNoLegalMoves marks a root position with no legal moves for the side
	// to move (the game is already over there). Search itself does not
	// return it (such a root becomes a terminal node); tafl.Engine.BestMove
	// returns it when asked for a move from such a position.
	ErrNoLegalMoves = errors.New("mcts: no legal moves at root")
)
