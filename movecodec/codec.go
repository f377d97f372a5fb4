// Package movecodec implements the bijection between Brandubh moves and the
// fixed policy index space [0, 1175] consumed by the neural evaluator, per
// SPEC_FULL.md §3 and §4.2. The codec has no knowledge of a position; it is
// purely arithmetic.
package movecodec

import "github.com/jgslunde/brandubh-az/board"

// Size is the number of policy indices: 49 squares * 4 directions * 6
// distances.
const Size = board.Size * board.Size * 4 * 6 // 1176

// perSquare is the stride of one from-square's block of indices.
const perSquare = 4 * 6 // 24

// perDirection is the stride of one direction's block of indices.
const perDirection = 6

// directionOf maps board.Direction to the encoding's direction digit, fixed
// at Up=0, Down=1, Left=2, Right=3 per SPEC_FULL.md §3.
func directionOf(d board.Direction) int {
	switch d {
	case board.Up:
		return 0
	case board.Down:
		return 1
	case board.Left:
		return 2
	case board.Right:
		return 3
	}
	return -1
}

func directionFrom(digit int) (board.Direction, bool) {
	switch digit {
	case 0:
		return board.Up, true
	case 1:
		return board.Down, true
	case 2:
		return board.Left, true
	case 3:
		return board.Right, true
	}
	return 0, false
}

// Encode returns the policy index for m: fromSquare*24 + direction*6 +
// (distance-1). It does not validate that m is a legal or even on-board
// move for any particular position; that is movecodec's contract — it is
// purely arithmetic over the move's coordinates.
func Encode(m board.Move) int {
	fromSquare := m.FromRow*board.Size + m.FromCol
	dr := sign(m.ToRow - m.FromRow)
	dc := sign(m.ToCol - m.FromCol)
	dist := abs(m.ToRow-m.FromRow) + abs(m.ToCol-m.FromCol)

	var dir board.Direction
	switch {
	case dr == -1 && dc == 0:
		dir = board.Up
	case dr == 1 && dc == 0:
		dir = board.Down
	case dr == 0 && dc == -1:
		dir = board.Left
	case dr == 0 && dc == 1:
		dir = board.Right
	}
	return fromSquare*perSquare + directionOf(dir)*perDirection + (dist - 1)
}

// Decode is total over [0, Size-1]: it always returns a syntactically valid
// move, though the move may run off-board (not every index corresponds to an
// on-board move — those are simply never produced by LegalMask or
// AllLegalMoves). ok is false only for an out-of-range index.
func Decode(index int) (m board.Move, ok bool) {
	if index < 0 || index >= Size {
		return board.Move{}, false
	}
	fromSquare := index / perSquare
	rem := index % perSquare
	dirDigit := rem / perDirection
	dist := rem%perDirection + 1

	dir, ok := directionFrom(dirDigit)
	if !ok {
		return board.Move{}, false
	}
	fromRow, fromCol := fromSquare/board.Size, fromSquare%board.Size
	dr, dc := dir.Delta()
	return board.Move{
		FromRow: fromRow,
		FromCol: fromCol,
		ToRow:   fromRow + dr*dist,
		ToCol:   fromCol + dc*dist,
	}, true
}

func sign(x int) int {
	switch {
	case x < 0:
		return -1
	case x > 0:
		return 1
	}
	return 0
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// IndexedMove pairs a legal move with its policy index.
type IndexedMove struct {
	Move  board.Move
	Index int
}

// AllLegalMoves enumerates legal moves by scanning side's pieces in
// row-major order, trying all four directions in {Up,Down,Left,Right}, then
// ascending distance — the same stable order board.LegalMoves produces —
// and pairs each with its policy index. This ordering is not semantically
// significant but is fixed for testability per SPEC_FULL.md §4.2.
func AllLegalMoves(p board.Position, side board.Side) []IndexedMove {
	moves := board.LegalMoves(p, side)
	out := make([]IndexedMove, len(moves))
	for i, m := range moves {
		out[i] = IndexedMove{Move: m, Index: Encode(m)}
	}
	return out
}

// LegalMask returns a fixed-size [Size]float32 array with 1.0 at the policy
// index of every legal move for side in p and 0.0 elsewhere. It must agree
// set-wise with AllLegalMoves (SPEC_FULL.md §8).
func LegalMask(p board.Position, side board.Side) [Size]float32 {
	var mask [Size]float32
	for _, im := range AllLegalMoves(p, side) {
		mask[im.Index] = 1.0
	}
	return mask
}
