// Package board implements the immutable 7x7 Brandubh (Tafl) position: piece
// placement, side to move and the restricted corner squares. Move legality,
// capture resolution and termination live in rules.go.
package board

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Size is the fixed board dimension for Brandubh.
const Size = 7

// Piece is the occupant of a single cell.
type Piece uint8

// Piece values.
const (
	Empty Piece = iota
	Attacker
	Defender
	King
)

// String renders a piece as a single glyph, used by Position.String.
func (p Piece) String() string {
	switch p {
	case Empty:
		return "."
	case Attacker:
		return "A"
	case Defender:
		return "d"
	case King:
		return "K"
	}
	return "?"
}

// Side is one of the two players.
type Side uint8

// Side values.
const (
	AttackerSide Side = iota
	DefenderSide
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == AttackerSide {
		return DefenderSide
	}
	return AttackerSide
}

// String names the side, used in logging and error messages.
func (s Side) String() string {
	if s == AttackerSide {
		return "Attacker"
	}
	return "Defender"
}

// Friendly reports whether p belongs to side s. The King counts as friendly
// to DefenderSide and hostile to AttackerSide.
func Friendly(p Piece, s Side) bool {
	switch s {
	case AttackerSide:
		return p == Attacker
	case DefenderSide:
		return p == Defender || p == King
	}
	return false
}

// Sentinel errors. Wrapped with github.com/pkg/errors at each call site so
// callers can still errors.Cause() down to these while logs retain a stack.
var (
	ErrInvalidPosition = errors.New("board: invalid position")
	ErrIllegalMove      = errors.New("board: illegal move")
)

// Position is a value-typed 7x7 Brandubh board plus the side to move.
// Applying a move yields a new Position; the zero value is not a valid
// position (use Initial() or New()).
type Position struct {
	cells [Size][Size]Piece
	side  Side
}

// Move is a strict orthogonal slide from (FromRow,FromCol) to (ToRow,ToCol).
type Move struct {
	FromRow, FromCol int
	ToRow, ToCol     int
}

// String renders a move as "r,c-r,c", used by the CLI consumers and tests.
func (m Move) String() string {
	return fmt.Sprintf("%d,%d-%d,%d", m.FromRow, m.FromCol, m.ToRow, m.ToCol)
}

// corners are the four restricted squares: only the King may stand on them,
// and they count as a hostile adjacent for capture regardless of side.
func isCorner(r, c int) bool {
	return (r == 0 || r == Size-1) && (c == 0 || c == Size-1)
}

// InBounds reports whether (r,c) is on the 7x7 grid.
func InBounds(r, c int) bool {
	return r >= 0 && r < Size && c >= 0 && c < Size
}

// Initial returns the standard Brandubh starting position with the
// Attacker side to move, per the external ABI in SPEC_FULL.md §6.
func Initial() Position {
	var p Position
	attackers := [][2]int{{0, 3}, {1, 3}, {3, 0}, {3, 1}, {3, 5}, {3, 6}, {5, 3}, {6, 3}}
	defenders := [][2]int{{2, 3}, {3, 2}, {3, 4}, {4, 3}}
	for _, rc := range attackers {
		p.cells[rc[0]][rc[1]] = Attacker
	}
	for _, rc := range defenders {
		p.cells[rc[0]][rc[1]] = Defender
	}
	p.cells[3][3] = King
	p.side = AttackerSide
	return p
}

// New constructs a Position from an explicit 7x7 layout and side to move,
// validating the invariants that Brandubh requires: a 7x7 grid, at most one
// King (a board without a King is accepted; IsTerminal scores it as an
// attacker win), no non-King piece on a corner, and only
// Empty/Attacker/Defender/King occupants.
func New(cells [Size][Size]Piece, side Side) (Position, error) {
	kings := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch cells[r][c] {
			case Empty, Attacker, Defender:
			case King:
				kings++
			default:
				return Position{}, errors.Wrapf(ErrInvalidPosition, "unknown piece %v at (%d,%d)", cells[r][c], r, c)
			}
			if isCorner(r, c) && cells[r][c] != Empty && cells[r][c] != King {
				return Position{}, errors.Wrapf(ErrInvalidPosition, "non-king piece on restricted corner (%d,%d)", r, c)
			}
		}
	}
	if kings > 1 {
		return Position{}, errors.Wrapf(ErrInvalidPosition, "%d kings on board, expected at most 1", kings)
	}
	if side != AttackerSide && side != DefenderSide {
		return Position{}, errors.Wrap(ErrInvalidPosition, "missing or invalid side to move")
	}
	return Position{cells: cells, side: side}, nil
}

// At returns the piece at (r,c). Callers are expected to pass in-bounds
// coordinates; out-of-bounds reads return Empty rather than panicking, since
// callers such as capture resolution probe neighbors that may run off-board.
func (p Position) At(r, c int) Piece {
	if !InBounds(r, c) {
		return Empty
	}
	return p.cells[r][c]
}

// Side returns the side to move.
func (p Position) Side() Side { return p.side }

// CountSide counts the pieces belonging to s (King counts toward
// DefenderSide).
func (p Position) CountSide(s Side) int {
	n := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if Friendly(p.cells[r][c], s) {
				n++
			}
		}
	}
	return n
}

// KingPos returns the King's coordinates and whether it is still on the
// board.
func (p Position) KingPos() (r, c int, onBoard bool) {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if p.cells[r][c] == King {
				return r, c, true
			}
		}
	}
	return 0, 0, false
}

// String renders an ASCII board, empty corners marked with "+", for
// debugging and the CLI consumers.
func (p Position) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "side to move: %s\n", p.side)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if isCorner(r, c) && p.cells[r][c] == Empty {
				sb.WriteString("+")
			} else {
				sb.WriteString(p.cells[r][c].String())
			}
			sb.WriteString(" ")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// Eq reports value equality: same occupants, same side to move. Used by
// mcts tree reuse (value equality, not identity, per SPEC_FULL.md §4.7).
func (p Position) Eq(other Position) bool {
	return p.cells == other.cells && p.side == other.side
}
