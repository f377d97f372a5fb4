// Package encoder maps a Brandubh position and side to move to the 4x7x7
// float plane tensor the neural evaluator consumes, per SPEC_FULL.md §3 and
// §6. The layout is part of the trained model's ABI and must never drift:
// plane 0 Attackers, plane 1 Defenders, plane 2 King, plane 3 SideToMove.
package encoder

import "github.com/jgslunde/brandubh-az/board"

// PlaneSize is the number of floats per plane (7x7).
const PlaneSize = board.Size * board.Size

// Planes is the number of planes.
const Planes = 4

// StateSize is the total tensor length (4 * 49).
const StateSize = Planes * PlaneSize

// Plane indices, fixed by the external ABI.
const (
	PlaneAttackers = 0
	PlaneDefenders = 1
	PlaneKing      = 2
	PlaneSideToMove = 3
)

// EncodeState is deterministic and total: every well-formed Position and
// Side produces exactly one [StateSize]float32 tensor, plane-major, no
// normalization or history planes.
func EncodeState(p board.Position, side board.Side) [StateSize]float32 {
	var out [StateSize]float32
	for r := 0; r < board.Size; r++ {
		for c := 0; c < board.Size; c++ {
			idx := r*board.Size + c
			switch p.At(r, c) {
			case board.Attacker:
				out[PlaneAttackers*PlaneSize+idx] = 1.0
			case board.Defender:
				out[PlaneDefenders*PlaneSize+idx] = 1.0
			case board.King:
				out[PlaneKing*PlaneSize+idx] = 1.0
			}
		}
	}
	var toMove float32
	if side == board.DefenderSide {
		toMove = 1.0
	}
	for i := 0; i < PlaneSize; i++ {
		out[PlaneSideToMove*PlaneSize+i] = toMove
	}
	return out
}
