package movecodec_test

import (
	"testing"

	"github.com/jgslunde/brandubh-az/board"
	"github.com/jgslunde/brandubh-az/movecodec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeExampleFromSpec(t *testing.T) {
	// SPEC_FULL.md §8 scenario 2.
	m := board.Move{FromRow: 3, FromCol: 0, ToRow: 3, ToCol: 1}
	idx := movecodec.Encode(m)
	assert.Equal(t, 522, idx)

	decoded, ok := movecodec.Decode(idx)
	require.True(t, ok)
	assert.Equal(t, m, decoded)
}

func TestDecodeIsTotalOverRange(t *testing.T) {
	for i := 0; i < movecodec.Size; i++ {
		m, ok := movecodec.Decode(i)
		require.True(t, ok, "index %d", i)
		if board.InBounds(m.ToRow, m.ToCol) {
			assert.Equal(t, i, movecodec.Encode(m))
		}
	}
}

func TestDecodeOutOfRangeIsNotOk(t *testing.T) {
	_, ok := movecodec.Decode(-1)
	assert.False(t, ok)
	_, ok = movecodec.Decode(movecodec.Size)
	assert.False(t, ok)
}

func TestRoundTripEveryLegalMoveFromInitialPosition(t *testing.T) {
	p := board.Initial()
	for _, side := range []board.Side{board.AttackerSide, board.DefenderSide} {
		for _, m := range board.LegalMoves(p, side) {
			idx := movecodec.Encode(m)
			decoded, ok := movecodec.Decode(idx)
			require.True(t, ok)
			assert.Equal(t, m, decoded)
		}
	}
}

func TestLegalMaskAgreesWithAllLegalMoves(t *testing.T) {
	p := board.Initial()
	mask := movecodec.LegalMask(p, board.AttackerSide)
	indexed := movecodec.AllLegalMoves(p, board.AttackerSide)

	wantSet := make(map[int]bool, len(indexed))
	for _, im := range indexed {
		wantSet[im.Index] = true
	}

	var popcount int
	for i, v := range mask {
		if v == 1.0 {
			popcount++
			assert.True(t, wantSet[i], "mask bit set at unexpected index %d", i)
		} else {
			assert.Zero(t, v)
		}
	}
	assert.Equal(t, len(indexed), popcount)
}

func TestAllLegalMovesStableOrder(t *testing.T) {
	p := board.Initial()
	a := movecodec.AllLegalMoves(p, board.AttackerSide)
	b := movecodec.AllLegalMoves(p, board.AttackerSide)
	assert.Equal(t, a, b)
}
