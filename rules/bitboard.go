package rules

import (
	"github.com/brensch/connect4/game"
)

// Bitboards holds one 42-bit occupancy mask per side. Cell (row, col) maps to
// bit row*7+col.
type Bitboards struct {
	Red    uint64
	Yellow uint64
}

// For returns the mask belonging to p.
func (bb Bitboards) For(p game.Player) uint64 {
	switch p {
	case game.Red:
		return bb.Red
	case game.Yellow:
		return bb.Yellow
	}
	return 0
}

// Bit returns the mask for a single cell.
func Bit(row, col int) uint64 {
	return 1 << uint(row*game.Cols+col)
}

func ToBitboards(b game.Board) Bitboards {
	var bb Bitboards
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			switch b[r][c] {
			case game.Red:
				bb.Red |= Bit(r, c)
			case game.Yellow:
				bb.Yellow |= Bit(r, c)
			}
		}
	}
	return bb
}

// Shifts for the horizontal, vertical, down-right and down-left axes with a
// row stride of 7.
var winShifts = [4]uint{1, 7, 8, 6}

// With no padding column, a shift of 1, 8 or 6 wraps from the end of one row
// into the next. originMasks keeps only the cells where a four-cell line along
// that axis actually fits on the board.
var originMasks = func() [4]uint64 {
	var masks [4]uint64
	for i, d := range Directions {
		for r := 0; r < game.Rows; r++ {
			for c := 0; c < game.Cols; c++ {
				if game.InBounds(r+3*d[0], c+3*d[1]) {
					masks[i] |= Bit(r, c)
				}
			}
		}
	}
	return masks
}()

// BitboardHasWin tests a single side's mask for four in a row in O(1).
func BitboardHasWin(bits uint64) bool {
	for i, s := range winShifts {
		m := bits & (bits >> s)
		if m&(m>>(2*s))&originMasks[i] != 0 {
			return true
		}
	}
	return false
}
