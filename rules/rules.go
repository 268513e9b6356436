package rules

import (
	"github.com/brensch/connect4/game"
)

// Axis directions as (dRow, dCol): horizontal, vertical, diagonal down-right,
// diagonal down-left. Every line on the board runs along one of these.
var Directions = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{1, -1},
}

// LegalMoves returns, in ascending order, the columns whose top cell is empty.
func LegalMoves(b game.Board) []int {
	moves := make([]int, 0, game.Cols)
	for c := 0; c < game.Cols; c++ {
		if b[0][c] == game.Empty {
			moves = append(moves, c)
		}
	}
	return moves
}

// IsLegal reports whether a disc can be dropped into col.
func IsLegal(b *game.Board, col int) bool {
	return col >= 0 && col < game.Cols && b[0][col] == game.Empty
}

// ApplyMove drops a disc for p into col and returns the new board and the row
// it landed on. The input board is never modified.
func ApplyMove(b game.Board, col int, p game.Player) (game.Board, int, error) {
	if col < 0 || col >= game.Cols {
		return b, -1, &game.InvalidMoveError{Column: col, Err: game.ErrColumnOutOfRange}
	}
	for r := game.Rows - 1; r >= 0; r-- {
		if b[r][col] == game.Empty {
			b[r][col] = p
			return b, r, nil
		}
	}
	return b, -1, &game.InvalidMoveError{Column: col, Err: game.ErrColumnFull}
}

// dropRow is the row a disc would land on in col, or -1 when full.
func dropRow(b *game.Board, col int) int {
	for r := game.Rows - 1; r >= 0; r-- {
		if b[r][col] == game.Empty {
			return r
		}
	}
	return -1
}

// CheckWin reports whether the disc at (row, col) completes four or more in a
// line for p, counting outward in both directions along each axis.
func CheckWin(b game.Board, row, col int, p game.Player) bool {
	if p == game.Empty || b.At(row, col) != p {
		return false
	}
	for _, d := range Directions {
		n := 1 + run(&b, row, col, d[0], d[1], p) + run(&b, row, col, -d[0], -d[1], p)
		if n >= 4 {
			return true
		}
	}
	return false
}

// run counts consecutive p discs starting one step away from (row, col).
func run(b *game.Board, row, col, dr, dc int, p game.Player) int {
	n := 0
	for r, c := row+dr, col+dc; game.InBounds(r, c) && b[r][c] == p; r, c = r+dr, c+dc {
		n++
	}
	return n
}

// WinsAt reports whether p dropping into col wins immediately. Illegal
// columns never win.
func WinsAt(b game.Board, col int, p game.Player) bool {
	if !IsLegal(&b, col) {
		return false
	}
	row := dropRow(&b, col)
	b[row][col] = p
	return CheckWin(b, row, col, p)
}

// HasFour scans the whole board for four in a row of p.
func HasFour(b game.Board, p game.Player) bool {
	if p == game.Empty {
		return false
	}
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			if b[r][c] != p {
				continue
			}
			for _, d := range Directions {
				if lineOf(&b, r, c, d[0], d[1], 4, p) {
					return true
				}
			}
		}
	}
	return false
}

// lineOf reports whether n cells starting at (row, col) along (dr, dc) all hold p.
func lineOf(b *game.Board, row, col, dr, dc, n int, p game.Player) bool {
	for i := 0; i < n; i++ {
		r, c := row+dr*i, col+dc*i
		if !game.InBounds(r, c) || b[r][c] != p {
			return false
		}
	}
	return true
}

// IsFull reports whether no column accepts another disc.
func IsFull(b game.Board) bool {
	for c := 0; c < game.Cols; c++ {
		if b[0][c] == game.Empty {
			return false
		}
	}
	return true
}

// Winner returns the side holding four in a row, or Empty. Reachable
// positions have at most one.
func Winner(b game.Board) game.Player {
	bb := ToBitboards(b)
	switch {
	case BitboardHasWin(bb.Red):
		return game.Red
	case BitboardHasWin(bb.Yellow):
		return game.Yellow
	}
	return game.Empty
}

// IsTerminal reports whether the game is over: someone has won or the board is full.
func IsTerminal(b game.Board) bool {
	return IsFull(b) || Winner(b) != game.Empty
}
