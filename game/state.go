// Package game defines the core board types for Connect Four.
//
// A Board is a plain value (a fixed 6x7 array) so that assigning it copies it.
// Search code relies on that: every ply works on its own copy and never
// aliases the caller's board.
//
// Rows are numbered top to bottom: row 0 is the top row, row 5 the bottom.
// Discs fall to the highest-numbered empty row of a column.
package game

import (
	"fmt"
	"strings"
)

const (
	Rows  = 6
	Cols  = 7
	Cells = Rows * Cols

	// CenterColumn is the middle column, preferred by every evaluator.
	CenterColumn = Cols / 2

	// NoColumn marks "no move", e.g. a search that found nothing to play.
	NoColumn = -1
)

// Player is the state of a cell and also identifies a side.
// Red moves first.
type Player uint8

const (
	Empty Player = iota
	Red
	Yellow
)

// Opponent returns the other side. Empty has no opponent.
func (p Player) Opponent() Player {
	switch p {
	case Red:
		return Yellow
	case Yellow:
		return Red
	default:
		return Empty
	}
}

func (p Player) String() string {
	switch p {
	case Red:
		return "red"
	case Yellow:
		return "yellow"
	default:
		return "empty"
	}
}

// Symbol is the single-character board notation for the cell.
func (p Player) Symbol() byte {
	switch p {
	case Red:
		return 'R'
	case Yellow:
		return 'Y'
	default:
		return '.'
	}
}

// ParsePlayer accepts "red"/"yellow" or the board symbols R/Y (case-insensitive).
func ParsePlayer(s string) (Player, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "r", "red", "a":
		return Red, nil
	case "y", "yellow", "b":
		return Yellow, nil
	}
	return Empty, fmt.Errorf("unknown side %q", s)
}

// Board is the 6x7 grid indexed [row][col].
type Board [Rows][Cols]Player

// InBounds reports whether (row, col) is on the board.
func InBounds(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

// At returns the cell at (row, col), Empty when off the board.
func (b *Board) At(row, col int) Player {
	if !InBounds(row, col) {
		return Empty
	}
	return b[row][col]
}

// Height is the number of discs stacked in col.
func (b *Board) Height(col int) int {
	h := 0
	for r := Rows - 1; r >= 0; r-- {
		if b[r][col] == Empty {
			break
		}
		h++
	}
	return h
}

// Count returns how many discs p has on the board.
func (b *Board) Count(p Player) int {
	n := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			if b[r][c] == p {
				n++
			}
		}
	}
	return n
}

func (b *Board) EmptyCount() int { return b.Count(Empty) }

// EmptyFraction is the share of cells still free, in [0, 1].
func (b *Board) EmptyFraction() float64 {
	return float64(b.EmptyCount()) / float64(Cells)
}

// ToMove infers the side to move from disc counts, assuming Red started.
func (b *Board) ToMove() Player {
	if b.Count(Red) > b.Count(Yellow) {
		return Yellow
	}
	return Red
}

// String renders the board top row first with a column-index footer.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		for c := 0; c < Cols; c++ {
			sb.WriteByte(b[r][c].Symbol())
			sb.WriteByte(' ')
		}
		sb.WriteByte('\n')
	}
	for c := 0; c < Cols; c++ {
		fmt.Fprintf(&sb, "%d ", c)
	}
	sb.WriteByte('\n')
	return sb.String()
}

// Compact renders the board as seven-character rows joined by '/', the
// inverse of ParseBoard.
func (b Board) Compact() string {
	rows := make([]string, Rows)
	for r := 0; r < Rows; r++ {
		var row [Cols]byte
		for c := 0; c < Cols; c++ {
			row[c] = b[r][c].Symbol()
		}
		rows[r] = string(row[:])
	}
	return strings.Join(rows, "/")
}

// ParseBoard reads a board written as six rows of seven cells, top row first.
// Rows may be separated by '/' or newlines; spaces are ignored. Cells are
// '.', 'R' or 'Y' ('-', 'A' and 'B' are accepted as aliases).
//
// The result is not checked for gravity; use Validate for that.
func ParseBoard(s string) (Board, error) {
	var b Board
	s = strings.ReplaceAll(s, "/", "\n")
	rows := make([]string, 0, Rows)
	for _, line := range strings.Split(s, "\n") {
		line = strings.ReplaceAll(strings.TrimSpace(line), " ", "")
		if line == "" {
			continue
		}
		rows = append(rows, line)
	}
	if len(rows) != Rows {
		return b, fmt.Errorf("parse board: want %d rows, got %d", Rows, len(rows))
	}
	for r, line := range rows {
		if len(line) != Cols {
			return b, fmt.Errorf("parse board: row %d has %d cells, want %d", r, len(line), Cols)
		}
		for c := 0; c < Cols; c++ {
			switch line[c] {
			case '.', '-':
				b[r][c] = Empty
			case 'R', 'r', 'A', 'a':
				b[r][c] = Red
			case 'Y', 'y', 'B', 'b':
				b[r][c] = Yellow
			default:
				return b, fmt.Errorf("parse board: bad cell %q at row %d col %d", line[c], r, c)
			}
		}
	}
	return b, nil
}

// Validate checks that every column is stacked contiguously from the bottom.
func (b *Board) Validate() error {
	for c := 0; c < Cols; c++ {
		seenEmpty := false
		for r := Rows - 1; r >= 0; r-- {
			if b[r][c] == Empty {
				seenEmpty = true
				continue
			}
			if seenEmpty {
				return fmt.Errorf("column %d: disc at row %d floats above an empty cell", c, r)
			}
		}
	}
	return nil
}
