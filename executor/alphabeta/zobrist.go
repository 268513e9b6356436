package alphabeta

import (
	"github.com/brensch/connect4/game"
)

// DefaultZobristSeed keeps hashes stable across runs.
const DefaultZobristSeed = 0x9e3779b97f4a7c15

// Zobrist holds one random key per (row, col, cell state) plus one per side
// to move.
type Zobrist struct {
	cells [game.Rows][game.Cols][3]uint64
	side  [3]uint64
}

func NewZobrist(seed uint64) *Zobrist {
	rng := splitmix64{state: seed}
	z := &Zobrist{}
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			for s := range z.cells[r][c] {
				z.cells[r][c][s] = rng.next()
			}
		}
	}
	for s := range z.side {
		z.side[s] = rng.next()
	}
	return z
}

// Hash XORs the key of every cell's actual state, empty cells included.
func (z *Zobrist) Hash(b game.Board) uint64 {
	var h uint64
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			h ^= z.cells[r][c][b[r][c]]
		}
	}
	return h
}

// Key is the transposition key for b with p to move. Null-move search can
// reach the same board with either side to move, and scores are relative to
// the mover, so the side is folded in.
func (z *Zobrist) Key(b game.Board, p game.Player) uint64 {
	return z.Hash(b) ^ z.side[p]
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
