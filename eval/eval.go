// Package eval scores Connect Four positions statically.
//
// The score is from the point of view of the side passed in: positive favours
// that side. Evaluate is pure and does no search.
package eval

import (
	"github.com/brensch/connect4/game"
	"github.com/brensch/connect4/rules"
)

const (
	// ThreatPenalty is returned when the opponent has an open three anywhere.
	// It dominates every windowed sum but stays finite so search can still
	// tell it apart from a forced loss.
	ThreatPenalty = -1e6

	// OpponentWeight scales opponent windows; blocking beats building.
	OpponentWeight = 1.5

	// TopRowScale discounts own windows anchored on the top row.
	TopRowScale = 0.8

	CenterBonus = 3.0

	openThreeBothEnds = 4.0
	openThreeOneEnd   = 2.0
)

// windowScore indexed by disc count in a window.
var windowScore = [5]float64{0, 0, 2, 5, 100}

// Evaluate returns the static score of b for p.
func Evaluate(b game.Board, p game.Player) float64 {
	opp := p.Opponent()
	if HasOpenThree(b, opp) {
		return ThreatPenalty
	}

	score := 0.0
	for _, d := range rules.Directions {
		dr, dc := d[0], d[1]
		for r := 0; r < game.Rows; r++ {
			for c := 0; c < game.Cols; c++ {
				if !game.InBounds(r+3*dr, c+3*dc) {
					continue
				}
				score += scoreWindow(&b, r, c, dr, dc, p, opp)
			}
		}
	}

	for r := 0; r < game.Rows; r++ {
		switch b[r][game.CenterColumn] {
		case p:
			score += CenterBonus
		case opp:
			score -= CenterBonus
		}
	}
	return score
}

// scoreWindow scores the four cells starting at (r, c) along (dr, dc).
func scoreWindow(b *game.Board, r, c, dr, dc int, p, opp game.Player) float64 {
	own, theirs := 0, 0
	for i := 0; i < 4; i++ {
		switch b[r+i*dr][c+i*dc] {
		case p:
			own++
		case opp:
			theirs++
		}
	}

	switch {
	case own > 0 && theirs > 0, own == 0 && theirs == 0:
		return 0
	case theirs > 0:
		return -OpponentWeight * windowScore[theirs]
	}

	s := windowScore[own]
	if own == 3 {
		switch openEnds(b, r, c, dr, dc) {
		case 2:
			s += openThreeBothEnds
		case 1:
			s += openThreeOneEnd
		}
	}
	if r == 0 {
		s *= TopRowScale
	}
	return s
}

// openEnds counts the empty on-board cells just outside the window.
func openEnds(b *game.Board, r, c, dr, dc int) int {
	n := 0
	if br, bc := r-dr, c-dc; game.InBounds(br, bc) && b[br][bc] == game.Empty {
		n++
	}
	if ar, ac := r+4*dr, c+4*dc; game.InBounds(ar, ac) && b[ar][ac] == game.Empty {
		n++
	}
	return n
}

// HasOpenThree reports whether p has three contiguous discs on any axis with
// an empty cell at one end or both.
func HasOpenThree(b game.Board, p game.Player) bool {
	if p == game.Empty {
		return false
	}
	for r := 0; r < game.Rows; r++ {
		for c := 0; c < game.Cols; c++ {
			if b[r][c] != p {
				continue
			}
			for _, d := range rules.Directions {
				dr, dc := d[0], d[1]
				if !game.InBounds(r+2*dr, c+2*dc) || b[r+dr][c+dc] != p || b[r+2*dr][c+2*dc] != p {
					continue
				}
				if br, bc := r-dr, c-dc; game.InBounds(br, bc) && b[br][bc] == game.Empty {
					return true
				}
				if ar, ac := r+3*dr, c+3*dc; game.InBounds(ar, ac) && b[ar][ac] == game.Empty {
					return true
				}
			}
		}
	}
	return false
}
