package alphabeta

import (
	"github.com/brensch/connect4/eval"
	"github.com/brensch/connect4/game"
	"github.com/brensch/connect4/rules"
)

// quiesce extends a depth-0 leaf through forced blocks only: for each column
// where the opponent would win next, the mover blocks it and the reply is
// searched the same way. The mover's own wins are not explored here; the
// caller's immediate scan already returned on those. The opponent's winning
// reply itself is never played out; stand-pat already scores an opponent
// open three as lost, so the block is the only move searched.
//
// Every step drops a disc, so the extension ends within the board's empty
// cells.
func (e *Engine) quiesce(b game.Board, alpha, beta float64, p game.Player) float64 {
	e.stats.QuiesceNodes++

	standPat := eval.Evaluate(b, p)
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}

	opp := p.Opponent()
	for _, c := range rules.LegalMoves(b) {
		if !rules.WinsAt(b, c, opp) {
			continue
		}
		next, _, err := rules.ApplyMove(b, c, p)
		if err != nil {
			continue
		}
		score := -e.quiesce(next, -beta, -alpha, opp)
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}
