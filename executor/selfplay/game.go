// Package selfplay plays complete games between move selectors and archives
// them.
package selfplay

import (
	"context"
	"fmt"
	"time"

	"github.com/brensch/connect4/executor/selector"
	"github.com/brensch/connect4/game"
	"github.com/brensch/connect4/rules"
	"github.com/brensch/connect4/store"
	"github.com/google/uuid"
)

// Mover picks a column for the side to move. *selector.Selector satisfies it.
type Mover interface {
	Decide(ctx context.Context, b game.Board, p game.Player, budget time.Duration) (selector.Decision, error)
}

type GameResult struct {
	GameID string
	// Winner is game.Empty for a draw.
	Winner game.Player
	Plies  int
	Final  game.Board
}

// Outcome is the archived result from red's point of view.
func (r GameResult) Outcome() int32 {
	switch r.Winner {
	case game.Red:
		return store.OutcomeRedWin
	case game.Yellow:
		return store.OutcomeYellowWin
	default:
		return store.OutcomeDraw
	}
}

type PlayGameOptions struct {
	Budget       time.Duration
	RedEngine    string
	YellowEngine string
	Seed         int64
	// OnMove runs after every drop.
	OnMove func(b game.Board, col int, p game.Player)
}

// PlayGame plays red against yellow from the empty board, red first, until a
// four or a full board. A cancelled context abandons the game.
func PlayGame(ctx context.Context, red, yellow Mover, opts PlayGameOptions) (store.GameRow, GameResult, error) {
	start := time.Now()
	res := GameResult{GameID: uuid.NewString()}
	row := store.GameRow{
		GameID:       res.GameID,
		Moves:        make([]int32, 0, game.Cells),
		Routes:       make([]string, 0, game.Cells),
		RedEngine:    opts.RedEngine,
		YellowEngine: opts.YellowEngine,
		Seed:         opts.Seed,
	}

	var b game.Board
	p := game.Red
	for {
		if err := ctx.Err(); err != nil {
			return row, res, err
		}
		if rules.IsFull(b) {
			break
		}

		mover := red
		if p == game.Yellow {
			mover = yellow
		}
		d, err := mover.Decide(ctx, b, p, opts.Budget)
		if err != nil {
			return row, res, fmt.Errorf("%s move %d: %w", p, len(row.Moves), err)
		}
		next, r, err := rules.ApplyMove(b, d.Column, p)
		if err != nil {
			return row, res, fmt.Errorf("%s move %d: %w", p, len(row.Moves), err)
		}
		b = next
		row.Moves = append(row.Moves, int32(d.Column))
		row.Routes = append(row.Routes, string(d.Route))
		if opts.OnMove != nil {
			opts.OnMove(b, d.Column, p)
		}

		if rules.CheckWin(b, r, d.Column, p) {
			res.Winner = p
			break
		}
		p = p.Opponent()
	}

	res.Plies = len(row.Moves)
	res.Final = b
	row.Outcome = res.Outcome()
	row.Plies = int32(res.Plies)
	row.FinalBoard = b.Compact()
	row.DurationMs = time.Since(start).Milliseconds()
	row.FinishedAt = time.Now().UnixMilli()
	return row, res, nil
}

// Replay rebuilds the position after each move of an archived game.
func Replay(moves []int32) ([]game.Board, error) {
	boards := make([]game.Board, 0, len(moves))
	var b game.Board
	p := game.Red
	for i, c := range moves {
		next, r, err := rules.ApplyMove(b, int(c), p)
		if err != nil {
			return boards, fmt.Errorf("move %d: %w", i, err)
		}
		b = next
		boards = append(boards, b)
		if rules.CheckWin(b, r, int(c), p) && i != len(moves)-1 {
			return boards, fmt.Errorf("move %d: game already won by %s", i, p)
		}
		p = p.Opponent()
	}
	return boards, nil
}
