package selector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brensch/connect4/executor/alphabeta"
	"github.com/brensch/connect4/executor/mcts"
	"github.com/brensch/connect4/game"
	"github.com/brensch/connect4/rules"
)

func mustBoard(t testing.TB, s string) game.Board {
	t.Helper()
	b, err := game.ParseBoard(s)
	if err != nil {
		t.Fatalf("ParseBoard: %v", err)
	}
	return b
}

type fakeAlphaBeta struct {
	calls  int
	depth  int
	column int
	err    error
}

func (f *fakeAlphaBeta) BestMove(b game.Board, p game.Player, depth int) (alphabeta.Result, error) {
	f.calls++
	f.depth = depth
	return alphabeta.Result{Column: f.column, Depth: depth}, f.err
}

type fakeMCTS struct {
	calls  int
	budget time.Duration
	column int
	err    error
}

func (f *fakeMCTS) Search(ctx context.Context, b game.Board, p game.Player, budget time.Duration) (mcts.Result, error) {
	f.calls++
	f.budget = budget
	return mcts.Result{Column: f.column, Iterations: 1}, f.err
}

// quietGame has no four in any prefix. After 16, 17 and 28 drops neither
// side has a winning drop, and column 0 is full after 28.
var quietGame = []int{6, 1, 0, 0, 4, 4, 4, 4, 1, 1, 2, 0, 0, 1, 0, 5, 0, 4, 6, 6, 1, 1, 2, 2, 2, 6, 4, 5}

// fillTo plays the first n drops of quietGame.
func fillTo(t *testing.T, n int) game.Board {
	t.Helper()
	var b game.Board
	p := game.Red
	for i := 0; i < n; i++ {
		col := quietGame[i]
		next, _, err := rules.ApplyMove(b, col, p)
		if err != nil {
			t.Fatalf("fill %d: %v", i, err)
		}
		b = next
		p = p.Opponent()
	}
	return b
}

func TestDecide_RoutesByEmptyFraction(t *testing.T) {
	cases := []struct {
		name      string
		discs     int
		wantRoute Route
	}{
		{"empty board", 0, RouteMCTS},
		{"16 discs is 26/42 empty", 16, RouteMCTS},
		{"17 discs is 25/42 empty", 17, RouteAlphaBeta},
		{"28 discs", 28, RouteAlphaBeta},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := fillTo(t, tc.discs)
			if c, ok := immediate(b, rules.LegalMoves(b), game.Red); ok {
				t.Fatalf("fixture has a win at %d\n%s", c, b)
			}
			if c, ok := immediate(b, rules.LegalMoves(b), game.Yellow); ok {
				t.Fatalf("fixture has a win at %d\n%s", c, b)
			}
			moves := rules.LegalMoves(b)
			ab := &fakeAlphaBeta{column: moves[0]}
			mc := &fakeMCTS{column: moves[len(moves)-1]}
			s := New(Config{Depth: 5, MCTSThreshold: DefaultMCTSThreshold}, ab, mc)

			d, err := s.Decide(context.Background(), b, b.ToMove(), 50*time.Millisecond)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if d.Route != tc.wantRoute {
				t.Fatalf("route=%s want %s (empty fraction %.3f)", d.Route, tc.wantRoute, b.EmptyFraction())
			}
			switch tc.wantRoute {
			case RouteMCTS:
				if mc.calls != 1 || ab.calls != 0 {
					t.Fatalf("mcts calls=%d alphabeta calls=%d", mc.calls, ab.calls)
				}
				if mc.budget != 50*time.Millisecond {
					t.Fatalf("budget=%v", mc.budget)
				}
				if d.Column != mc.column {
					t.Fatalf("column=%d want %d", d.Column, mc.column)
				}
			case RouteAlphaBeta:
				if ab.calls != 1 || mc.calls != 0 {
					t.Fatalf("mcts calls=%d alphabeta calls=%d", mc.calls, ab.calls)
				}
				if ab.depth != 5 {
					t.Fatalf("depth=%d want 5", ab.depth)
				}
				if d.Column != ab.column {
					t.Fatalf("column=%d want %d", d.Column, ab.column)
				}
			}
		})
	}
}

func TestDecide_FallsBackToLegalColumn(t *testing.T) {
	b := fillTo(t, 28)
	cases := []struct {
		name string
		ab   *fakeAlphaBeta
	}{
		{"error", &fakeAlphaBeta{column: 3, err: errors.New("boom")}},
		{"no column", &fakeAlphaBeta{column: game.NoColumn}},
		{"full column", &fakeAlphaBeta{column: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.ab.column == 0 && rules.IsLegal(&b, 0) {
				t.Fatalf("fixture: column 0 should be full")
			}
			s := New(Config{Depth: 3, MCTSThreshold: DefaultMCTSThreshold}, tc.ab, &fakeMCTS{})
			for i := 0; i < 20; i++ {
				d, err := s.Decide(context.Background(), b, b.ToMove(), time.Millisecond)
				if err != nil {
					t.Fatalf("Decide: %v", err)
				}
				if d.Route != RouteFallback {
					t.Fatalf("route=%s want fallback", d.Route)
				}
				if !rules.IsLegal(&b, d.Column) {
					t.Fatalf("fallback chose illegal column %d", d.Column)
				}
			}
		})
	}
}

func TestDecide_TacticalGuard(t *testing.T) {
	cases := []struct {
		name      string
		board     string
		side      game.Player
		wantCol   int
		wantRoute Route
	}{
		{"takes win", "......./......./......./......./YY...../RRR....", game.Red, 3, RouteWin},
		{"blocks", "......./......./......./......./......./R...YYY", game.Red, 3, RouteBlock},
		{"win before block", "......./......./......./Y....../YR...../YRRR..Y", game.Red, 4, RouteWin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := mustBoard(t, tc.board)
			ab, mc := &fakeAlphaBeta{column: game.NoColumn}, &fakeMCTS{column: game.NoColumn}
			s := New(DefaultConfig(), ab, mc)
			d, err := s.Decide(context.Background(), b, tc.side, time.Millisecond)
			if err != nil {
				t.Fatalf("Decide: %v", err)
			}
			if d.Column != tc.wantCol || d.Route != tc.wantRoute {
				t.Fatalf("got %d/%s want %d/%s", d.Column, d.Route, tc.wantCol, tc.wantRoute)
			}
			if ab.calls+mc.calls != 0 {
				t.Fatalf("engines should not run when the guard decides")
			}
		})
	}
}

func TestSelectMove_NoLegalMoves(t *testing.T) {
	b := mustBoard(t, "RRYYRRY/YYRRYYR/RRYYRRY/YYRRYYR/RRYYRRY/YYRRYYR")
	_, err := NewDefault(DefaultConfig(), 0).SelectMove(context.Background(), b, game.Red, time.Millisecond)
	if !errors.Is(err, ErrNoLegalMoves) {
		t.Fatalf("err=%v want ErrNoLegalMoves", err)
	}
}

func TestSelectMove_EmptyBoardAlphaBetaPlaysCenter(t *testing.T) {
	// A threshold of 1 keeps every board on alpha-beta.
	s := NewDefault(Config{Depth: 1, MCTSThreshold: 1}, 0)
	col, err := s.SelectMove(context.Background(), game.Board{}, game.Red, time.Millisecond)
	if err != nil {
		t.Fatalf("SelectMove: %v", err)
	}
	if col != game.CenterColumn {
		t.Fatalf("column=%d want %d", col, game.CenterColumn)
	}
}

func TestSelectMove_RealEngines(t *testing.T) {
	cases := []struct {
		name  string
		board string
		side  game.Player
		check func(t *testing.T, b game.Board, col int)
	}{
		{"win", "......./......./......./......./YY...../RRR....", game.Red, func(t *testing.T, b game.Board, col int) {
			if col != 3 {
				t.Fatalf("column=%d want 3", col)
			}
		}},
		{"block", "......./......./......./......./......./R...YYY", game.Red, func(t *testing.T, b game.Board, col int) {
			if col != 3 {
				t.Fatalf("column=%d want 3", col)
			}
		}},
		{"avoid losing column", "......./......./......./......./YYY..../RYR..RR", game.Red, func(t *testing.T, b game.Board, col int) {
			if col == 3 {
				t.Fatalf("played losing column 3")
			}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := mustBoard(t, tc.board)
			for _, threshold := range []float64{DefaultMCTSThreshold, 1} {
				s := NewDefault(Config{Depth: 4, MCTSThreshold: threshold, Seed: 3}, 0)
				col, err := s.SelectMove(context.Background(), b, tc.side, 20*time.Millisecond)
				if err != nil {
					t.Fatalf("SelectMove: %v", err)
				}
				if !rules.IsLegal(&b, col) {
					t.Fatalf("illegal column %d", col)
				}
				if threshold == 1 || tc.name != "avoid losing column" {
					tc.check(t, b, col)
				}
			}
		})
	}
}
