// Package selector routes a move request to one of the search engines by how
// empty the board is.
package selector

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"time"

	"github.com/brensch/connect4/executor/alphabeta"
	"github.com/brensch/connect4/executor/mcts"
	"github.com/brensch/connect4/game"
	"github.com/brensch/connect4/logging"
	"github.com/brensch/connect4/rules"
)

const (
	DefaultDepth         = 6
	DefaultMCTSThreshold = 0.6
)

var ErrNoLegalMoves = errors.New("selector: no legal moves")

// AlphaBeta is satisfied by *alphabeta.Engine.
type AlphaBeta interface {
	BestMove(b game.Board, p game.Player, depth int) (alphabeta.Result, error)
}

// MCTS is satisfied by *mcts.Engine.
type MCTS interface {
	Search(ctx context.Context, b game.Board, p game.Player, budget time.Duration) (mcts.Result, error)
}

type Route string

const (
	RouteWin       Route = "win"
	RouteBlock     Route = "block"
	RouteMCTS      Route = "mcts"
	RouteAlphaBeta Route = "alphabeta"
	RouteFallback  Route = "fallback"
)

type Config struct {
	Depth int
	// Boards whose empty fraction is strictly above MCTSThreshold go to MCTS.
	MCTSThreshold float64
	Seed          int64
	Logger        *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		Depth:         DefaultDepth,
		MCTSThreshold: DefaultMCTSThreshold,
		Seed:          1,
	}
}

// Decision is a chosen column plus how it was reached.
type Decision struct {
	Column int
	Route  Route
}

// Selector owns its engines; use one per goroutine.
type Selector struct {
	cfg       Config
	alphaBeta AlphaBeta
	mcts      MCTS
	rng       *rand.Rand
	log       *slog.Logger
}

// New builds a Selector around the given engines.
func New(cfg Config, ab AlphaBeta, mc MCTS) *Selector {
	if cfg.Depth <= 0 {
		cfg.Depth = DefaultDepth
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Selector{
		cfg:       cfg,
		alphaBeta: ab,
		mcts:      mc,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		log:       logger,
	}
}

// NewDefault wires fresh alpha-beta and MCTS engines that share cfg's logger
// and seed.
func NewDefault(cfg Config, exploration float64) *Selector {
	abCfg := alphabeta.DefaultConfig()
	abCfg.Logger = cfg.Logger
	mcCfg := mcts.DefaultConfig()
	mcCfg.Seed = cfg.Seed
	mcCfg.Logger = cfg.Logger
	if exploration > 0 {
		mcCfg.Exploration = exploration
	}
	return New(cfg, alphabeta.NewEngine(abCfg), mcts.NewEngine(mcCfg))
}

// SelectMove returns a legal column for p. It only fails when the board has
// no legal moves.
func (s *Selector) SelectMove(ctx context.Context, b game.Board, p game.Player, budget time.Duration) (int, error) {
	d, err := s.Decide(ctx, b, p, budget)
	return d.Column, err
}

// Decide is SelectMove with the route reported.
func (s *Selector) Decide(ctx context.Context, b game.Board, p game.Player, budget time.Duration) (Decision, error) {
	moves := rules.LegalMoves(b)
	if len(moves) == 0 {
		return Decision{Column: game.NoColumn}, ErrNoLegalMoves
	}

	if c, ok := immediate(b, moves, p); ok {
		return Decision{Column: c, Route: RouteWin}, nil
	}
	if c, ok := immediate(b, moves, p.Opponent()); ok {
		return Decision{Column: c, Route: RouteBlock}, nil
	}

	if b.EmptyFraction() > s.cfg.MCTSThreshold {
		res, err := s.mcts.Search(ctx, b, p, budget)
		if err == nil && rules.IsLegal(&b, res.Column) {
			return Decision{Column: res.Column, Route: RouteMCTS}, nil
		}
		s.log.Warn("mcts gave no usable column", "column", res.Column, "error", err)
		return s.fallback(moves), nil
	}

	res, err := s.alphaBeta.BestMove(b, p, s.cfg.Depth)
	if err == nil && rules.IsLegal(&b, res.Column) {
		return Decision{Column: res.Column, Route: RouteAlphaBeta}, nil
	}
	s.log.Warn("alphabeta gave no usable column", "column", res.Column, "error", err)
	return s.fallback(moves), nil
}

// immediate returns the first column where p completes four.
func immediate(b game.Board, moves []int, p game.Player) (int, bool) {
	for _, c := range moves {
		if rules.WinsAt(b, c, p) {
			return c, true
		}
	}
	return game.NoColumn, false
}

func (s *Selector) fallback(moves []int) Decision {
	return Decision{Column: moves[s.rng.Intn(len(moves))], Route: RouteFallback}
}
