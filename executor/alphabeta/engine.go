// Package alphabeta implements a depth-bounded negamax search with
// alpha-beta pruning, a transposition table, quiescence at the leaves,
// null-move pruning and history-ordered moves.
//
// Scores are relative to the side to move. A forced win is +Inf and a forced
// loss -Inf; only negation and comparison are applied to them, never
// arithmetic, so no NaN can appear.
//
// Recursion depth equals the requested depth, which is capped at the 42 plies
// a Connect Four game can last.
package alphabeta

import (
	"errors"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/brensch/connect4/eval"
	"github.com/brensch/connect4/game"
	"github.com/brensch/connect4/logging"
	"github.com/brensch/connect4/rules"
)

const (
	// MaxDepth is the longest possible game.
	MaxDepth = game.Cells

	// DefaultNullMoveReduction is R in depth-1-R for the null-move search.
	DefaultNullMoveReduction = 2
)

var ErrNoLegalMoves = errors.New("no legal moves")

type Config struct {
	NullMoveReduction int
	ZobristSeed       uint64
	Logger            *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		NullMoveReduction: DefaultNullMoveReduction,
		ZobristSeed:       DefaultZobristSeed,
	}
}

type Stats struct {
	Nodes        int
	QuiesceNodes int
	TTHits       int
	NullCutoffs  int
	BetaCutoffs  int
}

type Result struct {
	Column  int
	Score   float64
	Depth   int
	Stats   Stats
	Elapsed time.Duration
}

// Engine owns its transposition and history tables. It is not safe for
// concurrent searches; give each goroutine its own Engine.
type Engine struct {
	zobrist  *Zobrist
	tt       *TranspositionTable
	history  [game.Cols][MaxDepth + 1]int
	nullR    int
	rootSide game.Player
	stats    Stats
	log      *slog.Logger
}

func NewEngine(cfg Config) *Engine {
	if cfg.NullMoveReduction <= 0 {
		cfg.NullMoveReduction = DefaultNullMoveReduction
	}
	if cfg.ZobristSeed == 0 {
		cfg.ZobristSeed = DefaultZobristSeed
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		zobrist: NewZobrist(cfg.ZobristSeed),
		tt:      NewTranspositionTable(),
		nullR:   cfg.NullMoveReduction,
		log:     logger,
	}
}

// Reset drops everything learned by earlier searches.
func (e *Engine) Reset() {
	e.tt.Clear()
	e.history = [game.Cols][MaxDepth + 1]int{}
	e.stats = Stats{}
}

// BestMove searches b to depth plies for p and returns the chosen column.
// Tables are reset first, so identical calls give identical answers.
func (e *Engine) BestMove(b game.Board, p game.Player, depth int) (Result, error) {
	if len(rules.LegalMoves(b)) == 0 {
		return Result{Column: game.NoColumn}, ErrNoLegalMoves
	}
	depth = max(1, min(depth, MaxDepth))

	start := time.Now()
	e.Reset()
	e.rootSide = p

	score, col := e.negamax(b, depth, 0, math.Inf(-1), math.Inf(1), p)
	res := Result{
		Column:  col,
		Score:   score,
		Depth:   depth,
		Stats:   e.stats,
		Elapsed: time.Since(start),
	}
	e.log.Debug("alphabeta search",
		"side", p.String(),
		"depth", depth,
		"column", col,
		"score", score,
		"nodes", e.stats.Nodes,
		"tt_hits", e.stats.TTHits,
		"null_cutoffs", e.stats.NullCutoffs,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

func (e *Engine) negamax(b game.Board, depth, ply int, alpha, beta float64, p game.Player) (float64, int) {
	e.stats.Nodes++
	origAlpha, origBeta := alpha, beta

	key := e.zobrist.Key(b, p)
	if entry, ok := e.tt.Get(key); ok && entry.Depth >= depth {
		e.stats.TTHits++
		switch entry.Flag {
		case TTExact:
			return entry.Score, entry.Column
		case TTLower:
			alpha = max(alpha, entry.Score)
		case TTUpper:
			beta = min(beta, entry.Score)
		}
		if alpha >= beta {
			return entry.Score, entry.Column
		}
	}

	moves := rules.LegalMoves(b)
	if len(moves) == 0 {
		// Full board with no winner: a draw.
		return 0, game.NoColumn
	}

	opp := p.Opponent()
	var threats []int
	for _, c := range moves {
		if rules.WinsAt(b, c, p) {
			return math.Inf(1), c
		}
		if rules.WinsAt(b, c, opp) {
			threats = append(threats, c)
		}
	}
	if len(threats) > 1 {
		// Two open wins for the opponent: only one can be blocked.
		return math.Inf(-1), threats[0]
	}

	if depth <= 0 {
		return e.quiesce(b, alpha, beta, p), game.NoColumn
	}

	if len(threats) == 1 {
		moves = threats
	} else if e.tryNullMove(b, depth, ply, alpha, beta, p) {
		e.stats.NullCutoffs++
		return beta, game.NoColumn
	}

	ordered := e.orderMoves(b, moves, p, depth)
	best, bestCol := math.Inf(-1), ordered[0]
	for _, c := range ordered {
		next, _, err := rules.ApplyMove(b, c, p)
		if err != nil {
			continue
		}
		score, _ := e.negamax(next, depth-1, ply+1, -beta, -alpha, opp)
		score = -score
		if score > best {
			best, bestCol = score, c
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			e.stats.BetaCutoffs++
			e.history[c][depth] += depth * depth
			break
		}
	}

	e.tt.Put(key, TTEntry{
		Score:  best,
		Depth:  depth,
		Column: bestCol,
		Flag:   classify(best, origAlpha, origBeta),
	})
	return best, bestCol
}

// tryNullMove lets the root side pass and searches the reply at reduced
// depth. If the opponent still cannot get below beta, the node is cut.
// Connect Four has zugzwang positions where passing would be an advantage
// the real game does not allow, so this is a speed heuristic, not a proof.
func (e *Engine) tryNullMove(b game.Board, depth, ply int, alpha, beta float64, p game.Player) bool {
	if ply == 0 || p != e.rootSide || depth <= e.nullR || math.IsInf(beta, 1) {
		return false
	}
	score, _ := e.negamax(b, depth-1-e.nullR, ply+1, -beta, -alpha, p.Opponent())
	return -score >= beta
}

type scoredMove struct {
	col   int
	score float64
}

// orderMoves sorts by the mover's static score after the drop plus the
// history bonus for that column at this depth, best first. Ties keep
// ascending column order.
func (e *Engine) orderMoves(b game.Board, moves []int, p game.Player, depth int) []int {
	scored := make([]scoredMove, 0, len(moves))
	for _, c := range moves {
		next, _, err := rules.ApplyMove(b, c, p)
		if err != nil {
			continue
		}
		scored = append(scored, scoredMove{
			col:   c,
			score: eval.Evaluate(next, p) + float64(e.history[c][depth]),
		})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })

	out := make([]int, len(scored))
	for i, s := range scored {
		out[i] = s.col
	}
	return out
}
