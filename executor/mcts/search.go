// Package mcts picks a move by Monte-Carlo Tree Search with UCT selection and
// uniformly random playouts, bounded by wall-clock time.
package mcts

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/brensch/connect4/game"
	"github.com/brensch/connect4/logging"
	"github.com/brensch/connect4/rules"
)

// epsilon keeps UCT finite for unvisited children.
const epsilon = 1e-6

var ErrNoLegalMoves = errors.New("no legal moves")

// Config holds MCTS configuration
type Config struct {
	// Exploration is c in wins/n + c*sqrt(ln(N)/n). Zero means sqrt(2).
	Exploration float64
	Seed        int64
	// MaxIterations stops the search early when positive.
	MaxIterations int
	Logger        *slog.Logger
}

func DefaultConfig() Config {
	return Config{Exploration: math.Sqrt2, Seed: 1}
}

type Result struct {
	Column     int
	Iterations int
	// Visits and Wins are indexed by column; illegal columns stay zero.
	Visits  [game.Cols]int
	Wins    [game.Cols]int
	Elapsed time.Duration
}

// Engine is single-owner: the tree arena and random source are reused across
// calls and must not be shared between goroutines.
type Engine struct {
	cfg  Config
	rng  *rand.Rand
	tree Tree
	log  *slog.Logger
}

func NewEngine(cfg Config) *Engine {
	if cfg.Exploration <= 0 {
		cfg.Exploration = math.Sqrt2
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
		log: logger,
	}
}

// Search runs iterations for side until budget elapses or ctx is done and
// returns the most visited root child. One iteration always completes, so a
// zero budget still yields a legal column. Running out of time is not an
// error.
func (e *Engine) Search(ctx context.Context, b game.Board, side game.Player, budget time.Duration) (Result, error) {
	moves := rules.LegalMoves(b)
	if len(moves) == 0 {
		return Result{Column: game.NoColumn}, ErrNoLegalMoves
	}

	start := time.Now()
	deadline := start.Add(budget)

	e.tree.Reset()
	root := e.tree.add(Node{
		Board:  b,
		Mover:  side.Opponent(),
		Move:   game.NoColumn,
		Parent: noNode,
	})
	e.expand(root)

	iterations := 0
	for {
		e.iterate(root, side)
		iterations++

		if e.cfg.MaxIterations > 0 && iterations >= e.cfg.MaxIterations {
			break
		}
		if !time.Now().Before(deadline) {
			break
		}
		if ctx != nil {
			select {
			case <-ctx.Done():
				e.log.Debug("mcts search cancelled", "iterations", iterations, "error", ctx.Err())
				return e.result(root, iterations, start), nil
			default:
			}
		}
	}

	res := e.result(root, iterations, start)
	e.log.Debug("mcts search",
		"side", side.String(),
		"column", res.Column,
		"iterations", iterations,
		"nodes", e.tree.Len(),
		"visits", res.Visits,
		"elapsed", res.Elapsed,
	)
	return res, nil
}

func (e *Engine) iterate(root NodeID, side game.Player) {
	// Selection
	id := root
	for len(e.tree.Node(id).Children) > 0 {
		id = e.selectChild(id)
	}

	// Expansion
	n := e.tree.Node(id)
	if n.VisitCount > 0 && !n.Terminal {
		e.expand(id)
		if children := e.tree.Node(id).Children; len(children) > 0 {
			id = children[0]
		}
	}

	// Simulation
	winner := e.playout(id)

	// Backpropagation
	for id != noNode {
		n := e.tree.Node(id)
		n.VisitCount++
		if winner == side {
			n.WinCount++
		}
		id = n.Parent
	}
}

// selectChild returns the child with the highest UCT score. Ties go to the
// earliest child. The log term uses N+1 so a parent with no visits still
// yields finite scores; the root is expanded before the first iteration, so
// it can be selected from while its own count is zero.
func (e *Engine) selectChild(id NodeID) NodeID {
	parent := e.tree.Node(id)
	logN := math.Log(float64(parent.VisitCount) + 1)

	best, bestScore := parent.Children[0], math.Inf(-1)
	for _, c := range parent.Children {
		child := e.tree.Node(c)
		n := float64(child.VisitCount) + epsilon
		uct := float64(child.WinCount)/n + e.cfg.Exploration*math.Sqrt(logN/n)
		if uct > bestScore {
			best, bestScore = c, uct
		}
	}
	return best
}

// expand adds one child per legal move. The arena may grow, so node pointers
// taken before this call are stale afterwards.
func (e *Engine) expand(id NodeID) {
	n := e.tree.Node(id)
	if n.Terminal {
		return
	}
	board := n.Board
	mover := n.Mover.Opponent()
	moves := rules.LegalMoves(board)

	children := make([]NodeID, 0, len(moves))
	for _, c := range moves {
		next, row, err := rules.ApplyMove(board, c, mover)
		if err != nil {
			continue
		}
		child := Node{
			Board:  next,
			Mover:  mover,
			Move:   c,
			Parent: id,
		}
		if rules.CheckWin(next, row, c, mover) {
			child.Winner = mover
			child.Terminal = true
		} else if rules.IsFull(next) {
			child.Terminal = true
		}
		children = append(children, e.tree.add(child))
	}
	e.tree.Node(id).Children = children
}

// playout plays uniformly random moves from the node until someone wins or
// the board fills. It returns the winner, or game.Empty for a draw.
func (e *Engine) playout(id NodeID) game.Player {
	n := e.tree.Node(id)
	if n.Terminal {
		return n.Winner
	}
	b := n.Board
	p := n.Mover.Opponent()
	for {
		moves := rules.LegalMoves(b)
		if len(moves) == 0 {
			return game.Empty
		}
		c := moves[e.rng.Intn(len(moves))]
		next, row, err := rules.ApplyMove(b, c, p)
		if err != nil {
			return game.Empty
		}
		if rules.CheckWin(next, row, c, p) {
			return p
		}
		b = next
		p = p.Opponent()
	}
}

func (e *Engine) result(root NodeID, iterations int, start time.Time) Result {
	res := Result{
		Column:     game.NoColumn,
		Iterations: iterations,
		Elapsed:    time.Since(start),
	}
	bestVisits := -1
	for _, c := range e.tree.Node(root).Children {
		child := e.tree.Node(c)
		res.Visits[child.Move] = child.VisitCount
		res.Wins[child.Move] = child.WinCount
		if child.VisitCount > bestVisits {
			bestVisits = child.VisitCount
			res.Column = child.Move
		}
	}
	return res
}
