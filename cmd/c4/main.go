package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/brensch/connect4/config"
	"github.com/brensch/connect4/eval"
	"github.com/brensch/connect4/executor/alphabeta"
	"github.com/brensch/connect4/executor/mcts"
	"github.com/brensch/connect4/executor/selector"
	"github.com/brensch/connect4/executor/selfplay"
	"github.com/brensch/connect4/game"
	"github.com/brensch/connect4/logging"
	"github.com/brensch/connect4/rules"
	"github.com/brensch/connect4/store"
)

func main() {
	configPath := flag.String("config", "", "Optional config file")
	boardArg := flag.String("board", "", "Board as 6 rows of 7 cells separated by '/', top row first; '-' reads stdin")
	sideArg := flag.String("side", "", "Side to move (red|yellow); defaults to whoever is due")
	engine := flag.String("engine", "auto", "auto routes by empty fraction; alphabeta or mcts forces one engine")
	depth := flag.Int("depth", 0, "Alpha-beta depth (overrides config)")
	budget := flag.Duration("budget", 0, "MCTS time budget (overrides config)")
	replayPath := flag.String("replay", "", "Parquet batch to replay instead of analysing a board")
	gameID := flag.String("game", "", "Game ID to replay; empty replays the first game in the batch")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *depth > 0 {
		cfg.Engine.Depth = *depth
	}
	if *budget > 0 {
		cfg.Engine.Budget = *budget
	}
	logger, err := logging.New(os.Stderr, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}

	if *replayPath != "" {
		if err := replay(os.Stdout, *replayPath, *gameID); err != nil {
			log.Fatalf("replay: %v", err)
		}
		return
	}

	b, err := readBoard(*boardArg)
	if err != nil {
		log.Fatalf("board: %v", err)
	}
	side := b.ToMove()
	if *sideArg != "" {
		if side, err = game.ParsePlayer(*sideArg); err != nil {
			log.Fatalf("side: %v", err)
		}
	}

	fmt.Print(b.String())
	fmt.Printf("side=%s empty=%.3f eval=%g\n", side, b.EmptyFraction(), eval.Evaluate(b, side))
	if w := rules.Winner(b); w != game.Empty {
		fmt.Printf("already won by %s\n", w)
		return
	}

	ctx := context.Background()
	start := time.Now()
	switch *engine {
	case "auto":
		sel := selector.NewDefault(selector.Config{
			Depth:         cfg.Engine.Depth,
			MCTSThreshold: cfg.Engine.MCTSThreshold,
			Seed:          cfg.Engine.Seed,
			Logger:        logger,
		}, cfg.Engine.Exploration)
		d, err := sel.Decide(ctx, b, side, cfg.Engine.Budget)
		if err != nil {
			log.Fatalf("select: %v", err)
		}
		fmt.Printf("column=%d route=%s elapsed=%s\n", d.Column, d.Route, time.Since(start).Round(time.Microsecond))

	case "alphabeta":
		abCfg := alphabeta.DefaultConfig()
		abCfg.Logger = logger
		res, err := alphabeta.NewEngine(abCfg).BestMove(b, side, cfg.Engine.Depth)
		if err != nil {
			log.Fatalf("alphabeta: %v", err)
		}
		fmt.Printf("column=%d score=%g depth=%d nodes=%d tt_hits=%d null_cutoffs=%d elapsed=%s\n",
			res.Column, res.Score, res.Depth, res.Stats.Nodes, res.Stats.TTHits, res.Stats.NullCutoffs, res.Elapsed.Round(time.Microsecond))

	case "mcts":
		mcCfg := mcts.DefaultConfig()
		mcCfg.Exploration = cfg.Engine.Exploration
		mcCfg.Seed = cfg.Engine.Seed
		mcCfg.Logger = logger
		res, err := mcts.NewEngine(mcCfg).Search(ctx, b, side, cfg.Engine.Budget)
		if err != nil {
			log.Fatalf("mcts: %v", err)
		}
		fmt.Printf("column=%d iterations=%d visits=%v wins=%v elapsed=%s\n",
			res.Column, res.Iterations, res.Visits, res.Wins, res.Elapsed.Round(time.Microsecond))

	default:
		log.Fatalf("unknown engine %q", *engine)
	}
}

func readBoard(arg string) (game.Board, error) {
	switch arg {
	case "":
		return game.Board{}, nil
	case "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return game.Board{}, err
		}
		arg = strings.TrimSpace(string(data))
	}
	b, err := game.ParseBoard(arg)
	if err != nil {
		return b, err
	}
	return b, b.Validate()
}

func replay(w io.Writer, path, id string) error {
	rows, err := store.ReadGames(path)
	if err != nil {
		return err
	}
	for _, r := range rows {
		if id != "" && r.GameID != id {
			continue
		}
		boards, err := selfplay.Replay(r.Moves)
		if err != nil {
			return fmt.Errorf("game %s: %w", r.GameID, err)
		}
		fmt.Fprintf(w, "game %s outcome=%d plies=%d red=%s yellow=%s\n", r.GameID, r.Outcome, r.Plies, r.RedEngine, r.YellowEngine)
		p := game.Red
		for i, b := range boards {
			route := ""
			if i < len(r.Routes) {
				route = r.Routes[i]
			}
			fmt.Fprintf(w, "\n%d. %s -> %d (%s)\n%s", i+1, p, r.Moves[i], route, b.String())
			p = p.Opponent()
		}
		return nil
	}
	if id != "" {
		return fmt.Errorf("game %s not found in %s", id, path)
	}
	return fmt.Errorf("no games in %s", path)
}
