package selfplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/brensch/connect4/executor/selector"
	"github.com/brensch/connect4/game"
	"github.com/brensch/connect4/logging"
	"github.com/brensch/connect4/store"
	"golang.org/x/sync/errgroup"
)

const engineName = "selector"

type Config struct {
	Workers int
	// Games is the total to play across workers. Zero plays until ctx ends.
	Games  int
	Budget time.Duration

	Selector    selector.Config
	Exploration float64

	// OutDir receives Parquet batches and the manifest. Empty disables
	// archiving.
	OutDir        string
	GamesPerFlush int

	Logger *slog.Logger
}

// Update is sent once per finished game.
type Update struct {
	WorkerID int
	Result   GameResult
	Routes   map[string]int
}

// Stats is safe to read while Run is in progress.
type Stats struct {
	Games   atomic.Int64
	Moves   atomic.Int64
	Batches atomic.Int64
}

// Run plays games on cfg.Workers goroutines. Each worker owns its selector
// and engines. Finished games go to updates (if non-nil) and to the archive
// writer. Run returns when the game quota is met or ctx is done; the final
// partial batch is flushed either way.
func Run(ctx context.Context, cfg Config, stats *Stats, updates chan<- Update) error {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.GamesPerFlush < 1 {
		cfg.GamesPerFlush = 1
	}
	if stats == nil {
		stats = &Stats{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	var claimed atomic.Int64
	rows := make(chan store.GameRow, cfg.Workers*2)

	// The writer stays outside the errgroup: it must keep draining after
	// gctx is cancelled and stops only when rows is closed.
	writerDone := make(chan error, 1)
	go func() {
		writerDone <- writeBatches(cfg, rows, stats, logger)
	}()

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Workers; w++ {
		workerID := w
		g.Go(func() error {
			return runWorker(gctx, cfg, workerID, &claimed, stats, rows, updates, logger)
		})
	}

	err := g.Wait()
	close(rows)
	writeErr := <-writerDone

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	return errors.Join(err, writeErr)
}

func runWorker(ctx context.Context, cfg Config, workerID int, claimed *atomic.Int64, stats *Stats, rows chan<- store.GameRow, updates chan<- Update, logger *slog.Logger) error {
	selCfg := cfg.Selector
	selCfg.Seed = cfg.Selector.Seed + int64(workerID)*1000003
	selCfg.Logger = logger.With("worker", workerID)
	sel := selector.NewDefault(selCfg, cfg.Exploration)

	for {
		if cfg.Games > 0 && claimed.Add(1) > int64(cfg.Games) {
			return nil
		}

		routes := make(map[string]int)
		row, res, err := PlayGame(ctx, sel, sel, PlayGameOptions{
			Budget:       cfg.Budget,
			RedEngine:    engineName,
			YellowEngine: engineName,
			Seed:         selCfg.Seed,
			OnMove: func(game.Board, int, game.Player) {
				stats.Moves.Add(1)
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("worker %d: %w", workerID, err)
		}
		for _, r := range row.Routes {
			routes[r]++
		}
		stats.Games.Add(1)
		logger.Debug("game finished",
			"worker", workerID,
			"game_id", res.GameID,
			"winner", res.Winner,
			"plies", res.Plies,
		)

		select {
		case rows <- row:
		case <-ctx.Done():
			return ctx.Err()
		}
		if updates != nil {
			select {
			case updates <- Update{WorkerID: workerID, Result: res, Routes: routes}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// writeBatches drains rows into Parquet batches of cfg.GamesPerFlush games.
// Without an OutDir the rows are discarded.
func writeBatches(cfg Config, rows <-chan store.GameRow, stats *Stats, logger *slog.Logger) error {
	if cfg.OutDir == "" {
		for range rows {
		}
		return nil
	}

	manifest, err := store.OpenManifest(cfg.OutDir)
	if err != nil {
		for range rows {
		}
		return err
	}
	defer manifest.Close()

	var w *store.BatchWriter
	flush := func() error {
		if w == nil {
			return nil
		}
		path, games, err := w.Finalize()
		w = nil
		if err != nil {
			return err
		}
		if path == "" {
			return nil
		}
		if err := manifest.Add(path); err != nil {
			return err
		}
		stats.Batches.Add(1)
		logger.Info("wrote batch", "path", path, "games", games)
		return nil
	}

	var firstErr error
	for row := range rows {
		if firstErr != nil {
			continue
		}
		if w == nil {
			if w, err = store.NewBatchWriter(cfg.OutDir); err != nil {
				firstErr = err
				continue
			}
			logger.Debug("opened batch", "path", w.OutPath())
		}
		if err := w.Write(row); err != nil {
			firstErr = err
			continue
		}
		if w.Games() >= cfg.GamesPerFlush {
			if err := flush(); err != nil {
				firstErr = err
			}
		}
	}
	if firstErr != nil {
		if w != nil {
			_, _, _ = w.Finalize()
		}
		return firstErr
	}
	return flush()
}
