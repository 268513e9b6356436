package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/brensch/connect4/config"
	"github.com/brensch/connect4/executor/selector"
	"github.com/brensch/connect4/executor/selfplay"
	"github.com/brensch/connect4/game"
	"github.com/brensch/connect4/logging"
	"github.com/brensch/connect4/store"
	tea "github.com/charmbracelet/bubbletea"
)

type model struct {
	stats       *selfplay.Stats
	gamesPlayed int
	redWins     int
	yellowWins  int
	draws       int
	routes      map[string]int
	moves       int64
	batches     int64
	startTime   time.Time
	recentGames []string
	updates     <-chan selfplay.Update
	done        bool
}

func initialModel(updates <-chan selfplay.Update, stats *selfplay.Stats) model {
	return model{
		stats:     stats,
		routes:    make(map[string]int),
		startTime: time.Now(),
		updates:   updates,
	}
}

type TickMsg time.Time

type runDoneMsg struct{}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Millisecond*100, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m model) Init() tea.Cmd {
	return tea.Batch(waitForUpdate(m.updates), tickCmd())
}

func waitForUpdate(updates <-chan selfplay.Update) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-updates
		if !ok {
			return runDoneMsg{}
		}
		return u
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case TickMsg:
		m.moves = m.stats.Moves.Load()
		m.batches = m.stats.Batches.Load()
		return m, tickCmd()
	case runDoneMsg:
		m.done = true
		return m, tea.Quit
	case selfplay.Update:
		m.gamesPlayed++
		switch msg.Result.Winner {
		case game.Red:
			m.redWins++
		case game.Yellow:
			m.yellowWins++
		default:
			m.draws++
		}
		for r, n := range msg.Routes {
			m.routes[r] += n
		}
		m.recentGames = append([]string{describe(msg)}, m.recentGames...)
		if len(m.recentGames) > 10 {
			m.recentGames = m.recentGames[:10]
		}
		return m, waitForUpdate(m.updates)
	}
	return m, nil
}

func (m model) View() string {
	duration := time.Since(m.startTime)
	gamesPerSec := float64(m.gamesPlayed) / duration.Seconds()
	movesPerSec := float64(m.moves) / duration.Seconds()
	if duration.Seconds() < 1 {
		gamesPerSec = 0
		movesPerSec = 0
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Games Played:   %d\n", m.gamesPlayed)
	fmt.Fprintf(&sb, "Red / Yellow / Draw: %d / %d / %d\n", m.redWins, m.yellowWins, m.draws)
	fmt.Fprintf(&sb, "Total Moves:    %d\n", m.moves)
	fmt.Fprintf(&sb, "Batches:        %d\n", m.batches)
	fmt.Fprintf(&sb, "Duration:       %s\n", duration.Round(time.Second))
	fmt.Fprintf(&sb, "Games/Sec:      %.2f\n", gamesPerSec)
	fmt.Fprintf(&sb, "Moves/Sec:      %.2f\n", movesPerSec)
	fmt.Fprintf(&sb, "Routes:         %s\n\n", formatRoutes(m.routes))

	sb.WriteString("Recent Games:\n")
	for _, g := range m.recentGames {
		sb.WriteString(g + "\n")
	}

	sb.WriteString("\nPress q to quit.\n")
	return sb.String()
}

func describe(u selfplay.Update) string {
	winner := "draw"
	if u.Result.Winner != game.Empty {
		winner = u.Result.Winner.String()
	}
	return fmt.Sprintf("Worker %d: Winner %s, Plies %d, %s", u.WorkerID, winner, u.Result.Plies, u.Result.Final.Compact())
}

func formatRoutes(routes map[string]int) string {
	order := []selector.Route{selector.RouteWin, selector.RouteBlock, selector.RouteMCTS, selector.RouteAlphaBeta, selector.RouteFallback}
	parts := make([]string, 0, len(order))
	for _, r := range order {
		parts = append(parts, fmt.Sprintf("%s=%d", r, routes[string(r)]))
	}
	return strings.Join(parts, " ")
}

func main() {
	configPath := flag.String("config", "", "Optional config file (yaml, json or toml)")
	outDir := flag.String("out-dir", "", "Output directory for parquet game batches (overrides config)")
	workers := flag.Int("workers", 0, "Number of self-play workers (overrides config)")
	games := flag.Int("games", -1, "Stop after this many games across all workers; 0 runs until interrupted (overrides config)")
	gamesPerFlush := flag.Int("games-per-flush", 0, "Number of games per parquet batch (overrides config)")
	budget := flag.Duration("budget", 0, "MCTS time budget per move (overrides config)")
	depth := flag.Int("depth", 0, "Alpha-beta depth (overrides config)")
	noTUI := flag.Bool("no-tui", false, "Log progress lines instead of running the terminal UI")
	logFile := flag.String("log-file", "selfplay.log", "Where logs go while the terminal UI is running")
	summarize := flag.Bool("summarize", false, "Print outcome totals for the batches already in out-dir and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *outDir != "" {
		cfg.SelfPlay.OutDir = *outDir
	}
	if *workers > 0 {
		cfg.SelfPlay.Workers = *workers
	}
	if *games >= 0 {
		cfg.SelfPlay.Games = *games
	}
	if *gamesPerFlush > 0 {
		cfg.SelfPlay.GamesPerFlush = *gamesPerFlush
	}
	if *budget > 0 {
		cfg.Engine.Budget = *budget
	}
	if *depth > 0 {
		cfg.Engine.Depth = *depth
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	if *summarize {
		if err := printSummary(os.Stdout, cfg.SelfPlay.OutDir); err != nil {
			log.Fatalf("summarize: %v", err)
		}
		return
	}

	var logOut io.Writer = os.Stderr
	if !*noTUI {
		f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			log.Fatalf("error opening log file: %v", err)
		}
		defer f.Close()
		logOut = f
	}
	logger, err := logging.New(logOut, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	slog.SetDefault(logger)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(sigCtx)
	defer cancel()

	runCfg := selfplay.Config{
		Workers: cfg.SelfPlay.Workers,
		Games:   cfg.SelfPlay.Games,
		Budget:  cfg.Engine.Budget,
		Selector: selector.Config{
			Depth:         cfg.Engine.Depth,
			MCTSThreshold: cfg.Engine.MCTSThreshold,
			Seed:          cfg.Engine.Seed,
		},
		Exploration:   cfg.Engine.Exploration,
		OutDir:        cfg.SelfPlay.OutDir,
		GamesPerFlush: cfg.SelfPlay.GamesPerFlush,
		Logger:        logger,
	}
	logger.Info("starting self-play",
		"workers", runCfg.Workers,
		"games", runCfg.Games,
		"budget", runCfg.Budget,
		"depth", runCfg.Selector.Depth,
		"out_dir", runCfg.OutDir,
	)

	var stats selfplay.Stats
	updates := make(chan selfplay.Update, runCfg.Workers)
	runErr := make(chan error, 1)
	go func() {
		err := selfplay.Run(ctx, runCfg, &stats, updates)
		close(updates)
		runErr <- err
	}()

	if *noTUI {
		logProgress(ctx, logger, &stats, updates)
	} else {
		p := tea.NewProgram(initialModel(updates, &stats), tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			logger.Error("tui", "error", err)
		}
		// Quitting the UI stops the run; drain so workers are not blocked.
		cancel()
		go func() {
			for range updates {
			}
		}()
	}

	if err := <-runErr; err != nil {
		log.Fatalf("self-play: %v", err)
	}
	logger.Info("self-play finished", "games", stats.Games.Load(), "moves", stats.Moves.Load(), "batches", stats.Batches.Load())
	fmt.Printf("games=%d moves=%d batches=%d\n", stats.Games.Load(), stats.Moves.Load(), stats.Batches.Load())
}

func logProgress(ctx context.Context, logger *slog.Logger, stats *selfplay.Stats, updates <-chan selfplay.Update) {
	startTime := time.Now()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("shutdown requested; waiting for workers to flush")
			for range updates {
			}
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			logger.Info(describe(u))
		case <-ticker.C:
			movesPerSec := float64(stats.Moves.Load()) / time.Since(startTime).Seconds()
			logger.Info("stats", "games", stats.Games.Load(), "moves_per_sec", movesPerSec, "batches", stats.Batches.Load())
		}
	}
}

func printSummary(w io.Writer, outDir string) error {
	m, err := store.OpenManifest(outDir)
	if err != nil {
		return err
	}
	defer m.Close()
	s, err := store.Summarize(m.Batches())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "batches=%d games=%d red=%d yellow=%d draws=%d avg_plies=%.1f\n",
		len(m.Batches()), s.Games, s.RedWins, s.YellowWins, s.Draws, s.AvgPlies())
	return err
}
