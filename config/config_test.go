package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/brensch/connect4/game"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Engine.Depth != 6 {
		t.Errorf("depth=%d want 6", cfg.Engine.Depth)
	}
	if cfg.Engine.MCTSThreshold != 0.6 {
		t.Errorf("threshold=%v want 0.6", cfg.Engine.MCTSThreshold)
	}
	if cfg.Engine.Exploration != math.Sqrt2 {
		t.Errorf("exploration=%v want sqrt(2)", cfg.Engine.Exploration)
	}
	if cfg.Engine.Budget != 200*time.Millisecond {
		t.Errorf("budget=%v want 200ms", cfg.Engine.Budget)
	}
	if cfg.Log.Format != "pretty" || cfg.Log.Level != "info" {
		t.Errorf("log=%+v", cfg.Log)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "c4.yaml")
	data := `
engine:
  depth: 9
  budget: 1.5s
selfplay:
  workers: 2
  out_dir: /tmp/games
log:
  format: json
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Setenv("C4_ENGINE_DEPTH", "3")
	t.Setenv("C4_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Engine.Depth != 3 {
		t.Errorf("depth=%d want env value 3", cfg.Engine.Depth)
	}
	if cfg.Engine.Budget != 1500*time.Millisecond {
		t.Errorf("budget=%v want 1.5s", cfg.Engine.Budget)
	}
	if cfg.SelfPlay.Workers != 2 || cfg.SelfPlay.OutDir != "/tmp/games" {
		t.Errorf("selfplay=%+v", cfg.SelfPlay)
	}
	if cfg.SelfPlay.GamesPerFlush != 50 {
		t.Errorf("games_per_flush=%d want default 50", cfg.SelfPlay.GamesPerFlush)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log=%+v", cfg.Log)
	}
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("C4_ENGINE_DEPTH", "0")
	t.Setenv("C4_ENGINE_MCTS_THRESHOLD", "1.5")
	_, err := Load("")
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"engine.depth", "engine.mcts_threshold"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidate_DepthBoundIsGameLength(t *testing.T) {
	cfg := Default()
	cfg.Engine.Depth = game.Cells
	if err := cfg.Validate(); err != nil {
		t.Fatalf("depth %d rejected: %v", game.Cells, err)
	}
	cfg.Engine.Depth = game.Cells + 1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "engine.depth") {
		t.Fatalf("depth %d: err=%v want engine.depth error", game.Cells+1, err)
	}
}
