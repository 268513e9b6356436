// Package config loads engine, self-play and logging settings from defaults,
// an optional file and C4_-prefixed environment variables, in rising order of
// precedence.
package config

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/brensch/connect4/game"
	"github.com/spf13/viper"
)

const EnvPrefix = "C4"

type Config struct {
	Engine   EngineConfig   `mapstructure:"engine"`
	SelfPlay SelfPlayConfig `mapstructure:"selfplay"`
	Log      LogConfig      `mapstructure:"log"`
}

type EngineConfig struct {
	// Depth is the alpha-beta search depth in plies.
	Depth int `mapstructure:"depth"`
	// MCTSThreshold is the empty-cell fraction above which MCTS is used.
	MCTSThreshold float64       `mapstructure:"mcts_threshold"`
	Exploration   float64       `mapstructure:"exploration"`
	Budget        time.Duration `mapstructure:"budget"`
	Seed          int64         `mapstructure:"seed"`
}

type SelfPlayConfig struct {
	Workers       int    `mapstructure:"workers"`
	Games         int    `mapstructure:"games"`
	GamesPerFlush int    `mapstructure:"games_per_flush"`
	OutDir        string `mapstructure:"out_dir"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.depth", 6)
	v.SetDefault("engine.mcts_threshold", 0.6)
	v.SetDefault("engine.exploration", math.Sqrt2)
	v.SetDefault("engine.budget", 200*time.Millisecond)
	v.SetDefault("engine.seed", 1)

	v.SetDefault("selfplay.workers", 4)
	v.SetDefault("selfplay.games", 100)
	v.SetDefault("selfplay.games_per_flush", 50)
	v.SetDefault("selfplay.out_dir", "data/selfplay")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "pretty")
}

// Default returns the built-in settings.
func Default() *Config {
	cfg, err := Load("")
	if err != nil {
		// Defaults alone always decode and validate.
		panic(err)
	}
	return cfg
}

// Load reads path when it is non-empty. Environment variables such as
// C4_ENGINE_DEPTH override both the file and the defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Engine.Depth < 1 || c.Engine.Depth > game.Cells {
		errs = append(errs, fmt.Errorf("engine.depth %d outside [1, %d]", c.Engine.Depth, game.Cells))
	}
	if c.Engine.MCTSThreshold < 0 || c.Engine.MCTSThreshold > 1 {
		errs = append(errs, fmt.Errorf("engine.mcts_threshold %v outside [0, 1]", c.Engine.MCTSThreshold))
	}
	if c.Engine.Exploration <= 0 {
		errs = append(errs, fmt.Errorf("engine.exploration must be positive"))
	}
	if c.Engine.Budget < 0 {
		errs = append(errs, fmt.Errorf("engine.budget must not be negative"))
	}
	if c.SelfPlay.Workers < 1 {
		errs = append(errs, fmt.Errorf("selfplay.workers must be at least 1"))
	}
	if c.SelfPlay.Games < 0 {
		errs = append(errs, fmt.Errorf("selfplay.games must not be negative"))
	}
	if c.SelfPlay.GamesPerFlush < 1 {
		errs = append(errs, fmt.Errorf("selfplay.games_per_flush must be at least 1"))
	}
	return errors.Join(errs...)
}
