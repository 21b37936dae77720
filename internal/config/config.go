// Package config loads the arena server settings from a YAML file, an
// optional .env file and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/coindelisi66/token-hunger-arena/internal/arena"
	"github.com/coindelisi66/token-hunger-arena/internal/game"
	"github.com/coindelisi66/token-hunger-arena/internal/scheduler"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Arena   ArenaConfig   `yaml:"arena"`
	Limits  LimitsConfig  `yaml:"limits"`
	Storage StorageConfig `yaml:"storage"`
	Auth    AuthConfig    `yaml:"auth"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	HTTPPort   string `yaml:"http_port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// ArenaConfig holds the game rules. Second and elimination intervals are in
// milliseconds so that demos can run a whole game in a minute.
// FeeBasisPoints is a pointer so that an explicit 0 (no fee) is kept.
type ArenaConfig struct {
	Supply                int64  `yaml:"supply"`
	FeeBasisPoints        *int64 `yaml:"fee_basis_points"`
	TradeSeconds          int    `yaml:"trade_seconds"`
	BurnSeconds           int    `yaml:"burn_seconds"`
	SecondMillis          int    `yaml:"second_ms"`
	EliminationIntervalMS int    `yaml:"elimination_interval_ms"`
}

type LimitsConfig struct {
	SwapsPerSecond float64 `yaml:"swaps_per_second"`
	SwapBurst      int     `yaml:"swap_burst"`
}

type StorageConfig struct {
	DSN string `yaml:"dsn"` // SQLite path; empty disables the journal
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

// Load reads the YAML file at path, then applies .env and environment
// overrides and fills defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("config.Load: read %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config.Load: parse YAML: %w", err)
			}
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	setDefaults(&cfg)
	return &cfg, nil
}

// Game converts the arena section into the game host configuration.
func (c *Config) Game() game.Config {
	fee := int64(arena.DefaultFeeBasisPoints)
	if c.Arena.FeeBasisPoints != nil {
		fee = *c.Arena.FeeBasisPoints
	}
	return game.Config{
		Arena: arena.Config{
			Supply:         c.Arena.Supply,
			FeeBasisPoints: fee,
			TradeSeconds:   c.Arena.TradeSeconds,
			BurnSeconds:    c.Arena.BurnSeconds,
		},
		Scheduler: scheduler.Config{
			Second:              time.Duration(c.Arena.SecondMillis) * time.Millisecond,
			EliminationInterval: time.Duration(c.Arena.EliminationIntervalMS) * time.Millisecond,
		},
	}
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.HTTPPort = v
	}
	if v := os.Getenv("CORS_ORIGIN"); v != "" {
		cfg.Server.CORSOrigin = v
	}
	if v := os.Getenv("ARENA_DB"); v != "" {
		cfg.Storage.DSN = v
	}
	if v := os.Getenv("ADMIN_JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("ARENA_TRADE_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ARENA_TRADE_SECONDS: %w", err)
		}
		cfg.Arena.TradeSeconds = n
	}
	if v := os.Getenv("ARENA_BURN_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ARENA_BURN_SECONDS: %w", err)
		}
		cfg.Arena.BurnSeconds = n
	}
	return nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.HTTPPort == "" {
		cfg.Server.HTTPPort = "4000"
	}
	if cfg.Server.CORSOrigin == "" {
		cfg.Server.CORSOrigin = "*"
	}
	if cfg.Arena.Supply <= 0 {
		cfg.Arena.Supply = arena.DefaultSupply
	}
	if cfg.Arena.FeeBasisPoints == nil || *cfg.Arena.FeeBasisPoints < 0 {
		fee := int64(arena.DefaultFeeBasisPoints)
		cfg.Arena.FeeBasisPoints = &fee
	}
	if cfg.Arena.TradeSeconds <= 0 {
		cfg.Arena.TradeSeconds = arena.DefaultTradeSeconds
	}
	if cfg.Arena.BurnSeconds <= 0 {
		cfg.Arena.BurnSeconds = arena.DefaultBurnSeconds
	}
	if cfg.Arena.SecondMillis <= 0 {
		cfg.Arena.SecondMillis = int(scheduler.DefaultSecond / time.Millisecond)
	}
	if cfg.Arena.EliminationIntervalMS <= 0 {
		cfg.Arena.EliminationIntervalMS = int(scheduler.DefaultEliminationInterval / time.Millisecond)
	}
	if cfg.Limits.SwapsPerSecond <= 0 {
		cfg.Limits.SwapsPerSecond = 20
	}
	if cfg.Limits.SwapBurst <= 0 {
		cfg.Limits.SwapBurst = 10
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "token-hunger-arena"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}
