package main

import (
	"fmt"
	"time"

	"github.com/lox/blackjack/cmd/blackjack/shared"
	"github.com/lox/blackjack/internal/server"
)

// ServeCmd hosts a table over WebSocket for remote human players
type ServeCmd struct {
	Config string `kong:"default='blackjack.hcl',help='Path to HCL configuration file'"`
	Addr   string `kong:"help='Listen address, overrides the config file (host:port)'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
}

func (c *ServeCmd) Run() error {
	logger := shared.SetupLogger(c.Debug)

	cfg, err := server.LoadServerConfig(c.Config)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
		logger.Info("Using random seed", "seed", seed)
	}

	gameService, err := server.NewGameService(cfg.GameConfig(), seed, logger)
	if err != nil {
		return fmt.Errorf("failed to create game service: %w", err)
	}

	addr := c.Addr
	if addr == "" {
		addr = cfg.GetServerAddress()
	}

	logger.Info("Hosting table",
		"addr", addr,
		"mode", cfg.Game.Mode,
		"rounds", cfg.Game.Rounds,
		"seats", len(cfg.Game.Seats))

	srv := server.NewServer(addr, gameService, logger)
	return srv.Start()
}
