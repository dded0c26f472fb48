package main

import (
	"fmt"
	"time"

	"github.com/lox/blackjack/cmd/blackjack/shared"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/simulator"
)

// SimulateCmd runs computer-only games without a UI and prints statistics
type SimulateCmd struct {
	Games   int    `kong:"default='1000',help='Number of games to simulate'"`
	Rounds  int    `kong:"default='10',help='Rounds per game'"`
	Seats   int    `kong:"default='3',help='Computer seats per table'"`
	Mode    string `kong:"default='betting',enum='betting,points',help='Scoring mode (betting or points)'"`
	Seed    int64  `kong:"default='0',help='RNG seed (0 for random)'"`
	Timeout int    `kong:"default='30',help='Per-game timeout in seconds'"`
	Verbose bool   `kong:"short='V',help='Verbose logging'"`
}

func (c *SimulateCmd) Run() error {
	logger := shared.SetupLogger(c.Verbose)

	mode, err := parseMode(c.Mode)
	if err != nil {
		return err
	}
	if c.Seats < 1 || c.Seats > game.MaxSeats {
		return fmt.Errorf("seat count must be between 1 and %d, got %d", game.MaxSeats, c.Seats)
	}

	seed := c.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	logger.Info("Starting simulation",
		"games", c.Games,
		"rounds", c.Rounds,
		"seats", c.Seats,
		"mode", mode.String(),
		"seed", seed)

	start := time.Now()
	stats, err := simulator.RunSimulation(c.Games, c.Rounds, c.Seats, mode, seed,
		time.Duration(c.Timeout)*time.Second, logger)
	if err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}
	logger.Info("Simulation complete", "elapsed", time.Since(start))

	simulator.PrintSummary(stats)
	return nil
}
