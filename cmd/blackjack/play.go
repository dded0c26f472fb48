package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/cmd/blackjack/shared"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/tui"
)

// PlayCmd runs an interactive single-player game against computer seats
type PlayCmd struct {
	Computers int    `kong:"default='2',help='Number of computer opponents'"`
	Mode      string `kong:"default='betting',enum='betting,points',help='Scoring mode (betting or points)'"`
	Rounds    int    `kong:"default='10',help='Rounds to play before final standings'"`
	Chips     int    `kong:"default='1000',help='Starting chips per seat (betting mode)'"`
	Seed      *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	Debug     bool   `kong:"help='Enable debug logging'"`
	LogFile   string `kong:"default='blackjack.log',help='Log file for the interactive session'"`
}

func (c *PlayCmd) Run() error {
	// The TUI owns stderr while running, so log to a file
	logger, logFile, err := shared.SetupFileLogger(c.LogFile, c.Debug)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() {
		if err := logFile.Close(); err != nil {
			log.Error("Failed to close log file", "error", err)
		}
	}()

	mode, err := parseMode(c.Mode)
	if err != nil {
		return err
	}
	if c.Computers < 0 || c.Computers > game.MaxSeats-1 {
		return fmt.Errorf("computer count must be between 0 and %d, got %d", game.MaxSeats-1, c.Computers)
	}

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("Using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
		logger.Info("Using random seed", "seed", seed)
	}

	seats := []game.SeatConfig{{Type: game.SeatHuman, Name: "You"}}
	for i := 0; i < c.Computers; i++ {
		seats = append(seats, game.SeatConfig{Type: game.SeatComputer})
	}

	cfg := game.Config{
		Seats:         seats,
		Mode:          mode,
		RoundsTarget:  c.Rounds,
		StartingChips: c.Chips,
	}

	table, err := game.NewTable(cfg, deck.NewShoe(randutil.New(seed)))
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	policy := game.NewPolicy(randutil.New(seed + 1))
	orch := game.NewOrchestrator(table, policy, logger)

	ctx := shared.SetupSignalHandlerWithLogger(logger)

	logger.Info("Starting interactive game",
		"mode", mode.String(),
		"computers", c.Computers,
		"rounds", c.Rounds)

	return tui.Run(ctx, orch, logger)
}

func parseMode(s string) (game.Mode, error) {
	switch s {
	case "betting":
		return game.ModeBetting, nil
	case "points":
		return game.ModePoints, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want betting or points)", s)
	}
}
