package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/lox/blackjack/internal/game"
)

// ServerConfig represents the complete server configuration
type ServerConfig struct {
	Server ServerSettings `hcl:"server,block"`
	Game   GameSettings   `hcl:"game,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address  string `hcl:"address,optional"`
	Port     int    `hcl:"port,optional"`
	LogLevel string `hcl:"log_level,optional"`
	LogFile  string `hcl:"log_file,optional"`
}

// GameSettings defines the hosted table's configuration
type GameSettings struct {
	Mode          string      `hcl:"mode,optional"`
	Rounds        int         `hcl:"rounds,optional"`
	StartingChips int         `hcl:"starting_chips,optional"`
	Seats         []SeatBlock `hcl:"seat,block"`
}

// SeatBlock defines one non-dealer seat
type SeatBlock struct {
	Type string `hcl:"type,label"` // "human" or "computer"
	Name string `hcl:"name,optional"`
}

// DefaultServerConfig returns default server configuration
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Server: ServerSettings{
			Address:  "localhost",
			Port:     8080,
			LogLevel: "info",
			LogFile:  "blackjack-server.log",
		},
		Game: GameSettings{
			Mode:   "betting",
			Rounds: 10,
			Seats: []SeatBlock{
				{Type: "human"},
				{Type: "computer"},
				{Type: "computer"},
			},
		},
	}
}

// LoadServerConfig loads server configuration from an HCL file. A missing
// file yields the defaults.
func LoadServerConfig(filename string) (*ServerConfig, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultServerConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config ServerConfig
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if config.Server.Address == "" {
		config.Server.Address = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = "info"
	}
	if config.Server.LogFile == "" {
		config.Server.LogFile = "blackjack-server.log"
	}
	if config.Game.Mode == "" {
		config.Game.Mode = "betting"
	}
	if config.Game.Rounds == 0 {
		config.Game.Rounds = 10
	}
	if len(config.Game.Seats) == 0 {
		config.Game.Seats = DefaultServerConfig().Game.Seats
	}

	return &config, nil
}

// Validate validates the server configuration
func (c *ServerConfig) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if c.Game.Mode != "betting" && c.Game.Mode != "points" {
		return fmt.Errorf("invalid mode %q, want betting or points", c.Game.Mode)
	}
	if c.Game.Rounds < 1 {
		return fmt.Errorf("rounds must be positive, got %d", c.Game.Rounds)
	}
	if len(c.Game.Seats) < 1 || len(c.Game.Seats) > game.MaxSeats {
		return fmt.Errorf("seat count must be between 1 and %d, got %d", game.MaxSeats, len(c.Game.Seats))
	}
	for _, seat := range c.Game.Seats {
		if seat.Type != "human" && seat.Type != "computer" {
			return fmt.Errorf("invalid seat type %q, want human or computer", seat.Type)
		}
	}
	if c.Game.StartingChips < 0 {
		return fmt.Errorf("starting chips must not be negative, got %d", c.Game.StartingChips)
	}
	return nil
}

// GameConfig converts the settings into a table configuration
func (c *ServerConfig) GameConfig() game.Config {
	mode := game.ModeBetting
	if c.Game.Mode == "points" {
		mode = game.ModePoints
	}

	seats := make([]game.SeatConfig, len(c.Game.Seats))
	for i, seat := range c.Game.Seats {
		st := game.SeatComputer
		if seat.Type == "human" {
			st = game.SeatHuman
		}
		seats[i] = game.SeatConfig{Type: st, Name: seat.Name}
	}

	return game.Config{
		Seats:         seats,
		Mode:          mode,
		RoundsTarget:  c.Game.Rounds,
		StartingChips: c.Game.StartingChips,
	}
}

// GetServerAddress returns the full server address
func (c *ServerConfig) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}
