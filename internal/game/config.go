package game

import "fmt"

const (
	// MaxSeats is the maximum number of non-dealer seats at a table
	MaxSeats = 6

	// DefaultStartingChips is the betting-mode bankroll each seat begins with
	DefaultStartingChips = 1000
)

// SeatType identifies who controls a non-dealer seat
type SeatType int

const (
	SeatHuman SeatType = iota
	SeatComputer
)

// String returns the string representation of a seat type
func (t SeatType) String() string {
	switch t {
	case SeatHuman:
		return "human"
	case SeatComputer:
		return "computer"
	default:
		return "unknown"
	}
}

// SeatConfig configures one non-dealer seat
type SeatConfig struct {
	Type SeatType
	Name string // optional, defaults to "Player N" / "CPU N"
}

// Config describes a table. It is fixed at table creation; seat count, mode
// and rounds target cannot change mid-game.
type Config struct {
	Seats          []SeatConfig
	Mode           Mode
	RoundsTarget   int
	StartingChips  int     // betting mode, defaults to DefaultStartingChips
	StartingPoints float64 // points mode
}

// Validate checks the configuration for structural problems
func (c Config) Validate() error {
	if len(c.Seats) < 1 || len(c.Seats) > MaxSeats {
		return fmt.Errorf("seat count must be between 1 and %d, got %d", MaxSeats, len(c.Seats))
	}
	if c.RoundsTarget <= 0 {
		return fmt.Errorf("rounds target must be positive, got %d", c.RoundsTarget)
	}
	if c.Mode == ModeBetting && c.StartingChips < 0 {
		return fmt.Errorf("starting chips must not be negative, got %d", c.StartingChips)
	}
	return nil
}

// withDefaults returns a copy with defaults applied for unset values
func (c Config) withDefaults() Config {
	if c.Mode == ModeBetting && c.StartingChips == 0 {
		c.StartingChips = DefaultStartingChips
	}
	return c
}
