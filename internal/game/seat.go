package game

import "github.com/lox/blackjack/internal/deck"

// Status represents a seat's state within a round
type Status int

const (
	StatusPlaying Status = iota
	StatusStanding
	StatusBust
	StatusBlackjack
)

// String returns the string representation of a status
func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusStanding:
		return "standing"
	case StatusBust:
		return "bust"
	case StatusBlackjack:
		return "blackjack"
	default:
		return "unknown"
	}
}

// Result is a seat's settlement outcome. ResultNone outside of the results
// phase; set only during settlement and cleared at round start.
type Result int

const (
	ResultNone Result = iota
	ResultWin
	ResultLose
	ResultDraw
)

// String returns the string representation of a result
func (r Result) String() string {
	switch r {
	case ResultWin:
		return "win"
	case ResultLose:
		return "lose"
	case ResultDraw:
		return "draw"
	default:
		return "none"
	}
}

// Seat represents one position at the table. Exactly one seat has Dealer set
// and it always occupies the last index. Chips are used in betting mode,
// Points in points mode.
type Seat struct {
	Name   string
	Human  bool
	Dealer bool
	Hand   []deck.Card
	Chips  int
	Points float64
	Bet    int
	Status Status
	Result Result
}

// HasChips returns true if the seat still has chips to play with
func (s *Seat) HasChips() bool {
	return s.Chips > 0
}

// resetForRound clears per-round state. Chips and points persist.
func (s *Seat) resetForRound() {
	s.Hand = s.Hand[:0]
	s.Bet = 0
	s.Status = StatusPlaying
	s.Result = ResultNone
}
