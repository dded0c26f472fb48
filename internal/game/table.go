package game

import (
	"fmt"

	"github.com/lox/blackjack/internal/deck"
)

// shuffleThreshold is the remaining-card count below which the shoe is
// proactively reshuffled at round start.
const shuffleThreshold = 15

// HitOutcome describes what a hit did to a seat
type HitOutcome int

const (
	HitOK HitOutcome = iota
	HitTwentyOne
	HitBust
)

// Table is the authoritative state of one blackjack table: the shoe, the
// seats, the phase and the round counters. It is mutated only through the
// round-engine operations below; concurrent readers take a Snapshot.
type Table struct {
	cfg          Config
	shoe         *deck.Shoe
	seats        []*Seat
	phase        Phase
	round        int
	dealerIndex  int
	humanIndices []int
	currentTurn  int
	holeSkipped  bool
}

// NewTable creates a table from a config. Seats are created in configured
// order with the dealer appended last; this layout is fixed for the life of
// the game.
func NewTable(cfg Config, shoe *deck.Shoe) (*Table, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid table config: %w", err)
	}
	cfg = cfg.withDefaults()

	chips := 0
	if cfg.Mode == ModeBetting {
		chips = cfg.StartingChips
	}

	seats := make([]*Seat, 0, len(cfg.Seats)+1)
	humanIndices := make([]int, 0, len(cfg.Seats))

	for i, sc := range cfg.Seats {
		name := sc.Name
		if name == "" {
			if sc.Type == SeatHuman {
				name = fmt.Sprintf("Player %d", i+1)
			} else {
				name = fmt.Sprintf("CPU %d", i+1)
			}
		}
		if sc.Type == SeatHuman {
			humanIndices = append(humanIndices, i)
		}
		seats = append(seats, &Seat{
			Name:   name,
			Human:  sc.Type == SeatHuman,
			Chips:  chips,
			Points: cfg.StartingPoints,
			Status: StatusPlaying,
		})
	}

	// Dealer always takes the last seat
	seats = append(seats, &Seat{
		Name:   "Dealer",
		Dealer: true,
		Chips:  chips,
		Status: StatusPlaying,
	})

	return &Table{
		cfg:          cfg,
		shoe:         shoe,
		seats:        seats,
		phase:        PhaseSetup,
		dealerIndex:  len(seats) - 1,
		humanIndices: humanIndices,
		currentTurn:  -1,
	}, nil
}

// StartRound advances to the next round: clears hands, bets, statuses and
// results, reshuffles a low shoe and enters the betting phase (or dealing,
// in points mode). Chips and points persist across rounds.
func (t *Table) StartRound() {
	t.round++
	t.holeSkipped = false
	t.currentTurn = -1

	for _, s := range t.seats {
		s.resetForRound()
	}

	if t.shoe.Remaining() < shuffleThreshold {
		t.shoe.Reshuffle()
	}

	if t.cfg.Mode == ModeBetting {
		t.phase = PhaseBetting
	} else {
		t.phase = PhaseDealing
	}
}

// PlaceBet records a bet for a non-dealer seat during the betting phase.
// Bets of zero or less, or beyond the seat's chips, are rejected with no
// state change.
func (t *Table) PlaceBet(seat, amount int) error {
	if t.phase != PhaseBetting {
		return fmt.Errorf("cannot bet during %s phase", t.phase)
	}
	if seat < 0 || seat >= t.dealerIndex {
		return fmt.Errorf("invalid betting seat %d", seat)
	}
	s := t.seats[seat]
	if amount <= 0 {
		return fmt.Errorf("bet must be positive, got %d", amount)
	}
	if amount > s.Chips {
		return fmt.Errorf("bet %d exceeds chips %d", amount, s.Chips)
	}
	s.Bet = amount
	return nil
}

// BeginDealing moves the table into the dealing phase
func (t *Table) BeginDealing() {
	t.phase = PhaseDealing
}

// DealTargets returns the seats eligible to receive cards this round, in
// table order with the dealer last. In betting mode a seat with no chips
// sits the round out.
func (t *Table) DealTargets() []int {
	targets := make([]int, 0, len(t.seats))
	for i, s := range t.seats {
		if !s.Dealer && t.cfg.Mode == ModeBetting && !s.HasChips() {
			continue
		}
		targets = append(targets, i)
	}
	return targets
}

// DealCard draws one card from the shoe into a seat's hand
func (t *Table) DealCard(seat int, faceUp bool) deck.Card {
	card := t.shoe.Draw(faceUp)
	t.seats[seat].Hand = append(t.seats[seat].Hand, card)
	return card
}

// FlagNaturals marks every non-dealer seat holding a two-card 21 as a
// natural blackjack. Called once after the initial deal.
func (t *Table) FlagNaturals() {
	for i, s := range t.seats {
		if i == t.dealerIndex {
			continue
		}
		if t.cfg.Mode == ModeBetting && !s.HasChips() {
			continue
		}
		if IsNatural(s.Hand) {
			s.Status = StatusBlackjack
		}
	}
}

// BeginPlayerTurns moves the table into the player-turn phase
func (t *Table) BeginPlayerTurns() {
	t.phase = PhasePlayerTurn
}

// TurnOrder returns the non-dealer seats that still owe a decision, in
// table order. Seats that are out of chips, already blackjack or already
// bust are skipped.
func (t *Table) TurnOrder() []int {
	order := make([]int, 0, t.dealerIndex)
	for i, s := range t.seats {
		if i == t.dealerIndex {
			continue
		}
		if t.cfg.Mode == ModeBetting && !s.HasChips() {
			continue
		}
		if s.Status == StatusBlackjack || s.Status == StatusBust {
			continue
		}
		order = append(order, i)
	}
	return order
}

// SetCurrentTurn marks which seat is acting; -1 means none
func (t *Table) SetCurrentTurn(seat int) {
	t.currentTurn = seat
}

// Hit deals a face-up card to a seat and applies the status transition:
// above 21 busts, exactly 21 stands automatically. A seat that hits to 21
// never acts again this round, even though it technically could.
func (t *Table) Hit(seat int) HitOutcome {
	s := t.seats[seat]
	t.DealCard(seat, true)
	score := Score(s.Hand)
	if score > 21 {
		s.Status = StatusBust
		return HitBust
	}
	if score == 21 {
		s.Status = StatusStanding
		return HitTwentyOne
	}
	return HitOK
}

// Stand marks a seat as standing
func (t *Table) Stand(seat int) {
	t.seats[seat].Status = StatusStanding
}

// BeginDealerTurn moves the table into the dealer-turn phase
func (t *Table) BeginDealerTurn() {
	t.phase = PhaseDealerTurn
	t.currentTurn = t.dealerIndex
}

// AllNonDealersBust reports whether every seat dealt in this round busted.
// When true the dealer has no audience and never plays its hand.
func (t *Table) AllNonDealersBust() bool {
	for i, s := range t.seats {
		if i == t.dealerIndex {
			continue
		}
		if t.cfg.Mode == ModeBetting && !s.HasChips() {
			continue
		}
		if s.Status != StatusBust {
			return false
		}
	}
	return true
}

// SkipDealerPlay records that the dealer's turn was skipped with the hole
// card left face down.
func (t *Table) SkipDealerPlay() {
	t.holeSkipped = true
}

// RevealDealer flips every dealer card face up
func (t *Table) RevealDealer() {
	for i := range t.seats[t.dealerIndex].Hand {
		t.seats[t.dealerIndex].Hand[i].FaceUp = true
	}
}

// CheckDealerNatural flags and reports a dealer two-card 21
func (t *Table) CheckDealerNatural() bool {
	dealer := t.seats[t.dealerIndex]
	if IsNatural(dealer.Hand) {
		dealer.Status = StatusBlackjack
		return true
	}
	return false
}

// DealerUpCard returns the dealer's visible card during the player turns
func (t *Table) DealerUpCard() (deck.Card, bool) {
	for _, c := range t.seats[t.dealerIndex].Hand {
		if c.FaceUp {
			return c, true
		}
	}
	return deck.Card{}, false
}

// Settle computes every seat's result and moves chips or points, then enters
// the results phase. In betting mode a win pays the bet at 1:1, or
// floor(bet*1.5) for a natural blackjack, funded symmetrically from the
// dealer pool so the table's total chips never change.
func (t *Table) Settle() {
	dealer := t.seats[t.dealerIndex]
	dealerScore := Score(dealer.Hand)

	if dealerScore > 21 {
		dealer.Status = StatusBust
	}

	for i, s := range t.seats {
		if i == t.dealerIndex {
			continue
		}
		// Seats that sat the round out have nothing to settle
		if t.cfg.Mode == ModeBetting && !s.HasChips() && len(s.Hand) == 0 {
			continue
		}

		score := Score(s.Hand)

		switch {
		case s.Status == StatusBust:
			s.Result = ResultLose
		case dealer.Status == StatusBust:
			s.Result = ResultWin
		case s.Status == StatusBlackjack && dealer.Status != StatusBlackjack:
			s.Result = ResultWin
		case dealer.Status == StatusBlackjack && s.Status != StatusBlackjack:
			s.Result = ResultLose
		case score > dealerScore:
			s.Result = ResultWin
		case score < dealerScore:
			s.Result = ResultLose
		default:
			s.Result = ResultDraw
		}
	}

	for i, s := range t.seats {
		if i == t.dealerIndex {
			continue
		}
		if t.cfg.Mode == ModeBetting {
			switch s.Result {
			case ResultWin:
				payout := s.Bet
				if s.Status == StatusBlackjack {
					payout = s.Bet * 3 / 2
				}
				s.Chips += payout
				dealer.Chips -= payout
			case ResultLose:
				s.Chips -= s.Bet
				dealer.Chips += s.Bet
			}
		} else {
			switch s.Result {
			case ResultWin:
				s.Points += 1
			case ResultLose:
				s.Points -= 1
			case ResultDraw:
				s.Points += 0.5
			}
		}
	}

	t.currentTurn = -1
	t.phase = PhaseResults
}

// Reset returns the table to its initial setup state: fresh bankrolls,
// empty hands, round zero, reshuffled shoe. Used by restart.
func (t *Table) Reset() {
	chips := 0
	if t.cfg.Mode == ModeBetting {
		chips = t.cfg.StartingChips
	}
	for _, s := range t.seats {
		s.resetForRound()
		s.Chips = chips
		if s.Dealer {
			s.Points = 0
		} else {
			s.Points = t.cfg.StartingPoints
		}
	}
	t.round = 0
	t.phase = PhaseSetup
	t.holeSkipped = false
	t.currentTurn = -1
	t.shoe.Reshuffle()
}

// GameOver reports whether the game has ended: the rounds target was
// reached, or in betting mode every human seat is broke. Computer seats
// going broke never end the game on their own.
func (t *Table) GameOver() bool {
	if t.round >= t.cfg.RoundsTarget {
		return true
	}
	if t.cfg.Mode == ModeBetting && len(t.humanIndices) > 0 {
		for _, i := range t.humanIndices {
			if t.seats[i].HasChips() {
				return false
			}
		}
		return true
	}
	return false
}

// TotalChips sums chips across all seats, dealer included. Constant across
// any settlement in betting mode.
func (t *Table) TotalChips() int {
	total := 0
	for _, s := range t.seats {
		total += s.Chips
	}
	return total
}

// Phase returns the current phase
func (t *Table) Phase() Phase {
	return t.phase
}

// Round returns the current round number, starting at 1
func (t *Table) Round() int {
	return t.round
}

// Mode returns the table's scoring mode
func (t *Table) Mode() Mode {
	return t.cfg.Mode
}

// CurrentTurn returns the acting seat index, or -1 outside of turns
func (t *Table) CurrentTurn() int {
	return t.currentTurn
}

// DealerIndex returns the dealer's seat index (always the last)
func (t *Table) DealerIndex() int {
	return t.dealerIndex
}

// HumanIndices returns the indices of the human seats
func (t *Table) HumanIndices() []int {
	out := make([]int, len(t.humanIndices))
	copy(out, t.humanIndices)
	return out
}

// NumSeats returns the total seat count including the dealer
func (t *Table) NumSeats() int {
	return len(t.seats)
}
