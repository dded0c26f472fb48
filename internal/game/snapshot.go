package game

import "github.com/lox/blackjack/internal/deck"

// SeatView is the read-only projection of a seat. Hidden cards are included
// with FaceUp=false; it is the renderer's job to not show their faces, and
// VisibleScore is provided so partial dealer totals never leak the hole card.
type SeatView struct {
	Index        int         `json:"index"`
	Name         string      `json:"name"`
	Human        bool        `json:"human"`
	Dealer       bool        `json:"dealer"`
	Cards        []deck.Card `json:"cards"`
	Score        int         `json:"score"`
	VisibleScore int         `json:"visibleScore"`
	Soft         bool        `json:"soft"`
	Chips        int         `json:"chips"`
	Points       float64     `json:"points"`
	Bet          int         `json:"bet"`
	Status       string      `json:"status"`
	Result       string      `json:"result"`
}

// Snapshot is an immutable copy of the table state for renderers and remote
// observers. Taking a snapshot never blocks the engine.
type Snapshot struct {
	Phase           string     `json:"phase"`
	Mode            string     `json:"mode"`
	Round           int        `json:"round"`
	RoundsTarget    int        `json:"roundsTarget"`
	DealerIndex     int        `json:"dealerIndex"`
	CurrentTurn     int        `json:"currentTurn"`
	ShoeRemaining   int        `json:"shoeRemaining"`
	HoleCardSkipped bool       `json:"holeCardSkipped"`
	GameOver        bool       `json:"gameOver"`
	Seats           []SeatView `json:"seats"`
}

// Snapshot returns a deep copy of the observable table state
func (t *Table) Snapshot() Snapshot {
	seats := make([]SeatView, len(t.seats))
	for i, s := range t.seats {
		cards := make([]deck.Card, len(s.Hand))
		copy(cards, s.Hand)
		seats[i] = SeatView{
			Index:        i,
			Name:         s.Name,
			Human:        s.Human,
			Dealer:       s.Dealer,
			Cards:        cards,
			Score:        Score(s.Hand),
			VisibleScore: VisibleScore(s.Hand),
			Soft:         IsSoft(s.Hand),
			Chips:        s.Chips,
			Points:       s.Points,
			Bet:          s.Bet,
			Status:       s.Status.String(),
			Result:       s.Result.String(),
		}
	}
	return Snapshot{
		Phase:           t.phase.String(),
		Mode:            t.cfg.Mode.String(),
		Round:           t.round,
		RoundsTarget:    t.cfg.RoundsTarget,
		DealerIndex:     t.dealerIndex,
		CurrentTurn:     t.currentTurn,
		ShoeRemaining:   t.shoe.Remaining(),
		HoleCardSkipped: t.holeSkipped,
		GameOver:        t.GameOver(),
		Seats:           seats,
	}
}
