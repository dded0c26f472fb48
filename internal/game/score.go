package game

import "github.com/lox/blackjack/internal/deck"

// CardValue returns the blackjack value of a card: Aces count 11 (reducible
// by the scorer), face cards count 10, everything else counts its rank.
func CardValue(c deck.Card) int {
	if c.IsAce() {
		return 11
	}
	if c.IsFaceCard() {
		return 10
	}
	return int(c.Rank)
}

// Score returns the best blackjack total for a hand. Aces start at 11 and
// are reduced to 1 one at a time while the total exceeds 21. Bust totals
// above 21 are returned as-is, never clamped.
func Score(hand []deck.Card) int {
	score, _ := scoreWithAces(hand, false)
	return score
}

// VisibleScore scores only the face-up cards of a hand. Used to present the
// dealer's partial total without leaking the hole card.
func VisibleScore(hand []deck.Card) int {
	score, _ := scoreWithAces(hand, true)
	return score
}

// IsSoft returns true if at least one Ace is still counted as 11 after
// reduction and the hand has not busted.
func IsSoft(hand []deck.Card) bool {
	score, elevens := scoreWithAces(hand, false)
	return elevens > 0 && score <= 21
}

// IsNatural returns true for a two-card 21 dealt at round start.
func IsNatural(hand []deck.Card) bool {
	return len(hand) == 2 && Score(hand) == 21
}

// scoreWithAces runs the soft-ace reduction and reports how many Aces are
// still being counted as 11. Each Ace is reduced at most once.
func scoreWithAces(hand []deck.Card, visibleOnly bool) (score, elevens int) {
	for _, c := range hand {
		if visibleOnly && !c.FaceUp {
			continue
		}
		score += CardValue(c)
		if c.IsAce() {
			elevens++
		}
	}
	for score > 21 && elevens > 0 {
		score -= 10
		elevens--
	}
	return score, elevens
}
