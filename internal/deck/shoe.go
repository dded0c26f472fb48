package deck

import rand "math/rand/v2"

// DeckSize is the number of cards in a fresh shoe. The table always plays
// from a single standard deck; there are no multi-deck shoes.
const DeckSize = 52

// Shoe is the drawable stack of cards for a table. Cards are drawn from the
// end; an exhausted shoe transparently replaces itself with a fresh shuffled
// deck, so Draw never fails.
type Shoe struct {
	cards []Card
	rng   *rand.Rand
}

// NewShoe creates a shuffled single-deck shoe using the provided RNG.
// The RNG is retained for reshuffles so a seeded shoe stays deterministic.
func NewShoe(rng *rand.Rand) *Shoe {
	s := &Shoe{
		cards: Fresh(),
		rng:   rng,
	}
	s.shuffle()
	return s
}

// Fresh returns a new unshuffled 52-card deck, all cards face up.
// Face up/down is assigned at deal time, not at creation.
func Fresh() []Card {
	cards := make([]Card, 0, DeckSize)
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Ace; rank <= King; rank++ {
			cards = append(cards, NewCard(suit, rank))
		}
	}
	return cards
}

// shuffle performs an in-place Fisher-Yates shuffle. Every permutation is
// equally likely, which the fairness tests depend on.
func (s *Shoe) shuffle() {
	for i := len(s.cards) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		s.cards[i], s.cards[j] = s.cards[j], s.cards[i]
	}
}

// Draw pops the last card of the shoe with the requested facing. If the shoe
// is empty it is replaced with a fresh shuffled deck first.
func (s *Shoe) Draw(faceUp bool) Card {
	if len(s.cards) == 0 {
		s.Reshuffle()
	}
	card := s.cards[len(s.cards)-1]
	s.cards = s.cards[:len(s.cards)-1]
	card.FaceUp = faceUp
	return card
}

// Reshuffle discards whatever remains and rebuilds a fresh shuffled deck.
func (s *Shoe) Reshuffle() {
	s.cards = Fresh()
	s.shuffle()
}

// Remaining returns the number of cards left in the shoe
func (s *Shoe) Remaining() int {
	return len(s.cards)
}

// Load replaces the shoe contents with the given cards, preserving order.
// The last card is the next draw. Used for deterministic tests.
func (s *Shoe) Load(cards []Card) {
	s.cards = make([]Card, len(cards))
	copy(s.cards, cards)
}
