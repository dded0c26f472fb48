package deck

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/randutil"
)

func TestFreshDeckHas52UniqueCards(t *testing.T) {
	cards := Fresh()
	require.Len(t, cards, DeckSize)

	seen := make(map[[2]int]bool)
	for _, c := range cards {
		key := [2]int{int(c.Suit), int(c.Rank)}
		assert.False(t, seen[key], "duplicate card %s", c)
		seen[key] = true
		assert.True(t, c.FaceUp, "fresh cards default to face up")
	}
	assert.Len(t, seen, DeckSize)
}

func TestShoeDrawShrinksByOne(t *testing.T) {
	shoe := NewShoe(randutil.New(1))
	for i := DeckSize; i > 0; i-- {
		require.Equal(t, i, shoe.Remaining())
		shoe.Draw(true)
	}
	require.Equal(t, 0, shoe.Remaining())
}

func TestShoeDrawSetsFacing(t *testing.T) {
	shoe := NewShoe(randutil.New(1))
	up := shoe.Draw(true)
	assert.True(t, up.FaceUp)
	down := shoe.Draw(false)
	assert.False(t, down.FaceUp)
}

func TestShoeReshufflesOnExhaustion(t *testing.T) {
	shoe := NewShoe(randutil.New(42))
	for i := 0; i < DeckSize; i++ {
		shoe.Draw(true)
	}
	require.Equal(t, 0, shoe.Remaining())

	// Draw never fails: the empty shoe replaces itself first
	card := shoe.Draw(true)
	assert.NotZero(t, card.Rank)
	assert.Equal(t, DeckSize-1, shoe.Remaining())
}

func TestShoeSeededDeterminism(t *testing.T) {
	a := NewShoe(randutil.New(7))
	b := NewShoe(randutil.New(7))
	for i := 0; i < DeckSize; i++ {
		ca, cb := a.Draw(true), b.Draw(true)
		require.Equal(t, ca, cb, "seeded shoes must agree at draw %d", i)
	}
}

func TestShoeLoad(t *testing.T) {
	shoe := NewShoe(randutil.New(1))
	shoe.Load(MustParseCards("AsKh2c"))
	require.Equal(t, 3, shoe.Remaining())

	// Last card loaded is the next draw
	assert.Equal(t, Two, shoe.Draw(true).Rank)
	assert.Equal(t, King, shoe.Draw(true).Rank)
	assert.Equal(t, Ace, shoe.Draw(true).Rank)
}

// TestShuffleFairness runs a chi-square check on where a fixed card lands
// across many shuffles. With 52 positions and 5200 trials the expected count
// per position is 100. The seed is fixed, so this is deterministic; the
// bound is the ~99.9th percentile for 51 degrees of freedom.
func TestShuffleFairness(t *testing.T) {
	const trials = 5200
	positions := make([]int, DeckSize)
	rng := randutil.New(99)

	for i := 0; i < trials; i++ {
		shoe := &Shoe{cards: Fresh(), rng: rng}
		shoe.shuffle()
		for pos, c := range shoe.cards {
			if c.Suit == Spades && c.Rank == Ace {
				positions[pos]++
				break
			}
		}
	}

	expected := float64(trials) / float64(DeckSize)
	chi2 := 0.0
	for _, count := range positions {
		diff := float64(count) - expected
		chi2 += diff * diff / expected
	}

	// 99.9th percentile of chi-square with 51 dof is ~87.97
	assert.Less(t, chi2, 88.0, "ace of spades positions look non-uniform: chi2=%f", chi2)
}
