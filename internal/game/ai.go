package game

import (
	rand "math/rand/v2"

	"github.com/lox/blackjack/internal/deck"
)

// Action is a hit/stand decision
type Action int

const (
	ActionHit Action = iota
	ActionStand
)

// String returns the string representation of an action
func (a Action) String() string {
	switch a {
	case ActionHit:
		return "hit"
	case ActionStand:
		return "stand"
	default:
		return "unknown"
	}
}

// betSteps are the chip denominations a computer seat bets with
var betSteps = [...]int{10, 25, 50, 100}

// DealerDecision is the house rule for the dealer: hit on 16 or less, stand
// on 17 or more, soft or hard. Deterministic.
func DealerDecision(score int) Action {
	if score <= 16 {
		return ActionHit
	}
	return ActionStand
}

// Policy makes decisions for computer-controlled seats. All randomness comes
// from the injected RNG, so a seeded policy is fully reproducible.
type Policy struct {
	rng *rand.Rand
}

// NewPolicy creates a policy backed by the given RNG
func NewPolicy(rng *rand.Rand) *Policy {
	return &Policy{rng: rng}
}

// PlayerDecision applies a simplified basic strategy with a dash of
// randomness. The rules are evaluated in strict order:
//
//  1. stand on 19+
//  2. hit on 11 or less
//  3. soft 17-18 hits 30% of the time
//  4. otherwise branch on the dealer's visible up card: against a weak card
//     (2-6) lean towards standing, against a strong card (7-A) lean towards
//     hitting.
func (p *Policy) PlayerDecision(hand []deck.Card, score int, dealerUpCard deck.Card) Action {
	if score >= 19 {
		return ActionStand
	}
	if score <= 11 {
		return ActionHit
	}

	if IsSoft(hand) && score >= 17 && score <= 18 {
		return p.chance(0.30, ActionHit, ActionStand)
	}

	dealerValue := CardValue(dealerUpCard)

	if dealerValue >= 2 && dealerValue <= 6 {
		if score >= 17 {
			return ActionStand
		}
		if score >= 13 {
			return p.chance(0.20, ActionHit, ActionStand)
		}
		// score is exactly 12: coin flip
		return p.chance(0.50, ActionHit, ActionStand)
	}

	// Dealer shows 7 through 10 or an Ace
	if score <= 16 {
		return p.chance(0.15, ActionStand, ActionHit)
	}
	// score 17-18 against a strong card
	return p.chance(0.25, ActionHit, ActionStand)
}

// GenerateBet picks a bet for a computer seat: uniformly from the standard
// denominations that fit the bankroll, or all-in when even the smallest
// denomination is unaffordable.
func (p *Policy) GenerateBet(chips int) int {
	affordable := make([]int, 0, len(betSteps))
	for _, amount := range betSteps {
		if amount <= chips {
			affordable = append(affordable, amount)
		}
	}
	if len(affordable) == 0 {
		return chips
	}
	return affordable[p.rng.IntN(len(affordable))]
}

func (p *Policy) chance(prob float64, hit, miss Action) Action {
	if p.rng.Float64() < prob {
		return hit
	}
	return miss
}
