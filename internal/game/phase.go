package game

// Phase represents the stage a round is in. Transitions are strictly
// sequential: setup -> betting|dealing -> dealing -> playerTurn ->
// dealerTurn -> results. Betting only exists in betting mode.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseBetting
	PhaseDealing
	PhasePlayerTurn
	PhaseDealerTurn
	PhaseResults
)

// String returns the string representation of a phase
func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseBetting:
		return "betting"
	case PhaseDealing:
		return "dealing"
	case PhasePlayerTurn:
		return "playerTurn"
	case PhaseDealerTurn:
		return "dealerTurn"
	case PhaseResults:
		return "results"
	default:
		return "unknown"
	}
}

// Mode is the scoring economy a table runs under. In betting mode seats
// wager chips against the dealer pool; in points mode wins and losses move a
// per-seat score and chips are unused.
type Mode int

const (
	ModeBetting Mode = iota
	ModePoints
)

// String returns the string representation of a mode
func (m Mode) String() string {
	switch m {
	case ModeBetting:
		return "betting"
	case ModePoints:
		return "points"
	default:
		return "unknown"
	}
}
