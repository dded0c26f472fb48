package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/randutil"
)

func newBettingTable(t *testing.T, seats ...SeatType) *Table {
	t.Helper()
	cfgs := make([]SeatConfig, len(seats))
	for i, st := range seats {
		cfgs[i] = SeatConfig{Type: st}
	}
	table, err := NewTable(Config{
		Seats:        cfgs,
		Mode:         ModeBetting,
		RoundsTarget: 10,
	}, deck.NewShoe(randutil.New(1)))
	require.NoError(t, err)
	return table
}

func newPointsTable(t *testing.T, seats ...SeatType) *Table {
	t.Helper()
	cfgs := make([]SeatConfig, len(seats))
	for i, st := range seats {
		cfgs[i] = SeatConfig{Type: st}
	}
	table, err := NewTable(Config{
		Seats:        cfgs,
		Mode:         ModePoints,
		RoundsTarget: 10,
	}, deck.NewShoe(randutil.New(1)))
	require.NoError(t, err)
	return table
}

func TestNewTableLayout(t *testing.T) {
	table := newBettingTable(t, SeatHuman, SeatComputer, SeatHuman)

	require.Equal(t, 4, table.NumSeats())
	assert.Equal(t, 3, table.DealerIndex())
	assert.True(t, table.seats[3].Dealer, "dealer occupies the last seat")
	assert.Equal(t, []int{0, 2}, table.HumanIndices())
	assert.Equal(t, PhaseSetup, table.Phase())

	for _, s := range table.seats {
		assert.Equal(t, DefaultStartingChips, s.Chips)
	}
	assert.Equal(t, "Player 1", table.seats[0].Name)
	assert.Equal(t, "CPU 2", table.seats[1].Name)
	assert.Equal(t, "Dealer", table.seats[3].Name)
}

func TestNewTableRejectsBadConfigs(t *testing.T) {
	shoe := deck.NewShoe(randutil.New(1))

	_, err := NewTable(Config{Mode: ModeBetting, RoundsTarget: 5}, shoe)
	assert.Error(t, err, "no seats")

	tooMany := make([]SeatConfig, MaxSeats+1)
	_, err = NewTable(Config{Seats: tooMany, Mode: ModeBetting, RoundsTarget: 5}, shoe)
	assert.Error(t, err, "too many seats")

	_, err = NewTable(Config{Seats: []SeatConfig{{Type: SeatHuman}}, RoundsTarget: 0}, shoe)
	assert.Error(t, err, "zero rounds target")
}

func TestStartRoundPhaseByMode(t *testing.T) {
	betting := newBettingTable(t, SeatHuman)
	betting.StartRound()
	assert.Equal(t, PhaseBetting, betting.Phase())
	assert.Equal(t, 1, betting.Round())

	points := newPointsTable(t, SeatHuman)
	points.StartRound()
	assert.Equal(t, PhaseDealing, points.Phase(), "points mode skips betting")
}

func TestStartRoundReshufflesLowShoe(t *testing.T) {
	table := newPointsTable(t, SeatHuman)
	for i := 0; i < deck.DeckSize-14; i++ {
		table.shoe.Draw(true)
	}
	require.Equal(t, 14, table.shoe.Remaining())

	table.StartRound()
	assert.Equal(t, deck.DeckSize, table.shoe.Remaining(), "shoe under 15 cards reshuffles at round start")
}

func TestStartRoundKeepsHealthyShoe(t *testing.T) {
	table := newPointsTable(t, SeatHuman)
	for i := 0; i < deck.DeckSize-15; i++ {
		table.shoe.Draw(true)
	}
	require.Equal(t, 15, table.shoe.Remaining())

	table.StartRound()
	assert.Equal(t, 15, table.shoe.Remaining())
}

func TestPlaceBetValidation(t *testing.T) {
	table := newBettingTable(t, SeatHuman, SeatComputer)

	err := table.PlaceBet(0, 50)
	assert.Error(t, err, "cannot bet before the betting phase")

	table.StartRound()

	assert.Error(t, table.PlaceBet(0, 0), "zero bet")
	assert.Error(t, table.PlaceBet(0, -10), "negative bet")
	assert.Error(t, table.PlaceBet(0, DefaultStartingChips+1), "bet above chips")
	assert.Error(t, table.PlaceBet(table.DealerIndex(), 50), "dealer cannot bet")
	assert.Zero(t, table.seats[0].Bet, "rejected bets leave no trace")

	require.NoError(t, table.PlaceBet(0, 50))
	assert.Equal(t, 50, table.seats[0].Bet)
	assert.Equal(t, DefaultStartingChips, table.seats[0].Chips, "chips move at settlement, not at bet time")
}

func TestDealTargetsExcludesBrokeSeats(t *testing.T) {
	table := newBettingTable(t, SeatHuman, SeatComputer, SeatComputer)
	table.seats[1].Chips = 0

	assert.Equal(t, []int{0, 2, 3}, table.DealTargets())

	points := newPointsTable(t, SeatHuman, SeatComputer)
	assert.Equal(t, []int{0, 1, 2}, points.DealTargets(), "points mode seats never sit out")
}

func TestFlagNaturals(t *testing.T) {
	table := newPointsTable(t, SeatHuman, SeatComputer)
	table.StartRound()

	table.seats[0].Hand = deck.MustParseCards("AsKh")
	table.seats[1].Hand = deck.MustParseCards("Ts9h")
	table.seats[2].Hand = deck.MustParseCards("AdQc") // dealer

	table.FlagNaturals()

	assert.Equal(t, StatusBlackjack, table.seats[0].Status)
	assert.Equal(t, StatusPlaying, table.seats[1].Status)
	assert.Equal(t, StatusPlaying, table.seats[2].Status, "dealer naturals are checked in the dealer turn")
}

func TestTurnOrderSkipsIneligibleSeats(t *testing.T) {
	table := newBettingTable(t, SeatHuman, SeatComputer, SeatComputer, SeatComputer)
	table.StartRound()

	table.seats[1].Chips = 0
	table.seats[2].Status = StatusBlackjack
	table.seats[3].Status = StatusBust

	assert.Equal(t, []int{0}, table.TurnOrder())
}

func TestHitTransitions(t *testing.T) {
	table := newPointsTable(t, SeatHuman)
	table.StartRound()

	t.Run("stays playing below 21", func(t *testing.T) {
		table.seats[0].Hand = deck.MustParseCards("5s6h")
		table.seats[0].Status = StatusPlaying
		table.shoe.Load(deck.MustParseCards("2c"))
		assert.Equal(t, HitOK, table.Hit(0))
		assert.Equal(t, StatusPlaying, table.seats[0].Status)
	})

	t.Run("stops at exactly 21", func(t *testing.T) {
		table.seats[0].Hand = deck.MustParseCards("Ts6h")
		table.seats[0].Status = StatusPlaying
		table.shoe.Load(deck.MustParseCards("5c"))
		assert.Equal(t, HitTwentyOne, table.Hit(0))
		assert.Equal(t, StatusStanding, table.seats[0].Status, "a seat reaching 21 never hits again")
	})

	t.Run("busts above 21", func(t *testing.T) {
		table.seats[0].Hand = deck.MustParseCards("Ts9h5c")
		table.seats[0].Status = StatusPlaying
		table.shoe.Load(deck.MustParseCards("Kd"))
		assert.Equal(t, HitBust, table.Hit(0))
		assert.Equal(t, StatusBust, table.seats[0].Status)
		assert.Equal(t, 34, Score(table.seats[0].Hand), "bust scores are preserved, not clamped")
	})
}

func TestRevealDealerAndUpCard(t *testing.T) {
	table := newPointsTable(t, SeatHuman)
	table.StartRound()
	dealer := table.DealerIndex()

	table.seats[dealer].Hand = deck.MustParseCards("Ks7h")
	table.seats[dealer].Hand[1].FaceUp = false

	up, ok := table.DealerUpCard()
	require.True(t, ok)
	assert.Equal(t, deck.King, up.Rank)

	table.RevealDealer()
	for _, c := range table.seats[dealer].Hand {
		assert.True(t, c.FaceUp)
	}
}

func TestSettlementMatrix(t *testing.T) {
	tests := []struct {
		name         string
		seatHand     string
		seatStatus   Status
		dealerHand   string
		dealerStatus Status
		want         Result
	}{
		{"bust always loses", "Ts9h5c", StatusBust, "Ts9h", StatusStanding, ResultLose},
		{"bust loses even to dealer bust", "Ts9h5c", StatusBust, "TsKh5d", StatusStanding, ResultLose},
		{"dealer bust pays", "Ts8h", StatusStanding, "TsKh5d", StatusStanding, ResultWin},
		{"natural beats dealer 21", "AsKh", StatusBlackjack, "7s7h7d", StatusStanding, ResultWin},
		{"dealer natural beats 21", "7s7h7d", StatusStanding, "AsKh", StatusBlackjack, ResultLose},
		{"both naturals push", "AsKh", StatusBlackjack, "AdQc", StatusBlackjack, ResultDraw},
		{"higher score wins", "Ts9h", StatusStanding, "Ts8h", StatusStanding, ResultWin},
		{"lower score loses", "Ts7h", StatusStanding, "Ts8h", StatusStanding, ResultLose},
		{"equal scores push", "Ts8h", StatusStanding, "Js8d", StatusStanding, ResultDraw},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := newBettingTable(t, SeatHuman)
			table.StartRound()
			require.NoError(t, table.PlaceBet(0, 50))
			table.BeginDealing()

			table.seats[0].Hand = deck.MustParseCards(tt.seatHand)
			table.seats[0].Status = tt.seatStatus
			table.seats[1].Hand = deck.MustParseCards(tt.dealerHand)
			table.seats[1].Status = tt.dealerStatus

			table.Settle()

			assert.Equal(t, tt.want, table.seats[0].Result)
			assert.Equal(t, PhaseResults, table.Phase())
		})
	}
}

func TestSettlementPayouts(t *testing.T) {
	t.Run("plain win pays one to one", func(t *testing.T) {
		table := newBettingTable(t, SeatHuman)
		table.StartRound()
		require.NoError(t, table.PlaceBet(0, 50))
		table.seats[0].Hand = deck.MustParseCards("Ts9h")
		table.seats[0].Status = StatusStanding
		table.seats[1].Hand = deck.MustParseCards("Ts8h")
		table.seats[1].Status = StatusStanding

		table.Settle()

		assert.Equal(t, DefaultStartingChips+50, table.seats[0].Chips)
		assert.Equal(t, DefaultStartingChips-50, table.seats[1].Chips)
	})

	t.Run("natural pays three to two floored", func(t *testing.T) {
		table := newBettingTable(t, SeatHuman)
		table.StartRound()
		require.NoError(t, table.PlaceBet(0, 50))
		table.seats[0].Hand = deck.MustParseCards("AsKh")
		table.seats[0].Status = StatusBlackjack
		table.seats[1].Hand = deck.MustParseCards("Ts8h")
		table.seats[1].Status = StatusStanding

		table.Settle()

		assert.Equal(t, DefaultStartingChips+75, table.seats[0].Chips)
		assert.Equal(t, DefaultStartingChips-75, table.seats[1].Chips)
	})

	t.Run("odd natural bet floors the half chip", func(t *testing.T) {
		table := newBettingTable(t, SeatHuman)
		table.StartRound()
		require.NoError(t, table.PlaceBet(0, 25))
		table.seats[0].Hand = deck.MustParseCards("AsKh")
		table.seats[0].Status = StatusBlackjack
		table.seats[1].Hand = deck.MustParseCards("Ts8h")
		table.seats[1].Status = StatusStanding

		table.Settle()

		assert.Equal(t, DefaultStartingChips+37, table.seats[0].Chips)
		assert.Equal(t, DefaultStartingChips-37, table.seats[1].Chips)
	})

	t.Run("loss moves the bet to the dealer", func(t *testing.T) {
		table := newBettingTable(t, SeatHuman)
		table.StartRound()
		require.NoError(t, table.PlaceBet(0, 100))
		table.seats[0].Hand = deck.MustParseCards("Ts6h")
		table.seats[0].Status = StatusStanding
		table.seats[1].Hand = deck.MustParseCards("Ts9h")
		table.seats[1].Status = StatusStanding

		table.Settle()

		assert.Equal(t, DefaultStartingChips-100, table.seats[0].Chips)
		assert.Equal(t, DefaultStartingChips+100, table.seats[1].Chips)
	})

	t.Run("draw moves nothing", func(t *testing.T) {
		table := newBettingTable(t, SeatHuman)
		table.StartRound()
		require.NoError(t, table.PlaceBet(0, 100))
		table.seats[0].Hand = deck.MustParseCards("Ts9h")
		table.seats[0].Status = StatusStanding
		table.seats[1].Hand = deck.MustParseCards("Js9d")
		table.seats[1].Status = StatusStanding

		table.Settle()

		assert.Equal(t, DefaultStartingChips, table.seats[0].Chips)
		assert.Equal(t, DefaultStartingChips, table.seats[1].Chips)
	})
}

func TestChipConservation(t *testing.T) {
	scenarios := []struct {
		name   string
		setup  func(*Table)
		before int
	}{
		{
			name: "mixed results",
			setup: func(table *Table) {
				table.seats[0].Hand = deck.MustParseCards("AsKh")
				table.seats[0].Status = StatusBlackjack
				table.seats[1].Hand = deck.MustParseCards("Ts9h5c")
				table.seats[1].Status = StatusBust
				table.seats[2].Hand = deck.MustParseCards("Ts8h")
				table.seats[2].Status = StatusStanding
				table.seats[3].Hand = deck.MustParseCards("Ts7h")
				table.seats[3].Status = StatusStanding
			},
		},
		{
			name: "dealer busts",
			setup: func(table *Table) {
				table.seats[0].Hand = deck.MustParseCards("Ts5h")
				table.seats[0].Status = StatusStanding
				table.seats[1].Hand = deck.MustParseCards("Ts6h")
				table.seats[1].Status = StatusStanding
				table.seats[2].Hand = deck.MustParseCards("Ts4h")
				table.seats[2].Status = StatusStanding
				table.seats[3].Hand = deck.MustParseCards("Ts9h5c")
				table.seats[3].Status = StatusStanding
			},
		},
	}

	for _, tt := range scenarios {
		t.Run(tt.name, func(t *testing.T) {
			table := newBettingTable(t, SeatHuman, SeatComputer, SeatComputer)
			table.StartRound()
			require.NoError(t, table.PlaceBet(0, 50))
			require.NoError(t, table.PlaceBet(1, 25))
			require.NoError(t, table.PlaceBet(2, 100))

			before := table.TotalChips()
			tt.setup(table)
			table.Settle()

			assert.Equal(t, before, table.TotalChips(), "settlement must conserve the table's chips")
		})
	}
}

func TestAllBustSkipsDealerPlay(t *testing.T) {
	table := newBettingTable(t, SeatHuman, SeatComputer)
	table.StartRound()
	require.NoError(t, table.PlaceBet(0, 50))
	require.NoError(t, table.PlaceBet(1, 25))

	table.seats[0].Hand = deck.MustParseCards("Ts9h5c")
	table.seats[0].Status = StatusBust
	table.seats[1].Hand = deck.MustParseCards("Ts8h9c")
	table.seats[1].Status = StatusBust
	dealer := table.DealerIndex()
	table.seats[dealer].Hand = deck.MustParseCards("Ks7h")
	table.seats[dealer].Hand[1].FaceUp = false

	require.True(t, table.AllNonDealersBust())

	table.BeginDealerTurn()
	table.SkipDealerPlay()
	table.Settle()

	snap := table.Snapshot()
	assert.True(t, snap.HoleCardSkipped)
	assert.False(t, table.seats[dealer].Hand[1].FaceUp, "hole card stays face down with no audience")
	assert.Equal(t, ResultLose, table.seats[0].Result)
	assert.Equal(t, ResultLose, table.seats[1].Result)
}

func TestPointsModeSettlement(t *testing.T) {
	table := newPointsTable(t, SeatHuman, SeatComputer, SeatComputer)
	table.StartRound()

	table.seats[0].Hand = deck.MustParseCards("Ts9h")
	table.seats[0].Status = StatusStanding
	table.seats[1].Hand = deck.MustParseCards("Ts7h")
	table.seats[1].Status = StatusStanding
	table.seats[2].Hand = deck.MustParseCards("Ts8h")
	table.seats[2].Status = StatusStanding
	table.seats[3].Hand = deck.MustParseCards("Js8d")
	table.seats[3].Status = StatusStanding

	table.Settle()

	assert.Equal(t, 1.0, table.seats[0].Points, "win is +1")
	assert.Equal(t, -1.0, table.seats[1].Points, "loss is -1")
	assert.Equal(t, 0.5, table.seats[2].Points, "draw is +0.5")
	assert.Zero(t, table.seats[3].Points, "the dealer accrues no points")
}

func TestSettlementSkipsSeatsWithoutCards(t *testing.T) {
	table := newBettingTable(t, SeatHuman, SeatComputer)
	table.StartRound()
	require.NoError(t, table.PlaceBet(0, 50))
	table.seats[1].Chips = 0 // broke seat was never dealt

	table.seats[0].Hand = deck.MustParseCards("Ts9h")
	table.seats[0].Status = StatusStanding
	table.seats[2].Hand = deck.MustParseCards("Ts8h")
	table.seats[2].Status = StatusStanding

	table.Settle()

	assert.Equal(t, ResultNone, table.seats[1].Result)
	assert.Zero(t, table.seats[1].Chips)
}

func TestGameOver(t *testing.T) {
	t.Run("rounds target reached", func(t *testing.T) {
		table := newPointsTable(t, SeatHuman)
		for i := 0; i < 10; i++ {
			table.StartRound()
		}
		assert.True(t, table.GameOver())
	})

	t.Run("all humans broke ends a betting game", func(t *testing.T) {
		table := newBettingTable(t, SeatHuman, SeatComputer)
		table.StartRound()
		table.seats[0].Chips = 0
		assert.True(t, table.GameOver())
	})

	t.Run("broke computers do not end the game", func(t *testing.T) {
		table := newBettingTable(t, SeatHuman, SeatComputer)
		table.StartRound()
		table.seats[1].Chips = 0
		assert.False(t, table.GameOver())
	})

	t.Run("all computer betting table plays to the target", func(t *testing.T) {
		table := newBettingTable(t, SeatComputer, SeatComputer)
		table.StartRound()
		assert.False(t, table.GameOver(), "the bankruptcy clause needs at least one human seat")
	})
}

func TestReset(t *testing.T) {
	table := newBettingTable(t, SeatHuman)
	table.StartRound()
	require.NoError(t, table.PlaceBet(0, 100))
	table.seats[0].Hand = deck.MustParseCards("Ts6h")
	table.seats[0].Status = StatusStanding
	table.seats[1].Hand = deck.MustParseCards("Ts9h")
	table.seats[1].Status = StatusStanding
	table.Settle()
	require.Equal(t, DefaultStartingChips-100, table.seats[0].Chips)

	table.Reset()

	assert.Equal(t, 0, table.Round())
	assert.Equal(t, PhaseSetup, table.Phase())
	assert.Equal(t, DefaultStartingChips, table.seats[0].Chips)
	assert.Empty(t, table.seats[0].Hand)
	assert.Equal(t, deck.DeckSize, table.shoe.Remaining())
}

func TestSnapshotScores(t *testing.T) {
	table := newPointsTable(t, SeatHuman)
	table.StartRound()
	dealer := table.DealerIndex()

	table.seats[dealer].Hand = deck.MustParseCards("Ks7h")
	table.seats[dealer].Hand[1].FaceUp = false
	table.SetCurrentTurn(0)

	snap := table.Snapshot()
	assert.Equal(t, 0, snap.CurrentTurn)
	assert.Equal(t, 17, snap.Seats[dealer].Score)
	assert.Equal(t, 10, snap.Seats[dealer].VisibleScore, "renderers use VisibleScore for the dealer")
	assert.False(t, snap.Seats[dealer].Cards[1].FaceUp)
}
