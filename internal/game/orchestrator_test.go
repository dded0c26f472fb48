package game

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/randutil"
)

// eventRecorder collects published events for later inspection. Publication
// can come from concurrent bet-collection goroutines, so access is locked.
type eventRecorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *eventRecorder) OnEvent(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]EventType, len(r.events))
	for i, e := range r.events {
		types[i] = e.EventType()
	}
	return types
}

func (r *eventRecorder) count(et EventType) int {
	n := 0
	for _, t := range r.types() {
		if t == et {
			n++
		}
	}
	return n
}

func testLogger() *log.Logger {
	return log.New(io.Discard)
}

func newOrchestrator(t *testing.T, cfg Config, seed int64, opts ...Option) (*Orchestrator, *eventRecorder) {
	t.Helper()
	table, err := NewTable(cfg, deck.NewShoe(randutil.New(seed)))
	require.NoError(t, err)

	rec := &eventRecorder{}
	opts = append([]Option{WithDelays(Delays{}), WithAutoAdvance(true)}, opts...)
	o := NewOrchestrator(table, NewPolicy(randutil.New(seed+1)), testLogger(), opts...)
	o.Bus().Subscribe(rec)
	return o, rec
}

// loadHumanSeventeen stacks the shoe so a lone human seat is dealt a hard 17
// against a dealer 14, leaving the round parked on the human's turn. Enough
// filler is included to stay above the reshuffle threshold.
func loadHumanSeventeen(o *Orchestrator) {
	o.table.shoe.Load(deck.MustParseCards("2c3c4c5c6c7c8c9cTcJcQcKc2d3d" + "5dTh9s7h"))
}

func runAsync(o *Orchestrator) chan error {
	done := make(chan error, 1)
	go func() {
		done <- o.Run(context.Background())
	}()
	return done
}

// pumpHuman repeatedly offers a fixed bet and a stand for the given seat
// until the run finishes, covering rounds where the seat holds a natural and
// never gets a turn.
func pumpHuman(t *testing.T, o *Orchestrator, done chan error, seat int) error {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case err := <-done:
			return err
		case <-deadline:
			t.Fatal("game did not finish")
		default:
			_ = o.SubmitBet(seat, 50)
			_ = o.SubmitAction(seat, ActionStand)
			time.Sleep(time.Millisecond)
		}
	}
}

func TestOrchestratorAllComputerPointsGame(t *testing.T) {
	o, rec := newOrchestrator(t, Config{
		Seats:        []SeatConfig{{Type: SeatComputer}, {Type: SeatComputer}, {Type: SeatComputer}},
		Mode:         ModePoints,
		RoundsTarget: 5,
	}, 7)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, o.Run(ctx))

	snap := o.Snapshot()
	assert.True(t, snap.GameOver)
	assert.Equal(t, 5, snap.Round)

	assert.Equal(t, 5, rec.count(EventTypeRoundStart))
	assert.Equal(t, 5, rec.count(EventTypeRoundSettled))
	assert.Equal(t, 1, rec.count(EventTypeGameOver))
	assert.Zero(t, rec.count(EventTypeBetsOpen), "points mode never opens betting")
	assert.GreaterOrEqual(t, rec.count(EventTypeCardDealt), 5*8, "two cards per seat per round at minimum")
}

func TestOrchestratorAllComputerBettingGame(t *testing.T) {
	o, rec := newOrchestrator(t, Config{
		Seats:        []SeatConfig{{Type: SeatComputer}, {Type: SeatComputer}},
		Mode:         ModeBetting,
		RoundsTarget: 20,
	}, 11)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Run's own conservation check fails the round if chips leak, so a nil
	// return proves twenty settlements balanced.
	require.NoError(t, o.Run(ctx))

	snap := o.Snapshot()
	total := 0
	for _, s := range snap.Seats {
		total += s.Chips
	}
	assert.Equal(t, 3*DefaultStartingChips, total)
	assert.GreaterOrEqual(t, rec.count(EventTypeBetPlaced), 1)
}

func TestOrchestratorHumanBettingGame(t *testing.T) {
	o, rec := newOrchestrator(t, Config{
		Seats:        []SeatConfig{{Type: SeatHuman}, {Type: SeatComputer}},
		Mode:         ModeBetting,
		RoundsTarget: 3,
	}, 13)

	done := runAsync(o)
	require.NoError(t, pumpHuman(t, o, done, 0))

	snap := o.Snapshot()
	assert.True(t, snap.GameOver)
	assert.Equal(t, 3, snap.Round)
	assert.Equal(t, 3, rec.count(EventTypeBetsOpen))
	assert.GreaterOrEqual(t, rec.count(EventTypeBetPlaced), 6, "one human and one computer bet per round")
}

func TestOrchestratorRejectsStrayInputs(t *testing.T) {
	o, _ := newOrchestrator(t, Config{
		Seats:        []SeatConfig{{Type: SeatHuman}},
		Mode:         ModeBetting,
		RoundsTarget: 1,
	}, 17)

	assert.Error(t, o.SubmitBet(0, 50), "no run in progress")
	assert.Error(t, o.SubmitAction(0, ActionHit), "no active turn")

	loadHumanSeventeen(o)
	done := runAsync(o)

	require.Eventually(t, func() bool {
		return o.SubmitBet(0, 50) == nil
	}, 5*time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		snap := o.Snapshot()
		return snap.Phase == "playerTurn" && snap.CurrentTurn == 0
	}, 5*time.Second, time.Millisecond)

	assert.Error(t, o.SubmitBet(0, 50), "betting is closed")
	assert.Error(t, o.SubmitAction(1, ActionHit), "dealer seat is not submittable")

	require.NoError(t, o.SubmitAction(0, ActionStand))
	require.NoError(t, <-done)
}

func TestOrchestratorBadBetKeepsSeatWaiting(t *testing.T) {
	o, _ := newOrchestrator(t, Config{
		Seats:        []SeatConfig{{Type: SeatHuman}},
		Mode:         ModeBetting,
		RoundsTarget: 1,
	}, 19)

	loadHumanSeventeen(o)
	done := runAsync(o)

	require.Eventually(t, func() bool {
		return o.Snapshot().Phase == "betting"
	}, 5*time.Second, time.Millisecond)

	assert.Error(t, o.SubmitBet(0, 0))
	assert.Error(t, o.SubmitBet(0, DefaultStartingChips+1))
	assert.Equal(t, "betting", o.Snapshot().Phase, "rejected bets leave the seat suspended")

	require.Eventually(t, func() bool {
		return o.SubmitBet(0, 50) == nil
	}, 5*time.Second, time.Millisecond)

	require.Eventually(t, func() bool {
		snap := o.Snapshot()
		return snap.Phase == "playerTurn" && snap.CurrentTurn == 0
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, o.SubmitAction(0, ActionStand))
	require.NoError(t, <-done)
}

func TestOrchestratorPauseResume(t *testing.T) {
	o, rec := newOrchestrator(t, Config{
		Seats:        []SeatConfig{{Type: SeatHuman}},
		Mode:         ModePoints,
		RoundsTarget: 1,
	}, 23)

	assert.False(t, o.Paused())
	o.Pause()
	assert.False(t, o.Paused(), "pause is a no-op before the run starts")

	loadHumanSeventeen(o)
	done := runAsync(o)

	require.Eventually(t, func() bool {
		snap := o.Snapshot()
		return snap.Phase == "playerTurn" && snap.CurrentTurn == 0
	}, 5*time.Second, time.Millisecond)

	o.Pause()
	assert.True(t, o.Paused())
	o.Pause() // second pause is a no-op
	assert.Equal(t, 1, rec.count(EventTypePaused))

	o.Resume()
	assert.False(t, o.Paused())
	assert.Equal(t, 1, rec.count(EventTypeResumed))

	require.NoError(t, o.SubmitAction(0, ActionStand))
	require.NoError(t, <-done)
}

func TestOrchestratorQuit(t *testing.T) {
	o, _ := newOrchestrator(t, Config{
		Seats:        []SeatConfig{{Type: SeatHuman}},
		Mode:         ModePoints,
		RoundsTarget: 5,
	}, 29)

	loadHumanSeventeen(o)
	done := runAsync(o)

	require.Eventually(t, func() bool {
		snap := o.Snapshot()
		return snap.Phase == "playerTurn" && snap.CurrentTurn == 0
	}, 5*time.Second, time.Millisecond)

	o.Quit()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQuit)
	case <-time.After(5 * time.Second):
		t.Fatal("quit did not stop the run")
	}
	assert.False(t, o.Paused(), "teardown reopens the pause gate")
}

func TestOrchestratorQuitReleasesPausedRun(t *testing.T) {
	o, _ := newOrchestrator(t, Config{
		Seats:        []SeatConfig{{Type: SeatComputer}},
		Mode:         ModePoints,
		RoundsTarget: 100,
	}, 31, WithDelays(Delays{Decision: time.Millisecond}))

	done := runAsync(o)

	require.Eventually(t, func() bool {
		if o.Snapshot().Phase != "playerTurn" && o.Snapshot().Phase != "dealing" {
			return false
		}
		o.Pause()
		return o.Paused()
	}, 5*time.Second, time.Millisecond)

	o.Quit()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrQuit)
	case <-time.After(5 * time.Second):
		t.Fatal("quit did not release the paused run")
	}
}

func TestOrchestratorRestart(t *testing.T) {
	o, _ := newOrchestrator(t, Config{
		Seats:        []SeatConfig{{Type: SeatHuman}},
		Mode:         ModeBetting,
		RoundsTarget: 5,
	}, 37)

	loadHumanSeventeen(o)
	done := runAsync(o)

	require.Eventually(t, func() bool {
		return o.SubmitBet(0, 100) == nil
	}, 5*time.Second, time.Millisecond)

	o.Restart()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrRestart)
	case <-time.After(5 * time.Second):
		t.Fatal("restart did not stop the run")
	}

	snap := o.Snapshot()
	assert.Equal(t, "setup", snap.Phase)
	assert.Equal(t, 0, snap.Round)
	for _, s := range snap.Seats {
		assert.Equal(t, DefaultStartingChips, s.Chips)
		assert.Empty(t, s.Cards)
		assert.Zero(t, s.Bet)
	}

	// The same orchestrator runs the fresh game.
	done = runAsync(o)
	require.Eventually(t, func() bool {
		return o.Snapshot().Round == 1
	}, 5*time.Second, time.Millisecond)
	o.Quit()
	assert.ErrorIs(t, <-done, ErrQuit)
}

func TestOrchestratorNextRoundGatesRounds(t *testing.T) {
	o, _ := newOrchestrator(t, Config{
		Seats:        []SeatConfig{{Type: SeatComputer}},
		Mode:         ModePoints,
		RoundsTarget: 2,
	}, 41, WithAutoAdvance(false))

	done := runAsync(o)

	require.Eventually(t, func() bool {
		snap := o.Snapshot()
		return snap.Phase == "results" && snap.Round == 1
	}, 5*time.Second, time.Millisecond)

	// The run idles until the next round is requested.
	select {
	case err := <-done:
		t.Fatalf("run finished without a next-round signal: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	o.NextRound()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("next round never ran")
	}
	assert.Equal(t, 2, o.Snapshot().Round)
}
