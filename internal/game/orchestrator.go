package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"
)

// Sentinel causes for stopping a run. Quit and Restart cancel every
// outstanding suspension point (human waits, pacing timers, the pause gate)
// before Run returns, so no continuation is left pending.
var (
	ErrQuit    = errors.New("game quit")
	ErrRestart = errors.New("game restart")
)

// Delays is the pacing profile between orchestrator steps. Pacing is purely
// cosmetic; a zero profile runs rounds as fast as the engine allows.
type Delays struct {
	Deal       time.Duration // before each card deal
	Decision   time.Duration // before each AI hit/stand decision
	DealerFlip time.Duration // before the hole card reveal
	DealerHit  time.Duration // before each dealer hit
	Interlude  time.Duration // short beat between phases
}

// DefaultDelays returns the pacing used for interactive play
func DefaultDelays() Delays {
	return Delays{
		Deal:       300 * time.Millisecond,
		Decision:   1200 * time.Millisecond,
		DealerFlip: 600 * time.Millisecond,
		DealerHit:  1000 * time.Millisecond,
		Interlude:  400 * time.Millisecond,
	}
}

// Orchestrator drives rounds on a table: it sequences betting, dealing,
// player turns, the dealer turn and settlement as a single cooperatively
// scheduled process. The table is owned exclusively by the orchestrator's
// run loop; external collaborators only submit inputs and read snapshots.
type Orchestrator struct {
	table  *Table
	policy *Policy
	bus    EventBus
	gate   *Gate
	clock  quartz.Clock
	logger *log.Logger
	delays Delays

	// autoAdvance starts the next round without waiting for NextRound
	autoAdvance bool

	// applyMu orders table writes against concurrent Snapshot readers and
	// the bet-collection goroutines. The run loop is the only writer, so
	// its own reads between mutations need no lock.
	applyMu sync.Mutex

	mu          sync.Mutex
	running     bool
	cancel      context.CancelCauseFunc
	pendingBets map[int]chan int
	actionSeat  int
	actionCh    chan Action
	nextCh      chan struct{}
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithClock substitutes the pacing clock, typically quartz.NewMock in tests
func WithClock(clock quartz.Clock) Option {
	return func(o *Orchestrator) { o.clock = clock }
}

// WithDelays sets the pacing profile
func WithDelays(d Delays) Option {
	return func(o *Orchestrator) { o.delays = d }
}

// WithAutoAdvance makes rounds follow each other without an external
// NextRound signal. Used by the simulator and the server's auto tables.
func WithAutoAdvance(auto bool) Option {
	return func(o *Orchestrator) { o.autoAdvance = auto }
}

// WithEventBus substitutes the event bus
func WithEventBus(bus EventBus) Option {
	return func(o *Orchestrator) { o.bus = bus }
}

// NewOrchestrator creates an orchestrator for a table
func NewOrchestrator(table *Table, policy *Policy, logger *log.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		table:       table,
		policy:      policy,
		bus:         NewEventBus(),
		gate:        NewGate(),
		clock:       quartz.NewReal(),
		logger:      logger.WithPrefix("orchestrator"),
		delays:      DefaultDelays(),
		pendingBets: make(map[int]chan int),
		actionSeat:  -1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Bus returns the event bus for subscribing to table events
func (o *Orchestrator) Bus() EventBus {
	return o.bus
}

// Snapshot returns the current table state
func (o *Orchestrator) Snapshot() Snapshot {
	o.applyMu.Lock()
	defer o.applyMu.Unlock()
	return o.table.Snapshot()
}

// Run plays rounds until the game is over or the run is cancelled. It
// returns nil on a completed game, ErrQuit/ErrRestart when stopped, or the
// parent context's error.
func (o *Orchestrator) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	o.mu.Lock()
	o.running = true
	o.cancel = cancel
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.cancel = nil
		o.pendingBets = make(map[int]chan int)
		o.actionSeat = -1
		o.actionCh = nil
		o.nextCh = nil
		o.mu.Unlock()
		o.gate.Resume()

		// The run loop is the table's only writer, so a restart's reset
		// happens here on the way out rather than in Restart itself.
		if errors.Is(context.Cause(ctx), ErrRestart) {
			o.applyMu.Lock()
			o.table.Reset()
			o.applyMu.Unlock()
		}
	}()

	startingChips := o.table.TotalChips()

	for {
		if err := o.playRound(ctx, startingChips); err != nil {
			return o.stopCause(ctx, err)
		}
		if o.table.GameOver() {
			o.publish(NewGameOverEvent(o.table.Snapshot()))
			o.logger.Info("game over", "rounds", o.table.Round())
			return nil
		}
		if o.autoAdvance {
			if err := o.pace(ctx, o.delays.Interlude); err != nil {
				return o.stopCause(ctx, err)
			}
		} else if err := o.awaitNextRound(ctx); err != nil {
			return o.stopCause(ctx, err)
		}
	}
}

// stopCause maps a context cancellation back to the Quit/Restart sentinel
// that caused it
func (o *Orchestrator) stopCause(ctx context.Context, err error) error {
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return cause
	}
	return err
}

// Quit cancels the run and releases every outstanding waiter
func (o *Orchestrator) Quit() {
	o.stop(ErrQuit)
}

// Restart cancels the run with ErrRestart. The run loop resets the table on
// its way out, so by the time Run returns the table is back in setup ready
// for a fresh Run.
func (o *Orchestrator) Restart() {
	o.stop(ErrRestart)
}

func (o *Orchestrator) stop(cause error) {
	o.mu.Lock()
	cancel := o.cancel
	o.mu.Unlock()
	if cancel != nil {
		cancel(cause)
	}
	o.gate.Resume()
}

// Pause closes the pause gate before the next engine call. A no-op when no
// round is active or the round is already settled.
func (o *Orchestrator) Pause() {
	o.mu.Lock()
	running := o.running
	o.mu.Unlock()
	if !running {
		return
	}
	o.applyMu.Lock()
	phase := o.table.Phase()
	o.applyMu.Unlock()
	if phase == PhaseSetup || phase == PhaseResults {
		return
	}
	if o.gate.Paused() {
		return
	}
	o.gate.Pause()
	o.publish(NewPausedEvent(o.Snapshot()))
}

// Resume reopens the pause gate, releasing the pending suspension point
func (o *Orchestrator) Resume() {
	if !o.gate.Paused() {
		return
	}
	o.gate.Resume()
	o.publish(NewResumedEvent(o.Snapshot()))
}

// Paused reports whether the pause gate is closed
func (o *Orchestrator) Paused() bool {
	return o.gate.Paused()
}

// NextRound signals that the next round may begin. Ignored while a round is
// still in progress or when rounds auto-advance.
func (o *Orchestrator) NextRound() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.nextCh == nil {
		return
	}
	select {
	case o.nextCh <- struct{}{}:
	default:
	}
}

// SubmitBet delivers a human seat's bet. It is rejected when the seat is not
// currently collecting a bet, the amount is not positive, or the amount
// exceeds the seat's chips. Rejection leaves the seat suspended.
func (o *Orchestrator) SubmitBet(seat, amount int) error {
	o.mu.Lock()
	ch, ok := o.pendingBets[seat]
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("seat %d is not awaiting a bet", seat)
	}
	if amount <= 0 {
		return fmt.Errorf("bet must be positive, got %d", amount)
	}
	if chips := o.Snapshot().Seats[seat].Chips; amount > chips {
		return fmt.Errorf("bet %d exceeds chips %d", amount, chips)
	}
	select {
	case ch <- amount:
		return nil
	default:
		return fmt.Errorf("seat %d already submitted a bet", seat)
	}
}

// SubmitAction delivers a human seat's hit/stand choice. Submissions for a
// seat that is not the active turn are rejected without touching state.
func (o *Orchestrator) SubmitAction(seat int, action Action) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.actionCh == nil || o.actionSeat != seat {
		return fmt.Errorf("seat %d is not the active turn", seat)
	}
	select {
	case o.actionCh <- action:
		return nil
	default:
		return fmt.Errorf("seat %d already submitted an action", seat)
	}
}

// playRound drives one complete round: betting, dealing, player turns,
// dealer turn and settlement.
func (o *Orchestrator) playRound(ctx context.Context, startingChips int) error {
	o.mutate(func() { o.table.StartRound() })
	o.logger.Info("round started", "round", o.table.Round(), "shoe", o.table.shoe.Remaining())
	o.publish(NewRoundStartEvent(o.table.Snapshot(), o.table.Round()))

	if o.table.Mode() == ModeBetting {
		if err := o.collectBets(ctx); err != nil {
			return err
		}
		o.mutate(func() { o.table.BeginDealing() })
	}

	if err := o.dealInitial(ctx); err != nil {
		return err
	}

	if err := o.playerTurns(ctx); err != nil {
		return err
	}

	if err := o.dealerTurn(ctx); err != nil {
		return err
	}

	o.mutate(func() { o.table.Settle() })
	o.publish(NewRoundSettledEvent(o.table.Snapshot(), o.table.Round()))
	o.logger.Info("round settled", "round", o.table.Round())

	if o.table.Mode() == ModeBetting {
		if total := o.table.TotalChips(); total != startingChips {
			return fmt.Errorf("chip conservation violated: have %d, started with %d", total, startingChips)
		}
	}
	return nil
}

// collectBets places computer bets synchronously, then collects every human
// seat's bet concurrently. The phase does not advance until all human bets
// have resolved; no seat's wait is disturbed by another seat's input.
func (o *Orchestrator) collectBets(ctx context.Context) error {
	dealerIdx := o.table.DealerIndex()
	for i := 0; i < dealerIdx; i++ {
		s := o.table.seats[i]
		if s.Human || !s.HasChips() {
			continue
		}
		amount := o.policy.GenerateBet(s.Chips)
		var err error
		o.mutate(func() { err = o.table.PlaceBet(i, amount) })
		if err != nil {
			return err
		}
		o.logger.Debug("computer bet", "seat", i, "amount", amount)
		o.publish(NewBetPlacedEvent(o.table.Snapshot(), i, amount))
	}

	waiting := make([]int, 0, dealerIdx)
	o.mu.Lock()
	for i := 0; i < dealerIdx; i++ {
		s := o.table.seats[i]
		if !s.Human || !s.HasChips() {
			continue
		}
		o.pendingBets[i] = make(chan int, 1)
		waiting = append(waiting, i)
	}
	o.mu.Unlock()

	if len(waiting) == 0 {
		return nil
	}

	o.publish(NewBetsOpenEvent(o.table.Snapshot(), waiting))

	g, gctx := errgroup.WithContext(ctx)
	for _, seat := range waiting {
		g.Go(func() error {
			return o.collectBet(gctx, seat)
		})
	}
	err := g.Wait()

	o.mu.Lock()
	o.pendingBets = make(map[int]chan int)
	o.mu.Unlock()
	return err
}

// collectBet waits for one human seat's bet and applies it. Amounts are
// validated on submission, so a rejected PlaceBet here just keeps waiting.
func (o *Orchestrator) collectBet(ctx context.Context, seat int) error {
	o.mu.Lock()
	ch := o.pendingBets[seat]
	o.mu.Unlock()

	for {
		select {
		case amount := <-ch:
			o.applyMu.Lock()
			err := o.table.PlaceBet(seat, amount)
			if err == nil {
				o.publish(NewBetPlacedEvent(o.table.Snapshot(), seat, amount))
			}
			o.applyMu.Unlock()
			if err != nil {
				o.logger.Warn("rejected bet", "seat", seat, "amount", amount, "error", err)
				continue
			}
			o.logger.Debug("human bet", "seat", seat, "amount", amount)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// dealInitial deals two passes over the eligible seats, dealer last in each
// pass, with the dealer's second card face down. The pause gate is checked
// before every card.
func (o *Orchestrator) dealInitial(ctx context.Context) error {
	if err := o.pace(ctx, o.delays.Interlude); err != nil {
		return err
	}

	dealerIdx := o.table.DealerIndex()
	for pass := 0; pass < 2; pass++ {
		for _, seat := range o.table.DealTargets() {
			if err := o.gate.Wait(ctx); err != nil {
				return err
			}
			if err := o.pace(ctx, o.delays.Deal); err != nil {
				return err
			}
			faceUp := !(seat == dealerIdx && pass == 1)
			o.mutate(func() { o.table.DealCard(seat, faceUp) })
			o.publish(NewCardDealtEvent(o.table.Snapshot(), seat, faceUp))
		}
	}

	o.mutate(func() { o.table.FlagNaturals() })
	naturals := make([]int, 0)
	for i, s := range o.table.seats {
		if s.Status == StatusBlackjack {
			naturals = append(naturals, i)
		}
	}
	o.publish(NewNaturalsEvent(o.table.Snapshot(), naturals))
	return o.pace(ctx, o.delays.Interlude)
}

// playerTurns visits each eligible seat strictly one at a time in table
// order. Humans wait for SubmitAction, computers consult the policy.
func (o *Orchestrator) playerTurns(ctx context.Context) error {
	o.mutate(func() { o.table.BeginPlayerTurns() })

	for _, seat := range o.table.TurnOrder() {
		s := o.table.seats[seat]
		if s.Status != StatusPlaying {
			continue
		}
		o.mutate(func() { o.table.SetCurrentTurn(seat) })
		o.publish(NewTurnStartEvent(o.table.Snapshot(), seat, s.Human))

		var err error
		if s.Human {
			err = o.humanTurn(ctx, seat)
		} else {
			err = o.aiTurn(ctx, seat)
		}
		if err != nil {
			return err
		}
	}

	o.mutate(func() { o.table.SetCurrentTurn(-1) })
	return nil
}

// humanTurn offers hit/stand until the seat stands, busts or reaches 21
func (o *Orchestrator) humanTurn(ctx context.Context, seat int) error {
	for o.table.seats[seat].Status == StatusPlaying {
		action, err := o.awaitAction(ctx, seat)
		if err != nil {
			return err
		}
		o.applyAction(seat, action)
	}
	return nil
}

// aiTurn plays a computer seat against the dealer's up card
func (o *Orchestrator) aiTurn(ctx context.Context, seat int) error {
	upCard, ok := o.table.DealerUpCard()
	if !ok {
		return fmt.Errorf("no dealer up card during seat %d turn", seat)
	}

	for o.table.seats[seat].Status == StatusPlaying {
		if err := o.gate.Wait(ctx); err != nil {
			return err
		}
		if err := o.pace(ctx, o.delays.Decision); err != nil {
			return err
		}
		s := o.table.seats[seat]
		action := o.policy.PlayerDecision(s.Hand, Score(s.Hand), upCard)
		o.applyAction(seat, action)
	}
	return nil
}

// applyAction mutates the table for a hit or stand and publishes the result
func (o *Orchestrator) applyAction(seat int, action Action) {
	if action == ActionHit {
		var outcome HitOutcome
		o.mutate(func() { outcome = o.table.Hit(seat) })
		o.logger.Debug("seat hit", "seat", seat, "score", Score(o.table.seats[seat].Hand))
		o.publish(NewSeatActionEvent(o.table.Snapshot(), seat, ActionHit, outcome))
		return
	}
	o.mutate(func() { o.table.Stand(seat) })
	o.logger.Debug("seat stood", "seat", seat, "score", Score(o.table.seats[seat].Hand))
	o.publish(NewSeatActionEvent(o.table.Snapshot(), seat, ActionStand, HitOK))
}

// dealerTurn reveals and auto-plays the dealer hand, unless every seat
// busted, in which case the hole card is never shown and play goes straight
// to settlement.
func (o *Orchestrator) dealerTurn(ctx context.Context) error {
	o.mutate(func() { o.table.BeginDealerTurn() })
	dealerIdx := o.table.DealerIndex()

	if o.table.AllNonDealersBust() {
		o.mutate(func() { o.table.SkipDealerPlay() })
		o.logger.Debug("all seats bust, dealer play skipped")
		o.publish(NewDealerSkipEvent(o.table.Snapshot()))
		return o.pace(ctx, o.delays.Interlude)
	}

	if err := o.gate.Wait(ctx); err != nil {
		return err
	}
	if err := o.pace(ctx, o.delays.DealerFlip); err != nil {
		return err
	}
	o.mutate(func() { o.table.RevealDealer() })
	o.publish(NewDealerRevealEvent(o.table.Snapshot()))

	var natural bool
	o.mutate(func() { natural = o.table.CheckDealerNatural() })
	if natural {
		o.logger.Debug("dealer natural blackjack")
		return o.pace(ctx, o.delays.Interlude)
	}

	dealer := o.table.seats[dealerIdx]
	for {
		if DealerDecision(Score(dealer.Hand)) == ActionStand {
			o.mutate(func() { o.table.Stand(dealerIdx) })
			o.publish(NewSeatActionEvent(o.table.Snapshot(), dealerIdx, ActionStand, HitOK))
			break
		}
		if err := o.gate.Wait(ctx); err != nil {
			return err
		}
		if err := o.pace(ctx, o.delays.DealerHit); err != nil {
			return err
		}
		var outcome HitOutcome
		o.mutate(func() { outcome = o.table.Hit(dealerIdx) })
		o.publish(NewSeatActionEvent(o.table.Snapshot(), dealerIdx, ActionHit, outcome))
		if outcome != HitOK {
			break
		}
	}
	return o.pace(ctx, o.delays.Interlude)
}

// awaitAction registers the seat as the active waiter and blocks for input
func (o *Orchestrator) awaitAction(ctx context.Context, seat int) (Action, error) {
	ch := make(chan Action, 1)
	o.mu.Lock()
	o.actionSeat = seat
	o.actionCh = ch
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.actionSeat = -1
		o.actionCh = nil
		o.mu.Unlock()
	}()

	select {
	case action := <-ch:
		return action, nil
	case <-ctx.Done():
		return ActionStand, ctx.Err()
	}
}

// awaitNextRound blocks until NextRound is called
func (o *Orchestrator) awaitNextRound(ctx context.Context) error {
	ch := make(chan struct{}, 1)
	o.mu.Lock()
	o.nextCh = ch
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.nextCh = nil
		o.mu.Unlock()
	}()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pace waits the given cosmetic delay on the injected clock
func (o *Orchestrator) pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := o.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// mutate runs a table write under the snapshot lock
func (o *Orchestrator) mutate(fn func()) {
	o.applyMu.Lock()
	defer o.applyMu.Unlock()
	fn()
}

func (o *Orchestrator) publish(event Event) {
	o.bus.Publish(event)
}
