package server

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
)

// Broadcaster delivers a message to every connected client
type Broadcaster interface {
	Broadcast(msg *Message)
}

// GameService owns the hosted table and its orchestrator. Connections claim
// human seats through Join; the game starts once every human seat is claimed
// (immediately, for an all-computer table). Game events are fanned out to all
// connections as they happen.
type GameService struct {
	orch       *game.Orchestrator
	humanSeats []int
	logger     *log.Logger

	mu          sync.Mutex
	claims      map[int]*Connection
	broadcaster Broadcaster
	started     bool
	runCtx      context.Context
	done        chan struct{}
	runErr      error
}

// NewGameService creates a game service hosting one table. An all-computer
// table auto-advances its rounds; tables with human seats wait for a
// next_round message between rounds. Extra orchestrator options follow the
// defaults and may override them.
func NewGameService(cfg game.Config, seed int64, logger *log.Logger, opts ...game.Option) (*GameService, error) {
	table, err := game.NewTable(cfg, deck.NewShoe(randutil.New(seed)))
	if err != nil {
		return nil, err
	}

	humans := 0
	for _, seat := range cfg.Seats {
		if seat.Type == game.SeatHuman {
			humans++
		}
	}
	orchOpts := []game.Option{game.WithAutoAdvance(humans == 0)}
	orchOpts = append(orchOpts, opts...)

	orch := game.NewOrchestrator(table, game.NewPolicy(randutil.New(seed+1)), logger, orchOpts...)

	gs := &GameService{
		orch:       orch,
		humanSeats: table.HumanIndices(),
		logger:     logger.WithPrefix("game"),
		claims:     make(map[int]*Connection),
		done:       make(chan struct{}),
	}

	orch.Bus().Subscribe(game.SubscriberFunc(gs.onEvent))
	return gs, nil
}

// Attach wires the service to its broadcast sink
func (gs *GameService) Attach(b Broadcaster) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.broadcaster = b
}

// Start launches the game immediately when no human seats exist. With human
// seats the game instead starts when the last one is claimed.
func (gs *GameService) Start(ctx context.Context) {
	gs.mu.Lock()
	defer gs.mu.Unlock()
	gs.runCtx = ctx
	if len(gs.humanSeats) == 0 {
		gs.startLocked()
	}
}

// startLocked starts the run loop; callers hold gs.mu
func (gs *GameService) startLocked() {
	if gs.started {
		return
	}
	gs.started = true
	ctx := gs.runCtx
	if ctx == nil {
		ctx = context.Background()
	}

	go func() {
		defer close(gs.done)
		for {
			err := gs.orch.Run(ctx)
			if errors.Is(err, game.ErrRestart) {
				gs.logger.Info("game restarted")
				continue
			}
			gs.mu.Lock()
			gs.runErr = err
			gs.mu.Unlock()
			if err != nil && !errors.Is(err, game.ErrQuit) {
				gs.logger.Error("game ended with error", "error", err)
			}
			return
		}
	}()
}

// Join claims the next free human seat for a connection
func (gs *GameService) Join(conn *Connection, name string) (int, error) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	for _, seat := range gs.humanSeats {
		if _, taken := gs.claims[seat]; taken {
			continue
		}
		gs.claims[seat] = conn
		conn.SetSeat(seat)
		gs.logger.Info("seat claimed", "seat", seat, "name", name)

		if len(gs.claims) == len(gs.humanSeats) {
			gs.startLocked()
		}
		return seat, nil
	}
	return -1, fmt.Errorf("no free human seats")
}

// Leave releases a connection's seat. The orchestrator keeps waiting on the
// seat; a new connection can claim it and pick the game back up.
func (gs *GameService) Leave(conn *Connection) {
	gs.mu.Lock()
	defer gs.mu.Unlock()

	seat := conn.Seat()
	if claimed, ok := gs.claims[seat]; ok && claimed == conn {
		delete(gs.claims, seat)
		conn.SetSeat(-1)
		gs.logger.Info("seat released", "seat", seat)
	}
}

// PlaceBet submits a bet for a claimed seat
func (gs *GameService) PlaceBet(seat, amount int) error {
	if seat < 0 {
		return fmt.Errorf("join a seat before betting")
	}
	return gs.orch.SubmitBet(seat, amount)
}

// Play submits a hit or stand for a claimed seat
func (gs *GameService) Play(seat int, action string) error {
	if seat < 0 {
		return fmt.Errorf("join a seat before playing")
	}
	var a game.Action
	switch action {
	case "hit":
		a = game.ActionHit
	case "stand":
		a = game.ActionStand
	default:
		return fmt.Errorf("unknown action %q, want hit or stand", action)
	}
	return gs.orch.SubmitAction(seat, a)
}

// Pause suspends the game before its next step
func (gs *GameService) Pause() {
	gs.orch.Pause()
}

// Resume releases a paused game
func (gs *GameService) Resume() {
	gs.orch.Resume()
}

// NextRound advances a settled game to its next round
func (gs *GameService) NextRound() {
	gs.orch.NextRound()
}

// Restart abandons the current game and starts over with fresh bankrolls
func (gs *GameService) Restart() {
	gs.orch.Restart()
}

// Stop quits the game and waits for the run loop to exit
func (gs *GameService) Stop() {
	gs.mu.Lock()
	started := gs.started
	gs.mu.Unlock()

	gs.orch.Quit()
	if started {
		<-gs.done
	}
}

// Snapshot returns the current table state
func (gs *GameService) Snapshot() game.Snapshot {
	return gs.orch.Snapshot()
}

// onEvent forwards every game event to connected clients
func (gs *GameService) onEvent(event game.Event) {
	gs.mu.Lock()
	b := gs.broadcaster
	gs.mu.Unlock()
	if b == nil {
		return
	}

	msg, err := NewMessage(MessageTypeGameEvent, GameEventData{
		Event: event.EventType().String(),
		State: event.State(),
	})
	if err != nil {
		gs.logger.Error("Failed to create event message", "error", err)
		return
	}
	b.Broadcast(msg)
}
