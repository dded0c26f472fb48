package game

import "time"

// EventType represents a game event type with type safety
type EventType string

// Event types published by the orchestrator. Every state-mutating operation
// is followed by exactly one event carrying a fresh snapshot, so subscribers
// can render without reaching into the table.
const (
	EventTypeRoundStart   EventType = "round_start"
	EventTypeBetsOpen     EventType = "bets_open"
	EventTypeBetPlaced    EventType = "bet_placed"
	EventTypeCardDealt    EventType = "card_dealt"
	EventTypeNaturals     EventType = "naturals_flagged"
	EventTypeTurnStart    EventType = "turn_start"
	EventTypeSeatAction   EventType = "seat_action"
	EventTypeDealerReveal EventType = "dealer_reveal"
	EventTypeDealerSkip   EventType = "dealer_skipped"
	EventTypeRoundSettled EventType = "round_settled"
	EventTypeGameOver     EventType = "game_over"
	EventTypePaused       EventType = "paused"
	EventTypeResumed      EventType = "resumed"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// Event represents any event that occurs at the table
type Event interface {
	EventType() EventType
	Timestamp() time.Time
	State() Snapshot
}

// baseEvent carries the fields every event shares
type baseEvent struct {
	snapshot Snapshot
	ts       time.Time
}

func (e baseEvent) Timestamp() time.Time { return e.ts }
func (e baseEvent) State() Snapshot      { return e.snapshot }

func newBase(snapshot Snapshot) baseEvent {
	return baseEvent{snapshot: snapshot, ts: time.Now()}
}

// RoundStartEvent is published when a new round begins
type RoundStartEvent struct {
	baseEvent
	Round int
}

func (e RoundStartEvent) EventType() EventType { return EventTypeRoundStart }

// NewRoundStartEvent creates a round start event
func NewRoundStartEvent(snapshot Snapshot, round int) RoundStartEvent {
	return RoundStartEvent{newBase(snapshot), round}
}

// BetsOpenEvent is published when human seats may start submitting bets.
// Computer bets are already placed by this point.
type BetsOpenEvent struct {
	baseEvent
	WaitingSeats []int
}

func (e BetsOpenEvent) EventType() EventType { return EventTypeBetsOpen }

// NewBetsOpenEvent creates a bets open event
func NewBetsOpenEvent(snapshot Snapshot, waiting []int) BetsOpenEvent {
	return BetsOpenEvent{newBase(snapshot), waiting}
}

// BetPlacedEvent is published when a seat's bet is locked in
type BetPlacedEvent struct {
	baseEvent
	Seat   int
	Amount int
}

func (e BetPlacedEvent) EventType() EventType { return EventTypeBetPlaced }

// NewBetPlacedEvent creates a bet placed event
func NewBetPlacedEvent(snapshot Snapshot, seat, amount int) BetPlacedEvent {
	return BetPlacedEvent{newBase(snapshot), seat, amount}
}

// CardDealtEvent is published for every card leaving the shoe
type CardDealtEvent struct {
	baseEvent
	Seat   int
	FaceUp bool
}

func (e CardDealtEvent) EventType() EventType { return EventTypeCardDealt }

// NewCardDealtEvent creates a card dealt event
func NewCardDealtEvent(snapshot Snapshot, seat int, faceUp bool) CardDealtEvent {
	return CardDealtEvent{newBase(snapshot), seat, faceUp}
}

// NaturalsEvent is published after the initial deal once two-card 21s have
// been flagged
type NaturalsEvent struct {
	baseEvent
	Seats []int // seats holding naturals, may be empty
}

func (e NaturalsEvent) EventType() EventType { return EventTypeNaturals }

// NewNaturalsEvent creates a naturals event
func NewNaturalsEvent(snapshot Snapshot, seats []int) NaturalsEvent {
	return NaturalsEvent{newBase(snapshot), seats}
}

// DealerSkipEvent is published when every seat busted and the dealer's hand
// is never played; the hole card stays face down.
type DealerSkipEvent struct {
	baseEvent
}

func (e DealerSkipEvent) EventType() EventType { return EventTypeDealerSkip }

// NewDealerSkipEvent creates a dealer skip event
func NewDealerSkipEvent(snapshot Snapshot) DealerSkipEvent {
	return DealerSkipEvent{newBase(snapshot)}
}

// TurnStartEvent is published when a seat becomes the acting seat
type TurnStartEvent struct {
	baseEvent
	Seat  int
	Human bool
}

func (e TurnStartEvent) EventType() EventType { return EventTypeTurnStart }

// NewTurnStartEvent creates a turn start event
func NewTurnStartEvent(snapshot Snapshot, seat int, human bool) TurnStartEvent {
	return TurnStartEvent{newBase(snapshot), seat, human}
}

// SeatActionEvent is published after a hit or stand is applied
type SeatActionEvent struct {
	baseEvent
	Seat    int
	Action  Action
	Outcome HitOutcome // meaningful for hits only
}

func (e SeatActionEvent) EventType() EventType { return EventTypeSeatAction }

// NewSeatActionEvent creates a seat action event
func NewSeatActionEvent(snapshot Snapshot, seat int, action Action, outcome HitOutcome) SeatActionEvent {
	return SeatActionEvent{newBase(snapshot), seat, action, outcome}
}

// DealerRevealEvent is published when the hole card is flipped
type DealerRevealEvent struct {
	baseEvent
}

func (e DealerRevealEvent) EventType() EventType { return EventTypeDealerReveal }

// NewDealerRevealEvent creates a dealer reveal event
func NewDealerRevealEvent(snapshot Snapshot) DealerRevealEvent {
	return DealerRevealEvent{newBase(snapshot)}
}

// RoundSettledEvent is published after settlement completes
type RoundSettledEvent struct {
	baseEvent
	Round int
}

func (e RoundSettledEvent) EventType() EventType { return EventTypeRoundSettled }

// NewRoundSettledEvent creates a round settled event
func NewRoundSettledEvent(snapshot Snapshot, round int) RoundSettledEvent {
	return RoundSettledEvent{newBase(snapshot), round}
}

// GameOverEvent is published once when the game ends
type GameOverEvent struct {
	baseEvent
}

func (e GameOverEvent) EventType() EventType { return EventTypeGameOver }

// NewGameOverEvent creates a game over event
func NewGameOverEvent(snapshot Snapshot) GameOverEvent {
	return GameOverEvent{newBase(snapshot)}
}

// PausedEvent is published when the pause gate closes
type PausedEvent struct {
	baseEvent
}

func (e PausedEvent) EventType() EventType { return EventTypePaused }

// NewPausedEvent creates a paused event
func NewPausedEvent(snapshot Snapshot) PausedEvent {
	return PausedEvent{newBase(snapshot)}
}

// ResumedEvent is published when the pause gate opens again
type ResumedEvent struct {
	baseEvent
}

func (e ResumedEvent) EventType() EventType { return EventTypeResumed }

// NewResumedEvent creates a resumed event
func NewResumedEvent(snapshot Snapshot) ResumedEvent {
	return ResumedEvent{newBase(snapshot)}
}

// EventSubscriber can subscribe to table events
type EventSubscriber interface {
	OnEvent(event Event)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event Event)
}

// SimpleEventBus is a basic in-memory event bus. Delivery is synchronous and
// in subscription order; subscribers must not mutate table state.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{
		subscribers: make([]EventSubscriber, 0),
	}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event Event) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}

// SubscriberFunc adapts a function to the EventSubscriber interface
type SubscriberFunc func(event Event)

// OnEvent implements EventSubscriber
func (f SubscriberFunc) OnEvent(event Event) {
	f(event)
}
