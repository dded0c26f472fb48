package server

import (
	"encoding/json"
	"time"

	"github.com/lox/blackjack/internal/game"
)

// MessageType represents a WebSocket message type with type safety
type MessageType string

// WebSocket message type constants for the client-server protocol
const (
	// Client to server messages
	MessageTypeJoin      MessageType = "join"
	MessageTypeLeave     MessageType = "leave"
	MessageTypePlaceBet  MessageType = "place_bet"
	MessageTypePlay      MessageType = "play_action"
	MessageTypePause     MessageType = "pause"
	MessageTypeResume    MessageType = "resume"
	MessageTypeNextRound MessageType = "next_round"
	MessageTypeRestart   MessageType = "restart"

	// Server to client messages
	MessageTypeJoined    MessageType = "joined"
	MessageTypeLeft      MessageType = "left"
	MessageTypeGameEvent MessageType = "game_event"
	MessageTypeState     MessageType = "state"
	MessageTypeError     MessageType = "error"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message represents the base WebSocket message structure
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp time.Time       `json:"timestamp"`
	RequestID string          `json:"requestId,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server Messages

type JoinData struct {
	Name string `json:"name,omitempty"`
}

type PlaceBetData struct {
	Amount int `json:"amount"`
}

type PlayData struct {
	Action string `json:"action"` // "hit" or "stand"
}

// Server → Client Messages

type JoinedData struct {
	Seat  int           `json:"seat"`
	Name  string        `json:"name"`
	State game.Snapshot `json:"state"`
}

type LeftData struct {
	Seat int `json:"seat"`
}

type GameEventData struct {
	Event string        `json:"event"`
	State game.Snapshot `json:"state"`
}

type StateData struct {
	State game.Snapshot `json:"state"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
