package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 8192
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection represents a WebSocket connection to a client. A connection may
// claim one human seat at the table; the seat is -1 until then.
type Connection struct {
	conn        *websocket.Conn
	send        chan *Message
	seat        int
	logger      *log.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	mu          sync.RWMutex
	closeOnce   sync.Once
	gameService *GameService
}

// NewConnection creates a new connection wrapper
func NewConnection(conn *websocket.Conn, logger *log.Logger, gameService *GameService) *Connection {
	ctx, cancel := context.WithCancel(context.Background())

	return &Connection{
		conn:        conn,
		send:        make(chan *Message, 256),
		seat:        -1,
		logger:      logger.WithPrefix("conn"),
		ctx:         ctx,
		cancel:      cancel,
		gameService: gameService,
	}
}

// Start begins handling the connection
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// SendMessage sends a message to the client
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel was closed during shutdown
			c.logger.Debug("Attempted to send message on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("Connection send buffer full, closing connection")
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// SetSeat associates this connection with a table seat
func (c *Connection) SetSeat(seat int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seat = seat
}

// Seat returns the claimed seat, or -1
func (c *Connection) Seat() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seat
}

// readPump handles incoming messages from the client
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", "error", err)
			}
			break
		}

		c.handleMessage(&msg)
	}
}

// writePump handles outgoing messages to the client
func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("Failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

// handleMessage processes incoming messages from the client
func (c *Connection) handleMessage(msg *Message) {
	c.logger.Debug("Received message", "type", msg.Type, "seat", c.Seat())

	switch msg.Type {
	case MessageTypeJoin:
		var data JoinData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse join data")
			return
		}
		c.handleJoin(data)

	case MessageTypeLeave:
		c.handleLeave()

	case MessageTypePlaceBet:
		var data PlaceBetData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse bet data")
			return
		}
		if err := c.gameService.PlaceBet(c.Seat(), data.Amount); err != nil {
			c.sendError("bet_rejected", err.Error())
		}

	case MessageTypePlay:
		var data PlayData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "Failed to parse play data")
			return
		}
		if err := c.gameService.Play(c.Seat(), data.Action); err != nil {
			c.sendError("action_rejected", err.Error())
		}

	case MessageTypePause:
		c.gameService.Pause()

	case MessageTypeResume:
		c.gameService.Resume()

	case MessageTypeNextRound:
		c.gameService.NextRound()

	case MessageTypeRestart:
		c.gameService.Restart()

	default:
		c.sendError("unknown_message", "Unknown message type: "+msg.Type.String())
	}
}

func (c *Connection) handleJoin(data JoinData) {
	seat, err := c.gameService.Join(c, data.Name)
	if err != nil {
		c.sendError("join_failed", err.Error())
		return
	}

	state := c.gameService.Snapshot()
	msg, err := NewMessage(MessageTypeJoined, JoinedData{
		Seat:  seat,
		Name:  state.Seats[seat].Name,
		State: state,
	})
	if err != nil {
		c.logger.Error("Failed to create joined message", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}

func (c *Connection) handleLeave() {
	seat := c.Seat()
	if seat < 0 {
		return
	}
	c.gameService.Leave(c)

	msg, err := NewMessage(MessageTypeLeft, LeftData{Seat: seat})
	if err != nil {
		return
	}
	_ = c.SendMessage(msg)
}

func (c *Connection) sendError(code, message string) {
	msg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		c.logger.Error("Failed to create error message", "error", err)
		return
	}
	_ = c.SendMessage(msg)
}
