package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait     = 10 * time.Second
	sendQueueSize = 32
)

// Session binds one live connection to an authenticated identity. Outbound
// messages go through a buffered queue drained by a single writer goroutine,
// so a slow connection never blocks the caller.
type Session struct {
	PlayerID string
	Name     string

	logger *slog.Logger
	conn   *websocket.Conn
	send   chan []byte

	mu     sync.Mutex
	closed bool
}

func newSession(logger *slog.Logger, playerID, name string, conn *websocket.Conn) *Session {
	return &Session{
		PlayerID: playerID,
		Name:     name,
		logger:   logger.With("component", "session", "playerID", playerID),
		conn:     conn,
		send:     make(chan []byte, sendQueueSize),
	}
}

// writePump drains the send queue onto the connection. It owns all writes.
func (that *Session) writePump() {
	defer func() {
		if err := that.conn.Close(); err != nil {
			that.logger.Debug("failed to close connection", "error", err)
		}
	}()

	for msg := range that.send {
		if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			that.logger.Debug("failed to set write deadline", "error", err)
			return
		}

		if err := that.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			that.logger.Debug("failed to write message", "error", err)
			return
		}
	}
}

// Enqueue hands a raw message to the writer queue. Fire and forget: a full
// queue or a closed session drops the message.
func (that *Session) Enqueue(msg []byte) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	select {
	case that.send <- msg:
	default:
		that.logger.Warn("outbound queue full, dropping message")
	}
}

// Close stops the writer and closes the underlying connection. Safe to call
// more than once.
func (that *Session) Close() {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	that.closed = true
	close(that.send)
}

// ReadMessage blocks on the next inbound envelope.
func (that *Session) ReadMessage() (*Message, error) {
	_, raw, err := that.conn.ReadMessage()
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}

	var msg Message
	if err = json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message: %w", err)
	}

	return &msg, nil
}
