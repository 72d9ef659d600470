package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/srbmarine/exam-portal/internal/exam"
)

const (
	writeWait  = 10 * time.Second
	readWait   = 5 * time.Minute
	maxMessage = 4096
)

// Conn serialises writes to a gorilla connection. The exam runtime emits
// from its own goroutine while the read loop writes acks.
type Conn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Wrap prepares conn for the exam stream.
func Wrap(conn *websocket.Conn) *Conn {
	conn.SetReadLimit(maxMessage)
	return &Conn{conn: conn}
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func (c *Conn) WriteTyped(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func (c *Conn) WriteError(action Action, code, msg string) error {
	return c.WriteTyped(ErrorResponse{
		Event:  EventError,
		Action: action,
		Code:   code,
		Error:  msg,
	})
}

// WriteAck acknowledges an applied action.
func (c *Conn) WriteAck(action Action) error {
	return c.WriteTyped(AckResponse{Event: EventAck, Action: action})
}

// Emit implements exam.Sink.
func (c *Conn) Emit(e exam.Event) {
	_ = c.WriteTyped(RuntimeResponse{Event: e.Type, Data: e})
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func (c *Conn) ReadJSON(v interface{}) error {
	c.conn.SetReadDeadline(time.Now().Add(readWait))
	return c.conn.ReadJSON(v)
}

// Close sends a normal closure frame and closes the connection.
func (c *Conn) Close(reason string) error {
	c.mu.Lock()
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason),
		time.Now().Add(writeWait))
	c.mu.Unlock()
	return c.conn.Close()
}
