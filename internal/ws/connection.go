package ws

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn is the subset of *websocket.Conn the hub writes through.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type State int32

const (
	StateConnecting State = iota
	StateOpen
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Connection is one live client. Writes go through a FIFO queue drained by a
// single writer goroutine; Closed is terminal.
type Connection struct {
	info  ConnInfo
	conn  Conn
	send  chan []byte
	done  chan struct{}
	state atomic.Int32
	once  sync.Once
}

func newConnection(conn Conn, info ConnInfo, buffer int) *Connection {
	if info.ConnID == "" {
		info.ConnID = uuid.NewString()
	}
	if info.ConnectedAt.IsZero() {
		info.ConnectedAt = time.Now()
	}
	if buffer <= 0 {
		buffer = 1
	}
	return &Connection{
		info: info,
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

func (c *Connection) ID() string {
	return c.info.ConnID
}

func (c *Connection) UserID() int {
	return c.info.UserID
}

func (c *Connection) Info() ConnInfo {
	return c.info
}

func (c *Connection) State() State {
	return State(c.state.Load())
}

// Done is closed once the connection reaches Closed.
func (c *Connection) Done() <-chan struct{} {
	return c.done
}

func (c *Connection) open() bool {
	return c.state.CompareAndSwap(int32(StateConnecting), int32(StateOpen))
}

// enqueue never blocks; false means the queue is full or the connection is closed.
func (c *Connection) enqueue(payload []byte) bool {
	if c.State() != StateOpen {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// close moves the connection to Closed. Only the first call has an effect.
func (c *Connection) close(code int, reason string) bool {
	closed := false
	c.once.Do(func() {
		c.state.Store(int32(StateClosed))
		close(c.done)
		if code != 0 {
			_ = c.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), time.Now().Add(time.Second))
		}
		_ = c.conn.Close()
		closed = true
	})
	return closed
}

// writeLoop drains the send queue until the connection closes. The first
// failed write is reported through onError.
func (c *Connection) writeLoop(timeout, pingInterval time.Duration, onError func(error)) {
	var ping <-chan time.Time
	if pingInterval > 0 {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			if timeout > 0 {
				_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				onError(err)
				return
			}
		case <-ping:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(timeout)); err != nil {
				onError(err)
				return
			}
		}
	}
}
