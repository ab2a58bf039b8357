package hub

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	readLimit  = 4096
)

var (
	ErrConnClosed = errors.New("connection closed")
	ErrBufferFull = errors.New("send buffer full")
)

// Conn is a single subscriber of the hub.
type Conn interface {
	ID() string
	UserID() string
	Send(payload []byte) error
	Close() error
}

// WSConn adapts a websocket connection to the hub, writes go through a bounded buffer.
type WSConn struct {
	id     string
	userID string
	ws     *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

// NewWSConn wraps the websocket of the user with a send buffer of the given size.
func NewWSConn(ws *websocket.Conn, userID string, buffer int) *WSConn {
	return &WSConn{
		id:     uuid.NewString(),
		userID: userID,
		ws:     ws,
		send:   make(chan []byte, buffer),
		done:   make(chan struct{}),
	}
}

func (c *WSConn) ID() string {
	return c.id
}

// UserID is the authenticated owner of the connection.
func (c *WSConn) UserID() string {
	return c.userID
}

// Send queues the payload, it never blocks.
func (c *WSConn) Send(payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrConnClosed
	}

	select {
	case c.send <- payload:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops the write pump and closes the socket.
func (c *WSConn) Close() error {
	var err error
	c.once.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		close(c.done)
		err = c.ws.Close()
	})
	return err
}

// WritePump sends the queued payloads and the keepalive pings until the connection is closed.
func (c *WSConn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			return
		}
	}
}

// ReadPump passes every text message to the handler until the socket fails.
func (c *WSConn) ReadPump(handle func(payload []byte)) {
	c.ws.SetReadLimit(readLimit)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}
		handle(payload)
	}
}
