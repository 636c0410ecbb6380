package ws

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
)

// client wraps one websocket connection. All writes go through the send
// channel and the single writePump goroutine, which gives per-connection
// FIFO ordering of enqueued frames.
type client struct {
	conn *websocket.Conn
	send chan []byte

	pingInterval  time.Duration
	writeDeadline time.Duration

	closeOnce sync.Once
	closing   chan struct{}
}

func newClient(conn *websocket.Conn, pingInterval, writeDeadline time.Duration) *client {
	return &client{
		conn:          conn,
		send:          make(chan []byte, 256),
		pingInterval:  pingInterval,
		writeDeadline: writeDeadline,
		closing:       make(chan struct{}),
	}
}

func (c *client) enqueue(b []byte) bool {
	select {
	case <-c.closing:
		return false
	default:
	}
	select {
	case c.send <- b:
		return true
	default:
		// queue full, drop
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.closing) })
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case <-c.closing:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case b := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeDeadline))
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
