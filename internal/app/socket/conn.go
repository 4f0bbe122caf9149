/*
Package socket wraps a gorilla WebSocket connection as a delivery.Peer.

Outbound frames are queued on a buffered channel drained by WritePump, so Send never
blocks the caller. Inbound frames are read by ReadPump and handed to a callback.
*/
package socket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"starsky/internal/app/delivery"
	"starsky/internal/pkg/logx"
	"starsky/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 16 << 10

	// number of outbound frames buffered per connection.
	sendBufferSize = 256
)

// Conn is an active WebSocket connection.
type Conn struct {
	id   string
	conn *websocket.Conn

	// send queues outbound frames. It is never closed; done signals shutdown instead.
	send chan []byte

	done      chan struct{}
	closeOnce sync.Once

	logger zerolog.Logger
}

// NewConn wraps ws. kind is only used to tag log lines ("sky", "chat").
func NewConn(ws *websocket.Conn, kind string) *Conn {
	id := randx.ConnectionID()

	return &Conn{
		id:     id,
		conn:   ws,
		send:   make(chan []byte, sendBufferSize),
		done:   make(chan struct{}),
		logger: logx.Logger().With().Str("conn_id", id).Str("socket", kind).Logger(),
	}
}

// ID implements delivery.Peer.
func (c *Conn) ID() string {
	return c.id
}

// Send implements delivery.Peer. A closed connection or a full queue is unreachable.
func (c *Conn) Send(payload []byte) delivery.Result {
	select {
	case <-c.done:
		return delivery.PeerUnreachable
	default:
	}

	select {
	case c.send <- payload:
		return delivery.Delivered
	case <-c.done:
		return delivery.PeerUnreachable
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Send queue full, treating peer as unreachable")
		return delivery.PeerUnreachable
	}
}

// Done is closed once the connection shuts down.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close marks the connection as gone and closes the underlying socket. Safe to call repeatedly.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error")
		}
	})
}

// ReadPump reads frames until the connection fails, passing each to onMessage.
// It closes the connection before returning.
func (c *Conn) ReadPump(onMessage func([]byte)) {
	defer c.Close()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (client close/going away)")
			}
			return
		}

		if onMessage != nil {
			onMessage(message)
		}
	}
}

// WritePump writes queued frames and periodic pings until the connection closes.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if !c.write(websocket.TextMessage, message) {
				return
			}

		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}

		case <-c.done:
			return
		}
	}
}

// write returns false if the pump should terminate.
func (c *Conn) write(messageType int, payload []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, payload); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing frame")
		return false
	}

	return true
}
