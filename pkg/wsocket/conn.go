package wsocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// defaultWriteTimeout bounds each frame write so one stalled client can't
// hold the fan-out loop.
const defaultWriteTimeout = 10 * time.Second

// Conn adapts a gorilla/websocket connection to the broker's subscriber
// transport capability set. A single write mutex serializes frame writes
// (gorilla supports at most one concurrent writer), and a read pump
// goroutine watches for the remote end going away.
//
// Inbound data frames are discarded: the share protocol is one-way after
// the upgrade, the client only ever reads.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	writeMu sync.Mutex

	mu            sync.Mutex
	disconnected  bool
	disconnectFns []func()

	closeOnce sync.Once
}

// Option configures a Conn.
type Option func(*Conn)

// WithWriteTimeout sets the per-frame write deadline. Values below 1 are
// ignored.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Conn) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// New wraps an upgraded websocket connection and starts its read pump.
// The caller hands ownership of ws to the returned Conn.
func New(ws *websocket.Conn, opts ...Option) *Conn {
	c := &Conn{
		ws:           ws,
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	go c.readPump()
	return c
}

// SendText delivers one text frame.
func (c *Conn) SendText(data []byte) error {
	return c.write(websocket.TextMessage, data)
}

// SendBinary delivers one binary frame.
func (c *Conn) SendBinary(data []byte) error {
	return c.write(websocket.BinaryMessage, data)
}

func (c *Conn) write(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(messageType, data)
}

// Close sends a close frame with the given code and reason, then closes
// the underlying connection. Repeated calls are no-ops.
func (c *Conn) Close(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(code, reason)
		deadline := time.Now().Add(c.writeTimeout)
		// Best effort: the peer may already be gone, the close below still runs.
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
		err = c.ws.Close()
	})
	return err
}

// OnDisconnect registers fn to run once when the remote end disconnects.
// If the connection is already gone, fn runs immediately.
func (c *Conn) OnDisconnect(fn func()) {
	if fn == nil {
		return
	}

	c.mu.Lock()
	if c.disconnected {
		c.mu.Unlock()
		fn()
		return
	}
	c.disconnectFns = append(c.disconnectFns, fn)
	c.mu.Unlock()
}

// readPump drains inbound frames until the first read error, which is the
// uniform signal for a closed, failed, or abandoned connection.
func (c *Conn) readPump() {
	for {
		if _, _, err := c.ws.NextReader(); err != nil {
			c.fireDisconnect()
			return
		}
	}
}

func (c *Conn) fireDisconnect() {
	c.mu.Lock()
	if c.disconnected {
		c.mu.Unlock()
		return
	}
	c.disconnected = true
	fns := c.disconnectFns
	c.disconnectFns = nil
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
