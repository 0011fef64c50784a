package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeTimeout = 10 * time.Second
	readTimeout  = 5 * time.Minute
)

// Conn wraps a gorilla connection and serializes writes. The underlying
// connection allows only one concurrent writer, but session streams write
// from two places (the event forwarder and the ping responder).
type Conn struct {
	raw *websocket.Conn

	writeMu sync.Mutex
}

// NewConn wraps an upgraded connection.
func NewConn(raw *websocket.Conn) *Conn {
	return &Conn{raw: raw}
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// WriteTyped sends a strongly-typed response payload.
func (c *Conn) WriteTyped(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.raw.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.raw.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse.
func (c *Conn) WriteError(errMsg string) error {
	return c.WriteTyped(ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// WriteRaw forwards an already-serialized event payload. Used for
// session events coming off the Redis channel, which are JSON already.
func (c *Conn) WriteRaw(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.raw.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.raw.WriteMessage(websocket.TextMessage, data)
}

// ReadJSON reads and decodes a message into the provided structure.
// Reads must stay on a single goroutine; only writes are serialized here.
func (c *Conn) ReadJSON(v interface{}) error {
	c.raw.SetReadDeadline(time.Now().Add(readTimeout))
	return c.raw.ReadJSON(v)
}
