package transport

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/coder/websocket"
)

// maxMessageSize bounds a single incoming frame.
const maxMessageSize = 1 << 20

// Conn is one established connection to a terminal server.
type Conn interface {
	Send(ctx context.Context, msg []byte) error
	Receive(ctx context.Context) ([]byte, error)
	// Ping checks the link is alive. It needs a concurrent Receive.
	Ping(ctx context.Context) error
	Close() error
}

// Dialer creates connections.
type Dialer interface {
	Create(ctx context.Context) (Conn, error)
}

// ConnectionFactory dials a websocket terminal server.
type ConnectionFactory struct {
	URL       string
	Protocols []string
	Header    http.Header
}

// NewConnectionFactory returns a factory for url negotiating the webtty
// sub-protocol.
func NewConnectionFactory(url string) *ConnectionFactory {
	return &ConnectionFactory{
		URL:       url,
		Protocols: []string{Subprotocol},
	}
}

// Create dials the server.
func (f *ConnectionFactory) Create(ctx context.Context) (Conn, error) {
	c, _, err := websocket.Dial(ctx, f.URL, &websocket.DialOptions{
		Subprotocols: f.Protocols,
		HTTPHeader:   f.Header,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", f.URL, err)
	}
	c.SetReadLimit(maxMessageSize)

	logger.Debug("connected", "url", f.URL, "subprotocol", c.Subprotocol())
	return &wsConn{conn: c}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) Send(ctx context.Context, msg []byte) error {
	return c.conn.Write(ctx, websocket.MessageBinary, msg)
}

// Receive returns io.EOF when the server closed the socket normally.
func (c *wsConn) Receive(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil && websocket.CloseStatus(err) == websocket.StatusNormalClosure {
		return nil, io.EOF
	}
	return data, err
}

func (c *wsConn) Ping(ctx context.Context) error {
	return c.conn.Ping(ctx)
}

func (c *wsConn) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}
