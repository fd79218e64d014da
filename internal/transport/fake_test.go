package transport

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/Gaurav-Gosain/ttyglass/internal/adapter"
)

type fakeConn struct {
	inbound chan []byte
	recvErr error

	mu     sync.Mutex
	sent   [][]byte
	pings  int
	closed bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{inbound: make(chan []byte, 16)}
}

func (c *fakeConn) Send(_ context.Context, msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, append([]byte(nil), msg...))
	return nil
}

func (c *fakeConn) Receive(ctx context.Context) ([]byte, error) {
	select {
	case msg, ok := <-c.inbound:
		if !ok {
			if c.recvErr != nil {
				return nil, c.recvErr
			}
			return nil, io.EOF
		}
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Ping(context.Context) error {
	c.mu.Lock()
	c.pings++
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *fakeConn) sentMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	for i, m := range c.sent {
		out[i] = string(m)
	}
	return out
}

type fakeDialer struct {
	conn *fakeConn
	err  error
}

func (d fakeDialer) Create(context.Context) (Conn, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

var errDial = errors.New("connection refused")

type fakeTarget struct {
	mu          sync.Mutex
	output      []byte
	titles      []string
	prefs       []adapter.Preferences
	messages    []string
	deactivated bool
	onInput     func(string)
}

func (t *fakeTarget) Output(data []byte) {
	t.mu.Lock()
	t.output = append(t.output, data...)
	t.mu.Unlock()
}

func (t *fakeTarget) OnInput(fn func(string)) {
	t.mu.Lock()
	t.onInput = fn
	t.mu.Unlock()
}

// OnResize reports an 80x24 grid right away, like the adapter.
func (t *fakeTarget) OnResize(fn func(int, int)) {
	fn(80, 24)
}

func (t *fakeTarget) SetWindowTitle(title string) {
	t.mu.Lock()
	t.titles = append(t.titles, title)
	t.mu.Unlock()
}

func (t *fakeTarget) SetPreferences(p adapter.Preferences) {
	t.mu.Lock()
	t.prefs = append(t.prefs, p)
	t.mu.Unlock()
}

func (t *fakeTarget) ShowMessage(text string, _ time.Duration) {
	t.mu.Lock()
	t.messages = append(t.messages, text)
	t.mu.Unlock()
}

func (t *fakeTarget) Deactivate() {
	t.mu.Lock()
	t.deactivated = true
	t.mu.Unlock()
}

func (t *fakeTarget) typeInput(s string) {
	t.mu.Lock()
	fn := t.onInput
	t.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (t *fakeTarget) prefCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.prefs)
}
