package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Gaurav-Gosain/ttyglass/internal/adapter"
	"github.com/Gaurav-Gosain/ttyglass/internal/transport"
	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePty struct {
	mu      sync.Mutex
	written []byte
	sizes   [][2]int
	closed  bool
}

func (p *fakePty) Read([]byte) (int, error) { return 0, io.EOF }

func (p *fakePty) Write(b []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = append(p.written, b...)
	return len(b), nil
}

func (p *fakePty) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

func (p *fakePty) Resize(w, h int) error {
	p.mu.Lock()
	p.sizes = append(p.sizes, [2]int{w, h})
	p.mu.Unlock()
	return nil
}

type recordingWriter struct {
	msgs []string
}

func (w *recordingWriter) Write(_ context.Context, _ websocket.MessageType, p []byte) error {
	w.msgs = append(w.msgs, string(p))
	return nil
}

func newFakeSession() (*Session, *fakePty) {
	p := &fakePty{}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{ID: "test", Cols: 80, Rows: 24, pty: p, ctx: ctx, cancelFunc: cancel, startTime: time.Now()}, p
}

func TestProcessInput(t *testing.T) {
	s := NewServer(Config{Command: []string{"sh"}})
	session, p := newFakeSession()
	w := &recordingWriter{}
	ctx := context.Background()

	s.processInput(ctx, w, []byte("0ls\r"), session)
	s.processInput(ctx, w, []byte(`2{"cols":120,"rows":40}`), session)
	s.processInput(ctx, w, []byte(`2{"cols":0,"rows":40}`), session)
	s.processInput(ctx, w, []byte(`2not json`), session)
	s.processInput(ctx, w, []byte("3"), session)
	s.processInput(ctx, w, nil, session)

	assert.Equal(t, "ls\r", string(p.written))
	assert.Equal(t, [][2]int{{120, 40}}, p.sizes)
	assert.Equal(t, 120, session.Cols)
	assert.Equal(t, 40, session.Rows)
	assert.Equal(t, []string{"4"}, w.msgs)
}

func TestProcessInputReadOnly(t *testing.T) {
	s := NewServer(Config{Command: []string{"sh"}, ReadOnly: true})
	session, p := newFakeSession()

	s.processInput(context.Background(), &recordingWriter{}, []byte("0rm -rf /\r"), session)
	assert.Empty(t, p.written)
}

func TestCloseSessionIsIdempotent(t *testing.T) {
	s := NewServer(Config{Command: []string{"sh"}})
	session, p := newFakeSession()
	s.sessions.Store(session.ID, session)
	require.Equal(t, 1, s.Sessions())

	s.closeSession(session)
	s.closeSession(session)

	assert.True(t, p.closed)
	assert.Equal(t, 0, s.Sessions())
	select {
	case <-session.Done():
	default:
		t.Fatal("session context not cancelled")
	}
}

func TestConnectionLimit(t *testing.T) {
	s := NewServer(Config{Command: []string{"sh"}, MaxConnections: 1})

	require.True(t, s.checkConnectionLimit())
	assert.False(t, s.checkConnectionLimit())
	s.releaseConnection()
	assert.True(t, s.checkConnectionLimit())

	unlimited := NewServer(Config{Command: []string{"sh"}})
	for range 10 {
		assert.True(t, unlimited.checkConnectionLimit())
	}
}

func TestSessionTitle(t *testing.T) {
	title := sessionTitle([]string{"/usr/bin/htop", "-d", "10"})
	assert.True(t, strings.HasPrefix(title, "htop"), title)
	assert.True(t, strings.HasPrefix(sessionTitle(nil), "shell"))
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(NewServer(Config{Command: []string{"sh"}}).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestRejectsMissingSubprotocol(t *testing.T) {
	srv := httptest.NewServer(NewServer(Config{Command: []string{"sh"}}).Handler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	c, _, err := websocket.Dial(ctx, wsURL(srv), nil)
	require.NoError(t, err)
	defer func() { _ = c.CloseNow() }()

	_, _, err = c.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusPolicyViolation, websocket.CloseStatus(err))
}

type recordingTarget struct {
	mu       sync.Mutex
	output   strings.Builder
	titles   []string
	prefs    []adapter.Preferences
	messages []string
}

func (r *recordingTarget) Output(data []byte) {
	r.mu.Lock()
	r.output.Write(data)
	r.mu.Unlock()
}

func (r *recordingTarget) OnInput(func(string)) {}

func (r *recordingTarget) OnResize(fn func(int, int)) { fn(100, 30) }

func (r *recordingTarget) SetWindowTitle(title string) {
	r.mu.Lock()
	r.titles = append(r.titles, title)
	r.mu.Unlock()
}

func (r *recordingTarget) SetPreferences(p adapter.Preferences) {
	r.mu.Lock()
	r.prefs = append(r.prefs, p)
	r.mu.Unlock()
}

func (r *recordingTarget) ShowMessage(text string, _ time.Duration) {
	r.mu.Lock()
	r.messages = append(r.messages, text)
	r.mu.Unlock()
}

func (r *recordingTarget) Deactivate() {}

func TestSessionEndToEnd(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	for _, path := range []string{"/dev/ptmx", "/bin/sh"} {
		if _, err := os.Stat(path); err != nil {
			t.Skipf("%s not available", path)
		}
	}

	s := NewServer(Config{Command: []string{"/bin/sh", "-c", "stty size; printf ready"}, ReadOnly: true})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	target := &recordingTarget{}
	tty := transport.NewWebTTY(target, transport.NewConnectionFactory(wsURL(srv)), transport.WithPingInterval(0))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := tty.Run(ctx)
	require.False(t, errors.Is(err, context.DeadlineExceeded), "session never closed")
	require.NoError(t, err)

	target.mu.Lock()
	defer target.mu.Unlock()
	assert.Contains(t, target.output.String(), "30 100", "pty sized from the first resize")
	assert.Contains(t, target.output.String(), "ready")
	require.Len(t, target.titles, 1)
	assert.True(t, strings.HasPrefix(target.titles[0], "sh"))
	assert.Equal(t, []adapter.Preferences{{ReadOnly: true}}, target.prefs)
	assert.Equal(t, []string{"session closed"}, target.messages)

	require.Eventually(t, func() bool { return s.Sessions() == 0 }, 2*time.Second, 10*time.Millisecond)
}
