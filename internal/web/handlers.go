package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/Gaurav-Gosain/ttyglass/internal/transport"
	"github.com/coder/websocket"
)

// Buffer sizes
const (
	readBufSize  = 16 * 1024 // 16KB read buffer
	writeBufSize = readBufSize + 1
)

// initialSizeWait bounds how long a connection may take to report its
// size before the session starts at the default size.
const initialSizeWait = 5 * time.Second

// Buffer pools to reduce allocations
var (
	readBufPool = sync.Pool{
		New: func() any {
			b := make([]byte, readBufSize)
			return &b
		},
	}
	writeBufPool = sync.Pool{
		New: func() any {
			b := make([]byte, writeBufSize)
			return &b
		},
	}
)

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.checkConnectionLimit() {
		http.Error(w, "Maximum connections reached", http.StatusServiceUnavailable)
		return
	}
	defer s.releaseConnection()

	logger.Info("WebSocket connection attempt",
		"remote", r.RemoteAddr,
		"user_agent", r.UserAgent(),
	)

	opts := &websocket.AcceptOptions{
		Subprotocols:   []string{transport.Subprotocol},
		OriginPatterns: s.config.AllowOrigins,
	}
	if len(s.config.AllowOrigins) == 0 {
		opts.OriginPatterns = []string{"*"}
	}

	conn, err := websocket.Accept(w, r, opts)
	if err != nil {
		logger.Error("WebSocket accept failed", "err", err, "remote", r.RemoteAddr)
		return
	}
	defer func() { _ = conn.CloseNow() }()

	if conn.Subprotocol() != transport.Subprotocol {
		logger.Warn("client did not negotiate sub-protocol", "remote", r.RemoteAddr)
		_ = conn.Close(websocket.StatusPolicyViolation, "sub-protocol "+transport.Subprotocol+" required")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	cols, rows, pending := readInitialSize(ctx, conn)

	startTime := time.Now()
	session, err := s.createSession(ctx, cols, rows)
	if err != nil {
		logger.Error("session creation failed", "err", err, "remote", r.RemoteAddr)
		_ = conn.Close(websocket.StatusInternalError, "failed to start session")
		return
	}
	defer func() {
		s.closeSession(session)
		logger.Info("WebSocket session ended",
			"session", session.ID,
			"remote", r.RemoteAddr,
			"duration", time.Since(startTime).Round(time.Second),
		)
	}()

	logger.Info("WebSocket session started",
		"session", session.ID,
		"remote", r.RemoteAddr,
		"cols", session.Cols,
		"rows", session.Rows,
	)

	optionsData, _ := json.Marshal(transport.OptionsMessage{ReadOnly: s.config.ReadOnly})
	_ = conn.Write(ctx, websocket.MessageBinary, transport.Encode(transport.MsgOptions, optionsData))
	_ = conn.Write(ctx, websocket.MessageBinary, transport.Encode(transport.MsgTitle, []byte(session.Title)))

	if pending != nil {
		s.processInput(ctx, conn, pending, session)
	}

	// Closing the pty unblocks the output reader when the client leaves.
	go func() {
		<-ctx.Done()
		s.closeSession(session)
	}()

	var wg sync.WaitGroup
	wg.Add(3)

	// PTY -> WebSocket
	go func() {
		defer wg.Done()
		s.streamPTYToWebSocket(ctx, conn, session)
	}()

	// WebSocket -> PTY
	go func() {
		defer wg.Done()
		defer cancel()
		s.handleWebSocketInput(ctx, conn, session)
	}()

	// Process exit -> close message
	go func() {
		defer wg.Done()
		defer cancel()
		s.sendCloseOnExit(ctx, conn, session)
	}()

	wg.Wait()
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

// readInitialSize waits for the first message. A resize sets the session
// size; anything else is returned to be processed once the session runs.
func readInitialSize(ctx context.Context, conn *websocket.Conn) (cols, rows int, pending []byte) {
	readCtx, cancel := context.WithTimeout(ctx, initialSizeWait)
	defer cancel()

	_, data, err := conn.Read(readCtx)
	if err != nil {
		return 0, 0, nil
	}
	msgType, payload, ok := transport.Decode(data)
	if !ok || msgType != transport.MsgResize {
		return 0, 0, data
	}
	var resize transport.ResizeMessage
	if err := json.Unmarshal(payload, &resize); err != nil {
		return 0, 0, nil
	}
	return resize.Cols, resize.Rows, nil
}

// streamPTYToWebSocket reads from the pty and writes output frames until
// the pty is closed.
func (s *Server) streamPTYToWebSocket(ctx context.Context, conn *websocket.Conn, session *Session) {
	bufPtr := readBufPool.Get().(*[]byte)
	buf := *bufPtr
	defer readBufPool.Put(bufPtr)

	msgPtr := writeBufPool.Get().(*[]byte)
	msg := *msgPtr
	msg[0] = transport.MsgOutput
	defer writeBufPool.Put(msgPtr)

	var totalBytes int64

	for {
		n, err := session.Read(buf)
		if n > 0 {
			if totalBytes == 0 {
				logger.Debug("first output received", "session", session.ID, "bytes", n)
			}
			totalBytes += int64(n)
			copy(msg[1:], buf[:n])
			if werr := conn.Write(ctx, websocket.MessageBinary, msg[:n+1]); werr != nil {
				logger.Debug("WebSocket write error", "session", session.ID, "err", werr)
				return
			}
		}
		if err != nil {
			logger.Debug("output closed", "session", session.ID, "bytes_sent", totalBytes, "error", err)
			return
		}

		select {
		case <-ctx.Done():
			logger.Debug("WebSocket output stopped (context)", "session", session.ID, "bytes_sent", totalBytes)
			return
		default:
		}
	}
}

// sendCloseOnExit tells the client the command is gone once it has exited.
// Nothing is sent when the client left first.
func (s *Server) sendCloseOnExit(ctx context.Context, conn *websocket.Conn, session *Session) {
	select {
	case <-session.Done():
	case <-ctx.Done():
		return
	}
	if ctx.Err() != nil {
		return
	}
	logger.Debug("session ended, sending close", "session", session.ID)
	_ = conn.Write(ctx, websocket.MessageBinary, []byte{transport.MsgClose})
}

func (s *Server) handleWebSocketInput(ctx context.Context, conn *websocket.Conn, session *Session) {
	var totalBytes int64
	var msgCount int64

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			var ce websocket.CloseError
			if errors.As(err, &ce) || ctx.Err() != nil {
				logger.Debug("WebSocket input stopped", "session", session.ID, "messages", msgCount, "bytes", totalBytes)
			} else {
				logger.Debug("WebSocket read error", "session", session.ID, "err", err)
			}
			return
		}

		totalBytes += int64(len(data))
		msgCount++
		s.processInput(ctx, conn, data, session)
	}
}

// messageWriter is the part of the connection processInput replies on.
type messageWriter interface {
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
}

func (s *Server) processInput(ctx context.Context, conn messageWriter, data []byte, session *Session) {
	msgType, payload, ok := transport.Decode(data)
	if !ok {
		return
	}

	switch msgType {
	case transport.MsgInput:
		if !s.config.ReadOnly {
			_, _ = session.Write(payload)
		}

	case transport.MsgResize:
		var resize transport.ResizeMessage
		if err := json.Unmarshal(payload, &resize); err != nil {
			logger.Warn("invalid resize message", "session", session.ID, "err", err)
			return
		}
		session.Resize(resize.Cols, resize.Rows)

		logger.Debug("terminal resized",
			"session", session.ID,
			"to", []int{resize.Cols, resize.Rows},
		)

	case transport.MsgPing:
		_ = conn.Write(ctx, websocket.MessageBinary, []byte{transport.MsgPong})
	}
}
