package web

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/x/xpty"
	"github.com/google/uuid"
)

// Default session size until the client reports its own.
const (
	defaultCols = 80
	defaultRows = 24
)

// processWaitDelay lets the last output drain before the session ends.
const processWaitDelay = 50 * time.Millisecond

// ptyDevice is the part of a pseudo-terminal a session uses.
type ptyDevice interface {
	io.ReadWriteCloser
	Resize(width, height int) error
}

// Session is one command running on a pseudo-terminal.
type Session struct {
	ID    string
	Title string
	Cols  int
	Rows  int

	pty        ptyDevice
	cmd        *exec.Cmd
	cancelFunc context.CancelFunc
	ctx        context.Context
	mu         sync.Mutex
	closed     bool
	startTime  time.Time
}

// Done returns a channel that is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Resize changes the pty dimensions. Non-positive sizes are ignored.
func (s *Session) Resize(cols, rows int) {
	if cols <= 0 || rows <= 0 {
		return
	}
	s.mu.Lock()
	s.Cols = cols
	s.Rows = rows
	s.mu.Unlock()

	if err := s.pty.Resize(cols, rows); err != nil {
		logger.Debug("pty resize failed", "session", s.ID, "err", err)
	}
}

// Read reads command output.
func (s *Session) Read(p []byte) (int, error) {
	return s.pty.Read(p)
}

// Write sends input to the command.
func (s *Session) Write(p []byte) (int, error) {
	return s.pty.Write(p)
}

func (s *Server) createSession(ctx context.Context, cols, rows int) (*Session, error) {
	if cols <= 0 {
		cols = defaultCols
	}
	if rows <= 0 {
		rows = defaultRows
	}

	logger.Debug("creating session", "cols", cols, "rows", rows, "command", s.config.Command)

	cmd := exec.Command(s.config.Command[0], s.config.Command[1:]...)
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
	)

	// xpty requires dimensions at creation time
	p, err := xpty.NewPty(cols, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to create pty: %w", err)
	}

	setupPTYCommand(cmd)

	if err := p.Start(cmd); err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("failed to start %s: %w", s.config.Command[0], err)
	}

	// Some pty implementations only apply the size once the process runs.
	_ = p.Resize(cols, rows)

	sessionCtx, cancel := context.WithCancel(ctx)
	session := &Session{
		ID:         uuid.NewString(),
		Title:      sessionTitle(s.config.Command),
		Cols:       cols,
		Rows:       rows,
		pty:        p,
		cmd:        cmd,
		cancelFunc: cancel,
		ctx:        sessionCtx,
		startTime:  time.Now(),
	}

	go func() {
		// xpty.WaitProcess also covers Windows ConPTY.
		if err := xpty.WaitProcess(sessionCtx, cmd); err != nil {
			logger.Debug("process exited", "session", session.ID, "err", err)
		}
		time.Sleep(processWaitDelay)
		cancel()
	}()

	s.sessions.Store(session.ID, session)
	logger.Debug("session created", "session", session.ID, "pid", cmd.Process.Pid)

	return session, nil
}

func (s *Server) closeSession(session *Session) {
	session.mu.Lock()
	if session.closed {
		session.mu.Unlock()
		return
	}
	session.closed = true
	session.mu.Unlock()

	session.cancelFunc()

	if session.cmd != nil && session.cmd.Process != nil {
		_ = session.cmd.Process.Kill()
	}
	if session.pty != nil {
		_ = session.pty.Close()
	}

	s.sessions.Delete(session.ID)

	logger.Debug("session closed",
		"session", session.ID,
		"duration", time.Since(session.startTime).Round(time.Millisecond),
	)
}

// sessionTitle names a session "command@host".
func sessionTitle(command []string) string {
	name := "shell"
	if len(command) > 0 {
		name = filepath.Base(command[0])
	}
	host, err := os.Hostname()
	if err != nil || host == "" {
		return name
	}
	return name + "@" + host
}

func detectShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}

	if runtime.GOOS == "windows" {
		for _, shell := range []string{"pwsh.exe", "powershell.exe", "cmd.exe"} {
			if _, err := exec.LookPath(shell); err == nil {
				return shell
			}
		}
		return "cmd.exe"
	}

	for _, shell := range []string{"/bin/bash", "/bin/zsh", "/bin/sh"} {
		if _, err := os.Stat(shell); err == nil {
			return shell
		}
	}
	return "/bin/sh"
}
