// Package web serves terminal sessions over websocket.
// Each connection gets its own command running on a pseudo-terminal.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// Package-level logger
var logger *log.Logger

func init() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "web",
	})
}

// SetLogLevel sets the logging level for the web package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// SetLogOutput redirects the web package logs.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Config holds the web server configuration.
type Config struct {
	Host           string   // Host to bind to (default: "localhost")
	Port           string   // Port to listen on (default: "7681")
	Command        []string // Command run for each session (default: the user's shell)
	ReadOnly       bool     // If true, disallow input from clients
	MaxConnections int      // Maximum concurrent connections (0 = unlimited)
	AllowOrigins   []string // Allowed origins (empty = all)
	Debug          bool     // Enable debug logging
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           "7681",
		ReadOnly:       false,
		MaxConnections: 0,
		AllowOrigins:   nil,
		Debug:          false,
	}
}

// Server represents the web terminal server.
type Server struct {
	config     Config
	httpServer *http.Server
	sessions   sync.Map // map[string]*Session
	connCount  atomic.Int32
}

// NewServer creates a new web terminal server.
func NewServer(config Config) *Server {
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == "" {
		config.Port = "7681"
	}
	if len(config.Command) == 0 {
		config.Command = []string{detectShell()}
	}

	if config.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	logger.Info("creating web server",
		"host", config.Host,
		"port", config.Port,
		"command", config.Command,
		"read_only", config.ReadOnly,
		"max_connections", config.MaxConnections,
	)

	return &Server{
		config: config,
	}
}

// Handler returns the HTTP handler serving the websocket and health
// endpoints.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/ws", s.handleWebSocket)

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return mux
}

// Start serves until ctx is done, then shuts down and closes every
// session.
func (s *Server) Start(ctx context.Context) error {
	addr := net.JoinHostPort(s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		logger.Info("HTTP server starting",
			"addr", addr,
			"url", fmt.Sprintf("ws://%s/ws", addr),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down web server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.closeAllSessions()
		_ = s.httpServer.Shutdown(shutdownCtx)
		return nil
	case err := <-errChan:
		return err
	}
}

// Sessions returns the number of live sessions.
func (s *Server) Sessions() int {
	n := 0
	s.sessions.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

func (s *Server) closeAllSessions() {
	s.sessions.Range(func(_, v any) bool {
		s.closeSession(v.(*Session))
		return true
	})
}

// checkConnectionLimit returns true if connection is allowed.
func (s *Server) checkConnectionLimit() bool {
	if s.config.MaxConnections <= 0 {
		return true
	}
	newCount := s.connCount.Add(1)
	if int(newCount) > s.config.MaxConnections {
		s.connCount.Add(-1)
		logger.Warn("connection limit reached",
			"current", newCount-1,
			"max", s.config.MaxConnections,
		)
		return false
	}
	logger.Debug("connection accepted", "count", newCount)
	return true
}

func (s *Server) releaseConnection() {
	if s.config.MaxConnections <= 0 {
		return
	}
	newCount := s.connCount.Add(-1)
	logger.Debug("connection released", "count", newCount)
}
