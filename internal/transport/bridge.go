package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/Gaurav-Gosain/ttyglass/internal/adapter"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// Package-level logger
var logger *log.Logger

func init() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "transport",
	})
}

// SetLogLevel sets the logging level for the transport package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// SetLogOutput redirects the transport package logs.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

// DefaultPingInterval is how often the link is checked.
const DefaultPingInterval = 30 * time.Second

const outboundQueue = 64

// errSessionClosed ends Run when the server reports the session is over.
var errSessionClosed = errors.New("session closed by server")

// Target is the terminal end of the bridge. *adapter.Adapter implements it.
type Target interface {
	Output(data []byte)
	OnInput(func(data string))
	OnResize(func(columns, rows int))
	SetWindowTitle(title string)
	SetPreferences(adapter.Preferences)
	ShowMessage(text string, timeout time.Duration)
	Deactivate()
}

// WebTTY connects a Target to a remote terminal session.
type WebTTY struct {
	target       Target
	dialer       Dialer
	pingInterval time.Duration
	readOnly     atomic.Bool
}

// Option configures a WebTTY.
type Option func(*WebTTY)

// WithPingInterval sets the keepalive interval. Zero disables pings.
func WithPingInterval(d time.Duration) Option {
	return func(w *WebTTY) { w.pingInterval = d }
}

// NewWebTTY returns a bridge between target and the server dialer reaches.
func NewWebTTY(target Target, dialer Dialer, opts ...Option) *WebTTY {
	w := &WebTTY{
		target:       target,
		dialer:       dialer,
		pingInterval: DefaultPingInterval,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// ReadOnly reports whether the server disallowed input.
func (w *WebTTY) ReadOnly() bool {
	return w.readOnly.Load()
}

// Run connects and pumps messages until the server closes the session, the
// link fails or ctx is done. The target is deactivated before Run returns.
// A session ended by the server returns nil.
func (w *WebTTY) Run(ctx context.Context) error {
	conn, err := w.dialer.Create(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	defer w.target.Deactivate()

	g, gctx := errgroup.WithContext(ctx)

	outbound := make(chan []byte, outboundQueue)
	send := func(msg []byte) {
		select {
		case outbound <- msg:
		case <-gctx.Done():
		}
	}

	w.target.OnResize(func(cols, rows int) {
		data, err := json.Marshal(ResizeMessage{Cols: cols, Rows: rows})
		if err != nil {
			return
		}
		send(Encode(MsgResize, data))
	})
	w.target.OnInput(func(data string) {
		if w.readOnly.Load() {
			return
		}
		send(Encode(MsgInput, []byte(data)))
	})

	g.Go(func() error {
		for {
			select {
			case msg := <-outbound:
				if err := conn.Send(gctx, msg); err != nil {
					return fmt.Errorf("failed to send: %w", err)
				}
			case <-gctx.Done():
				return nil
			}
		}
	})

	g.Go(func() error {
		for {
			msg, err := conn.Receive(gctx)
			if err != nil {
				if gctx.Err() != nil {
					return nil
				}
				if errors.Is(err, io.EOF) {
					return errSessionClosed
				}
				return fmt.Errorf("failed to receive: %w", err)
			}
			if err := w.handle(msg, send); err != nil {
				return err
			}
		}
	})

	if w.pingInterval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(w.pingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					if err := conn.Ping(gctx); err != nil {
						if gctx.Err() != nil {
							return nil
						}
						return fmt.Errorf("ping failed: %w", err)
					}
				case <-gctx.Done():
					return nil
				}
			}
		})
	}

	err = g.Wait()
	if errors.Is(err, errSessionClosed) {
		logger.Debug("session closed by server")
		w.target.ShowMessage("session closed", 0)
		return nil
	}
	if err != nil {
		w.target.ShowMessage("connection lost", 0)
	}
	return err
}

func (w *WebTTY) handle(msg []byte, send func([]byte)) error {
	msgType, payload, ok := Decode(msg)
	if !ok {
		return nil
	}

	switch msgType {
	case MsgOutput:
		w.target.Output(payload)

	case MsgTitle:
		w.target.SetWindowTitle(string(payload))

	case MsgOptions:
		var opts OptionsMessage
		if err := json.Unmarshal(payload, &opts); err != nil {
			logger.Warn("invalid options message", "err", err)
			return nil
		}
		w.readOnly.Store(opts.ReadOnly)
		w.target.SetPreferences(adapter.Preferences{ReadOnly: opts.ReadOnly})
		logger.Debug("options received", "read_only", opts.ReadOnly)

	case MsgPing:
		send(Encode(MsgPong, nil))

	case MsgPong:
		// reply to our own ping; nothing to do

	case MsgClose:
		return errSessionClosed

	default:
		logger.Debug("unknown message type", "type", string(msgType))
	}
	return nil
}
