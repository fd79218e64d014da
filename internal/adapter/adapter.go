package adapter

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Package-level logger
var logger *log.Logger

func init() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "adapter",
	})
}

// SetLogLevel sets the logging level for the adapter package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// SetLogOutput redirects the adapter package logs.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

// State is a lifecycle state of an Adapter.
type State int

const (
	StateConstructing State = iota
	StateActive
	StateDeactivated
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConstructing:
		return "constructing"
	case StateActive:
		return "active"
	case StateDeactivated:
		return "deactivated"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Preferences are display preferences pushed by the remote side.
type Preferences struct {
	ReadOnly bool
}

type options struct {
	overlay  OverlaySurface
	titles   TitleSetter
	sources  []SizeSource
	timeout  time.Duration
	fallback Dimensions
}

// Option configures an Adapter.
type Option func(*options)

// WithOverlay sets where transient notices are drawn. By default the engine
// is used when it implements OverlaySurface.
func WithOverlay(s OverlaySurface) Option {
	return func(o *options) { o.overlay = s }
}

// WithTitleSetter injects the capability used by SetWindowTitle.
func WithTitleSetter(t TitleSetter) Option {
	return func(o *options) { o.titles = t }
}

// WithSizeSources adds sources whose changes trigger a refit.
func WithSizeSources(sources ...SizeSource) Option {
	return func(o *options) { o.sources = append(o.sources, sources...) }
}

// WithMessageTimeout sets how long size notices stay visible.
func WithMessageTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithFallbackSize sets the size Info reports while the engine cannot
// report one. Non-positive values keep 80x24.
func WithFallbackSize(columns, rows int) Option {
	return func(o *options) {
		if columns > 0 {
			o.fallback.Columns = columns
		}
		if rows > 0 {
			o.fallback.Rows = rows
		}
	}
}

// Adapter composes the encoder, overlay and resize handling on top of an
// Engine and exposes the callback surface a transport talks to.
type Adapter struct {
	engine   Engine
	overlay  *Messenger
	resize   *ResizeCoordinator
	titles   TitleSetter
	fallback Dimensions

	mu           sync.Mutex
	state        State
	input        func(data string)
	pointer      PointerState
	prefs        Preferences
	unsubPointer func()

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	captured chan struct{}
}

// New opens engine and returns an active Adapter.
func New(engine Engine, opts ...Option) (*Adapter, error) {
	o := options{
		timeout:  DefaultMessageTimeout,
		fallback: Dimensions{Columns: defaultColumns, Rows: defaultRows},
	}
	for _, opt := range opts {
		opt(&o)
	}

	if o.overlay == nil {
		if s, ok := engine.(OverlaySurface); ok {
			o.overlay = s
		}
	}

	a := &Adapter{
		engine:   engine,
		titles:   o.titles,
		fallback: o.fallback,
		state:    StateConstructing,
		captured: make(chan struct{}),
	}

	if err := engine.Open(); err != nil {
		return nil, fmt.Errorf("failed to open engine: %w", err)
	}

	a.overlay = NewMessenger(o.overlay)
	a.resize = NewResizeCoordinator(engine.Fit, a.Info, a.overlay)
	a.resize.SetMessageTimeout(o.timeout)

	engine.Fit()
	engine.OnData(a.handleData)
	a.resize.Observe(o.sources...)

	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.wg.Add(1)
	go a.captureMouse()

	a.mu.Lock()
	a.state = StateActive
	a.mu.Unlock()

	d := a.Info()
	logger.Debug("adapter active", "cols", d.Columns, "rows", d.Rows, "sources", len(o.sources))

	return a, nil
}

// captureMouse wires pointer events once the engine surface exists.
func (a *Adapter) captureMouse() {
	defer a.wg.Done()

	select {
	case <-a.engine.Ready():
	case <-a.ctx.Done():
		return
	}

	surface := a.engine.Surface()
	if surface == nil {
		logger.Warn("engine ready without a surface, mouse capture disabled")
		return
	}

	unsub := surface.OnPointer(a.handlePointer)

	a.mu.Lock()
	if a.state == StateClosed {
		a.mu.Unlock()
		unsub()
		return
	}
	a.unsubPointer = unsub
	a.mu.Unlock()

	logger.Debug("mouse capture wired")
	close(a.captured)
}

// Captured is closed once pointer events are wired to the encoder.
func (a *Adapter) Captured() <-chan struct{} {
	return a.captured
}

func (a *Adapter) handleData(data string) {
	a.mu.Lock()
	cb := a.input
	a.mu.Unlock()

	if cb != nil {
		cb(data)
	}
}

func (a *Adapter) handlePointer(ev PointerEvent) {
	tracking := a.engine.HasMouseTracking()

	surface := a.engine.Surface()
	if surface == nil {
		return
	}
	if s, ok := surface.(ContextMenuSuppressor); ok {
		s.SetContextMenu(!tracking)
	}

	w, h := surface.Size()
	dims := a.Info()
	grid := Grid{
		Columns: dims.Columns,
		Rows:    dims.Rows,
		Width:   w,
		Height:  h,
	}

	a.mu.Lock()
	cb := a.input
	if a.state == StateClosed || cb == nil {
		a.mu.Unlock()
		return
	}
	seq, ok := Encode(ev, grid, tracking, &a.pointer)
	a.mu.Unlock()

	if ok {
		cb(seq)
	}
}

// State returns the current lifecycle state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Info returns the current grid size, falling back to 80x24 (or the
// WithFallbackSize value) while the engine cannot report one.
func (a *Adapter) Info() Dimensions {
	cols, rows := a.engine.Cols(), a.engine.Rows()
	if cols <= 0 {
		cols = a.fallback.Columns
	}
	if rows <= 0 {
		rows = a.fallback.Rows
	}
	return Dimensions{Columns: cols, Rows: rows}
}

// Output displays data received from the remote side.
func (a *Adapter) Output(data []byte) {
	if a.State() == StateClosed {
		return
	}
	a.engine.Write(data)
}

// OnInput sets the receiver for keyboard data and mouse reports, replacing
// any previous one. A nil f drops input.
func (a *Adapter) OnInput(f func(data string)) {
	a.mu.Lock()
	a.input = f
	a.mu.Unlock()
}

// OnResize sets the receiver for size changes, replacing any previous one,
// and calls it immediately with the current size.
func (a *Adapter) OnResize(f func(columns, rows int)) {
	a.resize.SetCallback(f)
}

// SetWindowTitle forwards title to the injected TitleSetter.
func (a *Adapter) SetWindowTitle(title string) {
	if a.titles == nil {
		return
	}
	a.titles.SetTitle(title)
}

// SetPreferences stores preferences sent by the remote side.
func (a *Adapter) SetPreferences(p Preferences) {
	a.mu.Lock()
	a.prefs = p
	a.mu.Unlock()
}

// Preferences returns the last preferences set.
func (a *Adapter) Preferences() Preferences {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prefs
}

// ShowMessage displays a transient notice.
func (a *Adapter) ShowMessage(text string, timeout time.Duration) {
	a.overlay.Show(text, timeout)
}

// RemoveMessage hides the notice.
func (a *Adapter) RemoveMessage() {
	a.overlay.Hide()
}

// SetMessageTimeout changes how long size notices stay visible.
func (a *Adapter) SetMessageTimeout(d time.Duration) {
	a.resize.SetMessageTimeout(d)
}

// Deactivate drops both callbacks and blurs the engine. Only an active
// adapter can be deactivated, and it cannot be reactivated.
func (a *Adapter) Deactivate() {
	a.mu.Lock()
	if a.state != StateActive {
		a.mu.Unlock()
		return
	}
	a.input = nil
	a.state = StateDeactivated
	a.mu.Unlock()

	a.resize.SetCallback(nil)
	a.engine.Blur()
	logger.Debug("adapter deactivated")
}

// Reset hides the notice and clears the engine buffer.
func (a *Adapter) Reset() {
	if a.State() != StateActive {
		return
	}
	a.overlay.Hide()
	a.engine.Clear()
}

// Subscriptions returns the number of external subscriptions still held.
func (a *Adapter) Subscriptions() int {
	n := a.resize.Subscriptions()
	a.mu.Lock()
	if a.unsubPointer != nil {
		n++
	}
	a.mu.Unlock()
	return n
}

// Close releases every subscription and then disposes the engine. Calling
// it again does nothing.
func (a *Adapter) Close() {
	a.mu.Lock()
	if a.state == StateClosed {
		a.mu.Unlock()
		return
	}
	a.state = StateClosed
	a.input = nil
	a.pointer.Reset()
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()

	a.mu.Lock()
	unsub := a.unsubPointer
	a.unsubPointer = nil
	a.mu.Unlock()
	if unsub != nil {
		unsub()
	}

	a.resize.Release()
	a.resize.SetCallback(nil)
	a.overlay.Stop()

	if err := a.engine.Dispose(); err != nil {
		logger.Warn("engine dispose failed", "err", err)
	}
	logger.Debug("adapter closed")
}
