// Package hostterm renders a remote terminal session on the local tty.
//
// The host terminal does the drawing. Terminal only puts the tty in raw
// mode, asks it for SGR mouse reports, follows which mouse modes the remote
// program enabled and turns host input back into keyboard data and pointer
// events.
package hostterm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/Gaurav-Gosain/ttyglass/internal/adapter"
	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/cancelreader"
	"golang.org/x/term"
)

// Package-level logger
var logger *log.Logger

func init() {
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "hostterm",
	})
}

// SetLogLevel sets the logging level for the hostterm package.
func SetLogLevel(level log.Level) {
	logger.SetLevel(level)
}

// SetLogOutput redirects the hostterm package logs.
func SetLogOutput(w io.Writer) {
	logger.SetOutput(w)
}

// ErrNotTerminal is returned by Open when input is not a tty.
var ErrNotTerminal = errors.New("input is not a terminal")

const modeTextCursor = ansi.DECMode(25)

// resetSequence turns off every mode Open or the remote program may have
// left on the host.
var resetSequence = ansi.ResetMode(
	ansi.ModeMouseX10,
	ansi.ModeMouseNormal,
	ansi.ModeMouseHighlight,
	ansi.ModeMouseButtonEvent,
	ansi.ModeMouseAnyEvent,
	ansi.ModeFocusEvent,
	ansi.ModeMouseExtSgr,
	modeMouseSgrPixel,
) + ansi.SetMode(modeTextCursor) + ansi.ResetStyle

// Option configures a Terminal.
type Option func(*Terminal)

// WithPixelMouse controls whether pixel precise reports (mode 1016) are
// requested when the tty reports its pixel size. On by default.
func WithPixelMouse(enabled bool) Option {
	return func(t *Terminal) { t.pixelMouse = enabled }
}

// WithProfile overrides the detected color profile used for the overlay.
func WithProfile(p colorprofile.Profile) Option {
	return func(t *Terminal) { t.profile = &p }
}

// Terminal is an adapter.Engine backed by the local tty.
type Terminal struct {
	in    *os.File
	out   io.Writer
	inFd  int
	outFd int

	outMu   sync.Mutex
	styled  *colorprofile.Writer
	profile *colorprofile.Profile

	mu         sync.Mutex
	cols, rows int
	pxW, pxH   int
	pixelMouse bool
	pixelMode  bool
	blurred    bool
	disposed   bool
	onData     func(string)
	handlers   map[int]func(adapter.PointerEvent)
	nextID     int
	overlay    overlayArea
	shown      bool

	modes    *ModeTracker
	oldState *term.State
	reader   cancelreader.CancelReader
	wg       sync.WaitGroup

	ready     chan struct{}
	readyOnce sync.Once
}

var (
	_ adapter.Engine                = (*Terminal)(nil)
	_ adapter.Surface               = (*Terminal)(nil)
	_ adapter.OverlaySurface        = (*Terminal)(nil)
	_ adapter.TitleSetter           = (*Terminal)(nil)
	_ adapter.ContextMenuSuppressor = (*Terminal)(nil)
)

// New returns a Terminal reading from in and drawing to out. Nothing is
// touched until Open.
func New(in *os.File, out *os.File, opts ...Option) *Terminal {
	t := newTerminal(out, opts...)
	t.in = in
	t.inFd = int(in.Fd())
	t.outFd = int(out.Fd())
	return t
}

func newTerminal(out io.Writer, opts ...Option) *Terminal {
	t := &Terminal{
		out:        out,
		inFd:       -1,
		outFd:      -1,
		pixelMouse: true,
		handlers:   make(map[int]func(adapter.PointerEvent)),
		modes:      NewModeTracker(),
		ready:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.styled = colorprofile.NewWriter(out, os.Environ())
	if t.profile != nil {
		t.styled.Profile = *t.profile
	}
	return t
}

// Open puts the tty in raw mode, enables host mouse reporting and starts
// reading input.
func (t *Terminal) Open() error {
	if t.in == nil || !term.IsTerminal(t.inFd) {
		return ErrNotTerminal
	}

	state, err := term.MakeRaw(t.inFd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}

	reader, err := cancelreader.NewReader(t.in)
	if err != nil {
		_ = term.Restore(t.inFd, state)
		return fmt.Errorf("failed to create input reader: %w", err)
	}

	t.Fit()

	t.mu.Lock()
	t.oldState = state
	t.reader = reader
	t.pixelMode = t.pixelMouse && t.pxW > 0 && t.pxH > 0
	cols, rows, pixel := t.cols, t.rows, t.pixelMode
	t.mu.Unlock()

	t.writeString(ansi.SetMode(t.hostModes()...))
	logger.Debug("opened host terminal", "cols", cols, "rows", rows, "pixels", pixel)

	t.wg.Add(1)
	go t.readLoop()

	t.markReady()
	return nil
}

func (t *Terminal) markReady() {
	t.readyOnce.Do(func() { close(t.ready) })
}

func (t *Terminal) hostModes() []ansi.Mode {
	modes := []ansi.Mode{ansi.ModeMouseButtonEvent, ansi.ModeMouseExtSgr}
	t.mu.Lock()
	pixel := t.pixelMode
	t.mu.Unlock()
	if pixel {
		modes = append(modes, modeMouseSgrPixel)
	}
	return modes
}

func (t *Terminal) readLoop() {
	defer t.wg.Done()

	var dec Decoder
	buf := make([]byte, 4096)
	for {
		n, err := t.reader.Read(buf)
		if n > 0 {
			t.dispatch(dec.Feed(buf[:n]))
		}
		if err != nil {
			if !errors.Is(err, cancelreader.ErrCanceled) {
				logger.Debug("input closed", "err", err)
			}
			return
		}
	}
}

func (t *Terminal) dispatch(inputs []Input) {
	for _, in := range inputs {
		if in.IsPointer {
			t.emitPointer(in.Pointer)
			continue
		}
		t.mu.Lock()
		fn := t.onData
		if t.blurred {
			fn = nil
		}
		t.mu.Unlock()
		if fn != nil {
			fn(in.Data)
		}
	}
}

func (t *Terminal) emitPointer(ev adapter.PointerEvent) {
	t.mu.Lock()
	fns := make([]func(adapter.PointerEvent), 0, len(t.handlers))
	for _, fn := range t.handlers {
		fns = append(fns, fn)
	}
	t.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Write passes remote output to the host unchanged. When the remote program
// flips mouse modes the host modes are asserted again, since the program's
// sequences reach the host too.
func (t *Terminal) Write(data []byte) {
	changed := t.modes.Scan(data)
	t.writeBytes(data)
	if changed && t.modes.Tracking() {
		t.writeString(ansi.SetMode(t.hostModes()...))
	}
}

func (t *Terminal) writeBytes(p []byte) {
	t.outMu.Lock()
	defer t.outMu.Unlock()
	if _, err := t.out.Write(p); err != nil {
		logger.Debug("write failed", "err", err)
	}
}

func (t *Terminal) writeString(s string) {
	t.writeBytes([]byte(s))
}

// OnData sets the single receiver of keyboard data.
func (t *Terminal) OnData(fn func(string)) {
	t.mu.Lock()
	t.onData = fn
	t.mu.Unlock()
}

func (t *Terminal) Cols() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cols
}

func (t *Terminal) Rows() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rows
}

// HasMouseTracking reports whether the remote program enabled mouse
// reporting.
func (t *Terminal) HasMouseTracking() bool {
	return t.modes.Tracking()
}

// Clear erases the host screen.
func (t *Terminal) Clear() {
	t.writeString(ansi.EraseEntireScreen + ansi.CursorHomePosition)
	t.mu.Lock()
	t.shown = false
	t.mu.Unlock()
}

// Blur stops forwarding keyboard data.
func (t *Terminal) Blur() {
	t.mu.Lock()
	t.blurred = true
	t.mu.Unlock()
}

// Fit reads the current tty size.
func (t *Terminal) Fit() {
	if t.outFd < 0 {
		return
	}
	cols, rows, err := term.GetSize(t.outFd)
	if err != nil {
		logger.Debug("failed to get terminal size", "err", err)
		return
	}
	pw, ph := pixelSize(t.outFd)

	t.mu.Lock()
	t.cols, t.rows = cols, rows
	t.pxW, t.pxH = pw, ph
	t.mu.Unlock()
}

// Surface returns the terminal itself once Open has succeeded.
func (t *Terminal) Surface() adapter.Surface {
	select {
	case <-t.ready:
		return t
	default:
		return nil
	}
}

// Ready is closed once Open succeeds.
func (t *Terminal) Ready() <-chan struct{} {
	return t.ready
}

// Size returns the area reports are measured in: pixels when the host
// sends pixel reports, cells otherwise.
func (t *Terminal) Size() (float64, float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pixelMode && t.pxW > 0 && t.pxH > 0 {
		return float64(t.pxW), float64(t.pxH)
	}
	return float64(t.cols), float64(t.rows)
}

// OnPointer subscribes fn to decoded mouse reports.
func (t *Terminal) OnPointer(fn func(adapter.PointerEvent)) func() {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextID
	t.nextID++
	t.handlers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.handlers, id)
			t.mu.Unlock()
		})
	}
}

// SetContextMenu is a no-op; terminals have no context menu to suppress.
func (t *Terminal) SetContextMenu(bool) {}

// ShowOverlay draws text centered over the grid, replacing any notice
// already shown.
func (t *Terminal) ShowOverlay(text string) {
	t.mu.Lock()
	prev, shown := t.overlay, t.shown
	cols, rows := t.cols, t.rows
	t.mu.Unlock()

	seq, area := renderOverlay(text, cols, rows)
	t.outMu.Lock()
	if shown && prev != area {
		_, _ = io.WriteString(t.out, blankOverlay(prev))
	}
	_, err := io.WriteString(t.styled, seq)
	t.outMu.Unlock()
	if err != nil {
		logger.Debug("failed to draw overlay", "err", err)
	}

	t.mu.Lock()
	t.overlay, t.shown = area, true
	t.mu.Unlock()
}

// HideOverlay blanks the notice area. Whatever the remote program drew
// underneath is not restored until it redraws.
func (t *Terminal) HideOverlay() {
	t.mu.Lock()
	area, shown := t.overlay, t.shown
	t.shown = false
	t.mu.Unlock()
	if shown {
		t.writeString(blankOverlay(area))
	}
}

// SetTitle sets the host window title.
func (t *Terminal) SetTitle(title string) {
	t.writeString(ansi.SetWindowTitle(title))
}

// Dispose resets host modes, stops reading input and restores the tty.
// Calls after the first do nothing.
func (t *Terminal) Dispose() error {
	t.mu.Lock()
	if t.disposed {
		t.mu.Unlock()
		return nil
	}
	t.disposed = true
	t.onData = nil
	clear(t.handlers)
	reader, state := t.reader, t.oldState
	t.mu.Unlock()

	t.writeString(resetSequence)

	if reader != nil {
		reader.Cancel()
		t.wg.Wait()
		_ = reader.Close()
	}
	if state != nil {
		if err := term.Restore(t.inFd, state); err != nil {
			return fmt.Errorf("failed to restore terminal: %w", err)
		}
	}
	return nil
}
