package adapter

import (
	"sync"
	"time"
)

type fakeSurface struct {
	mu          sync.Mutex
	width       float64
	height      float64
	handlers    map[int]func(PointerEvent)
	nextID      int
	contextMenu *bool
}

func newFakeSurface(w, h float64) *fakeSurface {
	return &fakeSurface{width: w, height: h, handlers: make(map[int]func(PointerEvent))}
}

func (s *fakeSurface) Size() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.width, s.height
}

func (s *fakeSurface) OnPointer(fn func(PointerEvent)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.handlers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.handlers, id)
		s.mu.Unlock()
	}
}

func (s *fakeSurface) SetContextMenu(enabled bool) {
	s.mu.Lock()
	s.contextMenu = &enabled
	s.mu.Unlock()
}

func (s *fakeSurface) emit(ev PointerEvent) {
	s.mu.Lock()
	fns := make([]func(PointerEvent), 0, len(s.handlers))
	for _, fn := range s.handlers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

func (s *fakeSurface) subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers)
}

type fakeEngine struct {
	mu       sync.Mutex
	cols     int
	rows     int
	tracking bool
	surface  *fakeSurface
	ready    chan struct{}
	onData   func(string)
	written  []byte
	overlay  []string

	opened, cleared, blurred, fits, disposed int
	openErr                                  error

	// onDispose runs at the start of Dispose.
	onDispose func()
}

func newFakeEngine(cols, rows int) *fakeEngine {
	return &fakeEngine{
		cols:    cols,
		rows:    rows,
		surface: newFakeSurface(float64(cols*10), float64(rows*20)),
		ready:   make(chan struct{}),
	}
}

// materialize makes the surface available, as a renderer finishing startup.
func (e *fakeEngine) materialize() {
	close(e.ready)
}

func (e *fakeEngine) Open() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opened++
	return e.openErr
}

func (e *fakeEngine) Write(data []byte) {
	e.mu.Lock()
	e.written = append(e.written, data...)
	e.mu.Unlock()
}

func (e *fakeEngine) OnData(fn func(string)) {
	e.mu.Lock()
	e.onData = fn
	e.mu.Unlock()
}

func (e *fakeEngine) typeData(s string) {
	e.mu.Lock()
	fn := e.onData
	e.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (e *fakeEngine) Cols() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cols
}

func (e *fakeEngine) Rows() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rows
}

func (e *fakeEngine) resizeTo(cols, rows int) {
	e.mu.Lock()
	e.cols, e.rows = cols, rows
	e.mu.Unlock()
}

func (e *fakeEngine) HasMouseTracking() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tracking
}

func (e *fakeEngine) setTracking(on bool) {
	e.mu.Lock()
	e.tracking = on
	e.mu.Unlock()
}

func (e *fakeEngine) Clear() {
	e.mu.Lock()
	e.cleared++
	e.mu.Unlock()
}

func (e *fakeEngine) Blur() {
	e.mu.Lock()
	e.blurred++
	e.mu.Unlock()
}

func (e *fakeEngine) Fit() {
	e.mu.Lock()
	e.fits++
	e.mu.Unlock()
}

func (e *fakeEngine) Surface() Surface {
	select {
	case <-e.ready:
		return e.surface
	default:
		return nil
	}
}

func (e *fakeEngine) Ready() <-chan struct{} {
	return e.ready
}

func (e *fakeEngine) Dispose() error {
	if e.onDispose != nil {
		e.onDispose()
	}
	e.mu.Lock()
	e.disposed++
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) ShowOverlay(text string) {
	e.mu.Lock()
	e.overlay = append(e.overlay, text)
	e.mu.Unlock()
}

func (e *fakeEngine) HideOverlay() {
	e.mu.Lock()
	e.overlay = append(e.overlay, "")
	e.mu.Unlock()
}

func (e *fakeEngine) counts() (fits, cleared, blurred, disposed int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fits, e.cleared, e.blurred, e.disposed
}

// fakeClock records scheduled timers so tests can fire them by hand.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// live returns the timers that were neither stopped nor fired.
func (c *fakeClock) live() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			out = append(out, t)
		}
	}
	return out
}

func (t *fakeTimer) fire() {
	t.fired = true
	t.f()
}

type recordingOverlay struct {
	mu     sync.Mutex
	shown  []string
	hidden int
}

func (r *recordingOverlay) ShowOverlay(text string) {
	r.mu.Lock()
	r.shown = append(r.shown, text)
	r.mu.Unlock()
}

func (r *recordingOverlay) HideOverlay() {
	r.mu.Lock()
	r.hidden++
	r.mu.Unlock()
}

func (r *recordingOverlay) hides() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hidden
}
