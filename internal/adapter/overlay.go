package adapter

import (
	"sync"
	"time"
)

// DefaultMessageTimeout is how long size notices stay on screen.
const DefaultMessageTimeout = 2 * time.Second

// timer is the part of *time.Timer the messenger needs.
type timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) timer

func realAfterFunc(d time.Duration, f func()) timer {
	return time.AfterFunc(d, f)
}

// Messenger shows a transient notice on an OverlaySurface. At most one hide
// timer is pending at any time: showing a new message cancels the previous
// timer instead of queueing behind it.
type Messenger struct {
	mu       sync.Mutex
	surface  OverlaySurface
	after    afterFunc
	pending  timer
	gen      uint64
	text     string
	attached bool
}

// NewMessenger creates a messenger drawing on surface.
func NewMessenger(surface OverlaySurface) *Messenger {
	if surface == nil {
		surface = nopOverlay{}
	}
	return &Messenger{
		surface: surface,
		after:   realAfterFunc,
	}
}

// Show displays text. A positive timeout hides it after that long; zero or
// negative keeps it until Hide.
func (m *Messenger) Show(text string, timeout time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.text = text
	m.attached = true
	m.surface.ShowOverlay(text)

	m.cancelLocked()
	if timeout > 0 {
		gen := m.gen
		m.pending = m.after(timeout, func() { m.expire(gen) })
	}
}

// Hide removes the notice if it is shown.
func (m *Messenger) Hide() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hideLocked()
}

// Stop cancels a pending hide without touching the notice.
func (m *Messenger) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked()
}

// Visible reports whether a notice is attached and returns its text.
func (m *Messenger) Visible() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, m.attached
}

// expire runs on the timer goroutine. A timer that fired while being
// replaced carries an old generation and does nothing.
func (m *Messenger) expire(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}
	m.pending = nil
	m.hideLocked()
}

func (m *Messenger) cancelLocked() {
	m.gen++
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
}

func (m *Messenger) hideLocked() {
	if !m.attached {
		return
	}
	m.attached = false
	m.surface.HideOverlay()
}
