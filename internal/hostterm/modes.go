package hostterm

import (
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// modeMouseSgrPixel is SGR mouse reporting with pixel coordinates.
const modeMouseSgrPixel = ansi.DECMode(1016)

var trackingModes = []ansi.DECMode{
	ansi.ModeMouseX10,
	ansi.ModeMouseNormal,
	ansi.ModeMouseHighlight,
	ansi.ModeMouseButtonEvent,
	ansi.ModeMouseAnyEvent,
}

// ModeTracker follows the mouse modes a program enables by scanning the
// output it writes. It only detects capabilities and keeps no screen.
type ModeTracker struct {
	mu       sync.Mutex
	parser   *ansi.Parser
	tracking map[ansi.DECMode]bool
	sgr      bool
	changed  bool
}

// NewModeTracker returns a tracker with every mouse mode off.
func NewModeTracker() *ModeTracker {
	m := &ModeTracker{tracking: make(map[ansi.DECMode]bool)}
	m.parser = ansi.NewParser()
	m.parser.SetHandler(ansi.Handler{
		HandleCsi: m.handleCsi,
		HandleEsc: m.handleEsc,
	})
	return m
}

// Scan feeds output through the parser and reports whether any mouse mode
// changed. Sequences split across calls are handled by the parser state.
func (m *ModeTracker) Scan(p []byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changed = false
	for _, b := range p {
		m.parser.Advance(b)
	}
	return m.changed
}

// Tracking reports whether any mouse tracking mode is on.
func (m *ModeTracker) Tracking() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tracking) > 0
}

// SGR reports whether the program asked for SGR encoded reports.
func (m *ModeTracker) SGR() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sgr
}

func (m *ModeTracker) handleCsi(cmd ansi.Cmd, params ansi.Params) {
	if cmd.Prefix() != '?' {
		return
	}
	var set bool
	switch cmd.Final() {
	case 'h':
		set = true
	case 'l':
	default:
		return
	}

	for i := range params {
		p, _, ok := params.Param(i, -1)
		if !ok || p < 0 {
			continue
		}
		mode := ansi.DECMode(p)
		if mode == ansi.ModeMouseExtSgr {
			if m.sgr != set {
				m.sgr = set
				m.changed = true
			}
			continue
		}
		for _, tm := range trackingModes {
			if mode != tm {
				continue
			}
			if set && !m.tracking[mode] {
				m.tracking[mode] = true
				m.changed = true
			} else if !set && m.tracking[mode] {
				delete(m.tracking, mode)
				m.changed = true
			}
		}
	}
}

// handleEsc resets everything on RIS.
func (m *ModeTracker) handleEsc(cmd ansi.Cmd) {
	if cmd.Final() != 'c' || cmd.Intermediate() != 0 {
		return
	}
	if len(m.tracking) > 0 || m.sgr {
		m.changed = true
	}
	clear(m.tracking)
	m.sgr = false
}
