package adapter

import "slices"

// EventKind identifies the kind of pointer activity being reported.
type EventKind int

const (
	Press EventKind = iota
	Release
	Move
	WheelUp
	WheelDown
)

// String returns a human readable name for the event kind.
func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	case Move:
		return "move"
	case WheelUp:
		return "wheel-up"
	case WheelDown:
		return "wheel-down"
	default:
		return "unknown"
	}
}

// Modifiers holds the keyboard modifiers active during a pointer event.
type Modifiers struct {
	Shift bool
	Alt   bool
	Meta  bool
	Ctrl  bool
}

// PointerEvent is a raw pointer or wheel event in surface pixel coordinates.
// Button uses the common numbering: 0=left, 1=middle, 2=right.
type PointerEvent struct {
	Kind   EventKind
	Button int
	X, Y   float64
	Mods   Modifiers
}

// Cell is a zero-based grid position.
type Cell struct {
	Col int
	Row int
}

// PointerState tracks the buttons currently held down and the last cell
// that was reported to the remote side.
type PointerState struct {
	pressed []int // insertion order, no duplicates
	last    Cell
}

// Pressed reports whether any button is currently held.
func (s *PointerState) Pressed() bool {
	return len(s.pressed) > 0
}

// Buttons returns a copy of the held buttons in the order they were pressed.
func (s *PointerState) Buttons() []int {
	return slices.Clone(s.pressed)
}

// LastCell returns the last reported cell.
func (s *PointerState) LastCell() Cell {
	return s.last
}

func (s *PointerState) press(button int) {
	if !slices.Contains(s.pressed, button) {
		s.pressed = append(s.pressed, button)
	}
}

func (s *PointerState) release(button int) {
	if i := slices.Index(s.pressed, button); i >= 0 {
		s.pressed = slices.Delete(s.pressed, i, i+1)
	}
}

// first returns the earliest still-held button.
func (s *PointerState) first() int {
	return s.pressed[0]
}

// Reset forgets all held buttons and the last reported cell.
func (s *PointerState) Reset() {
	s.pressed = nil
	s.last = Cell{}
}
